package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := a.engine.Settings()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(all)
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%s\n", k, all[k])
			}
			return tw.Flush()
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a setting, e.g. settings set promptIntervalMinutes 30",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.SetSetting(args[0], args[1]); err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(map[string]string{args[0]: args[1]})
			}
			fmt.Fprintf(a.out, "%s = %s\n", args[0], bold(args[1]))
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}
