package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/binto/internal/export"
	"github.com/sadopc/binto/internal/store"
)

func (a *app) exportCommand() *cobra.Command {
	var from, to, format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export time entries as CSV or JSON",
		Long: `export writes every entry that started between --from and --to, both
inclusive, to --output or standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("export: format %q: want csv or json: %w", format, store.ErrInvalidInput)
			}
			start, err := a.day(from)
			if err != nil {
				return err
			}
			last, err := a.day(to)
			if err != nil {
				return err
			}
			if last.Before(start) {
				return fmt.Errorf("export: --to is before --from: %w", store.ErrInvalidRange)
			}

			intervals, err := a.engine.Entries(start, last.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			projects, err := a.engine.Projects()
			if err != nil {
				return err
			}
			data := export.NewData(intervals, projects, a.store.Location())
			now := a.engine.Now()

			if output == "" || output == "-" {
				if format == "json" {
					return export.WriteJSON(a.out, data, now)
				}
				return export.WriteCSV(a.out, data)
			}
			if format == "json" {
				err = export.ToJSON(data, output, now)
			} else {
				err = export.ToCSV(data, output)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "exported %d entries to %s\n", len(intervals), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "-7d", "first day to export")
	cmd.Flags().StringVar(&to, "to", "today", "last day to export")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default standard output)")
	return cmd
}
