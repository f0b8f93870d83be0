package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) projectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List projects, most recently used first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.engine.Projects()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(projects)
			}
			if len(projects) == 0 {
				fmt.Fprintln(a.out, dim("no projects yet; add one with: binto project add NAME"))
				return nil
			}
			now := a.engine.Now()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLAST USED")
			for _, p := range projects {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, relative(p.LastUsedAt, now))
			}
			return tw.Flush()
		},
	}
}

func (a *app) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Add or remove projects",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.engine.CreateProject(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(p)
			}
			fmt.Fprintf(a.out, "%s project %s (#%d)\n", green("created"), bold(p.Name), p.ID)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "rm NAME|ID",
		Aliases: []string{"delete"},
		Short:   "Delete a project and all of its time entries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.engine.ResolveProject(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.DeleteProject(p.ID); err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(p)
			}
			fmt.Fprintf(a.out, "deleted project %s\n", bold(p.Name))
			return nil
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}
