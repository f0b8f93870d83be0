package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/binto/internal/store"
	"github.com/sadopc/binto/internal/timeparse"
)

func (a *app) entryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Add, edit or delete individual time entries",
	}
	cmd.AddCommand(a.entryAddCommand(), a.entryEditCommand(), a.entryRemoveCommand())
	return cmd
}

// at parses a start or end time. Times of day are placed on date.
func (a *app) at(s string, date time.Time) (time.Time, error) {
	now := a.engine.Now().In(a.store.Location())
	t, err := timeparse.At(s, date, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w: %w", s, store.ErrInvalidInput, err)
	}
	return t, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("entry id %q: %w", s, store.ErrInvalidInput)
	}
	return id, nil
}

func (a *app) entryAddCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add NAME|ID START END",
		Short: "Record a completed entry, e.g. entry add Writing 09:00 10:30",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.engine.ResolveProject(args[0])
			if err != nil {
				return err
			}
			day, err := a.day(date)
			if err != nil {
				return err
			}
			start, err := a.at(args[1], day)
			if err != nil {
				return err
			}
			end, err := a.at(args[2], day)
			if err != nil {
				return err
			}

			iv, err := a.engine.CreateManualEntry(p.ID, start, end)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(iv)
			}
			fmt.Fprintf(a.out, "%s entry #%d: %s %s (%s)\n", green("added"), iv.ID,
				bold(p.Name), a.clockRange(*iv), formatSeconds(iv.DurationSeconds))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "today", "day that bare times like 09:00 fall on")
	return cmd
}

func (a *app) entryEditCommand() *cobra.Command {
	var startArg, endArg string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an entry's start or end time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if startArg == "" && endArg == "" {
				return fmt.Errorf("edit entry: pass --start and/or --end: %w", store.ErrInvalidInput)
			}
			iv, err := a.store.GetInterval(id)
			if err != nil {
				return err
			}

			day := iv.StartedAt.In(a.store.Location())
			start := iv.StartedAt
			if startArg != "" {
				if start, err = a.at(startArg, day); err != nil {
					return err
				}
			}
			end := iv.EndedAt
			if endArg != "" {
				t, err := a.at(endArg, start.In(a.store.Location()))
				if err != nil {
					return err
				}
				end = &t
			}

			updated, err := a.engine.UpdateEntry(id, start, end)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(updated)
			}
			fmt.Fprintf(a.out, "%s entry #%d: %s (%s)\n", green("updated"), updated.ID,
				a.clockRange(*updated), formatDuration(updated.Elapsed(a.engine.Now())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&startArg, "start", "s", "", "new start time")
	cmd.Flags().StringVarP(&endArg, "end", "e", "", "new end time")
	return cmd
}

func (a *app) entryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.DeleteEntry(id); err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(map[string]int64{"deleted": id})
			}
			fmt.Fprintf(a.out, "deleted entry #%d\n", id)
			return nil
		},
	}
}
