package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/report"
	"github.com/sadopc/binto/internal/store"
	"github.com/sadopc/binto/internal/timeparse"
)

// parseDay turns "today", "yesterday", "-2d" or 2006-01-02 into the
// engine's date format.
func (a *app) parseDay(s string) (string, error) {
	d, err := a.day(s)
	if err != nil {
		return "", err
	}
	return d.Format(engine.DateLayout), nil
}

func (a *app) day(s string) (time.Time, error) {
	now := a.engine.Now().In(a.store.Location())
	d, err := timeparse.Date(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w: %w", s, store.ErrInvalidInput, err)
	}
	return d, nil
}

func (a *app) summaryCommand() *cobra.Command {
	var week bool
	cmd := &cobra.Command{
		Use:   "summary [DATE]",
		Short: "Show time per project for a day",
		Long: `summary totals completed entries per project for one calendar day
(default today). DATE may be 2006-01-02, today, yesterday, -3d and similar.
With --week it shows the seven days ending on DATE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := a.parseDay(argOr(args, 0, "today"))
			if err != nil {
				return err
			}
			if week {
				days, err := a.engine.WeekSummary(date)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(days)
				}
				return a.printWeek(days)
			}

			rows, err := a.engine.DailySummary(date)
			if err != nil {
				return err
			}
			if a.jsonOut {
				if rows == nil {
					rows = []report.Row{}
				}
				return a.printJSON(rows)
			}
			return a.printSummary(date, rows)
		},
	}
	cmd.Flags().BoolVarP(&week, "week", "w", false, "show the seven days ending on DATE")
	return cmd
}

func (a *app) printSummary(date string, rows []report.Row) error {
	fmt.Fprintln(a.out, bold(date))
	if len(rows) == 0 {
		fmt.Fprintln(a.out, dim("  no completed entries"))
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%d entries\n", r.ProjectName, formatSeconds(r.TotalSeconds), r.EntryCount)
	}
	fmt.Fprintf(tw, "  %s\t%s\t\n", bold("total"), bold(formatSeconds(report.Total(rows))))
	return tw.Flush()
}

func (a *app) printWeek(days []report.Day) error {
	var peak int64
	for _, d := range days {
		if t := report.Total(d.Rows); t > peak {
			peak = t
		}
	}
	const width = 30
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	var total int64
	for _, d := range days {
		t := report.Total(d.Rows)
		total += t
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", int(t*width/peak))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			d.Date.Format("Mon"), d.Date.Format(engine.DateLayout), cyan(bar), formatSeconds(t))
	}
	fmt.Fprintf(tw, "\t%s\t\t%s\n", bold("total"), bold(formatSeconds(total)))
	return tw.Flush()
}

func (a *app) entriesCommand() *cobra.Command {
	var projectRef string
	cmd := &cobra.Command{
		Use:   "entries [DATE]",
		Short: "List time entries for a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := a.parseDay(argOr(args, 0, "today"))
			if err != nil {
				return err
			}

			var entries []store.TimeInterval
			if projectRef != "" {
				p, err := a.engine.ResolveProject(projectRef)
				if err != nil {
					return err
				}
				entries, err = a.engine.EntriesByProject(p.ID, date)
				if err != nil {
					return err
				}
			} else if entries, err = a.engine.EntriesForDate(date); err != nil {
				return err
			}

			if a.jsonOut {
				if entries == nil {
					entries = []store.TimeInterval{}
				}
				return a.printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, dim("no entries for "+date))
				return nil
			}
			now := a.engine.Now()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROJECT\tTIME\tDURATION")
			for _, iv := range entries {
				dur := formatDuration(iv.Elapsed(now))
				if iv.Active() {
					dur = green(dur + " running")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", iv.ID, a.projectName(iv.ProjectID), a.clockRange(iv), dur)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&projectRef, "project", "p", "", "only entries for this project")
	return cmd
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
