package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
)

func (a *app) startCommand() *cobra.Command {
	var create bool
	cmd := &cobra.Command{
		Use:   "start NAME|ID",
		Short: "Start tracking a project, ending whatever was running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.engine.ResolveProject(args[0])
			if errors.Is(err, store.ErrNotFound) && create {
				p, err = a.engine.CreateProject(args[0])
			}
			if err != nil {
				return err
			}
			iv, err := a.engine.StartTracking(p.ID)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(iv)
			}
			fmt.Fprintf(a.out, "%s %s at %s\n", green("tracking"), bold(p.Name),
				iv.StartedAt.In(a.store.Location()).Format("15:04"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&create, "create", "c", false, "create the project if it does not exist")
	return cmd
}

func (a *app) stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := a.engine.StopTracking()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(iv)
			}
			if iv == nil {
				fmt.Fprintln(a.out, dim("nothing is being tracked"))
				return nil
			}
			fmt.Fprintf(a.out, "stopped %s after %s\n", bold(a.projectName(iv.ProjectID)), formatSeconds(iv.DurationSeconds))
			return nil
		},
	}
}

type statusView struct {
	Active       *store.TimeInterval `json:"active"`
	Project      *store.Project      `json:"project,omitempty"`
	Elapsed      int64               `json:"elapsed_seconds"`
	LastPromptAt *time.Time          `json:"last_prompt_at"`
	NextPromptAt *time.Time          `json:"next_prompt_at,omitempty"`
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is being tracked and when the next reminder is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.status()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(v)
			}
			if v.Active == nil {
				fmt.Fprintln(a.out, dim("nothing is being tracked"))
				return nil
			}
			name := a.projectName(v.Active.ProjectID)
			if v.Project != nil {
				name = v.Project.Name
			}
			fmt.Fprintf(a.out, "%s %s for %s (since %s)\n", green("tracking"), bold(name),
				formatSeconds(v.Elapsed), v.Active.StartedAt.In(a.store.Location()).Format("15:04"))
			if v.NextPromptAt != nil {
				fmt.Fprintf(a.out, "next reminder %s\n", cyan(relative(*v.NextPromptAt, a.engine.Now())))
			}
			return nil
		},
	}
}

func (a *app) status() (statusView, error) {
	var v statusView
	active, err := a.engine.ActiveEntry()
	if err != nil {
		return v, err
	}
	settings, err := a.store.LoadSettings()
	if err != nil {
		return v, err
	}
	v.LastPromptAt = settings.LastPromptAt
	if active == nil {
		return v, nil
	}

	now := a.engine.Now()
	v.Active = active
	v.Elapsed = int64(active.Elapsed(now) / time.Second)
	if p, err := a.store.GetProject(active.ProjectID); err == nil {
		v.Project = p
	}
	if settings.LastPromptAt != nil {
		// An overdue checkpoint means the scheduler prompts shortly after it
		// next starts or wakes, so report that rather than a time in the past.
		d, _ := scheduler.Delay(*settings.LastPromptAt, settings.PromptInterval(), a.cfg.SchedulerGrace, now)
		next := now.Add(d).UTC().Truncate(time.Second)
		v.NextPromptAt = &next
	}
	return v, nil
}

func (a *app) continueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Confirm the current project and push the next reminder back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.ContinueTracking(); err != nil {
				return err
			}
			a.engine.ResetTimer()
			if a.jsonOut {
				return a.printJSON(map[string]bool{"ok": true})
			}
			fmt.Fprintln(a.out, green("confirmed"))
			return nil
		},
	}
}

// projectName looks up a display name, falling back to the id.
func (a *app) projectName(id int64) string {
	p, err := a.store.GetProject(id)
	if err != nil {
		return fmt.Sprintf("project %d", id)
	}
	return p.Name
}
