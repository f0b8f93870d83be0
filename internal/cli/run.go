package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/binto/internal/config"
	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/power"
	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
	"github.com/sadopc/binto/internal/tui"
)

// startBackground rebuilds the engine around a prompt scheduler and starts
// it on g, together with the suspend/resume detector feeding it.
func (a *app) startBackground(ctx context.Context, g *errgroup.Group) *scheduler.Scheduler {
	det := power.NewDetector(
		power.WithLogger(a.log.With("component", "power")),
		power.WithInterval(a.cfg.PowerCheckInterval),
		power.WithTolerance(a.cfg.PowerTolerance),
	)
	sched := scheduler.New(a.store,
		scheduler.WithLogger(a.log.With("component", "scheduler")),
		scheduler.WithGrace(a.cfg.SchedulerGrace),
		scheduler.WithPower(det.Events()),
	)
	a.engine = engine.New(a.store,
		engine.WithLogger(a.log.Logger),
		engine.WithScheduler(sched),
	)

	g.Go(func() error { return det.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })

	a.watchConfig()
	return sched
}

// watchConfig applies log level changes from the config file while a
// long-running command is up.
func (a *app) watchConfig() {
	log, path := a.log, a.cfgMgr.Path()
	a.cfgMgr.Watch(func(cfg config.Config) {
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			log.Warn("config reload: bad log level", "error", err)
			return
		}
		log.Info("config reloaded", "path", path, "log_level", cfg.LogLevel)
	}, func(err error) {
		log.Warn("config reload rejected", "path", path, "error", err)
	})
}

func (a *app) runTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	a.startBackground(gctx, g)
	a.log.Info("tui starting")

	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(tui.NewApp(a.engine), tea.WithAltScreen(), tea.WithContext(gctx))
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

func (a *app) remindCommand() *cobra.Command {
	var autoContinue bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder loop without the UI and print each prompt",
		Long: `remind runs the prompt scheduler in the foreground. Each time a reminder
is due while a project is being tracked it prints a line; answer with
"binto continue" or "binto stop". Stop it with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemind(cmd.Context(), autoContinue)
		},
	}
	cmd.Flags().BoolVar(&autoContinue, "auto-continue", false, "confirm every prompt automatically")
	return cmd
}

func (a *app) runRemind(ctx context.Context, autoContinue bool) error {
	g, gctx := errgroup.WithContext(ctx)
	sched := a.startBackground(gctx, g)

	fmt.Fprintf(a.out, "%s next reminder at %s\n",
		dim("waiting,"), sched.NextFire().In(a.store.Location()).Format("15:04:05"))

	g.Go(func() error {
		prompts := a.engine.Subscribe()
		for {
			select {
			case <-gctx.Done():
				return nil
			case p := <-prompts:
				if err := a.printPrompt(p); err != nil {
					return err
				}
				if !autoContinue {
					continue
				}
				if err := a.engine.ContinueTracking(); err != nil {
					a.log.Warn("auto-continue failed", "error", err)
					continue
				}
				a.engine.ResetTimer()
			}
		}
	})
	return g.Wait()
}

func (a *app) printPrompt(p scheduler.Prompt) error {
	if a.jsonOut {
		return a.printJSON(p)
	}
	name := fmt.Sprintf("project %d", p.ProjectID)
	if proj, err := a.store.GetProject(p.ProjectID); err == nil {
		name = proj.Name
	} else if !errors.Is(err, store.ErrNotFound) {
		a.log.Warn("prompt: project lookup failed", "project_id", p.ProjectID, "error", err)
	}

	elapsed := ""
	if iv, err := a.store.GetInterval(p.IntervalID); err == nil {
		elapsed = " (" + formatDuration(iv.Elapsed(p.At)) + ")"
	}
	fmt.Fprintf(a.out, "%s still working on %s%s?\n",
		dim(p.At.In(a.store.Location()).Format("15:04")), bold(name), elapsed)
	return nil
}
