// Package cli wires configuration, logging, the store and the engine into
// the binto command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/binto/internal/config"
	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/logging"
	"github.com/sadopc/binto/internal/store"
)

// app holds what PersistentPreRunE builds for the command that runs.
type app struct {
	configPath string
	dbPath     string
	logFile    string
	logLevel   string
	jsonOut    bool

	cfgMgr *config.Manager
	cfg    config.Config
	log    *logging.Logger
	store  *store.Store
	engine *engine.Engine

	out    io.Writer
	errOut io.Writer
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "binto",
		Short: "Track time against projects and get reminded to confirm it",
		Long: `binto tracks time against named projects. Run without arguments for the
terminal UI; it periodically asks you to confirm what is being tracked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.config/binto/config.yaml)")
	pf.StringVar(&a.dbPath, "db", "", "database path (default ~/.config/binto/binto.db)")
	pf.StringVar(&a.logFile, "log-file", "", "log file, or - for stderr (default ~/.config/binto/binto.log)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		a.remindCommand(),
		a.projectsCommand(),
		a.projectCommand(),
		a.startCommand(),
		a.stopCommand(),
		a.statusCommand(),
		a.continueCommand(),
		a.summaryCommand(),
		a.entriesCommand(),
		a.entryCommand(),
		a.settingsCommand(),
		a.exportCommand(),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	mgr, err := config.Open(a.configPath)
	if err != nil {
		return err
	}
	if err := mgr.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := mgr.Config()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfgMgr, a.cfg = mgr, cfg

	logPath := cfg.LogFile
	if logPath == "" {
		if logPath, err = logging.DefaultPath(); err != nil {
			return err
		}
	}
	if a.log, err = logging.Open(logPath, cfg.LogLevel); err != nil {
		return err
	}

	dbPath := cfg.DB
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	a.store, err = openStore(cmd.Context(), dbPath, a.log.Logger)
	if err != nil {
		return err
	}
	a.log.Debug("store opened", "path", dbPath, "command", cmd.Name())

	a.engine = engine.New(a.store, engine.WithLogger(a.log.Logger))
	return nil
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.log != nil {
		errs = append(errs, a.log.Close())
		a.log = nil
	}
	return errors.Join(errs...)
}
