package cli

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sadopc/binto/internal/store"
)

// storeOpenTimeout bounds how long openStore keeps retrying a locked
// database, e.g. while a TUI instance is migrating it.
const storeOpenTimeout = 10 * time.Second

// openStore opens the database, retrying while another process holds the
// write lock. Any other failure is returned immediately.
func openStore(ctx context.Context, path string, logger *slog.Logger, opts ...store.Option) (*store.Store, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = storeOpenTimeout

	var st *store.Store
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		s, err := store.New(path, opts...)
		if err == nil {
			st = s
			return nil
		}
		if isBusy(err) {
			logger.Debug("database busy, retrying", "path", path, "attempt", attempt, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return st, nil
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy")
}
