// Package store persists per-user brief history. The history is
// append-only: briefs are only ever added, in arrival order.
package store

import (
	"context"
	"fmt"

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/brief"
)

// Store is the persistence gateway for brief history.
type Store interface {
	// LoadHistory returns the user's prior briefs in append order, an
	// empty slice if there are none.
	LoadHistory(ctx context.Context, userID string) ([]brief.FinalBrief, error)

	// AppendBrief appends one brief to the user's history, stamping a
	// timestamp if the record lacks one.
	AppendBrief(ctx context.Context, userID string, b brief.FinalBrief) error
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.File.Dir)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "postgres":
		dsn, err := cfg.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
