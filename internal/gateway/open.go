package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/recorder"
	"github.com/theirongolddev/tripgate/internal/router"
	"github.com/theirongolddev/tripgate/internal/spool"
)

// Runtime is a Gateway wired to its ledger, spool and optional Redis, with
// the resources it owns.
type Runtime struct {
	*Gateway
	Ledger   *ledger.SQLite
	Recorder *recorder.Recorder
	Spool    *spool.Spool

	closers []io.Closer
}

// Open validates cfg, opens the ledger and starts the recorder.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts ...recorder.Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	rt, err := router.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{store}

	var enfOpts []quota.Option
	if cfg.Quota.Strict {
		rdb, err := quota.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("strict quota mode: %w", err)
		}
		closers = append(closers, rdb)
		enfOpts = append(enfOpts, quota.WithReserver(quota.NewRedisReserver(rdb, cfg.Redis.Prefix)))
	}
	enf := quota.NewEnforcer(store, cfg.Quota, loc, logger, enfOpts...)

	sp := spool.New(cfg.SpoolPath())
	rec := recorder.New(recorder.Config{
		QueueSize:      cfg.Recorder.QueueSize,
		Workers:        cfg.Recorder.Workers,
		MaxAttempts:    cfg.Recorder.MaxAttempts,
		RetryBase:      cfg.Recorder.RetryBase.Duration,
		RetriesPerSec:  cfg.Recorder.RetriesPerSec,
		ReplaySchedule: cfg.Recorder.ReplaySchedule,
	}, store, sp, logger, opts...)
	if err := rec.Start(); err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	g := New(Deps{
		Router:   rt,
		Enforcer: enf,
		Recorder: rec,
		Reader:   store,
		Location: loc,
		Logger:   logger,
	})
	return &Runtime{Gateway: g, Ledger: store, Recorder: rec, Spool: sp, closers: closers}, nil
}

// Close drains the recorder and releases the ledger and Redis connection.
func (r *Runtime) Close(ctx context.Context) error {
	errs := []error{r.Recorder.Close(ctx)}
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}
