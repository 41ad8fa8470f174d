// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/store"
)

// Reconciler periodically checks every poll's cached counts against the
// ledger and repairs drift.
type Reconciler struct {
	Projector   *Projector
	Store       store.Store
	Interval    time.Duration
	Concurrency int
	Logger      *slog.Logger
}

// RunOnce reconciles all polls and returns how many needed correction.
func (r Reconciler) RunOnce(ctx context.Context) (int, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = 4
	}

	polls, err := r.Store.ListPolls(ctx)
	if err != nil {
		logger.Error("reconcile list failed", "error", err)
		return 0, err
	}

	var corrected atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, poll := range polls {
		pollID := poll.ID
		g.Go(func() error {
			report, err := r.Projector.Reconcile(gctx, pollID)
			if errors.Is(err, models.ErrNotFound) {
				return nil // deleted while the cycle ran
			}
			if err != nil {
				return err
			}
			if report.Corrected() {
				corrected.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("reconcile cycle failed", "error", err)
		return int(corrected.Load()), err
	}

	logger.Debug("reconcile cycle completed",
		"polls", len(polls),
		"corrected", corrected.Load(),
	)
	return int(corrected.Load()), nil
}

// Run calls RunOnce every Interval until ctx is cancelled. A zero interval
// disables the loop.
func (r Reconciler) Run(ctx context.Context) {
	if r.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by RunOnce; the next tick retries.
			_, _ = r.RunOnce(ctx)
		}
	}
}
