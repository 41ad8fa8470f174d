// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/store"
)

// Projector is the only writer of cached option counts.
type Projector struct {
	store  store.Store
	logger *slog.Logger
}

func NewProjector(s store.Store, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{store: s, logger: logger}
}

// OnVoteDelta applies delta to one option's cached count inside the
// caller's atomic unit. Counts never go below zero; hitting the floor means
// the cache drifted from the ledger and is logged.
func (p *Projector) OnVoteDelta(tx store.TallyTx, optionID string, delta int) {
	next := tx.Count(optionID) + delta
	if next < 0 {
		p.logger.Warn("tally clamped at zero",
			"poll_id", tx.PollID(),
			"option_id", optionID,
			"delta", delta,
		)
		next = 0
	}
	tx.Set(optionID, next)
}

// Apply returns an adjustment that applies every delta in order.
func (p *Projector) Apply(deltas []models.TallyDelta) store.AdjustFunc {
	return func(tx store.TallyTx) error {
		for _, d := range deltas {
			p.OnVoteDelta(tx, d.OptionID, d.Delta)
		}
		return nil
	}
}

// Reconcile overwrites every cached count of the poll with the ledger's
// count, in one atomic unit. Running it twice is the same as running it once.
func (p *Projector) Reconcile(ctx context.Context, pollID string) (models.ReconcileReport, error) {
	report := models.ReconcileReport{PollID: pollID}

	err := p.store.UpdateTallies(ctx, pollID, func(tx store.TallyTx) error {
		ledger, err := tx.LedgerCounts()
		if err != nil {
			return err
		}

		report.TotalVotes = 0
		report.Drift = nil
		known := make(map[string]bool)
		for _, optionID := range tx.OptionIDs() {
			known[optionID] = true
			want := ledger[optionID]
			report.TotalVotes += want
			if have := tx.Count(optionID); have != want {
				report.Drift = append(report.Drift, models.OptionDrift{
					OptionID: optionID,
					Cached:   have,
					Ledger:   want,
				})
				tx.Set(optionID, want)
			}
		}
		for optionID, n := range ledger {
			if !known[optionID] {
				return fmt.Errorf("ledger holds %d votes for unknown option %s", n, optionID)
			}
		}
		return nil
	})
	if err != nil {
		return models.ReconcileReport{}, fmt.Errorf("failed to reconcile poll %s: %w", pollID, err)
	}

	if report.Corrected() {
		p.logger.Warn("tally drift corrected",
			"poll_id", pollID,
			"options", len(report.Drift),
			"total_votes", report.TotalVotes,
		)
	}
	return report, nil
}
