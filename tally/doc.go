// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally maintains the cached per-option vote counts.

# Incremental Updates

The ledger hands its deltas to the Projector inside the store's atomic
unit, so a vote and its tally change commit together:

	err := s.SwapVote(ctx, prev, next, projector.Apply(deltas))

Counts are clamped at zero.

# Reconciliation

Reconcile recomputes a poll's counts from the ledger and overwrites the
cache in one atomic unit:

	report, err := projector.Reconcile(ctx, pollID)

The Reconciler runs it for every poll on an interval, with bounded
concurrency.

# Percentages

	Percentage(optionVotes, totalVotes)

rounds half up per option and returns 0 for a poll without votes.
*/
package tally
