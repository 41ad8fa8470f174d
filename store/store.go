// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sort"

	"github.com/danielhkuo/securevote/models"
)

// TallyTx exposes one poll's cached option counts inside an atomic unit.
// Writes made through Set become visible only when the unit commits.
type TallyTx interface {
	PollID() string
	// OptionIDs lists the poll's options in a stable order.
	OptionIDs() []string
	Count(optionID string) int
	Set(optionID string, count int)
	// LedgerCounts returns the authoritative per-option vote counts as seen
	// by the same atomic unit.
	LedgerCounts() (map[string]int, error)
}

// AdjustFunc mutates tallies inside an atomic unit. Returning an error
// aborts the unit.
type AdjustFunc func(tx TallyTx) error

// Store is the persistence interface for polls, their cached tallies and
// the vote ledger. Implementations return models.ErrNotFound for missing
// polls and models.ErrConflict when a compare-and-swap loses a race.
type Store interface {
	CreatePoll(ctx context.Context, poll models.Poll) error
	GetPoll(ctx context.Context, pollID string) (models.Poll, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	SetPollActive(ctx context.Context, pollID string, active bool) error
	// DeletePoll removes the poll, its tallies and any remaining votes.
	DeletePoll(ctx context.Context, pollID string) error

	GetVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error)
	DeleteVotes(ctx context.Context, pollID string) (int, error)
	CountVotesPerOption(ctx context.Context, pollID string) (map[string]int, error)

	// SwapVote stores next as the ledger entry for (next.PollID, next.VoterID)
	// only if the current entry still matches prev (nil meaning absent), and
	// runs adjust against the poll's tallies in the same atomic unit.
	SwapVote(ctx context.Context, prev *models.Vote, next models.Vote, adjust AdjustFunc) error
	// UpdateTallies runs adjust against the poll's tallies atomically.
	UpdateTallies(ctx context.Context, pollID string, adjust AdjustFunc) error

	Close() error
}

// sameEntry reports whether the stored entry matches the caller's
// expectation. Tally deltas depend only on the previous option, so the
// option id is the compared value.
func sameEntry(prev *models.Vote, current models.Vote, exists bool) bool {
	if prev == nil {
		return !exists
	}
	return exists && current.OptionID == prev.OptionID
}

// tallyBuffer is the TallyTx shared by adapters that load counts up front
// and flush dirty entries on commit.
type tallyBuffer struct {
	pollID string
	counts map[string]int
	dirty  map[string]int
	ledger func() (map[string]int, error)
}

func newTallyBuffer(pollID string, counts map[string]int, ledger func() (map[string]int, error)) *tallyBuffer {
	return &tallyBuffer{
		pollID: pollID,
		counts: counts,
		dirty:  make(map[string]int),
		ledger: ledger,
	}
}

func (b *tallyBuffer) PollID() string { return b.pollID }

func (b *tallyBuffer) OptionIDs() []string {
	ids := make([]string, 0, len(b.counts))
	for id := range b.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b *tallyBuffer) Count(optionID string) int {
	if n, ok := b.dirty[optionID]; ok {
		return n
	}
	return b.counts[optionID]
}

func (b *tallyBuffer) Set(optionID string, count int) {
	if _, ok := b.counts[optionID]; !ok {
		return
	}
	b.dirty[optionID] = count
}

func (b *tallyBuffer) LedgerCounts() (map[string]int, error) {
	return b.ledger()
}
