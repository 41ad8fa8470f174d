// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/securevote/lifecycle"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/store"
	"github.com/danielhkuo/securevote/tally"
)

// DefaultMaxRetries bounds CastVote's retries after a storage conflict.
const DefaultMaxRetries = 5

const retryBackoff = 2 * time.Millisecond

// Ledger is the authoritative record of votes, one per (poll, voter).
type Ledger struct {
	store      store.Store
	tally      *tally.Projector
	clock      lifecycle.Clock
	logger     *slog.Logger
	maxRetries int
	locks      keyLocks
}

type Options struct {
	Clock  lifecycle.Clock
	Logger *slog.Logger
	// MaxRetries defaults to DefaultMaxRetries when zero or negative.
	MaxRetries int
}

func New(s store.Store, projector *tally.Projector, opts Options) *Ledger {
	l := &Ledger{
		store:      s,
		tally:      projector,
		clock:      opts.Clock,
		logger:     opts.Logger,
		maxRetries: opts.MaxRetries,
	}
	if l.clock == nil {
		l.clock = lifecycle.SystemClock{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.maxRetries <= 0 {
		l.maxRetries = DefaultMaxRetries
	}
	return l
}

// CastVote records voterID's choice of optionID on pollID. A first vote
// is inserted, a different choice replaces the previous one and the same
// choice is a no-op. The ledger entry and its tally deltas commit as one
// unit.
func (l *Ledger) CastVote(ctx context.Context, pollID, voterID, optionID string) (models.VoteResult, error) {
	if strings.TrimSpace(voterID) == "" {
		return models.VoteResult{}, models.NewValidationError("voter_id", "is required")
	}
	if strings.TrimSpace(optionID) == "" {
		return models.VoteResult{}, models.NewValidationError("option_id", "is required")
	}

	unlock := l.locks.lock(pollID, voterID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		result, err := l.tryCast(ctx, pollID, voterID, optionID)
		if !errors.Is(err, models.ErrConflict) {
			return result, err
		}
		if attempt >= l.maxRetries {
			l.logger.Error("vote retries exhausted",
				"poll_id", pollID,
				"attempts", attempt+1,
			)
			return models.VoteResult{}, models.ErrVoteContention
		}
		l.logger.Debug("vote conflict, retrying", "poll_id", pollID, "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return models.VoteResult{}, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * retryBackoff):
		}
	}
}

func (l *Ledger) tryCast(ctx context.Context, pollID, voterID, optionID string) (models.VoteResult, error) {
	poll, err := l.store.GetPoll(ctx, pollID)
	if err != nil {
		return models.VoteResult{}, err
	}

	now := l.clock.Now()
	if state := lifecycle.State(poll, now); state != models.StateOpen {
		return models.VoteResult{}, fmt.Errorf("%w: poll is %s", models.ErrPollClosed, state)
	}
	if _, ok := poll.Option(optionID); !ok {
		return models.VoteResult{}, models.ErrInvalidOption
	}

	prev, exists, err := l.store.GetVote(ctx, pollID, voterID)
	if err != nil {
		return models.VoteResult{}, err
	}
	if exists && prev.OptionID == optionID {
		return models.VoteResult{Vote: prev, Outcome: models.OutcomeUnchanged}, nil
	}

	next := models.Vote{PollID: pollID, VoterID: voterID, OptionID: optionID, CastAt: now}
	result := models.VoteResult{Vote: next, Outcome: models.OutcomeCreated}
	var expected *models.Vote
	if exists {
		expected = &prev
		result.Outcome = models.OutcomeChanged
		result.PreviousOption = prev.OptionID
		result.Deltas = append(result.Deltas, models.TallyDelta{OptionID: prev.OptionID, Delta: -1})
	}
	result.Deltas = append(result.Deltas, models.TallyDelta{OptionID: optionID, Delta: 1})

	if err := l.store.SwapVote(ctx, expected, next, l.tally.Apply(result.Deltas)); err != nil {
		return models.VoteResult{}, err
	}

	l.logger.Info("vote recorded",
		"poll_id", pollID,
		"outcome", result.Outcome,
	)
	return result, nil
}

func (l *Ledger) GetVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error) {
	return l.store.GetVote(ctx, pollID, voterID)
}

func (l *Ledger) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	_, ok, err := l.store.GetVote(ctx, pollID, voterID)
	return ok, err
}

// DeleteVotesForPoll removes every vote of the poll. Only the poll
// cascade calls it.
func (l *Ledger) DeleteVotesForPoll(ctx context.Context, pollID string) (int, error) {
	n, err := l.store.DeleteVotes(ctx, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes for poll %s: %w", pollID, err)
	}
	return n, nil
}

func (l *Ledger) CountVotes(ctx context.Context, pollID string) (int, error) {
	counts, err := l.store.CountVotesPerOption(ctx, pollID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (l *Ledger) CountVotesPerOption(ctx context.Context, pollID string) (map[string]int, error) {
	return l.store.CountVotesPerOption(ctx, pollID)
}
