// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/danielhkuo/securevote/models"
)

type Clock interface {
	Now() time.Time
}

// SystemClock reports the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a settable clock for tests and replays.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// VoteLookup answers whether a voter already has a ledger entry.
type VoteLookup interface {
	HasVoted(ctx context.Context, pollID, voterID string) (bool, error)
}

// State derives the poll state at now. Deactivation wins over expiry.
func State(poll models.Poll, now time.Time) models.PollState {
	if !poll.IsActive {
		return models.StateInactive
	}
	if poll.ExpiresAt != nil && !now.Before(*poll.ExpiresAt) {
		return models.StateExpired
	}
	return models.StateOpen
}

// IsOpen reports whether votes are accepted at now.
func IsOpen(poll models.Poll, now time.Time) bool {
	return State(poll, now) == models.StateOpen
}

// CanVote is true when the poll is open and the voter has no vote yet.
func CanVote(ctx context.Context, poll models.Poll, voterID string, now time.Time, votes VoteLookup) (bool, error) {
	if !IsOpen(poll, now) {
		return false, nil
	}
	voted, err := votes.HasVoted(ctx, poll.ID, voterID)
	if err != nil {
		return false, err
	}
	return !voted, nil
}

// ResultsVisible hides live results from voters who have not voted on an
// open poll.
func ResultsVisible(poll models.Poll, hasVoted bool, now time.Time) bool {
	return hasVoted || !IsOpen(poll, now)
}
