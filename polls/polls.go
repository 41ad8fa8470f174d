// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/ledger"
	"github.com/danielhkuo/securevote/lifecycle"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/store"
)

// Store owns the poll catalog. Vote counts on the returned polls are the
// cached tallies; only the tally projector writes them.
type Store struct {
	store  store.Store
	ledger *ledger.Ledger
	clock  lifecycle.Clock
	logger *slog.Logger
}

func New(s store.Store, l *ledger.Ledger, clock lifecycle.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = lifecycle.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{store: s, ledger: l, clock: clock, logger: logger}
}

// CreatePoll validates req and stores a new active poll with zeroed counts.
func (p *Store) CreatePoll(ctx context.Context, creatorID string, req models.CreatePollRequest) (models.Poll, error) {
	now := p.clock.Now()
	clean, err := validate(req, now)
	if err != nil {
		return models.Poll{}, err
	}

	poll := models.Poll{
		ID:          auth.NewPollID(),
		Title:       clean.Title,
		Description: clean.Description,
		Genre:       clean.Genre,
		CreatedAt:   now,
		ExpiresAt:   clean.ExpiresAt,
		IsActive:    true,
		CreatorID:   creatorID,
		Options:     make([]models.PollOption, 0, len(clean.Options)),
	}
	seen := make(map[string]bool, len(clean.Options))
	for _, text := range clean.Options {
		optionID, err := newOptionID(seen)
		if err != nil {
			return models.Poll{}, err
		}
		poll.Options = append(poll.Options, models.PollOption{ID: optionID, Text: text})
	}

	if err := p.store.CreatePoll(ctx, poll); err != nil {
		return models.Poll{}, fmt.Errorf("failed to store poll: %w", err)
	}

	p.logger.Info("poll created",
		"poll_id", poll.ID,
		"creator_id", creatorID,
		"options", len(poll.Options),
	)
	return poll, nil
}

func newOptionID(seen map[string]bool) (string, error) {
	for {
		id, err := auth.GenerateID(6)
		if err != nil {
			return "", err
		}
		if !seen[id] {
			seen[id] = true
			return id, nil
		}
	}
}

func (p *Store) GetPoll(ctx context.Context, pollID string) (models.Poll, error) {
	return p.store.GetPoll(ctx, pollID)
}

// ListPolls returns the polls matching filter, newest first. Polls created
// at the same instant are ordered by id.
func (p *Store) ListPolls(ctx context.Context, filter models.PollFilter) ([]models.Poll, error) {
	all, err := p.store.ListPolls(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	out := make([]models.Poll, 0, len(all))
	for _, poll := range all {
		if filter.Genre != "" && poll.Genre != filter.Genre {
			continue
		}
		if filter.IsActive != nil && poll.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, poll)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeletePoll removes a poll and, first, every vote cast on it.
func (p *Store) DeletePoll(ctx context.Context, pollID string, role auth.Role) error {
	if !role.CanManagePolls() {
		return models.ErrForbidden
	}
	if _, err := p.store.GetPoll(ctx, pollID); err != nil {
		return err
	}

	removed, err := p.ledger.DeleteVotesForPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if err := p.store.DeletePoll(ctx, pollID); err != nil {
		return err
	}

	p.logger.Info("poll deleted", "poll_id", pollID, "votes_removed", removed)
	return nil
}

// DeactivatePoll closes a poll to new votes. Deactivating an inactive poll
// is a no-op.
func (p *Store) DeactivatePoll(ctx context.Context, pollID string, role auth.Role) (models.Poll, error) {
	if !role.CanManagePolls() {
		return models.Poll{}, models.ErrForbidden
	}
	if err := p.store.SetPollActive(ctx, pollID, false); err != nil {
		return models.Poll{}, err
	}
	p.logger.Info("poll deactivated", "poll_id", pollID)
	return p.store.GetPoll(ctx, pollID)
}
