// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/ledger"
	"github.com/danielhkuo/securevote/lifecycle"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/polls"
	"github.com/danielhkuo/securevote/tally"
)

// Service is the command surface used by every transport.
type Service struct {
	polls  *polls.Store
	ledger *ledger.Ledger
	tally  *tally.Projector
	clock  lifecycle.Clock
	logger *slog.Logger
}

type Config struct {
	Polls     *polls.Store
	Ledger    *ledger.Ledger
	Projector *tally.Projector
	Clock     lifecycle.Clock
	Logger    *slog.Logger
}

func NewService(cfg Config) *Service {
	s := &Service{
		polls:  cfg.Polls,
		ledger: cfg.Ledger,
		tally:  cfg.Projector,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
	if s.clock == nil {
		s.clock = lifecycle.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreatePoll requires a creator or admin.
func (s *Service) CreatePoll(ctx context.Context, who auth.Identity, req models.CreatePollRequest) (models.Poll, error) {
	if !who.Role.CanManagePolls() {
		return models.Poll{}, models.ErrForbidden
	}
	return s.polls.CreatePoll(ctx, who.UserID, req)
}

func (s *Service) DeletePoll(ctx context.Context, who auth.Identity, pollID string) error {
	return s.polls.DeletePoll(ctx, pollID, who.Role)
}

func (s *Service) DeactivatePoll(ctx context.Context, who auth.Identity, pollID string) (models.Poll, error) {
	return s.polls.DeactivatePoll(ctx, pollID, who.Role)
}

// CastVote records or replaces the caller's vote. Any role may vote.
func (s *Service) CastVote(ctx context.Context, who auth.Identity, pollID, optionID string) (models.VoteResult, error) {
	return s.ledger.CastVote(ctx, pollID, who.UserID, optionID)
}

// MyVote returns the caller's ledger entry for the poll.
func (s *Service) MyVote(ctx context.Context, who auth.Identity, pollID string) (models.Vote, bool, error) {
	if _, err := s.polls.GetPoll(ctx, pollID); err != nil {
		return models.Vote{}, false, err
	}
	return s.ledger.GetVote(ctx, pollID, who.UserID)
}

func (s *Service) ListPolls(ctx context.Context, filter models.PollFilter) ([]models.PollSummary, error) {
	list, err := s.polls.ListPolls(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]models.PollSummary, 0, len(list))
	for _, poll := range list {
		out = append(out, models.PollSummary{
			Poll:       poll,
			State:      lifecycle.State(poll, now),
			TotalVotes: poll.TotalVotes(),
		})
	}
	return out, nil
}

// GetPollDetail assembles the poll as the given voter sees it. An empty
// voterID is an anonymous viewer who has not voted.
func (s *Service) GetPollDetail(ctx context.Context, pollID, voterID string) (models.PollDetail, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return models.PollDetail{}, err
	}
	now := s.clock.Now()

	detail := models.PollDetail{
		Poll:       poll,
		State:      lifecycle.State(poll, now),
		TotalVotes: poll.TotalVotes(),
	}
	if voterID != "" {
		vote, voted, err := s.ledger.GetVote(ctx, pollID, voterID)
		if err != nil {
			return models.PollDetail{}, err
		}
		detail.HasVoted = voted
		detail.VotedOptionID = vote.OptionID

		detail.CanVote, err = lifecycle.CanVote(ctx, poll, voterID, now, s.ledger)
		if err != nil {
			return models.PollDetail{}, err
		}
	}
	detail.ResultsVisible = lifecycle.ResultsVisible(poll, detail.HasVoted, now)
	if detail.ResultsVisible {
		detail.Results = tally.Results(poll)
	}
	return detail, nil
}

// Reconcile rebuilds the cached counts of one poll from its ledger.
func (s *Service) Reconcile(ctx context.Context, who auth.Identity, pollID string) (models.ReconcileReport, error) {
	if !who.Role.IsAdmin() {
		return models.ReconcileReport{}, models.ErrForbidden
	}
	return s.tally.Reconcile(ctx, pollID)
}
