// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/danielhkuo/securevote/models"
)

// MemoryStore keeps everything in process. A single lock guards polls,
// tallies and the ledger so every SwapVote is trivially atomic.
type MemoryStore struct {
	mu    sync.RWMutex
	polls map[string]models.Poll
	votes map[string]map[string]models.Vote // poll id -> voter id -> vote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		polls: make(map[string]models.Poll),
		votes: make(map[string]map[string]models.Vote),
	}
}

func (s *MemoryStore) CreatePoll(_ context.Context, poll models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.polls[poll.ID]; exists {
		return models.ErrConflict
	}
	s.polls[poll.ID] = poll.Clone()
	s.votes[poll.ID] = make(map[string]models.Vote)
	return nil
}

func (s *MemoryStore) GetPoll(_ context.Context, pollID string) (models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[pollID]
	if !ok {
		return models.Poll{}, models.ErrNotFound
	}
	return poll.Clone(), nil
}

func (s *MemoryStore) ListPolls(_ context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		out = append(out, poll.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SetPollActive(_ context.Context, pollID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[pollID]
	if !ok {
		return models.ErrNotFound
	}
	poll.IsActive = active
	s.polls[pollID] = poll
	return nil
}

func (s *MemoryStore) DeletePoll(_ context.Context, pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[pollID]; !ok {
		return models.ErrNotFound
	}
	delete(s.polls, pollID)
	delete(s.votes, pollID)
	return nil
}

func (s *MemoryStore) GetVote(_ context.Context, pollID, voterID string) (models.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[pollID][voterID]
	return vote, ok, nil
}

func (s *MemoryStore) DeleteVotes(_ context.Context, pollID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.votes[pollID])
	poll, ok := s.polls[pollID]
	if !ok {
		delete(s.votes, pollID)
		return n, nil
	}
	s.votes[pollID] = make(map[string]models.Vote)
	options := append([]models.PollOption(nil), poll.Options...)
	for i := range options {
		options[i].VoteCount = 0
	}
	poll.Options = options
	s.polls[pollID] = poll
	return n, nil
}

func (s *MemoryStore) CountVotesPerOption(_ context.Context, pollID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(pollID), nil
}

func (s *MemoryStore) countLocked(pollID string) map[string]int {
	counts := make(map[string]int)
	for _, vote := range s.votes[pollID] {
		counts[vote.OptionID]++
	}
	return counts
}

func (s *MemoryStore) SwapVote(_ context.Context, prev *models.Vote, next models.Vote, adjust AdjustFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[next.PollID]; !ok {
		return models.ErrNotFound
	}
	current, exists := s.votes[next.PollID][next.VoterID]
	if !sameEntry(prev, current, exists) {
		return models.ErrConflict
	}

	tx := s.tallyTxLocked(next.PollID)
	if adjust != nil {
		if err := adjust(tx); err != nil {
			return err
		}
	}

	s.votes[next.PollID][next.VoterID] = next
	s.flushLocked(tx)
	return nil
}

func (s *MemoryStore) UpdateTallies(_ context.Context, pollID string, adjust AdjustFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[pollID]; !ok {
		return models.ErrNotFound
	}
	tx := s.tallyTxLocked(pollID)
	if err := adjust(tx); err != nil {
		return err
	}
	s.flushLocked(tx)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) tallyTxLocked(pollID string) *tallyBuffer {
	poll := s.polls[pollID]
	counts := make(map[string]int, len(poll.Options))
	for _, opt := range poll.Options {
		counts[opt.ID] = opt.VoteCount
	}
	return newTallyBuffer(pollID, counts, func() (map[string]int, error) {
		return s.countLocked(pollID), nil
	})
}

func (s *MemoryStore) flushLocked(tx *tallyBuffer) {
	if len(tx.dirty) == 0 {
		return
	}
	poll := s.polls[tx.pollID]
	options := append([]models.PollOption(nil), poll.Options...)
	for i := range options {
		if n, ok := tx.dirty[options[i].ID]; ok {
			options[i].VoteCount = n
		}
	}
	poll.Options = options
	s.polls[tx.pollID] = poll
}
