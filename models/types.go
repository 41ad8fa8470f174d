// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll states
const (
	StateOpen     PollState = "open"
	StateExpired  PollState = "expired"
	StateInactive PollState = "inactive"
)

// Vote outcomes
const (
	OutcomeCreated   = "created"
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
)

// Validation limits
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	MaxOptionLen      = 100
	MaxGenreLen       = 50
	MinOptions        = 2
	MaxOptions        = 10
)

// DefaultGenre is used when a poll is created without one.
const DefaultGenre = "Technology & Innovation"

// Genres lists the catalogue's well-known categories.
var Genres = []string{
	"Technology & Innovation",
	"Economy & Work",
	"Environment & Climate",
	"Healthcare & Wellness",
	"Education & Learning",
	"Social Issues & Equality",
}

type PollState string

// Request types

type CreatePollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Genre       string     `json:"genre"`
	Options     []string   `json:"options"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

// Response types

type ListPollsResponse struct {
	Polls []PollSummary `json:"polls"`
}

type ReconcileResponse struct {
	Report ReconcileReport `json:"report"`
}

// Domain types

type Poll struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Genre       string       `json:"genre"`
	Options     []PollOption `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatorID   string       `json:"creator_id"`
}

type PollOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"vote_count"`
}

// TotalVotes sums the cached option counts.
func (p Poll) TotalVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += opt.VoteCount
	}
	return total
}

// Option returns the option with the given id.
func (p Poll) Option(optionID string) (PollOption, bool) {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return PollOption{}, false
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Poll) Clone() Poll {
	out := p
	out.Options = append([]PollOption(nil), p.Options...)
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// Vote is keyed by (PollID, VoterID).
type Vote struct {
	PollID   string    `json:"poll_id"`
	VoterID  string    `json:"voter_id"`
	OptionID string    `json:"option_id"`
	CastAt   time.Time `json:"cast_at"`
}

type TallyDelta struct {
	OptionID string `json:"option_id"`
	Delta    int    `json:"delta"`
}

type VoteResult struct {
	Vote           Vote         `json:"vote"`
	Outcome        string       `json:"outcome"`
	PreviousOption string       `json:"previous_option_id,omitempty"`
	Deltas         []TallyDelta `json:"deltas,omitempty"`
}

type PollFilter struct {
	Genre    string
	IsActive *bool
}

type OptionResult struct {
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

type PollSummary struct {
	Poll       Poll      `json:"poll"`
	State      PollState `json:"state"`
	TotalVotes int       `json:"total_votes"`
}

type PollDetail struct {
	Poll           Poll           `json:"poll"`
	State          PollState      `json:"state"`
	TotalVotes     int            `json:"total_votes"`
	HasVoted       bool           `json:"has_voted"`
	VotedOptionID  string         `json:"voted_option_id,omitempty"`
	CanVote        bool           `json:"can_vote"`
	ResultsVisible bool           `json:"results_visible"`
	Results        []OptionResult `json:"results,omitempty"`
}

type OptionDrift struct {
	OptionID string `json:"option_id"`
	Cached   int    `json:"cached"`
	Ledger   int    `json:"ledger"`
}

type ReconcileReport struct {
	PollID     string        `json:"poll_id"`
	TotalVotes int           `json:"total_votes"`
	Drift      []OptionDrift `json:"drift,omitempty"`
}

// Corrected reports whether reconciliation changed any cached count.
func (r ReconcileReport) Corrected() bool {
	return len(r.Drift) > 0
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
