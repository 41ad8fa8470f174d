// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, description, genre, options, expires_at
  - CastVoteRequest: option_id

# Response Types

  - ListPollsResponse: polls (summaries with derived state)
  - ReconcileResponse: report
  - ErrorResponse: error, message, field

# Domain Types

  - Poll: poll metadata with ordered options and cached counts
  - PollOption: option text and its cached vote count
  - Vote: one ledger entry, keyed by (poll_id, voter_id)
  - VoteResult: outcome of a cast (created, changed, unchanged) and its deltas
  - PollDetail: a poll as one voter sees it
  - OptionResult: votes and rounded percentage per option
  - ReconcileReport: per-option drift repaired by reconciliation

# Constants

Poll states are derived, never stored:

	StateOpen     = "open"
	StateExpired  = "expired"
	StateInactive = "inactive"

Validation limits: title 200, description 500, option text 100, genre 50
characters; 2 to 10 options. DefaultGenre applies when none is given.

# Errors

Sentinel errors are matched with errors.Is:

	ErrValidation      (also any *ValidationError)
	ErrNotFound
	ErrPollClosed
	ErrInvalidOption
	ErrForbidden
	ErrConflict        storage lost a compare-and-swap, retryable
	ErrVoteContention  retries exhausted, wraps ErrConflict
*/
package models
