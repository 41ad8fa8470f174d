// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle derives poll state and voting eligibility.

Everything here is a pure function of the poll, the current time and, for
CanVote, a read-only vote lookup:

	State(poll, now)   → open | expired | inactive
	CanVote(...)       → open and not yet voted
	ResultsVisible(...) → voted, or poll no longer open

An inactive poll reports inactive even after its expiry has passed. A poll
whose expires_at equals now is already expired.
*/
package lifecycle
