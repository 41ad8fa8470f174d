// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records at most one vote per voter per poll.

CastVote compares the requested option with the voter's current entry:

	no entry         → created,   +1 on the option
	same option      → unchanged, no tally change
	different option → changed,   -1 on the old option, +1 on the new

The entry and its tally deltas are written with a single compare-and-swap
on the store. A lost swap is retried with a short linear backoff; after
MaxRetries the call fails with models.ErrVoteContention. Calls for the same
(poll, voter) pair in one process are serialized by a striped lock before
they reach storage.
*/
package ledger
