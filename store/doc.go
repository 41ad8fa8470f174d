// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists polls, votes and cached tallies.

Three adapters implement Store:

  - MemoryStore: maps behind one mutex
  - SQLStore: PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite), schema from package db
  - RedisStore: hashes per poll, WATCH/MULTI transactions (go-redis)

Open picks one from the configuration.

# Atomic Units

SwapVote replaces a voter's entry only if it still matches prev, and runs
the tally adjustment in the same unit. A mismatch returns
models.ErrConflict and writes nothing:

	err := s.SwapVote(ctx, &prev, next, func(tx store.TallyTx) error {
		tx.Set(prev.OptionID, tx.Count(prev.OptionID)-1)
		tx.Set(next.OptionID, tx.Count(next.OptionID)+1)
		return nil
	})

UpdateTallies runs an adjustment alone, for reconciliation. DeleteVotes
removes a poll's votes and zeroes its counts.
*/
package store
