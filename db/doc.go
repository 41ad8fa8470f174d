// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles relational schema creation for the SQL storage strategy.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on PostgreSQL and SQLite.

# Tables

  - poll: Poll metadata and lifecycle flags
  - poll_option: Ordered options with their cached vote_count
  - vote: The vote ledger, one row per (poll_id, voter_id)

# Relationships

	poll 1──* poll_option
	poll 1──* vote

All foreign keys use ON DELETE CASCADE.
*/
package db
