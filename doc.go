// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the SecureVote API server.

SecureVote runs multiple-choice polls with one vote per user per poll,
live tallies that stay consistent under concurrent voting, and results
with per-option percentages.

# Starting the Server

With no configuration the server keeps everything in memory:

	go run .

Persistent storage is selected with -t (or DATABASE_TYPE):

	go run . -t sqlite -d "file:securevote.db"
	go run . -t postgres -d "postgres://..."
	go run . -t redis -r "redis://localhost:6379/0"

# Configuration

Settings come from flags, then the environment, then a .env file:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): memory, sqlite, postgres or redis
  - DATABASE_URL (-d): required for sqlite and postgres
  - REDIS_URL (-r): required for redis
  - ADMIN_IDS (-admins), CREATOR_IDS (-creators): comma separated user ids
  - VOTE_MAX_RETRIES (-retries): retries after a storage conflict (default: 5)
  - RECONCILE_INTERVAL (-reconcile-interval): tally check period (default: 5m, 0 disables)
  - LOG_LEVEL (-log-level), LOG_FORMAT (-log-format): slog level, text or json
  - SEED_DEMO (-seed): create demo polls when the catalog is empty

# Architecture

  - models: domain types and the error taxonomy
  - store: storage interface with memory, SQL and Redis strategies
  - db: relational schema
  - lifecycle: poll state and voting eligibility
  - tally: cached counts, percentages, reconciliation
  - ledger: one vote per (poll, voter), atomic with its tally change
  - polls: poll catalog and validation
  - voting: command surface used by transports
  - auth: roles and identifiers
  - handlers, router, middleware: JSON over HTTP
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
