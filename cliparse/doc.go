// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first when present. It never
overrides variables already set in the environment.

# CLI Flags and Environment Variables

	-p                   PORT                default 3318
	-t                   DATABASE_TYPE       memory (default), sqlite, postgres, redis
	-d                   DATABASE_URL        required for sqlite and postgres
	-r                   REDIS_URL           required for redis
	-admins              ADMIN_IDS           comma separated
	-creators            CREATOR_IDS         comma separated
	-retries             VOTE_MAX_RETRIES    default 5
	-reconcile-interval  RECONCILE_INTERVAL  default 5m, 0 disables
	-log-level           LOG_LEVEL           debug, info (default), warn, error
	-log-format          LOG_FORMAT          text (default) or json
	-seed                SEED_DEMO           seed demo polls into an empty catalog

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error for an unknown storage type, a missing URL for
the chosen storage, or a malformed number, duration or boolean.

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(ctx, cfg)
*/
package cliparse
