// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/securevote/db"
	"github.com/danielhkuo/securevote/models"
)

// SQL dialects
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// SQLStore persists polls and the vote ledger in PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// OpenSQL connects to the database, verifies the connection and creates
// the schema.
func OpenSQL(ctx context.Context, dialect, url string) (*SQLStore, error) {
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	conn, err := sql.Open(dialect, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if dialect == DialectSQLite {
		// One connection serializes writers and keeps ":memory:" databases
		// shared across calls.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s, err := NewSQLStore(ctx, conn, dialect)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open connection and creates the schema.
func NewSQLStore(ctx context.Context, conn *sql.DB, dialect string) (*SQLStore, error) {
	if dialect == DialectSQLite {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		return nil, err
	}
	return &SQLStore{db: conn, dialect: dialect}, nil
}

// DB exposes the underlying connection pool.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) CreatePoll(ctx context.Context, poll models.Poll) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var expiresAt *int64
		if poll.ExpiresAt != nil {
			ms := poll.ExpiresAt.UnixMilli()
			expiresAt = &ms
		}
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO poll (id, title, description, genre, creator_id, is_active, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), poll.ID, poll.Title, poll.Description, poll.Genre, poll.CreatorID, poll.IsActive,
			poll.CreatedAt.UnixMilli(), expiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert poll: %w", err)
		}

		for i, opt := range poll.Options {
			_, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO poll_option (poll_id, id, position, text, vote_count)
				VALUES (?, ?, ?, ?, ?)
			`), poll.ID, opt.ID, i, opt.Text, opt.VoteCount)
			if err != nil {
				return fmt.Errorf("failed to insert option: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) GetPoll(ctx context.Context, pollID string) (models.Poll, error) {
	return s.loadPoll(ctx, s.db, pollID)
}

func (s *SQLStore) loadPoll(ctx context.Context, q querier, pollID string) (models.Poll, error) {
	var (
		poll      models.Poll
		createdAt int64
		expiresAt sql.NullInt64
	)
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT id, title, description, genre, creator_id, is_active, created_at, expires_at
		FROM poll
		WHERE id = ?
	`), pollID).Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.Genre,
		&poll.CreatorID, &poll.IsActive, &createdAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, models.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}
	poll.CreatedAt = fromMillis(createdAt)
	if expiresAt.Valid {
		t := fromMillis(expiresAt.Int64)
		poll.ExpiresAt = &t
	}

	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, text, vote_count
		FROM poll_option
		WHERE poll_id = ?
		ORDER BY position
	`), pollID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.ID, &opt.Text, &opt.VoteCount); err != nil {
			return models.Poll{}, fmt.Errorf("failed to scan option: %w", err)
		}
		poll.Options = append(poll.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to read options: %w", err)
	}
	return poll, nil
}

func (s *SQLStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, genre, creator_id, is_active, created_at, expires_at
		FROM poll
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			poll      models.Poll
			createdAt int64
			expiresAt sql.NullInt64
		)
		if err := rows.Scan(
			&poll.ID, &poll.Title, &poll.Description, &poll.Genre,
			&poll.CreatorID, &poll.IsActive, &createdAt, &expiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		poll.CreatedAt = fromMillis(createdAt)
		if expiresAt.Valid {
			t := fromMillis(expiresAt.Int64)
			poll.ExpiresAt = &t
		}
		index[poll.ID] = len(polls)
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read polls: %w", err)
	}

	optRows, err := s.db.QueryContext(ctx, `
		SELECT poll_id, id, text, vote_count
		FROM poll_option
		ORDER BY poll_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var (
			pollID string
			opt    models.PollOption
		)
		if err := optRows.Scan(&pollID, &opt.ID, &opt.Text, &opt.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		if i, ok := index[pollID]; ok {
			polls[i].Options = append(polls[i].Options, opt)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	return polls, nil
}

func (s *SQLStore) SetPollActive(ctx context.Context, pollID string, active bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE poll SET is_active = ? WHERE id = ?`), active, pollID)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) DeletePoll(ctx context.Context, pollID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM vote WHERE poll_id = ?`), pollID); err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM poll_option WHERE poll_id = ?`), pollID); err != nil {
			return fmt.Errorf("failed to delete options: %w", err)
		}
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM poll WHERE id = ?`), pollID)
		if err != nil {
			return fmt.Errorf("failed to delete poll: %w", err)
		}
		return requireRow(res)
	})
}

func (s *SQLStore) GetVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error) {
	return s.loadVote(ctx, s.db, pollID, voterID)
}

func (s *SQLStore) loadVote(ctx context.Context, q querier, pollID, voterID string) (models.Vote, bool, error) {
	vote := models.Vote{PollID: pollID, VoterID: voterID}
	var castAt int64
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT option_id, cast_at FROM vote WHERE poll_id = ? AND voter_id = ?
	`), pollID, voterID).Scan(&vote.OptionID, &castAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, false, nil
	}
	if err != nil {
		return models.Vote{}, false, fmt.Errorf("failed to query vote: %w", err)
	}
	vote.CastAt = fromMillis(castAt)
	return vote, true, nil
}

func (s *SQLStore) DeleteVotes(ctx context.Context, pollID string) (int, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM vote WHERE poll_id = ?`), pollID)
		if err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted votes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE poll_option SET vote_count = 0 WHERE poll_id = ?`), pollID); err != nil {
			return fmt.Errorf("failed to reset tallies: %w", err)
		}
		return nil
	})
	return int(removed), err
}

func (s *SQLStore) CountVotesPerOption(ctx context.Context, pollID string) (map[string]int, error) {
	return s.countVotes(ctx, s.db, pollID)
}

func (s *SQLStore) countVotes(ctx context.Context, q querier, pollID string) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT option_id, COUNT(*) FROM vote WHERE poll_id = ? GROUP BY option_id
	`), pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			optionID string
			n        int
		)
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[optionID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vote counts: %w", err)
	}
	return counts, nil
}

func (s *SQLStore) SwapVote(ctx context.Context, prev *models.Vote, next models.Vote, adjust AdjustFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockPoll(ctx, tx, next.PollID); err != nil {
			return err
		}

		current, exists, err := s.loadVote(ctx, tx, next.PollID, next.VoterID)
		if err != nil {
			return err
		}
		if !sameEntry(prev, current, exists) {
			return models.ErrConflict
		}

		buf, err := s.loadTallies(ctx, tx, next.PollID)
		if err != nil {
			return err
		}
		if adjust != nil {
			if err := adjust(buf); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO vote (poll_id, voter_id, option_id, cast_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (poll_id, voter_id)
			DO UPDATE SET option_id = excluded.option_id, cast_at = excluded.cast_at
		`), next.PollID, next.VoterID, next.OptionID, next.CastAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to upsert vote: %w", err)
		}
		return s.flushTallies(ctx, tx, buf)
	})
}

func (s *SQLStore) UpdateTallies(ctx context.Context, pollID string, adjust AdjustFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockPoll(ctx, tx, pollID); err != nil {
			return err
		}
		buf, err := s.loadTallies(ctx, tx, pollID)
		if err != nil {
			return err
		}
		if err := adjust(buf); err != nil {
			return err
		}
		return s.flushTallies(ctx, tx, buf)
	})
}

// lockPoll takes the per-poll write lock. SQLite runs on a single
// connection, so the transaction itself is the lock there.
func (s *SQLStore) lockPoll(ctx context.Context, tx *sql.Tx, pollID string) error {
	query := `SELECT id FROM poll WHERE id = ?`
	if s.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	var id string
	err := tx.QueryRowContext(ctx, s.rebind(query), pollID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock poll: %w", err)
	}
	return nil
}

func (s *SQLStore) loadTallies(ctx context.Context, tx *sql.Tx, pollID string) (*tallyBuffer, error) {
	rows, err := tx.QueryContext(ctx, s.rebind(`
		SELECT id, vote_count FROM poll_option WHERE poll_id = ?
	`), pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tallies: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			optionID string
			n        int
		)
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		counts[optionID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tallies: %w", err)
	}

	return newTallyBuffer(pollID, counts, func() (map[string]int, error) {
		return s.countVotes(ctx, tx, pollID)
	}), nil
}

func (s *SQLStore) flushTallies(ctx context.Context, tx *sql.Tx, buf *tallyBuffer) error {
	for optionID, n := range buf.dirty {
		_, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE poll_option SET vote_count = ? WHERE poll_id = ? AND id = ?
		`), n, buf.pollID, optionID)
		if err != nil {
			return fmt.Errorf("failed to update tally: %w", err)
		}
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
