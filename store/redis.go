// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/securevote/models"
)

const (
	redisPrefix   = "securevote:"
	redisIndexKey = redisPrefix + "polls"
	// watchAttempts bounds internal retries for catalog writes; vote swaps
	// surface conflicts to the ledger instead.
	watchAttempts = 3
	pollStripes   = 64
)

// RedisStore keeps each poll in a hash, its tallies in a second hash and
// the ledger in a third, keyed by voter id. Writes use WATCH/MULTI so a
// concurrent change to any watched key aborts the transaction. Writes to
// one poll from this process are also serialized locally, so WATCH only
// has to arbitrate between processes.
type RedisStore struct {
	rdb   *redis.Client
	locks [pollStripes]sync.Mutex
}

// pollRecord is the flat hash layout of a poll.
type pollRecord struct {
	ID          string `mapstructure:"id"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Genre       string `mapstructure:"genre"`
	CreatorID   string `mapstructure:"creator_id"`
	IsActive    bool   `mapstructure:"is_active"`
	CreatedAt   int64  `mapstructure:"created_at"`
	ExpiresAt   int64  `mapstructure:"expires_at"`
	Options     string `mapstructure:"options"`
}

type optionRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type voteRecord struct {
	OptionID string `json:"option_id"`
	CastAt   int64  `json:"cast_at"`
}

// OpenRedis connects using a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(rdb), nil
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) lockPoll(pollID string) func() {
	m := &s.locks[xxhash.Sum64String(pollID)%pollStripes]
	m.Lock()
	return m.Unlock
}

func pollKey(pollID string) string    { return redisPrefix + "poll:" + pollID }
func tallyKey(pollID string) string   { return redisPrefix + "poll:" + pollID + ":tallies" }
func ledgerKey(pollID string) string  { return redisPrefix + "poll:" + pollID + ":votes" }
func pollKeys(pollID string) []string { return []string{pollKey(pollID), tallyKey(pollID), ledgerKey(pollID)} }

// watch runs fn in a WATCH transaction, mapping an aborted EXEC to
// models.ErrConflict.
func (s *RedisStore) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	err := s.rdb.Watch(ctx, fn, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return models.ErrConflict
	}
	return err
}

func (s *RedisStore) watchRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < watchAttempts; i++ {
		err = s.watch(ctx, fn, keys...)
		if !errors.Is(err, models.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *RedisStore) CreatePoll(ctx context.Context, poll models.Poll) error {
	options := make([]optionRecord, len(poll.Options))
	tallies := make(map[string]any, len(poll.Options))
	for i, opt := range poll.Options {
		options[i] = optionRecord{ID: opt.ID, Text: opt.Text}
		tallies[opt.ID] = opt.VoteCount
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	fields := map[string]any{
		"id":          poll.ID,
		"title":       poll.Title,
		"description": poll.Description,
		"genre":       poll.Genre,
		"creator_id":  poll.CreatorID,
		"is_active":   strconv.FormatBool(poll.IsActive),
		"created_at":  poll.CreatedAt.UnixMilli(),
		"expires_at":  "",
		"options":     string(encoded),
	}
	if poll.ExpiresAt != nil {
		fields["expires_at"] = poll.ExpiresAt.UnixMilli()
	}

	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, pollKey(poll.ID)).Result()
		if err != nil {
			return fmt.Errorf("failed to check poll: %w", err)
		}
		if n > 0 {
			return models.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, pollKey(poll.ID), fields)
			pipe.HSet(ctx, tallyKey(poll.ID), tallies)
			pipe.SAdd(ctx, redisIndexKey, poll.ID)
			return nil
		})
		return err
	}, pollKey(poll.ID))
}

func (s *RedisStore) GetPoll(ctx context.Context, pollID string) (models.Poll, error) {
	var (
		pollCmd  *redis.MapStringStringCmd
		tallyCmd *redis.MapStringStringCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pollCmd = pipe.HGetAll(ctx, pollKey(pollID))
		tallyCmd = pipe.HGetAll(ctx, tallyKey(pollID))
		return nil
	})
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to load poll: %w", err)
	}
	return decodePoll(pollCmd.Val(), tallyCmd.Val())
}

func decodePoll(fields, tallies map[string]string) (models.Poll, error) {
	if len(fields) == 0 {
		return models.Poll{}, models.ErrNotFound
	}

	var rec pollRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return models.Poll{}, err
	}
	if err := dec.Decode(fields); err != nil {
		return models.Poll{}, fmt.Errorf("failed to decode poll: %w", err)
	}

	var options []optionRecord
	if err := json.Unmarshal([]byte(rec.Options), &options); err != nil {
		return models.Poll{}, fmt.Errorf("failed to decode options: %w", err)
	}

	poll := models.Poll{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Genre:       rec.Genre,
		CreatorID:   rec.CreatorID,
		IsActive:    rec.IsActive,
		CreatedAt:   fromMillis(rec.CreatedAt),
		Options:     make([]models.PollOption, len(options)),
	}
	if rec.ExpiresAt != 0 {
		t := fromMillis(rec.ExpiresAt)
		poll.ExpiresAt = &t
	}
	counts, err := parseCounts(tallies)
	if err != nil {
		return models.Poll{}, err
	}
	for i, opt := range options {
		poll.Options[i] = models.PollOption{ID: opt.ID, Text: opt.Text, VoteCount: counts[opt.ID]}
	}
	return poll, nil
}

func parseCounts(raw map[string]string) (map[string]int, error) {
	counts := make(map[string]int, len(raw))
	for optionID, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid tally for option %s: %w", optionID, err)
		}
		counts[optionID] = n
	}
	return counts, nil
}

func (s *RedisStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	ids, err := s.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	sort.Strings(ids)

	polls := make([]models.Poll, 0, len(ids))
	for _, id := range ids {
		poll, err := s.GetPoll(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue // deleted since SMEMBERS
		}
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, nil
}

func (s *RedisStore) SetPollActive(ctx context.Context, pollID string, active bool) error {
	defer s.lockPoll(pollID)()

	return s.watchRetry(ctx, func(tx *redis.Tx) error {
		if err := requirePoll(ctx, tx, pollID); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, pollKey(pollID), "is_active", strconv.FormatBool(active))
			return nil
		})
		return err
	}, pollKey(pollID))
}

func (s *RedisStore) DeletePoll(ctx context.Context, pollID string) error {
	defer s.lockPoll(pollID)()

	return s.watchRetry(ctx, func(tx *redis.Tx) error {
		if err := requirePoll(ctx, tx, pollID); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, pollKeys(pollID)...)
			pipe.SRem(ctx, redisIndexKey, pollID)
			return nil
		})
		return err
	}, pollKeys(pollID)...)
}

func requirePoll(ctx context.Context, tx *redis.Tx, pollID string) error {
	n, err := tx.Exists(ctx, pollKey(pollID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check poll: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *RedisStore) GetVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error) {
	return loadVote(ctx, s.rdb, pollID, voterID)
}

func loadVote(ctx context.Context, c redis.Cmdable, pollID, voterID string) (models.Vote, bool, error) {
	raw, err := c.HGet(ctx, ledgerKey(pollID), voterID).Result()
	if errors.Is(err, redis.Nil) {
		return models.Vote{}, false, nil
	}
	if err != nil {
		return models.Vote{}, false, fmt.Errorf("failed to query vote: %w", err)
	}
	var rec voteRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return models.Vote{}, false, fmt.Errorf("failed to decode vote: %w", err)
	}
	return models.Vote{
		PollID:   pollID,
		VoterID:  voterID,
		OptionID: rec.OptionID,
		CastAt:   fromMillis(rec.CastAt),
	}, true, nil
}

func (s *RedisStore) DeleteVotes(ctx context.Context, pollID string) (int, error) {
	defer s.lockPoll(pollID)()

	var removed int64
	err := s.watchRetry(ctx, func(tx *redis.Tx) error {
		n, err := tx.HLen(ctx, ledgerKey(pollID)).Result()
		if err != nil {
			return fmt.Errorf("failed to count votes: %w", err)
		}
		optionIDs, err := tx.HKeys(ctx, tallyKey(pollID)).Result()
		if err != nil {
			return fmt.Errorf("failed to read tallies: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, ledgerKey(pollID))
			if len(optionIDs) > 0 {
				zeroed := make(map[string]any, len(optionIDs))
				for _, id := range optionIDs {
					zeroed[id] = 0
				}
				pipe.HSet(ctx, tallyKey(pollID), zeroed)
			}
			return nil
		})
		removed = n
		return err
	}, ledgerKey(pollID), tallyKey(pollID))
	return int(removed), err
}

func (s *RedisStore) CountVotesPerOption(ctx context.Context, pollID string) (map[string]int, error) {
	return countVotes(ctx, s.rdb, pollID)
}

func countVotes(ctx context.Context, c redis.Cmdable, pollID string) (map[string]int, error) {
	values, err := c.HVals(ctx, ledgerKey(pollID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	counts := make(map[string]int)
	for _, raw := range values {
		var rec voteRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode vote: %w", err)
		}
		counts[rec.OptionID]++
	}
	return counts, nil
}

func (s *RedisStore) SwapVote(ctx context.Context, prev *models.Vote, next models.Vote, adjust AdjustFunc) error {
	encoded, err := json.Marshal(voteRecord{OptionID: next.OptionID, CastAt: next.CastAt.UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to encode vote: %w", err)
	}

	defer s.lockPoll(next.PollID)()

	return s.watch(ctx, func(tx *redis.Tx) error {
		if err := requirePoll(ctx, tx, next.PollID); err != nil {
			return err
		}
		current, exists, err := loadVote(ctx, tx, next.PollID, next.VoterID)
		if err != nil {
			return err
		}
		if !sameEntry(prev, current, exists) {
			return models.ErrConflict
		}

		buf, err := loadTallies(ctx, tx, next.PollID)
		if err != nil {
			return err
		}
		if adjust != nil {
			if err := adjust(buf); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, ledgerKey(next.PollID), next.VoterID, string(encoded))
			flushTallies(ctx, pipe, buf)
			return nil
		})
		return err
	}, pollKeys(next.PollID)...)
}

func (s *RedisStore) UpdateTallies(ctx context.Context, pollID string, adjust AdjustFunc) error {
	defer s.lockPoll(pollID)()

	return s.watch(ctx, func(tx *redis.Tx) error {
		if err := requirePoll(ctx, tx, pollID); err != nil {
			return err
		}
		buf, err := loadTallies(ctx, tx, pollID)
		if err != nil {
			return err
		}
		if err := adjust(buf); err != nil {
			return err
		}
		if len(buf.dirty) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			flushTallies(ctx, pipe, buf)
			return nil
		})
		return err
	}, pollKeys(pollID)...)
}

func loadTallies(ctx context.Context, tx *redis.Tx, pollID string) (*tallyBuffer, error) {
	raw, err := tx.HGetAll(ctx, tallyKey(pollID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read tallies: %w", err)
	}
	counts, err := parseCounts(raw)
	if err != nil {
		return nil, err
	}
	return newTallyBuffer(pollID, counts, func() (map[string]int, error) {
		return countVotes(ctx, tx, pollID)
	}), nil
}

func flushTallies(ctx context.Context, pipe redis.Pipeliner, buf *tallyBuffer) {
	if len(buf.dirty) == 0 {
		return
	}
	fields := make(map[string]any, len(buf.dirty))
	for optionID, n := range buf.dirty {
		fields[optionID] = n
	}
	pipe.HSet(ctx, tallyKey(buf.pollID), fields)
}
