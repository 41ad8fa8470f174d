// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/cliparse"
	"github.com/danielhkuo/securevote/ledger"
	"github.com/danielhkuo/securevote/lifecycle"
	"github.com/danielhkuo/securevote/middleware"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/polls"
	"github.com/danielhkuo/securevote/store"
	"github.com/danielhkuo/securevote/tally"
	"github.com/danielhkuo/securevote/voting"
	"github.com/redis/go-redis/v9"
)

// BaseTime is the fixed "now" every test clock starts at.
var BaseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Test identities, resolved by Env.Roles.
const (
	AdminID   = "admin-1"
	CreatorID = "creator-1"
)

// NewSQLiteStore opens an in-memory SQLite store with the full schema
func NewSQLiteStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.OpenSQL(context.Background(), store.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewRedisStore starts a miniredis server and returns a store backed by it
func NewRedisStore(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s := store.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { s.Close() })
	return s, mr
}

// Stores returns one fresh store per storage strategy, keyed by name
func Stores(t *testing.T) map[string]store.Store {
	t.Helper()

	rs, _ := NewRedisStore(t)
	return map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"sqlite": NewSQLiteStore(t),
		"redis":  rs,
	}
}

// Env is a fully wired service over one store.
type Env struct {
	Store     store.Store
	Clock     *lifecycle.FixedClock
	Projector *tally.Projector
	Ledger    *ledger.Ledger
	Polls     *polls.Store
	Service   *voting.Service
	Roles     *auth.StaticRoles
}

// NewEnv wires the service over s with a fixed clock at BaseTime.
// AdminID resolves to admin and CreatorID to creator; everyone else votes.
func NewEnv(t *testing.T, s store.Store) *Env {
	t.Helper()

	clock := lifecycle.NewFixedClock(BaseTime)
	projector := tally.NewProjector(s, nil)
	votes := ledger.New(s, projector, ledger.Options{Clock: clock})
	catalog := polls.New(s, votes, clock, nil)

	return &Env{
		Store:     s,
		Clock:     clock,
		Projector: projector,
		Ledger:    votes,
		Polls:     catalog,
		Roles:     auth.NewStaticRoles([]string{AdminID}, []string{CreatorID}),
		Service: voting.NewService(voting.Config{
			Polls:     catalog,
			Ledger:    votes,
			Projector: projector,
			Clock:     clock,
		}),
	}
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseType:      cliparse.StorageMemory,
		AdminIDs:          []string{AdminID},
		CreatorIDs:        []string{CreatorID},
		VoteMaxRetries:    ledger.DefaultMaxRetries,
		ReconcileInterval: 0,
	}
}

// Admin returns the admin identity
func Admin() auth.Identity { return auth.Identity{UserID: AdminID, Role: auth.RoleAdmin} }

// Voter returns a voter identity for userID
func Voter(userID string) auth.Identity { return auth.Identity{UserID: userID, Role: auth.RoleVoter} }

// CreateTestPoll creates an open poll with the given options, or
// "Option A" and "Option B" when none are given. A non-zero ttl sets the
// expiry relative to the env clock.
func CreateTestPoll(t *testing.T, env *Env, ttl time.Duration, options ...string) models.Poll {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}
	req := models.CreatePollRequest{
		Title:       "Test Poll",
		Description: "A test poll",
		Options:     options,
	}
	if ttl > 0 {
		expires := env.Clock.Now().Add(ttl)
		req.ExpiresAt = &expires
	}

	poll, err := env.Service.CreatePoll(context.Background(), Admin(), req)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// OptionID returns the id of the option with the given text
func OptionID(t *testing.T, poll models.Poll, text string) string {
	t.Helper()

	for _, opt := range poll.Options {
		if opt.Text == text {
			return opt.ID
		}
	}
	t.Fatalf("Poll %s has no option %q", poll.ID, text)
	return ""
}

// Counts reads the cached counts of a poll keyed by option text
func Counts(t *testing.T, s store.Store, pollID string) map[string]int {
	t.Helper()

	poll, err := s.GetPoll(context.Background(), pollID)
	if err != nil {
		t.Fatalf("Failed to load poll %s: %v", pollID, err)
	}
	counts := make(map[string]int, len(poll.Options))
	for _, opt := range poll.Options {
		counts[opt.Text] = opt.VoteCount
	}
	return counts
}

// MakeRequest creates an HTTP test request. A non-empty userID is sent in
// the identity header.
func MakeRequest(method, path string, body interface{}, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
