// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/store"
	"github.com/danielhkuo/securevote/testutil"
)

func TestCreatePoll_Roles(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, store.NewMemoryStore())
	req := models.CreatePollRequest{Title: "Roles", Options: []string{"a", "b"}}

	tests := []struct {
		name    string
		who     auth.Identity
		wantErr error
	}{
		{"admin", testutil.Admin(), nil},
		{"creator", auth.Identity{UserID: testutil.CreatorID, Role: auth.RoleCreator}, nil},
		{"voter", testutil.Voter("u1"), models.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll, err := env.Service.CreatePoll(ctx, tt.who, req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreatePoll() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && poll.CreatorID != tt.who.UserID {
				t.Errorf("CreatorID = %q, want %q", poll.CreatorID, tt.who.UserID)
			}
		})
	}
}

func TestGetPollDetail(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, store.NewMemoryStore())
	poll := testutil.CreateTestPoll(t, env, time.Hour)
	optA := testutil.OptionID(t, poll, "Option A")

	if _, err := env.Service.CastVote(ctx, testutil.Voter("voted"), poll.ID, optA); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		voter       string
		advance     time.Duration
		wantState   models.PollState
		wantVoted   bool
		wantCanVote bool
		wantResults bool
	}{
		{"fresh voter on open poll", "fresh", 0, models.StateOpen, false, true, false},
		{"voter who voted", "voted", 0, models.StateOpen, true, false, true},
		{"anonymous on open poll", "", 0, models.StateOpen, false, false, false},
		{"fresh voter after expiry", "fresh", time.Hour, models.StateExpired, false, false, true},
		{"anonymous after expiry", "", time.Hour, models.StateExpired, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.Clock.Set(testutil.BaseTime.Add(tt.advance))

			detail, err := env.Service.GetPollDetail(ctx, poll.ID, tt.voter)
			if err != nil {
				t.Fatalf("GetPollDetail() error = %v", err)
			}
			if detail.State != tt.wantState {
				t.Errorf("State = %s, want %s", detail.State, tt.wantState)
			}
			if detail.HasVoted != tt.wantVoted || detail.CanVote != tt.wantCanVote {
				t.Errorf("HasVoted/CanVote = %v/%v, want %v/%v",
					detail.HasVoted, detail.CanVote, tt.wantVoted, tt.wantCanVote)
			}
			if detail.ResultsVisible != tt.wantResults {
				t.Errorf("ResultsVisible = %v, want %v", detail.ResultsVisible, tt.wantResults)
			}
			if tt.wantResults {
				if len(detail.Results) != 2 || detail.Results[0].Votes != 1 || detail.Results[0].Percentage != 100 {
					t.Errorf("Results = %+v", detail.Results)
				}
			} else if detail.Results != nil {
				t.Errorf("hidden results were returned: %+v", detail.Results)
			}
			if tt.wantVoted && detail.VotedOptionID != optA {
				t.Errorf("VotedOptionID = %q, want %q", detail.VotedOptionID, optA)
			}
			if detail.TotalVotes != 1 {
				t.Errorf("TotalVotes = %d, want 1", detail.TotalVotes)
			}
		})
	}

	if _, err := env.Service.GetPollDetail(ctx, "missing", "fresh"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetPollDetail(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListPolls_States(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, store.NewMemoryStore())

	expiring := testutil.CreateTestPoll(t, env, time.Minute)
	open := testutil.CreateTestPoll(t, env, 0)
	closed := testutil.CreateTestPoll(t, env, 0)
	if _, err := env.Service.DeactivatePoll(ctx, testutil.Admin(), closed.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Service.CastVote(ctx, testutil.Voter("u1"), open.ID, open.Options[1].ID); err != nil {
		t.Fatal(err)
	}
	env.Clock.Advance(time.Minute)

	summaries, err := env.Service.ListPolls(ctx, models.PollFilter{})
	if err != nil {
		t.Fatalf("ListPolls() error = %v", err)
	}
	want := map[string]models.PollState{
		expiring.ID: models.StateExpired,
		open.ID:     models.StateOpen,
		closed.ID:   models.StateInactive,
	}
	if len(summaries) != len(want) {
		t.Fatalf("ListPolls() returned %d summaries", len(summaries))
	}
	for _, s := range summaries {
		if s.State != want[s.Poll.ID] {
			t.Errorf("poll %s state = %s, want %s", s.Poll.ID, s.State, want[s.Poll.ID])
		}
		wantVotes := 0
		if s.Poll.ID == open.ID {
			wantVotes = 1
		}
		if s.TotalVotes != wantVotes {
			t.Errorf("poll %s TotalVotes = %d, want %d", s.Poll.ID, s.TotalVotes, wantVotes)
		}
	}
}

func TestMyVote(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, store.NewMemoryStore())
	poll := testutil.CreateTestPoll(t, env, 0)
	voter := testutil.Voter("u1")

	if _, ok, err := env.Service.MyVote(ctx, voter, poll.ID); err != nil || ok {
		t.Errorf("MyVote() before voting = %v, %v; want false, nil", ok, err)
	}

	if _, err := env.Service.CastVote(ctx, voter, poll.ID, poll.Options[1].ID); err != nil {
		t.Fatal(err)
	}
	vote, ok, err := env.Service.MyVote(ctx, voter, poll.ID)
	if err != nil || !ok {
		t.Fatalf("MyVote() = %v, %v", ok, err)
	}
	if vote.OptionID != poll.Options[1].ID || !vote.CastAt.Equal(testutil.BaseTime) {
		t.Errorf("vote = %+v", vote)
	}

	if _, _, err := env.Service.MyVote(ctx, voter, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MyVote(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReconcile_AdminOnly(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, store.NewMemoryStore())
	poll := testutil.CreateTestPoll(t, env, 0)

	creator := auth.Identity{UserID: testutil.CreatorID, Role: auth.RoleCreator}
	if _, err := env.Service.Reconcile(ctx, creator, poll.ID); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("creator Reconcile() error = %v, want ErrForbidden", err)
	}

	report, err := env.Service.Reconcile(ctx, testutil.Admin(), poll.ID)
	if err != nil {
		t.Fatalf("admin Reconcile() error = %v", err)
	}
	if report.PollID != poll.ID || report.Corrected() {
		t.Errorf("report = %+v", report)
	}

	if _, err := env.Service.Reconcile(ctx, testutil.Admin(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Reconcile(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSeedDemoPolls(t *testing.T) {
	for name, s := range testutil.Stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := testutil.NewEnv(t, s)

			n, err := env.Service.SeedDemoPolls(ctx)
			if err != nil {
				t.Fatalf("SeedDemoPolls() error = %v", err)
			}
			if n != 4 {
				t.Errorf("SeedDemoPolls() created %d polls, want 4", n)
			}

			summaries, err := env.Service.ListPolls(ctx, models.PollFilter{Genre: "Healthcare & Wellness"})
			if err != nil {
				t.Fatal(err)
			}
			if len(summaries) != 1 || summaries[0].Poll.Title != "Coffee vs Tea" || summaries[0].State != models.StateOpen {
				t.Errorf("seeded health polls = %+v", summaries)
			}

			n, err = env.Service.SeedDemoPolls(ctx)
			if err != nil || n != 0 {
				t.Errorf("second SeedDemoPolls() = %d, %v; want 0, nil", n, err)
			}
		})
	}
}
