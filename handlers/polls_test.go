// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/store"
	"github.com/danielhkuo/securevote/testutil"
)

func TestCreatePoll(t *testing.T) {
	env := testutil.NewEnv(t, store.NewMemoryStore())
	handler := NewPollHandler(env.Service, env.Roles)

	t.Run("creator can create", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
			Title:   "  Lunch  ",
			Options: []string{"Pizza", " Sushi "},
		}, testutil.CreatorID)
		w := httptest.NewRecorder()

		handler.CreatePoll(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)
		var poll models.Poll
		testutil.AssertJSON(t, w, &poll)
		if poll.ID == "" {
			t.Error("Expected poll id")
		}
		if poll.Title != "Lunch" {
			t.Errorf("Expected trimmed title 'Lunch', got '%s'", poll.Title)
		}
		if poll.Genre != models.DefaultGenre {
			t.Errorf("Expected default genre, got '%s'", poll.Genre)
		}
		if poll.CreatorID != testutil.CreatorID {
			t.Errorf("Expected creator %s, got %s", testutil.CreatorID, poll.CreatorID)
		}
		if len(poll.Options) != 2 || poll.Options[1].Text != "Sushi" {
			t.Errorf("Unexpected options %+v", poll.Options)
		}
	})

	t.Run("voter is forbidden", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
			Title:   "Lunch",
			Options: []string{"Pizza", "Sushi"},
		}, "someone")
		w := httptest.NewRecorder()

		handler.CreatePoll(w, req)

		testutil.AssertStatus(t, w, http.StatusForbidden)
	})

	t.Run("missing identity", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{Title: "x"}, "")
		w := httptest.NewRecorder()

		handler.CreatePoll(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/polls", nil)
		req.Header.Set("X-User-ID", testutil.AdminID)
		w := httptest.NewRecorder()

		handler.CreatePoll(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
			Title:   "Lunch",
			Options: []string{"Pizza"},
		}, testutil.AdminID)
		w := httptest.NewRecorder()

		handler.CreatePoll(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Field != "options" {
			t.Errorf("Expected field 'options', got '%s'", resp.Field)
		}
	})
}

func TestListPolls(t *testing.T) {
	env := testutil.NewEnv(t, store.NewMemoryStore())
	handler := NewPollHandler(env.Service, env.Roles)

	first := testutil.CreateTestPoll(t, env, 0)
	env.Clock.Advance(1)
	second := testutil.CreateTestPoll(t, env, 0)
	if _, err := env.Service.DeactivatePoll(t.Context(), testutil.Admin(), first.ID); err != nil {
		t.Fatalf("Failed to deactivate: %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls", nil, ""))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.ListPollsResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Polls) != 2 {
			t.Fatalf("Expected 2 polls, got %d", len(resp.Polls))
		}
		if resp.Polls[0].Poll.ID != second.ID {
			t.Errorf("Expected newest poll first")
		}
		if resp.Polls[1].State != models.StateInactive {
			t.Errorf("Expected inactive state, got %s", resp.Polls[1].State)
		}
	})

	t.Run("active filter", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls?active=true", nil, ""))

		var resp models.ListPollsResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Polls) != 1 || resp.Polls[0].Poll.ID != second.ID {
			t.Errorf("Expected only the active poll, got %+v", resp.Polls)
		}
	})

	t.Run("genre filter", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls?genre=Economy", nil, ""))

		var resp models.ListPollsResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Polls) != 0 {
			t.Errorf("Expected no polls, got %d", len(resp.Polls))
		}
	})

	t.Run("bad active value", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls?active=maybe", nil, ""))

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestDeletePoll(t *testing.T) {
	env := testutil.NewEnv(t, store.NewMemoryStore())
	handler := NewPollHandler(env.Service, env.Roles)
	poll := testutil.CreateTestPoll(t, env, 0)

	testCases := []struct {
		name     string
		pollID   string
		userID   string
		expected int
	}{
		{"voter forbidden", poll.ID, "voter-1", http.StatusForbidden},
		{"voter forbidden on missing poll", "missing", "voter-1", http.StatusForbidden},
		{"admin deletes", poll.ID, testutil.AdminID, http.StatusNoContent},
		{"already gone", poll.ID, testutil.AdminID, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("DELETE", "/polls/"+tc.pollID, nil, tc.userID)
			req.SetPathValue("id", tc.pollID)
			w := httptest.NewRecorder()

			handler.DeletePoll(w, req)

			testutil.AssertStatus(t, w, tc.expected)
		})
	}
}

func TestDeactivatePoll(t *testing.T) {
	env := testutil.NewEnv(t, store.NewMemoryStore())
	handler := NewPollHandler(env.Service, env.Roles)
	poll := testutil.CreateTestPoll(t, env, 0)

	for i := 0; i < 2; i++ {
		req := testutil.MakeRequest("POST", "/polls/"+poll.ID+"/deactivate", nil, testutil.CreatorID)
		req.SetPathValue("id", poll.ID)
		w := httptest.NewRecorder()

		handler.DeactivatePoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var got models.Poll
		testutil.AssertJSON(t, w, &got)
		if got.IsActive {
			t.Errorf("Call %d: expected poll to be inactive", i+1)
		}
	}
}
