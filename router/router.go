// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/handlers"
	"github.com/danielhkuo/securevote/middleware"
	"github.com/danielhkuo/securevote/voting"
)

func NewRouter(svc *voting.Service, roles auth.RoleResolver) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(svc, roles)
	votingHandler := handlers.NewVotingHandler(svc, roles)
	resultsHandler := handlers.NewResultsHandler(svc, roles)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll catalog
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))
	mux.HandleFunc("POST /polls/{id}/deactivate", middleware.WithLogging(pollHandler.DeactivatePoll))

	// Voting
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /polls/{id}/votes/me", middleware.WithLogging(votingHandler.GetMyVote))

	// Results
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(resultsHandler.GetPoll))
	mux.HandleFunc("POST /polls/{id}/reconcile", middleware.WithLogging(resultsHandler.Reconcile))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("securevote API v1"))
	})

	return mux
}
