// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/middleware"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/voting"
)

type VotingHandler struct {
	svc   *voting.Service
	roles auth.RoleResolver
}

func NewVotingHandler(svc *voting.Service, roles auth.RoleResolver) *VotingHandler {
	return &VotingHandler{svc: svc, roles: roles}
}

// CastVote handles POST /polls/{id}/votes
// A first vote returns 201; a change or a repeat of the same choice returns 200.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r, h.roles)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.svc.CastVote(r.Context(), who, r.PathValue("id"), req.OptionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == models.OutcomeCreated {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, result)
}

// GetMyVote handles GET /polls/{id}/votes/me
func (h *VotingHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r, h.roles)
	if !ok {
		return
	}

	vote, found, err := h.svc.MyVote(r.Context(), who, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !found {
		middleware.ErrorResponse(w, http.StatusNotFound, "No vote recorded")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, vote)
}
