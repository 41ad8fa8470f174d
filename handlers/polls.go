// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/middleware"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/voting"
)

type PollHandler struct {
	svc   *voting.Service
	roles auth.RoleResolver
}

func NewPollHandler(svc *voting.Service, roles auth.RoleResolver) *PollHandler {
	return &PollHandler{svc: svc, roles: roles}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r, h.roles)
	if !ok {
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.CreatePoll(r.Context(), who, req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// ListPolls handles GET /polls?genre=&active=
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	filter := models.PollFilter{Genre: r.URL.Query().Get("genre")}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.IsActive = &active
	}

	summaries, err := h.svc.ListPolls(r.Context(), filter)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListPollsResponse{Polls: summaries})
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r, h.roles)
	if !ok {
		return
	}

	if err := h.svc.DeletePoll(r.Context(), who, r.PathValue("id")); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeactivatePoll handles POST /polls/{id}/deactivate
func (h *PollHandler) DeactivatePoll(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r, h.roles)
	if !ok {
		return
	}

	poll, err := h.svc.DeactivatePoll(r.Context(), who, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// requireIdentity writes a 401 and returns false when the caller is not
// identified.
func requireIdentity(w http.ResponseWriter, r *http.Request, roles auth.RoleResolver) (auth.Identity, bool) {
	who, err := middleware.Identity(r, roles)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Missing or invalid "+middleware.UserIDHeader)
		return auth.Identity{}, false
	}
	return who, true
}
