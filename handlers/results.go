// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/middleware"
	"github.com/danielhkuo/securevote/models"
	"github.com/danielhkuo/securevote/voting"
)

type ResultsHandler struct {
	svc   *voting.Service
	roles auth.RoleResolver
}

func NewResultsHandler(svc *voting.Service, roles auth.RoleResolver) *ResultsHandler {
	return &ResultsHandler{svc: svc, roles: roles}
}

// GetPoll handles GET /polls/{id}
// Anonymous callers get the poll without eligibility; results appear once
// the caller has voted or the poll is closed.
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	voterID := strings.TrimSpace(r.Header.Get(middleware.UserIDHeader))

	detail, err := h.svc.GetPollDetail(r.Context(), r.PathValue("id"), voterID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// Reconcile handles POST /polls/{id}/reconcile
func (h *ResultsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r, h.roles)
	if !ok {
		return
	}

	report, err := h.svc.Reconcile(r.Context(), who, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("reconcile requested",
		"poll_id", report.PollID,
		"user_id", who.UserID,
		"corrected", report.Corrected(),
	)
	middleware.JSONResponse(w, http.StatusOK, models.ReconcileResponse{Report: report})
}
