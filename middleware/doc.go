// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs completion with method, path, status and duration_ms. Request start is
logged at debug level with the client IP.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, DELETE, OPTIONS with headers
Content-Type, Authorization, X-User-ID.

# Caller Identity

The upstream gateway authenticates the user and forwards the id in
X-User-ID. Identity resolves the role through the injected resolver:

	who, err := middleware.Identity(r, roles)

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, err)

WriteError maps domain errors to status codes:

	ValidationError    400  (field and message in the body)
	ErrForbidden       403
	ErrNotFound        404
	ErrPollClosed      409
	ErrInvalidOption   422
	ErrVoteContention  503
	anything else      500  (logged, message hidden)

# Client IP Extraction

	ip := middleware.GetClientIP(r)
*/
package middleware
