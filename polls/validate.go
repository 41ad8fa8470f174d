// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/securevote/models"
)

// validate trims req and checks it in a fixed order, returning the first
// violation only: title, description, option count, option text, option
// uniqueness, expiry, genre.
func validate(req models.CreatePollRequest, now time.Time) (models.CreatePollRequest, error) {
	clean := models.CreatePollRequest{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Genre:       strings.TrimSpace(req.Genre),
		ExpiresAt:   req.ExpiresAt,
		Options:     make([]string, len(req.Options)),
	}

	if clean.Title == "" {
		return models.CreatePollRequest{}, models.NewValidationError("title", "is required")
	}
	if utf8.RuneCountInString(clean.Title) > models.MaxTitleLen {
		return models.CreatePollRequest{}, models.NewValidationError("title", "must be at most %d characters", models.MaxTitleLen)
	}
	if utf8.RuneCountInString(clean.Description) > models.MaxDescriptionLen {
		return models.CreatePollRequest{}, models.NewValidationError("description", "must be at most %d characters", models.MaxDescriptionLen)
	}

	if n := len(req.Options); n < models.MinOptions || n > models.MaxOptions {
		return models.CreatePollRequest{}, models.NewValidationError("options", "must have between %d and %d options", models.MinOptions, models.MaxOptions)
	}
	for i, text := range req.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return models.CreatePollRequest{}, models.NewValidationError("options", "option %d is empty", i+1)
		}
		if utf8.RuneCountInString(text) > models.MaxOptionLen {
			return models.CreatePollRequest{}, models.NewValidationError("options", "option %d must be at most %d characters", i+1, models.MaxOptionLen)
		}
		clean.Options[i] = text
	}
	seen := make(map[string]bool, len(clean.Options))
	for _, text := range clean.Options {
		if seen[text] {
			return models.CreatePollRequest{}, models.NewValidationError("options", "options must be unique, %q appears twice", text)
		}
		seen[text] = true
	}

	if clean.ExpiresAt != nil {
		if !clean.ExpiresAt.After(now) {
			return models.CreatePollRequest{}, models.NewValidationError("expires_at", "must be in the future")
		}
		t := clean.ExpiresAt.UTC()
		clean.ExpiresAt = &t
	}

	if clean.Genre == "" {
		clean.Genre = models.DefaultGenre
	}
	if utf8.RuneCountInString(clean.Genre) > models.MaxGenreLen {
		return models.CreatePollRequest{}, models.NewValidationError("genre", "must be at most %d characters", models.MaxGenreLen)
	}

	return clean, nil
}
