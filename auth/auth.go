// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
	RoleVoter   Role = "voter"
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrMissingIdentity = errors.New("missing user identity")
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCreator:
		return RoleCreator, nil
	case RoleVoter:
		return RoleVoter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// CanManagePolls reports whether the role may create, deactivate and
// delete polls.
func (r Role) CanManagePolls() bool {
	return r == RoleAdmin || r == RoleCreator
}

// IsAdmin reports whether the role may run maintenance operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Identity is an authenticated caller with its resolved role.
type Identity struct {
	UserID string
	Role   Role
}

// RoleResolver maps an authenticated user id to its role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (Role, error)
}

// StaticRoles resolves roles from an in-process table. Unknown users are
// voters.
type StaticRoles struct {
	mu    sync.RWMutex
	roles map[string]Role
}

func NewStaticRoles(admins, creators []string) *StaticRoles {
	s := &StaticRoles{roles: make(map[string]Role)}
	for _, id := range creators {
		s.roles[id] = RoleCreator
	}
	for _, id := range admins {
		s.roles[id] = RoleAdmin
	}
	return s
}

// Set assigns a role to a user.
func (s *StaticRoles) Set(userID string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = role
}

func (s *StaticRoles) ResolveRole(_ context.Context, userID string) (Role, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrMissingIdentity
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role, ok := s.roles[userID]; ok {
		return role, nil
	}
	return RoleVoter, nil
}

// NewPollID returns a random UUID for a new poll.
func NewPollID() string {
	return uuid.NewString()
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}
