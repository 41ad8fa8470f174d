// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth resolves caller roles and generates identifiers.

Authentication happens upstream; by the time a request reaches the API the
caller's user id is already known. This package only decides what that
user may do.

# Roles

	RoleAdmin   = "admin"    manage polls, reconcile tallies
	RoleCreator = "creator"  manage polls
	RoleVoter   = "voter"    vote (default)

# Role Resolution

A RoleResolver is injected wherever a role is needed:

	roles := auth.NewStaticRoles(cfg.AdminIDs, cfg.CreatorIDs)
	role, err := roles.ResolveRole(ctx, userID)

Users missing from the table resolve to RoleVoter. An empty user id fails
with ErrMissingIdentity.

# Identifiers

	auth.NewPollID()     // UUID for polls
	auth.GenerateID(6)   // short random hex, used for option ids
*/
package auth
