// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package polls manages the poll catalog: validated creation, listing,
// deactivation and deletion with its vote cascade.
package polls
