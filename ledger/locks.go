// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const lockStripes = 256

// keyLocks serializes work per (poll, voter) key. Keys hash onto a fixed
// set of mutexes, so unrelated keys occasionally share a stripe.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLocks) lock(pollID, voterID string) func() {
	d := xxhash.New()
	d.WriteString(pollID)
	d.WriteString("\x00")
	d.WriteString(voterID)
	mu := &l.stripes[d.Sum64()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
