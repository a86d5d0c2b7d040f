// Package lock provides per-account mutual exclusion for the ledger.
package lock

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed hands out one mutex per account id. Entries are dropped once no
// goroutine holds or waits on them.
type Keyed struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

// New returns an empty Keyed lock set.
func New() *Keyed {
	return &Keyed{entries: make(map[uuid.UUID]*entry)}
}

// Order returns ids de-duplicated and sorted ascending by their byte value.
func Order(ids ...uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// Lock acquires the locks for ids in ascending order and returns a func that
// releases them in reverse order.
func (k *Keyed) Lock(ids ...uuid.UUID) (unlock func()) {
	ordered := Order(ids...)
	held := make([]*entry, 0, len(ordered))
	for _, id := range ordered {
		e := k.acquire(id)
		e.mu.Lock()
		held = append(held, e)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			k.release(ordered[i])
		}
	}
}

func (k *Keyed) acquire(id uuid.UUID) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[id]
	if !ok {
		e = &entry{}
		k.entries[id] = e
	}
	e.refs++
	return e
}

func (k *Keyed) release(id uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
}

// size reports the number of live entries; used by tests.
func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
