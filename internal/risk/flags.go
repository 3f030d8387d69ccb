package risk

import (
	"context"
	"maps"
	"sync"
)

// FlagStore maps session ids to resolved risk flags. A missing key means the flag was never
// resolved; stores never hold pending entries.
type FlagStore interface {
	// Lookup returns the resolved flags among ids. Absent ids are left out of the result.
	Lookup(ctx context.Context, ids []string) (map[string]bool, error)
	// Merge writes all flags in one update.
	Merge(ctx context.Context, flags map[string]bool) error
	// Invalidate discards every resolved flag.
	Invalidate(ctx context.Context) error
}

// MemoryFlags is a FlagStore held in process memory.
type MemoryFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{flags: make(map[string]bool)}
}

func (m *MemoryFlags) Lookup(_ context.Context, ids []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if v, ok := m.flags[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (m *MemoryFlags) Merge(_ context.Context, flags map[string]bool) error {
	if len(flags) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flags == nil {
		m.flags = make(map[string]bool, len(flags))
	}
	maps.Copy(m.flags, flags)
	return nil
}

func (m *MemoryFlags) Invalidate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = make(map[string]bool)
	return nil
}

// Snapshot copies every resolved flag.
func (m *MemoryFlags) Snapshot() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.flags)
}

func (m *MemoryFlags) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flags)
}
