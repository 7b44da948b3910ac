package staging

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a MemoryStore created with maxEntries <= 0.
const DefaultMaxEntries = 10000

type entry struct {
	id        string
	payload   []byte
	expiresAt time.Time // zero means no expiry
	elem      *list.Element
}

// MemoryStore is an in-process Store with per-entry TTL and a size bound.
// When full, the oldest entry is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      *list.List // oldest at front
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore creates a MemoryStore. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]*entry),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, id string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[id]; ok {
		m.removeLocked(old)
	}
	for len(m.entries) >= m.maxEntries {
		m.removeLocked(m.order.Front().Value.(*entry))
	}

	e := &entry{id: id, payload: append([]byte(nil), payload...)}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	e.elem = m.order.PushBack(e)
	m.entries[id] = e
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expiredLocked(e) {
		m.removeLocked(e)
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.payload...), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	expired := m.expiredLocked(e)
	m.removeLocked(e)
	return !expired, nil
}

// Sweep removes expired entries and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, e := range m.entries {
		if m.expiredLocked(e) {
			m.removeLocked(e)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) expiredLocked(e *entry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *MemoryStore) removeLocked(e *entry) {
	m.order.Remove(e.elem)
	delete(m.entries, e.id)
}
