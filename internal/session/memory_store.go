package session

import (
	"context"
	"sync"
)

type memoryEntry struct {
	mu   sync.Mutex
	sess *Session
	dead bool
}

// MemoryStore keeps sessions in process. Each entry has its own lock so
// requests for different sessions never wait on each other.
type MemoryStore struct {
	opts options

	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{opts: o, entries: make(map[string]*memoryEntry)}
}

// Resolve implements Store.
func (s *MemoryStore) Resolve(ctx context.Context, id string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id != "" {
		if h := s.lookup(id); h != nil {
			return h, nil
		}
	}
	return s.create(), nil
}

func (s *MemoryStore) lookup(id string) *Handle {
	s.mu.RLock()
	e := s.entries[id]
	s.mu.RUnlock()
	if e == nil {
		return nil
	}

	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return nil
	}
	now := s.opts.now()
	if e.sess.expired(now, s.opts.timeout) {
		e.dead = true
		e.mu.Unlock()
		s.remove(id, e)
		return nil
	}
	e.sess.LastActiveAt = now
	return &Handle{Session: e.sess, release: unlockEntry(e)}
}

func (s *MemoryStore) create() *Handle {
	now := s.opts.now()
	e := &memoryEntry{}
	e.mu.Lock()

	s.mu.Lock()
	id := s.opts.newID()
	for s.entries[id] != nil {
		id = s.opts.newID()
	}
	e.sess = newSession(id, now)
	s.entries[id] = e
	s.mu.Unlock()

	return &Handle{Session: e.sess, Created: true, release: unlockEntry(e)}
}

func (s *MemoryStore) remove(id string, e *memoryEntry) {
	s.mu.Lock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
}

func unlockEntry(e *memoryEntry) func(context.Context, *Session) error {
	return func(context.Context, *Session) error {
		e.mu.Unlock()
		return nil
	}
}

// Sweep drops sessions idle for longer than the timeout and returns how many
// were removed. Sessions currently held by a request are skipped.
func (s *MemoryStore) Sweep() int {
	now := s.opts.now()
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.sess.expired(now, s.opts.timeout) {
			e.dead = true
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
