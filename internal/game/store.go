package game

import (
	"context"
	"sync"
)

// SessionStore holds the live sessions of this process.
type SessionStore interface {
	// Add stores s under code unless the code is taken.
	Add(code string, s *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string) (*Session, bool)
	All() []*Session
}

// SnapshotPersistence keeps snapshots outside the process so finished games
// can still be summarized after their session is gone.
type SnapshotPersistence interface {
	Save(ctx context.Context, code string, snap Snapshot) error
	Load(ctx context.Context, code string) (Snapshot, bool, error)
}

type InMemorySessionStore struct {
	mu sync.Mutex
	m  map[string]*Session
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		m: make(map[string]*Session),
	}
}

func (st *InMemorySessionStore) Add(code string, s *Session) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.m[code]; ok {
		return false
	}
	st.m[code] = s
	return true
}

func (st *InMemorySessionStore) Get(code string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.m[code]
	return s, ok
}

func (st *InMemorySessionStore) Delete(code string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.m[code]
	delete(st.m, code)
	return s, ok
}

func (st *InMemorySessionStore) All() []*Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*Session, 0, len(st.m))
	for _, s := range st.m {
		out = append(out, s)
	}
	return out
}
