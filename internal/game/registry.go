package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("example.com/nightfall/internal/game")

const (
	snapshotSaveTimeout = 5 * time.Second
	maxCodeAttempts     = 32
)

// Registry owns the live sessions of the process: it creates them, hands
// them out by code and disposes of them. Every session update goes through
// the registry, which fans it out to the listeners and queues it for
// persistence.
type Registry struct {
	cfg     Config
	store   SessionStore
	persist SnapshotPersistence // nil => snapshots are not kept
	log     *slog.Logger

	listeners []func(Snapshot)

	// pending holds the newest unsaved snapshot per code; wake has room for
	// one signal.
	pendingMu sync.Mutex
	pending   map[string]Snapshot
	wake      chan struct{}
}

func NewRegistry(cfg Config, store SessionStore, persist SnapshotPersistence, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		cfg:     cfg,
		store:   store,
		persist: persist,
		log:     log,
		pending: make(map[string]Snapshot),
		wake:    make(chan struct{}, 1),
	}
}

// OnUpdate registers fn to receive every snapshot. Listeners run under the
// session lock and must not call back into the session. Register them
// before the first session is created.
func (r *Registry) OnUpdate(fn func(Snapshot)) {
	r.listeners = append(r.listeners, fn)
}

// Create opens a new lobby hosted by hostID.
func (r *Registry) Create(ctx context.Context, hostID string) (*Session, error) {
	_, span := tracer.Start(ctx, "registry.Create")
	defer span.End()

	for range maxCodeAttempts {
		code := randCode()
		s := NewSession(code, hostID, r.cfg)
		s.log = r.log.With("code", code)
		s.onUpdate = r.handleUpdate

		if r.store.Add(code, s) {
			span.SetAttributes(attribute.String("session.code", code))
			r.log.Info("session created", "code", code, "host", hostID)
			return s, nil
		}
	}
	err := errors.New("registry: no free session code")
	span.RecordError(err)
	return nil, err
}

func (r *Registry) Get(code string) (*Session, error) {
	s, ok := r.store.Get(NormalizeCode(code))
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	return len(r.store.All())
}

// Dispose removes the session and stops its ticker. Its last snapshot stays
// in persistence.
func (r *Registry) Dispose(code string) bool {
	s, ok := r.store.Delete(NormalizeCode(code))
	if !ok {
		return false
	}
	s.Close()
	r.log.Info("session disposed", "code", s.Code())
	return true
}

// Summary returns the full state of a finished game, from memory or from
// persistence.
func (r *Registry) Summary(ctx context.Context, code string) (Snapshot, error) {
	code = NormalizeCode(code)

	var snap Snapshot
	if s, ok := r.store.Get(code); ok {
		snap = s.Snapshot()
	} else {
		if r.persist == nil {
			return Snapshot{}, ErrSessionNotFound
		}
		loaded, found, err := r.persist.Load(ctx, code)
		if err != nil {
			return Snapshot{}, fmt.Errorf("load snapshot %s: %w", code, err)
		}
		if !found {
			return Snapshot{}, ErrSessionNotFound
		}
		snap = loaded
	}

	if snap.Phase != PhaseGameOver {
		return Snapshot{}, ErrGameNotFinished
	}
	return snap, nil
}

// Run writes queued snapshots until ctx is done, then stops every session
// and flushes what is left in the queue.
func (r *Registry) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for _, s := range r.store.All() {
				s.Close()
			}
			r.flush()
			return nil
		case <-r.wake:
			r.flush()
		}
	}
}

func (r *Registry) flush() {
	r.pendingMu.Lock()
	batch := r.pending
	r.pending = make(map[string]Snapshot, len(batch))
	r.pendingMu.Unlock()

	for _, snap := range batch {
		r.save(snap)
	}
}

func (r *Registry) save(snap Snapshot) {
	if r.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotSaveTimeout)
	defer cancel()
	if err := r.persist.Save(ctx, snap.Code, snap); err != nil {
		r.log.Warn("snapshot save failed", "code", snap.Code, "err", err)
	}
}

// handleUpdate replaces any unsaved snapshot of the same session, so the
// writer always ends on the latest state.
func (r *Registry) handleUpdate(snap Snapshot) {
	for _, fn := range r.listeners {
		fn(snap)
	}
	if r.persist == nil {
		return
	}

	r.pendingMu.Lock()
	r.pending[snap.Code] = snap
	r.pendingMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}
