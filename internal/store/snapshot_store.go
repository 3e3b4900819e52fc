package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/nightfall/internal/game"
)

// SnapshotStore keeps the latest snapshot of each session in Postgres, so
// finished games survive restarts for as long as Prune lets them.
type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Save(ctx context.Context, code string, snap game.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO session_snapshots (code, phase, winner, round, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (code) DO UPDATE
		SET phase = EXCLUDED.phase,
		    winner = EXCLUDED.winner,
		    round = EXCLUDED.round,
		    snapshot = EXCLUDED.snapshot,
		    updated_at = now()
	`, code, snap.Phase.String(), snap.Winner.String(), snap.Round, b)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", code, err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, code string) (game.Snapshot, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
		SELECT snapshot
		FROM session_snapshots
		WHERE code=$1
	`, code).Scan(&raw)

	if errors.Is(err, pgx.ErrNoRows) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, err
	}

	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return game.Snapshot{}, false, fmt.Errorf("unmarshal snapshot %s: %w", code, err)
	}
	return snap, true, nil
}

// Prune deletes snapshots not updated for olderThan and reports how many
// went away.
func (s *SnapshotStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM session_snapshots
		WHERE updated_at < $1
	`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
