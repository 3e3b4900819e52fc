package game

import (
	"maps"
	"slices"
	"time"
)

// Snapshot is a detached copy of a session's full state, secrets included.
// It is what the update hook receives and what gets persisted; clients only
// ever see the result of Snapshot.View.
type Snapshot struct {
	Code     string   `json:"code"`
	HostID   string   `json:"hostId"`
	Phase    Phase    `json:"phase"`
	Timer    int      `json:"timer"`
	Settings Settings `json:"settings"`
	Winner   Winner   `json:"winner"`
	Round    int      `json:"round"`

	Players    []Player          `json:"players"` // join order
	Votes      map[string]string `json:"votes"`
	Skips      []string          `json:"skips"`
	Night      NightActions      `json:"night"`
	LastDeaths []string          `json:"lastDeaths"`

	SavedAtMs int64 `json:"savedAtMs"`
}

func (s *Session) snapshotLocked() Snapshot {
	players := make([]Player, 0, len(s.players))
	for _, p := range s.orderedLocked() {
		players = append(players, *p)
	}

	skips := slices.Sorted(maps.Keys(s.skips))

	return Snapshot{
		Code:     s.code,
		HostID:   s.hostID,
		Phase:    s.phase,
		Timer:    s.timer,
		Settings: s.settings,
		Winner:   s.winner,
		Round:    s.round,

		Players:    players,
		Votes:      maps.Clone(s.votes),
		Skips:      skips,
		Night:      s.night,
		LastDeaths: slices.Clone(s.lastDeaths),

		SavedAtMs: time.Now().UnixMilli(),
	}
}

// Player looks up a roster entry by connection id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}
