package game

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// Settings are the phase durations in seconds.
type Settings struct {
	NightSeconds   int `json:"nightDuration"`
	DiscussSeconds int `json:"dayDiscussDuration"`
	VoteSeconds    int `json:"dayVoteDuration"`
}

// SettingsPatch is a partial settings update; nil fields are kept.
type SettingsPatch struct {
	NightSeconds   *int `json:"nightDuration,omitempty"`
	DiscussSeconds *int `json:"dayDiscussDuration,omitempty"`
	VoteSeconds    *int `json:"dayVoteDuration,omitempty"`
}

const maxPhaseSeconds = 3600

func (p SettingsPatch) validate() error {
	for _, v := range []*int{p.NightSeconds, p.DiscussSeconds, p.VoteSeconds} {
		if v != nil && (*v < 1 || *v > maxPhaseSeconds) {
			return ErrInvalidSettings
		}
	}
	return nil
}

func (st Settings) apply(p SettingsPatch) Settings {
	if p.NightSeconds != nil {
		st.NightSeconds = *p.NightSeconds
	}
	if p.DiscussSeconds != nil {
		st.DiscussSeconds = *p.DiscussSeconds
	}
	if p.VoteSeconds != nil {
		st.VoteSeconds = *p.VoteSeconds
	}
	return st
}

func (st Settings) duration(p Phase) int {
	switch p {
	case PhaseNight:
		return st.NightSeconds
	case PhaseDayDiscuss:
		return st.DiscussSeconds
	case PhaseDayVote:
		return st.VoteSeconds
	case PhaseLobby, PhaseGameOver:
		return 0
	}
	return 0
}

type Config struct {
	Settings     Settings      // defaults for new sessions
	MinPlayers   int           // roster size needed to start
	TickInterval time.Duration // one timer unit; 0 => no automatic ticking
}

func DefaultConfig() Config {
	return Config{
		Settings: Settings{
			NightSeconds:   45,
			DiscussSeconds: 60,
			VoteSeconds:    30,
		},
		MinPlayers:   1,
		TickInterval: time.Second,
	}
}

// Session is one game. Every exported method is a mutator or reader that
// holds mu for its whole run, so the ticker and client intents never
// interleave.
type Session struct {
	code string
	mu   sync.Mutex

	hostID   string
	phase    Phase
	timer    int
	settings Settings
	cfg      Config
	winner   Winner
	round    int

	players map[string]*Player
	nextSeq int

	votes      map[string]string
	skips      map[string]struct{}
	night      NightActions
	lastDeaths []string

	rng        *rand.Rand
	log        *slog.Logger
	onUpdate   func(Snapshot)
	stopTicker context.CancelFunc
	closed     bool
}

func NewSession(code, hostID string, cfg Config) *Session {
	return &Session{
		code:     code,
		hostID:   hostID,
		phase:    PhaseLobby,
		settings: cfg.Settings,
		cfg:      cfg,
		players:  make(map[string]*Player),
		votes:    make(map[string]string),
		skips:    make(map[string]struct{}),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:      slog.New(slog.DiscardHandler),
	}
}

func (s *Session) Code() string { return s.code }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Join adds a player while the session is in the lobby. Joining again with
// the same connection id updates the profile.
func (s *Session) Join(connID string, p Profile) (Player, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Player{}, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return Player{}, ErrAlreadyStarted
	}
	for id, other := range s.players {
		if id != connID && other.Name == p.Name {
			return Player{}, ErrNameTaken
		}
	}

	pl, ok := s.players[connID]
	if ok {
		pl.Name = p.Name
		pl.AvatarURL = p.AvatarURL
		if p.IdentityID != "" {
			pl.IdentityID = p.IdentityID
		}
	} else {
		s.nextSeq++
		pl = newPlayer(connID, p, s.nextSeq)
		s.players[connID] = pl
	}

	s.notifyLocked()
	return *pl, nil
}

// Leave drops connID from the lobby. Outside the lobby the roster is frozen
// and Leave does nothing. Reports whether the lobby is now empty.
func (s *Session) Leave(connID string) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return false
	}
	if _, ok := s.players[connID]; !ok {
		return len(s.players) == 0
	}
	delete(s.players, connID)

	if connID == s.hostID {
		if next := s.orderedLocked(); len(next) > 0 {
			s.hostID = next[0].ID
			s.log.Info("host handed over", "host", s.hostID)
		}
	}

	s.notifyLocked()
	return len(s.players) == 0
}

func (s *Session) ToggleReady(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return ErrWrongPhase
	}
	p, ok := s.players[connID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Ready = !p.Ready

	s.notifyLocked()
	return nil
}

// Start deals roles and moves to the first night.
func (s *Session) Start(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if callerID != s.hostID {
		return ErrNotHost
	}
	if s.phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	if len(s.players) < max(s.cfg.MinPlayers, 1) {
		return ErrNotEnoughPlayers
	}

	assignRoles(s.orderedLocked(), s.rng)
	s.enterPhaseLocked(PhaseNight)
	s.startTickerLocked()
	s.log.Info("game started", "players", len(s.players))

	s.notifyLocked()
	return nil
}

// CastAction applies a vote or night action for actorID. See ParseAction for
// the payload format.
func (s *Session) CastAction(actorID, payload string) error {
	a, err := ParseAction(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actor, ok := s.players[actorID]
	if !ok {
		return ErrPlayerNotFound
	}
	if err := s.applyActionLocked(actor, a); err != nil {
		s.log.Debug("action rejected", "actor", actorID, "phase", s.phase, "err", err)
		return err
	}

	s.notifyLocked()
	return nil
}

// UpdateSettings merges patch into the settings. The running phase keeps its
// timer; new values apply from the next phase.
func (s *Session) UpdateSettings(callerID string, patch SettingsPatch) error {
	if err := patch.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if callerID != s.hostID {
		return ErrNotHost
	}
	s.settings = s.settings.apply(patch)

	s.notifyLocked()
	return nil
}

// Tick advances the timer by one unit. It is driven by the session ticker
// but may be called directly when TickInterval is 0.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase == PhaseLobby || s.phase == PhaseGameOver {
		return
	}

	s.timer--
	if s.timer <= 0 {
		s.advanceLocked()
	}
	s.notifyLocked()
}

// Close stops the ticker. The session keeps its state but will not advance
// on its own any more.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTickerLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// View is the state as viewerID is allowed to see it.
func (s *Session) View(viewerID string) View {
	return s.Snapshot().View(viewerID)
}

func (s *Session) advanceLocked() {
	switch s.phase {
	case PhaseNight:
		deaths := resolveNight(s.players, s.night)
		s.night = NightActions{}
		s.recordDeathsLocked(deaths)
		if s.finishIfDecidedLocked() {
			return
		}
		s.enterPhaseLocked(PhaseDayDiscuss)

	case PhaseDayDiscuss:
		s.enterPhaseLocked(PhaseDayVote)

	case PhaseDayVote:
		deaths := resolveVote(s.players, s.votes, s.skips)
		s.recordDeathsLocked(deaths)
		if s.finishIfDecidedLocked() {
			return
		}
		s.enterPhaseLocked(PhaseNight)

	case PhaseLobby, PhaseGameOver:
	}
}

func (s *Session) recordDeathsLocked(deaths []string) {
	s.lastDeaths = deaths
	if len(deaths) > 0 {
		s.log.Info("players died", "phase", s.phase, "round", s.round, "dead", deaths)
	}
}

// finishIfDecidedLocked ends the game when a side has won. Votes are kept so
// the final tally stays visible.
func (s *Session) finishIfDecidedLocked() bool {
	w := checkWinner(s.players)
	if w == WinnerNone {
		return false
	}
	s.winner = w
	s.phase = PhaseGameOver
	s.timer = 0
	s.night = NightActions{}
	s.stopTickerLocked()
	s.log.Info("game over", "winner", w, "round", s.round)
	return true
}

func (s *Session) enterPhaseLocked(p Phase) {
	s.phase = p
	clear(s.votes)
	clear(s.skips)
	s.night = NightActions{}

	if p == PhaseNight {
		s.round++
		for _, pl := range s.players {
			pl.Protected = false
		}
	}
	s.timer = s.settings.duration(p)
	s.log.Debug("phase changed", "phase", p, "round", s.round, "timer", s.timer)
}

func (s *Session) startTickerLocked() {
	if s.cfg.TickInterval <= 0 || s.closed {
		return
	}
	s.stopTickerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.stopTicker = cancel
	go s.runTicker(ctx, s.cfg.TickInterval)
}

func (s *Session) stopTickerLocked() {
	if s.stopTicker != nil {
		s.stopTicker()
		s.stopTicker = nil
	}
}

func (s *Session) runTicker(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// orderedLocked returns the roster in join order.
func (s *Session) orderedLocked() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return a.JoinSeq - b.JoinSeq })
	return out
}

func (s *Session) notifyLocked() {
	if s.onUpdate == nil {
		return
	}
	s.onUpdate(s.snapshotLocked())
}
