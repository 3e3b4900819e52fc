package game

// View is the per-viewer projection of a session. Roles the viewer may not
// know are RoleUnknown, and night info only carries what the viewer's own
// role is entitled to.
type View struct {
	Code       string       `json:"code"`
	HostID     string       `json:"hostId"`
	You        string       `json:"you"`
	Phase      Phase        `json:"phase"`
	Timer      int          `json:"timer"`
	Settings   Settings     `json:"settings"`
	Winner     Winner       `json:"winner"`
	Round      int          `json:"round"`
	LastDeaths []string     `json:"lastDeaths"`
	NightInfo  *NightInfo   `json:"nightInfo"`
	Players    []PlayerView `json:"players"`
	SkipVotes  *int         `json:"skipVotes,omitempty"`

	// own secrets
	Potions      *Potions `json:"potions,omitempty"`
	AvengeTarget string   `json:"avengeTarget,omitempty"`
}

type PlayerView struct {
	ID         string `json:"id"`
	IdentityID string `json:"identityId,omitempty"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatarUrl"`
	Ready      bool   `json:"isReady"`
	Alive      bool   `json:"isAlive"`
	Role       Role   `json:"role"`
	Votes      *int   `json:"votes,omitempty"`
}

type NightInfo struct {
	VictimID       string      `json:"victimId,omitempty"`
	WerewolfTarget string      `json:"werewolfTarget,omitempty"`
	DoctorTarget   string      `json:"doctorTarget,omitempty"`
	SeerResult     *SeerResult `json:"seerResult,omitempty"`
}

type SeerResult struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// View projects s for viewerID. An id outside the roster gets the
// spectator view: public state only.
func (s Snapshot) View(viewerID string) View {
	viewer, inRoster := s.Player(viewerID)
	if !inRoster {
		viewer = Player{}
	}

	v := View{
		Code:       s.Code,
		HostID:     s.HostID,
		You:        viewerID,
		Phase:      s.Phase,
		Timer:      s.Timer,
		Settings:   s.Settings,
		Winner:     s.Winner,
		Round:      s.Round,
		LastDeaths: s.LastDeaths,
	}

	showVotes := s.Phase == PhaseDayVote || s.Phase == PhaseGameOver
	var counts map[string]int
	if showVotes {
		counts = make(map[string]int, len(s.Votes))
		for _, target := range s.Votes {
			counts[target]++
		}
		skips := len(s.Skips)
		v.SkipVotes = &skips
	}

	v.Players = make([]PlayerView, 0, len(s.Players))
	for _, p := range s.Players {
		pv := PlayerView{
			ID:         p.ID,
			IdentityID: p.IdentityID,
			Name:       p.Name,
			AvatarURL:  p.AvatarURL,
			Ready:      p.Ready,
			Alive:      p.Alive,
			Role:       RoleUnknown,
		}
		if s.roleVisible(viewer, p) {
			pv.Role = p.Role
		}
		if showVotes {
			n := counts[p.ID]
			pv.Votes = &n
		}
		v.Players = append(v.Players, pv)
	}

	if s.Phase == PhaseNight && inRoster {
		v.NightInfo = s.nightInfoFor(viewer)
	}

	switch viewer.Role {
	case RoleWitch:
		pot := viewer.Potions
		v.Potions = &pot
	case RoleAvenger:
		v.AvengeTarget = viewer.AvengeTarget
	case RoleNone, RoleVillager, RoleWerewolf, RoleSeer, RoleDoctor, RoleUnknown:
	}

	return v
}

func (s Snapshot) roleVisible(viewer, p Player) bool {
	switch {
	case viewer.ID != "" && p.ID == viewer.ID:
		return true
	case s.Phase == PhaseGameOver:
		return true
	case !p.Alive:
		return true
	case viewer.Role == RoleWerewolf && viewer.Alive && p.Role == RoleWerewolf:
		return true
	}
	return false
}

func (s Snapshot) nightInfoFor(viewer Player) *NightInfo {
	info := &NightInfo{}
	switch viewer.Role {
	case RoleWitch:
		info.VictimID = s.Night.WerewolfTarget
	case RoleWerewolf:
		info.WerewolfTarget = s.Night.WerewolfTarget
	case RoleDoctor:
		info.DoctorTarget = s.Night.DoctorTarget
	case RoleSeer:
		if s.Night.SeerCheck != "" {
			if checked, ok := s.Player(s.Night.SeerCheck); ok {
				info.SeerResult = &SeerResult{ID: checked.ID, Role: checked.Role}
			}
		}
	case RoleNone, RoleVillager, RoleAvenger, RoleUnknown:
	}
	return info
}
