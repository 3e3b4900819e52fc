package game

// Profile is what a client supplies when joining.
type Profile struct {
	IdentityID string
	Name       string
	AvatarURL  string
}

type Potions struct {
	Heal   bool `json:"heal"`
	Poison bool `json:"poison"`
}

// Player is one roster entry. ID is the volatile connection id that keys the
// roster; IdentityID is opaque and only passed through.
type Player struct {
	ID         string `json:"id"`
	IdentityID string `json:"identityId"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatarUrl"`

	Role      Role `json:"role"`
	Alive     bool `json:"alive"`
	Ready     bool `json:"ready"`
	Protected bool `json:"protected"`

	Potions      Potions `json:"potions"`
	AvengeTarget string  `json:"avengeTarget,omitempty"`

	JoinSeq int `json:"joinSeq"`
}

func newPlayer(connID string, p Profile, seq int) *Player {
	return &Player{
		ID:         connID,
		IdentityID: p.IdentityID,
		Name:       p.Name,
		AvatarURL:  p.AvatarURL,
		Alive:      true,
		Potions:    Potions{Heal: true, Poison: true},
		JoinSeq:    seq,
	}
}

// setRole resets per-role state; witches get fresh potions.
func (p *Player) setRole(r Role) {
	p.Role = r
	if r == RoleWitch {
		p.Potions = Potions{Heal: true, Poison: true}
	}
	p.AvengeTarget = ""
	p.Protected = false
}
