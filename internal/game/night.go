package game

// NightActions buffers what the night roles submitted. Empty ids mean "no
// action".
type NightActions struct {
	WerewolfTarget string `json:"werewolfTarget,omitempty"`
	DoctorTarget   string `json:"doctorTarget,omitempty"`
	SeerCheck      string `json:"seerCheck,omitempty"`
	WitchHeal      bool   `json:"witchHeal,omitempty"`
	WitchPoison    string `json:"witchPoison,omitempty"`
}

// resolveNight applies the night in fixed order: werewolf attack, then
// poison. Returns the ids that died, in order of death.
func resolveNight(roster map[string]*Player, na NightActions) []string {
	var deaths []string

	if na.WerewolfTarget != "" {
		// heal only ever covers the werewolves' victim
		saved := na.WerewolfTarget == na.DoctorTarget || na.WitchHeal
		if !saved {
			deaths = append(deaths, kill(roster, na.WerewolfTarget)...)
		}
	}

	// poison ignores the doctor
	if na.WitchPoison != "" {
		deaths = append(deaths, kill(roster, na.WitchPoison)...)
	}

	return deaths
}

// kill marks id dead. An avenger taking a target down with them is a single
// hop: the avenged player dies without triggering their own avenge target.
func kill(roster map[string]*Player, id string) []string {
	victim, ok := roster[id]
	if !ok || !victim.Alive {
		return nil
	}
	victim.Alive = false
	deaths := []string{victim.ID}

	if victim.Role == RoleAvenger && victim.AvengeTarget != "" {
		if t, ok := roster[victim.AvengeTarget]; ok && t.Alive {
			t.Alive = false
			deaths = append(deaths, t.ID)
		}
	}
	return deaths
}
