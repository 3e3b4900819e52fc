package game

// checkWinner counts the living. No werewolves left: villagers win. As many
// werewolves as everybody else: werewolves win.
func checkWinner(roster map[string]*Player) Winner {
	wolves, others := 0, 0
	for _, p := range roster {
		if !p.Alive {
			continue
		}
		switch p.Role {
		case RoleWerewolf:
			wolves++
		case RoleNone, RoleVillager, RoleSeer, RoleDoctor, RoleWitch, RoleAvenger, RoleUnknown:
			others++
		}
	}

	switch {
	case wolves == 0:
		return WinnerVillagers
	case wolves >= others:
		return WinnerWerewolves
	default:
		return WinnerNone
	}
}
