package game

import (
	"math/rand/v2"
	"slices"
)

// RolePool returns the roles dealt for a roster of n players, unshuffled.
func RolePool(n int) []Role {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		// lets a single developer walk through the phases
		return []Role{RoleWerewolf}
	}

	roles := []Role{RoleSeer, RoleDoctor}
	if n >= 4 {
		roles = append(roles, RoleWerewolf)
	}
	if n >= 5 {
		roles = append(roles, RoleWitch)
	}
	if n >= 6 {
		roles = append(roles, RoleWerewolf)
	}
	if n >= 7 {
		roles = append(roles, RoleAvenger)
	}
	if n >= 8 {
		roles = append(roles, RoleVillager)
	}
	for len(roles) < n {
		roles = append(roles, RoleVillager)
	}
	// n=2 keeps SEER+DOCTOR; 3 needs an antagonist.
	if n > 2 && !slices.Contains(roles, RoleWerewolf) {
		roles[len(roles)-1] = RoleWerewolf
	}
	return roles
}

// assignRoles deals RolePool(len(players)) to players. Both the players and
// the pool are shuffled.
func assignRoles(players []*Player, rng *rand.Rand) {
	order := append([]*Player(nil), players...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	roles := RolePool(len(order))
	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	for i, p := range order {
		p.setRole(roles[i])
	}
}
