package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolesOf(v View) map[string]Role {
	out := make(map[string]Role, len(v.Players))
	for _, p := range v.Players {
		out[p.ID] = p.Role
	}
	return out
}

func sixPlayerGame(t *testing.T) *Session {
	t.Helper()
	s, _ := newTestSession(t, 6)
	startWithRoles(t, s, map[string]Role{
		"p1": RoleWerewolf, "p2": RoleWerewolf, "p3": RoleSeer,
		"p4": RoleDoctor, "p5": RoleWitch, "p6": RoleVillager,
	})
	return s
}

func TestView_Scenarios(t *testing.T) {
	type scenario struct {
		name string
		run  func(t *testing.T)
	}

	cases := []scenario{
		{
			name: "werewolves see each other and nobody else",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)

				assert.Equal(t, map[string]Role{
					"p1": RoleWerewolf, "p2": RoleWerewolf, "p3": RoleUnknown,
					"p4": RoleUnknown, "p5": RoleUnknown, "p6": RoleUnknown,
				}, rolesOf(s.View("p1")))
			},
		},
		{
			name: "villager side sees only its own role",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)

				for id, own := range map[string]Role{"p3": RoleSeer, "p4": RoleDoctor, "p5": RoleWitch, "p6": RoleVillager} {
					roles := rolesOf(s.View(id))
					for other, r := range roles {
						if other == id {
							assert.Equal(t, own, r)
							continue
						}
						assert.Equal(t, RoleUnknown, r, "%s sees %s", id, other)
					}
				}

				b, err := json.Marshal(s.View("p6"))
				require.NoError(t, err)
				assert.NotContains(t, string(b), "WEREWOLF")
			},
		},
		{
			name: "spectators get public state only",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)
				require.NoError(t, s.CastAction("p1", "p6"))

				v := s.View("")
				assert.Nil(t, v.NightInfo)
				assert.Nil(t, v.Potions)
				for _, r := range rolesOf(v) {
					assert.Equal(t, RoleUnknown, r)
				}
			},
		},
		{
			name: "night info follows the viewer's role",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)
				require.NoError(t, s.CastAction("p1", "p6"))
				require.NoError(t, s.CastAction("p4", "p3"))

				wolf := s.View("p2").NightInfo
				require.NotNil(t, wolf)
				assert.Equal(t, "p6", wolf.WerewolfTarget)
				assert.Empty(t, wolf.DoctorTarget)

				witch := s.View("p5").NightInfo
				require.NotNil(t, witch)
				assert.Equal(t, "p6", witch.VictimID)
				assert.Empty(t, witch.WerewolfTarget)

				doc := s.View("p4").NightInfo
				require.NotNil(t, doc)
				assert.Equal(t, "p3", doc.DoctorTarget)
				assert.Empty(t, doc.VictimID)

				assert.Equal(t, &NightInfo{}, s.View("p6").NightInfo)
				assert.Nil(t, s.View("p3").NightInfo.SeerResult)
			},
		},
		{
			name: "dead players are revealed to everybody",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)
				require.NoError(t, s.CastAction("p1", "p4"))
				endPhase(s)

				v := s.View("p6")
				assert.Nil(t, v.NightInfo)
				assert.Equal(t, []string{"p4"}, v.LastDeaths)

				roles := rolesOf(v)
				assert.Equal(t, RoleDoctor, roles["p4"])
				assert.Equal(t, RoleUnknown, roles["p1"])
			},
		},
		{
			name: "vote counts only while voting",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)
				endPhase(s)

				v := s.View("p6")
				assert.Nil(t, v.SkipVotes)
				for _, p := range v.Players {
					assert.Nil(t, p.Votes)
				}

				endPhase(s)
				require.NoError(t, s.CastAction("p3", "p1"))
				require.NoError(t, s.CastAction("p6", "p1"))
				require.NoError(t, s.CastAction("p5", "SKIP"))

				v = s.View("p6")
				require.NotNil(t, v.SkipVotes)
				assert.Equal(t, 1, *v.SkipVotes)
				for _, p := range v.Players {
					require.NotNil(t, p.Votes)
					if p.ID == "p1" {
						assert.Equal(t, 2, *p.Votes)
					} else {
						assert.Zero(t, *p.Votes)
					}
				}
			},
		},
		{
			name: "game over reveals every role",
			run: func(t *testing.T) {
				s := sixPlayerGame(t)
				s.mu.Lock()
				s.phase = PhaseGameOver
				s.winner = WinnerWerewolves
				s.mu.Unlock()

				v := s.View("p6")
				assert.Equal(t, WinnerWerewolves, v.Winner)
				assert.Equal(t, RoleWerewolf, rolesOf(v)["p1"])
				assert.Equal(t, RoleWitch, rolesOf(v)["p5"])
			},
		},
		{
			name: "lobby view carries readiness and no roles",
			run: func(t *testing.T) {
				s, _ := newTestSession(t, 2)
				require.NoError(t, s.ToggleReady("p2"))

				v := s.View("p1")
				assert.Equal(t, PhaseLobby, v.Phase)
				assert.Equal(t, "p1", v.HostID)
				require.Len(t, v.Players, 2)
				assert.True(t, v.Players[1].Ready)
				assert.Equal(t, RoleNone, v.Players[0].Role)
				assert.Equal(t, RoleUnknown, v.Players[1].Role)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}
