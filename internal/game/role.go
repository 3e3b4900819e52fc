package game

import "fmt"

// Role is a hidden identity handed out at game start.
type Role uint8

const (
	RoleNone Role = iota // not assigned yet (lobby)
	RoleVillager
	RoleWerewolf
	RoleSeer
	RoleDoctor
	RoleWitch
	RoleAvenger

	// RoleUnknown is what a viewer sees in place of a role it may not know.
	RoleUnknown
)

// Roles lists every assignable role.
var Roles = []Role{RoleVillager, RoleWerewolf, RoleSeer, RoleDoctor, RoleWitch, RoleAvenger}

func (r Role) String() string {
	switch r {
	case RoleNone:
		return ""
	case RoleVillager:
		return "VILLAGER"
	case RoleWerewolf:
		return "WEREWOLF"
	case RoleSeer:
		return "SEER"
	case RoleDoctor:
		return "DOCTOR"
	case RoleWitch:
		return "WITCH"
	case RoleAvenger:
		return "AVENGER"
	case RoleUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "":
		*r = RoleNone
	case "VILLAGER":
		*r = RoleVillager
	case "WEREWOLF":
		*r = RoleWerewolf
	case "SEER":
		*r = RoleSeer
	case "DOCTOR":
		*r = RoleDoctor
	case "WITCH":
		*r = RoleWitch
	case "AVENGER":
		*r = RoleAvenger
	case "UNKNOWN":
		*r = RoleUnknown
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

// Phase is a state of the session state machine.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseNight
	PhaseDayDiscuss
	PhaseDayVote
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "LOBBY"
	case PhaseNight:
		return "NIGHT"
	case PhaseDayDiscuss:
		return "DAY_DISCUSS"
	case PhaseDayVote:
		return "DAY_VOTE"
	case PhaseGameOver:
		return "GAME_OVER"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "LOBBY":
		*p = PhaseLobby
	case "NIGHT":
		*p = PhaseNight
	case "DAY_DISCUSS":
		*p = PhaseDayDiscuss
	case "DAY_VOTE":
		*p = PhaseDayVote
	case "GAME_OVER":
		*p = PhaseGameOver
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// Winner is the side that won; WinnerNone while the game runs.
type Winner uint8

const (
	WinnerNone Winner = iota
	WinnerVillagers
	WinnerWerewolves
)

func (w Winner) String() string {
	switch w {
	case WinnerNone:
		return ""
	case WinnerVillagers:
		return "VILLAGERS"
	case WinnerWerewolves:
		return "WEREWOLVES"
	}
	return fmt.Sprintf("Winner(%d)", uint8(w))
}

func (w Winner) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Winner) UnmarshalText(b []byte) error {
	switch string(b) {
	case "":
		*w = WinnerNone
	case "VILLAGERS":
		*w = WinnerVillagers
	case "WEREWOLVES":
		*w = WinnerWerewolves
	default:
		return fmt.Errorf("unknown winner %q", b)
	}
	return nil
}
