package game

import "strings"

const (
	PayloadSkip         = "SKIP"
	PayloadHeal         = "HEAL"
	PayloadPoisonPrefix = "POISON:"
)

type ActionKind uint8

const (
	ActionTarget ActionKind = iota
	ActionSkip
	ActionHeal
	ActionPoison
)

// Action is a parsed castAction payload.
type Action struct {
	Kind   ActionKind
	Target string // set for ActionTarget and ActionPoison
}

// ParseAction decodes a raw payload: a connection id, SKIP, HEAL or
// POISON:<id>.
func ParseAction(payload string) (Action, error) {
	payload = strings.TrimSpace(payload)
	switch {
	case payload == "":
		return Action{}, ErrBadTarget
	case payload == PayloadSkip:
		return Action{Kind: ActionSkip}, nil
	case payload == PayloadHeal:
		return Action{Kind: ActionHeal}, nil
	case strings.HasPrefix(payload, PayloadPoisonPrefix):
		target := strings.TrimPrefix(payload, PayloadPoisonPrefix)
		if target == "" {
			return Action{}, ErrBadTarget
		}
		return Action{Kind: ActionPoison, Target: target}, nil
	default:
		return Action{Kind: ActionTarget, Target: payload}, nil
	}
}

// applyActionLocked validates and applies a. Nothing changes when it returns
// an error.
func (s *Session) applyActionLocked(actor *Player, a Action) error {
	if !actor.Alive {
		return ErrPlayerDead
	}
	if a.Target != "" {
		if _, ok := s.players[a.Target]; !ok {
			return ErrBadTarget
		}
	}

	// avengers pick their target in any phase, on top of whatever the
	// phase lets them do
	avenge := actor.Role == RoleAvenger && a.Kind == ActionTarget

	var err error
	switch s.phase {
	case PhaseDayVote:
		err = s.castVoteLocked(actor, a)
	case PhaseNight:
		err = s.castNightLocked(actor, a)
	case PhaseLobby, PhaseDayDiscuss, PhaseGameOver:
		err = ErrWrongPhase
	}

	if avenge {
		actor.AvengeTarget = a.Target
		return nil
	}
	return err
}

func (s *Session) castVoteLocked(voter *Player, a Action) error {
	switch a.Kind {
	case ActionSkip:
		s.skips[voter.ID] = struct{}{}
		delete(s.votes, voter.ID)
		return nil
	case ActionTarget:
		s.votes[voter.ID] = a.Target
		delete(s.skips, voter.ID)
		return nil
	case ActionHeal, ActionPoison:
		return ErrBadTarget
	}
	return ErrBadTarget
}

func (s *Session) castNightLocked(actor *Player, a Action) error {
	switch actor.Role {
	case RoleWerewolf:
		if a.Kind != ActionTarget {
			return ErrBadTarget
		}
		s.night.WerewolfTarget = a.Target
		return nil

	case RoleSeer:
		if a.Kind != ActionTarget {
			return ErrBadTarget
		}
		if s.night.SeerCheck != "" {
			return ErrSeerAlreadyChecked
		}
		s.night.SeerCheck = a.Target
		return nil

	case RoleDoctor:
		if a.Kind != ActionTarget {
			return ErrBadTarget
		}
		if prev, ok := s.players[s.night.DoctorTarget]; ok {
			prev.Protected = false
		}
		s.night.DoctorTarget = a.Target
		s.players[a.Target].Protected = true
		return nil

	case RoleWitch:
		switch a.Kind {
		case ActionPoison:
			if !actor.Potions.Poison {
				return ErrPotionSpent
			}
			s.night.WitchPoison = a.Target
			actor.Potions.Poison = false
			return nil
		case ActionHeal:
			if !actor.Potions.Heal {
				return ErrPotionSpent
			}
			s.night.WitchHeal = true
			actor.Potions.Heal = false
			return nil
		case ActionTarget, ActionSkip:
			return ErrBadTarget
		}
		return ErrBadTarget

	case RoleVillager, RoleAvenger, RoleNone, RoleUnknown:
		return ErrActionNotAllowed
	}
	return ErrActionNotAllowed
}
