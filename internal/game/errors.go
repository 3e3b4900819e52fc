package game

import "errors"

// Kind groups errors by how a caller should react to them.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// Error is a game rule violation. Code is machine readable and goes to the
// client as is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotEnoughPlayers = &Error{KindValidation, "not_enough_players", "not enough players to start"}
	ErrNameTaken        = &Error{KindValidation, "name_taken", "name already taken"}
	ErrInvalidSettings  = &Error{KindValidation, "invalid_settings", "durations must be between 1 and 3600 seconds"}
	ErrInvalidName      = &Error{KindValidation, "invalid_name", "name is required"}

	ErrNotHost = &Error{KindAuthorization, "not_host", "only the host can do this"}

	ErrSessionNotFound = &Error{KindNotFound, "session_not_found", "session not found"}
	ErrPlayerNotFound  = &Error{KindNotFound, "player_not_found", "player not in session"}

	ErrAlreadyStarted     = &Error{KindState, "already_started", "game already started"}
	ErrWrongPhase         = &Error{KindState, "wrong_phase", "not allowed in the current phase"}
	ErrActionNotAllowed   = &Error{KindState, "action_not_allowed", "your role cannot do that now"}
	ErrPlayerDead         = &Error{KindState, "player_dead", "dead players cannot act"}
	ErrSeerAlreadyChecked = &Error{KindState, "seer_already_checked", "already checked a player tonight"}
	ErrPotionSpent        = &Error{KindState, "potion_spent", "potion already used"}
	ErrBadTarget          = &Error{KindState, "bad_target", "invalid target"}
	ErrGameNotFinished    = &Error{KindState, "game_in_progress", "game is not finished"}
	ErrAlreadyInSession   = &Error{KindState, "already_in_session", "connection already belongs to a session"}
	ErrNotInSession       = &Error{KindState, "not_in_session", "join a session first"}
)

// KindOf reports the kind of err, KindInternal for anything that is not a
// game error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// CodeOf returns the client facing code of err.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "internal"
}
