package game

import "encoding/json"

// Envelope WS envelope: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// inbound
const (
	MsgCreateSession  = "create_session"
	MsgJoinSession    = "join_session"
	MsgToggleReady    = "toggle_ready"
	MsgStartGame      = "start_game"
	MsgCastAction     = "cast_action"
	MsgUpdateSettings = "update_settings"
	MsgLeaveSession   = "leave_session"
)

// outbound
const (
	MsgHello         = "hello"
	MsgSessionJoined = "session_joined"
	MsgState         = "state"
	MsgError         = "error"
)

type CreateSessionPayload struct {
	Name       string `json:"name"`
	AvatarURL  string `json:"avatarUrl"`
	IdentityID string `json:"identityId,omitempty"`
}

type JoinSessionPayload struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatarUrl"`
	IdentityID string `json:"identityId,omitempty"`
}

func (p JoinSessionPayload) profile() Profile {
	return Profile{IdentityID: p.IdentityID, Name: p.Name, AvatarURL: p.AvatarURL}
}

// CastActionPayload.Target is a connection id, SKIP, HEAL or POISON:<id>.
type CastActionPayload struct {
	Target string `json:"target"`
}

type HelloPayload struct {
	ConnectionID string `json:"connectionId"`
}

type SessionJoinedPayload struct {
	Code string `json:"code"`
	You  string `json:"you"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func encodeEnvelope(typ string, payload any) []byte {
	b, _ := json.Marshal(Envelope{Type: typ, Payload: mustJSON(payload)})
	return b
}
