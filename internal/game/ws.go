package game

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	sendBuffer   = 64
	pingInterval = 25 * time.Second
	maxFrameSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var (
	errBadJSON     = &Error{KindValidation, "bad_json", "invalid json"}
	errBadPayload  = &Error{KindValidation, "bad_input", "invalid payload"}
	errUnknownType = &Error{KindValidation, "unknown_type", "unknown message type"}
)

// ClientConn is one socket. Its id doubles as the player id in whatever
// session it joins.
type ClientConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	session string // guarded by Server.mu

	closeOnce sync.Once
}

func newClientConn(id string, ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		id:   id,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// trySend queues msg without blocking. A slow client loses messages; the
// next state push carries the full picture again.
func (c *ClientConn) trySend(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *ClientConn) sendEnvelope(typ string, payload any) {
	c.trySend(encodeEnvelope(typ, payload))
}

func (c *ClientConn) sendError(err error) {
	msg := err.Error()
	if KindOf(err) == KindInternal {
		msg = "internal error"
	}
	c.sendEnvelope(MsgError, ErrorPayload{Code: CodeOf(err), Message: msg})
}

func (c *ClientConn) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// handleWS: GET /ws. No handshake parameters; the server assigns the
// connection id and sends it in the hello message.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ws.SetReadLimit(maxFrameSize)

	c := newClientConn(uuid.NewString(), ws)
	s.attach(c)
	log := s.log.With("conn", c.id)
	log.Debug("ws connected", "remote", r.RemoteAddr)

	go c.writeLoop()
	c.sendEnvelope(MsgHello, HelloPayload{ConnectionID: c.id})

	ctx := r.Context()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError(errBadJSON)
			continue
		}
		if err := s.dispatch(ctx, c, env); err != nil {
			if KindOf(err) == KindInternal {
				log.Error("ws message failed", "type", env.Type, "err", err)
			}
			c.sendError(err)
		}
	}

	s.detach(c)
	c.Close()
	log.Debug("ws disconnected")
}

func (s *Server) dispatch(ctx context.Context, c *ClientConn, env Envelope) error {
	ctx, span := tracer.Start(ctx, "ws."+env.Type, trace.WithAttributes(
		attribute.String("ws.type", env.Type),
		attribute.String("conn.id", c.id),
	))
	defer span.End()

	err := s.handle(ctx, c, env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, CodeOf(err))
	}
	return err
}

func (s *Server) handle(ctx context.Context, c *ClientConn, env Envelope) error {
	switch env.Type {
	case MsgCreateSession:
		var p CreateSessionPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		return s.createSession(ctx, c, Profile{IdentityID: p.IdentityID, Name: p.Name, AvatarURL: p.AvatarURL})

	case MsgJoinSession:
		var p JoinSessionPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		return s.joinSession(c, NormalizeCode(p.Code), p.profile())

	case MsgToggleReady:
		sess, err := s.sessionOf(c)
		if err != nil {
			return err
		}
		return sess.ToggleReady(c.id)

	case MsgStartGame:
		sess, err := s.sessionOf(c)
		if err != nil {
			return err
		}
		return sess.Start(c.id)

	case MsgCastAction:
		var p CastActionPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		sess, err := s.sessionOf(c)
		if err != nil {
			return err
		}
		return sess.CastAction(c.id, p.Target)

	case MsgUpdateSettings:
		var p SettingsPatch
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		sess, err := s.sessionOf(c)
		if err != nil {
			return err
		}
		return sess.UpdateSettings(c.id, p)

	case MsgLeaveSession:
		code := s.unbind(c)
		if code == "" {
			return ErrNotInSession
		}
		s.leave(code, c.id)
		return nil

	default:
		return errUnknownType
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload
	}
	return nil
}

// createSession opens a lobby with c as its host, joined and ready.
func (s *Server) createSession(ctx context.Context, c *ClientConn, p Profile) error {
	if s.sessionCode(c) != "" {
		return ErrAlreadyInSession
	}
	sess, err := s.reg.Create(ctx, c.id)
	if err != nil {
		return err
	}
	if err := s.bind(c, sess.Code()); err != nil {
		s.reg.Dispose(sess.Code())
		return err
	}
	if _, err := sess.Join(c.id, p); err != nil {
		s.unbind(c)
		s.reg.Dispose(sess.Code())
		return err
	}
	if err := sess.ToggleReady(c.id); err != nil {
		return err
	}
	c.sendEnvelope(MsgSessionJoined, SessionJoinedPayload{Code: sess.Code(), You: c.id})
	return nil
}

func (s *Server) joinSession(c *ClientConn, code string, p Profile) error {
	sess, err := s.reg.Get(code)
	if err != nil {
		return err
	}
	rejoin := s.sessionCode(c) == code
	if err := s.bind(c, code); err != nil {
		return err
	}
	if _, err := sess.Join(c.id, p); err != nil {
		if !rejoin {
			s.unbind(c)
		}
		return err
	}
	c.sendEnvelope(MsgSessionJoined, SessionJoinedPayload{Code: code, You: c.id})
	return nil
}

// leave takes connID out of the session and disposes of the session when
// nobody is left to play or watch it. A running game cannot be rejoined, so
// once its last connection is gone it is disposed as well and its ticker
// stops; the last persisted snapshot stays behind.
func (s *Server) leave(code, connID string) {
	sess, err := s.reg.Get(code)
	if err != nil {
		return
	}
	empty := sess.Leave(connID)
	if empty || s.connectionsIn(code) == 0 {
		s.reg.Dispose(code)
	}
}
