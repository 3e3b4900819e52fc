package game

import (
	"log/slog"
	"net/http"
	"sync"

	"example.com/nightfall/internal/httpapi"
)

// Server is the client gateway: the WebSocket endpoint and the read-only
// HTTP routes. It tracks which connection sits in which session and pushes
// each player their own view on every update.
type Server struct {
	reg *Registry
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]*ClientConn
}

func NewServer(reg *Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		reg:   reg,
		log:   log,
		conns: make(map[string]*ClientConn),
	}
	reg.OnUpdate(s.publish)
	return s
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/sessions/{code}/summary", s.handleSummary)
}

// handleSummary reveals a finished game: every role, the final tally and
// the winner.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.reg.Summary(r.Context(), r.PathValue("code"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.log.Error("summary failed", "code", r.PathValue("code"), "err", err)
			httpapi.WriteError(w, status, httpapi.ErrorResponse{
				Kind:    KindInternal.String(),
				Code:    "internal",
				Message: "failed to load session",
			})
			return
		}
		httpapi.WriteError(w, status, errorResponse(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, snap.View(""))
}

// Connections is the number of open sockets.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func errorResponse(err error) httpapi.ErrorResponse {
	return httpapi.ErrorResponse{
		Kind:    KindOf(err).String(),
		Code:    CodeOf(err),
		Message: err.Error(),
	}
}

func statusFor(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publish runs under the session lock; it must not call into sessions.
func (s *Server) publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range snap.Players {
		c, ok := s.conns[p.ID]
		if !ok || c.session != snap.Code {
			continue
		}
		if !c.trySend(encodeEnvelope(MsgState, snap.View(p.ID))) {
			s.log.Debug("state dropped", "conn", c.id, "code", snap.Code)
		}
	}
}

func (s *Server) attach(c *ClientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.id] = c
}

// detach forgets c and leaves its session, if any.
func (s *Server) detach(c *ClientConn) {
	code := s.unbind(c)

	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()

	if code != "" {
		s.leave(code, c.id)
	}
}

func (s *Server) bind(c *ClientConn, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.session != "" && c.session != code {
		return ErrAlreadyInSession
	}
	c.session = code
	return nil
}

func (s *Server) unbind(c *ClientConn) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := c.session
	c.session = ""
	return code
}

func (s *Server) sessionCode(c *ClientConn) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.session
}

func (s *Server) sessionOf(c *ClientConn) (*Session, error) {
	code := s.sessionCode(c)
	if code == "" {
		return nil, ErrNotInSession
	}
	return s.reg.Get(code)
}

func (s *Server) connectionsIn(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.conns {
		if c.session == code {
			n++
		}
	}
	return n
}
