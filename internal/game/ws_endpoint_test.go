package game

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/nightfall/internal/httpapi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsClient struct {
	t     *testing.T
	ws    *websocket.Conn
	id    string
	state View
}

func dialClient(t *testing.T, ts *httptest.Server) *wsClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		t.Fatalf("dial: status=%d err=%v", code, err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	c := &wsClient{t: t, ws: ws}
	var hello HelloPayload
	require.NoError(t, json.Unmarshal(c.expect(MsgHello).Payload, &hello))
	require.NotEmpty(t, hello.ConnectionID)
	c.id = hello.ConnectionID
	return c
}

func (c *wsClient) send(typ string, payload any) {
	c.t.Helper()
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, encodeEnvelope(typ, payload)))
}

func (c *wsClient) read() Envelope {
	c.t.Helper()
	_ = c.ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	var env Envelope
	require.NoError(c.t, json.Unmarshal(data, &env))
	if env.Type == MsgState {
		require.NoError(c.t, json.Unmarshal(env.Payload, &c.state))
	}
	return env
}

// expect reads until a message of type typ, keeping the latest state.
func (c *wsClient) expect(typ string) Envelope {
	c.t.Helper()
	for {
		if env := c.read(); env.Type == typ {
			return env
		}
	}
}

func (c *wsClient) expectError(code string) {
	c.t.Helper()
	var p ErrorPayload
	require.NoError(c.t, json.Unmarshal(c.expect(MsgError).Payload, &p))
	assert.Equal(c.t, code, p.Code)
}

func (c *wsClient) waitState(pred func(View) bool) View {
	c.t.Helper()
	for {
		if env := c.read(); env.Type == MsgState && pred(c.state) {
			return c.state
		}
	}
}

func (c *wsClient) create(name string) string {
	c.t.Helper()
	c.send(MsgCreateSession, CreateSessionPayload{Name: name})
	var joined SessionJoinedPayload
	require.NoError(c.t, json.Unmarshal(c.expect(MsgSessionJoined).Payload, &joined))
	return joined.Code
}

func newTestServer(t *testing.T) (*Registry, *httptest.Server) {
	t.Helper()

	reg := newTestRegistry(nil)
	server := NewServer(reg, slog.New(slog.DiscardHandler))

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return reg, ts
}

func TestWS_Endpoint(t *testing.T) {
	type scenario struct {
		name string
		run  func(t *testing.T)
	}

	cases := []scenario{
		{
			name: "create makes the caller a ready host",
			run: func(t *testing.T) {
				_, ts := newTestServer(t)
				a := dialClient(t, ts)

				code := a.create("Alice")
				require.Len(t, code, codeLength)

				assert.Equal(t, code, a.state.Code)
				assert.Equal(t, a.id, a.state.You)
				assert.Equal(t, a.id, a.state.HostID)
				require.Len(t, a.state.Players, 1)
				assert.True(t, a.state.Players[0].Ready)
				assert.Equal(t, "Alice", a.state.Players[0].Name)
			},
		},
		{
			name: "join pushes the new roster to everybody",
			run: func(t *testing.T) {
				_, ts := newTestServer(t)
				a := dialClient(t, ts)
				b := dialClient(t, ts)

				code := a.create("Alice")
				b.send(MsgJoinSession, JoinSessionPayload{Code: strings.ToLower(code), Name: "Bob"})
				b.expect(MsgSessionJoined)

				v := a.waitState(func(v View) bool { return len(v.Players) == 2 })
				assert.Equal(t, a.id, v.You)
				assert.Equal(t, "Bob", v.Players[1].Name)
				assert.Equal(t, b.id, b.state.You)
			},
		},
		{
			name: "rule violations come back as error messages",
			run: func(t *testing.T) {
				_, ts := newTestServer(t)
				a := dialClient(t, ts)
				b := dialClient(t, ts)

				b.send(MsgCastAction, CastActionPayload{Target: "x"})
				b.expectError("not_in_session")

				b.send(MsgJoinSession, JoinSessionPayload{Code: "ZZZZZZ", Name: "Bob"})
				b.expectError("session_not_found")

				code := a.create("Alice")
				b.send(MsgJoinSession, JoinSessionPayload{Code: code, Name: "Alice"})
				b.expectError("name_taken")

				b.send(MsgJoinSession, JoinSessionPayload{Code: code, Name: "Bob"})
				b.expect(MsgSessionJoined)

				b.send(MsgStartGame, nil)
				b.expectError("not_host")

				a.send(MsgCreateSession, CreateSessionPayload{Name: "Again"})
				a.expectError("already_in_session")
			},
		},
		{
			name: "malformed frames",
			run: func(t *testing.T) {
				_, ts := newTestServer(t)
				a := dialClient(t, ts)

				require.NoError(t, a.ws.WriteMessage(websocket.TextMessage, []byte("{")))
				a.expectError("bad_json")

				a.send("dance", nil)
				a.expectError("unknown_type")

				require.NoError(t, a.ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"join_session","payload":[1]}`)))
				a.expectError("bad_input")
			},
		},
		{
			name: "host disconnect in the lobby hands the session over",
			run: func(t *testing.T) {
				_, ts := newTestServer(t)
				a := dialClient(t, ts)
				b := dialClient(t, ts)

				code := a.create("Alice")
				b.send(MsgJoinSession, JoinSessionPayload{Code: code, Name: "Bob"})
				b.expect(MsgSessionJoined)

				require.NoError(t, a.ws.Close())

				v := b.waitState(func(v View) bool { return len(v.Players) == 1 })
				assert.Equal(t, b.id, v.HostID)
			},
		},
		{
			name: "leaving an empty lobby disposes the session",
			run: func(t *testing.T) {
				reg, ts := newTestServer(t)
				a := dialClient(t, ts)

				code := a.create("Alice")
				a.send(MsgLeaveSession, nil)

				require.Eventually(t, func() bool {
					_, err := reg.Get(code)
					return err != nil
				}, time.Second, 5*time.Millisecond)
			},
		},
		{
			name: "settings update reaches the lobby",
			run: func(t *testing.T) {
				_, ts := newTestServer(t)
				a := dialClient(t, ts)
				a.create("Alice")

				a.send(MsgUpdateSettings, json.RawMessage(`{"nightDuration":12}`))
				v := a.waitState(func(v View) bool { return v.Settings.NightSeconds == 12 })
				assert.Equal(t, 60, v.Settings.DiscussSeconds)

				a.send(MsgUpdateSettings, json.RawMessage(`{"dayVoteDuration":0}`))
				a.expectError("invalid_settings")
			},
		},
		{
			name: "running game is disposed when every connection drops",
			run: func(t *testing.T) {
				reg, ts := newTestServer(t)
				a := dialClient(t, ts)
				code := a.create("Alice")

				a.send(MsgStartGame, nil)
				a.waitState(func(v View) bool { return v.Phase == PhaseNight })

				sess, err := reg.Get(code)
				require.NoError(t, err)

				require.NoError(t, a.ws.Close())
				require.Eventually(t, func() bool {
					_, err := reg.Get(code)
					return err != nil
				}, time.Second, 5*time.Millisecond)
				assert.Zero(t, reg.Len())

				// the ticker is gone and the clock no longer moves
				sess.mu.Lock()
				closed, timer := sess.closed, sess.timer
				sess.mu.Unlock()
				assert.True(t, closed)

				sess.Tick()
				assert.Equal(t, PhaseNight, sess.Phase())
				sess.mu.Lock()
				assert.Equal(t, timer, sess.timer)
				sess.mu.Unlock()
			},
		},
		{
			name: "finished game: summary and disposal on last disconnect",
			run: func(t *testing.T) {
				reg, ts := newTestServer(t)
				a := dialClient(t, ts)
				code := a.create("Alice")

				resp, err := http.Get(ts.URL + "/api/sessions/" + code + "/summary")
				require.NoError(t, err)
				var apiErr httpapi.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
				_ = resp.Body.Close()
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
				assert.Equal(t, httpapi.ErrorResponse{
					Kind:    "state",
					Code:    "game_in_progress",
					Message: "game is not finished",
				}, apiErr)

				// a lone player is dealt the werewolf and wins after the first night
				a.send(MsgStartGame, nil)
				a.waitState(func(v View) bool { return v.Phase == PhaseNight })

				sess, err := reg.Get(code)
				require.NoError(t, err)
				endPhase(sess)

				v := a.waitState(func(v View) bool { return v.Phase == PhaseGameOver })
				assert.Equal(t, WinnerWerewolves, v.Winner)

				resp, err = http.Get(ts.URL + "/api/sessions/" + code + "/summary")
				require.NoError(t, err)
				var summary View
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
				_ = resp.Body.Close()
				require.Equal(t, http.StatusOK, resp.StatusCode)
				require.Len(t, summary.Players, 1)
				assert.Equal(t, RoleWerewolf, summary.Players[0].Role)

				require.NoError(t, a.ws.Close())
				require.Eventually(t, func() bool {
					_, err := reg.Get(code)
					return err != nil
				}, time.Second, 5*time.Millisecond)

				resp, err = http.Get(ts.URL + "/api/sessions/" + code + "/summary")
				require.NoError(t, err)
				_ = resp.Body.Close()
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}
