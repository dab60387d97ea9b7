package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/team-shuffler-backend/internal/hub"
	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
	"github.com/DoyleJ11/team-shuffler-backend/internal/types"
)

const testCode = "WS0001"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, Options{})
}

func newTestServerWith(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, lobby.Options{})
	h.Ensure(ctx, testCode, roster.NewState(roster.DefaultConfig(), roster.TeamRed, roster.TeamOcean))

	srv := httptest.NewServer(Handler(h, opts))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, code, lang string) *websocket.Conn {
	t.Helper()
	conn, err := dialHeader(srv, code, http.Header{"Accept-Language": {lang}})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func dialHeader(srv *httptest.Server, code string, header http.Header) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=" + code
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	return conn, err
}

func read(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func write(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

// readBoth collects one snapshot and one error; their relative order is not fixed.
func readBoth(t *testing.T, conn *websocket.Conn) (snap, errMsg types.ServerMessage) {
	t.Helper()
	for range 2 {
		msg := read(t, conn)
		switch msg.Type {
		case types.TypeStateSnapshot:
			snap = msg
		case types.TypeError:
			errMsg = msg
		}
	}
	require.Equal(t, types.TypeStateSnapshot, snap.Type)
	require.Equal(t, types.TypeError, errMsg.Type)
	return snap, errMsg
}

func TestHandler_RejectsMissingOrUnknownLobby(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/?code=NOPE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_JoinAddAndBroadcast(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv, testCode, "en")
	b := dial(t, srv, testCode, "en")

	first := read(t, a)
	assert.Equal(t, types.TypeStateSnapshot, first.Type)
	assert.Equal(t, 0, first.Version)
	_ = read(t, b)

	write(t, a, types.ClientMessage{Type: "AddPlayer", Player: "Jürgen"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := read(t, conn)
		require.Equal(t, types.TypeStateSnapshot, msg.Type)
		assert.Equal(t, 1, msg.Version)
		require.NotNil(t, msg.State)
		assert.Equal(t, []string{"Juergen"}, msg.State.Unassigned)
	}

	write(t, b, types.ClientMessage{
		Type:   "MovePlayer",
		Player: "Juergen",
		Source: &roster.Source{Kind: roster.SourceUnassigned},
		Target: "ocean",
	})
	moved := read(t, a)
	assert.Equal(t, 2, moved.Version)
	assert.Empty(t, moved.State.Unassigned)
	assert.Equal(t, []string{"Juergen"}, moved.State.Teams[1].Players)
}

func TestHandler_RejectionGoesToIssuerOnly(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv, testCode, "de-DE,de;q=0.9")
	b := dial(t, srv, testCode, "en")
	_ = read(t, a)
	_ = read(t, b)

	write(t, a, types.ClientMessage{Type: "AddPlayer", Player: "Anna"})
	_ = read(t, a)
	_ = read(t, b)

	write(t, a, types.ClientMessage{Type: "AddPlayer", Player: "Anna"})

	snap, errMsg := readBoth(t, a)
	assert.Equal(t, "duplicate", errMsg.Reason)
	assert.Equal(t, "Dieser Spielername existiert bereits", errMsg.Error)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, "Dieser Spielername existiert bereits", snap.Notice.Text)

	// b sees the notice in English and no error
	other := read(t, b)
	assert.Equal(t, types.TypeStateSnapshot, other.Type)
	require.NotNil(t, other.Notice)
	assert.Equal(t, "This player name already exists", other.Notice.Text)

	write(t, b, types.ClientMessage{Type: "Reset"})
	next := read(t, b)
	assert.Equal(t, types.TypeStateSnapshot, next.Type, "b must not have an error queued")
}

func TestHandler_BadInputAnswersError(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, testCode, "en")
	_ = read(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	msg := read(t, conn)
	assert.Equal(t, types.TypeError, msg.Type)
	assert.Equal(t, "bad json", msg.Error)

	write(t, conn, types.ClientMessage{Type: "LockPick"})
	msg = read(t, conn)
	assert.Equal(t, types.TypeError, msg.Type)
	assert.Contains(t, msg.Error, "unknown message type")
}

func TestHandler_AllowedOriginsUseCORSFormat(t *testing.T) {
	srv := newTestServerWith(t, Options{AllowedOrigins: []string{"http://localhost:3000"}})

	conn, err := dialHeader(srv, testCode, http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	assert.Equal(t, types.TypeStateSnapshot, read(t, conn).Type)

	_, err = dialHeader(srv, testCode, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:3000", "https://teams.example", "*", "*.example.org"})
	assert.Equal(t, []string{"localhost:3000", "teams.example", "*", "*.example.org"}, got)
}
