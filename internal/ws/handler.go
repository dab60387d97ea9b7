package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/team-shuffler-backend/internal/hub"
	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/notice"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
	"github.com/DoyleJ11/team-shuffler-backend/internal/types"
)

const (
	outboxSize   = 8
	writeTimeout = 3 * time.Second
)

type Options struct {
	Logger *zap.Logger
	// AllowedOrigins takes the same values as the CORS middleware: full
	// origins such as http://localhost:5173, host patterns, or "*". Empty
	// means same origin only.
	AllowedOrigins []string
}

// originPatterns turns origins into the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if strings.Contains(o, "://") {
			if u, err := url.Parse(o); err == nil && u.Host != "" {
				o = u.Host
			}
		}
		patterns = append(patterns, o)
	}
	return patterns
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	accept := &websocket.AcceptOptions{OriginPatterns: originPatterns(opts.AllowedOrigins)}

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb := h.Get(r.Context(), code)
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		tag := notice.Match(r.Header.Get("Accept-Language"))

		conn, err := websocket.Accept(w, r, accept)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		clientID := uuid.NewString()
		log := log.With(zap.String("lobby", code), zap.String("client", clientID))

		out := make(chan lobby.Snapshot, outboxSize)
		if err := lb.Send(ctx, lobby.Join{ClientID: clientID, Outbox: out}); err != nil {
			conn.Close(websocket.StatusGoingAway, "lobby closed")
			return
		}
		defer func() {
			leaveCtx, leaveCancel := context.WithTimeout(context.Background(), time.Second)
			defer leaveCancel()
			_ = lb.Send(leaveCtx, lobby.Leave{ClientID: clientID})
		}()
		log.Debug("client connected")

		sess := &session{
			conn:     conn,
			lobby:    lb,
			clientID: clientID,
			tag:      tag,
			out:      out,
			direct:   make(chan types.ServerMessage, outboxSize),
			log:      log,
		}

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			sess.writeLoop(ctx)
		}()

		sess.readLoop(ctx)
		cancel()
		<-writerDone
	}
}

type session struct {
	conn     *websocket.Conn
	lobby    *lobby.Lobby
	clientID string
	tag      language.Tag
	out      chan lobby.Snapshot
	direct   chan types.ServerMessage // messages meant for this client only
	log      *zap.Logger
}

// writeLoop is the only writer on conn. A closed outbox means the lobby
// dropped this client or shut down.
func (s *session) writeLoop(ctx context.Context) {
	for {
		var msg types.ServerMessage
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-s.out:
			if !ok {
				s.conn.Close(websocket.StatusGoingAway, "lobby stopped sending")
				return
			}
			msg = types.Snapshot(snap, s.tag)
		case msg = <-s.direct:
		}

		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, s.conn, msg)
		cancel()
		if err != nil {
			return
		}
	}
}

func (s *session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				s.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			s.reply(types.ServerMessage{Type: types.TypeError, Error: "bad json"})
			continue
		}

		cmd, err := cm.Command()
		if err != nil {
			s.reply(types.ServerMessage{Type: types.TypeError, Error: err.Error()})
			continue
		}

		res, err := s.lobby.Do(ctx, s.clientID, cmd)
		if err != nil {
			return // lobby gone or request over
		}
		if res.Err != nil && !errors.Is(res.Err, roster.ErrNoChange) {
			s.reply(types.Rejection(res.Err, s.tag))
		}
	}
}

func (s *session) reply(msg types.ServerMessage) {
	select {
	case s.direct <- msg:
	default:
		s.log.Warn("dropping direct message, client too slow", zap.String("type", msg.Type))
	}
}
