package hub

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	State roster.State
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code  string
	State roster.State // only used if creation happens
	Reply chan *lobby.Lobby
}

// RemoveLobby shuts the lobby down. Reply, if set, reports whether it existed.
type RemoveLobby struct {
	Code  string
	Reply chan bool
}

type ListLobbies struct {
	Reply chan []string
}

type ShutdownHub struct{}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    lobby.Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// NewHub starts the registry. opts is handed to every lobby it creates.
func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				msg.Reply <- h.ensure(msg.Code, msg.State)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				msg.Reply <- h.ensure(msg.Code, msg.State)

			case RemoveLobby:
				lb, ok := h.lobbies[msg.Code]
				if ok {
					stopLobby(lb)
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("lobby", msg.Code))
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					codes = append(codes, code)
				}
				slices.Sort(codes)
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(code string, state roster.State) *lobby.Lobby {
	if lb := h.lobbies[code]; lb != nil {
		return lb
	}
	lb := lobby.NewLobby(h.ctx, code, state, h.opts)
	h.lobbies[code] = lb
	h.log.Info("lobby created", zap.String("lobby", code), zap.Int("lobbies", len(h.lobbies)))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		stopLobby(lb)
	}
	clear(h.lobbies)
	h.cancel()
}

func stopLobby(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}

// Get looks a lobby up by code; nil means unknown.
func (h *Hub) Get(ctx context.Context, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	if !h.send(ctx, GetLobby{Code: code, Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

func (h *Hub) Ensure(ctx context.Context, code string, state roster.State) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	if !h.send(ctx, EnsureLobby{Code: code, State: state, Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

func (h *Hub) Remove(ctx context.Context, code string) bool {
	reply := make(chan bool, 1)
	if !h.send(ctx, RemoveLobby{Code: code, Reply: reply}) {
		return false
	}
	return recv(ctx, h.ctx.Done(), reply)
}

func (h *Hub) List(ctx context.Context) []string {
	reply := make(chan []string, 1)
	if !h.send(ctx, ListLobbies{Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

// Shutdown stops every lobby and the hub. It returns at once if the hub has
// already stopped.
func (h *Hub) Shutdown(ctx context.Context) {
	h.send(ctx, ShutdownHub{})
}

func (h *Hub) send(ctx context.Context, m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func recv[T any](ctx context.Context, stopped <-chan struct{}, ch <-chan T) T {
	select {
	case v := <-ch:
		return v
	case <-stopped:
		var zero T
		return zero
	case <-ctx.Done():
		var zero T
		return zero
	}
}
