package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/team-shuffler-backend/internal/hub"
	"github.com/DoyleJ11/team-shuffler-backend/internal/journal"
	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/notice"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
	"github.com/DoyleJ11/team-shuffler-backend/internal/types"
)

const maxBodyBytes = 16 << 10

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateLobby opens a lobby whose roster starts from newState.
func CreateLobby(h *hub.Hub, newState func() roster.State, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if h.Get(r.Context(), c) == nil {
				code = c
				break
			}
			log.Info("collision on code, regenerating", zap.String("lobby", c))
		}

		if h.Ensure(r.Context(), code, newState()) == nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Lobbies []string `json:"lobbies"`
		}{Lobbies: h.List(r.Context())})
	}
}

type lobbyResponse struct {
	Code    string        `json:"code"`
	Version int           `json:"version"`
	Clients int           `json:"clients"`
	State   roster.State  `json:"state"`
	Notice  *types.Notice `json:"notice,omitempty"`
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb := h.Get(r.Context(), code)
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		view, err := lb.View(r.Context())
		if err != nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		tag := notice.Match(r.Header.Get("Accept-Language"))
		writeJSON(w, http.StatusOK, lobbyResponse{
			Code:    code,
			Version: view.Version,
			Clients: view.NumClients,
			State:   view.State,
			Notice:  types.NewNotice(view.Notice, tag),
		})
	}
}

func DeleteLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.Remove(r.Context(), chi.URLParam(r, "code")) {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type commandResponse struct {
	Changed bool           `json:"changed"`
	Version int            `json:"version"`
	Events  []roster.Event `json:"events,omitempty"`
}

// PostCommand runs one client message against a lobby, the same messages
// the websocket accepts.
func PostCommand(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := h.Get(r.Context(), chi.URLParam(r, "code"))
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		var cm types.ClientMessage
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&cm); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		cmd, err := cm.Command()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := lb.Do(r.Context(), requestID(r), cmd)
		if errors.Is(err, lobby.ErrClosed) {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
			return
		}

		var rej *roster.RejectionError
		switch {
		case res.Err == nil:
			writeJSON(w, http.StatusOK, commandResponse{Changed: true, Version: res.Version, Events: res.Events})
		case errors.Is(res.Err, roster.ErrNoChange):
			writeJSON(w, http.StatusOK, commandResponse{Changed: false, Version: res.Version})
		case errors.As(res.Err, &rej):
			tag := notice.Match(r.Header.Get("Accept-Language"))
			writeJSON(w, http.StatusConflict, types.Rejection(res.Err, tag))
		default:
			http.Error(w, res.Err.Error(), http.StatusBadRequest)
		}
	}
}

// LobbyEvents lists the audit trail of a lobby. Deleted lobbies keep theirs;
// codes with neither a live lobby nor entries are unknown.
func LobbyEvents(h *hub.Hub, j journal.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		entries, err := j.Entries(r.Context(), code)
		if err != nil {
			http.Error(w, "failed to read journal", http.StatusInternalServerError)
			return
		}
		if len(entries) == 0 && h.Get(r.Context(), code) == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		if entries == nil {
			entries = []journal.Entry{}
		}
		writeJSON(w, http.StatusOK, struct {
			Entries []journal.Entry `json:"entries"`
		}{Entries: entries})
	}
}

type warning struct {
	Kind notice.Kind `json:"kind"`
	Text string      `json:"text"`
}

type previewResponse struct {
	Name     string    `json:"name"`
	Empty    bool      `json:"empty"`
	Warnings []warning `json:"warnings"`
}

// PreviewName shows what a typed name would be registered as.
func PreviewName(cfg roster.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		name, rep := roster.SanitizeName(body.Name, cfg.MaxNameLength)
		tag := notice.Match(r.Header.Get("Accept-Language"))
		resp := previewResponse{Name: name, Empty: name == "", Warnings: []warning{}}
		for _, n := range notice.Warnings(rep, cfg.MaxNameLength) {
			resp.Warnings = append(resp.Warnings, warning{Kind: n.Kind, Text: n.Text(tag)})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func Teams(cfg roster.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Teams         []roster.TeamInfo `json:"teams"`
			ActivePlayers int               `json:"active_players"`
			MaxNameLength int               `json:"max_name_length"`
		}{Teams: cfg.Teams, ActivePlayers: cfg.ActivePlayers, MaxNameLength: cfg.MaxNameLength})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
