package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/team-shuffler-backend/internal/hub"
	"github.com/DoyleJ11/team-shuffler-backend/internal/journal"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
	"github.com/DoyleJ11/team-shuffler-backend/internal/ws"
)

type Deps struct {
	Hub          *hub.Hub
	Journal      journal.Journal
	Roster       roster.Config
	DefaultTeams []roster.TeamID
	Logger       *zap.Logger

	AllowedOrigins []string
	RateLimit      float64 // requests per second per IP; 0 disables
	RateBurst      int
}

func (d Deps) newState() roster.State {
	return roster.NewState(d.Roster, d.DefaultTeams...)
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	j := d.Journal
	if j == nil {
		j = journal.Nop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.AllowedOrigins))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{Logger: log, AllowedOrigins: d.AllowedOrigins}))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(NewRateLimiter(d.RateLimit, d.RateBurst).Handle)

		r.Get("/teams", Teams(d.Roster))
		r.Post("/names/preview", PreviewName(d.Roster))

		r.Route("/lobbies", func(r chi.Router) {
			r.Post("/", CreateLobby(d.Hub, d.newState, log))
			r.Get("/", ListLobbies(d.Hub))
			r.Get("/{code}", GetLobby(d.Hub))
			r.Delete("/{code}", DeleteLobby(d.Hub))
			r.Post("/{code}/commands", PostCommand(d.Hub))
			r.Get("/{code}/events", LobbyEvents(d.Hub, j))
		})
	})
	return r
}
