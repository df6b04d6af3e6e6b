package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/z-perception/backend/internal/handler/session"
	"github.com/zhouzirui/z-perception/backend/internal/logger"
	middlewarePkg "github.com/zhouzirui/z-perception/backend/internal/middleware"
	sessionService "github.com/zhouzirui/z-perception/backend/internal/service/session"
	"github.com/zhouzirui/z-perception/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the session manager.
func NewRouter(sessions *sessionService.Manager, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": len(sessions.UserIDs()),
		})
	})

	r.Route("/api", func(api chi.Router) {
		session.New(sessions, log).RegisterRoutes(api)
		session.NewWebSocketHandler(sessions, log).RegisterWebSocketRoutes(api)
	})

	return r
}
