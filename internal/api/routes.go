// Package api assembles the public chat router.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matiasleandrokruk/splunkchat/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/splunkchat/internal/api/middleware"
)

const corsMaxAge = 1800

// RouterDeps carries everything NewRouter wires. Chat is required.
type RouterDeps struct {
	Chat          *handlers.ChatHandler
	AllowedOrigin string
	Logger        *slog.Logger
}

// NewRouter creates the chi router. The chat server exposes exactly one route,
// GET /chat; CORS admits only AllowedOrigin, and no origin at all when it is empty.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.AccessLog(deps.Logger))
	r.Use(middleware.Recoverer)
	if deps.AllowedOrigin != "" {
		// cors treats an empty origin list as "allow all".
		r.Use(cors.Handler(corsOptions(deps.AllowedOrigin)))
	}

	r.Get("/chat", deps.Chat.Chat)

	return r
}

func corsOptions(origin string) cors.Options {
	return cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         corsMaxAge,
	}
}
