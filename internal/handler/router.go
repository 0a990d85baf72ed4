package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftlabs/relaychat/internal/handler/admin"
	"github.com/driftlabs/relaychat/internal/handler/ws"
	middlewarePkg "github.com/driftlabs/relaychat/internal/middleware"
)

// NewRouter wires HTTP routes to the relay.
func NewRouter(wsHandler *ws.Handler, adminHandler *admin.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	wsHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("Welcome to relaychat. Connect a chat client to <code>/ws</code>."))
	})

	return r
}
