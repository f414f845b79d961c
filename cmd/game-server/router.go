package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"codeheist/internal/assistant"
	"codeheist/internal/auth"
	"codeheist/internal/config"
	"codeheist/internal/game"
	"codeheist/internal/pubsub"
	"codeheist/internal/store"
	"codeheist/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func newRouter(cfg config.ServerConfig, st *store.Store, ctrl *game.Controller, authMgr *auth.Manager, chat *assistant.Assistant, gateway *ws.Gateway, broker pubsub.Broker) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Post("/game/join", joinGameHandler(ctrl, broker))
		r.Get("/game", gameInfoHandler(ctrl))
		r.Post("/game/guess", guessHandler(ctrl, broker))
		r.Post("/stream_chat/", streamChatHandler(ctrl, chat))

		r.Post("/admin/login", adminLoginHandler(authMgr))

		r.Group(func(r chi.Router) {
			r.Use(authMgr.Middleware)
			r.Get("/admin", adminPingHandler())
			r.Get("/admin/games", adminListGamesHandler(ctrl))
			r.Post("/admin/games", adminCreateGameHandler(ctrl))
			r.Post("/admin/game/start", adminStartGameHandler(ctrl, broker))
			r.Post("/admin/game/deactivate", adminDeactivateGameHandler(ctrl, broker))
			r.Post("/admin/game/delete", adminDeleteGameHandler(ctrl, broker))
		})
	})

	r.Get("/ws/player", gateway.HandlePlayer)
	r.Get("/ws/admin", gateway.HandleAdmin)
	return r
}

func logRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
