package main

import (
	"context"
	"net/http"
	"time"

	"codeheist/internal/assistant"
	"codeheist/internal/auth"
	"codeheist/internal/bridge"
	"codeheist/internal/config"
	"codeheist/internal/game"
	"codeheist/internal/logging"
	"codeheist/internal/pubsub"
	"codeheist/internal/registry"
	"codeheist/internal/store"
	"codeheist/internal/ws"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	broker, err := pubsub.NewValkey(cfg.ValkeyAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("valkey connect failed")
	}

	players := registry.NewPlayers()
	admins := registry.NewAdmins()
	go func() {
		br := bridge.New(broker, players, admins)
		if err := br.Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("broadcast bridge stopped")
		}
	}()

	ctrl := game.NewController(st, broker.Cache())
	authMgr := auth.NewManager(cfg.AdminKeyHash, cfg.JWTSecret)
	chat := assistant.New(assistant.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.ChatModel,
	}, ctrl)
	gateway := ws.NewGateway(ctrl, players, admins, broker)

	r := newRouter(cfg, st, ctrl, authMgr, chat, gateway, broker)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
