package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/auth"
	"github.com/ASAPmarius/WebBackend/internal/config"
	"github.com/ASAPmarius/WebBackend/internal/game"
	"github.com/ASAPmarius/WebBackend/internal/logging"
	"github.com/ASAPmarius/WebBackend/internal/store"
	"github.com/ASAPmarius/WebBackend/internal/ws"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if n, err := st.CountCardAssets(ctx); err != nil {
		log.Fatal().Err(err).Msg("count card assets failed")
	} else {
		log.Info().Int("card_types", n).Msg("card assets loaded")
	}

	sessions := auth.NewSessionStore(cfg.RedisAddr, cfg.RedisDB, cfg.TokenTTL)
	if err := sessions.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	wsServer := ws.NewServer(st, issuer, sessions)
	engine := game.NewEngine(st, wsServer, game.Options{
		RevealDelay: cfg.WarRevealDelay,
		StepDelay:   cfg.WarStepDelay,
	})
	wsServer.SetEngine(engine)

	r := newRouter(st, cfg, engine, wsServer, issuer, sessions)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
