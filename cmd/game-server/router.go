package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ASAPmarius/WebBackend/internal/auth"
	"github.com/ASAPmarius/WebBackend/internal/config"
	"github.com/ASAPmarius/WebBackend/internal/game"
	"github.com/ASAPmarius/WebBackend/internal/store"
	"github.com/ASAPmarius/WebBackend/internal/ws"
)

func newRouter(st *store.Store, cfg config.ServerConfig, engine *game.Engine, wsServer *ws.Server, issuer *auth.TokenIssuer, sessions *auth.SessionStore) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware(cfg.FrontendOrigin))

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st, sessions))

	r.Group(func(r chi.Router) {
		r.Use(apiLogMiddleware())

		r.Post("/login", loginHandler(st, issuer, sessions, wsServer))
		r.Post("/create_account", createAccountHandler(st))

		r.Get("/games", listGamesHandler(st))
		r.Get("/active-game", activeGameHandler(st, issuer))
		r.Post("/join-game", joinGameHandler(st, issuer))
		r.Post("/disconnect-from-game", disconnectHandler(st, issuer, wsServer))
		r.Get("/api/cards", cardsHandler(st))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(issuer))
			r.Post("/create-game", createGameHandler(st, engine))
			r.Post("/start-game", startGameHandler(st, engine))
			r.Post("/restart-game", restartGameHandler(st, engine))
			r.Post("/finish-game", finishGameHandler(st))
			r.Get("/chat-history", chatHistoryHandler(st))
			r.Post("/user-profile", userProfileHandler(st))
			r.Post("/update-profile", updateProfileHandler(st))
		})
	})

	// The socket endpoint does its own handshake auth and logging.
	r.Get("/ws", wsServer.HandleWS)

	return r
}

func healthHandler(st *store.Store, sessions *auth.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "db unreachable")
			return
		}
		if err := sessions.Ping(r.Context()); err != nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "redis unreachable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
