package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/assets"
	"github.com/ASAPmarius/WebBackend/internal/auth"
	"github.com/ASAPmarius/WebBackend/internal/store"
	"github.com/ASAPmarius/WebBackend/internal/ws"
)

// userPayload is the account shape handed to clients; the password hash
// never leaves the server.
type userPayload struct {
	ID             int64   `json:"idUser"`
	Username       string  `json:"Username"`
	IsAdmin        bool    `json:"isAdmin"`
	Bio            *string `json:"Bio"`
	FavoriteSong   *string `json:"Favorite_song"`
	ProfilePicture *string `json:"Profile_picture,omitempty"`
}

func userToPayload(u *store.User, withPicture bool) userPayload {
	p := userPayload{
		ID:           u.ID,
		Username:     u.Username,
		IsAdmin:      u.IsAdmin,
		Bio:          u.Bio,
		FavoriteSong: u.FavoriteSong,
	}
	if withPicture && len(u.ProfilePicture) > 0 {
		enc := base64.StdEncoding.EncodeToString(u.ProfilePicture)
		p.ProfilePicture = &enc
	}
	return p
}

func loginHandler(st *store.Store, issuer *auth.TokenIssuer, sessions *auth.SessionStore, wsServer *ws.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if wsServer.Registry().IsUsernameConnected(req.Username) {
			writeHTTPError(w, http.StatusForbidden, "User is already connected")
			return
		}

		user, err := st.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeHTTPError(w, http.StatusUnauthorized, "Invalid username or password")
				return
			}
			log.Error().Err(err).Msg("lookup user at login")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !auth.CheckPassword(user.Password, req.Password) {
			writeHTTPError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		token, err := issuer.Issue(user.ID, user.Username)
		if err != nil {
			log.Error().Err(err).Msg("issue token")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		// Registering the new token displaces any previous session.
		if err := sessions.Put(r.Context(), user.Username, token); err != nil {
			log.Error().Err(err).Msg("store session token")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		w.Header().Set("Set-Cookie",
			fmt.Sprintf("auth_token=%s; HttpOnly; SameSite=Strict; Max-Age=3600", token))
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "auth_token": token})
	}
}

func createAccountHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username       string  `json:"username"`
			Password       string  `json:"password"`
			ProfilePicture string  `json:"profilePicture"`
			Bio            *string `json:"bio"`
			FavoriteSong   *string `json:"favoriteSong"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeHTTPError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		if _, err := st.GetUserByUsername(r.Context(), req.Username); err == nil {
			writeHTTPError(w, http.StatusBadRequest, "Username already exists")
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Msg("lookup user at signup")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}

		var picture []byte
		if req.ProfilePicture != "" {
			decoded, err := assets.DecodeBase64Image(req.ProfilePicture)
			if err != nil {
				// A broken upload falls back to the default picture.
				log.Warn().Err(err).Str("username", req.Username).Msg("bad profile picture upload")
			} else {
				picture = decoded
			}
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("hash password")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}
		user, err := st.CreateUser(r.Context(), req.Username, hash, picture, req.Bio, req.FavoriteSong)
		if err != nil {
			log.Error().Err(err).Msg("create user")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "success",
			"user":   userToPayload(user, false),
		})
	}
}

func disconnectHandler(st *store.Store, issuer *auth.TokenIssuer, wsServer *ws.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			writeHTTPError(w, http.StatusUnauthorized, "Unauthorized: Missing token")
			return
		}
		claims, err := issuer.Verify(token)
		if err != nil {
			writeHTTPError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		gameID, err := st.FindActiveGameForUser(r.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "No active game found"})
			return
		}
		if err != nil {
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("lookup active game")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		wsServer.DisconnectUser(claims.UserName)

		users, err := st.ListUsersInGame(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("list users in game")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !wsServer.AnyUserConnected(users) {
			log.Info().Int64("game_id", gameID).Msg("no players connected, finishing game")
			if err := st.MarkGameFinished(r.Context(), gameID); err != nil {
				log.Error().Err(err).Int64("game_id", gameID).Msg("finish abandoned game")
			}
		} else {
			wsServer.BroadcastConnectedUsers(r.Context(), gameID)
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
