package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/assets"
	"github.com/ASAPmarius/WebBackend/internal/store"
)

func userProfileHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			writeHTTPError(w, http.StatusBadRequest, "Username is required")
			return
		}
		user, err := st.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeHTTPError(w, http.StatusNotFound, "User not found")
				return
			}
			log.Error().Err(err).Str("username", req.Username).Msg("load profile")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": userToPayload(user, true)})
	}
}

func updateProfileHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username       string  `json:"username"`
			Bio            *string `json:"bio"`
			FavoriteSong   *string `json:"favoriteSong"`
			ProfilePicture string  `json:"profilePicture"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		claims := claimsFrom(r)

		user, err := st.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeHTTPError(w, http.StatusNotFound, "User not found")
				return
			}
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("load user")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		// Users edit their own profile only.
		if req.Username != "" && req.Username != user.Username {
			writeHTTPError(w, http.StatusForbidden, "You can only update your own profile")
			return
		}

		var picture []byte
		if req.ProfilePicture != "" {
			picture, err = assets.DecodeBase64Image(req.ProfilePicture)
			if err != nil {
				writeHTTPError(w, http.StatusBadRequest, "Invalid profile picture")
				return
			}
		}

		updated, err := st.UpdateProfile(r.Context(), claims.UserID, req.Bio, req.FavoriteSong, picture)
		if err != nil {
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("update profile")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": userToPayload(updated, true)})
	}
}
