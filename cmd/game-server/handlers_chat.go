package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/assets"
	"github.com/ASAPmarius/WebBackend/internal/store"
)

type chatEntryPayload struct {
	Message    string `json:"message"`
	Owner      string `json:"owner"`
	UserPPPath string `json:"user_pp_path"`
	UserID     int64  `json:"userId"`
	Timestamp  string `json:"timestamp"`
}

// chatHistoryHandler returns a game's chat log so a rejoining player sees the
// conversation that happened while they were away. Entries use the same keys
// as the live "message" broadcast.
func chatHistoryHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := strconv.ParseInt(r.URL.Query().Get("gameId"), 10, 64)
		if err != nil || gameID == 0 {
			writeHTTPError(w, http.StatusBadRequest, "Missing or invalid gameId")
			return
		}
		claims := claimsFrom(r)
		if !requireMembership(w, r, st, gameID, claims.UserID) {
			return
		}

		msgs, err := st.ListChatMessages(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("list chat messages")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		users, err := st.ListUsersInGame(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("list users")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		byID := make(map[int64]*store.User, len(users))
		for i := range users {
			byID[users[i].ID] = &users[i]
		}

		entries := make([]chatEntryPayload, 0, len(msgs))
		for _, m := range msgs {
			entry := chatEntryPayload{
				Message:   m.TextContent,
				Owner:     "Unknown",
				UserID:    m.UserID,
				Timestamp: m.Timestamp.Format(time.RFC3339),
			}
			if u, ok := byID[m.UserID]; ok {
				entry.Owner = u.Username
				entry.UserPPPath = assets.DataURL(u.ProfilePicture, "image/png")
			}
			entries = append(entries, entry)
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": entries})
	}
}
