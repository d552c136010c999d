package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/auth"
	"github.com/ASAPmarius/WebBackend/internal/game"
	"github.com/ASAPmarius/WebBackend/internal/store"
)

// gamePayload is the "Game" row shape clients already consume.
type gamePayload struct {
	ID          int64           `json:"idGame"`
	DateCreated string          `json:"DateCreated"`
	GameType    string          `json:"GameType"`
	GameStatus  string          `json:"GameStatus"`
	GameState   json.RawMessage `json:"GameState,omitempty"`
}

type gamePlayerPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func gameToPayload(g *store.Game) gamePayload {
	return gamePayload{
		ID:          g.ID,
		DateCreated: g.DateCreated.Format("2006-01-02T15:04:05.000Z07:00"),
		GameType:    g.GameType,
		GameStatus:  g.GameStatus,
		GameState:   g.GameState,
	}
}

func createGameHandler(st *store.Store, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GameType string `json:"gameType"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.GameType == "" {
			req.GameType = game.GameTypeWar
		}
		claims := claimsFrom(r)

		// A user with a running game gets that one back instead of a new
		// table.
		if gameID, err := st.FindActiveGameForUser(r.Context(), claims.UserID); err == nil {
			existing, err := st.GetGameByID(r.Context(), gameID)
			if err != nil {
				log.Error().Err(err).Int64("game_id", gameID).Msg("load existing game")
				writeHTTPError(w, http.StatusInternalServerError, "Failed to create game")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"game": gameToPayload(existing)})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("lookup active game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create game")
			return
		}

		initial, err := engine.InitialState(r.Context(), 0, req.GameType)
		if err != nil {
			log.Error().Err(err).Msg("build initial game state")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create game")
			return
		}
		gameID, err := st.CreateGame(r.Context(), req.GameType, initial)
		if err != nil {
			log.Error().Err(err).Msg("create game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create game")
			return
		}
		if err := st.JoinGame(r.Context(), claims.UserID, gameID); err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("add creator to game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create game")
			return
		}
		created, err := st.GetGameByID(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("load created game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to create game")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"game": gameToPayload(created)})
	}
}

func listGamesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := st.ListActiveGames(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("list active games")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to fetch active games")
			return
		}
		payload := make([]map[string]any, 0, len(games))
		for i := range games {
			players, err := st.ListPlayersInGame(r.Context(), games[i].ID)
			if err != nil {
				log.Error().Err(err).Int64("game_id", games[i].ID).Msg("list players")
				writeHTTPError(w, http.StatusInternalServerError, "Failed to fetch active games")
				return
			}
			list := make([]gamePlayerPayload, 0, len(players))
			for _, p := range players {
				list = append(list, gamePlayerPayload{ID: p.ID, Username: p.Username})
			}
			payload = append(payload, map[string]any{
				"idGame":      games[i].ID,
				"DateCreated": games[i].DateCreated,
				"GameType":    games[i].GameType,
				"GameStatus":  games[i].GameStatus,
				"players":     list,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"games": payload})
	}
}

func joinGameHandler(st *store.Store, issuer *auth.TokenIssuer) http.HandlerFunc {
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

		var req struct {
			GameID int64 `json:"gameId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == 0 {
			writeHTTPError(w, http.StatusBadRequest, "Missing game ID")
			return
		}

		if err := st.JoinGame(r.Context(), claims.UserID, req.GameID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeHTTPError(w, http.StatusNotFound, "Game not found or not active")
				return
			}
			log.Error().Err(err).Int64("game_id", req.GameID).Msg("join game")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Successfully joined game",
			"gameId":  req.GameID,
		})
	}
}

// requireMembership loads the game and checks the caller belongs to it.
// Writes the error response itself and reports whether to continue.
func requireMembership(w http.ResponseWriter, r *http.Request, st *store.Store, gameID, userID int64) bool {
	if _, err := st.GetGameByID(r.Context(), gameID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeHTTPError(w, http.StatusNotFound, "Game not found")
			return false
		}
		log.Error().Err(err).Int64("game_id", gameID).Msg("load game")
		writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	players, err := st.ListPlayersInGame(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Int64("game_id", gameID).Msg("list players")
		writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	for _, p := range players {
		if p.ID == userID {
			return true
		}
	}
	writeHTTPError(w, http.StatusForbidden, "You are not in this game")
	return false
}

func startGameHandler(st *store.Store, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GameID int64 `json:"gameId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == 0 {
			writeHTTPError(w, http.StatusBadRequest, "Missing game ID")
			return
		}
		claims := claimsFrom(r)
		if !requireMembership(w, r, st, req.GameID, claims.UserID) {
			return
		}
		if err := engine.StartGame(r.Context(), req.GameID); err != nil {
			if errors.Is(err, game.ErrNotEnoughPlayers) {
				writeHTTPError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Error().Err(err).Int64("game_id", req.GameID).Msg("start game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to start game")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func restartGameHandler(st *store.Store, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GameID int64 `json:"gameId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == 0 {
			writeHTTPError(w, http.StatusBadRequest, "Missing game ID")
			return
		}
		claims := claimsFrom(r)
		if !requireMembership(w, r, st, req.GameID, claims.UserID) {
			return
		}
		if err := st.ReactivateGame(r.Context(), req.GameID); err != nil {
			log.Error().Err(err).Int64("game_id", req.GameID).Msg("reactivate game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to restart game")
			return
		}
		if err := engine.RestartGame(r.Context(), req.GameID); err != nil {
			if errors.Is(err, game.ErrNotEnoughPlayers) {
				writeHTTPError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Error().Err(err).Int64("game_id", req.GameID).Msg("restart game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to restart game")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func finishGameHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GameID int64 `json:"gameId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == 0 {
			writeHTTPError(w, http.StatusBadRequest, "Missing game ID")
			return
		}
		if err := st.MarkGameFinished(r.Context(), req.GameID); err != nil {
			log.Error().Err(err).Int64("game_id", req.GameID).Msg("finish game")
			writeHTTPError(w, http.StatusInternalServerError, "Failed to finish game")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func activeGameHandler(st *store.Store, issuer *auth.TokenIssuer) http.HandlerFunc {
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
			writeHTTPError(w, http.StatusNotFound, "No active game found")
			return
		}
		if err != nil {
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("lookup active game")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		g, err := st.GetGameByID(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("load game")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		players, err := st.ListPlayersInGame(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Int64("game_id", gameID).Msg("list players")
			writeHTTPError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		// Card counts come from the state blob so the lobby can show hand
		// sizes without the hands themselves.
		counts := map[int64]int{}
		if len(g.GameState) > 0 {
			var gs game.State
			if err := json.Unmarshal(g.GameState, &gs); err == nil {
				for id, hand := range gs.PlayerHands {
					counts[id] = len(hand)
				}
			}
		}
		list := make([]map[string]any, 0, len(players))
		for _, p := range players {
			list = append(list, map[string]any{
				"id":        p.ID,
				"username":  p.Username,
				"cardCount": counts[p.ID],
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"game":    gameToPayload(g),
			"players": list,
		})
	}
}
