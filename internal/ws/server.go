package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ASAPmarius/WebBackend/internal/assets"
	"github.com/ASAPmarius/WebBackend/internal/auth"
	"github.com/ASAPmarius/WebBackend/internal/deck"
	"github.com/ASAPmarius/WebBackend/internal/game"
	"github.com/ASAPmarius/WebBackend/internal/store"
)

// Client is one live socket session. All writes go through the send channel
// so the write loop is the only goroutine touching the connection for
// output.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	userID    int64
	username  string
}

// Server owns the websocket endpoint: handshake auth, the session registry,
// message dispatch into the engine and fan-out of engine broadcasts. It is
// the game.Notifier the engine publishes through.
type Server struct {
	store    *store.Store
	engine   *game.Engine
	issuer   *auth.TokenIssuer
	sessions *auth.SessionStore
	registry *Registry
	upgrader websocket.Upgrader
}

func NewServer(st *store.Store, issuer *auth.TokenIssuer, sessions *auth.SessionStore) *Server {
	return &Server{
		store:    st,
		issuer:   issuer,
		sessions: sessions,
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// SetEngine wires the engine in after construction; the engine needs the
// server as its notifier, so the two are linked in two steps.
func (s *Server) SetEngine(e *game.Engine) { s.engine = e }

// Registry exposes the session registry to the HTTP layer for presence
// checks at login.
func (s *Server) Registry() *Registry { return s.registry }

// NotifyGame implements game.Notifier: marshal once, fan out to every live
// session in the game. A full or closed send channel drops that one client's
// message without affecting the rest.
func (s *Server) NotifyGame(gameID int64, message any) {
	raw, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Int64("game_id", gameID).Msg("marshal broadcast")
		return
	}
	for _, c := range s.registry.ByGame(gameID) {
		safeSend(c.send, raw)
	}
}

// DisconnectUser force-closes the user's session, if any. Cleanup runs
// through the read loop's teardown path.
func (s *Server) DisconnectUser(username string) {
	if c := s.registry.Get(username); c != nil {
		_ = c.conn.Close()
	}
}

// BroadcastConnectedUsers refreshes the presence list for everyone in the
// game; the HTTP layer calls it after an explicit disconnect.
func (s *Server) BroadcastConnectedUsers(ctx context.Context, gameID int64) {
	s.broadcastConnectedUsers(ctx, gameID)
}

// AnyUserConnected reports whether any of the given users has a live
// session.
func (s *Server) AnyUserConnected(users []store.User) bool {
	for _, u := range users {
		if s.registry.IsOnline(u.ID) {
			return true
		}
	}
	return false
}

// tokenFromRequest pulls the auth token from the query string, the
// auth_token cookie or the Authorization header, in that order.
func tokenFromRequest(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing authentication token", http.StatusUnauthorized)
		return
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		http.Error(w, "invalid authentication token", http.StatusUnauthorized)
		return
	}
	if s.registry.IsUsernameConnected(claims.UserName) {
		http.Error(w, "user is already connected", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 16),
		sessionID: newSessionID(),
		userID:    claims.UserID,
		username:  claims.UserName,
	}
	if !s.registry.Register(client) {
		_ = conn.Close()
		return
	}

	go s.writeLoop(client)

	log.Info().Str("session_id", client.sessionID).Str("username", client.username).
		Int64("user_id", client.userID).Int("total", s.registry.Len()).Msg("websocket connected")

	ctx := r.Context()
	s.sendCardBack(ctx, client)

	if gameID, err := s.store.FindActiveGameForUser(ctx, client.userID); err == nil {
		s.registry.SetGame(client, gameID)
		s.broadcastConnectedUsers(ctx, gameID)
		s.sendGameState(ctx, client, gameID)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Int64("user_id", client.userID).Msg("lookup active game")
	}

	s.readLoop(client)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		gameID := s.registry.Unregister(c)
		safeClose(c.send)
		_ = c.conn.Close()
		if gameID != 0 {
			s.broadcastConnectedUsers(context.Background(), gameID)
		}
		log.Info().Str("session_id", c.sessionID).Str("username", c.username).
			Int("remaining", s.registry.Len()).Msg("websocket disconnected")
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := DecodeInbound(raw)
		if err != nil {
			log.Debug().Err(err).Str("username", c.username).Msg("drop unreadable message")
			continue
		}
		if !s.authorized(c, msg) {
			log.Warn().Str("username", c.username).Msg("drop unauthorized message")
			continue
		}
		s.handleMessage(context.Background(), c, msg)
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// authorized checks the per-message token: it must be a valid token for the
// session's own user and still be the user's current session.
func (s *Server) authorized(c *Client, msg Inbound) bool {
	claims, err := s.issuer.Verify(msg.authToken())
	if err != nil || claims.UserName != c.username {
		return false
	}
	ok, err := s.sessions.Validate(context.Background(), c.username, msg.authToken())
	if err != nil {
		log.Error().Err(err).Str("username", c.username).Msg("session lookup failed")
		return false
	}
	return ok
}

func (s *Server) handleMessage(ctx context.Context, c *Client, msg Inbound) {
	switch m := msg.(type) {
	case *JoinGameRequest:
		s.handleJoinGame(ctx, c, m)
	case *PlayerActionRequest:
		s.handlePlayerAction(ctx, c, m)
	case *ChatMessageRequest:
		s.handleChat(ctx, c, m)
	case *ConnectedUsersRequest:
		s.broadcastConnectedUsers(ctx, m.GameID)
	case *GameStateRequest:
		s.sendGameState(ctx, c, m.GameID)
	case *UpdateGameStateRequest:
		if err := s.engine.PatchState(ctx, m.GameID, m.GameState.Round, m.GameState.Phase); err != nil {
			s.sendError(c, "Failed to update game state")
		}
	case *UpdateRoundRequest:
		if err := s.engine.SetRound(ctx, m.GameID, m.Round); err != nil {
			s.sendError(c, "Failed to update round")
		}
	case *TurnChangeRequest:
		if err := s.engine.SetTurn(ctx, m.GameID, m.PlayerID); err != nil {
			s.sendError(c, "Failed to process turn change")
		}
	case *RedirectToLobbyRequest:
		s.NotifyGame(m.GameID, game.RedirectToLobbyMessage{Type: "redirect_to_lobby"})
	}
}

func (s *Server) handleJoinGame(ctx context.Context, c *Client, m *JoinGameRequest) {
	if m.GameID == 0 {
		s.sendError(c, "Missing game ID")
		return
	}
	if err := s.store.JoinGame(ctx, c.userID, m.GameID); err != nil {
		log.Error().Err(err).Int64("user_id", c.userID).Int64("game_id", m.GameID).Msg("join game")
		s.sendError(c, "Failed to join game")
		return
	}
	s.registry.SetGame(c, m.GameID)
	s.sendTo(c, JoinGameSuccessMessage{Type: "join_game_success", GameID: m.GameID})
	s.broadcastConnectedUsers(ctx, m.GameID)
	s.sendGameState(ctx, c, m.GameID)
}

func (s *Server) handlePlayerAction(ctx context.Context, c *Client, m *PlayerActionRequest) {
	if m.GameID == 0 || m.Action.Type == "" {
		s.sendError(c, "Missing game ID or action")
		return
	}
	switch m.Action.Type {
	case "play_card":
		if m.Action.CardID == 0 {
			s.sendError(c, "Missing card ID in player action")
			return
		}
		if err := s.engine.PlayCard(ctx, m.GameID, c.userID, m.Action.CardID); err != nil {
			s.sendError(c, playErrorText(err))
		}
	case "play_war_card":
		// Wars resolve automatically; a manual war play has nothing to do.
		log.Debug().Int64("game_id", m.GameID).Int64("user_id", c.userID).Msg("ignoring manual war card play")
	default:
		// Unrecognized actions are relayed untouched so clients can layer
		// their own signals over the table.
		s.NotifyGame(m.GameID, game.PlayerActionMessage{
			Type:     "player_action",
			PlayerID: c.userID,
			Username: c.username,
			Action:   m.Action,
		})
	}
}

func playErrorText(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, game.ErrAlreadyPlayed):
		return "You already played a card this round"
	case errors.Is(err, game.ErrCardNotInHand):
		return "Card not in hand"
	case errors.Is(err, game.ErrWrongPhase):
		return "Game is not in progress"
	case errors.Is(err, game.ErrGameNotFound):
		return "Game state not found"
	default:
		return "Failed to process action"
	}
}

func (s *Server) handleChat(ctx context.Context, c *Client, m *ChatMessageRequest) {
	if m.GameID == 0 || m.Message == "" {
		return
	}
	if _, err := s.store.RecordChatMessage(ctx, m.GameID, c.userID, m.Message); err != nil {
		log.Error().Err(err).Int64("game_id", m.GameID).Msg("record chat message")
		return
	}
	ppPath := ""
	if user, err := s.store.GetUserByID(ctx, c.userID); err == nil && len(user.ProfilePicture) > 0 {
		ppPath = assets.DataURL(user.ProfilePicture, "image/png")
	}
	s.NotifyGame(m.GameID, ChatBroadcast{
		Type:       "message",
		Message:    m.Message,
		Owner:      c.username,
		UserPPPath: ppPath,
		UserID:     c.userID,
	})
}

func (s *Server) broadcastConnectedUsers(ctx context.Context, gameID int64) {
	users, err := s.store.ListUsersInGame(ctx, gameID)
	if err != nil {
		log.Error().Err(err).Int64("game_id", gameID).Msg("list users in game")
		return
	}
	list := make([]ConnectedUser, 0, len(users))
	for _, u := range users {
		ppPath := ""
		if len(u.ProfilePicture) > 0 {
			ppPath = assets.DataURL(u.ProfilePicture, "image/png")
		}
		list = append(list, ConnectedUser{
			ID:        u.ID,
			Username:  u.Username,
			PPPath:    ppPath,
			Connected: s.registry.IsOnline(u.ID),
		})
	}
	s.NotifyGame(gameID, ConnectedUsersMessage{Type: "connected_users", Users: list})
}

func (s *Server) sendGameState(ctx context.Context, c *Client, gameID int64) {
	st, err := s.engine.Snapshot(ctx, gameID)
	if err != nil && !errors.Is(err, game.ErrGameNotFound) {
		log.Error().Err(err).Int64("game_id", gameID).Msg("load game state")
		return
	}
	s.sendTo(c, game.GameStateMessage{Type: "game_state", GameState: st})
}

func (s *Server) sendCardBack(ctx context.Context, c *Client) {
	asset, err := s.store.GetCardAsset(ctx, deck.BackID)
	if err != nil {
		log.Error().Err(err).Msg("load card back image")
		return
	}
	s.sendTo(c, CardBackMessage{Type: "card_back", Image: assets.DataURL(asset.Picture, "image/png")})
}

func (s *Server) sendError(c *Client, text string) {
	s.sendTo(c, ErrorMessage{Type: "error", Message: text})
}

func (s *Server) sendTo(c *Client, message any) {
	raw, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("marshal message")
		return
	}
	safeSend(c.send, raw)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	ch <- msg
}
