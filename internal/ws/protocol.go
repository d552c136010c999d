package ws

import (
	"encoding/json"
	"fmt"

	"github.com/ASAPmarius/WebBackend/internal/game"
)

// Inbound is the closed set of messages clients may send over the socket.
// Every variant carries the auth token the sender proves itself with.
type Inbound interface {
	authToken() string
}

type baseRequest struct {
	AuthToken string `json:"auth_token"`
}

func (b baseRequest) authToken() string { return b.AuthToken }

type JoinGameRequest struct {
	baseRequest
	GameID int64 `json:"gameId"`
}

type PlayerActionRequest struct {
	baseRequest
	GameID int64              `json:"gameId"`
	Action game.ActionPayload `json:"action"`
}

type ChatMessageRequest struct {
	baseRequest
	GameID  int64  `json:"gameId"`
	Message string `json:"message"`
}

type ConnectedUsersRequest struct {
	baseRequest
	GameID int64 `json:"gameId"`
}

type GameStateRequest struct {
	baseRequest
	GameID int64 `json:"gameId"`
}

// StatePatch is the subset of state fields clients may overwrite directly.
type StatePatch struct {
	Round *int        `json:"round"`
	Phase *game.Phase `json:"phase"`
}

type UpdateGameStateRequest struct {
	baseRequest
	GameID    int64      `json:"gameId"`
	GameState StatePatch `json:"gameState"`
}

type UpdateRoundRequest struct {
	baseRequest
	GameID int64 `json:"gameId"`
	Round  int   `json:"round"`
}

type TurnChangeRequest struct {
	baseRequest
	GameID   int64  `json:"gameId"`
	PlayerID int64  `json:"playerId"`
	Username string `json:"username"`
}

type RedirectToLobbyRequest struct {
	baseRequest
	GameID int64 `json:"gameId"`
}

// DecodeInbound parses a raw client frame into its typed message. Unknown
// types are an error; the read loop drops them.
func DecodeInbound(data []byte) (Inbound, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode message header: %w", err)
	}

	var msg Inbound
	switch head.Type {
	case "join_game":
		msg = &JoinGameRequest{}
	case "player_action":
		msg = &PlayerActionRequest{}
	case "chat_message":
		msg = &ChatMessageRequest{}
	case "connected_users":
		msg = &ConnectedUsersRequest{}
	case "game_state_request":
		msg = &GameStateRequest{}
	case "update_game_state":
		msg = &UpdateGameStateRequest{}
	case "update_round":
		msg = &UpdateRoundRequest{}
	case "turn_change":
		msg = &TurnChangeRequest{}
	case "redirect_to_lobby":
		msg = &RedirectToLobbyRequest{}
	default:
		return nil, fmt.Errorf("unknown message type %q", head.Type)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s message: %w", head.Type, err)
	}
	return msg, nil
}

// Outbound messages owned by the socket layer. Game broadcasts live in the
// game package.

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type CardBackMessage struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

type JoinGameSuccessMessage struct {
	Type   string `json:"type"`
	GameID int64  `json:"gameId"`
}

// ConnectedUser is one row of the presence list broadcast on every join and
// disconnect.
type ConnectedUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	PPPath    string `json:"pp_path"`
	Connected bool   `json:"connected"`
}

type ConnectedUsersMessage struct {
	Type  string          `json:"type"`
	Users []ConnectedUser `json:"users"`
}

type ChatBroadcast struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Owner      string `json:"owner"`
	UserPPPath string `json:"user_pp_path"`
	UserID     int64  `json:"userId"`
}
