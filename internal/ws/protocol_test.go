package ws

import (
	"testing"

	"github.com/ASAPmarius/WebBackend/internal/game"
)

func TestDecodeInboundVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want func(t *testing.T, msg Inbound)
	}{
		{
			name: "join_game",
			raw:  `{"type":"join_game","gameId":7,"auth_token":"tok"}`,
			want: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*JoinGameRequest)
				if !ok {
					t.Fatalf("decoded %T, want *JoinGameRequest", msg)
				}
				if m.GameID != 7 || m.AuthToken != "tok" {
					t.Errorf("decoded %+v", m)
				}
			},
		},
		{
			name: "player_action",
			raw:  `{"type":"player_action","gameId":7,"auth_token":"tok","action":{"type":"play_card","cardId":13}}`,
			want: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*PlayerActionRequest)
				if !ok {
					t.Fatalf("decoded %T, want *PlayerActionRequest", msg)
				}
				if m.Action.Type != "play_card" || m.Action.CardID != 13 {
					t.Errorf("action = %+v", m.Action)
				}
			},
		},
		{
			name: "chat_message",
			raw:  `{"type":"chat_message","gameId":7,"auth_token":"tok","message":"hi"}`,
			want: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*ChatMessageRequest)
				if !ok {
					t.Fatalf("decoded %T, want *ChatMessageRequest", msg)
				}
				if m.Message != "hi" {
					t.Errorf("message = %q", m.Message)
				}
			},
		},
		{
			name: "update_game_state",
			raw:  `{"type":"update_game_state","gameId":7,"auth_token":"tok","gameState":{"round":4,"phase":"finished"}}`,
			want: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*UpdateGameStateRequest)
				if !ok {
					t.Fatalf("decoded %T, want *UpdateGameStateRequest", msg)
				}
				if m.GameState.Round == nil || *m.GameState.Round != 4 {
					t.Errorf("round = %v", m.GameState.Round)
				}
				if m.GameState.Phase == nil || *m.GameState.Phase != game.PhaseFinished {
					t.Errorf("phase = %v", m.GameState.Phase)
				}
			},
		},
		{
			name: "update_game_state partial",
			raw:  `{"type":"update_game_state","gameId":7,"auth_token":"tok","gameState":{"round":4}}`,
			want: func(t *testing.T, msg Inbound) {
				m := msg.(*UpdateGameStateRequest)
				if m.GameState.Phase != nil {
					t.Errorf("absent phase decoded as %v", *m.GameState.Phase)
				}
			},
		},
		{
			name: "turn_change",
			raw:  `{"type":"turn_change","gameId":7,"auth_token":"tok","playerId":2,"username":"bob"}`,
			want: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*TurnChangeRequest)
				if !ok {
					t.Fatalf("decoded %T, want *TurnChangeRequest", msg)
				}
				if m.PlayerID != 2 || m.Username != "bob" {
					t.Errorf("decoded %+v", m)
				}
			},
		},
		{
			name: "redirect_to_lobby",
			raw:  `{"type":"redirect_to_lobby","gameId":7,"auth_token":"tok"}`,
			want: func(t *testing.T, msg Inbound) {
				if _, ok := msg.(*RedirectToLobbyRequest); !ok {
					t.Fatalf("decoded %T, want *RedirectToLobbyRequest", msg)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeInbound([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeInbound: %v", err)
			}
			if msg.authToken() != "tok" {
				t.Errorf("authToken = %q, want tok", msg.authToken())
			}
			tt.want(t, msg)
		})
	}
}

func TestDecodeInboundRejects(t *testing.T) {
	for _, raw := range []string{
		`{"type":"drop_table"}`,
		`{"type":""}`,
		`not json`,
		`{"type":"join_game","gameId":"seven"}`,
	} {
		if _, err := DecodeInbound([]byte(raw)); err == nil {
			t.Errorf("DecodeInbound(%q) accepted", raw)
		}
	}
}
