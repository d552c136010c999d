package game

// Outbound message payloads broadcast by the engine. Field names are part of
// the client contract and must not change.

type GameStateMessage struct {
	Type      string `json:"type"`
	GameState *State `json:"gameState"`
}

type TurnChangeMessage struct {
	Type     string `json:"type"`
	PlayerID int64  `json:"playerId"`
	Username string `json:"username,omitempty"`
	WarMode  bool   `json:"warMode,omitempty"`
}

type ActionPayload struct {
	Type    string `json:"type"`
	CardID  int    `json:"cardId,omitempty"`
	WarMode bool   `json:"warMode,omitempty"`
}

type PlayerActionMessage struct {
	Type     string        `json:"type"`
	PlayerID int64         `json:"playerId"`
	Username string        `json:"username"`
	Action   ActionPayload `json:"action"`
}

type RoundResultMessage struct {
	Type       string `json:"type"`
	WinnerID   int64  `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	CardCount  int    `json:"cardCount"`
	NewRound   int    `json:"newRound"`
	Reason     string `json:"reason"`
}

type WarStartMessage struct {
	Type        string `json:"type"`
	WarRound    int    `json:"warRound"`
	WarPileSize int    `json:"warPileSize,omitempty"`
	Message     string `json:"message,omitempty"`
}

type WarProgressMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Player1     string `json:"player1"`
	Player2     string `json:"player2"`
	WarPileSize int    `json:"warPileSize"`
}

type GameEndMessage struct {
	Type       string `json:"type"`
	WinnerID   int64  `json:"winnerId"`
	WinnerName string `json:"winnerName"`
}

type GameRestartMessage struct {
	Type   string `json:"type"`
	GameID int64  `json:"gameId"`
}

type RedirectToLobbyMessage struct {
	Type string `json:"type"`
}
