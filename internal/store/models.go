package store

import "time"

// User mirrors the "User" table. Bio and FavoriteSong are nullable.
type User struct {
	ID             int64
	Username       string
	Password       string
	ProfilePicture []byte
	IsAdmin        bool
	Bio            *string
	FavoriteSong   *string
}

// Game mirrors the "Game" table. GameState holds the serialized state blob
// and is nil until the first deal.
type Game struct {
	ID          int64
	DateCreated time.Time
	GameType    string
	GameStatus  string
	GameState   []byte
}

// ChatMessage mirrors the "ChatMessages" table.
type ChatMessage struct {
	ID          int64
	GameID      int64
	UserID      int64
	TextContent string
	Timestamp   time.Time
}

// CardAsset mirrors the "Cards" table: one PNG per card type.
type CardAsset struct {
	ID      int
	Picture []byte
}

const (
	GameStatusActive   = "active"
	GameStatusFinished = "finished"
)
