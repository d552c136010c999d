package game

import "context"

// PlayerInfo is the slice of a user record the engine needs: identity, the
// name used in broadcasts, and whether a profile picture exists.
type PlayerInfo struct {
	ID         int64
	Username   string
	HasPicture bool
}

// Gateway is the narrow persistence surface the engine depends on. The
// Postgres store implements it; engine tests run against an in-memory fake.
type Gateway interface {
	// LoadGameState returns ErrGameNotFound when the game has no state blob.
	LoadGameState(ctx context.Context, gameID int64) (*State, error)
	SaveGameState(ctx context.Context, gameID int64, state *State) error
	ListPlayersInGame(ctx context.Context, gameID int64) ([]PlayerInfo, error)
	// MarkGameFinished is idempotent; finishing a finished game is a no-op.
	MarkGameFinished(ctx context.Context, gameID int64) error
	FindActiveGameForUser(ctx context.Context, userID int64) (int64, error)
}

// Notifier is the engine's only way to reach clients. Implementations fan a
// message out to every live socket in the game, isolating per-socket send
// failures, and preserve per-game ordering.
type Notifier interface {
	NotifyGame(gameID int64, message any)
}
