package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ASAPmarius/WebBackend/internal/game"
)

const gameColumns = `"idGame", "DateCreated", "GameType", "GameStatus", "GameState"`

func scanGame(row pgx.Row) (*Game, error) {
	var g Game
	if err := row.Scan(&g.ID, &g.DateCreated, &g.GameType, &g.GameStatus, &g.GameState); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// CreateGame inserts an active game with its initial state blob and returns
// the new id.
func (s *Store) CreateGame(ctx context.Context, gameType string, state *game.State) (int64, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("marshal game state: %w", err)
	}
	var id int64
	err = s.Pool.QueryRow(ctx,
		`INSERT INTO "Game" ("GameType", "GameStatus", "GameState") VALUES ($1, $2, $3) RETURNING "idGame"`,
		gameType, GameStatusActive, raw).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetGameByID(ctx context.Context, gameID int64) (*Game, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM "Game" WHERE "idGame" = $1`, gameID)
	return scanGame(row)
}

// ListActiveGames returns every joinable game, newest first.
func (s *Store) ListActiveGames(ctx context.Context) ([]Game, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+gameColumns+` FROM "Game" WHERE "GameStatus" = $1 ORDER BY "DateCreated" DESC`,
		GameStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.DateCreated, &g.GameType, &g.GameStatus, &g.GameState); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// JoinGame adds a user to an active game. Joining a game the user already
// belongs to succeeds without a duplicate row.
func (s *Store) JoinGame(ctx context.Context, userID, gameID int64) error {
	var status string
	err := s.Pool.QueryRow(ctx,
		`SELECT "GameStatus" FROM "Game" WHERE "idGame" = $1`, gameID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status != GameStatusActive {
		return fmt.Errorf("game %d is not active", gameID)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO "Game_Users" ("idUsers", "idGame") VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, gameID)
	return err
}

// ReactivateGame flips a game back to active, used when a finished table is
// restarted in place.
func (s *Store) ReactivateGame(ctx context.Context, gameID int64) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE "Game" SET "GameStatus" = $1 WHERE "idGame" = $2`, GameStatusActive, gameID)
	return err
}

// LoadGameState implements game.Gateway.
func (s *Store) LoadGameState(ctx context.Context, gameID int64) (*game.State, error) {
	var raw []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT "GameState" FROM "Game" WHERE "idGame" = $1`, gameID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, game.ErrGameNotFound
	}
	var st game.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal game %d state: %w", gameID, err)
	}
	return &st, nil
}

// SaveGameState implements game.Gateway.
func (s *Store) SaveGameState(ctx context.Context, gameID int64, st *game.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE "Game" SET "GameState" = $1 WHERE "idGame" = $2`, raw, gameID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

// ListPlayersInGame implements game.Gateway. Join order is preserved so the
// first two rows are the dealt pair.
func (s *Store) ListPlayersInGame(ctx context.Context, gameID int64) ([]game.PlayerInfo, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT u."idUser", u."Username", u."Profile_picture" IS NOT NULL
		 FROM "User" u
		 INNER JOIN "Game_Users" gu ON u."idUser" = gu."idUsers"
		 WHERE gu."idGame" = $1
		 ORDER BY gu."idUsers"`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []game.PlayerInfo
	for rows.Next() {
		var p game.PlayerInfo
		if err := rows.Scan(&p.ID, &p.Username, &p.HasPicture); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// MarkGameFinished implements game.Gateway.
func (s *Store) MarkGameFinished(ctx context.Context, gameID int64) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE "Game" SET "GameStatus" = $1 WHERE "idGame" = $2 AND "GameStatus" <> $1`,
		GameStatusFinished, gameID)
	return err
}

// FindActiveGameForUser implements game.Gateway: the most recent active game
// the user belongs to, or ErrNotFound.
func (s *Store) FindActiveGameForUser(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx,
		`SELECT g."idGame" FROM "Game" g
		 INNER JOIN "Game_Users" gu ON g."idGame" = gu."idGame"
		 WHERE gu."idUsers" = $1 AND g."GameStatus" = $2
		 ORDER BY g."DateCreated" DESC LIMIT 1`,
		userID, GameStatusActive).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}
