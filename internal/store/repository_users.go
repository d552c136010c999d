package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const userColumns = `"idUser", "Username", "Password", "Profile_picture", "isAdmin", "Bio", "Favorite_song"`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.ProfilePicture, &u.IsAdmin, &u.Bio, &u.FavoriteSong); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM "User" WHERE "idUser" = $1`, userID)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM "User" WHERE "Username" = $1`, username)
	return scanUser(row)
}

// CreateUser inserts a new account with a pre-hashed password. Non-admin by
// default.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, picture []byte, bio, favoriteSong *string) (*User, error) {
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO "User" ("Username", "Password", "Profile_picture", "isAdmin", "Bio", "Favorite_song")
		 VALUES ($1, $2, $3, false, $4, $5)
		 RETURNING `+userColumns,
		username, passwordHash, picture, bio, favoriteSong)
	return scanUser(row)
}

// ListUsersInGame returns the full user rows for a game's members, profile
// pictures included, in join order.
func (s *Store) ListUsersInGame(ctx context.Context, gameID int64) ([]User, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM "User" u
		 INNER JOIN "Game_Users" gu ON u."idUser" = gu."idUsers"
		 WHERE gu."idGame" = $1
		 ORDER BY gu."idUsers"`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.ProfilePicture, &u.IsAdmin, &u.Bio, &u.FavoriteSong); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateProfile overwrites the user's bio, favorite song and, when picture
// is non-nil, profile picture.
func (s *Store) UpdateProfile(ctx context.Context, userID int64, bio, favoriteSong *string, picture []byte) (*User, error) {
	current, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if picture == nil {
		picture = current.ProfilePicture
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE "User" SET "Bio" = $1, "Favorite_song" = $2, "Profile_picture" = $3
		 WHERE "idUser" = $4
		 RETURNING `+userColumns,
		bio, favoriteSong, picture, userID)
	return scanUser(row)
}
