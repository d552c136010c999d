package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ListCardAssets returns every card picture ordered by card type id, the
// same order the deck package maps metadata onto.
func (s *Store) ListCardAssets(ctx context.Context) ([]CardAsset, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT "idCardType", "Picture" FROM "Cards" ORDER BY "idCardType"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []CardAsset
	for rows.Next() {
		var c CardAsset
		if err := rows.Scan(&c.ID, &c.Picture); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetCardAsset returns a single card picture by card type id.
func (s *Store) GetCardAsset(ctx context.Context, cardTypeID int) (*CardAsset, error) {
	var c CardAsset
	err := s.Pool.QueryRow(ctx,
		`SELECT "idCardType", "Picture" FROM "Cards" WHERE "idCardType" = $1`, cardTypeID).
		Scan(&c.ID, &c.Picture)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCardAssets reports how many card pictures are loaded; the standard
// set plus joker and back is 54.
func (s *Store) CountCardAssets(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM "Cards"`).Scan(&n)
	return n, err
}
