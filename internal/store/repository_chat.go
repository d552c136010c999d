package store

import "context"

// RecordChatMessage persists a chat line and returns it with the assigned id
// and timestamp.
func (s *Store) RecordChatMessage(ctx context.Context, gameID, userID int64, text string) (*ChatMessage, error) {
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO "ChatMessages" ("idGame", "idUser", "TextContent") VALUES ($1, $2, $3)
		 RETURNING "idMessages", "idGame", "idUser", "TextContent", "Timestamp"`,
		gameID, userID, text)
	var m ChatMessage
	if err := row.Scan(&m.ID, &m.GameID, &m.UserID, &m.TextContent, &m.Timestamp); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListChatMessages returns a game's chat history in send order.
func (s *Store) ListChatMessages(ctx context.Context, gameID int64) ([]ChatMessage, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT "idMessages", "idGame", "idUser", "TextContent", "Timestamp"
		 FROM "ChatMessages" WHERE "idGame" = $1 ORDER BY "Timestamp"`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.GameID, &m.UserID, &m.TextContent, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
