package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) InsertContactMessage(ctx context.Context, msg ContactMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, message, created_at, read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.Name, msg.Email, msg.Message, msg.CreatedAt, msg.Read)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// ListContactMessages returns the newest messages first. When unreadOnly is
// set, messages already marked read are skipped.
func (s *PostgresStore) ListContactMessages(ctx context.Context, unreadOnly bool, limit int) ([]ContactMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, created_at, read
		FROM contact_messages
		WHERE ($1 = FALSE OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $2
	`, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	messages := make([]ContactMessage, 0)
	for rows.Next() {
		var msg ContactMessage
		if err := rows.Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Message, &msg.CreatedAt, &msg.Read); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact messages: %w", err)
	}
	return messages, nil
}

func (s *PostgresStore) MarkContactMessageRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE contact_messages SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark contact message read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark contact message read: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
