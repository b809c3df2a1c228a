package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"messagely/internal/domain"
	"messagely/internal/repository"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	from_username TEXT NOT NULL REFERENCES users(username),
	to_username TEXT NOT NULL REFERENCES users(username),
	body TEXT NOT NULL,
	sent_at DATETIME NOT NULL,
	read_at DATETIME NULL
);
`

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMessagesTable); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO messages (id, from_username, to_username, body, sent_at, read_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.FromUsername,
		msg.ToUsername,
		msg.Body,
		msg.SentAt,
		msg.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, from_username, to_username, body, sent_at, read_at
FROM messages
WHERE id = ?`,
		id,
	)
	return scanMessage(row)
}

// MarkRead sets read_at exactly once. The conditional update makes the
// transition atomic: a message that is already read is returned unchanged.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*domain.Message, error) {
	if _, err := r.db.ExecContext(ctx, `
UPDATE messages SET read_at = ? WHERE id = ? AND read_at IS NULL`,
		at.UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *MessageRepository) ListTo(ctx context.Context, username string) ([]domain.Message, error) {
	return r.list(ctx, `
SELECT id, from_username, to_username, body, sent_at, read_at
FROM messages
WHERE to_username = ?
ORDER BY sent_at`,
		username,
	)
}

func (r *MessageRepository) ListFrom(ctx context.Context, username string) ([]domain.Message, error) {
	return r.list(ctx, `
SELECT id, from_username, to_username, body, sent_at, read_at
FROM messages
WHERE from_username = ?
ORDER BY sent_at`,
		username,
	)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func scanMessage(row interface {
	Scan(dest ...any) error
}) (*domain.Message, error) {
	var (
		msg    domain.Message
		readAt sql.NullTime
	)
	if err := row.Scan(
		&msg.ID,
		&msg.FromUsername,
		&msg.ToUsername,
		&msg.Body,
		&msg.SentAt,
		&readAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if readAt.Valid {
		t := readAt.Time
		msg.ReadAt = &t
	}
	return &msg, nil
}
