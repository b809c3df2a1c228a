package repository

import (
	"context"
	"time"

	"messagely/internal/domain"
)

// MessageRepository exposes persistence operations for Message records.
// MarkRead must be atomic: a read_at that is already set is never
// overwritten, regardless of concurrent callers.
type MessageRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, msg *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) (*domain.Message, error)
	ListTo(ctx context.Context, username string) ([]domain.Message, error)
	ListFrom(ctx context.Context, username string) ([]domain.Message, error)
}
