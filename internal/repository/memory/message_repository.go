package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"messagely/internal/domain"
	"messagely/internal/repository"
)

type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string]domain.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{messages: make(map[string]domain.Message)}
}

func (r *MessageRepository) Init(ctx context.Context) error {
	return nil
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	r.messages[msg.ID] = *msg
	return nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneMessage(msg), nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// read_at is set at most once
	if msg.ReadAt == nil {
		t := at.UTC()
		msg.ReadAt = &t
		r.messages[id] = msg
	}
	return cloneMessage(msg), nil
}

func (r *MessageRepository) ListTo(ctx context.Context, username string) ([]domain.Message, error) {
	return r.list(func(msg domain.Message) bool { return msg.ToUsername == username }), nil
}

func (r *MessageRepository) ListFrom(ctx context.Context, username string) ([]domain.Message, error) {
	return r.list(func(msg domain.Message) bool { return msg.FromUsername == username }), nil
}

func (r *MessageRepository) list(keep func(domain.Message) bool) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var msgs []domain.Message
	for _, msg := range r.messages {
		if keep(msg) {
			msgs = append(msgs, *cloneMessage(msg))
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs
}

func cloneMessage(msg domain.Message) *domain.Message {
	if msg.ReadAt != nil {
		t := *msg.ReadAt
		msg.ReadAt = &t
	}
	return &msg
}
