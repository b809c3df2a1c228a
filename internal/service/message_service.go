package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"messagely/internal/domain"
	"messagely/internal/policy"
	"messagely/internal/repository"
)

// MessageDetail is a message together with the resolved participant
// profiles (password hashes stripped).
type MessageDetail struct {
	Message  domain.Message
	FromUser domain.User
	ToUser   domain.User
}

// MessageService coordinates message creation, reads and the read-receipt
// transition. Every read and transition is gated by the access policy on
// the caller identity resolved by the middleware.
type MessageService interface {
	Send(ctx context.Context, from, to, body string) (*domain.Message, error)
	Get(ctx context.Context, caller, id string) (*MessageDetail, error)
	MarkRead(ctx context.Context, caller, id string) (*domain.Message, error)
	Inbox(ctx context.Context, username string) ([]MessageDetail, error)
	Outbox(ctx context.Context, username string) ([]MessageDetail, error)
}

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository) MessageService {
	return &messageService{messages: messages, users: users}
}

func (s *messageService) Send(ctx context.Context, from, to, body string) (*domain.Message, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, errors.New("recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("message body is required")
	}

	// recipient must exist; the sender was already resolved from the token
	if _, err := s.users.GetByUsername(ctx, to); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:           uuid.NewString(),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) Get(ctx context.Context, caller, id string) (*MessageDetail, error) {
	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanRead(caller, msg) {
		return nil, ErrUnauthorizedAccess
	}
	return s.resolve(ctx, *msg)
}

// MarkRead transitions a message from unread to read. The transition is
// recipient-only and monotonic: marking an already-read message is a no-op
// that leaves the original read_at in place.
func (s *messageService) MarkRead(ctx context.Context, caller, id string) (*domain.Message, error) {
	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMarkRead(caller, msg) {
		return nil, ErrUnauthorizedMarkRead
	}
	if msg.Read() {
		return msg, nil
	}
	return s.messages.MarkRead(ctx, id, time.Now().UTC())
}

func (s *messageService) Inbox(ctx context.Context, username string) ([]MessageDetail, error) {
	msgs, err := s.messages.ListTo(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(ctx, msgs)
}

func (s *messageService) Outbox(ctx context.Context, username string) ([]MessageDetail, error) {
	msgs, err := s.messages.ListFrom(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(ctx, msgs)
}

func (s *messageService) resolve(ctx context.Context, msg domain.Message) (*MessageDetail, error) {
	from, err := s.users.GetByUsername(ctx, msg.FromUsername)
	if err != nil {
		return nil, err
	}
	to, err := s.users.GetByUsername(ctx, msg.ToUsername)
	if err != nil {
		return nil, err
	}
	return &MessageDetail{
		Message:  msg,
		FromUser: *sanitizeUser(from),
		ToUser:   *sanitizeUser(to),
	}, nil
}

func (s *messageService) resolveAll(ctx context.Context, msgs []domain.Message) ([]MessageDetail, error) {
	details := make([]MessageDetail, 0, len(msgs))
	for _, msg := range msgs {
		detail, err := s.resolve(ctx, msg)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}
