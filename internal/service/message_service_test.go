package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"messagely/internal/domain"
	"messagely/internal/repository"
	"messagely/internal/repository/memory"
)

func newMessageFixture(t *testing.T, usernames ...string) (MessageService, *memory.MessageRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	messages := memory.NewMessageRepository()
	for _, username := range usernames {
		err := users.Create(context.Background(), &domain.User{
			Username:     username,
			PasswordHash: "x",
			JoinedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)
	}
	return NewMessageService(messages, users), messages
}

func TestSendCreatesUnreadMessage(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice", "bob")

	msg, err := svc.Send(context.Background(), "alice", "bob", "hi")
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal("alice", msg.FromUsername)
	req.Equal("bob", msg.ToUsername)
	req.Equal("hi", msg.Body)
	req.False(msg.SentAt.IsZero())
	req.Nil(msg.ReadAt)
}

func TestSendUnknownRecipient(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice")

	_, err := svc.Send(context.Background(), "alice", "nobody", "hi")
	req.ErrorIs(err, repository.ErrNotFound)
}

func TestGetParticipantsOnly(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice", "bob", "carol")

	msg, err := svc.Send(context.Background(), "alice", "bob", "hi")
	req.NoError(err)

	for _, caller := range []string{"alice", "bob"} {
		detail, err := svc.Get(context.Background(), caller, msg.ID)
		req.NoError(err)
		req.Equal(msg.ID, detail.Message.ID)
		req.Equal("alice", detail.FromUser.Username)
		req.Equal("bob", detail.ToUser.Username)
		req.Empty(detail.FromUser.PasswordHash)
		req.Empty(detail.ToUser.PasswordHash)
	}

	_, err = svc.Get(context.Background(), "carol", msg.ID)
	req.ErrorIs(err, ErrUnauthorizedAccess)
}

func TestGetMissingMessage(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice")

	_, err := svc.Get(context.Background(), "alice", "no-such-id")
	req.ErrorIs(err, repository.ErrNotFound)
}

func TestMarkReadRecipientOnly(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice", "bob", "carol")

	msg, err := svc.Send(context.Background(), "alice", "bob", "hi")
	req.NoError(err)

	// neither the sender nor a stranger may mark read
	_, err = svc.MarkRead(context.Background(), "alice", msg.ID)
	req.ErrorIs(err, ErrUnauthorizedMarkRead)
	_, err = svc.MarkRead(context.Background(), "carol", msg.ID)
	req.ErrorIs(err, ErrUnauthorizedMarkRead)

	read, err := svc.MarkRead(context.Background(), "bob", msg.ID)
	req.NoError(err)
	req.NotNil(read.ReadAt)
}

func TestMarkReadIsMonotonic(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice", "bob")

	msg, err := svc.Send(context.Background(), "alice", "bob", "hi")
	req.NoError(err)

	first, err := svc.MarkRead(context.Background(), "bob", msg.ID)
	req.NoError(err)
	req.NotNil(first.ReadAt)

	time.Sleep(10 * time.Millisecond)

	// second call is a no-op that keeps the original timestamp
	second, err := svc.MarkRead(context.Background(), "bob", msg.ID)
	req.NoError(err)
	req.NotNil(second.ReadAt)
	req.True(second.ReadAt.Equal(*first.ReadAt))
}

func TestSelfMessageRoundTrip(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice")

	msg, err := svc.Send(context.Background(), "alice", "alice", "note to self")
	req.NoError(err)

	detail, err := svc.Get(context.Background(), "alice", msg.ID)
	req.NoError(err)
	req.Equal("alice", detail.FromUser.Username)
	req.Equal("alice", detail.ToUser.Username)

	read, err := svc.MarkRead(context.Background(), "alice", msg.ID)
	req.NoError(err)
	req.NotNil(read.ReadAt)
}

func TestInboxOutbox(t *testing.T) {
	req := require.New(t)
	svc, _ := newMessageFixture(t, "alice", "bob")

	first, err := svc.Send(context.Background(), "alice", "bob", "one")
	req.NoError(err)
	_, err = svc.Send(context.Background(), "bob", "alice", "two")
	req.NoError(err)

	inbox, err := svc.Inbox(context.Background(), "bob")
	req.NoError(err)
	req.Len(inbox, 1)
	req.Equal(first.ID, inbox[0].Message.ID)
	req.Equal("alice", inbox[0].FromUser.Username)

	outbox, err := svc.Outbox(context.Background(), "alice")
	req.NoError(err)
	req.Len(outbox, 1)
	req.Equal(first.ID, outbox[0].Message.ID)
}
