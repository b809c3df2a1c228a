package domain

import "time"

// Message is a single direct message between two users. All fields except
// ReadAt are immutable once the record exists; ReadAt is set at most once.
type Message struct {
	ID           string
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time
}

// Read reports whether the message has been marked read by its recipient.
func (m *Message) Read() bool {
	return m.ReadAt != nil
}
