package domain

import "time"

// User represents a registered account. Username is the primary key and
// never changes after registration.
type User struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	JoinedAt     time.Time
	LastLoginAt  *time.Time
}
