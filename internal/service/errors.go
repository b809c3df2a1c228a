package service

import "errors"

// Service level errors. The HTTP layer maps these to status codes; none of
// them are retried internally since they all describe client input or
// client permission, not transient faults.
var (
	// ErrInvalidCredentials is returned on any failed login. It is shared
	// between the unknown-username and wrong-password cases so a caller
	// cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUser is returned when registering an existing username.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrUnauthorizedAccess is returned when a caller who is neither the
	// sender nor the recipient requests a message.
	ErrUnauthorizedAccess = errors.New("unauthorized access")
	// ErrUnauthorizedMarkRead is returned when anyone but the recipient
	// tries to mark a message read.
	ErrUnauthorizedMarkRead = errors.New("unauthorized to mark message read")
)
