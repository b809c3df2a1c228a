// Package policy holds the message access decisions: who may see a message
// and who may flip its read state. Both checks are pure predicates over the
// caller identity and the message's immutable participant fields.
package policy

import "messagely/internal/domain"

// CanRead reports whether caller is a participant of the message. Only the
// sender and the recipient may view it.
func CanRead(caller string, msg *domain.Message) bool {
	return caller == msg.FromUsername || caller == msg.ToUsername
}

// CanMarkRead reports whether caller may mark the message read. This is
// strictly the recipient: the sender of a message can never mark it read,
// even though CanRead permits them to view it.
func CanMarkRead(caller string, msg *domain.Message) bool {
	return caller == msg.ToUsername
}
