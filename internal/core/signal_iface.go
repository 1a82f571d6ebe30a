package core

import "github.com/dkeye/Voice/internal/domain"

// Frame is one encoded signaling envelope.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: rooms call it from their actor goroutine.
type SignalConnection interface {
	ID() domain.ConnectionID
	TrySend(Frame) error
	Close()
}
