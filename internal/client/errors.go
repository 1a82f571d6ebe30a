package client

import (
	"errors"
	"fmt"

	"github.com/dkeye/Voice/internal/domain"
)

var (
	ErrConnectFailed      = errors.New("connect failed")
	ErrCaptureUnavailable = errors.New("capture unavailable")
	ErrNegotiationFailed  = errors.New("negotiation failed")
	ErrSessionClosed      = errors.New("session closed")
	ErrNotIdle            = errors.New("session already started")
	ErrSignalingClosed    = errors.New("signaling connection closed")
)

// OpError records which step failed and, when it concerns one link, for
// which peer.
type OpError struct {
	Op   string
	Peer domain.ConnectionID
	Err  error
}

func (e *OpError) Error() string {
	if e.Peer != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, peer domain.ConnectionID, err error) *OpError {
	return &OpError{Op: op, Peer: peer, Err: err}
}

// RemoteError is an error envelope sent by the server.
type RemoteError struct {
	Code string
}

func (e *RemoteError) Error() string { return "server: " + e.Code }

func wrap(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
