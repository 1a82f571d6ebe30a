package client

import (
	"context"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

//go:generate mockgen -source=media.go -destination=mock_media_test.go -package=client

type LinkState int

const (
	LinkConnecting LinkState = iota
	LinkConnected
	LinkFailed
	LinkClosed
)

func (s LinkState) String() string {
	switch s {
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	case LinkFailed:
		return "failed"
	case LinkClosed:
		return "closed"
	}
	return "unknown"
}

// LinkEvents are invoked from media goroutines. Implementations must not
// block in them.
type LinkEvents struct {
	OnCandidate   func(protocol.ICECandidate)
	OnState       func(LinkState)
	OnRemoteAudio func(active bool)
}

// MediaEngine creates one PeerLink per remote peer. A nil capture makes the
// link receive-only; every link can receive audio.
type MediaEngine interface {
	NewLink(peer domain.ConnectionID, capture CaptureTrack, ev LinkEvents) (PeerLink, error)
}

// PeerLink is the media session with one peer. SDP crosses this boundary as
// opaque text.
type PeerLink interface {
	// CreateOffer sets and returns the local offer.
	CreateOffer() (string, error)
	// CreateAnswer applies the remote offer, then sets and returns the local answer.
	CreateAnswer(offer string) (string, error)
	SetAnswer(answer string) error
	AddCandidate(protocol.ICECandidate) error
	Close() error
}

// CaptureDevice stands for the microphone.
type CaptureDevice interface {
	Open(ctx context.Context) (CaptureTrack, error)
}

type CaptureTrack interface {
	// Level is the current normalized input level in [0,1].
	Level() float64
	SetMuted(muted bool)
	Stop()
}

// Dialer opens the signaling connection for one session.
type Dialer interface {
	Dial(ctx context.Context) (Signaler, error)
}

type Signaler interface {
	Send(protocol.Envelope) error
	// Incoming is closed when the connection ends.
	Incoming() <-chan protocol.Envelope
	// Close flushes queued envelopes best-effort and closes the connection.
	Close() error
}
