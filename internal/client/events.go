package client

import (
	"context"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

// event is anything the session loop processes.
type event any

type connectEvent struct {
	ctx   context.Context
	reply chan error
}

type envelopeEvent struct {
	env protocol.Envelope
}

type signalClosedEvent struct{}

type localCandidateEvent struct {
	link *link
	cand protocol.ICECandidate
}

type linkStateEvent struct {
	link  *link
	state LinkState
}

type remoteAudioEvent struct {
	link   *link
	active bool
}

type speakingEvent struct {
	speaking bool
}

type timeoutEvent struct {
	gen int
}

type muteEvent struct {
	muted bool
}

type closeEvent struct{}

// link is the negotiation state for one remote peer. It may exist before
// its PeerLink does, holding candidates that outran the offer.
type link struct {
	peer domain.ConnectionID
	pc   PeerLink

	offerer   bool
	answered  bool
	localSent bool
	remoteSet bool
	connected bool

	pendingLocal  []protocol.ICECandidate
	pendingRemote []protocol.ICECandidate
}
