package core

import (
	"errors"

	"github.com/dkeye/Voice/internal/domain"
)

var (
	ErrRoomClosed      = errors.New("room closed")
	ErrAlreadyJoined   = errors.New("already joined")
	ErrNotJoined       = errors.New("not joined")
	ErrShutdown        = errors.New("registry shut down")
	ErrPeerUnavailable = errors.New("peer unavailable")
)

// PublishResult reports delivery stats/backpressure to the registry.
type PublishResult struct {
	SentTo  int
	Dropped []Member
}

func (p *PublishResult) merge(o PublishResult) {
	p.SentTo += o.SentTo
	p.Dropped = append(p.Dropped, o.Dropped...)
}

type JoinResult struct {
	Roster  []domain.Participant
	Publish PublishResult
}

type LeaveResult struct {
	Left        bool
	Empty       bool
	Participant domain.Participant
	Publish     PublishResult
}

type RelayResult struct {
	// TargetGone is set when the addressed peer is not in the room anymore.
	TargetGone bool
	Publish    PublishResult
}

type RoomInfo struct {
	ID           domain.RoomID `json:"id"`
	Participants int           `json:"participants"`
}
