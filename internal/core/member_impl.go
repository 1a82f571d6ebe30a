package core

import "github.com/dkeye/Voice/internal/domain"

// Member binds a participant to its transport endpoint.
// This is what a room stores and fans out to.
type Member struct {
	Participant domain.Participant
	Conn        SignalConnection
}

func NewMember(p domain.Participant, conn SignalConnection) Member {
	return Member{Participant: p, Conn: conn}
}
