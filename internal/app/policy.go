package app

import (
	"github.com/dkeye/Voice/internal/core"
	"github.com/dkeye/Voice/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, member core.Member) BackpressureAction
}

// SimplePolicy disconnects slow members. Their read loop then removes them
// from the room like any other disconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, core.Member) BackpressureAction {
	return KickMember
}

// TolerantPolicy keeps slow members and only loses the frame.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(domain.RoomID, core.Member) BackpressureAction {
	return DropFrame
}
