package core

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

// Room is an in-memory room owned by a single goroutine. Every membership
// change and every fan-out runs as a command on that goroutine, so members
// observe broadcasts in the order the room committed them.
// It never closes adapter-owned resources.
type Room struct {
	id     domain.RoomID
	ctx    context.Context
	cancel context.CancelFunc
	cmds   chan func()

	// owned by run
	members map[domain.ConnectionID]Member
	sealed  bool
}

func newRoom(parent context.Context, id domain.RoomID) *Room {
	ctx, cancel := context.WithCancel(parent)
	return &Room{
		id:      id,
		ctx:     ctx,
		cancel:  cancel,
		cmds:    make(chan func()),
		members: make(map[domain.ConnectionID]Member),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) run() {
	for {
		select {
		case fn := <-r.cmds:
			fn()
		case <-r.ctx.Done():
			return
		}
	}
}

// exec runs fn on the room goroutine and waits for it.
func (r *Room) exec(fn func()) error {
	done := make(chan struct{})
	select {
	case r.cmds <- func() { fn(); close(done) }:
	case <-r.ctx.Done():
		return ErrRoomClosed
	}
	<-done
	return nil
}

// Join admits m, queues the roster snapshot to m and announces m to everyone
// else, all in one step.
func (r *Room) Join(m Member) (JoinResult, error) {
	var (
		res JoinResult
		err error
	)
	execErr := r.exec(func() {
		if r.sealed {
			err = ErrRoomClosed
			return
		}
		id := m.Participant.ConnectionID
		if _, ok := r.members[id]; ok {
			err = ErrAlreadyJoined
			return
		}
		r.members[id] = m
		res.Roster = r.snapshot()

		list := make([]protocol.Participant, 0, len(res.Roster))
		for _, p := range res.Roster {
			list = append(list, protocol.ParticipantOf(p))
		}
		res.Publish = r.sendTo(m, protocol.Participants{
			Self:         protocol.ParticipantOf(m.Participant),
			Participants: list,
		})
		res.Publish.merge(r.broadcast(id, protocol.ParticipantJoined{
			Participant: protocol.ParticipantOf(m.Participant),
		}))
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).
			Str("user", string(m.Participant.UserID)).Int("members", len(r.members)).Msg("member added")
	})
	if execErr != nil {
		return JoinResult{}, execErr
	}
	return res, err
}

// Leave removes the member. Leaving twice is a no-op with no broadcast.
func (r *Room) Leave(id domain.ConnectionID) (LeaveResult, error) {
	var res LeaveResult
	err := r.exec(func() {
		m, ok := r.members[id]
		if !ok {
			res.Empty = len(r.members) == 0
			return
		}
		delete(r.members, id)
		res.Left = true
		res.Participant = m.Participant
		res.Empty = len(r.members) == 0
		res.Publish = r.broadcast(id, protocol.ParticipantLeft{
			UserID: m.Participant.UserID,
			PeerID: id,
		})
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).
			Int("members", len(r.members)).Msg("member removed")
	})
	return res, err
}

// Relay forwards a negotiation envelope. A missing target is reported in the
// result, never as an error: it disconnected mid-negotiation.
func (r *Room) Relay(from domain.ConnectionID, env protocol.Routed) (RelayResult, error) {
	var (
		res RelayResult
		err error
	)
	execErr := r.exec(func() {
		if _, ok := r.members[from]; !ok {
			err = ErrNotJoined
			return
		}
		stamped := env.WithSender(from)
		to := env.Target()
		if to == "" {
			res.Publish = r.broadcast(from, stamped)
			return
		}
		target, ok := r.members[to]
		if !ok || to == from {
			res.TargetGone = true
			return
		}
		res.Publish = r.sendTo(target, stamped)
	})
	if execErr != nil {
		return RelayResult{}, execErr
	}
	return res, err
}

func (r *Room) Snapshot() ([]domain.Participant, error) {
	var out []domain.Participant
	err := r.exec(func() { out = r.snapshot() })
	return out, err
}

func (r *Room) MemberCount() int {
	n := 0
	_ = r.exec(func() { n = len(r.members) })
	return n
}

// seal marks an empty room as finished so late joins retry on a fresh room.
func (r *Room) seal() bool {
	sealed := false
	_ = r.exec(func() {
		if len(r.members) == 0 {
			r.sealed = true
			sealed = true
		}
	})
	return sealed
}

// memberList returns every member, for shutdown.
func (r *Room) memberList() []Member {
	var out []Member
	_ = r.exec(func() {
		for _, m := range r.members {
			out = append(out, m)
		}
	})
	return out
}

func (r *Room) snapshot() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Participant)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

func (r *Room) sendTo(m Member, env protocol.Envelope) PublishResult {
	res := PublishResult{}
	if err := m.Conn.TrySend(protocol.MustEncode(env)); err != nil {
		res.Dropped = append(res.Dropped, m)
		return res
	}
	res.SentTo++
	return res
}

func (r *Room) broadcast(from domain.ConnectionID, env protocol.Envelope) PublishResult {
	frame := Frame(protocol.MustEncode(env))
	res := PublishResult{}
	for id, m := range r.members {
		if id == from {
			continue
		}
		if err := m.Conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("type", string(env.Kind())).
		Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
