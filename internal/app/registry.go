// Package app binds signaling connections to rooms. The Registry is created
// once in main and passed to the transport adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/core"
	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/metrics"
	"github.com/dkeye/Voice/internal/protocol"
)

// joinAttempts bounds retries when a join races with the release of an
// empty room.
const joinAttempts = 3

type binding struct {
	room   *core.Room
	member core.Member
}

type Registry struct {
	rooms   *core.RoomManager
	policy  Policy
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	bindings map[domain.ConnectionID]*binding
}

func NewRegistry(ctx context.Context, policy Policy, m *metrics.Metrics) *Registry {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Registry{
		rooms:    core.NewRoomManager(ctx, m),
		policy:   policy,
		metrics:  m,
		now:      time.Now,
		bindings: make(map[domain.ConnectionID]*binding),
	}
}

// Join admits conn to the room and returns the roster the joiner was sent.
// A connection belongs to at most one room.
func (r *Registry) Join(conn core.SignalConnection, roomID domain.RoomID, userID domain.UserID, role domain.Role) ([]domain.Participant, error) {
	id := conn.ID()
	r.mu.Lock()
	_, bound := r.bindings[id]
	r.mu.Unlock()
	if bound {
		return nil, core.ErrAlreadyJoined
	}

	m := core.NewMember(domain.Participant{
		ConnectionID: id,
		UserID:       userID,
		Role:         role,
		JoinedAt:     r.now(),
	}, conn)

	for attempt := 0; attempt < joinAttempts; attempt++ {
		room, err := r.rooms.GetOrCreate(roomID)
		if err != nil {
			return nil, err
		}
		res, err := room.Join(m)
		if errors.Is(err, core.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.bindings[id] = &binding{room: room, member: m}
		r.mu.Unlock()
		r.metrics.ParticipantJoined()
		r.applyPolicy(roomID, res.Publish)
		log.Info().Str("module", "app.registry").Str("room", string(roomID)).Str("conn", string(id)).
			Str("user", string(userID)).Str("role", string(role)).Int("roster", len(res.Roster)).Msg("joined")
		return res.Roster, nil
	}
	return nil, fmt.Errorf("join %s: %w", roomID, core.ErrRoomClosed)
}

// Leave removes the connection from its room. It reports whether a
// participant was actually removed; repeated calls are no-ops.
func (r *Registry) Leave(id domain.ConnectionID) bool {
	r.mu.Lock()
	b, ok := r.bindings[id]
	delete(r.bindings, id)
	r.mu.Unlock()
	if !ok {
		return false
	}

	res, err := b.room.Leave(id)
	if err != nil {
		// room already stopped by Close
		return false
	}
	if res.Left {
		r.metrics.ParticipantLeft()
		log.Info().Str("module", "app.registry").Str("room", string(b.room.ID())).Str("conn", string(id)).
			Str("user", string(res.Participant.UserID)).Msg("left")
	}
	r.applyPolicy(b.room.ID(), res.Publish)
	if res.Empty {
		r.rooms.ReleaseIfEmpty(b.room)
	}
	return res.Left
}

// Relay forwards a negotiation envelope from id to its addressee. A target
// that already left is not an error for the sender.
func (r *Registry) Relay(id domain.ConnectionID, env protocol.Routed) error {
	r.mu.Lock()
	b, ok := r.bindings[id]
	r.mu.Unlock()
	if !ok {
		return core.ErrNotJoined
	}

	res, err := b.room.Relay(id, env)
	if errors.Is(err, core.ErrRoomClosed) {
		return core.ErrNotJoined
	}
	if err != nil {
		return err
	}
	if res.TargetGone {
		r.metrics.RelayDropped()
		log.Warn().Err(core.ErrPeerUnavailable).Str("module", "app.registry").Str("room", string(b.room.ID())).
			Str("from", string(id)).Str("to", string(env.Target())).Str("type", string(env.Kind())).Msg("relay dropped")
		return nil
	}
	r.applyPolicy(b.room.ID(), res.Publish)
	return nil
}

// RoomOf reports the room the connection is joined to.
func (r *Registry) RoomOf(id domain.ConnectionID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[id]
	if !ok {
		return "", false
	}
	return b.room.ID(), true
}

func (r *Registry) Rooms() []core.RoomInfo {
	return r.rooms.List()
}

// Participants returns the authoritative member set of a room, empty when
// the room does not exist.
func (r *Registry) Participants(roomID domain.RoomID) ([]domain.Participant, error) {
	room, ok := r.rooms.Get(roomID)
	if !ok {
		return []domain.Participant{}, nil
	}
	list, err := room.Snapshot()
	if errors.Is(err, core.ErrRoomClosed) {
		return []domain.Participant{}, nil
	}
	return list, err
}

// Close disconnects every member and stops all rooms.
func (r *Registry) Close() {
	r.rooms.Close()
	r.mu.Lock()
	n := len(r.bindings)
	r.bindings = make(map[domain.ConnectionID]*binding)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Int("bindings", n).Msg("registry closed")
}

func (r *Registry) applyPolicy(roomID domain.RoomID, res core.PublishResult) {
	if len(res.Dropped) == 0 {
		return
	}
	r.metrics.Backpressure(len(res.Dropped))
	for _, m := range res.Dropped {
		switch r.policy.OnBackPressure(roomID, m) {
		case KickMember:
			log.Warn().Str("module", "app.registry").Str("room", string(roomID)).
				Str("conn", string(m.Participant.ConnectionID)).Msg("slow member disconnected")
			m.Conn.Close()
		case MarkSlow, DropFrame, NoAction:
			log.Debug().Str("module", "app.registry").Str("room", string(roomID)).
				Str("conn", string(m.Participant.ConnectionID)).Msg("frame dropped")
		}
	}
}
