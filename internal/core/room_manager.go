package core

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/metrics"
)

// RoomManager creates rooms on first join and drops them once empty.
// Each room runs on its own goroutine bound to the manager context.
type RoomManager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	metrics *metrics.Metrics

	mu     sync.Mutex
	rooms  map[domain.RoomID]*Room
	closed bool
	wg     conc.WaitGroup
}

func NewRoomManager(parent context.Context, m *metrics.Metrics) *RoomManager {
	ctx, cancel := context.WithCancel(parent)
	return &RoomManager{
		ctx:     ctx,
		cancel:  cancel,
		metrics: m,
		rooms:   make(map[domain.RoomID]*Room),
	}
}

func (rm *RoomManager) GetOrCreate(id domain.RoomID) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return nil, ErrShutdown
	}
	if room, ok := rm.rooms[id]; ok {
		return room, nil
	}
	room := newRoom(rm.ctx, id)
	rm.rooms[id] = room
	rm.wg.Go(room.run)
	rm.metrics.RoomOpened()
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room created")
	return room, nil
}

func (rm *RoomManager) Get(id domain.RoomID) (*Room, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	room, ok := rm.rooms[id]
	return room, ok
}

// ReleaseIfEmpty stops the room when nobody is left. Sealing happens under
// the manager lock, so a concurrent GetOrCreate either sees the live room
// before the seal or a fresh one after it.
func (rm *RoomManager) ReleaseIfEmpty(room *Room) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if cur, ok := rm.rooms[room.id]; !ok || cur != room {
		return
	}
	if !room.seal() {
		return
	}
	delete(rm.rooms, room.id)
	room.cancel()
	rm.metrics.RoomClosed()
	log.Info().Str("module", "core.rooms").Str("room", string(room.id)).Msg("room released")
}

func (rm *RoomManager) List() []RoomInfo {
	rm.mu.Lock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	rm.mu.Unlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomInfo{ID: r.id, Participants: r.MemberCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close closes every member connection, stops all rooms and waits for
// their goroutines.
func (rm *RoomManager) Close() {
	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return
	}
	rm.closed = true
	rooms := rm.rooms
	rm.rooms = make(map[domain.RoomID]*Room)
	rm.mu.Unlock()

	for _, r := range rooms {
		for _, m := range r.memberList() {
			m.Conn.Close()
		}
	}
	rm.cancel()
	rm.wg.Wait()
	for range rooms {
		rm.metrics.RoomClosed()
	}
	log.Info().Str("module", "core.rooms").Int("rooms", len(rooms)).Msg("room manager closed")
}
