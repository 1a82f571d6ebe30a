package client

import (
	"sort"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

type RosterEntry struct {
	UserID   domain.UserID
	Role     domain.Role
	PeerID   domain.ConnectionID
	Speaking bool
}

// Roster is the live view of a room built from signaling envelopes in
// arrival order. It is not safe for concurrent use.
type Roster struct {
	entries map[domain.UserID]RosterEntry
}

func NewRoster() *Roster {
	return &Roster{entries: make(map[domain.UserID]RosterEntry)}
}

// Replace installs a full snapshot.
func (r *Roster) Replace(list []protocol.Participant) {
	r.entries = make(map[domain.UserID]RosterEntry, len(list))
	for _, p := range list {
		r.Upsert(p)
	}
}

// Upsert inserts or replaces by user id. Speaking starts false.
func (r *Roster) Upsert(p protocol.Participant) {
	r.entries[p.UserID] = RosterEntry{UserID: p.UserID, Role: p.Role, PeerID: p.PeerID}
}

// Remove drops the user; unknown users are ignored.
func (r *Roster) Remove(id domain.UserID) {
	delete(r.entries, id)
}

// RemoveConnection drops the user only while peer is still its current
// connection. A departure of an older connection of a user who already
// rejoined leaves the entry in place.
func (r *Roster) RemoveConnection(id domain.UserID, peer domain.ConnectionID) bool {
	e, ok := r.entries[id]
	if !ok || e.PeerID != peer {
		return false
	}
	delete(r.entries, id)
	return true
}

// SetSpeaking reports whether the flag changed.
func (r *Roster) SetSpeaking(id domain.UserID, speaking bool) bool {
	e, ok := r.entries[id]
	if !ok || e.Speaking == speaking {
		return false
	}
	e.Speaking = speaking
	r.entries[id] = e
	return true
}

// UserByPeer finds the user behind a connection id.
func (r *Roster) UserByPeer(peer domain.ConnectionID) (domain.UserID, bool) {
	for _, e := range r.entries {
		if e.PeerID == peer {
			return e.UserID, true
		}
	}
	return "", false
}

func (r *Roster) Clear() {
	r.entries = make(map[domain.UserID]RosterEntry)
}

func (r *Roster) Len() int { return len(r.entries) }

// Entries is sorted by user id.
func (r *Roster) Entries() []RosterEntry {
	out := make([]RosterEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
