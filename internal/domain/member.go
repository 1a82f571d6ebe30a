package domain

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleListener Role = "listener"
	RoleSpeaker  Role = "speaker"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole accepts the role case-insensitively.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleListener:
		return RoleListener, nil
	case RoleSpeaker:
		return RoleSpeaker, nil
	}
	return "", ErrInvalidRole
}

// ConnectionID identifies one live signaling connection. It doubles as the
// peer id other participants use to address negotiation messages.
type ConnectionID string

// Participant is one connection's membership in a room.
// Role is fixed for the lifetime of the connection.
type Participant struct {
	ConnectionID ConnectionID
	UserID       UserID
	Role         Role
	JoinedAt     time.Time
}
