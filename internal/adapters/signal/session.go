package signal

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/core"
	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

// violation is returned by peerSession handlers for client mistakes that
// are answered with an error envelope.
type violation struct {
	code string
	err  error
}

func (v *violation) Error() string { return fmt.Sprintf("%s: %v", v.code, v.err) }

func (v *violation) Unwrap() error { return v.err }

// peerSession is the server side of one signaling connection. It is only
// used from the connection's read goroutine.
type peerSession struct {
	ctl        *SignalWSController
	conn       *wsConn
	room       domain.RoomID
	user       domain.UserID
	violations int
}

var _ protocol.Handler = (*peerSession)(nil)

func (s *peerSession) OnJoin(m protocol.Join) error {
	if !s.ctl.Limiter.Allow(s.user) {
		log.Warn().Str("module", "signal").Str("user", string(s.user)).Msg("join rate limited")
		s.notify(protocol.CodeRateLimited)
		return nil
	}
	_, err := s.ctl.Registry.Join(s.conn, s.room, s.user, m.Role)
	switch {
	case errors.Is(err, core.ErrAlreadyJoined):
		return &violation{code: protocol.CodeAlreadyJoined, err: err}
	case errors.Is(err, core.ErrRoomClosed), errors.Is(err, core.ErrShutdown):
		s.notify(protocol.CodeRoomClosed)
		return nil
	}
	return err
}

func (s *peerSession) OnLeave(protocol.Leave) error {
	s.ctl.Registry.Leave(s.conn.id)
	return nil
}

func (s *peerSession) OnOffer(m protocol.Offer) error { return s.relay(m) }

func (s *peerSession) OnAnswer(m protocol.Answer) error { return s.relay(m) }

func (s *peerSession) OnCandidate(m protocol.Candidate) error { return s.relay(m) }

func (s *peerSession) relay(env protocol.Routed) error {
	err := s.ctl.Registry.Relay(s.conn.id, env)
	if errors.Is(err, core.ErrNotJoined) {
		return &violation{code: protocol.CodeNotJoined, err: err}
	}
	return err
}

func (s *peerSession) OnParticipants(m protocol.Participants) error { return unexpected(m) }

func (s *peerSession) OnParticipantJoined(m protocol.ParticipantJoined) error { return unexpected(m) }

func (s *peerSession) OnParticipantLeft(m protocol.ParticipantLeft) error { return unexpected(m) }

func (s *peerSession) OnError(m protocol.ErrorNotice) error { return unexpected(m) }

func unexpected(env protocol.Envelope) error {
	return &violation{
		code: protocol.CodeUnexpectedType,
		err:  fmt.Errorf("%s is server-to-client only", env.Kind()),
	}
}
