package signal

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/protocol"
)

func (ctl *SignalWSController) readPump(sess *peerSession) {
	c := sess.conn
	defer func() {
		ctl.Registry.Leave(c.id)
		c.Close()
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.Options.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Options.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Options.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Options.PongWait))
		if !sess.handle(data) {
			return
		}
	}
}

// handle processes one frame and reports whether the connection stays open.
func (s *peerSession) handle(data []byte) bool {
	env, err := protocol.Decode(data)
	if err != nil {
		code := protocol.CodeBadPayload
		if errors.Is(err, protocol.ErrUnknownKind) {
			code = protocol.CodeUnknownType
		}
		return s.reject(code, err)
	}
	s.ctl.Metrics.EnvelopeReceived(string(env.Kind()))

	err = env.Visit(s)
	var v *violation
	if errors.As(err, &v) {
		return s.reject(v.code, v.err)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(s.conn.id)).Msg("handle signal")
	}
	return true
}

func (s *peerSession) notify(code string) {
	_ = s.conn.TrySend(protocol.MustEncode(protocol.ErrorNotice{Message: code}))
}

// reject answers the offender with an error envelope. Too many violations
// end the connection, which also removes the participant.
func (s *peerSession) reject(code string, err error) bool {
	s.violations++
	log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.conn.id)).Str("code", code).
		Int("violations", s.violations).Msg("protocol violation")
	s.notify(code)
	if limit := s.ctl.Options.MaxViolations; limit > 0 && s.violations >= limit {
		log.Warn().Str("module", "signal").Str("conn", string(s.conn.id)).Msg("too many violations, closing")
		return false
	}
	return true
}
