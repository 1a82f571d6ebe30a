// Package client runs the participant side of a room: it joins over the
// signaling connection, negotiates one media link per remote peer and keeps
// a roster of who is present and who is talking.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

const DefaultNegotiationTimeout = 30 * time.Second

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseJoining
	PhaseNegotiating
	PhaseConnected
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseJoining:
		return "joining"
	case PhaseNegotiating:
		return "negotiating"
	case PhaseConnected:
		return "connected"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

type EventKind int

const (
	EventPhase EventKind = iota
	EventRoster
	EventLinkState
	EventCaptureError
	EventRemoteError
	EventNegotiationFailed
)

// Event is a status update for the UI. Only the fields relevant to Kind are set.
type Event struct {
	Kind   EventKind
	Phase  Phase
	Roster []RosterEntry
	Self   domain.UserID
	Peer   domain.ConnectionID
	Link   LinkState
	Err    error
}

type Config struct {
	Role    domain.Role
	Dialer  Dialer
	Engine  MediaEngine
	Capture CaptureDevice // nil means no capture device

	NegotiationTimeout time.Duration
	ActivityInterval   time.Duration
	ActivityThreshold  float64
	ActivityHold       time.Duration
	EventBuffer        int
}

func (c *Config) setDefaults() {
	if c.NegotiationTimeout <= 0 {
		c.NegotiationTimeout = DefaultNegotiationTimeout
	}
	if c.ActivityInterval <= 0 {
		c.ActivityInterval = DefaultActivityInterval
	}
	if c.ActivityThreshold <= 0 {
		c.ActivityThreshold = DefaultActivityThreshold
	}
	if c.ActivityHold <= 0 {
		c.ActivityHold = DefaultActivityHold
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 128
	}
}

// Session is one participant connection. All state changes happen on a
// single loop goroutine fed by a mailbox; the exported methods only post to
// it. A closed session is terminal.
type Session struct {
	cfg    Config
	box    *mailbox
	events chan Event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	bg     conc.WaitGroup

	mu       sync.RWMutex
	phase    Phase
	snapshot []RosterEntry
	err      error

	// owned by run
	sig          Signaler
	self         protocol.Participant
	roster       *Roster
	links        map[domain.ConnectionID]*link
	capture      CaptureTrack
	stopDetector context.CancelFunc
	muted        bool
	timer        *time.Timer
	timerGen     int
}

func NewSession(cfg Config) *Session {
	cfg.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:    cfg,
		box:    newMailbox(),
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		roster: NewRoster(),
		links:  make(map[domain.ConnectionID]*link),
	}
	go s.run()
	return s
}

// Connect dials and sends join. It returns once join was sent or the
// session failed to connect.
func (s *Session) Connect(ctx context.Context) error {
	reply := make(chan error, 1)
	if !s.box.post(connectEvent{ctx: ctx, reply: reply}) {
		return ErrSessionClosed
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrSessionClosed
		}
	}
}

// Close tears the session down and waits until every resource is released.
// It is safe to call from any state and more than once.
func (s *Session) Close() error {
	s.box.post(closeEvent{})
	<-s.done
	return nil
}

func (s *Session) SetMuted(muted bool) {
	s.box.post(muteEvent{muted: muted})
}

// Events is closed after the session reaches PhaseClosed.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) Roster() []RosterEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RosterEntry(nil), s.snapshot...)
}

// Err is the reason the session closed, nil after a local Close.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) run() {
	defer func() {
		s.box.close()
		s.bg.Wait()
		close(s.events)
		close(s.done)
	}()
	for range s.box.notify {
		for _, ev := range s.box.drain() {
			s.dispatch(ev)
			if s.phase == PhaseClosed {
				return
			}
		}
	}
}

func (s *Session) dispatch(ev event) {
	switch ev := ev.(type) {
	case connectEvent:
		s.connect(ev)
	case envelopeEvent:
		if err := ev.env.Visit((*inbound)(s)); err != nil {
			log.Warn().Err(err).Str("module", "client.session").Str("type", string(ev.env.Kind())).Msg("handle envelope")
		}
	case signalClosedEvent:
		s.shutdown(opError("signaling", "", ErrSignalingClosed))
	case localCandidateEvent:
		s.onLocalCandidate(ev)
	case linkStateEvent:
		s.onLinkState(ev)
	case remoteAudioEvent:
		s.onRemoteAudio(ev)
	case speakingEvent:
		if s.roster.SetSpeaking(s.self.UserID, ev.speaking) {
			s.publishRoster()
		}
	case timeoutEvent:
		s.onTimeout(ev)
	case muteEvent:
		s.muted = ev.muted
		if s.capture != nil {
			s.capture.SetMuted(ev.muted)
		}
	case closeEvent:
		s.shutdown(nil)
	}
}

func (s *Session) connect(ev connectEvent) {
	if s.phase != PhaseIdle {
		ev.reply <- ErrNotIdle
		return
	}
	s.setPhase(PhaseJoining)
	s.armTimer()

	sig, err := s.cfg.Dialer.Dial(ev.ctx)
	if err != nil {
		err = opError("dial", "", wrap(ErrConnectFailed, err))
		ev.reply <- err
		s.shutdown(err)
		return
	}
	s.sig = sig
	s.bg.Go(func() {
		for env := range sig.Incoming() {
			s.box.post(envelopeEvent{env: env})
		}
		s.box.post(signalClosedEvent{})
	})

	if err := sig.Send(protocol.Join{Role: s.cfg.Role}); err != nil {
		err = opError("join", "", wrap(ErrConnectFailed, err))
		ev.reply <- err
		s.shutdown(err)
		return
	}
	log.Info().Str("module", "client.session").Str("role", string(s.cfg.Role)).Msg("join sent")
	ev.reply <- nil
}

// acquireCapture opens the microphone for a speaker. Failure leaves the
// session receive-only.
func (s *Session) acquireCapture() {
	if s.cfg.Capture == nil {
		s.emit(Event{Kind: EventCaptureError, Err: opError("capture", "", ErrCaptureUnavailable)})
		return
	}
	track, err := s.cfg.Capture.Open(s.ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "client.session").Msg("capture unavailable, continuing receive-only")
		s.emit(Event{Kind: EventCaptureError, Err: opError("capture", "", wrap(ErrCaptureUnavailable, err))})
		return
	}
	s.capture = track
	track.SetMuted(s.muted)

	ctx, cancel := context.WithCancel(s.ctx)
	s.stopDetector = cancel
	det := NewActivityDetector(s.cfg.ActivityThreshold, s.cfg.ActivityHold)
	s.bg.Go(func() {
		det.Run(ctx, s.cfg.ActivityInterval, track.Level, func(speaking bool) {
			s.box.post(speakingEvent{speaking: speaking})
		})
	})
}

func (s *Session) onTimeout(ev timeoutEvent) {
	if ev.gen != s.timerGen {
		return
	}
	switch s.phase {
	case PhaseJoining:
		s.fail("join", "", context.DeadlineExceeded)
	case PhaseNegotiating:
		if s.activeLinks() == 0 {
			// alone in the room, nothing to negotiate yet
			s.armTimer()
			return
		}
		s.fail("negotiate", "", context.DeadlineExceeded)
	}
}

func (s *Session) armTimer() {
	s.stopTimer()
	gen := s.timerGen
	s.timer = time.AfterFunc(s.cfg.NegotiationTimeout, func() {
		s.box.post(timeoutEvent{gen: gen})
	})
}

func (s *Session) stopTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fail closes the session after a negotiation or media failure.
func (s *Session) fail(op string, peer domain.ConnectionID, err error) {
	e := opError(op, peer, wrap(ErrNegotiationFailed, err))
	log.Error().Err(e).Str("module", "client.session").Msg("negotiation failed")
	s.emit(Event{Kind: EventNegotiationFailed, Peer: peer, Err: e})
	s.shutdown(e)
}

// shutdown releases everything exactly once and enters PhaseClosed.
func (s *Session) shutdown(reason error) {
	if s.phase == PhaseClosed {
		return
	}
	s.stopTimer()
	if s.stopDetector != nil {
		s.stopDetector()
		s.stopDetector = nil
	}
	if s.capture != nil {
		s.capture.Stop()
		s.capture = nil
	}
	for peer := range s.links {
		s.dropLink(peer)
	}
	if s.sig != nil {
		if s.phase != PhaseIdle {
			_ = s.sig.Send(protocol.Leave{})
		}
		if err := s.sig.Close(); err != nil {
			log.Debug().Err(err).Str("module", "client.session").Msg("close signaling")
		}
		s.sig = nil
	}
	s.cancel()
	s.roster.Clear()

	s.mu.Lock()
	s.err = reason
	s.snapshot = nil
	s.mu.Unlock()
	s.setPhase(PhaseClosed)
	log.Info().Err(reason).Str("module", "client.session").Msg("session closed")
}

func (s *Session) setPhase(p Phase) {
	if s.phase == p {
		return
	}
	s.mu.Lock()
	s.phase = p
	err := s.err
	s.mu.Unlock()
	ev := Event{Kind: EventPhase, Phase: p}
	if p == PhaseClosed {
		ev.Err = err
	}
	s.emit(ev)
	log.Debug().Str("module", "client.session").Str("phase", p.String()).Msg("phase")
}

func (s *Session) publishRoster() {
	entries := s.roster.Entries()
	s.mu.Lock()
	s.snapshot = entries
	s.mu.Unlock()
	s.emit(Event{Kind: EventRoster, Roster: entries, Self: s.self.UserID})
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Warn().Str("module", "client.session").Int("kind", int(ev.Kind)).Msg("event dropped, consumer too slow")
	}
}

func (s *Session) send(env protocol.Envelope) {
	if s.sig == nil {
		return
	}
	if err := s.sig.Send(env); err != nil {
		log.Warn().Err(err).Str("module", "client.session").Str("type", string(env.Kind())).Msg("send")
	}
}
