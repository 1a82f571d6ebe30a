package client

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

// inbound handles envelopes from the server on the session loop.
type inbound Session

var _ protocol.Handler = (*inbound)(nil)

func (in *inbound) session() *Session { return (*Session)(in) }

func (in *inbound) OnParticipants(m protocol.Participants) error {
	s := in.session()
	s.roster.Replace(m.Participants)
	if m.Self.UserID != "" {
		s.self = m.Self
	}
	s.publishRoster()
	if s.phase != PhaseJoining {
		return nil
	}

	s.setPhase(PhaseNegotiating)
	if s.cfg.Role == domain.RoleSpeaker {
		s.acquireCapture()
	}
	// the joiner offers to everyone already present
	for _, p := range m.Participants {
		if p.PeerID == "" || p.PeerID == s.self.PeerID {
			continue
		}
		s.offerTo(p.PeerID)
		if s.phase == PhaseClosed {
			return nil
		}
	}
	return nil
}

func (in *inbound) OnParticipantJoined(m protocol.ParticipantJoined) error {
	s := in.session()
	s.roster.Upsert(m.Participant)
	s.publishRoster()
	return nil
}

func (in *inbound) OnParticipantLeft(m protocol.ParticipantLeft) error {
	s := in.session()
	peer := m.PeerID
	if peer == "" {
		for _, e := range s.roster.Entries() {
			if e.UserID == m.UserID {
				peer = e.PeerID
			}
		}
		s.roster.Remove(m.UserID)
	} else if !s.roster.RemoveConnection(m.UserID, peer) {
		log.Debug().Str("module", "client.session").Str("user", string(m.UserID)).Str("peer", string(peer)).
			Msg("stale connection left, user still present")
	}
	if peer != "" {
		s.dropLink(peer)
	}
	s.publishRoster()
	return nil
}

func (in *inbound) OnOffer(m protocol.Offer) error {
	s := in.session()
	if !s.negotiating() || m.From == "" {
		log.Debug().Str("module", "client.session").Str("from", string(m.From)).Msg("offer ignored")
		return nil
	}
	l := s.links[m.From]
	if l != nil && l.pc != nil {
		// the peer restarted negotiation; start over with a fresh link
		s.dropLink(m.From)
		l = nil
	}
	if l == nil {
		l = s.placeholder(m.From)
	}
	if err := s.attach(l); err != nil {
		s.fail("answer", l.peer, err)
		return nil
	}
	sdp, err := l.pc.CreateAnswer(m.SDP)
	if err != nil {
		s.fail("answer", l.peer, err)
		return nil
	}
	l.remoteSet = true
	s.flushRemote(l)
	s.send(protocol.Answer{Route: protocol.Route{To: l.peer}, SDP: sdp})
	l.localSent = true
	s.flushLocal(l)
	return nil
}

func (in *inbound) OnAnswer(m protocol.Answer) error {
	s := in.session()
	l := s.links[m.From]
	if l == nil || l.pc == nil || !l.offerer {
		log.Debug().Str("module", "client.session").Str("from", string(m.From)).Msg("answer without offer ignored")
		return nil
	}
	if l.answered {
		log.Debug().Str("module", "client.session").Str("from", string(m.From)).Msg("duplicate answer ignored")
		return nil
	}
	l.answered = true
	if err := l.pc.SetAnswer(m.SDP); err != nil {
		s.fail("apply answer", l.peer, err)
		return nil
	}
	l.remoteSet = true
	s.flushRemote(l)
	return nil
}

func (in *inbound) OnCandidate(m protocol.Candidate) error {
	s := in.session()
	if !s.negotiating() || m.From == "" {
		return nil
	}
	l := s.links[m.From]
	if l == nil {
		l = s.placeholder(m.From)
	}
	if l.pc == nil || !l.remoteSet {
		l.pendingRemote = append(l.pendingRemote, m.Candidate)
		return nil
	}
	s.addRemote(l, m.Candidate)
	return nil
}

func (in *inbound) OnError(m protocol.ErrorNotice) error {
	s := in.session()
	log.Warn().Str("module", "client.session").Str("code", m.Message).Msg("server error")
	remote := &RemoteError{Code: m.Message}
	s.emit(Event{Kind: EventRemoteError, Err: remote})
	if s.phase == PhaseJoining {
		// join was refused
		s.shutdown(opError("join", "", wrap(ErrConnectFailed, remote)))
	}
	return nil
}

func (in *inbound) OnJoin(protocol.Join) error   { return nil }
func (in *inbound) OnLeave(protocol.Leave) error { return nil }

func (s *Session) negotiating() bool {
	return s.phase == PhaseNegotiating || s.phase == PhaseConnected
}

func (s *Session) placeholder(peer domain.ConnectionID) *link {
	l := &link{peer: peer}
	s.links[peer] = l
	return l
}

// attach creates the media link for l. Media callbacks only post to the
// mailbox, tagged with l so events from a replaced link are dropped.
func (s *Session) attach(l *link) error {
	if l.pc != nil {
		return nil
	}
	pc, err := s.cfg.Engine.NewLink(l.peer, s.capture, LinkEvents{
		OnCandidate: func(c protocol.ICECandidate) {
			s.box.post(localCandidateEvent{link: l, cand: c})
		},
		OnState: func(st LinkState) {
			s.box.post(linkStateEvent{link: l, state: st})
		},
		OnRemoteAudio: func(active bool) {
			s.box.post(remoteAudioEvent{link: l, active: active})
		},
	})
	if err != nil {
		return err
	}
	l.pc = pc
	return nil
}

func (s *Session) offerTo(peer domain.ConnectionID) {
	l := s.links[peer]
	if l == nil {
		l = s.placeholder(peer)
	}
	if err := s.attach(l); err != nil {
		s.fail("offer", peer, err)
		return
	}
	l.offerer = true
	sdp, err := l.pc.CreateOffer()
	if err != nil {
		s.fail("offer", peer, err)
		return
	}
	s.send(protocol.Offer{Route: protocol.Route{To: peer}, SDP: sdp})
	l.localSent = true
	s.flushLocal(l)
	log.Debug().Str("module", "client.session").Str("peer", string(peer)).Msg("offer sent")
}

func (s *Session) current(l *link) bool {
	return s.links[l.peer] == l
}

func (s *Session) onLocalCandidate(ev localCandidateEvent) {
	l := ev.link
	if !s.current(l) {
		return
	}
	if !l.localSent {
		l.pendingLocal = append(l.pendingLocal, ev.cand)
		return
	}
	s.send(protocol.Candidate{Route: protocol.Route{To: l.peer}, Candidate: ev.cand})
}

func (s *Session) onLinkState(ev linkStateEvent) {
	l := ev.link
	if !s.current(l) {
		return
	}
	s.emit(Event{Kind: EventLinkState, Peer: l.peer, Link: ev.state})
	switch ev.state {
	case LinkConnected:
		l.connected = true
		if s.phase == PhaseNegotiating {
			s.stopTimer()
			s.setPhase(PhaseConnected)
		}
	case LinkFailed:
		s.fail("media", l.peer, ErrNegotiationFailed)
	case LinkClosed:
		s.dropLink(l.peer)
	}
}

func (s *Session) onRemoteAudio(ev remoteAudioEvent) {
	if !s.current(ev.link) {
		return
	}
	user, ok := s.roster.UserByPeer(ev.link.peer)
	if ok && s.roster.SetSpeaking(user, ev.active) {
		s.publishRoster()
	}
}

func (s *Session) flushLocal(l *link) {
	for _, c := range l.pendingLocal {
		s.send(protocol.Candidate{Route: protocol.Route{To: l.peer}, Candidate: c})
	}
	l.pendingLocal = nil
}

func (s *Session) flushRemote(l *link) {
	pending := l.pendingRemote
	l.pendingRemote = nil
	for _, c := range pending {
		s.addRemote(l, c)
	}
}

func (s *Session) addRemote(l *link, c protocol.ICECandidate) {
	if err := l.pc.AddCandidate(c); err != nil {
		log.Warn().Err(err).Str("module", "client.session").Str("peer", string(l.peer)).Msg("add remote candidate")
	}
}

// dropLink closes and forgets the link with peer, including its queues.
func (s *Session) dropLink(peer domain.ConnectionID) {
	l, ok := s.links[peer]
	if !ok {
		return
	}
	delete(s.links, peer)
	l.pendingLocal, l.pendingRemote = nil, nil
	if l.pc != nil {
		if err := l.pc.Close(); err != nil {
			log.Debug().Err(err).Str("module", "client.session").Str("peer", string(peer)).Msg("close link")
		}
	}
}

func (s *Session) activeLinks() int {
	n := 0
	for _, l := range s.links {
		if l.pc != nil {
			n++
		}
	}
	return n
}
