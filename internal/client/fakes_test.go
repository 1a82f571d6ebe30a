package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

type fakeSignaler struct {
	incoming chan protocol.Envelope

	mu     sync.Mutex
	sent   []protocol.Envelope
	closes int
	once   sync.Once
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{incoming: make(chan protocol.Envelope, 32)}
}

func (f *fakeSignaler) Send(env protocol.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeSignaler) Incoming() <-chan protocol.Envelope { return f.incoming }

func (f *fakeSignaler) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.hangUp()
	return nil
}

// hangUp simulates the server dropping the connection.
func (f *fakeSignaler) hangUp() {
	f.once.Do(func() { close(f.incoming) })
}

func (f *fakeSignaler) deliver(env protocol.Envelope) { f.incoming <- env }

func (f *fakeSignaler) sentEnvelopes() []protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Envelope(nil), f.sent...)
}

func (f *fakeSignaler) sentOf(kind protocol.Kind) []protocol.Envelope {
	var out []protocol.Envelope
	for _, env := range f.sentEnvelopes() {
		if env.Kind() == kind {
			out = append(out, env)
		}
	}
	return out
}

type fakeDialer struct {
	sig *fakeSignaler
	err error
}

func (d fakeDialer) Dial(context.Context) (Signaler, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.sig, nil
}

type fakeLink struct {
	peer    domain.ConnectionID
	capture CaptureTrack
	ev      LinkEvents
	gather  []string

	mu      sync.Mutex
	ops     []string
	answers int
	closes  int
}

func (l *fakeLink) record(op string) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *fakeLink) CreateOffer() (string, error) {
	l.record("offer")
	for _, c := range l.gather {
		l.ev.OnCandidate(protocol.ICECandidate{Candidate: c})
	}
	return "offer-" + string(l.peer), nil
}

func (l *fakeLink) CreateAnswer(offer string) (string, error) {
	l.record("answer:" + offer)
	return "answer-" + string(l.peer), nil
}

func (l *fakeLink) SetAnswer(answer string) error {
	l.mu.Lock()
	l.answers++
	l.mu.Unlock()
	l.record("set-answer:" + answer)
	return nil
}

func (l *fakeLink) AddCandidate(c protocol.ICECandidate) error {
	l.record("candidate:" + c.Candidate)
	return nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	l.closes++
	l.mu.Unlock()
	return nil
}

func (l *fakeLink) snapshot() (ops []string, answers, closes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...), l.answers, l.closes
}

type fakeEngine struct {
	mu     sync.Mutex
	links  map[domain.ConnectionID][]*fakeLink
	err    error
	gather []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{links: make(map[domain.ConnectionID][]*fakeLink)}
}

func (e *fakeEngine) NewLink(peer domain.ConnectionID, capture CaptureTrack, ev LinkEvents) (PeerLink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	l := &fakeLink{peer: peer, capture: capture, ev: ev, gather: e.gather}
	e.links[peer] = append(e.links[peer], l)
	return l, nil
}

// gatherOnOffer makes new links discover local candidates while the offer
// is being created.
func (e *fakeEngine) gatherOnOffer(cands ...string) {
	e.mu.Lock()
	e.gather = cands
	e.mu.Unlock()
}

func (e *fakeEngine) link(peer domain.ConnectionID) *fakeLink {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.links[peer]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, list := range e.links {
		n += len(list)
	}
	return n
}

func participant(user string, role domain.Role) protocol.Participant {
	return protocol.Participant{
		UserID: domain.UserID(user),
		Role:   role,
		PeerID: domain.ConnectionID(fmt.Sprintf("peer-%s", user)),
	}
}
