package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

const eventually = 2 * time.Second

type testSession struct {
	*Session
	sig    *fakeSignaler
	engine *fakeEngine
}

func startSession(t *testing.T, cfg Config) *testSession {
	t.Helper()
	ts := &testSession{sig: newFakeSignaler(), engine: newFakeEngine()}
	if cfg.Dialer == nil {
		cfg.Dialer = fakeDialer{sig: ts.sig}
	}
	cfg.Engine = ts.engine
	ts.Session = NewSession(cfg)
	t.Cleanup(func() { _ = ts.Close() })
	require.NoError(t, ts.Connect(context.Background()))
	return ts
}

func (ts *testSession) waitPhase(t *testing.T, p Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return ts.Phase() == p }, eventually, 5*time.Millisecond, "phase %s", p)
}

func (ts *testSession) waitLink(t *testing.T, peer domain.ConnectionID) *fakeLink {
	t.Helper()
	require.Eventually(t, func() bool { return ts.engine.link(peer) != nil }, eventually, 5*time.Millisecond)
	return ts.engine.link(peer)
}

func quietTrack(ctrl *gomock.Controller) *MockCaptureTrack {
	track := NewMockCaptureTrack(ctrl)
	track.EXPECT().Level().Return(0.0).AnyTimes()
	track.EXPECT().SetMuted(gomock.Any()).AnyTimes()
	return track
}

func TestSpeakerJoinsListenerLobby(t *testing.T) {
	ctrl := gomock.NewController(t)
	track := quietTrack(ctrl)
	track.EXPECT().Stop().Times(1)
	device := NewMockCaptureDevice(ctrl)
	device.EXPECT().Open(gomock.Any()).Return(track, nil)

	ts := startSession(t, Config{Role: domain.RoleSpeaker, Capture: device})
	assert.Equal(t, []protocol.Envelope{protocol.Join{Role: domain.RoleSpeaker}}, ts.sig.sentEnvelopes())
	assert.Equal(t, PhaseJoining, ts.Phase())

	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: a, Participants: []protocol.Participant{b, a}})

	l := ts.waitLink(t, b.PeerID)
	assert.Same(t, track, l.capture)
	require.Eventually(t, func() bool { return len(ts.sig.sentOf(protocol.KindOffer)) == 1 }, eventually, 5*time.Millisecond)
	offer := ts.sig.sentOf(protocol.KindOffer)[0].(protocol.Offer)
	assert.Equal(t, b.PeerID, offer.To)
	assert.Equal(t, "offer-peer-B", offer.SDP)
	assert.Equal(t, PhaseNegotiating, ts.Phase())
	assert.Nil(t, ts.engine.link(a.PeerID), "no link to self")

	ts.sig.deliver(protocol.Answer{Route: protocol.Route{From: b.PeerID}, SDP: "answer-1"})
	ts.sig.deliver(protocol.Answer{Route: protocol.Route{From: b.PeerID}, SDP: "answer-2"})
	// envelopes are handled in order, so once C shows up both answers were seen
	ts.sig.deliver(protocol.ParticipantJoined{Participant: participant("C", domain.RoleListener)})
	require.Eventually(t, func() bool { return len(ts.Roster()) == 3 }, eventually, 5*time.Millisecond)

	l.ev.OnState(LinkConnected)
	ts.waitPhase(t, PhaseConnected)

	ops, answers, _ := l.snapshot()
	assert.Equal(t, 1, answers)
	assert.Equal(t, []string{"offer", "set-answer:answer-1"}, ops)

	require.NoError(t, ts.Close())
	assert.Equal(t, PhaseClosed, ts.Phase())
	assert.NoError(t, ts.Err())
	_, _, closes := l.snapshot()
	assert.Equal(t, 1, closes)
	assert.Len(t, ts.sig.sentOf(protocol.KindLeave), 1)
}

func TestCaptureDeniedStaysReceiveOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := NewMockCaptureDevice(ctrl)
	device.EXPECT().Open(gomock.Any()).Return(nil, errors.New("permission denied"))

	ts := startSession(t, Config{Role: domain.RoleSpeaker, Capture: device})
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: a, Participants: []protocol.Participant{b, a}})

	var captureErr error
	require.Eventually(t, func() bool {
		for {
			select {
			case ev := <-ts.Events():
				if ev.Kind == EventCaptureError {
					captureErr = ev.Err
					return true
				}
			default:
				return false
			}
		}
	}, eventually, 5*time.Millisecond)
	assert.ErrorIs(t, captureErr, ErrCaptureUnavailable)

	l := ts.waitLink(t, b.PeerID)
	assert.Nil(t, l.capture)
	require.Eventually(t, func() bool { return len(ts.sig.sentOf(protocol.KindOffer)) == 1 }, eventually, 5*time.Millisecond)
	assert.Equal(t, PhaseNegotiating, ts.Phase())
}

func TestSpeakerWithoutDevice(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleSpeaker})
	a := participant("A", domain.RoleSpeaker)
	ts.sig.deliver(protocol.Participants{Self: a, Participants: []protocol.Participant{a}})
	ts.waitPhase(t, PhaseNegotiating)
}

func TestCandidateBeforeOfferIsQueued(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{b}})
	ts.waitPhase(t, PhaseNegotiating)
	ts.sig.deliver(protocol.ParticipantJoined{Participant: a})

	ts.sig.deliver(protocol.Candidate{Route: protocol.Route{From: a.PeerID}, Candidate: protocol.ICECandidate{Candidate: "c1"}})
	ts.sig.deliver(protocol.Offer{Route: protocol.Route{From: a.PeerID}, SDP: "offer-from-A"})
	ts.sig.deliver(protocol.Candidate{Route: protocol.Route{From: a.PeerID}, Candidate: protocol.ICECandidate{Candidate: "c2"}})

	l := ts.waitLink(t, a.PeerID)
	require.Eventually(t, func() bool {
		ops, _, _ := l.snapshot()
		return len(ops) == 3
	}, eventually, 5*time.Millisecond)
	ops, _, _ := l.snapshot()
	assert.Equal(t, []string{"answer:offer-from-A", "candidate:c1", "candidate:c2"}, ops)

	answers := ts.sig.sentOf(protocol.KindAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, a.PeerID, answers[0].(protocol.Answer).To)

	l.ev.OnCandidate(protocol.ICECandidate{Candidate: "local-1"})
	require.Eventually(t, func() bool { return len(ts.sig.sentOf(protocol.KindCandidate)) == 1 }, eventually, 5*time.Millisecond)
	cand := ts.sig.sentOf(protocol.KindCandidate)[0].(protocol.Candidate)
	assert.Equal(t, a.PeerID, cand.To)
	assert.Equal(t, "local-1", cand.Candidate.Candidate)
}

func TestCloseTwiceReleasesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	track := quietTrack(ctrl)
	track.EXPECT().Stop().Times(1)
	device := NewMockCaptureDevice(ctrl)
	device.EXPECT().Open(gomock.Any()).Return(track, nil)

	ts := startSession(t, Config{Role: domain.RoleSpeaker, Capture: device})
	a := participant("A", domain.RoleSpeaker)
	ts.sig.deliver(protocol.Participants{Self: a, Participants: []protocol.Participant{a}})
	ts.waitPhase(t, PhaseNegotiating)

	require.NoError(t, ts.Close())
	require.NoError(t, ts.Close())
	assert.Len(t, ts.sig.sentOf(protocol.KindLeave), 1)
	assert.Empty(t, ts.Roster())
	assert.ErrorIs(t, ts.Connect(context.Background()), ErrSessionClosed)

	for range ts.Events() {
	}
}

func TestCloseBeforeConnect(t *testing.T) {
	s := NewSession(Config{Role: domain.RoleListener, Engine: newFakeEngine()})
	require.NoError(t, s.Close())
	assert.Equal(t, PhaseClosed, s.Phase())
}

func TestDialFailure(t *testing.T) {
	s := NewSession(Config{
		Role:   domain.RoleListener,
		Dialer: fakeDialer{err: errors.New("connection refused")},
		Engine: newFakeEngine(),
	})
	err := s.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectFailed)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "dial", opErr.Op)
	<-s.Done()
	assert.Equal(t, PhaseClosed, s.Phase())
	assert.ErrorIs(t, s.Err(), ErrConnectFailed)
}

func TestConnectTwice(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	assert.ErrorIs(t, ts.Connect(context.Background()), ErrNotIdle)
}

func TestNegotiationTimeout(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener, NegotiationTimeout: 50 * time.Millisecond})
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{a, b}})

	select {
	case <-ts.Done():
	case <-time.After(eventually):
		t.Fatal("session did not time out")
	}
	assert.ErrorIs(t, ts.Err(), ErrNegotiationFailed)
	assert.ErrorIs(t, ts.Err(), context.DeadlineExceeded)
	_, _, closes := ts.engine.link(a.PeerID).snapshot()
	assert.Equal(t, 1, closes)
}

func TestAloneInRoomKeepsWaiting(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener, NegotiationTimeout: 20 * time.Millisecond})
	b := participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{b}})
	ts.waitPhase(t, PhaseNegotiating)

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, PhaseNegotiating, ts.Phase())
}

func TestJoinTimeoutWithoutSnapshot(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener, NegotiationTimeout: 20 * time.Millisecond})
	<-ts.Done()
	assert.ErrorIs(t, ts.Err(), ErrNegotiationFailed)
}

func TestMediaFailureClosesSession(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{a, b}})
	l := ts.waitLink(t, a.PeerID)

	l.ev.OnState(LinkFailed)
	<-ts.Done()
	var opErr *OpError
	require.ErrorAs(t, ts.Err(), &opErr)
	assert.Equal(t, a.PeerID, opErr.Peer)
	assert.ErrorIs(t, ts.Err(), ErrNegotiationFailed)
}

func TestSignalingLossClosesSession(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	ts.sig.hangUp()
	<-ts.Done()
	assert.ErrorIs(t, ts.Err(), ErrSignalingClosed)
}

func TestPeerLeavingDropsLink(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{a, b}})
	l := ts.waitLink(t, a.PeerID)

	ts.sig.deliver(protocol.ParticipantLeft{UserID: a.UserID, PeerID: a.PeerID})
	require.Eventually(t, func() bool {
		_, _, closes := l.snapshot()
		return closes == 1
	}, eventually, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(ts.Roster()) == 1 }, eventually, 5*time.Millisecond)

	// a late answer from the departed peer changes nothing
	ts.sig.deliver(protocol.Answer{Route: protocol.Route{From: a.PeerID}, SDP: "late"})
	ts.sig.deliver(protocol.ParticipantLeft{UserID: a.UserID, PeerID: a.PeerID})
	time.Sleep(20 * time.Millisecond)
	_, answers, closes := l.snapshot()
	assert.Zero(t, answers)
	assert.Equal(t, 1, closes)
	assert.Equal(t, PhaseNegotiating, ts.Phase())
}

func TestRosterTracksSpeaking(t *testing.T) {
	ctrl := gomock.NewController(t)
	track := NewMockCaptureTrack(ctrl)
	track.EXPECT().Level().Return(0.5).AnyTimes()
	track.EXPECT().SetMuted(false)
	track.EXPECT().Stop()
	device := NewMockCaptureDevice(ctrl)
	device.EXPECT().Open(gomock.Any()).Return(track, nil)

	ts := startSession(t, Config{Role: domain.RoleSpeaker, Capture: device, ActivityInterval: 5 * time.Millisecond})
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleSpeaker)
	ts.sig.deliver(protocol.Participants{Self: a, Participants: []protocol.Participant{a, b}})

	speaking := func(user domain.UserID) bool {
		for _, e := range ts.Roster() {
			if e.UserID == user {
				return e.Speaking
			}
		}
		return false
	}
	require.Eventually(t, func() bool { return speaking("A") }, eventually, 5*time.Millisecond)

	l := ts.waitLink(t, b.PeerID)
	l.ev.OnRemoteAudio(true)
	require.Eventually(t, func() bool { return speaking("B") }, eventually, 5*time.Millisecond)

	ts.sig.deliver(protocol.ParticipantJoined{Participant: b})
	require.Eventually(t, func() bool { return !speaking("B") }, eventually, 5*time.Millisecond)
}

func TestMuteReachesCapture(t *testing.T) {
	ctrl := gomock.NewController(t)
	track := NewMockCaptureTrack(ctrl)
	track.EXPECT().Level().Return(0.0).AnyTimes()
	gomock.InOrder(
		track.EXPECT().SetMuted(true),
		track.EXPECT().SetMuted(false),
	)
	track.EXPECT().Stop()
	device := NewMockCaptureDevice(ctrl)
	device.EXPECT().Open(gomock.Any()).Return(track, nil)

	ts := startSession(t, Config{Role: domain.RoleSpeaker, Capture: device})
	ts.SetMuted(true)
	a := participant("A", domain.RoleSpeaker)
	ts.sig.deliver(protocol.Participants{Self: a, Participants: []protocol.Participant{a}})
	ts.waitPhase(t, PhaseNegotiating)
	ts.SetMuted(false)
	require.NoError(t, ts.Close())
}

func TestServerErrorIsReported(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	b := participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{b}})
	ts.waitPhase(t, PhaseNegotiating)

	ts.sig.deliver(protocol.ErrorNotice{Message: protocol.CodeNotJoined})
	require.Eventually(t, func() bool {
		for {
			select {
			case ev := <-ts.Events():
				var remote *RemoteError
				if ev.Kind == EventRemoteError && errors.As(ev.Err, &remote) {
					return remote.Code == protocol.CodeNotJoined
				}
			default:
				return false
			}
		}
	}, eventually, 5*time.Millisecond)
	assert.Equal(t, PhaseNegotiating, ts.Phase())
}

func TestRefusedJoinClosesSession(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	ts.sig.deliver(protocol.ErrorNotice{Message: protocol.CodeRateLimited})

	select {
	case <-ts.Done():
	case <-time.After(eventually):
		t.Fatal("session still joining after the server refused the join")
	}
	assert.Equal(t, PhaseClosed, ts.Phase())
	assert.ErrorIs(t, ts.Err(), ErrConnectFailed)

	var remote *RemoteError
	require.ErrorAs(t, ts.Err(), &remote)
	assert.Equal(t, protocol.CodeRateLimited, remote.Code)
}

func TestOffererQueuesCandidatesAroundAnswer(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	ts.engine.gatherOnOffer("local-1", "local-2")
	a, b := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{a, b}})

	l := ts.waitLink(t, a.PeerID)
	require.Eventually(t, func() bool { return len(ts.sig.sentOf(protocol.KindOffer)) == 1 }, eventually, 5*time.Millisecond)

	// the remote candidate overtakes the answer
	ts.sig.deliver(protocol.Candidate{Route: protocol.Route{From: a.PeerID}, Candidate: protocol.ICECandidate{Candidate: "x"}})
	ts.sig.deliver(protocol.Answer{Route: protocol.Route{From: a.PeerID}, SDP: "answer-from-A"})

	require.Eventually(t, func() bool {
		ops, _, _ := l.snapshot()
		return len(ops) == 3
	}, eventually, 5*time.Millisecond)
	ops, answers, _ := l.snapshot()
	assert.Equal(t, []string{"offer", "set-answer:answer-from-A", "candidate:x"}, ops)
	assert.Equal(t, 1, answers)

	require.Eventually(t, func() bool { return len(ts.sig.sentOf(protocol.KindCandidate)) == 2 }, eventually, 5*time.Millisecond)
	var kinds []protocol.Kind
	var local []string
	for _, env := range ts.sig.sentEnvelopes() {
		kinds = append(kinds, env.Kind())
		if c, ok := env.(protocol.Candidate); ok {
			assert.Equal(t, a.PeerID, c.To)
			local = append(local, c.Candidate.Candidate)
		}
	}
	assert.Equal(t, []protocol.Kind{protocol.KindJoin, protocol.KindOffer, protocol.KindCandidate, protocol.KindCandidate}, kinds)
	assert.Equal(t, []string{"local-1", "local-2"}, local)
}

func TestStaleConnectionLeavingKeepsRejoinedUser(t *testing.T) {
	ts := startSession(t, Config{Role: domain.RoleListener})
	a, b, c := participant("A", domain.RoleSpeaker), participant("B", domain.RoleListener), participant("C", domain.RoleListener)
	ts.sig.deliver(protocol.Participants{Self: b, Participants: []protocol.Participant{a, b}})
	old := ts.waitLink(t, a.PeerID)

	rejoined := a
	rejoined.PeerID = "peer-A-2"
	ts.sig.deliver(protocol.ParticipantJoined{Participant: rejoined})
	ts.sig.deliver(protocol.ParticipantLeft{UserID: a.UserID, PeerID: a.PeerID})
	ts.sig.deliver(protocol.ParticipantJoined{Participant: c})

	require.Eventually(t, func() bool { return len(ts.Roster()) == 3 }, eventually, 5*time.Millisecond)
	assert.Equal(t, []RosterEntry{
		{UserID: "A", Role: domain.RoleSpeaker, PeerID: "peer-A-2"},
		{UserID: "B", Role: domain.RoleListener, PeerID: "peer-B"},
		{UserID: "C", Role: domain.RoleListener, PeerID: "peer-C"},
	}, ts.Roster())

	_, _, closes := old.snapshot()
	assert.Equal(t, 1, closes)
}
