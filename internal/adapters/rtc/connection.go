package rtc

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Voice/internal/client"
	"github.com/dkeye/Voice/internal/domain"
	"github.com/dkeye/Voice/internal/protocol"
)

var ErrUnsupportedTrack = errors.New("capture track cannot be sent by this engine")

// localTrack is implemented by capture tracks this engine can send.
type localTrack interface {
	TrackLocal() webrtc.TrackLocal
}

func DefaultWebRTCConfig(stunURLs ...string) webrtc.Configuration {
	if len(stunURLs) == 0 {
		stunURLs = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: stunURLs}},
	}
}

// Engine creates pion peer connections for the client session.
type Engine struct {
	api    *webrtc.API
	config webrtc.Configuration
}

var _ client.MediaEngine = (*Engine)(nil)

func NewEngine(cfg webrtc.Configuration) (*Engine, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	return &Engine{api: webrtc.NewAPI(webrtc.WithMediaEngine(m)), config: cfg}, nil
}

func (e *Engine) NewLink(peer domain.ConnectionID, capture client.CaptureTrack, ev client.LinkEvents) (client.PeerLink, error) {
	pc, err := e.api.NewPeerConnection(e.config)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &WebRTCConnection{pc: pc, peer: peer, ev: ev, ctx: ctx, cancel: cancel}

	if err := c.addAudio(capture); err != nil {
		c.cancel()
		_ = pc.Close()
		return nil, err
	}
	c.bindHandlers()
	return c, nil
}

// WebRTCConnection is the audio link with one remote peer.
type WebRTCConnection struct {
	pc     *webrtc.PeerConnection
	peer   domain.ConnectionID
	ev     client.LinkEvents
	ctx    context.Context
	cancel context.CancelFunc
}

// addAudio adds a send-receive transceiver for the capture track, or a
// receive-only one without it.
func (c *WebRTCConnection) addAudio(capture client.CaptureTrack) error {
	if capture == nil {
		_, err := c.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		})
		return err
	}
	lt, ok := capture.(localTrack)
	if !ok {
		return ErrUnsupportedTrack
	}
	sender, err := c.pc.AddTrack(lt.TrackLocal())
	if err != nil {
		return err
	}
	// RTCP has to be read for interceptors to run
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

func (c *WebRTCConnection) bindHandlers() {
	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "webrtc").Str("peer", string(c.peer)).Str("peer_connection_state", s.String()).Msg("Peer state")
		if c.ev.OnState == nil {
			return
		}
		switch s {
		case webrtc.PeerConnectionStateConnecting:
			c.ev.OnState(client.LinkConnecting)
		case webrtc.PeerConnectionStateConnected:
			c.ev.OnState(client.LinkConnected)
		case webrtc.PeerConnectionStateFailed:
			c.ev.OnState(client.LinkFailed)
		case webrtc.PeerConnectionStateClosed:
			c.ev.OnState(client.LinkClosed)
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && c.ev.OnCandidate != nil {
			c.ev.OnCandidate(fromInit(cand.ToJSON()))
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "webrtc").
			Str("peer", string(c.peer)).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("OnTrack received")
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		read := func(b []byte) (int, error) {
			n, _, err := track.Read(b)
			return n, err
		}
		go drainRemote(c.ctx, read, c.ev.OnRemoteAudio)
	})
}

func (c *WebRTCConnection) CreateOffer() (string, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return c.pc.LocalDescription().SDP, nil
}

func (c *WebRTCConnection) CreateAnswer(offer string) (string, error) {
	if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer}); err != nil {
		return "", err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return c.pc.LocalDescription().SDP, nil
}

func (c *WebRTCConnection) SetAnswer(answer string) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answer})
}

func (c *WebRTCConnection) AddCandidate(cand protocol.ICECandidate) error {
	return c.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     cand.Candidate,
		SDPMid:        cand.SDPMid,
		SDPMLineIndex: cand.SDPMLineIndex,
	})
}

func (c *WebRTCConnection) Close() error {
	c.cancel()
	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "webrtc").Str("peer", string(c.peer)).Msg("close error")
		return err
	}
	log.Info().Str("module", "webrtc").Str("peer", string(c.peer)).Msg("closed")
	return nil
}

func fromInit(ci webrtc.ICECandidateInit) protocol.ICECandidate {
	return protocol.ICECandidate{
		Candidate:     ci.Candidate,
		SDPMid:        ci.SDPMid,
		SDPMLineIndex: ci.SDPMLineIndex,
	}
}
