package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Voice/internal/domain"
)

var (
	ErrMalformed      = errors.New("malformed envelope")
	ErrUnknownKind    = errors.New("unknown envelope type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// wire is the JSON shape shared by every envelope.
type wire struct {
	Type      Kind                `json:"type"`
	Payload   json.RawMessage     `json:"payload,omitempty"`
	From      domain.ConnectionID `json:"from,omitempty"`
	To        domain.ConnectionID `json:"to,omitempty"`
	SDP       string              `json:"sdp,omitempty"`
	Candidate *ICECandidate       `json:"candidate,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type joinPayload struct {
	Role string `json:"role"`
}

type participantsPayload struct {
	Participants []Participant `json:"participants"`
	Self         *Participant  `json:"self,omitempty"`
}

type participantJoinedPayload struct {
	Participant Participant `json:"participant"`
}

type participantLeftPayload struct {
	UserID domain.UserID       `json:"userId"`
	PeerID domain.ConnectionID `json:"peerId,omitempty"`
}

// Decode parses one websocket message.
func Decode(data []byte) (Envelope, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch w.Type {
	case KindJoin:
		var p joinPayload
		if err := unmarshalPayload(w.Payload, &p); err != nil {
			return nil, err
		}
		role, err := domain.ParseRole(p.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return Join{Role: role}, nil

	case KindLeave:
		return Leave{}, nil

	case KindParticipants:
		var p participantsPayload
		if err := unmarshalPayload(w.Payload, &p); err != nil {
			return nil, err
		}
		msg := Participants{Participants: p.Participants}
		if p.Self != nil {
			msg.Self = *p.Self
		}
		return msg, nil

	case KindParticipantJoined:
		var p participantJoinedPayload
		if err := unmarshalPayload(w.Payload, &p); err != nil {
			return nil, err
		}
		if p.Participant.UserID == "" {
			return nil, fmt.Errorf("%w: participant without userId", ErrInvalidPayload)
		}
		return ParticipantJoined{Participant: p.Participant}, nil

	case KindParticipantLeft:
		var p participantLeftPayload
		if err := unmarshalPayload(w.Payload, &p); err != nil {
			return nil, err
		}
		if p.UserID == "" {
			return nil, fmt.Errorf("%w: missing userId", ErrInvalidPayload)
		}
		return ParticipantLeft{UserID: p.UserID, PeerID: p.PeerID}, nil

	case KindOffer, KindAnswer:
		if w.SDP == "" {
			return nil, fmt.Errorf("%w: missing sdp", ErrInvalidPayload)
		}
		route := Route{From: w.From, To: w.To}
		if w.Type == KindOffer {
			return Offer{Route: route, SDP: w.SDP}, nil
		}
		return Answer{Route: route, SDP: w.SDP}, nil

	case KindCandidate:
		if w.Candidate == nil {
			return nil, fmt.Errorf("%w: missing candidate", ErrInvalidPayload)
		}
		return Candidate{Route: Route{From: w.From, To: w.To}, Candidate: *w.Candidate}, nil

	case KindError:
		return ErrorNotice{Message: w.Error}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Encode renders an envelope as one websocket text message.
func Encode(env Envelope) ([]byte, error) {
	var enc encoder
	if err := env.Visit(&enc); err != nil {
		return nil, err
	}
	return json.Marshal(enc.w)
}

// MustEncode is for envelopes built from trusted values only.
func MustEncode(env Envelope) []byte {
	b, err := Encode(env)
	if err != nil {
		panic(err)
	}
	return b
}

type encoder struct {
	w wire
}

func (e *encoder) payload(kind Kind, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.w = wire{Type: kind, Payload: b}
	return nil
}

func (e *encoder) OnJoin(m Join) error {
	return e.payload(KindJoin, joinPayload{Role: string(m.Role)})
}

func (e *encoder) OnLeave(Leave) error {
	e.w = wire{Type: KindLeave}
	return nil
}

func (e *encoder) OnParticipants(m Participants) error {
	list := m.Participants
	if list == nil {
		list = []Participant{}
	}
	p := participantsPayload{Participants: list}
	if m.Self.UserID != "" {
		self := m.Self
		p.Self = &self
	}
	return e.payload(KindParticipants, p)
}

func (e *encoder) OnParticipantJoined(m ParticipantJoined) error {
	return e.payload(KindParticipantJoined, participantJoinedPayload{Participant: m.Participant})
}

func (e *encoder) OnParticipantLeft(m ParticipantLeft) error {
	return e.payload(KindParticipantLeft, participantLeftPayload{UserID: m.UserID, PeerID: m.PeerID})
}

func (e *encoder) OnOffer(m Offer) error {
	e.w = wire{Type: KindOffer, From: m.From, To: m.To, SDP: m.SDP}
	return nil
}

func (e *encoder) OnAnswer(m Answer) error {
	e.w = wire{Type: KindAnswer, From: m.From, To: m.To, SDP: m.SDP}
	return nil
}

func (e *encoder) OnCandidate(m Candidate) error {
	c := m.Candidate
	e.w = wire{Type: KindCandidate, From: m.From, To: m.To, Candidate: &c}
	return nil
}

func (e *encoder) OnError(m ErrorNotice) error {
	e.w = wire{Type: KindError, Error: m.Message}
	return nil
}
