// Package protocol defines the signaling envelopes exchanged over the room
// websocket. The set of envelope kinds is closed: every consumer implements
// Handler, so a new kind has to be handled everywhere before the tree builds.
package protocol

import "github.com/dkeye/Voice/internal/domain"

type Kind string

const (
	KindJoin              Kind = "join"
	KindLeave             Kind = "leave"
	KindParticipants      Kind = "participants"
	KindParticipantJoined Kind = "participant_joined"
	KindParticipantLeft   Kind = "participant_left"
	KindOffer             Kind = "offer"
	KindAnswer            Kind = "answer"
	KindCandidate         Kind = "candidate"
	KindError             Kind = "error"
)

// Codes carried by error envelopes.
const (
	CodeBadPayload     = "bad_payload"
	CodeUnknownType    = "unknown_type"
	CodeUnexpectedType = "unexpected_type"
	CodeNotJoined      = "not_joined"
	CodeAlreadyJoined  = "already_joined"
	CodeRateLimited    = "rate_limited"
	CodeRoomClosed     = "room_closed"
)

// Envelope is one signaling message.
type Envelope interface {
	Kind() Kind
	Visit(h Handler) error
}

// Handler receives a decoded envelope by kind.
type Handler interface {
	OnJoin(Join) error
	OnLeave(Leave) error
	OnParticipants(Participants) error
	OnParticipantJoined(ParticipantJoined) error
	OnParticipantLeft(ParticipantLeft) error
	OnOffer(Offer) error
	OnAnswer(Answer) error
	OnCandidate(Candidate) error
	OnError(ErrorNotice) error
}

// Participant is the wire view of a room member.
type Participant struct {
	UserID domain.UserID       `json:"userId"`
	Role   domain.Role         `json:"role"`
	PeerID domain.ConnectionID `json:"peerId,omitempty"`
}

func ParticipantOf(p domain.Participant) Participant {
	return Participant{UserID: p.UserID, Role: p.Role, PeerID: p.ConnectionID}
}

// ICECandidate mirrors RTCIceCandidateInit. Pointers keep a zero
// sdpMLineIndex on the wire.
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

type Join struct {
	Role domain.Role
}

type Leave struct{}

type Participants struct {
	Self         Participant
	Participants []Participant
}

type ParticipantJoined struct {
	Participant Participant
}

type ParticipantLeft struct {
	UserID domain.UserID
	PeerID domain.ConnectionID
}

// Route addresses a negotiation envelope. To is chosen by the sender; an
// empty To fans out to every other member. From is stamped by the server.
type Route struct {
	From domain.ConnectionID
	To   domain.ConnectionID
}

type Offer struct {
	Route
	SDP string
}

type Answer struct {
	Route
	SDP string
}

type Candidate struct {
	Route
	Candidate ICECandidate
}

type ErrorNotice struct {
	Message string
}

func (Join) Kind() Kind              { return KindJoin }
func (Leave) Kind() Kind             { return KindLeave }
func (Participants) Kind() Kind      { return KindParticipants }
func (ParticipantJoined) Kind() Kind { return KindParticipantJoined }
func (ParticipantLeft) Kind() Kind   { return KindParticipantLeft }
func (Offer) Kind() Kind             { return KindOffer }
func (Answer) Kind() Kind            { return KindAnswer }
func (Candidate) Kind() Kind         { return KindCandidate }
func (ErrorNotice) Kind() Kind       { return KindError }

func (m Join) Visit(h Handler) error              { return h.OnJoin(m) }
func (m Leave) Visit(h Handler) error             { return h.OnLeave(m) }
func (m Participants) Visit(h Handler) error      { return h.OnParticipants(m) }
func (m ParticipantJoined) Visit(h Handler) error { return h.OnParticipantJoined(m) }
func (m ParticipantLeft) Visit(h Handler) error   { return h.OnParticipantLeft(m) }
func (m Offer) Visit(h Handler) error             { return h.OnOffer(m) }
func (m Answer) Visit(h Handler) error            { return h.OnAnswer(m) }
func (m Candidate) Visit(h Handler) error         { return h.OnCandidate(m) }
func (m ErrorNotice) Visit(h Handler) error       { return h.OnError(m) }

// Routed is implemented by the negotiation envelopes the server relays.
type Routed interface {
	Envelope
	Target() domain.ConnectionID
	WithSender(from domain.ConnectionID) Routed
}

func (r Route) Target() domain.ConnectionID { return r.To }

func (m Offer) WithSender(from domain.ConnectionID) Routed {
	m.From = from
	return m
}

func (m Answer) WithSender(from domain.ConnectionID) Routed {
	m.From = from
	return m
}

func (m Candidate) WithSender(from domain.ConnectionID) Routed {
	m.From = from
	return m
}
