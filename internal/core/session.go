package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
)

// ApprovalState is the admission state of a session. A session starts
// pending and is promoted to approved exactly once; only approved
// sessions may hold media resources.
type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
)

var ErrSessionClosed = errors.New("session closed")

// inboundTransport is a transport on THIS session that receives media
// from one remote peer, together with its consumers.
type inboundTransport struct {
	transport engine.Transport
	consumers map[string]engine.Consumer
}

// Session tracks one participant's identity and media bookkeeping. The
// actual transport/produce/consume calls are made against the engine by
// the orchestrator; a Session only records ownership so everything can
// be released when the participant disappears.
type Session struct {
	peer     domain.PeerID
	userName string
	signal   SignalConnection

	mu            sync.Mutex
	roomName      domain.RoomName
	state         ApprovalState
	joinRequestID string

	adminMuted         bool
	adminVideoDisabled bool

	outbound  engine.Transport
	producers map[engine.MediaKind]engine.Producer
	inbound   map[domain.PeerID]*inboundTransport

	closed bool
}

func NewSession(peer domain.PeerID, userName string, signal SignalConnection) *Session {
	return &Session{
		peer:      peer,
		userName:  userName,
		signal:    signal,
		state:     StatePending,
		producers: make(map[engine.MediaKind]engine.Producer),
		inbound:   make(map[domain.PeerID]*inboundTransport),
	}
}

func (s *Session) Peer() domain.PeerID      { return s.peer }
func (s *Session) UserName() string         { return s.userName }
func (s *Session) Signal() SignalConnection { return s.signal }

func (s *Session) RoomName() domain.RoomName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomName
}

func (s *Session) SetRoomName(name domain.RoomName) {
	s.mu.Lock()
	s.roomName = name
	s.mu.Unlock()
}

func (s *Session) State() ApprovalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsApproved() bool { return s.State() == StateApproved }

// Approve promotes the session; it transitions at most once. A cleaned-up
// session cannot be promoted, so an approval racing the requester's
// disconnect loses instead of producing a dead member.
func (s *Session) Approve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.state = StateApproved
	s.joinRequestID = ""
	return nil
}

func (s *Session) JoinRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinRequestID
}

func (s *Session) SetJoinRequestID(id string) {
	s.mu.Lock()
	s.joinRequestID = id
	s.mu.Unlock()
}

// SetOutboundTransport records the transport this session produces over.
// It returns the replaced transport, if any, so the caller can close it.
func (s *Session) SetOutboundTransport(t engine.Transport) (engine.Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	prev := s.outbound
	s.outbound = t
	return prev, nil
}

func (s *Session) OutboundTransport() engine.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outbound
}

// TransportByID looks through the outbound and all inbound transports.
func (s *Session) TransportByID(id string) (engine.Transport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outbound != nil && s.outbound.ID() == id {
		return s.outbound, true
	}
	for _, it := range s.inbound {
		if it.transport.ID() == id {
			return it.transport, true
		}
	}
	return nil, false
}

// AddProducer records a producer under its media kind. At most one
// producer per kind: the replaced one, if any, is returned for closing.
func (s *Session) AddProducer(p engine.Producer) (engine.Producer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	prev := s.producers[p.Kind()]
	s.producers[p.Kind()] = p
	return prev, nil
}

func (s *Session) GetProducer(kind engine.MediaKind) (engine.Producer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.producers[kind]
	return p, ok
}

// CloseProducer closes and forgets the producer of the given kind.
// No-op if absent.
func (s *Session) CloseProducer(kind engine.MediaKind) {
	s.mu.Lock()
	p, ok := s.producers[kind]
	delete(s.producers, kind)
	s.mu.Unlock()
	if ok {
		_ = p.Close()
	}
}

// Producers returns a snapshot of the session's producers.
func (s *Session) Producers() []engine.Producer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Producer, 0, len(s.producers))
	for _, p := range s.producers {
		out = append(out, p)
	}
	return out
}

func (s *Session) AddInboundTransport(remote domain.PeerID, t engine.Transport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.inbound[remote] = &inboundTransport{
		transport: t,
		consumers: make(map[string]engine.Consumer),
	}
	return nil
}

func (s *Session) InboundTransport(remote domain.PeerID) (engine.Transport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.inbound[remote]
	if !ok {
		return nil, false
	}
	return it.transport, true
}

func (s *Session) AddConsumer(remote domain.PeerID, c engine.Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	it, ok := s.inbound[remote]
	if !ok {
		return errors.New("no inbound transport for remote peer")
	}
	it.consumers[c.ID()] = c
	return nil
}

func (s *Session) GetConsumer(remote domain.PeerID, consumerID string) (engine.Consumer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.inbound[remote]
	if !ok {
		return nil, false
	}
	c, ok := it.consumers[consumerID]
	return c, ok
}

// SetAdminMuted applies a host-imposed mute. The flag is recorded and the
// audio producer, if present, is paused or resumed to match. Idempotent:
// repeating a value only re-asserts the producer state.
func (s *Session) SetAdminMuted(ctx context.Context, muted bool) error {
	s.mu.Lock()
	s.adminMuted = muted
	p := s.producers[engine.KindAudio]
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	if muted {
		return p.Pause(ctx)
	}
	return p.Resume(ctx)
}

func (s *Session) AdminMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminMuted
}

// SetAdminVideoDisabled is the video counterpart of SetAdminMuted.
func (s *Session) SetAdminVideoDisabled(ctx context.Context, disabled bool) error {
	s.mu.Lock()
	s.adminVideoDisabled = disabled
	p := s.producers[engine.KindVideo]
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	if disabled {
		return p.Pause(ctx)
	}
	return p.Resume(ctx)
}

func (s *Session) AdminVideoDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminVideoDisabled
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Cleanup releases every producer, the outbound transport, and every
// inbound transport with its consumers. Admin removal and the connection
// close event can both trigger it, so it must be safe to call twice.
func (s *Session) Cleanup() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	producers := s.producers
	outbound := s.outbound
	inbound := s.inbound
	s.producers = make(map[engine.MediaKind]engine.Producer)
	s.outbound = nil
	s.inbound = make(map[domain.PeerID]*inboundTransport)
	s.mu.Unlock()

	for _, p := range producers {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Str("module", "core.session").Str("peer", string(s.peer)).Msg("close producer")
		}
	}
	if outbound != nil {
		if err := outbound.Close(); err != nil {
			log.Warn().Err(err).Str("module", "core.session").Str("peer", string(s.peer)).Msg("close outbound transport")
		}
	}
	for _, it := range inbound {
		for _, c := range it.consumers {
			_ = c.Close()
		}
		if err := it.transport.Close(); err != nil {
			log.Warn().Err(err).Str("module", "core.session").Str("peer", string(s.peer)).Msg("close inbound transport")
		}
	}
	log.Info().Str("module", "core.session").Str("peer", string(s.peer)).Msg("session cleaned up")
}
