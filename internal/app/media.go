package app

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

const (
	DirectionProducer = "producer"
	DirectionConsumer = "consumer"
)

// CreateTransport allocates a transport on the room's router: one outbound
// transport for producing, or one inbound transport per remote peer being
// consumed. Engine calls are suspension points, so the session is
// re-checked afterwards; a transport landing on a torn-down session is
// closed instead of leaked.
func (o *Orchestrator) CreateTransport(ctx context.Context, peer domain.PeerID, direction string, remotePeer domain.PeerID) (*protocol.TransportCreated, error) {
	sess, room, err := o.approvedSession(peer)
	if err != nil {
		return nil, err
	}
	if direction != DirectionProducer && direction != DirectionConsumer {
		return nil, ErrBadDirection
	}
	if direction == DirectionConsumer && remotePeer == "" {
		return nil, ErrPeerNotFound
	}

	t, err := room.Router().CreateTransport(ctx, o.Transport)
	if err != nil {
		return nil, err
	}

	if direction == DirectionProducer {
		prev, err := sess.SetOutboundTransport(t)
		if err != nil {
			_ = t.Close()
			return nil, err
		}
		if prev != nil {
			_ = prev.Close()
		}
	} else {
		if err := sess.AddInboundTransport(remotePeer, t); err != nil {
			_ = t.Close()
			return nil, err
		}
	}

	info := t.Info()
	return &protocol.TransportCreated{
		Type:           protocol.MsgTransportCreated,
		ID:             info.ID,
		ICEParameters:  info.ICEParameters,
		ICECandidates:  info.ICECandidates,
		DTLSParameters: info.DTLSParameters,
	}, nil
}

func (o *Orchestrator) ConnectTransport(ctx context.Context, peer domain.PeerID, transportID string, dtls webrtc.DTLSParameters) error {
	sess, _, err := o.approvedSession(peer)
	if err != nil {
		return err
	}
	t, ok := sess.TransportByID(transportID)
	if !ok {
		return ErrTransportNotFound
	}
	return t.Connect(ctx, dtls)
}

// Produce registers a new outbound stream and announces it to the room.
// A failed engine call advances nothing; a success replaces any previous
// producer of the same kind.
func (o *Orchestrator) Produce(ctx context.Context, peer domain.PeerID, transportID string, kind engine.MediaKind, rtp webrtc.RTPParameters) (*protocol.Produced, error) {
	sess, room, err := o.approvedSession(peer)
	if err != nil {
		return nil, err
	}
	t := sess.OutboundTransport()
	if t == nil || (transportID != "" && t.ID() != transportID) {
		return nil, ErrTransportNotFound
	}

	p, err := t.Produce(ctx, kind, rtp)
	if err != nil {
		return nil, err
	}
	prev, err := sess.AddProducer(p)
	if err != nil {
		// Session was torn down while the engine call was in flight.
		_ = p.Close()
		return nil, err
	}
	if prev != nil {
		_ = prev.Close()
		o.broadcast(room, peer, &protocol.ProducerClosed{
			Type:         protocol.MsgProducerClosed,
			ProducerID:   prev.ID(),
			RemotePeerID: string(peer),
		})
	}

	o.broadcast(room, peer, &protocol.NewProducer{
		Type:         protocol.MsgNewProducer,
		ProducerID:   p.ID(),
		UserName:     sess.UserName(),
		RemotePeerID: string(peer),
		Kind:         string(kind),
	})
	log.Info().Str("module", "app.media").Str("room", string(room.Name())).
		Str("peer", string(peer)).Str("producer", p.ID()).Str("kind", string(kind)).Msg("producing")
	return &protocol.Produced{Type: protocol.MsgProduced, ProducerID: p.ID()}, nil
}

// Consume pairs the caller with a remote producer over the inbound
// transport previously created for that remote peer. Consumers start
// paused; the client resumes once its media element is wired.
func (o *Orchestrator) Consume(ctx context.Context, peer domain.PeerID, producerID string, remotePeer domain.PeerID, caps webrtc.RTPCapabilities) (*protocol.Consumed, error) {
	sess, room, err := o.approvedSession(peer)
	if err != nil {
		return nil, err
	}
	t, ok := sess.InboundTransport(remotePeer)
	if !ok {
		return nil, ErrTransportNotFound
	}
	if !room.Router().CanConsume(producerID, caps) {
		return nil, ErrCannotConsume
	}

	c, err := t.Consume(ctx, producerID, caps, true)
	if err != nil {
		return nil, err
	}
	if err := sess.AddConsumer(remotePeer, c); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &protocol.Consumed{
		Type:          protocol.MsgConsumed,
		ConsumerID:    c.ID(),
		ProducerID:    producerID,
		Kind:          string(c.Kind()),
		RTPParameters: c.RTPParameters(),
	}, nil
}

// ResumeConsumer unpauses a consumer. Resuming a consumer that is already
// gone is a no-op, not an error: teardown can race the resume.
func (o *Orchestrator) ResumeConsumer(ctx context.Context, peer domain.PeerID, consumerID string, remotePeer domain.PeerID) error {
	sess, _, err := o.approvedSession(peer)
	if err != nil {
		return err
	}
	c, ok := sess.GetConsumer(remotePeer, consumerID)
	if !ok {
		return nil
	}
	return c.Resume(ctx)
}

// ProducerStateChanged applies a participant's own mute/camera toggle and
// tells the room, attributing the change to the participant itself.
func (o *Orchestrator) ProducerStateChanged(ctx context.Context, peer domain.PeerID, kind engine.MediaKind, paused bool) error {
	sess, room, err := o.approvedSession(peer)
	if err != nil {
		return err
	}
	p, ok := sess.GetProducer(kind)
	if !ok {
		return ErrProducerNotFound
	}
	if paused {
		err = p.Pause(ctx)
	} else {
		err = p.Resume(ctx)
	}
	if err != nil {
		return err
	}
	o.broadcast(room, peer, &protocol.RemoteProducerStateChanged{
		Type:         protocol.MsgRemoteProducerStateChanged,
		RemotePeerID: string(peer),
		Kind:         string(kind),
		Paused:       paused,
		ByHost:       false,
	})
	return nil
}
