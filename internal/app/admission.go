package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

// hostRoom resolves the caller's room and checks host authority.
func (o *Orchestrator) hostRoom(peer domain.PeerID) (*core.Session, *core.Room, error) {
	sess, err := o.session(peer)
	if err != nil {
		return nil, nil, err
	}
	room, ok := o.roomOf(sess)
	if !ok {
		return nil, nil, ErrNotInRoom
	}
	if !room.IsHost(peer) {
		return nil, nil, ErrUnauthorized
	}
	return sess, room, nil
}

// PendingRequestsFor returns the waiting room as seen by the host. A
// non-host caller gets an empty list, not an error.
func (o *Orchestrator) PendingRequestsFor(peer domain.PeerID) []protocol.PendingRequestInfo {
	_, room, err := o.hostRoom(peer)
	if err != nil {
		return []protocol.PendingRequestInfo{}
	}
	reqs := room.PendingRequests()
	out := make([]protocol.PendingRequestInfo, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, protocol.PendingRequestInfo{
			ID:        req.ID,
			UserName:  req.UserName,
			Timestamp: req.Timestamp.UnixMilli(),
		})
	}
	return out
}

// Approve promotes a pending requester to a full member: the requester
// receives the router capabilities and the manifest of producers to
// consume, the host gets a receipt, and the rest of the room learns about
// the new participant.
func (o *Orchestrator) Approve(ctx context.Context, hostPeer domain.PeerID, requestID string) error {
	host, room, err := o.hostRoom(hostPeer)
	if err != nil {
		return err
	}
	req, ok := room.PendingRequest(requestID)
	if !ok {
		return ErrRequestNotFound
	}
	requester, ok := o.Sessions.Get(req.Peer)
	if !ok {
		// Requester vanished between asking and the host deciding.
		room.RemovePendingRequest(requestID)
		return ErrRequesterGone
	}

	// Both the promotion and the insertion refuse a session whose cleanup
	// has already run, so a requester disconnecting under the host's click
	// is reported gone instead of becoming an unremovable member.
	if err := requester.Approve(); err != nil {
		room.RemovePendingRequest(requestID)
		return ErrRequesterGone
	}
	if err := room.AddApproved(requester); err != nil {
		room.RemovePendingRequest(requestID)
		if errors.Is(err, core.ErrRoomClosed) {
			return ErrRequestNotFound
		}
		return ErrRequesterGone
	}
	room.RemovePendingRequest(requestID)

	o.notify(requester, &protocol.JoinApproved{
		Type:                  protocol.MsgJoinApproved,
		RouterRTPCapabilities: room.Router().RTPCapabilities(),
		ProducersToConsume:    manifest(room.ProducersToConsume(requester.Peer())),
		PeerID:                string(requester.Peer()),
	})
	o.notify(host, &protocol.JoinRequestApproved{
		Type:      protocol.MsgJoinRequestApproved,
		RequestID: requestID,
	})
	joined := &protocol.ParticipantJoined{
		Type:     protocol.MsgParticipantJoined,
		UserName: requester.UserName(),
		PeerID:   string(requester.Peer()),
	}
	for _, s := range room.MembersExcept(requester.Peer()) {
		if s.Peer() == hostPeer {
			continue
		}
		o.notify(s, joined)
	}
	log.Info().Str("module", "app.admission").Str("room", string(room.Name())).
		Str("request", requestID).Str("peer", string(requester.Peer())).Msg("join approved")
	return nil
}

// Deny rejects a pending requester with a reason and discards its session.
func (o *Orchestrator) Deny(hostPeer domain.PeerID, requestID, reason string) error {
	host, room, err := o.hostRoom(hostPeer)
	if err != nil {
		return err
	}
	req, ok := room.PendingRequest(requestID)
	if !ok {
		return ErrRequestNotFound
	}
	room.RemovePendingRequest(requestID)

	if requester, ok := o.Sessions.Get(req.Peer); ok {
		o.notify(requester, &protocol.JoinDenied{
			Type:     protocol.MsgJoinDenied,
			Reason:   reason,
			HostName: host.UserName(),
		})
		requester.Cleanup()
		o.Sessions.Unbind(req.Peer)
	}
	o.notify(host, &protocol.JoinRequestDenied{
		Type:      protocol.MsgJoinRequestDenied,
		RequestID: requestID,
	})
	log.Info().Str("module", "app.admission").Str("room", string(room.Name())).
		Str("request", requestID).Str("reason", reason).Msg("join denied")
	return nil
}
