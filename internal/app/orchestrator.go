package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

// Orchestrator wires the room registry, the session index and the worker
// pool behind the signaling surface. It owns every state transition and
// every event fan-out; the WebSocket controller only decodes requests and
// encodes responses.
type Orchestrator struct {
	Rooms     *RoomRegistry
	Sessions  *SessionRegistry
	Pool      *WorkerPool
	Transport engine.TransportOptions
}

// notify sends one event to one session, best-effort. A slow or dead
// receiver never rolls back state that is already committed.
func (o *Orchestrator) notify(s *core.Session, v any) {
	if s == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("marshal event")
		return
	}
	if err := s.Signal().TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("peer", string(s.Peer())).Msg("drop event")
	}
}

// broadcast sends an event to every active member except one.
func (o *Orchestrator) broadcast(room *core.Room, except domain.PeerID, v any) {
	for _, s := range room.MembersExcept(except) {
		o.notify(s, v)
	}
}

// roomOf resolves the room a session belongs to (active or pending).
func (o *Orchestrator) roomOf(s *core.Session) (*core.Room, bool) {
	name := s.RoomName()
	if name == "" {
		return nil, false
	}
	return o.Rooms.Get(name)
}

// session resolves a peer to its session or fails with ErrNotInRoom.
func (o *Orchestrator) session(peer domain.PeerID) (*core.Session, error) {
	s, ok := o.Sessions.Get(peer)
	if !ok {
		return nil, ErrNotInRoom
	}
	return s, nil
}

// approvedSession is the media-negotiation guard: any transport, produce
// or consume request from a session that is not approved is rejected.
func (o *Orchestrator) approvedSession(peer domain.PeerID) (*core.Session, *core.Room, error) {
	s, err := o.session(peer)
	if err != nil {
		return nil, nil, err
	}
	if !s.IsApproved() {
		return nil, nil, ErrNotApproved
	}
	room, ok := o.roomOf(s)
	if !ok {
		return nil, nil, ErrNotInRoom
	}
	return s, room, nil
}

func manifest(sums []core.ProducerSummary) []protocol.ProducerInfo {
	out := make([]protocol.ProducerInfo, 0, len(sums))
	for _, ps := range sums {
		out = append(out, protocol.ProducerInfo{
			ProducerID:   ps.ProducerID,
			UserName:     ps.UserName,
			RemotePeerID: string(ps.Peer),
			Kind:         string(ps.Kind),
		})
	}
	return out
}

// JoinRoom handles a join attempt. The first participant of a fresh room
// is admitted immediately and becomes host; everyone else is queued for
// host approval. A connection that already holds a session leaves it first.
func (o *Orchestrator) JoinRoom(ctx context.Context, sig core.SignalConnection, peer domain.PeerID, userName, roomName string) (any, error) {
	if err := domain.ValidateDisplayName(userName); err != nil {
		return nil, err
	}
	name := domain.RoomName(roomName)
	if err := domain.ValidateRoomName(name); err != nil {
		return nil, err
	}

	if prev, ok := o.Sessions.Get(peer); ok {
		o.depart(ctx, prev, "rejoined")
	}

	sess := core.NewSession(peer, userName, sig)
	sess.SetRoomName(name)
	o.Sessions.Bind(sess)

	var (
		room   *core.Room
		isHost bool
		req    *domain.PendingRequest
	)
	for {
		r, err := o.Rooms.GetOrCreate(ctx, name)
		if err != nil {
			sess.Cleanup()
			o.Sessions.Unbind(peer)
			return nil, err
		}
		h, q, err := r.AdmitOrQueue(sess)
		if err == nil {
			room, isHost, req = r, h, q
			break
		}
		if !errors.Is(err, core.ErrRoomClosed) {
			sess.Cleanup()
			o.Sessions.Unbind(peer)
			return nil, err
		}
		// The room was torn down between lookup and admission; resolve the
		// name again and admit into a fresh one.
	}

	if isHost {
		log.Info().Str("module", "app.orch").Str("room", roomName).
			Str("peer", string(peer)).Str("user", userName).Msg("joined as host")
		return &protocol.RoomJoined{
			Type:                  protocol.MsgRoomJoined,
			PeerID:                string(peer),
			RouterRTPCapabilities: room.Router().RTPCapabilities(),
			ProducersToConsume:    manifest(room.ProducersToConsume(peer)),
			IsHost:                true,
		}, nil
	}

	sess.SetJoinRequestID(req.ID)
	o.notifyHostOfRequest(room, req)
	log.Info().Str("module", "app.orch").Str("room", roomName).
		Str("peer", string(peer)).Str("request", req.ID).Msg("queued for approval")
	return &protocol.WaitingForApproval{
		Type:     protocol.MsgWaitingForApproval,
		Waiting:  true,
		HostName: room.HostName(),
	}, nil
}

// RequestJoin is the explicit waiting-room entry: it never creates a room.
func (o *Orchestrator) RequestJoin(ctx context.Context, sig core.SignalConnection, peer domain.PeerID, userName, roomName string) (any, error) {
	if err := domain.ValidateDisplayName(userName); err != nil {
		return nil, err
	}
	name := domain.RoomName(roomName)
	room, ok := o.Rooms.Get(name)
	if !ok {
		return &protocol.RoomNotFound{Type: protocol.MsgRoomNotFound}, nil
	}

	if prev, ok := o.Sessions.Get(peer); ok {
		o.depart(ctx, prev, "rejoined")
	}

	sess := core.NewSession(peer, userName, sig)
	sess.SetRoomName(name)
	o.Sessions.Bind(sess)

	req, err := room.Queue(userName, peer)
	if err != nil {
		// Torn down since the lookup; for the explicit waiting-room entry
		// that is the same as the room never existing.
		sess.Cleanup()
		o.Sessions.Unbind(peer)
		return &protocol.RoomNotFound{Type: protocol.MsgRoomNotFound}, nil
	}
	sess.SetJoinRequestID(req.ID)
	o.notifyHostOfRequest(room, req)
	return &protocol.WaitingForApproval{
		Type:     protocol.MsgWaitingForApproval,
		Waiting:  true,
		HostName: room.HostName(),
	}, nil
}

func (o *Orchestrator) notifyHostOfRequest(room *core.Room, req *domain.PendingRequest) {
	host, ok := room.Host()
	if !ok {
		return
	}
	o.notify(host, &protocol.NewJoinRequest{
		Type:      protocol.MsgNewJoinRequest,
		ID:        req.ID,
		UserName:  req.UserName,
		Timestamp: req.Timestamp.UnixMilli(),
	})
}

// Leave handles a graceful leave without dropping the connection.
func (o *Orchestrator) Leave(ctx context.Context, peer domain.PeerID) {
	if sess, ok := o.Sessions.Get(peer); ok {
		o.depart(ctx, sess, "left")
	}
}

// Disconnect runs the cleanup protocol when a connection goes away. Safe
// to call after an explicit removal already cleaned the session up.
func (o *Orchestrator) Disconnect(ctx context.Context, peer domain.PeerID) {
	sess, ok := o.Sessions.Get(peer)
	if !ok {
		return
	}
	log.Info().Str("module", "app.orch").Str("peer", string(peer)).Msg("disconnect")
	o.depart(ctx, sess, "disconnected")
}

// depart is the shared departure path for leave, disconnect and admin
// removal. It cancels a pending request or, for an active member, closes
// its media, transfers the host role, and tears the room down when the
// active set empties. The branch is decided by actual room membership, not
// by the session state, so it cannot go stale against a racing approval.
func (o *Orchestrator) depart(ctx context.Context, sess *core.Session, reason string) {
	peer := sess.Peer()
	room, inRoom := o.roomOf(sess)

	isMember := false
	if inRoom {
		_, isMember = room.Member(peer)
	}

	if !isMember {
		if inRoom {
			if reqID := sess.JoinRequestID(); reqID != "" && room.RemovePendingRequest(reqID) {
				if host, ok := room.Host(); ok {
					o.notify(host, &protocol.JoinRequestDenied{Type: protocol.MsgJoinRequestDenied, RequestID: reqID})
				}
			}
		}
		sess.Cleanup()
		// An approval can land between the membership check above and the
		// cleanup. Once the session is cleaned up no further approval can,
		// so this re-check is decisive: if the session made it into the
		// active set it takes the member departure path after all.
		if inRoom {
			if _, ok := room.Member(peer); ok {
				o.removeMember(room, sess, reason)
				return
			}
		}
		o.Sessions.Unbind(peer)
		return
	}

	// Producer-closed notifications go out before the resources are
	// actually released so receivers can unmount tiles promptly.
	for _, p := range sess.Producers() {
		o.broadcast(room, peer, &protocol.ProducerClosed{
			Type:         protocol.MsgProducerClosed,
			ProducerID:   p.ID(),
			RemotePeerID: string(peer),
		})
	}

	sess.Cleanup()
	o.removeMember(room, sess, reason)
}

// removeMember drops an already cleaned-up session from the room's active
// set: announces the departure, transfers the host role, and destroys the
// room once nothing active or pending is left in it.
func (o *Orchestrator) removeMember(room *core.Room, sess *core.Session, reason string) {
	peer := sess.Peer()
	newHost, empty := room.RemoveSession(peer)
	o.broadcast(room, peer, &protocol.ParticipantLeft{
		Type:     protocol.MsgParticipantLeft,
		UserName: sess.UserName(),
		PeerID:   string(peer),
	})
	if newHost != nil {
		o.broadcast(room, "", &protocol.HostChanged{
			Type:     protocol.MsgHostChanged,
			UserName: newHost.UserName(),
			PeerID:   string(newHost.Peer()),
		})
		// Re-announce the waiting room to the new host so no
		// requester is stranded by the transfer.
		for _, req := range room.PendingRequests() {
			o.notifyHostOfRequest(room, req)
		}
	}
	if empty {
		// A join can slip in between the deny sweep and the removal; when
		// it does the room lives on (a new member) or the sweep runs again
		// (a new requester). A room some other path already closed is done.
		for {
			o.denyAllPending(room, "meeting ended")
			if o.Rooms.RemoveIfEmpty(room) || room.Closed() || room.MemberCount() > 0 {
				break
			}
		}
	}

	o.Sessions.Unbind(peer)
	log.Info().Str("module", "app.orch").Str("peer", string(peer)).Str("reason", reason).Msg("departed")
}

// denyAllPending clears the waiting room, telling every requester why.
func (o *Orchestrator) denyAllPending(room *core.Room, reason string) {
	for _, req := range room.DrainPendingRequests() {
		requester, ok := o.Sessions.Get(req.Peer)
		if !ok {
			continue
		}
		o.notify(requester, &protocol.JoinDenied{
			Type:   protocol.MsgJoinDenied,
			Reason: reason,
		})
		requester.Cleanup()
		o.Sessions.Unbind(req.Peer)
	}
}
