package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

// AdminMute applies a host-imposed mute/unmute to another participant. The
// target's audio producer is paused, the target is told who did it, and
// the rest of the room sees a host-attributed state change.
func (o *Orchestrator) AdminMute(ctx context.Context, hostPeer, targetPeer domain.PeerID, mute bool) error {
	host, room, err := o.hostRoom(hostPeer)
	if err != nil {
		return err
	}
	target, ok := room.Member(targetPeer)
	if !ok {
		return ErrPeerNotFound
	}
	if err := target.SetAdminMuted(ctx, mute); err != nil {
		return err
	}
	o.notify(target, &protocol.ForceMuteChanged{
		Type:       protocol.MsgForceMuteChanged,
		Muted:      mute,
		ByUserName: host.UserName(),
	})
	o.broadcast(room, targetPeer, &protocol.RemoteProducerStateChanged{
		Type:         protocol.MsgRemoteProducerStateChanged,
		RemotePeerID: string(targetPeer),
		Kind:         string(engine.KindAudio),
		Paused:       mute,
		ByHost:       true,
	})
	log.Info().Str("module", "app.admin").Str("room", string(room.Name())).
		Str("peer", string(targetPeer)).Bool("mute", mute).Msg("admin mute")
	return nil
}

// AdminDisableVideo is the video counterpart of AdminMute.
func (o *Orchestrator) AdminDisableVideo(ctx context.Context, hostPeer, targetPeer domain.PeerID, disable bool) error {
	host, room, err := o.hostRoom(hostPeer)
	if err != nil {
		return err
	}
	target, ok := room.Member(targetPeer)
	if !ok {
		return ErrPeerNotFound
	}
	if err := target.SetAdminVideoDisabled(ctx, disable); err != nil {
		return err
	}
	o.notify(target, &protocol.ForceVideoChanged{
		Type:       protocol.MsgForceVideoChanged,
		Disabled:   disable,
		ByUserName: host.UserName(),
	})
	o.broadcast(room, targetPeer, &protocol.RemoteProducerStateChanged{
		Type:         protocol.MsgRemoteProducerStateChanged,
		RemotePeerID: string(targetPeer),
		Kind:         string(engine.KindVideo),
		Paused:       disable,
		ByHost:       true,
	})
	log.Info().Str("module", "app.admin").Str("room", string(room.Name())).
		Str("peer", string(targetPeer)).Bool("disable", disable).Msg("admin video disable")
	return nil
}

// AdminRemove ejects a participant: a distinct notification first, then
// the regular departure path, then a forced disconnect. The disconnect
// will trigger cleanup a second time, which is why cleanup is idempotent.
func (o *Orchestrator) AdminRemove(ctx context.Context, hostPeer, targetPeer domain.PeerID) error {
	host, room, err := o.hostRoom(hostPeer)
	if err != nil {
		return err
	}
	if targetPeer == hostPeer {
		return ErrRemoveSelf
	}
	target, ok := room.Member(targetPeer)
	if !ok {
		return ErrPeerNotFound
	}
	o.notify(target, &protocol.RemovedFromMeeting{
		Type:       protocol.MsgRemovedFromMeeting,
		ByUserName: host.UserName(),
	})
	o.depart(ctx, target, "removed by host")
	target.Signal().Close()
	log.Info().Str("module", "app.admin").Str("room", string(room.Name())).
		Str("peer", string(targetPeer)).Msg("participant removed")
	return nil
}

// AdminEndMeeting tears the whole room down: every member is notified and
// cleaned up, every pending request denied, the room destroyed. The
// connections stay open so clients can join something else.
func (o *Orchestrator) AdminEndMeeting(ctx context.Context, hostPeer domain.PeerID) error {
	host, room, err := o.hostRoom(hostPeer)
	if err != nil {
		return err
	}
	o.endRoom(room, &protocol.MeetingEnded{
		Type:       protocol.MsgMeetingEnded,
		ByUserName: host.UserName(),
	}, "meeting ended")
	log.Info().Str("module", "app.admin").Str("room", string(room.Name())).Msg("meeting ended by host")
	return nil
}

// HandleWorkerDeath evicts every room bound to a dead worker. Rooms on
// other workers keep running; the pool stops handing the dead worker out.
func (o *Orchestrator) HandleWorkerDeath(w engine.Worker, err error) {
	rooms := o.Rooms.RoomsOnWorker(w)
	log.Error().Err(err).Str("module", "app.admin").Str("worker", w.ID()).
		Int("rooms", len(rooms)).Msg("evicting rooms of dead worker")
	for _, room := range rooms {
		o.endRoom(room, &protocol.MeetingEnded{
			Type:   protocol.MsgMeetingEnded,
			Reason: "server error",
		}, "server error")
	}
}

func (o *Orchestrator) endRoom(room *core.Room, ended *protocol.MeetingEnded, denyReason string) {
	for _, s := range room.Members() {
		o.notify(s, ended)
	}
	o.denyAllPending(room, denyReason)
	for _, s := range room.Members() {
		s.Cleanup()
		room.RemoveSession(s.Peer())
		o.Sessions.Unbind(s.Peer())
	}
	o.Rooms.Remove(room.Name())
}
