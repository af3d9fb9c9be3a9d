package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

func (ctl *Controller) handleJoinRoom(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad joinRoom payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}

	res, err := ctl.Orch.JoinRoom(ctx, c, peer, p.UserName, p.RoomName)
	if err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	switch v := res.(type) {
	case *protocol.RoomJoined:
		v.ReqID = p.ReqID
	case *protocol.WaitingForApproval:
		v.ReqID = p.ReqID
	}
	ctl.sendJSON(c, res)
}

func (ctl *Controller) handleRequestJoinRoom(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.RequestJoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad requestJoinRoom payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}

	res, err := ctl.Orch.RequestJoin(ctx, c, peer, p.UserName, p.RoomName)
	if err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	switch v := res.(type) {
	case *protocol.WaitingForApproval:
		v.ReqID = p.ReqID
	case *protocol.RoomNotFound:
		v.ReqID = p.ReqID
	}
	ctl.sendJSON(c, res)
}

// handleLeaveRoom leaves the current room, keeping the connection open.
func (ctl *Controller) handleLeaveRoom(ctx context.Context, peer domain.PeerID, c *wsSignalConn, reqID string) {
	log.Info().Str("module", "signal").Str("peer", string(peer)).Msg("leave")
	ctl.Orch.Leave(ctx, peer)
	ctl.sendJSON(c, &protocol.LeftRoom{Type: protocol.MsgLeftRoom, ReqID: reqID})
}
