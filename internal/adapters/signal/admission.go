package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

func (ctl *Controller) handleGetPendingRequests(peer domain.PeerID, c *wsSignalConn, reqID string) {
	ctl.sendJSON(c, &protocol.PendingRequests{
		Type:     protocol.MsgPendingRequests,
		ReqID:    reqID,
		Requests: ctl.Orch.PendingRequestsFor(peer),
	})
}

func (ctl *Controller) handleApprove(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.ApproveJoinRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad approveJoinRequest payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.Approve(ctx, peer, p.RequestID); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}

func (ctl *Controller) handleDeny(peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.DenyJoinRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad denyJoinRequest payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.Deny(peer, p.RequestID, p.Reason); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}
