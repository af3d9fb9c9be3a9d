package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

func (ctl *Controller) handleAdminMute(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.AdminMuteParticipant
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad adminMuteParticipant payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.AdminMute(ctx, peer, domain.PeerID(p.PeerID), p.Mute); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}

func (ctl *Controller) handleAdminDisableVideo(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.AdminDisableVideo
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad adminDisableVideo payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.AdminDisableVideo(ctx, peer, domain.PeerID(p.PeerID), p.Disable); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}

func (ctl *Controller) handleAdminRemove(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.AdminRemoveParticipant
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad adminRemoveParticipant payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.AdminRemove(ctx, peer, domain.PeerID(p.PeerID)); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}

func (ctl *Controller) handleAdminEndMeeting(ctx context.Context, peer domain.PeerID, c *wsSignalConn, reqID string) {
	if err := ctl.Orch.AdminEndMeeting(ctx, peer); err != nil {
		ctl.sendError(c, reqID, err.Error())
		return
	}
	ctl.sendSuccess(c, reqID)
}
