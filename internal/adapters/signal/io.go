package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, peer domain.PeerID, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("peer", string(peer)).Msg("readPump closing")
		c.Close()
		ctl.Orch.Disconnect(context.Background(), peer)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("peer", string(peer)).Msg("readPump read error")
				return
			}
			ctl.handleMessage(ctx, peer, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "", "bad_payload")
		return
	}

	switch env.Type {
	case protocol.MsgJoinRoom:
		ctl.handleJoinRoom(ctx, peer, c, data)
	case protocol.MsgRequestJoinRoom:
		ctl.handleRequestJoinRoom(ctx, peer, c, data)
	case protocol.MsgLeaveRoom:
		ctl.handleLeaveRoom(ctx, peer, c, env.ReqID)
	case protocol.MsgAdminGetPendingRequests:
		ctl.handleGetPendingRequests(peer, c, env.ReqID)
	case protocol.MsgApproveJoinRequest:
		ctl.handleApprove(ctx, peer, c, data)
	case protocol.MsgDenyJoinRequest:
		ctl.handleDeny(peer, c, data)
	case protocol.MsgCreateTransport:
		ctl.handleCreateTransport(ctx, peer, c, data)
	case protocol.MsgConnectTransport:
		ctl.handleConnectTransport(ctx, peer, c, data)
	case protocol.MsgProduce:
		ctl.handleProduce(ctx, peer, c, data)
	case protocol.MsgConsume:
		ctl.handleConsume(ctx, peer, c, data)
	case protocol.MsgResumeConsumer:
		ctl.handleResumeConsumer(ctx, peer, c, data)
	case protocol.MsgProducerStateChanged:
		ctl.handleProducerStateChanged(ctx, peer, c, data)
	case protocol.MsgAdminMuteParticipant:
		ctl.handleAdminMute(ctx, peer, c, data)
	case protocol.MsgAdminDisableVideo:
		ctl.handleAdminDisableVideo(ctx, peer, c, data)
	case protocol.MsgAdminRemoveParticipant:
		ctl.handleAdminRemove(ctx, peer, c, data)
	case protocol.MsgAdminEndMeeting:
		ctl.handleAdminEndMeeting(ctx, peer, c, env.ReqID)
	case protocol.MsgPing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, env.ReqID, "unknown message type")
	}
}

func (ctl *Controller) sendJSON(c *wsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsSignalConn, reqID, reason string) {
	ctl.sendJSON(c, &protocol.Error{Type: protocol.MsgError, ReqID: reqID, Error: reason})
}

func (ctl *Controller) sendSuccess(c *wsSignalConn, reqID string) {
	ctl.sendJSON(c, &protocol.Success{Type: protocol.MsgSuccess, ReqID: reqID})
}
