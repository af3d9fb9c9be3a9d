package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

func parseKind(s string) (engine.MediaKind, bool) {
	switch engine.MediaKind(s) {
	case engine.KindAudio:
		return engine.KindAudio, true
	case engine.KindVideo:
		return engine.KindVideo, true
	}
	return "", false
}

func (ctl *Controller) handleCreateTransport(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.CreateTransport
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad createTransport payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	res, err := ctl.Orch.CreateTransport(ctx, peer, p.Direction, domain.PeerID(p.RemotePeerID))
	if err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	res.ReqID = p.ReqID
	ctl.sendJSON(c, res)
}

func (ctl *Controller) handleConnectTransport(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.ConnectTransport
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connectTransport payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.ConnectTransport(ctx, peer, p.TransportID, p.DTLSParameters); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}

func (ctl *Controller) handleProduce(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.Produce
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad produce payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	kind, ok := parseKind(p.Kind)
	if !ok {
		ctl.sendError(c, p.ReqID, engine.ErrBadMediaKind.Error())
		return
	}
	res, err := ctl.Orch.Produce(ctx, peer, p.TransportID, kind, p.RTPParameters)
	if err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	res.ReqID = p.ReqID
	ctl.sendJSON(c, res)
}

func (ctl *Controller) handleConsume(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.Consume
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad consume payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	res, err := ctl.Orch.Consume(ctx, peer, p.ProducerID, domain.PeerID(p.RemotePeerID), p.RTPCapabilities)
	if err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	res.ReqID = p.ReqID
	ctl.sendJSON(c, res)
}

func (ctl *Controller) handleResumeConsumer(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.ResumeConsumer
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad resumeConsumer payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	if err := ctl.Orch.ResumeConsumer(ctx, peer, p.ConsumerID, domain.PeerID(p.RemotePeerID)); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}

func (ctl *Controller) handleProducerStateChanged(ctx context.Context, peer domain.PeerID, c *wsSignalConn, data []byte) {
	var p protocol.ProducerStateChanged
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad producerStateChanged payload")
		ctl.sendError(c, "", "bad_payload")
		return
	}
	kind, ok := parseKind(p.Kind)
	if !ok {
		ctl.sendError(c, p.ReqID, engine.ErrBadMediaKind.Error())
		return
	}
	if err := ctl.Orch.ProducerStateChanged(ctx, peer, kind, p.Paused); err != nil {
		ctl.sendError(c, p.ReqID, err.Error())
		return
	}
	ctl.sendSuccess(c, p.ReqID)
}
