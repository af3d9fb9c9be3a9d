package signal

import "github.com/bhandari16arjun/meet/internal/protocol"

func (ctl *Controller) handlePing(c *wsSignalConn) {
	ctl.sendJSON(c, &protocol.Pong{Type: protocol.MsgPong})
}
