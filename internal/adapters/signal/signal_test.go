package signal_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	wssignal "github.com/bhandari16arjun/meet/internal/adapters/signal"
	"github.com/bhandari16arjun/meet/internal/app"
	"github.com/bhandari16arjun/meet/internal/config"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/engine/enginetest"
	"github.com/bhandari16arjun/meet/internal/protocol"
)

// newTestServer exposes the signal endpoint over a real WebSocket with the
// peer id taken from a query parameter instead of the cookie middleware.
func newTestServer(t *testing.T) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, 1, engine.WorkerSettings{})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	orch := &app.Orchestrator{
		Rooms:    app.NewRoomRegistry(pool, []webrtc.RTPCodecCapability{{MimeType: "audio/opus", ClockRate: 48000, Channels: 2}}),
		Sessions: app.NewSessionRegistry(),
		Pool:     pool,
	}
	ctl := wssignal.NewController(orch, &config.Config{ReadLimit: 1 << 20})

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", c.Query("peer"))
		ctl.HandleSignal(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, orch
}

func dial(t *testing.T, srv *httptest.Server, peer string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?peer=" + peer
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

// recvType reads frames until one of the wanted type arrives.
func recvType(t *testing.T, conn *websocket.Conn, typ string, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Type == typ {
			require.NoError(t, json.Unmarshal(data, v))
			return
		}
	}
}

func TestSignalJoinAndPing(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "alice")

	send(t, conn, &protocol.JoinRoom{Type: protocol.MsgJoinRoom, ReqID: "1", UserName: "Alice", RoomName: "standup"})
	var joined protocol.RoomJoined
	recvType(t, conn, protocol.MsgRoomJoined, &joined)
	require.Equal(t, "1", joined.ReqID)
	require.Equal(t, "alice", joined.PeerID)
	require.True(t, joined.IsHost)
	require.NotEmpty(t, joined.RouterRTPCapabilities.Codecs)

	send(t, conn, &protocol.Envelope{Type: protocol.MsgPing})
	var pong protocol.Pong
	recvType(t, conn, protocol.MsgPong, &pong)
}

func TestSignalAdmissionRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	send(t, alice, &protocol.JoinRoom{Type: protocol.MsgJoinRoom, UserName: "Alice", RoomName: "standup"})
	var joined protocol.RoomJoined
	recvType(t, alice, protocol.MsgRoomJoined, &joined)

	send(t, bob, &protocol.JoinRoom{Type: protocol.MsgJoinRoom, ReqID: "7", UserName: "Bob", RoomName: "standup"})
	var waiting protocol.WaitingForApproval
	recvType(t, bob, protocol.MsgWaitingForApproval, &waiting)
	require.Equal(t, "7", waiting.ReqID)
	require.Equal(t, "Alice", waiting.HostName)

	var req protocol.NewJoinRequest
	recvType(t, alice, protocol.MsgNewJoinRequest, &req)
	require.Equal(t, "Bob", req.UserName)

	send(t, alice, &protocol.ApproveJoinRequest{Type: protocol.MsgApproveJoinRequest, ReqID: "8", RequestID: req.ID})
	var approved protocol.JoinApproved
	recvType(t, bob, protocol.MsgJoinApproved, &approved)
	require.Equal(t, "bob", approved.PeerID)

	var ok protocol.Success
	recvType(t, alice, protocol.MsgSuccess, &ok)
	require.Equal(t, "8", ok.ReqID)
}

func TestSignalErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "alice")

	// Unknown message type.
	send(t, conn, &protocol.Envelope{Type: "teleport", ReqID: "1"})
	var e protocol.Error
	recvType(t, conn, protocol.MsgError, &e)
	require.Equal(t, "1", e.ReqID)

	// Media negotiation without a room.
	send(t, conn, &protocol.CreateTransport{Type: protocol.MsgCreateTransport, ReqID: "2", Direction: "producer"})
	recvType(t, conn, protocol.MsgError, &e)
	require.Equal(t, "2", e.ReqID)
	require.Equal(t, app.ErrNotInRoom.Error(), e.Error)
}

func TestSignalDisconnectCleansUp(t *testing.T) {
	srv, orch := newTestServer(t)
	conn := dial(t, srv, "alice")

	send(t, conn, &protocol.JoinRoom{Type: protocol.MsgJoinRoom, UserName: "Alice", RoomName: "standup"})
	var joined protocol.RoomJoined
	recvType(t, conn, protocol.MsgRoomJoined, &joined)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return orch.Sessions.Count() == 0 && orch.Rooms.Count() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
