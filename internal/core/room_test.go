package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/engine/enginetest"
)

func newTestRoom(t *testing.T) *core.Room {
	t.Helper()
	ctx := context.Background()
	eng := enginetest.New()
	w, err := eng.NewWorker(ctx, engine.WorkerSettings{})
	require.NoError(t, err)
	r, err := w.CreateRouter(ctx, nil)
	require.NoError(t, err)
	return core.NewRoom("standup", w, r)
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	room := newTestRoom(t)
	alice := core.NewSession("alice", "Alice", &fakeSignal{})

	host, req, err := room.AdmitOrQueue(alice)
	require.NoError(t, err)
	require.True(t, host)
	require.Nil(t, req)
	require.True(t, alice.IsApproved())
	require.True(t, room.IsHost("alice"))
	require.Equal(t, 1, room.MemberCount())
}

func TestSecondJoinerIsQueued(t *testing.T) {
	room := newTestRoom(t)
	alice := core.NewSession("alice", "Alice", &fakeSignal{})
	bob := core.NewSession("bob", "Bob", &fakeSignal{})
	room.AdmitOrQueue(alice)

	host, req, err := room.AdmitOrQueue(bob)
	require.NoError(t, err)
	require.False(t, host)
	require.NotNil(t, req)
	require.Equal(t, "Bob", req.UserName)
	require.False(t, bob.IsApproved())
	require.Equal(t, 1, room.MemberCount())
	require.Equal(t, 1, room.PendingCount())
}

func TestConcurrentFirstJoinSingleHost(t *testing.T) {
	room := newTestRoom(t)

	const n = 16
	var wg sync.WaitGroup
	hosts := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			peer := domain.PeerID(fmt.Sprintf("p%d", i))
			s := core.NewSession(peer, fmt.Sprintf("User%d", i), &fakeSignal{})
			hosts[i], _, _ = room.AdmitOrQueue(s)
		}(i)
	}
	wg.Wait()

	hostCount := 0
	for _, h := range hosts {
		if h {
			hostCount++
		}
	}
	require.Equal(t, 1, hostCount)
	require.Equal(t, 1, room.MemberCount())
	require.Equal(t, n-1, room.PendingCount())
}

func TestHostTransferEarliestJoined(t *testing.T) {
	room := newTestRoom(t)
	alice := core.NewSession("alice", "Alice", &fakeSignal{})
	bob := core.NewSession("bob", "Bob", &fakeSignal{})
	carol := core.NewSession("carol", "Carol", &fakeSignal{})

	room.AdmitOrQueue(alice)
	require.NoError(t, room.AddApproved(bob))
	require.NoError(t, room.AddApproved(carol))

	newHost, empty := room.RemoveSession("alice")
	require.False(t, empty)
	require.NotNil(t, newHost)
	require.Equal(t, domain.PeerID("bob"), newHost.Peer())
	require.True(t, room.IsHost("bob"))

	// Non-host departure does not move the role.
	newHost, empty = room.RemoveSession("carol")
	require.Nil(t, newHost)
	require.False(t, empty)

	newHost, empty = room.RemoveSession("bob")
	require.Nil(t, newHost)
	require.True(t, empty)
}

func TestRemoveUnknownSession(t *testing.T) {
	room := newTestRoom(t)
	newHost, empty := room.RemoveSession("ghost")
	require.Nil(t, newHost)
	require.True(t, empty)
}

func TestPendingRequestLifecycle(t *testing.T) {
	room := newTestRoom(t)
	r1, err := room.Queue("Bob", "bob")
	require.NoError(t, err)
	r2, err := room.Queue("Carol", "carol")
	require.NoError(t, err)
	require.NotEqual(t, r1.ID, r2.ID)

	got, ok := room.PendingRequest(r1.ID)
	require.True(t, ok)
	require.Same(t, r1, got)

	reqs := room.PendingRequests()
	require.Len(t, reqs, 2)
	require.Equal(t, r1.ID, reqs[0].ID)
	require.Equal(t, r2.ID, reqs[1].ID)

	require.True(t, room.RemovePendingRequest(r1.ID))
	require.False(t, room.RemovePendingRequest(r1.ID))
	require.Equal(t, 1, room.PendingCount())

	drained := room.DrainPendingRequests()
	require.Len(t, drained, 1)
	require.Equal(t, r2.ID, drained[0].ID)
	require.Zero(t, room.PendingCount())
}

func TestClosedRoomRefusesAdmission(t *testing.T) {
	room := newTestRoom(t)
	require.True(t, room.CloseIfEmpty())
	require.True(t, room.Closed())

	host, req, err := room.AdmitOrQueue(core.NewSession("alice", "Alice", &fakeSignal{}))
	require.ErrorIs(t, err, core.ErrRoomClosed)
	require.False(t, host)
	require.Nil(t, req)

	_, err = room.Queue("Bob", "bob")
	require.ErrorIs(t, err, core.ErrRoomClosed)

	err = room.AddApproved(core.NewSession("carol", "Carol", &fakeSignal{}))
	require.ErrorIs(t, err, core.ErrRoomClosed)
	require.Zero(t, room.MemberCount())
}

func TestCloseIfEmptyRefusesOccupiedRoom(t *testing.T) {
	room := newTestRoom(t)
	alice := core.NewSession("alice", "Alice", &fakeSignal{})
	room.AdmitOrQueue(alice)
	require.False(t, room.CloseIfEmpty())
	require.False(t, room.Closed())

	// A waiting requester counts as occupancy too.
	room.RemoveSession("alice")
	_, err := room.Queue("Bob", "bob")
	require.NoError(t, err)
	require.False(t, room.CloseIfEmpty())

	room.DrainPendingRequests()
	require.True(t, room.CloseIfEmpty())
}

func TestAddApprovedRefusesCleanedUpSession(t *testing.T) {
	room := newTestRoom(t)
	alice := core.NewSession("alice", "Alice", &fakeSignal{})
	room.AdmitOrQueue(alice)

	bob := core.NewSession("bob", "Bob", &fakeSignal{})
	bob.Cleanup()
	require.ErrorIs(t, room.AddApproved(bob), core.ErrSessionClosed)
	require.Equal(t, 1, room.MemberCount())
}

func TestProducersToConsume(t *testing.T) {
	ctx := context.Background()
	room := newTestRoom(t)
	tr, err := room.Router().CreateTransport(ctx, engine.TransportOptions{})
	require.NoError(t, err)

	alice := core.NewSession("alice", "Alice", &fakeSignal{})
	bob := core.NewSession("bob", "Bob", &fakeSignal{})
	room.AdmitOrQueue(alice)
	require.NoError(t, room.AddApproved(bob))

	p, err := tr.Produce(ctx, engine.KindAudio, webrtc.RTPParameters{})
	require.NoError(t, err)
	_, err = alice.AddProducer(p)
	require.NoError(t, err)

	sums := room.ProducersToConsume("bob")
	require.Len(t, sums, 1)
	require.Equal(t, p.ID(), sums[0].ProducerID)
	require.Equal(t, "Alice", sums[0].UserName)
	require.Equal(t, engine.KindAudio, sums[0].Kind)

	// The producing peer does not consume itself.
	require.Empty(t, room.ProducersToConsume("alice"))
}
