package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhandari16arjun/meet/internal/app"
	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/engine/enginetest"
)

func newTestRegistry(t *testing.T, workers int) (*app.RoomRegistry, *app.WorkerPool, *enginetest.Engine) {
	t.Helper()
	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, workers, engine.WorkerSettings{})
	require.NoError(t, err)
	return app.NewRoomRegistry(pool, nil), pool, eng
}

func TestGetOrCreateConcurrentSingleRoom(t *testing.T) {
	reg, pool, eng := newTestRegistry(t, 1)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	rooms := make([]*core.Room, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := reg.GetOrCreate(ctx, "standup")
			require.NoError(t, err)
			rooms[i] = room
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, rooms[0], rooms[i])
	}
	require.Equal(t, 1, reg.Count())
	require.Len(t, eng.Workers[0].Routers, 1)
	require.EqualValues(t, 1, pool.Load(eng.Workers[0]))
}

func TestGetOrCreateNoPartialStateOnFailure(t *testing.T) {
	reg, pool, eng := newTestRegistry(t, 1)
	ctx := context.Background()

	eng.Workers[0].FailCreateRouter = errors.New("router boom")
	_, err := reg.GetOrCreate(ctx, "standup")
	require.Error(t, err)
	require.Zero(t, reg.Count())
	require.EqualValues(t, 0, pool.Load(eng.Workers[0]))

	// The name stays usable once the engine recovers.
	eng.Workers[0].FailCreateRouter = nil
	room, err := reg.GetOrCreate(ctx, "standup")
	require.NoError(t, err)
	require.Equal(t, "standup", string(room.Name()))
}

func TestRemoveIfEmpty(t *testing.T) {
	reg, pool, eng := newTestRegistry(t, 1)
	ctx := context.Background()

	room, err := reg.GetOrCreate(ctx, "standup")
	require.NoError(t, err)

	require.True(t, reg.RemoveIfEmpty(room))
	require.Zero(t, reg.Count())
	require.True(t, room.Closed())
	require.True(t, room.Router().(*enginetest.Router).Closed)
	require.EqualValues(t, 0, pool.Load(eng.Workers[0]))

	// Removing again is a no-op.
	require.False(t, reg.RemoveIfEmpty(room))
}

func TestRemoveIfEmptyIgnoresStaleHandle(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 1)
	ctx := context.Background()

	old, err := reg.GetOrCreate(ctx, "standup")
	require.NoError(t, err)
	require.True(t, reg.RemoveIfEmpty(old))

	// A new room reuses the name; the stale handle must not tear it down.
	fresh, err := reg.GetOrCreate(ctx, "standup")
	require.NoError(t, err)
	require.NotSame(t, old, fresh)
	require.False(t, reg.RemoveIfEmpty(old))
	require.Equal(t, 1, reg.Count())
	require.False(t, fresh.Closed())
}

func TestRemoveIfEmptyKeepsPopulatedRoom(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 1)
	ctx := context.Background()

	room, err := reg.GetOrCreate(ctx, "standup")
	require.NoError(t, err)
	alice := core.NewSession("alice", "Alice", nopSignal{})
	room.AdmitOrQueue(alice)

	require.False(t, reg.RemoveIfEmpty(room))
	require.Equal(t, 1, reg.Count())
	require.False(t, room.Closed())

	// A room holding only a waiting requester is occupied too.
	room.RemoveSession("alice")
	_, err = room.Queue("Bob", "bob")
	require.NoError(t, err)
	require.False(t, reg.RemoveIfEmpty(room))
	require.Equal(t, 1, reg.Count())
}

func TestRoomsOnWorker(t *testing.T) {
	reg, _, eng := newTestRegistry(t, 2)
	ctx := context.Background()

	r1, err := reg.GetOrCreate(ctx, "one")
	require.NoError(t, err)
	r2, err := reg.GetOrCreate(ctx, "two")
	require.NoError(t, err)
	require.NotEqual(t, r1.Worker().ID(), r2.Worker().ID())

	for _, w := range eng.Workers {
		rooms := reg.RoomsOnWorker(w)
		require.Len(t, rooms, 1)
	}
}

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close()                   {}
