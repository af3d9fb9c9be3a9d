package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhandari16arjun/meet/internal/app"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/engine/enginetest"
)

func TestWorkerPoolBootsRequestedCount(t *testing.T) {
	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, 3, engine.WorkerSettings{RTCMinPort: 40000, RTCMaxPort: 41000})
	require.NoError(t, err)
	require.Len(t, pool.Workers(), 3)
	require.Len(t, eng.Workers, 3)
	pool.Close()
}

func TestWorkerPoolBootFailure(t *testing.T) {
	eng := enginetest.New()
	eng.FailNewWorker = errors.New("no ports")
	_, err := app.NewWorkerPool(context.Background(), eng, 2, engine.WorkerSettings{})
	require.Error(t, err)
}

func TestAcquirePicksLeastLoaded(t *testing.T) {
	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, 2, engine.WorkerSettings{})
	require.NoError(t, err)

	w1, err := pool.Acquire()
	require.NoError(t, err)
	w2, err := pool.Acquire()
	require.NoError(t, err)
	require.NotEqual(t, w1.ID(), w2.ID())

	// Releasing w1 makes it the least loaded again.
	pool.Release(w1)
	w3, err := pool.Acquire()
	require.NoError(t, err)
	require.Equal(t, w1.ID(), w3.ID())
}

func TestReleaseIsSymmetric(t *testing.T) {
	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, 1, engine.WorkerSettings{})
	require.NoError(t, err)

	w, err := pool.Acquire()
	require.NoError(t, err)
	require.EqualValues(t, 1, pool.Load(w))
	pool.Release(w)
	require.EqualValues(t, 0, pool.Load(w))
}

func TestDeadWorkersAreSkipped(t *testing.T) {
	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, 2, engine.WorkerSettings{})
	require.NoError(t, err)

	eng.Workers[0].Die(errors.New("crashed"))

	w, err := pool.Acquire()
	require.NoError(t, err)
	require.Equal(t, eng.Workers[1].ID(), w.ID())

	eng.Workers[1].Die(errors.New("crashed"))
	_, err = pool.Acquire()
	require.ErrorIs(t, err, app.ErrNoWorkers)
}

func TestDeathHandlerInvoked(t *testing.T) {
	eng := enginetest.New()
	pool, err := app.NewWorkerPool(context.Background(), eng, 1, engine.WorkerSettings{})
	require.NoError(t, err)

	var gotWorker engine.Worker
	var gotErr error
	pool.SetDeathHandler(func(w engine.Worker, err error) {
		gotWorker = w
		gotErr = err
	})

	boom := errors.New("boom")
	eng.Workers[0].Die(boom)
	require.Equal(t, eng.Workers[0].ID(), gotWorker.ID())
	require.ErrorIs(t, gotErr, boom)
}
