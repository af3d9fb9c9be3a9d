package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/engine/enginetest"
)

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// newMediaFixture builds a transport to hang producers and consumers off.
func newMediaFixture(t *testing.T) (*enginetest.Engine, engine.Transport) {
	t.Helper()
	ctx := context.Background()
	eng := enginetest.New()
	w, err := eng.NewWorker(ctx, engine.WorkerSettings{})
	require.NoError(t, err)
	r, err := w.CreateRouter(ctx, nil)
	require.NoError(t, err)
	tr, err := r.CreateTransport(ctx, engine.TransportOptions{})
	require.NoError(t, err)
	return eng, tr
}

func TestSessionStartsPending(t *testing.T) {
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	require.Equal(t, core.StatePending, s.State())
	require.False(t, s.IsApproved())

	require.NoError(t, s.Approve())
	require.True(t, s.IsApproved())
	require.Empty(t, s.JoinRequestID())
}

func TestSessionRefusesApprovalAfterCleanup(t *testing.T) {
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	s.Cleanup()
	require.ErrorIs(t, s.Approve(), core.ErrSessionClosed)
	require.False(t, s.IsApproved())
}

func TestSessionProducerReplacement(t *testing.T) {
	ctx := context.Background()
	_, tr := newMediaFixture(t)
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	s.Approve()

	p1, err := tr.Produce(ctx, engine.KindAudio, webrtc.RTPParameters{})
	require.NoError(t, err)
	prev, err := s.AddProducer(p1)
	require.NoError(t, err)
	require.Nil(t, prev)

	p2, err := tr.Produce(ctx, engine.KindAudio, webrtc.RTPParameters{})
	require.NoError(t, err)
	prev, err = s.AddProducer(p2)
	require.NoError(t, err)
	require.Same(t, p1, prev)

	got, ok := s.GetProducer(engine.KindAudio)
	require.True(t, ok)
	require.Same(t, p2, got)
}

func TestSessionCleanupIdempotent(t *testing.T) {
	ctx := context.Background()
	_, tr := newMediaFixture(t)
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	s.Approve()

	_, err := s.SetOutboundTransport(tr)
	require.NoError(t, err)
	p, err := tr.Produce(ctx, engine.KindAudio, webrtc.RTPParameters{})
	require.NoError(t, err)
	_, err = s.AddProducer(p)
	require.NoError(t, err)

	s.Cleanup()
	s.Cleanup()

	fp := p.(*enginetest.Producer)
	require.Equal(t, 1, fp.CloseCalls)
	require.True(t, tr.(*enginetest.Transport).Closed)
	require.True(t, s.Closed())
	require.Nil(t, s.OutboundTransport())
}

func TestSessionRefusesResourcesAfterCleanup(t *testing.T) {
	ctx := context.Background()
	_, tr := newMediaFixture(t)
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	s.Cleanup()

	_, err := s.SetOutboundTransport(tr)
	require.ErrorIs(t, err, core.ErrSessionClosed)

	p, err := tr.Produce(ctx, engine.KindAudio, webrtc.RTPParameters{})
	require.NoError(t, err)
	_, err = s.AddProducer(p)
	require.ErrorIs(t, err, core.ErrSessionClosed)

	require.ErrorIs(t, s.AddInboundTransport("p2", tr), core.ErrSessionClosed)
}

func TestSessionAdminMutePausesAudio(t *testing.T) {
	ctx := context.Background()
	_, tr := newMediaFixture(t)
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	s.Approve()

	p, err := tr.Produce(ctx, engine.KindAudio, webrtc.RTPParameters{})
	require.NoError(t, err)
	_, err = s.AddProducer(p)
	require.NoError(t, err)

	require.NoError(t, s.SetAdminMuted(ctx, true))
	require.True(t, s.AdminMuted())
	require.True(t, p.Paused())

	// Repeating the same value only re-asserts the producer state.
	require.NoError(t, s.SetAdminMuted(ctx, true))
	require.True(t, p.Paused())

	require.NoError(t, s.SetAdminMuted(ctx, false))
	require.False(t, s.AdminMuted())
	require.False(t, p.Paused())
}

func TestSessionAdminMuteWithoutProducer(t *testing.T) {
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	require.NoError(t, s.SetAdminMuted(context.Background(), true))
	require.True(t, s.AdminMuted())
}

func TestSessionInboundConsumers(t *testing.T) {
	ctx := context.Background()
	_, tr := newMediaFixture(t)
	s := core.NewSession("p1", "Alice", &fakeSignal{})
	s.Approve()

	require.NoError(t, s.AddInboundTransport("p2", tr))
	got, ok := s.InboundTransport("p2")
	require.True(t, ok)
	require.Same(t, tr, got)

	p, err := tr.Produce(ctx, engine.KindVideo, webrtc.RTPParameters{})
	require.NoError(t, err)
	c, err := tr.Consume(ctx, p.ID(), webrtc.RTPCapabilities{}, true)
	require.NoError(t, err)
	require.NoError(t, s.AddConsumer("p2", c))

	gotC, ok := s.GetConsumer("p2", c.ID())
	require.True(t, ok)
	require.Same(t, c, gotC)

	// Consumer for an unknown remote is rejected.
	require.Error(t, s.AddConsumer("p3", c))

	s.Cleanup()
	require.True(t, c.(*enginetest.Consumer).Closed)
}
