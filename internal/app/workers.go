package app

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/engine"
)

type poolEntry struct {
	worker engine.Worker
	load   atomic.Int64
	dead   atomic.Bool
}

// WorkerPool owns the fixed set of engine workers created at boot, one per
// CPU core by default, and hands out the least-loaded live one when a room
// is created. Load counters are the only state shared across rooms.
type WorkerPool struct {
	entries []*poolEntry

	mu      sync.Mutex
	onDeath func(w engine.Worker, err error)
}

// NewWorkerPool boots count workers (count <= 0 means NumCPU).
func NewWorkerPool(ctx context.Context, eng engine.Engine, count int, settings engine.WorkerSettings) (*WorkerPool, error) {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &WorkerPool{}
	log.Info().Str("module", "app.workers").Int("count", count).Msg("creating workers")
	for i := 0; i < count; i++ {
		w, err := eng.NewWorker(ctx, settings)
		if err != nil {
			return nil, err
		}
		e := &poolEntry{worker: w}
		w.OnDied(func(err error) { p.workerDied(e, err) })
		p.entries = append(p.entries, e)
	}
	return p, nil
}

// SetDeathHandler installs the callback invoked when a worker dies. The
// pool has already marked the worker dead by then; the handler is expected
// to evict the rooms bound to it.
func (p *WorkerPool) SetDeathHandler(fn func(w engine.Worker, err error)) {
	p.mu.Lock()
	p.onDeath = fn
	p.mu.Unlock()
}

func (p *WorkerPool) workerDied(e *poolEntry, err error) {
	e.dead.Store(true)
	log.Error().Err(err).Str("module", "app.workers").Str("worker", e.worker.ID()).Msg("worker died")
	p.mu.Lock()
	fn := p.onDeath
	p.mu.Unlock()
	if fn != nil {
		fn(e.worker, err)
	}
}

// Acquire returns the live worker with the fewest assigned rooms and
// increments its count. The caller must Release it when the room goes away.
func (p *WorkerPool) Acquire() (engine.Worker, error) {
	var best *poolEntry
	for _, e := range p.entries {
		if e.dead.Load() {
			continue
		}
		if best == nil || e.load.Load() < best.load.Load() {
			best = e
		}
	}
	if best == nil {
		return nil, ErrNoWorkers
	}
	best.load.Add(1)
	return best.worker, nil
}

// Release decrements the room count of the given worker. Release must be
// called exactly once per successful Acquire or the load skews permanently.
func (p *WorkerPool) Release(w engine.Worker) {
	for _, e := range p.entries {
		if e.worker == w {
			e.load.Add(-1)
			return
		}
	}
}

// Load reports the current room count of a worker.
func (p *WorkerPool) Load(w engine.Worker) int64 {
	for _, e := range p.entries {
		if e.worker == w {
			return e.load.Load()
		}
	}
	return 0
}

// Workers returns all workers, dead or alive.
func (p *WorkerPool) Workers() []engine.Worker {
	out := make([]engine.Worker, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.worker)
	}
	return out
}

func (p *WorkerPool) Close() {
	for _, e := range p.entries {
		if err := e.worker.Close(); err != nil {
			log.Warn().Err(err).Str("module", "app.workers").Str("worker", e.worker.ID()).Msg("close worker")
		}
	}
}
