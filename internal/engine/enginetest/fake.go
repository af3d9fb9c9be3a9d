// Package enginetest provides an in-memory engine implementation for tests.
// Every call succeeds unless a Fail* field is set, and every object records
// the calls made against it.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/bhandari16arjun/meet/internal/engine"
)

type Engine struct {
	mu      sync.Mutex
	seq     int
	Workers []*Worker

	FailNewWorker error
}

func New() *Engine { return &Engine{} }

func (e *Engine) nextID(prefix string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return fmt.Sprintf("%s-%d", prefix, e.seq)
}

func (e *Engine) NewWorker(ctx context.Context, settings engine.WorkerSettings) (engine.Worker, error) {
	if e.FailNewWorker != nil {
		return nil, e.FailNewWorker
	}
	w := &Worker{eng: e, id: e.nextID("worker"), Settings: settings}
	e.mu.Lock()
	e.Workers = append(e.Workers, w)
	e.mu.Unlock()
	return w, nil
}

type Worker struct {
	eng      *Engine
	id       string
	Settings engine.WorkerSettings

	mu      sync.Mutex
	died    func(error)
	closed  bool
	Routers []*Router

	FailCreateRouter error
}

func (w *Worker) ID() string { return w.id }

func (w *Worker) OnDied(fn func(err error)) {
	w.mu.Lock()
	w.died = fn
	w.mu.Unlock()
}

// Die simulates the underlying engine process dying.
func (w *Worker) Die(err error) {
	w.mu.Lock()
	fn := w.died
	w.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (w *Worker) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

func (w *Worker) CreateRouter(ctx context.Context, codecs []webrtc.RTPCodecCapability) (engine.Router, error) {
	w.mu.Lock()
	fail := w.FailCreateRouter
	w.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	r := &Router{
		eng:       w.eng,
		id:        w.eng.nextID("router"),
		caps:      webrtc.RTPCapabilities{Codecs: codecs},
		producers: make(map[string]*Producer),
	}
	w.mu.Lock()
	w.Routers = append(w.Routers, r)
	w.mu.Unlock()
	return r, nil
}

type Router struct {
	eng  *Engine
	id   string
	caps webrtc.RTPCapabilities

	mu        sync.Mutex
	Closed    bool
	producers map[string]*Producer

	FailCreateTransport error
}

func (r *Router) ID() string                              { return r.id }
func (r *Router) RTPCapabilities() webrtc.RTPCapabilities { return r.caps }

func (r *Router) Close() error {
	r.mu.Lock()
	r.Closed = true
	r.mu.Unlock()
	return nil
}

func (r *Router) CanConsume(producerID string, caps webrtc.RTPCapabilities) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.producers[producerID]
	return ok
}

func (r *Router) CreateTransport(ctx context.Context, opts engine.TransportOptions) (engine.Transport, error) {
	r.mu.Lock()
	fail := r.FailCreateTransport
	r.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	t := &Transport{
		router: r,
		id:     r.eng.nextID("transport"),
		Opts:   opts,
	}
	return t, nil
}

type Transport struct {
	router *Router
	id     string
	Opts   engine.TransportOptions

	mu        sync.Mutex
	Closed    bool
	Connected bool

	FailConnect error
	FailProduce error
	FailConsume error
}

func (t *Transport) ID() string { return t.id }

func (t *Transport) Info() engine.TransportInfo {
	return engine.TransportInfo{ID: t.id}
}

func (t *Transport) Connect(ctx context.Context, dtls webrtc.DTLSParameters) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailConnect != nil {
		return t.FailConnect
	}
	if t.Closed {
		return engine.ErrTransportClosed
	}
	t.Connected = true
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.Closed = true
	t.mu.Unlock()
	return nil
}

func (t *Transport) Produce(ctx context.Context, kind engine.MediaKind, rtp webrtc.RTPParameters) (engine.Producer, error) {
	t.mu.Lock()
	fail := t.FailProduce
	closed := t.Closed
	t.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	if closed {
		return nil, engine.ErrTransportClosed
	}
	p := &Producer{id: t.router.eng.nextID("producer"), kind: kind}
	t.router.mu.Lock()
	t.router.producers[p.id] = p
	t.router.mu.Unlock()
	p.router = t.router
	return p, nil
}

func (t *Transport) Consume(ctx context.Context, producerID string, caps webrtc.RTPCapabilities, paused bool) (engine.Consumer, error) {
	t.mu.Lock()
	fail := t.FailConsume
	t.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	t.router.mu.Lock()
	p, ok := t.router.producers[producerID]
	t.router.mu.Unlock()
	if !ok {
		return nil, engine.ErrUnknownProducer
	}
	return &Consumer{
		id:         t.router.eng.nextID("consumer"),
		producerID: producerID,
		kind:       p.kind,
		Paused:     paused,
	}, nil
}

type Producer struct {
	id     string
	kind   engine.MediaKind
	router *Router

	mu          sync.Mutex
	PausedState bool
	CloseCalls  int
	PauseCalls  int
	ResumeCalls int
}

func (p *Producer) ID() string             { return p.id }
func (p *Producer) Kind() engine.MediaKind { return p.kind }

func (p *Producer) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PausedState = true
	p.PauseCalls++
	return nil
}

func (p *Producer) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PausedState = false
	p.ResumeCalls++
	return nil
}

func (p *Producer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PausedState
}

func (p *Producer) Close() error {
	p.mu.Lock()
	p.CloseCalls++
	p.mu.Unlock()
	if p.router != nil {
		p.router.mu.Lock()
		delete(p.router.producers, p.id)
		p.router.mu.Unlock()
	}
	return nil
}

// Closed reports whether Close was called at least once.
func (p *Producer) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CloseCalls > 0
}

type Consumer struct {
	id         string
	producerID string
	kind       engine.MediaKind

	mu     sync.Mutex
	Paused bool
	Closed bool
}

func (c *Consumer) ID() string             { return c.id }
func (c *Consumer) ProducerID() string     { return c.producerID }
func (c *Consumer) Kind() engine.MediaKind { return c.kind }

func (c *Consumer) RTPParameters() webrtc.RTPParameters { return webrtc.RTPParameters{} }

func (c *Consumer) Resume(ctx context.Context) error {
	c.mu.Lock()
	c.Paused = false
	c.mu.Unlock()
	return nil
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	c.Closed = true
	c.mu.Unlock()
	return nil
}

var _ engine.Engine = (*Engine)(nil)
