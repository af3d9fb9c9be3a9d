// Package pion implements the engine capability surface on top of pion's
// ORTC API. One Worker wraps one webrtc.API with its own ephemeral port
// range, mirroring the one-process-per-core worker model of SFU engines.
package pion

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/engine"
)

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) NewWorker(ctx context.Context, settings engine.WorkerSettings) (engine.Worker, error) {
	w := &worker{
		id:       uuid.NewString(),
		settings: settings,
	}
	log.Info().Str("module", "engine.pion").Str("worker", w.id).
		Uint16("rtc_min_port", settings.RTCMinPort).Uint16("rtc_max_port", settings.RTCMaxPort).
		Msg("worker created")
	return w, nil
}

type worker struct {
	id       string
	settings engine.WorkerSettings

	mu     sync.Mutex
	died   func(error)
	closed bool
}

func (w *worker) ID() string { return w.id }

func (w *worker) OnDied(fn func(err error)) {
	w.mu.Lock()
	w.died = fn
	w.mu.Unlock()
}

func (w *worker) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

func (w *worker) CreateRouter(ctx context.Context, codecs []webrtc.RTPCodecCapability) (engine.Router, error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil, engine.ErrWorkerClosed
	}

	me := &webrtc.MediaEngine{}
	pt := uint8(96)
	for _, c := range codecs {
		kind := webrtc.RTPCodecTypeVideo
		if strings.HasPrefix(c.MimeType, "audio/") {
			kind = webrtc.RTPCodecTypeAudio
		}
		if err := me.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: c,
			PayloadType:        webrtc.PayloadType(pt),
		}, kind); err != nil {
			return nil, err
		}
		pt++
	}

	r := &router{
		id:        uuid.NewString(),
		me:        me,
		settings:  w.settings,
		caps:      webrtc.RTPCapabilities{Codecs: codecs},
		producers: make(map[string]*producer),
	}
	log.Info().Str("module", "engine.pion").Str("worker", w.id).Str("router", r.id).Msg("router created")
	return r, nil
}

// router defers building its webrtc.API until the first transport, because
// the network shape (announced IP, allowed network types) arrives with the
// transport options rather than the router settings.
type router struct {
	id       string
	me       *webrtc.MediaEngine
	settings engine.WorkerSettings
	caps     webrtc.RTPCapabilities

	mu        sync.RWMutex
	closed    bool
	api       *webrtc.API
	producers map[string]*producer
}

func (r *router) ID() string { return r.id }

func (r *router) RTPCapabilities() webrtc.RTPCapabilities { return r.caps }

func (r *router) Close() error {
	r.mu.Lock()
	r.closed = true
	r.producers = make(map[string]*producer)
	r.mu.Unlock()
	return nil
}

// CanConsume reports whether the given producer exists and the consumer's
// capabilities include a codec matching the producer's kind.
func (r *router) CanConsume(producerID string, caps webrtc.RTPCapabilities) bool {
	r.mu.RLock()
	p, ok := r.producers[producerID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	prefix := "video/"
	if p.kind == engine.KindAudio {
		prefix = "audio/"
	}
	for _, c := range caps.Codecs {
		if strings.HasPrefix(strings.ToLower(c.MimeType), prefix) {
			return true
		}
	}
	return false
}

func (r *router) registerProducer(p *producer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return engine.ErrRouterClosed
	}
	r.producers[p.id] = p
	return nil
}

func (r *router) unregisterProducer(id string) {
	r.mu.Lock()
	delete(r.producers, id)
	r.mu.Unlock()
}

func (r *router) producerByID(id string) (*producer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.producers[id]
	return p, ok
}
