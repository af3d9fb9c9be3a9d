// Package engine is the capability surface this server needs from an SFU
// media engine: create a worker, create a routing context, create a
// transport, produce/consume a stream, pause/resume it. The engine's
// internals (ICE, DTLS, RTP forwarding) live behind these interfaces.
package engine

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v4"
)

type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

var (
	ErrWorkerClosed    = errors.New("engine: worker closed")
	ErrRouterClosed    = errors.New("engine: router closed")
	ErrTransportClosed = errors.New("engine: transport closed")
	ErrCannotConsume   = errors.New("engine: cannot consume producer")
	ErrUnknownProducer = errors.New("engine: unknown producer")
	ErrBadMediaKind    = errors.New("engine: bad media kind")
)

// WorkerSettings is passed once, at worker creation.
type WorkerSettings struct {
	RTCMinPort uint16
	RTCMaxPort uint16
	LogLevel   string
}

// TransportOptions is passed on every transport creation and shapes the
// network side of the transport: where to listen, what address to announce
// to clients, and which network types candidates may use.
type TransportOptions struct {
	ListenIP    string
	AnnouncedIP string
	EnableUDP   bool
	EnableTCP   bool
	PreferUDP   bool
}

// TransportInfo carries the negotiation parameters a client needs to
// connect to a freshly created transport.
type TransportInfo struct {
	ID             string                `json:"id"`
	ICEParameters  webrtc.ICEParameters  `json:"iceParameters"`
	ICECandidates  []webrtc.ICECandidate `json:"iceCandidates"`
	DTLSParameters webrtc.DTLSParameters `json:"dtlsParameters"`
}

type Engine interface {
	NewWorker(ctx context.Context, settings WorkerSettings) (Worker, error)
}

// Worker is one engine media process. Workers are created at boot and live
// until shutdown; a dying worker reports through OnDied.
type Worker interface {
	ID() string
	CreateRouter(ctx context.Context, codecs []webrtc.RTPCodecCapability) (Router, error)
	OnDied(fn func(err error))
	Close() error
}

// Router is the per-room routing context that pairs producers with consumers.
type Router interface {
	ID() string
	RTPCapabilities() webrtc.RTPCapabilities
	CreateTransport(ctx context.Context, opts TransportOptions) (Transport, error)
	CanConsume(producerID string, caps webrtc.RTPCapabilities) bool
	Close() error
}

type Transport interface {
	ID() string
	Info() TransportInfo
	Connect(ctx context.Context, dtls webrtc.DTLSParameters) error
	Produce(ctx context.Context, kind MediaKind, rtp webrtc.RTPParameters) (Producer, error)
	Consume(ctx context.Context, producerID string, caps webrtc.RTPCapabilities, paused bool) (Consumer, error)
	Close() error
}

type Producer interface {
	ID() string
	Kind() MediaKind
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Paused() bool
	Close() error
}

type Consumer interface {
	ID() string
	ProducerID() string
	Kind() MediaKind
	RTPParameters() webrtc.RTPParameters
	Resume(ctx context.Context) error
	Close() error
}
