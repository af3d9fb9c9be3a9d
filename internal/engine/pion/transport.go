package pion

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/engine"
)

// apiFor builds the router's webrtc.API on first use, applying the network
// shape from the transport options: ephemeral port range, allowed network
// types, the announced 1:1 NAT address, and the listen-address filter. The
// options come from static configuration, so the first transport's options
// configure the router for its whole life.
func (r *router) apiFor(opts engine.TransportOptions) (*webrtc.API, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, engine.ErrRouterClosed
	}
	if r.api != nil {
		return r.api, nil
	}

	se := webrtc.SettingEngine{}
	if r.settings.RTCMinPort != 0 || r.settings.RTCMaxPort != 0 {
		if err := se.SetEphemeralUDPPortRange(r.settings.RTCMinPort, r.settings.RTCMaxPort); err != nil {
			return nil, err
		}
	}

	udp := []webrtc.NetworkType{webrtc.NetworkTypeUDP4, webrtc.NetworkTypeUDP6}
	tcp := []webrtc.NetworkType{webrtc.NetworkTypeTCP4, webrtc.NetworkTypeTCP6}
	var nets []webrtc.NetworkType
	if opts.EnableUDP && (opts.PreferUDP || !opts.EnableTCP) {
		nets = append(nets, udp...)
		if opts.EnableTCP {
			nets = append(nets, tcp...)
		}
	} else {
		if opts.EnableTCP {
			nets = append(nets, tcp...)
		}
		if opts.EnableUDP {
			nets = append(nets, udp...)
		}
	}
	if len(nets) > 0 {
		se.SetNetworkTypes(nets)
	}

	if opts.AnnouncedIP != "" {
		se.SetNAT1To1IPs([]string{opts.AnnouncedIP}, webrtc.ICECandidateTypeHost)
	}
	if opts.ListenIP != "" && opts.ListenIP != "0.0.0.0" {
		listen := opts.ListenIP
		se.SetIPFilter(func(ip net.IP) bool {
			return ip.String() == listen
		})
	}

	r.api = webrtc.NewAPI(webrtc.WithMediaEngine(r.me), webrtc.WithSettingEngine(se))
	return r.api, nil
}

func (r *router) CreateTransport(ctx context.Context, opts engine.TransportOptions) (engine.Transport, error) {
	api, err := r.apiFor(opts)
	if err != nil {
		return nil, err
	}

	gatherer, err := api.NewICEGatherer(webrtc.ICEGatherOptions{})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	gatherer.OnLocalCandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			close(done)
		}
	})
	if err := gatherer.Gather(); err != nil {
		return nil, err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	iceParams, err := gatherer.GetLocalParameters()
	if err != nil {
		return nil, err
	}
	candidates, err := gatherer.GetLocalCandidates()
	if err != nil {
		return nil, err
	}

	ice := api.NewICETransport(gatherer)
	dtls, err := api.NewDTLSTransport(ice, nil)
	if err != nil {
		return nil, err
	}
	dtlsParams, err := dtls.GetLocalParameters()
	if err != nil {
		return nil, err
	}

	t := &transport{
		id:     uuid.NewString(),
		router: r,
		ice:    ice,
		dtls:   dtls,
		info: engine.TransportInfo{
			ICEParameters:  iceParams,
			ICECandidates:  candidates,
			DTLSParameters: dtlsParams,
		},
	}
	t.info.ID = t.id
	log.Info().Str("module", "engine.pion").Str("router", r.id).Str("transport", t.id).
		Int("candidates", len(candidates)).Msg("transport created")
	return t, nil
}

type transport struct {
	id     string
	router *router
	ice    *webrtc.ICETransport
	dtls   *webrtc.DTLSTransport
	info   engine.TransportInfo

	mu        sync.Mutex
	closed    bool
	connected bool
}

func (t *transport) ID() string { return t.id }

func (t *transport) Info() engine.TransportInfo { return t.info }

// Connect records the client's DTLS fingerprints. ICE connectivity is
// client-driven: the remote side initiates checks against the gathered
// candidates, so the server has nothing further to negotiate here.
func (t *transport) Connect(ctx context.Context, dtls webrtc.DTLSParameters) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return engine.ErrTransportClosed
	}
	t.connected = true
	log.Info().Str("module", "engine.pion").Str("transport", t.id).
		Int("fingerprints", len(dtls.Fingerprints)).Msg("transport connected")
	return nil
}

func (t *transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	_ = t.dtls.Stop()
	_ = t.ice.Stop()
	return nil
}

func (t *transport) Produce(ctx context.Context, kind engine.MediaKind, rtp webrtc.RTPParameters) (engine.Producer, error) {
	if kind != engine.KindAudio && kind != engine.KindVideo {
		return nil, engine.ErrBadMediaKind
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, engine.ErrTransportClosed
	}
	t.mu.Unlock()

	p := &producer{
		id:     uuid.NewString(),
		kind:   kind,
		rtp:    rtp,
		router: t.router,
	}
	if err := t.router.registerProducer(p); err != nil {
		return nil, err
	}
	log.Info().Str("module", "engine.pion").Str("transport", t.id).
		Str("producer", p.id).Str("kind", string(kind)).Msg("producer created")
	return p, nil
}

func (t *transport) Consume(ctx context.Context, producerID string, caps webrtc.RTPCapabilities, paused bool) (engine.Consumer, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, engine.ErrTransportClosed
	}
	t.mu.Unlock()

	p, ok := t.router.producerByID(producerID)
	if !ok {
		return nil, engine.ErrUnknownProducer
	}
	if !t.router.CanConsume(producerID, caps) {
		return nil, engine.ErrCannotConsume
	}

	c := &consumer{
		id:         uuid.NewString(),
		producerID: producerID,
		kind:       p.kind,
		rtp:        p.rtp,
		paused:     paused,
	}
	log.Info().Str("module", "engine.pion").Str("transport", t.id).
		Str("consumer", c.id).Str("producer", producerID).Msg("consumer created")
	return c, nil
}

type producer struct {
	id     string
	kind   engine.MediaKind
	rtp    webrtc.RTPParameters
	router *router

	mu     sync.Mutex
	paused bool
	closed bool
}

func (p *producer) ID() string             { return p.id }
func (p *producer) Kind() engine.MediaKind { return p.kind }

func (p *producer) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	return nil
}

func (p *producer) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	return nil
}

func (p *producer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	p.router.unregisterProducer(p.id)
	return nil
}

type consumer struct {
	id         string
	producerID string
	kind       engine.MediaKind
	rtp        webrtc.RTPParameters

	mu     sync.Mutex
	paused bool
}

func (c *consumer) ID() string                          { return c.id }
func (c *consumer) ProducerID() string                  { return c.producerID }
func (c *consumer) Kind() engine.MediaKind              { return c.kind }
func (c *consumer) RTPParameters() webrtc.RTPParameters { return c.rtp }

func (c *consumer) Resume(ctx context.Context) error {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	return nil
}

func (c *consumer) Close() error { return nil }
