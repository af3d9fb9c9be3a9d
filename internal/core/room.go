package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
)

// ProducerSummary describes one remote producer a member should consume.
type ProducerSummary struct {
	ProducerID string
	UserName   string
	Peer       domain.PeerID
	Kind       engine.MediaKind
}

// ErrRoomClosed is returned by admission operations on a room the registry
// has already torn down. Callers holding a stale room handle must re-resolve
// the room by name.
var ErrRoomClosed = errors.New("room closed")

// Room owns the membership set, the host designation and the pending
// admission queue for one room name. It is bound to one engine worker and
// one router for its whole life. All mutation happens under the room
// mutex; engine calls never do.
type Room struct {
	name      domain.RoomName
	worker    engine.Worker
	router    engine.Router
	createdAt time.Time

	mu         sync.RWMutex
	closed     bool
	sessions   map[domain.PeerID]*Session
	joinOrder  map[domain.PeerID]int64
	joinSeq    int64
	hostID     domain.PeerID
	pending    map[string]*domain.PendingRequest
	reqCounter int64
}

func NewRoom(name domain.RoomName, worker engine.Worker, router engine.Router) *Room {
	return &Room{
		name:      name,
		worker:    worker,
		router:    router,
		createdAt: time.Now(),
		sessions:  make(map[domain.PeerID]*Session),
		joinOrder: make(map[domain.PeerID]int64),
		pending:   make(map[string]*domain.PendingRequest),
	}
}

func (r *Room) Name() domain.RoomName { return r.name }
func (r *Room) Worker() engine.Worker { return r.worker }
func (r *Room) Router() engine.Router { return r.router }
func (r *Room) CreatedAt() time.Time  { return r.createdAt }

// AdmitOrQueue is the entry of the admission state machine. The first
// participant of an empty room is admitted immediately and becomes host;
// everyone else gets a pending request the host must decide on. The two
// outcomes are mutually exclusive and decided atomically, so concurrent
// first joins cannot both become host. A room the registry has torn down
// refuses both outcomes with ErrRoomClosed.
func (r *Room) AdmitOrQueue(s *Session) (host bool, req *domain.PendingRequest, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, nil, ErrRoomClosed
	}
	if len(r.sessions) == 0 && r.hostID == "" {
		if err := s.Approve(); err != nil {
			return false, nil, err
		}
		r.addSessionLocked(s)
		r.hostID = s.Peer()
		log.Info().Str("module", "core.room").Str("room", string(r.name)).
			Str("peer", string(s.Peer())).Msg("first member admitted as host")
		return true, nil, nil
	}
	return false, r.addPendingLocked(s.UserName(), s.Peer()), nil
}

// AddApproved adds a session the host has approved to the active set. A
// session that has already been cleaned up is refused, so a disconnecting
// requester cannot be promoted into a member nothing will ever remove.
func (r *Room) AddApproved(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	if s.Closed() {
		return ErrSessionClosed
	}
	r.addSessionLocked(s)
	if r.hostID == "" {
		// Room had pending requests but no active members; should not
		// happen because such rooms are torn down, but never leave an
		// active set without a host.
		r.hostID = s.Peer()
	}
	return nil
}

func (r *Room) addSessionLocked(s *Session) {
	r.joinSeq++
	r.sessions[s.Peer()] = s
	r.joinOrder[s.Peer()] = r.joinSeq
}

// RemoveSession drops a member from the active set. When the host leaves
// and members remain, the earliest-joined one is promoted deterministically
// and returned. empty reports whether the active set is now empty.
func (r *Room) RemoveSession(peer domain.PeerID) (newHost *Session, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[peer]; !ok {
		return nil, len(r.sessions) == 0
	}
	delete(r.sessions, peer)
	delete(r.joinOrder, peer)
	if r.hostID == peer {
		r.hostID = ""
		var bestSeq int64
		for p, seq := range r.joinOrder {
			if r.hostID == "" || seq < bestSeq {
				r.hostID = p
				bestSeq = seq
			}
		}
		if r.hostID != "" {
			newHost = r.sessions[r.hostID]
			log.Info().Str("module", "core.room").Str("room", string(r.name)).
				Str("peer", string(r.hostID)).Msg("host transferred")
		}
	}
	return newHost, len(r.sessions) == 0
}

func (r *Room) Member(peer domain.PeerID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[peer]
	return s, ok
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Members returns a snapshot of the active set.
func (r *Room) Members() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// MembersExcept returns the active set without the given peer.
func (r *Room) MembersExcept(peer domain.PeerID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for p, s := range r.sessions {
		if p == peer {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *Room) IsHost(peer domain.PeerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID != "" && r.hostID == peer
}

func (r *Room) Host() (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[r.hostID]
	return s, ok
}

func (r *Room) HostName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[r.hostID]; ok {
		return s.UserName()
	}
	return ""
}

func (r *Room) addPendingLocked(userName string, peer domain.PeerID) *domain.PendingRequest {
	r.reqCounter++
	req := &domain.PendingRequest{
		ID:        fmt.Sprintf("req_%d_%d", r.reqCounter, time.Now().UnixMilli()),
		UserName:  userName,
		Peer:      peer,
		Timestamp: time.Now(),
	}
	r.pending[req.ID] = req
	log.Info().Str("module", "core.room").Str("room", string(r.name)).
		Str("request", req.ID).Str("user", userName).Msg("pending request queued")
	return req
}

// Queue registers a pending admission request for a non-first joiner.
func (r *Room) Queue(userName string, peer domain.PeerID) (*domain.PendingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomClosed
	}
	return r.addPendingLocked(userName, peer), nil
}

// CloseIfEmpty atomically marks the room closed when it holds no members
// and no pending requests. Once closed the room refuses all admission, so a
// joiner that lost the race re-resolves the name and gets a fresh room.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) > 0 || len(r.pending) > 0 {
		return false
	}
	r.closed = true
	return true
}

// Close marks the room closed unconditionally. Used by forced teardown
// (meeting ended, worker death); idempotent.
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Room) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Room) PendingRequest(id string) (*domain.PendingRequest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.pending[id]
	return req, ok
}

// RemovePendingRequest reports whether the request existed. Removing an
// unknown id is not an error.
func (r *Room) RemovePendingRequest(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	delete(r.pending, id)
	return ok
}

// PendingRequests returns the queue ordered by creation time.
func (r *Room) PendingRequests() []*domain.PendingRequest {
	r.mu.RLock()
	out := make([]*domain.PendingRequest, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req)
	}
	r.mu.RUnlock()
	sortPending(out)
	return out
}

func (r *Room) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// DrainPendingRequests empties the queue and returns what was in it.
func (r *Room) DrainPendingRequests() []*domain.PendingRequest {
	r.mu.Lock()
	out := make([]*domain.PendingRequest, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req)
	}
	r.pending = make(map[string]*domain.PendingRequest)
	r.mu.Unlock()
	sortPending(out)
	return out
}

func sortPending(reqs []*domain.PendingRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Timestamp.Equal(reqs[j].Timestamp) {
			return reqs[i].ID < reqs[j].ID
		}
		return reqs[i].Timestamp.Before(reqs[j].Timestamp)
	})
}

// ProducersToConsume builds the manifest of active remote producers a
// (new) member should consume.
func (r *Room) ProducersToConsume(except domain.PeerID) []ProducerSummary {
	members := r.MembersExcept(except)
	out := make([]ProducerSummary, 0)
	for _, s := range members {
		for _, p := range s.Producers() {
			out = append(out, ProducerSummary{
				ProducerID: p.ID(),
				UserName:   s.UserName(),
				Peer:       s.Peer(),
				Kind:       p.Kind(),
			})
		}
	}
	return out
}
