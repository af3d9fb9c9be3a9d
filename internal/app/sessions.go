package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/domain"
)

// SessionRegistry indexes every live session by peer id, including pending
// ones that are not yet members of any room. Cross-references between rooms
// and sessions go through ids and this index, not raw pointers.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[domain.PeerID]*core.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[domain.PeerID]*core.Session)}
}

func (r *SessionRegistry) Bind(s *core.Session) {
	r.mu.Lock()
	r.sessions[s.Peer()] = s
	r.mu.Unlock()
	log.Info().Str("module", "app.sessions").Str("peer", string(s.Peer())).Str("user", s.UserName()).Msg("bound session")
}

func (r *SessionRegistry) Get(peer domain.PeerID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[peer]
	return s, ok
}

func (r *SessionRegistry) Unbind(peer domain.PeerID) {
	r.mu.Lock()
	delete(r.sessions, peer)
	r.mu.Unlock()
	log.Info().Str("module", "app.sessions").Str("peer", string(peer)).Msg("unbound session")
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
