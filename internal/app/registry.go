package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/bhandari16arjun/meet/internal/core"
	"github.com/bhandari16arjun/meet/internal/domain"
	"github.com/bhandari16arjun/meet/internal/engine"
)

// RoomRegistry is the single source of truth mapping room name to room.
// Rooms are created on first join (acquiring a worker and creating a
// router) and destroyed when their active set empties. Creation runs under
// the registry lock so a name can never yield two rooms.
type RoomRegistry struct {
	pool   *WorkerPool
	codecs []webrtc.RTPCodecCapability

	mu    sync.RWMutex
	rooms map[domain.RoomName]*core.Room
}

func NewRoomRegistry(pool *WorkerPool, codecs []webrtc.RTPCodecCapability) *RoomRegistry {
	return &RoomRegistry{
		pool:   pool,
		codecs: codecs,
		rooms:  make(map[domain.RoomName]*core.Room),
	}
}

func (r *RoomRegistry) Get(name domain.RoomName) (*core.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[name]
	return room, ok
}

// GetOrCreate returns the existing room or atomically creates one. On any
// failure nothing is left behind: the worker is released and the name stays
// absent.
func (r *RoomRegistry) GetOrCreate(ctx context.Context, name domain.RoomName) (*core.Room, error) {
	r.mu.RLock()
	room, ok := r.rooms[name]
	r.mu.RUnlock()
	if ok {
		return room, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[name]; ok {
		return room, nil
	}

	worker, err := r.pool.Acquire()
	if err != nil {
		return nil, err
	}
	router, err := worker.CreateRouter(ctx, r.codecs)
	if err != nil {
		r.pool.Release(worker)
		return nil, fmt.Errorf("create router: %w", err)
	}
	room = core.NewRoom(name, worker, router)
	r.rooms[name] = room
	log.Info().Str("module", "app.registry").Str("room", string(name)).
		Str("worker", worker.ID()).Msg("room created")
	return room, nil
}

// RemoveIfEmpty destroys the room once it holds no members and no pending
// requests. The emptiness re-check and the closed mark happen atomically
// under the room lock (CloseIfEmpty), so an admission racing the teardown
// either lands first and keeps the room alive, or finds the room closed and
// re-resolves the name. The identity check keeps a stale handle from tearing
// down a newer room that reused the name. Reports false when nothing was
// removed.
func (r *RoomRegistry) RemoveIfEmpty(room *core.Room) bool {
	r.mu.Lock()
	if r.rooms[room.Name()] != room || !room.CloseIfEmpty() {
		r.mu.Unlock()
		return false
	}
	delete(r.rooms, room.Name())
	r.mu.Unlock()
	r.teardown(room)
	return true
}

// Remove force-destroys a room regardless of membership (meeting ended,
// worker death).
func (r *RoomRegistry) Remove(name domain.RoomName) {
	r.mu.Lock()
	room, ok := r.rooms[name]
	delete(r.rooms, name)
	r.mu.Unlock()
	if ok {
		r.teardown(room)
	}
}

func (r *RoomRegistry) teardown(room *core.Room) {
	room.Close()
	if err := room.Router().Close(); err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("room", string(room.Name())).Msg("close router")
	}
	r.pool.Release(room.Worker())
	log.Info().Str("module", "app.registry").Str("room", string(room.Name())).Msg("room destroyed")
}

// RoomsOnWorker lists the rooms bound to a given worker.
func (r *RoomRegistry) RoomsOnWorker(w engine.Worker) []*core.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Room, 0)
	for _, room := range r.rooms {
		if room.Worker() == w {
			out = append(out, room)
		}
	}
	return out
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
