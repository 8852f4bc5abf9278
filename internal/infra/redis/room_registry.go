package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoomRegistry is a Redis-aware implementation of app.RoomRegistry.
// Notes:
//   - Rooms themselves stay in a local in-memory map; the lifecycle state
//     machine and broadcast wiring are in-process.
//   - Redis marks room liveness (SET room:active:{code}) so operators and
//     sibling instances can see which codes are taken.
//   - Cross-process room sharing would need a pub/sub projector on top.
type RoomRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*app.Room
	rnd    *rand.Rand
}

func NewRoomRegistry(client *redis.Client, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RoomRegistry) Create(hostID, testID string, test domain.Test) *app.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		code = strconv.Itoa(1000 + r.rnd.Intn(9000))
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}
	room := app.NewRoom(code, hostID, testID, test)
	r.rooms[code] = room
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(code), "1", r.ttl).Err()
	return room
}

func (r *RoomRegistry) Get(code string) (*app.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

func (r *RoomRegistry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; !ok {
		return
	}
	delete(r.rooms, code)
	_ = r.client.Del(context.Background(), r.key(code)).Err()
}

func (r *RoomRegistry) Rooms() []*app.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*app.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (r *RoomRegistry) key(code string) string {
	return "room:active:" + code
}
