package memory

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
)

// RoomRegistry is the in-memory implementation of app.RoomRegistry. Codes are
// 4 ASCII digits, unique only among currently active rooms; a destroyed
// room's code may be reused.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
	rnd   *rand.Rand
	clock func() time.Time
}

func NewRoomRegistry() *RoomRegistry {
	return NewRoomRegistryWithClock(time.Now)
}

// NewRoomRegistryWithClock passes a deterministic clock to created rooms.
func NewRoomRegistryWithClock(now func() time.Time) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*app.Room),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		clock: now,
	}
}

func (r *RoomRegistry) Create(hostID, testID string, test domain.Test) *app.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCodeLocked()
	room := app.NewRoomWithClock(code, hostID, testID, test, r.clock)
	r.rooms[code] = room
	return room
}

// generateCodeLocked rejection-samples until it finds a free 4-digit code.
func (r *RoomRegistry) generateCodeLocked() string {
	for {
		code := strconv.Itoa(1000 + r.rnd.Intn(9000))
		if _, taken := r.rooms[code]; !taken {
			return code
		}
	}
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
	delete(r.rooms, code)
}

// Rooms snapshots the active set, used to resolve disconnects by scan.
func (r *RoomRegistry) Rooms() []*app.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*app.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
