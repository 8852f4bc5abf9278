package redis

import (
	"testing"
	"time"

	"quizroom-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRoomRegistrySetsAndClearsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	registry := NewRoomRegistry(client, time.Minute)

	room := registry.Create("host-1", "t1", domain.Test{})
	if !mr.Exists("room:active:" + room.Code()) {
		t.Fatalf("expected liveness key for room %s", room.Code())
	}
	if _, ok := registry.Get(room.Code()); !ok {
		t.Fatalf("expected room retrievable")
	}

	registry.Delete(room.Code())
	if mr.Exists("room:active:" + room.Code()) {
		t.Fatalf("expected liveness key removed")
	}
	if _, ok := registry.Get(room.Code()); ok {
		t.Fatalf("expected room removed")
	}
}
