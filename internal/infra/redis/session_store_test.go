package redis

import (
	"testing"
	"time"

	"eduquiz-service/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Put(app.NewSession("attempt-1", time.Now()))
	if !mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:attempt:attempt-1"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}
	if _, ok := store.Get("attempt-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("attempt-1")
	if mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("attempt-1"); ok {
		t.Fatalf("expected session removed")
	}
}
