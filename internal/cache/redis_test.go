package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), mr.Addr(), ttl)
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	testStore(t, s)
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	if err := s.Put(context.Background(), sampleEntries()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if !mr.Exists(RedisKeyPrefix + "111") {
		t.Fatalf("key %s111 not set", RedisKeyPrefix)
	}
	if ttl := mr.TTL(RedisKeyPrefix + "111"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := s.Get(context.Background(), "111"); ok {
		t.Error("Get() after expiry hit, want miss")
	}
}

func TestRedisStore_ClearKeepsForeignKeys(t *testing.T) {
	s, mr := newRedisStore(t, 0)
	mr.Set("other:key", "x")

	if err := s.Put(context.Background(), sampleEntries()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if !mr.Exists("other:key") {
		t.Error("Clear() removed a key outside the cache prefix")
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := OpenRedis(ctx, addr, 0); err == nil {
		t.Error("OpenRedis() expected error for closed server")
	}
}
