package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Redis is an in-memory Redis with a connected client, closed with the test.
type Redis struct {
	t      *testing.T
	Server *miniredis.Miniredis
	Client *redis.Client
}

// NewRedis starts miniredis and connects a client to it.
func NewRedis(t *testing.T) *Redis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close redis client: %v", err)
		}
	})

	return &Redis{t: t, Server: mr, Client: client}
}

// Has reports whether key is present.
func (r *Redis) Has(key string) bool {
	return r.Server.Exists(key)
}

// Put stores a raw value under key, bypassing any cache encoding.
func (r *Redis) Put(key, value string) {
	r.t.Helper()

	if err := r.Server.Set(key, value); err != nil {
		r.t.Fatalf("failed to seed %s: %v", key, err)
	}
}

// Advance moves the server clock so TTLs expire.
func (r *Redis) Advance(d time.Duration) {
	r.Server.FastForward(d)
}
