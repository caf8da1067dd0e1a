package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient returns a client bound to a fresh in-memory server.
// Both are closed when the test ends.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func assertTTL(t *testing.T, mr *miniredis.Miniredis, key string, want time.Duration) {
	t.Helper()

	if got := mr.TTL(key); got != want {
		t.Fatalf("expected ttl %v on %q, got %v", want, key, got)
	}
}
