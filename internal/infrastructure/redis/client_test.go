package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_AppliesOverrides(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), ClientConfig{
		URL:         fmt.Sprintf("redis://%s/2", s.Addr()),
		PoolSize:    7,
		DialTimeout: 750 * time.Millisecond,
	})
	require.NoError(t, err)
	defer client.Close()

	opts := client.Options()
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 750*time.Millisecond, opts.DialTimeout)
	assert.Equal(t, 2, opts.DB)
}

func TestNewClient_KeepsURLDefaults(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), ClientConfig{URL: "redis://" + s.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 0, client.Options().DB)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, s.Exists("k"))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), ClientConfig{URL: "://bad-url"})
	assert.Error(t, err)
}

func TestNewClient_ServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	url := "redis://" + s.Addr()
	s.Close()

	_, err := NewClient(context.Background(), ClientConfig{URL: url, DialTimeout: 100 * time.Millisecond})
	assert.ErrorContains(t, err, "failed to ping redis")
}
