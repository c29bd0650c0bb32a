package cache

import (
	"context"
	"testing"
	"time"

	"github.com/spirittosoul/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackends(t *testing.T) {
	cfg := config.CacheConfig{LocalPubSubBuf: 8}
	c, err := NewCache(cfg)
	require.NoError(t, err)
	ps, err := NewPubSub(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	ch, cancel, err := ps.Subscribe(ctx, "cue")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "cue", "levelup"))
	select {
	case msg := <-ch:
		assert.Equal(t, "cue", msg.Channel)
		assert.Equal(t, "levelup", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}
