package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/relay"
)

func newTestHub(t *testing.T, cfg *Config) *Hub {
	t.Helper()
	if cfg == nil {
		cfg = NewConfig()
	}
	return NewHub(relay.NewRegistry(), *cfg, discardLogger())
}

func TestClientSendQueuesUntilClosed(t *testing.T) {
	client := NewClient(nil, newTestHub(t, nil), "127.0.0.1:1")

	assert.True(t, client.IsOpen())
	assert.True(t, client.Send([]byte("one")))
	assert.Equal(t, []byte("one"), <-client.GetSendChan())

	client.close()
	client.close()

	assert.False(t, client.IsOpen())
	assert.False(t, client.Send([]byte("two")))

	_, ok := <-client.GetSendChan()
	assert.False(t, ok, "send channel is closed")
}

func TestClientSendClosesSlowClient(t *testing.T) {
	client := NewClient(nil, newTestHub(t, nil), "127.0.0.1:1")

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, client.Send([]byte("x")))
	}

	assert.False(t, client.Send([]byte("overflow")))
	assert.False(t, client.IsOpen())
}

func TestClientRateLimit(t *testing.T) {
	cfg := NewConfig()
	cfg.RateLimit = RateLimitConfig{Burst: 3, RefillInterval: time.Hour}
	client := NewClient(nil, newTestHub(t, cfg), "127.0.0.1:1")

	for i := 0; i < 3; i++ {
		assert.True(t, client.checkRateLimit(), "frame %d", i)
	}
	assert.False(t, client.checkRateLimit())
}

func TestNewRateLimiter(t *testing.T) {
	limiter := newRateLimiter(2, 100*time.Millisecond)
	assert.Equal(t, 2, limiter.Burst())
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	assert.Eventually(t, limiter.Allow, time.Second, 10*time.Millisecond)

	fallback := newRateLimiter(0, 0)
	assert.Equal(t, 1, fallback.Burst())
}

func TestClientReceivesRegistryEvents(t *testing.T) {
	hub := newTestHub(t, nil)
	client := NewClient(nil, hub, "127.0.0.1:1")

	id := hub.Registry().Open(client)
	client.setID(id)
	assert.Equal(t, id, client.ID())
	assert.Contains(t, string(<-client.GetSendChan()), `"type":"connected"`)

	hub.Registry().HandleMessage(client, []byte(`{"type":"join_room","roomId":"lobby","userId":"alice"}`))
	assert.Contains(t, string(<-client.GetSendChan()), `"type":"joined_room"`)

	client.close()
	hub.Registry().Close(client)
	assert.Empty(t, hub.Registry().Rooms())
}

func TestIsExpectedCloseError(t *testing.T) {
	assert.True(t, isExpectedCloseError(nil))
	assert.True(t, isExpectedCloseError(errString("write tcp: use of closed network connection")))
	assert.True(t, isExpectedCloseError(errString("websocket: close sent")))
	assert.False(t, isExpectedCloseError(errString("i/o timeout")))
}

type errString string

func (e errString) Error() string { return string(e) }
