package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewCapturer_Defaults(t *testing.T) {
	c := NewCapturer(Config{})
	assert.Equal(t, DefaultCardSelector, c.cfg.CardSelector)
	assert.Equal(t, 60*time.Second, c.cfg.Timeout)
	assert.Equal(t, rate.Inf, c.limiter.Limit())
	assert.Equal(t, 1, c.cfg.Concurrency)
}

func TestNewLimiter_PerMinute(t *testing.T) {
	l := newLimiter(30)
	assert.InDelta(t, 0.5, float64(l.Limit()), 1e-9)
	assert.Equal(t, 1, l.Burst())

	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "second request inside the interval must wait")
}

func TestCardScript_EmbedsSelectorAsLiteral(t *testing.T) {
	js := cardScript(`a[data-x="y"]`)
	assert.Contains(t, js, `})("a[data-x=\"y\"]")`)
	assert.Contains(t, js, "document.querySelectorAll(sel)")
}

func TestCapture_CancelledContext(t *testing.T) {
	c := NewCapturer(Config{RequestsPerMinute: 1})
	c.limiter.Allow() // drain the burst so Wait must block

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snaps, err := c.Capture(ctx, []string{"https://shop.example.com"})
	require.Error(t, err)
	assert.Empty(t, snaps)
}

func TestCapture_NoURLs(t *testing.T) {
	snaps, err := NewCapturer(Config{}).Capture(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
