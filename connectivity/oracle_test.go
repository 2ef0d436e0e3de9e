package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	m := NewManual(false)
	assert.False(t, m.IsOffline())

	var calls atomic.Int32
	var last atomic.Bool
	unsubscribe := m.Subscribe(func(offline bool) {
		calls.Add(1)
		last.Store(offline)
	})

	m.SetOffline(true)
	assert.True(t, m.IsOffline())
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, last.Load())

	// Same state again does not notify
	m.SetOffline(true)
	assert.Equal(t, int32(1), calls.Load())

	unsubscribe()
	m.SetOffline(false)
	assert.False(t, m.IsOffline())
	assert.Equal(t, int32(1), calls.Load())
}

func TestProbeCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	p := NewProbe(server.URL, time.Minute, zerolog.Nop())
	var changes atomic.Int32
	p.Subscribe(func(bool) { changes.Add(1) })

	// A 503 still proves reachability
	assert.False(t, p.Check(context.Background()))
	assert.False(t, p.IsOffline())
	assert.Equal(t, int32(0), changes.Load())

	server.Close()
	assert.True(t, p.Check(context.Background()))
	assert.True(t, p.IsOffline())
	assert.Equal(t, int32(1), changes.Load())
}

func TestProbeRunStopsWithContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	p := NewProbe(server.URL, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, p.IsOffline())
}
