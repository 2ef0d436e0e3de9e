package cache

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/dexbrowse/connectivity"
	"github.com/s0up4200/dexbrowse/metrics"
	"github.com/s0up4200/dexbrowse/storage"
)

type item struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// fakeClock is advanced manually
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// mockOracle lets tests script connectivity answers
type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) IsOffline() bool {
	return m.Called().Bool(0)
}

// failingStorage rejects every write with a fixed error
type failingStorage struct {
	*storage.Memory
	err     error
	cleared int
}

func (f *failingStorage) Set(string, []byte) error { return f.err }

func (f *failingStorage) Clear() error {
	f.cleared++
	return f.Memory.Clear()
}

func newStore(backend Storage, oracle connectivity.Oracle, clock *fakeClock, opts ...Option) *Store {
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(backend, oracle, zerolog.Nop(), opts...)
}

func TestRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newStore(storage.NewMemory(0), connectivity.NewManual(false), clock)

	want := item{Name: "pikachu", ID: 25}
	s.Set("k", want)

	var got item
	require.True(t, s.Get("k", &got))
	assert.Equal(t, want, got)

	var missing item
	assert.False(t, s.Get("nope", &missing))
}

func TestExpiryAndOfflineOverride(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	oracle := connectivity.NewManual(false)
	s := newStore(storage.NewMemory(0), oracle, clock, WithTTL(30*time.Minute))

	s.Set("k", item{Name: "eevee", ID: 133})

	clock.Advance(30 * time.Minute)
	var got item
	assert.True(t, s.Get("k", &got), "entry exactly at the TTL is still fresh")

	clock.Advance(time.Millisecond)
	assert.False(t, s.Get("k", &got), "expired entry while online")

	assert.True(t, s.GetStale("k", &got), "ignoreExpiry returns the stale entry")
	assert.Equal(t, "eevee", got.Name)

	oracle.SetOffline(true)
	got = item{}
	assert.True(t, s.Get("k", &got), "offline returns the stale entry")
	assert.Equal(t, 133, got.ID)
}

func TestOfflineOverrideConsultsOracle(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	oracle := &mockOracle{}
	oracle.On("IsOffline").Return(true).Once()
	oracle.On("IsOffline").Return(false)

	s := newStore(storage.NewMemory(0), oracle, clock, WithTTL(time.Minute))
	s.Set("k", item{ID: 1})
	clock.Advance(time.Hour)

	var got item
	assert.True(t, s.Get("k", &got))
	assert.False(t, s.Get("k", &got))
	oracle.AssertNumberOfCalls(t, "IsOffline", 2)
}

func TestQuotaRecoveryClearsNamespace(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := storage.NewMemory(300)
	m := metrics.New(nil)
	s := newStore(backend, connectivity.NewManual(false), clock, WithMemoryLayer(8), WithMetrics(m))

	s.Set("old", item{Name: strings.Repeat("a", 60)})
	s.Set("older", item{Name: strings.Repeat("b", 60)})

	// Does not fit next to the others, fits alone
	s.Set("new", item{Name: strings.Repeat("c", 100)})

	var got item
	assert.False(t, s.Get("old", &got), "namespace was cleared")
	assert.False(t, s.Get("older", &got), "memory layer was cleared with it")
	require.True(t, s.Get("new", &got))
	assert.Equal(t, strings.Repeat("c", 100), got.Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheWrites.WithLabelValues("recovered")))
}

func TestQuotaRecoveryDropsOversizedValue(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := storage.NewMemory(64)
	m := metrics.New(nil)
	s := newStore(backend, connectivity.NewManual(false), clock, WithMetrics(m))

	s.Set("small", item{ID: 1})

	assert.NotPanics(t, func() {
		s.Set("huge", item{Name: strings.Repeat("x", 500)})
	})

	var got item
	assert.False(t, s.Get("huge", &got))
	assert.False(t, s.Get("small", &got))

	// The store keeps working afterwards
	s.Set("after", item{ID: 2})
	require.True(t, s.Get("after", &got))
	assert.Equal(t, 2, got.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheWrites.WithLabelValues("dropped")))
}

func TestNonQuotaWriteFailureIsDropped(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := &failingStorage{Memory: storage.NewMemory(0), err: errors.New("disk on fire")}
	s := newStore(backend, connectivity.NewManual(false), clock, WithMemoryLayer(4))

	s.Set("k", item{ID: 1})

	var got item
	assert.False(t, s.Get("k", &got), "memory layer must not hold what storage rejected")
	assert.Equal(t, 0, backend.cleared)
}

func TestCorruptEntryIsDiscarded(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := storage.NewMemory(0)
	s := newStore(backend, connectivity.NewManual(false), clock)

	require.NoError(t, backend.Set("bad", []byte("{broken")))

	var got item
	assert.False(t, s.Get("bad", &got))
	_, err := backend.Get("bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Envelope is fine but the payload has the wrong shape
	require.NoError(t, backend.Set("shape", []byte(`{"value":"text","timestamp":1700000000000}`)))
	assert.False(t, s.Get("shape", &got))
	_, err = backend.Get("shape")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryLayerServesReadsAndClears(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := storage.NewMemory(0)
	s := newStore(backend, connectivity.NewManual(false), clock, WithMemoryLayer(4))

	s.Set("k", item{ID: 7})

	// Remove behind the store's back: the memory layer still answers
	require.NoError(t, backend.Delete("k"))
	var got item
	require.True(t, s.Get("k", &got))
	assert.Equal(t, 7, got.ID)

	require.NoError(t, s.Clear())
	assert.False(t, s.Get("k", &got))
}

func TestMemoryLayerHonoursTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newStore(storage.NewMemory(0), connectivity.NewManual(false), clock,
		WithMemoryLayer(4), WithTTL(time.Minute))

	s.Set("k", item{ID: 7})
	clock.Advance(2 * time.Minute)

	var got item
	assert.False(t, s.Get("k", &got))
	assert.True(t, s.GetStale("k", &got))
}

func TestDefaultTTL(t *testing.T) {
	s := New(storage.NewMemory(0), nil, zerolog.Nop())
	assert.Equal(t, DefaultTTL, s.TTL())

	s = New(storage.NewMemory(0), nil, zerolog.Nop(), WithTTL(0))
	assert.Equal(t, DefaultTTL, s.TTL())
}

func TestMemoryLayerEvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	backend := storage.NewMemory(0)
	s := newStore(backend, connectivity.NewManual(false), clock, WithMemoryLayer(1))

	s.Set("a", item{ID: 1})
	s.Set("b", item{ID: 2})
	require.NoError(t, backend.Clear())

	var got item
	assert.False(t, s.Get("a", &got), "a was evicted by b")
	require.True(t, s.Get("b", &got))
	assert.Equal(t, 2, got.ID)
}
