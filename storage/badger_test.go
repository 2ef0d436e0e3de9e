package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := Open(Config{InMemory: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestOpenOnDisk(t *testing.T) {
	db, err := Open(Config{Path: t.TempDir(), Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNamespaceRoundTrip(t *testing.T) {
	ns := NewNamespace(openTestDB(t), "cache/")

	_, err := ns.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ns.Set("a", []byte("1")))
	got, err := ns.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, ns.Delete("a"))
	_, err = ns.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is fine
	assert.NoError(t, ns.Delete("a"))
}

func TestNamespaceIsolation(t *testing.T) {
	db := openTestDB(t)
	cacheNS := NewNamespace(db, "cache/")
	favNS := NewNamespace(db, "fav/")

	require.NoError(t, cacheNS.Set("k1", []byte("c1")))
	require.NoError(t, cacheNS.Set("k2", []byte("c2")))
	require.NoError(t, favNS.Set("25", []byte("pikachu")))

	require.NoError(t, cacheNS.Clear())

	_, err := cacheNS.Get("k1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := favNS.Get("25")
	require.NoError(t, err)
	assert.Equal(t, []byte("pikachu"), got)
}

func TestNamespaceEach(t *testing.T) {
	ns := NewNamespace(openTestDB(t), "fav/")
	for i := 3; i >= 1; i-- {
		require.NoError(t, ns.Set(fmt.Sprintf("%d", i), []byte{byte(i)}))
	}

	var keys []string
	err := ns.Each(func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, keys)

	stop := errors.New("stop")
	err = ns.Each(func(string, []byte) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestClassifyWrite(t *testing.T) {
	err := classifyWrite("k", badger.ErrTxnTooBig)
	assert.ErrorIs(t, err, ErrNoSpace)

	err = classifyWrite("k", errors.New("other"))
	assert.NotErrorIs(t, err, ErrNoSpace)
}
