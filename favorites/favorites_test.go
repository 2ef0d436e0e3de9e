package favorites

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/dexbrowse/catalog"
	"github.com/s0up4200/dexbrowse/storage"
)

func newBadgerFavorites(t *testing.T) *Favorites {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(storage.NewNamespace(db, "fav/"), zerolog.Nop())
}

func TestFavoritesBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) *Favorites{
		"badger": newBadgerFavorites,
		"memory": func(t *testing.T) *Favorites {
			return New(storage.NewMemory(0), zerolog.Nop())
		},
	}

	for name, newFavorites := range backends {
		t.Run(name, func(t *testing.T) {
			fav := newFavorites(t)

			pikachu := catalog.ItemDetail{ID: 25, Name: "pikachu", Categories: []string{"electric"}}
			bulbasaur := catalog.ItemDetail{ID: 1, Name: "bulbasaur"}
			snorlax := catalog.ItemDetail{ID: 143, Name: "snorlax"}

			added, err := fav.Toggle(pikachu)
			require.NoError(t, err)
			assert.True(t, added)

			require.NoError(t, fav.Add(snorlax))
			require.NoError(t, fav.Add(bulbasaur))

			ok, err := fav.Contains(25)
			require.NoError(t, err)
			assert.True(t, ok)

			list, err := fav.List()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []int{1, 25, 143}, []int{list[0].ID, list[1].ID, list[2].ID})
			assert.Equal(t, pikachu, list[1])

			ids, err := fav.IDs()
			require.NoError(t, err)
			assert.Equal(t, map[int]bool{1: true, 25: true, 143: true}, ids)

			added, err = fav.Toggle(pikachu)
			require.NoError(t, err)
			assert.False(t, added)

			ok, err = fav.Contains(25)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, fav.Remove(999), "removing an absent id is fine")

			require.NoError(t, fav.Clear())
			list, err = fav.List()
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestFavoritesRejectInvalidItem(t *testing.T) {
	fav := New(storage.NewMemory(0), zerolog.Nop())

	assert.ErrorIs(t, fav.Add(catalog.ItemDetail{Name: "nameless"}), ErrInvalidItem)

	_, err := fav.Toggle(catalog.ItemDetail{ID: -1})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestFavoritesSkipUnreadableEntries(t *testing.T) {
	mem := storage.NewMemory(0)
	fav := New(mem, zerolog.Nop())

	require.NoError(t, fav.Add(catalog.ItemDetail{ID: 4, Name: "charmander"}))
	require.NoError(t, mem.Set(key(5), []byte("{broken")))

	list, err := fav.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "charmander", list[0].Name)
}

func TestFavoritesNamespaceIsolation(t *testing.T) {
	db, err := storage.Open(storage.Config{InMemory: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	fav := New(storage.NewNamespace(db, "fav/"), zerolog.Nop())
	cacheNS := storage.NewNamespace(db, "cache/")

	require.NoError(t, fav.Add(catalog.ItemDetail{ID: 7, Name: "squirtle"}))
	require.NoError(t, cacheNS.Set("https://pokeapi.co/api/v2/pokemon/7", []byte(`{}`)))

	require.NoError(t, cacheNS.Clear())

	ok, err := fav.Contains(7)
	require.NoError(t, err)
	assert.True(t, ok, "clearing the cache leaves favorites intact")
}
