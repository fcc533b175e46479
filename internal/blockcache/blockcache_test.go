package blockcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU(1024)

	key := Key{Path: "snap_000/core_0.seg", Block: 3}
	_, ok := c.Get(key)
	require.False(t, ok)

	c.Set(key, []byte("abc"))
	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, []byte("abc"), got)

	hits, misses := c.Stats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU(10)

	c.Set(Key{Path: "a", Block: 0}, make([]byte, 4))
	c.Set(Key{Path: "b", Block: 0}, make([]byte, 4))
	require.Equal(t, int64(8), c.Size())

	// Touch "a" so "b" is the LRU victim.
	_, ok := c.Get(Key{Path: "a", Block: 0})
	require.True(t, ok)

	c.Set(Key{Path: "c", Block: 0}, make([]byte, 4))

	_, ok = c.Get(Key{Path: "b", Block: 0})
	require.False(t, ok)
	_, ok = c.Get(Key{Path: "a", Block: 0})
	require.True(t, ok)
}

func TestLRUOversizedBlockNotCached(t *testing.T) {
	c := NewLRU(8)
	c.Set(Key{Path: "big", Block: 0}, make([]byte, 16))
	require.Equal(t, int64(0), c.Size())
}

func TestLRUUpdateExisting(t *testing.T) {
	c := NewLRU(64)
	key := Key{Path: "x", Block: 1}
	c.Set(key, []byte("short"))
	c.Set(key, []byte("a longer value"))

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, []byte("a longer value"), got)
	require.Equal(t, int64(14), c.Size())
}
