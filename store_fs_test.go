package zarr_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func TestFSStore_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	setValue(t, ctx, store, "group/zarr.json", []byte(`{"ok":true}`))

	r, err := store.Get(ctx, "group/zarr.json")
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestFSStore_GetMissingKeyReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	r, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFSStore_RejectsEscapingKey(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	_, err = store.Get(ctx, "../escape")
	require.Error(t, err)
}

func TestFSStore_ErasePrefixRemovesDirectoryTree(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	setValue(t, ctx, store, "g/a/zarr.json", []byte("{}"))
	setValue(t, ctx, store, "g/a/c/0", []byte("x"))
	setValue(t, ctx, store, "g/b/zarr.json", []byte("{}"))

	require.NoError(t, store.ErasePrefix(ctx, "g/a/"))

	has, err := store.HasKey(ctx, "g/a/zarr.json")
	require.NoError(t, err)
	assert.False(t, has)
	has, err = store.HasKey(ctx, "g/b/zarr.json")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFSStore_GetPartialValuesSuffixRange(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	setValue(t, ctx, store, "k", []byte("abcdefgh"))

	readers, err := store.GetPartialValues(ctx, []zarr.PartialGet{
		{Key: "k", Range: zarr.Suffix(3)},
	})
	require.NoError(t, err)
	data, err := io.ReadAll(readers[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("fgh"), data)
}

func TestFSStore_EraseNonexistentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.NoError(t, store.Erase(ctx, "never-existed"))
}

func TestFSStore_NonBlockingLocksRejectConflict(t *testing.T) {
	ctx := context.Background()
	store, err := zarr.NewFSStore(zarr.FSStoreConfig{Dir: t.TempDir(), NonBlockingLocks: true})
	require.NoError(t, err)
	setValue(t, ctx, store, "k", []byte("v1"))

	reader, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, reader)

	err = store.Set(ctx, "k", func(w io.Writer) error {
		_, werr := w.Write([]byte("v2"))
		return werr
	})
	require.Error(t, err)
	var zerr *zarr.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zarr.KindLocked, zerr.Kind)

	require.NoError(t, reader.Close())
	require.NoError(t, store.Set(ctx, "k", func(w io.Writer) error {
		_, werr := w.Write([]byte("v3"))
		return werr
	}))
}
