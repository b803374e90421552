package zarr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func TestChunkKeyEncoding_DefaultSlash(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("default", "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "1", "2"}, e.Components([]int{1, 2}))
}

func TestChunkKeyEncoding_DefaultDot(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("default", ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.1.2"}, e.Components([]int{1, 2}))
}

func TestChunkKeyEncoding_V2Slash(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("v2", "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, e.Components([]int{1, 2}))
}

func TestChunkKeyEncoding_V2EmptyCoordIsZero(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("v2", "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, e.Components(nil))

	e2, err := zarr.NewChunkKeyEncoding("v2", ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, e2.Components(nil))
}

func TestChunkKeyEncoding_V2Dot(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("v2", ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2"}, e.Components([]int{1, 2}))
}

func TestChunkKeyEncoding_DefaultSeparator(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("default", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "0"}, e.Components([]int{0}))
}

func TestChunkKeyEncoding_RejectsBadSeparator(t *testing.T) {
	_, err := zarr.NewChunkKeyEncoding("default", "-")
	require.Error(t, err)
}

func TestChunkKeyEncoding_RejectsUnknownName(t *testing.T) {
	_, err := zarr.NewChunkKeyEncoding("bogus", "/")
	require.Error(t, err)
}

func TestChunkKeyEncoding_KeyJoinsNoDoubleSlash(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("default", "/")
	require.NoError(t, err)
	root := zarr.RootKey()
	arr, err := root.Child("temperature")
	require.NoError(t, err)
	key := e.Key(arr, []int{0, 1})
	assert.Equal(t, "temperature/c/0/1", key)
	assert.NotContains(t, key, "//")
}

func TestChunkKeyEncoding_KeyAtRoot(t *testing.T) {
	e, err := zarr.NewChunkKeyEncoding("default", "/")
	require.NoError(t, err)
	key := e.Key(zarr.RootKey(), []int{3})
	assert.Equal(t, "c/3", key)
}
