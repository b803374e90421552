package zarr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func TestNodeKey_RootMetadataKey(t *testing.T) {
	root := zarr.RootKey()
	assert.True(t, root.IsRoot())
	assert.Equal(t, "zarr.json", root.MetadataKey())
	assert.Equal(t, "", root.StorePrefix())
}

func TestNodeKey_ChildMetadataKey(t *testing.T) {
	root := zarr.RootKey()
	child, err := root.Child("temperature")
	require.NoError(t, err)
	assert.Equal(t, "temperature", child.String())
	assert.Equal(t, "temperature/zarr.json", child.MetadataKey())
	assert.Equal(t, "temperature/", child.StorePrefix())

	grandchild, err := child.Child("2024")
	require.NoError(t, err)
	assert.Equal(t, "temperature/2024", grandchild.String())
	assert.Equal(t, "temperature/2024/zarr.json", grandchild.MetadataKey())
}

func TestNodeKey_Parent(t *testing.T) {
	root := zarr.RootKey()
	child, err := root.Child("a")
	require.NoError(t, err)
	grandchild, err := child.Child("b")
	require.NoError(t, err)

	parent, ok := grandchild.Parent()
	require.True(t, ok)
	assert.Equal(t, "a", parent.String())

	_, ok = root.Parent()
	assert.False(t, ok)
}

func TestValidateName_Rejections(t *testing.T) {
	cases := []string{"", "a/b", "__meta__", "...", "."}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, zarr.ValidateName(name))
		})
	}
}

func TestValidateName_Accepts(t *testing.T) {
	cases := []string{"a", "a.b", "2024", "my-array_1"}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, zarr.ValidateName(name))
		})
	}
}

func TestNodeKey_ChildRejectsInvalidName(t *testing.T) {
	root := zarr.RootKey()
	_, err := root.Child("bad/name")
	require.Error(t, err)
}
