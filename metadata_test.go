package zarr_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

const sampleArrayJSON = `{
	"zarr_format": 3,
	"node_type": "array",
	"shape": [10, 10],
	"data_type": "float32",
	"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [5, 5]}},
	"chunk_key_encoding": {"name": "default", "configuration": {"separator": "/"}},
	"fill_value": 0.0,
	"codecs": [
		{"name": "bytes", "configuration": {"endian": "little"}},
		{"name": "gzip", "configuration": {"level": 5}}
	],
	"attributes": {"unit": "celsius"}
}`

func TestParseArrayMetadata_Valid(t *testing.T) {
	meta, err := zarr.ParseArrayMetadata([]byte(sampleArrayJSON))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10}, meta.Shape)
	assert.Equal(t, "float32", meta.DataType.Name)
	assert.Equal(t, []int{5, 5}, meta.ChunkGrid.ChunkShape)
	assert.Equal(t, "celsius", meta.Attributes["unit"])
	assert.Equal(t, float32(0), meta.FillValue)
}

func TestParseArrayMetadata_WrongZarrFormat(t *testing.T) {
	_, err := zarr.ParseArrayMetadata([]byte(`{"zarr_format": 2, "node_type": "array"}`))
	require.Error(t, err)
}

func TestParseArrayMetadata_WrongNodeType(t *testing.T) {
	_, err := zarr.ParseArrayMetadata([]byte(`{"zarr_format": 3, "node_type": "group"}`))
	require.Error(t, err)
}

func TestParseArrayMetadata_ChunkShapeDimensionMismatch(t *testing.T) {
	raw := `{
		"zarr_format": 3, "node_type": "array",
		"shape": [10, 10], "data_type": "float32",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [5]}},
		"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}]
	}`
	_, err := zarr.ParseArrayMetadata([]byte(raw))
	require.Error(t, err)
}

func TestParseArrayMetadata_DimensionNamesMismatchFails(t *testing.T) {
	raw := `{
		"zarr_format": 3, "node_type": "array",
		"shape": [10, 10], "data_type": "float32",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [5, 5]}},
		"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}],
		"dimension_names": ["x"]
	}`
	_, err := zarr.ParseArrayMetadata([]byte(raw))
	require.Error(t, err)
}

func TestParseArrayMetadata_DefaultsFillValueToZero(t *testing.T) {
	raw := `{
		"zarr_format": 3, "node_type": "array",
		"shape": [4], "data_type": "int32",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [4]}},
		"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}]
	}`
	meta, err := zarr.ParseArrayMetadata([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, int32(0), meta.FillValue)
}

func TestParseArrayMetadata_TolerantOfUnknownExtensions(t *testing.T) {
	raw := `{
		"zarr_format": 3, "node_type": "array",
		"shape": [4], "data_type": "int32",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [4]}},
		"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}],
		"extensions": {"some.future.extension": {"must_understand": true}}
	}`
	meta, err := zarr.ParseArrayMetadata([]byte(raw))
	require.NoError(t, err)
	ext, ok := meta.Extensions["some.future.extension"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, ext["must_understand"])
}

func TestArrayMetadata_MarshalRoundTrip_PreservesExtensions(t *testing.T) {
	raw := `{
		"zarr_format": 3, "node_type": "array",
		"shape": [4], "data_type": "int32",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [4]}},
		"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}],
		"extensions": {"some.future.extension": {"must_understand": true}}
	}`
	meta, err := zarr.ParseArrayMetadata([]byte(raw))
	require.NoError(t, err)

	data, err := meta.MarshalJSON()
	require.NoError(t, err)

	reparsed, err := zarr.ParseArrayMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, meta.Extensions, reparsed.Extensions)
}

func TestArrayMetadata_MarshalRoundTrip(t *testing.T) {
	meta, err := zarr.ParseArrayMetadata([]byte(sampleArrayJSON))
	require.NoError(t, err)
	data, err := meta.MarshalJSON()
	require.NoError(t, err)

	reparsed, err := zarr.ParseArrayMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, meta.Shape, reparsed.Shape)
	assert.Equal(t, meta.DataType.Name, reparsed.DataType.Name)
	assert.Equal(t, meta.ChunkGrid.ChunkShape, reparsed.ChunkGrid.ChunkShape)
}

func TestArrayMetadata_MarshalPreservesFillValueRawVerbatim(t *testing.T) {
	raw := `{
		"zarr_format": 3, "node_type": "array",
		"shape": [2], "data_type": "float64",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2]}},
		"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}],
		"fill_value": "NaN"
	}`
	meta, err := zarr.ParseArrayMetadata([]byte(raw))
	require.NoError(t, err)
	data, err := meta.MarshalJSON()
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.JSONEq(t, `"NaN"`, string(out["fill_value"]))
}

const sampleGroupJSON = `{"zarr_format": 3, "node_type": "group", "attributes": {"project": "atmo"}}`

func TestParseGroupMetadata_Valid(t *testing.T) {
	meta, err := zarr.ParseGroupMetadata([]byte(sampleGroupJSON))
	require.NoError(t, err)
	assert.Equal(t, "atmo", meta.Attributes["project"])
}

func TestParseGroupMetadata_WrongNodeType(t *testing.T) {
	_, err := zarr.ParseGroupMetadata([]byte(`{"zarr_format": 3, "node_type": "array"}`))
	require.Error(t, err)
}

func TestGroupMetadata_MarshalRoundTrip(t *testing.T) {
	meta, err := zarr.ParseGroupMetadata([]byte(sampleGroupJSON))
	require.NoError(t, err)
	data, err := meta.MarshalJSON()
	require.NoError(t, err)
	reparsed, err := zarr.ParseGroupMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, meta.Attributes, reparsed.Attributes)
}
