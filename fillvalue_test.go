package zarr_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func TestParseFillValue_Number(t *testing.T) {
	dt, err := zarr.LookupDataType("float32")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`1.5`), dt)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), v)
}

func TestParseFillValue_CanonicalNaN(t *testing.T) {
	dt, err := zarr.LookupDataType("float64")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`"NaN"`), dt)
	require.NoError(t, err)
	f := v.(float64)
	assert.True(t, math.IsNaN(f))
	assert.Equal(t, uint64(0x7FF8000000000000), math.Float64bits(f))
}

func TestParseFillValue_Infinity(t *testing.T) {
	dt, err := zarr.LookupDataType("float32")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`"Infinity"`), dt)
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(v.(float32)), 1))

	v, err = zarr.ParseFillValue(json.RawMessage(`"-Infinity"`), dt)
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(v.(float32)), -1))
}

func TestParseFillValue_HexNonCanonicalNaN(t *testing.T) {
	dt, err := zarr.LookupDataType("float32")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`"0x7fc00001"`), dt)
	require.NoError(t, err)
	f := v.(float32)
	assert.True(t, math.IsNaN(float64(f)))
	assert.Equal(t, uint32(0x7fc00001), math.Float32bits(f))
}

func TestParseFillValue_Bool(t *testing.T) {
	dt, err := zarr.LookupDataType("bool")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`true`), dt)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestParseFillValue_Int(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`-7`), dt)
	require.NoError(t, err)
	assert.Equal(t, int32(-7), v)
}

func TestParseFillValue_Complex(t *testing.T) {
	dt, err := zarr.LookupDataType("complex128")
	require.NoError(t, err)
	v, err := zarr.ParseFillValue(json.RawMessage(`[1.5, -2.5]`), dt)
	require.NoError(t, err)
	assert.Equal(t, complex(1.5, -2.5), v)
}

func TestParseFillValue_InvalidString(t *testing.T) {
	dt, err := zarr.LookupDataType("float32")
	require.NoError(t, err)
	_, err = zarr.ParseFillValue(json.RawMessage(`"not-a-float"`), dt)
	require.Error(t, err)
}

func TestEqualElement_NaNBitsMatch(t *testing.T) {
	dt, err := zarr.LookupDataType("float64")
	require.NoError(t, err)
	a := math.NaN()
	b := math.Float64frombits(math.Float64bits(a))
	assert.True(t, zarr.EqualElement(dt, a, b))
}

func TestEqualElement_DifferentNaNBitsDiffer(t *testing.T) {
	dt, err := zarr.LookupDataType("float64")
	require.NoError(t, err)
	a := math.Float64frombits(0x7FF8000000000000)
	b := math.Float64frombits(0x7FF8000000000001)
	assert.False(t, zarr.EqualElement(dt, a, b))
}
