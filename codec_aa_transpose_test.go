package zarr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func TestTransposeCodec_EncodeDecodeRoundTrip(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	tc := &zarr.TransposeCodec{Order: []int{1, 0}}

	in := zarr.ArrayRep{
		Shape:    []int{2, 3},
		DataType: dt,
		Elements: []any{int32(1), int32(2), int32(3), int32(4), int32(5), int32(6)},
	}
	encoded, err := tc.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, encoded.Shape)
	// row-major transpose of [[1,2,3],[4,5,6]] -> [[1,4],[2,5],[3,6]]
	assert.Equal(t, []any{int32(1), int32(4), int32(2), int32(5), int32(3), int32(6)}, encoded.Elements)

	decoded, err := tc.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, in.Shape, decoded.Shape)
	assert.Equal(t, in.Elements, decoded.Elements)
}

func TestTransposeCodec_EncodedShape(t *testing.T) {
	tc := &zarr.TransposeCodec{Order: []int{2, 0, 1}}
	shape, err := tc.EncodedShape([]int{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 4, 5}, shape)
}

func TestTransposeCodec_RejectsNonPermutation(t *testing.T) {
	tc := &zarr.TransposeCodec{Order: []int{0, 0}}
	_, err := tc.EncodedShape([]int{2, 2})
	require.Error(t, err)
}

func TestTransposeCodec_RejectsWrongArity(t *testing.T) {
	tc := &zarr.TransposeCodec{Order: []int{0, 1, 2}}
	_, err := tc.EncodedShape([]int{2, 2})
	require.Error(t, err)
}
