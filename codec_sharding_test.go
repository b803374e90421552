package zarr_test

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func buildShardingChain(t *testing.T, dt zarr.DataType) *zarr.CodecChain {
	t.Helper()
	specs := []zarr.CodecSpec{
		{
			Name: "sharding_indexed",
			Configuration: json.RawMessage(`{
				"chunk_shape": [2, 2],
				"codecs": [
					{"name": "bytes", "configuration": {"endian": "little"}},
					{"name": "crc32c"}
				]
			}`),
		},
	}
	chain, err := zarr.BuildCodecChain(specs, dt, 2)
	require.NoError(t, err)
	return chain
}

func TestShardingCodec_EncodeDecodeRoundTrip(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	chain := buildShardingChain(t, dt)

	elements := make([]any, 16)
	for i := range elements {
		elements[i] = int32(i)
	}
	in := zarr.ArrayRep{Shape: []int{4, 4}, DataType: dt, Elements: elements}

	encoded, err := chain.Encode(in)
	require.NoError(t, err)

	out, err := chain.Decode(encoded, []int{4, 4}, dt)
	require.NoError(t, err)
	assert.Equal(t, in.Elements, out.Elements)
}

func TestShardingCodec_RejectsNonDivisibleOuterShape(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	chain := buildShardingChain(t, dt)
	in := zarr.ArrayRep{Shape: []int{5, 4}, DataType: dt, Elements: make([]any, 20)}
	for i := range in.Elements {
		in.Elements[i] = int32(0)
	}
	_, err = chain.Encode(in)
	require.Error(t, err)
}

func TestShardingCodec_DecodeRejectsOutOfBoundsIndexEntry(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	chain := buildShardingChain(t, dt)

	elements := make([]any, 16)
	for i := range elements {
		elements[i] = int32(i)
	}
	in := zarr.ArrayRep{Shape: []int{4, 4}, DataType: dt, Elements: elements}
	encoded, err := chain.Encode(in)
	require.NoError(t, err)

	// Corrupt the first index entry's nbytes field (the 16-byte index
	// block sits right before the trailing 4-byte CRC) to claim a size
	// larger than the payload actually holds.
	idxStart := len(encoded) - (4*16 + 4)
	for i := 8; i < 16; i++ {
		encoded[idxStart+i] = 0xFF
	}
	// Reseal the index with a matching CRC so that the bounds check, not
	// the checksum check, is what rejects the entry.
	crc := crc32.Checksum(encoded[idxStart:len(encoded)-4], crc32.MakeTable(crc32.Castagnoli))
	binary.LittleEndian.PutUint32(encoded[len(encoded)-4:], crc)
	_, err = chain.Decode(encoded, []int{4, 4}, dt)
	require.Error(t, err)
}

func TestShardingCodec_DecodeDetectsIndexCorruption(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	chain := buildShardingChain(t, dt)

	elements := make([]any, 16)
	for i := range elements {
		elements[i] = int32(i)
	}
	in := zarr.ArrayRep{Shape: []int{4, 4}, DataType: dt, Elements: elements}
	encoded, err := chain.Encode(in)
	require.NoError(t, err)

	encoded[len(encoded)-5] ^= 0xFF // flip a byte inside the index block
	_, err = chain.Decode(encoded, []int{4, 4}, dt)
	require.Error(t, err)
	var zerr *zarr.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zarr.KindChecksumFailure, zerr.Kind)
}
