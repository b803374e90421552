package zarr_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuSKan/zarr3"
)

func TestNewBytesCodec_RequiresEndianForMultiByte(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	_, err = zarr.NewBytesCodec(zarr.EndianNone, dt)
	require.Error(t, err)
}

func TestNewBytesCodec_SingleByteNeedsNoEndian(t *testing.T) {
	dt, err := zarr.LookupDataType("uint8")
	require.NoError(t, err)
	_, err = zarr.NewBytesCodec(zarr.EndianNone, dt)
	require.NoError(t, err)
}

func TestBytesCodec_EncodeDecodeRoundTrip(t *testing.T) {
	dt, err := zarr.LookupDataType("int16")
	require.NoError(t, err)
	c, err := zarr.NewBytesCodec(zarr.EndianLittle, dt)
	require.NoError(t, err)

	in := zarr.ArrayRep{
		Shape:    []int{3},
		DataType: dt,
		Elements: []any{int16(-1), int16(0), int16(32000)},
	}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(in, &buf))
	assert.Equal(t, 6, buf.Len())

	out, err := c.Decode(&buf, []int{3}, dt)
	require.NoError(t, err)
	assert.Equal(t, in.Elements, out.Elements)
}

func TestBytesCodec_BigEndian(t *testing.T) {
	dt, err := zarr.LookupDataType("uint32")
	require.NoError(t, err)
	c, err := zarr.NewBytesCodec(zarr.EndianBig, dt)
	require.NoError(t, err)

	in := zarr.ArrayRep{Shape: []int{1}, DataType: dt, Elements: []any{uint32(0x01020304)}}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(in, &buf))
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf.Bytes())
}

func TestBytesCodec_DecodeShortBufferFails(t *testing.T) {
	dt, err := zarr.LookupDataType("int32")
	require.NoError(t, err)
	c, err := zarr.NewBytesCodec(zarr.EndianLittle, dt)
	require.NoError(t, err)
	_, err = c.Decode(bytes.NewReader([]byte{1, 2}), []int{1}, dt)
	require.Error(t, err)
}
