package zarr

import (
	"fmt"
	"io"
)

// BytesCodec is the "bytes" AB codec: it lays out an array's elements
// in the configured endianness. Endian must be EndianNone only when
// DataType.RequiresEndian() is false; that invariant is checked at
// construction time via NewBytesCodec, not deferred to encode time.
type BytesCodec struct {
	Endian   Endian
	DataType DataType
}

// NewBytesCodec validates the endian/data-type combination up front,
// per the design note that an unset endian on a multi-byte type must
// fail at construction.
func NewBytesCodec(endian Endian, dt DataType) (*BytesCodec, error) {
	if endian == EndianNone && dt.RequiresEndian() {
		return nil, newErr(KindDecodeFailure, "new_bytes_codec", "", fmt.Errorf("data type %s requires an explicit endianness", dt.Name))
	}
	return &BytesCodec{Endian: endian, DataType: dt}, nil
}

func (c *BytesCodec) Name() string { return "bytes" }

func (c *BytesCodec) Encode(in ArrayRep, w io.Writer) error {
	buf := make([]byte, 0, c.DataType.Size*len(in.Elements))
	for _, el := range in.Elements {
		var err error
		buf, err = c.DataType.EncodeElement(buf, el, c.Endian)
		if err != nil {
			return newErr(KindDecodeFailure, "bytes_encode", "", err)
		}
	}
	if _, err := w.Write(buf); err != nil {
		return errOp("bytes_encode", "", err)
	}
	return nil
}

func (c *BytesCodec) Decode(r io.Reader, shape []int, dt DataType) (ArrayRep, error) {
	n := numel(shape)
	buf := make([]byte, n*dt.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return ArrayRep{}, newErr(KindDecodeFailure, "bytes_decode", "", err)
	}
	elements := make([]any, n)
	for i := 0; i < n; i++ {
		el, err := dt.DecodeElement(buf[i*dt.Size:], c.Endian)
		if err != nil {
			return ArrayRep{}, newErr(KindDecodeFailure, "bytes_decode", "", err)
		}
		elements[i] = el
	}
	return ArrayRep{Shape: shape, DataType: dt, Endian: c.Endian, Elements: elements}, nil
}
