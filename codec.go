package zarr

import "io"

// ArrayRep is the decoded, typed representation a codec chain's AA/AB
// boundary passes around: a flat, C-order element buffer plus the
// shape it represents.
type ArrayRep struct {
	Shape    []int
	DataType DataType
	Endian   Endian
	Elements []any // len(Elements) == product(Shape)
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// AACodec is an array-to-array transform (e.g. transpose). It runs
// before the AB codec on encode, and after it (in reverse) on decode.
type AACodec interface {
	// Name is the zarr.json codec discriminator.
	Name() string
	// EncodedShape reports the shape this codec produces from
	// decodedShape, validating dimensionality up front.
	EncodedShape(decodedShape []int) ([]int, error)
	Encode(in ArrayRep) (ArrayRep, error)
	Decode(in ArrayRep) (ArrayRep, error)
}

// FinalWriter is a BB codec encoder: a Writer that, on Finalize,
// flushes any trailer (e.g. a checksum) and reports how many trailer
// bytes it wrote.
type FinalWriter interface {
	io.Writer
	Finalize() (int, error)
}

// ABCodec is the single array-to-bytes transform in a chain (endian,
// or the recursive sharding codec).
type ABCodec interface {
	Name() string
	// Encode writes in's elements, laid out as bytes, into the writer
	// chain produced by the BB codecs.
	Encode(in ArrayRep, w io.Writer) error
	// Decode reads product(shape) elements of dt from r.
	Decode(r io.Reader, shape []int, dt DataType) (ArrayRep, error)
}

// BBCodec is one byte-to-byte transform in the chain (compression or
// checksumming).
type BBCodec interface {
	Name() string
	Encoder(w io.Writer) FinalWriter
	Decoder(r io.Reader) io.Reader
}
