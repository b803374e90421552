package zarr

import "fmt"

// TransposeCodec permutes an array's axes by Order on encode and
// applies the inverse permutation on decode. Order must be a
// permutation of [0, len(Order)) with no repetition and no gap.
type TransposeCodec struct {
	Order []int
}

func (t *TransposeCodec) Name() string { return "transpose" }

func validatePermutation(order []int) error {
	seen := make([]bool, len(order))
	for _, o := range order {
		if o < 0 || o >= len(order) || seen[o] {
			return fmt.Errorf("transpose order %v is not a permutation of [0,%d)", order, len(order))
		}
		seen[o] = true
	}
	return nil
}

func inversePermutation(order []int) []int {
	inv := make([]int, len(order))
	for i, o := range order {
		inv[o] = i
	}
	return inv
}

func (t *TransposeCodec) EncodedShape(decodedShape []int) ([]int, error) {
	if len(t.Order) != len(decodedShape) {
		return nil, newErr(KindDimensionMismatch, "transpose_encoded_shape", "", fmt.Errorf("order length %d != ndim %d", len(t.Order), len(decodedShape)))
	}
	if err := validatePermutation(t.Order); err != nil {
		return nil, newErr(KindInvalidCodecChain, "transpose_encoded_shape", "", err)
	}
	out := make([]int, len(decodedShape))
	for i, o := range t.Order {
		out[i] = decodedShape[o]
	}
	return out, nil
}

func (t *TransposeCodec) Encode(in ArrayRep) (ArrayRep, error) {
	return permute(in, t.Order)
}

func (t *TransposeCodec) Decode(in ArrayRep) (ArrayRep, error) {
	return permute(in, inversePermutation(t.Order))
}

// permute reorders in's axes according to order: out.Shape[i] =
// in.Shape[order[i]], and every element is relocated to match.
func permute(in ArrayRep, order []int) (ArrayRep, error) {
	if len(order) != len(in.Shape) {
		return ArrayRep{}, newErr(KindDimensionMismatch, "transpose", "", fmt.Errorf("order length %d != ndim %d", len(order), len(in.Shape)))
	}
	outShape := make([]int, len(in.Shape))
	for i, o := range order {
		outShape[i] = in.Shape[o]
	}

	inStrides := cStrides(in.Shape)
	outStrides := cStrides(outShape)

	out := ArrayRep{
		Shape:    outShape,
		DataType: in.DataType,
		Endian:   in.Endian,
		Elements: make([]any, len(in.Elements)),
	}

	n := numel(outShape)
	outCoord := make([]int, len(outShape))
	for flat := 0; flat < n; flat++ {
		unflatten(flat, outStrides, outCoord)
		inCoord := make([]int, len(outCoord))
		for i, o := range order {
			inCoord[o] = outCoord[i]
		}
		inFlat := flatten(inCoord, inStrides)
		out.Elements[flat] = in.Elements[inFlat]
	}
	return out, nil
}

// cStrides computes C-order (row-major) strides for shape.
func cStrides(shape []int) []int {
	s := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

func flatten(coord, strides []int) int {
	idx := 0
	for i, c := range coord {
		idx += c * strides[i]
	}
	return idx
}

func unflatten(flat int, strides []int, coord []int) {
	for i, s := range strides {
		coord[i] = flat / s
		flat -= coord[i] * s
	}
}
