package zarr

import (
	"context"
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// TensorReader reads successive batches of an array's axis-0 rows as
// gomlx tensors, built on Array.ReadRegion rather than hand-rolled
// chunk arithmetic.
type TensorReader struct {
	array        *Array
	CurrentIndex int
}

func NewTensorReader(a *Array) *TensorReader {
	return &TensorReader{array: a}
}

// ReadBatch reads the next up-to-batchSize rows along axis 0. It
// returns io.EOF once the array is exhausted.
func (t *TensorReader) ReadBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	shape := t.array.Metadata().Shape
	if len(shape) == 0 {
		return nil, newErr(KindDimensionMismatch, "read_batch", t.array.Key().String(), fmt.Errorf("cannot batch a 0-dimensional array"))
	}
	if t.CurrentIndex >= shape[0] {
		return nil, io.EOF
	}

	start := t.CurrentIndex
	end := start + batchSize
	if end > shape[0] {
		end = shape[0]
	}

	offset := make([]int, len(shape))
	batchShape := make([]int, len(shape))
	offset[0] = start
	batchShape[0] = end - start
	for d := 1; d < len(shape); d++ {
		batchShape[d] = shape[d]
	}

	rep, ok, err := t.array.ReadRegion(ctx, Region{Offset: offset, Shape: batchShape})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	t.CurrentIndex = end

	tensor, err := toTensor(rep)
	if err != nil {
		return nil, err
	}
	return tensor, nil
}

// toTensor materializes an ArrayRep's elements into one of gomlx's
// flat-buffer tensor constructors. Supported dtypes are float32,
// float64, int32, int64, uint32 and uint64; any other dtype is an error.
func toTensor(rep ArrayRep) (*tensors.Tensor, error) {
	n := len(rep.Elements)
	switch rep.DataType.Kind {
	case TypeKindFloat:
		if rep.DataType.Size == 4 {
			buf := make([]float32, n)
			for i, e := range rep.Elements {
				buf[i] = e.(float32)
			}
			return tensors.FromFlatDataAndDimensions(buf, rep.Shape...), nil
		}
		buf := make([]float64, n)
		for i, e := range rep.Elements {
			buf[i] = e.(float64)
		}
		return tensors.FromFlatDataAndDimensions(buf, rep.Shape...), nil
	case TypeKindInt:
		switch rep.DataType.Size {
		case 4:
			buf := make([]int32, n)
			for i, e := range rep.Elements {
				buf[i] = e.(int32)
			}
			return tensors.FromFlatDataAndDimensions(buf, rep.Shape...), nil
		case 8:
			buf := make([]int64, n)
			for i, e := range rep.Elements {
				buf[i] = e.(int64)
			}
			return tensors.FromFlatDataAndDimensions(buf, rep.Shape...), nil
		}
	case TypeKindUint:
		switch rep.DataType.Size {
		case 4:
			buf := make([]uint32, n)
			for i, e := range rep.Elements {
				buf[i] = e.(uint32)
			}
			return tensors.FromFlatDataAndDimensions(buf, rep.Shape...), nil
		case 8:
			buf := make([]uint64, n)
			for i, e := range rep.Elements {
				buf[i] = e.(uint64)
			}
			return tensors.FromFlatDataAndDimensions(buf, rep.Shape...), nil
		}
	}
	return nil, newErr(KindDecodeFailure, "to_tensor", "", fmt.Errorf("unsupported tensor dtype %s", rep.DataType.Name))
}
