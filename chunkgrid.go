package zarr

import "fmt"

// RegularChunkGrid is the only chunk grid variant: a per-axis positive
// chunk_shape. Voxel idx lies in chunk idx/chunk_shape at in-chunk
// offset idx%chunk_shape.
type RegularChunkGrid struct {
	ChunkShape []int
}

func NewRegularChunkGrid(chunkShape []int) (*RegularChunkGrid, error) {
	for i, c := range chunkShape {
		if c <= 0 {
			return nil, newErr(KindInvalidMetadata, "new_regular_chunk_grid", "", fmt.Errorf("chunk_shape[%d] = %d must be positive", i, c))
		}
	}
	return &RegularChunkGrid{ChunkShape: append([]int(nil), chunkShape...)}, nil
}

func (g *RegularChunkGrid) Ndim() int { return len(g.ChunkShape) }

// ChunkIndex returns the chunk coordinate and in-chunk offset of voxel.
func (g *RegularChunkGrid) ChunkIndex(voxel []int) (chunkIdx, inChunkOffset []int) {
	chunkIdx = make([]int, len(voxel))
	inChunkOffset = make([]int, len(voxel))
	for d, v := range voxel {
		chunkIdx[d] = v / g.ChunkShape[d]
		inChunkOffset[d] = v % g.ChunkShape[d]
	}
	return
}

// MaxChunkIndex returns, per axis, the largest valid chunk index for
// an array of arrayShape.
func (g *RegularChunkGrid) MaxChunkIndex(arrayShape []int) []int {
	out := make([]int, len(arrayShape))
	for d, s := range arrayShape {
		out[d] = (s - 1) / g.ChunkShape[d]
	}
	return out
}

// Region is a per-axis (offset, shape) pair. end = offset + shape.
type Region struct {
	Offset []int
	Shape  []int
}

func (r Region) End() []int {
	end := make([]int, len(r.Offset))
	for d := range r.Offset {
		end[d] = r.Offset[d] + r.Shape[d]
	}
	return end
}

// IsWhole reports whether r covers all of arrayShape starting at the
// origin.
func (r Region) IsWhole(arrayShape []int) bool {
	for d, s := range arrayShape {
		if r.Offset[d] != 0 || r.Shape[d] != s {
			return false
		}
	}
	return true
}

// LimitExtent truncates each axis's end to arrayShape[d], returning
// ok=false if any axis's offset is at or beyond the array bound.
func (r Region) LimitExtent(arrayShape []int) (Region, bool) {
	out := Region{Offset: append([]int(nil), r.Offset...), Shape: make([]int, len(r.Shape))}
	for d := range r.Offset {
		if r.Offset[d] >= arrayShape[d] {
			return Region{}, false
		}
		end := r.Offset[d] + r.Shape[d]
		if end > arrayShape[d] {
			end = arrayShape[d]
		}
		out.Shape[d] = end - r.Offset[d]
	}
	return out, true
}

// ChunkRegion is one triple yielded by ChunksInRegion: the chunk this
// touches, the sub-region of that chunk the request covers (in
// chunk-local coordinates), and the matching sub-region of the
// caller's output (in region-local coordinates). ChunkRegion and
// OutRegion always have identical per-axis shapes.
type ChunkRegion struct {
	ChunkIdx    []int
	ChunkRegion Region
	OutRegion   Region
}

// ChunksInRegion enumerates, axis by axis via a Cartesian product,
// every chunk overlapping region and the chunk-local/out-local
// sub-regions for each, per spec §4.H.
func (g *RegularChunkGrid) ChunksInRegion(region Region) ([]ChunkRegion, error) {
	ndim := len(g.ChunkShape)
	if len(region.Offset) != ndim || len(region.Shape) != ndim {
		return nil, newErr(KindDimensionMismatch, "chunks_in_region", "", fmt.Errorf("region ndim mismatch: grid has %d axes", ndim))
	}
	end := region.End()

	type axisChunk struct {
		k          int
		chunkStart int
		extent     int
		outStart   int
	}
	perAxis := make([][]axisChunk, ndim)

	for d := 0; d < ndim; d++ {
		if region.Shape[d] == 0 {
			continue
		}
		chunkShape := g.ChunkShape[d]
		minChunk := region.Offset[d] / chunkShape
		minOff := region.Offset[d] % chunkShape
		maxChunk := end[d] / chunkShape
		maxOff := end[d] % chunkShape
		if maxOff == 0 {
			// end lands exactly on a chunk boundary: the last touched
			// chunk is the one before it, filled to its full extent.
			maxChunk--
			maxOff = chunkShape
		}

		outStart := 0
		for k := minChunk; k <= maxChunk; k++ {
			start := 0
			if k == minChunk {
				start = minOff
			}
			limit := chunkShape
			if k == maxChunk {
				limit = maxOff
			}
			extent := limit - start
			if extent <= 0 {
				continue
			}
			perAxis[d] = append(perAxis[d], axisChunk{k: k, chunkStart: start, extent: extent, outStart: outStart})
			outStart += extent
		}
	}

	var results []ChunkRegion
	coord := make([]int, ndim)
	var recurse func(d int)
	recurse = func(d int) {
		if d == ndim {
			cr := ChunkRegion{
				ChunkIdx:    make([]int, ndim),
				ChunkRegion: Region{Offset: make([]int, ndim), Shape: make([]int, ndim)},
				OutRegion:   Region{Offset: make([]int, ndim), Shape: make([]int, ndim)},
			}
			for d := 0; d < ndim; d++ {
				ac := perAxis[d][coord[d]]
				cr.ChunkIdx[d] = ac.k
				cr.ChunkRegion.Offset[d] = ac.chunkStart
				cr.ChunkRegion.Shape[d] = ac.extent
				cr.OutRegion.Offset[d] = ac.outStart
				cr.OutRegion.Shape[d] = ac.extent
			}
			results = append(results, cr)
			return
		}
		for i := range perAxis[d] {
			coord[d] = i
			recurse(d + 1)
		}
	}
	recurse(0)
	return results, nil
}
