package zarr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Array binds an array node's metadata, codec chain, chunk grid, and
// store into the read/write operations of spec §4.J.
type Array struct {
	key    NodeKey
	store  Store
	meta   *ArrayMetadata
	logger *slog.Logger
}

// OpenArray reads and parses key's zarr.json as an array document.
// A missing metadata key is reported as NotFound, distinct from a
// missing chunk (which resolves to fill).
func OpenArray(ctx context.Context, store Store, key NodeKey, logger *slog.Logger) (*Array, error) {
	logger = orDiscardLogger(logger)
	r, err := store.Get(ctx, key.MetadataKey())
	if err != nil {
		return nil, errOp("open_array", key.MetadataKey(), err)
	}
	if r == nil {
		return nil, newErr(KindNotFound, "open_array", key.MetadataKey(), fmt.Errorf("no array metadata at %s", key.MetadataKey()))
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errOp("open_array", key.MetadataKey(), err)
	}
	meta, err := ParseArrayMetadata(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened array", "key", key.String(), "shape", meta.Shape, "data_type", meta.DataType.Name)
	return &Array{key: key, store: store, meta: meta, logger: logger}, nil
}

// CreateArray writes a new array's metadata document, first erasing
// any pre-existing prefix under the child key (per spec §4.K).
func CreateArray(ctx context.Context, store Store, key NodeKey, meta *ArrayMetadata, logger *slog.Logger) (*Array, error) {
	logger = orDiscardLogger(logger)
	if err := store.ErasePrefix(ctx, key.StorePrefix()); err != nil {
		return nil, errOp("create_array", key.StorePrefix(), err)
	}
	data, err := meta.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key.MetadataKey(), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return nil, errOp("create_array", key.MetadataKey(), err)
	}
	logger.Info("created array", "key", key.String(), "shape", meta.Shape)
	return &Array{key: key, store: store, meta: meta, logger: logger}, nil
}

func (a *Array) Metadata() *ArrayMetadata { return a.meta }
func (a *Array) Key() NodeKey             { return a.key }

func (a *Array) ndim() int { return len(a.meta.Shape) }

func (a *Array) chunkKey(idx []int) string {
	return a.meta.ChunkKeyEncoding.Key(a.key, idx)
}

// ReadChunk implements read_chunk(idx): out-of-bounds chunk indices
// fail distinctly from a chunk simply absent from the store, which
// resolves to a fill-valued array at the chunk's full shape.
func (a *Array) ReadChunk(ctx context.Context, idx []int) (ArrayRep, error) {
	if len(idx) != a.ndim() {
		return ArrayRep{}, newErr(KindDimensionMismatch, "read_chunk", a.chunkKey(idx), fmt.Errorf("chunk index ndim %d != array ndim %d", len(idx), a.ndim()))
	}
	maxIdx := a.meta.ChunkGrid.MaxChunkIndex(a.meta.Shape)
	for d, i := range idx {
		if i < 0 || i > maxIdx[d] {
			return ArrayRep{}, newErr(KindOutOfBounds, "read_chunk", a.chunkKey(idx), fmt.Errorf("chunk index %v exceeds max %v on axis %d", idx, maxIdx, d))
		}
	}

	key := a.chunkKey(idx)
	r, err := a.store.Get(ctx, key)
	if err != nil {
		return ArrayRep{}, errOp("read_chunk", key, err)
	}
	chunkShape := a.meta.ChunkGrid.ChunkShape
	if r == nil {
		return fillArray(chunkShape, a.meta.DataType, a.meta.FillValue), nil
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return ArrayRep{}, errOp("read_chunk", key, err)
	}
	return a.meta.Codecs.Decode(data, chunkShape, a.meta.DataType)
}

// WriteChunk implements write_chunk(idx, chunk): a chunk every element
// of which equals the fill value is erased rather than stored.
func (a *Array) WriteChunk(ctx context.Context, idx []int, chunk ArrayRep) error {
	chunkShape := a.meta.ChunkGrid.ChunkShape
	if len(chunk.Shape) != len(chunkShape) {
		return newErr(KindDimensionMismatch, "write_chunk", a.chunkKey(idx), fmt.Errorf("chunk shape ndim %d != grid ndim %d", len(chunk.Shape), len(chunkShape)))
	}
	for d := range chunkShape {
		if chunk.Shape[d] != chunkShape[d] {
			return newErr(KindDimensionMismatch, "write_chunk", a.chunkKey(idx), fmt.Errorf("chunk shape %v != grid chunk shape %v", chunk.Shape, chunkShape))
		}
	}

	key := a.chunkKey(idx)
	if isAllFill(chunk, a.meta.DataType, a.meta.FillValue) {
		if err := a.store.Erase(ctx, key); err != nil {
			return errOp("write_chunk", key, err)
		}
		return nil
	}

	encoded, err := a.meta.Codecs.Encode(chunk)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, key, func(w io.Writer) error {
		_, err := w.Write(encoded)
		return err
	}); err != nil {
		return errOp("write_chunk", key, err)
	}
	return nil
}

// ReadRegion implements read_region(region): clips to array bounds,
// allocates a fill-prefilled output, then overlays every touched
// chunk's overlap.
func (a *Array) ReadRegion(ctx context.Context, region Region) (ArrayRep, bool, error) {
	clipped, ok := region.LimitExtent(a.meta.Shape)
	if !ok {
		return ArrayRep{}, false, nil
	}
	out := fillArray(clipped.Shape, a.meta.DataType, a.meta.FillValue)

	chunkRegions, err := a.meta.ChunkGrid.ChunksInRegion(clipped)
	if err != nil {
		return ArrayRep{}, false, err
	}
	for _, cr := range chunkRegions {
		chunk, err := a.ReadChunk(ctx, cr.ChunkIdx)
		if err != nil {
			return ArrayRep{}, false, err
		}
		copyRegion(&out, cr.OutRegion, chunk, cr.ChunkRegion)
	}
	return out, true, nil
}

// WriteRegion implements write_region(offset, array): clips to array
// bounds, then for each touched chunk either writes it wholesale or
// performs a read-modify-write.
func (a *Array) WriteRegion(ctx context.Context, offset []int, src ArrayRep) error {
	region := Region{Offset: offset, Shape: src.Shape}
	clipped, ok := region.LimitExtent(a.meta.Shape)
	if !ok {
		return nil
	}

	var clippedSrc ArrayRep
	if sameShape(clipped.Shape, src.Shape) {
		clippedSrc = src
	} else {
		clippedSrc = fillArray(clipped.Shape, src.DataType, nil)
		copyRegion(&clippedSrc, Region{Offset: make([]int, len(offset)), Shape: clipped.Shape}, src, Region{Offset: make([]int, len(offset)), Shape: clipped.Shape})
	}

	chunkRegions, err := a.meta.ChunkGrid.ChunksInRegion(clipped)
	if err != nil {
		return err
	}
	chunkShape := a.meta.ChunkGrid.ChunkShape
	for _, cr := range chunkRegions {
		if sameShape(cr.ChunkRegion.Shape, chunkShape) {
			whole := fillArray(chunkShape, clippedSrc.DataType, nil)
			copyRegion(&whole, Region{Offset: make([]int, len(chunkShape)), Shape: chunkShape}, clippedSrc, cr.OutRegion)
			if err := a.WriteChunk(ctx, cr.ChunkIdx, whole); err != nil {
				return err
			}
			continue
		}
		existing, err := a.ReadChunk(ctx, cr.ChunkIdx)
		if err != nil {
			return err
		}
		copyRegion(&existing, cr.ChunkRegion, clippedSrc, cr.OutRegion)
		if err := a.WriteChunk(ctx, cr.ChunkIdx, existing); err != nil {
			return err
		}
	}
	return nil
}

func fillArray(shape []int, dt DataType, fillValue any) ArrayRep {
	if fillValue == nil {
		fillValue = dt.ZeroValue()
	}
	n := numel(shape)
	elements := make([]any, n)
	for i := range elements {
		elements[i] = fillValue
	}
	return ArrayRep{Shape: shape, DataType: dt, Endian: EndianNone, Elements: elements}
}

func isAllFill(chunk ArrayRep, dt DataType, fillValue any) bool {
	for _, e := range chunk.Elements {
		if !EqualElement(dt, e, fillValue) {
			return false
		}
	}
	return true
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// copyRegion copies the elements of src's srcRegion into dst's
// dstRegion; both regions have identical per-axis shapes.
func copyRegion(dst *ArrayRep, dstRegion Region, src ArrayRep, srcRegion Region) {
	ndim := len(dstRegion.Shape)
	dstStrides := cStrides(dst.Shape)
	srcStrides := cStrides(src.Shape)
	n := numel(dstRegion.Shape)
	localCoord := make([]int, ndim)
	localStrides := cStrides(dstRegion.Shape)
	dstCoord := make([]int, ndim)
	srcCoord := make([]int, ndim)
	for i := 0; i < n; i++ {
		unflatten(i, localStrides, localCoord)
		for d := 0; d < ndim; d++ {
			dstCoord[d] = dstRegion.Offset[d] + localCoord[d]
			srcCoord[d] = srcRegion.Offset[d] + localCoord[d]
		}
		dst.Elements[flatten(dstCoord, dstStrides)] = src.Elements[flatten(srcCoord, srcStrides)]
	}
}

func orDiscardLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(discardHandler{})
}
