package zarr

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
)

const shardIndexEntrySize = 16 // two little-endian u64s: offset, nbytes

var shardEmptySentinel = [2]uint64{^uint64(0), ^uint64(0)}

// ShardingCodec is the "sharding_indexed" AB codec (component I). It is
// recursive: the sub-chunks it packs are themselves encoded through an
// embedded codec chain, which may include further AB codecs.
type ShardingCodec struct {
	ChunkShape []int // inner_chunk_shape; must evenly divide the outer shape
	Inner      *CodecChain
	DataType   DataType
	FillValue  any
}

func buildShardingCodec(cfg json.RawMessage, dt DataType, ndim int) (*ShardingCodec, error) {
	var c struct {
		ChunkShape []int       `json:"chunk_shape"`
		Codecs     []CodecSpec `json:"codecs"`
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &c); err != nil {
			return nil, newErr(KindInvalidMetadata, "build_sharding_codec", "", err)
		}
	}
	if len(c.ChunkShape) != ndim {
		return nil, newErr(KindDimensionMismatch, "build_sharding_codec", "", fmt.Errorf("sharding chunk_shape length %d != ndim %d", len(c.ChunkShape), ndim))
	}
	inner, err := BuildCodecChain(c.Codecs, dt, ndim)
	if err != nil {
		return nil, err
	}
	return &ShardingCodec{ChunkShape: c.ChunkShape, Inner: inner, DataType: dt, FillValue: dt.ZeroValue()}, nil
}

func (s *ShardingCodec) Name() string { return "sharding_indexed" }

func (s *ShardingCodec) subChunkGrid(outer []int) ([]int, error) {
	if len(outer) != len(s.ChunkShape) {
		return nil, newErr(KindDimensionMismatch, "sharding", "", fmt.Errorf("outer shape has %d dims, inner has %d", len(outer), len(s.ChunkShape)))
	}
	grid := make([]int, len(outer))
	for d := range outer {
		if s.ChunkShape[d] <= 0 || outer[d]%s.ChunkShape[d] != 0 {
			return nil, newErr(KindInvalidMetadata, "sharding", "", fmt.Errorf("inner chunk shape %v does not evenly divide outer shape %v", s.ChunkShape, outer))
		}
		grid[d] = outer[d] / s.ChunkShape[d]
	}
	return grid, nil
}

// Encode packs the outer chunk's sub-chunks in C order, appends the
// dense index, then the index's CRC-32C, per spec §4.I.
func (s *ShardingCodec) Encode(in ArrayRep, w io.Writer) error {
	grid, err := s.subChunkGrid(in.Shape)
	if err != nil {
		return err
	}
	n := numel(grid)
	index := make([][2]uint64, n)
	gridStrides := cStrides(grid)

	var payload bytes.Buffer
	coord := make([]int, len(grid))
	for i := 0; i < n; i++ {
		unflatten(i, gridStrides, coord)
		sub, err := sliceSubChunk(in, coord, s.ChunkShape)
		if err != nil {
			return err
		}
		before := payload.Len()
		encoded, err := s.Inner.Encode(sub)
		if err != nil {
			return err
		}
		if _, err := payload.Write(encoded); err != nil {
			return errOp("sharding_encode", "", err)
		}
		index[i] = [2]uint64{uint64(before), uint64(len(encoded))}
	}

	if _, err := w.Write(payload.Bytes()); err != nil {
		return errOp("sharding_encode", "", err)
	}

	var idxBuf bytes.Buffer
	for _, e := range index {
		var rec [shardIndexEntrySize]byte
		binary.LittleEndian.PutUint64(rec[0:8], e[0])
		binary.LittleEndian.PutUint64(rec[8:16], e[1])
		idxBuf.Write(rec[:])
	}
	if _, err := w.Write(idxBuf.Bytes()); err != nil {
		return errOp("sharding_encode", "", err)
	}
	crc := crc32.Checksum(idxBuf.Bytes(), castagnoliTable)
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc)
	if _, err := w.Write(crcBuf[:]); err != nil {
		return errOp("sharding_encode", "", err)
	}
	return nil
}

// Decode reads the trailing index+checksum, then decodes each
// sub-chunk in C order directly into the output array. Malicious or
// corrupt nbytes values are bounded by the payload region size.
func (s *ShardingCodec) Decode(r io.Reader, shape []int, dt DataType) (ArrayRep, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return ArrayRep{}, errOp("sharding_decode", "", err)
	}
	grid, err := s.subChunkGrid(shape)
	if err != nil {
		return ArrayRep{}, err
	}
	n := numel(grid)
	indexBytes := n * shardIndexEntrySize
	trailerLen := indexBytes + 4
	if len(all) < trailerLen {
		return ArrayRep{}, &Error{Kind: KindChecksumFailure, Op: "sharding_decode"}
	}
	payloadLen := len(all) - trailerLen
	payload := all[:payloadLen]
	idx := all[payloadLen : payloadLen+indexBytes]
	crcField := all[payloadLen+indexBytes:]

	wantCRC := binary.LittleEndian.Uint32(crcField)
	gotCRC := crc32.Checksum(idx, castagnoliTable)
	if wantCRC != gotCRC {
		return ArrayRep{}, &Error{Kind: KindChecksumFailure, Op: "sharding_decode"}
	}

	out := ArrayRep{Shape: shape, DataType: dt, Endian: EndianNone, Elements: make([]any, numel(shape))}
	fillValue := s.FillValue
	if fillValue == nil {
		fillValue = dt.ZeroValue()
	}
	for i := range out.Elements {
		out.Elements[i] = fillValue
	}

	gridStrides := cStrides(grid)
	coord := make([]int, len(grid))
	for i := 0; i < n; i++ {
		rec := idx[i*shardIndexEntrySize : (i+1)*shardIndexEntrySize]
		offset := binary.LittleEndian.Uint64(rec[0:8])
		nbytes := binary.LittleEndian.Uint64(rec[8:16])
		if offset == shardEmptySentinel[0] && nbytes == shardEmptySentinel[1] {
			continue
		}
		if offset > uint64(payloadLen) || nbytes > uint64(payloadLen)-offset {
			return ArrayRep{}, newErr(KindInvalidMetadata, "sharding_decode", "", fmt.Errorf("sub-chunk index entry %d out of bounds", i))
		}
		unflatten(i, gridStrides, coord)
		sub, err := s.Inner.Decode(payload[offset:offset+nbytes], s.ChunkShape, dt)
		if err != nil {
			return ArrayRep{}, err
		}
		if err := placeSubChunk(&out, coord, s.ChunkShape, sub); err != nil {
			return ArrayRep{}, err
		}
	}
	return out, nil
}

func sliceSubChunk(in ArrayRep, gridCoord, subShape []int) (ArrayRep, error) {
	strides := cStrides(in.Shape)
	subStrides := cStrides(subShape)
	out := ArrayRep{Shape: subShape, DataType: in.DataType, Endian: in.Endian, Elements: make([]any, numel(subShape))}
	outerCoord := make([]int, len(in.Shape))
	localCoord := make([]int, len(subShape))
	total := numel(subShape)
	for i := 0; i < total; i++ {
		unflatten(i, subStrides, localCoord)
		for d := range outerCoord {
			outerCoord[d] = gridCoord[d]*subShape[d] + localCoord[d]
		}
		flat := flatten(outerCoord, strides)
		if flat < 0 || flat >= len(in.Elements) {
			return ArrayRep{}, newErr(KindOutOfBounds, "sharding_slice", "", fmt.Errorf("sub-chunk coordinate out of bounds"))
		}
		out.Elements[i] = in.Elements[flat]
	}
	return out, nil
}

func placeSubChunk(dst *ArrayRep, gridCoord, subShape []int, sub ArrayRep) error {
	strides := cStrides(dst.Shape)
	subStrides := cStrides(subShape)
	outerCoord := make([]int, len(dst.Shape))
	localCoord := make([]int, len(subShape))
	total := numel(subShape)
	for i := 0; i < total; i++ {
		unflatten(i, subStrides, localCoord)
		for d := range outerCoord {
			outerCoord[d] = gridCoord[d]*subShape[d] + localCoord[d]
		}
		flat := flatten(outerCoord, strides)
		if flat < 0 || flat >= len(dst.Elements) {
			return newErr(KindOutOfBounds, "sharding_place", "", fmt.Errorf("sub-chunk coordinate out of bounds"))
		}
		dst.Elements[flat] = sub.Elements[i]
	}
	return nil
}
