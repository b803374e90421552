package zarr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// CodecSpec is the JSON discriminated-union shape every entry in
// zarr.json's "codecs" array takes: {"name": ..., "configuration": ...}.
type CodecSpec struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// CodecChain is the validated (AA*, AB, BB*) composition described in
// spec §4.G. Construction-time validation (BuildCodecChain) is the
// only place ordering and arity are checked; Encode/Decode trust an
// already-built chain.
type CodecChain struct {
	AA []AACodec
	AB ABCodec
	BB []BBCodec
}

// BuildCodecChain parses specs in order, enforcing: exactly one AB
// codec, no AA codec after it, no BB codec before it.
func BuildCodecChain(specs []CodecSpec, dt DataType, ndim int) (*CodecChain, error) {
	var aaList []AACodec
	var ab ABCodec
	var bbList []BBCodec
	sawAB := false

	for _, spec := range specs {
		switch spec.Name {
		case "transpose":
			if sawAB {
				return nil, newErr(KindInvalidCodecChain, "build_codec_chain", "", fmt.Errorf("transpose codec after the AB codec"))
			}
			var cfg struct {
				Order []int `json:"order"`
			}
			if len(spec.Configuration) > 0 {
				if err := json.Unmarshal(spec.Configuration, &cfg); err != nil {
					return nil, newErr(KindInvalidMetadata, "build_codec_chain", "", err)
				}
			}
			if len(cfg.Order) != ndim {
				return nil, newErr(KindDimensionMismatch, "build_codec_chain", "", fmt.Errorf("transpose order length %d != ndim %d", len(cfg.Order), ndim))
			}
			if err := validatePermutation(cfg.Order); err != nil {
				return nil, newErr(KindInvalidCodecChain, "build_codec_chain", "", err)
			}
			aaList = append(aaList, &TransposeCodec{Order: cfg.Order})

		case "bytes":
			if sawAB {
				return nil, newErr(KindInvalidCodecChain, "build_codec_chain", "", fmt.Errorf("duplicate AB codec %q", spec.Name))
			}
			var cfg struct {
				Endian *string `json:"endian"`
			}
			if len(spec.Configuration) > 0 {
				if err := json.Unmarshal(spec.Configuration, &cfg); err != nil {
					return nil, newErr(KindInvalidMetadata, "build_codec_chain", "", err)
				}
			}
			endian := EndianNone
			if cfg.Endian != nil {
				switch *cfg.Endian {
				case "little":
					endian = EndianLittle
				case "big":
					endian = EndianBig
				default:
					return nil, newErr(KindInvalidMetadata, "build_codec_chain", "", fmt.Errorf("unknown endian %q", *cfg.Endian))
				}
			}
			bc, err := NewBytesCodec(endian, dt)
			if err != nil {
				return nil, err
			}
			ab = bc
			sawAB = true

		case "sharding_indexed":
			if sawAB {
				return nil, newErr(KindInvalidCodecChain, "build_codec_chain", "", fmt.Errorf("duplicate AB codec %q", spec.Name))
			}
			sc, err := buildShardingCodec(spec.Configuration, dt, ndim)
			if err != nil {
				return nil, err
			}
			ab = sc
			sawAB = true

		case "gzip", "blosc", "crc32c", "zstd":
			if !sawAB {
				return nil, newErr(KindInvalidCodecChain, "build_codec_chain", "", fmt.Errorf("BB codec %q before the AB codec", spec.Name))
			}
			bb, err := buildBBCodec(spec.Name, spec.Configuration)
			if err != nil {
				return nil, err
			}
			bbList = append(bbList, bb)

		default:
			return nil, newErr(KindInvalidMetadata, "build_codec_chain", "", fmt.Errorf("unrecognized codec %q", spec.Name))
		}
	}

	if !sawAB {
		return nil, newErr(KindInvalidCodecChain, "build_codec_chain", "", fmt.Errorf("codec chain has no AB codec"))
	}
	return &CodecChain{AA: aaList, AB: ab, BB: bbList}, nil
}

func buildBBCodec(name string, cfg json.RawMessage) (BBCodec, error) {
	switch name {
	case "gzip":
		level := 6
		var c struct {
			Level *int `json:"level"`
		}
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &c); err != nil {
				return nil, newErr(KindInvalidMetadata, "build_bb_codec", "", err)
			}
		}
		if c.Level != nil {
			level = *c.Level
		}
		return NewGzipCodec(level)

	case "blosc":
		var c struct {
			Cname     string `json:"cname"`
			Clevel    int    `json:"clevel"`
			Shuffle   string `json:"shuffle"`
			Blocksize int    `json:"blocksize"`
			Typesize  int    `json:"typesize"`
		}
		c.Cname = defaultBloscCompressor
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &c); err != nil {
				return nil, newErr(KindInvalidMetadata, "build_bb_codec", "", err)
			}
		}
		shuffle := ShuffleNone
		switch c.Shuffle {
		case "", "none":
			shuffle = ShuffleNone
		case "byte", "shuffle":
			shuffle = ShuffleByte
		case "bit", "bitshuffle":
			shuffle = ShuffleBit
		default:
			return nil, newErr(KindInvalidMetadata, "build_bb_codec", "", fmt.Errorf("unknown blosc shuffle mode %q", c.Shuffle))
		}
		return NewBloscCodec(c.Cname, c.Clevel, shuffle, c.Blocksize, c.Typesize)

	case "crc32c":
		return CRC32CCodec{}, nil

	case "zstd":
		return &ZstdCodec{}, nil
	}
	return nil, newErr(KindInvalidMetadata, "build_bb_codec", "", fmt.Errorf("unrecognized BB codec %q", name))
}

// Encode runs in through the AA encoders, then the AB encoder writing
// into the BB encoder chain, per spec §4.G.
func (c *CodecChain) Encode(in ArrayRep) ([]byte, error) {
	cur := in
	for _, aa := range c.AA {
		var err error
		cur, err = aa.Encode(cur)
		if err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	outer := &countingWriter{w: &out}
	var writer io.Writer = outer
	finals := make([]FinalWriter, len(c.BB))
	for i := len(c.BB) - 1; i >= 0; i-- {
		fw := c.BB[i].Encoder(writer)
		finals[i] = fw
		writer = fw
	}

	if err := c.AB.Encode(cur, writer); err != nil {
		return nil, err
	}
	for i := 0; i < len(finals); i++ {
		if _, err := finals[i].Finalize(); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// Decode is the exact inverse of Encode.
func (c *CodecChain) Decode(data []byte, shape []int, dt DataType) (ArrayRep, error) {
	var r io.Reader = bytes.NewReader(data)
	for i := len(c.BB) - 1; i >= 0; i-- {
		r = c.BB[i].Decoder(r)
	}

	// Compute the AB-level shape by threading decodedShape through the
	// AA encoders forward (mirrors Encode's AA pass).
	abShape := shape
	for _, aa := range c.AA {
		es, err := aa.EncodedShape(abShape)
		if err != nil {
			return ArrayRep{}, err
		}
		abShape = es
	}

	decoded, err := c.AB.Decode(r, abShape, dt)
	if err != nil {
		return ArrayRep{}, err
	}

	cur := decoded
	for i := len(c.AA) - 1; i >= 0; i-- {
		cur, err = c.AA[i].Decode(cur)
		if err != nil {
			return ArrayRep{}, err
		}
	}
	return cur, nil
}
