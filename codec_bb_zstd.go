package zarr

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec is a BB codec beyond the three named in zarr.json's core
// schema (§6); it is accepted as an extension codec name "zstd",
// exercising the same klauspost/compress/zstd dependency the teacher
// used for its v2 Dataset batching path.
type ZstdCodec struct {
	Level zstd.EncoderLevel
}

func (z *ZstdCodec) Name() string { return "zstd" }

type zstdFinalWriter struct {
	cw  *countingWriter
	enc *zstd.Encoder
}

func (w *zstdFinalWriter) Write(p []byte) (int, error) { return w.enc.Write(p) }

func (w *zstdFinalWriter) Finalize() (int, error) {
	before := w.cw.n
	if err := w.enc.Close(); err != nil {
		return 0, newErr(KindDecodeFailure, "zstd_finalize", "", err)
	}
	return w.cw.n - before, nil
}

func (z *ZstdCodec) Encoder(w io.Writer) FinalWriter {
	cw := &countingWriter{w: w}
	level := z.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(cw, zstd.WithEncoderLevel(level))
	if err != nil {
		enc, _ = zstd.NewWriter(cw)
	}
	return &zstdFinalWriter{cw: cw, enc: enc}
}

func (z *ZstdCodec) Decoder(r io.Reader) io.Reader {
	return &lazyReader{open: func() (io.Reader, error) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	}}
}
