package zarr

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32CCodec is the "crc32c" BB codec: on encode it appends a
// little-endian CRC-32C of everything written so far when Finalize is
// called; on decode it reads the whole stream, splits off the trailing
// 4 bytes, and fails with ChecksumFailure on mismatch.
type CRC32CCodec struct{}

func (CRC32CCodec) Name() string { return "crc32c" }

type crc32cFinalWriter struct {
	w    io.Writer
	hash uint32
	init bool
}

func (f *crc32cFinalWriter) Write(p []byte) (int, error) {
	if f.init {
		f.hash = crc32.Update(f.hash, castagnoliTable, p)
	} else {
		f.hash = crc32.Checksum(p, castagnoliTable)
		f.init = true
	}
	return f.w.Write(p)
}

func (f *crc32cFinalWriter) Finalize() (int, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], f.hash)
	if _, err := f.w.Write(buf[:]); err != nil {
		return 0, errOp("crc32c_finalize", "", err)
	}
	return 4, nil
}

func (CRC32CCodec) Encoder(w io.Writer) FinalWriter {
	return &crc32cFinalWriter{w: w}
}

func (CRC32CCodec) Decoder(r io.Reader) io.Reader {
	return &lazyReader{open: func() (io.Reader, error) {
		all, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if len(all) < 4 {
			return nil, &Error{Kind: KindChecksumFailure, Op: "crc32c_decode"}
		}
		payload, trailer := all[:len(all)-4], all[len(all)-4:]
		want := binary.LittleEndian.Uint32(trailer)
		got := crc32.Checksum(payload, castagnoliTable)
		if want != got {
			return nil, &Error{Kind: KindChecksumFailure, Op: "crc32c_decode"}
		}
		return bytes.NewReader(payload), nil
	}}
}
