package zarr

import "io"

// countingWriter tracks how many bytes have passed through Write, so a
// BB codec's Finalize can report the size of its own trailer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// lazyReader defers opening the underlying decompressing reader until
// the first Read, so that BBCodec.Decoder (which cannot return an
// error) can still surface construction failures as read errors.
type lazyReader struct {
	open func() (io.Reader, error)
	r    io.Reader
	err  error
}

func (l *lazyReader) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.r == nil {
		r, err := l.open()
		if err != nil {
			if zerr, ok := err.(*Error); ok {
				l.err = zerr
			} else {
				l.err = newErr(KindDecodeFailure, "bb_decode", "", err)
			}
			return 0, l.err
		}
		l.r = r
	}
	return l.r.Read(p)
}
