package amba

import "io"

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// copyN copies up to n bytes from src to dst in full copyBufSize chunks,
// passing every chunk through each fold function. Chunks stay 4-byte
// aligned until the final one, which keeps the cumulative checksum fold
// identical to folding the region in one call. A short source is not an
// error; the checksum comparisons downstream catch it. dst may be nil for
// checksum-only passes.
func copyN(dst io.Writer, src io.Reader, n int64, buf []byte, fold ...func(p []byte)) (int64, error) {
	var copied int64
	for copied < n {
		want := int64(len(buf))
		if n-copied < want {
			want = n - copied
		}
		m, err := io.ReadFull(src, buf[:want])
		if m > 0 {
			if dst != nil {
				if werr := writeFull(dst, buf[:m]); werr != nil {
					return copied, werr
				}
			}
			for _, f := range fold {
				f(buf[:m])
			}
			copied += int64(m)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return copied, nil
		}
		if err != nil {
			return copied, err
		}
	}
	return copied, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
