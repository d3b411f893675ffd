package amba

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// View is a read-only byte view of a container file, mmap-backed where the
// platform allows it. Search and inspection work over a View; the
// streaming pipelines do not need one.
type View struct {
	Data    []byte
	mmapped bool
}

// OpenView maps path read-only. If mmap is unavailable it falls back to
// ReadAt-based loading. The view must be closed to release any mapping.
func OpenView(path string) (*View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: file size %d", ErrTruncated, size64)
	}
	size := int(size64)
	if size == 0 {
		return &View{Data: []byte{}}, nil
	}

	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		return &View{Data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &View{Data: data}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases the mapping, if any.
func (v *View) Close() error {
	if v == nil || v.Data == nil {
		return nil
	}
	var err error
	if v.mmapped {
		err = unix.Munmap(v.Data)
	}
	v.Data = nil
	v.mmapped = false
	return err
}
