package amba

import (
	"fmt"
	"io"
)

// StopReason names the outcome that ended a boundary scan. The format has
// no entry count, so the table end can only be recognized from the data
// that follows it.
type StopReason int

const (
	// StopAddressArray: the scan read an entry whose length and checksum
	// are both non-trivial multiples of 1024. Past the real table sits an
	// array of memory load addresses sharing the 8-byte record size, and
	// load addresses are rounded to powers of two; the pattern means the
	// scan has run into it. The entry is not part of the table.
	StopAddressArray StopReason = iota + 1

	// StopFileOverrun: the entry just read declares a partition that would
	// extend past the end of the file. The entry is discarded; the table
	// ended one slot earlier. Containers ending this way deserve a second
	// look, so callers should surface the reason.
	StopFileOverrun
)

func (r StopReason) String() string {
	switch r {
	case StopAddressArray:
		return "address-array pattern"
	case StopFileOverrun:
		return "entry past end of file"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// TableScan is the result of boundary detection.
type TableScan struct {
	Entries []TableEntry
	Reason  StopReason
}

// DetectTable reads 8-byte table entries from r, which must be positioned
// just past the main header, until one of the two stop conditions fires.
// The stopping entry's bytes are unread (the reader is rewound onto them);
// whatever follows the table starts exactly there. Zero-length entries are
// unused slots and stay in the table.
//
// Consuming more than MaxTableEntries entries is a fatal format error.
func DetectTable(r io.ReadSeeker, fileSize int64) (*TableScan, error) {
	var buf [tableEntrySize]byte
	scan := &TableScan{}
	for i := 0; ; i++ {
		if i > MaxTableEntries {
			return nil, ErrTableEndNotFound
		}
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: table entry %d: %v", ErrTruncated, i, err)
		}
		e, _ := decodeTableEntry(buf[:])

		if e.Len%1024 == 0 && e.CRC32%1024 == 0 && e.CRC32 != 0 {
			scan.Reason = StopAddressArray
		} else if mainHeaderSize+int64(i)*tableEntrySize+int64(e.Len) >= fileSize {
			scan.Reason = StopFileOverrun
		} else {
			scan.Entries = append(scan.Entries, e)
			continue
		}

		if _, err := r.Seek(-tableEntrySize, io.SeekCurrent); err != nil {
			return nil, err
		}
		return scan, nil
	}
}
