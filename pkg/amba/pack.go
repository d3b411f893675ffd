package amba

import (
	"fmt"
	"io"
	"os"
)

// ContainerMeta is the sidecar record driving construction: the model name,
// the ordered tags of the non-empty slots, and the declared length of every
// table slot (zero for unused slots).
type ContainerMeta struct {
	ModelName string
	TypeTags  []string
	Lengths   []uint32
}

// PartMeta carries the reconstructable partition header fields. Length and
// checksum are never taken from metadata; they are recomputed from the
// payload artifact while it streams.
type PartMeta struct {
	Version   uint32
	BuildDate uint32
	MemAddr   uint32
	Flag1     uint32
	Flag2     uint32
	// SubTag names the sub-payload artifact appended after the primary
	// payload, empty for none.
	SubTag string
}

// ArtifactStore supplies payload artifacts and partition metadata during
// construction. Payloads are read twice: once while streaming into the
// container and once during the cumulative checksum pass.
type ArtifactStore interface {
	// PayloadSize returns the size of the payload artifact for tag.
	// A missing artifact is an error.
	PayloadSize(tag string) (int64, error)

	OpenPayload(tag string) (io.ReadCloser, error)

	PartMeta(slot int, tag string) (PartMeta, error)

	// Block returns the stored override for a fixed block, or nil when the
	// built-in constant should be used.
	Block(name string) ([]byte, error)
}

// PackResult records one construction pass.
type PackResult struct {
	Header    MainHeader
	Entries   []TableEntry
	Size      int64
	Anomalies []Anomaly
}

// Pack assembles a container into f from sidecar metadata and payload
// artifacts. The destination must be a real file: partition headers are
// written as placeholders, patched in place once the payload length and
// checksum are known, and the header + table region is rewritten after the
// cumulative checksum pass. An append-only sink cannot satisfy this.
//
// Layout pass, cumulative pass and footer pass run in that order; f is
// truncated first, and on error its content is invalid.
func Pack(f *os.File, meta ContainerMeta, store ArtifactStore) (*PackResult, error) {
	for _, tag := range meta.TypeTags {
		if !KnownPartTag(tag) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPartType, tag)
		}
	}
	loaded := make(map[string]bool, len(meta.TypeTags))
	for _, tag := range meta.TypeTags {
		loaded[tag] = true
	}

	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	res := &PackResult{}
	buf := make([]byte, copyBufSize)

	entries := make([]TableEntry, len(meta.Lengths))
	for i, n := range meta.Lengths {
		entries[i].Len = n
	}
	var head MainHeader
	head.SetModel(meta.ModelName)

	// Placeholder header + table; checksums are stamped in the final
	// rewrite once the cumulative pass has run.
	if err := writeHeaderRegion(f, head, entries); err != nil {
		return nil, err
	}

	post, err := store.Block(FixedPostHeader)
	if err != nil {
		return nil, err
	}
	if post == nil {
		post = PostHeaderBlock()
	}
	if err := writeFull(f, post); err != nil {
		return nil, err
	}

	partHeads := make([]PartHeader, len(entries))
	var phBuf [partHeaderSize]byte
	for i := range entries {
		tag := PartTypeTag(i)
		if !loaded[tag] {
			continue
		}
		size, err := store.PayloadSize(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: partition %d (%s): %v", ErrMissingArtifact, i, tag, err)
		}
		if size < 1 {
			appendAnomaly(&res.Anomalies, AnomalyEmptyArtifact, i, "declared as loaded but the payload artifact is empty")
			continue
		}
		pm, err := store.PartMeta(i, tag)
		if err != nil {
			return nil, err
		}

		hdr := PartHeader{
			Version:   pm.Version,
			BuildDate: pm.BuildDate,
			MemAddr:   pm.MemAddr,
			Flag1:     pm.Flag1,
			Magic:     PartMagic,
			Flag2:     pm.Flag2,
		}

		// Reserve the header slot; length and checksum exist only after
		// the payload has streamed past.
		hpos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		encodePartHeader(phBuf[:], hdr)
		if err := writeFull(f, phBuf[:]); err != nil {
			return nil, err
		}

		rc, err := store.OpenPayload(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: partition %d (%s): %v", ErrMissingArtifact, i, tag, err)
		}
		var crc uint32
		copied, err := copyN(f, rc, size, buf,
			func(p []byte) { crc = Checksum(p, crc) },
		)
		if cerr := rc.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		hdr.Len = uint32(copied)
		hdr.CRC32 = crc

		var subLen int64
		if pm.SubTag != "" {
			subSize, err := store.PayloadSize(pm.SubTag)
			if err != nil {
				return nil, fmt.Errorf("%w: sub-payload %q: %v", ErrMissingArtifact, pm.SubTag, err)
			}
			src, err := store.OpenPayload(pm.SubTag)
			if err != nil {
				return nil, fmt.Errorf("%w: sub-payload %q: %v", ErrMissingArtifact, pm.SubTag, err)
			}
			subLen, err = copyN(f, src, subSize, buf)
			if cerr := src.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return nil, err
			}
		}

		// Patch the reserved header now that the real values are known.
		npos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		if _, err := f.Seek(hpos, io.SeekStart); err != nil {
			return nil, err
		}
		encodePartHeader(phBuf[:], hdr)
		if err := writeFull(f, phBuf[:]); err != nil {
			return nil, err
		}
		if _, err := f.Seek(npos, io.SeekStart); err != nil {
			return nil, err
		}

		entries[i].Len = uint32(partHeaderSize + copied + subLen)
		partHeads[i] = hdr
	}

	trailer, err := store.Block(FixedTrailer)
	if err != nil {
		return nil, err
	}
	if trailer == nil {
		trailer = TrailerBlock()
	}
	if err := writeFull(f, trailer); err != nil {
		return nil, err
	}

	// Cumulative pass: re-fold header + payload of every non-empty slot in
	// order, stamping the running state into each entry, exactly as
	// extraction folds them.
	cum := CumulativeSeed
	for i := range entries {
		if entries[i].Len < 1 {
			continue
		}
		hdr := partHeads[i]
		encodePartHeader(phBuf[:], hdr)
		cum = UpdateCumulative(cum, phBuf[:])
		if hdr.Len > 0 {
			rc, err := store.OpenPayload(PartTypeTag(i))
			if err != nil {
				return nil, err
			}
			_, err = copyN(nil, rc, int64(hdr.Len), buf,
				func(p []byte) { cum = UpdateCumulative(cum, p) },
			)
			if cerr := rc.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return nil, err
			}
		}
		entries[i].CRC32 = cum
	}
	head.CRC32 = FinishCumulative(cum)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := writeHeaderRegion(f, head, entries); err != nil {
		return nil, err
	}

	// Footer pass: standard checksum over everything before the trailer,
	// appended as the whole-file footer.
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	crcEnd := size - int64(len(trailer))
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var fileCRC uint32
	if _, err := copyN(nil, f, crcEnd, buf,
		func(p []byte) { fileCRC = Checksum(p, fileCRC) },
	); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	var footer [footerSize]byte
	footer[0] = byte(fileCRC)
	footer[1] = byte(fileCRC >> 8)
	footer[2] = byte(fileCRC >> 16)
	footer[3] = byte(fileCRC >> 24)
	if err := writeFull(f, footer[:]); err != nil {
		return nil, err
	}
	if err := f.Sync(); err != nil {
		return nil, err
	}

	res.Header = head
	res.Entries = entries
	res.Size = size + footerSize
	return res, nil
}

func writeHeaderRegion(w io.Writer, head MainHeader, entries []TableEntry) error {
	var headBuf [mainHeaderSize]byte
	encodeMainHeader(headBuf[:], head)
	if err := writeFull(w, headBuf[:]); err != nil {
		return err
	}
	var entBuf [tableEntrySize]byte
	for _, e := range entries {
		encodeTableEntry(entBuf[:], e)
		if err := writeFull(w, entBuf[:]); err != nil {
			return err
		}
	}
	return nil
}
