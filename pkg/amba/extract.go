package amba

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ArtifactSink receives extracted partition payloads and exported fixed
// blocks. Payload writers get chunked sequential writes only; the sink
// never needs to seek.
type ArtifactSink interface {
	// CreatePayload opens the artifact for the partition (or sub-payload)
	// named tag. The extractor closes the writer after streaming.
	CreatePayload(tag string) (io.WriteCloser, error)

	// WriteBlock stores a fixed block whose bytes differ from the built-in
	// constant, so that reconstruction can reproduce the container exactly.
	WriteBlock(name string, data []byte) error
}

// DiscardSink drops everything. It backs verification-only passes where
// just the result record matters.
type DiscardSink struct{}

func (DiscardSink) CreatePayload(string) (io.WriteCloser, error) {
	return nopWriteCloser{io.Discard}, nil
}

func (DiscardSink) WriteBlock(string, []byte) error { return nil }

// ExtractOptions tunes an extraction pass.
type ExtractOptions struct {
	// StrictChecksumTail switches the cumulative checksum to the corrected
	// tail-byte step. All regions of a well-formed container are 4-byte
	// aligned, so this only matters for malformed input; the compatible
	// behaviour is the default.
	StrictChecksumTail bool
}

// PartRecord describes one extracted partition.
type PartRecord struct {
	Slot   int
	Tag    string
	Header PartHeader
	// Entry is the slot's table entry; zero when the partition was found
	// past the end of the detected table.
	Entry TableEntry
	// SubTag names the sub-payload artifact when the entry length exceeds
	// header + primary payload, empty otherwise.
	SubTag string
	SubLen int64
}

// ExtractResult is the full record of one extraction pass.
type ExtractResult struct {
	Header     MainHeader
	Model      string
	Entries    []TableEntry
	Stop       StopReason
	Parts      []PartRecord
	EmptySlots []int
	Anomalies  []Anomaly

	// CumulativeCRC is the computed, complemented cumulative checksum;
	// it should equal Header.CRC32.
	CumulativeCRC uint32
}

// ProbeModel reads only the main header of path and returns the model
// name. It is the cheap identity check for listing firmware files.
func ProbeModel(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var buf [mainHeaderSize]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return "", fmt.Errorf("%w: main header: %v", ErrTruncated, err)
	}
	head, _ := decodeMainHeader(buf[:])
	return head.Model(), nil
}

// ExtractFile opens path and runs Extract over it.
func ExtractFile(path string, sink ArtifactSink, opts ExtractOptions) (*ExtractResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Extract(f, stat.Size(), sink, opts)
}

// Extract reads a container front to back, detects the table boundary,
// validates and splits every partition into sink artifacts, and folds the
// three running checksums (per-partition, cumulative, whole-file) as it
// goes. Memory use is bounded by one copy buffer regardless of partition
// size.
//
// Checksum mismatches, magic mismatches, implausible dates, non-uniform
// padding and unexpected fixed-block content are anomalies in the result;
// only structural truncation and a failed boundary scan abort the pass.
func Extract(r io.ReadSeeker, fileSize int64, sink ArtifactSink, opts ExtractOptions) (*ExtractResult, error) {
	update := cumulativeFunc(UpdateCumulative)
	if opts.StrictChecksumTail {
		update = UpdateCumulativeStrict
	}

	res := &ExtractResult{}
	buf := make([]byte, copyBufSize)

	var headBuf [mainHeaderSize]byte
	if _, err := io.ReadFull(r, headBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: main header: %v", ErrTruncated, err)
	}
	head, _ := decodeMainHeader(headBuf[:])
	res.Header = head
	res.Model = head.Model()
	variant := VariantForModel(res.Model)

	// fileCRC shadows every byte of the container up to (not including)
	// the trailer, the range the footer checksum covers.
	fileCRC := Checksum(headBuf[:], 0)

	scan, err := DetectTable(r, fileSize)
	if err != nil {
		return nil, err
	}
	res.Entries = scan.Entries
	res.Stop = scan.Reason

	var entBuf [tableEntrySize]byte
	for _, e := range scan.Entries {
		encodeTableEntry(entBuf[:], e)
		fileCRC = Checksum(entBuf[:], fileCRC)
	}

	post := make([]byte, postHeaderSize)
	if _, err := io.ReadFull(r, post); err != nil {
		return nil, fmt.Errorf("%w: post-header block: %v", ErrTruncated, err)
	}
	fileCRC = Checksum(post, fileCRC)
	if !bytes.Equal(post, postHeaderData[:]) {
		appendAnomaly(&res.Anomalies, AnomalyFixedBlock, -1, "post-header block differs from expected constant, exporting")
		if err := sink.WriteBlock(FixedPostHeader, post); err != nil {
			return nil, err
		}
	}

	cum := CumulativeSeed
	var phBuf [partHeaderSize]byte
	for i := 0; ; i++ {
		var entry TableEntry
		if i < len(res.Entries) {
			entry = res.Entries[i]
			if entry.Len < 1 {
				res.EmptySlots = append(res.EmptySlots, i)
				continue
			}
		}

		n, err := io.ReadFull(r, phBuf[:])
		if err == io.EOF {
			// No trailer, but a clean end of the partition run.
			break
		}
		if err != nil {
			if n == trailerSize+footerSize && i == len(res.Entries) {
				trailer := phBuf[:trailerSize]
				if !bytes.Equal(trailer, trailerData[:]) {
					appendAnomaly(&res.Anomalies, AnomalyFixedBlock, -1, "trailer block differs from expected constant, exporting")
					if werr := sink.WriteBlock(FixedTrailer, append([]byte(nil), trailer...)); werr != nil {
						return nil, werr
					}
				}
				footer := binary.LittleEndian.Uint32(phBuf[trailerSize : trailerSize+footerSize])
				if footer != fileCRC {
					appendAnomaly(&res.Anomalies, AnomalyFileChecksum, -1, "whole-file checksum mismatch: got %08X, footer says %08X", fileCRC, footer)
				}
				break
			}
			return nil, fmt.Errorf("%w: partition %d header: got %d of %d bytes", ErrTruncated, i, n, partHeaderSize)
		}

		hdr, _ := decodePartHeader(phBuf[:])
		if hdr.Magic != PartMagic {
			appendAnomaly(&res.Anomalies, AnomalyMagic, i, "header magic %08X, extracting anyway", hdr.Magic)
		}
		cum = update(cum, phBuf[:])
		fileCRC = Checksum(phBuf[:], fileCRC)

		if hdr.Len < minPartLen || hdr.Len > maxPartLen {
			appendAnomaly(&res.Anomalies, AnomalyPartSize, i, "declared payload length %d out of range", hdr.Len)
		}
		if i >= len(res.Entries) {
			appendAnomaly(&res.Anomalies, AnomalyTrailingData, i, "data continues past all %d table entries", len(res.Entries))
		}

		tag := PartTypeTag(i)
		w, err := sink.CreatePayload(tag)
		if err != nil {
			return nil, err
		}
		var partCRC uint32
		_, err = copyN(w, r, int64(hdr.Len), buf,
			func(p []byte) { partCRC = Checksum(p, partCRC) },
			func(p []byte) { cum = update(cum, p) },
			func(p []byte) { fileCRC = Checksum(p, fileCRC) },
		)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}

		if partCRC != hdr.CRC32 {
			appendAnomaly(&res.Anomalies, AnomalyPartChecksum, i, "payload checksum %08X, header says %08X", partCRC, hdr.CRC32)
		}
		// Past the table entry is the zero placeholder, so undeclared
		// partitions always surface the mismatch.
		if cum != entry.CRC32 {
			appendAnomaly(&res.Anomalies, AnomalyCumulativeChecksum, i, "cumulative checksum %08X, table entry says %08X", cum, entry.CRC32)
		}
		if !hdr.PlausibleDate() {
			appendAnomaly(&res.Anomalies, AnomalyBuildDate, i, "build date %s makes no sense", hdr.BuildDateString())
		} else if hdr.BuildYear() < 2004 {
			appendAnomaly(&res.Anomalies, AnomalyBuildDate, i, "build date %s predates the vendor", hdr.BuildDateString())
		}
		if !hdr.ZeroPadding() {
			appendAnomaly(&res.Anomalies, AnomalyPadding, i, "header uses the padded area in an unknown manner")
		}

		rec := PartRecord{Slot: i, Tag: tag, Header: hdr, Entry: entry}

		// The entry length covers header + payload + sub-payload; any
		// excess over header + payload is a sub-payload (eg the kernel's
		// device tree). It has its own artifact and is never folded into
		// the cumulative state.
		if int64(entry.Len) > partHeaderSize+int64(hdr.Len) {
			subLen := int64(entry.Len) - partHeaderSize - int64(hdr.Len)
			subTag := variant.SubPayloadTag(tag)
			sw, err := sink.CreatePayload(subTag)
			if err != nil {
				return nil, err
			}
			copied, err := copyN(sw, r, subLen, buf,
				func(p []byte) { fileCRC = Checksum(p, fileCRC) },
			)
			if cerr := sw.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return nil, err
			}
			rec.SubTag = subTag
			rec.SubLen = copied
		}

		res.Parts = append(res.Parts, rec)
	}

	res.CumulativeCRC = FinishCumulative(cum)
	if res.CumulativeCRC != head.CRC32 {
		appendAnomaly(&res.Anomalies, AnomalyContainerChecksum, -1, "cumulative checksum %08X, main header says %08X", res.CumulativeCRC, head.CRC32)
	}
	return res, nil
}
