package amba

import (
	"bytes"
	"fmt"
	"io"
)

// magic position within an encoded partition header.
const magicOffset = 24

var magicLE = []byte{0x90, 0xEB, 0x24, 0xA3}

// Candidate is one partition header found by brute-force search.
type Candidate struct {
	// Offset of the header start within the scanned bytes.
	Offset int64
	Header PartHeader
	// CRC is the standard checksum of the candidate payload; CRCOK
	// reports whether it matches the header field.
	CRC   uint32
	CRCOK bool
	// Overlap is how many bytes this candidate overlaps the previous
	// one's payload, 0 when they don't collide.
	Overlap int64
}

// Search scans raw container bytes for partition headers by their magic
// constant. It is the fallback for containers whose entry table cannot be
// trusted; unlike Extract it recovers no table, no sub-payload split and
// no cumulative checksum.
func Search(data []byte) []Candidate {
	var (
		out     []Candidate
		prevEnd int64
	)
	for from := 0; ; {
		idx := bytes.Index(data[from:], magicLE)
		if idx < 0 {
			break
		}
		mpos := from + idx
		hpos := mpos - magicOffset
		dataPos := hpos + partHeaderSize
		if hpos < 0 || dataPos > len(data) {
			from = mpos + len(magicLE)
			continue
		}
		hdr, _ := decodePartHeader(data[hpos:dataPos])
		if hdr.Len < minPartLen || hdr.Len > maxPartLen || int64(hdr.Len) > int64(len(data)-dataPos) {
			// False positive: magic bytes inside some payload.
			from = mpos + len(magicLE)
			continue
		}
		c := Candidate{Offset: int64(hpos), Header: hdr}
		if len(out) > 0 && prevEnd > int64(hpos) {
			c.Overlap = prevEnd - int64(hpos)
		}
		payload := data[dataPos : dataPos+int(hdr.Len)]
		c.CRC = Checksum(payload, 0)
		c.CRCOK = c.CRC == hdr.CRC32
		out = append(out, c)
		prevEnd = int64(dataPos) + int64(hdr.Len)
		from = dataPos
	}
	return out
}

// SearchExtract runs Search and streams every candidate payload into the
// sink under a numeric tag ("00", "01", ...). Candidates found this way
// carry no slot identity, so the positional type names do not apply.
func SearchExtract(data []byte, sink ArtifactSink) ([]Candidate, error) {
	cands := Search(data)
	for i, c := range cands {
		w, err := sink.CreatePayload(fmt.Sprintf("%02d", i))
		if err != nil {
			return cands, err
		}
		start := c.Offset + partHeaderSize
		_, err = io.Copy(w, bytes.NewReader(data[start:start+int64(c.Header.Len)]))
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return cands, err
		}
	}
	return cands, nil
}
