package amba

import (
	"bytes"
	"testing"
)

func encodeCandidate(payload []byte, crc uint32) []byte {
	hdr := PartHeader{
		CRC32:     crc,
		Version:   PackVersion(1, 0),
		BuildDate: PackBuildDate(2016, 3, 25),
		Len:       uint32(len(payload)),
		Magic:     PartMagic,
	}
	out := make([]byte, partHeaderSize, partHeaderSize+len(payload))
	encodePartHeader(out, hdr)
	return append(out, payload...)
}

func TestSearchFindsHeaders(t *testing.T) {
	t.Parallel()

	payloadA := randomBytes(t, 64)
	payloadB := randomBytes(t, 128)

	var blob bytes.Buffer
	blob.Write(make([]byte, 100)) // junk prefix
	offA := int64(blob.Len())
	blob.Write(encodeCandidate(payloadA, Checksum(payloadA, 0)))
	blob.Write(make([]byte, 37)) // junk between candidates
	offB := int64(blob.Len())
	blob.Write(encodeCandidate(payloadB, Checksum(payloadB, 0)^1)) // bad checksum
	blob.Write(make([]byte, 50))

	cands := Search(blob.Bytes())
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].Offset != offA || cands[1].Offset != offB {
		t.Errorf("offsets = %d, %d; want %d, %d", cands[0].Offset, cands[1].Offset, offA, offB)
	}
	if !cands[0].CRCOK {
		t.Error("candidate A flagged as checksum mismatch")
	}
	if cands[1].CRCOK {
		t.Error("candidate B passed with a corrupted checksum")
	}
	if cands[0].Overlap != 0 || cands[1].Overlap != 0 {
		t.Error("unexpected overlap on disjoint candidates")
	}
	if cands[0].Header.Len != 64 || cands[1].Header.Len != 128 {
		t.Errorf("header lengths = %d, %d", cands[0].Header.Len, cands[1].Header.Len)
	}
}

func TestSearchSkipsFalsePositives(t *testing.T) {
	t.Parallel()

	// Bare magic bytes with no plausible header around them.
	blob := make([]byte, 400)
	copy(blob[200:], magicLE)

	if cands := Search(blob); len(cands) != 0 {
		t.Errorf("got %d candidates from decoy magic, want 0", len(cands))
	}

	// Magic too close to the start for a full header to precede it.
	blob2 := make([]byte, 400)
	copy(blob2[4:], magicLE)
	if cands := Search(blob2); len(cands) != 0 {
		t.Errorf("got %d candidates from truncated header, want 0", len(cands))
	}
}

func TestSearchReportsOverlap(t *testing.T) {
	t.Parallel()

	payloadA := randomBytes(t, 512)

	const overlap = 32

	var blob bytes.Buffer
	blob.Write(encodeCandidate(payloadA, Checksum(payloadA, 0)))
	// Second header planted inside A's payload tail.
	start := blob.Len() - overlap

	payloadB := randomBytes(t, 64)
	cand := encodeCandidate(payloadB, Checksum(payloadB, 0))
	blob.Write(cand[overlap:])
	copy(blob.Bytes()[start:], cand[:overlap])

	cands := Search(blob.Bytes())
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[1].Overlap != 32 {
		t.Errorf("Overlap = %d, want 32", cands[1].Overlap)
	}
}

func TestSearchExtract(t *testing.T) {
	t.Parallel()

	payload := randomBytes(t, 96)
	var blob bytes.Buffer
	blob.Write(make([]byte, 12))
	blob.Write(encodeCandidate(payload, Checksum(payload, 0)))

	sink := newMemSink()
	cands, err := SearchExtract(blob.Bytes(), sink)
	if err != nil {
		t.Fatalf("SearchExtract: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	got, ok := sink.payloads["00"]
	if !ok {
		t.Fatal("payload artifact 00 missing")
	}
	if !bytes.Equal(got, payload) {
		t.Error("extracted payload differs from planted payload")
	}
}
