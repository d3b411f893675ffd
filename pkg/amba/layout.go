package amba

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// MainHeader opens the container: a fixed-width model name and the
// complemented cumulative checksum over every partition header + payload.
type MainHeader struct {
	ModelName [32]byte
	CRC32     uint32
}

// Model returns the NUL-trimmed model name.
func (h *MainHeader) Model() string {
	if n := bytes.IndexByte(h.ModelName[:], 0); n >= 0 {
		return string(h.ModelName[:n])
	}
	return string(h.ModelName[:])
}

// SetModel stores name NUL-padded. Names longer than the field are cut.
func (h *MainHeader) SetModel(name string) {
	h.ModelName = [32]byte{}
	copy(h.ModelName[:], name)
}

// TableEntry declares one partition slot: the byte length of its header +
// payload (+ sub-payload) and a snapshot of the cumulative checksum state
// after that slot was folded. Zero-length entries mark unused slots.
type TableEntry struct {
	Len   uint32
	CRC32 uint32
}

// PartHeader precedes every non-empty partition payload.
type PartHeader struct {
	CRC32     uint32 // standard CRC32 of the primary payload only
	Version   uint32 // major<<16 | minor
	BuildDate uint32 // year<<16 | month<<8 | day
	Len       uint32 // primary payload length, excludes any sub-payload
	MemAddr   uint32
	Flag1     uint32
	Magic     uint32 // PartMagic
	Flag2     uint32
	Padding   [56]uint32
}

func (h *PartHeader) VersionMajor() uint32 { return h.Version >> 16 & 0xffff }
func (h *PartHeader) VersionMinor() uint32 { return h.Version & 0xffff }

func (h *PartHeader) BuildYear() uint32  { return h.BuildDate >> 16 & 0xffff }
func (h *PartHeader) BuildMonth() uint32 { return h.BuildDate >> 8 & 0xff }
func (h *PartHeader) BuildDay() uint32   { return h.BuildDate & 0xff }

// VersionString renders the packed version as "major.minor".
func (h *PartHeader) VersionString() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor(), h.VersionMinor())
}

// BuildDateString renders the packed build date as "YYYY-MM-DD".
func (h *PartHeader) BuildDateString() string {
	return fmt.Sprintf("%d-%02d-%02d", h.BuildYear(), h.BuildMonth(), h.BuildDay())
}

// PlausibleDate reports whether the build date decodes to a real calendar
// date from the epoch onwards. Vendor-age checks are the caller's business.
func (h *PartHeader) PlausibleDate() bool {
	y, m, d := h.BuildYear(), h.BuildMonth(), h.BuildDay()
	return y >= 1970 && m >= 1 && m <= 12 && d >= 1 && d <= 31
}

// ZeroPadding reports whether the padding region is uniformly zero.
// Anything else means the header uses the padded area in an unknown manner.
func (h *PartHeader) ZeroPadding() bool {
	for _, w := range h.Padding {
		if w != 0 {
			return false
		}
	}
	return true
}

// PackVersion packs a major.minor pair into the header encoding.
func PackVersion(major, minor uint32) uint32 {
	return (major&0xffff)<<16 | minor&0xffff
}

// PackBuildDate packs a calendar date into the header encoding.
func PackBuildDate(year, month, day uint32) uint32 {
	return (year&0xffff)<<16 | (month&0xff)<<8 | day&0xff
}

// ParseVersion parses "major.minor".
func ParseVersion(s string) (uint32, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("amba: invalid version %q", s)
	}
	hi, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("amba: invalid version %q: %w", s, err)
	}
	lo, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("amba: invalid version %q: %w", s, err)
	}
	return PackVersion(uint32(hi), uint32(lo)), nil
}

// ParseBuildDate parses "YYYY-MM-DD".
func ParseBuildDate(s string) (uint32, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("amba: invalid build date %q", s)
	}
	y, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("amba: invalid build date %q: %w", s, err)
	}
	m, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("amba: invalid build date %q: %w", s, err)
	}
	d, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("amba: invalid build date %q: %w", s, err)
	}
	return PackBuildDate(uint32(y), uint32(m), uint32(d)), nil
}

// Explicit little-endian codec over fixed-size byte slices. The on-disk
// layout never changes; encode/decode return false only on a short buffer.

func encodeMainHeader(out []byte, h MainHeader) bool {
	if len(out) < mainHeaderSize {
		return false
	}
	copy(out[0:32], h.ModelName[:])
	binary.LittleEndian.PutUint32(out[32:36], h.CRC32)
	return true
}

func decodeMainHeader(data []byte) (MainHeader, bool) {
	var h MainHeader
	if len(data) < mainHeaderSize {
		return h, false
	}
	copy(h.ModelName[:], data[0:32])
	h.CRC32 = binary.LittleEndian.Uint32(data[32:36])
	return h, true
}

func encodeTableEntry(out []byte, e TableEntry) bool {
	if len(out) < tableEntrySize {
		return false
	}
	binary.LittleEndian.PutUint32(out[0:4], e.Len)
	binary.LittleEndian.PutUint32(out[4:8], e.CRC32)
	return true
}

func decodeTableEntry(data []byte) (TableEntry, bool) {
	var e TableEntry
	if len(data) < tableEntrySize {
		return e, false
	}
	e.Len = binary.LittleEndian.Uint32(data[0:4])
	e.CRC32 = binary.LittleEndian.Uint32(data[4:8])
	return e, true
}

func encodePartHeader(out []byte, h PartHeader) bool {
	if len(out) < partHeaderSize {
		return false
	}
	binary.LittleEndian.PutUint32(out[0:4], h.CRC32)
	binary.LittleEndian.PutUint32(out[4:8], h.Version)
	binary.LittleEndian.PutUint32(out[8:12], h.BuildDate)
	binary.LittleEndian.PutUint32(out[12:16], h.Len)
	binary.LittleEndian.PutUint32(out[16:20], h.MemAddr)
	binary.LittleEndian.PutUint32(out[20:24], h.Flag1)
	binary.LittleEndian.PutUint32(out[24:28], h.Magic)
	binary.LittleEndian.PutUint32(out[28:32], h.Flag2)
	for i, w := range h.Padding {
		binary.LittleEndian.PutUint32(out[32+i*4:36+i*4], w)
	}
	return true
}

func decodePartHeader(data []byte) (PartHeader, bool) {
	var h PartHeader
	if len(data) < partHeaderSize {
		return h, false
	}
	h.CRC32 = binary.LittleEndian.Uint32(data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.BuildDate = binary.LittleEndian.Uint32(data[8:12])
	h.Len = binary.LittleEndian.Uint32(data[12:16])
	h.MemAddr = binary.LittleEndian.Uint32(data[16:20])
	h.Flag1 = binary.LittleEndian.Uint32(data[20:24])
	h.Magic = binary.LittleEndian.Uint32(data[24:28])
	h.Flag2 = binary.LittleEndian.Uint32(data[28:32])
	for i := range h.Padding {
		h.Padding[i] = binary.LittleEndian.Uint32(data[32+i*4 : 36+i*4])
	}
	return h, true
}
