package amba

// Names for the fixed constant blocks. Extraction exports a block under its
// name when the container's bytes differ from the built-in constant;
// construction consults the store for an override under the same name
// before falling back to the constant.
const (
	FixedPostHeader = "post_header"
	FixedTrailer    = "trailer"
)

// postHeaderData is the fixed block between the entry table and the first
// partition header: 48 little-endian words of memory layout records, stable
// across firmware versions of the documented model family.
var postHeaderData = [postHeaderSize]byte{
	0x1C, 0xCA, 0x00, 0x10, 0x01, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00,
	0x28, 0xCA, 0x00, 0x10, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00,
	0x34, 0xCA, 0x00, 0x10, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0xC9, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00,
	0x8C, 0xC9, 0x00, 0x10, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02,
	0x94, 0xC9, 0x00, 0x10, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x50, 0x00,
	0xA0, 0xC9, 0x00, 0x10, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x01,
	0xAC, 0xC9, 0x00, 0x10, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0xA0, 0x00,
	0xBC, 0xC9, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xC0, 0x03,
	0xC8, 0xC9, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xE0, 0x01,
	0xD8, 0xC9, 0x00, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x01,
	0xE8, 0xC9, 0x00, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0xF0, 0xC9, 0x00, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00,
	0x00, 0xCA, 0x00, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x50, 0x00,
	0x08, 0xCA, 0x00, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x50, 0x00,
	0x10, 0xCA, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x58, 0x03,
}

// trailerData is the fixed block closing the partition run, immediately
// before the whole-file checksum footer ("XiaoYi_zh-cn" NUL-padded).
var trailerData = [trailerSize]byte{
	0x58, 0x69, 0x61, 0x6F, 0x59, 0x69, 0x5F, 0x7A,
	0x68, 0x2D, 0x63, 0x6E, 0x00, 0x00, 0x00, 0x00,
}

// PostHeaderBlock returns a copy of the built-in post-header block.
func PostHeaderBlock() []byte {
	b := postHeaderData
	return b[:]
}

// TrailerBlock returns a copy of the built-in trailer block.
func TrailerBlock() []byte {
	b := trailerData
	return b[:]
}
