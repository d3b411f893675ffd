package amba

import "hash/crc32"

// CumulativeSeed is the initial state of the cumulative container checksum.
const CumulativeSeed uint32 = 0xFFFFFFFF

var stdTable = crc32.MakeTable(crc32.IEEE)

// cumTab holds the four slice-by-4 lookup tables for the cumulative
// checksum. Table 0 is the plain IEEE table; tables 1..3 are derived from
// it once at startup and never written again.
var cumTab [4][256]uint32

func init() {
	for i := range cumTab[0] {
		cumTab[0][i] = stdTable[i]
	}
	for n := 1; n < 4; n++ {
		for i := range cumTab[n] {
			prev := cumTab[n-1][i]
			cumTab[n][i] = prev>>8 ^ cumTab[0][prev&0xff]
		}
	}
}

// Checksum advances a standard reflected CRC32 (IEEE, as in ZIP/PNG) over
// data and returns the next state. Seed 0 starts a fresh checksum.
func Checksum(data []byte, seed uint32) uint32 {
	return crc32.Update(seed, stdTable, data)
}

// UpdateCumulative folds data into the running cumulative checksum state
// and returns the next state. Four bytes are consumed per step through the
// four lookup tables.
//
// The single-byte tail step matches the format's original tooling exactly:
// it re-reads the first trailing byte for every remaining byte instead of
// advancing. Every region the pipelines fold (entry table, partition
// headers, payload chunks) is 4-byte aligned, so the tail is never taken on
// well-formed containers. UpdateCumulativeStrict has the corrected tail.
func UpdateCumulative(state uint32, data []byte) uint32 {
	i := 0
	for ; len(data)-i >= 4; i += 4 {
		state = cumTab[3][(state^uint32(data[i]))&0xff] ^
			cumTab[2][(state>>8^uint32(data[i+1]))&0xff] ^
			cumTab[1][(state>>16^uint32(data[i+2]))&0xff] ^
			cumTab[0][(state>>24^uint32(data[i+3]))&0xff]
	}
	for n := len(data) - i; n > 0; n-- {
		state = cumTab[0][(state^uint32(data[i]))&0xff] ^ state>>8
	}
	return state
}

// UpdateCumulativeStrict is UpdateCumulative with a tail step that advances
// through trailing bytes. On 4-byte aligned input the two are identical; on
// unaligned input only this variant equals a true CRC register update.
func UpdateCumulativeStrict(state uint32, data []byte) uint32 {
	i := 0
	for ; len(data)-i >= 4; i += 4 {
		state = cumTab[3][(state^uint32(data[i]))&0xff] ^
			cumTab[2][(state>>8^uint32(data[i+1]))&0xff] ^
			cumTab[1][(state>>16^uint32(data[i+2]))&0xff] ^
			cumTab[0][(state>>24^uint32(data[i+3]))&0xff]
	}
	for ; i < len(data); i++ {
		state = cumTab[0][(state^uint32(data[i]))&0xff] ^ state>>8
	}
	return state
}

// FinishCumulative complements a fully folded cumulative state into the
// reportable container checksum.
func FinishCumulative(state uint32) uint32 {
	return state ^ 0xFFFFFFFF
}

// cumulativeFunc lets the pipelines switch between the compatible and the
// strict tail behaviour.
type cumulativeFunc func(state uint32, data []byte) uint32
