// Package amba implements the Ambarella A9 firmware container format.
//
// A container is a fixed main header, a table of partition size entries
// whose length is not declared anywhere in the file, a fixed post-header
// block, a run of partition headers and payloads, a fixed trailer and a
// whole-file CRC footer. The package splits containers into per-partition
// artifacts and rebuilds byte-exact containers from them.
//
// Only the single documented variant (Yi 4k family, 2014 layout) is
// supported. Newer Ambarella containers use a longer main header and a
// different post-header block and are rejected by the boundary detector.
package amba

import "fmt"

// PartMagic is the magic constant carried by every partition header.
const PartMagic uint32 = 0xA324EB90

const (
	mainHeaderSize = 36
	tableEntrySize = 8
	postHeaderSize = 192
	partHeaderSize = 256
	trailerSize    = 16
	footerSize     = 4

	// MaxTableEntries bounds the boundary detector. A scan that consumes
	// more entries than this has missed the end of the table.
	MaxTableEntries = 128

	minPartLen = 16
	maxPartLen = 128 * 1024 * 1024

	copyBufSize = 1 << 20 // 1 MiB
)

// Partition slot index is the implicit partition type identifier.
var (
	partTypeTags = [...]string{"bst", "bld", "fw_up", "", "lrtos", "dsp", "romfs", "lnx", "rfs"}

	partTypeNames = [...]string{
		"Bootstraper", "Bootloader", "Firmware Updater", "",
		"Linux RTOS", "DSP uCode", "System ROM Data", "Linux Kernel", "Linux Root FS",
	}
)

// PartTypeTag returns the short artifact tag for a partition slot.
// Slots past the known set get a numeric tag.
func PartTypeTag(slot int) string {
	if slot < 0 || slot >= len(partTypeTags) {
		return fmt.Sprintf("%02d", slot)
	}
	return partTypeTags[slot]
}

// PartTypeName returns the human-readable name for a partition slot.
func PartTypeName(slot int) string {
	if slot < 0 || slot >= len(partTypeNames) || partTypeNames[slot] == "" {
		return fmt.Sprintf("type %02d", slot)
	}
	return partTypeNames[slot]
}

// KnownPartTag reports whether tag names one of the recognized partition
// types. Construction refuses containers declaring anything else.
func KnownPartTag(tag string) bool {
	for _, t := range partTypeTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ModelVariant selects per-model quirks. It is consulted only when naming
// sub-payload artifacts; the pipelines are otherwise model-agnostic.
type ModelVariant int

const (
	// VariantGeneric covers every model without documented quirks.
	VariantGeneric ModelVariant = iota
	// VariantYDXJZ16 is the Yi 4k, which stores a flattened device tree
	// as a sub-payload of the kernel partition.
	VariantYDXJZ16
)

// VariantForModel maps a container model name to its variant.
func VariantForModel(name string) ModelVariant {
	if name == "YDXJ_Z16" {
		return VariantYDXJZ16
	}
	return VariantGeneric
}

// SubPayloadTag names the artifact for a sub-payload found after the
// primary payload of the partition tagged partTag.
func (v ModelVariant) SubPayloadTag(partTag string) string {
	if v == VariantYDXJZ16 {
		return "fdt"
	}
	return partTag + "_bis"
}
