// Package sidecar persists extraction artifacts as loose files around a
// shared path prefix and serves them back during construction: one JSON
// record for the container, one JSON record plus one payload file per
// partition, and raw dumps of any non-standard fixed block.
package sidecar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/ambapak/pkg/amba"
)

// ContainerRecord is the JSON shape of the container-level sidecar.
type ContainerRecord struct {
	ModelName string `json:"model_name"`
	// CRC32 is the complemented cumulative checksum from the main header,
	// informational only; construction recomputes it.
	CRC32 string `json:"crc32"`
	// PartLoad lists the tags of the table slots with a non-zero declared
	// length, in slot order. It drives which payload artifacts construction
	// consumes; data found past the table has no slot and is not listed.
	PartLoad []string `json:"part_load"`
	// PartSizes holds the declared length of every table slot, zero for
	// unused slots. Its length fixes the table size.
	PartSizes []uint32 `json:"part_sizes"`
	// PartCRCs holds the per-slot cumulative snapshots, informational.
	PartCRCs   []string `json:"part_crcs"`
	StopReason string   `json:"stop_reason,omitempty"`
}

// PartRecord is the JSON shape of one partition's sidecar. Length and
// checksum are informational; construction derives both from the payload.
type PartRecord struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	MemAddr   string `json:"mem_addr"`
	Flag1     string `json:"flag1"`
	Flag2     string `json:"flag2"`
	CRC32     string `json:"crc32"`
	Length    uint32 `json:"length"`
	// SubPayload names the sub-payload artifact split off this partition,
	// empty for none.
	SubPayload string `json:"sub_payload,omitempty"`
}

// Store reads and writes sidecar files under a shared prefix. It is both
// the sink of an extraction pass and the source of a construction pass.
type Store struct {
	// Prefix is the path prefix every artifact name derives from, typically
	// "<dir>/<firmware-base-name>".
	Prefix string
}

func (s *Store) headerPath() string {
	return s.Prefix + "_header.json"
}

func (s *Store) partMetaPath(tag string) string {
	return s.Prefix + "_part_" + tag + ".json"
}

// PayloadPath returns the payload artifact path for tag.
func (s *Store) PayloadPath(tag string) string {
	return s.Prefix + "_part_" + tag + ".a9s"
}

func (s *Store) blockPath(name string) string {
	return s.Prefix + "_" + name + ".bin"
}

// CreatePayload implements amba.ArtifactSink.
func (s *Store) CreatePayload(tag string) (io.WriteCloser, error) {
	return os.Create(s.PayloadPath(tag))
}

// WriteBlock implements amba.ArtifactSink.
func (s *Store) WriteBlock(name string, data []byte) error {
	return os.WriteFile(s.blockPath(name), data, 0o644)
}

// SaveResult writes the container and per-partition sidecar records for a
// completed extraction. The payload artifacts were already streamed through
// the sink side of the store.
func (s *Store) SaveResult(res *amba.ExtractResult) error {
	rec := ContainerRecord{
		ModelName:  res.Model,
		CRC32:      formatHex(res.Header.CRC32),
		PartSizes:  make([]uint32, len(res.Entries)),
		PartCRCs:   make([]string, len(res.Entries)),
		StopReason: res.Stop.String(),
	}
	for i, e := range res.Entries {
		rec.PartSizes[i] = e.Len
		rec.PartCRCs[i] = formatHex(e.CRC32)
		if e.Len > 0 {
			rec.PartLoad = append(rec.PartLoad, amba.PartTypeTag(i))
		}
	}
	if err := writeJSON(s.headerPath(), rec); err != nil {
		return err
	}

	for _, p := range res.Parts {
		pr := PartRecord{
			Version:    p.Header.VersionString(),
			BuildDate:  p.Header.BuildDateString(),
			MemAddr:    formatHex(p.Header.MemAddr),
			Flag1:      formatHex(p.Header.Flag1),
			Flag2:      formatHex(p.Header.Flag2),
			CRC32:      formatHex(p.Header.CRC32),
			Length:     p.Header.Len,
			SubPayload: p.SubTag,
		}
		if err := writeJSON(s.partMetaPath(p.Tag), pr); err != nil {
			return err
		}
	}
	return nil
}

// LoadContainer reads the container sidecar back into construction
// metadata.
func (s *Store) LoadContainer() (amba.ContainerMeta, error) {
	var rec ContainerRecord
	if err := readJSON(s.headerPath(), &rec); err != nil {
		return amba.ContainerMeta{}, err
	}
	return amba.ContainerMeta{
		ModelName: rec.ModelName,
		TypeTags:  rec.PartLoad,
		Lengths:   rec.PartSizes,
	}, nil
}

// PayloadSize implements amba.ArtifactStore.
func (s *Store) PayloadSize(tag string) (int64, error) {
	stat, err := os.Stat(s.PayloadPath(tag))
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// OpenPayload implements amba.ArtifactStore.
func (s *Store) OpenPayload(tag string) (io.ReadCloser, error) {
	return os.Open(s.PayloadPath(tag))
}

// PartMeta implements amba.ArtifactStore.
func (s *Store) PartMeta(slot int, tag string) (amba.PartMeta, error) {
	var rec PartRecord
	if err := readJSON(s.partMetaPath(tag), &rec); err != nil {
		return amba.PartMeta{}, err
	}
	version, err := amba.ParseVersion(rec.Version)
	if err != nil {
		return amba.PartMeta{}, fmt.Errorf("partition %d (%s): %w", slot, tag, err)
	}
	date, err := amba.ParseBuildDate(rec.BuildDate)
	if err != nil {
		return amba.PartMeta{}, fmt.Errorf("partition %d (%s): %w", slot, tag, err)
	}
	memAddr, err := parseHex(rec.MemAddr)
	if err != nil {
		return amba.PartMeta{}, fmt.Errorf("partition %d (%s): mem_addr: %w", slot, tag, err)
	}
	flag1, err := parseHex(rec.Flag1)
	if err != nil {
		return amba.PartMeta{}, fmt.Errorf("partition %d (%s): flag1: %w", slot, tag, err)
	}
	flag2, err := parseHex(rec.Flag2)
	if err != nil {
		return amba.PartMeta{}, fmt.Errorf("partition %d (%s): flag2: %w", slot, tag, err)
	}
	return amba.PartMeta{
		Version:   version,
		BuildDate: date,
		MemAddr:   memAddr,
		Flag1:     flag1,
		Flag2:     flag2,
		SubTag:    rec.SubPayload,
	}, nil
}

// Block implements amba.ArtifactStore. A missing block file means the
// built-in constant applies, which is not an error.
func (s *Store) Block(name string) ([]byte, error) {
	data, err := os.ReadFile(s.blockPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("sidecar %s: %w", path, err)
	}
	return nil
}

func formatHex(v uint32) string {
	return fmt.Sprintf("%08X", v)
}

func parseHex(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return uint32(v), nil
}
