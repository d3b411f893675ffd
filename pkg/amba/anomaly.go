package amba

import "fmt"

// AnomalyKind classifies a detected inconsistency. Anomalies are reported
// in pipeline results and never abort processing; the fatal conditions live
// in errors.go.
type AnomalyKind int

const (
	AnomalyMagic AnomalyKind = iota + 1
	AnomalyPartSize
	AnomalyPartChecksum
	AnomalyCumulativeChecksum
	AnomalyContainerChecksum
	AnomalyFileChecksum
	AnomalyBuildDate
	AnomalyPadding
	AnomalyFixedBlock
	AnomalyTrailingData
	AnomalyEmptyArtifact
	AnomalyOverlap
)

func (k AnomalyKind) String() string {
	switch k {
	case AnomalyMagic:
		return "magic"
	case AnomalyPartSize:
		return "part-size"
	case AnomalyPartChecksum:
		return "part-checksum"
	case AnomalyCumulativeChecksum:
		return "cumulative-checksum"
	case AnomalyContainerChecksum:
		return "container-checksum"
	case AnomalyFileChecksum:
		return "file-checksum"
	case AnomalyBuildDate:
		return "build-date"
	case AnomalyPadding:
		return "padding"
	case AnomalyFixedBlock:
		return "fixed-block"
	case AnomalyTrailingData:
		return "trailing-data"
	case AnomalyEmptyArtifact:
		return "empty-artifact"
	case AnomalyOverlap:
		return "overlap"
	default:
		return fmt.Sprintf("AnomalyKind(%d)", int(k))
	}
}

// Anomaly is one reported inconsistency. Slot is the partition slot it
// concerns, or -1 for container-level findings.
type Anomaly struct {
	Kind AnomalyKind
	Slot int
	Msg  string
}

func (a Anomaly) String() string {
	if a.Slot < 0 {
		return fmt.Sprintf("%s: %s", a.Kind, a.Msg)
	}
	return fmt.Sprintf("%s: partition %d: %s", a.Kind, a.Slot, a.Msg)
}

func appendAnomaly(list *[]Anomaly, kind AnomalyKind, slot int, format string, args ...any) {
	*list = append(*list, Anomaly{Kind: kind, Slot: slot, Msg: fmt.Sprintf(format, args...)})
}
