package amba

import "errors"

var (
	// ErrTruncated is returned when the container ends inside a required
	// fixed-size record.
	ErrTruncated = errors.New("amba: container truncated")

	// ErrTableEndNotFound is returned when boundary detection consumes
	// MaxTableEntries entries without hitting either stop condition.
	ErrTableEndNotFound = errors.New("amba: partition table end not found")

	// ErrUnknownPartType is returned by construction for a declared
	// partition type tag outside the recognized set.
	ErrUnknownPartType = errors.New("amba: unknown partition type tag")

	// ErrMissingArtifact is returned by construction when a declared
	// non-empty partition has no payload artifact.
	ErrMissingArtifact = errors.New("amba: missing partition payload artifact")
)
