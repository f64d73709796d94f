// Package idhash derives identifiers for datasets and analysis runs.
package idhash

import (
	"github.com/google/uuid"
)

// NewRunID returns a random identifier for one pipeline invocation.
func NewRunID() string {
	return uuid.NewString()
}

// ComputeDatasetID derives a stable dataset id from its source location,
// e.g. a file path or URL. The same source always maps to the same id.
func ComputeDatasetID(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}
