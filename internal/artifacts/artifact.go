// Package artifacts implements the uploaded-artifact domain: registration,
// blob storage, metadata queries, and payload extraction for analysis.
package artifacts

import (
	"time"

	"github.com/google/uuid"
)

// Artifact kinds. Video artifacts have a representative frame extracted
// before analysis; images are analyzed as uploaded.
const (
	KindImage = "image"
	KindVideo = "video"
)

// Artifact represents an uploaded media file with its metadata and blob
// storage reference.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Kind        string    `json:"kind"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new
// artifact. Data holds the raw file bytes.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}

// BatchResult reports the outcome of a single file within a batch upload.
// On success, Artifact is populated and Error is empty.
type BatchResult struct {
	Artifact *Artifact `json:"artifact,omitempty"`
	Filename string    `json:"filename"`
	Error    string    `json:"error,omitempty"`
}
