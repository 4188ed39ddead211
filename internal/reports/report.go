// Package reports implements append-only persistence for completed analysis
// verdicts. Saved reports are never updated, only listed, deleted, or
// cleared.
package reports

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/policy"
)

// Report is one persisted analysis outcome. Verdict holds the full verdict
// document as produced by the analyzer; the flattened columns exist for
// filtering and listing.
type Report struct {
	ID                uuid.UUID       `json:"id"`
	ArtifactID        uuid.UUID       `json:"artifact_id"`
	Fingerprint       string          `json:"fingerprint"`
	Classification    string          `json:"classification"`
	AuthenticityScore int             `json:"authenticity_score"`
	ThreatScore       int             `json:"threat_score"`
	Alert             bool            `json:"alert"`
	Summary           string          `json:"summary"`
	Verdict           json.RawMessage `json:"verdict"`
	CreatedAt         time.Time       `json:"created_at"`
}

// CreateCommand carries a completed verdict and its policy decision into
// persistence.
type CreateCommand struct {
	ArtifactID uuid.UUID
	Verdict    *analyzer.Verdict
	Decision   policy.Decision
}
