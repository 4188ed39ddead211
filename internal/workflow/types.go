package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/policy"
)

// State bag keys shared between workflow nodes.
const (
	KeyArtifactID  = "artifact_id"
	KeyPayload     = "payload"
	KeyKind        = "kind"
	KeyFingerprint = "fingerprint"
	KeyVerdict     = "verdict"
	KeyCached      = "cached"
	KeyProgress    = "progress"
	KeyResult      = "result"
)

var ErrIncompleteState = errors.New("workflow state incomplete")

// Result is the outcome of one verification workflow.
type Result struct {
	ArtifactID  uuid.UUID         `json:"artifact_id"`
	Verdict     *analyzer.Verdict `json:"verdict"`
	Decision    policy.Decision   `json:"decision"`
	Cached      bool              `json:"cached"`
	CompletedAt time.Time         `json:"completed_at"`
}

func getAs[T any](s state.State, key string) (T, error) {
	var zero T

	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: missing %s", ErrIncompleteState, key)
	}

	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has unexpected type %T", ErrIncompleteState, key, val)
	}
	return typed, nil
}

func progressFrom(s state.State) analyzer.ProgressFunc {
	val, ok := s.Get(KeyProgress)
	if !ok {
		return nil
	}
	fn, ok := val.(analyzer.ProgressFunc)
	if !ok {
		return nil
	}
	return fn
}
