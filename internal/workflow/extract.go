package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/pkg/cache"
)

// ExtractNode returns a state node that resolves the artifact payload,
// fingerprints it, and checks the verdict cache. A cache hit stores the
// verdict directly so the graph can skip the analyze node.
func ExtractNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		artifactID, err := getAs[uuid.UUID](s, KeyArtifactID)
		if err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}

		if progress := progressFrom(s); progress != nil {
			progress("Extracting artifact payload")
		}

		payload, kind, err := rt.Artifacts.ExtractPayload(ctx, artifactID)
		if err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}

		fingerprint := analyzer.Fingerprint(payload)

		s = s.Set(KeyPayload, payload)
		s = s.Set(KeyKind, kind)
		s = s.Set(KeyFingerprint, fingerprint)
		s = s.Set(KeyCached, false)

		if verdict := lookupCached(ctx, rt, fingerprint); verdict != nil {
			rt.Logger.InfoContext(
				ctx, "verdict cache hit",
				"artifact_id", artifactID,
				"fingerprint", fingerprint,
			)
			s = s.Set(KeyVerdict, verdict)
			s = s.Set(KeyCached, true)
		}

		rt.Logger.InfoContext(
			ctx, "extract node complete",
			"artifact_id", artifactID,
			"kind", kind,
			"bytes", len(payload),
		)
		return s, nil
	})
}

func lookupCached(ctx context.Context, rt *Runtime, fingerprint string) *analyzer.Verdict {
	data, err := rt.Cache.Get(ctx, fingerprint)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			rt.Logger.Warn("verdict cache lookup failed", "error", err)
		}
		return nil
	}

	var verdict analyzer.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		rt.Logger.Warn("discarding undecodable cached verdict", "fingerprint", fingerprint, "error", err)
		return nil
	}
	return &verdict
}
