package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/policy"
)

// FinalizeNode returns a state node that evaluates the verdict against the
// classification policy and assembles the workflow result.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		artifactID, err := getAs[uuid.UUID](s, KeyArtifactID)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		verdict, err := getAs[*analyzer.Verdict](s, KeyVerdict)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		cached, err := getAs[bool](s, KeyCached)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		// batch decisions carry no session history
		decision := policy.Decide(policy.Prior{Safe: true, Score: 100}, verdict)

		if progress := progressFrom(s); progress != nil {
			progress("Verification complete")
		}

		rt.Logger.InfoContext(
			ctx, "finalize node complete",
			"artifact_id", artifactID,
			"classification", decision.Classification,
			"alert", decision.Alert,
		)

		s = s.Set(KeyResult, &Result{
			ArtifactID:  artifactID,
			Verdict:     verdict,
			Decision:    decision,
			Cached:      cached,
			CompletedAt: time.Now(),
		})
		return s, nil
	})
}
