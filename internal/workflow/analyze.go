package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/tarunvipparti/DFS/internal/analyzer"
)

// AnalyzeNode returns a state node that runs the extracted payload through
// the analysis invoker and caches the resulting verdict by fingerprint.
func AnalyzeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		payload, err := getAs[[]byte](s, KeyPayload)
		if err != nil {
			return s, fmt.Errorf("analyze: %w", err)
		}

		kind, err := getAs[analyzer.MediaKind](s, KeyKind)
		if err != nil {
			return s, fmt.Errorf("analyze: %w", err)
		}

		verdict, err := rt.Analyzer.Invoke(ctx, analyzer.Request{
			Payload:  payload,
			Kind:     kind,
			Live:     false,
			Progress: progressFrom(s),
		})
		if err != nil {
			return s, fmt.Errorf("analyze: %w", err)
		}

		storeCached(ctx, rt, verdict)

		rt.Logger.InfoContext(
			ctx, "analyze node complete",
			"classification", verdict.Classification,
			"score", verdict.AuthenticityScore,
		)

		s = s.Set(KeyVerdict, verdict)
		return s, nil
	})
}

func storeCached(ctx context.Context, rt *Runtime, verdict *analyzer.Verdict) {
	data, err := json.Marshal(verdict)
	if err != nil {
		rt.Logger.Warn("verdict cache encode failed", "error", err)
		return
	}
	if err := rt.Cache.Set(ctx, verdict.Fingerprint, data); err != nil {
		rt.Logger.Warn("verdict cache store failed", "error", err)
	}
}
