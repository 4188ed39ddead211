package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/tarunvipparti/DFS/internal/analyzer"
)

// Execute runs the verification workflow for a single artifact: extract →
// analyze → finalize, with a cached verdict short-circuiting straight to
// finalize. The progress sink, when non-nil, receives phase labels as the
// task advances.
func Execute(
	ctx context.Context,
	rt *Runtime,
	artifactID uuid.UUID,
	progress analyzer.ProgressFunc,
) (*Result, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyArtifactID, artifactID)
	if progress != nil {
		initialState = initialState.Set(KeyProgress, progress)
	}

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return getAs[*Result](finalState, KeyResult)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("sentinel-verify")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("extract", ExtractNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("analyze", AnalyzeNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	// extract → finalize (when the verdict cache already has this payload)
	if err := graph.AddEdge("extract", "finalize", isCached); err != nil {
		return nil, err
	}

	// extract → analyze (when a fresh analysis is needed)
	if err := graph.AddEdge("extract", "analyze", state.Not(isCached)); err != nil {
		return nil, err
	}

	// analyze → finalize (unconditional)
	if err := graph.AddEdge("analyze", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("extract"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func isCached(s state.State) bool {
	cached, err := getAs[bool](s, KeyCached)
	if err != nil {
		return false
	}
	return cached
}
