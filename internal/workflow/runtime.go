// Package workflow orchestrates one batch verification: payload extraction,
// cached-or-fresh analysis, and policy evaluation, expressed as a state
// graph executed per task.
package workflow

import (
	"log/slog"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/artifacts"
	"github.com/tarunvipparti/DFS/pkg/cache"
)

// Runtime bundles the dependencies that workflow nodes require. It is
// constructed by higher-level composition code from infrastructure and
// domain systems.
type Runtime struct {
	Analyzer  analyzer.System
	Artifacts artifacts.System
	Cache     cache.System
	Logger    *slog.Logger
}
