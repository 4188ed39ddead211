package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/artifacts"
	"github.com/tarunvipparti/DFS/internal/config"
	"github.com/tarunvipparti/DFS/internal/monitor"
	"github.com/tarunvipparti/DFS/internal/queue"
	"github.com/tarunvipparti/DFS/internal/reports"
	"github.com/tarunvipparti/DFS/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Artifacts artifacts.System
	Reports   reports.System
	Queue     queue.System
	Monitor   *monitor.Session
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	artifactsSystem := artifacts.New(
		runtime.Database.Connection(),
		runtime.Storage,
		artifacts.NewFrameGrabber(),
		runtime.Logger,
		runtime.Pagination,
	)

	reportsSystem := reports.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	analyzerSystem := analyzer.New(
		analyzer.NewClassifier(&cfg.Analyzer),
		&cfg.Analyzer,
		runtime.Logger,
	)

	queueSystem := queue.New(
		&workflowRunner{runtime: &workflow.Runtime{
			Analyzer:  analyzerSystem,
			Artifacts: artifactsSystem,
			Cache:     runtime.Cache,
			Logger:    runtime.Logger,
		}},
		&reportsPersister{reports: reportsSystem},
		runtime.Events,
		runtime.Logger,
	)

	monitorSession := monitor.NewSession(
		analyzerSystem,
		&cfg.Monitor,
		runtime.Events,
		monitor.NewClock(),
		runtime.Logger,
	)

	// A live session must not outlive the service.
	runtime.Lifecycle.OnShutdown(func() {
		<-runtime.Lifecycle.Context().Done()
		monitorSession.Stop()
	})

	return &Domain{
		Artifacts: artifactsSystem,
		Reports:   reportsSystem,
		Queue:     queueSystem,
		Monitor:   monitorSession,
	}
}

// workflowRunner adapts the verification workflow to the queue's Runner
// interface, executing one graph per task.
type workflowRunner struct {
	runtime *workflow.Runtime
}

func (r *workflowRunner) Run(
	ctx context.Context,
	artifactID uuid.UUID,
	progress analyzer.ProgressFunc,
) (*workflow.Result, error) {
	return workflow.Execute(ctx, r.runtime, artifactID, progress)
}

// reportsPersister adapts the reports system to the queue's Persister
// interface, recording each completed verification exactly once.
type reportsPersister struct {
	reports reports.System
}

func (p *reportsPersister) Persist(ctx context.Context, res *workflow.Result) error {
	_, err := p.reports.Save(ctx, reports.CreateCommand{
		ArtifactID: res.ArtifactID,
		Verdict:    res.Verdict,
		Decision:   res.Decision,
	})
	return err
}
