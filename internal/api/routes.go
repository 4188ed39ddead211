package api

import (
	"net/http"

	"github.com/tarunvipparti/DFS/internal/config"
	"github.com/tarunvipparti/DFS/internal/events"
	"github.com/tarunvipparti/DFS/internal/monitor"
	"github.com/tarunvipparti/DFS/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Artifacts.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Reports.Handler().Routes(),
		domain.Queue.Handler().Routes(),
		monitor.NewHandler(domain.Monitor, runtime.Logger, cfg.Monitor.SnapshotURL).Routes(),
		events.NewHandler(runtime.Events, runtime.Logger).Routes(),
	)
}
