package monitor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tarunvipparti/DFS/pkg/handlers"
	"github.com/tarunvipparti/DFS/pkg/routes"
)

var errMissingSnapshotURL = errors.New("snapshot_url required")

// Handler provides HTTP endpoints for the live monitoring session.
type Handler struct {
	session    *Session
	logger     *slog.Logger
	defaultURL string
	newSource  func(url string) FrameSource
}

// StartRequest selects the snapshot endpoint for a monitoring session. When
// omitted, the configured default is used.
type StartRequest struct {
	SnapshotURL string `json:"snapshot_url"`
}

// NewHandler creates a Handler for the given session. defaultURL is used when
// a start request does not name a snapshot endpoint.
func NewHandler(session *Session, logger *slog.Logger, defaultURL string) *Handler {
	return &Handler{
		session:    session,
		logger:     logger.With("handler", "monitor"),
		defaultURL: defaultURL,
		newSource:  NewHTTPSource,
	}
}

// Routes returns the route group definition for monitor endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/monitor",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/status", Handler: h.Status},
			{Method: "POST", Pattern: "/start", Handler: h.Start},
			{Method: "POST", Pattern: "/stop", Handler: h.Stop},
		},
	}
}

// Start begins a monitoring session against the requested snapshot endpoint.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	url := req.SnapshotURL
	if url == "" {
		url = h.defaultURL
	}
	if url == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errMissingSnapshotURL)
		return
	}

	if err := h.session.Start(h.newSource(url)); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.session.Status())
}

// Stop ends the monitoring session. Stopping an already-stopped session
// succeeds.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()
	handlers.RespondJSON(w, http.StatusOK, h.session.Status())
}

// Status returns the current session snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.session.Status())
}
