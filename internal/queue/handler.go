package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/pkg/handlers"
	"github.com/tarunvipparti/DFS/pkg/routes"
)

var errInvalidRequest = errors.New("invalid queue request")

// Handler provides HTTP endpoints for the verification queue.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// EnqueueRequest names the artifact to queue for verification.
type EnqueueRequest struct {
	ArtifactID uuid.UUID `json:"artifact_id"`
}

// RunResponse reports whether a batch run was started.
type RunResponse struct {
	Started bool `json:"started"`
}

// NewHandler creates a Handler for the given queue system.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "queue"),
	}
}

// Routes returns the route group definition for queue endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/queue",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Enqueue},
			{Method: "POST", Pattern: "/run", Handler: h.Run},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Remove},
		},
	}
}

// List returns all queued tasks in order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.List())
}

// Find returns a single task by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRequest)
		return
	}

	task, err := h.sys.Find(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, task)
}

// Enqueue adds an artifact to the verification queue.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ArtifactID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRequest)
		return
	}

	task, err := h.sys.Enqueue(req.ArtifactID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, task)
}

// Run starts a batch run in the background. A run already in progress is
// reported rather than duplicated.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	if h.sys.Running() {
		handlers.RespondJSON(w, http.StatusAccepted, RunResponse{Started: false})
		return
	}

	// detached from the request so the batch outlives this response
	go h.sys.RunBatch(context.Background())

	handlers.RespondJSON(w, http.StatusAccepted, RunResponse{Started: true})
}

// Remove deletes a task by its UUID path parameter.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRequest)
		return
	}

	if err := h.sys.Remove(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
