package handlers

import (
	"errors"
	"net/http"

	"github.com/hairizuanbinnoorazman/validation-agent/auth"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/pipeline"
	"github.com/hairizuanbinnoorazman/validation-agent/run"
)

// RunHandler handles test run requests.
type RunHandler struct {
	runner     *pipeline.Runner
	runStore   run.Store
	workerPool *pipeline.WorkerPool
	signer     *auth.TokenSigner
	registry   *auth.Registry
	logger     logger.Logger
}

// NewRunHandler creates a new run handler. pool may be nil, in which case
// asynchronous runs wait for the next worker start. signer may be nil, in
// which case login completion relies on the API key alone.
func NewRunHandler(runner *pipeline.Runner, runStore run.Store, pool *pipeline.WorkerPool, signer *auth.TokenSigner, registry *auth.Registry, log logger.Logger) *RunHandler {
	return &RunHandler{
		runner:     runner,
		runStore:   runStore,
		workerPool: pool,
		signer:     signer,
		registry:   registry,
		logger:     log,
	}
}

// SubmittedRunResponse is returned for an asynchronous run.
type SubmittedRunResponse struct {
	Run *run.Run `json:"run"`

	// AuthToken authorises POST /runs/{id}/auth/complete for interactive runs.
	AuthToken string `json:"auth_token,omitempty"`
}

// Create starts a run. By default it blocks until the run finishes and
// returns its response; with ?async=true it returns 202 immediately.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		h.submit(w, r, req)
		return
	}

	rec, resp, err := h.runner.RunNow(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to run pipeline", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to run pipeline")
		return
	}

	h.logger.Info(r.Context(), "run finished", map[string]interface{}{
		"run_id":         rec.ID.String(),
		"overall_result": rec.OverallResult,
	})
	respondJSON(w, http.StatusOK, resp)
}

func (h *RunHandler) submit(w http.ResponseWriter, r *http.Request, req pipeline.Request) {
	rec, err := h.runner.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to submit run", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to submit run")
		return
	}

	resp := SubmittedRunResponse{Run: rec}
	if rec.AuthType == string(pipeline.AuthInteractive) && h.signer != nil {
		token, err := h.signer.Issue(rec.ID.String())
		if err != nil {
			h.logger.Error(r.Context(), "failed to issue login completion token", map[string]interface{}{
				"error":  err.Error(),
				"run_id": rec.ID.String(),
			})
		} else {
			resp.AuthToken = token
		}
	}

	// Notify worker pool that a new run is available
	if h.workerPool != nil {
		h.workerPool.Notify()
	}

	respondJSON(w, http.StatusAccepted, resp)
}

// List handles listing runs, optionally filtered by ?status=.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r)

	status := run.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	total, err := h.runStore.Count(r.Context(), status)
	if err != nil {
		h.logger.Error(r.Context(), "failed to count runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to count runs")
		return
	}

	runs, err := h.runStore.List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(runs, total, limit, offset))
}

// GetByID handles getting a single run by ID.
func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "run")
	if !ok {
		return
	}

	rec, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// CompleteAuthRequest signals that the human finished signing in.
type CompleteAuthRequest struct {
	Token string `json:"token"`
}

// CompleteAuth handles the out-of-band login completion signal for an
// interactive run.
func (h *RunHandler) CompleteAuth(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "run")
	if !ok {
		return
	}

	var req CompleteAuthRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.signer != nil {
		if err := h.signer.Verify(req.Token, id.String()); err != nil {
			h.logger.Warn(r.Context(), "rejected login completion token", map[string]interface{}{
				"run_id": id.String(),
				"error":  err.Error(),
			})
			respondError(w, http.StatusForbidden, "invalid or expired token")
			return
		}
	}

	if err := h.registry.Signal(id.String()); err != nil {
		switch {
		case errors.Is(err, auth.ErrHandshakeNotFound):
			respondError(w, http.StatusNotFound, "no login is pending for this run")
		case errors.Is(err, auth.ErrHandshakeExpired):
			respondError(w, http.StatusGone, "login window has expired")
		default:
			h.logger.Error(r.Context(), "failed to signal login completion", map[string]interface{}{
				"error":  err.Error(),
				"run_id": id.String(),
			})
			respondError(w, http.StatusInternalServerError, "failed to signal login completion")
		}
		return
	}

	h.logger.Info(r.Context(), "login completion signalled", map[string]interface{}{
		"run_id": id.String(),
	})
	respondSuccess(w, "login completion signalled")
}
