package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/run"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"golang.org/x/sync/semaphore"
)

// ErrInvalidRequest is returned for a request that cannot start a run.
var ErrInvalidRequest = errors.New("invalid run request")

// Request is the inbound body that starts a run.
type Request struct {
	Input      string              `json:"input"`
	Website    string              `json:"website"`
	AuthConfig *AuthConfigRequest  `json:"auth_config,omitempty"`
	Scenarios  []scenario.Scenario `json:"scenarios,omitempty"`
}

// RunnerConfig holds Runner limits.
type RunnerConfig struct {
	// MaxConcurrent bounds how many runs execute at once.
	MaxConcurrent int64

	// RunTimeout bounds a whole run, including any manual login.
	RunTimeout time.Duration

	AuthDefaultTimeout time.Duration
	AuthMaxTimeout     time.Duration
}

// DefaultRunnerConfig returns the default Runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxConcurrent:      2,
		RunTimeout:         30 * time.Minute,
		AuthDefaultTimeout: 300 * time.Second,
		AuthMaxTimeout:     900 * time.Second,
	}
}

// Runner persists runs and drives them through the Orchestrator.
type Runner struct {
	orchestrator *Orchestrator
	store        run.Store
	sem          *semaphore.Weighted
	config       RunnerConfig
	logger       logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(orchestrator *Orchestrator, store run.Store, config RunnerConfig, log logger.Logger) *Runner {
	def := DefaultRunnerConfig()
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = def.MaxConcurrent
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = def.RunTimeout
	}
	if config.AuthDefaultTimeout <= 0 {
		config.AuthDefaultTimeout = def.AuthDefaultTimeout
	}
	if config.AuthMaxTimeout <= 0 {
		config.AuthMaxTimeout = def.AuthMaxTimeout
	}
	return &Runner{
		orchestrator: orchestrator,
		store:        store,
		sem:          semaphore.NewWeighted(config.MaxConcurrent),
		config:       config,
		logger:       log,
	}
}

// Validate checks a request and parses its auth config.
func (r *Runner) Validate(req Request) (AuthConfig, error) {
	website := strings.TrimSpace(req.Website)
	if website == "" {
		return AuthConfig{}, fmt.Errorf("%w: website is required", ErrInvalidRequest)
	}
	u, err := url.Parse(website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return AuthConfig{}, fmt.Errorf("%w: website must be an absolute http(s) URL", ErrInvalidRequest)
	}

	auth, err := ParseAuthConfig(req.AuthConfig, r.config.AuthDefaultTimeout, r.config.AuthMaxTimeout)
	if err != nil {
		return AuthConfig{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return auth, nil
}

// RunNow records a run and executes it before returning.
func (r *Runner) RunNow(ctx context.Context, req Request) (*run.Run, Response, error) {
	record, auth, err := r.create(ctx, req)
	if err != nil {
		return nil, Response{}, err
	}
	if err := r.store.Start(ctx, record.ID); err != nil {
		return nil, Response{}, err
	}

	resp := r.execute(ctx, record.ID, req, auth)
	if err := r.complete(ctx, record.ID, resp); err != nil {
		return nil, resp, err
	}

	record, err = r.store.GetByID(context.WithoutCancel(ctx), record.ID)
	if err != nil {
		return nil, resp, err
	}
	return record, resp, nil
}

// Submit records a run for a worker to pick up.
func (r *Runner) Submit(ctx context.Context, req Request) (*run.Run, error) {
	record, _, err := r.create(ctx, req)
	return record, err
}

// RunAfterClaim executes a run that a worker has already moved to running.
func (r *Runner) RunAfterClaim(ctx context.Context, runID uuid.UUID) {
	log := r.logger.WithField("run_id", runID.String())

	record, err := r.store.GetByID(ctx, runID)
	if err != nil {
		log.Error(ctx, "failed to load claimed run", map[string]interface{}{"error": err.Error()})
		return
	}

	req, err := decodeRequest(record.Request)
	if err == nil {
		var auth AuthConfig
		if auth, err = r.Validate(req); err == nil {
			resp := r.execute(ctx, runID, req, auth)
			if cerr := r.complete(ctx, runID, resp); cerr != nil {
				log.Error(ctx, "failed to complete run", map[string]interface{}{"error": cerr.Error()})
			}
			return
		}
	}

	log.Error(ctx, "stored run request is unusable", map[string]interface{}{"error": err.Error()})
	if cerr := r.store.Complete(context.WithoutCancel(ctx), runID, run.Outcome{
		Status: run.StatusFailed,
		Error:  err.Error(),
	}); cerr != nil {
		log.Error(ctx, "failed to mark run failed", map[string]interface{}{"error": cerr.Error()})
	}
}

func (r *Runner) create(ctx context.Context, req Request) (*run.Run, AuthConfig, error) {
	auth, err := r.Validate(req)
	if err != nil {
		return nil, AuthConfig{}, err
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, AuthConfig{}, fmt.Errorf("failed to encode request: %w", err)
	}
	redacted, err := run.RedactRequest(raw)
	if err != nil {
		return nil, AuthConfig{}, err
	}

	record := &run.Run{
		Website:  strings.TrimSpace(req.Website),
		AuthType: string(auth.Kind),
		Request:  redacted,
	}
	if err := r.store.Create(ctx, record); err != nil {
		return nil, AuthConfig{}, err
	}
	return record, auth, nil
}

// execute runs the pipeline under the concurrency limit. A run that
// cannot get a slot before ctx ends is still reported, as failed.
func (r *Runner) execute(ctx context.Context, runID uuid.UUID, req Request, auth AuthConfig) Response {
	ctx, cancel := context.WithTimeout(ctx, r.config.RunTimeout)
	defer cancel()

	state := NewState(runID.String(), req.Input, strings.TrimSpace(req.Website), auth, req.Scenarios)
	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.logger.Warn(ctx, "run did not get an execution slot", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
		return NewResponse(r.orchestrator.Run(ctx, state))
	}
	defer r.sem.Release(1)

	runsInFlight.Inc()
	defer runsInFlight.Dec()
	return NewResponse(r.orchestrator.Run(ctx, state))
}

func (r *Runner) complete(ctx context.Context, runID uuid.UUID, resp Response) error {
	payload, err := toJSONMap(resp)
	if err != nil {
		return err
	}
	out := run.Outcome{
		Status:        run.StatusSuccess,
		OverallResult: string(resp.AnalysedResults.Summary.OverallResult),
		FailedStage:   resp.FailedStage,
		Error:         resp.Error,
		Response:      payload,
	}
	if resp.FailedStage != "" {
		out.Status = run.StatusFailed
	}
	return r.store.Complete(context.WithoutCancel(ctx), runID, out)
}

func decodeRequest(m run.JSONMap) (Request, error) {
	var req Request
	raw, err := json.Marshal(m)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}

func toJSONMap(v interface{}) (run.JSONMap, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m run.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
