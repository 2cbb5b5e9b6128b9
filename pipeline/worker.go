package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/run"
)

// ClaimedRunner executes a run that has already been claimed.
type ClaimedRunner interface {
	RunAfterClaim(ctx context.Context, runID uuid.UUID)
}

// WorkerPool manages a pool of goroutines that process submitted runs.
// Workers are notified via a channel when new runs are created, and each
// worker atomically claims runs using SELECT FOR UPDATE to prevent
// double-processing.
type WorkerPool struct {
	Work       chan struct{}
	maxWorkers int
	runStore   run.Store
	runner     ClaimedRunner
	logger     logger.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(maxWorkers int, runStore run.Store, runner ClaimedRunner, log logger.Logger) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &WorkerPool{
		Work:       make(chan struct{}, maxWorkers),
		maxWorkers: maxWorkers,
		runStore:   runStore,
		runner:     runner,
		logger:     log,
	}
}

// Notify wakes a worker without blocking when all are busy.
func (p *WorkerPool) Notify() {
	select {
	case p.Work <- struct{}{}:
	default:
	}
}

// Start spawns worker goroutines that listen for run notifications. A
// first notification picks up runs left over from a previous process.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info(ctx, "starting worker pool", map[string]interface{}{
		"max_workers": p.maxWorkers,
	})
	for i := 0; i < p.maxWorkers; i++ {
		go p.worker(ctx, i)
	}
	p.Notify()
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	p.logger.Info(ctx, "worker started", map[string]interface{}{
		"worker_id": id,
	})
	for {
		select {
		case <-p.Work:
			// Drain all available created runs before going back to wait
			p.drain(ctx, id)
		case <-ctx.Done():
			p.logger.Info(ctx, "worker stopping", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}
}

func (p *WorkerPool) drain(ctx context.Context, id int) {
	for {
		r, err := p.runStore.ClaimNextCreated(ctx)
		if err != nil {
			p.logger.Error(ctx, "worker failed to claim run", map[string]interface{}{
				"worker_id": id,
				"error":     err.Error(),
			})
			return
		}
		if r == nil {
			return
		}
		p.logger.Info(ctx, "worker processing run", map[string]interface{}{
			"worker_id": id,
			"run_id":    r.ID.String(),
		})
		p.runner.RunAfterClaim(ctx, r.ID)
	}
}
