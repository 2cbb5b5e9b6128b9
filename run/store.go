package run

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error
	List(ctx context.Context, status Status, limit, offset int) ([]*Run, error)
	Count(ctx context.Context, status Status) (int, error)
	Start(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, out Outcome) error

	// ClaimNextCreated atomically moves the oldest created run to running
	// and returns it, or returns nil when none is waiting.
	ClaimNextCreated(ctx context.Context) (*Run, error)
}

type UpdateSetter func(*Run) error
