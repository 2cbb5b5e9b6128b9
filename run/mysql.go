package run

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed run store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new run in the database.
func (s *MySQLStore) Create(ctx context.Context, r *Run) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = StatusCreated
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		s.logger.Error(ctx, "failed to create run", map[string]interface{}{
			"error":   err.Error(),
			"website": r.Website,
		})
		return err
	}

	s.logger.Info(ctx, "run created", map[string]interface{}{
		"run_id":  r.ID.String(),
		"website": r.Website,
	})

	return nil
}

// GetByID retrieves a run by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run by ID", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return nil, err
	}

	return &r, nil
}

// Update updates a run with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(r); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		s.logger.Error(ctx, "failed to update run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return err
	}

	s.logger.Info(ctx, "run updated", map[string]interface{}{
		"run_id": id.String(),
	})

	return nil
}

func (s *MySQLStore) filtered(ctx context.Context, status Status) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Run{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return q
}

// List retrieves a paginated list of runs, newest first. An empty status
// lists runs in every status.
func (s *MySQLStore) List(ctx context.Context, status Status, limit, offset int) ([]*Run, error) {
	var runs []*Run
	err := s.filtered(ctx, status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list runs", map[string]interface{}{
			"error":  err.Error(),
			"status": string(status),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return runs, nil
}

// Count returns the number of runs in status, or of all runs when status
// is empty.
func (s *MySQLStore) Count(ctx context.Context, status Status) (int, error) {
	var count int64
	if err := s.filtered(ctx, status).Count(&count).Error; err != nil {
		s.logger.Error(ctx, "failed to count runs", map[string]interface{}{
			"error":  err.Error(),
			"status": string(status),
		})
		return 0, err
	}

	return int(count), nil
}

// Start marks a run as running.
func (s *MySQLStore) Start(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Run
		if err := tx.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return err
		}

		if err := r.Start(); err != nil {
			return err
		}

		return tx.WithContext(ctx).Save(&r).Error
	})

	if err != nil {
		if !errors.Is(err, ErrRunNotFound) && !errors.Is(err, ErrRunAlreadyStarted) {
			s.logger.Error(ctx, "failed to start run", map[string]interface{}{
				"error":  err.Error(),
				"run_id": id.String(),
			})
		}
		return err
	}

	s.logger.Info(ctx, "run started", map[string]interface{}{
		"run_id": id.String(),
	})

	return nil
}

// Complete marks a run as finished with the given outcome.
func (s *MySQLStore) Complete(ctx context.Context, id uuid.UUID, out Outcome) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Run
		if err := tx.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return err
		}

		if err := r.Complete(out); err != nil {
			return err
		}

		return tx.WithContext(ctx).Save(&r).Error
	})

	if err != nil {
		if !errors.Is(err, ErrRunNotFound) && !errors.Is(err, ErrRunNotRunning) {
			s.logger.Error(ctx, "failed to complete run", map[string]interface{}{
				"error":  err.Error(),
				"run_id": id.String(),
				"status": string(out.Status),
			})
		}
		return err
	}

	s.logger.Info(ctx, "run completed", map[string]interface{}{
		"run_id":         id.String(),
		"status":         string(out.Status),
		"overall_result": out.OverallResult,
	})

	return nil
}

// ClaimNextCreated locks the oldest created run, skipping rows other
// workers hold, and marks it running.
func (s *MySQLStore) ClaimNextCreated(ctx context.Context) (*Run, error) {
	var claimed *Run
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Run
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", StatusCreated).
			Order("created_at ASC").
			First(&r).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := r.Start(); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Save(&r).Error; err != nil {
			return err
		}
		claimed = &r
		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to claim run", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	if claimed != nil {
		s.logger.Info(ctx, "run claimed", map[string]interface{}{
			"run_id": claimed.ID.String(),
		})
	}
	return claimed, nil
}
