// Package run persists test runs: the request that started them, their
// lifecycle status and the response they produced.
package run

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRunNotFound       = errors.New("run not found")
	ErrInvalidWebsite    = errors.New("website is required")
	ErrInvalidStatus     = errors.New("invalid run status")
	ErrRunAlreadyStarted = errors.New("run already started")
	ErrRunNotRunning     = errors.New("run is not running")
)

type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusRunning, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// IsFinal checks if the status can no longer change.
func (s Status) IsFinal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// JSONMap is a custom type for JSON columns.
type JSONMap map[string]interface{}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = make(JSONMap)
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan JSONMap: unsupported type")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*j = m
	return nil
}

// Run is one execution of the test pipeline.
type Run struct {
	ID            uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Status        Status     `json:"status" gorm:"type:varchar(20);not null;default:'created';index:idx_runs_status"`
	Website       string     `json:"website" gorm:"type:varchar(2048);not null"`
	AuthType      string     `json:"auth_type" gorm:"type:varchar(20);not null;default:'none'"`
	Request       JSONMap    `json:"request" gorm:"type:json"`
	Response      JSONMap    `json:"response,omitempty" gorm:"type:json"`
	OverallResult string     `json:"overall_result,omitempty" gorm:"type:varchar(20)"`
	FailedStage   string     `json:"failed_stage,omitempty" gorm:"type:varchar(50)"`
	Error         string     `json:"error,omitempty" gorm:"type:text"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Duration      *int64     `json:"duration,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index:idx_runs_created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Run) Validate() error {
	if r.Website == "" {
		return ErrInvalidWebsite
	}
	if r.Status != "" && !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Start marks the run as running.
func (r *Run) Start() error {
	if r.Status != StatusCreated {
		return ErrRunAlreadyStarted
	}
	now := time.Now()
	r.Status = StatusRunning
	r.StartTime = &now
	return nil
}

// Outcome is what a finished run reports back.
type Outcome struct {
	Status        Status
	OverallResult string
	FailedStage   string
	Error         string
	Response      JSONMap
}

// Complete marks the run as finished.
func (r *Run) Complete(out Outcome) error {
	if r.Status != StatusRunning {
		return ErrRunNotRunning
	}
	if !out.Status.IsFinal() {
		return ErrInvalidStatus
	}
	now := time.Now()
	r.Status = out.Status
	r.OverallResult = out.OverallResult
	r.FailedStage = out.FailedStage
	r.Error = out.Error
	r.Response = out.Response
	r.EndTime = &now
	if r.StartTime != nil {
		duration := now.Sub(*r.StartTime).Milliseconds()
		r.Duration = &duration
	}
	return nil
}
