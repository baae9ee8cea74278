package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is a unit of deferred work that survives restarts.
type Job struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Kind      string         `json:"kind" gorm:"type:varchar(64);not null;index"`
	Payload   datatypes.JSON `json:"payload"`
	RunAt     time.Time      `json:"run_at" gorm:"not null;index:idx_jobs_due,priority:2"`
	Status    Status         `json:"status" gorm:"type:varchar(16);not null;index:idx_jobs_due,priority:1"`
	Attempts  int            `json:"attempts" gorm:"not null;default:0"`
	LastError string         `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

func Models() []any {
	return []any{&Job{}}
}
