package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, j *Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// Due returns queued jobs whose run time has passed, oldest first.
func (r *Repository) Due(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	var out []Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND run_at <= ?", StatusQueued, now).
		Order("run_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Claim flips a queued job to running. Exactly one concurrent caller wins.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusQueued).
		Updates(map[string]any{
			"status":     StatusRunning,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) MarkDone(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusDone, "last_error": "", "updated_at": now}).Error
}

func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusQueued, "run_at": runAt, "last_error": lastErr, "updated_at": now}).Error
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusFailed, "last_error": lastErr, "updated_at": now}).Error
}

// RequeueStale returns jobs stuck in running since before cutoff to the
// queue. A worker that crashed mid-job leaves such rows behind.
func (r *Repository) RequeueStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Job{}).
		Where("status = ? AND updated_at < ?", StatusRunning, cutoff).
		Updates(map[string]any{"status": StatusQueued, "run_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}

// DeleteFinishedBefore removes done and failed jobs last touched before cutoff.
func (r *Repository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []Status{StatusDone, StatusFailed}, cutoff).
		Delete(&Job{})
	return res.RowsAffected, res.Error
}
