package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Queue struct {
	repo *Repository
}

func NewQueue(repo *Repository) *Queue {
	return &Queue{repo: repo}
}

// Enqueue stores a job of the given kind to run no earlier than runAt.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload any, runAt time.Time) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	j := &Job{
		Kind:    kind,
		Payload: datatypes.JSON(raw),
		RunAt:   runAt.UTC(),
		Status:  StatusQueued,
	}
	if err := q.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return j, nil
}
