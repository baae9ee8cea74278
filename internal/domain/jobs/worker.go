package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc runs one job. Handlers must be idempotent: a job can run more
// than once if a worker dies before recording the result.
type HandlerFunc func(ctx context.Context, payload []byte) error

var ErrNoHandler = errors.New("no handler registered")

type WorkerConfig struct {
	MaxAttempts int
	BatchSize   int
	// StaleAfter is how long a running job may go untouched before it is requeued.
	StaleAfter time.Duration
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxAttempts: 5,
		BatchSize:   50,
		StaleAfter:  10 * time.Minute,
		BaseDelay:   30 * time.Second,
		MaxDelay:    time.Hour,
	}
}

type Worker struct {
	repo     *Repository
	cfg      WorkerConfig
	log      *zap.Logger
	now      func() time.Time
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewWorker(repo *Repository, cfg WorkerConfig, log *zap.Logger) *Worker {
	def := DefaultWorkerConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	return &Worker{
		repo:     repo,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		handlers: make(map[string]HandlerFunc),
	}
}

func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

func (w *Worker) Register(kind string, h HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[kind] = h
}

func (w *Worker) handler(kind string) (HandlerFunc, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[kind]
	return h, ok
}

type RunStats struct {
	Done    int
	Retried int
	Failed  int
}

// RunDue claims and runs every job that is due now. It returns once the due
// batch is drained.
func (w *Worker) RunDue(ctx context.Context) (RunStats, error) {
	var stats RunStats
	now := w.now().UTC()

	if n, err := w.repo.RequeueStale(ctx, now.Add(-w.cfg.StaleAfter), now); err != nil {
		return stats, fmt.Errorf("requeue stale jobs: %w", err)
	} else if n > 0 {
		w.log.Warn("requeued stale jobs", zap.Int64("count", n))
	}

	due, err := w.repo.Due(ctx, now, w.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("load due jobs: %w", err)
	}

	for _, j := range due {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		claimed, err := w.repo.Claim(ctx, j.ID, now)
		if err != nil {
			return stats, fmt.Errorf("claim job %s: %w", j.ID, err)
		}
		if !claimed {
			continue
		}
		attempt := j.Attempts + 1

		runErr := w.run(ctx, j)
		finished := w.now().UTC()
		switch {
		case runErr == nil:
			if err := w.repo.MarkDone(ctx, j.ID, finished); err != nil {
				return stats, fmt.Errorf("mark job %s done: %w", j.ID, err)
			}
			stats.Done++
			w.log.Info("job done", zap.String("job_id", j.ID.String()), zap.String("kind", j.Kind), zap.Int("attempt", attempt))

		case attempt >= w.cfg.MaxAttempts || errors.Is(runErr, ErrNoHandler):
			if err := w.repo.MarkFailed(ctx, j.ID, runErr.Error(), finished); err != nil {
				return stats, fmt.Errorf("mark job %s failed: %w", j.ID, err)
			}
			stats.Failed++
			w.log.Error("job failed", zap.String("job_id", j.ID.String()), zap.String("kind", j.Kind),
				zap.Int("attempt", attempt), zap.Error(runErr))

		default:
			next := finished.Add(w.backoff(attempt))
			if err := w.repo.MarkRetry(ctx, j.ID, next, runErr.Error(), finished); err != nil {
				return stats, fmt.Errorf("reschedule job %s: %w", j.ID, err)
			}
			stats.Retried++
			w.log.Warn("job will retry", zap.String("job_id", j.ID.String()), zap.String("kind", j.Kind),
				zap.Int("attempt", attempt), zap.Time("run_at", next), zap.Error(runErr))
		}
	}
	return stats, nil
}

func (w *Worker) run(ctx context.Context, j Job) (err error) {
	h, ok := w.handler(j.Kind)
	if !ok {
		return fmt.Errorf("%w for kind %q", ErrNoHandler, j.Kind)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, []byte(j.Payload))
}

// backoff doubles BaseDelay per attempt, capped at MaxDelay.
func (w *Worker) backoff(attempt int) time.Duration {
	d := w.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= w.cfg.MaxDelay {
			return w.cfg.MaxDelay
		}
	}
	return d
}

// Start runs RunDue every interval until ctx is cancelled. The returned
// channel is closed when the loop exits.
func (w *Worker) Start(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		w.tick(ctx)
		for {
			select {
			case <-ticker.C:
				w.tick(ctx)
			case <-ctx.Done():
				w.log.Info("job worker stopped")
				return
			}
		}
	}()

	w.log.Info("job worker started", zap.Duration("interval", interval))
	return done
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.RunDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Error("job run failed", zap.Error(err))
	}
}

// Prune deletes finished jobs older than retention.
func (w *Worker) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return w.repo.DeleteFinishedBefore(ctx, w.now().UTC().Add(-retention))
}
