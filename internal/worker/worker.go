// Package worker runs the notification dispatch loop: it claims queued
// notification jobs, hands them to registered handlers and retries failures
// with exponential backoff.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

// Handler processes a single notification job.
type Handler func(ctx context.Context, job *models.Job) error

// Instrumentation provides hooks for monitoring the job lifecycle.
type Instrumentation struct {
	OnEnqueue  func(job *models.Job)
	OnStart    func(job *models.Job)
	OnComplete func(job *models.Job, duration time.Duration)
	OnFail     func(job *models.Job, err error, duration time.Duration)
	OnRetry    func(job *models.Job, retryAfter time.Duration)
}

// Config holds dispatcher configuration.
type Config struct {
	// MaxConcurrent is the number of concurrent dispatch goroutines.
	MaxConcurrent int
	// PollInterval is the time between polls when the queue is empty.
	PollInterval time.Duration
	// RetryBaseDelay is the base delay for exponential backoff.
	RetryBaseDelay time.Duration
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration
	// JobTimeout bounds a single delivery attempt.
	JobTimeout time.Duration
	// ShutdownTimeout bounds the graceful shutdown wait.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the dispatcher.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   2,
		PollInterval:    2 * time.Second,
		RetryBaseDelay:  time.Second,
		RetryMaxDelay:   time.Minute,
		JobTimeout:      30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Dispatcher is the notification queue processor.
type Dispatcher struct {
	config          Config
	store           *store.JobStore
	handlers        map[string]Handler
	instrumentation *Instrumentation

	workerID string
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopped  bool
	mu       sync.RWMutex

	// activeJobs tracks in-flight job IDs so shutdown can release them.
	activeJobs map[int64]context.CancelFunc
}

// New creates a Dispatcher.
func New(config Config, jobStore *store.JobStore) *Dispatcher {
	defaults := DefaultConfig()
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaults.MaxConcurrent
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if config.RetryMaxDelay <= 0 {
		config.RetryMaxDelay = defaults.RetryMaxDelay
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	return &Dispatcher{
		config:          config,
		store:           jobStore,
		handlers:        make(map[string]Handler),
		workerID:        "dispatcher-" + uuid.NewString(),
		stopCh:          make(chan struct{}),
		activeJobs:      make(map[int64]context.CancelFunc),
		instrumentation: &Instrumentation{},
	}
}

// RegisterHandler binds a handler to a job type.
func (d *Dispatcher) RegisterHandler(jobType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = h
}

// SetInstrumentation sets the lifecycle hooks.
func (d *Dispatcher) SetInstrumentation(inst *Instrumentation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.instrumentation = inst
}

// Start launches the dispatch goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	log.Printf("[worker] starting %s with %d processors", d.workerID, d.config.MaxConcurrent)

	for i := 0; i < d.config.MaxConcurrent; i++ {
		d.wg.Add(1)
		go d.processor(ctx, i)
	}
}

// Stop gracefully shuts down the dispatcher, releasing in-flight jobs back
// to pending so another instance can pick them up.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.stopCh)
	d.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, d.config.ShutdownTimeout)
	defer cancel()

	d.releaseActiveJobs(shutdownCtx)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("[worker] graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("worker shutdown timeout exceeded")
	}
}

func (d *Dispatcher) processor(ctx context.Context, id int) {
	defer d.wg.Done()

	processorID := fmt.Sprintf("%s-%d", d.workerID, id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		default:
			if err := d.processNextJob(ctx); err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					log.Printf("[worker] processor %s error: %v", processorID, err)
				}
			}
		}
	}
}

func (d *Dispatcher) processNextJob(ctx context.Context) error {
	job, err := d.store.ClaimNextJob(ctx, d.workerID)
	if err != nil {
		return err
	}
	if job == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stopCh:
			return nil
		case <-time.After(d.config.PollInterval):
			return nil
		}
	}

	d.processJob(ctx, job)
	return nil
}

func (d *Dispatcher) processJob(ctx context.Context, job *models.Job) {
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, d.config.JobTimeout)
	defer cancel()

	d.trackActiveJob(job.ID, cancel)
	defer d.untrackActiveJob(job.ID)

	if d.instrumentation.OnStart != nil {
		d.instrumentation.OnStart(job)
	}

	log.Printf("[worker] processing job %d (type: %s, attempt: %d/%d)",
		job.ID, job.JobType, job.Attempts, job.MaxAttempts)

	d.mu.RLock()
	handler, ok := d.handlers[job.JobType]
	d.mu.RUnlock()
	if !ok {
		d.handleError(job, fmt.Errorf("no handler registered for job type: %s", job.JobType), start)
		return
	}

	if err := handler(jobCtx, job); err != nil {
		d.handleError(job, err, start)
	} else {
		d.handleSuccess(job, start)
	}
}

func (d *Dispatcher) handleError(job *models.Job, jobErr error, start time.Time) {
	duration := time.Since(start)

	// The job context is often already past its deadline when we get here,
	// so the status writes run on a fresh context or the row would be left
	// stuck in processing.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("[worker] job %d failed after %v: %v", job.ID, duration, jobErr)

	if d.instrumentation.OnFail != nil {
		d.instrumentation.OnFail(job, jobErr, duration)
	}

	if job.Attempts < job.MaxAttempts {
		delay := d.retryDelay(job.Attempts)

		if d.instrumentation.OnRetry != nil {
			d.instrumentation.OnRetry(job, delay)
		}

		log.Printf("[worker] scheduling retry for job %d after %v (attempt %d/%d)",
			job.ID, delay, job.Attempts, job.MaxAttempts)

		if err := d.store.ScheduleRetry(ctx, job.ID, jobErr.Error(), time.Now().Add(delay)); err != nil {
			log.Printf("[worker] failed to schedule retry for job %d: %v", job.ID, err)
		}
		return
	}

	log.Printf("[worker] job %d exhausted all %d attempts, marking as failed", job.ID, job.MaxAttempts)
	if err := d.store.MarkFailed(ctx, job.ID, jobErr.Error()); err != nil {
		log.Printf("[worker] failed to mark job %d as failed: %v", job.ID, err)
	}
}

func (d *Dispatcher) handleSuccess(job *models.Job, start time.Time) {
	duration := time.Since(start)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("[worker] job %d completed in %v", job.ID, duration)

	if d.instrumentation.OnComplete != nil {
		d.instrumentation.OnComplete(job, duration)
	}

	if err := d.store.MarkCompleted(ctx, job.ID); err != nil {
		log.Printf("[worker] failed to mark job %d as completed: %v", job.ID, err)
	}
}

// retryDelay computes exponential backoff with ±20% jitter so retries from
// parallel dispatchers do not land at the same instant.
func (d *Dispatcher) retryDelay(attempts int) time.Duration {
	base := float64(d.config.RetryBaseDelay) * math.Pow(2, float64(attempts-1))
	if max := float64(d.config.RetryMaxDelay); base > max {
		base = max
	}
	return time.Duration(base * (0.8 + 0.4*rand.Float64()))
}

func (d *Dispatcher) trackActiveJob(jobID int64, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activeJobs[jobID] = cancel
}

func (d *Dispatcher) untrackActiveJob(jobID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.activeJobs, jobID)
}

func (d *Dispatcher) releaseActiveJobs(ctx context.Context) {
	d.mu.Lock()
	jobIDs := make([]int64, 0, len(d.activeJobs))
	for id, cancel := range d.activeJobs {
		jobIDs = append(jobIDs, id)
		cancel()
	}
	d.mu.Unlock()

	for _, id := range jobIDs {
		if err := d.store.ReleaseJob(ctx, id); err != nil {
			log.Printf("[worker] failed to release job %d: %v", id, err)
		} else {
			log.Printf("[worker] released job %d back to pending", id)
		}
	}
}

// Enqueue adds a job to the queue.
func (d *Dispatcher) Enqueue(ctx context.Context, job *models.Job) error {
	if err := job.IsValid(); err != nil {
		return err
	}

	if err := d.store.Enqueue(ctx, job); err != nil {
		return err
	}

	if d.instrumentation.OnEnqueue != nil {
		d.instrumentation.OnEnqueue(job)
	}

	log.Printf("[worker] enqueued job %d (type: %s, priority: %s)", job.ID, job.JobType, job.Priority)
	return nil
}
