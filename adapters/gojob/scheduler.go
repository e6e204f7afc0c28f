package gojob

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
	"github.com/oklog/ulid/v2"
)

// QueueScheduler is a core.WorkScheduler that hands tasks to a go-job queue.
// The queue carries only the task key; the closure stays in process until a
// worker delivers the message back through HandleDelivery.
// A message that is dropped or dead-lettered never runs its task, so the
// session monitor relies on monitor.VerificationLease to free its claim.
type QueueScheduler struct {
	enqueuer core.JobEnqueuer
	observer core.Observer
	hook     core.JobWorkerHook

	mu      sync.Mutex
	pending map[string]func(context.Context)
}

func NewQueueScheduler(enqueuer core.JobEnqueuer, logger core.Logger, metrics core.MetricsRecorder) *QueueScheduler {
	return &QueueScheduler{
		enqueuer: enqueuer,
		observer: core.NewObserver(logger, metrics),
		hook:     NewObserverHook(logger, metrics),
		pending:  map[string]func(context.Context){},
	}
}

func (s *QueueScheduler) Schedule(ctx context.Context, taskID string, task func(context.Context)) error {
	if s == nil || s.enqueuer == nil {
		return notConfigured("enqueuer")
	}
	if task == nil {
		return nil
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		taskID = JobIDVerifySessions
	}
	key := taskID + ":" + ulid.Make().String()

	s.mu.Lock()
	s.pending[key] = task
	s.mu.Unlock()

	err := s.enqueuer.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          taskID,
		ScriptPath:     taskID,
		Parameters:     map[string]any{"task_key": key},
		IdempotencyKey: key,
		DedupPolicy:    "drop",
	})
	if err != nil {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		return core.WrapError(err, goerrors.CategoryExternal, "gojob: enqueue task", core.ErrorExternalFailure)
	}
	return nil
}

// Pending reports how many scheduled tasks have not been delivered yet.
func (s *QueueScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// HandleDelivery runs the task behind delivery and acknowledges it. Messages
// for unknown tasks are dead-lettered.
func (s *QueueScheduler) HandleDelivery(ctx context.Context, delivery core.JobDelivery) error {
	if delivery == nil {
		return core.NewError("gojob: delivery is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	msg := delivery.Message()
	if msg == nil {
		return delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "empty message"})
	}

	s.mu.Lock()
	task, ok := s.pending[msg.IdempotencyKey]
	delete(s.pending, msg.IdempotencyKey)
	s.mu.Unlock()

	event := core.JobWorkerEvent{Message: msg, Attempt: 1, StartedAt: time.Now().UTC()}
	if !ok {
		s.observer.Warn(ctx, "gojob: dropping unknown task", map[string]any{
			"job_id":          msg.JobID,
			"idempotency_key": msg.IdempotencyKey,
		})
		event.Err = core.NewError("gojob: unknown task", goerrors.CategoryNotFound, core.ErrorOperationFailed)
		s.hook.OnFailure(ctx, event)
		return delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "unknown task"})
	}

	s.hook.OnStart(ctx, event)
	task(ctx)
	event.Duration = time.Since(event.StartedAt)
	s.hook.OnSuccess(ctx, event)
	return delivery.Ack(ctx)
}

// RunOnce dequeues a single delivery and handles it.
func (s *QueueScheduler) RunOnce(ctx context.Context, dequeuer core.JobDequeuer) error {
	if dequeuer == nil {
		return core.NewError("gojob: dequeuer is required", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return s.HandleDelivery(ctx, delivery)
}

var _ core.WorkScheduler = (*QueueScheduler)(nil)
