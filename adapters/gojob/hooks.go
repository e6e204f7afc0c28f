package gojob

import (
	"context"

	"github.com/goliatone/go-job/queue/worker"
	"github.com/goliatone/go-twitterkit/core"
)

// WorkerHookAdapter lets a core.JobWorkerHook observe a go-job worker.
type WorkerHookAdapter struct {
	hook core.JobWorkerHook
}

func NewWorkerHookAdapter(hook core.JobWorkerHook) *WorkerHookAdapter {
	return &WorkerHookAdapter{hook: hook}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnStart)
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnSuccess)
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnFailure)
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	a.forward(ctx, event, core.JobWorkerHook.OnRetry)
}

func (a *WorkerHookAdapter) forward(ctx context.Context, event worker.Event, fn func(core.JobWorkerHook, context.Context, core.JobWorkerEvent)) {
	if a == nil || a.hook == nil {
		return
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fn(a.hook, ctx, core.JobWorkerEvent{
		Message:   FromExecutionMessage(message),
		Attempt:   event.Attempt,
		Delay:     event.Delay,
		Err:       event.Err,
		StartedAt: event.StartedAt,
		Duration:  event.Duration,
	})
}

// ObserverHook logs and counts worker lifecycle events for twitterkit jobs.
type ObserverHook struct {
	observer core.Observer
}

func NewObserverHook(logger core.Logger, metrics core.MetricsRecorder) *ObserverHook {
	return &ObserverHook{observer: core.NewObserver(logger, metrics)}
}

func (h *ObserverHook) OnStart(ctx context.Context, event core.JobWorkerEvent) {
	h.observer.Debug(ctx, "job started", jobEventFields(event))
}

func (h *ObserverHook) OnSuccess(ctx context.Context, event core.JobWorkerEvent) {
	h.observer.IncCounter(ctx, "job.succeeded", 1, jobEventTags(event))
	h.observer.ObserveHistogram(ctx, "job.duration_ms", float64(event.Duration.Milliseconds()), jobEventTags(event))
}

func (h *ObserverHook) OnFailure(ctx context.Context, event core.JobWorkerEvent) {
	fields := jobEventFields(event)
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}
	h.observer.Warn(ctx, "job failed", fields)
	h.observer.IncCounter(ctx, "job.failed", 1, jobEventTags(event))
}

func (h *ObserverHook) OnRetry(ctx context.Context, event core.JobWorkerEvent) {
	fields := jobEventFields(event)
	fields["delay"] = event.Delay.String()
	h.observer.Info(ctx, "job retry scheduled", fields)
	h.observer.IncCounter(ctx, "job.retried", 1, jobEventTags(event))
}

func jobEventFields(event core.JobWorkerEvent) map[string]any {
	fields := map[string]any{"attempt": event.Attempt}
	if event.Message != nil {
		fields["job_id"] = event.Message.JobID
	}
	return fields
}

func jobEventTags(event core.JobWorkerEvent) map[string]string {
	if event.Message == nil {
		return nil
	}
	return map[string]string{"operation": event.Message.JobID}
}

var (
	_ worker.Hook        = (*WorkerHookAdapter)(nil)
	_ core.JobWorkerHook = (*ObserverHook)(nil)
)
