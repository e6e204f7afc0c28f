package gojob

import (
	"context"
	"maps"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-twitterkit/core"
)

// JobIDVerifySessions matches the task id the session monitor schedules.
const JobIDVerifySessions = "twitterkit.verify_sessions"

const defaultDedupPolicy = job.DeduplicationPolicy("drop")

// RetryPolicy bounds how often a failed delivery goes back on the queue.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// SweepRetryPolicy is the policy used for verification sweeps. A sweep that
// keeps failing is dead-lettered; the next foreground trigger starts a new
// one.
var SweepRetryPolicy = RetryPolicy{MaxAttempts: 3, MaxDelay: time.Minute, DeadLetterOnMax: true}

// NormalizeAttempt clamps opts for the given attempt. The result always
// either requeues or dead-letters.
func (p RetryPolicy) NormalizeAttempt(opts core.JobNackOptions, attempt int) core.JobNackOptions {
	opts.Reason = strings.TrimSpace(opts.Reason)
	opts.Delay = max(opts.Delay, 0)
	if p.MaxDelay > 0 {
		opts.Delay = min(opts.Delay, p.MaxDelay)
	}
	exhausted := p.MaxAttempts > 0 && attempt >= p.MaxAttempts
	switch {
	case opts.DeadLetter:
		opts.Requeue = false
	case exhausted && p.DeadLetterOnMax:
		opts.Requeue = false
		opts.DeadLetter = true
	case exhausted:
		opts.Requeue = false
	}
	if !opts.Requeue && !opts.DeadLetter {
		opts.Requeue = true
	}
	return opts
}

// ToExecutionMessage maps a twitterkit task message to go-job. ScriptPath
// falls back to the job id and the dedup policy to "drop".
func ToExecutionMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	jobID := strings.TrimSpace(msg.JobID)
	scriptPath := strings.TrimSpace(msg.ScriptPath)
	if scriptPath == "" {
		scriptPath = jobID
	}
	policy := job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy))
	if policy == "" {
		policy = defaultDedupPolicy
	}
	return &job.ExecutionMessage{
		JobID:          jobID,
		ScriptPath:     scriptPath,
		Parameters:     cloneParameters(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    policy,
	}
}

func FromExecutionMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParameters(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

func cloneParameters(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	maps.Copy(out, in)
	return out
}

func notConfigured(part string) error {
	return core.NewError("gojob: "+part+" is not configured", goerrors.CategoryInternal, core.ErrorInternal)
}

// EnqueuerAdapter puts twitterkit task messages on a go-job queue.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if a == nil || a.enqueuer == nil {
		return notConfigured("enqueuer")
	}
	if msg == nil || strings.TrimSpace(msg.JobID) == "" {
		return core.NewError("gojob: task message requires a job id", goerrors.CategoryBadInput, core.ErrorBadInput)
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

// DeliveryAdapter exposes a go-job delivery as a core.JobDelivery. Nacks go
// through the retry policy.
type DeliveryAdapter struct {
	delivery queue.Delivery
	policy   RetryPolicy
}

func NewDeliveryAdapter(delivery queue.Delivery, policy RetryPolicy) *DeliveryAdapter {
	return &DeliveryAdapter{delivery: delivery, policy: policy}
}

func (d *DeliveryAdapter) Message() *core.JobExecutionMessage {
	if d == nil || d.delivery == nil {
		return nil
	}
	return FromExecutionMessage(d.delivery.Message())
}

func (d *DeliveryAdapter) Ack(ctx context.Context) error {
	if d == nil || d.delivery == nil {
		return notConfigured("delivery")
	}
	return d.delivery.Ack(ctx)
}

func (d *DeliveryAdapter) Nack(ctx context.Context, opts core.JobNackOptions) error {
	return d.NackForAttempt(ctx, opts, 0)
}

func (d *DeliveryAdapter) NackForAttempt(ctx context.Context, opts core.JobNackOptions, attempt int) error {
	if d == nil || d.delivery == nil {
		return notConfigured("delivery")
	}
	opts = d.policy.NormalizeAttempt(opts, attempt)
	return d.delivery.Nack(ctx, queue.NackOptions{
		Delay:      opts.Delay,
		Requeue:    opts.Requeue,
		DeadLetter: opts.DeadLetter,
		Reason:     opts.Reason,
	})
}

type DequeuerAdapter struct {
	dequeuer queue.Dequeuer
	policy   RetryPolicy
}

func NewDequeuerAdapter(dequeuer queue.Dequeuer, policy RetryPolicy) *DequeuerAdapter {
	return &DequeuerAdapter{dequeuer: dequeuer, policy: policy}
}

func (a *DequeuerAdapter) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if a == nil || a.dequeuer == nil {
		return nil, notConfigured("dequeuer")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryExternal, "gojob: dequeue", core.ErrorExternalFailure)
	}
	return NewDeliveryAdapter(delivery, a.policy), nil
}

var (
	_ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer = (*DequeuerAdapter)(nil)
)
