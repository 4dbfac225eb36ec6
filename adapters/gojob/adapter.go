package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	"github.com/goliatone/go-apiclient/auth"
	"github.com/goliatone/go-apiclient/core"
)

const (
	JobIDRefresh = "session.refresh"

	ParamExpiresAt = "expires_at"
	ParamReason    = "reason"

	DedupPolicyDrop = "drop"

	defaultRefreshWindow = time.Minute
)

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// Backoff doubles BaseDelay per attempt, bounded by MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Refresher is the session surface a refresh job drives.
type Refresher interface {
	Refresh(ctx context.Context) (core.TokenState, error)
}

// RefreshJob handles session.refresh deliveries.
type RefreshJob struct {
	session  Refresher
	policy   RetryPolicy
	observer *core.Observer
}

type RefreshJobOption func(*RefreshJob)

func WithObserver(observer *core.Observer) RefreshJobOption {
	return func(j *RefreshJob) {
		if observer != nil {
			j.observer = observer
		}
	}
}

func NewRefreshJob(session Refresher, policy RetryPolicy, opts ...RefreshJobOption) *RefreshJob {
	refreshJob := &RefreshJob{
		session:  session,
		policy:   policy,
		observer: core.NewObserver(nil, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(refreshJob)
		}
	}
	return refreshJob
}

// Handle refreshes the session for one delivery. Successful refreshes are
// acked; failures are nacked within the retry policy. Deliveries for other
// jobs are dead-lettered.
func (j *RefreshJob) Handle(ctx context.Context, delivery queue.Delivery, attempt int) (core.TokenState, error) {
	if j == nil || j.session == nil {
		return core.TokenState{}, fmt.Errorf("gojob: refresh session is not configured")
	}
	if delivery == nil {
		return core.TokenState{}, fmt.Errorf("gojob: delivery is required")
	}
	msg := delivery.Message()
	if msg == nil || strings.TrimSpace(msg.JobID) != JobIDRefresh {
		jobID := ""
		if msg != nil {
			jobID = msg.JobID
		}
		err := fmt.Errorf("gojob: unexpected job %q", jobID)
		if nackErr := delivery.Nack(ctx, j.policy.NormalizeAttempt(queue.NackOptions{
			DeadLetter: true,
			Reason:     err.Error(),
		}, attempt)); nackErr != nil {
			return core.TokenState{}, nackErr
		}
		return core.TokenState{}, err
	}

	tokens, err := j.session.Refresh(ctx)
	if err != nil {
		nack := j.policy.NormalizeAttempt(queue.NackOptions{
			Delay:   j.policy.Backoff(attempt),
			Requeue: true,
			Reason:  err.Error(),
		}, attempt)
		j.observer.Warn(ctx, "gojob: refresh failed", map[string]any{
			"job_id":      msg.JobID,
			"attempt":     attempt,
			"requeue":     nack.Requeue,
			"dead_letter": nack.DeadLetter,
			"error":       err.Error(),
		})
		if nackErr := delivery.Nack(ctx, nack); nackErr != nil {
			return core.TokenState{}, nackErr
		}
		return core.TokenState{}, err
	}
	if err := delivery.Ack(ctx); err != nil {
		return tokens, err
	}
	return tokens, nil
}

// ProcessNext dequeues one delivery and handles it.
func (j *RefreshJob) ProcessNext(ctx context.Context, dequeuer queue.Dequeuer, attempt int) (core.TokenState, error) {
	if dequeuer == nil {
		return core.TokenState{}, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return core.TokenState{}, err
	}
	return j.Handle(ctx, delivery, attempt)
}

// RefreshMessage builds the execution message for a refresh due at
// expiresAt. The idempotency key collapses duplicate schedules for the same
// expiry.
func RefreshMessage(expiresAt time.Time, reason string) *job.ExecutionMessage {
	params := map[string]any{}
	key := JobIDRefresh
	if !expiresAt.IsZero() {
		params[ParamExpiresAt] = expiresAt.UTC().Format(time.RFC3339)
		key = fmt.Sprintf("%s:%d", JobIDRefresh, expiresAt.UTC().Unix())
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		params[ParamReason] = reason
	}
	return &job.ExecutionMessage{
		JobID:          JobIDRefresh,
		ScriptPath:     JobIDRefresh,
		Parameters:     params,
		IdempotencyKey: key,
		DedupPolicy:    job.DeduplicationPolicy(DedupPolicyDrop),
	}
}

// ScheduleRefresh enqueues a refresh when tokens expire within window of
// now. It reports whether a message was enqueued.
func ScheduleRefresh(
	ctx context.Context,
	enqueuer queue.Enqueuer,
	tokens core.TokenState,
	now time.Time,
	window time.Duration,
) (bool, error) {
	if enqueuer == nil {
		return false, fmt.Errorf("gojob: enqueuer is not configured")
	}
	if !tokens.HasRefreshToken() {
		return false, nil
	}
	if window <= 0 {
		window = defaultRefreshWindow
	}
	if !auth.ExpiresWithin(tokens, now, window) {
		return false, nil
	}
	expiresAt, _ := auth.TokenExpiry(tokens)
	if err := enqueuer.Enqueue(ctx, RefreshMessage(expiresAt, "expiring")); err != nil {
		return false, err
	}
	return true, nil
}

// WorkerHookAdapter logs worker lifecycle events through an Observer.
type WorkerHookAdapter struct {
	observer *core.Observer
}

func NewWorkerHookAdapter(observer *core.Observer) *WorkerHookAdapter {
	if observer == nil {
		observer = core.NewObserver(nil, nil)
	}
	return &WorkerHookAdapter{observer: observer}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	a.log(ctx, "debug", "gojob: job started", event)
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	a.log(ctx, "info", "gojob: job succeeded", event)
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	a.log(ctx, "error", "gojob: job failed", event)
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	a.log(ctx, "warn", "gojob: job retrying", event)
}

func (a *WorkerHookAdapter) log(ctx context.Context, level string, message string, event worker.Event) {
	if a == nil || a.observer == nil {
		return
	}
	a.observer.Log(ctx, level, message, eventFields(event))
}

func eventFields(event worker.Event) map[string]any {
	fields := map[string]any{
		"attempt":     event.Attempt,
		"delay_ms":    event.Delay.Milliseconds(),
		"duration_ms": event.Duration.Milliseconds(),
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	if message != nil {
		fields["job_id"] = message.JobID
		fields["idempotency_key"] = message.IdempotencyKey
	}
	if !event.StartedAt.IsZero() {
		fields["started_at"] = event.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}
	return fields
}

var _ worker.Hook = (*WorkerHookAdapter)(nil)
