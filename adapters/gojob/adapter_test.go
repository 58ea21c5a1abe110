package gojob

import (
	"context"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"

	"github.com/vladracs/prismasase/core"
)

type capturingEnqueuer struct {
	messages []*job.ExecutionMessage
}

func (c *capturingEnqueuer) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	c.messages = append(c.messages, msg)
	return nil
}

func TestEnqueuerAdapter_MapsAndForwards(t *testing.T) {
	sink := &capturingEnqueuer{}
	adapter := NewEnqueuerAdapter(sink)

	err := adapter.Enqueue(context.Background(), &core.JobExecutionMessage{
		JobID:          "  " + JobIDTransitionNotify + "  ",
		Parameters:     map[string]any{"run_id": "run-1"},
		IdempotencyKey: "notify:run-1",
		DedupPolicy:    "drop",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(sink.messages) != 1 {
		t.Fatalf("expected one forwarded message, got %d", len(sink.messages))
	}
	forwarded := sink.messages[0]
	if forwarded.JobID != JobIDTransitionNotify {
		t.Fatalf("expected trimmed job id, got %q", forwarded.JobID)
	}
	if forwarded.Parameters["run_id"] != "run-1" {
		t.Fatalf("parameters not carried: %#v", forwarded.Parameters)
	}
	if forwarded.DedupPolicy != job.DeduplicationPolicy("drop") {
		t.Fatalf("unexpected dedup policy %q", forwarded.DedupPolicy)
	}
}

func TestEnqueuerAdapter_RejectsMissingPieces(t *testing.T) {
	adapter := NewEnqueuerAdapter(nil)
	if err := adapter.Enqueue(context.Background(), &core.JobExecutionMessage{JobID: JobIDStatusSweep}); err == nil {
		t.Fatalf("expected unconfigured enqueuer error")
	}

	adapter = NewEnqueuerAdapter(&capturingEnqueuer{})
	if err := adapter.Enqueue(context.Background(), nil); err == nil {
		t.Fatalf("expected nil message error")
	}
	if err := adapter.Enqueue(context.Background(), &core.JobExecutionMessage{}); err == nil {
		t.Fatalf("expected missing job id error")
	}
}

func TestRetryPolicy_NormalizeAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: time.Minute, DeadLetterOnMax: true}

	out := policy.NormalizeAttempt(queue.NackOptions{Delay: 5 * time.Minute, Requeue: true, Reason: " transient "}, 1)
	if out.Delay != time.Minute {
		t.Fatalf("expected delay clamped to a minute, got %v", out.Delay)
	}
	if !out.Requeue || out.DeadLetter {
		t.Fatalf("early attempts should requeue, got %+v", out)
	}
	if out.Reason != "transient" {
		t.Fatalf("expected trimmed reason, got %q", out.Reason)
	}

	out = policy.NormalizeAttempt(queue.NackOptions{Requeue: true}, 3)
	if out.Requeue || !out.DeadLetter {
		t.Fatalf("exhausted attempts should dead-letter, got %+v", out)
	}

	out = RetryPolicy{}.NormalizeAttempt(queue.NackOptions{Delay: -time.Second}, 0)
	if out.Delay != 0 || !out.Requeue {
		t.Fatalf("expected non-negative delay with requeue fallback, got %+v", out)
	}
}

func TestExecutionMessageRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          JobIDSnapshotPrune,
		Parameters:     map[string]any{"ttl": "24h"},
		IdempotencyKey: "prune:2026-08-23",
		DedupPolicy:    "replace",
	}
	back := FromExecutionMessage(ToExecutionMessage(original))
	if back.JobID != original.JobID || back.IdempotencyKey != original.IdempotencyKey || back.DedupPolicy != original.DedupPolicy {
		t.Fatalf("round trip mangled message: %#v", back)
	}
	if ToExecutionMessage(nil) != nil || FromExecutionMessage(nil) != nil {
		t.Fatalf("nil messages must map to nil")
	}
}
