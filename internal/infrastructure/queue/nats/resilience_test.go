package nats

import (
	"context"
	"fmt"
	"testing"

	"github.com/regtechlab/docrag/internal/core/domain"
	"github.com/nats-io/nats.go"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "nil", err: nil, retryable: false, record: false},
		{name: "context canceled", err: context.Canceled, retryable: false, record: false},
		{name: "no servers", err: nats.ErrNoServers, retryable: true, record: true},
		{name: "timeout", err: nats.ErrTimeout, retryable: true, record: true},
		{name: "slow consumer", err: nats.ErrSlowConsumer, retryable: true, record: true},
		{name: "reconnect buffer exceeded", err: nats.ErrReconnectBufExceeded, retryable: true, record: true},
		{name: "wrapped disconnect", err: fmt.Errorf("publish: %w", nats.ErrDisconnected), retryable: true, record: true},
		{name: "unknown", err: fmt.Errorf("invalid subject"), retryable: false, record: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyNATSError(tc.err)
			if class.Retryable != tc.retryable {
				t.Fatalf("retryable = %v, want %v", class.Retryable, tc.retryable)
			}
			if class.RecordFailure != tc.record {
				t.Fatalf("record = %v, want %v", class.RecordFailure, tc.record)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	wrapped := wrapTemporaryIfNeeded(nats.ErrTimeout)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind for timeout, got %v", wrapped)
	}

	permanent := fmt.Errorf("invalid subject")
	if got := wrapTemporaryIfNeeded(permanent); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("permanent error must not be marked temporary: %v", got)
	}

	already := domain.WrapError(domain.ErrTemporary, "publish ingest event", nats.ErrTimeout)
	if got := wrapTemporaryIfNeeded(already); got != already {
		t.Fatalf("already-wrapped error must pass through unchanged")
	}
}
