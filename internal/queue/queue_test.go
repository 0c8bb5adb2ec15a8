package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{12, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "refused", err: errors.New("dial AMQP: connection refused"), expected: true},
		{name: "closed channel", err: errors.New("message channel closed"), expected: true},
		{name: "EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "access refused", err: errors.New("Exception (403) Reason: ACCESS_REFUSED"), expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	body, err := NewReceiptJob("b1", "u1", "receipts/u1/b1-1.png", "file:///r.png").ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	t.Run("handled job is acked", func(t *testing.T) {
		var got *ReceiptJob
		ack := &fakeAck{}
		settle(ctx, body, ack, func(_ context.Context, job *ReceiptJob) error {
			got = job
			return nil
		})
		if !ack.acked || ack.nacked {
			t.Errorf("ack = %+v, want acked", ack)
		}
		if got == nil || got.BillID != "b1" || got.ReceiptKey != "receipts/u1/b1-1.png" {
			t.Errorf("job = %+v", got)
		}
	})

	t.Run("failed job is requeued", func(t *testing.T) {
		ack := &fakeAck{}
		settle(ctx, body, ack, func(context.Context, *ReceiptJob) error { return errors.New("ocr down") })
		if !ack.nacked || !ack.requeued {
			t.Errorf("ack = %+v, want nack with requeue", ack)
		}
	})

	t.Run("malformed message is dropped", func(t *testing.T) {
		ack := &fakeAck{}
		settle(ctx, []byte("{not json"), ack, func(context.Context, *ReceiptJob) error {
			t.Error("handler should not run")
			return nil
		})
		if !ack.nacked || ack.requeued {
			t.Errorf("ack = %+v, want nack without requeue", ack)
		}
	})
}

func TestConsumeWithReconnect_StopsOnConfigError(t *testing.T) {
	want := errors.New("Exception (403) Reason: ACCESS_REFUSED")
	calls := 0
	err := ConsumeWithReconnect(context.Background(), func() (*Client, error) {
		calls++
		return nil, want
	}, nil)
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("dial called %d times, want 1", calls)
	}
}
