package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hemodilab_backend/platform/logger"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.Discard(), "db", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	err := Do(context.Background(), logger.Discard(), "db", 2, time.Millisecond, func() error {
		return errors.New("refused")
	})
	if err == nil || !strings.Contains(err.Error(), "db: refused") {
		t.Fatalf("expected named last error, got %v", err)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, logger.Discard(), "db", 5, time.Millisecond, func() error {
		calls++
		return errors.New("refused")
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("expected cancellation before any call, got %v after %d calls", err, calls)
	}
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	if err := Do(context.Background(), logger.Discard(), "db", 0, time.Millisecond, func() error { return nil }); err == nil {
		t.Fatal("expected error for zero attempts")
	}
}
