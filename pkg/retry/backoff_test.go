package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Base: 10 * time.Millisecond, Max: 35 * time.Millisecond}
	if b.Next(0) != 10*time.Millisecond || b.Next(2) != 20*time.Millisecond {
		t.Fatalf("unexpected delays %v %v", b.Next(0), b.Next(2))
	}
	if b.Next(5) != 35*time.Millisecond {
		t.Fatalf("expected cap, got %v", b.Next(5))
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, ExponentialBackoff{Base: time.Millisecond}, nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %v after %d", err, calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad token")
	calls := 0
	err := Do(context.Background(), 5, ExponentialBackoff{Base: time.Millisecond}, func(err error) bool {
		return !errors.Is(err, permanent)
	}, func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected single attempt, got %d (%v)", calls, err)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, 3, ExponentialBackoff{Base: time.Second}, nil, func(context.Context) error {
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
