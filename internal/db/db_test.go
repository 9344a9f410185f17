package db

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (f *flakyPinger) Ping(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func withFastBackoff(t *testing.T) {
	t.Helper()
	prev := connectBackoff
	connectBackoff = time.Millisecond
	t.Cleanup(func() { connectBackoff = prev })
}

func TestWaitForPingRetries(t *testing.T) {
	withFastBackoff(t)

	p := &flakyPinger{failures: 2}
	if err := waitForPing(context.Background(), p, 5); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
}

func TestWaitForPingGivesUp(t *testing.T) {
	withFastBackoff(t)

	p := &flakyPinger{failures: 10}
	if err := waitForPing(context.Background(), p, 3); err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
}

func TestWaitForPingStopsOnCancel(t *testing.T) {
	prev := connectBackoff
	connectBackoff = time.Hour
	t.Cleanup(func() { connectBackoff = prev })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := waitForPing(ctx, &flakyPinger{failures: 10}, 5); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "::not a url"); err == nil {
		t.Fatal("expected parse error")
	}
}
