package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func quietSpinner(ctx context.Context) *Spinner {
	s := newSpinnerWithContext(ctx, "working")
	s.w = &bytes.Buffer{}
	return s
}

func TestSpinnerStop(t *testing.T) {
	s := quietSpinner(context.Background())
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := quietSpinner(context.Background())
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s := quietSpinner(context.Background())
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := quietSpinner(ctx)
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpin(t *testing.T) {
	if err := spin(context.Background(), "rendering", "done", func() error { return nil }); err != nil {
		t.Fatalf("spin() error = %v", err)
	}

	boom := errors.New("boom")
	if err := spin(context.Background(), "rendering", "done", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("spin() error = %v, want %v", err, boom)
	}
}
