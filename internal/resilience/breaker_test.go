package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("store", 3, 1, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open state, got %q", cb.State())
	}

	err := cb.Call(func() error {
		t.Fatalf("open breaker must not invoke fn")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerClosesAfterHalfOpenSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("store", 1, 2, 10*time.Millisecond)

	if err := cb.Call(func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("expected failure")
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %q", cb.State())
	}

	time.Sleep(15 * time.Millisecond)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open after timeout, got %q", cb.State())
	}

	// One success is not enough with a threshold of two.
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected still half-open, got %q", cb.State())
	}
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after probes, got %q", cb.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker("store", 1, 2, 10*time.Millisecond)

	if err := cb.Call(func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("expected failure")
	}
	time.Sleep(15 * time.Millisecond)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %q", cb.State())
	}

	if err := cb.Call(func() error { return errors.New("still down") }); err == nil {
		t.Fatalf("expected failure")
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected reopened, got %q", cb.State())
	}
}

func TestBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker("store", 1, 1, time.Minute)
	if err := cb.Call(func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("expected failure")
	}
	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after reset, got %q", cb.State())
	}
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("expected call through reset breaker, got %v", err)
	}
}
