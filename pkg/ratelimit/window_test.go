package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWindowAdmitsUpToMax(t *testing.T) {
	w := NewWindow(2, 10*time.Second)

	if d := w.Admit(); d != nil {
		t.Fatalf("first call denied: %v", d)
	}
	if d := w.Admit(); d != nil {
		t.Fatalf("second call denied: %v", d)
	}

	d := w.Admit()
	if d == nil {
		t.Fatal("third call within the window should be denied")
	}
	if d.Reason != ReasonLocalWindow {
		t.Errorf("reason = %s, want %s", d.Reason, ReasonLocalWindow)
	}
	// The first admission just happened, so the wait is the whole window
	// minus a few milliseconds.
	if d.RetryAfter > 10*time.Second || d.RetryAfter < 9*time.Second {
		t.Errorf("RetryAfter = %v, want ~10s", d.RetryAfter)
	}
	if w.InFlight() != 2 {
		t.Errorf("InFlight() = %d, want 2", w.InFlight())
	}
}

func TestWindowSlidesForward(t *testing.T) {
	w := NewWindow(1, 100*time.Millisecond)

	if d := w.Admit(); d != nil {
		t.Fatalf("first call denied: %v", d)
	}
	if d := w.Admit(); d == nil {
		t.Fatal("second immediate call should be denied")
	}

	time.Sleep(150 * time.Millisecond)

	if d := w.Admit(); d != nil {
		t.Errorf("call after the window slid should be admitted, got %v", d)
	}
}

func TestWindowConcurrentAdmissionIsExact(t *testing.T) {
	const limit = 50
	w := NewWindow(limit, time.Minute)

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 4*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Admit() == nil {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("admitted %d calls, want exactly %d", admitted, limit)
	}
}

func TestDenialRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		retryAfter time.Duration
		want       int
	}{
		{9500 * time.Millisecond, 9},
		{10 * time.Second, 10},
		{500 * time.Millisecond, 0},
		{0, 0},
		{-time.Second, 0},
	}

	for _, tt := range tests {
		d := &Denial{Reason: ReasonLocalWindow, RetryAfter: tt.retryAfter}
		if got := d.RetryAfterSeconds(); got != tt.want {
			t.Errorf("RetryAfterSeconds(%v) = %d, want %d", tt.retryAfter, got, tt.want)
		}
	}
}
