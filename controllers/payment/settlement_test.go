package paymentControllers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFiresAndForgets(t *testing.T) {
	s := NewSettlementScheduler()
	var fired atomic.Int32

	s.Schedule("pay_a", 5*time.Millisecond, func() { fired.Add(1) })
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}

	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired")
		}
		time.Sleep(time.Millisecond)
	}
	// The entry removes itself before the continuation runs.
	for s.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pending = %d after fire, want 0", s.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerCancelStopsTimer(t *testing.T) {
	s := NewSettlementScheduler()
	var fired atomic.Int32

	s.Schedule("pay_a", 20*time.Millisecond, func() { fired.Add(1) })
	if !s.Cancel("pay_a") {
		t.Fatal("cancel reported no timer stopped")
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d after cancel, want 0", s.Pending())
	}

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled timer still fired")
	}
	if s.Cancel("pay_a") {
		t.Error("second cancel reported a stop")
	}
}

func TestSchedulerRescheduleReplaces(t *testing.T) {
	s := NewSettlementScheduler()
	var first, second atomic.Int32

	s.Schedule("pay_a", 20*time.Millisecond, func() { first.Add(1) })
	s.Schedule("pay_a", 5*time.Millisecond, func() { second.Add(1) })
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1 after replace", s.Pending())
	}

	time.Sleep(60 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("replaced timer still fired")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", second.Load())
	}
}

func TestSchedulerIndependentKeys(t *testing.T) {
	s := NewSettlementScheduler()
	var fired atomic.Int32

	s.Schedule("pay_a", 5*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("pay_b", 5*time.Millisecond, func() { fired.Add(1) })
	if s.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", s.Pending())
	}

	deadline := time.Now().Add(time.Second)
	for fired.Load() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("fired = %d, want 2", fired.Load())
		}
		time.Sleep(time.Millisecond)
	}
}
