package paymentControllers

import (
	"sync"
	"time"
)

// SettlementScheduler tracks the delayed settlement continuation for each
// payment so that a later cancellation can suppress it. One timer per payment
// id; scheduling again replaces the previous timer.
type SettlementScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewSettlementScheduler() *SettlementScheduler {
	return &SettlementScheduler{timers: make(map[string]*time.Timer)}
}

// Schedule runs fn after delay, keyed by paymentID. The timer removes itself
// from the registry before fn runs.
func (s *SettlementScheduler) Schedule(paymentID string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[paymentID]; ok {
		old.Stop()
	}
	s.timers[paymentID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, paymentID)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops any pending continuation for paymentID. Returns whether a
// timer was actually stopped before firing.
func (s *SettlementScheduler) Cancel(paymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[paymentID]
	if !ok {
		return false
	}
	delete(s.timers, paymentID)
	return timer.Stop()
}

// Pending returns the number of continuations currently scheduled.
func (s *SettlementScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
