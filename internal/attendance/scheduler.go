package attendance

import (
	"context"
	"log"
	"time"
)

// Scheduler owns the daily rollover timer. It fires once at every midnight
// in the configured location. Exactly one scheduler may be active per
// deployment; running two double-counts the day, and nothing in here can
// detect a second instance.
type Scheduler struct {
	svc        *Service
	loc        *time.Location
	runTimeout time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(svc *Service, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		svc:        svc,
		loc:        loc,
		runTimeout: 5 * time.Minute,
	}
}

// Start launches the timer goroutine. It returns immediately; the first run
// happens at the next midnight boundary.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop cancels the timer and waits for the goroutine to exit. A run already
// in flight completes or fails on its own timeout.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	for {
		next := nextMidnight(time.Now().In(s.loc), s.loc)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
		if _, err := s.svc.Rollover(runCtx); err != nil {
			log.Printf("rollover run failed: %v", err)
		}
		cancel()
	}
}

// nextMidnight returns the first midnight in loc strictly after now.
func nextMidnight(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, 1)
}
