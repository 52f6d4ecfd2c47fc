// Package scheduler runs the periodic background work: paying due
// allowances and sweeping expired notifications.
package scheduler

import (
	"context"
	"sync"
	"time"

	"famledger/internal/logger"
	"famledger/internal/services"
)

// Scheduler periodically processes due allowance payments and deletes
// expired notifications.
type Scheduler struct {
	mu                  sync.RWMutex
	allowanceService    services.AllowanceServicer
	notificationService services.NotificationServicer
	interval            time.Duration
	cancel              context.CancelFunc
	done                chan struct{}
}

// New creates a scheduler ticking at the given interval.
func New(allowanceService services.AllowanceServicer, notificationService services.NotificationServicer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		allowanceService:    allowanceService,
		notificationService: notificationService,
		interval:            interval,
	}
}

// Start begins the scheduler loop. An initial tick runs immediately so
// payments that came due while the service was down are not delayed by
// a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	paid, err := s.allowanceService.ProcessDuePayments()
	if err != nil {
		logger.Get().Errorw("scheduler: process due allowances", "error", err)
	} else if paid > 0 {
		logger.Get().Infow("scheduler: allowances paid", "count", paid)
	}

	deleted, err := s.notificationService.DeleteExpired()
	if err != nil {
		logger.Get().Errorw("scheduler: sweep expired notifications", "error", err)
	} else if deleted > 0 {
		logger.Get().Infow("scheduler: expired notifications deleted", "count", deleted)
	}
}
