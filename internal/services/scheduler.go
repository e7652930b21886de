package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VitalityScheduler periodically catches every habit up to today. Reads
// catch up lazily as well, so the sweep only keeps stored values fresh.
type VitalityScheduler struct {
	mu       sync.RWMutex
	db       *gorm.DB
	habits   *HabitService
	interval time.Duration
	notify   func(userID uuid.UUID)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewVitalityScheduler creates a sweep that runs every interval. notify, if
// set, is called for each user whose habits changed.
func NewVitalityScheduler(db *gorm.DB, habits *HabitService, interval time.Duration, notify func(userID uuid.UUID)) *VitalityScheduler {
	return &VitalityScheduler{
		db:       db,
		habits:   habits,
		interval: interval,
		notify:   notify,
	}
}

// Start begins the sweep loop. It is a no-op when the interval is not positive.
func (s *VitalityScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		logger.Info("vitality sweep disabled")
		return
	}

	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					logger.Error("vitality sweep failed", "err", err)
				}
			}
		}
	}()
	logger.Info("vitality sweep started", "interval", s.interval)
}

// Stop gracefully stops the scheduler.
func (s *VitalityScheduler) Stop() {
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

// Sweep runs one pass over all users and returns how many habits changed.
// A failure for one user is logged and does not stop the pass.
func (s *VitalityScheduler) Sweep(ctx context.Context) (int, error) {
	var userIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	start := time.Now()
	total := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		changed, err := s.habits.SweepUser(ctx, userID)
		if err != nil {
			logger.Warn("vitality sweep for user failed", "user", userID, "err", err)
		}
		if changed > 0 && s.notify != nil {
			s.notify(userID)
		}
		total += changed
	}
	logger.Debug("vitality sweep done", "users", len(userIDs), "changed", total, "took", time.Since(start))
	return total, nil
}
