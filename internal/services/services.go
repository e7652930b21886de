package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrHabitNotFound  = errors.New("habit not found")
	ErrGoalNotFound   = errors.New("goal not found")
	ErrTaskNotFound   = errors.New("task not found")
	ErrListNotFound   = errors.New("list not found")
	ErrStepNotFound   = errors.New("step not found")
	ErrParentNotFound = errors.New("parent not found")
	ErrInvalidParent  = errors.New("invalid parent type")
	ErrNameRequired   = errors.New("name is required")
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
)

// Options are shared by every service.
type Options struct {
	Clock progress.Clock
	// Location is used for users without a valid stored time zone.
	Location *time.Location
	// StreakScanCap bounds streak walks in days; 0 means unbounded.
	StreakScanCap int
	// MaxCatchUpDays bounds lazy vitality replays; 0 means unbounded.
	MaxCatchUpDays int
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = progress.SystemClock{}
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// userLocation resolves the calendar zone of a user.
func userLocation(tx *gorm.DB, userID uuid.UUID, fallback *time.Location) (*time.Location, error) {
	var user models.User
	if err := tx.Select("id", "timezone").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user.Location(fallback), nil
}

func notFound(err, sentinel error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", what, err)
}

func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
