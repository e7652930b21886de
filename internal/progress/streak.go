package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/google/uuid"
)

// Entry is one ledger row: the count achieved on one calendar day.
type Entry struct {
	Date  time.Time
	Count int
}

// Ledger reads completion entries. A nil entry with a nil error means the
// day has no progress, which is the normal miss case.
type Ledger interface {
	FindEntry(ctx context.Context, itemID uuid.UUID, date time.Time) (*Entry, error)
}

// Item identifies a trackable item and carries the state the engine reads.
type Item struct {
	ID          uuid.UUID
	DailyTarget int
	CreatedAt   time.Time
	Vitality    VitalityState
}

func (it Item) target() int {
	if it.DailyTarget < 1 {
		logger.Warn("daily target below 1, treating as 1", "item", it.ID, "dailyTarget", it.DailyTarget)
		return 1
	}
	return it.DailyTarget
}

// MetOn reports whether the item's daily target was reached on day.
func MetOn(ctx context.Context, ledger Ledger, item Item, day time.Time) (bool, error) {
	entry, err := ledger.FindEntry(ctx, item.ID, DateOf(day))
	if err != nil {
		return false, fmt.Errorf("find entry: %w", err)
	}
	return entry != nil && entry.Count >= item.target(), nil
}

// ComputeStreak counts consecutive days, walking backward from ref, on which
// the item met its daily target. It stops at the first day that was missed.
//
// The walk is O(streak length). limit caps it in days; limit <= 0 leaves it
// bounded only by ledger history.
func ComputeStreak(ctx context.Context, ledger Ledger, item Item, ref time.Time, limit int) (int, error) {
	day := DateOf(ref)
	streak := 0
	for limit <= 0 || streak < limit {
		met, err := MetOn(ctx, ledger, item, day)
		if err != nil {
			return streak, err
		}
		if !met {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
