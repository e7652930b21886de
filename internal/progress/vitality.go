package progress

import (
	"context"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
)

const (
	MinHealth = 0
	MaxHealth = 100

	// RecoveryPoints is the flat health gain for a met day.
	RecoveryPoints = 12

	firstMissPenalty      = 10
	repeatWeekMissPenalty = 20
	secondInRowPenalty    = 30
	thirdInRowPenalty     = 40
)

// VitalityState is the persisted part of an item's health tracking.
type VitalityState struct {
	Health            int
	ConsecutiveMisses int
	MissesThisWeek    int
	LastMissedOn      *time.Time
	// LastEvaluatedOn is the idempotency key: the day the last evaluation ran for.
	LastEvaluatedOn *time.Time
	// LastCheckAt is advisory and never read by any decision.
	LastCheckAt *time.Time
}

// DailyOutcome is the input to one evaluation cycle.
type DailyOutcome struct {
	// Today is the day the evaluation runs on. It judges the day before.
	Today        time.Time
	YesterdayMet bool
}

// Transition applies one evaluation cycle to s.
//
// A met yesterday clears the miss chain and recovers RecoveryPoints of health.
// A missed yesterday is recorded at most once per date; its penalty grows with
// the length of the consecutive miss chain (30, 40, then everything) or, for a
// repeat non-consecutive miss in the same week, is 20. A first miss costs 10.
// On the first day of the week the weekly miss counter resets afterwards.
func Transition(s VitalityState, o DailyOutcome) VitalityState {
	s = sanitize(s)
	today := DateOf(o.Today)
	yesterday := today.AddDate(0, 0, -1)

	switch {
	case o.YesterdayMet:
		s.ConsecutiveMisses = 0
		s.LastMissedOn = nil
		if s.Health < MaxHealth {
			s.Health = clampHealth(s.Health + RecoveryPoints)
		}
	case s.LastMissedOn != nil && SameDay(*s.LastMissedOn, yesterday):
		// already recorded
	default:
		consecutive := s.LastMissedOn != nil && SameDay(*s.LastMissedOn, yesterday.AddDate(0, 0, -1))
		s.Health = clampHealth(s.Health - missPenalty(consecutive, s.ConsecutiveMisses, s.MissesThisWeek))
		if consecutive {
			s.ConsecutiveMisses++
		} else {
			s.ConsecutiveMisses = 1
		}
		s.MissesThisWeek++
		s.LastMissedOn = &yesterday
	}

	if IsWeekStart(today) {
		s.MissesThisWeek = 0
	}
	return s
}

func missPenalty(consecutive bool, consecutiveMisses, missesThisWeek int) int {
	if consecutive {
		switch n := consecutiveMisses + 1; {
		case n >= 4:
			return MaxHealth
		case n == 3:
			return thirdInRowPenalty
		case n == 2:
			return secondInRowPenalty
		}
		// a chain with no recorded misses falls through to the weekly rules
	}
	if missesThisWeek >= 1 {
		return repeatWeekMissPenalty
	}
	return firstMissPenalty
}

// EvaluateVitality runs the evaluation cycle for the calendar day of at.
// It is a no-op when that day was already evaluated.
func EvaluateVitality(ctx context.Context, ledger Ledger, item Item, at time.Time) (VitalityState, error) {
	today := DateOf(at)
	if last := item.Vitality.LastEvaluatedOn; last != nil && !DateOf(*last).Before(today) {
		return item.Vitality, nil
	}
	return evaluateDay(ctx, ledger, item, today, at)
}

// CatchUp replays every evaluation cycle the item has not had yet, up to and
// including the calendar day of at. Days before the item existed are never
// judged. maxDays > 0 bounds the replay to the most recent maxDays cycles.
// It returns the new state and the number of cycles applied.
func CatchUp(ctx context.Context, ledger Ledger, item Item, at time.Time, maxDays int) (VitalityState, int, error) {
	today := DateOf(at)
	first := today
	if !item.CreatedAt.IsZero() {
		first = DateOf(item.CreatedAt).AddDate(0, 0, 1)
	}
	if last := item.Vitality.LastEvaluatedOn; last != nil {
		if next := DateOf(*last).AddDate(0, 0, 1); next.After(first) {
			first = next
		}
	}
	if maxDays > 0 {
		if floor := today.AddDate(0, 0, -(maxDays - 1)); first.Before(floor) {
			logger.Debug("vitality catch-up truncated", "item", item.ID, "from", first.Format(time.DateOnly), "to", floor.Format(time.DateOnly))
			first = floor
		}
	}

	applied := 0
	for day := first; !day.After(today); day = day.AddDate(0, 0, 1) {
		next, err := evaluateDay(ctx, ledger, item, day, at)
		if err != nil {
			return item.Vitality, applied, err
		}
		item.Vitality = next
		applied++
	}
	return item.Vitality, applied, nil
}

func evaluateDay(ctx context.Context, ledger Ledger, item Item, day, at time.Time) (VitalityState, error) {
	met, err := MetOn(ctx, ledger, item, day.AddDate(0, 0, -1))
	if err != nil {
		return item.Vitality, err
	}
	next := Transition(item.Vitality, DailyOutcome{Today: day, YesterdayMet: met})
	next.LastEvaluatedOn = &day
	checkedAt := at
	next.LastCheckAt = &checkedAt
	return next, nil
}

func sanitize(s VitalityState) VitalityState {
	if s.Health < MinHealth || s.Health > MaxHealth {
		logger.Warn("health out of range, clamping", "health", s.Health)
		s.Health = clampHealth(s.Health)
	}
	if s.ConsecutiveMisses < 0 {
		logger.Warn("negative consecutive misses, resetting", "consecutiveMisses", s.ConsecutiveMisses)
		s.ConsecutiveMisses = 0
	}
	if s.MissesThisWeek < 0 {
		logger.Warn("negative weekly misses, resetting", "missesThisWeek", s.MissesThisWeek)
		s.MissesThisWeek = 0
	}
	return s
}

func clampHealth(h int) int {
	return min(max(h, MinHealth), MaxHealth)
}

// Bucket is a read-only classification of a health score.
type Bucket string

const (
	Thriving   Bucket = "thriving"
	Steady     Bucket = "steady"
	Struggling Bucket = "struggling"
	Critical   Bucket = "critical"
)

// Classify maps a health score to its bucket.
func Classify(health int) Bucket {
	switch {
	case health >= 80:
		return Thriving
	case health >= 50:
		return Steady
	case health >= 25:
		return Struggling
	default:
		return Critical
	}
}
