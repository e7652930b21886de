package progress

import (
	"fmt"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
)

type GoalType string

const (
	GoalCounted    GoalType = "counted"
	GoalNamedSteps GoalType = "named_steps"
)

// ParseGoalType accepts the stored goal type names. An empty string means counted.
func ParseGoalType(s string) (GoalType, error) {
	switch GoalType(s) {
	case "", GoalCounted:
		return GoalCounted, nil
	case GoalNamedSteps:
		return GoalNamedSteps, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGoalType, s)
}

// ValidateGoal checks the fields a goal must have before the engine sees it.
func ValidateGoal(t GoalType, targetCount int) error {
	switch t {
	case GoalCounted:
		if targetCount <= 0 {
			return ErrInvalidTargetCount
		}
	case GoalNamedSteps:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGoalType, t)
	}
	return nil
}

// GoalState is everything progress and completion depend on.
type GoalState struct {
	Type           GoalType
	CurrentCount   int
	TargetCount    int
	StepsCompleted int
	StepsTotal     int
	Completed      bool
	CompletedAt    *time.Time
}

// GoalPercent returns completion as a whole percentage in [0, 100].
func GoalPercent(g GoalState) int {
	g = normalizeGoal(g)
	switch g.Type {
	case GoalCounted:
		return percent(g.CurrentCount, g.TargetCount)
	case GoalNamedSteps:
		return percent(g.StepsCompleted, g.StepsTotal)
	}
	return 0
}

// percent rounds done/total*100 half up, capped at 100. A zero total is 0%.
func percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	return min((done*200+total)/(2*total), 100)
}

// EvaluateCompletion applies the open/complete transition for g's progress.
// completedAt is set to now only on open→complete and cleared on reopen.
func EvaluateCompletion(g GoalState, now time.Time) GoalState {
	g = normalizeGoal(g)

	var reached, known bool
	switch g.Type {
	case GoalCounted:
		known = g.TargetCount > 0
		reached = g.CurrentCount >= g.TargetCount
	case GoalNamedSteps:
		// an empty checklist neither completes nor reopens a goal
		known = g.StepsTotal > 0
		reached = g.StepsCompleted >= g.StepsTotal
	}
	if !known {
		return g
	}

	switch {
	case reached && !g.Completed:
		completedAt := now
		g.Completed = true
		g.CompletedAt = &completedAt
	case !reached && g.Completed:
		g.Completed = false
		g.CompletedAt = nil
	}
	return g
}

// Increment adds amount to a counted goal, capped at its target, and
// re-evaluates completion.
func Increment(g GoalState, amount int, now time.Time) (GoalState, error) {
	if err := checkCountChange(g, amount); err != nil {
		return g, err
	}
	g = normalizeGoal(g)
	g.CurrentCount = min(g.CurrentCount+amount, g.TargetCount)
	return EvaluateCompletion(g, now), nil
}

// Decrement subtracts amount from a counted goal, floored at zero, and
// re-evaluates completion.
func Decrement(g GoalState, amount int, now time.Time) (GoalState, error) {
	if err := checkCountChange(g, amount); err != nil {
		return g, err
	}
	g = normalizeGoal(g)
	g.CurrentCount = max(g.CurrentCount-amount, 0)
	return EvaluateCompletion(g, now), nil
}

func checkCountChange(g GoalState, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if g.Type != GoalCounted {
		return fmt.Errorf("%w: only counted goals track a count", ErrInvalidGoalType)
	}
	return ValidateGoal(g.Type, g.TargetCount)
}

func normalizeGoal(g GoalState) GoalState {
	if g.Type == GoalCounted && g.TargetCount > 0 {
		if g.CurrentCount < 0 || g.CurrentCount > g.TargetCount {
			logger.Warn("goal count out of range, clamping", "current", g.CurrentCount, "target", g.TargetCount)
			g.CurrentCount = min(max(g.CurrentCount, 0), g.TargetCount)
		}
	}
	if g.CurrentCount < 0 {
		logger.Warn("negative goal count, clamping", "current", g.CurrentCount)
		g.CurrentCount = 0
	}
	if g.StepsTotal < 0 {
		g.StepsTotal = 0
	}
	if g.StepsCompleted < 0 {
		g.StepsCompleted = 0
	}
	if g.StepsCompleted > g.StepsTotal {
		logger.Warn("more completed steps than steps, clamping", "completed", g.StepsCompleted, "total", g.StepsTotal)
		g.StepsCompleted = g.StepsTotal
	}
	return g
}
