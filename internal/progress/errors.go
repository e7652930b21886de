package progress

import "errors"

// Validation errors. Inputs failing these never reach the engine.
var (
	ErrInvalidDailyTarget = errors.New("daily target must be positive")
	ErrInvalidTargetCount = errors.New("target count must be positive for counted goals")
	ErrInvalidGoalType    = errors.New("unknown goal type")
	ErrInvalidAmount      = errors.New("amount must be positive")
)
