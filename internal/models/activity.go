package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity action types
const (
	ActivityGoalCompleted = "goal_completed"
	ActivityGoalReopened  = "goal_reopened"
	ActivityHabitMissed   = "habit_missed"
)

type Activity struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `json:"userId" gorm:"type:uuid;index;not null"`
	ActionType string     `json:"actionType" gorm:"not null"`
	TargetID   *uuid.UUID `json:"targetId" gorm:"type:uuid"` // goal or habit ID depending on action
	Metadata   *string    `json:"metadata"`                  // JSON string for extra context
	CreatedAt  time.Time  `json:"createdAt"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
