package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is either counted (CurrentCount toward TargetCount) or named_steps
// (progress is the share of its checklist steps marked complete).
// Completed and CompletedAt are only ever set by the completion check.
type Goal struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `json:"userId" gorm:"type:uuid;index;not null"`
	Title        string          `json:"title" gorm:"not null"`
	Description  *string         `json:"description"`
	GoalType     string          `json:"goalType" gorm:"not null;default:'counted'"` // counted, named_steps
	TargetCount  int             `json:"targetCount" gorm:"default:0"`
	CurrentCount int             `json:"currentCount" gorm:"default:0"`
	Progress     int             `json:"progress" gorm:"default:0"`
	Completed    bool            `json:"completed" gorm:"default:false"`
	CompletedAt  *time.Time      `json:"completedAt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`
	Steps        []ChecklistStep `json:"steps,omitempty" gorm:"polymorphic:Parent;polymorphicValue:goal"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type CreateGoalRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	GoalType    string  `json:"goalType"`
	TargetCount int     `json:"targetCount"`
}

type UpdateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	TargetCount *int    `json:"targetCount"`
}

type CountChangeRequest struct {
	Amount int `json:"amount"`
}
