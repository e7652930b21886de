package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Habit is a trackable item with a daily numeric target. Streak and vitality
// fields are derived from its completions and written only by the services.
type Habit struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID       `json:"userId" gorm:"type:uuid;index;not null"`
	Name              string          `json:"name" gorm:"not null"`
	Description       *string         `json:"description"`
	DailyTarget       int             `json:"dailyTarget" gorm:"not null;default:1"`
	CurrentStreak     int             `json:"currentStreak" gorm:"default:0"`
	Health            int             `json:"health" gorm:"not null;default:100"`
	LastMissedOn      *time.Time      `json:"lastMissedOn"`
	ConsecutiveMisses int             `json:"consecutiveMisses" gorm:"default:0"`
	MissesThisWeek    int             `json:"missesThisWeek" gorm:"default:0"`
	LastEvaluatedOn   *time.Time      `json:"lastEvaluatedOn"`
	LastHealthCheckAt *time.Time      `json:"lastHealthCheckAt"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt  `json:"-" gorm:"index"`
	Steps             []ChecklistStep `json:"steps,omitempty" gorm:"polymorphic:Parent;polymorphicValue:habit"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// HabitCompletion records the count achieved for a habit on one calendar day.
// HabitID + CompletedOn is unique: writes upsert, they never append.
type HabitCompletion struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	HabitID     uuid.UUID `json:"habitId" gorm:"type:uuid;not null;uniqueIndex:idx_habit_completion_day"`
	CompletedOn time.Time `json:"completedOn" gorm:"not null;uniqueIndex:idx_habit_completion_day"`
	Count       int       `json:"count" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *HabitCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Habit DTOs
type CreateHabitRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	DailyTarget int     `json:"dailyTarget"`
}

type UpdateHabitRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DailyTarget *int    `json:"dailyTarget"`
}

type UpsertCompletionRequest struct {
	Count int `json:"count"`
}

// HabitView is a habit as returned by the API, with its health bucket.
type HabitView struct {
	Habit
	Vitality string `json:"vitality"`
}
