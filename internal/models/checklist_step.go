package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Parent kinds a checklist step can belong to.
const (
	ParentGoal  = "goal"
	ParentTask  = "task"
	ParentHabit = "habit"
	ParentList  = "list"
)

// ChecklistStep is one named step under a goal, task, habit or list.
// Steps are ordered by Position, ties broken by creation time.
type ChecklistStep struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ParentType  string         `json:"parentType" gorm:"not null;index:idx_step_parent"`
	ParentID    uuid.UUID      `json:"parentId" gorm:"type:uuid;not null;index:idx_step_parent"`
	Name        string         `json:"name" gorm:"not null"`
	Completed   bool           `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time     `json:"completedAt"`
	Position    int            `json:"position" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (s *ChecklistStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ParentRef names the record a step belongs to.
type ParentRef struct {
	Type string
	ID   uuid.UUID
}

// ValidParentType reports whether t is a known parent kind.
func ValidParentType(t string) bool {
	switch t {
	case ParentGoal, ParentTask, ParentHabit, ParentList:
		return true
	}
	return false
}

// ChecklistStep DTOs
type CreateStepRequest struct {
	Name      string `json:"name" validate:"required"`
	Completed bool   `json:"completed"`
}

type UpdateStepRequest struct {
	Name      *string `json:"name"`
	Completed *bool   `json:"completed"`
	Position  *int    `json:"position"`
}

type ReorderStepsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}
