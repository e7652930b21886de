package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `json:"userId" gorm:"type:uuid;index;not null"`
	Title       string          `json:"title" gorm:"not null"`
	DueOn       *time.Time      `json:"dueOn"`
	Completed   bool            `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time      `json:"completedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
	Steps       []ChecklistStep `json:"steps,omitempty" gorm:"polymorphic:Parent;polymorphicValue:task"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type CreateTaskRequest struct {
	Title string  `json:"title" validate:"required"`
	DueOn *string `json:"dueOn"` // YYYY-MM-DD
}
