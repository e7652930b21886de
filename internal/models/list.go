package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// List is a named checklist with no completion semantics of its own.
type List struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `json:"userId" gorm:"type:uuid;index;not null"`
	Title     string          `json:"title" gorm:"not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
	Steps     []ChecklistStep `json:"steps,omitempty" gorm:"polymorphic:Parent;polymorphicValue:list"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type CreateListRequest struct {
	Title string `json:"title" validate:"required"`
}
