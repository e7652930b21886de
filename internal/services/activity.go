package services

import (
	"context"
	"fmt"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 50
)

// ActivityService reads the user's timeline of completions, reopenings and misses.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns one page of activity, newest first, and the total row count.
// Out of range page and limit values fall back to the first page of 20.
func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Activity, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}

	db := s.db.WithContext(ctx)
	var activities []models.Activity
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}

	var total int64
	if err := db.Model(&models.Activity{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}
	return activities, total, nil
}

func logActivity(tx *gorm.DB, userID uuid.UUID, actionType string, targetID *uuid.UUID, metadata map[string]interface{}) error {
	activity := models.Activity{
		UserID:     userID,
		ActionType: actionType,
		TargetID:   targetID,
		Metadata:   marshalMetadata(metadata),
	}
	if err := tx.Create(&activity).Error; err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}
