package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskService manages tasks, which exist mainly to carry checklists.
type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, req models.CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrNameRequired
	}

	task := models.Task{UserID: userID, Title: title}
	if req.DueOn != nil && *req.DueOn != "" {
		due, err := time.Parse(time.DateOnly, *req.DueOn)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, *req.DueOn)
		}
		task.DueOn = &due
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	return deleteParent(ctx, s.db, userID, models.ParentRef{Type: models.ParentTask, ID: taskID}, &models.Task{}, ErrTaskNotFound)
}

// ListService manages free-standing checklists.
type ListService struct {
	db *gorm.DB
}

func NewListService(db *gorm.DB) *ListService {
	return &ListService{db: db}
}

func (s *ListService) List(ctx context.Context, userID uuid.UUID) ([]models.List, error) {
	var lists []models.List
	if err := s.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return lists, nil
}

func (s *ListService) Create(ctx context.Context, userID uuid.UUID, req models.CreateListRequest) (*models.List, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrNameRequired
	}
	list := models.List{UserID: userID, Title: title}
	if err := s.db.WithContext(ctx).Create(&list).Error; err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return &list, nil
}

func (s *ListService) Delete(ctx context.Context, userID, listID uuid.UUID) error {
	return deleteParent(ctx, s.db, userID, models.ParentRef{Type: models.ParentList, ID: listID}, &models.List{}, ErrListNotFound)
}

// deleteParent removes a step parent together with its checklist.
func deleteParent(ctx context.Context, db *gorm.DB, userID uuid.UUID, parent models.ParentRef, model interface{}, missing error) error {
	return withTx(ctx, db, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", parent.ID, userID).Delete(model)
		if res.Error != nil {
			return fmt.Errorf("delete %s: %w", parent.Type, res.Error)
		}
		if res.RowsAffected == 0 {
			return missing
		}
		if err := tx.Where("parent_type = ? AND parent_id = ?", parent.Type, parent.ID).Delete(&models.ChecklistStep{}).Error; err != nil {
			return fmt.Errorf("delete %s steps: %w", parent.Type, err)
		}
		return nil
	})
}
