package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GoalService owns goals and keeps their cached progress and completion in
// step with their count or checklist.
type GoalService struct {
	db   *gorm.DB
	opts Options
}

func NewGoalService(db *gorm.DB, opts Options) *GoalService {
	return &GoalService{db: db, opts: opts.withDefaults()}
}

func (s *GoalService) List(ctx context.Context, userID uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	if err := s.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Get(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error; err != nil {
		return nil, notFound(err, ErrGoalNotFound, "find goal")
	}
	return &goal, nil
}

func (s *GoalService) Create(ctx context.Context, userID uuid.UUID, req models.CreateGoalRequest) (*models.Goal, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrNameRequired
	}
	goalType, err := progress.ParseGoalType(req.GoalType)
	if err != nil {
		return nil, err
	}
	if err := progress.ValidateGoal(goalType, req.TargetCount); err != nil {
		return nil, err
	}

	goal := models.Goal{
		UserID:      userID,
		Title:       title,
		Description: req.Description,
		GoalType:    string(goalType),
	}
	if goalType == progress.GoalCounted {
		goal.TargetCount = req.TargetCount
	}
	if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &goal, nil
}

// Update edits a goal. Changing a counted goal's target re-runs the
// completion check against the current count.
func (s *GoalService) Update(ctx context.Context, userID, goalID uuid.UUID, req models.UpdateGoalRequest) (*models.Goal, error) {
	var goal *models.Goal
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if goal, err = lockGoal(tx, userID, goalID); err != nil {
			return err
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return ErrNameRequired
			}
			goal.Title = title
		}
		if req.Description != nil {
			goal.Description = req.Description
		}
		targetChanged := false
		if req.TargetCount != nil && *req.TargetCount != goal.TargetCount {
			goalType, err := progress.ParseGoalType(goal.GoalType)
			if err != nil {
				return err
			}
			if goalType != progress.GoalCounted {
				return fmt.Errorf("%w: only counted goals have a target", progress.ErrInvalidGoalType)
			}
			if err := progress.ValidateGoal(goalType, *req.TargetCount); err != nil {
				return err
			}
			goal.TargetCount = *req.TargetCount
			targetChanged = true
		}

		if err := tx.Model(&models.Goal{}).Where("id = ?", goal.ID).Updates(map[string]interface{}{
			"title":        goal.Title,
			"description":  goal.Description,
			"target_count": goal.TargetCount,
		}).Error; err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		if targetChanged {
			return evaluateGoal(tx, goal, s.opts.Clock)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, goal.ID)
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID uuid.UUID) error {
	return withTx(ctx, s.db, func(tx *gorm.DB) error {
		goal, err := lockGoal(tx, userID, goalID)
		if err != nil {
			return err
		}
		if err := tx.Where("parent_type = ? AND parent_id = ?", models.ParentGoal, goal.ID).Delete(&models.ChecklistStep{}).Error; err != nil {
			return fmt.Errorf("delete goal steps: %w", err)
		}
		if err := tx.Delete(goal).Error; err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		return nil
	})
}

// Increment adds amount to a counted goal's count, capped at its target.
func (s *GoalService) Increment(ctx context.Context, userID, goalID uuid.UUID, amount int) (*models.Goal, error) {
	return s.changeCount(ctx, userID, goalID, amount, progress.Increment)
}

// Decrement subtracts amount from a counted goal's count, floored at zero.
func (s *GoalService) Decrement(ctx context.Context, userID, goalID uuid.UUID, amount int) (*models.Goal, error) {
	return s.changeCount(ctx, userID, goalID, amount, progress.Decrement)
}

type countChange func(g progress.GoalState, amount int, now time.Time) (progress.GoalState, error)

func (s *GoalService) changeCount(ctx context.Context, userID, goalID uuid.UUID, amount int, change countChange) (*models.Goal, error) {
	var goal *models.Goal
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if goal, err = lockGoal(tx, userID, goalID); err != nil {
			return err
		}
		state, err := goalState(tx, goal)
		if err != nil {
			return err
		}
		next, err := change(state, amount, s.opts.Clock.Now())
		if err != nil {
			return err
		}
		return saveGoalState(tx, goal, state, next)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// orderSteps is the checklist order: position, then creation time.
func orderSteps(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}

// lockGoal loads a goal for update within tx.
func lockGoal(tx *gorm.DB, userID, goalID uuid.UUID) (*models.Goal, error) {
	var goal models.Goal
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error; err != nil {
		return nil, notFound(err, ErrGoalNotFound, "find goal")
	}
	return &goal, nil
}

// goalState reads everything the completion check needs, counting the
// goal's steps fresh from the database.
func goalState(tx *gorm.DB, goal *models.Goal) (progress.GoalState, error) {
	goalType, err := progress.ParseGoalType(goal.GoalType)
	if err != nil {
		return progress.GoalState{}, err
	}
	state := progress.GoalState{
		Type:         goalType,
		CurrentCount: goal.CurrentCount,
		TargetCount:  goal.TargetCount,
		Completed:    goal.Completed,
		CompletedAt:  goal.CompletedAt,
	}
	if goalType != progress.GoalNamedSteps {
		return state, nil
	}

	var total, done int64
	if err := tx.Model(&models.ChecklistStep{}).
		Where("parent_type = ? AND parent_id = ?", models.ParentGoal, goal.ID).
		Count(&total).Error; err != nil {
		return state, fmt.Errorf("count steps: %w", err)
	}
	if err := tx.Model(&models.ChecklistStep{}).
		Where("parent_type = ? AND parent_id = ? AND completed = ?", models.ParentGoal, goal.ID, true).
		Count(&done).Error; err != nil {
		return state, fmt.Errorf("count completed steps: %w", err)
	}
	state.StepsTotal = int(total)
	state.StepsCompleted = int(done)
	return state, nil
}

// evaluateGoal re-runs the completion check for goal and saves the result.
func evaluateGoal(tx *gorm.DB, goal *models.Goal, clock progress.Clock) error {
	state, err := goalState(tx, goal)
	if err != nil {
		return err
	}
	return saveGoalState(tx, goal, state, progress.EvaluateCompletion(state, clock.Now()))
}

// saveGoalState persists next onto goal and records a completion or reopen
// in the activity feed when the state flipped.
func saveGoalState(tx *gorm.DB, goal *models.Goal, prev, next progress.GoalState) error {
	goal.CurrentCount = next.CurrentCount
	goal.Progress = progress.GoalPercent(next)
	goal.Completed = next.Completed
	goal.CompletedAt = next.CompletedAt

	if err := tx.Model(&models.Goal{}).Where("id = ?", goal.ID).Updates(map[string]interface{}{
		"current_count": goal.CurrentCount,
		"progress":      goal.Progress,
		"completed":     goal.Completed,
		"completed_at":  goal.CompletedAt,
	}).Error; err != nil {
		return fmt.Errorf("save goal progress: %w", err)
	}

	if prev.Completed == next.Completed {
		return nil
	}
	action := models.ActivityGoalCompleted
	if !next.Completed {
		action = models.ActivityGoalReopened
	}
	logger.Info("goal "+strings.TrimPrefix(action, "goal_"), "goal", goal.ID, "progress", goal.Progress)
	return logActivity(tx, goal.UserID, action, &goal.ID, map[string]interface{}{
		"goalTitle": goal.Title,
		"progress":  goal.Progress,
	})
}
