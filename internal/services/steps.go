package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StepChange is the result of a checklist mutation. Goal is set when the
// step belongs to a goal and carries the re-evaluated goal.
type StepChange struct {
	Step *models.ChecklistStep `json:"step,omitempty"`
	Goal *models.Goal          `json:"goal,omitempty"`
}

// StepService edits checklist steps. Every mutation under a goal re-runs the
// goal's completion check in the same transaction.
type StepService struct {
	db   *gorm.DB
	opts Options
}

func NewStepService(db *gorm.DB, opts Options) *StepService {
	return &StepService{db: db, opts: opts.withDefaults()}
}

// List returns the parent's steps in checklist order.
func (s *StepService) List(ctx context.Context, userID uuid.UUID, parent models.ParentRef) ([]models.ChecklistStep, error) {
	tx := s.db.WithContext(ctx)
	if _, err := ensureParent(tx, userID, parent); err != nil {
		return nil, err
	}
	return siblings(tx, parent)
}

// Create appends a step to the end of the parent's checklist.
func (s *StepService) Create(ctx context.Context, userID uuid.UUID, parent models.ParentRef, req models.CreateStepRequest) (*StepChange, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	return s.mutate(ctx, userID, parent, func(tx *gorm.DB) (*models.ChecklistStep, error) {
		var last int
		if err := tx.Model(&models.ChecklistStep{}).
			Where("parent_type = ? AND parent_id = ?", parent.Type, parent.ID).
			Select("COALESCE(MAX(position), -1)").
			Scan(&last).Error; err != nil {
			return nil, fmt.Errorf("find last position: %w", err)
		}

		step := models.ChecklistStep{
			ParentType: parent.Type,
			ParentID:   parent.ID,
			Name:       name,
			Position:   last + 1,
		}
		s.setCompleted(&step, req.Completed)
		if err := tx.Create(&step).Error; err != nil {
			return nil, fmt.Errorf("create step: %w", err)
		}
		return &step, nil
	})
}

// Update renames, completes or moves a step.
func (s *StepService) Update(ctx context.Context, userID uuid.UUID, parent models.ParentRef, stepID uuid.UUID, req models.UpdateStepRequest) (*StepChange, error) {
	return s.mutate(ctx, userID, parent, func(tx *gorm.DB) (*models.ChecklistStep, error) {
		step, err := loadStep(tx, parent, stepID)
		if err != nil {
			return nil, err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return nil, ErrNameRequired
			}
			step.Name = name
		}
		if req.Completed != nil {
			s.setCompleted(step, *req.Completed)
		}
		if err := saveStep(tx, step); err != nil {
			return nil, err
		}

		if req.Position != nil {
			if err := moveStep(tx, parent, step, *req.Position); err != nil {
				return nil, err
			}
		}
		return step, nil
	})
}

// Toggle flips a step between complete and incomplete.
func (s *StepService) Toggle(ctx context.Context, userID uuid.UUID, parent models.ParentRef, stepID uuid.UUID) (*StepChange, error) {
	return s.mutate(ctx, userID, parent, func(tx *gorm.DB) (*models.ChecklistStep, error) {
		step, err := loadStep(tx, parent, stepID)
		if err != nil {
			return nil, err
		}
		s.setCompleted(step, !step.Completed)
		if err := saveStep(tx, step); err != nil {
			return nil, err
		}
		return step, nil
	})
}

// Delete removes a step and closes the gap in the remaining positions.
func (s *StepService) Delete(ctx context.Context, userID uuid.UUID, parent models.ParentRef, stepID uuid.UUID) (*StepChange, error) {
	return s.mutate(ctx, userID, parent, func(tx *gorm.DB) (*models.ChecklistStep, error) {
		step, err := loadStep(tx, parent, stepID)
		if err != nil {
			return nil, err
		}
		if err := tx.Delete(step).Error; err != nil {
			return nil, fmt.Errorf("delete step: %w", err)
		}
		rest, err := siblings(tx, parent)
		if err != nil {
			return nil, err
		}
		if err := renumber(tx, rest); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// Reorder puts the listed steps first, in the given order, followed by the
// unlisted ones in their current order. Positions end up dense from 0.
func (s *StepService) Reorder(ctx context.Context, userID uuid.UUID, parent models.ParentRef, ids []uuid.UUID) ([]models.ChecklistStep, error) {
	var ordered []models.ChecklistStep
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := ensureParent(tx, userID, parent); err != nil {
			return err
		}
		current, err := siblings(tx, parent)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]int, len(current))
		for i, step := range current {
			byID[step.ID] = i
		}
		placed := make(map[uuid.UUID]bool, len(ids))
		ordered = make([]models.ChecklistStep, 0, len(current))
		for _, id := range ids {
			i, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrStepNotFound, id)
			}
			if placed[id] {
				continue
			}
			placed[id] = true
			ordered = append(ordered, current[i])
		}
		for _, step := range current {
			if !placed[step.ID] {
				ordered = append(ordered, step)
			}
		}
		return renumber(tx, ordered)
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// mutate runs fn inside a transaction after checking the parent, then
// cascades to the parent goal.
func (s *StepService) mutate(ctx context.Context, userID uuid.UUID, parent models.ParentRef, fn func(tx *gorm.DB) (*models.ChecklistStep, error)) (*StepChange, error) {
	change := &StepChange{}
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		goal, err := ensureParent(tx, userID, parent)
		if err != nil {
			return err
		}
		if change.Step, err = fn(tx); err != nil {
			return err
		}
		if goal == nil {
			return nil
		}
		if err := evaluateGoal(tx, goal, s.opts.Clock); err != nil {
			return err
		}
		change.Goal = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// setCompleted stamps completed_at on false→true and clears it on true→false.
func (s *StepService) setCompleted(step *models.ChecklistStep, completed bool) {
	if completed == step.Completed {
		return
	}
	step.Completed = completed
	if completed {
		now := s.opts.Clock.Now()
		step.CompletedAt = &now
	} else {
		step.CompletedAt = nil
	}
}

// ensureParent checks that the parent exists and belongs to the user. For a
// goal parent it returns the goal, locked for the rest of the transaction.
func ensureParent(tx *gorm.DB, userID uuid.UUID, parent models.ParentRef) (*models.Goal, error) {
	var model interface{}
	switch parent.Type {
	case models.ParentGoal:
		goal, err := lockGoal(tx, userID, parent.ID)
		if errors.Is(err, ErrGoalNotFound) {
			return nil, ErrParentNotFound
		}
		return goal, err
	case models.ParentTask:
		model = &models.Task{}
	case models.ParentHabit:
		model = &models.Habit{}
	case models.ParentList:
		model = &models.List{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidParent, parent.Type)
	}

	var count int64
	if err := tx.Model(model).Where("id = ? AND user_id = ?", parent.ID, userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("find parent: %w", err)
	}
	if count == 0 {
		return nil, ErrParentNotFound
	}
	return nil, nil
}

func loadStep(tx *gorm.DB, parent models.ParentRef, stepID uuid.UUID) (*models.ChecklistStep, error) {
	var step models.ChecklistStep
	if err := tx.Where("id = ? AND parent_type = ? AND parent_id = ?", stepID, parent.Type, parent.ID).
		First(&step).Error; err != nil {
		return nil, notFound(err, ErrStepNotFound, "find step")
	}
	return &step, nil
}

func saveStep(tx *gorm.DB, step *models.ChecklistStep) error {
	if err := tx.Model(&models.ChecklistStep{}).Where("id = ?", step.ID).Updates(map[string]interface{}{
		"name":         step.Name,
		"completed":    step.Completed,
		"completed_at": step.CompletedAt,
	}).Error; err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	return nil
}

func siblings(tx *gorm.DB, parent models.ParentRef) ([]models.ChecklistStep, error) {
	var steps []models.ChecklistStep
	if err := orderSteps(tx.Where("parent_type = ? AND parent_id = ?", parent.Type, parent.ID)).
		Find(&steps).Error; err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return steps, nil
}

// moveStep places step at index position among its siblings, clamped to
// the ends of the checklist.
func moveStep(tx *gorm.DB, parent models.ParentRef, step *models.ChecklistStep, position int) error {
	current, err := siblings(tx, parent)
	if err != nil {
		return err
	}
	rest := make([]models.ChecklistStep, 0, len(current))
	for _, s := range current {
		if s.ID != step.ID {
			rest = append(rest, s)
		}
	}
	position = min(max(position, 0), len(rest))

	ordered := make([]models.ChecklistStep, 0, len(current))
	ordered = append(ordered, rest[:position]...)
	ordered = append(ordered, *step)
	ordered = append(ordered, rest[position:]...)
	if err := renumber(tx, ordered); err != nil {
		return err
	}
	step.Position = position
	return nil
}

// renumber writes positions 0..n-1 in slice order, skipping rows already in place.
func renumber(tx *gorm.DB, steps []models.ChecklistStep) error {
	for i := range steps {
		if steps[i].Position == i {
			continue
		}
		if err := tx.Model(&models.ChecklistStep{}).Where("id = ?", steps[i].ID).Update("position", i).Error; err != nil {
			return fmt.Errorf("reorder steps: %w", err)
		}
		steps[i].Position = i
	}
	return nil
}
