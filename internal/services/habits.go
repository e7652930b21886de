package services

import (
	"context"
	"encoding/json"
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

// HabitService owns habits, their completion ledger and the derived streak
// and vitality fields.
type HabitService struct {
	db     *gorm.DB
	ledger *LedgerStore
	opts   Options
}

func NewHabitService(db *gorm.DB, opts Options) *HabitService {
	return &HabitService{db: db, ledger: NewLedgerStore(db), opts: opts.withDefaults()}
}

// List returns the user's habits with vitality caught up to today.
func (s *HabitService) List(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	loc, err := userLocation(s.db.WithContext(ctx), userID, s.opts.Location)
	if err != nil {
		return nil, err
	}

	var habits []models.Habit
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	for i := range habits {
		if _, err := s.catchUp(ctx, s.db, &habits[i], loc); err != nil {
			return nil, err
		}
	}
	return habits, nil
}

// Get loads one habit with vitality caught up to today.
func (s *HabitService) Get(ctx context.Context, userID, habitID uuid.UUID) (*models.Habit, error) {
	loc, err := userLocation(s.db.WithContext(ctx), userID, s.opts.Location)
	if err != nil {
		return nil, err
	}
	habit, err := s.load(s.db.WithContext(ctx), userID, habitID)
	if err != nil {
		return nil, err
	}
	if _, err := s.catchUp(ctx, s.db, habit, loc); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Create(ctx context.Context, userID uuid.UUID, req models.CreateHabitRequest) (*models.Habit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	target := req.DailyTarget
	if target == 0 {
		target = 1
	}
	if target < 0 {
		return nil, progress.ErrInvalidDailyTarget
	}

	habit := models.Habit{
		UserID:      userID,
		Name:        name,
		Description: req.Description,
		DailyTarget: target,
		Health:      progress.MaxHealth,
	}
	if err := s.db.WithContext(ctx).Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

func (s *HabitService) Update(ctx context.Context, userID, habitID uuid.UUID, req models.UpdateHabitRequest) (*models.Habit, error) {
	var habit *models.Habit
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if habit, err = s.load(tx, userID, habitID); err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrNameRequired
			}
			habit.Name = name
		}
		if req.Description != nil {
			habit.Description = req.Description
		}
		targetChanged := false
		if req.DailyTarget != nil {
			if *req.DailyTarget <= 0 {
				return progress.ErrInvalidDailyTarget
			}
			targetChanged = *req.DailyTarget != habit.DailyTarget
			habit.DailyTarget = *req.DailyTarget
		}

		if err := tx.Save(habit).Error; err != nil {
			return fmt.Errorf("update habit: %w", err)
		}
		if targetChanged {
			return s.refreshStreak(ctx, tx, habit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, userID, habitID uuid.UUID) error {
	return withTx(ctx, s.db, func(tx *gorm.DB) error {
		habit, err := s.load(tx, userID, habitID)
		if err != nil {
			return err
		}
		if err := tx.Where("parent_type = ? AND parent_id = ?", models.ParentHabit, habit.ID).Delete(&models.ChecklistStep{}).Error; err != nil {
			return fmt.Errorf("delete habit steps: %w", err)
		}
		if err := tx.Delete(habit).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// RecordCompletion sets the count achieved on date and refreshes today's
// streak. A count of zero or less clears the day.
func (s *HabitService) RecordCompletion(ctx context.Context, userID, habitID uuid.UUID, date time.Time, count int) (*models.Habit, error) {
	var habit *models.Habit
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if habit, err = s.load(tx, userID, habitID); err != nil {
			return err
		}
		if _, err := s.ledger.withDB(tx).UpsertEntry(ctx, habit.ID, date, count); err != nil {
			return err
		}
		return s.refreshStreak(ctx, tx, habit)
	})
	if err != nil {
		return nil, err
	}
	return habit, nil
}

// ClearCompletion removes the entry for date and refreshes today's streak.
func (s *HabitService) ClearCompletion(ctx context.Context, userID, habitID uuid.UUID, date time.Time) (*models.Habit, error) {
	return s.RecordCompletion(ctx, userID, habitID, date, 0)
}

// Completions lists ledger entries in [from, to].
func (s *HabitService) Completions(ctx context.Context, userID, habitID uuid.UUID, from, to time.Time) ([]models.HabitCompletion, error) {
	habit, err := s.load(s.db.WithContext(ctx), userID, habitID)
	if err != nil {
		return nil, err
	}
	return s.ledger.EntriesBetween(ctx, habit.ID, from, to)
}

// StreakOn computes the streak ending on date without persisting it.
func (s *HabitService) StreakOn(ctx context.Context, userID, habitID uuid.UUID, date time.Time) (int, error) {
	habit, err := s.load(s.db.WithContext(ctx), userID, habitID)
	if err != nil {
		return 0, err
	}
	return progress.ComputeStreak(ctx, s.ledger, itemOf(habit), date, s.opts.StreakScanCap)
}

// Today resolves the user's current calendar day.
func (s *HabitService) Today(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	loc, err := userLocation(s.db.WithContext(ctx), userID, s.opts.Location)
	if err != nil {
		return time.Time{}, err
	}
	return s.opts.Clock.Today(loc), nil
}

// SweepUser brings vitality up to date for every habit a user owns and
// returns how many habits changed.
func (s *HabitService) SweepUser(ctx context.Context, userID uuid.UUID) (int, error) {
	loc, err := userLocation(s.db.WithContext(ctx), userID, s.opts.Location)
	if err != nil {
		return 0, err
	}

	var habits []models.Habit
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&habits).Error; err != nil {
		return 0, fmt.Errorf("list habits: %w", err)
	}

	changed := 0
	for i := range habits {
		updated, err := s.catchUp(ctx, s.db, &habits[i], loc)
		if err != nil {
			return changed, err
		}
		if updated {
			changed++
		}
	}
	return changed, nil
}

func (s *HabitService) load(tx *gorm.DB, userID, habitID uuid.UUID) (*models.Habit, error) {
	var habit models.Habit
	if err := tx.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		return nil, notFound(err, ErrHabitNotFound, "find habit")
	}
	return &habit, nil
}

// refreshStreak recomputes the streak ending today and stores it. Streaks for
// any other reference date are never written back.
func (s *HabitService) refreshStreak(ctx context.Context, tx *gorm.DB, habit *models.Habit) error {
	loc, err := userLocation(tx, habit.UserID, s.opts.Location)
	if err != nil {
		return err
	}
	streak, err := progress.ComputeStreak(ctx, s.ledger.withDB(tx), itemOf(habit), s.opts.Clock.Today(loc), s.opts.StreakScanCap)
	if err != nil {
		return err
	}
	if streak == habit.CurrentStreak {
		return nil
	}
	habit.CurrentStreak = streak
	if err := tx.Model(&models.Habit{}).Where("id = ?", habit.ID).Update("current_streak", streak).Error; err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

// catchUp replays any vitality cycles the habit has missed and saves the
// result. The row is re-read under lock, so callers holding a stale copy
// never apply the same day twice. Evaluating twice on the same day changes
// nothing.
func (s *HabitService) catchUp(ctx context.Context, db *gorm.DB, habit *models.Habit, loc *time.Location) (bool, error) {
	updated := false
	err := withTx(ctx, db, func(tx *gorm.DB) error {
		var current models.Habit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", habit.ID).
			First(&current).Error; err != nil {
			return notFound(err, ErrHabitNotFound, "lock habit")
		}

		item := itemOf(&current)
		item.CreatedAt = item.CreatedAt.In(loc)
		before := item.Vitality

		next, applied, err := progress.CatchUp(ctx, s.ledger.withDB(tx), item, s.opts.Clock.Now().In(loc), s.opts.MaxCatchUpDays)
		if err != nil {
			return err
		}
		if applied == 0 {
			*habit = current
			return nil
		}

		applyVitality(&current, next)
		if err := tx.Model(&models.Habit{}).Where("id = ?", current.ID).Updates(map[string]interface{}{
			"health":               current.Health,
			"consecutive_misses":   current.ConsecutiveMisses,
			"misses_this_week":     current.MissesThisWeek,
			"last_missed_on":       current.LastMissedOn,
			"last_evaluated_on":    current.LastEvaluatedOn,
			"last_health_check_at": current.LastHealthCheckAt,
		}).Error; err != nil {
			return fmt.Errorf("save vitality: %w", err)
		}
		*habit = current
		updated = true

		if next.LastMissedOn != nil && (before.LastMissedOn == nil || !before.LastMissedOn.Equal(*next.LastMissedOn)) {
			logger.Info("habit missed", "habit", current.ID, "missedOn", next.LastMissedOn.Format(time.DateOnly), "health", next.Health)
			return logActivity(tx, current.UserID, models.ActivityHabitMissed, &current.ID, map[string]interface{}{
				"habitName":         current.Name,
				"missedOn":          next.LastMissedOn.Format(time.DateOnly),
				"health":            next.Health,
				"consecutiveMisses": next.ConsecutiveMisses,
			})
		}
		return nil
	})
	return updated, err
}

func itemOf(h *models.Habit) progress.Item {
	return progress.Item{
		ID:          h.ID,
		DailyTarget: h.DailyTarget,
		CreatedAt:   h.CreatedAt,
		Vitality: progress.VitalityState{
			Health:            h.Health,
			ConsecutiveMisses: h.ConsecutiveMisses,
			MissesThisWeek:    h.MissesThisWeek,
			LastMissedOn:      storedDate(h.LastMissedOn),
			LastEvaluatedOn:   storedDate(h.LastEvaluatedOn),
			LastCheckAt:       h.LastHealthCheckAt,
		},
	}
}

// storedDate undoes any zone conversion the driver applied to a stored
// 00:00 UTC calendar date.
func storedDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := progress.DateOf(t.UTC())
	return &d
}

func applyVitality(h *models.Habit, v progress.VitalityState) {
	h.Health = v.Health
	h.ConsecutiveMisses = v.ConsecutiveMisses
	h.MissesThisWeek = v.MissesThisWeek
	h.LastMissedOn = v.LastMissedOn
	h.LastEvaluatedOn = v.LastEvaluatedOn
	h.LastHealthCheckAt = v.LastCheckAt
}

// View decorates a habit with its vitality bucket.
func View(h models.Habit) models.HabitView {
	return models.HabitView{Habit: h, Vitality: string(progress.Classify(h.Health))}
}

func marshalMetadata(metadata map[string]interface{}) *string {
	if metadata == nil {
		return nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		logger.Warn("activity metadata dropped", "err", err)
		return nil
	}
	s := string(data)
	return &s
}
