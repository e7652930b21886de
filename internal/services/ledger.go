package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore is the completion ledger: one row per habit and calendar day.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// FindEntry implements progress.Ledger.
func (l *LedgerStore) FindEntry(ctx context.Context, habitID uuid.UUID, date time.Time) (*progress.Entry, error) {
	var row models.HabitCompletion
	err := l.db.WithContext(ctx).
		Where("habit_id = ? AND completed_on = ?", habitID, progress.DateOf(date)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find completion: %w", err)
	}
	return &progress.Entry{Date: progress.DateOf(row.CompletedOn.UTC()), Count: row.Count}, nil
}

// UpsertEntry records count for the day. A count of zero or less removes the
// day's entry: no progress is stored as absence.
func (l *LedgerStore) UpsertEntry(ctx context.Context, habitID uuid.UUID, date time.Time, count int) (*models.HabitCompletion, error) {
	day := progress.DateOf(date)
	if count <= 0 {
		return nil, l.DeleteEntry(ctx, habitID, day)
	}

	record := models.HabitCompletion{
		HabitID:     habitID,
		CompletedOn: day,
		Count:       count,
	}
	if err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "completed_on"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}

	// record carries the ID minted for the insert, which is not the row's ID
	// when the write landed on an existing day.
	var stored models.HabitCompletion
	if err := l.db.WithContext(ctx).Where("habit_id = ? AND completed_on = ?", habitID, day).Take(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload completion: %w", err)
	}
	return &stored, nil
}

func (l *LedgerStore) DeleteEntry(ctx context.Context, habitID uuid.UUID, date time.Time) error {
	if err := l.db.WithContext(ctx).
		Where("habit_id = ? AND completed_on = ?", habitID, progress.DateOf(date)).
		Delete(&models.HabitCompletion{}).Error; err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// EntriesBetween lists a habit's entries in [from, to], oldest first.
func (l *LedgerStore) EntriesBetween(ctx context.Context, habitID uuid.UUID, from, to time.Time) ([]models.HabitCompletion, error) {
	var rows []models.HabitCompletion
	if err := l.db.WithContext(ctx).
		Where("habit_id = ?", habitID).
		Where("completed_on BETWEEN ? AND ?", progress.DateOf(from), progress.DateOf(to)).
		Order("completed_on ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return rows, nil
}

// withDB returns a store bound to tx, so ledger writes join a transaction.
func (l *LedgerStore) withDB(tx *gorm.DB) *LedgerStore {
	return &LedgerStore{db: tx}
}
