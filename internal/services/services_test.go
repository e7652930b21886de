package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arnold/momentum-api/internal/database"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ctx = context.Background()

// at returns a moment on a day in May 2024. May 1 2024 is a Wednesday.
func at(d, hour int) time.Time {
	return time.Date(2024, time.May, d, hour, 0, 0, 0, time.UTC)
}

func day(d int) time.Time {
	return at(d, 0)
}

type fixture struct {
	db    *gorm.DB
	clock *progress.FixedClock
	opts  Options
	user  models.User
}

// newFixture opens a private in-memory database whose row timestamps follow
// the fixture clock.
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	clock := &progress.FixedClock{At: now}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return clock.Now() },
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	f := &fixture{
		db:    db,
		clock: clock,
		opts:  Options{Clock: clock, Location: time.UTC, StreakScanCap: 3650, MaxCatchUpDays: 60},
	}
	f.user = f.newUser(t, "UTC")
	return f
}

func (f *fixture) newUser(t *testing.T, timezone string) models.User {
	t.Helper()
	user := models.User{Email: uuid.NewString() + "@example.com", Name: "Sam", Timezone: timezone}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixture) newHabit(t *testing.T, s *HabitService, target int) *models.Habit {
	t.Helper()
	habit, err := s.Create(ctx, f.user.ID, models.CreateHabitRequest{Name: "Read", DailyTarget: target})
	require.NoError(t, err)
	return habit
}

func (f *fixture) activities(t *testing.T, actionType string) []models.Activity {
	t.Helper()
	var rows []models.Activity
	require.NoError(t, f.db.Where("user_id = ? AND action_type = ?", f.user.ID, actionType).Order("created_at ASC").Find(&rows).Error)
	return rows
}
