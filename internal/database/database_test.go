package database

import (
	"testing"

	"github.com/arnold/momentum-api/internal/config"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestConnectAndMigrateSQLite(t *testing.T) {
	prev := DB
	t.Cleanup(func() { DB = prev })

	err := Connect(&config.Config{DatabaseURL: "file:database_test?mode=memory&cache=shared", LogLevel: "error"})
	require.NoError(t, err)
	require.NoError(t, Migrate())

	for _, table := range []interface{}{&models.Habit{}, &models.HabitCompletion{}, &models.Goal{}, &models.ChecklistStep{}, &models.Activity{}} {
		assert.True(t, DB.Migrator().HasTable(table))
	}
	assert.True(t, DB.Migrator().HasIndex(&models.HabitCompletion{}, "idx_habit_completion_day"))
}

func TestGormLogMode(t *testing.T) {
	assert.Equal(t, gormlogger.Info, gormLogMode("debug"))
	assert.Equal(t, gormlogger.Warn, gormLogMode("WARN"))
	assert.Equal(t, gormlogger.Error, gormLogMode("error"))
	assert.Equal(t, gormlogger.Silent, gormLogMode("info"))
}
