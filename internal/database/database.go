package database

import (
	"strings"

	"github.com/arnold/momentum-api/internal/config"
	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	db, err := Open(cfg.DatabaseURL, gormLogMode(cfg.LogLevel))
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Open picks the dialect from the URL: postgres URLs use PostgreSQL,
// anything else is a SQLite path or DSN.
func Open(databaseURL string, mode gormlogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(mode),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("database connected", "dialect", dialector.Name())
	return db, nil
}

func Migrate() error {
	return AutoMigrate(DB)
}

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Habit{},
		&models.HabitCompletion{},
		&models.Goal{},
		&models.Task{},
		&models.List{},
		&models.ChecklistStep{},
		&models.Activity{},
	)
}

func gormLogMode(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		return gormlogger.Warn
	default:
		return gormlogger.Silent
	}
}
