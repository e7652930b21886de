package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/arnold/momentum-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// API holds the services the HTTP handlers call.
type API struct {
	DB              *gorm.DB
	Habits          *services.HabitService
	Goals           *services.GoalService
	Steps           *services.StepService
	Tasks           *services.TaskService
	Lists           *services.ListService
	Activity        *services.ActivityService
	Hub             *Hub
	JWTSecret       string
	DefaultTimezone string
}

// NewAPI wires every service over db.
func NewAPI(db *gorm.DB, opts services.Options, hub *Hub, jwtSecret, defaultTimezone string) *API {
	return &API{
		DB:              db,
		Habits:          services.NewHabitService(db, opts),
		Goals:           services.NewGoalService(db, opts),
		Steps:           services.NewStepService(db, opts),
		Tasks:           services.NewTaskService(db),
		Lists:           services.NewListService(db),
		Activity:        services.NewActivityService(db),
		Hub:             hub,
		JWTSecret:       jwtSecret,
		DefaultTimezone: defaultTimezone,
	}
}

var badRequestErrors = []error{
	progress.ErrInvalidDailyTarget,
	progress.ErrInvalidTargetCount,
	progress.ErrInvalidGoalType,
	progress.ErrInvalidAmount,
	services.ErrInvalidParent,
	services.ErrNameRequired,
	services.ErrInvalidDate,
}

var notFoundErrors = []error{
	services.ErrUserNotFound,
	services.ErrHabitNotFound,
	services.ErrGoalNotFound,
	services.ErrTaskNotFound,
	services.ErrListNotFound,
	services.ErrStepNotFound,
	services.ErrParentNotFound,
}

// fail maps a service error to a response. Unknown errors are logged and
// reported as "Failed to <action>".
func fail(c *fiber.Ctx, err error, action string) error {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": capitalize(err.Error()),
			})
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": capitalize(target.Error()),
			})
		}
	}

	logger.Error("request failed", "action", action, "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to " + action,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// paramID parses a UUID route parameter.
func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// parseDay parses a YYYY-MM-DD calendar date.
func parseDay(s string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, services.ErrInvalidDate
	}
	return progress.DateOf(day), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
