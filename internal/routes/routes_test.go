package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnold/momentum-api/internal/database"
	"github.com/arnold/momentum-api/internal/handlers"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/arnold/momentum-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testServer struct {
	t     *testing.T
	app   *fiber.App
	token string
}

// May 3 2024, a Friday.
var now = time.Date(2024, time.May, 3, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := progress.FixedClock{At: now}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: clock.Now,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	opts := services.Options{Clock: clock, Location: time.UTC, StreakScanCap: 3650, MaxCatchUpDays: 60}
	app := fiber.New()
	Setup(app, handlers.NewAPI(db, opts, handlers.NewHub(), "test-secret", "UTC"))
	return &testServer{t: t, app: app}
}

// do sends a JSON request and decodes the JSON response into out, if given.
func (s *testServer) do(method, path string, body interface{}, out interface{}) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) register(email string) {
	s.t.Helper()
	var auth struct {
		Token string `json:"token"`
	}
	status := s.do(fiber.MethodPost, "/api/auth/register", fiber.Map{"email": email, "password": "secret123", "name": "Sam"}, &auth)
	require.Equal(s.t, fiber.StatusCreated, status)
	require.NotEmpty(s.t, auth.Token)
	s.token = auth.Token
}

type habitBody struct {
	ID            string `json:"id"`
	CurrentStreak int    `json:"currentStreak"`
	Health        int    `json:"health"`
	Vitality      string `json:"vitality"`
}

type goalBody struct {
	ID           string  `json:"id"`
	CurrentCount int     `json:"currentCount"`
	Progress     int     `json:"progress"`
	Completed    bool    `json:"completed"`
	CompletedAt  *string `json:"completedAt"`
}

type errorBody struct {
	Error string `json:"error"`
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, fiber.StatusUnauthorized, s.do(fiber.MethodGet, "/api/habits", nil, nil))

	s.register("Sam@Example.com")
	assert.Equal(t, fiber.StatusConflict, s.do(fiber.MethodPost, "/api/auth/register", fiber.Map{"email": "sam@example.com", "password": "secret123"}, nil))
	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodPost, "/api/auth/register", fiber.Map{"email": "new@example.com", "password": "secret123", "timezone": "Mars/Olympus"}, nil))

	s.token = ""
	assert.Equal(t, fiber.StatusUnauthorized, s.do(fiber.MethodPost, "/api/auth/login", fiber.Map{"email": "sam@example.com", "password": "wrong-pass"}, nil))

	var auth struct {
		Token string `json:"token"`
	}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPost, "/api/auth/login", fiber.Map{"email": "sam@example.com", "password": "secret123"}, &auth))
	s.token = auth.Token

	var me map[string]interface{}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, "/api/me", nil, &me))
	assert.Equal(t, "sam@example.com", me["email"])
	assert.Equal(t, "UTC", me["timezone"])
	assert.Equal(t, "2024-05-03", me["today"])

	// 10:00 UTC is already the next day at UTC+14
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPut, "/api/me", fiber.Map{"timezone": "Pacific/Kiritimati"}, &me))
	assert.Equal(t, "2024-05-04", me["today"])
	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodPut, "/api/me", fiber.Map{"timezone": "Nowhere/City"}, nil))
}

func TestHabitCompletionsAndStreak(t *testing.T) {
	s := newTestServer(t)
	s.register("sam@example.com")

	var habit habitBody
	require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, "/api/habits", fiber.Map{"name": "Pushups", "dailyTarget": 2}, &habit))
	assert.Equal(t, "thriving", habit.Vitality)

	var bad errorBody
	require.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodPost, "/api/habits", fiber.Map{"name": "Pushups", "dailyTarget": -2}, &bad))
	assert.Equal(t, "Daily target must be positive", bad.Error)

	base := "/api/habits/" + habit.ID
	for _, date := range []string{"2024-05-01", "2024-05-02", "2024-05-03"} {
		require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPut, base+"/completions/"+date, fiber.Map{"count": 2}, &habit))
	}
	assert.Equal(t, 3, habit.CurrentStreak)

	// below target breaks the streak
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPut, base+"/completions/2024-05-02", fiber.Map{"count": 1}, &habit))
	assert.Equal(t, 1, habit.CurrentStreak)

	var streak struct {
		Date   string `json:"date"`
		Streak int    `json:"streak"`
	}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, base+"/streak?date=2024-05-01", nil, &streak))
	assert.Equal(t, 1, streak.Streak)
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, base+"/streak", nil, &streak))
	assert.Equal(t, "2024-05-03", streak.Date)
	assert.Equal(t, 1, streak.Streak)

	var rows []map[string]interface{}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, base+"/completions?from=2024-05-01&to=2024-05-03", nil, &rows))
	assert.Len(t, rows, 3)

	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodDelete, base+"/completions/2024-05-03", nil, &habit))
	assert.Equal(t, 0, habit.CurrentStreak)

	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodPut, base+"/completions/05-03-2024", fiber.Map{"count": 1}, nil))
	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodGet, base+"/completions?from=2024-05-03&to=2024-05-01", nil, nil))
	assert.Equal(t, fiber.StatusNotFound, s.do(fiber.MethodGet, "/api/habits/"+uuid.NewString(), nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodGet, "/api/habits/not-a-uuid", nil, nil))

	var list []habitBody
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, "/api/habits", nil, &list))
	assert.Len(t, list, 1)
}

func TestCountedGoalLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.register("sam@example.com")

	var goal goalBody
	require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, "/api/goals", fiber.Map{"title": "Read books", "goalType": "counted", "targetCount": 5}, &goal))
	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodPost, "/api/goals", fiber.Map{"title": "Read books", "goalType": "counted"}, nil))

	base := "/api/goals/" + goal.ID
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPost, base+"/increment", fiber.Map{"amount": 3}, &goal))
	assert.Equal(t, 60, goal.Progress)
	assert.False(t, goal.Completed)

	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPost, base+"/increment", fiber.Map{"amount": 3}, &goal))
	assert.Equal(t, 5, goal.CurrentCount)
	assert.True(t, goal.Completed)
	assert.NotNil(t, goal.CompletedAt)

	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPost, base+"/decrement", nil, &goal))
	assert.Equal(t, 4, goal.CurrentCount)
	assert.False(t, goal.Completed)
	assert.Nil(t, goal.CompletedAt)

	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodPost, base+"/increment", fiber.Map{"amount": -1}, nil))

	var feed struct {
		Activities []map[string]interface{} `json:"activities"`
		Total      int                      `json:"total"`
	}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, "/api/activity", nil, &feed))
	assert.Equal(t, 2, feed.Total)

	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodDelete, base, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, s.do(fiber.MethodGet, base, nil, nil))
}

func TestChecklistCascadeOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.register("sam@example.com")

	var goal goalBody
	require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, "/api/goals", fiber.Map{"title": "Move house", "goalType": "named_steps"}, &goal))

	base := "/api/goals/" + goal.ID + "/steps"
	var ids []string
	for _, name := range []string{"Pack", "Van", "Keys"} {
		var change struct {
			Step struct {
				ID string `json:"id"`
			} `json:"step"`
			Goal goalBody `json:"goal"`
		}
		require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, base, fiber.Map{"name": name}, &change))
		ids = append(ids, change.Step.ID)
	}

	var change struct {
		Goal goalBody `json:"goal"`
	}
	for _, id := range ids {
		require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPost, base+"/"+id+"/toggle", nil, &change))
	}
	assert.True(t, change.Goal.Completed)
	assert.Equal(t, 100, change.Goal.Progress)

	var ordered []struct {
		ID       string `json:"id"`
		Position int    `json:"position"`
	}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPut, base+"/reorder", fiber.Map{"ids": []string{ids[2]}}, &ordered))
	require.Len(t, ordered, 3)
	assert.Equal(t, ids[2], ordered[0].ID)

	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodPost, base+"/"+ids[0]+"/toggle", nil, &change))
	assert.False(t, change.Goal.Completed)
	assert.Equal(t, 67, change.Goal.Progress)

	assert.Equal(t, fiber.StatusBadRequest, s.do(fiber.MethodGet, "/api/boards/"+goal.ID+"/steps", nil, nil))
	assert.Equal(t, fiber.StatusNotFound, s.do(fiber.MethodGet, "/api/tasks/"+goal.ID+"/steps", nil, nil))
}

func TestTaskAndListChecklists(t *testing.T) {
	s := newTestServer(t)
	s.register("sam@example.com")

	var task struct {
		ID string `json:"id"`
	}
	require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, "/api/tasks", fiber.Map{"title": "Taxes", "dueOn": "2024-05-10"}, &task))
	require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, "/api/tasks/"+task.ID+"/steps", fiber.Map{"name": "Receipts"}, nil))

	var tasks []map[string]interface{}
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodGet, "/api/tasks", nil, &tasks))
	require.Len(t, tasks, 1)
	assert.Len(t, tasks[0]["steps"], 1)

	var list struct {
		ID string `json:"id"`
	}
	require.Equal(t, fiber.StatusCreated, s.do(fiber.MethodPost, "/api/lists", fiber.Map{"title": "Groceries"}, &list))
	require.Equal(t, fiber.StatusOK, s.do(fiber.MethodDelete, "/api/lists/"+list.ID, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, s.do(fiber.MethodDelete, "/api/lists/"+list.ID, nil, nil))
	assert.Equal(t, fiber.StatusOK, s.do(fiber.MethodDelete, "/api/tasks/"+task.ID, nil, nil))
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, fiber.StatusUpgradeRequired, s.do(fiber.MethodGet, "/ws", nil, nil))
}
