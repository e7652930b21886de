package handlers

import (
	"time"

	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/arnold/momentum-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxCompletionRange bounds /completions queries, in days.
const maxCompletionRange = 366

func (a *API) ListHabits(c *fiber.Ctx) error {
	habits, err := a.Habits.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, err, "fetch habits")
	}

	views := make([]models.HabitView, len(habits))
	for i, h := range habits {
		views[i] = services.View(h)
	}
	return c.JSON(views)
}

func (a *API) GetHabit(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}

	habit, err := a.Habits.Get(c.UserContext(), middleware.GetUserID(c), habitID)
	if err != nil {
		return fail(c, err, "fetch habit")
	}
	return c.JSON(services.View(*habit))
}

func (a *API) CreateHabit(c *fiber.Ctx) error {
	var req models.CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	habit, err := a.Habits.Create(c.UserContext(), middleware.GetUserID(c), req)
	if err != nil {
		return fail(c, err, "create habit")
	}
	return c.Status(fiber.StatusCreated).JSON(services.View(*habit))
}

func (a *API) UpdateHabit(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}

	var req models.UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.GetUserID(c)
	habit, err := a.Habits.Update(c.UserContext(), userID, habitID, req)
	if err != nil {
		return fail(c, err, "update habit")
	}

	view := services.View(*habit)
	a.Hub.Broadcast(userID, WSEvent{Type: EventHabitUpdated, Data: view})
	return c.JSON(view)
}

func (a *API) DeleteHabit(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}

	userID := middleware.GetUserID(c)
	if err := a.Habits.Delete(c.UserContext(), userID, habitID); err != nil {
		return fail(c, err, "delete habit")
	}

	a.Hub.Broadcast(userID, WSEvent{Type: EventHabitDeleted, Data: fiber.Map{"id": habitID}})
	return c.JSON(fiber.Map{"message": "Habit deleted"})
}

// GetHabitStreak computes the streak ending on ?date= (default today). It
// never changes the stored streak.
func (a *API) GetHabitStreak(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}

	userID := middleware.GetUserID(c)
	date, err := a.dayOrToday(c, userID, c.Query("date"))
	if err != nil {
		return fail(c, err, "compute streak")
	}

	streak, err := a.Habits.StreakOn(c.UserContext(), userID, habitID, date)
	if err != nil {
		return fail(c, err, "compute streak")
	}
	return c.JSON(fiber.Map{
		"habitId": habitID,
		"date":    date.Format(time.DateOnly),
		"streak":  streak,
	})
}

// GetCompletions lists ledger entries between ?from= and ?to=. Both default
// to a window ending today.
func (a *API) GetCompletions(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}

	userID := middleware.GetUserID(c)
	to, err := a.dayOrToday(c, userID, c.Query("to"))
	if err != nil {
		return fail(c, err, "fetch completions")
	}
	from := to.AddDate(0, 0, -29)
	if q := c.Query("from"); q != "" {
		if from, err = parseDay(q); err != nil {
			return fail(c, err, "fetch completions")
		}
	}
	if from.After(to) {
		return badRequest(c, "from must not be after to")
	}
	if to.Sub(from) > maxCompletionRange*24*time.Hour {
		return badRequest(c, "Date range too large")
	}

	rows, err := a.Habits.Completions(c.UserContext(), userID, habitID, from, to)
	if err != nil {
		return fail(c, err, "fetch completions")
	}
	return c.JSON(rows)
}

// PutCompletion sets the count for one day. A count of zero or less clears it.
func (a *API) PutCompletion(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}
	date, err := parseDay(c.Params("date"))
	if err != nil {
		return fail(c, err, "record completion")
	}

	var req models.UpsertCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.GetUserID(c)
	habit, err := a.Habits.RecordCompletion(c.UserContext(), userID, habitID, date, req.Count)
	if err != nil {
		return fail(c, err, "record completion")
	}
	return a.habitChanged(c, userID, habit)
}

func (a *API) DeleteCompletion(c *fiber.Ctx) error {
	habitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid habit ID")
	}
	date, err := parseDay(c.Params("date"))
	if err != nil {
		return fail(c, err, "clear completion")
	}

	userID := middleware.GetUserID(c)
	habit, err := a.Habits.ClearCompletion(c.UserContext(), userID, habitID, date)
	if err != nil {
		return fail(c, err, "clear completion")
	}
	return a.habitChanged(c, userID, habit)
}

func (a *API) habitChanged(c *fiber.Ctx, userID uuid.UUID, habit *models.Habit) error {
	view := services.View(*habit)
	a.Hub.Broadcast(userID, WSEvent{Type: EventHabitUpdated, Data: view})
	return c.JSON(view)
}

// dayOrToday parses q, or resolves the user's today when q is empty.
func (a *API) dayOrToday(c *fiber.Ctx, userID uuid.UUID, q string) (time.Time, error) {
	if q == "" {
		return a.Habits.Today(c.UserContext(), userID)
	}
	return parseDay(q)
}
