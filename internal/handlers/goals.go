package handlers

import (
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (a *API) ListGoals(c *fiber.Ctx) error {
	goals, err := a.Goals.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, err, "fetch goals")
	}
	return c.JSON(goals)
}

func (a *API) GetGoal(c *fiber.Ctx) error {
	goalID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid goal ID")
	}

	goal, err := a.Goals.Get(c.UserContext(), middleware.GetUserID(c), goalID)
	if err != nil {
		return fail(c, err, "fetch goal")
	}
	return c.JSON(goal)
}

func (a *API) CreateGoal(c *fiber.Ctx) error {
	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	goal, err := a.Goals.Create(c.UserContext(), middleware.GetUserID(c), req)
	if err != nil {
		return fail(c, err, "create goal")
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (a *API) UpdateGoal(c *fiber.Ctx) error {
	goalID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid goal ID")
	}

	var req models.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.GetUserID(c)
	goal, err := a.Goals.Update(c.UserContext(), userID, goalID, req)
	if err != nil {
		return fail(c, err, "update goal")
	}

	a.Hub.Broadcast(userID, WSEvent{Type: EventGoalUpdated, Data: goal})
	return c.JSON(goal)
}

func (a *API) DeleteGoal(c *fiber.Ctx) error {
	goalID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid goal ID")
	}

	userID := middleware.GetUserID(c)
	if err := a.Goals.Delete(c.UserContext(), userID, goalID); err != nil {
		return fail(c, err, "delete goal")
	}

	a.Hub.Broadcast(userID, WSEvent{Type: EventGoalDeleted, Data: fiber.Map{"id": goalID}})
	return c.JSON(fiber.Map{"message": "Goal deleted"})
}

func (a *API) IncrementGoal(c *fiber.Ctx) error {
	return a.changeGoalCount(c, false)
}

func (a *API) DecrementGoal(c *fiber.Ctx) error {
	return a.changeGoalCount(c, true)
}

// changeGoalCount applies {amount} to a counted goal. A missing amount means 1.
func (a *API) changeGoalCount(c *fiber.Ctx, down bool) error {
	goalID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid goal ID")
	}

	req := models.CountChangeRequest{Amount: 1}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	userID := middleware.GetUserID(c)
	change := a.Goals.Increment
	if down {
		change = a.Goals.Decrement
	}
	goal, err := change(c.UserContext(), userID, goalID, req.Amount)
	if err != nil {
		return fail(c, err, "update goal progress")
	}

	a.Hub.Broadcast(userID, WSEvent{Type: EventGoalUpdated, Data: goal})
	return c.JSON(goal)
}
