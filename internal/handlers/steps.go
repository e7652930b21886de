package handlers

import (
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/arnold/momentum-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// parentTypes maps the plural route segment to the step parent kind.
var parentTypes = map[string]string{
	"goals":  models.ParentGoal,
	"tasks":  models.ParentTask,
	"habits": models.ParentHabit,
	"lists":  models.ParentList,
}

// stepParent reads :parentType and :parentId. Both the plural route form
// ("goals") and the stored kind ("goal") are accepted.
// On failure it returns the message for a 400 response.
func stepParent(c *fiber.Ctx) (models.ParentRef, string) {
	kind, ok := parentTypes[c.Params("parentType")]
	if !ok {
		kind = c.Params("parentType")
	}
	if !models.ValidParentType(kind) {
		return models.ParentRef{}, "Invalid parent type"
	}

	id, ok := paramID(c, "parentId")
	if !ok {
		return models.ParentRef{}, "Invalid parent ID"
	}
	return models.ParentRef{Type: kind, ID: id}, ""
}

func (a *API) ListSteps(c *fiber.Ctx) error {
	parent, msg := stepParent(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	steps, err := a.Steps.List(c.UserContext(), middleware.GetUserID(c), parent)
	if err != nil {
		return fail(c, err, "fetch steps")
	}
	return c.JSON(steps)
}

func (a *API) CreateStep(c *fiber.Ctx) error {
	parent, msg := stepParent(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	var req models.CreateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.GetUserID(c)
	change, err := a.Steps.Create(c.UserContext(), userID, parent, req)
	if err != nil {
		return fail(c, err, "create step")
	}
	return a.stepChanged(c.Status(fiber.StatusCreated), userID, change)
}

func (a *API) UpdateStep(c *fiber.Ctx) error {
	parent, msg := stepParent(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	stepID, ok := paramID(c, "stepId")
	if !ok {
		return badRequest(c, "Invalid step ID")
	}

	var req models.UpdateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.GetUserID(c)
	change, err := a.Steps.Update(c.UserContext(), userID, parent, stepID, req)
	if err != nil {
		return fail(c, err, "update step")
	}
	return a.stepChanged(c, userID, change)
}

func (a *API) ToggleStep(c *fiber.Ctx) error {
	parent, msg := stepParent(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	stepID, ok := paramID(c, "stepId")
	if !ok {
		return badRequest(c, "Invalid step ID")
	}

	userID := middleware.GetUserID(c)
	change, err := a.Steps.Toggle(c.UserContext(), userID, parent, stepID)
	if err != nil {
		return fail(c, err, "toggle step")
	}
	return a.stepChanged(c, userID, change)
}

func (a *API) DeleteStep(c *fiber.Ctx) error {
	parent, msg := stepParent(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	stepID, ok := paramID(c, "stepId")
	if !ok {
		return badRequest(c, "Invalid step ID")
	}

	userID := middleware.GetUserID(c)
	change, err := a.Steps.Delete(c.UserContext(), userID, parent, stepID)
	if err != nil {
		return fail(c, err, "delete step")
	}
	return a.stepChanged(c, userID, change)
}

func (a *API) ReorderSteps(c *fiber.Ctx) error {
	parent, msg := stepParent(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	var req models.ReorderStepsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	steps, err := a.Steps.Reorder(c.UserContext(), middleware.GetUserID(c), parent, req.IDs)
	if err != nil {
		return fail(c, err, "reorder steps")
	}
	return c.JSON(steps)
}

func (a *API) stepChanged(c *fiber.Ctx, userID uuid.UUID, change *services.StepChange) error {
	if change.Goal != nil {
		a.Hub.Broadcast(userID, WSEvent{Type: EventGoalUpdated, Data: change.Goal})
	}
	return c.JSON(change)
}
