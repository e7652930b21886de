package handlers

import (
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (a *API) ListTasks(c *fiber.Ctx) error {
	tasks, err := a.Tasks.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, err, "fetch tasks")
	}
	return c.JSON(tasks)
}

func (a *API) CreateTask(c *fiber.Ctx) error {
	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := a.Tasks.Create(c.UserContext(), middleware.GetUserID(c), req)
	if err != nil {
		return fail(c, err, "create task")
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (a *API) DeleteTask(c *fiber.Ctx) error {
	taskID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid task ID")
	}

	if err := a.Tasks.Delete(c.UserContext(), middleware.GetUserID(c), taskID); err != nil {
		return fail(c, err, "delete task")
	}
	return c.JSON(fiber.Map{"message": "Task deleted"})
}

func (a *API) ListLists(c *fiber.Ctx) error {
	lists, err := a.Lists.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return fail(c, err, "fetch lists")
	}
	return c.JSON(lists)
}

func (a *API) CreateList(c *fiber.Ctx) error {
	var req models.CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := a.Lists.Create(c.UserContext(), middleware.GetUserID(c), req)
	if err != nil {
		return fail(c, err, "create list")
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

func (a *API) DeleteList(c *fiber.Ctx) error {
	listID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid list ID")
	}

	if err := a.Lists.Delete(c.UserContext(), middleware.GetUserID(c), listID); err != nil {
		return fail(c, err, "delete list")
	}
	return c.JSON(fiber.Map{"message": "List deleted"})
}
