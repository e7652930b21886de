package routes

import (
	"github.com/arnold/momentum-api/internal/handlers"
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App, api *handlers.API) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	apiGroup := app.Group("/api")

	auth := apiGroup.Group("/auth")
	auth.Post("/register", api.Register)
	auth.Post("/login", api.Login)

	protected := apiGroup.Group("/", middleware.Protected(api.JWTSecret))

	protected.Get("/me", api.GetMe)
	protected.Put("/me", api.UpdateProfile)

	habits := protected.Group("/habits")
	habits.Get("/", api.ListHabits)
	habits.Post("/", api.CreateHabit)
	habits.Get("/:id", api.GetHabit)
	habits.Put("/:id", api.UpdateHabit)
	habits.Delete("/:id", api.DeleteHabit)
	habits.Get("/:id/streak", api.GetHabitStreak)
	habits.Get("/:id/completions", api.GetCompletions)
	habits.Put("/:id/completions/:date", api.PutCompletion)
	habits.Delete("/:id/completions/:date", api.DeleteCompletion)

	goals := protected.Group("/goals")
	goals.Get("/", api.ListGoals)
	goals.Post("/", api.CreateGoal)
	goals.Get("/:id", api.GetGoal)
	goals.Put("/:id", api.UpdateGoal)
	goals.Delete("/:id", api.DeleteGoal)
	goals.Post("/:id/increment", api.IncrementGoal)
	goals.Post("/:id/decrement", api.DecrementGoal)

	tasks := protected.Group("/tasks")
	tasks.Get("/", api.ListTasks)
	tasks.Post("/", api.CreateTask)
	tasks.Delete("/:id", api.DeleteTask)

	lists := protected.Group("/lists")
	lists.Get("/", api.ListLists)
	lists.Post("/", api.CreateList)
	lists.Delete("/:id", api.DeleteList)

	// Checklist steps under any parent: goals, tasks, habits or lists
	steps := protected.Group("/:parentType/:parentId/steps")
	steps.Get("/", api.ListSteps)
	steps.Post("/", api.CreateStep)
	steps.Put("/reorder", api.ReorderSteps)
	steps.Put("/:stepId", api.UpdateStep)
	steps.Post("/:stepId/toggle", api.ToggleStep)
	steps.Delete("/:stepId", api.DeleteStep)

	protected.Get("/activity", api.GetActivity)

	// WebSocket for live sync between a user's clients
	app.Use("/ws", api.WebSocketUpgrade())
	app.Get("/ws", websocket.New(api.HandleWebSocket))
}
