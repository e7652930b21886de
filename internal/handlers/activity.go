package handlers

import (
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// GetActivity returns the user's paginated activity feed
func (a *API) GetActivity(c *fiber.Ctx) error {
	// Pagination
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	activities, total, err := a.Activity.List(c.UserContext(), middleware.GetUserID(c), page, limit)
	if err != nil {
		return fail(c, err, "fetch activity")
	}

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}
