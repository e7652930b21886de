package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/arnold/momentum-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func (a *API) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}
	if len(req.Password) < 6 {
		return badRequest(c, "Password must be at least 6 characters")
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = a.DefaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return badRequest(c, "Unknown timezone")
	}

	// Check if user exists
	var existingUser models.User
	if err := a.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err, "hash password")
	}

	user := models.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Timezone: timezone,
	}
	if err := a.DB.Create(&user).Error; err != nil {
		return fail(c, err, "create user")
	}

	token, err := middleware.GenerateToken(a.JWTSecret, user.ID, user.Email)
	if err != nil {
		return fail(c, err, "generate token")
	}

	logger.Info("user registered", "user", user.ID)
	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

func (a *API) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	var user models.User
	if err := a.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(a.JWTSecret, user.ID, user.Email)
	if err != nil {
		return fail(c, err, "generate token")
	}

	return c.JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

func (a *API) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := a.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return fail(c, err, "load user")
	}

	today, err := a.Habits.Today(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "load user")
	}

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"timezone":  user.Timezone,
		"today":     today.Format(time.DateOnly),
		"createdAt": user.CreatedAt,
		"updatedAt": user.UpdatedAt,
	})
}

func (a *API) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil || *req.Timezone == "" {
			return badRequest(c, "Unknown timezone")
		}
		updates["timezone"] = *req.Timezone
	}
	if len(updates) == 0 {
		return badRequest(c, "Nothing to update")
	}

	res := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fail(c, res.Error, "update profile")
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return a.GetMe(c)
}
