package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chronica/backend/internal/models"
	"github.com/chronica/backend/pkg/logger"
	"github.com/chronica/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UsersHandler covers super-admin user provisioning. The route group is
// already gated by middleware.SuperAdminOnly.
type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

type createUserRequest struct {
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Password  string          `json:"password"`
	Role      models.UserRole `json:"role"`
	Timelines []string        `json:"timelines"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" || req.Role == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing required fields: email, password, role")
	}
	if !req.Role.Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	var existing models.User
	err := h.DB.First(&existing, "email = ?", email).Error
	if err == nil {
		return utils.Error(c, fiber.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking user")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = email
	}

	timelines := req.Timelines
	if timelines == nil {
		timelines = []string{}
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    "",
		Surname:      "",
		Role:         req.Role,
		Timelines:    timelines,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_provisioned", map[string]interface{}{
		"role": req.Role,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": fmt.Sprintf("User %s created successfully", email),
	})
}

type updateUserRequest struct {
	Password  *string          `json:"password"`
	Role      *models.UserRole `json:"role"`
	Timelines []string         `json:"timelines"`
}

// Update applies a partial field patch to an existing user. Absent
// fields are left untouched; timelines replaces the whole set when sent.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Params("email"))
	if email == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing email in path")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	// Patch through the struct fields and Save so the timelines JSON
	// serializer runs; map-based Updates would write the slice raw.
	updated := 0
	if req.Password != nil && strings.TrimSpace(*req.Password) != "" {
		hash, err := utils.HashPassword(strings.TrimSpace(*req.Password))
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
		}
		user.PasswordHash = hash
		updated++
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid role")
		}
		user.Role = *req.Role
		updated++
	}
	if req.Timelines != nil {
		user.Timelines = req.Timelines
		updated++
	}

	if updated == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}

	logger.Info("user_updated", map[string]interface{}{
		"fields": updated,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": fmt.Sprintf("User %s updated successfully", email),
	})
}

func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Params("email"))
	if email == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing email in path")
	}

	result := h.DB.Delete(&models.User{}, "email = ?", email)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": fmt.Sprintf("User %s deleted successfully", email),
	})
}
