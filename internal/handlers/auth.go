package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chronica/backend/internal/models"
	"github.com/chronica/backend/internal/services"
	"github.com/chronica/backend/pkg/logger"
	"github.com/chronica/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	Geo *services.GeoIPClient
}

func NewAuthHandler(db *gorm.DB, geo *services.GeoIPClient) *AuthHandler {
	return &AuthHandler{DB: db, Geo: geo}
}

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	Surname         string `json:"surname"`
	RequestTimeline bool   `json:"requestTimeline"`
}

// Register creates a self-service account. The role is always viewer
// with an empty permitted set; only a super admin can raise it later.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	firstName := strings.TrimSpace(req.FirstName)
	surname := strings.TrimSpace(req.Surname)

	if email == "" || username == "" || password == "" || firstName == "" || surname == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing required fields: email, username, password, firstName, surname")
	}

	var existing models.User
	err := h.DB.First(&existing, "email = ?", email).Error
	if err == nil {
		return utils.Error(c, fiber.StatusConflict, "email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking email")
	}

	err = h.DB.First(&existing, "username = ?", username).Error
	if err == nil {
		return utils.Error(c, fiber.StatusConflict, "username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking username")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	user := models.User{
		Email:           email,
		Username:        username,
		PasswordHash:    hash,
		FirstName:       firstName,
		Surname:         surname,
		Role:            models.UserRoleViewer,
		Timelines:       []string{},
		RequestTimeline: req.RequestTimeline,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_registered", map[string]interface{}{
		"username": username,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": fmt.Sprintf("User %s registered successfully", email),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing email or password")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed to authenticate")
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	h.recordLogin(c, &user)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"authenticated": true,
		"isAdmin":       user.Role.IsAdmin(),
		"role":          user.Role,
		"timelines":     user.Timelines,
		"email":         user.Email,
		"username":      user.Username,
	})
}

// recordLogin writes the login-log row with a best-effort location
// lookup. Neither the lookup nor the insert may fail the login.
func (h *AuthHandler) recordLogin(c *fiber.Ctx, user *models.User) {
	ip := clientIP(c)
	location := h.Geo.Locate(c.Context(), ip)

	entry := models.LoginLog{
		Username: user.Username,
		Location: location,
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		logger.Error("login_log_insert_failed", err, map[string]interface{}{
			"username": user.Username,
		})
		return
	}

	logger.InfoWithUser(user.ID.String(), "user_logged_in", map[string]interface{}{
		"username": user.Username,
		"location": location,
	})
}

func clientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}
