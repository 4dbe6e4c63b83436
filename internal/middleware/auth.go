package middleware

import (
	"errors"
	"strings"

	"github.com/chronica/backend/internal/models"
	"github.com/chronica/backend/internal/services"
	"github.com/chronica/backend/pkg/logger"
	"github.com/chronica/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

const currentUserKey = "currentUser"

// identityHeader carries the caller's email, asserted by the upstream
// gateway. This service only resolves it to a user record; it does not
// verify sessions or tokens.
const identityHeader = "X-Auth-Email"

type IdentityMiddleware struct {
	DB *gorm.DB
}

func NewIdentityMiddleware(db *gorm.DB) *IdentityMiddleware {
	return &IdentityMiddleware{DB: db}
}

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Auth-Email",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	})
}

// RequireIdentity resolves the identity header to a user record. A
// missing header is a validation failure (400); an unknown email is an
// identity failure (401). Both are distinct from policy denials.
func (m *IdentityMiddleware) RequireIdentity(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Get(identityHeader))
	if email == "" {
		logger.Warn("identity_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusBadRequest, "missing X-Auth-Email header")
	}

	var user models.User
	if err := m.DB.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("identity_user_not_found", map[string]interface{}{
				"ip":   c.IP(),
				"path": c.Path(),
			})
			return utils.Error(c, fiber.StatusUnauthorized, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	c.Locals(currentUserKey, &user)
	return c.Next()
}

func SuperAdminOnly(c *fiber.Ctx) error {
	user := GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}
	if err := services.Authorize(user.Role, user.Timelines, "", services.OperationManageUsers); err != nil {
		return utils.Error(c, fiber.StatusForbidden, "super admin access required")
	}
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
