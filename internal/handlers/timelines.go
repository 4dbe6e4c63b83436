package handlers

import (
	"fmt"
	"strings"

	"github.com/chronica/backend/internal/middleware"
	"github.com/chronica/backend/internal/services"
	"github.com/chronica/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type TimelinesHandler struct {
	Registry *services.TimelineService
}

func NewTimelinesHandler(registry *services.TimelineService) *TimelinesHandler {
	return &TimelinesHandler{Registry: registry}
}

type createTimelineRequest struct {
	TimelineName string `json:"timelineName"`
}

func (h *TimelinesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	var req createTimelineRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	name := strings.TrimSpace(req.TimelineName)
	if name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing timelineName in request body")
	}

	if _, err := h.Registry.Create(c.Context(), name, currentUser); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": fmt.Sprintf("Timeline %s created successfully", name),
	})
}

func (h *TimelinesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	timelines, err := h.Registry.Visible(c.Context(), currentUser)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"timelines": timelines,
	})
}
