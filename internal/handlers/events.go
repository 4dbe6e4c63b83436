package handlers

import (
	"strings"

	"github.com/chronica/backend/internal/middleware"
	"github.com/chronica/backend/internal/services"
	"github.com/chronica/backend/pkg/logger"
	"github.com/chronica/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type EventsHandler struct {
	Events *services.EventService
}

func NewEventsHandler(events *services.EventService) *EventsHandler {
	return &EventsHandler{Events: events}
}

type eventRequest struct {
	Date         string `json:"date"`
	Description  string `json:"description"`
	TimelineName string `json:"timelineName"`
	OriginalFile string `json:"originalFile"`
	CroppedFile  string `json:"croppedFile"`
}

func (r *eventRequest) toInput() services.EventInput {
	return services.EventInput{
		TimelineName:    strings.TrimSpace(r.TimelineName),
		Date:            r.Date,
		Description:     r.Description,
		OriginalPayload: r.OriginalFile,
		CroppedPayload:  r.CroppedFile,
	}
}

func (h *EventsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	timelineName := strings.TrimSpace(c.Query("timelineName"))
	if timelineName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing timelineName")
	}

	if err := services.Authorize(currentUser.Role, currentUser.Timelines, timelineName, services.OperationRead); err != nil {
		logger.WarnWithUser(currentUser.ID.String(), "event_read_denied", map[string]interface{}{
			"timeline_name": timelineName,
		})
		return serviceError(c, err)
	}

	events, err := h.Events.ListByTimeline(c.Context(), timelineName)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"events": events,
	})
}

func (h *EventsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	in := req.toInput()
	if in.Date == "" || in.Description == "" || in.TimelineName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing required fields: date, description, timelineName")
	}

	if err := services.Authorize(currentUser.Role, currentUser.Timelines, in.TimelineName, services.OperationWrite); err != nil {
		logger.WarnWithUser(currentUser.ID.String(), "event_write_denied", map[string]interface{}{
			"timeline_name": in.TimelineName,
		})
		return serviceError(c, err)
	}

	event, err := h.Events.Create(c.Context(), in)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "Event added",
		"event":   event,
	})
}

func (h *EventsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	eventID, err := parseUUID(c.Params("eventId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid eventId")
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	in := req.toInput()
	if in.Date == "" || in.Description == "" || in.TimelineName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing required fields: date, description, timelineName")
	}

	if err := services.Authorize(currentUser.Role, currentUser.Timelines, in.TimelineName, services.OperationWrite); err != nil {
		logger.WarnWithUser(currentUser.ID.String(), "event_write_denied", map[string]interface{}{
			"timeline_name": in.TimelineName,
			"event_id":      eventID.String(),
		})
		return serviceError(c, err)
	}

	event, err := h.Events.Update(c.Context(), eventID, in)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Event updated",
		"event":   event,
	})
}

func (h *EventsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	eventID, err := parseUUID(c.Params("eventId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid eventId")
	}

	timelineName := strings.TrimSpace(c.Query("timelineName"))
	if timelineName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing timelineName")
	}

	if err := services.Authorize(currentUser.Role, currentUser.Timelines, timelineName, services.OperationDelete); err != nil {
		logger.WarnWithUser(currentUser.ID.String(), "event_delete_denied", map[string]interface{}{
			"timeline_name": timelineName,
			"event_id":      eventID.String(),
		})
		return serviceError(c, err)
	}

	deleted, failed, err := h.Events.Delete(c.Context(), eventID, timelineName)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":      "Event deleted successfully",
		"deletedFiles": deleted,
		"failedFiles":  failed,
	})
}
