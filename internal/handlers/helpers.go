package handlers

import (
	"strings"

	"github.com/chronica/backend/internal/apperr"
	"github.com/chronica/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps a typed service error onto the response envelope.
// The transport is the only layer that knows about status codes.
func serviceError(c *fiber.Ctx, err error) error {
	return utils.Error(c, statusForKind(apperr.KindOf(err)), apperr.Message(err))
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindMissingCallerIdentity,
		apperr.KindInvalidPayload,
		apperr.KindMalformedDataURI,
		apperr.KindUnsupportedExtension:
		return fiber.StatusBadRequest
	case apperr.KindUserNotFound:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden, apperr.KindTimelineAccessDenied:
		return fiber.StatusForbidden
	case apperr.KindNotFound, apperr.KindTimelineMismatch:
		return fiber.StatusNotFound
	case apperr.KindAlreadyExists:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
