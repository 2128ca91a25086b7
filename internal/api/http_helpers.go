package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/timebill/internal/services"
	"go.uber.org/zap"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondServiceError maps service errors onto status codes. Anything unrecognised is
// logged and answered with a generic 500.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err),
		errors.Is(err, services.ErrRatesRequireBaseProject),
		errors.Is(err, services.ErrBatchItemNotFound):
		return apiError(c, fiber.StatusUnprocessableEntity, errorMessage(err))
	case errors.Is(err, services.ErrProjectHasChildren),
		errors.Is(err, services.ErrRootProjectDelete),
		errors.Is(err, services.ErrPartialDissociationFailure):
		return apiError(c, fiber.StatusConflict, errorMessage(err))
	case errors.Is(err, services.ErrWorkUnitNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrRateNotFound),
		errors.Is(err, services.ErrBillNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return apiError(c, fiber.StatusNotFound, errorMessage(err))
	default:
		handler.logger.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

// errorMessage flattens joined errors onto one line.
func errorMessage(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}

func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

func parseOptionalBool(raw string) (*bool, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, true
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
