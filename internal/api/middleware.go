package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/terraincognita07/timebill/internal/metrics"
	"github.com/terraincognita07/timebill/internal/services"
)

// AuthRequired accepts a bearer token whose uid claim names an existing user.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	rawToken, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	claims, err := services.ParseAuthToken(handler.secretKey, rawToken, handler.now())
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	user, err := handler.users.FindByID(claims.UserID)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextUserIDKey, user.ID)
	return c.Next()
}

// RequestMetrics observes the handling time of every request under its route pattern.
func RequestMetrics(c *fiber.Ctx) error {
	started := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if fiberErr, ok := err.(*fiber.Error); ok {
		status = fiberErr.Code
	}
	metrics.RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(started))
	return err
}

// RequestID keeps a caller-supplied X-Request-ID or assigns a new UUID, and echoes it on
// the response.
func RequestID(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(contextRequestIDKey, id)
	c.Set(fiber.HeaderXRequestID, id)
	return c.Next()
}

func requestID(c *fiber.Ctx) string {
	value, _ := c.Locals(contextRequestIDKey).(string)
	return value
}

func currentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(contextUserIDKey).(uint)
	return userID, ok && userID != 0
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
