package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/timebill/internal/metrics"
	"github.com/terraincognita07/timebill/internal/services"
)

const dateLayout = "2006-01-02"

func (handler *Handler) CreateWorkUnit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := workUnitPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	unit, err := handler.workUnits.Create(userID, services.WorkUnitInput{
		ProjectID:      payload.ProjectID,
		Start:          payload.Start,
		Stop:           payload.Stop,
		TimeZoneOffset: payload.TimeZone,
		ManualHours:    string(payload.Hours),
		AutoStop:       payload.AutoStop,
		Billable:       payload.Billable,
		Notes:          payload.Notes,
		Annotation:     payload.Annotation,
	}, handler.now())
	if err != nil {
		return handler.respondWorkUnitError(c, err)
	}

	metrics.RecordWorkUnitOutcome(metrics.OutcomeCreated)
	return c.Status(fiber.StatusCreated).JSON(unit)
}

func (handler *Handler) UpdateWorkUnit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	workUnitID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload := workUnitPatchPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	patch := services.WorkUnitPatch{
		ProjectID:      payload.ProjectID,
		Start:          payload.Start,
		Stop:           payload.Stop,
		TimeZoneOffset: payload.TimeZone,
		AutoStop:       payload.AutoStop,
		Billable:       payload.Billable,
		Notes:          payload.Notes,
	}
	if payload.Hours.set {
		hours := string(payload.Hours.value)
		patch.ManualHours = &hours
	}

	unit, err := handler.workUnits.Update(userID, workUnitID, patch, handler.now())
	if err != nil {
		return handler.respondWorkUnitError(c, err)
	}

	metrics.RecordWorkUnitOutcome(metrics.OutcomeUpdated)
	return c.JSON(unit)
}

func (handler *Handler) GetWorkUnit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	workUnitID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	unit, err := handler.workUnits.Find(userID, workUnitID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(unit)
}

func (handler *Handler) DeleteWorkUnit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	workUnitID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := handler.workUnits.Delete(userID, workUnitID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ListWorkUnits is the calendar feed: the current user's units started on the days
// from..to in the configured zone. Both bounds default to today.
func (handler *Handler) ListWorkUnits(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if rawUserID := strings.TrimSpace(c.Query("user_id")); rawUserID != "" {
		requested, err := strconv.ParseUint(rawUserID, 10, 64)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid user_id")
		}
		if uint(requested) != userID {
			return apiError(c, fiber.StatusForbidden, "forbidden")
		}
	}

	today := services.DateAtLocation(handler.now(), handler.location)
	from, err := handler.parseDayQuery(c.Query("from"), today)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := handler.parseDayQuery(c.Query("to"), today)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid to date")
	}

	units, err := handler.workUnits.ListForUserRange(userID, from, to, handler.location)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(units)
}

func (handler *Handler) parseDayQuery(raw string, fallback time.Time) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback, nil
	}
	return time.ParseInLocation(dateLayout, value, handler.location)
}

// respondWorkUnitError counts the outcome before mapping the error. An unknown project
// on the payload is a rejected unit, not a missing resource.
func (handler *Handler) respondWorkUnitError(c *fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err), errors.Is(err, services.ErrProjectNotFound):
		metrics.RecordWorkUnitOutcome(metrics.OutcomeRejected)
		return apiError(c, fiber.StatusUnprocessableEntity, errorMessage(err))
	case errors.Is(err, services.ErrWorkUnitNotFound):
		return handler.respondServiceError(c, err)
	default:
		metrics.RecordWorkUnitOutcome(metrics.OutcomeFailed)
		return handler.respondServiceError(c, err)
	}
}
