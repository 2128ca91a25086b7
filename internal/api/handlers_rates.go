package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/timebill/internal/metrics"
	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
)

// ResolveProjectRates returns the rates that apply to a project, found on its nearest
// base project. With user_id only the rate assigned to that user is returned.
func (handler *Handler) ResolveProjectRates(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	if c.Query("user_id") != "" {
		userID := uint(c.QueryInt("user_id", 0))
		if userID == 0 {
			return apiError(c, fiber.StatusBadRequest, "invalid user_id")
		}
		rate, found, err := handler.rates.ResolveRateForUser(projectID, userID)
		if err != nil {
			return handler.respondRateError(c, err)
		}
		metrics.RecordRateResolution(metrics.ResultOK)
		if !found {
			return c.JSON(fiber.Map{"rate": nil})
		}
		return c.JSON(fiber.Map{"rate": rate})
	}

	resolution, err := handler.rates.ResolveRates(projectID)
	if err != nil {
		return handler.respondRateError(c, err)
	}
	metrics.RecordRateResolution(metrics.ResultOK)

	rates := resolution.Rates
	if rates == nil {
		rates = []models.Rate{}
	}
	return c.JSON(fiber.Map{"owner": resolution.Owner, "rates": rates})
}

func (handler *Handler) UpsertProjectRates(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload := rateBatchPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	items := make([]services.RateUpsert, 0, len(payload.Rates))
	for _, item := range payload.Rates {
		items = append(items, services.RateUpsert{ID: item.ID, Name: item.Name, Amount: item.Amount, Delete: item.Delete})
	}

	results, err := handler.projects.UpsertRates(projectID, items)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return respondBatch(c, results)
}

func (handler *Handler) AssignRateUsers(c *fiber.Ctx) error {
	rateID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload := rateUsersPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	rate, err := handler.projects.AssignRateUsers(rateID, payload.UserIDs)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(rate)
}

func (handler *Handler) DeleteRate(c *fiber.Ctx) error {
	rateID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := handler.projects.DeleteRate(rateID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) respondRateError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrProjectNotFound) {
		metrics.RecordRateResolution(metrics.ResultNotFound)
	} else {
		metrics.RecordRateResolution(metrics.ResultError)
	}
	return handler.respondServiceError(c, err)
}
