package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/timebill/internal/metrics"
	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
)

func (handler *Handler) ListBills(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	bills, err := handler.bills.List(userID, c.Query("scope"), handler.now().In(handler.location))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(bills)
}

func (handler *Handler) CreateBill(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := billPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}
	dueOn, err := parseOptionalDate(payload.DueOn)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid due_on date")
	}

	bill, err := handler.bills.CreateBill(userID, services.BillInput{
		Notes:           payload.Notes,
		DueOn:           dueOn,
		ReferenceNumber: payload.ReferenceNumber,
		WorkUnitIDs:     payload.WorkUnitIDs,
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bill)
}

func (handler *Handler) GetBillSummary(c *fiber.Ctx) error {
	bill, ok, err := handler.ownedBill(c)
	if !ok {
		return err
	}

	summary, err := handler.bills.Summary(bill.ID, handler.now().In(handler.location))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newBillSummaryResponse(summary))
}

// MarkBillPaid sets the paid date, today when paid_on is absent. An empty paid_on marks
// the bill unpaid again.
func (handler *Handler) MarkBillPaid(c *fiber.Ctx) error {
	bill, ok, err := handler.ownedBill(c)
	if !ok {
		return err
	}

	payload := billPaidPayload{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	paidOn := handler.now().In(handler.location)
	day := &paidOn
	if payload.PaidOn != nil {
		if day, err = parseOptionalDate(*payload.PaidOn); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid paid_on date")
		}
	}

	updated, err := handler.bills.MarkPaid(bill.ID, day)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(updated)
}

// DeleteBill removes the bill and detaches its work units in one transaction. When any
// unit cannot be detached nothing changes and the failed unit ids are reported.
func (handler *Handler) DeleteBill(c *fiber.Ctx) error {
	bill, ok, err := handler.ownedBill(c)
	if !ok {
		if c.Response().StatusCode() == fiber.StatusNotFound {
			metrics.RecordBillDeletion(metrics.ResultNotFound)
		}
		return err
	}

	if err := handler.bills.DeleteBill(bill.ID); err != nil {
		metrics.RecordBillDeletion(metrics.ResultError)

		var dissociation *services.DissociationError
		if errors.As(err, &dissociation) {
			failed := make([]uint, 0, len(dissociation.Failures))
			for _, failure := range dissociation.Failures {
				failed = append(failed, failure.WorkUnitID)
			}
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":             services.ErrPartialDissociationFailure.Error(),
				"failed_work_units": failed,
				"attempted":         dissociation.Attempted,
			})
		}
		return handler.respondServiceError(c, err)
	}

	metrics.RecordBillDeletion(metrics.ResultOK)
	return c.JSON(fiber.Map{"ok": true})
}

// ownedBill loads the bill named in the path for the current user. Bills of other users
// are reported as missing. When ok is false the response has been written and err is
// what the handler should return.
func (handler *Handler) ownedBill(c *fiber.Ctx) (models.Bill, bool, error) {
	userID, ok := currentUserID(c)
	if !ok {
		return models.Bill{}, false, apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	billID, ok := parseIDParam(c, "id")
	if !ok {
		return models.Bill{}, false, apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	bill, err := handler.bills.Find(billID)
	if err != nil {
		return models.Bill{}, false, handler.respondServiceError(c, err)
	}
	if bill.UserID != userID {
		return models.Bill{}, false, handler.respondServiceError(c, services.ErrBillNotFound)
	}
	return bill, true, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
