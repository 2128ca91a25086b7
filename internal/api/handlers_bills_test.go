package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/reference"
)

func (fixture apiFixture) createUnit(t *testing.T, userID uint, start string, hours string) models.WorkUnit {
	t.Helper()

	status, body := fixture.do(t, http.MethodPost, "/api/work-units", userID, map[string]any{
		"project_id": fixture.child.ID,
		"start":      start,
		"hours":      hours,
	})
	expectStatus(t, status, http.StatusCreated, body)
	return decodeJSON[models.WorkUnit](t, body)
}

func TestBillLifecycleRoutes(t *testing.T) {
	fixture := newAPIFixture(t, time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC))

	first := fixture.createUnit(t, fixture.user.ID, "2026-02-20 09:00", "3")
	second := fixture.createUnit(t, fixture.user.ID, "2026-02-21 09:00", "1:30")

	status, body := fixture.do(t, http.MethodPost, "/api/bills", fixture.user.ID, map[string]any{
		"notes":         "February",
		"due_on":        "2026-03-01",
		"work_unit_ids": []uint{first.ID, second.ID},
	})
	expectStatus(t, status, http.StatusCreated, body)
	bill := decodeJSON[models.Bill](t, body)
	if !reference.Valid(bill.ReferenceNumber) {
		t.Fatalf("expected generated reference number, got %q", bill.ReferenceNumber)
	}

	status, body = fixture.do(t, http.MethodPost, "/api/bills", fixture.user.ID, map[string]any{
		"work_unit_ids": []uint{first.ID},
	})
	expectStatus(t, status, http.StatusUnprocessableEntity, body)

	status, body = fixture.do(t, http.MethodGet, idPath("/api/bills/%d/summary", bill.ID), fixture.user.ID, nil)
	expectStatus(t, status, http.StatusOK, body)
	summary := decodeJSON[billSummaryResponse](t, body)
	if summary.TotalHours != 4.5 || summary.WorkUnitCount != 2 || summary.Paid || !summary.Overdue {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if len(summary.Clients) != 1 || summary.Clients[0].Name != "Acme" {
		t.Fatalf("expected Acme as the only client, got %#v", summary.Clients)
	}

	status, body = fixture.do(t, http.MethodGet, idPath("/api/bills/%d/summary", bill.ID), fixture.other.ID, nil)
	expectStatus(t, status, http.StatusNotFound, body)

	status, body = fixture.do(t, http.MethodGet, "/api/bills?scope=overdue", fixture.user.ID, nil)
	expectStatus(t, status, http.StatusOK, body)
	if bills := decodeJSON[[]models.Bill](t, body); len(bills) != 1 {
		t.Fatalf("expected one overdue bill, got %d", len(bills))
	}
	status, body = fixture.do(t, http.MethodGet, "/api/bills?scope=someday", fixture.user.ID, nil)
	expectStatus(t, status, http.StatusUnprocessableEntity, body)

	status, body = fixture.do(t, http.MethodPut, idPath("/api/bills/%d/paid", bill.ID), fixture.user.ID, map[string]any{
		"paid_on": "2026-03-04",
	})
	expectStatus(t, status, http.StatusOK, body)
	if paid := decodeJSON[models.Bill](t, body); !paid.Paid() {
		t.Fatalf("expected bill to be paid, got %#v", paid)
	}
	status, body = fixture.do(t, http.MethodGet, "/api/bills?scope=paid", fixture.user.ID, nil)
	expectStatus(t, status, http.StatusOK, body)
	if bills := decodeJSON[[]models.Bill](t, body); len(bills) != 1 {
		t.Fatalf("expected one paid bill, got %d", len(bills))
	}

	status, body = fixture.do(t, http.MethodDelete, idPath("/api/bills/%d", bill.ID), fixture.other.ID, nil)
	expectStatus(t, status, http.StatusNotFound, body)

	status, body = fixture.do(t, http.MethodDelete, idPath("/api/bills/%d", bill.ID), fixture.user.ID, nil)
	expectStatus(t, status, http.StatusOK, body)

	for _, workUnitID := range []uint{first.ID, second.ID} {
		status, body = fixture.do(t, http.MethodGet, idPath("/api/work-units/%d", workUnitID), fixture.user.ID, nil)
		expectStatus(t, status, http.StatusOK, body)
		if unit := decodeJSON[models.WorkUnit](t, body); unit.BillID != nil {
			t.Fatalf("expected work unit %d detached from the deleted bill", workUnitID)
		}
	}
	status, body = fixture.do(t, http.MethodGet, idPath("/api/bills/%d/summary", bill.ID), fixture.user.ID, nil)
	expectStatus(t, status, http.StatusNotFound, body)
}

func TestCreateBillRejectsAnotherUsersWorkUnits(t *testing.T) {
	fixture := newAPIFixture(t, time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC))

	foreign := fixture.createUnit(t, fixture.other.ID, "2026-02-20 09:00", "2")

	status, body := fixture.do(t, http.MethodPost, "/api/bills", fixture.user.ID, map[string]any{
		"work_unit_ids": []uint{foreign.ID},
	})
	expectStatus(t, status, http.StatusUnprocessableEntity, body)

	status, body = fixture.do(t, http.MethodPost, "/api/bills", fixture.user.ID, map[string]any{
		"due_on": "next week",
	})
	expectStatus(t, status, http.StatusBadRequest, body)
}
