package api

import (
	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
)

type batchItemResponse struct {
	Index   int    `json:"index"`
	ID      uint   `json:"id,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Error   string `json:"error,omitempty"`
}

func batchResponse(results []services.BatchItemResult) ([]batchItemResponse, bool) {
	response := make([]batchItemResponse, 0, len(results))
	allApplied := true
	for _, result := range results {
		item := batchItemResponse{Index: result.Index, ID: result.ID, Deleted: result.Deleted}
		if result.Err != nil {
			item.Error = errorMessage(result.Err)
			allApplied = false
		}
		response = append(response, item)
	}
	return response, allApplied
}

type projectViewResponse struct {
	models.Project
	Kind               string           `json:"kind"`
	Ancestors          []models.Project `json:"ancestors"`
	EffectiveAccount   string           `json:"effective_account"`
	EffectiveClockable bool             `json:"effective_clockable"`
}

func newProjectViewResponse(view services.ProjectView) projectViewResponse {
	ancestors := view.Ancestors
	if ancestors == nil {
		ancestors = []models.Project{}
	}
	return projectViewResponse{
		Project:            view.Project,
		Kind:               view.Kind.String(),
		Ancestors:          ancestors,
		EffectiveAccount:   view.EffectiveAccount,
		EffectiveClockable: view.EffectiveClockable,
	}
}

type billSummaryResponse struct {
	Bill          models.Bill     `json:"bill"`
	TotalHours    float64         `json:"total_hours"`
	Clients       []models.Client `json:"clients"`
	WorkUnitCount int             `json:"work_unit_count"`
	Paid          bool            `json:"paid"`
	Overdue       bool            `json:"overdue"`
}

func newBillSummaryResponse(summary services.BillSummary) billSummaryResponse {
	clients := summary.Clients
	if clients == nil {
		clients = []models.Client{}
	}
	return billSummaryResponse{
		Bill:          summary.Bill,
		TotalHours:    summary.TotalHours,
		Clients:       clients,
		WorkUnitCount: summary.WorkUnitCount,
		Paid:          summary.Paid,
		Overdue:       summary.Overdue,
	}
}
