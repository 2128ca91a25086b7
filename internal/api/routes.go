package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Use(RequestID)
	app.Use(RequestMetrics)
	app.Get("/healthz", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.AuthRequired)

	workUnits := api.Group("/work-units")
	workUnits.Get("", handler.ListWorkUnits)
	workUnits.Post("", handler.CreateWorkUnit)
	workUnits.Get("/:id", handler.GetWorkUnit)
	workUnits.Put("/:id", handler.UpdateWorkUnit)
	workUnits.Delete("/:id", handler.DeleteWorkUnit)

	projects := api.Group("/projects")
	projects.Get("", handler.ListProjects)
	projects.Post("", handler.CreateProject)
	projects.Get("/:id", handler.GetProject)
	projects.Put("/:id", handler.UpdateProject)
	projects.Delete("/:id", handler.DeleteProject)
	projects.Get("/:id/rates", handler.ResolveProjectRates)
	projects.Post("/:id/rates", handler.UpsertProjectRates)
	projects.Post("/:id/repositories", handler.UpsertProjectRepositories)
	projects.Get("/:id/repositories/source", handler.GetRepositoriesSource)

	rates := api.Group("/rates")
	rates.Put("/:id/users", handler.AssignRateUsers)
	rates.Delete("/:id", handler.DeleteRate)

	bills := api.Group("/bills")
	bills.Get("", handler.ListBills)
	bills.Post("", handler.CreateBill)
	bills.Get("/:id/summary", handler.GetBillSummary)
	bills.Put("/:id/paid", handler.MarkBillPaid)
	bills.Delete("/:id", handler.DeleteBill)
}
