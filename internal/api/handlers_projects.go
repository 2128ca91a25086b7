package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
)

func (handler *Handler) ListProjects(c *fiber.Ctx) error {
	archived, ok := parseOptionalBool(c.Query("archived"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid archived filter")
	}

	projects, err := handler.projects.List(archived)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(projects)
}

func (handler *Handler) GetProject(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	view, err := handler.projects.Find(projectID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newProjectViewResponse(view))
}

func (handler *Handler) CreateProject(c *fiber.Ctx) error {
	payload := projectPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	project, err := handler.projects.Create(services.ProjectInput{
		Name:        payload.Name,
		ParentID:    payload.ParentID,
		ClientID:    payload.ClientID,
		Account:     payload.Account,
		Description: payload.Description,
		Clockable:   payload.Clockable,
		Billable:    payload.Billable,
		FlatRate:    payload.FlatRate,
		Archived:    payload.Archived,
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (handler *Handler) UpdateProject(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload := projectPatchPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	project, err := handler.projects.Update(projectID, services.ProjectPatch{
		Name:        payload.Name,
		ParentID:    payload.ParentID,
		ClientID:    payload.ClientID,
		Account:     payload.Account,
		Description: payload.Description,
		Clockable:   payload.Clockable,
		Billable:    payload.Billable,
		FlatRate:    payload.FlatRate,
		Archived:    payload.Archived,
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(project)
}

func (handler *Handler) DeleteProject(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := handler.projects.Delete(projectID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) UpsertProjectRepositories(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload := repositoryBatchPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	items := make([]services.RepositoryUpsert, 0, len(payload.Repositories))
	for _, item := range payload.Repositories {
		items = append(items, services.RepositoryUpsert{ID: item.ID, URL: item.URL, Delete: item.Delete})
	}

	results, err := handler.projects.UpsertRepositories(projectID, items)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return respondBatch(c, results)
}

func (handler *Handler) GetRepositoriesSource(c *fiber.Ctx) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}

	source, repositories, found, err := handler.projects.RepositoriesSource(projectID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if !found {
		return c.JSON(fiber.Map{"project": nil, "repositories": []models.Repository{}})
	}
	return c.JSON(fiber.Map{"project": source, "repositories": repositories})
}

// respondBatch answers 200 when every item applied and 207 when some were rejected.
func respondBatch(c *fiber.Ctx, results []services.BatchItemResult) error {
	items, allApplied := batchResponse(results)
	status := fiber.StatusOK
	if !allApplied {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"results": items})
}
