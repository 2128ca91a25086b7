package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/terraincognita07/timebill/internal/models"
)

type ProjectRepository interface {
	ListAll() ([]models.Project, error)
	ListByArchived(archived bool) ([]models.Project, error)
	FindByID(projectID uint) (models.Project, bool, error)
	Save(project *models.Project, detachRates bool) error
	Delete(projectID uint) error
	CountRepositories() (map[uint]int, error)
}

type ProjectClientRepository interface {
	FindByID(clientID uint) (models.Client, bool, error)
}

type ProjectRateRepository interface {
	ListByProject(projectID uint) ([]models.Rate, error)
	FindByID(rateID uint) (models.Rate, bool, error)
	ApplyBatch(projectID uint, upserts []*models.Rate, deletions []uint) error
	ReplaceUsers(rateID uint, userIDs []uint) error
	Delete(rateID uint) error
}

type ProjectSourceRepository interface {
	ListByProject(projectID uint) ([]models.Repository, error)
	ApplyBatch(projectID uint, upserts []*models.Repository, deletions []uint) error
}

type ProjectInput struct {
	Name        string
	ParentID    *uint
	ClientID    *uint
	Account     string
	Description string
	Clockable   bool
	Billable    *bool
	FlatRate    bool
	Archived    bool
}

// ProjectPatch changes only the fields that are set.
type ProjectPatch struct {
	Name        *string
	ParentID    *uint
	ClientID    *uint
	Account     *string
	Description *string
	Clockable   *bool
	Billable    *bool
	FlatRate    *bool
	Archived    *bool
}

// RateUpsert creates a rate when ID is zero, updates it otherwise, or deletes it.
type RateUpsert struct {
	ID     uint
	Name   string
	Amount int
	Delete bool
}

// RepositoryUpsert creates, updates or deletes one source repository of a project.
type RepositoryUpsert struct {
	ID     uint
	URL    string
	Delete bool
}

// BatchItemResult reports the outcome of one batch item by its position in the request.
type BatchItemResult struct {
	Index   int
	ID      uint
	Deleted bool
	Err     error
}

// ProjectView is a project together with the values it inherits from the hierarchy.
type ProjectView struct {
	Project            models.Project
	Kind               ProjectKind
	Ancestors          []models.Project
	EffectiveAccount   string
	EffectiveClockable bool
}

type ProjectService struct {
	projects     ProjectRepository
	rates        ProjectRateRepository
	repositories ProjectSourceRepository
	clients      ProjectClientRepository
	locks        *projectLocks
}

func NewProjectService(projects ProjectRepository, rates ProjectRateRepository, repositories ProjectSourceRepository, clients ProjectClientRepository) *ProjectService {
	return &ProjectService{
		projects:     projects,
		rates:        rates,
		repositories: repositories,
		clients:      clients,
		locks:        newProjectLocks(),
	}
}

func (service *ProjectService) Tree() (*ProjectTree, error) {
	projects, err := service.projects.ListAll()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return NewProjectTree(projects), nil
}

func (service *ProjectService) Create(input ProjectInput) (models.Project, error) {
	unlock := service.locks.Lock(hierarchyLockKey)
	defer unlock()

	project := models.Project{
		Name:        strings.TrimSpace(input.Name),
		ParentID:    input.ParentID,
		ClientID:    normalizeID(input.ClientID),
		Account:     strings.TrimSpace(input.Account),
		Description: strings.TrimSpace(input.Description),
		Clockable:   input.Clockable,
		Billable:    true,
		FlatRate:    input.FlatRate,
		Archived:    input.Archived,
	}
	if input.Billable != nil {
		project.Billable = *input.Billable
	}

	if err := service.save(&project); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// Update applies the patch and saves the project under the hierarchy rules. Saving a
// project that is not a base project detaches every rate it still owns.
func (service *ProjectService) Update(projectID uint, patch ProjectPatch) (models.Project, error) {
	keys := []uint{projectID}
	if patch.ParentID != nil {
		keys = []uint{hierarchyLockKey, projectID}
	}
	unlock := service.locks.Lock(keys...)
	defer unlock()

	project, err := service.find(projectID)
	if err != nil {
		return models.Project{}, err
	}

	if patch.Name != nil {
		project.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ParentID != nil {
		parentID := *patch.ParentID
		project.ParentID = &parentID
	}
	if patch.ClientID != nil {
		project.ClientID = normalizeID(patch.ClientID)
	}
	if patch.Account != nil {
		project.Account = strings.TrimSpace(*patch.Account)
	}
	if patch.Description != nil {
		project.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Clockable != nil {
		project.Clockable = *patch.Clockable
	}
	if patch.Billable != nil {
		project.Billable = *patch.Billable
	}
	if patch.FlatRate != nil {
		project.FlatRate = *patch.FlatRate
	}
	if patch.Archived != nil {
		project.Archived = *patch.Archived
	}

	if err := service.save(&project); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

func (service *ProjectService) save(project *models.Project) error {
	tree, err := service.Tree()
	if err != nil {
		return err
	}
	violations := make([]error, 0, 2)
	if err := tree.ValidateProject(*project); err != nil {
		violations = append(violations, err)
	}
	if project.ClientID != nil {
		_, found, err := service.clients.FindByID(*project.ClientID)
		if err != nil {
			return fmt.Errorf("load client %d: %w", *project.ClientID, err)
		}
		if !found {
			violations = append(violations, ErrClientNotFound)
		}
	}
	if err := joinViolations(violations); err != nil {
		return err
	}

	tree.CascadeClient(project)
	detachRates := tree.KindOf(*project) != ProjectKindBase
	if err := service.projects.Save(project, detachRates); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (service *ProjectService) Find(projectID uint) (ProjectView, error) {
	tree, err := service.Tree()
	if err != nil {
		return ProjectView{}, err
	}
	project, ok := tree.Project(projectID)
	if !ok {
		return ProjectView{}, ErrProjectNotFound
	}
	return ProjectView{
		Project:            project,
		Kind:               tree.KindOf(project),
		Ancestors:          tree.Ancestors(projectID),
		EffectiveAccount:   tree.EffectiveAccount(projectID),
		EffectiveClockable: tree.EffectiveClockable(projectID),
	}, nil
}

// List returns every project when archived is nil, otherwise only that scope.
func (service *ProjectService) List(archived *bool) ([]models.Project, error) {
	if archived == nil {
		return service.projects.ListAll()
	}
	return service.projects.ListByArchived(*archived)
}

// Delete removes a leaf project other than the root. Its work units stay behind
// without a project.
func (service *ProjectService) Delete(projectID uint) error {
	unlock := service.locks.Lock(hierarchyLockKey, projectID)
	defer unlock()

	tree, err := service.Tree()
	if err != nil {
		return err
	}
	if _, ok := tree.Project(projectID); !ok {
		return ErrProjectNotFound
	}
	if tree.Kind(projectID) == ProjectKindRoot {
		return ErrRootProjectDelete
	}
	if len(tree.Descendants(projectID)) > 0 {
		return ErrProjectHasChildren
	}
	if err := service.projects.Delete(projectID); err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}
	return nil
}

// UpsertRates applies a batch of rate changes to one project. Each item is validated on
// its own; invalid items are reported and skipped while the rest are written together.
// Only base projects accept new or changed rates.
func (service *ProjectService) UpsertRates(projectID uint, items []RateUpsert) ([]BatchItemResult, error) {
	unlock := service.locks.Lock(projectID)
	defer unlock()

	tree, err := service.Tree()
	if err != nil {
		return nil, err
	}
	if _, ok := tree.Project(projectID); !ok {
		return nil, ErrProjectNotFound
	}
	holdsRates := tree.Kind(projectID) == ProjectKindBase

	existing, err := service.rates.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("load rates of project %d: %w", projectID, err)
	}
	existingByID := make(map[uint]models.Rate, len(existing))
	for _, rate := range existing {
		existingByID[rate.ID] = rate
	}

	results := make([]BatchItemResult, len(items))
	upserts := make([]*models.Rate, 0, len(items))
	upsertIndexes := make([]int, 0, len(items))
	deletions := make([]uint, 0)
	for index, item := range items {
		results[index] = BatchItemResult{Index: index, ID: item.ID}

		rate := models.Rate{Name: strings.TrimSpace(item.Name), Amount: item.Amount}
		if item.ID != 0 {
			current, ok := existingByID[item.ID]
			if !ok {
				results[index].Err = ErrBatchItemNotFound
				continue
			}
			rate = current
			rate.Name = strings.TrimSpace(item.Name)
			rate.Amount = item.Amount
		}

		if item.Delete {
			if item.ID == 0 {
				results[index].Err = ErrBatchItemNotFound
				continue
			}
			deletions = append(deletions, item.ID)
			results[index].Deleted = true
			continue
		}

		if !holdsRates {
			results[index].Err = ErrRatesRequireBaseProject
			continue
		}
		if err := ValidateRate(rate); err != nil {
			results[index].Err = err
			continue
		}

		rate.Users = nil
		stored := rate
		upserts = append(upserts, &stored)
		upsertIndexes = append(upsertIndexes, index)
	}

	if len(upserts) == 0 && len(deletions) == 0 {
		return results, nil
	}
	if err := service.rates.ApplyBatch(projectID, upserts, deletions); err != nil {
		return nil, fmt.Errorf("apply rate batch to project %d: %w", projectID, err)
	}
	for position, rate := range upserts {
		results[upsertIndexes[position]].ID = rate.ID
	}
	return results, nil
}

// UpsertRepositories applies a batch of source repository changes to one project with
// per-item validation.
func (service *ProjectService) UpsertRepositories(projectID uint, items []RepositoryUpsert) ([]BatchItemResult, error) {
	unlock := service.locks.Lock(projectID)
	defer unlock()

	if _, err := service.find(projectID); err != nil {
		return nil, err
	}

	existing, err := service.repositories.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("load repositories of project %d: %w", projectID, err)
	}
	existingByID := make(map[uint]models.Repository, len(existing))
	for _, repository := range existing {
		existingByID[repository.ID] = repository
	}

	results := make([]BatchItemResult, len(items))
	upserts := make([]*models.Repository, 0, len(items))
	upsertIndexes := make([]int, 0, len(items))
	deletions := make([]uint, 0)
	for index, item := range items {
		results[index] = BatchItemResult{Index: index, ID: item.ID}

		repository := models.Repository{URL: strings.TrimSpace(item.URL)}
		if item.ID != 0 {
			current, ok := existingByID[item.ID]
			if !ok {
				results[index].Err = ErrBatchItemNotFound
				continue
			}
			repository = current
			repository.URL = strings.TrimSpace(item.URL)
		}

		if item.Delete {
			if item.ID == 0 {
				results[index].Err = ErrBatchItemNotFound
				continue
			}
			deletions = append(deletions, item.ID)
			results[index].Deleted = true
			continue
		}
		if repository.URL == "" {
			results[index].Err = ErrRepositoryURLMissing
			continue
		}

		stored := repository
		upserts = append(upserts, &stored)
		upsertIndexes = append(upsertIndexes, index)
	}

	if len(upserts) == 0 && len(deletions) == 0 {
		return results, nil
	}
	if err := service.repositories.ApplyBatch(projectID, upserts, deletions); err != nil {
		return nil, fmt.Errorf("apply repository batch to project %d: %w", projectID, err)
	}
	for position, repository := range upserts {
		results[upsertIndexes[position]].ID = repository.ID
	}
	return results, nil
}

// RepositoriesSource finds the nearest project, the given one included, that has source
// repositories and returns it with its repositories. found is false when no project in
// the chain has any.
func (service *ProjectService) RepositoriesSource(projectID uint) (models.Project, []models.Repository, bool, error) {
	tree, err := service.Tree()
	if err != nil {
		return models.Project{}, nil, false, err
	}
	if _, ok := tree.Project(projectID); !ok {
		return models.Project{}, nil, false, ErrProjectNotFound
	}

	counts, err := service.projects.CountRepositories()
	if err != nil {
		return models.Project{}, nil, false, fmt.Errorf("count repositories: %w", err)
	}
	source, found := tree.RepositoriesSource(projectID, counts)
	if !found {
		return models.Project{}, []models.Repository{}, false, nil
	}

	repositories, err := service.repositories.ListByProject(source.ID)
	if err != nil {
		return models.Project{}, nil, false, fmt.Errorf("load repositories of project %d: %w", source.ID, err)
	}
	return source, repositories, true, nil
}

// AssignRateUsers replaces the users a rate applies to.
func (service *ProjectService) AssignRateUsers(rateID uint, userIDs []uint) (models.Rate, error) {
	rate, err := service.findRate(rateID)
	if err != nil {
		return models.Rate{}, err
	}
	if rate.ProjectID != nil {
		unlock := service.locks.Lock(*rate.ProjectID)
		defer unlock()
	}

	if err := service.rates.ReplaceUsers(rateID, uniqueSortedIDs(userIDs)); err != nil {
		return models.Rate{}, fmt.Errorf("assign users to rate %d: %w", rateID, err)
	}
	return service.findRate(rateID)
}

// DeleteRate removes the rate after clearing its user assignments.
func (service *ProjectService) DeleteRate(rateID uint) error {
	rate, err := service.findRate(rateID)
	if err != nil {
		return err
	}
	if rate.ProjectID != nil {
		unlock := service.locks.Lock(*rate.ProjectID)
		defer unlock()
	}

	if err := service.rates.Delete(rateID); err != nil {
		return fmt.Errorf("delete rate %d: %w", rateID, err)
	}
	return nil
}

func (service *ProjectService) find(projectID uint) (models.Project, error) {
	project, found, err := service.projects.FindByID(projectID)
	if err != nil {
		return models.Project{}, fmt.Errorf("load project %d: %w", projectID, err)
	}
	if !found {
		return models.Project{}, ErrProjectNotFound
	}
	return project, nil
}

func (service *ProjectService) findRate(rateID uint) (models.Rate, error) {
	rate, found, err := service.rates.FindByID(rateID)
	if err != nil {
		return models.Rate{}, fmt.Errorf("load rate %d: %w", rateID, err)
	}
	if !found {
		return models.Rate{}, ErrRateNotFound
	}
	return rate, nil
}

func uniqueSortedIDs(values []uint) []uint {
	seen := make(map[uint]struct{}, len(values))
	result := make([]uint, 0, len(values))
	for _, value := range values {
		if value == 0 {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
