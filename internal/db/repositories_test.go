package db

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
	"gorm.io/gorm"
)

type repositoryFixture struct {
	database *gorm.DB
	repos    *Repositories
	user     models.User
	client   models.Client
	root     models.Project
	base     models.Project
	child    models.Project
}

func newRepositoryFixture(t *testing.T) repositoryFixture {
	t.Helper()

	database := openTestDatabase(t)
	repos := NewRepositories(database)
	fixture := repositoryFixture{database: database, repos: repos}

	fixture.user = models.User{Login: "ada", Name: "Ada"}
	if err := repos.Users.Create(&fixture.user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	fixture.client = models.Client{Name: "Acme"}
	if err := repos.Clients.Create(&fixture.client); err != nil {
		t.Fatalf("create client: %v", err)
	}

	fixture.root = models.Project{Name: models.RootProjectName, Billable: true}
	if err := repos.Projects.Save(&fixture.root, true); err != nil {
		t.Fatalf("create root: %v", err)
	}
	fixture.base = models.Project{Name: "alpha", ParentID: &fixture.root.ID, ClientID: &fixture.client.ID, Billable: true}
	if err := repos.Projects.Save(&fixture.base, false); err != nil {
		t.Fatalf("create base: %v", err)
	}
	fixture.child = models.Project{Name: "alpha-web", ParentID: &fixture.base.ID, ClientID: &fixture.client.ID}
	if err := repos.Projects.Save(&fixture.child, true); err != nil {
		t.Fatalf("create child: %v", err)
	}
	return fixture
}

func (fixture repositoryFixture) createWorkUnit(t *testing.T, start time.Time, hours float64) models.WorkUnit {
	t.Helper()

	stop := start.Add(time.Duration(hours * float64(time.Hour)))
	unit := models.WorkUnit{
		UserID:    fixture.user.ID,
		ProjectID: &fixture.child.ID,
		StartTime: &start,
		StopTime:  &stop,
		Hours:     &hours,
		Billable:  true,
	}
	if err := fixture.repos.WorkUnits.Create(&unit, nil); err != nil {
		t.Fatalf("create work unit: %v", err)
	}
	return unit
}

func TestProjectSaveDetachesRatesFromNonBaseProjects(t *testing.T) {
	fixture := newRepositoryFixture(t)

	stale := models.Rate{ProjectID: &fixture.child.ID, Name: "stale", Amount: 10}
	if err := fixture.database.Create(&stale).Error; err != nil {
		t.Fatalf("create stale rate: %v", err)
	}

	fixture.child.Description = "web frontend"
	if err := fixture.repos.Projects.Save(&fixture.child, true); err != nil {
		t.Fatalf("save child: %v", err)
	}

	rates, err := fixture.repos.Rates.ListByProject(fixture.child.ID)
	if err != nil {
		t.Fatalf("list child rates: %v", err)
	}
	if len(rates) != 0 {
		t.Fatalf("expected child rates to be detached, got %d", len(rates))
	}

	orphaned, found, err := fixture.repos.Rates.FindByID(stale.ID)
	if err != nil || !found {
		t.Fatalf("expected detached rate to survive, found=%v err=%v", found, err)
	}
	if orphaned.ProjectID != nil {
		t.Fatalf("expected detached rate without project, got %d", *orphaned.ProjectID)
	}
}

func TestRateBatchAndUserAssignment(t *testing.T) {
	fixture := newRepositoryFixture(t)

	standard := &models.Rate{Name: "standard", Amount: 90}
	senior := &models.Rate{Name: "senior", Amount: 120}
	if err := fixture.repos.Rates.ApplyBatch(fixture.base.ID, []*models.Rate{standard, senior}, nil); err != nil {
		t.Fatalf("apply rate batch: %v", err)
	}
	if standard.ID == 0 || senior.ID == 0 {
		t.Fatal("expected batch to assign rate ids")
	}

	if err := fixture.repos.Rates.ReplaceUsers(standard.ID, []uint{fixture.user.ID}); err != nil {
		t.Fatalf("assign users: %v", err)
	}
	rates, err := fixture.repos.Rates.ListByProject(fixture.base.ID)
	if err != nil {
		t.Fatalf("list rates: %v", err)
	}
	if len(rates) != 2 || !rates[0].AssignedTo(fixture.user.ID) || rates[1].AssignedTo(fixture.user.ID) {
		t.Fatalf("unexpected rates after assignment: %#v", rates)
	}

	if err := fixture.repos.Rates.Delete(standard.ID); err != nil {
		t.Fatalf("delete rate: %v", err)
	}
	var links int64
	if err := fixture.database.Table("rates_users").Where("rate_id = ?", standard.ID).Count(&links).Error; err != nil {
		t.Fatalf("count rate users: %v", err)
	}
	if links != 0 {
		t.Fatalf("expected rate user links to be cleared, got %d", links)
	}

	invalid := &models.Rate{Name: "negative", Amount: -1}
	if err := fixture.repos.Rates.ApplyBatch(fixture.base.ID, []*models.Rate{invalid}, []uint{senior.ID}); err == nil {
		t.Fatal("expected negative amount to violate the check constraint")
	}
	if _, found, _ := fixture.repos.Rates.FindByID(senior.ID); !found {
		t.Fatal("expected failed batch to keep the senior rate")
	}
}

func TestBillDeleteDetachesWorkUnits(t *testing.T) {
	fixture := newRepositoryFixture(t)
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	first := fixture.createWorkUnit(t, start, 4)
	second := fixture.createWorkUnit(t, start.Add(24*time.Hour), 7)

	bill := models.Bill{UserID: fixture.user.ID, ReferenceNumber: "TB-AAAA-BBBB"}
	if err := fixture.repos.Bills.Create(&bill, []uint{first.ID, second.ID}); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	attached, err := fixture.repos.WorkUnits.ListByBill(bill.ID)
	if err != nil || len(attached) != 2 {
		t.Fatalf("expected two attached units, got %d err=%v", len(attached), err)
	}

	if err := fixture.repos.Bills.Delete(bill.ID, services.DissociateWorkUnits); err != nil {
		t.Fatalf("delete bill: %v", err)
	}
	if _, found, _ := fixture.repos.Bills.FindByID(bill.ID); found {
		t.Fatal("expected bill to be deleted")
	}
	for _, workUnitID := range []uint{first.ID, second.ID} {
		unit, found, err := fixture.repos.WorkUnits.FindByID(workUnitID)
		if err != nil || !found {
			t.Fatalf("expected work unit %d to survive, found=%v err=%v", workUnitID, found, err)
		}
		if unit.BillID != nil {
			t.Fatalf("expected work unit %d bill to be cleared", workUnitID)
		}
		if unit.Hours == nil {
			t.Fatalf("expected work unit %d to keep its hours", workUnitID)
		}
	}
}

func TestBillDeleteRollsBackWhenDetachFails(t *testing.T) {
	fixture := newRepositoryFixture(t)
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	first := fixture.createWorkUnit(t, start, 4)
	second := fixture.createWorkUnit(t, start.Add(time.Hour*5), 2)

	bill := models.Bill{UserID: fixture.user.ID}
	if err := fixture.repos.Bills.Create(&bill, []uint{first.ID, second.ID}); err != nil {
		t.Fatalf("create bill: %v", err)
	}

	failing := errors.New("simulated write failure")
	err := fixture.repos.Bills.Delete(bill.ID, func(units []models.WorkUnit, save func(*models.WorkUnit) error) error {
		return services.DissociateWorkUnits(units, func(unit *models.WorkUnit) error {
			if unit.ID == second.ID {
				return failing
			}
			return save(unit)
		})
	})
	if !errors.Is(err, services.ErrPartialDissociationFailure) {
		t.Fatalf("expected partial dissociation failure, got %v", err)
	}

	if _, found, _ := fixture.repos.Bills.FindByID(bill.ID); !found {
		t.Fatal("expected bill to survive rollback")
	}
	unit, _, err := fixture.repos.WorkUnits.FindByID(first.ID)
	if err != nil {
		t.Fatalf("load first unit: %v", err)
	}
	if unit.BillID == nil || *unit.BillID != bill.ID {
		t.Fatal("expected first unit detachment to be rolled back")
	}
}

func TestBillCreateRejectsBilledUnits(t *testing.T) {
	fixture := newRepositoryFixture(t)
	unit := fixture.createWorkUnit(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), 1)

	first := models.Bill{UserID: fixture.user.ID}
	if err := fixture.repos.Bills.Create(&first, []uint{unit.ID}); err != nil {
		t.Fatalf("create first bill: %v", err)
	}
	second := models.Bill{UserID: fixture.user.ID}
	if err := fixture.repos.Bills.Create(&second, []uint{unit.ID}); err == nil {
		t.Fatal("expected second bill to fail for an already billed unit")
	}

	var bills int64
	if err := fixture.database.Model(&models.Bill{}).Count(&bills).Error; err != nil {
		t.Fatalf("count bills: %v", err)
	}
	if bills != 1 {
		t.Fatalf("expected failed bill to be rolled back, got %d bills", bills)
	}
}

func TestBillListByUserScopes(t *testing.T) {
	fixture := newRepositoryFixture(t)
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	bills := []models.Bill{
		{UserID: fixture.user.ID, Notes: "overdue", DueOn: &yesterday},
		{UserID: fixture.user.ID, Notes: "upcoming", DueOn: &tomorrow},
		{UserID: fixture.user.ID, Notes: "paid", DueOn: &yesterday, PaidOn: &today},
	}
	for index := range bills {
		if err := fixture.repos.Bills.Create(&bills[index], nil); err != nil {
			t.Fatalf("create bill %d: %v", index, err)
		}
	}

	tests := []struct {
		scope string
		want  int
	}{
		{scope: models.BillScopeAll, want: 3},
		{scope: models.BillScopeOverdue, want: 1},
		{scope: models.BillScopeUnpaid, want: 2},
		{scope: models.BillScopePaid, want: 1},
	}
	for _, test := range tests {
		got, err := fixture.repos.Bills.ListByUser(fixture.user.ID, test.scope, today)
		if err != nil {
			t.Fatalf("list %s bills: %v", test.scope, err)
		}
		if len(got) != test.want {
			t.Fatalf("expected %d %s bills, got %d", test.want, test.scope, len(got))
		}
	}
}

func TestWorkUnitRangeUsesInstantsAcrossZones(t *testing.T) {
	fixture := newRepositoryFixture(t)
	zone := time.FixedZone("UTC+13:00", 13*60*60)

	inside := fixture.createWorkUnit(t, time.Date(2026, time.March, 3, 1, 0, 0, 0, zone), 1)
	fixture.createWorkUnit(t, time.Date(2026, time.March, 4, 1, 0, 0, 0, zone), 1)

	from := time.Date(2026, time.March, 3, 0, 0, 0, 0, zone)
	units, err := fixture.repos.WorkUnits.ListByUserRange(fixture.user.ID, from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(units) != 1 || units[0].ID != inside.ID {
		t.Fatalf("expected only work unit %d in range, got %#v", inside.ID, units)
	}
	if inside.StartTime.Location() != zone {
		t.Fatal("expected caller copy to keep its zone")
	}
}

func TestWorkUnitRangeIncludesOverlappingUnits(t *testing.T) {
	fixture := newRepositoryFixture(t)
	from := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	overnight := fixture.createWorkUnit(t, from.Add(-2*time.Hour), 4)
	fixture.createWorkUnit(t, from.Add(-4*time.Hour), 4)
	inside := fixture.createWorkUnit(t, from.Add(9*time.Hour), 1)

	staleStart := from.Add(-3 * time.Hour)
	stale := models.WorkUnit{UserID: fixture.user.ID, ProjectID: &fixture.child.ID, StartTime: &staleStart, Billable: true}
	if err := fixture.repos.WorkUnits.Create(&stale, nil); err != nil {
		t.Fatalf("create running work unit: %v", err)
	}
	runningStart := from.Add(15 * time.Hour)
	running := models.WorkUnit{UserID: fixture.user.ID, ProjectID: &fixture.child.ID, StartTime: &runningStart, Billable: true}
	if err := fixture.repos.WorkUnits.Create(&running, nil); err != nil {
		t.Fatalf("create running work unit: %v", err)
	}

	units, err := fixture.repos.WorkUnits.ListByUserRange(fixture.user.ID, from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	got := make([]uint, 0, len(units))
	for _, unit := range units {
		got = append(got, unit.ID)
	}
	want := []uint{overnight.ID, inside.ID, running.ID}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected overlapping units %v, got %v", want, got)
	}
}

func TestWorkUnitCreateStoresAnnotation(t *testing.T) {
	fixture := newRepositoryFixture(t)
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	unit := models.WorkUnit{UserID: fixture.user.ID, ProjectID: &fixture.child.ID, StartTime: &start, StopTime: &stop}
	annotation := models.Activity{
		UserID:      fixture.user.ID,
		ProjectID:   fixture.child.ID,
		Description: "Shipped the importer",
		Action:      models.ActivityActionAnnotation,
		Source:      models.ActivitySourceUser,
		Time:        &stop,
	}
	if err := fixture.repos.WorkUnits.Create(&unit, &annotation); err != nil {
		t.Fatalf("create work unit: %v", err)
	}

	activities, err := fixture.repos.WorkUnits.ListActivities(unit.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Description != "Shipped the importer" {
		t.Fatalf("unexpected activities: %#v", activities)
	}

	if err := fixture.repos.WorkUnits.Delete(unit.ID); err != nil {
		t.Fatalf("delete work unit: %v", err)
	}
	var remaining models.Activity
	if err := fixture.database.First(&remaining, activities[0].ID).Error; err != nil {
		t.Fatalf("expected annotation to survive work unit deletion: %v", err)
	}
	if remaining.WorkUnitID != nil {
		t.Fatal("expected annotation to lose its work unit reference")
	}
}

func TestProjectDeleteKeepsWorkUnits(t *testing.T) {
	fixture := newRepositoryFixture(t)
	unit := fixture.createWorkUnit(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), 2)
	repository := &models.Repository{URL: "https://example.com/web.git"}
	if err := fixture.repos.Repositories.ApplyBatch(fixture.child.ID, []*models.Repository{repository}, nil); err != nil {
		t.Fatalf("attach repository: %v", err)
	}
	counts, err := fixture.repos.Projects.CountRepositories()
	if err != nil || counts[fixture.child.ID] != 1 {
		t.Fatalf("expected one repository on child, got %v err=%v", counts, err)
	}

	if err := fixture.repos.Projects.Delete(fixture.child.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	stored, found, err := fixture.repos.WorkUnits.FindByID(unit.ID)
	if err != nil || !found {
		t.Fatalf("expected work unit to survive, found=%v err=%v", found, err)
	}
	if stored.ProjectID != nil {
		t.Fatal("expected work unit project to be cleared")
	}
	if _, found, _ := fixture.repos.Projects.FindByID(fixture.child.ID); found {
		t.Fatal("expected project to be deleted")
	}
}
