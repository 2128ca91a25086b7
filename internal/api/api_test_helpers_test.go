package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/timebill/internal/db"
	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
	"gorm.io/gorm"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

type testLogWriter struct {
	t *testing.T
}

func (writer testLogWriter) Printf(format string, args ...any) {
	writer.t.Logf(format, args...)
}

type apiFixture struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
	repos    *db.Repositories
	user     models.User
	other    models.User
	client   models.Client
	root     models.Project
	base     models.Project
	child    models.Project
}

func newAPIFixture(t *testing.T, now time.Time) apiFixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "timebill.db"), testLogWriter{t: t})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	repos := db.NewRepositories(database)
	handler, err := NewHandler(NewDependencies(repos, nil), testSecretKey, time.UTC)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	handler.now = func() time.Time { return now }

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(app, handler)

	fixture := apiFixture{app: app, handler: handler, database: database, repos: repos}
	fixture.user = models.User{Login: "ada", Name: "Ada"}
	fixture.other = models.User{Login: "grace", Name: "Grace"}
	for _, user := range []*models.User{&fixture.user, &fixture.other} {
		if err := repos.Users.Create(user); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	fixture.client = models.Client{Name: "Acme"}
	if err := repos.Clients.Create(&fixture.client); err != nil {
		t.Fatalf("create client: %v", err)
	}

	fixture.root = models.Project{Name: models.RootProjectName, Billable: true}
	if err := repos.Projects.Save(&fixture.root, true); err != nil {
		t.Fatalf("create root project: %v", err)
	}
	fixture.base = models.Project{Name: "alpha", ParentID: &fixture.root.ID, ClientID: &fixture.client.ID, Account: "acct-a", Billable: true}
	if err := repos.Projects.Save(&fixture.base, false); err != nil {
		t.Fatalf("create base project: %v", err)
	}
	fixture.child = models.Project{Name: "alpha-web", ParentID: &fixture.base.ID, ClientID: &fixture.client.ID, Billable: true}
	if err := repos.Projects.Save(&fixture.child, true); err != nil {
		t.Fatalf("create child project: %v", err)
	}
	return fixture
}

func (fixture apiFixture) token(t *testing.T, userID uint) string {
	t.Helper()

	token, err := services.BuildAuthToken([]byte(testSecretKey), userID, time.Hour, fixture.handler.now())
	if err != nil {
		t.Fatalf("build auth token: %v", err)
	}
	return token
}

// do sends a JSON request as userID; userID 0 sends no Authorization header.
func (fixture apiFixture) do(t *testing.T, method string, path string, userID uint, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		request.Header.Set("Authorization", "Bearer "+fixture.token(t, userID))
	}

	response, err := fixture.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read %s %s body: %v", method, path, err)
	}
	return response.StatusCode, responseBody
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()

	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return value
}

func expectStatus(t *testing.T, got int, want int, body []byte) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d: %s", want, got, body)
	}
}

func idPath(format string, id uint) string {
	return fmt.Sprintf(format, id)
}

func uintText(value uint) string {
	return fmt.Sprintf("%d", value)
}
