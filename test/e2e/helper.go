package e2e

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kashiwade/menshen/internal/handlers"
	"github.com/kashiwade/menshen/internal/infrastructure/config"
	"github.com/kashiwade/menshen/internal/infrastructure/database"
	"github.com/kashiwade/menshen/internal/repositories/postgres"
	"github.com/kashiwade/menshen/internal/services/authorization"
)

// E2ETestServer runs the full HTTP API against a real database.
type E2ETestServer struct {
	Echo *echo.Echo
	DB   *sql.DB
}

// SetupE2ETest builds the complete service wired to the test database.
// Tests are skipped when no test database is reachable.
func SetupE2ETest(t *testing.T) *E2ETestServer {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Skipf("Skipping: failed to init test config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping: failed to load test config: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping: test database unavailable: %v", err)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		t.Fatalf("failed to find project root: %v", err)
	}
	if err := pg.RunMigrations(filepath.Join(projectRoot, "internal", "infrastructure", "database", "migrations", "postgres")); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupDatabase(t, pg.DB)

	orgRepo := postgres.NewPostgresOrganizationRepository(pg.DB)
	userRepo := postgres.NewPostgresUserRepository(pg.DB)
	teamRepo := postgres.NewPostgresTeamRepository(pg.DB)
	policyRepo := postgres.NewPostgresPolicyRepository(pg.DB)

	aggregator := authorization.NewAggregator(userRepo, teamRepo, policyRepo)
	authorizer := authorization.NewAuthorizer(aggregator)

	e := echo.New()
	api := e.Group("/api/v1")
	handlers.NewAuthorizationHandler(authorizer, nil, nil).RegisterRoutes(api)
	handlers.NewOrganizationHandler(orgRepo).RegisterRoutes(api)
	handlers.NewUserHandler(userRepo, teamRepo, policyRepo).RegisterRoutes(api)
	handlers.NewTeamHandler(teamRepo, policyRepo).RegisterRoutes(api)
	handlers.NewPolicyHandler(policyRepo).RegisterRoutes(api)

	t.Cleanup(func() {
		cleanupDatabase(t, pg.DB)
		pg.Close()
	})

	return &E2ETestServer{Echo: e, DB: pg.DB}
}

// Do performs a request against the in-process server and decodes the JSON
// response into out (when out is non-nil). It returns the status code.
func (s *E2ETestServer) Do(t *testing.T, method, target, body string, out interface{}) int {
	t.Helper()

	var req = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	if out != nil {
		data, err := io.ReadAll(rec.Body)
		if err != nil {
			t.Fatalf("failed to read response body: %v", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				t.Fatalf("failed to decode response %s: %v", data, err)
			}
		}
	}
	return rec.Code
}

func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// organizations cascades to every other table
	if _, err := db.Exec("DELETE FROM organizations"); err != nil {
		t.Logf("Warning: failed to clean up organizations: %v", err)
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}
