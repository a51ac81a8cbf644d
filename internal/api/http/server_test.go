package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/session"
	"github.com/spec-kit/servicedesk/internal/worker"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		App:     config.AppConfig{Name: "servicedesk-test", Version: "test", RequestTimeoutSeconds: 5},
		Storage: config.StorageConfig{Driver: config.DriverSQLite},
		SQLite:  config.SQLiteConfig{Path: ":memory:"},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
	}
	logger := zap.NewNop()

	store, err := persistence.OpenStore(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	enforcer, err := auth.NewEnforcer()
	require.NoError(t, err)
	services := service.New(store.Repos, enforcer, cfg, logger)
	worker.StartEventWorkers(services)

	_, err = services.Users.CreateUser(ctx, nil, service.UserInput{
		FullName: "Administrator", Username: "admin", Secret: "1111", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	return NewApp(ServerDependencies{
		Config:   cfg,
		Services: services,
		Store:    store,
		Sessions: session.NewMemoryRegistry(),
		Metrics:  observability.NewMetrics(),
		Logger:   logger,
	})
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, username, secret string) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username, "secret": secret,
	})
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	return data["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errBody["code"].(string)
	return code
}

func createUser(t *testing.T, app *fiber.App, token, username string, role domain.Role) int64 {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/users", token, map[string]string{
		"full_name": "Full " + username, "username": username, "secret": "pw", "role": string(role),
	})
	require.Equal(t, http.StatusCreated, status, body)
	return int64(body["data"].(map[string]any)["id"].(float64))
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps[config.DriverSQLite])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestLoginAndMe(t *testing.T) {
	app := setupTestApp(t)
	token := login(t, app, "admin", "1111")

	status, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "admin", data["username"])
	assert.Equal(t, string(domain.RoleAdmin), data["role"])
}

func TestLoginFailure(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "admin", "secret": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestLogoutRevokesSession(t *testing.T) {
	app := setupTestApp(t)
	token := login(t, app, "admin", "1111")

	status, _ := doJSON(t, app, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUnknownRoute(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestUsersEndpoints(t *testing.T) {
	app := setupTestApp(t)
	admin := login(t, app, "admin", "1111")

	id := createUser(t, app, admin, "carla", domain.RoleCommercial)

	status, body := doJSON(t, app, http.MethodPost, "/users", admin, map[string]string{
		"full_name": "Other Carla", "username": "carla", "secret": "pw", "role": "commercial",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = doJSON(t, app, http.MethodPost, "/users", admin, map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, app, http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	users := body["data"].([]any)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].(map[string]any)["username"])
	assert.Equal(t, "carla", users[1].(map[string]any)["username"])
	assert.NotContains(t, users[1].(map[string]any), "secret_hash")

	status, body = doJSON(t, app, http.MethodGet, "/users/lookup?full_name=Full%20carla", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(id), body["data"].(map[string]any)["id"])

	status, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/users/%d/secret", id), admin, map[string]string{"secret": "new"})
	require.Equal(t, http.StatusNoContent, status)
	carla := login(t, app, "carla", "new")

	status, body = doJSON(t, app, http.MethodGet, "/users", carla, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/users/%d", id), admin, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/users/%d", id), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestDemotedAdminLosesAccess(t *testing.T) {
	app := setupTestApp(t)
	admin := login(t, app, "admin", "1111")

	bossID := createUser(t, app, admin, "boss", domain.RoleAdmin)
	boss := login(t, app, "boss", "pw")

	status, _ := doJSON(t, app, http.MethodGet, "/users", boss, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodPut, fmt.Sprintf("/users/%d", bossID), admin, map[string]string{
		"full_name": "Full boss", "username": "boss", "role": string(domain.RoleTechnician),
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = doJSON(t, app, http.MethodGet, "/users", boss, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = doJSON(t, app, http.MethodDelete, "/users/1", boss, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodGet, "/auth/me", boss, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(domain.RoleTechnician), body["data"].(map[string]any)["role"])
}

func TestTicketFlow(t *testing.T) {
	app := setupTestApp(t)
	admin := login(t, app, "admin", "1111")
	createUser(t, app, admin, "carla", domain.RoleCommercial)
	techID := createUser(t, app, admin, "tom", domain.RoleTechnician)
	createUser(t, app, admin, "tina", domain.RoleTechnician)

	carla := login(t, app, "carla", "pw")
	tom := login(t, app, "tom", "pw")
	tina := login(t, app, "tina", "pw")

	status, body := doJSON(t, app, http.MethodPost, "/tickets", carla, map[string]string{
		"client_name": "Jane Doe", "equipment": "Laptop", "problem_report": "no boot",
	})
	require.Equal(t, http.StatusCreated, status, body)
	ticket := body["data"].(map[string]any)
	assert.Equal(t, "open", ticket["status"])
	ticketPath := fmt.Sprintf("/tickets/%d", int64(ticket["id"].(float64)))

	status, body = doJSON(t, app, http.MethodGet, "/technicians", carla, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)

	status, _ = doJSON(t, app, http.MethodPost, ticketPath+"/technicians", carla, map[string]int64{"technician_id": techID})
	require.Equal(t, http.StatusCreated, status)

	status, body = doJSON(t, app, http.MethodPost, ticketPath+"/technicians", carla, map[string]int64{"technician_id": techID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = doJSON(t, app, http.MethodGet, "/tickets", tom, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)

	status, body = doJSON(t, app, http.MethodGet, "/tickets", tina, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"].([]any))

	status, _ = doJSON(t, app, http.MethodGet, ticketPath, tina, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doJSON(t, app, http.MethodPut, ticketPath, tom, map[string]string{
		"client_name": "Jane Doe", "equipment": "Laptop", "problem_report": "no boot", "status": "delivered",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotNil(t, body["data"].(map[string]any)["closed_at"])

	status, body = doJSON(t, app, http.MethodGet, "/tickets?status=delivered&client=jane", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)

	status, body = doJSON(t, app, http.MethodGet, "/tickets?status=lost", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, app, http.MethodGet, ticketPath+"/history", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"].([]any))

	status, body = doJSON(t, app, http.MethodGet, ticketPath+"/changes", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"].([]any))

	status, _ = doJSON(t, app, http.MethodGet, ticketPath+"/history", carla, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, ticketPath, carla, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, ticketPath, admin, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = doJSON(t, app, http.MethodGet, "/audit/actions", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"].([]any))
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(t)
	doJSON(t, app, http.MethodGet, "/health/live", "", nil)

	status, body := doJSON(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["requests"])
}
