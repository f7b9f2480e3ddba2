package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nuesa/internal/cache"
	"nuesa/internal/config"
	"nuesa/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	srv *Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Opportunity{},
		&models.Application{},
		&models.SavedOpportunity{},
		&models.Rating{},
		&models.Notification{},
	))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(redisClient)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := &config.Config{
		JWTSecret:          "test-secret-key-for-server-tests",
		AccessTokenTTLMin:  60,
		RefreshTokenTTLDay: 7,
		Port:               "0",
		Env:                "test",
	}

	srv, err := NewServerWithDeps(cfg, db, redisClient)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)

	return &testEnv{app: app, db: db, srv: srv}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	resp, _ := e.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"email":     email,
		"password":  "Password123",
		"full_name": "Test User",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := e.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email":    email,
		"password": "Password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return body["access_token"].(string)
}

func (e *testEnv) adminToken(t *testing.T, email string) string {
	t.Helper()
	resp, _ := e.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"email":     email,
		"password":  "Password123",
		"full_name": "Admin User",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, e.db.Model(&models.User{}).Where("email = ?", email).Update("is_admin", true).Error)

	// Login after the promotion so the token carries the admin claim.
	resp, body := e.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email":    email,
		"password": "Password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return body["access_token"].(string)
}

func (e *testEnv) createOpportunity(t *testing.T, adminToken string) uint {
	t.Helper()
	resp, body := e.request(t, "POST", "/api/admin/opportunities", adminToken, fiber.Map{
		"title":                "Engineering Scholarship",
		"description":          "Scholarship for engineering students",
		"opportunity_type":     "scholarship",
		"organization":         "NUESA",
		"deadline":             time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"eligibility_criteria": "Enrolled engineering students",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return uint(body["id"].(float64))
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t)

	resp, body := env.request(t, "GET", "/api/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	env := setupTestEnv(t)

	payload := fiber.Map{"email": "a@example.com", "password": "Password123", "full_name": "A"}
	resp, _ := env.request(t, "POST", "/api/auth/register", "", payload)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := env.request(t, "POST", "/api/auth/register", "", payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeConflict, body["code"])
}

func TestLoginFailures(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "a@example.com")

	resp, _ := env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email": "a@example.com", "password": "WrongPass123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, env.db.Model(&models.User{}).Where("email = ?", "a@example.com").Update("is_active", false).Error)
	resp, _ = env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email": "a@example.com", "password": "Password123",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRefreshFlow(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "a@example.com")

	resp, login := env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email": "a@example.com", "password": "Password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	refreshToken := login["refresh_token"].(string)

	resp, body := env.request(t, "POST", "/api/auth/refresh", "", fiber.Map{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, refreshToken, body["refresh_token"])

	// A refresh token cannot be used as an access token.
	resp, _ = env.request(t, "GET", "/api/users/me", refreshToken, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthGates(t *testing.T) {
	env := setupTestEnv(t)

	// No token.
	resp, _ := env.request(t, "GET", "/api/users/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Garbage token.
	resp, _ = env.request(t, "GET", "/api/users/me", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Valid non-admin token on an admin route.
	token := env.registerAndLogin(t, "a@example.com")
	resp, _ = env.request(t, "GET", "/api/admin/users", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminToken(t, "admin@example.com")
	student := env.registerAndLogin(t, "student@example.com")
	oppID := env.createOpportunity(t, admin)

	// Create a draft.
	resp, app := env.request(t, "POST", "/api/applications/", student, fiber.Map{
		"opportunity_id": oppID,
		"cover_letter":   "Please consider me",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "draft", app["status"])
	appID := uint(app["id"].(float64))

	// Duplicate application is a 400 carrying the conflict code.
	resp, body := env.request(t, "POST", "/api/applications/", student, fiber.Map{
		"opportunity_id": oppID,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeConflict, body["code"])

	// Unknown opportunity is a 404.
	resp, _ = env.request(t, "POST", "/api/applications/", student, fiber.Map{
		"opportunity_id": 9999,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Submit.
	resp, app = env.request(t, "POST", fmt.Sprintf("/api/applications/%d/submit", appID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "submitted", app["status"])
	assert.NotNil(t, app["submitted_at"])

	// A second submit is an invalid transition.
	resp, body = env.request(t, "POST", fmt.Sprintf("/api/applications/%d/submit", appID), student, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeInvalidTransition, body["code"])

	// Admin moves it through review to accepted.
	resp, _ = env.request(t, "PUT", fmt.Sprintf("/api/applications/%d", appID), admin, fiber.Map{
		"status": "under_review",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, app = env.request(t, "PUT", fmt.Sprintf("/api/applications/%d", appID), admin, fiber.Map{
		"status":   "accepted",
		"feedback": "Congratulations",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", app["status"])
	assert.Equal(t, "Congratulations", app["feedback"])

	// The student received notifications for the admin decisions.
	resp, body = env.request(t, "GET", "/api/notifications/unread-count", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["unread_count"])
}

func TestApplicationOwnershipOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminToken(t, "admin@example.com")
	alice := env.registerAndLogin(t, "alice@example.com")
	bob := env.registerAndLogin(t, "bob@example.com")
	oppID := env.createOpportunity(t, admin)

	resp, app := env.request(t, "POST", "/api/applications/", alice, fiber.Map{
		"opportunity_id": oppID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	appID := uint(app["id"].(float64))

	// Bob cannot read, submit or change Alice's application status.
	resp, _ = env.request(t, "GET", fmt.Sprintf("/api/applications/%d", appID), bob, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(t, "POST", fmt.Sprintf("/api/applications/%d/submit", appID), bob, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(t, "PUT", fmt.Sprintf("/api/applications/%d", appID), alice, fiber.Map{
		"status": "accepted",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Admin can read it.
	resp, _ = env.request(t, "GET", fmt.Sprintf("/api/applications/%d", appID), admin, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Alice's own list does not contain Bob's applications.
	resp, body := env.request(t, "GET", "/api/applications/", alice, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
}

func TestWithdrawAndDeleteOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminToken(t, "admin@example.com")
	student := env.registerAndLogin(t, "student@example.com")
	oppID := env.createOpportunity(t, admin)

	resp, app := env.request(t, "POST", "/api/applications/", student, fiber.Map{
		"opportunity_id": oppID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	appID := uint(app["id"].(float64))

	// Draft deletes cleanly.
	resp, _ = env.request(t, "DELETE", fmt.Sprintf("/api/applications/%d", appID), student, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Re-apply, submit, withdraw.
	resp, app = env.request(t, "POST", "/api/applications/", student, fiber.Map{
		"opportunity_id": oppID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	appID = uint(app["id"].(float64))

	resp, _ = env.request(t, "POST", fmt.Sprintf("/api/applications/%d/submit", appID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, app = env.request(t, "POST", fmt.Sprintf("/api/applications/%d/withdraw", appID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "withdrawn", app["status"])

	// Withdrawn applications cannot be deleted.
	resp, body := env.request(t, "DELETE", fmt.Sprintf("/api/applications/%d", appID), student, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeInvalidState, body["code"])
}

func TestOpportunityBrowsingOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminToken(t, "admin@example.com")
	oppID := env.createOpportunity(t, admin)

	// Anonymous listing works.
	resp, body := env.request(t, "GET", "/api/opportunities/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	// Anonymous detail works and bumps views.
	resp, detail := env.request(t, "GET", fmt.Sprintf("/api/opportunities/%d", oppID), "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, detail["is_saved"])
	opp, ok := detail["opportunity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), opp["view_count"])

	// Search requires a query.
	resp, _ = env.request(t, "GET", "/api/opportunities/search", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.request(t, "GET", "/api/opportunities/search?q=engineering", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	// Admin CRUD is fenced off.
	resp, _ = env.request(t, "POST", "/api/admin/opportunities", "", fiber.Map{})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSaveAndRateOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminToken(t, "admin@example.com")
	student := env.registerAndLogin(t, "student@example.com")
	oppID := env.createOpportunity(t, admin)

	resp, _ := env.request(t, "POST", fmt.Sprintf("/api/opportunities/%d/save", oppID), student, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := env.request(t, "GET", "/api/opportunities/saved/list", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["opportunities"], 1)

	// Detail reflects the save for the signed-in user.
	resp, detail := env.request(t, "GET", fmt.Sprintf("/api/opportunities/%d", oppID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, detail["is_saved"])

	resp, _ = env.request(t, "POST", fmt.Sprintf("/api/opportunities/%d/rate", oppID), student, fiber.Map{
		"score": 5, "review": "Great opportunity",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = env.request(t, "DELETE", fmt.Sprintf("/api/opportunities/%d/save", oppID), student, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserAccountOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	resp, me := env.request(t, "GET", "/api/users/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@example.com", me["email"])
	// The password hash never leaves the API.
	_, exposed := me["password"]
	assert.False(t, exposed)

	resp, me = env.request(t, "PUT", "/api/users/me", token, fiber.Map{
		"full_name": "Renamed User",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed User", me["full_name"])

	resp, profile := env.request(t, "PUT", "/api/users/me/profile", token, fiber.Map{
		"university": "University of Lagos",
		"gpa":        4.2,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "University of Lagos", profile["university"])

	resp, _ = env.request(t, "DELETE", "/api/users/me", token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// The account is gone.
	resp, _ = env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email": "a@example.com", "password": "Password123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// The email is free again after deletion.
	resp, _ = env.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"email":     "a@example.com",
		"password":  "Password123",
		"full_name": "Second Account",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestNotificationReadFlow(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.adminToken(t, "admin@example.com")
	student := env.registerAndLogin(t, "student@example.com")
	oppID := env.createOpportunity(t, admin)

	resp, app := env.request(t, "POST", "/api/applications/", student, fiber.Map{
		"opportunity_id": oppID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	appID := uint(app["id"].(float64))

	resp, _ = env.request(t, "POST", fmt.Sprintf("/api/applications/%d/submit", appID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = env.request(t, "PUT", fmt.Sprintf("/api/applications/%d", appID), admin, fiber.Map{
		"status": "under_review",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := env.request(t, "GET", "/api/notifications/?unread=true", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	notes := body["notifications"].([]any)
	require.Len(t, notes, 1)
	noteID := uint(notes[0].(map[string]any)["id"].(float64))

	resp, _ = env.request(t, "POST", fmt.Sprintf("/api/notifications/%d/read", noteID), student, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = env.request(t, "GET", "/api/notifications/unread-count", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["unread_count"])

	// Another user cannot mark it.
	other := env.registerAndLogin(t, "other@example.com")
	resp, _ = env.request(t, "POST", fmt.Sprintf("/api/notifications/%d/read", noteID), other, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
