package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"

	"pulse/internal/api/handlers"
	"pulse/internal/api/middleware"
	"pulse/internal/engine/analytics"
	"pulse/internal/platform/audit"
	"pulse/internal/platform/config"
	"pulse/internal/platform/repositories"
)

func setupTestRouter(t *testing.T, rateCfg config.RateLimitConfig) (*httprouter.Router, *sql.DB) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		api_key TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		revoked INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE events (
		id TEXT PRIMARY KEY,
		app_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		url TEXT,
		referrer TEXT,
		device TEXT,
		ip_address TEXT,
		timestamp TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		user_id TEXT
	);
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		app_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		metadata TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	appRepo := repositories.NewAppRepository(db)
	analyticsRepo := analytics.NewRepository(db)
	analyticsSvc := analytics.NewService(analyticsRepo)
	auditLog := audit.NewLogger(db)

	router := NewRouter(&Dependencies{
		AuthHandler:      handlers.NewAuthHandler(appRepo, auditLog),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsSvc),
		HealthHandler:    handlers.NewHealthHandler(db),
		AuthMiddleware:   middleware.NewAuthMiddleware(appRepo),
		RateLimiter:      middleware.NewRateLimiter(rateCfg),
	})

	return router, db
}

func doJSON(t *testing.T, router *httprouter.Router, method, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func register(t *testing.T, router *httprouter.Router, email string) (int64, string) {
	t.Helper()

	rr := doJSON(t, router, "POST", "/api/auth/register", "", map[string]string{"email": email})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		UserID int64  `json:"user_id"`
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("register: bad response: %v", err)
	}
	return resp.UserID, resp.APIKey
}

func TestRegisterFlow(t *testing.T) {
	defaults := config.RateLimitConfig{Requests: 100, Window: 60 * time.Second}
	router, db := setupTestRouter(t, defaults)
	defer db.Close()

	rr := doJSON(t, router, "POST", "/api/auth/register", "", map[string]string{"email": "a@x.com"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		UserID  int64  `json:"user_id"`
		APIKey  string `json:"api_key"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(resp.APIKey) {
		t.Errorf("expected 64-char hex api key, got %q", resp.APIKey)
	}
	if resp.Message != "Registered successfully" {
		t.Errorf("unexpected message: %q", resp.Message)
	}

	// Repeating the same registration conflicts.
	rr = doJSON(t, router, "POST", "/api/auth/register", "", map[string]string{"email": "a@x.com"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rr.Body.Bytes(), &errResp)
	if errResp.Error != "Email already registered" {
		t.Errorf("unexpected error: %q", errResp.Error)
	}

	// Malformed email.
	rr = doJSON(t, router, "POST", "/api/auth/register", "", map[string]string{"email": "not-an-email"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad email, got %d", rr.Code)
	}
}

func TestAPIKeyRetrievalAndRevocation(t *testing.T) {
	defaults := config.RateLimitConfig{Requests: 100, Window: 60 * time.Second}
	router, db := setupTestRouter(t, defaults)
	defer db.Close()

	_, apiKey := register(t, router, "owner@example.com")

	rr := doJSON(t, router, "GET", "/api/auth/api-key", apiKey, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var keyResp struct {
		APIKey string `json:"api_key"`
	}
	json.Unmarshal(rr.Body.Bytes(), &keyResp)
	if keyResp.APIKey != apiKey {
		t.Errorf("expected own key back, got %q", keyResp.APIKey)
	}

	rr = doJSON(t, router, "POST", "/api/auth/revoke", apiKey, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Revocation takes effect on the very next request.
	rr = doJSON(t, router, "GET", "/api/auth/api-key", apiKey, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after revoke, got %d", rr.Code)
	}
	rr = doJSON(t, router, "POST", "/api/analytics/collect", apiKey, map[string]string{"event": "pageview"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after revoke, got %d", rr.Code)
	}
}

func TestCollectAndSummary(t *testing.T) {
	defaults := config.RateLimitConfig{Requests: 100, Window: 60 * time.Second}
	router, db := setupTestRouter(t, defaults)
	defer db.Close()

	_, apiKey := register(t, router, "site@example.com")

	// Missing header.
	rr := doJSON(t, router, "POST", "/api/analytics/collect", "", map[string]string{"event": "pageview"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rr.Body.Bytes(), &errResp)
	if errResp.Error != "x-api-key header required" {
		t.Errorf("unexpected error: %q", errResp.Error)
	}

	// Missing event field.
	rr = doJSON(t, router, "POST", "/api/analytics/collect", apiKey, map[string]string{"url": "/home"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without event, got %d", rr.Code)
	}

	for i := 0; i < 3; i++ {
		rr = doJSON(t, router, "POST", "/api/analytics/collect", apiKey,
			map[string]string{"event": "pageview", "device": "mobile"})
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
	}
	for i := 0; i < 2; i++ {
		rr = doJSON(t, router, "POST", "/api/analytics/collect", apiKey,
			map[string]string{"event": "pageview", "device": "desktop"})
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, router, "GET", "/api/analytics/event-summary?event=pageview", apiKey, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary struct {
		Event       string         `json:"event"`
		Count       int64          `json:"count"`
		UniqueUsers int64          `json:"uniqueUsers"`
		DeviceData  map[string]int `json:"deviceData"`
	}
	json.Unmarshal(rr.Body.Bytes(), &summary)
	if summary.Count != 5 {
		t.Errorf("expected count 5, got %d", summary.Count)
	}
	if summary.DeviceData["mobile"] != 3 || summary.DeviceData["desktop"] != 2 {
		t.Errorf("unexpected device data: %v", summary.DeviceData)
	}

	// Missing event query param.
	rr = doJSON(t, router, "GET", "/api/analytics/event-summary", apiKey, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without event param, got %d", rr.Code)
	}
}

func TestTenantIsolation(t *testing.T) {
	defaults := config.RateLimitConfig{Requests: 100, Window: 60 * time.Second}
	router, db := setupTestRouter(t, defaults)
	defer db.Close()

	_, key1 := register(t, router, "one@example.com")
	_, key2 := register(t, router, "two@example.com")

	rr := doJSON(t, router, "POST", "/api/analytics/collect", key1,
		map[string]interface{}{"event": "signup", "userId": "u1", "metadata": map[string]string{"browser": "Firefox", "os": "Windows"}})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	// The other tenant sees nothing for the same event type or user.
	rr = doJSON(t, router, "GET", "/api/analytics/event-summary?event=signup", key2, nil)
	var summary struct {
		Count int64 `json:"count"`
	}
	json.Unmarshal(rr.Body.Bytes(), &summary)
	if summary.Count != 0 {
		t.Errorf("expected 0 events for other tenant, got %d", summary.Count)
	}

	rr = doJSON(t, router, "GET", "/api/analytics/user-stats?userId=u1", key2, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for other tenant, got %d", rr.Code)
	}

	// A foreign app_id filter cannot widen the first tenant's scope either.
	rr = doJSON(t, router, "GET", "/api/analytics/event-summary?event=signup&app_id=999", key1, nil)
	json.Unmarshal(rr.Body.Bytes(), &summary)
	if rr.Code != http.StatusOK || summary.Count != 0 {
		t.Errorf("expected empty intersection, got %d / count %d", rr.Code, summary.Count)
	}

	// The owner sees the data.
	rr = doJSON(t, router, "GET", "/api/analytics/user-stats?userId=u1", key1, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var stats struct {
		UserID        string `json:"userId"`
		TotalEvents   int64  `json:"totalEvents"`
		DeviceDetails struct {
			Browser *string `json:"browser"`
			OS      *string `json:"os"`
		} `json:"deviceDetails"`
	}
	json.Unmarshal(rr.Body.Bytes(), &stats)
	if stats.TotalEvents != 1 || stats.DeviceDetails.Browser == nil || *stats.DeviceDetails.Browser != "Firefox" {
		t.Errorf("unexpected stats: %s", rr.Body.String())
	}
}

func TestCollectRateLimit(t *testing.T) {
	router, db := setupTestRouter(t, config.RateLimitConfig{Requests: 5, Window: 60 * time.Second})
	defer db.Close()

	_, apiKey := register(t, router, "busy@example.com")

	for i := 0; i < 5; i++ {
		rr := doJSON(t, router, "POST", "/api/analytics/collect", apiKey, map[string]string{"event": "pageview"})
		if rr.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rr.Code)
		}
	}

	rr := doJSON(t, router, "POST", "/api/analytics/collect", apiKey, map[string]string{"event": "pageview"})
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 over quota, got %d", rr.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rr.Body.Bytes(), &errResp)
	if errResp.Error != "Too many requests" {
		t.Errorf("unexpected error: %q", errResp.Error)
	}
}
