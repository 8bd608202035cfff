package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motoshop/internal/auth"
	"motoshop/internal/config"
	"motoshop/internal/db"
	"motoshop/internal/models"
	"motoshop/internal/security"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func newLoginApp(t *testing.T) (*fiber.App, *sql.DB) {
	t.Helper()
	auth.BcryptCost = bcrypt.MinCost

	database, err := db.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	hash, err := auth.HashPassword("Correct-Horse1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := models.CreateUser(database, "mechanic", "m@shop.test", hash, "staff"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	engine := security.NewEngine(security.NewSQLStore(database), 5, 12*time.Hour)
	cfg := &config.Config{
		JWTSecret:          "test-secret-that-is-long-enough-000",
		JWTExpiryHours:     8,
		LockoutWindowHours: 12,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/api/auth/login", Login(database, engine, nil, cfg))
	return app, database
}

func postLogin(t *testing.T, app *fiber.App, username, password string) (*http.Response, map[string]any) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var parsed map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func TestLogin_UnknownUserGets401(t *testing.T) {
	app, database := newLoginApp(t)

	resp, body := postLogin(t, app, "nobody", "whatever")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "Invalid username or password" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
	// Unknown usernames must not leave failure events behind
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM security_events").Scan(&n); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no security events, got %d", n)
	}
}

func TestLogin_WrongPasswordReportsRemaining(t *testing.T) {
	app, _ := newLoginApp(t)

	resp, body := postLogin(t, app, "mechanic", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got, ok := body["attempts_remaining"].(float64); !ok || got != 4 {
		t.Errorf("expected attempts_remaining 4, got %v", body["attempts_remaining"])
	}
	if _, warned := body["warning"]; warned {
		t.Error("no warning expected on first failure")
	}
}

func TestLogin_WarningNearThreshold(t *testing.T) {
	app, _ := newLoginApp(t)

	var body map[string]any
	for i := 0; i < 3; i++ {
		_, body = postLogin(t, app, "mechanic", "wrong")
	}
	if _, warned := body["warning"]; !warned {
		t.Error("expected warning with 2 attempts remaining")
	}
}

func TestLogin_LocksAfterThreshold(t *testing.T) {
	app, database := newLoginApp(t)

	var resp *http.Response
	var body map[string]any
	for i := 0; i < 5; i++ {
		resp, body = postLogin(t, app, "mechanic", "wrong")
	}
	if resp.StatusCode != http.StatusLocked {
		t.Fatalf("expected 423 on fifth failure, got %d", resp.StatusCode)
	}
	if body["locked"] != true {
		t.Errorf("expected locked=true, got %v", body["locked"])
	}

	// Even the correct password is refused while locked
	resp, _ = postLogin(t, app, "mechanic", "Correct-Horse1")
	if resp.StatusCode != http.StatusLocked {
		t.Errorf("expected 423 with correct password while locked, got %d", resp.StatusCode)
	}

	var markers int
	if err := database.QueryRow("SELECT COUNT(*) FROM security_events WHERE kind = 'BLOCKED_AUTO'").Scan(&markers); err != nil {
		t.Fatalf("count markers: %v", err)
	}
	if markers != 1 {
		t.Errorf("expected exactly one BLOCKED_AUTO marker, got %d", markers)
	}
}

func TestLogin_SuccessReturnsTokenAndCookie(t *testing.T) {
	app, _ := newLoginApp(t)

	// A failed attempt beforehand must not block the real login
	postLogin(t, app, "mechanic", "wrong")

	resp, body := postLogin(t, app, "mechanic", "Correct-Horse1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if tok, ok := body["token"].(string); !ok || tok == "" {
		t.Error("expected a token in the response body")
	}

	var hasCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.Value != "" {
			hasCookie = true
		}
	}
	if !hasCookie {
		t.Error("expected a session cookie")
	}
}
