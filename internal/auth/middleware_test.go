package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "modernc.org/sqlite"
)

// newTestDB opens an in-memory SQLite database with just the
// revoked_tokens table, which is all the middleware touches.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS revoked_tokens (jti TEXT PRIMARY KEY, expires_at DATETIME)`)
	if err != nil {
		t.Fatalf("create revoked_tokens table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newApp(middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handlers := append(middleware, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/", handlers...)
	return app
}

func TestMiddleware_RejectsWhenNoToken(t *testing.T) {
	app := newApp(Middleware(newTestDB(t), testSecret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RejectsInvalidToken(t *testing.T) {
	app := newApp(Middleware(newTestDB(t), testSecret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "token=this.is.not.a.valid.jwt")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 on invalid token, got %d", resp.StatusCode)
	}
}

func TestMiddleware_SetsLocalsAndCallsNext(t *testing.T) {
	tok, err := GenerateToken(42, "mechanic", "admin", testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var (
		capturedUserID   interface{}
		capturedUsername interface{}
		capturedRole     interface{}
	)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/", Middleware(newTestDB(t), testSecret), func(c *fiber.Ctx) error {
		capturedUserID = c.Locals("user_id")
		capturedUsername = c.Locals("username")
		capturedRole = c.Locals("role")
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "token="+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if uid, ok := capturedUserID.(int); !ok || uid != 42 {
		t.Errorf("user_id local: expected 42, got %v", capturedUserID)
	}
	if uname, ok := capturedUsername.(string); !ok || uname != "mechanic" {
		t.Errorf("username local: expected \"mechanic\", got %v", capturedUsername)
	}
	if role, ok := capturedRole.(string); !ok || role != "admin" {
		t.Errorf("role local: expected \"admin\", got %v", capturedRole)
	}
}

func TestMiddleware_AcceptsBearerHeader(t *testing.T) {
	tok, err := GenerateToken(7, "staffer", "staff", testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	app := newApp(Middleware(newTestDB(t), testSecret))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for bearer token, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RejectsRevokedToken(t *testing.T) {
	db := newTestDB(t)

	tok, err := GenerateToken(1, "mechanic", "admin", testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(tok, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if err = RevokeToken(db, claims.ID, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	app := newApp(Middleware(db, testSecret))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "token="+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for revoked token, got %d", resp.StatusCode)
	}
}

func TestRequireAdmin(t *testing.T) {
	newRoleApp := func(role string) *fiber.App {
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		app.Get("/", func(c *fiber.Ctx) error {
			c.Locals("role", role)
			return c.Next()
		}, RequireAdmin(), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		return app
	}

	resp, err := newRoleApp("admin").Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for admin role, got %d", resp.StatusCode)
	}

	resp, err = newRoleApp("staff").Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for staff role, got %d", resp.StatusCode)
	}
}
