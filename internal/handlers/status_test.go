package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"motoshop/internal/db"

	"github.com/gofiber/fiber/v2"
)

func TestStatus_ReportsHealthAndCounts(t *testing.T) {
	database, err := db.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(
		"INSERT INTO clients (ci, first_name, last_name, phone) VALUES (4111222, 'Nadia', 'Ferreira', '0981555444')",
	)
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}

	app := fiber.New()
	app.Get("/api/status", Status(database))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status   string         `json:"status"`
		Uptime   string         `json:"uptime"`
		Database string         `json:"database"`
		Counts   map[string]int `json:"counts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Database != "ok" {
		t.Errorf("status = %q, database = %q, want ok/ok", body.Status, body.Database)
	}
	if body.Uptime == "" {
		t.Error("uptime should be reported")
	}
	if body.Counts["clients"] != 1 {
		t.Errorf("clients count = %d, want 1", body.Counts["clients"])
	}
	if _, ok := body.Counts["work_orders"]; !ok {
		t.Error("work_orders count missing")
	}
}
