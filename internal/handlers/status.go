package handlers

import (
	"database/sql"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

var startedAt = time.Now()

// Status reports service health: uptime, a database ping and row counts
// for the main entities. Unauthenticated, intended for uptime monitors.
func Status(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, dbStatus := "ok", "ok"
		if err := db.Ping(); err != nil {
			log.Printf("status db ping failed: %v", err)
			status, dbStatus = "degraded", "unreachable"
		}

		counts := fiber.Map{}
		for _, table := range []string{"clients", "vehicles", "quotes", "work_orders"} {
			var n int
			if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
				continue
			}
			counts[table] = n
		}

		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{
			"status":   status,
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
			"database": dbStatus,
			"counts":   counts,
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
