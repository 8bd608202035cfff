package handlers

import (
	"database/sql"
	"log"

	"motoshop/internal/backup"
	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListBackups(mgr *backup.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		backups, err := mgr.ListBackups()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list backups"})
		}
		return c.JSON(fiber.Map{"backups": backups})
	}
}

func CreateBackup(db *sql.DB, mgr *backup.Manager, dbPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bi, err := mgr.BackupDatabase(dbPath)
		if err != nil {
			log.Printf("manual backup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Backup failed"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "backup", bi.Name, "created", "manual database backup", c.IP())
		return c.Status(fiber.StatusCreated).JSON(bi)
	}
}

// RestoreBackup overwrites the live database file. The connection pool
// keeps serving from the old pages until the process restarts, so the
// response tells the operator to restart.
func RestoreBackup(db *sql.DB, mgr *backup.Manager, dbPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if err := mgr.RestoreDatabase(name, dbPath); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "backup", name, "restored", "database restored from backup", c.IP())
		return c.JSON(fiber.Map{"message": "Database restored; restart the server to load it"})
	}
}

func DeleteBackup(db *sql.DB, mgr *backup.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if err := mgr.DeleteBackup(name); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "backup", name, "deleted", "deleted backup", c.IP())
		return c.JSON(fiber.Map{"message": "Backup deleted"})
	}
}
