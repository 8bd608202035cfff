package handlers

import (
	"database/sql"
	"strconv"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListActivity returns the audit trail, newest first, filterable by
// user, entity type and action.
func ListActivity(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)

		f := models.ActivityFilter{
			EntityType: c.Query("entity_type"),
			Action:     c.Query("action"),
		}
		if s := c.Query("user_id"); s != "" {
			id, err := strconv.Atoi(s)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id filter"})
			}
			f.UserID = &id
		}

		total, err := models.CountActivities(db, f)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load activity log"})
		}
		activities, err := models.GetActivitiesPaginated(db, f, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load activity log"})
		}
		return pagedJSON(c, "activities", activities, total, page, limit)
	}
}
