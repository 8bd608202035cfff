package handlers

import (
	"database/sql"
	"strconv"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

var validConditions = map[string]bool{
	"new": true, "good": true, "worn": true, "broken": true,
}

func ListInventory(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		search := c.Query("search")

		total, err := models.CountInventory(db, search)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load inventory"})
		}
		items, err := models.GetInventoryPaginated(db, search, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load inventory"})
		}
		return pagedJSON(c, "items", items, total, page, limit)
	}
}

func GetInventoryItem(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		item, err := models.GetInventoryItemByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return c.JSON(item)
	}
}

func validateInventoryItem(it *models.InventoryItem) string {
	if it.Name == "" {
		return "Name is required"
	}
	if it.Quantity < 0 {
		return "Quantity cannot be negative"
	}
	if it.Condition != "" && !validConditions[it.Condition] {
		return "Condition must be one of: new, good, worn, broken"
	}
	return ""
}

func CreateInventoryItem(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item := &models.InventoryItem{}
		if err := c.BodyParser(item); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if msg := validateInventoryItem(item); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.CreateInventoryItem(db, item); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create item"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "inventory", strconv.Itoa(item.ID), "created", "added tool "+item.Name, c.IP())

		created, err := models.GetInventoryItemByID(db, item.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload item"})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdateInventoryItem(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		if _, err := models.GetInventoryItemByID(db, id); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}

		item := &models.InventoryItem{}
		if err := c.BodyParser(item); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		item.ID = id
		if item.Condition == "" {
			item.Condition = "good"
		}
		if msg := validateInventoryItem(item); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.UpdateInventoryItem(db, item); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update item"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "inventory", strconv.Itoa(id), "updated", "updated tool "+item.Name, c.IP())

		updated, err := models.GetInventoryItemByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload item"})
		}
		return c.JSON(updated)
	}
}

func DeleteInventoryItem(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		item, err := models.GetInventoryItemByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}

		if err := models.DeleteInventoryItem(db, id); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete item"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "inventory", strconv.Itoa(id), "deleted", "removed tool "+item.Name, c.IP())
		return c.JSON(fiber.Map{"message": "Item deleted"})
	}
}
