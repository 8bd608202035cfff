package handlers

import (
	"database/sql"
	"strconv"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListQuotes(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		status := c.Query("status")
		plate := normalizePlate(c.Query("plate"))
		if status != "" && !models.ValidQuoteStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}

		total, err := models.CountQuotes(db, status, plate)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load quotes"})
		}
		quotes, err := models.GetQuotesPaginated(db, status, plate, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load quotes"})
		}
		return pagedJSON(c, "quotes", quotes, total, page, limit)
	}
}

func GetQuote(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quote ID"})
		}
		quote, err := models.GetQuoteByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quote not found"})
		}
		return c.JSON(quote)
	}
}

func validateQuote(db *sql.DB, q *models.Quote) string {
	if q.Plate == "" {
		return "Plate is required"
	}
	if _, err := models.GetVehicleByPlate(db, q.Plate); err != nil {
		return "Vehicle does not exist"
	}
	if q.LaborCost < 0 || q.PartsCost < 0 {
		return "Costs cannot be negative"
	}
	if !validateNotes(q.Detail) {
		return "Detail is too long"
	}
	return ""
}

func CreateQuote(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote := &models.Quote{}
		if err := c.BodyParser(quote); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		quote.Plate = normalizePlate(quote.Plate)
		if msg := validateQuote(db, quote); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.CreateQuote(db, quote); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quote"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "quote", strconv.Itoa(quote.ID), "created", "quote for "+quote.Plate, c.IP())

		created, err := models.GetQuoteByID(db, quote.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload quote"})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdateQuote(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quote ID"})
		}
		existing, err := models.GetQuoteByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quote not found"})
		}
		// Decided quotes are immutable; the decision is the audit record.
		if existing.Status != models.QuotePending {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending quotes can be edited"})
		}

		quote := &models.Quote{}
		if err := c.BodyParser(quote); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		quote.ID = id
		quote.Plate = normalizePlate(quote.Plate)
		if quote.Status == "" {
			quote.Status = existing.Status
		}
		if !models.ValidQuoteStatus(quote.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		if msg := validateQuote(db, quote); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.UpdateQuote(db, quote); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update quote"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "quote", strconv.Itoa(id), "updated", "quote "+quote.Status, c.IP())

		updated, err := models.GetQuoteByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload quote"})
		}
		return c.JSON(updated)
	}
}

func DeleteQuote(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quote ID"})
		}
		if _, err := models.GetQuoteByID(db, id); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quote not found"})
		}

		var orders int
		if err := db.QueryRow("SELECT COUNT(*) FROM work_orders WHERE quote_id = ?", id).Scan(&orders); err == nil && orders > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Quote is referenced by a work order"})
		}

		if err := models.DeleteQuote(db, id); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete quote"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "quote", strconv.Itoa(id), "deleted", "deleted quote", c.IP())
		return c.JSON(fiber.Map{"message": "Quote deleted"})
	}
}
