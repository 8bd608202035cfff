package handlers

import (
	"database/sql"
	"strconv"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListClients(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		search := c.Query("search")

		total, err := models.CountClients(db, search)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load clients"})
		}
		clients, err := models.GetClientsPaginated(db, search, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load clients"})
		}
		return pagedJSON(c, "clients", clients, total, page, limit)
	}
}

func GetClient(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, err := strconv.Atoi(c.Params("ci"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CI"})
		}
		client, err := models.GetClientByCI(db, ci)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Client not found"})
		}
		return c.JSON(client)
	}
}

func validateClient(cl *models.Client) string {
	if !validateCI(cl.CI) {
		return "Invalid CI"
	}
	if cl.FirstName == "" || cl.LastName == "" {
		return "First and last name are required"
	}
	if !validateEmail(cl.Email) {
		return "Invalid email format"
	}
	if !validatePhone(cl.Phone) {
		return "Invalid phone format"
	}
	return ""
}

func CreateClient(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := &models.Client{}
		if err := c.BodyParser(client); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if msg := validateClient(client); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if _, err := models.GetClientByCI(db, client.CI); err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A client with that CI already exists"})
		}
		if err := models.CreateClient(db, client); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create client"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "client", strconv.Itoa(client.CI), "created", "added client "+client.FirstName+" "+client.LastName, c.IP())

		created, err := models.GetClientByCI(db, client.CI)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload client"})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdateClient(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, err := strconv.Atoi(c.Params("ci"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CI"})
		}
		if _, err := models.GetClientByCI(db, ci); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Client not found"})
		}

		client := &models.Client{}
		if err := c.BodyParser(client); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		client.CI = ci
		if msg := validateClient(client); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.UpdateClient(db, client); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update client"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "client", strconv.Itoa(ci), "updated", "updated client "+client.FirstName+" "+client.LastName, c.IP())

		updated, err := models.GetClientByCI(db, ci)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload client"})
		}
		return c.JSON(updated)
	}
}

func DeleteClient(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, err := strconv.Atoi(c.Params("ci"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CI"})
		}
		client, err := models.GetClientByCI(db, ci)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Client not found"})
		}

		// Vehicles keep their history; they just lose the owner link.
		if _, err := db.Exec("UPDATE vehicles SET client_ci = NULL WHERE client_ci = ?", ci); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete client"})
		}
		if err := models.DeleteClient(db, ci); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete client"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "client", strconv.Itoa(ci), "deleted", "deleted client "+client.FirstName+" "+client.LastName, c.IP())
		return c.JSON(fiber.Map{"message": "Client deleted"})
	}
}
