package handlers

import (
	"database/sql"
	"strconv"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListWorkOrders(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		status := c.Query("status")
		plate := normalizePlate(c.Query("plate"))
		if status != "" && !models.ValidOrderStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}

		total, err := models.CountWorkOrders(db, status, plate)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load work orders"})
		}
		orders, err := models.GetWorkOrdersPaginated(db, status, plate, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load work orders"})
		}
		return pagedJSON(c, "work_orders", orders, total, page, limit)
	}
}

func GetWorkOrder(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
		}
		order, err := models.GetWorkOrderByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Work order not found"})
		}
		return c.JSON(order)
	}
}

func validateWorkOrder(db *sql.DB, w *models.WorkOrder) string {
	if w.Plate == "" {
		return "Plate is required"
	}
	if _, err := models.GetVehicleByPlate(db, w.Plate); err != nil {
		return "Vehicle does not exist"
	}
	if w.QuoteID != nil {
		q, err := models.GetQuoteByID(db, *w.QuoteID)
		if err != nil {
			return "Quote does not exist"
		}
		if q.Status != models.QuoteApproved {
			return "Work orders can only reference approved quotes"
		}
	}
	if w.EmployeeCI != nil {
		if _, err := models.GetEmployeeByCI(db, *w.EmployeeCI); err != nil {
			return "Assigned employee does not exist"
		}
	}
	if !validateNotes(w.Description) {
		return "Description is too long"
	}
	return ""
}

func CreateWorkOrder(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order := &models.WorkOrder{}
		if err := c.BodyParser(order); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		order.Plate = normalizePlate(order.Plate)
		if msg := validateWorkOrder(db, order); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.CreateWorkOrder(db, order); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create work order"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "work_order", strconv.Itoa(order.ID), "created", "opened work order for "+order.Plate, c.IP())

		created, err := models.GetWorkOrderByID(db, order.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload work order"})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdateWorkOrder(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
		}
		existing, err := models.GetWorkOrderByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Work order not found"})
		}

		order := &models.WorkOrder{}
		if err := c.BodyParser(order); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		order.ID = id
		order.Plate = normalizePlate(order.Plate)
		if order.Status == "" {
			order.Status = existing.Status
		}
		if !models.ValidOrderStatus(order.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		if msg := validateWorkOrder(db, order); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.UpdateWorkOrder(db, order); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update work order"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "work_order", strconv.Itoa(id), "updated", "work order "+order.Status, c.IP())

		updated, err := models.GetWorkOrderByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload work order"})
		}
		return c.JSON(updated)
	}
}

func DeleteWorkOrder(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid work order ID"})
		}
		order, err := models.GetWorkOrderByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Work order not found"})
		}
		if order.Status == models.OrderDelivered {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Delivered work orders cannot be deleted"})
		}

		if err := models.DeleteWorkOrder(db, id); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete work order"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "work_order", strconv.Itoa(id), "deleted", "deleted work order for "+order.Plate, c.IP())
		return c.JSON(fiber.Map{"message": "Work order deleted"})
	}
}
