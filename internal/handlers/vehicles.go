package handlers

import (
	"database/sql"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListVehicles(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		search := c.Query("search")

		total, err := models.CountVehicles(db, search)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load vehicles"})
		}
		vehicles, err := models.GetVehiclesPaginated(db, search, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load vehicles"})
		}
		return pagedJSON(c, "vehicles", vehicles, total, page, limit)
	}
}

func GetVehicle(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plate := normalizePlate(c.Params("plate"))
		vehicle, err := models.GetVehicleByPlate(db, plate)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
		}
		return c.JSON(vehicle)
	}
}

func validateVehicle(db *sql.DB, v *models.Vehicle) string {
	if !validatePlate(v.Plate) {
		return "Invalid plate format"
	}
	if v.Brand == "" || v.Model == "" {
		return "Brand and model are required"
	}
	if v.ClientCI != nil {
		if _, err := models.GetClientByCI(db, *v.ClientCI); err != nil {
			return "Owner client does not exist"
		}
	}
	return ""
}

func CreateVehicle(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicle := &models.Vehicle{}
		if err := c.BodyParser(vehicle); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		vehicle.Plate = normalizePlate(vehicle.Plate)
		if msg := validateVehicle(db, vehicle); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if _, err := models.GetVehicleByPlate(db, vehicle.Plate); err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A vehicle with that plate already exists"})
		}
		if err := models.CreateVehicle(db, vehicle); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create vehicle"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "vehicle", vehicle.Plate, "created", "added vehicle "+vehicle.Brand+" "+vehicle.Model, c.IP())

		created, err := models.GetVehicleByPlate(db, vehicle.Plate)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload vehicle"})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdateVehicle(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plate := normalizePlate(c.Params("plate"))
		if _, err := models.GetVehicleByPlate(db, plate); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
		}

		vehicle := &models.Vehicle{}
		if err := c.BodyParser(vehicle); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		vehicle.Plate = plate
		if msg := validateVehicle(db, vehicle); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.UpdateVehicle(db, vehicle); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update vehicle"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "vehicle", plate, "updated", "updated vehicle "+vehicle.Brand+" "+vehicle.Model, c.IP())

		updated, err := models.GetVehicleByPlate(db, plate)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload vehicle"})
		}
		return c.JSON(updated)
	}
}

func DeleteVehicle(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plate := normalizePlate(c.Params("plate"))
		vehicle, err := models.GetVehicleByPlate(db, plate)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
		}

		var open int
		if err := db.QueryRow("SELECT COUNT(*) FROM work_orders WHERE plate = ? AND status NOT IN ('done','delivered')", plate).Scan(&open); err == nil && open > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Vehicle has open work orders"})
		}

		if err := models.DeleteVehicle(db, plate); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete vehicle"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "vehicle", plate, "deleted", "deleted vehicle "+vehicle.Brand+" "+vehicle.Model, c.IP())
		return c.JSON(fiber.Map{"message": "Vehicle deleted"})
	}
}
