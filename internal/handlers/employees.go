package handlers

import (
	"database/sql"
	"strconv"

	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListEmployees(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		search := c.Query("search")

		total, err := models.CountEmployees(db, search)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load employees"})
		}
		employees, err := models.GetEmployeesPaginated(db, search, limit, offset)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load employees"})
		}
		return pagedJSON(c, "employees", employees, total, page, limit)
	}
}

func GetEmployee(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, err := strconv.Atoi(c.Params("ci"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CI"})
		}
		emp, err := models.GetEmployeeByCI(db, ci)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Employee not found"})
		}
		return c.JSON(emp)
	}
}

func validateEmployee(e *models.Employee) string {
	if !validateCI(e.CI) {
		return "Invalid CI"
	}
	if e.FirstName == "" || e.LastName == "" {
		return "First and last name are required"
	}
	if e.Position == "" {
		return "Position is required"
	}
	if !validateEmail(e.Email) {
		return "Invalid email format"
	}
	if !validatePhone(e.Phone) {
		return "Invalid phone format"
	}
	return ""
}

func CreateEmployee(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		emp := &models.Employee{}
		if err := c.BodyParser(emp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if msg := validateEmployee(emp); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if _, err := models.GetEmployeeByCI(db, emp.CI); err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An employee with that CI already exists"})
		}
		if err := models.CreateEmployee(db, emp); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create employee"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "employee", strconv.Itoa(emp.CI), "created", "added employee "+emp.FirstName+" "+emp.LastName, c.IP())

		created, err := models.GetEmployeeByCI(db, emp.CI)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload employee"})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdateEmployee(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, err := strconv.Atoi(c.Params("ci"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CI"})
		}
		if _, err := models.GetEmployeeByCI(db, ci); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Employee not found"})
		}

		emp := &models.Employee{}
		if err := c.BodyParser(emp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		emp.CI = ci
		if msg := validateEmployee(emp); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		if err := models.UpdateEmployee(db, emp); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update employee"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "employee", strconv.Itoa(ci), "updated", "updated employee "+emp.FirstName+" "+emp.LastName, c.IP())

		updated, err := models.GetEmployeeByCI(db, ci)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload employee"})
		}
		return c.JSON(updated)
	}
}

func DeleteEmployee(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ci, err := strconv.Atoi(c.Params("ci"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CI"})
		}
		emp, err := models.GetEmployeeByCI(db, ci)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Employee not found"})
		}

		if _, err := db.Exec("UPDATE work_orders SET employee_ci = NULL WHERE employee_ci = ?", ci); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete employee"})
		}
		if err := models.DeleteEmployee(db, ci); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete employee"})
		}

		userID := c.Locals("user_id").(int)
		models.LogActivity(db, &userID, "employee", strconv.Itoa(ci), "deleted", "deleted employee "+emp.FirstName+" "+emp.LastName, c.IP())
		return c.JSON(fiber.Map{"message": "Employee deleted"})
	}
}
