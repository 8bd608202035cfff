package handlers

import (
	"database/sql"
	"log"
	"strconv"

	"motoshop/internal/auth"
	"motoshop/internal/models"
	"motoshop/internal/notify"

	"github.com/gofiber/fiber/v2"
)

func ListUsers(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := models.GetAllUsers(db)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load users"})
		}
		return c.JSON(fiber.Map{"users": users})
	}
}

// CreateUser provisions a staff account with a generated password. The
// password appears once in the response and is mailed if SMTP is set up.
func CreateUser(db *sql.DB, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Username == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is required"})
		}
		if !validateEmail(req.Email) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
		}
		if req.Role == "" {
			req.Role = "staff"
		}
		if req.Role != "staff" && req.Role != "admin" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Role must be staff or admin"})
		}

		password, err := auth.GeneratePassword(16)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate password"})
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}

		id, err := models.CreateUser(db, req.Username, req.Email, hash, req.Role)
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
		}

		callerID := c.Locals("user_id").(int)
		models.LogActivity(db, &callerID, "user", req.Username, "created", "created user "+req.Username, c.IP())

		if err := notifier.Credentials(req.Email, req.Username, password); err != nil {
			log.Printf("failed to mail credentials to %s: %v", req.Email, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       id,
			"username": req.Username,
			"role":     req.Role,
			"password": password,
		})
	}
}

func UpdateUserRole(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		var req struct {
			Role string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Role != "staff" && req.Role != "admin" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Role must be staff or admin"})
		}

		callerID := c.Locals("user_id").(int)
		if id == callerID && req.Role != "admin" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot remove your own admin role"})
		}

		user, err := models.GetUserByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		if err := models.UpdateUserRole(db, id, req.Role); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update role"})
		}

		models.LogActivity(db, &callerID, "user", user.Username, "updated", "changed role of "+user.Username+" to "+req.Role, c.IP())
		return c.JSON(fiber.Map{"id": id, "role": req.Role})
	}
}

// ResetUserPassword issues a fresh generated password for the target.
func ResetUserPassword(db *sql.DB, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		user, err := models.GetUserByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		password, err := auth.GeneratePassword(16)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate password"})
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}
		if err := models.UpdateUserPassword(db, id, hash); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
		}

		callerID := c.Locals("user_id").(int)
		models.LogActivity(db, &callerID, "user", user.Username, "updated", "reset password of "+user.Username, c.IP())

		if err := notifier.Credentials(user.Email, user.Username, password); err != nil {
			log.Printf("failed to mail credentials to %s: %v", user.Email, err)
		}

		return c.JSON(fiber.Map{"id": id, "password": password})
	}
}

// ChangePassword lets the authenticated caller rotate their own
// password after re-proving the current one.
func ChangePassword(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		var req struct {
			Current string `json:"current_password"`
			New     string `json:"new_password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
		}
		if !auth.CheckPassword(user.Password, req.Current) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current password is incorrect"})
		}
		if err := auth.ValidatePasswordStrength(req.New); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		hash, err := auth.HashPassword(req.New)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}
		if err := models.UpdateUserPassword(db, userID, hash); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
		}

		models.LogActivity(db, &userID, "user", user.Username, "updated", "changed own password", c.IP())
		return c.JSON(fiber.Map{"message": "Password updated"})
	}
}

func DeleteUser(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		callerID := c.Locals("user_id").(int)
		if id == callerID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot delete your own account"})
		}

		user, err := models.GetUserByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		if err := models.DeleteUser(db, id); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
		}

		models.LogActivity(db, &callerID, "user", user.Username, "deleted", "deleted user "+user.Username, c.IP())
		return c.JSON(fiber.Map{"message": "User deleted"})
	}
}
