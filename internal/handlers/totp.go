package handlers

import (
	"database/sql"

	"motoshop/internal/auth"
	"motoshop/internal/config"
	"motoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TOTPSetup generates a fresh secret for the caller and returns it with
// a QR data URI. The secret stays disabled until confirmed with a code.
func TOTPSetup(db *sql.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
		}
		if user.TOTPEnabled {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Two-factor authentication is already enabled"})
		}

		key, qrDataURI, err := auth.GenerateTOTPSecret(user.Username, cfg.TOTPIssuer)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate secret"})
		}
		if err := models.SetTOTPSecret(db, userID, key.Secret()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save secret"})
		}

		return c.JSON(fiber.Map{
			"secret": key.Secret(),
			"qr":     qrDataURI,
		})
	}
}

func TOTPConfirm(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		secret, err := models.GetTOTPSecret(db, userID)
		if err != nil || secret == "" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No pending secret; start setup first"})
		}
		if !auth.ValidateTOTPCode(req.Code, secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid code"})
		}
		if err := models.SetTOTPEnabled(db, userID, true); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to enable two-factor authentication"})
		}

		username, _ := c.Locals("username").(string)
		models.LogActivity(db, &userID, "user", username, "totp_enabled", "two-factor authentication enabled", c.IP())
		return c.JSON(fiber.Map{"enabled": true})
	}
}

// TOTPDisable requires a currently valid code, so a stolen session alone
// cannot turn two-factor off.
func TOTPDisable(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
		}
		if !user.TOTPEnabled {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Two-factor authentication is not enabled"})
		}

		secret, err := models.GetTOTPSecret(db, userID)
		if err != nil || !auth.ValidateTOTPCode(req.Code, secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid code"})
		}
		if err := models.SetTOTPEnabled(db, userID, false); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to disable two-factor authentication"})
		}

		models.LogActivity(db, &userID, "user", user.Username, "totp_disabled", "two-factor authentication disabled", c.IP())
		return c.JSON(fiber.Map{"enabled": false})
	}
}
