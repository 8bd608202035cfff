package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"motoshop/internal/auth"
	"motoshop/internal/config"
	"motoshop/internal/models"
	"motoshop/internal/notify"
	"motoshop/internal/security"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// lockedResponse renders the 423 body for a locked account. Remaining
// time is reported as whole hours and minutes, matching what the
// engine derives from the event log.
func lockedResponse(c *fiber.Ctx, st security.State) error {
	return c.Status(fiber.StatusLocked).JSON(fiber.Map{
		"error":             fmt.Sprintf("Account locked. Try again in %dh %dm", st.RemainingHours, st.RemainingMinutes),
		"locked":            true,
		"remaining_hours":   st.RemainingHours,
		"remaining_minutes": st.RemainingMinutes,
	})
}

func setSessionCookie(c *fiber.Ctx, token string, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		HTTPOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: "Strict",
		Expires:  time.Now().Add(time.Duration(cfg.JWTExpiryHours) * time.Hour),
		Path:     "/",
	})
}

func Login(db *sql.DB, engine *security.Engine, notifier *notify.Notifier, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username and password are required"})
		}

		user, err := models.GetUserByUsername(db, req.Username)
		if err != nil {
			// Unknown usernames never touch the security log: they have
			// no account to lock and must not be distinguishable from a
			// wrong password in the response.
			models.LogActivity(db, nil, "auth", sanitizeLogInput(req.Username), "login_failed", "unknown username", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
		}

		st, err := engine.Status(c.Context(), user.ID)
		if err != nil {
			// If the event log cannot be read the lockout state is
			// unknown, so refuse the login rather than guess.
			log.Printf("lockout status check failed for user %d: %v", user.ID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}
		if st.Locked {
			models.LogActivity(db, &user.ID, "auth", user.Username, "login_rejected", "attempt while locked", c.IP())
			return lockedResponse(c, st)
		}

		if !auth.CheckPassword(user.Password, req.Password) {
			res, err := engine.RecordFailure(c.Context(), user.ID, c.IP())
			if err != nil {
				log.Printf("failed to record login failure for user %d: %v", user.ID, err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
			}
			if res.Locked {
				notifier.LockoutAlert(user.Username, res.Attempts, c.IP())
				after, err := engine.Status(c.Context(), user.ID)
				if err != nil {
					after = security.State{Locked: true, RemainingHours: cfg.LockoutWindowHours}
				}
				return lockedResponse(c, after)
			}
			body := fiber.Map{
				"error":              "Invalid username or password",
				"attempts_remaining": res.AttemptsRemaining,
			}
			if res.AttemptsRemaining <= 2 {
				body["warning"] = fmt.Sprintf("Account will be locked after %d more failed attempts", res.AttemptsRemaining)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(body)
		}

		if err := engine.RecordSuccess(c.Context(), user.ID, c.IP()); err != nil {
			log.Printf("failed to record login success for user %d: %v", user.ID, err)
		}

		if user.TOTPEnabled {
			pending, err := auth.GeneratePendingToken(user.ID, cfg.JWTSecret)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.JSON(fiber.Map{
				"totp_required": true,
				"pending_token": pending,
			})
		}

		token, err := auth.GenerateToken(user.ID, user.Username, user.Role, cfg.JWTSecret, cfg.JWTExpiryHours)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		setSessionCookie(c, token, cfg)
		models.LogActivity(db, &user.ID, "auth", user.Username, "login", "successful login", c.IP())

		return c.JSON(fiber.Map{"token": token, "user": user})
	}
}

// LoginTOTP finishes a two-step login: a valid pending token plus a
// valid authenticator code yields the session token.
func LoginTOTP(db *sql.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			PendingToken string `json:"pending_token"`
			Code         string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		userID, err := auth.ValidatePendingToken(req.PendingToken, cfg.JWTSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired login session"})
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired login session"})
		}

		secret, err := models.GetTOTPSecret(db, userID)
		if err != nil || !auth.ValidateTOTPCode(req.Code, secret) {
			models.LogActivity(db, &userID, "auth", user.Username, "totp_failed", "invalid authenticator code", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authenticator code"})
		}

		token, err := auth.GenerateToken(user.ID, user.Username, user.Role, cfg.JWTSecret, cfg.JWTExpiryHours)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		setSessionCookie(c, token, cfg)
		models.LogActivity(db, &user.ID, "auth", user.Username, "login", "successful login with 2fa", c.IP())

		return c.JSON(fiber.Map{"token": token, "user": user})
	}
}

func Logout(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if jti, ok := c.Locals("jti").(string); ok && jti != "" {
			exp, _ := c.Locals("token_exp").(time.Time)
			if err := auth.RevokeToken(db, jti, exp); err != nil {
				log.Printf("failed to revoke token %s: %v", jti, err)
			}
		}

		c.Cookie(&fiber.Cookie{
			Name:     "token",
			Value:    "",
			HTTPOnly: true,
			Expires:  time.Now().Add(-1 * time.Hour),
			Path:     "/",
		})
		return c.JSON(fiber.Map{"message": "Logged out"})
	}
}

// Session echoes the authenticated caller, for client bootstrapping.
func Session(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session user no longer exists"})
		}
		return c.JSON(fiber.Map{"user": user})
	}
}
