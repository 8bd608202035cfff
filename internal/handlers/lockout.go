package handlers

import (
	"database/sql"
	"errors"
	"log"
	"strconv"

	"motoshop/internal/models"
	"motoshop/internal/notify"
	"motoshop/internal/security"

	"github.com/gofiber/fiber/v2"
)

// UnlockUser clears an active lockout by appending the unlock pair to
// the event log. The target must exist and be locked right now.
func UnlockUser(db *sql.DB, engine *security.Engine, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}

		target, err := models.GetUserByID(db, targetID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		adminID := c.Locals("user_id").(int)
		if err := engine.ManualUnlock(c.Context(), adminID, targetID, c.IP()); err != nil {
			if errors.Is(err, security.ErrNotLocked) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User is not locked"})
			}
			log.Printf("manual unlock of user %d failed: %v", targetID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}

		admin, _ := c.Locals("username").(string)
		models.LogActivity(db, &adminID, "user", target.Username, "unlocked", "manual unlock of "+target.Username, c.IP())
		notifier.UnlockNotice(target.Username, admin)

		return c.JSON(fiber.Map{
			"message":  "User unlocked",
			"username": target.Username,
		})
	}
}

// LockoutStatus reports the derived lockout state for one user.
// Admins may query anyone; other callers only themselves.
func LockoutStatus(db *sql.DB, engine *security.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}

		callerID := c.Locals("user_id").(int)
		role, _ := c.Locals("role").(string)
		if role != "admin" && callerID != targetID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
		}

		if _, err := models.GetUserByID(db, targetID); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		st, err := engine.Status(c.Context(), targetID)
		if err != nil {
			log.Printf("lockout status query failed for user %d: %v", targetID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}
		return c.JSON(st)
	}
}

type lockedUserView struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	security.State
}

// ListLockedUsers returns every currently locked account, enriched with
// the user record for display.
func ListLockedUsers(db *sql.DB, engine *security.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locked, err := engine.ListLocked(c.Context())
		if err != nil {
			log.Printf("locked-users query failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}

		views := make([]lockedUserView, 0, len(locked))
		for _, lu := range locked {
			v := lockedUserView{UserID: lu.UserID, State: lu.State}
			if u, err := models.GetUserByID(db, lu.UserID); err == nil {
				v.Username = u.Username
				v.Email = u.Email
			}
			views = append(views, v)
		}
		return c.JSON(fiber.Map{"locked_users": views, "count": len(views)})
	}
}

// LockoutHistory lists the raw security events for one user, newest
// first, over the last ?days=N days (default 30).
func LockoutHistory(db *sql.DB, engine *security.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		if _, err := models.GetUserByID(db, targetID); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		days, _ := strconv.Atoi(c.Query("days", "30"))
		events, err := engine.History(c.Context(), targetID, days)
		if err != nil {
			log.Printf("lockout history query failed for user %d: %v", targetID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}
		return c.JSON(fiber.Map{"events": events, "count": len(events)})
	}
}
