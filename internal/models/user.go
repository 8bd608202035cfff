package models

import (
	"database/sql"
	"fmt"
	"time"

	"motoshop/internal/auth"
)

type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Role        string    `json:"role"`
	TOTPEnabled bool      `json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

const userColumns = "id, username, COALESCE(email,''), password, COALESCE(role,'staff'), totp_enabled, created_at"

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	user := &User{}
	err := db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role, &user.TOTPEnabled, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return user, nil
}

func GetUserByID(db *sql.DB, id int) (*User, error) {
	user := &User{}
	err := db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role, &user.TOTPEnabled, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return user, nil
}

func GetAllUsers(db *sql.DB) ([]User, error) {
	rows, err := db.Query("SELECT " + userColumns + " FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.TOTPEnabled, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func CreateUser(db *sql.DB, username, email, hashedPassword, role string) (int, error) {
	res, err := db.Exec(
		"INSERT INTO users (username, email, password, role) VALUES (?, ?, ?, ?)",
		username, email, hashedPassword, role,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	id, _ := res.LastInsertId()
	return int(id), nil
}

func UpdateUserRole(db *sql.DB, id int, role string) error {
	_, err := db.Exec("UPDATE users SET role = ? WHERE id = ?", role, id)
	return err
}

func UpdateUserPassword(db *sql.DB, id int, hashedPassword string) error {
	_, err := db.Exec("UPDATE users SET password = ? WHERE id = ?", hashedPassword, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func DeleteUser(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// TOTP state. The secret is stored only between setup and confirm, or
// while 2FA is enabled.
func GetTOTPSecret(db *sql.DB, id int) (string, error) {
	var secret sql.NullString
	err := db.QueryRow("SELECT totp_secret FROM users WHERE id = ?", id).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("user not found: %w", err)
	}
	return secret.String, nil
}

func SetTOTPSecret(db *sql.DB, id int, secret string) error {
	_, err := db.Exec("UPDATE users SET totp_secret = ? WHERE id = ?", secret, id)
	return err
}

func SetTOTPEnabled(db *sql.DB, id int, enabled bool) error {
	if enabled {
		_, err := db.Exec("UPDATE users SET totp_enabled = 1 WHERE id = ?", id)
		return err
	}
	_, err := db.Exec("UPDATE users SET totp_enabled = 0, totp_secret = NULL WHERE id = ?", id)
	return err
}

// EnsureAdminExists creates the admin user if it doesn't exist, or updates
// the stored password hash when the configured plain-text password no longer
// matches, so changes to ADMIN_PASS in .env take effect on restart.
func EnsureAdminExists(db *sql.DB, username, email, plainPassword string) error {
	var currentHash string
	err := db.QueryRow("SELECT password FROM users WHERE username = ?", username).Scan(&currentHash)

	if err == sql.ErrNoRows {
		hash, err := auth.HashPassword(plainPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		_, err = CreateUser(db, username, email, hash, "admin")
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}

	if !auth.CheckPassword(currentHash, plainPassword) {
		hash, err := auth.HashPassword(plainPassword)
		if err != nil {
			return fmt.Errorf("failed to hash updated admin password: %w", err)
		}
		_, err = db.Exec("UPDATE users SET password = ? WHERE username = ?", hash, username)
		if err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}
	}

	return nil
}
