package models

import (
	"database/sql"
	"fmt"
	"time"
)

type Client struct {
	CI        int       `json:"ci"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const clientColumns = "ci, first_name, last_name, COALESCE(phone,''), COALESCE(email,''), COALESCE(address,''), created_at, updated_at"

func CountClients(db *sql.DB, search string) (int, error) {
	var n int
	var err error
	if search != "" {
		like := "%" + search + "%"
		err = db.QueryRow(
			"SELECT COUNT(*) FROM clients WHERE first_name LIKE ? OR last_name LIKE ? OR CAST(ci AS TEXT) LIKE ?",
			like, like, like,
		).Scan(&n)
	} else {
		err = db.QueryRow("SELECT COUNT(*) FROM clients").Scan(&n)
	}
	return n, err
}

func GetClientsPaginated(db *sql.DB, search string, limit, offset int) ([]Client, error) {
	var rows *sql.Rows
	var err error
	if search != "" {
		like := "%" + search + "%"
		rows, err = db.Query(
			"SELECT "+clientColumns+" FROM clients WHERE first_name LIKE ? OR last_name LIKE ? OR CAST(ci AS TEXT) LIKE ? ORDER BY ci LIMIT ? OFFSET ?",
			like, like, like, limit, offset,
		)
	} else {
		rows, err = db.Query("SELECT "+clientColumns+" FROM clients ORDER BY ci LIMIT ? OFFSET ?", limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.CI, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func GetClientByCI(db *sql.DB, ci int) (*Client, error) {
	c := &Client{}
	err := db.QueryRow("SELECT "+clientColumns+" FROM clients WHERE ci = ?", ci).
		Scan(&c.CI, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	return c, nil
}

func CreateClient(db *sql.DB, c *Client) error {
	_, err := db.Exec(
		"INSERT INTO clients (ci, first_name, last_name, phone, email, address) VALUES (?, ?, ?, ?, ?, ?)",
		c.CI, c.FirstName, c.LastName, c.Phone, c.Email, c.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func UpdateClient(db *sql.DB, c *Client) error {
	_, err := db.Exec(
		"UPDATE clients SET first_name = ?, last_name = ?, phone = ?, email = ?, address = ?, updated_at = CURRENT_TIMESTAMP WHERE ci = ?",
		c.FirstName, c.LastName, c.Phone, c.Email, c.Address, c.CI,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

func DeleteClient(db *sql.DB, ci int) error {
	_, err := db.Exec("DELETE FROM clients WHERE ci = ?", ci)
	return err
}
