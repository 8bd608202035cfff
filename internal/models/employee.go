package models

import (
	"database/sql"
	"fmt"
	"time"
)

type Employee struct {
	CI        int       `json:"ci"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const employeeColumns = "ci, first_name, last_name, COALESCE(phone,''), COALESCE(email,''), position, created_at, updated_at"

func CountEmployees(db *sql.DB, search string) (int, error) {
	var n int
	var err error
	if search != "" {
		like := "%" + search + "%"
		err = db.QueryRow(
			"SELECT COUNT(*) FROM employees WHERE first_name LIKE ? OR last_name LIKE ? OR position LIKE ?",
			like, like, like,
		).Scan(&n)
	} else {
		err = db.QueryRow("SELECT COUNT(*) FROM employees").Scan(&n)
	}
	return n, err
}

func GetEmployeesPaginated(db *sql.DB, search string, limit, offset int) ([]Employee, error) {
	var rows *sql.Rows
	var err error
	if search != "" {
		like := "%" + search + "%"
		rows, err = db.Query(
			"SELECT "+employeeColumns+" FROM employees WHERE first_name LIKE ? OR last_name LIKE ? OR position LIKE ? ORDER BY ci LIMIT ? OFFSET ?",
			like, like, like, limit, offset,
		)
	} else {
		rows, err = db.Query("SELECT "+employeeColumns+" FROM employees ORDER BY ci LIMIT ? OFFSET ?", limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.CI, &e.FirstName, &e.LastName, &e.Phone, &e.Email, &e.Position, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func GetEmployeeByCI(db *sql.DB, ci int) (*Employee, error) {
	e := &Employee{}
	err := db.QueryRow("SELECT "+employeeColumns+" FROM employees WHERE ci = ?", ci).
		Scan(&e.CI, &e.FirstName, &e.LastName, &e.Phone, &e.Email, &e.Position, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("employee not found: %w", err)
	}
	return e, nil
}

func CreateEmployee(db *sql.DB, e *Employee) error {
	_, err := db.Exec(
		"INSERT INTO employees (ci, first_name, last_name, phone, email, position) VALUES (?, ?, ?, ?, ?, ?)",
		e.CI, e.FirstName, e.LastName, e.Phone, e.Email, e.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func UpdateEmployee(db *sql.DB, e *Employee) error {
	_, err := db.Exec(
		"UPDATE employees SET first_name = ?, last_name = ?, phone = ?, email = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE ci = ?",
		e.FirstName, e.LastName, e.Phone, e.Email, e.Position, e.CI,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

func DeleteEmployee(db *sql.DB, ci int) error {
	_, err := db.Exec("DELETE FROM employees WHERE ci = ?", ci)
	return err
}
