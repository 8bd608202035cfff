package models

import (
	"database/sql"
	"fmt"
	"time"
)

type Vehicle struct {
	Plate     string    `json:"plate"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Chassis   string    `json:"chassis"`
	ClientCI  *int      `json:"client_ci,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const vehicleColumns = "plate, brand, model, COALESCE(year,0), COALESCE(chassis,''), client_ci, created_at, updated_at"

func scanVehicle(rows interface{ Scan(...any) error }) (Vehicle, error) {
	var v Vehicle
	var clientCI sql.NullInt64
	if err := rows.Scan(&v.Plate, &v.Brand, &v.Model, &v.Year, &v.Chassis, &clientCI, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return v, err
	}
	if clientCI.Valid {
		ci := int(clientCI.Int64)
		v.ClientCI = &ci
	}
	return v, nil
}

func CountVehicles(db *sql.DB, search string) (int, error) {
	var n int
	var err error
	if search != "" {
		like := "%" + search + "%"
		err = db.QueryRow(
			"SELECT COUNT(*) FROM vehicles WHERE plate LIKE ? OR brand LIKE ? OR model LIKE ?",
			like, like, like,
		).Scan(&n)
	} else {
		err = db.QueryRow("SELECT COUNT(*) FROM vehicles").Scan(&n)
	}
	return n, err
}

func GetVehiclesPaginated(db *sql.DB, search string, limit, offset int) ([]Vehicle, error) {
	var rows *sql.Rows
	var err error
	if search != "" {
		like := "%" + search + "%"
		rows, err = db.Query(
			"SELECT "+vehicleColumns+" FROM vehicles WHERE plate LIKE ? OR brand LIKE ? OR model LIKE ? ORDER BY plate LIMIT ? OFFSET ?",
			like, like, like, limit, offset,
		)
	} else {
		rows, err = db.Query("SELECT "+vehicleColumns+" FROM vehicles ORDER BY plate LIMIT ? OFFSET ?", limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func GetVehicleByPlate(db *sql.DB, plate string) (*Vehicle, error) {
	row := db.QueryRow("SELECT "+vehicleColumns+" FROM vehicles WHERE plate = ?", plate)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, fmt.Errorf("vehicle not found: %w", err)
	}
	return &v, nil
}

func CreateVehicle(db *sql.DB, v *Vehicle) error {
	_, err := db.Exec(
		"INSERT INTO vehicles (plate, brand, model, year, chassis, client_ci) VALUES (?, ?, ?, ?, ?, ?)",
		v.Plate, v.Brand, v.Model, v.Year, v.Chassis, v.ClientCI,
	)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func UpdateVehicle(db *sql.DB, v *Vehicle) error {
	_, err := db.Exec(
		"UPDATE vehicles SET brand = ?, model = ?, year = ?, chassis = ?, client_ci = ?, updated_at = CURRENT_TIMESTAMP WHERE plate = ?",
		v.Brand, v.Model, v.Year, v.Chassis, v.ClientCI, v.Plate,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	return nil
}

func DeleteVehicle(db *sql.DB, plate string) error {
	_, err := db.Exec("DELETE FROM vehicles WHERE plate = ?", plate)
	return err
}
