package models

import (
	"database/sql"
	"fmt"
	"time"
)

type InventoryItem struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Quantity  int       `json:"quantity"`
	Condition string    `json:"condition"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const inventoryColumns = "id, name, COALESCE(brand,''), quantity, condition, COALESCE(location,''), created_at, updated_at"

func CountInventory(db *sql.DB, search string) (int, error) {
	var n int
	var err error
	if search != "" {
		like := "%" + search + "%"
		err = db.QueryRow("SELECT COUNT(*) FROM inventory_items WHERE name LIKE ? OR brand LIKE ?", like, like).Scan(&n)
	} else {
		err = db.QueryRow("SELECT COUNT(*) FROM inventory_items").Scan(&n)
	}
	return n, err
}

func GetInventoryPaginated(db *sql.DB, search string, limit, offset int) ([]InventoryItem, error) {
	var rows *sql.Rows
	var err error
	if search != "" {
		like := "%" + search + "%"
		rows, err = db.Query(
			"SELECT "+inventoryColumns+" FROM inventory_items WHERE name LIKE ? OR brand LIKE ? ORDER BY name LIMIT ? OFFSET ?",
			like, like, limit, offset,
		)
	} else {
		rows, err = db.Query("SELECT "+inventoryColumns+" FROM inventory_items ORDER BY name LIMIT ? OFFSET ?", limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Brand, &it.Quantity, &it.Condition, &it.Location, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func GetInventoryItemByID(db *sql.DB, id int) (*InventoryItem, error) {
	it := &InventoryItem{}
	err := db.QueryRow("SELECT "+inventoryColumns+" FROM inventory_items WHERE id = ?", id).
		Scan(&it.ID, &it.Name, &it.Brand, &it.Quantity, &it.Condition, &it.Location, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inventory item not found: %w", err)
	}
	return it, nil
}

func CreateInventoryItem(db *sql.DB, it *InventoryItem) error {
	if it.Condition == "" {
		it.Condition = "good"
	}
	res, err := db.Exec(
		"INSERT INTO inventory_items (name, brand, quantity, condition, location) VALUES (?, ?, ?, ?, ?)",
		it.Name, it.Brand, it.Quantity, it.Condition, it.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	id, _ := res.LastInsertId()
	it.ID = int(id)
	return nil
}

func UpdateInventoryItem(db *sql.DB, it *InventoryItem) error {
	_, err := db.Exec(
		"UPDATE inventory_items SET name = ?, brand = ?, quantity = ?, condition = ?, location = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		it.Name, it.Brand, it.Quantity, it.Condition, it.Location, it.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	return nil
}

func DeleteInventoryItem(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM inventory_items WHERE id = ?", id)
	return err
}
