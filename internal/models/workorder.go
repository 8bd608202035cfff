package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Work order statuses.
const (
	OrderOpen       = "open"
	OrderInProgress = "in_progress"
	OrderDone       = "done"
	OrderDelivered  = "delivered"
)

type WorkOrder struct {
	ID          int        `json:"id"`
	QuoteID     *int       `json:"quote_id,omitempty"`
	Plate       string     `json:"plate"`
	EmployeeCI  *int       `json:"employee_ci,omitempty"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderOpen, OrderInProgress, OrderDone, OrderDelivered:
		return true
	}
	return false
}

const orderColumns = "id, quote_id, plate, employee_ci, description, status, opened_at, closed_at"

func scanWorkOrder(row interface{ Scan(...any) error }) (WorkOrder, error) {
	var w WorkOrder
	var quoteID, employeeCI sql.NullInt64
	var closedAt sql.NullTime
	if err := row.Scan(&w.ID, &quoteID, &w.Plate, &employeeCI, &w.Description, &w.Status, &w.OpenedAt, &closedAt); err != nil {
		return w, err
	}
	if quoteID.Valid {
		v := int(quoteID.Int64)
		w.QuoteID = &v
	}
	if employeeCI.Valid {
		v := int(employeeCI.Int64)
		w.EmployeeCI = &v
	}
	if closedAt.Valid {
		t := closedAt.Time
		w.ClosedAt = &t
	}
	return w, nil
}

func CountWorkOrders(db *sql.DB, status, plate string) (int, error) {
	where, args := quoteWhere(status, plate) // same filter columns
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM work_orders"+where, args...).Scan(&n)
	return n, err
}

func GetWorkOrdersPaginated(db *sql.DB, status, plate string, limit, offset int) ([]WorkOrder, error) {
	where, args := quoteWhere(status, plate)
	args = append(args, limit, offset)
	rows, err := db.Query("SELECT "+orderColumns+" FROM work_orders"+where+" ORDER BY id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work orders: %w", err)
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		orders = append(orders, w)
	}
	return orders, rows.Err()
}

func GetWorkOrderByID(db *sql.DB, id int) (*WorkOrder, error) {
	row := db.QueryRow("SELECT "+orderColumns+" FROM work_orders WHERE id = ?", id)
	w, err := scanWorkOrder(row)
	if err != nil {
		return nil, fmt.Errorf("work order not found: %w", err)
	}
	return &w, nil
}

func CreateWorkOrder(db *sql.DB, w *WorkOrder) error {
	if w.Status == "" {
		w.Status = OrderOpen
	}
	res, err := db.Exec(
		"INSERT INTO work_orders (quote_id, plate, employee_ci, description, status) VALUES (?, ?, ?, ?, ?)",
		w.QuoteID, w.Plate, w.EmployeeCI, w.Description, w.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}
	id, _ := res.LastInsertId()
	w.ID = int(id)
	return nil
}

// UpdateWorkOrder persists mutable fields. Moving into done/delivered
// stamps closed_at once; reopening clears it.
func UpdateWorkOrder(db *sql.DB, w *WorkOrder) error {
	closed := w.Status == OrderDone || w.Status == OrderDelivered
	var err error
	if closed {
		_, err = db.Exec(
			"UPDATE work_orders SET employee_ci = ?, description = ?, status = ?, closed_at = COALESCE(closed_at, CURRENT_TIMESTAMP) WHERE id = ?",
			w.EmployeeCI, w.Description, w.Status, w.ID,
		)
	} else {
		_, err = db.Exec(
			"UPDATE work_orders SET employee_ci = ?, description = ?, status = ?, closed_at = NULL WHERE id = ?",
			w.EmployeeCI, w.Description, w.Status, w.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update work order: %w", err)
	}
	return nil
}

func DeleteWorkOrder(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM work_orders WHERE id = ?", id)
	return err
}
