package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Quote statuses.
const (
	QuotePending  = "pending"
	QuoteApproved = "approved"
	QuoteRejected = "rejected"
)

type Quote struct {
	ID        int       `json:"id"`
	Plate     string    `json:"plate"`
	ClientCI  *int      `json:"client_ci,omitempty"`
	Detail    string    `json:"detail"`
	LaborCost float64   `json:"labor_cost"`
	PartsCost float64   `json:"parts_cost"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidQuoteStatus(s string) bool {
	return s == QuotePending || s == QuoteApproved || s == QuoteRejected
}

const quoteColumns = "id, plate, client_ci, detail, labor_cost, parts_cost, total, status, created_at, updated_at"

func scanQuote(row interface{ Scan(...any) error }) (Quote, error) {
	var q Quote
	var clientCI sql.NullInt64
	if err := row.Scan(&q.ID, &q.Plate, &clientCI, &q.Detail, &q.LaborCost, &q.PartsCost, &q.Total, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return q, err
	}
	if clientCI.Valid {
		ci := int(clientCI.Int64)
		q.ClientCI = &ci
	}
	return q, nil
}

func CountQuotes(db *sql.DB, status, plate string) (int, error) {
	where, args := quoteWhere(status, plate)
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM quotes"+where, args...).Scan(&n)
	return n, err
}

func GetQuotesPaginated(db *sql.DB, status, plate string, limit, offset int) ([]Quote, error) {
	where, args := quoteWhere(status, plate)
	args = append(args, limit, offset)
	rows, err := db.Query("SELECT "+quoteColumns+" FROM quotes"+where+" ORDER BY id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func quoteWhere(status, plate string) (string, []any) {
	where := ""
	var args []any
	if status != "" {
		where = " WHERE status = ?"
		args = append(args, status)
	}
	if plate != "" {
		if where == "" {
			where = " WHERE plate = ?"
		} else {
			where += " AND plate = ?"
		}
		args = append(args, plate)
	}
	return where, args
}

func GetQuoteByID(db *sql.DB, id int) (*Quote, error) {
	row := db.QueryRow("SELECT "+quoteColumns+" FROM quotes WHERE id = ?", id)
	q, err := scanQuote(row)
	if err != nil {
		return nil, fmt.Errorf("quote not found: %w", err)
	}
	return &q, nil
}

func CreateQuote(db *sql.DB, q *Quote) error {
	q.Total = q.LaborCost + q.PartsCost
	if q.Status == "" {
		q.Status = QuotePending
	}
	res, err := db.Exec(
		"INSERT INTO quotes (plate, client_ci, detail, labor_cost, parts_cost, total, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
		q.Plate, q.ClientCI, q.Detail, q.LaborCost, q.PartsCost, q.Total, q.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	id, _ := res.LastInsertId()
	q.ID = int(id)
	return nil
}

func UpdateQuote(db *sql.DB, q *Quote) error {
	q.Total = q.LaborCost + q.PartsCost
	_, err := db.Exec(
		"UPDATE quotes SET detail = ?, labor_cost = ?, parts_cost = ?, total = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		q.Detail, q.LaborCost, q.PartsCost, q.Total, q.Status, q.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	return nil
}

func DeleteQuote(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM quotes WHERE id = ?", id)
	return err
}
