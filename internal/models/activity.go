package models

import (
	"database/sql"
	"fmt"
)

type Activity struct {
	ID         int    `json:"id"`
	UserID     *int   `json:"user_id,omitempty"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address"`
	CreatedAt  string `json:"created_at"`
}

// LogActivity is best-effort: audit writes never fail the main operation.
func LogActivity(db *sql.DB, userID *int, entityType, entityID, action, details, ip string) {
	_, _ = db.Exec(
		"INSERT INTO activity_log (user_id, entity_type, entity_id, action, details, ip_address) VALUES (?, ?, ?, ?, ?, ?)",
		userID, entityType, entityID, action, details, ip,
	)
}

type ActivityFilter struct {
	UserID     *int
	EntityType string
	Action     string
}

func CountActivities(db *sql.DB, f ActivityFilter) (int, error) {
	where, args := activityWhere(f)
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM activity_log"+where, args...).Scan(&n)
	return n, err
}

func GetActivitiesPaginated(db *sql.DB, f ActivityFilter, limit, offset int) ([]Activity, error) {
	where, args := activityWhere(f)
	args = append(args, limit, offset)
	rows, err := db.Query(
		"SELECT id, user_id, entity_type, COALESCE(entity_id,''), action, COALESCE(details,''), COALESCE(ip_address,''), created_at FROM activity_log"+
			where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		var userID sql.NullInt64
		if err := rows.Scan(&a.ID, &userID, &a.EntityType, &a.EntityID, &a.Action, &a.Details, &a.IPAddress, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if userID.Valid {
			v := int(userID.Int64)
			a.UserID = &v
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func activityWhere(f ActivityFilter) (string, []any) {
	where := ""
	var args []any
	add := func(cond string, arg any) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
		args = append(args, arg)
	}
	if f.UserID != nil {
		add("user_id = ?", *f.UserID)
	}
	if f.EntityType != "" {
		add("entity_type = ?", f.EntityType)
	}
	if f.Action != "" {
		add("action = ?", f.Action)
	}
	return where, args
}
