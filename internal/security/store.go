package security

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// EventStore is the engine's only dependency. Append-only: implementations
// must never mutate or drop an event on behalf of the engine.
type EventStore interface {
	Append(ctx context.Context, ev *Event) error
	// AppendAll writes the given events as a single atomic unit. Used for
	// the manual-unlock pair, which must not be split by a crash.
	AppendAll(ctx context.Context, evs ...*Event) error
	Query(ctx context.Context, f Filter) ([]Event, error)
	Count(ctx context.Context, f Filter) (int, error)
	// Latest returns the newest event matching f, or nil if none match.
	Latest(ctx context.Context, f Filter) (*Event, error)
	// FailureCountsSince returns user_id -> FAILED_LOGIN count for events
	// at or after since, across all users with a non-null user_id.
	FailureCountsSince(ctx context.Context, since time.Time) (map[int]int, error)
}

// SQLStore persists events in the security_events table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const eventColumns = "id, user_id, kind, COALESCE(detail,''), COALESCE(source_ip,''), ordinal, target_id, created_at"

// TimeLayout is the fixed-width timestamp format for security_events
// rows. Fixed width keeps lexical comparison in SQL aligned with
// chronological order (RFC3339Nano trims trailing zeros and does not).
// Anything comparing against the created_at column must use it.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLStore) Append(ctx context.Context, ev *Event) error {
	return s.insert(ctx, s.db, ev)
}

func (s *SQLStore) AppendAll(ctx context.Context, evs ...*Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	for _, ev := range evs {
		if err := s.insert(ctx, tx, ev); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) insert(ctx context.Context, ex execer, ev *Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	res, err := ex.ExecContext(ctx,
		"INSERT INTO security_events (user_id, kind, detail, source_ip, ordinal, target_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ev.UserID, string(ev.Kind), ev.Detail, ev.SourceIP, ev.Ordinal, ev.TargetID, ev.CreatedAt.UTC().Format(TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("append security event: %w", err)
	}
	ev.ID, _ = res.LastInsertId()
	return nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.UserID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if len(f.Kinds) == 1 {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kinds[0]))
	} else if len(f.Kinds) > 1 {
		placeholders := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conds = append(conds, "kind IN ("+strings.Join(placeholders, ",")+")")
	}
	if !f.From.IsZero() {
		op := ">="
		if f.FromExclusive {
			op = ">"
		}
		conds = append(conds, "created_at "+op+" ?")
		args = append(args, f.From.UTC().Format(TimeLayout))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.Until.UTC().Format(TimeLayout))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *SQLStore) Query(ctx context.Context, f Filter) ([]Event, error) {
	where, args := buildWhere(f)
	order := " ORDER BY created_at ASC, id ASC"
	if f.Desc {
		order = " ORDER BY created_at DESC, id DESC"
	}
	q := "SELECT " + eventColumns + " FROM security_events" + where + order
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLStore) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM security_events"+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count security events: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Latest(ctx context.Context, f Filter) (*Event, error) {
	f.Desc = true
	f.Limit = 1
	evs, err := s.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return nil, nil
	}
	return &evs[0], nil
}

func (s *SQLStore) FailureCountsSince(ctx context.Context, since time.Time) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, COUNT(*) FROM security_events WHERE kind = ? AND user_id IS NOT NULL AND created_at >= ? GROUP BY user_id",
		string(KindFailedLogin), since.UTC().Format(TimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("group failure counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan failure count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var ev Event
	var userID, ordinal, targetID sql.NullInt64
	var kind, createdAt string
	if err := rows.Scan(&ev.ID, &userID, &kind, &ev.Detail, &ev.SourceIP, &ordinal, &targetID, &createdAt); err != nil {
		return ev, fmt.Errorf("scan security event: %w", err)
	}
	ev.Kind = Kind(kind)
	if userID.Valid {
		v := int(userID.Int64)
		ev.UserID = &v
	}
	if ordinal.Valid {
		v := int(ordinal.Int64)
		ev.Ordinal = &v
	}
	if targetID.Valid {
		v := int(targetID.Int64)
		ev.TargetID = &v
	}
	t, err := time.Parse(TimeLayout, createdAt)
	if err != nil {
		return ev, fmt.Errorf("parse event timestamp %q: %w", createdAt, err)
	}
	ev.CreatedAt = t
	return ev, nil
}
