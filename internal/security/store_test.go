package security

import (
	"context"
	"testing"
	"time"

	"motoshop/internal/db"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	database, err := db.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewSQLStore(database)
}

func TestSQLStore_AppendAndQuery(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	uid := 42
	ord := 1
	ev := &Event{
		UserID:    &uid,
		Kind:      KindFailedLogin,
		Detail:    "failed login, wrong password (attempt 1/5)",
		SourceIP:  "10.0.0.1",
		Ordinal:   &ord,
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.Append(ctx, ev); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ev.ID == 0 {
		t.Error("Append should set the event ID")
	}

	evs, err := store.Query(ctx, Filter{UserID: &uid})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("events = %d, want 1", len(evs))
	}
	got := evs[0]
	if got.Kind != KindFailedLogin || got.SourceIP != "10.0.0.1" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.Ordinal == nil || *got.Ordinal != 1 {
		t.Errorf("ordinal = %v, want 1", got.Ordinal)
	}
	if !got.CreatedAt.Equal(ev.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, ev.CreatedAt)
	}
}

func TestSQLStore_NullUserID(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	ev := &Event{Kind: KindFailedLogin, Detail: "login attempt for unknown username", SourceIP: "10.0.0.9"}
	if err := store.Append(ctx, ev); err != nil {
		t.Fatalf("Append: %v", err)
	}

	evs, err := store.Query(ctx, Filter{Kinds: []Kind{KindFailedLogin}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(evs) != 1 || evs[0].UserID != nil {
		t.Errorf("expected one event with nil user, got %+v", evs)
	}
}

func TestSQLStore_FilterBoundaries(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	uid := 42
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ev := &Event{UserID: &uid, Kind: KindFailedLogin, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// Inclusive lower bound keeps the event at the boundary.
	n, err := store.Count(ctx, Filter{UserID: &uid, From: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("inclusive count = %d, want 2", n)
	}

	// Exclusive lower bound drops it.
	n, err = store.Count(ctx, Filter{UserID: &uid, From: base.Add(time.Minute), FromExclusive: true})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("exclusive count = %d, want 1", n)
	}
}

func TestSQLStore_LatestAndOrdering(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	uid := 42
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	kinds := []Kind{KindFailedLogin, KindSuccessLogin, KindFailedLogin}
	for i, k := range kinds {
		ev := &Event{UserID: &uid, Kind: k, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	latest, err := store.Latest(ctx, Filter{UserID: &uid, Kinds: []Kind{KindFailedLogin}})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || !latest.CreatedAt.Equal(base.Add(2*time.Second)) {
		t.Errorf("Latest = %+v, want the newest failed login", latest)
	}

	none, err := store.Latest(ctx, Filter{UserID: &uid, Kinds: []Kind{KindBlockedAuto}})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if none != nil {
		t.Errorf("Latest with no match = %+v, want nil", none)
	}
}

func TestSQLStore_AppendAllAtomic(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	adminID, targetID := 1, 42
	err := store.AppendAll(ctx,
		&Event{UserID: &adminID, Kind: KindManualUnlockAdmin, TargetID: &targetID},
		&Event{UserID: &targetID, Kind: KindManualUnlockUser},
	)
	if err != nil {
		t.Fatalf("AppendAll: %v", err)
	}

	n, err := store.Count(ctx, Filter{Kinds: []Kind{KindManualUnlockAdmin, KindManualUnlockUser}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("unlock pair events = %d, want 2", n)
	}
}

func TestSQLStore_FailureCountsSince(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := []int{42, 42, 42, 7, 7}
	for i := range users {
		uid := users[i]
		ev := &Event{UserID: &uid, Kind: KindFailedLogin, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	// Success events and null-user events are excluded from the scan.
	uid := 42
	store.Append(ctx, &Event{UserID: &uid, Kind: KindSuccessLogin, CreatedAt: base})
	store.Append(ctx, &Event{Kind: KindFailedLogin, CreatedAt: base})

	counts, err := store.FailureCountsSince(ctx, base)
	if err != nil {
		t.Fatalf("FailureCountsSince: %v", err)
	}
	if counts[42] != 3 || counts[7] != 2 {
		t.Errorf("counts = %v, want 42:3 7:2", counts)
	}
	if len(counts) != 2 {
		t.Errorf("count groups = %d, want 2", len(counts))
	}
}

func TestEngine_AgainstSQLStore(t *testing.T) {
	store := newTestSQLStore(t)
	e := NewEngine(store, 5, 12*time.Hour)
	ctx := context.Background()

	var res FailureResult
	for i := 0; i < 5; i++ {
		var err error
		res, err = e.RecordFailure(ctx, 42, "10.0.0.1")
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if !res.Locked {
		t.Fatal("should be locked after 5 failures")
	}

	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Locked || st.Attempts != 5 {
		t.Errorf("state = %+v, want locked with 5 attempts", st)
	}

	if err := e.ManualUnlock(ctx, 1, 42, "192.168.0.5"); err != nil {
		t.Fatalf("ManualUnlock: %v", err)
	}
	st, err = e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Locked {
		t.Error("should be unlocked after manual unlock")
	}
}
