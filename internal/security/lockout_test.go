package security

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) (*Engine, *MemStore, *time.Time) {
	t.Helper()
	store := NewMemStore()
	e := NewEngine(store, 5, 12*time.Hour)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := &now
	e.now = func() time.Time { return *clock }
	return e, store, clock
}

func advance(clock *time.Time, d time.Duration) {
	*clock = clock.Add(d)
}

func TestLockout_FreshUserNotLocked(t *testing.T) {
	e, _, _ := newTestEngine(t)

	st, err := e.Status(context.Background(), 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Locked {
		t.Error("user with no events should not be locked")
	}
	if st.Attempts != 0 || st.RemainingMS != 0 || st.BlockedAt != nil {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestLockout_BelowThresholdNotLocked(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	// Four failures inside one minute.
	var last FailureResult
	for i := 0; i < 4; i++ {
		var err error
		last, err = e.RecordFailure(ctx, 42, "10.0.0.1")
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		advance(clock, 10*time.Second)
	}

	if last.Locked {
		t.Error("should not be locked after 4 failures")
	}
	if last.AttemptsRemaining != 1 {
		t.Errorf("attempts_remaining = %d, want 1", last.AttemptsRemaining)
	}

	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Locked {
		t.Error("Status should agree: not locked below threshold")
	}
	if st.Attempts != 4 {
		t.Errorf("attempts = %d, want 4", st.Attempts)
	}
}

func TestLockout_FifthFailureLocks(t *testing.T) {
	e, store, clock := newTestEngine(t)
	ctx := context.Background()

	var res FailureResult
	for i := 0; i < 5; i++ {
		var err error
		res, err = e.RecordFailure(ctx, 42, "10.0.0.1")
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		advance(clock, time.Second)
	}

	if !res.Locked {
		t.Fatal("should be locked after 5th failure")
	}
	if res.Attempts != 5 {
		t.Errorf("attempts = %d, want 5", res.Attempts)
	}

	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Locked {
		t.Fatal("Status should report locked")
	}
	if st.RemainingMS <= 0 {
		t.Errorf("remaining_ms = %d, want > 0", st.RemainingMS)
	}
	if st.BlockedAt == nil {
		t.Fatal("blocked_at should be set")
	}

	blocks, err := store.Count(ctx, Filter{Kinds: []Kind{KindBlockedAuto}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if blocks != 1 {
		t.Errorf("BLOCKED_AUTO events = %d, want exactly 1", blocks)
	}
}

func TestLockout_OrdinalLabels(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.RecordFailure(ctx, 7, "10.0.0.2"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	uid := 7
	evs, err := store.Query(ctx, Filter{UserID: &uid, Kinds: []Kind{KindFailedLogin}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for i, ev := range evs {
		if ev.Ordinal == nil || *ev.Ordinal != i+1 {
			t.Errorf("event %d ordinal = %v, want %d", i, ev.Ordinal, i+1)
		}
	}
}

func TestLockout_ManualUnlockResetsWindow(t *testing.T) {
	e, store, clock := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		advance(clock, time.Second)
	}

	if err := e.ManualUnlock(ctx, 1, 42, "192.168.0.5"); err != nil {
		t.Fatalf("ManualUnlock: %v", err)
	}

	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Locked {
		t.Error("should be unlocked immediately after manual unlock")
	}
	if !st.ManuallyUnlocked {
		t.Error("state should record the manual unlock")
	}

	// The unlock must be recorded as a pair: admin event + target event.
	adminID, targetID := 1, 42
	adminEvs, _ := store.Query(ctx, Filter{UserID: &adminID, Kinds: []Kind{KindManualUnlockAdmin}})
	if len(adminEvs) != 1 {
		t.Fatalf("admin unlock events = %d, want 1", len(adminEvs))
	}
	if adminEvs[0].TargetID == nil || *adminEvs[0].TargetID != targetID {
		t.Errorf("admin event target = %v, want %d", adminEvs[0].TargetID, targetID)
	}
	userEvs, _ := store.Query(ctx, Filter{UserID: &targetID, Kinds: []Kind{KindManualUnlockUser}})
	if len(userEvs) != 1 {
		t.Fatalf("user unlock events = %d, want 1", len(userEvs))
	}

	// The next failure counts from 1, not 6.
	advance(clock, time.Second)
	res, err := e.RecordFailure(ctx, 42, "10.0.0.1")
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts after unlock = %d, want 1", res.Attempts)
	}
	if res.Locked {
		t.Error("one failure after unlock should not re-lock")
	}
}

func TestLockout_UnlockRejectedWhenNotLocked(t *testing.T) {
	e, _, _ := newTestEngine(t)

	err := e.ManualUnlock(context.Background(), 1, 42, "192.168.0.5")
	if err != ErrNotLocked {
		t.Errorf("ManualUnlock on open account = %v, want ErrNotLocked", err)
	}
}

func TestLockout_NaturalExpiry(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	st, _ := e.Status(ctx, 42)
	if !st.Locked {
		t.Fatal("should be locked")
	}

	// 12h + 1s later, with no further events, the lock has expired.
	advance(clock, 12*time.Hour+time.Second)
	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Locked {
		t.Error("lock should expire naturally after the window passes")
	}
	if st.Attempts != 0 {
		t.Errorf("aged-out attempts should not count, got %d", st.Attempts)
	}
}

func TestLockout_SuccessDoesNotClearWindow(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		advance(clock, time.Second)
	}

	// A successful login between the 3rd and 4th failures.
	if err := e.RecordSuccess(ctx, 42, "10.0.0.1"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	advance(clock, time.Second)

	var res FailureResult
	for i := 0; i < 2; i++ {
		var err error
		res, err = e.RecordFailure(ctx, 42, "10.0.0.1")
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		advance(clock, time.Second)
	}

	if res.Attempts != 5 {
		t.Errorf("attempts = %d, want 5 (success must not clear the window)", res.Attempts)
	}
	st, _ := e.Status(ctx, 42)
	if !st.Locked {
		t.Error("should be locked: the interleaved success does not reset counting")
	}
}

func TestLockout_WindowStartIdempotent(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if err := e.ManualUnlock(ctx, 1, 42, "192.168.0.5"); err != nil {
		t.Fatalf("ManualUnlock: %v", err)
	}
	advance(clock, time.Minute)

	a, _, err := e.windowStart(ctx, 42, e.now())
	if err != nil {
		t.Fatalf("windowStart: %v", err)
	}
	b, _, err := e.windowStart(ctx, 42, e.now())
	if err != nil {
		t.Fatalf("windowStart: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("windowStart not idempotent: %v vs %v", a, b)
	}
}

func TestLockout_BlockedAtFallsBackToFifthFailure(t *testing.T) {
	e, store, clock := newTestEngine(t)
	ctx := context.Background()

	// Simulate a log written before BLOCKED_AUTO existed: five raw
	// failures, no block marker.
	uid := 42
	var fifth time.Time
	for i := 1; i <= 5; i++ {
		ord := i
		ev := &Event{UserID: &uid, Kind: KindFailedLogin, Ordinal: &ord, CreatedAt: e.now()}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if i == 5 {
			fifth = ev.CreatedAt
		}
		advance(clock, time.Minute)
	}

	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Locked {
		t.Fatal("should be locked")
	}
	if st.BlockedAt == nil || !st.BlockedAt.Equal(fifth) {
		t.Errorf("blocked_at = %v, want timestamp of 5th failure %v", st.BlockedAt, fifth)
	}
}

func TestLockout_RemainingBreakdown(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	// 2h30m into a 12h lock leaves 9h30m.
	advance(clock, 2*time.Hour+30*time.Minute)
	st, err := e.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Locked {
		t.Fatal("should still be locked")
	}
	if st.RemainingHours != 9 || st.RemainingMinutes != 30 {
		t.Errorf("remaining = %dh %dm, want 9h 30m", st.RemainingHours, st.RemainingMinutes)
	}
}

func TestLockout_ConcurrentFailuresSerialized(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	// True pre-call count is threshold-1.
	for i := 0; i < 4; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	const parallel = 8
	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
				t.Errorf("RecordFailure: %v", err)
			}
		}()
	}
	wg.Wait()

	uid := 42
	attempts, err := store.Count(ctx, Filter{UserID: &uid, Kinds: []Kind{KindFailedLogin}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if attempts != 4+parallel {
		t.Errorf("total attempts = %d, want %d", attempts, 4+parallel)
	}

	blocks, err := store.Count(ctx, Filter{UserID: &uid, Kinds: []Kind{KindBlockedAuto}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if blocks != 1 {
		t.Errorf("BLOCKED_AUTO events = %d, want exactly 1 under serialization", blocks)
	}

	// Ordinals must be an exact 1..N sequence, no duplicates.
	evs, _ := store.Query(ctx, Filter{UserID: &uid, Kinds: []Kind{KindFailedLogin}})
	seen := make(map[int]bool)
	for _, ev := range evs {
		if ev.Ordinal == nil {
			t.Fatal("failed-login event missing ordinal")
		}
		if seen[*ev.Ordinal] {
			t.Errorf("duplicate ordinal %d", *ev.Ordinal)
		}
		seen[*ev.Ordinal] = true
	}
	for i := 1; i <= 4+parallel; i++ {
		if !seen[i] {
			t.Errorf("missing ordinal %d", i)
		}
	}
}

func TestLockout_DistinctUsersIndependent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.RecordFailure(ctx, 42, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	st, err := e.Status(ctx, 43)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Locked || st.Attempts != 0 {
		t.Errorf("user 43 should be untouched by user 42's failures, got %+v", st)
	}
}
