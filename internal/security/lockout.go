package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotLocked is returned by ManualUnlock when the target account is not
// currently locked. Unlocking an already-open account would put a
// meaningless reset marker in the audit trail, so it is rejected.
var ErrNotLocked = errors.New("user is not locked")

// Engine derives account-lockout state from the security event log.
// Nothing is stored outside the log: every answer is recomputed from the
// events visible at call time, so the log stays the single source of truth.
type Engine struct {
	store     EventStore
	threshold int
	window    time.Duration
	now       func() time.Time

	mu     sync.Mutex
	userMu map[int]*sync.Mutex
}

// NewEngine returns an engine counting failures over the given trailing
// window. window doubles as the lock duration, matching the counting
// horizon: once every failure has aged out, the lock has expired too.
func NewEngine(store EventStore, threshold int, window time.Duration) *Engine {
	return &Engine{
		store:     store,
		threshold: threshold,
		window:    window,
		now:       time.Now,
		userMu:    make(map[int]*sync.Mutex),
	}
}

// State is the derived lockout state for one user. It is never persisted.
type State struct {
	Locked           bool          `json:"locked"`
	Attempts         int           `json:"attempts"`
	WindowStart      time.Time     `json:"window_start"`
	Remaining        time.Duration `json:"-"`
	RemainingMS      int64         `json:"remaining_ms"`
	RemainingHours   int           `json:"remaining_hours"`
	RemainingMinutes int           `json:"remaining_minutes"`
	BlockedAt        *time.Time    `json:"blocked_at,omitempty"`
	LastAttempt      *time.Time    `json:"last_attempt,omitempty"`
	ManuallyUnlocked bool          `json:"manually_unlocked"`
}

// FailureResult is returned by RecordFailure.
type FailureResult struct {
	Locked            bool `json:"locked"`
	Attempts          int  `json:"attempts"`
	AttemptsRemaining int  `json:"attempts_remaining"`
}

// lockUser serializes writers for a single user id. Contention never
// crosses users; the outer mutex only guards the map itself.
func (e *Engine) lockUser(id int) func() {
	e.mu.Lock()
	mu, ok := e.userMu[id]
	if !ok {
		mu = &sync.Mutex{}
		e.userMu[id] = mu
	}
	e.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// windowStart resolves the counting window floor for a user: the most
// recent manual unlock inside the trailing window if there is one
// (attempts count strictly after it), else now minus the window
// (inclusive). Two calls at the same instant with no intervening events
// always agree.
func (e *Engine) windowStart(ctx context.Context, userID int, now time.Time) (time.Time, bool, error) {
	unlock, err := e.store.Latest(ctx, Filter{
		UserID: &userID,
		Kinds:  []Kind{KindManualUnlockUser},
		From:   now.Add(-e.window),
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("resolve window: %w", err)
	}
	if unlock != nil {
		return unlock.CreatedAt, true, nil
	}
	return now.Add(-e.window), false, nil
}

// Status recomputes the user's lockout state from the log. Callers must
// treat an error as "locked": failing open on a store outage would defeat
// the control.
func (e *Engine) Status(ctx context.Context, userID int) (State, error) {
	now := e.now()

	start, exclusive, err := e.windowStart(ctx, userID, now)
	if err != nil {
		return State{}, err
	}

	failures, err := e.store.Query(ctx, Filter{
		UserID:        &userID,
		Kinds:         []Kind{KindFailedLogin},
		From:          start,
		FromExclusive: exclusive,
	})
	if err != nil {
		return State{}, fmt.Errorf("count attempts: %w", err)
	}

	st := State{
		Attempts:         len(failures),
		WindowStart:      start,
		ManuallyUnlocked: exclusive,
	}
	if n := len(failures); n > 0 {
		last := failures[n-1].CreatedAt
		st.LastAttempt = &last
	}
	if len(failures) < e.threshold {
		return st, nil
	}

	st.Locked = true

	// Prefer the explicit block marker; fall back to the threshold-th
	// failure for logs written before BLOCKED_AUTO existed.
	blocked, err := e.store.Latest(ctx, Filter{
		UserID:        &userID,
		Kinds:         []Kind{KindBlockedAuto},
		From:          start,
		FromExclusive: exclusive,
	})
	if err != nil {
		return State{}, fmt.Errorf("find block event: %w", err)
	}
	var blockedAt time.Time
	if blocked != nil {
		blockedAt = blocked.CreatedAt
	} else {
		blockedAt = failures[e.threshold-1].CreatedAt
	}
	st.BlockedAt = &blockedAt

	remaining := e.window - now.Sub(blockedAt)
	if remaining < 0 {
		remaining = 0
	}
	st.Remaining = remaining
	st.RemainingMS = remaining.Milliseconds()
	st.RemainingHours = int(remaining / time.Hour)
	st.RemainingMinutes = int((remaining % time.Hour) / time.Minute)
	return st, nil
}

// RecordFailure appends a failed-login event labeled with its position in
// the window, and the one-time auto-block marker when the threshold is
// crossed. Serialized per user so concurrent failures cannot double-count
// an ordinal or emit two block markers.
func (e *Engine) RecordFailure(ctx context.Context, userID int, sourceIP string) (FailureResult, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	now := e.now()
	start, exclusive, err := e.windowStart(ctx, userID, now)
	if err != nil {
		return FailureResult{}, err
	}
	count, err := e.store.Count(ctx, Filter{
		UserID:        &userID,
		Kinds:         []Kind{KindFailedLogin},
		From:          start,
		FromExclusive: exclusive,
	})
	if err != nil {
		return FailureResult{}, fmt.Errorf("count attempts: %w", err)
	}

	n := count + 1
	events := []*Event{{
		UserID:    &userID,
		Kind:      KindFailedLogin,
		Detail:    fmt.Sprintf("failed login, wrong password (attempt %d/%d)", n, e.threshold),
		SourceIP:  sourceIP,
		Ordinal:   &n,
		CreatedAt: now,
	}}
	if n == e.threshold {
		events = append(events, &Event{
			UserID:    &userID,
			Kind:      KindBlockedAuto,
			Detail:    fmt.Sprintf("account locked automatically after %d failed attempts", e.threshold),
			SourceIP:  sourceIP,
			CreatedAt: now,
		})
	}
	if err := e.store.AppendAll(ctx, events...); err != nil {
		return FailureResult{}, err
	}

	remaining := e.threshold - n
	if remaining < 0 {
		remaining = 0
	}
	return FailureResult{
		Locked:            n >= e.threshold,
		Attempts:          n,
		AttemptsRemaining: remaining,
	}, nil
}

// RecordSuccess logs a successful login. It deliberately does not move
// the counting window: earlier failures keep counting until they age out
// or an administrator unlocks the account. Flipping that policy means
// appending a window-reset event here, nowhere else.
func (e *Engine) RecordSuccess(ctx context.Context, userID int, sourceIP string) error {
	return e.store.Append(ctx, &Event{
		UserID:    &userID,
		Kind:      KindSuccessLogin,
		Detail:    "successful login",
		SourceIP:  sourceIP,
		CreatedAt: e.now(),
	})
}

// ManualUnlock appends the administrative unlock pair: one event
// attributed to the admin referencing the target, and one attributed to
// the target that becomes the new counting-window floor. The target must
// currently be locked.
func (e *Engine) ManualUnlock(ctx context.Context, adminID, targetID int, sourceIP string) error {
	unlock := e.lockUser(targetID)
	defer unlock()

	st, err := e.Status(ctx, targetID)
	if err != nil {
		return err
	}
	if !st.Locked {
		return ErrNotLocked
	}

	now := e.now()
	return e.store.AppendAll(ctx,
		&Event{
			UserID:    &adminID,
			Kind:      KindManualUnlockAdmin,
			Detail:    fmt.Sprintf("manually unlocked user %d", targetID),
			SourceIP:  sourceIP,
			TargetID:  &targetID,
			CreatedAt: now,
		},
		&Event{
			UserID:    &targetID,
			Kind:      KindManualUnlockUser,
			Detail:    "account manually unlocked by administrator",
			SourceIP:  sourceIP,
			CreatedAt: now,
		},
	)
}
