package security

import (
	"context"
	"fmt"
	"sort"
)

// LockedUser pairs a user id with its derived lockout state.
type LockedUser struct {
	UserID int   `json:"user_id"`
	State  State `json:"state"`
}

// ListLocked returns every user currently locked out. Failure counts over
// the trailing window select candidates; each candidate is then fully
// re-evaluated so a manual unlock inside the window drops it from the
// result instead of showing up as a false positive.
func (e *Engine) ListLocked(ctx context.Context) ([]LockedUser, error) {
	counts, err := e.store.FailureCountsSince(ctx, e.now().Add(-e.window))
	if err != nil {
		return nil, err
	}

	var out []LockedUser
	for id, n := range counts {
		if n < e.threshold {
			continue
		}
		st, err := e.Status(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("evaluate user %d: %w", id, err)
		}
		if !st.Locked {
			continue
		}
		out = append(out, LockedUser{UserID: id, State: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// History returns the lockout-relevant events for one user over the last
// N days, newest first, for audit display.
func (e *Engine) History(ctx context.Context, userID, days int) ([]Event, error) {
	if days <= 0 {
		days = 30
	}
	return e.store.Query(ctx, Filter{
		UserID: &userID,
		Kinds: []Kind{
			KindFailedLogin,
			KindBlockedAuto,
			KindManualUnlockAdmin,
			KindManualUnlockUser,
			KindSuccessLogin,
		},
		From: e.now().AddDate(0, 0, -days),
		Desc: true,
	})
}
