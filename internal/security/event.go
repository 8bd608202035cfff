package security

import "time"

// Kind classifies a security event. The log is classified by this column
// alone; the Detail text is for human display and is never matched against.
type Kind string

const (
	KindFailedLogin       Kind = "FAILED_LOGIN"
	KindBlockedAuto       Kind = "BLOCKED_AUTO"
	KindManualUnlockAdmin Kind = "MANUAL_UNLOCK_ADMIN"
	KindManualUnlockUser  Kind = "MANUAL_UNLOCK_USER"
	KindSuccessLogin      Kind = "SUCCESS_LOGIN"
)

// Event is one row of the append-only security log. Events are never
// updated or deleted by the engine; retention pruning is the sweeper's job.
type Event struct {
	ID        int64     `json:"id"`
	UserID    *int      `json:"user_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Detail    string    `json:"detail"`
	SourceIP  string    `json:"source_ip"`
	Ordinal   *int      `json:"ordinal,omitempty"`
	TargetID  *int      `json:"target_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows a store query. Zero fields are ignored.
// From is inclusive unless FromExclusive is set; the engine uses the
// exclusive form when counting attempts after a manual unlock.
type Filter struct {
	UserID        *int
	Kinds         []Kind
	From          time.Time
	FromExclusive bool
	Until         time.Time
	Desc          bool
	Limit         int
}
