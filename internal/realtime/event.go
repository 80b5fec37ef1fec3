package realtime

import (
	"context"
	"time"
)

// TableUserProgress is the only table whose changes are published today.
const TableUserProgress = "user_progress"

type ProgressSnapshot struct {
	XP    int64 `json:"xp"`
	Level int   `json:"level"`
}

// ChangeEvent is one committed update of a progress row.
type ChangeEvent struct {
	Table     string           `json:"table"`
	UserID    string           `json:"user_id"`
	CompanyID string           `json:"company_id"`
	Old       ProgressSnapshot `json:"old"`
	New       ProgressSnapshot `json:"new"`
	At        time.Time        `json:"at"`
}

// Filter selects events for exactly one user within one company.
type Filter struct {
	UserID    string
	CompanyID string
}

func (f Filter) Match(e ChangeEvent) bool {
	return e.Table == TableUserProgress && e.UserID == f.UserID && e.CompanyID == f.CompanyID
}

// Feed publishes change events and fans them out to filtered subscribers.
type Feed interface {
	Publish(ctx context.Context, event ChangeEvent) error
	// Subscribe registers a subscription that is released when ctx ends or
	// Close is called, whichever comes first.
	Subscribe(ctx context.Context, filter Filter) (*Subscription, error)
	Close() error
}
