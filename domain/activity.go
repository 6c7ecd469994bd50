package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity kinds recorded by the session. Free-form strings are allowed;
// these cover the events the core itself emits.
const (
	ActivityDatabase = "database" // database open / close
	ActivityEndpoint = "endpoint" // endpoint resolution outcome
	ActivitySigner   = "signer"   // signer resolution outcome
	ActivitySigning  = "signing"  // signature attempt outcome
)

// Activity is one entry in the session activity log: a resolution outcome, a
// signing attempt, or any other user-visible event the frontend wants kept.
type Activity struct {
	ID        uuid.UUID      `db:"id"`
	Kind      string         `db:"kind"`
	Message   string         `db:"message"`
	Context   map[string]any `db:"-"` // persisted as a JSON column
	CreatedAt time.Time      `db:"created_at"`
}

// ActivityRepository defines the persistence operations for the activity log.
type ActivityRepository interface {
	// InsertActivity appends one entry to the log.
	InsertActivity(activity Activity) error

	// GetActivities returns the most recent entries, newest first. A limit
	// of zero or less returns everything.
	GetActivities(limit int) ([]Activity, error)

	// CountActivities returns the total number of entries.
	CountActivities() (int64, error)
}
