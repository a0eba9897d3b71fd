package domain

import "time"

// Settings holds the per-user scheduling knobs.
type Settings struct {
	IntervalMultiplier     float64 `validate:"gte=1,lte=10"`
	InitialIntervalMinutes int     `validate:"gte=1,lte=1440"`
}

// User carries the scheduler-relevant identity and settings. Credentials live
// in the external auth collaborator and never reach this module. Settings
// changes are audited in an append-only history table owned by the storage
// layer; the scheduler never reads it back.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
	Settings  Settings
}
