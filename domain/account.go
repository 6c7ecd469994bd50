package domain

import "time"

// TrackedAccount is the minimal account record the sys database collaborator
// exposes. The database's on-disk format is entirely its own; the core only
// reads records through this shape.
type TrackedAccount struct {
	Address     string
	Description string
	Lamports    uint64
	LastUpdate  time.Time
}
