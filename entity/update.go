package entity

import "time"

// StatusUpdate describes one status write. A non-nil Expect turns it into a
// guarded update that only applies while the pass is still in that state.
type StatusUpdate struct {
	Id          int64
	Expect      *Status
	Status      Status
	CheckedInAt *time.Time
	UpdatedAt   time.Time
}
