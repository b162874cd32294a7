package model

import "time"

// ClassOffering represents a bookable class as stored in the
// `classes` table. The Schedule anchor fixes the time of day for
// every recurrence; Days lists the weekdays the class recurs on.
//
// Invariants: Capacity >= 1 and Days is a non-empty subset of the
// seven weekday codes. Both are validated at the API boundary and
// enforced again on insert.
type ClassOffering struct {
	ID          uint64     // classes.id
	Name        string     // classes.name
	Description string     // classes.description
	Schedule    time.Time  // classes.schedule (anchor date-time, UTC)
	Capacity    uint32     // classes.capacity
	Days        WeekdaySet // classes.days_of_week (canonical comma list)
	ExtraInfo   string     // classes.extra_info
	CreatedAt   time.Time  // classes.created_at
	UpdatedAt   time.Time  // classes.updated_at
}
