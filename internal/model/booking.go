package model

import "time"

// Booking status values. A booking is created confirmed and may
// transition to cancelled exactly once; cancelled rows are terminal
// and a later booking of the same slot creates a fresh row.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking records one user's reserved seat on a specific weekday
// occurrence of a class, as stored in the `bookings` table.
//
// At most one booking per (user, class, day) may be in status
// confirmed at a time; the repository enforces this inside the same
// transaction that checks capacity.
type Booking struct {
	ID        uint64    // bookings.id
	UserID    uint64    // bookings.user_id
	ClassID   uint64    // bookings.class_id
	Day       Weekday   // bookings.day
	Status    string    // bookings.status
	CreatedAt time.Time // bookings.created_at
	UpdatedAt time.Time // bookings.updated_at
}
