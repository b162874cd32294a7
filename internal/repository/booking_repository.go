package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// ErrBookingNotFound is returned when a booking cannot be found.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides seat accounting for class bookings. The
// availability check and the insert in TryReserve run as one logical
// unit: the class row is locked with SELECT ... FOR UPDATE before
// counting, so two concurrent reservations for the last remaining
// seat serialize and exactly one succeeds.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions across repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// RemainingSeats returns capacity minus confirmed bookings for the
// (class, day) slot, clamped at zero. A capacity edited below the
// current occupancy therefore never reports negative availability.
// ErrClassNotFound is returned when the class does not exist.
func (r *BookingRepo) RemainingSeats(ctx context.Context, classID uint64, day model.Weekday) (uint32, error) {
	const q = `SELECT c.capacity, COUNT(b.id)
	           FROM classes c
	           LEFT JOIN bookings b ON b.class_id = c.id AND b.day = ? AND b.status = ?
	           WHERE c.id = ?
	           GROUP BY c.capacity`
	var capacity uint32
	var confirmed uint32
	err := r.db.QueryRowContext(ctx, q, string(day), model.BookingConfirmed, classID).Scan(&capacity, &confirmed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrClassNotFound
		}
		return 0, wrapStoreErr(err)
	}
	if confirmed >= capacity {
		return 0, nil
	}
	return capacity - confirmed, nil
}

// TryReserve attempts to insert a confirmed booking for user/class/day.
// It fails with ErrSlotUnavailable when the class does not recur on
// the requested day, ErrDuplicateBooking when the user already holds
// a confirmed booking for the slot, and ErrCapacityExceeded when no
// seats remain. The whole sequence runs inside one transaction that
// locks the class row first, so capacity can never be oversubscribed
// by concurrent callers.
func (r *BookingRepo) TryReserve(ctx context.Context, userID, classID uint64, day model.Weekday) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the class row for the duration of the count-then-insert.
	var capacity uint32
	var daysRaw string
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, days_of_week FROM classes WHERE id = ? FOR UPDATE`,
		classID).Scan(&capacity, &daysRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, wrapStoreErr(err)
	}
	days, err := model.ParseWeekdaySet(daysRaw)
	if err != nil {
		return nil, err
	}
	if !days.Contains(day) {
		return nil, ErrSlotUnavailable
	}

	// One confirmed booking per (user, class, day).
	var dup int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = ? AND class_id = ? AND day = ? AND status = ?`,
		userID, classID, string(day), model.BookingConfirmed).Scan(&dup)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if dup > 0 {
		return nil, ErrDuplicateBooking
	}

	var confirmed uint32
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_id = ? AND day = ? AND status = ?`,
		classID, string(day), model.BookingConfirmed).Scan(&confirmed)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if confirmed >= capacity {
		return nil, ErrCapacityExceeded
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, class_id, day, status) VALUES (?, ?, ?, ?)`,
		userID, classID, string(day), model.BookingConfirmed)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	b := &model.Booking{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, class_id, day, status, created_at, updated_at FROM bookings WHERE id = ?`,
		id).Scan(&b.ID, &b.UserID, &b.ClassID, &b.Day, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}
	committed = true
	return b, nil
}

// GetByID fetches a booking by id. ErrBookingNotFound is returned
// when the row does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, class_id, day, status, created_at, updated_at FROM bookings WHERE id = ?`
	b := &model.Booking{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UserID, &b.ClassID, &b.Day, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return b, nil
}

// Cancel marks a confirmed booking cancelled. It returns
// ErrBookingNotFound when the row does not exist or is already
// cancelled; a cancelled booking is terminal and is never restored.
// The freed seat becomes visible to TryReserve immediately.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		model.BookingCancelled, id, model.BookingConfirmed)
	if err != nil {
		return wrapStoreErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr(err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// BookingDetail combines a booking with its class name for listing
// endpoints so customers see what they booked without extra queries.
type BookingDetail struct {
	ID        uint64 `json:"id"`
	ClassID   uint64 `json:"class_id"`
	ClassName string `json:"class_name"`
	Day       string `json:"day"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ListByUser returns all bookings for the given user, newest first,
// joined with class names. When no bookings exist an empty slice is
// returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.class_id, c.name, b.day, b.status, b.created_at
	           FROM bookings b
	           JOIN classes c ON c.id = b.class_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.ClassID, &d.ClassName, &d.Day, &d.Status, &d.CreatedAt); err != nil {
			return nil, wrapStoreErr(err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return details, nil
}

// ClassOccupancy is one row of the admin statistics view: confirmed
// seat counts per class and day.
type ClassOccupancy struct {
	ClassID   uint64 `json:"class_id"`
	ClassName string `json:"class_name"`
	Day       string `json:"day"`
	Confirmed uint32 `json:"confirmed"`
	Capacity  uint32 `json:"capacity"`
}

// OccupancyStats aggregates confirmed bookings per (class, day) for
// the admin dashboard.
func (r *BookingRepo) OccupancyStats(ctx context.Context) ([]ClassOccupancy, error) {
	const q = `SELECT c.id, c.name, b.day, COUNT(b.id), c.capacity
	           FROM classes c
	           JOIN bookings b ON b.class_id = c.id AND b.status = ?
	           GROUP BY c.id, c.name, b.day, c.capacity
	           ORDER BY c.id, b.day`
	rows, err := r.db.QueryContext(ctx, q, model.BookingConfirmed)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	stats := make([]ClassOccupancy, 0)
	for rows.Next() {
		var s ClassOccupancy
		if err := rows.Scan(&s.ClassID, &s.ClassName, &s.Day, &s.Confirmed, &s.Capacity); err != nil {
			return nil, wrapStoreErr(err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return stats, nil
}
