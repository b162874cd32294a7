// This file defines repository methods for class offerings. A class
// is the unit customers book seats on; it recurs on a fixed set of
// weekdays and carries a capacity that the booking repository
// enforces. Day sets are parsed through model.WeekdaySet exactly
// once, at the row boundary.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// ErrClassNotFound is returned when a class cannot be found in the DB.
var ErrClassNotFound = errors.New("class not found")

// ClassRepo encapsulates all database queries related to classes.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo constructs a ClassRepo with the provided DB handle.
func NewClassRepo(db *sql.DB) *ClassRepo {
	return &ClassRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions
// that span multiple repositories.
func (r *ClassRepo) DB() *sql.DB { return r.db }

const classColumns = "id, name, description, schedule, capacity, days_of_week, extra_info, created_at, updated_at"

// scanClass reads one classes row into a model.ClassOffering,
// validating the stored day list through the weekday parser.
func scanClass(row interface{ Scan(...any) error }) (*model.ClassOffering, error) {
	var (
		c    model.ClassOffering
		days string
		desc sql.NullString
		info sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &desc, &c.Schedule, &c.Capacity, &days, &info, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	set, err := model.ParseWeekdaySet(days)
	if err != nil {
		return nil, err
	}
	c.Days = set
	c.Description = desc.String
	c.ExtraInfo = info.String
	return &c, nil
}

// Create inserts a new class. On success the ID, CreatedAt and
// UpdatedAt fields are populated from the stored row. Capacity must
// already be validated as >= 1 by the caller.
func (r *ClassRepo) Create(ctx context.Context, c *model.ClassOffering) error {
	const qInsert = `INSERT INTO classes (name, description, schedule, capacity, days_of_week, extra_info)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		c.Name, c.Description, c.Schedule.UTC(), c.Capacity, c.Days.String(), c.ExtraInfo)
	if err != nil {
		return wrapStoreErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapStoreErr(err)
	}
	c.ID = uint64(id)

	// Follow-up SELECT to populate default timestamp fields.
	stored, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// GetByID fetches a class by its ID. It returns ErrClassNotFound
// when no row exists.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (*model.ClassOffering, error) {
	const q = "SELECT " + classColumns + " FROM classes WHERE id = ?"
	c, err := scanClass(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return c, nil
}

// List returns all classes ordered by schedule ascending, the order
// customers browse them in.
func (r *ClassRepo) List(ctx context.Context) ([]*model.ClassOffering, error) {
	const q = "SELECT " + classColumns + " FROM classes ORDER BY schedule ASC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []*model.ClassOffering
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return out, nil
}

// Update rewrites the mutable fields of a class. It returns
// ErrClassNotFound when the row does not exist. Shrinking capacity
// below current occupancy is permitted; remaining-seat computations
// clamp at zero.
func (r *ClassRepo) Update(ctx context.Context, c *model.ClassOffering) error {
	const q = `UPDATE classes
	           SET name = ?, description = ?, schedule = ?, capacity = ?, days_of_week = ?, extra_info = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		c.Name, c.Description, c.Schedule.UTC(), c.Capacity, c.Days.String(), c.ExtraInfo, c.ID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either missing or unchanged; distinguish with a lookup.
		if _, getErr := r.GetByID(ctx, c.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

// Delete removes a class. Deletion is rejected with ErrConflict
// while any non-cancelled booking still references the class; the
// check and the delete run in one transaction so a concurrent
// booking cannot slip between them.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the class row first so concurrent tryReserve calls for
	// this class serialize against the delete.
	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM classes WHERE id = ? FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClassNotFound
		}
		return wrapStoreErr(err)
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = ?`,
		id, model.BookingConfirmed).Scan(&active)
	if err != nil {
		return wrapStoreErr(err)
	}
	if active > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE class_id = ?`, id); err != nil {
		return wrapStoreErr(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id); err != nil {
		return wrapStoreErr(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapStoreErr(err)
	}
	committed = true
	return nil
}
