package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

func setupBookingMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewBookingRepo(db), mock, func() { db.Close() }
}

const (
	qLockClass      = `SELECT capacity, days_of_week FROM classes WHERE id = ? FOR UPDATE`
	qDupCount       = `SELECT COUNT(*) FROM bookings WHERE user_id = ? AND class_id = ? AND day = ? AND status = ?`
	qConfirmedCount = `SELECT COUNT(*) FROM bookings WHERE class_id = ? AND day = ? AND status = ?`
	qInsertBooking  = `INSERT INTO bookings (user_id, class_id, day, status) VALUES (?, ?, ?, ?)`
	qSelectBooking  = `SELECT id, user_id, class_id, day, status, created_at, updated_at FROM bookings WHERE id = ?`
)

func TestTryReserveSuccess(t *testing.T) {
	repo, mock, done := setupBookingMock(t)
	defer done()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qLockClass)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "days_of_week"}).AddRow(20, "Mon,Wed,Fri"))
	mock.ExpectQuery(regexp.QuoteMeta(qDupCount)).
		WithArgs(uint64(3), uint64(7), "Wed", model.BookingConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(qConfirmedCount)).
		WithArgs(uint64(7), "Wed", model.BookingConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(19))
	mock.ExpectExec(regexp.QuoteMeta(qInsertBooking)).
		WithArgs(uint64(3), uint64(7), "Wed", model.BookingConfirmed).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(qSelectBooking)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "class_id", "day", "status", "created_at", "updated_at"}).
			AddRow(42, 3, 7, "Wed", model.BookingConfirmed, now, now))
	mock.ExpectCommit()

	b, err := repo.TryReserve(context.Background(), 3, 7, model.Wednesday)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, model.Wednesday, b.Day)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReserveClassNotFound(t *testing.T) {
	repo, mock, done := setupBookingMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qLockClass)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "days_of_week"}))
	mock.ExpectRollback()

	_, err := repo.TryReserve(context.Background(), 3, 99, model.Monday)
	assert.ErrorIs(t, err, ErrClassNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReserveSlotUnavailable(t *testing.T) {
	repo, mock, done := setupBookingMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qLockClass)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "days_of_week"}).AddRow(20, "Mon,Wed,Fri"))
	mock.ExpectRollback()

	// Class runs Mon/Wed/Fri; Sunday is outside the recurring set.
	_, err := repo.TryReserve(context.Background(), 3, 7, model.Sunday)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReserveDuplicate(t *testing.T) {
	repo, mock, done := setupBookingMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qLockClass)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "days_of_week"}).AddRow(20, "Mon,Wed,Fri"))
	mock.ExpectQuery(regexp.QuoteMeta(qDupCount)).
		WithArgs(uint64(3), uint64(7), "Mon", model.BookingConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.TryReserve(context.Background(), 3, 7, model.Monday)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReserveCapacityExceeded(t *testing.T) {
	repo, mock, done := setupBookingMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qLockClass)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "days_of_week"}).AddRow(20, "Mon,Wed,Fri"))
	mock.ExpectQuery(regexp.QuoteMeta(qDupCount)).
		WithArgs(uint64(3), uint64(7), "Mon", model.BookingConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(qConfirmedCount)).
		WithArgs(uint64(7), "Mon", model.BookingConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(20))
	mock.ExpectRollback()

	_, err := repo.TryReserve(context.Background(), 3, 7, model.Monday)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemainingSeats(t *testing.T) {
	qRemaining := regexp.QuoteMeta(
		`SELECT c.capacity, COUNT(b.id) FROM classes c LEFT JOIN bookings b ON b.class_id = c.id AND b.day = ? AND b.status = ? WHERE c.id = ? GROUP BY c.capacity`)

	t.Run("free seats", func(t *testing.T) {
		repo, mock, done := setupBookingMock(t)
		defer done()

		mock.ExpectQuery(qRemaining).
			WithArgs("Mon", model.BookingConfirmed, uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "count"}).AddRow(20, 12))

		n, err := repo.RemainingSeats(context.Background(), 7, model.Monday)
		require.NoError(t, err)
		assert.Equal(t, uint32(8), n)
	})

	t.Run("clamps at zero when oversubscribed", func(t *testing.T) {
		repo, mock, done := setupBookingMock(t)
		defer done()

		// Capacity shrunk below occupancy by an admin edit.
		mock.ExpectQuery(qRemaining).
			WithArgs("Mon", model.BookingConfirmed, uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "count"}).AddRow(10, 12))

		n, err := repo.RemainingSeats(context.Background(), 7, model.Monday)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), n)
	})

	t.Run("class not found", func(t *testing.T) {
		repo, mock, done := setupBookingMock(t)
		defer done()

		mock.ExpectQuery(qRemaining).
			WithArgs("Mon", model.BookingConfirmed, uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "count"}))

		_, err := repo.RemainingSeats(context.Background(), 99, model.Monday)
		assert.ErrorIs(t, err, ErrClassNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	qCancel := regexp.QuoteMeta(`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`)

	t.Run("marks confirmed booking cancelled", func(t *testing.T) {
		repo, mock, done := setupBookingMock(t)
		defer done()

		mock.ExpectExec(qCancel).
			WithArgs(model.BookingCancelled, uint64(42), model.BookingConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Cancel(context.Background(), 42))
	})

	t.Run("already cancelled is not found", func(t *testing.T) {
		repo, mock, done := setupBookingMock(t)
		defer done()

		mock.ExpectExec(qCancel).
			WithArgs(model.BookingCancelled, uint64(42), model.BookingConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Cancel(context.Background(), 42), ErrBookingNotFound)
	})
}
