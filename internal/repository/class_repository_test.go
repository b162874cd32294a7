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

func setupClassMock(t *testing.T) (*ClassRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewClassRepo(db), mock, func() { db.Close() }
}

func TestGetClassByID(t *testing.T) {
	repo, mock, done := setupClassMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, description, schedule, capacity, days_of_week, extra_info, created_at, updated_at FROM classes WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "schedule", "capacity", "days_of_week", "extra_info", "created_at", "updated_at"}).
			AddRow(7, "Morning Yoga", "gentle start", now, 20, "Mon,Wed,Fri", nil, now, now))

	cl, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Morning Yoga", cl.Name)
	assert.Equal(t, uint32(20), cl.Capacity)
	assert.True(t, cl.Days.Contains(model.Wednesday))
	assert.False(t, cl.Days.Contains(model.Sunday))
	assert.Equal(t, "", cl.ExtraInfo)
}

func TestDeleteClass(t *testing.T) {
	qLock := regexp.QuoteMeta(`SELECT id FROM classes WHERE id = ? FOR UPDATE`)
	qActive := regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = ?`)

	t.Run("rejected while confirmed bookings exist", func(t *testing.T) {
		repo, mock, done := setupClassMock(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectQuery(qLock).WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery(qActive).WithArgs(uint64(7), model.BookingConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), 7)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removes class and its cancelled bookings", func(t *testing.T) {
		repo, mock, done := setupClassMock(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectQuery(qLock).WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery(qActive).WithArgs(uint64(7), model.BookingConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bookings WHERE class_id = ?`)).
			WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM classes WHERE id = ?`)).
			WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(context.Background(), 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing class", func(t *testing.T) {
		repo, mock, done := setupClassMock(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectQuery(qLock).WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrClassNotFound)
	})
}
