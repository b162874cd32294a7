//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// openTestDB connects to the MySQL instance named by TEST_MYSQL_DSN.
// The schema from migrations/001_init.sql must already be applied.
// Run with: go test -tags integration ./internal/repository/
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set (expects e.g. user:pass@tcp(127.0.0.1:3306)/booking_test?parseTime=true&loc=UTC)")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB) uint64 {
	t.Helper()
	name := "user-" + uuid.NewString()
	res, err := db.Exec(
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		name, name+"@example.com", "x",
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = ?`, id) })
	return uint64(id)
}

func seedClass(t *testing.T, db *sql.DB, capacity uint32, days string) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO classes (name, schedule, capacity, days_of_week) VALUES (?, ?, ?, ?)`,
		"class-"+uuid.NewString(), time.Now().UTC().Format("2006-01-02 15:04:05"), capacity, days,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(`DELETE FROM bookings WHERE class_id = ?`, id)
		db.Exec(`DELETE FROM classes WHERE id = ?`, id)
	})
	return uint64(id)
}

// Two parallel reservations race for the last seat. The class-row
// lock inside TryReserve must serialize them so exactly one wins and
// the other observes ErrCapacityExceeded.
func TestTryReserveLastSeatRace(t *testing.T) {
	db := openTestDB(t)
	repo := NewBookingRepo(db)

	classID := seedClass(t, db, 1, "Mon")
	users := [2]uint64{seedUser(t, db), seedUser(t, db)}

	var (
		wg       sync.WaitGroup
		bookings [2]*model.Booking
		errs     [2]error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			bookings[i], errs[i] = repo.TryReserve(ctx, users[i], classID, model.Monday)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for i := 0; i < 2; i++ {
		switch errs[i] {
		case nil:
			require.NotNil(t, bookings[i], fmt.Sprintf("attempt %d returned no booking", i))
			won++
		case ErrCapacityExceeded:
			lost++
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, errs[i])
		}
	}
	require.Equal(t, 1, won, "exactly one reservation must win the last seat")
	require.Equal(t, 1, lost)

	ctx := context.Background()
	remaining, err := repo.RemainingSeats(ctx, classID, model.Monday)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), remaining)
}

// Cancelling the winning reservation frees the seat for the user who
// lost the race.
func TestCancelFreesSeatForNextReservation(t *testing.T) {
	db := openTestDB(t)
	repo := NewBookingRepo(db)
	ctx := context.Background()

	classID := seedClass(t, db, 1, "Mon")
	first := seedUser(t, db)
	second := seedUser(t, db)

	b, err := repo.TryReserve(ctx, first, classID, model.Monday)
	require.NoError(t, err)

	_, err = repo.TryReserve(ctx, second, classID, model.Monday)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	require.NoError(t, repo.Cancel(ctx, b.ID))

	remaining, err := repo.RemainingSeats(ctx, classID, model.Monday)
	require.NoError(t, err)
	require.Equal(t, uint32(1), remaining)

	_, err = repo.TryReserve(ctx, second, classID, model.Monday)
	require.NoError(t, err)
}
