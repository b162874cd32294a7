package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Fulani/class-booking-api/internal/handler"
	"github.com/Mr-Fulani/class-booking-api/internal/model"
	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

// seatStore serves a mutable remaining count so freshness between
// requests is observable.
type seatStore struct {
	remaining uint32
}

func (s *seatStore) TryReserve(ctx context.Context, userID, classID uint64, day model.Weekday) (*model.Booking, error) {
	return nil, nil
}

func (s *seatStore) RemainingSeats(ctx context.Context, classID uint64, day model.Weekday) (uint32, error) {
	return s.remaining, nil
}

func (s *seatStore) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return nil, nil
}

func (s *seatStore) Cancel(ctx context.Context, id uint64) error { return nil }

type staticClassStore struct{}

func (staticClassStore) GetByID(ctx context.Context, id uint64) (*model.ClassOffering, error) {
	return &model.ClassOffering{ID: id}, nil
}

type nopAppender struct{}

func (nopAppender) Append(ctx context.Context, e *model.AuditEntry) error { return nil }

type nopCounter struct{}

func (nopCounter) CountSince(ctx context.Context, userID uint64, action, status string, since time.Time) (int, error) {
	return 0, nil
}

// fixedResponse stands in for the response cache: it short-circuits
// every request under its group the way a cache hit would.
func fixedResponse(body string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.String(http.StatusOK, body)
		}
	}
}

func newPublicRig(t *testing.T, store *seatStore, cache echo.MiddlewareFunc) *echo.Echo {
	t.Helper()
	svc := service.NewBookingService(
		store,
		staticClassStore{},
		service.NewRecorder(nopAppender{}),
		service.NewRateWindow(nopCounter{}),
		nil,
		service.DefaultAbusePolicy(),
	)
	h := &handler.ClassHandler{Bookings: svc}
	e := echo.New()
	RegisterPublic(e, h, cache)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSeatsRouteBypassesResponseCache(t *testing.T) {
	store := &seatStore{remaining: 0}
	e := newPublicRig(t, store, fixedResponse("catalogue-cache"))

	// Catalogue routes sit behind the cache group.
	rec := get(e, "/v1/classes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "catalogue-cache", rec.Body.String())

	rec = get(e, "/v1/classes/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "catalogue-cache", rec.Body.String())

	// The seats route reaches the live handler.
	rec = get(e, "/v1/classes/7/seats?day=Mon")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "catalogue-cache", rec.Body.String())
	assert.JSONEq(t, `{"class_id":7,"day":"Mon","remaining":0}`, rec.Body.String())
}

func TestSeatsCountIsFreshAcrossRequests(t *testing.T) {
	store := &seatStore{remaining: 0}
	e := newPublicRig(t, store, fixedResponse("catalogue-cache"))

	rec := get(e, "/v1/classes/7/seats?day=Mon")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"class_id":7,"day":"Mon","remaining":0}`, rec.Body.String())

	// A cancellation frees a seat; the next read must see it.
	store.remaining = 1
	rec = get(e, "/v1/classes/7/seats?day=Mon")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"class_id":7,"day":"Mon","remaining":1}`, rec.Body.String())
}
