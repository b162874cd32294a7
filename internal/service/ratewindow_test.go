package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

func TestExceededComputesTrailingWindow(t *testing.T) {
	counter := &fakeCounter{count: 0}
	w := NewRateWindow(counter)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	_, err := w.Exceeded(context.Background(), 3, model.ActionLogin, model.AuditFailure, 15*time.Minute, 5)
	require.NoError(t, err)

	// The store query covers [now-window, now]; since the store
	// compares with >=, an entry exactly at 09:45:00 counts.
	assert.Equal(t, now.Add(-15*time.Minute), counter.lastSince)
}

func TestExceededAtLimit(t *testing.T) {
	w := NewRateWindow(&fakeCounter{count: 5})
	got, err := w.Exceeded(context.Background(), 3, model.ActionLogin, model.AuditFailure, 15*time.Minute, 5)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestExceededUnderLimit(t *testing.T) {
	w := NewRateWindow(&fakeCounter{count: 4})
	got, err := w.Exceeded(context.Background(), 3, model.ActionLogin, model.AuditFailure, 15*time.Minute, 5)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestExceededPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("store down")
	w := NewRateWindow(&fakeCounter{err: storeErr})
	_, err := w.Exceeded(context.Background(), 3, model.ActionLogin, model.AuditFailure, 15*time.Minute, 5)
	assert.ErrorIs(t, err, storeErr)
}

func TestDefaultAbusePolicy(t *testing.T) {
	p := DefaultAbusePolicy()
	assert.Equal(t, 10, p.BookingBurstLimit)
	assert.Equal(t, 10*time.Minute, p.BookingBurstWindow)
	assert.Equal(t, 5, p.LoginFailureLimit)
	assert.Equal(t, 15*time.Minute, p.LoginFailureWindow)
	assert.Equal(t, 3, p.PasswordChangeLimit)
	assert.Equal(t, 24*time.Hour, p.PasswordChangeWindow)
}
