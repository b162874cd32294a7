package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
	"github.com/Mr-Fulani/class-booking-api/internal/repository"
)

// BookingStore is the seat-accounting surface the lifecycle needs.
// *repository.BookingRepo satisfies it.
type BookingStore interface {
	TryReserve(ctx context.Context, userID, classID uint64, day model.Weekday) (*model.Booking, error)
	RemainingSeats(ctx context.Context, classID uint64, day model.Weekday) (uint32, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	Cancel(ctx context.Context, id uint64) error
}

// ClassStore provides class lookups for notifications.
type ClassStore interface {
	GetByID(ctx context.Context, id uint64) (*model.ClassOffering, error)
}

// BookingNotification carries the details of a confirmed booking to
// the notification collaborator.
type BookingNotification struct {
	BookingID uint64
	UserID    uint64
	ClassID   uint64
	ClassName string
	Day       string
	BookedAt  time.Time
}

// Notifier delivers booking confirmations. Delivery failure is
// non-fatal to the booking.
type Notifier interface {
	NotifyBookingConfirmed(ctx context.Context, n BookingNotification) error
}

// BookingService drives the reservation state machine: burst check,
// capacity-checked reserve, audit entry, confirmation notification.
// All collaborators are injected at construction time.
type BookingService struct {
	bookings BookingStore
	classes  ClassStore
	audit    *Recorder
	window   *RateWindow
	notify   Notifier
	policy   AbusePolicy
}

// NewBookingService wires a BookingService. notify may be nil when
// no broker is configured; confirmations are then skipped.
func NewBookingService(bookings BookingStore, classes ClassStore, audit *Recorder, window *RateWindow, notify Notifier, policy AbusePolicy) *BookingService {
	if bookings == nil || classes == nil || audit == nil || window == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		bookings: bookings,
		classes:  classes,
		audit:    audit,
		window:   window,
		notify:   notify,
		policy:   policy,
	}
}

// Book reserves a seat on (class, day) for the actor. Failure
// taxonomy surfaced to callers: ErrBurstDetected,
// repository.ErrSlotUnavailable, repository.ErrDuplicateBooking,
// repository.ErrCapacityExceeded, repository.ErrClassNotFound.
func (s *BookingService) Book(ctx context.Context, actor model.Actor, classID uint64, day model.Weekday) (*model.Booking, error) {
	// Burst check counts the actor's successful bookings in the
	// trailing window. A rejected burst never consumes a seat.
	exceeded, err := s.window.Exceeded(ctx, actor.UserID,
		model.ActionBookingCreate, model.AuditSuccess,
		s.policy.BookingBurstWindow, s.policy.BookingBurstLimit)
	if err != nil {
		return nil, err
	}
	if exceeded {
		s.audit.Record(ctx, &actor.UserID, model.ActionBookingCreate,
			fmt.Sprintf("booking burst: class=%d day=%s", classID, day),
			model.AuditWarning, actor.IP)
		return nil, ErrBurstDetected
	}

	b, err := s.bookings.TryReserve(ctx, actor.UserID, classID, day)
	if err != nil {
		s.audit.Record(ctx, &actor.UserID, model.ActionBookingCreate,
			fmt.Sprintf("class=%d day=%s: %v", classID, day, err),
			model.AuditFailure, actor.IP)
		return nil, err
	}

	s.audit.Record(ctx, &actor.UserID, model.ActionBookingCreate,
		fmt.Sprintf("booking=%d class=%d day=%s", b.ID, classID, day),
		model.AuditSuccess, actor.IP)

	s.sendConfirmation(ctx, actor, b)
	return b, nil
}

// sendConfirmation publishes the confirmation event. Failures are
// logged as a warning and never roll back the reservation.
func (s *BookingService) sendConfirmation(ctx context.Context, actor model.Actor, b *model.Booking) {
	if s.notify == nil {
		return
	}
	className := ""
	if c, err := s.classes.GetByID(ctx, b.ClassID); err == nil {
		className = c.Name
	}
	n := BookingNotification{
		BookingID: b.ID,
		UserID:    b.UserID,
		ClassID:   b.ClassID,
		ClassName: className,
		Day:       string(b.Day),
		BookedAt:  b.CreatedAt,
	}
	if err := s.notify.NotifyBookingConfirmed(ctx, n); err != nil {
		log.Printf("booking: confirmation notify failed for booking=%d: %v", b.ID, err)
		s.audit.Record(ctx, &actor.UserID, model.ActionBookingCreate,
			fmt.Sprintf("notification failed for booking=%d", b.ID),
			model.AuditWarning, actor.IP)
	}
}

// Cancel marks a booking cancelled on behalf of its owner or an
// administrator. Failure taxonomy: repository.ErrBookingNotFound,
// repository.ErrForbidden, ErrBurstDetected.
func (s *BookingService) Cancel(ctx context.Context, actor model.Actor, bookingID uint64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.UserID != actor.UserID && !actor.IsAdmin() {
		s.audit.Record(ctx, &actor.UserID, model.ActionBookingCancel,
			fmt.Sprintf("booking=%d owned by user=%d", bookingID, b.UserID),
			model.AuditFailure, actor.IP)
		return repository.ErrForbidden
	}

	exceeded, err := s.window.Exceeded(ctx, actor.UserID,
		model.ActionBookingCancel, model.AuditSuccess,
		s.policy.CancelBurstWindow, s.policy.CancelBurstLimit)
	if err != nil {
		return err
	}
	if exceeded {
		s.audit.Record(ctx, &actor.UserID, model.ActionBookingCancel,
			fmt.Sprintf("cancellation burst: booking=%d", bookingID),
			model.AuditWarning, actor.IP)
		return ErrBurstDetected
	}

	if err := s.bookings.Cancel(ctx, bookingID); err != nil {
		if !errors.Is(err, repository.ErrBookingNotFound) {
			s.audit.Record(ctx, &actor.UserID, model.ActionBookingCancel,
				fmt.Sprintf("booking=%d: %v", bookingID, err),
				model.AuditFailure, actor.IP)
		}
		return err
	}

	s.audit.Record(ctx, &actor.UserID, model.ActionBookingCancel,
		fmt.Sprintf("booking=%d class=%d day=%s", bookingID, b.ClassID, b.Day),
		model.AuditSuccess, actor.IP)
	return nil
}

// RemainingSeats reports free capacity for the (class, day) slot.
func (s *BookingService) RemainingSeats(ctx context.Context, classID uint64, day model.Weekday) (uint32, error) {
	return s.bookings.RemainingSeats(ctx, classID, day)
}
