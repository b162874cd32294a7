package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

const bookingQueueName = "booking.confirmed"

// Publisher delivers booking confirmations through RabbitMQ. It
// implements service.Notifier. Errors are logged and returned so the
// caller can treat delivery as best-effort without interrupting the
// request flow.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher that dials the given AMQP URL per
// publish. Connections are short-lived on purpose: confirmation
// volume is low and a cached channel would need its own reconnect
// handling.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// NotifyBookingConfirmed publishes a BookingConfirmedEvent to the
// booking.confirmed queue. Messages are marked persistent so they
// survive broker restarts.
func (p *Publisher) NotifyBookingConfirmed(ctx context.Context, n service.BookingNotification) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	ev := BookingConfirmedEvent{
		EventID:     uuid.NewString(),
		BookingID:   n.BookingID,
		UserID:      n.UserID,
		ClassID:     n.ClassID,
		ClassName:   n.ClassName,
		Day:         n.Day,
		BookedAt:    n.BookedAt.UTC().Format(time.RFC3339),
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", bookingQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
