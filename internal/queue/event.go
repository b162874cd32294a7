// Package queue defines message payloads exchanged over the message
// broker plus the publisher and consumer that move them.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// confirmed. It carries enough information for downstream consumers
// to render a notification without querying the primary database.
type BookingConfirmedEvent struct {
	EventID     string `json:"event_id"`
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	ClassID     uint64 `json:"class_id"`
	ClassName   string `json:"class_name"`
	Day         string `json:"day"`
	BookedAt    string `json:"booked_at"`
	PublishedAt string `json:"published_at"`
}
