package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBookingNotFound is returned when a booking ID does not exist.
var ErrBookingNotFound = errors.New("booking: not found")

// ErrSlotTaken is returned when the requested slot is already booked.
var ErrSlotTaken = errors.New("booking: slot already taken")

var defaultSlots = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

// Booking is a confirmed appointment.
type Booking struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	ServiceID string    `json:"service_id"`
	Slot      string    `json:"slot"`
	CreatedAt time.Time `json:"created_at"`
}

// InMemoryBackend is a stub booking backend for development and tests.
// Production deployments swap in a scheduler integration behind the same
// interface.
type InMemoryBackend struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	taken    map[string]bool // tenantID|serviceID|slot
}

// NewInMemoryBackend creates an empty in-memory booking backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		bookings: make(map[string]*Booking),
		taken:    make(map[string]bool),
	}
}

// CheckAvailability returns open slots for the service on the given date.
func (b *InMemoryBackend) CheckAvailability(ctx context.Context, tenantID, serviceID, date string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var open []string
	for _, hour := range defaultSlots {
		slot := date + " " + hour
		if !b.taken[slotKey(tenantID, serviceID, slot)] {
			open = append(open, slot)
		}
	}
	return open, nil
}

// CreateBooking reserves a slot and returns the booking ID.
func (b *InMemoryBackend) CreateBooking(ctx context.Context, tenantID, userID, serviceID, slot string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := slotKey(tenantID, serviceID, slot)
	if b.taken[key] {
		return "", ErrSlotTaken
	}

	booking := &Booking{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		ServiceID: serviceID,
		Slot:      slot,
		CreatedAt: time.Now().UTC(),
	}
	b.bookings[booking.ID] = booking
	b.taken[key] = true

	return booking.ID, nil
}

// CancelBooking frees the slot held by the booking.
func (b *InMemoryBackend) CancelBooking(ctx context.Context, tenantID, bookingID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	booking, ok := b.bookings[bookingID]
	if !ok || booking.TenantID != tenantID {
		return ErrBookingNotFound
	}

	delete(b.taken, slotKey(booking.TenantID, booking.ServiceID, booking.Slot))
	delete(b.bookings, bookingID)
	return nil
}

func slotKey(tenantID, serviceID, slot string) string {
	return fmt.Sprintf("%s|%s|%s", tenantID, serviceID, slot)
}
