package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/polyclinic-api/internal/model"
)

// BookingLookup answers whether a confirmed appointment occupies a slot.
// The postgres appointment repository satisfies it; tests supply fakes.
type BookingLookup interface {
	SlotBooked(ctx context.Context, serviceID uuid.UUID, date model.Date, start model.ClockTime) (bool, error)
}

// Checker annotates generated slots with their booked/free state. It is
// read-only and safe for concurrent use; the result is a snapshot, never a
// lock. The booking ledger's constrained insert is the sole authority at
// write time.
type Checker struct {
	bookings BookingLookup
}

func NewChecker(bookings BookingLookup) *Checker {
	return &Checker{bookings: bookings}
}

// IsAvailable reports true iff no confirmed appointment exists for the
// (service, date, start) tuple. A cancelled appointment frees its slot.
func (c *Checker) IsAvailable(ctx context.Context, serviceID uuid.UUID, date model.Date, start model.ClockTime) (bool, error) {
	booked, err := c.bookings.SlotBooked(ctx, serviceID, date, start)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return !booked, nil
}

// ListSlots generates the day's candidate slots and annotates each one.
func (c *Checker) ListSlots(ctx context.Context, serviceID uuid.UUID, date model.Date, open, close model.ClockTime, durationMinutes int) ([]model.SlotStatus, error) {
	slots := GenerateSlots(open, close, durationMinutes)

	statuses := make([]model.SlotStatus, 0, len(slots))
	for _, slot := range slots {
		available, err := c.IsAvailable(ctx, serviceID, date, slot.Start)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, model.SlotStatus{Slot: slot, Available: available})
	}
	return statuses, nil
}
