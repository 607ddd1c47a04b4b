package schedule

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/polyclinic-api/internal/model"
)

type fakeLookup struct {
	booked map[string]bool
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{booked: make(map[string]bool)}
}

func (f *fakeLookup) book(serviceID uuid.UUID, date model.Date, start model.ClockTime) {
	f.booked[serviceID.String()+date.String()+start.String()] = true
}

func (f *fakeLookup) free(serviceID uuid.UUID, date model.Date, start model.ClockTime) {
	delete(f.booked, serviceID.String()+date.String()+start.String())
}

func (f *fakeLookup) SlotBooked(_ context.Context, serviceID uuid.UUID, date model.Date, start model.ClockTime) (bool, error) {
	return f.booked[serviceID.String()+date.String()+start.String()], nil
}

func TestChecker_IsAvailable(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	checker := NewChecker(lookup)

	serviceID := uuid.New()
	date := model.NewDate(2026, 3, 12)
	start := mustClock(t, "09:00")

	available, err := checker.IsAvailable(ctx, serviceID, date, start)
	require.NoError(t, err)
	assert.True(t, available)

	lookup.book(serviceID, date, start)
	available, err = checker.IsAvailable(ctx, serviceID, date, start)
	require.NoError(t, err)
	assert.False(t, available)

	// Cancellation frees the slot again.
	lookup.free(serviceID, date, start)
	available, err = checker.IsAvailable(ctx, serviceID, date, start)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestChecker_ListSlots(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	checker := NewChecker(lookup)

	serviceID := uuid.New()
	date := model.NewDate(2026, 3, 12)
	lookup.book(serviceID, date, mustClock(t, "09:30"))

	statuses, err := checker.ListSlots(ctx, serviceID, date, mustClock(t, "09:00"), mustClock(t, "11:00"), 30)
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	assert.True(t, statuses[0].Available)
	assert.False(t, statuses[1].Available)
	assert.True(t, statuses[2].Available)
	assert.True(t, statuses[3].Available)
}

func TestChecker_ListSlots_EmptyWindow(t *testing.T) {
	checker := NewChecker(newFakeLookup())

	statuses, err := checker.ListSlots(context.Background(), uuid.New(), model.NewDate(2026, 3, 12),
		mustClock(t, "18:00"), mustClock(t, "08:00"), 30)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}
