package schedule

import "github.com/jwalitptl/polyclinic-api/internal/model"

// DefaultSlotMinutes is the registry-wide slot duration.
const DefaultSlotMinutes = 30

// GenerateSlots turns a service's operating hours into the ordered sequence
// of candidate slots for one day. Starting at open, each slot spans exactly
// durationMinutes; a trailing partial slot that would cross close is dropped,
// not truncated. Degenerate input (non-positive duration, open >= close)
// yields an empty sequence, which callers must read as "no slots available".
func GenerateSlots(open, close model.ClockTime, durationMinutes int) []model.Slot {
	if durationMinutes <= 0 || open >= close {
		return nil
	}

	var slots []model.Slot
	for cur := open; cur.Add(durationMinutes) <= close; cur = cur.Add(durationMinutes) {
		slots = append(slots, model.Slot{Start: cur, End: cur.Add(durationMinutes)})
	}
	return slots
}
