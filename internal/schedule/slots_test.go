package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/polyclinic-api/internal/model"
)

func mustClock(t *testing.T, s string) model.ClockTime {
	t.Helper()
	c, err := model.ParseClock(s)
	require.NoError(t, err)
	return c
}

func TestGenerateSlots_CoversWindowWithoutGaps(t *testing.T) {
	open := mustClock(t, "09:00")
	close := mustClock(t, "16:00")

	slots := GenerateSlots(open, close, 30)
	require.Len(t, slots, 14)

	assert.Equal(t, open, slots[0].Start)
	assert.Equal(t, close, slots[len(slots)-1].End)
	for i, slot := range slots {
		assert.Equal(t, 30, int(slot.End-slot.Start), "slot %d duration", i)
		if i > 0 {
			assert.Equal(t, slots[i-1].End, slot.Start, "gap before slot %d", i)
		}
	}
}

func TestGenerateSlots_DropsTrailingPartialSlot(t *testing.T) {
	slots := GenerateSlots(mustClock(t, "08:00"), mustClock(t, "09:15"), 30)

	require.Len(t, slots, 2)
	assert.Equal(t, "08:00", slots[0].Start.String())
	assert.Equal(t, "08:30", slots[0].End.String())
	assert.Equal(t, "08:30", slots[1].Start.String())
	assert.Equal(t, "09:00", slots[1].End.String())
}

func TestGenerateSlots_DegenerateInput(t *testing.T) {
	tests := []struct {
		name     string
		open     string
		close    string
		duration int
	}{
		{"zero duration", "08:00", "18:00", 0},
		{"negative duration", "08:00", "18:00", -15},
		{"open equals close", "08:00", "08:00", 30},
		{"open after close", "18:00", "08:00", 30},
		{"window shorter than slot", "08:00", "08:20", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := GenerateSlots(mustClock(t, tt.open), mustClock(t, tt.close), tt.duration)
			assert.Empty(t, slots)
		})
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	open := mustClock(t, "07:00")
	close := mustClock(t, "19:00")

	first := GenerateSlots(open, close, 30)
	second := GenerateSlots(open, close, 30)

	assert.Equal(t, first, second)
	assert.Len(t, first, 24)
}
