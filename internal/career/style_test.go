package career

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleScheduleResolvesLatestEntry(t *testing.T) {
	s := NewStyleSchedule(StylePace, []StyleScheduleEntry{
		{Date: Date{YearCode: 2, Month: 1, Half: 1}, Style: StyleFront},
		{Date: Date{YearCode: 3, Month: 1, Half: 1}, Style: StyleLate},
	})

	assert.Equal(t, StylePace, s.StyleFor(Date{YearCode: 1, Month: 8, Half: 1}))
	assert.Equal(t, StyleFront, s.StyleFor(Date{YearCode: 2, Month: 6, Half: 2}))
	assert.Equal(t, StyleLate, s.StyleFor(Date{YearCode: 3, Month: 4, Half: 1}))
}

func TestStyleScheduleOnlyAppliesOnChange(t *testing.T) {
	s := NewStyleSchedule(StylePace, nil)

	style, apply := s.ShouldApply(Date{YearCode: 1, Month: 8, Half: 1})
	assert.True(t, apply)
	assert.Equal(t, StylePace, style)

	s.MarkApplied(StylePace)
	_, apply = s.ShouldApply(Date{YearCode: 1, Month: 9, Half: 1})
	assert.False(t, apply)
}

func TestStyleScheduleDropsInvalidEntries(t *testing.T) {
	s := NewStyleSchedule("sideways", []StyleScheduleEntry{
		{Date: Date{YearCode: 2, Month: 1, Half: 1}, Style: "zigzag"},
	})
	assert.False(t, s.HasSchedule())
	assert.Equal(t, Style(""), s.DebutStyle())
}

func TestStatTrackerGuards(t *testing.T) {
	tr := NewStatTracker()

	// First valid observation is accepted outright.
	tr.Observe(StatVector{StatSpeed: 103, StatStamina: 200, StatPower: 180, StatGuts: 150, StatWit: 120})
	assert.Equal(t, 103, tr.Current()[StatSpeed])

	// Early misread correction within warm-up accepts a big jump.
	tr.Observe(StatVector{StatSpeed: 703})
	assert.Equal(t, 703, tr.Current()[StatSpeed])

	// Stabilize, then a big jump needs persistence.
	tr.Observe(StatVector{StatSpeed: 703})
	tr.Observe(StatVector{StatSpeed: 703})
	tr.Observe(StatVector{StatSpeed: 1100})
	assert.Equal(t, 703, tr.Current()[StatSpeed])
	tr.Observe(StatVector{StatSpeed: 1100})
	assert.Equal(t, 1100, tr.Current()[StatSpeed])
}

func TestStatTrackerImputesMissing(t *testing.T) {
	tr := NewStatTracker()
	tr.Observe(StatVector{StatSpeed: 400, StatStamina: 200})
	cur := tr.Current()
	assert.Equal(t, 300, cur[StatPower])
	assert.True(t, tr.AnyMissing())

	// A real read replaces the imputed value unconditionally.
	tr.Observe(StatVector{StatPower: 50})
	assert.Equal(t, 50, tr.Current()[StatPower])
}
