package career

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y, m, h int) *Date {
	return &Date{YearCode: y, Month: m, Half: h}
}

func TestAcceptorMonotonicSequence(t *testing.T) {
	a := NewDateAcceptor()

	assert.True(t, a.Observe(d(1, 7, 1), 20))
	assert.True(t, a.Observe(d(1, 7, 2), 19))
	assert.True(t, a.Observe(d(1, 8, 1), 18))
	assert.Equal(t, "Y1-08-1", a.Current().Key())
}

func TestAcceptorRejectsSingleBackwardGlitch(t *testing.T) {
	a := NewDateAcceptor()
	a.Observe(d(2, 6, 1), 10)
	a.Observe(d(2, 6, 2), 9)
	a.Observe(d(2, 7, 1), 8)
	// warm the committed date past the warm-up window
	a.Observe(d(2, 7, 1), 8)
	a.Observe(d(2, 7, 1), 8)

	// A big single-frame regression is held, not accepted.
	changed := a.Observe(d(1, 8, 1), 8)
	assert.False(t, changed)
	assert.Equal(t, "Y2-07-1", a.Current().Key())

	// Persisting across a second frame accepts the correction.
	changed = a.Observe(d(1, 8, 1), 8)
	assert.True(t, changed)
	assert.Equal(t, "Y1-08-1", a.Current().Key())
}

func TestAcceptorHoldsSuspiciousForwardJump(t *testing.T) {
	a := NewDateAcceptor()
	a.Observe(d(1, 7, 1), 20)
	a.Observe(d(1, 7, 1), 20)
	a.Observe(d(1, 7, 1), 20)

	// +8 halves in one hop: held until it repeats.
	assert.False(t, a.Observe(d(1, 11, 1), 20))
	assert.Equal(t, "Y1-07-1", a.Current().Key())
	assert.True(t, a.Observe(d(1, 11, 1), 20))
	assert.Equal(t, "Y1-11-1", a.Current().Key())
}

func TestAcceptorSeniorDecemberToFinals(t *testing.T) {
	a := NewDateAcceptor()
	a.Observe(d(3, 12, 2), 2)
	// The finals boundary is a legitimate large hop; accepted immediately.
	assert.True(t, a.Observe(&Date{YearCode: YearFinals}, 1))
	assert.True(t, a.Current().IsFinals())

	// After the finals lock, regular-year reads are ignored.
	assert.False(t, a.Observe(d(3, 12, 2), 1))
	assert.True(t, a.Current().IsFinals())
}

func TestAcceptorAutoAdvanceOnConsumedTurn(t *testing.T) {
	a := NewDateAcceptor()
	require.True(t, a.Observe(d(2, 3, 1), 10))

	// OCR empty but the turn counter decreased: one half is consumed.
	assert.True(t, a.Observe(nil, 9))
	assert.Equal(t, "Y2-03-2", a.Current().Key())
	assert.True(t, a.Artificial())

	// A real read then overwrites the guess unconditionally.
	assert.True(t, a.Observe(d(2, 3, 2), 9))
	assert.False(t, a.Artificial())
}

func TestAcceptorNeverRegressesToPreDebut(t *testing.T) {
	a := NewDateAcceptor()
	a.Observe(d(1, 7, 1), 20)
	assert.False(t, a.Observe(&Date{YearCode: YearPreDebut}, 20))
	assert.Equal(t, "Y1-07-1", a.Current().Key())
}
