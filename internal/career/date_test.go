package career

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCareerDate(t *testing.T) {
	d := Parse("Classic Year Early Jun")
	require.NotNil(t, d)
	assert.Equal(t, YearClassic, d.YearCode)
	assert.Equal(t, 6, d.Month)
	assert.Equal(t, 1, d.Half)
	assert.Equal(t, "Y2-06-1", d.Key())

	d = Parse("Senior Year Late Dec")
	require.NotNil(t, d)
	assert.Equal(t, "Y3-12-2", d.Key())

	d = Parse("Pre-Debut")
	require.NotNil(t, d)
	assert.True(t, d.IsPreDebut())

	d = Parse("Final Season")
	require.NotNil(t, d)
	assert.True(t, d.IsFinals())
	assert.Equal(t, "Y4", d.Key())

	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("garbage text"))
}

func TestDateOrdering(t *testing.T) {
	early := Date{YearCode: YearJunior, Month: 7, Half: 1}
	late := Date{YearCode: YearJunior, Month: 7, Half: 2}
	classic := Date{YearCode: YearClassic, Month: 1, Half: 1}
	finals := Date{YearCode: YearFinals}

	assert.Equal(t, -1, Cmp(early, late))
	assert.Equal(t, 1, Cmp(classic, late))
	assert.Equal(t, 0, Cmp(early, early))
	assert.Equal(t, 1, Cmp(finals, classic))
}

func TestDateNext(t *testing.T) {
	d := Date{YearCode: YearJunior, Month: 12, Half: 2}
	next, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, "Y2-01-1", next.Key())

	d = Date{YearCode: YearSenior, Month: 12, Half: 2}
	next, ok = d.Next()
	require.True(t, ok)
	assert.True(t, next.IsFinals())

	_, ok = Date{YearCode: YearFinals}.Next()
	assert.False(t, ok)
}

func TestSummerWindows(t *testing.T) {
	assert.True(t, Date{YearCode: YearClassic, Month: 7, Half: 1}.IsSummer())
	assert.False(t, Date{YearCode: YearClassic, Month: 6, Half: 1}.IsSummer())

	// Early June is within two halves of July.
	assert.True(t, Date{YearCode: YearClassic, Month: 6, Half: 1}.SummerInTwoOrLessTurns())
	assert.False(t, Date{YearCode: YearClassic, Month: 5, Half: 1}.SummerInTwoOrLessTurns())
}

func TestMergeKeepsKnownHalf(t *testing.T) {
	prev := Date{YearCode: YearClassic, Month: 6, Half: 2}
	cand := Date{YearCode: YearClassic, Month: 6}
	merged := Merge(&prev, cand)
	assert.Equal(t, 2, merged.Half)
}
