package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanRaceTitle(t *testing.T) {
	assert.Equal(t, "takarazuka kinen turf 2200",
		cleanRaceTitle("TAKARAZUKA KINEN RIGHT TURT 2200 / INNER"))
	assert.Equal(t, "dirt 1600", cleanRaceTitle("DIRF 1600 LEFT f"))
}

func TestTitleScoreDirectMatch(t *testing.T) {
	s := titleScore("takarazuka kinen turf 2200", "takarazuka kinen turf 2200")
	assert.Equal(t, 1.0, s)
}

func TestTitleScoreVariesToken(t *testing.T) {
	// "varies" placeholders score by token coverage with a full-cover bonus.
	s := titleScore("hopeful stakes turf 2000", "hopeful stakes varies")
	assert.GreaterOrEqual(t, s, 1.0)

	s = titleScore("unrelated card text", "hopeful stakes varies")
	assert.Less(t, s, 0.5)
}

func TestOutcomeRecoverable(t *testing.T) {
	assert.True(t, NoRaceFound.Recoverable())
	assert.True(t, NoPlannedMatch.Recoverable())
	assert.True(t, ButtonsMissing.Recoverable())
	assert.True(t, ConsecutiveRaceRefused.Recoverable())
	assert.False(t, LossLoop.Recoverable())
	assert.False(t, Aborted.Recoverable())
	assert.False(t, Ok.Recoverable())
}

func TestBadgePriorityOrdering(t *testing.T) {
	assert.Greater(t, badgePriority["G1"], badgePriority["G2"])
	assert.Greater(t, badgePriority["EX"], badgePriority["G1"])
	assert.Equal(t, 0, badgePriority["UNK"])
}
