package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "corner recovery", NormalizeText("  Corner-Recovery ○ "))
	assert.Equal(t, "swinging maestro", NormalizeText("Swinging Maestro ◎"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestFuzzyRatio(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyRatio("Concentration", "concentration"))
	assert.Greater(t, FuzzyRatio("Concentratlon", "Concentration"), 0.85)
	assert.Less(t, FuzzyRatio("Groundwork", "Concentration"), 0.5)
}

func TestFuzzyContains(t *testing.T) {
	assert.True(t, FuzzyContains("Goal: Progress in the G1 race", "progress", 0.58))
	assert.True(t, FuzzyContains("TAKARAZUKA KINEN TURF 2200", "takarazuka kinen", 0.8))
	assert.False(t, FuzzyContains("Arima Kinen", "takarazuka", 0.8))
}

func TestFuzzyBestMatch(t *testing.T) {
	best, score := FuzzyBestMatch("riko kashimot0", []string{"riko kashimoto", "tazuna hayakawa"})
	assert.Equal(t, "riko kashimoto", best)
	assert.Greater(t, score, 0.8)
}

func TestSignatureNearlySame(t *testing.T) {
	a := []Detection{
		{Class: "skills_square", Box: boxAt(10, 10)},
		{Class: "skills_buy", Box: boxAt(80, 12)},
	}
	// Same view with ~4px jitter.
	b := []Detection{
		{Class: "skills_square", Box: boxAt(13, 12)},
		{Class: "skills_buy", Box: boxAt(84, 14)},
	}
	// Scrolled view: same classes, far positions.
	c := []Detection{
		{Class: "skills_square", Box: boxAt(10, 200)},
		{Class: "skills_buy", Box: boxAt(80, 204)},
	}

	assert.True(t, NearlySame(Signature(a), Signature(b)))
	assert.False(t, NearlySame(Signature(a), Signature(c)))
	assert.False(t, NearlySame(Signature(a), Signature(a[:1])))
}

func TestDedupOverlaps(t *testing.T) {
	stars := []Detection{
		{Class: "race_star", Conf: 0.9, Box: boxAt(10, 10)},
		{Class: "race_star", Conf: 0.6, Box: boxAt(11, 11)}, // duplicate of the first
		{Class: "race_star", Conf: 0.8, Box: boxAt(60, 10)},
	}
	kept := DedupOverlaps(stars)
	assert.Len(t, kept, 2)
}

func boxAt(x, y float64) controller.Box {
	return controller.Box{X1: x, Y1: y, X2: x + 16, Y2: y + 16}
}
