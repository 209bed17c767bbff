package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
)

func TestMatcherFuzzyWithoutCatalog(t *testing.T) {
	m := NewMatcher(nil)

	ok, reason, score := m.Evaluate("Concentration", "Concentration", 0.75)
	assert.True(t, ok)
	assert.Equal(t, reasonExact, reason)
	assert.Equal(t, 1.0, score)

	ok, _, score = m.Evaluate("Concentratlon", "Concentration", 0.75)
	assert.True(t, ok)
	assert.Greater(t, score, 0.85)

	ok, _, _ = m.Evaluate("Groundwork", "Concentration", 0.75)
	assert.False(t, ok)
}

func TestMatcherTokenGates(t *testing.T) {
	cat := catalog.NewSkillCatalogForTest(map[string]catalog.SkillMeta{
		"Non-Standard Distance": {
			Name:          "Non-Standard Distance",
			RequireTokens: []string{"non", "standard", "distance"},
		},
		"Standard Distance": {
			Name:          "Standard Distance",
			RequireTokens: []string{"standard", "distance"},
			ForbidTokens:  []string{"non standard"},
		},
	})
	m := NewMatcher(cat)

	// The forbid token keeps the non-standard title off the standard skill.
	ok, reason, _ := m.Evaluate("Non-Standard Distance ○", "Standard Distance", 0.75)
	assert.False(t, ok)
	assert.Equal(t, reasonForbidToken, reason)

	ok, _, _ = m.Evaluate("Non-Standard Distance ○", "Non-Standard Distance", 0.75)
	assert.True(t, ok)

	// Missing required token rejects.
	ok, reason, _ = m.Evaluate("Standard Pace", "Standard Distance", 0.75)
	assert.False(t, ok)
	assert.Equal(t, reasonMissingToken, reason)
}
