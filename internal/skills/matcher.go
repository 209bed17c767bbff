package skills

// #region imports
import (
	"strings"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region matcher

// Matcher decides whether an OCR'd skill title refers to a target skill. The
// catalog supplies per-skill disambiguation tokens: required substrings that
// must appear and forbidden ones that must not, which is what separates
// "Straightaway Adept" from "Non-Standard Distance Straightaway Adept".
type Matcher struct {
	catalog *catalog.SkillCatalog
}

// NewMatcher wraps the skill catalog; nil degrades to pure fuzzy matching.
func NewMatcher(cat *catalog.SkillCatalog) *Matcher {
	return &Matcher{catalog: cat}
}

// MatchReason explains a verdict for the diagnostic log.
type MatchReason string

const (
	reasonExact        MatchReason = "exact"
	reasonFuzzy        MatchReason = "fuzzy"
	reasonTokenGate    MatchReason = "token_gate"
	reasonForbidToken  MatchReason = "forbid_token"
	reasonMissingToken MatchReason = "missing_token"
	reasonBelowCutoff  MatchReason = "below_cutoff"
)

// Evaluate scores an OCR'd title against a target skill name.
func (m *Matcher) Evaluate(ocrTitle, target string, threshold float64) (bool, MatchReason, float64) {
	normTitle := perception.NormalizeText(perception.FixConfusions(ocrTitle))
	normTarget := perception.NormalizeText(target)
	if normTitle == "" || normTarget == "" {
		return false, reasonBelowCutoff, 0
	}

	if m.catalog != nil {
		if meta, ok := m.catalog.Lookup(target); ok {
			return m.evaluateWithTokens(normTitle, normTarget, meta, threshold)
		}
	}

	if normTitle == normTarget {
		return true, reasonExact, 1.0
	}
	score := perception.FuzzyRatio(normTitle, normTarget)
	if score >= threshold {
		return true, reasonFuzzy, score
	}
	return false, reasonBelowCutoff, score
}

func (m *Matcher) evaluateWithTokens(normTitle, normTarget string, meta catalog.SkillMeta, threshold float64) (bool, MatchReason, float64) {
	for _, forbid := range meta.ForbidTokens {
		if strings.Contains(normTitle, perception.NormalizeText(forbid)) {
			return false, reasonForbidToken, 0
		}
	}
	for _, req := range meta.RequireTokens {
		if !strings.Contains(normTitle, perception.NormalizeText(req)) {
			return false, reasonMissingToken, 0
		}
	}
	score := perception.FuzzyRatio(normTitle, normTarget)
	if len(meta.RequireTokens) > 0 {
		// Token gates passed; the fuzzy score only needs to be plausible.
		if score >= threshold-0.15 {
			return true, reasonTokenGate, score
		}
		return false, reasonBelowCutoff, score
	}
	if score >= threshold {
		return true, reasonFuzzy, score
	}
	return false, reasonBelowCutoff, score
}

// #endregion matcher
