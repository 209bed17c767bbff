package training

// #region imports
import (
	"sort"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
)

// #endregion

// #region knobs

const (
	greedyThreshold         = 2.5
	greedyThresholdUnityCup = 3.5
)

// directorScoreByColor is the director cameo value by gauge color.
var directorScoreByColor = map[string]float64{
	BarBlue:   0.25,
	BarGreen:  0.15,
	BarOrange: 0.10,
	BarYellow: 0.00,
}

// #endregion knobs

// #region evaluator

// Evaluator computes per-tile support values. The scenario key selects the
// rule set; the preset supplies weights, caps, and the risk budget. Owned is
// the skill-memory hook that zeroes hints whose source card's skills are
// already bought; CardMultiplier applies per-card hint multipliers from the
// preset.
type Evaluator struct {
	Scenario string
	Preset   *config.Preset

	Owned          func(cardName string) bool
	CardMultiplier func(cardName string) (float64, bool)
}

// Evaluate scores every tile and returns the rows ordered best first.
func (e *Evaluator) Evaluate(tiles []Tile, date *career.Date, stats career.StatVector) []SV {
	out := make([]SV, 0, len(tiles))
	for _, t := range tiles {
		if e.Scenario == "unity_cup" {
			out = append(out, e.evaluateUnityCup(t, date, stats))
		} else {
			out = append(out, e.evaluateURA(t, stats))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// Best returns the highest-SV row that survives the risk gate, or nil.
func Best(rows []SV) *SV {
	for i := range rows {
		if rows[i].AllowedByRisk {
			return &rows[i]
		}
	}
	return nil
}

// #endregion evaluator

// #region ura

// evaluateURA applies the URA scoring rules:
//   - each blue/green gauge support: +1
//   - rainbow support: +1 each, +0.5 combo when ≥2 on the tile
//   - hint bonus tile-capped: best candidate among blue/green (base 0.75)
//     and orange/max (base 0.5), tripled when the preset prioritizes hints,
//     zeroed when the source card's required skills are already owned
//   - cameo rows: reporter +0.1, director by gauge color, PAL-style rows
//     (tazuna, kashimoto-with-type) 1.5 on blue else 0.15
func (e *Evaluator) evaluateURA(t Tile, stats career.StatVector) SV {
	sv, hadHint := e.scoreCards(t, stats)
	e.applyRiskGate(&sv, hadHint)
	sv.GreedyHit = sv.Total >= greedyThreshold && sv.AllowedByRisk
	sv.BurstOK = false
	return sv
}

// scoreCards is the card-scoring core shared by both scenarios; the caller
// applies the risk gate once the scenario extras are in.
func (e *Evaluator) scoreCards(t Tile, stats career.StatVector) (SV, bool) {
	sv := SV{TileIndex: t.Index, Stat: t.Stat, FailurePct: t.FailurePct}

	rainbowCount := 0
	bestHint := 0.0
	bestHintLabel := ""

	for _, s := range t.Supports {
		switch s.Class {
		case SupportReporter:
			sv.add("special_reporter", 0.1)
			sv.note("Reporter: +0.10")
			continue
		case SupportDirector:
			score := directorScoreByColor[normColor(s)]
			if score > 0 {
				sv.add("special_director", score)
			}
			sv.note("Director (%s): +%.2f", normColor(s), score)
			continue
		case SupportTazuna:
			score := palScore(s)
			sv.add("special_tazuna", score)
			sv.note("Tazuna (%s): +%.2f", normColor(s), score)
			continue
		case SupportKashimoto:
			if s.Type != "" {
				score := palScore(s)
				sv.add("special_kashimoto_pal", score)
				sv.note("Kashimoto as PAL (%s): +%.2f", normColor(s), score)
			} else {
				score := directorScoreByColor[normColor(s)]
				if score > 0 {
					sv.add("special_kashimoto_director", score)
				}
				sv.note("Kashimoto as Director (%s): +%.2f", normColor(s), score)
			}
			continue
		}

		if s.HasRainbow {
			sv.add("rainbow", 1.0)
			sv.note("rainbow (%s): +1.00", label(s))
			rainbowCount++
		}

		color := normColor(s)
		switch {
		case color == BarBlue || color == BarGreen:
			sv.add("cards", 1.0)
			sv.note("%s %s: +1.00", label(s), color)
			if s.HasHint {
				if v := e.hintValue(s, 0.75); v > bestHint {
					bestHint, bestHintLabel = v, label(s)
				}
			}
		default:
			// Orange/max baseline is 0; only the hint may help.
			if s.HasHint {
				if v := e.hintValue(s, 0.5); v > bestHint {
					bestHint, bestHintLabel = v, label(s)
				}
			}
			sv.note("%s %s: +0.00", label(s), color)
		}
	}

	if bestHint > 0 {
		sv.add("hint", bestHint)
		sv.note("Hint on %s: +%.2f (tile-capped)", bestHintLabel, bestHint)
	}
	if rainbowCount >= 2 {
		sv.add("rainbow_combo", 0.5)
		sv.note("Rainbow combo +0.5")
	}

	e.applyHeadroom(&sv, stats)
	return sv, bestHint > 0
}

func palScore(s Support) float64 {
	if normColor(s) == BarBlue {
		return 1.5
	}
	return 0.15
}

func normColor(s Support) string {
	if s.IsMax && s.BarColor != BarYellow {
		return BarYellow
	}
	return s.BarColor
}

func label(s Support) string {
	if s.CardName != "" {
		return s.CardName
	}
	if s.Class != "" {
		return s.Class
	}
	return "support"
}

// hintValue resolves the tile-capped hint candidate for one support.
func (e *Evaluator) hintValue(s Support, base float64) float64 {
	if e.Owned != nil && s.CardName != "" && e.Owned(s.CardName) {
		return 0
	}
	if e.CardMultiplier != nil && s.CardName != "" {
		if mult, ok := e.CardMultiplier(s.CardName); ok {
			base *= mult
		}
	}
	if e.Preset != nil && e.Preset.PrioritizeHint {
		base *= 3.0
	}
	return base
}

// #endregion ura

// #region headroom

// applyHeadroom halves the score of a tile whose stat already reached its
// target cap; the cap is a monotonic ceiling, not a hard stop, so the tile
// stays pickable when nothing better exists.
func (e *Evaluator) applyHeadroom(sv *SV, stats career.StatVector) {
	if e.Preset == nil || sv.Stat == "" {
		return
	}
	target := e.Preset.TargetFor(sv.Stat)
	if target <= 0 {
		return
	}
	current, ok := stats[sv.Stat]
	if !ok || current < 0 || current < target {
		return
	}
	sv.Total *= 0.5
	sv.note("Headroom: %s %d ≥ target %d → ×0.50", sv.Stat, current, target)
}

// #endregion headroom

// #region risk-gate

// applyRiskGate runs the dynamic risk rule: the failure budget relaxes as SV
// grows, capped when an important-hint bonus may be overcounting.
func (e *Evaluator) applyRiskGate(sv *SV, hasHint bool) {
	base := 20
	if e.Preset != nil && e.Preset.MaxFailure > 0 {
		base = e.Preset.MaxFailure
	}
	hintImportant := hasHint && e.Preset != nil && e.Preset.PrioritizeHint

	var mult float64
	switch {
	case sv.Total >= 5:
		mult = 2.0
	case sv.Total >= 3.5 && !hintImportant:
		mult = 1.5
	case sv.Total >= 2.75 && !hintImportant:
		mult = 1.35
	case sv.Total >= 2.25:
		mult = 1.25
	default:
		mult = 1.0
	}

	limit := int(float64(base) * mult)
	if limit > 100 {
		limit = 100
	}
	sv.RiskLimitPct = limit
	sv.AllowedByRisk = sv.FailurePct <= limit
	sv.note("Dynamic risk: SV=%.2f → base %d%% × %.2f = %d%%", sv.Total, base, mult, limit)
}

// #endregion risk-gate
