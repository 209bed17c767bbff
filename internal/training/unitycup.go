package training

// #region imports
import (
	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
)

// #endregion

// #region unity-cup

// evaluateUnityCup applies the Unity Cup rule set on top of the base card
// scoring: spirit weights from the preset's advanced block, seasonal
// multipliers, the burst deadline boost, and the burst allow-list filter.
func (e *Evaluator) evaluateUnityCup(t Tile, date *career.Date, stats career.StatVector) SV {
	sv, hadHint := e.scoreCards(t, stats)

	adv := e.advanced()
	scores := adv.Scores

	spirit := 0.0
	if t.WhiteSpirits > 0 {
		v := float64(t.WhiteSpirits) * scores.WhiteSpiritFill
		spirit += v
		sv.note("White spirits ×%d: +%.2f", t.WhiteSpirits, v)
	}
	if t.WhiteExploded > 0 {
		v := float64(t.WhiteExploded) * scores.WhiteSpiritExploded
		spirit += v
		sv.note("White exploded ×%d: +%.2f", t.WhiteExploded, v)
	}
	if t.WhiteSpirits >= 2 {
		v := scores.WhiteComboBase + scores.WhiteComboPerFill*float64(t.WhiteSpirits-2)
		spirit += v
		sv.note("White combo (%d fills): +%.2f", t.WhiteSpirits, v)
	}
	if t.BlueSpirit != "" {
		spirit += scores.BlueSpirit
		sv.note("Blue spirit on %s: +%.2f", t.BlueSpirit, scores.BlueSpirit)
		if t.WhiteSpirits > 0 {
			spirit += scores.BlueCombo
			sv.note("Blue combo: +%.2f", scores.BlueCombo)
		}
	}

	// Seasonal multiplier applies to the spirit contribution only.
	season := e.seasonMultiplier(adv, date)
	if season != 1.0 && spirit != 0 {
		sv.note("Season multiplier ×%.2f", season)
	}
	spirit *= season

	// Deadline boost near the late-Senior milestone; stronger in the final
	// two turns before it.
	boost := e.deadlineBoost(adv, date)
	if boost != 1.0 && spirit != 0 {
		sv.note("Deadline boost ×%.2f", boost)
		spirit *= boost
	}

	if spirit != 0 {
		sv.add("spirit", spirit)
	}

	sv.BlueStat = t.BlueSpirit
	sv.BurstOK, sv.BurstBlock = e.burstAllowed(adv, t, stats)
	if t.BlueSpirit != "" && !sv.BurstOK {
		sv.note("Burst filtered (%s): %s", sv.BurstBlock, t.BlueSpirit)
	}

	// Gate on the final total; spirit can move the risk band.
	e.applyRiskGate(&sv, hadHint)
	sv.GreedyHit = sv.Total >= greedyThresholdUnityCup && sv.AllowedByRisk
	return sv
}

func (e *Evaluator) advanced() *config.UnityCupAdvanced {
	if e.Preset != nil && e.Preset.UnityCupAdvanced != nil {
		return e.Preset.UnityCupAdvanced
	}
	return config.DefaultUnityCupAdvanced()
}

func (e *Evaluator) seasonMultiplier(adv *config.UnityCupAdvanced, date *career.Date) float64 {
	if date == nil {
		return 1.0
	}
	switch date.YearCode {
	case career.YearJunior, career.YearClassic:
		if adv.Multipliers.JuniorClassic > 0 {
			return adv.Multipliers.JuniorClassic
		}
	case career.YearSenior, career.YearFinals:
		if adv.Multipliers.Senior > 0 {
			return adv.Multipliers.Senior
		}
	}
	return 1.0
}

// deadlineBoost scales spirit value inside the configured window before the
// late-Senior milestone (Y3-12-2).
func (e *Evaluator) deadlineBoost(adv *config.UnityCupAdvanced, date *career.Date) float64 {
	if date == nil || !date.Complete() || date.IsFinals() || date.IsPreDebut() {
		return 1.0
	}
	milestone := career.Date{YearCode: career.YearSenior, Month: 12, Half: 2}
	remaining := milestone.Index() - date.Index()
	if remaining < 0 {
		return 1.0
	}
	if remaining < 2 && adv.BurstDeadline.FinalTwoBoost > 0 {
		return adv.BurstDeadline.FinalTwoBoost
	}
	if adv.BurstDeadline.WindowTurns > 0 && remaining < adv.BurstDeadline.WindowTurns && adv.BurstDeadline.Boost > 0 {
		return adv.BurstDeadline.Boost
	}
	return 1.0
}

// burstAllowed enforces the burst allow-list and the target cap: a blue
// spirit may only burst on a stat in burstAllowedStats that is still under
// its cap. The returned reason distinguishes the two filters because only the
// allow-list one is waivable downstream.
func (e *Evaluator) burstAllowed(adv *config.UnityCupAdvanced, t Tile, stats career.StatVector) (bool, BurstBlock) {
	if t.BlueSpirit == "" {
		return false, BurstBlockNone
	}
	if e.Preset != nil {
		target := e.Preset.TargetFor(t.BlueSpirit)
		if target > 0 {
			if cur, ok := stats[t.BlueSpirit]; ok && cur >= target {
				return false, BurstBlockAtCap
			}
		}
	}
	for _, s := range adv.BurstAllowedStats {
		if career.StatKey(s) == t.BlueSpirit {
			return true, BurstBlockNone
		}
	}
	return false, BurstBlockNotAllowed
}

// PickBurst selects the burst tile: the best allowed candidate, or — when
// every candidate is allow-list-filtered — the sole remaining blue-spirit
// tile. A tile at or above its target cap never bursts, sole candidate or
// not.
func PickBurst(rows []SV) *SV {
	var fallback []*SV
	for i := range rows {
		r := &rows[i]
		if !r.AllowedByRisk {
			continue
		}
		if r.BurstOK {
			return r
		}
		if r.BlueStat != "" && r.BurstBlock == BurstBlockNotAllowed {
			fallback = append(fallback, r)
		}
	}
	if len(fallback) == 1 {
		return fallback[0]
	}
	return nil
}

// #endregion unity-cup
