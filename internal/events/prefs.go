package events

// #region imports
import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
)

// #endregion

// #region reward-priority

// DefaultRewardPriority is the rotation order when an entity defines none.
var DefaultRewardPriority = []string{"skill_pts", "stats", "hints"}

var rewardAliases = map[string]string{
	"energy": "energy", "skill_pts": "skill_pts", "skill_points": "skill_pts",
	"hint": "hints", "hints": "hints",
	"speed": "stats", "spd": "stats", "stamina": "stats", "sta": "stats",
	"power": "stats", "pwr": "stats", "guts": "stats", "wit": "stats",
	"wisdom": "stats", "stats": "stats",
}

// NormalizeRewardPriority collapses aliases and drops unknowns; empty input
// falls back to the default order.
func NormalizeRewardPriority(raw []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range raw {
		key := strings.ToLower(strings.TrimSpace(item))
		mapped, ok := rewardAliases[key]
		if !ok || seen[mapped] {
			continue
		}
		out = append(out, mapped)
		seen[mapped] = true
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultRewardPriority...)
	}
	return out
}

// #endregion reward-priority

// #region prefs

// EntityPref is the per-entity preference block.
type EntityPref struct {
	Pick                int      // 1-based default option
	AvoidEnergyOverflow *bool    // nil → inherit
	RewardPriority      []string // empty → inherit
}

// Prefs resolves which option an entity prefers. Lookup order: explicit
// per-event#step override, the exact entity key, the entity type
// ("support"/"scenario"/"trainee"), then the global default.
type Prefs struct {
	Default   EntityPref
	ByEntity  map[string]EntityPref // "support/Kitasan Black/SPD/SSR" or just "support"
	Overrides map[string]int        // key_step → pick

	PreferredTraineeName string
}

// EntityKey renders the catalog record's entity lookup key.
func EntityKey(rec *catalog.EventRecord) string {
	return fmt.Sprintf("%s/%s/%s/%s", rec.Type, rec.Name, rec.Attribute, rec.Rarity)
}

// PickFor resolves the preferred option for a record (before overflow
// adjustment). Defaults to 1.
func (p *Prefs) PickFor(rec *catalog.EventRecord) int {
	if pick, ok := p.Overrides[rec.KeyStep]; ok && pick >= 1 {
		return pick
	}
	if pref, ok := p.entityPref(rec); ok && pref.Pick >= 1 {
		return pref.Pick
	}
	if p.Default.Pick >= 1 {
		return p.Default.Pick
	}
	return 1
}

// HasOverride reports whether an explicit override exists for the step.
func (p *Prefs) HasOverride(rec *catalog.EventRecord) bool {
	_, ok := p.Overrides[rec.KeyStep]
	return ok
}

// ShouldAvoidEnergy reports the entity's avoidEnergyOverflow flag, inheriting
// from the default (itself defaulting to true).
func (p *Prefs) ShouldAvoidEnergy(rec *catalog.EventRecord) bool {
	if pref, ok := p.entityPref(rec); ok && pref.AvoidEnergyOverflow != nil {
		return *pref.AvoidEnergyOverflow
	}
	if p.Default.AvoidEnergyOverflow != nil {
		return *p.Default.AvoidEnergyOverflow
	}
	return true
}

// RewardPriorityFor returns the entity's normalized reward priority.
func (p *Prefs) RewardPriorityFor(rec *catalog.EventRecord) []string {
	if pref, ok := p.entityPref(rec); ok && len(pref.RewardPriority) > 0 {
		return NormalizeRewardPriority(pref.RewardPriority)
	}
	return NormalizeRewardPriority(p.Default.RewardPriority)
}

func (p *Prefs) entityPref(rec *catalog.EventRecord) (EntityPref, bool) {
	if pref, ok := p.ByEntity[EntityKey(rec)]; ok {
		return pref, true
	}
	if pref, ok := p.ByEntity[rec.Type]; ok {
		return pref, true
	}
	return EntityPref{}, false
}

// #endregion prefs
