package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
)

func supportRecord() *catalog.EventRecord {
	return &catalog.EventRecord{
		Key:       "support/Kitasan Black/SPD/SSR/At Full Gallop",
		KeyStep:   "support/Kitasan Black/SPD/SSR/At Full Gallop#s1",
		Type:      "support",
		Name:      "Kitasan Black",
		Attribute: "SPD",
		Rarity:    "SSR",
		EventName: "At Full Gallop",
		Step:      1,
		Options: map[string][]catalog.EventOutcome{
			"1": {{Energy: 30}},
			"2": {{SkillPts: 25}},
			"3": {{Stats: map[string]int{"SPD": 10}}},
		},
	}
}

func TestDecideUsesEntityDefault(t *testing.T) {
	prefs := &Prefs{ByEntity: map[string]EntityPref{"support": {Pick: 2}}}
	d := NewDecider(prefs)

	dec := d.Decide(supportRecord(), 3, -1, 100)
	assert.Equal(t, 2, dec.Pick)
	assert.False(t, dec.AdjustedForCap)
}

func TestDecideExplicitOverrideWins(t *testing.T) {
	rec := supportRecord()
	prefs := &Prefs{
		ByEntity:  map[string]EntityPref{"support": {Pick: 2}},
		Overrides: map[string]int{rec.KeyStep: 3},
	}
	d := NewDecider(prefs)

	dec := d.Decide(rec, 3, -1, 100)
	assert.Equal(t, 3, dec.Pick)
}

func TestDecideEnergyOverflowRotation(t *testing.T) {
	// Preferred option 1 grants +30 energy; at 90/100 that overflows, so the
	// rotation walks the reward priority and lands on skill points.
	prefs := &Prefs{Default: EntityPref{Pick: 1, RewardPriority: []string{"skill_pts", "stats"}}}
	d := NewDecider(prefs)

	dec := d.Decide(supportRecord(), 3, 90, 100)
	assert.True(t, dec.AdjustedForCap)
	assert.Equal(t, 2, dec.Pick)
	assert.Equal(t, "skill_pts", dec.MatchedCategory)
}

func TestDecideEnergySafeKeepsPreference(t *testing.T) {
	prefs := &Prefs{Default: EntityPref{Pick: 1}}
	d := NewDecider(prefs)

	dec := d.Decide(supportRecord(), 3, 40, 100)
	assert.False(t, dec.AdjustedForCap)
	assert.Equal(t, 1, dec.Pick)
}

func TestDecideOverflowRespectDisabled(t *testing.T) {
	off := false
	prefs := &Prefs{Default: EntityPref{Pick: 1, AvoidEnergyOverflow: &off}}
	d := NewDecider(prefs)

	dec := d.Decide(supportRecord(), 3, 95, 100)
	assert.False(t, dec.AdjustedForCap)
	assert.Equal(t, 1, dec.Pick)
}

func TestDecidePalOvercapWindow(t *testing.T) {
	rec := supportRecord()
	rec.Attribute = "PAL"
	rec.Options = map[string][]catalog.EventOutcome{
		"1": {{Energy: 8}},
		"2": {{SkillPts: 10}},
	}
	prefs := &Prefs{Default: EntityPref{Pick: 1}}
	d := NewDecider(prefs)

	// 98 + 8 exceeds the cap but stays inside the PAL +10 window.
	dec := d.Decide(rec, 2, 98, 100)
	assert.False(t, dec.AdjustedForCap)
	assert.Equal(t, 1, dec.Pick)
}

func TestDecideConfirmationPhase(t *testing.T) {
	// A two-phase dialog re-presents the same step with fewer options; the
	// follow-up is accept/reconsider and accept is the first row.
	prefs := &Prefs{Default: EntityPref{Pick: 3}}
	d := NewDecider(prefs)
	rec := supportRecord()

	first := d.Decide(rec, 3, -1, 100)
	require.Equal(t, 3, first.Pick)

	second := d.Decide(rec, 2, -1, 100)
	assert.True(t, second.Confirmation)
	assert.Equal(t, 1, second.Pick)
}

func TestRetrieveBestFiltersByStepAndType(t *testing.T) {
	cat := catalogWith(t,
		&catalog.EventRecord{
			Key: "support/A/SPD/SR/Lucky Break", KeyStep: "support/A/SPD/SR/Lucky Break#s1",
			Type: "support", EventName: "Lucky Break", Step: 1,
			Options: map[string][]catalog.EventOutcome{"1": {}},
		},
		&catalog.EventRecord{
			Key: "trainee/B/None/None/Lucky Break", KeyStep: "trainee/B/None/None/Lucky Break#s2",
			Type: "trainee", EventName: "Lucky Break", Step: 2,
			Options: map[string][]catalog.EventOutcome{"1": {}},
		},
	)

	cands := RetrieveBest(cat, Query{Description: "Lucky Break", TypeHint: "support", ChainStepHint: 1}, 3, 0.5)
	require.Len(t, cands, 1)
	assert.Equal(t, "support", cands[0].Rec.Type)
}

func catalogWith(t *testing.T, records ...*catalog.EventRecord) *catalog.EventCatalog {
	t.Helper()
	return catalog.NewEventCatalog(records...)
}

func TestNormalizeRewardPriority(t *testing.T) {
	assert.Equal(t, []string{"skill_pts", "stats"}, NormalizeRewardPriority([]string{"Skill_Points", "SPD", "bogus"}))
	assert.Equal(t, DefaultRewardPriority, NormalizeRewardPriority(nil))
}
