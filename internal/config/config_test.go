package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/career"
)

const sampleConfig = `
general:
  hotkey: F2
  autoRestMinimum: 24
  scenario: unity_cup
scenarios:
  unity_cup:
    activePreset: speedrun
    presets:
      - id: speedrun
        priorityStats: [SPD, WIT, PWR]
        targetStats:
          SPD: 1200
          WIT: 600
        minimumMood: NORMAL
        juniorMinimumMood: BAD
        juniorStyle: pace
        styleSchedule:
          - {yearCode: 2, month: 1, half: 1, style: front}
        skills:
          - "Concentration"
          - "Swinging Maestro ◎"
        plannedRaces:
          Y3-06-2: {name: "Takarazuka Kinen"}
          Y2-10-2: {name: "Kikuka Sho", tentative: true}
        lobbyPrecheck: true
        tryAgainOnFailedGoal: true
        acceptConsecutiveRace: false
        unityCupAdvanced:
          burstAllowedStats: [SPD, WIT]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "unity_cup", cfg.General.Scenario)
	assert.Equal(t, 24, cfg.General.AutoRestMinimum)
	assert.Equal(t, 3, cfg.General.SkillCheckInterval)

	preset, err := cfg.ActivePreset()
	require.NoError(t, err)
	assert.Equal(t, "speedrun", preset.ID)
	assert.Equal(t, 700, preset.MinimumSkillPts)
	assert.Equal(t, 20, preset.MaxFailure)
	assert.InDelta(t, 2.5, preset.RacePrecheckSV, 0.001)
	assert.False(t, preset.AcceptConsecutiveRace)

	require.NotNil(t, preset.UnityCupAdvanced)
	assert.Equal(t, []string{"SPD", "WIT"}, preset.UnityCupAdvanced.BurstAllowedStats)

	pr, ok := preset.PlannedRaces["Y2-10-2"]
	require.True(t, ok)
	assert.True(t, pr.Tentative)
}

func TestPresetHelpers(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	preset, err := cfg.ActivePreset()
	require.NoError(t, err)

	entries := preset.StyleScheduleEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, career.StyleFront, entries[0].Style)

	junior := &career.Date{YearCode: career.YearJunior, Month: 8, Half: 1}
	senior := &career.Date{YearCode: career.YearSenior, Month: 8, Half: 1}
	assert.Equal(t, career.MoodBad, preset.MinimumMoodFor(junior))
	assert.Equal(t, career.MoodNormal, preset.MinimumMoodFor(senior))

	assert.Equal(t, 1200, preset.TargetFor(career.StatSpeed))
	assert.Equal(t, 0, preset.TargetFor(career.StatGuts))
}

func TestLoadRejectsBadPlannedRaceKey(t *testing.T) {
	bad := `
general:
  scenario: ura
scenarios:
  ura:
    presets:
      - id: p
        plannedRaces:
          "June 2": {name: "Takarazuka Kinen"}
`
	_, err := Load(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownScenario(t *testing.T) {
	bad := `
general:
  scenario: missing
scenarios:
  ura:
    presets:
      - id: p
`
	_, err := Load(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestStoreReload(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	first := store.Snapshot()
	assert.Equal(t, "unity_cup", first.General.Scenario)

	// Unchanged file: MaybeReload returns the same snapshot.
	assert.Same(t, first, store.MaybeReload())

	// Explicit reload picks up an edit.
	edited := sampleConfig + "\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	cfg, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, "unity_cup", cfg.General.Scenario)
}
