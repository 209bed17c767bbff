package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/training"
)

func testPreset() *config.Preset {
	return &config.Preset{
		ID:                 "test",
		WeakTurnSV:         1.0,
		RacePrecheckSV:     2.5,
		GoalRaceForceTurns: 5,
		MaxFailure:         20,
		UnityCupAdvanced:   config.DefaultUnityCupAdvanced(),
	}
}

func TestRegistryReturnsSamePolicyObject(t *testing.T) {
	r := NewRegistry()
	ura := NewURAPolicy(testPreset(), nil)
	r.Register(ura)
	r.Register(NewUnityCupPolicy(testPreset(), nil))

	p1, err := r.Get("ura")
	require.NoError(t, err)
	p2, err := r.Get("ura")
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Same(t, ura, p1)

	_, err = r.Get("nope")
	assert.Error(t, err)
}

func TestChooseTrainingPicksTopAllowedTile(t *testing.T) {
	p := NewURAPolicy(testPreset(), nil)
	st := NewState()
	st.Energy = 80
	st.AutoRestMinimum = 20

	rows := []training.SV{
		{TileIndex: 2, Total: 3.0, AllowedByRisk: true},
		{TileIndex: 0, Total: 2.2, AllowedByRisk: true},
	}
	action := p.ChooseTrainingAction(rows, st, testPreset(), false)
	assert.Equal(t, ActionTrain, action.Kind)
	assert.Equal(t, 2, action.TileIndex)
}

func TestChooseTrainingSkipsRiskDisallowed(t *testing.T) {
	p := NewURAPolicy(testPreset(), nil)
	st := NewState()
	st.Energy = 80
	st.AutoRestMinimum = 20

	rows := []training.SV{
		{TileIndex: 0, Total: 4.0, AllowedByRisk: false},
		{TileIndex: 3, Total: 1.8, AllowedByRisk: true},
	}
	action := p.ChooseTrainingAction(rows, st, testPreset(), false)
	assert.Equal(t, ActionTrain, action.Kind)
	assert.Equal(t, 3, action.TileIndex)
}

func TestChooseTrainingWeakTurnRaces(t *testing.T) {
	preset := testPreset()
	preset.RaceIfNoGoodValue = true
	p := NewURAPolicy(preset, nil)

	st := NewState()
	st.Energy = 80
	st.AutoRestMinimum = 20
	st.Dates.Observe(&career.Date{YearCode: career.YearClassic, Month: 4, Half: 1}, 10)

	rows := []training.SV{{TileIndex: 0, Total: 0.4, AllowedByRisk: true}}
	action := p.ChooseTrainingAction(rows, st, preset, false)
	assert.Equal(t, ActionRace, action.Kind)
}

func TestChooseTrainingWeakTurnLowEnergyRests(t *testing.T) {
	p := NewURAPolicy(testPreset(), nil)
	st := NewState()
	st.Energy = 25
	st.AutoRestMinimum = 20

	rows := []training.SV{{TileIndex: 0, Total: 0.4, AllowedByRisk: true}}
	action := p.ChooseTrainingAction(rows, st, testPreset(), false)
	assert.Equal(t, ActionRest, action.Kind)
}

func TestChooseTrainingPalSubstitutesRest(t *testing.T) {
	p := NewURAPolicy(testPreset(), nil)
	st := NewState()
	st.Energy = 25
	st.AutoRestMinimum = 20
	st.PalAvailable = true

	rows := []training.SV{{TileIndex: 0, Total: 0.4, AllowedByRisk: true}}
	action := p.ChooseTrainingAction(rows, st, testPreset(), true)
	assert.Equal(t, ActionRecreate, action.Kind)
	assert.True(t, action.WithPal)
}

func TestUnityCupPrefersBurstTile(t *testing.T) {
	p := NewUnityCupPolicy(testPreset(), nil)
	st := NewState()
	st.Energy = 80
	st.AutoRestMinimum = 20

	rows := []training.SV{
		{TileIndex: 0, Total: 3.2, AllowedByRisk: true},
		{TileIndex: 4, Total: 2.8, AllowedByRisk: true, BlueStat: career.StatWit, BurstOK: true},
	}
	action := p.ChooseTrainingAction(rows, st, testPreset(), false)
	assert.Equal(t, ActionTrain, action.Kind)
	assert.Equal(t, 4, action.TileIndex)
}

func TestOpponentSlotFromPreset(t *testing.T) {
	preset := testPreset()
	preset.UnityCupAdvanced.OpponentSelection = map[string]int{
		"race2":          1,
		"defaultUnknown": 3,
	}
	p := NewUnityCupPolicy(preset, nil)

	// Classic April maps onto race slot 2.
	slot := p.OpponentSlot(&career.Date{YearCode: career.YearClassic, Month: 4, Half: 1})
	assert.Equal(t, 1, slot)

	// No stage binding: the defaultUnknown slot.
	slot = p.OpponentSlot(&career.Date{YearCode: career.YearJunior, Month: 9, Half: 1})
	assert.Equal(t, 3, slot)

	slot = p.OpponentSlot(nil)
	assert.Equal(t, 3, slot)
}

func TestThresholdLadderStages(t *testing.T) {
	assert.Equal(t, []float64{0.61}, thresholdLadder(0.61, 0.35, 0, false))
	assert.Equal(t, []float64{0.61, 0.35}, thresholdLadder(0.61, 0.35, FallbackPatienceStage1, false))
	assert.Equal(t, []float64{0.61, 0.35, 0.25}, thresholdLadder(0.61, 0.35, FallbackPatienceStage2, false))
}

func TestStateRacedTodayGuard(t *testing.T) {
	st := NewState()
	st.MarkRacedToday("Y2-06-1")
	assert.True(t, st.RacedKeys["Y2-06-1"])
	assert.True(t, st.SkipRaceOnce)

	st.RolloverDateKey("Y2-06-1", "Y2-06-2")
	assert.False(t, st.RacedKeys["Y2-06-1"])
}
