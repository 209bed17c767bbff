package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
)

func uraEvaluator(preset *config.Preset) *Evaluator {
	if preset == nil {
		preset = &config.Preset{MaxFailure: 20}
	}
	return &Evaluator{Scenario: "ura", Preset: preset}
}

func TestEvaluateURABlueGreenCards(t *testing.T) {
	e := uraEvaluator(nil)
	tiles := []Tile{{
		Index: 0,
		Stat:  career.StatSpeed,
		Supports: []Support{
			{Class: "support_spd", Type: "SPD", BarColor: BarBlue},
			{Class: "support_pwr", Type: "PWR", BarColor: BarGreen},
			{Class: "support_sta", Type: "STA", BarColor: BarOrange},
		},
		FailurePct: 5,
	}}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	require.Len(t, rows, 1)
	assert.InDelta(t, 2.0, rows[0].Total, 0.001)
	assert.True(t, rows[0].AllowedByRisk)
}

func TestEvaluateURARainbowCombo(t *testing.T) {
	e := uraEvaluator(nil)
	tiles := []Tile{{
		Index: 0,
		Stat:  career.StatSpeed,
		Supports: []Support{
			{Class: "support_spd", Type: "SPD", BarColor: BarOrange, HasRainbow: true},
			{Class: "support_spd", Type: "SPD", BarColor: BarOrange, HasRainbow: true},
		},
	}}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	// 1 + 1 rainbow, +0.5 combo
	assert.InDelta(t, 2.5, rows[0].Total, 0.001)
}

func TestEvaluateURAHintTileCapped(t *testing.T) {
	e := uraEvaluator(nil)
	tiles := []Tile{{
		Index: 0,
		Stat:  career.StatWit,
		Supports: []Support{
			{Class: "support_wit", Type: "WIT", BarColor: BarBlue, HasHint: true},
			{Class: "support_wit", Type: "WIT", BarColor: BarGreen, HasHint: true},
		},
	}}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	// 2 cards + a single capped hint bonus (0.75), not two.
	assert.InDelta(t, 2.75, rows[0].Total, 0.001)
}

func TestEvaluateURAHintZeroedWhenOwned(t *testing.T) {
	e := uraEvaluator(nil)
	e.Owned = func(card string) bool { return card == "Kitasan Black" }
	tiles := []Tile{{
		Index: 0,
		Stat:  career.StatSpeed,
		Supports: []Support{
			{Class: "support_spd", Type: "SPD", BarColor: BarBlue, HasHint: true, CardName: "Kitasan Black"},
		},
	}}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	assert.InDelta(t, 1.0, rows[0].Total, 0.001)
}

func TestRiskGateDisqualifiesHighFailure(t *testing.T) {
	e := uraEvaluator(&config.Preset{MaxFailure: 20})
	tiles := []Tile{{
		Index:      0,
		Stat:       career.StatGuts,
		Supports:   []Support{{Class: "support_guts", Type: "GUTS", BarColor: BarBlue}},
		FailurePct: 45,
	}}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	assert.False(t, rows[0].AllowedByRisk)
	assert.Nil(t, Best(rows))
}

func TestRiskGateRelaxesWithHighSV(t *testing.T) {
	e := uraEvaluator(&config.Preset{MaxFailure: 20})
	supports := []Support{
		{Class: "support_spd", Type: "SPD", BarColor: BarBlue, HasRainbow: true},
		{Class: "support_spd", Type: "SPD", BarColor: BarBlue, HasRainbow: true},
		{Class: "support_pwr", Type: "PWR", BarColor: BarGreen},
		{Class: "support_wit", Type: "WIT", BarColor: BarGreen},
	}
	tiles := []Tile{{Index: 0, Stat: career.StatSpeed, Supports: supports, FailurePct: 28}}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	// SV 6.5 → ×2.0 relax → 40% budget; 28% passes.
	assert.True(t, rows[0].AllowedByRisk)
	assert.True(t, rows[0].GreedyHit)
}

func TestHeadroomPenalty(t *testing.T) {
	preset := &config.Preset{MaxFailure: 20, TargetStats: map[string]int{"SPD": 600}}
	e := uraEvaluator(preset)
	tiles := []Tile{{
		Index:    0,
		Stat:     career.StatSpeed,
		Supports: []Support{{Class: "support_spd", Type: "SPD", BarColor: BarBlue}},
	}}
	stats := career.NewStatVector()
	stats[career.StatSpeed] = 650
	rows := e.Evaluate(tiles, nil, stats)
	assert.InDelta(t, 0.5, rows[0].Total, 0.001)
}

func TestEvaluateOrdersBestFirst(t *testing.T) {
	e := uraEvaluator(nil)
	tiles := []Tile{
		{Index: 0, Stat: career.StatSpeed, Supports: []Support{{Class: "support_spd", BarColor: BarBlue}}},
		{Index: 1, Stat: career.StatStamina, Supports: []Support{
			{Class: "support_sta", BarColor: BarBlue},
			{Class: "support_sta", BarColor: BarGreen},
		}},
	}
	rows := e.Evaluate(tiles, nil, career.NewStatVector())
	assert.Equal(t, 1, rows[0].TileIndex)
}
