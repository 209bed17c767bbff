package scenario

// #region imports
import (
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/training"
)

// #endregion

// #region ura-policy

// URAPolicy is the base scenario: no spirits, no golden buttons.
type URAPolicy struct {
	thresholds perception.Thresholds
	evaluator  *training.Evaluator
}

// NewURAPolicy builds the URA policy around the preset.
func NewURAPolicy(preset *config.Preset, owned func(string) bool) *URAPolicy {
	return &URAPolicy{
		thresholds: perception.DefaultThresholds(),
		evaluator: &training.Evaluator{
			Scenario: "ura",
			Preset:   preset,
			Owned:    owned,
		},
	}
}

// Key returns the registry key.
func (p *URAPolicy) Key() string { return "ura" }

// Classify maps detections to the URA screen set. The URA rules carry no
// relaxed pairs; relaxed mode is a no-op here.
func (p *URAPolicy) Classify(dets []perception.Detection, relaxed bool) perception.Classification {
	return perception.ClassifyURA(dets, p.thresholds)
}

// Evaluator exposes the scoring knobs.
func (p *URAPolicy) Evaluator() *training.Evaluator { return p.evaluator }

// ChooseTrainingAction picks the tile or fallback for a training turn.
func (p *URAPolicy) ChooseTrainingAction(rows []training.SV, st *State, preset *config.Preset, palNextEnergy bool) TrainingAction {
	return chooseTrainingCommon(rows, st, preset, palNextEnergy)
}

// #endregion ura-policy
