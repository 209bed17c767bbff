package scenario

// #region imports
import (
	"fmt"
	"log"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/training"
)

// #endregion

// #region policy

// Policy is the full per-scenario capability set: screen classification,
// training-action choice, and the scoring knobs for the evaluator.
type Policy interface {
	Key() string
	Classify(dets []perception.Detection, relaxed bool) perception.Classification
	ChooseTrainingAction(rows []training.SV, st *State, preset *config.Preset, palNextEnergy bool) TrainingAction
	Evaluator() *training.Evaluator
}

// #endregion policy

// #region registry

// Registry maps scenario keys to their policy objects. Get returns the same
// object for a key across calls within a run.
type Registry struct {
	policies map[string]Policy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: map[string]Policy{}}
}

// Register adds a policy under its key.
func (r *Registry) Register(p Policy) {
	r.policies[p.Key()] = p
}

// Get resolves a policy.
func (r *Registry) Get(key string) (Policy, error) {
	p, ok := r.policies[key]
	if !ok {
		return nil, fmt.Errorf("scenario: no policy registered for %q", key)
	}
	return p, nil
}

// #endregion registry

// #region shared-decision

// chooseTrainingCommon is the scenario-independent part of the training
// decision: the top allowed tile when it clears the weak-turn floor,
// otherwise race / rest / recreate fallbacks honoring PAL chain state.
func chooseTrainingCommon(rows []training.SV, st *State, preset *config.Preset, palNextEnergy bool) TrainingAction {
	autoRestMin := st.AutoRestMinimum
	best := training.Best(rows)

	weakFloor := 1.0
	if preset != nil && preset.WeakTurnSV > 0 {
		weakFloor = preset.WeakTurnSV
	}

	if best != nil && best.Total >= weakFloor {
		return TrainingAction{
			Kind:      ActionTrain,
			TileIndex: best.TileIndex,
			Reason:    fmt.Sprintf("sv=%.2f ≥ weak_turn=%.2f", best.Total, weakFloor),
		}
	}

	// Weak turn: every surviving tile is below the floor.
	energyKnown := st.Energy >= 0
	lowEnergy := energyKnown && autoRestMin > 0 && st.Energy <= autoRestMin+10

	if preset != nil && preset.RaceIfNoGoodValue && !st.SkipRaceOnce {
		d := st.Dates.Current()
		if d != nil && d.IsRegularYear() && !st.IsSummer {
			return TrainingAction{Kind: ActionRace, Reason: "weak turn, race_if_no_good_value"}
		}
	}

	if lowEnergy {
		if st.PalAvailable && palNextEnergy {
			return TrainingAction{Kind: ActionRecreate, WithPal: true,
				Reason: "weak turn, low energy, PAL next step yields energy"}
		}
		return TrainingAction{Kind: ActionRest, Reason: "weak turn, low energy"}
	}

	if best != nil {
		return TrainingAction{
			Kind:      ActionTrain,
			TileIndex: best.TileIndex,
			Reason:    fmt.Sprintf("weak turn, training best anyway sv=%.2f", best.Total),
		}
	}

	// Nothing trainable at all (every tile over the risk limit).
	if st.PalAvailable && palNextEnergy {
		return TrainingAction{Kind: ActionRecreate, WithPal: true, Reason: "no allowed tiles, PAL energy available"}
	}
	if energyKnown && st.Energy < 70 {
		return TrainingAction{Kind: ActionRest, Reason: "no allowed tiles"}
	}
	log.Printf("[lobby] no actionable training decision")
	return TrainingAction{Kind: ActionNoOp, Reason: "no allowed tiles, energy high"}
}

// moodBelowFloor reports whether the mood reading is confidently under the
// preset floor for the current date.
func moodBelowFloor(st *State, preset *config.Preset) bool {
	if st.Mood == career.MoodUnknown || preset == nil {
		return false
	}
	return st.Mood < preset.MinimumMoodFor(st.Dates.Current())
}

// #endregion shared-decision
