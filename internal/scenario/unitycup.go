package scenario

// #region imports
import (
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/training"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region unity-cup-policy

// Patience stages for the low-confidence fallbacks on Unknown screens.
const (
	FallbackPatienceStage1 = 6
	FallbackPatienceStage2 = 12
	minFallbackConf        = 0.15
)

// UnityCupPolicy adds spirits, the golden-button screens, and opponent
// selection to the base behavior.
type UnityCupPolicy struct {
	thresholds perception.Thresholds
	evaluator  *training.Evaluator
	preset     *config.Preset
}

// NewUnityCupPolicy builds the Unity Cup policy around the preset.
func NewUnityCupPolicy(preset *config.Preset, owned func(string) bool) *UnityCupPolicy {
	return &UnityCupPolicy{
		thresholds: perception.DefaultThresholds(),
		preset:     preset,
		evaluator: &training.Evaluator{
			Scenario: "unity_cup",
			Preset:   preset,
			Owned:    owned,
		},
	}
}

// Key returns the registry key.
func (p *UnityCupPolicy) Key() string { return "unity_cup" }

// Classify maps detections to the Unity Cup screen set, honoring the relaxed
// thresholds once patience escalation enabled them.
func (p *UnityCupPolicy) Classify(dets []perception.Detection, relaxed bool) perception.Classification {
	return perception.ClassifyUnityCup(dets, p.thresholds, relaxed)
}

// Evaluator exposes the scoring knobs.
func (p *UnityCupPolicy) Evaluator() *training.Evaluator { return p.evaluator }

// ChooseTrainingAction prefers a legal blue-spirit burst when one clears the
// weak-turn floor, then falls through to the common decision.
func (p *UnityCupPolicy) ChooseTrainingAction(rows []training.SV, st *State, preset *config.Preset, palNextEnergy bool) TrainingAction {
	weakFloor := 1.0
	if preset != nil && preset.WeakTurnSV > 0 {
		weakFloor = preset.WeakTurnSV
	}
	if burst := training.PickBurst(rows); burst != nil && burst.Total >= weakFloor {
		return TrainingAction{
			Kind:      ActionTrain,
			TileIndex: burst.TileIndex,
			Reason:    fmt.Sprintf("burst on %s sv=%.2f", burst.BlueStat, burst.Total),
		}
	}
	return chooseTrainingCommon(rows, st, preset, palNextEnergy)
}

// #endregion unity-cup-policy

// #region opponent-selection

// OpponentSlot resolves which banner slot (1..3) to pick for the current
// Unity Cup race stage; the preset's opponentSelection block keys by
// "race<N>" with a defaultUnknown fallback.
func (p *UnityCupPolicy) OpponentSlot(date *career.Date) int {
	adv := p.preset.UnityCupAdvanced
	if adv == nil {
		adv = config.DefaultUnityCupAdvanced()
	}
	slot := 0
	if stage := preseasonIndex(date); stage > 0 {
		slot = adv.OpponentSelection["race"+strconv.Itoa(stage)]
	}
	if slot == 0 {
		slot = adv.OpponentSelection["defaultUnknown"]
	}
	if slot < 1 {
		slot = 2
	}
	if slot > 3 {
		slot = 3
	}
	return slot
}

// preseasonIndex maps the career date onto the Unity Cup race slot number;
// 0 when the date gives no binding.
func preseasonIndex(date *career.Date) int {
	if date == nil || !date.Complete() || !date.IsRegularYear() {
		return 0
	}
	// Preseason showdowns run on the even months of Classic year.
	if date.YearCode != career.YearClassic {
		return 0
	}
	switch date.Month {
	case 2:
		return 1
	case 4:
		return 2
	case 6:
		return 3
	case 8:
		return 4
	case 10:
		return 5
	}
	return 0
}

// #endregion opponent-selection

// #region fallbacks

// thresholdLadder builds the descending confidence ladder for a fallback
// target, widening with patience.
func thresholdLadder(primary, relaxed float64, patience int, forceRelaxed bool) []float64 {
	ladder := []float64{primary}
	if forceRelaxed || patience >= FallbackPatienceStage1 {
		ladder = append(ladder, relaxed)
	}
	if forceRelaxed || patience >= FallbackPatienceStage2 {
		ladder = append(ladder, math.Round((relaxed-0.1)*100)/100)
	}
	var out []float64
	seen := map[float64]bool{}
	for _, thr := range ladder {
		if thr < minFallbackConf {
			thr = minFallbackConf
		}
		if !seen[thr] {
			seen[thr] = true
			out = append(out, thr)
		}
	}
	return out
}

func findAdaptive(dets []perception.Detection, class string, primary, relaxed float64, patience int, forceRelaxed bool) (*perception.Detection, float64) {
	for _, confMin := range thresholdLadder(primary, relaxed, patience, forceRelaxed) {
		if d := perception.FindBest(dets, class, confMin); d != nil {
			return d, confMin
		}
	}
	return nil, 0
}

// MaybeClickGolden clicks a low-confidence golden button when patience has
// unlocked the relaxed ladder.
func (p *UnityCupPolicy) MaybeClickGolden(ctrl controller.Controller, dets []perception.Detection, patience int, reason string, forceRelaxed bool) bool {
	det, thr := findAdaptive(dets, perception.ClassButtonGolden,
		p.thresholds.GoldenPrimary, p.thresholds.GoldenRelaxed, patience, forceRelaxed)
	if det == nil {
		return false
	}
	ctrl.Click(det.Box, 1)
	log.Printf("[classifier] fallback button_golden handled (reason=%s, det_conf=%.2f, threshold=%.2f, patience=%d)",
		reason, det.Conf, thr, patience)
	time.Sleep(250 * time.Millisecond)
	return true
}

// MaybeHandleRaceCard resolves a low-confidence raceday card the same way,
// optionally probing the go/race buttons through the Waiter first.
func (p *UnityCupPolicy) MaybeHandleRaceCard(ctrl controller.Controller, w *waiter.Waiter, dets []perception.Detection, patience int, reason string, forceRelaxed bool) bool {
	det, thr := findAdaptive(dets, perception.ClassRaceDay,
		p.thresholds.RaceDayPrimary, p.thresholds.RaceDayRelaxed, patience, forceRelaxed)
	if det == nil {
		return false
	}
	viaWaiter := false
	if w != nil {
		_, res := w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonGreen},
			Texts:        []string{"GO", "RACE", "NEXT"},
			PreferBottom: true,
			OCROnly:      true,
			Timeout:      600 * time.Millisecond,
			Tag:          "unity_" + reason + "_go_probe",
		})
		viaWaiter = res == waiter.Ok
	}
	if !viaWaiter {
		ctrl.Click(det.Box, 1)
		time.Sleep(250 * time.Millisecond)
	}
	log.Printf("[classifier] fallback race_race_day handled (reason=%s, det_conf=%.2f, threshold=%.2f, patience=%d, via_waiter=%v)",
		reason, det.Conf, thr, patience, viaWaiter)
	return true
}

// HandleUnknownLowConf tries both fallbacks on an Unknown screen.
func (p *UnityCupPolicy) HandleUnknownLowConf(ctrl controller.Controller, w *waiter.Waiter, dets []perception.Detection, patience int) bool {
	if p.MaybeClickGolden(ctrl, dets, patience, "unknown", false) {
		return true
	}
	return p.MaybeHandleRaceCard(ctrl, w, dets, patience, "unknown", false)
}

// #endregion fallbacks
