package scenario

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/abort"
	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/memory"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #region fakes

type fakeCtrl struct {
	clicks []controller.Box
}

func (f *fakeCtrl) Capture() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 800, 600)), nil
}
func (f *fakeCtrl) Click(b controller.Box, clicks int) { f.clicks = append(f.clicks, b) }
func (f *fakeCtrl) Scroll(controller.Box, int)         {}
func (f *fakeCtrl) Kind() controller.Kind              { return controller.KindDesktop }

type fakeDet struct {
	dets []perception.Detection
}

func (f *fakeDet) Detect(image.Image) ([]perception.Detection, error) { return f.dets, nil }

type silentOCR struct{}

func (silentOCR) Text(image.Image, controller.Box) (perception.OCRResult, error) {
	return perception.OCRResult{}, nil
}

// trainingWorld is a static frame carrying both lobby tiles and a training
// screen whose first tile scores three supports.
func trainingWorld() []perception.Detection {
	dets := []perception.Detection{
		{Class: perception.ClassLobbyTraining, Conf: 0.9, Box: controller.Box{X1: 700, Y1: 500, X2: 760, Y2: 540}},
	}
	for i := 0; i < 5; i++ {
		x := float64(i * 80)
		dets = append(dets, perception.Detection{
			Class: perception.ClassTrainingTile, Conf: 0.8,
			Box: controller.Box{X1: x, Y1: 400, X2: x + 60, Y2: 460},
		})
	}
	for j := 0; j < 3; j++ {
		dets = append(dets, perception.Detection{
			Class: "support_spd", Conf: 0.8,
			Box: controller.Box{X1: 10, Y1: float64(100 + j*40), X2: 50, Y2: float64(130 + j*40)},
		})
	}
	return dets
}

func newLobbyForTest(t *testing.T, preset *config.Preset, dets []perception.Detection) (*LobbyFlow, *fakeCtrl) {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "mem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: dets}
	var stop abort.Flag
	w := waiter.New(ctrl, det, silentOCR{}, waiter.PollConfig{
		Interval: time.Millisecond,
		Timeout:  20 * time.Millisecond,
		MinConf:  0.5,
		Tag:      "test",
		Agent:    "test",
	}, &stop)

	policy := NewURAPolicy(preset, nil)
	scanner := &DetectionTileScanner{W: w, OCR: silentOCR{}}
	pal := memory.NewPalMemory(store, "ura")

	plans := map[string]memory.PlannedEntry{}
	for key, pr := range preset.PlannedRaces {
		plans[key] = memory.PlannedEntry{Name: pr.Name, Tentative: pr.Tentative}
	}
	planned := memory.NewPlannedRaces(store, plans)

	general := config.General{AutoRestMinimum: 20}
	flow := NewLobbyFlow(ctrl, silentOCR{}, w, policy, scanner, nil,
		preset, general, pal, planned, catalog.NewEventCatalog())
	return flow, ctrl
}

// #endregion fakes

func TestTentativePlanPreemptedByTraining(t *testing.T) {
	preset := &config.Preset{
		ID:                 "test",
		WeakTurnSV:         1.0,
		RacePrecheckSV:     2.5,
		GoalRaceForceTurns: 5,
		MaxFailure:         20,
		LobbyPrecheck:      true,
		PlannedRaces: map[string]config.PlannedRace{
			"Y2-10-2": {Name: "Kikuka Sho", Tentative: true},
		},
	}
	flow, ctrl := newLobbyForTest(t, preset, trainingWorld())
	flow.State.Energy = 80
	flow.State.Turn = 12
	flow.State.Dates.Observe(&career.Date{YearCode: 2, Month: 10, Half: 2}, 12)

	frame := perception.NewFrame(image.NewRGBA(image.Rect(0, 0, 800, 600)), trainingWorld())
	outcome, reason := flow.ProcessTurn(frame)

	// The strong tile wins; the tentative plan stays in the index for a
	// later tick.
	assert.Equal(t, OutcomeTrainingReady, outcome)
	assert.Contains(t, reason, "tile_clicked")
	assert.NotEmpty(t, ctrl.clicks)
	assert.Equal(t, "Kikuka Sho", flow.State.PlannedRaceName)
	assert.True(t, flow.State.PlannedRaceTentative)
}

func TestFirmPlanGoesToRace(t *testing.T) {
	preset := &config.Preset{
		ID:                 "test",
		WeakTurnSV:         1.0,
		RacePrecheckSV:     2.5,
		GoalRaceForceTurns: 5,
		MaxFailure:         20,
		PlannedRaces: map[string]config.PlannedRace{
			"Y3-06-2": {Name: "Takarazuka Kinen"},
		},
	}
	flow, _ := newLobbyForTest(t, preset, trainingWorld())
	flow.State.Energy = 80
	flow.State.Turn = 12
	flow.State.Dates.Observe(&career.Date{YearCode: 3, Month: 6, Half: 2}, 12)

	frame := perception.NewFrame(image.NewRGBA(image.Rect(0, 0, 800, 600)), trainingWorld())
	outcome, reason := flow.ProcessTurn(frame)

	assert.Equal(t, OutcomeToRace, outcome)
	assert.Contains(t, reason, "PLAN")
	assert.Contains(t, reason, "Takarazuka Kinen")
}

func TestLowEnergyAlwaysRests(t *testing.T) {
	preset := &config.Preset{
		ID: "test", WeakTurnSV: 1.0, RacePrecheckSV: 2.5,
		GoalRaceForceTurns: 5, MaxFailure: 20,
	}
	dets := append(trainingWorld(), perception.Detection{
		Class: perception.ClassLobbyRest, Conf: 0.9,
		Box: controller.Box{X1: 600, Y1: 500, X2: 660, Y2: 540},
	})
	flow, _ := newLobbyForTest(t, preset, dets)
	flow.State.Energy = 15
	flow.State.Turn = 12

	frame := perception.NewFrame(image.NewRGBA(image.Rect(0, 0, 800, 600)), dets)
	outcome, reason := flow.ProcessTurn(frame)

	assert.Equal(t, OutcomeRested, outcome)
	assert.Equal(t, "auto rest", reason)
}
