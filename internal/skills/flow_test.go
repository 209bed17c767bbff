package skills

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/abort"
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
	return image.NewRGBA(image.Rect(0, 0, 400, 400)), nil
}
func (f *fakeCtrl) Click(b controller.Box, clicks int) { f.clicks = append(f.clicks, b) }
func (f *fakeCtrl) Scroll(controller.Box, int)         {}
func (f *fakeCtrl) Kind() controller.Kind              { return controller.KindDesktop }

type fakeDet struct {
	dets []perception.Detection
}

func (f *fakeDet) Detect(image.Image) ([]perception.Detection, error) { return f.dets, nil }

type fakeOCR struct {
	byX1 map[int]string
}

func (f *fakeOCR) Text(_ image.Image, roi controller.Box) (perception.OCRResult, error) {
	if txt, ok := f.byX1[int(roi.X1)]; ok {
		return perception.OCRResult{Text: txt, Conf: 0.9}, nil
	}
	return perception.OCRResult{}, nil
}

func newTestMemory(t *testing.T) *memory.SkillMemory {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "mem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return memory.NewSkillMemory(store, "ura")
}

func fastConfig() waiter.PollConfig {
	return waiter.PollConfig{
		Interval: time.Millisecond,
		Timeout:  30 * time.Millisecond,
		MinConf:  0.5,
		Tag:      "test",
		Agent:    "test",
	}
}

// #endregion fakes

func TestBuyNoMatchExitsCleanly(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		// A skills list whose titles never match, plus the BACK button and a
		// lobby marker that proves the exit landed.
		{Class: perception.ClassSkillsSquare, Conf: 0.9, Box: controller.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Class: perception.ClassSkillsBuy, Conf: 0.9, Box: controller.Box{X1: 60, Y1: 60, X2: 90, Y2: 80}},
		{Class: perception.ClassButtonWhite, Conf: 0.9, Box: controller.Box{X1: 300, Y1: 350, X2: 360, Y2: 380}},
		{Class: perception.ClassLobbyRaces, Conf: 0.9, Box: controller.Box{X1: 200, Y1: 350, X2: 260, Y2: 380}},
	}}
	ocr := &fakeOCR{byX1: map[int]string{
		10:  "Some Other Skill",
		300: "BACK",
	}}
	var stop abort.Flag
	w := waiter.New(ctrl, det, ocr, fastConfig(), &stop)
	mem := newTestMemory(t)
	flow := NewFlow(ctrl, ocr, w, NewMatcher(nil), mem, nil)

	result := flow.Buy([]string{"Concentration"}, "Y2-06-1", 12)

	assert.Equal(t, StatusNoMatch, result.Status)
	assert.False(t, result.ClickedAny)
	assert.True(t, result.ExitRecovered)
	assert.False(t, mem.HasAnyGrade("Concentration"))
}

func TestBuySuccessRecordsMemory(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		{Class: perception.ClassSkillsSquare, Conf: 0.9, Box: controller.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Class: perception.ClassSkillsBuy, Conf: 0.9, Box: controller.Box{X1: 60, Y1: 60, X2: 90, Y2: 80}},
		// Confirm / Learn greens, Close / Back whites, and a lobby marker.
		{Class: perception.ClassButtonGreen, Conf: 0.9, Box: controller.Box{X1: 150, Y1: 300, X2: 190, Y2: 320}},
		{Class: perception.ClassButtonGreen, Conf: 0.9, Box: controller.Box{X1: 210, Y1: 300, X2: 250, Y2: 320}},
		{Class: perception.ClassButtonWhite, Conf: 0.9, Box: controller.Box{X1: 260, Y1: 300, X2: 295, Y2: 320}},
		{Class: perception.ClassButtonWhite, Conf: 0.9, Box: controller.Box{X1: 300, Y1: 350, X2: 360, Y2: 380}},
		{Class: perception.ClassLobbyRaces, Conf: 0.9, Box: controller.Box{X1: 200, Y1: 350, X2: 260, Y2: 380}},
	}}
	ocr := &fakeOCR{byX1: map[int]string{
		10:  "Concentration",
		150: "CONFIRM",
		210: "LEARN",
		260: "CLOSE",
		300: "BACK",
	}}
	var stop abort.Flag
	w := waiter.New(ctrl, det, ocr, fastConfig(), &stop)
	mem := newTestMemory(t)
	flow := NewFlow(ctrl, ocr, w, NewMatcher(nil), mem, nil)

	result := flow.Buy([]string{"Concentration"}, "Y2-06-1", 12)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.ClickedAny)
	assert.True(t, mem.HasAnyGrade("Concentration"))
}

func TestBuySkipsAlreadyPurchasedGrade(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		{Class: perception.ClassSkillsSquare, Conf: 0.9, Box: controller.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Class: perception.ClassSkillsBuy, Conf: 0.9, Box: controller.Box{X1: 60, Y1: 60, X2: 90, Y2: 80}},
		{Class: perception.ClassButtonWhite, Conf: 0.9, Box: controller.Box{X1: 300, Y1: 350, X2: 360, Y2: 380}},
		{Class: perception.ClassLobbyRaces, Conf: 0.9, Box: controller.Box{X1: 200, Y1: 350, X2: 260, Y2: 380}},
	}}
	ocr := &fakeOCR{byX1: map[int]string{
		10:  "Corner Recovery ○",
		300: "BACK",
	}}
	var stop abort.Flag
	w := waiter.New(ctrl, det, ocr, fastConfig(), &stop)
	mem := newTestMemory(t)
	require.NoError(t, mem.MarkPurchased("Corner Recovery", memory.GradeSingle, "", -1))
	flow := NewFlow(ctrl, ocr, w, NewMatcher(nil), mem, nil)

	result := flow.Buy([]string{"Corner Recovery ○"}, "Y2-06-1", 12)

	// The matching tile is skipped, so the pass ends as a clean no-buy.
	assert.Equal(t, StatusNoMatch, result.Status)
	assert.False(t, result.ClickedAny)
}
