package waiter

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/abort"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #region fakes

type fakeCtrl struct {
	clicks []controller.Box
}

func (f *fakeCtrl) Capture() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 200, 200)), nil
}
func (f *fakeCtrl) Click(b controller.Box, clicks int) { f.clicks = append(f.clicks, b) }
func (f *fakeCtrl) Scroll(controller.Box, int)         {}
func (f *fakeCtrl) Kind() controller.Kind              { return controller.KindDesktop }

type fakeDet struct {
	dets []perception.Detection
}

func (f *fakeDet) Detect(image.Image) ([]perception.Detection, error) {
	return f.dets, nil
}

// fakeOCR answers by the ROI's left edge so tests can pin text to a box.
type fakeOCR struct {
	byX1 map[int]string
}

func (f *fakeOCR) Text(_ image.Image, roi controller.Box) (perception.OCRResult, error) {
	if txt, ok := f.byX1[int(roi.X1)]; ok {
		return perception.OCRResult{Text: txt, Conf: 0.9}, nil
	}
	return perception.OCRResult{}, nil
}

func box(x1 float64) controller.Box {
	return controller.Box{X1: x1, Y1: 50, X2: x1 + 40, Y2: 70}
}

func testConfig() PollConfig {
	return PollConfig{
		Interval: time.Millisecond,
		Timeout:  30 * time.Millisecond,
		MinConf:  0.5,
		Tag:      "test",
		Agent:    "test",
	}
}

// #endregion fakes

func TestClickWhenGreedySingleCandidate(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		{Class: "button_green", Conf: 0.9, Box: box(10)},
	}}
	var stop abort.Flag
	w := New(ctrl, det, nil, testConfig(), &stop)

	d, res := w.ClickWhen(Spec{Classes: []string{"button_green"}})
	require.Equal(t, Ok, res)
	assert.Equal(t, box(10), d.Box)
	assert.Len(t, ctrl.clicks, 1)
}

func TestClickWhenForbidTextBlocksClick(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		{Class: "button_green", Conf: 0.9, Box: box(10)},
	}}
	ocr := &fakeOCR{byX1: map[int]string{10: "TRY AGAIN"}}
	var stop abort.Flag
	w := New(ctrl, det, ocr, testConfig(), &stop)

	_, res := w.ClickWhen(Spec{
		Classes:     []string{"button_green"},
		ForbidTexts: []string{"TRY AGAIN"},
	})
	assert.Equal(t, NoMatch, res)
	assert.Empty(t, ctrl.clicks)
}

func TestClickWhenOCRDisambiguation(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		{Class: "button_green", Conf: 0.9, Box: box(10)},
		{Class: "button_green", Conf: 0.9, Box: box(100)},
	}}
	ocr := &fakeOCR{byX1: map[int]string{10: "CANCEL", 100: "RACE"}}
	var stop abort.Flag
	w := New(ctrl, det, ocr, testConfig(), &stop)

	d, res := w.ClickWhen(Spec{
		Classes: []string{"button_green"},
		Texts:   []string{"RACE"},
		OCROnly: true,
	})
	require.Equal(t, Ok, res)
	assert.Equal(t, box(100), d.Box)
}

func TestClickWhenForbidAmongCandidates(t *testing.T) {
	// Both candidates OCR-match; the forbidden one must never win.
	ctrl := &fakeCtrl{}
	det := &fakeDet{dets: []perception.Detection{
		{Class: "button_green", Conf: 0.9, Box: box(10)},
		{Class: "button_green", Conf: 0.9, Box: box(100)},
	}}
	ocr := &fakeOCR{byX1: map[int]string{10: "TRY AGAIN", 100: "NEXT"}}
	var stop abort.Flag
	w := New(ctrl, det, ocr, testConfig(), &stop)

	d, res := w.ClickWhen(Spec{
		Classes:     []string{"button_green"},
		Texts:       []string{"NEXT", "TRY AGAIN"},
		ForbidTexts: []string{"TRY AGAIN"},
		OCROnly:     true,
	})
	require.Equal(t, Ok, res)
	assert.Equal(t, box(100), d.Box)
}

func TestSeenTimesOutWithNoMatch(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{}
	var stop abort.Flag
	w := New(ctrl, det, nil, testConfig(), &stop)

	_, res := w.Seen(Spec{Classes: []string{"race_square"}, Timeout: 10 * time.Millisecond})
	assert.Equal(t, NoMatch, res)
}

func TestStopFlagAborts(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{}
	var stop abort.Flag
	stop.Request()
	w := New(ctrl, det, nil, testConfig(), &stop)

	_, res := w.ClickWhen(Spec{Classes: []string{"button_green"}, Timeout: time.Second})
	assert.Equal(t, Aborted, res)
	_, res = w.Seen(Spec{Classes: []string{"button_green"}, Timeout: time.Second})
	assert.Equal(t, Aborted, res)
}

func TestPreferBottomSkipsForbidden(t *testing.T) {
	ctrl := &fakeCtrl{}
	bottom := controller.Box{X1: 60, Y1: 150, X2: 100, Y2: 170}
	top := controller.Box{X1: 10, Y1: 20, X2: 50, Y2: 40}
	det := &fakeDet{dets: []perception.Detection{
		{Class: "button_white", Conf: 0.9, Box: top},
		{Class: "button_white", Conf: 0.9, Box: bottom},
	}}
	// The fake OCR keys by left edge: the bottom reads as a forbidden
	// phrase, the top reads nothing, so the top is the one clicked.
	ocr := &fakeOCR{byX1: map[int]string{60: "TRY AGAIN"}}
	var stop abort.Flag
	w := New(ctrl, det, ocr, testConfig(), &stop)

	d, res := w.ClickWhen(Spec{
		Classes:      []string{"button_white"},
		ForbidTexts:  []string{"TRY AGAIN"},
		PreferBottom: true,
	})
	require.Equal(t, Ok, res)
	assert.Equal(t, top, d.Box)
}

func TestTryClickOnceNoCandidates(t *testing.T) {
	ctrl := &fakeCtrl{}
	det := &fakeDet{}
	var stop abort.Flag
	w := New(ctrl, det, nil, testConfig(), &stop)

	_, clicked := w.TryClickOnce(Spec{Classes: []string{"button_green"}})
	assert.False(t, clicked)
	assert.Empty(t, ctrl.clicks)
}
