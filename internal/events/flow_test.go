package events

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

type fakeCtrl struct {
	clicks []controller.Box
}

func (f *fakeCtrl) Capture() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 800, 600)), nil
}
func (f *fakeCtrl) Click(b controller.Box, clicks int) { f.clicks = append(f.clicks, b) }
func (f *fakeCtrl) Scroll(controller.Box, int)         {}
func (f *fakeCtrl) Kind() controller.Kind              { return controller.KindDesktop }

type bannerOCR struct {
	text string
}

func (o *bannerOCR) Text(_ image.Image, roi controller.Box) (perception.OCRResult, error) {
	return perception.OCRResult{Text: o.text, Conf: 0.9}, nil
}

func eventFrame() *perception.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	return perception.NewFrame(img, []perception.Detection{
		{Class: perception.ClassEventCard, Conf: 0.9, Box: controller.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Class: perception.ClassEventChoice, Conf: 0.9, Box: controller.Box{X1: 200, Y1: 150, X2: 500, Y2: 190}},
		{Class: perception.ClassEventChoice, Conf: 0.9, Box: controller.Box{X1: 200, Y1: 250, X2: 500, Y2: 290}},
	})
}

func TestProcessClicksMatchedOption(t *testing.T) {
	rec := &catalog.EventRecord{
		Key: "support/Kitasan Black/SPD/SSR/At Full Gallop", Type: "support",
		Name: "Kitasan Black", Attribute: "SPD", Rarity: "SSR",
		EventName: "At Full Gallop", Step: 1,
		Options: map[string][]catalog.EventOutcome{
			"1": {{Stats: map[string]int{"SPD": 10}}},
			"2": {{Energy: 20}},
		},
	}
	ctrl := &fakeCtrl{}
	flow := NewFlow(ctrl, &bannerOCR{text: "At Full Gallop"}, catalog.NewEventCatalog(rec), &Prefs{
		Default: EntityPref{Pick: 2},
	})

	out := flow.Process(eventFrame(), 40, 100)
	require.True(t, out.Clicked)
	assert.Equal(t, rec.KeyStep, out.MatchedKeyStep)
	assert.Equal(t, 2, out.Pick)
	require.Len(t, ctrl.clicks, 1)
	assert.Equal(t, 250.0, ctrl.clicks[0].Y1)
}

func TestProcessFallsBackToTopOption(t *testing.T) {
	ctrl := &fakeCtrl{}
	flow := NewFlow(ctrl, &bannerOCR{text: "Completely Unknown Dialog"}, catalog.NewEventCatalog(), &Prefs{})

	out := flow.Process(eventFrame(), -1, 100)
	require.True(t, out.Clicked)
	assert.True(t, out.Fallback)
	assert.Equal(t, 1, out.Pick)
	assert.Equal(t, 150.0, ctrl.clicks[0].Y1)
}

func TestProcessNoChoices(t *testing.T) {
	ctrl := &fakeCtrl{}
	frame := perception.NewFrame(image.NewRGBA(image.Rect(0, 0, 10, 10)), nil)
	flow := NewFlow(ctrl, &bannerOCR{}, catalog.NewEventCatalog(), &Prefs{})

	out := flow.Process(frame, -1, 100)
	assert.False(t, out.Clicked)
	assert.Empty(t, ctrl.clicks)
}
