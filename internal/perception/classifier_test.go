package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
)

func det(class string, conf float64) Detection {
	return Detection{Class: class, Conf: conf, Box: controller.Box{X2: 10, Y2: 10}}
}

func TestClassifyURAScreens(t *testing.T) {
	th := DefaultThresholds()

	cls := ClassifyURA([]Detection{
		det(ClassEventChoice, 0.9), det(ClassEventChoice, 0.8),
	}, th)
	assert.Equal(t, ScreenEvent, cls.Screen)
	assert.Equal(t, 2, cls.EventChoices)

	cls = ClassifyURA([]Detection{
		det(ClassLobbyTazuna, 0.9), det(ClassRaceDay, 0.85),
	}, th)
	assert.Equal(t, ScreenRaceday, cls.Screen)

	tiles := make([]Detection, 5)
	for i := range tiles {
		tiles[i] = det(ClassTrainingTile, 0.7)
	}
	cls = ClassifyURA(tiles, th)
	assert.Equal(t, ScreenTraining, cls.Screen)

	cls = ClassifyURA([]Detection{
		det(ClassLobbyTazuna, 0.9),
		det(ClassLobbyInfirmary, 0.9),
		det(ClassLobbySkills, 0.9),
		det(ClassLobbyPal, 0.8),
	}, th)
	assert.Equal(t, ScreenLobby, cls.Screen)
	assert.True(t, cls.PalAvailable)

	cls = ClassifyURA([]Detection{
		det(ClassLobbyTazuna, 0.9), det(ClassLobbyRestSummer, 0.9),
	}, th)
	assert.Equal(t, ScreenLobbySummer, cls.Screen)

	cls = ClassifyURA([]Detection{det(ClassEventChoice, 0.9)}, th)
	assert.Equal(t, ScreenEventStale, cls.Screen)

	cls = ClassifyURA(nil, th)
	assert.Equal(t, ScreenUnknown, cls.Screen)
}

func TestClassifyURAEventOutranksRaceday(t *testing.T) {
	th := DefaultThresholds()
	cls := ClassifyURA([]Detection{
		det(ClassEventChoice, 0.9), det(ClassEventChoice, 0.9),
		det(ClassLobbyTazuna, 0.9), det(ClassRaceDay, 0.9),
	}, th)
	assert.Equal(t, ScreenEvent, cls.Screen)
}

func TestClassifyUnityCupRelaxedGolden(t *testing.T) {
	th := DefaultThresholds()
	th.GoldenPrimary = 0.9
	th.GoldenRelaxed = 0.45

	dets := []Detection{det(ClassButtonGolden, 0.5)}

	// Primary-only pass misses it.
	cls := ClassifyUnityCup(dets, th, false)
	assert.Equal(t, ScreenUnknown, cls.Screen)

	// Relaxed mode (patience escalation) accepts it.
	cls = ClassifyUnityCup(dets, th, true)
	assert.Equal(t, ScreenInspiration, cls.Screen)
	assert.True(t, cls.Relaxed)
}

func TestClassifyUnityCupRelaxedRaceDayNeedsSupport(t *testing.T) {
	th := DefaultThresholds()
	th.RaceDayPrimary = 0.85
	th.RaceDayRelaxed = 0.5

	// Relaxed race day without a supporting button is not trusted.
	cls := ClassifyUnityCup([]Detection{det(ClassRaceDay, 0.55)}, th, true)
	assert.Equal(t, ScreenUnknown, cls.Screen)

	cls = ClassifyUnityCup([]Detection{
		det(ClassRaceDay, 0.55), det(ClassButtonWhite, 0.7),
	}, th, true)
	assert.Equal(t, ScreenUnityRaceday, cls.Screen)
	assert.True(t, cls.Relaxed)
}

func TestClassifyUnityCupKashimotoTeam(t *testing.T) {
	th := DefaultThresholds()
	cls := ClassifyUnityCup([]Detection{
		det(ClassButtonGolden, 0.8), det(ClassButtonWhite, 0.8),
	}, th, false)
	assert.Equal(t, ScreenKashimotoTeam, cls.Screen)
}

func TestClassifyUnityCupRacedayWithTazuna(t *testing.T) {
	th := DefaultThresholds()
	cls := ClassifyUnityCup([]Detection{
		det(ClassRaceDay, 0.9), det(ClassLobbyTazuna, 0.9),
	}, th, false)
	assert.Equal(t, ScreenRaceday, cls.Screen)
}
