package perception

// #region imports
import (
	"log"
)

// #endregion

// #region screen

// Screen is the discrete label a scenario classifier assigns to one frame.
type Screen string

const (
	ScreenLobby         Screen = "Lobby"
	ScreenLobbySummer   Screen = "LobbySummer"
	ScreenTraining      Screen = "Training"
	ScreenEvent         Screen = "Event"
	ScreenEventStale    Screen = "EventStale"
	ScreenInspiration   Screen = "Inspiration"
	ScreenRaceday       Screen = "Raceday"
	ScreenRaceLobby     Screen = "RaceLobby"
	ScreenUnityRaceday  Screen = "UnityCupRaceday"
	ScreenKashimotoTeam Screen = "KashimotoTeam"
	ScreenFinal         Screen = "FinalScreen"
	ScreenClawMachine   Screen = "ClawMachine"
	ScreenUnknown       Screen = "Unknown"
)

// #endregion screen

// #region thresholds

// Thresholds carries the per-class confidence cutoffs. Primary values drive
// positive classification; relaxed values are consulted only once patience
// escalation has enabled relaxed mode for a tick.
type Thresholds struct {
	Lobby    float64
	Training float64
	Event    float64
	Race     float64

	RaceDayPrimary float64
	RaceDayRelaxed float64
	GoldenPrimary  float64
	GoldenRelaxed  float64

	RequireInfirmary bool
}

// DefaultThresholds returns the tuned defaults shared by both scenarios.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Lobby:            0.70,
		Training:         0.50,
		Event:            0.60,
		Race:             0.80,
		RaceDayPrimary:   0.61,
		RaceDayRelaxed:   0.35,
		GoldenPrimary:    0.61,
		GoldenRelaxed:    0.35,
		RequireInfirmary: true,
	}
}

// #endregion thresholds

// #region classification

// Classification is the classifier output for one frame.
type Classification struct {
	Screen        Screen
	Relaxed       bool // at least one relaxed threshold decided the label
	EventChoices  int
	TrainingTiles int
	PalAvailable  bool
}

// #endregion classification

// #region ura

// ClassifyURA maps a detection set to a screen label for the URA scenario.
//
// Priority order:
//   - Event        → ≥2 event_choice @ ≥ Event
//   - Inspiration  → event_inspiration present
//   - Raceday      → lobby_tazuna AND race_race_day
//   - Training     → exactly 5 training_button @ ≥ Training
//   - LobbySummer  → tazuna AND rest_summer AND NOT rest AND NOT recreation
//   - Lobby        → tazuna AND infirmary (if required) AND lobby_skills
//   - FinalScreen  → sparse frame with lobby_skills
//   - ClawMachine, EventStale, RaceLobby
//   - else Unknown
func ClassifyURA(dets []Detection, th Thresholds) Classification {
	nEvent := CountConf(dets, ClassEventChoice, th.Event)
	nTrain := CountConf(dets, ClassTrainingTile, th.Training)

	hasTazuna := AnyConf(dets, ClassLobbyTazuna, th.Lobby)
	hasInfirmary := AnyConf(dets, ClassLobbyInfirmary, th.Lobby)
	hasRest := AnyConf(dets, ClassLobbyRest, th.Lobby)
	hasRestSummer := AnyConf(dets, ClassLobbyRestSummer, th.Lobby)
	hasRecreation := AnyConf(dets, ClassLobbyRecreation, th.Lobby)
	hasRaceDay := AnyConf(dets, ClassRaceDay, th.Race)
	hasInspiration := AnyConf(dets, ClassEventInspiration, th.Race)
	hasLobbySkills := AnyConf(dets, ClassLobbySkills, th.Lobby)
	hasAfterNext := AnyConf(dets, ClassRaceAfterNext, 0.5)
	hasClawAction := AnyConf(dets, ClassButtonClaw, th.Lobby)
	hasClaw := AnyConf(dets, ClassClaw, th.Lobby)
	hasPal := AnyConf(dets, ClassLobbyPal, th.Lobby)
	hasChange := AnyConf(dets, ClassButtonChange, th.Lobby)
	hasBadge := AnyConf(dets, ClassRaceBadge, th.Lobby)

	base := Classification{EventChoices: nEvent, TrainingTiles: nTrain, PalAvailable: hasPal}

	switch {
	case nEvent >= 2:
		base.Screen = ScreenEvent
	case hasInspiration:
		base.Screen = ScreenInspiration
	case hasTazuna && hasRaceDay:
		base.Screen = ScreenRaceday
	case nTrain == 5:
		base.Screen = ScreenTraining
	case hasTazuna && hasRestSummer && !hasRest && !hasRecreation:
		base.Screen = ScreenLobbySummer
	case hasTazuna && (hasInfirmary || !th.RequireInfirmary) && hasLobbySkills:
		base.Screen = ScreenLobby
	case (len(dets) == 2 && hasLobbySkills && hasAfterNext) || (len(dets) <= 2 && hasLobbySkills):
		base.Screen = ScreenFinal
	case hasClawAction && hasClaw:
		base.Screen = ScreenClawMachine
	case nEvent == 1:
		base.Screen = ScreenEventStale
	case hasChange && hasBadge:
		base.Screen = ScreenRaceLobby
	default:
		base.Screen = ScreenUnknown
	}
	return base
}

// #endregion ura

// #region relaxed-helper

// acceptRelaxed resolves a class with a primary/relaxed threshold pair.
// Relaxed hits are only honored when relaxed mode is on, and are logged with
// the observed confidence so operators can curate training data.
func acceptRelaxed(dets []Detection, class string, primary, relaxed float64, relaxedMode, requireSupport, hasSupport bool) (bool, bool) {
	candidates := Find(dets, class)
	if len(candidates) == 0 {
		return false, false
	}
	best := 0.0
	for _, d := range candidates {
		if d.Conf > best {
			best = d.Conf
		}
	}
	if best >= primary {
		return true, false
	}
	if !relaxedMode || relaxed <= 0 || relaxed >= primary || best < relaxed {
		return false, false
	}
	if requireSupport && !hasSupport {
		return false, false
	}
	log.Printf("[classifier] relaxed accept class=%s conf=%.2f primary=%.2f relaxed=%.2f",
		class, best, primary, relaxed)
	return true, true
}

// #endregion relaxed-helper
