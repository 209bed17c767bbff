package perception

// #region unity-cup

// ClassifyUnityCup maps a detection set to a screen label for the Unity Cup
// scenario. relaxedMode enables the relaxed thresholds for race_race_day and
// button_golden; a relaxed race-day hit additionally needs a supporting white
// or green button on screen before it is trusted.
//
// Priority order extends the URA rules with:
//   - KashimotoTeam    → button_golden AND button_white
//   - UnityCupRaceday  → race_race_day without the lobby anchor
func ClassifyUnityCup(dets []Detection, th Thresholds, relaxedMode bool) Classification {
	nEvent := CountConf(dets, ClassEventChoice, th.Event)
	nTrain := CountConf(dets, ClassTrainingTile, th.Training)

	hasTazuna := AnyConf(dets, ClassLobbyTazuna, th.Lobby)
	hasInfirmary := AnyConf(dets, ClassLobbyInfirmary, th.Lobby)
	hasRest := AnyConf(dets, ClassLobbyRest, th.Lobby)
	hasRestSummer := AnyConf(dets, ClassLobbyRestSummer, th.Lobby)
	hasRecreation := AnyConf(dets, ClassLobbyRecreation, th.Lobby)
	hasWhite := AnyConf(dets, ClassButtonWhite, th.Lobby)
	hasGreen := AnyConf(dets, ClassButtonGreen, th.Lobby)
	hasPink := AnyConf(dets, ClassButtonPink, th.Lobby)
	hasPal := AnyConf(dets, ClassLobbyPal, th.Lobby)
	hasChange := AnyConf(dets, ClassButtonChange, th.Lobby)
	hasBadge := AnyConf(dets, ClassRaceBadge, th.Lobby)
	hasLobbySkills := AnyConf(dets, ClassLobbySkills, th.Lobby)
	hasClawAction := AnyConf(dets, ClassButtonClaw, th.Lobby)
	hasClaw := AnyConf(dets, ClassClaw, th.Lobby)

	hasRaceDay, raceDayRelaxed := acceptRelaxed(dets, ClassRaceDay,
		th.RaceDayPrimary, th.RaceDayRelaxed, relaxedMode, true, hasWhite || hasGreen)
	hasGolden, goldenRelaxed := acceptRelaxed(dets, ClassButtonGolden,
		th.GoldenPrimary, th.GoldenRelaxed, relaxedMode, false, false)

	base := Classification{
		EventChoices:  nEvent,
		TrainingTiles: nTrain,
		PalAvailable:  hasPal,
		Relaxed:       raceDayRelaxed || goldenRelaxed,
	}

	switch {
	case nEvent >= 2:
		base.Screen = ScreenEvent
	case hasGolden && hasWhite:
		base.Screen = ScreenKashimotoTeam
	case hasGolden:
		base.Screen = ScreenInspiration
	case hasRaceDay && hasTazuna:
		base.Screen = ScreenRaceday
	case hasRaceDay:
		base.Screen = ScreenUnityRaceday
	case nTrain == 5:
		base.Screen = ScreenTraining
	case hasTazuna && hasRestSummer && !hasRest && !hasRecreation:
		base.Screen = ScreenLobbySummer
	case hasTazuna && (hasInfirmary || !th.RequireInfirmary) && hasLobbySkills:
		base.Screen = ScreenLobby
	case len(dets) <= 3 && hasLobbySkills && hasPink:
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

// #endregion unity-cup
