package perception

// #region class-vocabulary

// Detection class labels. The vocabulary is closed per scenario model; these
// names mirror the trained label set.
const (
	ClassLobbyTazuna     = "lobby_tazuna"
	ClassLobbyInfirmary  = "lobby_infirmary"
	ClassLobbyRest       = "lobby_rest"
	ClassLobbyRestSummer = "lobby_rest_summer"
	ClassLobbyRecreation = "lobby_recreation"
	ClassLobbySkills     = "lobby_skills"
	ClassLobbyTraining   = "lobby_training"
	ClassLobbyRaces      = "lobby_races"
	ClassLobbyPal        = "lobby_pal"

	ClassTrainingTile = "training_button"

	ClassEventChoice      = "event_choice"
	ClassEventInspiration = "event_inspiration"
	ClassEventCard        = "event_card"
	ClassEventChain       = "event_chain"

	ClassRaceDay       = "race_race_day"
	ClassRaceSquare    = "race_square"
	ClassRaceStar      = "race_star"
	ClassRaceBadge     = "race_badge"
	ClassRaceAfterNext = "race_after_next"

	ClassButtonGreen  = "button_green"
	ClassButtonWhite  = "button_white"
	ClassButtonPink   = "button_pink"
	ClassButtonGolden = "button_golden"
	ClassButtonChange = "button_change"
	ClassButtonSkip   = "button_skip"
	ClassButtonClaw   = "button_claw_action"
	ClassClaw         = "claw"

	ClassSkillsSquare = "skills_square"
	ClassSkillsBuy    = "skills_buy"

	ClassUnityOpponentBanner = "unity_opponent_banner"

	ClassRecreationRow = "recreation_row"

	ClassUITurns    = "ui_turns"
	ClassUIGoal     = "ui_goal"
	ClassUIEnergy   = "ui_energy"
	ClassUIMood     = "ui_mood"
	ClassUISkillPts = "ui_skill_pts"
	ClassUIStats    = "ui_stats"
)

// #endregion class-vocabulary
