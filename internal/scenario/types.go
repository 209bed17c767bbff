package scenario

// #region imports
import (
	"github.com/danielpatrickdp/careerpilot/internal/career"
)

// #endregion

// #region actions

// ActionKind is the decision a training/lobby policy returns.
type ActionKind string

const (
	ActionTrain     ActionKind = "train"
	ActionRace      ActionKind = "race"
	ActionRest      ActionKind = "rest"
	ActionRecreate  ActionKind = "recreate"
	ActionInfirmary ActionKind = "infirmary"
	ActionSkills    ActionKind = "skills"
	ActionNoOp      ActionKind = "noop"
)

// TrainingAction bundles the decision with its target tile and rationale.
type TrainingAction struct {
	Kind      ActionKind
	TileIndex int // valid when Kind == ActionTrain
	WithPal   bool
	Reason    string
}

// #endregion actions

// #region lobby-outcome

// LobbyOutcome is what one processed lobby turn resolved to.
type LobbyOutcome string

const (
	OutcomeToRace        LobbyOutcome = "TO_RACE"
	OutcomeToTraining    LobbyOutcome = "TO_TRAINING"
	OutcomeTrainingReady LobbyOutcome = "TRAINING_READY" // precheck already clicked the tile
	OutcomeInfirmary     LobbyOutcome = "INFIRMARY"
	OutcomeRested        LobbyOutcome = "RESTED"
	OutcomeContinue      LobbyOutcome = "CONTINUE"
)

// #endregion lobby-outcome

// #region state

// State is the cross-screen career state the agent carries between ticks.
// The lobby flow refreshes it each turn; the agent's screen handlers also
// write the energy reading and the raced-today/skip-race guards.
type State struct {
	Goal     string
	Energy   int // percent 0..100, -1 unknown
	SkillPts int
	Turn     int // turns left toward the next goal, -1 unknown
	Mood     career.Mood

	Dates *career.DateAcceptor
	Stats *career.StatTracker

	PalAvailable bool
	IsSummer     bool

	// AutoRestMinimum is the general-config energy floor, injected once at
	// agent start.
	AutoRestMinimum int

	PlannedRaceName      string
	PlannedRaceTentative bool

	// raced-today guard: date keys already raced, cleared when the key moves
	RacedKeys    map[string]bool
	SkipRaceOnce bool

	CareerDateRaw string
}

// NewState returns an initialized state.
func NewState() *State {
	return &State{
		Energy:    -1,
		Turn:      -1,
		Mood:      career.MoodUnknown,
		Dates:     career.NewDateAcceptor(),
		Stats:     career.NewStatTracker(),
		RacedKeys: map[string]bool{},
	}
}

// DateKey returns the current date key or "".
func (s *State) DateKey() string {
	d := s.Dates.Current()
	if d == nil || !d.Complete() || d.IsFinals() || d.IsPreDebut() {
		if d != nil && d.IsFinals() {
			return d.Key()
		}
		return ""
	}
	return d.Key()
}

// MarkRacedToday records that a race completed on the given key, and arms
// the one-shot skip guard for this loop.
func (s *State) MarkRacedToday(dateKey string) {
	if dateKey == "" {
		return
	}
	s.RacedKeys[dateKey] = true
	s.SkipRaceOnce = true
}

// RolloverDateKey clears the raced-today memory when the date key advances.
func (s *State) RolloverDateKey(prevKey, newKey string) {
	if newKey != "" && newKey != prevKey {
		s.RacedKeys = map[string]bool{}
	}
}

// #endregion state
