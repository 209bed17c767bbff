package scenario

// #region imports
import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/memory"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/training"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region lobby-flow

// LobbyFlow owns the per-turn lobby decision and the navigation clicks out
// of the lobby. It refreshes State each turn; the agent's handlers also
// write some of its fields.
type LobbyFlow struct {
	ctrl    controller.Controller
	ocr     perception.OCR
	w       *waiter.Waiter
	policy  Policy
	scanner TileScanner
	prober  perception.ActiveButtonProber

	preset  *config.Preset
	general config.General

	pal     *memory.PalMemory
	planned *memory.PlannedRaces
	events  *catalog.EventCatalog

	State *State

	lastDateKey string

	peekCacheKey   string
	peekCacheSV    float64
	peekCacheValid bool
}

// NewLobbyFlow wires the lobby flow.
func NewLobbyFlow(
	ctrl controller.Controller,
	ocr perception.OCR,
	w *waiter.Waiter,
	policy Policy,
	scanner TileScanner,
	prober perception.ActiveButtonProber,
	preset *config.Preset,
	general config.General,
	pal *memory.PalMemory,
	planned *memory.PlannedRaces,
	eventCat *catalog.EventCatalog,
) *LobbyFlow {
	if prober == nil {
		prober = perception.AlwaysActive{}
	}
	st := NewState()
	st.AutoRestMinimum = general.AutoRestMinimum
	return &LobbyFlow{
		ctrl: ctrl, ocr: ocr, w: w,
		policy: policy, scanner: scanner, prober: prober,
		preset: preset, general: general,
		pal: pal, planned: planned, events: eventCat,
		State: st,
	}
}

// Scanner exposes the tile scanner for the agent's training handler.
func (f *LobbyFlow) Scanner() TileScanner { return f.scanner }

// PalNextEnergy reports whether the recorded PAL chain still restores energy
// on its next step.
func (f *LobbyFlow) PalNextEnergy() bool { return f.pal.AnyNextEnergy() }

// #endregion lobby-flow

// #region state-update

// UpdateState folds one lobby frame into the career state: gauges, mood,
// turns, the date acceptor, stats, and PAL presence.
func (f *LobbyFlow) UpdateState(frame *perception.Frame) {
	st := f.State

	if v := ExtractEnergyPct(frame, f.ocr); v >= 0 {
		st.Energy = v
	}
	if v := ExtractTurnsLeft(frame, f.ocr); v >= 0 {
		st.Turn = v
	}
	if m := ExtractMood(frame, f.ocr); m != career.MoodUnknown {
		st.Mood = m
	}
	if goal := ExtractGoalText(frame, f.ocr); goal != "" {
		st.Goal = goal
	}

	raw := ExtractCareerDateRaw(frame, f.ocr)
	st.CareerDateRaw = raw
	st.Dates.Observe(career.Parse(raw), st.Turn)
	if d := st.Dates.Current(); d != nil {
		st.IsSummer = d.IsSummer()
	}

	newKey := st.DateKey()
	st.RolloverDateKey(f.lastDateKey, newKey)
	if newKey != "" && newKey != f.lastDateKey {
		f.lastDateKey = newKey
		f.peekCacheValid = false
	}

	st.Stats.Observe(ExtractStats(frame, f.ocr))

	st.PalAvailable = perception.AnyConf(frame.Detections, perception.ClassLobbyPal, 0.6)
	if err := f.pal.RecordPresence(st.PalAvailable, newKey, st.Turn); err != nil {
		log.Printf("[lobby] pal presence record failed: %v", err)
	}
}

// #endregion state-update

// #region planned-race

// PlanRaceToday resolves whether today has a planned race, honoring the
// raced-today guard and skip cooldowns.
func (f *LobbyFlow) PlanRaceToday() {
	st := f.State
	st.PlannedRaceName = ""
	st.PlannedRaceTentative = false

	key := st.DateKey()
	if key == "" {
		f.logPlanned("plan_missing_for_date", "", "no complete date")
		return
	}
	if st.RacedKeys[key] {
		f.logPlanned("plan_already_completed", "", "already raced on this key")
		return
	}
	entry, ok := f.planned.RaceFor(key)
	if !ok {
		f.logPlanned("plan_missing_for_date", "", "")
		return
	}
	st.PlannedRaceName = entry.Name
	st.PlannedRaceTentative = entry.Tentative
	f.logPlanned("plan_selected", entry.Name, "")
}

func (f *LobbyFlow) logPlanned(action, plan, reason string) {
	st := f.State
	parts := []string{
		"action=" + action,
		"plan=" + orDash(plan),
	}
	if reason != "" {
		parts = append(parts, "reason="+reason)
	}
	parts = append(parts,
		"date_key="+orDash(st.DateKey()),
		"raw="+orDash(st.CareerDateRaw),
		fmt.Sprintf("skip=%v", st.SkipRaceOnce),
		fmt.Sprintf("turn=%d", st.Turn),
	)
	log.Printf("[planned_race] %s", strings.Join(parts, " "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion planned-race

// #region process-turn

// ProcessTurn evaluates the Lobby and takes the next action. The returned
// reason string carries "G1"/"PLAN"/"FANS" markers the agent uses to
// parameterize the race flow.
func (f *LobbyFlow) ProcessTurn(frame *perception.Frame) (LobbyOutcome, string) {
	st := f.State
	f.PlanRaceToday()

	// 1) Critical goal races (fans/maiden/G1) with precheck escape.
	if race, reason, ready := f.maybeGoalRace(frame); race {
		return OutcomeToRace, reason
	} else if ready {
		return OutcomeTrainingReady, reason
	}

	// 2) Planned race; a tentative plan yields to a strong enough tile.
	if st.PlannedRaceName != "" && !st.SkipRaceOnce {
		if st.PlannedRaceTentative && f.precheckAllowed() {
			bestSV, clicked := f.peekTrainingBestSV(true)
			if bestSV >= f.preset.RacePrecheckSV {
				f.logPlanned("plan_deferred_tentative", st.PlannedRaceName,
					fmt.Sprintf("sv=%.2f", bestSV))
				if clicked {
					return OutcomeTrainingReady, fmt.Sprintf("tentative plan deferred sv=%.2f [tile_clicked]", bestSV)
				}
				return OutcomeToTraining, fmt.Sprintf("tentative plan deferred sv=%.2f", bestSV)
			}
		}
		return OutcomeToRace, "PLAN: " + st.PlannedRaceName
	}

	// 3) Infirmary, unless a strong tile pre-empts it.
	if f.infirmaryOn(frame) && !st.IsSummer {
		if f.precheckAllowed() {
			bestSV, clicked := f.peekTrainingBestSV(true)
			if bestSV >= f.preset.RacePrecheckSV {
				log.Printf("[lobby] Infirmary pre-check skip: sv=%.2f", bestSV)
				if clicked {
					return OutcomeTrainingReady, "infirmary deferred [tile_clicked]"
				}
				return OutcomeToTraining, "infirmary deferred"
			}
		}
		if f.GoInfirmary() {
			return OutcomeInfirmary, "infirmary on"
		}
	}

	// 4) Absolute rest safeguards. PAL substitution applies when the next
	// chain step still yields energy.
	if st.Energy >= 0 && st.Energy <= st.AutoRestMinimum {
		if st.PalAvailable && f.pal.AnyNextEnergy() {
			if f.GoRecreate("Energy low, PAL date restores energy") {
				return OutcomeRested, "pal recreation"
			}
		}
		if f.GoRest("Energy low, resting") {
			return OutcomeRested, "auto rest"
		}
	}
	if st.Energy >= 0 && st.Energy <= 30 {
		if d := st.Dates.Current(); d != nil && d.SummerInTwoOrLessTurns() {
			if f.GoRest("Summer close with low energy, resting") {
				return OutcomeRested, "pre-summer rest"
			}
		}
	}

	// 5) Mood floor.
	if moodBelowFloor(st, f.preset) {
		if f.GoRecreate("Mood is low, recreating") {
			return OutcomeRested, "mood recreation"
		}
	}

	// 6) Default: training screen.
	if f.GoTraining() {
		return OutcomeToTraining, "no critical actions"
	}
	return OutcomeContinue, "lobby click failed"
}

// infirmaryOn probes whether the infirmary tile renders active (an ailment
// is present).
func (f *LobbyFlow) infirmaryOn(frame *perception.Frame) bool {
	det := perception.FindBest(frame.Detections, perception.ClassLobbyInfirmary, 0.6)
	if det == nil {
		return false
	}
	return f.prober.ActiveProb(frame, det.Box) >= 0.60
}

// #endregion process-turn

// #region goal-race

// maybeGoalRace applies the critical-goal heuristics on the goal banner.
// Returns (race, reason, trainingReady).
func (f *LobbyFlow) maybeGoalRace(frame *perception.Frame) (bool, string, bool) {
	st := f.State
	goal := strings.ToLower(st.Goal)
	if goal == "" {
		st.Goal = ExtractGoalText(frame, f.ocr)
		goal = strings.ToLower(st.Goal)
	}

	progress := perception.FuzzyContains(goal, "progress", 0.58)
	winMaiden := perception.FuzzyContains(goal, "win", 0.7) &&
		perception.FuzzyContains(goal, "maiden", 0.7) &&
		perception.FuzzyContains(goal, "race", 0.7)
	criticalFans := progress || winMaiden ||
		(perception.FuzzyContains(goal, "go", 0.7) &&
			perception.FuzzyContains(goal, "fan", 0.7) &&
			!perception.FuzzyContains(goal, "achieve", 0.7))
	criticalG1 := progress &&
		(perception.FuzzyContains(goal, "g1", 0.7) ||
			perception.FuzzyContains(goal, "gl", 0.7) ||
			perception.FuzzyContains(goal, "place within", 0.7))

	// The opening junior date has no races on offer.
	if d := st.Dates.Current(); d != nil &&
		d.YearCode == career.YearJunior && d.Month == 7 && d.Half == 1 {
		return false, "first junior date", false
	}
	if st.SkipRaceOnce {
		return false, "skip guard armed", false
	}

	const maxCriticalTurn = 8
	if st.Turn < 0 || st.Turn > maxCriticalTurn {
		return false, "", false
	}

	forceDeadline := st.Turn >= 0 && st.Turn <= f.preset.GoalRaceForceTurns

	check := func(kind string) (bool, string, bool) {
		if f.precheckAllowed() && !forceDeadline {
			bestSV, clicked := f.peekTrainingBestSV(true)
			if bestSV >= f.preset.RacePrecheckSV {
				log.Printf("[lobby] Goal %s pre-check skip: sv=%.2f threshold=%.2f",
					kind, bestSV, f.preset.RacePrecheckSV)
				reason := fmt.Sprintf("Pre-check training (%s) sv=%.2f", kind, bestSV)
				if clicked {
					return false, reason + " [tile_clicked]", true
				}
				return false, reason, false
			}
		}
		return true, fmt.Sprintf("Critical goal %s | turn=%d", kind, st.Turn), false
	}

	if criticalG1 {
		return check("G1")
	}
	if criticalFans {
		return check("FANS")
	}
	return false, "", false
}

// #endregion goal-race

// #region precheck

func (f *LobbyFlow) precheckAllowed() bool {
	if !f.preset.LobbyPrecheck {
		return false
	}
	st := f.State
	if st.Energy < 0 || st.Energy <= st.AutoRestMinimum {
		return false
	}
	if d := st.Dates.Current(); d != nil && st.Energy <= 30 && d.SummerInTwoOrLessTurns() {
		return false
	}
	return true
}

// peekTrainingBestSV enters the training screen, evaluates the tiles, and
// either backs out (SV below the precheck threshold) or clicks the best tile
// directly when stayIfAbove is set. The result is cached per (date, turn,
// energy) so the goal and planned gates share one peek.
func (f *LobbyFlow) peekTrainingBestSV(stayIfAbove bool) (float64, bool) {
	st := f.State
	cacheKey := fmt.Sprintf("%s|%d|%d", st.DateKey(), st.Turn, st.Energy)
	if f.peekCacheValid && f.peekCacheKey == cacheKey {
		return f.peekCacheSV, false
	}

	if !f.GoTraining() {
		f.peekCacheKey, f.peekCacheSV, f.peekCacheValid = cacheKey, 0, true
		return 0, false
	}
	time.Sleep(1200 * time.Millisecond)

	tiles, err := f.scanner.Scan()
	if err != nil || len(tiles) == 0 {
		f.GoBack()
		f.peekCacheKey, f.peekCacheSV, f.peekCacheValid = cacheKey, 0, true
		return 0, false
	}

	rows := f.policy.Evaluator().Evaluate(tiles, st.Dates.Current(), st.Stats.Current())
	best := training.Best(rows)
	bestSV := 0.0
	if best != nil {
		bestSV = best.Total
	}

	shouldStay := stayIfAbove && best != nil && bestSV >= f.preset.RacePrecheckSV
	if !shouldStay {
		log.Printf("[lobby] Pre-check SV too low=%.2f is not more than %.2f, going back",
			bestSV, f.preset.RacePrecheckSV)
		f.GoBack()
		f.peekCacheKey, f.peekCacheSV, f.peekCacheValid = cacheKey, bestSV, true
		return bestSV, false
	}

	for _, t := range tiles {
		if t.Index == best.TileIndex {
			f.ctrl.Click(t.Box, 3)
			log.Printf("[lobby] Pre-check clicked tile_idx=%d type=%s sv=%.2f",
				best.TileIndex, best.Stat, bestSV)
			break
		}
	}
	// State changed; do not cache.
	f.peekCacheValid = false
	return bestSV, true
}

// #endregion precheck
