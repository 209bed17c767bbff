package agent

// #region imports
import (
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/race"
	"github.com/danielpatrickdp/careerpilot/internal/scenario"
	"github.com/danielpatrickdp/careerpilot/internal/skills"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region raceday

// handleRaceday owns the goal-race day: the skills sub-flow first (the only
// point a career can actually be lost, so points get spent here), then the
// race flow. The scenario policy is the mediator between the two flows; they
// never call each other.
func (a *Agent) handleRaceday(frame *perception.Frame) {
	a.refreshSkillMemory()
	st := a.lobby.State

	st.SkillPts = scenario.ExtractSkillPoints(frame, a.ocr)
	log.Printf("[agent] Skill Pts: %d. Stats: %v", st.SkillPts, st.Stats.Current())

	if len(a.preset.Skills) > 0 && st.SkillPts >= a.preset.MinimumSkillPts {
		if a.shouldOpenSkills(st.SkillPts) || a.firstRaceDay {
			a.firstRaceDay = false
			a.lobby.GoSkills()
			result := a.skillsFlow.Buy(a.preset.Skills, st.DateKey(), st.Turn)
			a.lastSkillBuyOK = result.Bought()
			a.lastSkillPtsSeen, a.haveSkillPtsSeen = st.SkillPts, true
			log.Printf("[agent] Skills result: %s", result.Status)
			a.logDecision("skills", string(perception.ScreenRaceday), string(result.Status), result.Reason)
			if result.Status == skills.StatusFailedExit {
				a.counters.CountSoftFail("skills_failed_exit")
				// Recovery already ran Back taps; only proceed to race once a
				// known anchor reappears.
				if !a.w.SeenNow(waiter.Spec{
					Classes: []string{perception.ClassRaceDay, perception.ClassLobbyTazuna},
					Tag:     "raceday_after_skills_recovery",
				}) {
					return
				}
			}
		} else {
			a.lastSkillPtsSeen, a.haveSkillPtsSeen = st.SkillPts, true
		}
	}

	raw := strings.ToLower(strings.ReplaceAll(st.CareerDateRaw, "-", ""))
	preDebut := strings.Contains(raw, "predebut")
	if !preDebut {
		if d := st.Dates.Current(); d != nil && d.IsPreDebut() {
			preDebut = true
		}
	}
	log.Printf("[race] Race day, is predebut=%v", preDebut)

	opts := race.RunOpts{
		EnsureNavigation: true,
		FromRaceday:      true,
		IsGoalRace:       true,
		Reason:           "Normal (race day)",
	}
	if preDebut {
		opts.Reason = "Pre-debut (race day)"
		if style := a.styleSchedule.DebutStyle(); style != "" {
			opts.SelectStyle = style
		}
	} else if style, apply := a.styleSchedule.ShouldApply(currentDate(st)); apply {
		opts.SelectStyle = style
	}

	out := a.raceFlow.Run(opts)
	if opts.SelectStyle != "" && a.raceFlow.StyleApplied() {
		a.styleSchedule.MarkApplied(opts.SelectStyle)
	}
	a.logDecision("race", string(perception.ScreenRaceday), string(out), opts.Reason)
	switch out {
	case race.Ok:
		st.MarkRacedToday(st.DateKey())
	case race.Aborted:
	default:
		a.counters.CountSoftFail(string(out))
	}
}

// shouldOpenSkills is the interval/delta gate: only open the Skills screen
// every N turns, or when enough points accumulated since the last check, or
// right after a successful buy.
func (a *Agent) shouldOpenSkills(skillPts int) bool {
	interval := a.general.SkillCheckInterval
	if interval < 1 {
		interval = 1
	}
	turn := a.lobby.State.Turn
	turnGate := interval <= 1 || (turn >= 0 && turn%interval == 0)

	delta := 0
	if a.haveSkillPtsSeen {
		delta = skillPts - a.lastSkillPtsSeen
		if delta < 0 {
			delta = 0
		}
	}
	deltaGate := a.haveSkillPtsSeen && delta >= a.general.SkillPtsDelta

	log.Printf("[skills] check interval=%d turn=%d turn_gate=%v delta=%d delta_gate=%v last_ok=%v",
		interval, turn, turnGate, delta, deltaGate, a.lastSkillBuyOK)
	return turnGate || deltaGate || a.lastSkillBuyOK
}

func currentDate(st *scenario.State) career.Date {
	if d := st.Dates.Current(); d != nil {
		return *d
	}
	return career.Date{}
}

// #endregion raceday

// #region lobby

func (a *Agent) handleLobby(frame *perception.Frame) {
	st := a.lobby.State
	a.lobby.UpdateState(frame)

	outcome, reason := a.lobby.ProcessTurn(frame)
	a.logDecision("lobby", string(a.lastScreen), string(outcome), reason)

	switch outcome {
	case scenario.OutcomeToRace:
		a.runRaceFromLobby(reason)
	case scenario.OutcomeToTraining:
		log.Printf("[lobby] goal=%q | energy=%d | skill_pts=%d | turn=%d | summer=%v | mood=%s | stats=%v",
			st.Goal, st.Energy, st.SkillPts, st.Turn, st.IsSummer, st.Mood, st.Stats.Current())
		a.handleTraining(false)
	case scenario.OutcomeTrainingReady:
		log.Printf("[lobby] Pre-check tile already clicked, waiting for confirm | reason=%s", reason)
		time.Sleep(1500 * time.Millisecond)
	}
}

// runRaceFromLobby parameterizes the race flow from the lobby reason marker.
func (a *Agent) runRaceFromLobby(reason string) {
	st := a.lobby.State
	upper := strings.ToUpper(reason)

	opts := race.RunOpts{EnsureNavigation: true, Reason: st.Goal}
	switch {
	case strings.Contains(upper, "G1"):
		opts.PrioritizeG1 = true
		opts.IsG1Goal = true
		opts.IsGoalRace = true
	case strings.Contains(upper, "PLAN"):
		opts.DesiredRaceName = st.PlannedRaceName
		opts.DateKey = st.DateKey()
		opts.PrioritizeG1 = a.preset.PrioritizeG1
		opts.Reason = "Planned race: " + st.PlannedRaceName
		log.Printf("[planned_race] attempting desired=%q key=%s skip=%v",
			st.PlannedRaceName, st.DateKey(), st.SkipRaceOnce)
	case strings.Contains(upper, "FANS"):
		opts.PrioritizeG1 = a.preset.PrioritizeG1
		opts.IsGoalRace = true
	}
	if style, apply := a.styleSchedule.ShouldApply(currentDate(st)); apply {
		opts.SelectStyle = style
	}

	out := a.raceFlow.Run(opts)
	if opts.SelectStyle != "" && a.raceFlow.StyleApplied() {
		a.styleSchedule.MarkApplied(opts.SelectStyle)
	}
	a.logDecision("race", string(a.lastScreen), string(out), opts.Reason)

	switch out {
	case race.Ok:
		st.MarkRacedToday(st.DateKey())
		if opts.DesiredRaceName != "" {
			log.Printf("[planned_race] completed desired=%q key=%s", opts.DesiredRaceName, st.DateKey())
			a.clearPlannedSkipRelease()
		}
	case race.Aborted:
	default:
		a.counters.CountSoftFail(string(out))
		log.Printf("[lobby] Couldn't race (%s). Backing out; set skip guard.", out)
		a.lobby.GoBack()
		st.SkipRaceOnce = true
		if opts.DesiredRaceName != "" {
			if err := a.planned.MarkSkipped(opts.DateKey, 2); err != nil {
				log.Printf("[planned_race] mark skipped failed: %v", err)
			}
			a.schedulePlannedSkipRelease()
		}
	}
}

// #endregion lobby

// #region training

// handleTraining scans the training screen, asks the policy for the action,
// and executes it. A failed race decision re-runs the policy once with the
// race option masked.
func (a *Agent) handleTraining(skipRace bool) {
	st := a.lobby.State
	scanner := a.lobby.Scanner()
	tiles, err := scanner.Scan()
	if err != nil || len(tiles) == 0 {
		log.Printf("[lobby] training scan empty: %v", err)
		return
	}
	rows := a.policy.Evaluator().Evaluate(tiles, st.Dates.Current(), st.Stats.Current())
	for _, r := range rows {
		log.Printf("[lobby] tile=%d stat=%s sv=%.2f fail=%d%% allowed=%v",
			r.TileIndex, r.Stat, r.Total, r.FailurePct, r.AllowedByRisk)
	}

	st.SkipRaceOnce = st.SkipRaceOnce || skipRace
	action := a.policy.ChooseTrainingAction(rows, st, a.preset, a.palNextEnergy())
	if skipRace {
		st.SkipRaceOnce = false
	}
	log.Printf("[lobby] training decision: %s (%s)", action.Kind, action.Reason)
	a.logDecision("training", string(perception.ScreenTraining), string(action.Kind), action.Reason)

	switch action.Kind {
	case scenario.ActionTrain:
		for _, t := range tiles {
			if t.Index == action.TileIndex {
				a.ctrl.Click(t.Box, 3)
				time.Sleep(5 * time.Second)
				return
			}
		}
		log.Printf("[lobby] Failed to click training tile idx=%d", action.TileIndex)

	case scenario.ActionRest:
		if !a.lobby.GoBack() {
			log.Printf("[lobby] couldn't return to lobby from training")
			return
		}
		a.lobby.GoRest("Resting...")

	case scenario.ActionRecreate:
		if !a.lobby.GoBack() {
			return
		}
		a.lobby.GoRecreate("Recreating...")

	case scenario.ActionRace:
		if !a.lobby.GoBack() {
			return
		}
		out := a.raceFlow.Run(race.RunOpts{
			EnsureNavigation: true,
			PrioritizeG1:     a.preset.PrioritizeG1,
			Reason:           "Training policy → race",
		})
		if out == race.Ok {
			st.MarkRacedToday(st.DateKey())
			return
		}
		if out == race.Aborted {
			return
		}
		a.counters.CountSoftFail(string(out))
		log.Printf("[lobby] Couldn't race from training policy; retrying decision without racing.")
		a.lobby.GoBack()
		st.SkipRaceOnce = true
		if !skipRace && a.lobby.GoTraining() {
			time.Sleep(1200 * time.Millisecond)
			a.handleTraining(true)
		}
	}
}

func (a *Agent) palNextEnergy() bool {
	return a.lobby.PalNextEnergy()
}

// #endregion training

// #region unity-screens

func (a *Agent) handleInspiration(frame *perception.Frame) {
	if ucp, ok := a.policy.(*scenario.UnityCupPolicy); ok {
		if ucp.MaybeClickGolden(a.ctrl, frame.Detections, a.patience, "inspiration", false) {
			return
		}
	}
	if det := perception.FindBest(frame.Detections, perception.ClassButtonGolden, 0.4); det != nil {
		a.ctrl.Click(det.Box, 1)
		return
	}
	if det := perception.FindBest(frame.Detections, perception.ClassEventInspiration, 0.4); det != nil {
		a.ctrl.Click(det.Box, 1)
	}
}

func (a *Agent) handleKashimoto(frame *perception.Frame) {
	ucp, ok := a.policy.(*scenario.UnityCupPolicy)
	if !ok {
		return
	}
	clicked := ucp.MaybeClickGolden(a.ctrl, frame.Detections, a.patience, "kashimoto", false)
	if !clicked {
		if det := perception.FindBest(frame.Detections, perception.ClassButtonGolden, 0.4); det != nil {
			a.ctrl.Click(det.Box, 1)
			clicked = true
		}
	}
	if clicked {
		time.Sleep(1500 * time.Millisecond)
		a.beginShowdown()
	}
}

// handleUnityRaceday enters the Unity Cup showdown: click the raceday card,
// wait for the opponent banners, pick the preset's slot, select, begin.
func (a *Agent) handleUnityRaceday(frame *perception.Frame) {
	ucp, ok := a.policy.(*scenario.UnityCupPolicy)
	if !ok {
		return
	}

	_, res := a.w.ClickWhen(waiter.Spec{
		Classes: []string{perception.ClassRaceDay},
		Texts:   []string{"Unity", "Cup"},
		Tag:     "unity_cup_race_day_button",
	})
	clicked := res == waiter.Ok
	if !clicked && a.patience >= scenario.FallbackPatienceStage1 {
		clicked = ucp.MaybeHandleRaceCard(a.ctrl, a.w, frame.Detections, a.patience, "unity_raceday", true)
	}
	if !clicked {
		a.patience++
		return
	}
	a.patience = 0

	time.Sleep(2 * time.Second)
	deadline := time.Now().Add(15 * time.Second)
	bannersSeen := false
	for time.Now().Before(deadline) {
		if a.stop.Requested() {
			return
		}
		if a.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassUnityOpponentBanner}, Tag: "unity_cup_wait_banner"}) {
			bannersSeen = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if !bannersSeen {
		log.Printf("[race] Unity opponent banners not detected within timeout")
		return
	}

	bframe, err := a.w.Snap("unity_cup_banners")
	if err != nil {
		return
	}
	banners := perception.Find(bframe.Detections, perception.ClassUnityOpponentBanner)
	if len(banners) == 0 {
		log.Printf("[race] No opponent banners detected")
		return
	}
	perception.SortTopToBottom(banners)
	if len(banners) > 3 {
		banners = banners[:3]
	}

	slot := ucp.OpponentSlot(a.lobby.State.Dates.Current())
	idx := slot - 1
	if idx >= len(banners) {
		idx = len(banners) - 1
	}
	a.ctrl.Click(banners[idx].Box, 1)
	log.Printf("[race] Clicked opponent banner slot=%d", idx+1)

	if _, res := a.w.ClickWhen(waiter.Spec{
		Classes: []string{perception.ClassButtonGreen},
		Texts:   []string{"SELECT", "OPPONENT"},
		OCROnly: true,
		Tag:     "unity_cup_click_button_green",
	}); res == waiter.Ok {
		time.Sleep(1500 * time.Millisecond)
		a.beginShowdown()
	} else {
		log.Printf("[race] opponent select button not found")
	}
}

// beginShowdown confirms the showdown and unwinds the result screens via the
// standard skip/NEXT sequence.
func (a *Agent) beginShowdown() {
	if _, res := a.w.ClickWhen(waiter.Spec{
		Classes: []string{perception.ClassButtonGreen},
		Texts:   []string{"BEGIN", "SHOWDOWN"},
		OCROnly: true,
		Tag:     "unity_cup_click_showdown",
	}); res != waiter.Ok {
		return
	}
	log.Printf("[race] Clicked begin showdown")
	time.Sleep(5 * time.Second)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if a.stop.Requested() {
			return
		}
		if a.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassRaceAfterNext}, Tag: "unity_cup_check_race_after_next"}) {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	a.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassRaceAfterNext},
		PreferBottom: true,
		Timeout:      3 * time.Second,
		Tag:          "unity_cup_race_after_next",
	})
	time.Sleep(3 * time.Second)
	a.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonSkip},
		PreferBottom: true,
		Timeout:      2 * time.Second,
		Clicks:       4,
		Tag:          "unity_cup_skip",
	})
	time.Sleep(2 * time.Second)
	a.w.ClickWhen(waiter.Spec{
		Classes: []string{perception.ClassButtonGreen},
		Texts:   []string{"NEXT"},
		Timeout: 2 * time.Second,
		Tag:     "unity_cup_next",
	})
}

// #endregion unity-screens

// #region final-claw

// handleFinal is the career end: one last skills pass, then reset the career
// memories so the next run starts clean.
func (a *Agent) handleFinal() error {
	if len(a.preset.Skills) > 0 && a.lobby.GoSkills() {
		time.Sleep(1 * time.Second)
		result := a.skillsFlow.Buy(a.preset.Skills, a.lobby.State.DateKey(), a.lobby.State.Turn)
		log.Printf("[agent] Final skills result: %s", result.Status)
	}
	log.Printf("[agent] Detected end of career")
	if err := a.skillMem.ResetCareer(); err != nil {
		log.Printf("[skill_memory] reset failed: %v", err)
	} else {
		log.Printf("[skill_memory] Reset after career completion")
	}
	if err := a.planned.ResetSkips(); err != nil {
		log.Printf("[planned_race] skip reset failed: %v", err)
	}
	return nil
}

func (a *Agent) handleClaw(frame *perception.Frame) {
	a.clawTurn++
	log.Printf("[agent] Claw machine detected, turn=%d", a.clawTurn)
	if a.clawTurn > 5 {
		return
	}
	if det := perception.FindBest(frame.Detections, perception.ClassButtonClaw, 0.5); det != nil {
		a.ctrl.Click(det.Box, 1)
	}
	time.Sleep(3 * time.Second)
}

// #endregion final-claw
