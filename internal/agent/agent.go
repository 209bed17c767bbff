package agent

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/abort"
	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/events"
	"github.com/danielpatrickdp/careerpilot/internal/logging"
	"github.com/danielpatrickdp/careerpilot/internal/memory"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/race"
	"github.com/danielpatrickdp/careerpilot/internal/scenario"
	"github.com/danielpatrickdp/careerpilot/internal/skills"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region errors

// ErrStalled is the fatal stall condition: too many consecutive no-op ticks.
var ErrStalled = errors.New("agent stalled: patience exceeded with no progress")

// ErrAborted is the hotkey/signal stop.
var ErrAborted = errors.New("agent aborted by stop request")

// #endregion errors

// #region agent

const (
	unknownRelaxAfter = 3  // consecutive Unknown ticks before relaxed mode
	stallLimit        = 40 // consecutive no-op ticks before the fatal stall

	singleEventOptionThreshold = 5
)

// Agent is the top-level tick loop: perceive → classify → dispatch → act →
// update memory. Single-owner: all memory mutation happens on this loop.
type Agent struct {
	ctrl   controller.Controller
	ocr    perception.OCR
	w      *waiter.Waiter
	policy scenario.Policy
	lobby  *scenario.LobbyFlow

	skillsFlow *skills.Flow
	raceFlow   *race.Flow
	eventFlow  *events.Flow

	store    *memory.Store
	skillMem *memory.SkillMemory
	planned  *memory.PlannedRaces

	cfgStore *config.Store
	preset   *config.Preset
	general  config.General

	stop     *abort.Flag
	counters *logging.Counters

	styleSchedule *career.StyleSchedule

	tick     int
	patience int

	// Raceday skill-check gating
	lastSkillPtsSeen int
	haveSkillPtsSeen bool
	lastSkillBuyOK   bool
	firstRaceDay     bool

	// EventStale pacing
	singleEventCounter    int
	consecutiveStaleClick int
	forceUnknownOnce      bool

	// Planned-race skip release
	skipReleasePending  bool
	skipReleaseKey      string
	skipReleaseCooldown int

	clawTurn int

	lastScreen perception.Screen
}

// Deps bundles the collaborators New wires together.
type Deps struct {
	Ctrl       controller.Controller
	OCR        perception.OCR
	Waiter     *waiter.Waiter
	Policy     scenario.Policy
	Lobby      *scenario.LobbyFlow
	SkillsFlow *skills.Flow
	RaceFlow   *race.Flow
	EventFlow  *events.Flow
	Store      *memory.Store
	SkillMem   *memory.SkillMemory
	Planned    *memory.PlannedRaces
	CfgStore   *config.Store
	Preset     *config.Preset
	General    config.General
	Stop       *abort.Flag
}

// New assembles the agent.
func New(d Deps) *Agent {
	if d.Stop == nil {
		d.Stop = &abort.Shared
	}
	return &Agent{
		ctrl: d.Ctrl, ocr: d.OCR, w: d.Waiter,
		policy: d.Policy, lobby: d.Lobby,
		skillsFlow: d.SkillsFlow, raceFlow: d.RaceFlow, eventFlow: d.EventFlow,
		store: d.Store, skillMem: d.SkillMem, planned: d.Planned,
		cfgStore: d.CfgStore, preset: d.Preset, general: d.General,
		stop:     d.Stop,
		counters: logging.NewCounters(),
		styleSchedule: career.NewStyleSchedule(
			career.Style(d.Preset.JuniorStyle), d.Preset.StyleScheduleEntries()),
		firstRaceDay: true,
	}
}

// Counters exposes the observability tallies.
func (a *Agent) Counters() *logging.Counters { return a.counters }

// #endregion agent

// #region run

// Run executes the career loop until career end, stall, or stop request.
// Persisted memories are write-through, so there is nothing extra to flush on
// exit beyond the final log line.
func (a *Agent) Run(delay time.Duration, maxIterations int) error {
	a.refreshSkillMemory()

	for {
		if a.stop.Requested() {
			log.Printf("[agent] Abort requested; exiting main loop immediately. last_screen=%s", a.lastScreen)
			return ErrAborted
		}
		if maxIterations > 0 && a.tick >= maxIterations {
			return nil
		}
		time.Sleep(delay)
		a.tick++

		if a.cfgStore != nil {
			a.cfgStore.MaybeReload()
		}

		frame, err := a.w.Snap("screen")
		if err != nil {
			log.Printf("[agent] capture/detect failed: %v", err)
			a.patience++
			if a.patience >= stallLimit {
				return fmt.Errorf("%w (perception unreachable)", ErrStalled)
			}
			continue
		}

		relaxed := a.patience >= unknownRelaxAfter
		cls := a.policy.Classify(frame.Detections, relaxed)
		if cls.Relaxed {
			a.counters.CountRelaxed(string(cls.Screen))
		}
		a.lastScreen = cls.Screen

		if err := a.planned.Tick(); err != nil {
			log.Printf("[planned_race] tick failed: %v", err)
		}
		a.tickSkipRelease()

		if a.forceUnknownOnce {
			log.Printf("[event] Forcing Unknown screen behavior to break EventStale loop.")
			cls.Screen = perception.ScreenUnknown
			a.forceUnknownOnce = false
		}

		done, err := a.dispatch(cls, frame)
		if err != nil {
			log.Printf("[agent] fatal: %v (last_screen=%s)", err, cls.Screen)
			return err
		}
		if done {
			return nil
		}
	}
}

// dispatch routes one classified frame to its handler. done=true ends the
// loop cleanly (career finished).
func (a *Agent) dispatch(cls perception.Classification, frame *perception.Frame) (bool, error) {
	switch cls.Screen {
	case perception.ScreenUnknown:
		a.singleEventCounter = 0
		return false, a.handleUnknown(frame)
	case perception.ScreenEventStale:
		a.clawTurn = 0
		a.handleEventStale(frame)
	case perception.ScreenEvent:
		a.clawTurn = 0
		a.patience = 0
		a.singleEventCounter = 0
		a.consecutiveStaleClick = 0
		a.handleEvent(frame)
	case perception.ScreenTraining:
		a.clawTurn = 0
		a.patience = 0
		// Landed here without a decision: back out to the lobby.
		a.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonWhite, perception.ClassRaceAfterNext},
			Texts:        []string{"BACK"},
			PreferBottom: true,
			Timeout:      1 * time.Second,
			Tag:          "screen_training_directly",
		})
	case perception.ScreenInspiration:
		a.patience = 0
		a.clawTurn = 0
		a.handleInspiration(frame)
	case perception.ScreenKashimotoTeam:
		a.patience = 0
		a.clawTurn = 0
		a.handleKashimoto(frame)
	case perception.ScreenRaceday:
		a.patience = 0
		a.clawTurn = 0
		a.handleRaceday(frame)
	case perception.ScreenUnityRaceday:
		a.handleUnityRaceday(frame)
	case perception.ScreenLobby, perception.ScreenLobbySummer:
		a.patience = 0
		a.clawTurn = 0
		a.handleLobby(frame)
	case perception.ScreenFinal:
		return true, a.handleFinal()
	case perception.ScreenClawMachine:
		a.handleClaw(frame)
	case perception.ScreenRaceLobby:
		// Race lobby without context: the race flow's post-race handler owns
		// this; give the UI a beat and let the next tick reclassify.
		time.Sleep(1 * time.Second)
	}
	return false, nil
}

// #endregion run

// #region unknown

// handleUnknown advances generic interstitials and escalates patience. The
// forbid list keeps the blind click off anything that would end the career
// or start a race.
func (a *Agent) handleUnknown(frame *perception.Frame) error {
	if ucp, ok := a.policy.(*scenario.UnityCupPolicy); ok && a.patience >= scenario.FallbackPatienceStage1 {
		if ucp.HandleUnknownLowConf(a.ctrl, a.w, frame.Detections, a.patience) {
			log.Printf("[classifier] Unknown screen resolved via low-confidence fallback (patience=%d)", a.patience)
			a.patience = 0
			return nil
		}
	}

	threshold := 0.65
	if a.patience > 20 {
		threshold = 0.55
	}
	_, res := a.w.ClickWhen(waiter.Spec{
		Classes:     []string{perception.ClassButtonGreen, perception.ClassRaceAfterNext, perception.ClassButtonWhite},
		Texts:       []string{"NEXT", "OK", "CLOSE", "PROCEED", "CANCEL"},
		ForbidTexts: []string{"complete", "career", "RACE", "try again"},
		OCROnly:     true,
		Threshold:   threshold,
		Timeout:     400 * time.Millisecond,
		Tag:         "agent_unknown_advance",
	})
	if res == waiter.Ok {
		a.patience = 0
		return nil
	}
	if res == waiter.Aborted {
		return ErrAborted
	}
	a.patience++
	if a.patience >= unknownRelaxAfter {
		log.Printf("[classifier] patience=%d → relaxed thresholds enabled for next tick", a.patience)
	}
	if a.patience >= stallLimit {
		return ErrStalled
	}
	return nil
}

// handleEventStale paces the slow-rendering single-option dialog, breaking
// suspected loops by forcing one Unknown pass and then a green fallback.
func (a *Agent) handleEventStale(frame *perception.Frame) {
	switch {
	case a.consecutiveStaleClick == 2:
		log.Printf("[event] EventStale loop detected (2 consecutive clicks). Forcing Unknown handler next tick.")
		a.forceUnknownOnce = true
		a.consecutiveStaleClick++
		return
	case a.consecutiveStaleClick >= 4:
		log.Printf("[event] EventStale loop persists (4+ clicks). Attempting button_green fallback.")
		a.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonGreen},
			Texts:        []string{"NEXT", "OK", "CLOSE", "PROCEED"},
			PreferBottom: true,
			Timeout:      500 * time.Millisecond,
			Tag:          "event_stale_fallback",
		})
		a.consecutiveStaleClick = 0
		a.singleEventCounter = 0
		return
	}

	choices := perception.FilterByClasses(frame.Detections, []string{perception.ClassEventChoice}, 0.60)
	if len(choices) != 1 {
		a.singleEventCounter = 0
		return
	}
	a.singleEventCounter++
	log.Printf("[event] EventStale: single option detected (%d/%d). Waiting for more options to render...",
		a.singleEventCounter, singleEventOptionThreshold)
	if a.singleEventCounter >= singleEventOptionThreshold {
		log.Printf("[event] EventStale: threshold reached. Clicking the only available option.")
		a.ctrl.Click(choices[0].Box, 1)
		a.singleEventCounter = 0
		a.consecutiveStaleClick++
	}
}

// #endregion unknown

// #region event

func (a *Agent) handleEvent(frame *perception.Frame) {
	time.Sleep(500 * time.Millisecond)
	energy := scenario.ExtractEnergyPct(frame, a.ocr)
	if energy >= 0 {
		a.lobby.State.Energy = energy
	}
	out := a.eventFlow.Process(frame, energy, 100)
	a.logDecision("event", string(a.lastScreen), "pick", fmt.Sprintf("option=%d matched=%s", out.Pick, out.MatchedKeyStep))
}

// #endregion event

// #region memory-alignment

// refreshSkillMemory keeps the persisted skill memory aligned with the live
// run identity, resetting it when a different career is detected.
func (a *Agent) refreshSkillMemory() {
	dateKey := a.lobby.State.DateKey()
	dateIdx := -1
	if d := a.lobby.State.Dates.Current(); d != nil {
		dateIdx = d.Index()
	}
	if err := a.skillMem.EnsureCompatibleRun(a.preset.ID, dateKey, dateIdx); err != nil {
		log.Printf("[skill_memory] alignment failed: %v", err)
	}
}

// #endregion memory-alignment

// #region skip-release

// schedulePlannedSkipRelease arms the delayed release of the one-shot race
// skip guard after a planned-race failure.
func (a *Agent) schedulePlannedSkipRelease() {
	a.skipReleasePending = true
	a.skipReleaseKey = a.lobby.State.DateKey()
	if a.skipReleaseCooldown < 2 {
		a.skipReleaseCooldown = 2
	}
	log.Printf("[planned_race] scheduled skip reset key=%s cooldown=%d",
		a.skipReleaseKey, a.skipReleaseCooldown)
}

func (a *Agent) clearPlannedSkipRelease() {
	if a.skipReleasePending {
		log.Printf("[planned_race] cleared pending skip reset key=%s", a.skipReleaseKey)
	}
	a.skipReleasePending = false
	a.skipReleaseKey = ""
	a.skipReleaseCooldown = 0
}

func (a *Agent) tickSkipRelease() {
	if !a.skipReleasePending {
		return
	}
	if !a.lobby.State.SkipRaceOnce {
		a.clearPlannedSkipRelease()
		return
	}
	if a.skipReleaseCooldown > 0 {
		a.skipReleaseCooldown--
		return
	}
	currentKey := a.lobby.State.DateKey()
	if a.skipReleaseKey != "" && currentKey != "" && currentKey != a.skipReleaseKey {
		log.Printf("[planned_race] date advanced (%s -> %s); releasing skip guard",
			a.skipReleaseKey, currentKey)
	} else {
		log.Printf("[planned_race] releasing skip guard for key=%s", currentKey)
	}
	a.lobby.State.SkipRaceOnce = false
	a.clearPlannedSkipRelease()
}

// #endregion skip-release

// #region decision-log

func (a *Agent) logDecision(handler, screen, decision, reason string) {
	detail, _ := json.Marshal(map[string]any{
		"energy": a.lobby.State.Energy,
		"turn":   a.lobby.State.Turn,
	})
	err := logging.LogDecision(a.store.DB(), logging.DecisionEntry{
		Tick:       a.tick,
		Screen:     screen,
		Handler:    handler,
		Decision:   decision,
		Reason:     reason,
		DateKey:    a.lobby.State.DateKey(),
		DetailJSON: string(detail),
	})
	if err != nil {
		log.Printf("[agent] decision log failed: %v", err)
	}
}

// #endregion decision-log
