package race

// #region imports
import (
	"log"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region outcome

// Outcome is the race flow's terminal state.
type Outcome string

const (
	Ok                     Outcome = "ok"
	NoRaceFound            Outcome = "no_race_found"
	NoPlannedMatch         Outcome = "no_planned_match"
	ButtonsMissing         Outcome = "buttons_missing"
	ConsecutiveRaceRefused Outcome = "consecutive_race_refused"
	LossLoop               Outcome = "loss_loop"
	Aborted                Outcome = "aborted"
)

// Recoverable reports whether the caller should back out to Lobby and keep
// training rather than escalate.
func (o Outcome) Recoverable() bool {
	switch o {
	case NoRaceFound, NoPlannedMatch, ButtonsMissing, ConsecutiveRaceRefused:
		return true
	default:
		return false
	}
}

// #endregion outcome

// #region flow

// lossRetryBound caps TRY AGAIN uses per flow invocation; the second loss
// ends the flow with LossLoop.
const lossRetryBound = 1

// Flow drives the complete raceday routine: enter the Raceday view, resolve
// the target square, run the race, and unwind the post-race screens,
// retrying a lost goal race when configured.
type Flow struct {
	ctrl   controller.Controller
	ocr    perception.OCR
	w      *waiter.Waiter
	races  *catalog.RaceIndex
	prober perception.ActiveButtonProber

	AcceptConsecutiveRace bool
	TryAgainOnFailedGoal  bool

	counters map[string]int

	// styleApplied records whether the last Run's SetStrategy step actually
	// selected and confirmed a style; the race can still finish Ok when the
	// strategy dialog never opened.
	styleApplied bool
}

// StyleApplied reports whether the last Run confirmed its requested style.
func (f *Flow) StyleApplied() bool { return f.styleApplied }

// NewFlow wires a race flow. prober may be nil.
func NewFlow(ctrl controller.Controller, ocr perception.OCR, w *waiter.Waiter, races *catalog.RaceIndex, prober perception.ActiveButtonProber) *Flow {
	if prober == nil {
		prober = perception.AlwaysActive{}
	}
	return &Flow{
		ctrl:                  ctrl,
		ocr:                   ocr,
		w:                     w,
		races:                 races,
		prober:                prober,
		AcceptConsecutiveRace: true,
		TryAgainOnFailedGoal:  true,
		counters:              map[string]int{},
	}
}

// RunOpts parameterizes one raceday invocation.
type RunOpts struct {
	PrioritizeG1 bool
	IsG1Goal     bool
	IsGoalRace   bool

	DesiredRaceName string
	DateKey         string

	SelectStyle career.Style

	EnsureNavigation bool
	FromRaceday      bool // already inside Raceday: penalty popup is always accepted
	Reason           string
}

// Run executes the raceday state machine.
func (f *Flow) Run(opts RunOpts) Outcome {
	f.styleApplied = false
	log.Printf("[race] RaceDay begin (prioritize_g1=%v, is_g1_goal=%v) reason=%q",
		opts.PrioritizeG1, opts.IsG1Goal, opts.Reason)

	if opts.EnsureNavigation {
		switch out := f.ensureInRaceday(opts); out {
		case Ok:
		case ConsecutiveRaceRefused:
			log.Printf("[race] Consecutive race refused; returning to caller.")
			return ConsecutiveRaceRefused
		default:
			return out
		}
	}

	time.Sleep(2 * time.Second)

	square, needClick, out := f.pickRaceSquare(opts)
	if out != Ok {
		return out
	}
	if needClick {
		f.ctrl.Click(square.Box, 1)
		time.Sleep(200 * time.Millisecond)
		log.Printf("[race] Clicked race square")
	}

	// Green RACE on the list; the forbid guard keeps the click off the
	// adjacent buttons that OCR-read close to it.
	if _, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonGreen},
		Texts:        []string{"RACE"},
		ForbidTexts:  []string{"TRY AGAIN", "CANCEL"},
		PreferBottom: true,
		Timeout:      2 * time.Second,
		Tag:          "race_list_race",
	}); res != waiter.Ok {
		if res == waiter.Aborted {
			return Aborted
		}
		log.Printf("[race] couldn't find green 'Race' button (list).")
		return NoRaceFound
	}

	// Confirmation popup appears reactively; click it as soon as it renders,
	// bail once the pre-race lobby shows.
	time.Sleep(1200 * time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if f.w.StopRequested() {
			return Aborted
		}
		if f.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassButtonChange}, Tag: "race_pre_lobby_seen_early"}) {
			break
		}
		if _, res := f.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonGreen},
			Texts:        []string{"RACE"},
			PreferBottom: true,
			Timeout:      1 * time.Second,
			Tag:          "race_popup_confirm_try",
		}); res == waiter.Ok {
			log.Printf("[race] Clicked green 'Race' button (popup) confirmation")
			time.Sleep(200 * time.Millisecond)
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Pre-lobby gate: the strategy-change affordance is the entry signal.
	if out := f.preLobbyGate(); out != Ok {
		return out
	}

	if opts.SelectStyle != "" {
		log.Printf("[race] Setting style: %s", opts.SelectStyle)
		f.styleApplied = f.setStrategy(opts.SelectStyle)
		if !f.styleApplied {
			log.Printf("[race] Style %s not confirmed; leaving schedule entry pending", opts.SelectStyle)
		}
		time.Sleep(3 * time.Second)
	}

	return f.postRaceLobby(opts, lossRetryBound)
}

// #endregion flow

// #region ensure-raceday

// ensureInRaceday is idempotent: from Lobby it clicks through to the Raceday
// list, tolerating the consecutive-race penalty popup along the way.
func (f *Flow) ensureInRaceday(opts RunOpts) Outcome {
	if frame, err := f.w.Snap("race_nav_probe"); err == nil {
		if len(perception.Find(frame.Detections, perception.ClassRaceSquare)) > 0 {
			return Ok
		}
	}
	if opts.Reason != "" {
		log.Printf("[race] Looking for race buttons: %s", opts.Reason)
	}

	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassLobbyRaces, perception.ClassRaceDay},
		PreferBottom: true,
		Timeout:      2500 * time.Millisecond,
		Tag:          "race_nav_from_lobby",
	})
	if res == waiter.Aborted {
		return Aborted
	}
	if res != waiter.Ok {
		return NoRaceFound
	}

	log.Printf("[race] Clicked 'RACES'. Fast-probing for squares vs penalty popup…")
	deadline := time.Now().Add(2200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if f.w.StopRequested() {
			log.Printf("[race] Abort requested during nav to Raceday.")
			return Aborted
		}
		if f.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassRaceSquare}, Tag: "race_nav_seen_squares"}) {
			return Ok
		}
		if f.w.SeenNow(waiter.Spec{
			Classes: []string{perception.ClassButtonGreen},
			Texts:   []string{"OK"},
			Tag:     "race_nav_penalty_seen",
		}) {
			// FromRaceday forces acceptance: there is no other way forward.
			if !f.AcceptConsecutiveRace && !opts.FromRaceday {
				log.Printf("[race] Consecutive race detected and refused by settings.")
				return ConsecutiveRaceRefused
			}
			f.w.ClickWhen(waiter.Spec{
				Classes: []string{perception.ClassButtonGreen},
				Texts:   []string{"OK"},
				OCROnly: true,
				Timeout: 500 * time.Millisecond,
				Tag:     "race_nav_penalty_ok_click",
			})
			log.Printf("[race] Consecutive race. Accepted penalization per settings.")
		}
		time.Sleep(120 * time.Millisecond)
	}
	if f.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassRaceSquare}, Tag: "race_nav_seen_final"}) {
		return Ok
	}
	return NoRaceFound
}

// #endregion ensure-raceday

// #region pre-lobby-gate

func (f *Flow) preLobbyGate() Outcome {
	log.Printf("[race] Waiting for race lobby to appear")
	time.Sleep(7 * time.Second)
	deadline := time.Now().Add(14 * time.Second)
	for time.Now().Before(deadline) {
		if f.w.StopRequested() {
			log.Printf("[race] Abort requested while waiting for pre-race lobby.")
			return Aborted
		}
		if f.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassButtonChange}, Tag: "race_pre_lobby_gate"}) {
			return Ok
		}
		time.Sleep(150 * time.Millisecond)
	}
	return ButtonsMissing
}

// #endregion pre-lobby-gate
