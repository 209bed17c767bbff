package skills

// #region imports
import (
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/memory"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region result

// Status is the tri-state exit of the skills flow.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusNoMatch    Status = "no_buy"
	StatusFailedExit Status = "exit_failed"
)

// Result is what the flow reports back to the scenario policy.
type Result struct {
	Status        Status
	Reason        string
	ClickedAny    bool
	ExitRecovered bool
}

// Bought reports whether a full BUY+confirm cycle completed.
func (r Result) Bought() bool { return r.Status == StatusSuccess }

// #endregion result

// #region flow

const (
	maxScrolls        = 15
	buyActiveFloor    = 0.55
	earlyStopPatience = 3
	ocrThreshold      = 0.75
)

// Flow drives the skills Learn view: scroll-scan, match titles, buy, confirm,
// return. It never reports Success unless the BUY clicks happened and the UI
// verifiably returned to Lobby or Raceday.
type Flow struct {
	ctrl    controller.Controller
	ocr     perception.OCR
	w       *waiter.Waiter
	matcher *Matcher
	mem     *memory.SkillMemory
	prober  perception.ActiveButtonProber
}

// NewFlow wires the skills flow. prober may be nil (every BUY counts active).
func NewFlow(ctrl controller.Controller, ocr perception.OCR, w *waiter.Waiter, matcher *Matcher, mem *memory.SkillMemory, prober perception.ActiveButtonProber) *Flow {
	if prober == nil {
		prober = perception.AlwaysActive{}
	}
	return &Flow{ctrl: ctrl, ocr: ocr, w: w, matcher: matcher, mem: mem, prober: prober}
}

// Buy runs the end-to-end buying pass over the allow list.
func (f *Flow) Buy(targets []string, dateKey string, turn int) Result {
	if len(targets) == 0 {
		log.Printf("[skills] No targets configured.")
		return Result{Status: StatusNoMatch, ExitRecovered: true}
	}
	log.Printf("[skills] Buying targets: %s", strings.Join(targets, ", "))

	// A double-circle target wants the upgrade buy too.
	desired := map[string]int{}
	purchased := map[string]int{}
	for _, t := range targets {
		if strings.Contains(t, string(memory.GradeDouble)) {
			desired[t] = 2
		} else {
			desired[t] = 1
		}
	}

	anyClicked := false
	patience := earlyStopPatience
	var prevSig []perception.SignatureItem
	var prevTitles []titleSig

	for i := 0; i < maxScrolls; i++ {
		clicked, frame, titles := f.scanAndClick(targets, desired, purchased, dateKey, turn)
		anyClicked = anyClicked || clicked

		curSig := perception.Signature(frameDets(frame))
		if !clicked && prevSig != nil &&
			perception.NearlySame(prevSig, curSig) && titlesOverlap(prevTitles, titles) {
			patience--
			log.Printf("[skills] Early stop (same view twice) patience -1.")
			if patience == 0 {
				log.Printf("[skills] Early stop buying.")
				break
			}
		} else {
			patience = earlyStopPatience
		}
		prevSig, prevTitles = curSig, titles

		if allSatisfied(targets, desired, purchased) {
			log.Printf("[skills] All target purchase counts satisfied.")
			break
		}
		f.scrollOnce(frame)
	}

	if anyClicked {
		log.Printf("[skills] Confirming purchases...")
		if f.confirmLearnCloseBack() {
			if f.lobbyOrRacedayVisible() || f.ensureExit(true) {
				return Result{Status: StatusSuccess, ClickedAny: true, ExitRecovered: true}
			}
			log.Printf("[skills] Unable to confirm exit after confirmation flow.")
			return Result{Status: StatusFailedExit, Reason: "no_exit", ClickedAny: true, ExitRecovered: false}
		}
		log.Printf("[skills] Confirmation flow failed; attempting recovery before returning control.")
		recovered := f.ensureExit(false)
		if !recovered {
			log.Printf("[skills] Unable to confirm exit after confirmation failure.")
		}
		return Result{
			Status:        StatusFailedExit,
			Reason:        "no_confirm",
			ClickedAny:    true,
			ExitRecovered: recovered,
		}
	}

	log.Printf("[skills] No matching skills found to buy.")
	recovered := f.ensureExit(true)
	if !recovered {
		log.Printf("[skills] Unable to confirm exit after no-buy flow.")
		return Result{Status: StatusFailedExit, Reason: "no_exit", ExitRecovered: false}
	}
	return Result{Status: StatusNoMatch, ExitRecovered: true}
}

func frameDets(frame *perception.Frame) []perception.Detection {
	if frame == nil {
		return nil
	}
	return frame.Detections
}

func allSatisfied(targets []string, desired, purchased map[string]int) bool {
	for _, t := range targets {
		if purchased[t] < desired[t] {
			return false
		}
	}
	return true
}

// #endregion flow

// #region scan

type titleSig struct {
	text string
	xBkt int
	yBkt int
}

// scanAndClick runs one pass over the visible list: OCR the title band of
// every skills_square that has an active BUY, match against the targets,
// click what qualifies.
func (f *Flow) scanAndClick(targets []string, desired, purchased map[string]int, dateKey string, turn int) (bool, *perception.Frame, []titleSig) {
	frame, err := f.w.Snap("skills_scan")
	if err != nil {
		log.Printf("[skills] scan snapshot failed: %v", err)
		return false, nil, nil
	}

	squares := perception.Find(frame.Detections, perception.ClassSkillsSquare)
	buys := perception.Find(frame.Detections, perception.ClassSkillsBuy)

	clickedAny := false
	var titles []titleSig

	for i := range squares {
		sq := &squares[i]
		buy := findBuyInside(sq, buys)
		if buy == nil {
			continue
		}
		if f.prober.ActiveProb(frame, buy.Box) < buyActiveFloor {
			continue
		}

		res, err := frame.ReadText(f.ocr, titleROI(sq.Box))
		if err != nil || res.Text == "" {
			continue
		}
		rawText := res.Text
		normText := perception.NormalizeText(perception.FixConfusions(rawText))
		if normText != "" {
			cx, cy := sq.Box.Center()
			titles = append(titles, titleSig{text: normText, xBkt: int(cx) / 8, yBkt: int(cy) / 8})
		}

		bestName, bestScore, bestReason := "", 0.0, MatchReason("no_match")
		for _, target := range targets {
			ok, reason, score := f.matcher.Evaluate(rawText, target, ocrThreshold)
			if ok && score > bestScore {
				bestName, bestScore, bestReason = target, score, reason
			}
		}
		if bestName == "" {
			continue
		}

		grade := memory.GradeFromText(bestName)
		if grade == "" {
			grade = memory.GradeFromText(rawText)
		}
		canon := memory.CanonicalSkillName(bestName)

		if err := f.mem.RecordSeen(canon, grade, dateKey); err != nil {
			log.Printf("[skills] record seen failed: %v", err)
		}

		if purchased[bestName] >= desired[bestName] {
			continue
		}
		if purchased[bestName] == 0 && grade != "" && f.mem.IsPurchased(canon, grade) {
			log.Printf("[skills] skipping '%s' grade='%s' (already purchased)", bestName, grade)
			continue
		}

		// Click slightly above center to counter scroll inertia.
		dy := buy.Box.Height() * 0.05
		if dy < 2 {
			dy = 2
		}
		f.ctrl.Click(buy.Box.ShiftY(-dy), 1)
		purchased[bestName]++
		if err := f.mem.MarkPurchased(canon, grade, dateKey, turn); err != nil {
			log.Printf("[skills] mark purchased failed: %v", err)
		}
		log.Printf("[skills] Clicked BUY for '%s' (score=%.2f reason=%s) [%d/%d]",
			bestName, bestScore, bestReason, purchased[bestName], desired[bestName])
		clickedAny = true
	}

	return clickedAny, frame, titles
}

func findBuyInside(sq *perception.Detection, buys []perception.Detection) *perception.Detection {
	for i := range buys {
		if buys[i].Box.Inside(sq.Box, 4) {
			return &buys[i]
		}
	}
	return nil
}

// titleROI crops the title line within a skills_square: skip the left icon,
// keep the top band, drop the right price column.
func titleROI(sq controller.Box) controller.Box {
	w, h := sq.Width(), sq.Height()
	return controller.Box{
		X1: sq.X1 + 0.10*w,
		Y1: sq.Y1 + 0.08*h,
		X2: sq.X2 - 0.25*w,
		Y2: sq.Y1 + 0.38*h,
	}
}

// titlesOverlap guards the early stop against scroll false-positives: two
// passes only count as the same view when enough of the visible titles
// reappear in the same coarse buckets.
func titlesOverlap(a, b []titleSig) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	const tol = 1
	used := make([]bool, len(b))
	matched := 0
	for _, at := range a {
		for j, bt := range b {
			if used[j] || at.text != bt.text {
				continue
			}
			if abs(at.xBkt-bt.xBkt) <= tol && abs(at.yBkt-bt.yBkt) <= tol {
				used[j] = true
				matched++
				break
			}
		}
	}
	return matched >= 2 && float64(matched) >= 0.6*float64(len(a))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (f *Flow) scrollOnce(frame *perception.Frame) {
	anchor := controller.Box{X1: 0, Y1: 0, X2: 0, Y2: 0}
	if frame != nil {
		if squares := perception.Find(frame.Detections, perception.ClassSkillsSquare); len(squares) > 0 {
			anchor = squares[0].Box
		} else if frame.Image != nil {
			b := frame.Image.Bounds()
			anchor = controller.Box{
				X1: float64(b.Dx()) * 0.4, Y1: float64(b.Dy()) * 0.5,
				X2: float64(b.Dx()) * 0.6, Y2: float64(b.Dy()) * 0.7,
			}
		}
	}
	f.ctrl.Scroll(anchor, -int(anchor.Height()*2))
	time.Sleep(120 * time.Millisecond)
}

// #endregion scan

// #region confirm-chain

// confirmLearnCloseBack runs Confirm → Learn → Close → Back; every step must
// land within its own timeout.
func (f *Flow) confirmLearnCloseBack() bool {
	if _, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonGreen},
		Texts:        []string{"CONFIRM"},
		PreferBottom: true,
		Timeout:      3 * time.Second,
		Tag:          "skills_flow_confirm",
	}); res != waiter.Ok {
		log.Printf("[skills] Confirm button not found")
		return false
	}
	time.Sleep(1 * time.Second)

	if _, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonGreen},
		Texts:        []string{"LEARN"},
		PreferBottom: true,
		Timeout:      1200 * time.Millisecond,
		Tag:          "skills_flow_learn",
	}); res != waiter.Ok {
		log.Printf("[skills] Learn button not found")
		return false
	}
	time.Sleep(2 * time.Second)

	if _, res := f.w.ClickWhen(waiter.Spec{
		Classes: []string{perception.ClassButtonWhite},
		Texts:   []string{"CLOSE"},
		OCROnly: true,
		Timeout: 2 * time.Second,
		Tag:     "skills_flow_close",
	}); res != waiter.Ok {
		log.Printf("[skills] Close button not found")
		return false
	}
	time.Sleep(1 * time.Second)

	if _, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonWhite},
		Texts:        []string{"BACK"},
		PreferBottom: true,
		Timeout:      1200 * time.Millisecond,
		Tag:          "skills_back",
	}); res != waiter.Ok {
		log.Printf("[skills] Back button not found")
		return false
	}
	time.Sleep(150 * time.Millisecond)
	return true
}

// ensureExit taps Back (and on recovery also CLOSE/OK) until a Lobby or
// Raceday marker is visible again. Bounded.
func (f *Flow) ensureExit(backOnly bool) bool {
	type target struct {
		class string
		texts []string
	}
	targets := []target{{perception.ClassButtonWhite, []string{"BACK"}}}
	if !backOnly {
		targets = append(targets,
			target{perception.ClassButtonWhite, []string{"CLOSE"}},
			target{perception.ClassButtonGreen, []string{"OK", "NEXT", "PROCEED"}},
		)
	}

	for attempt := 0; attempt < 3; attempt++ {
		for _, tgt := range targets {
			_, res := f.w.ClickWhen(waiter.Spec{
				Classes:      []string{tgt.class},
				Texts:        tgt.texts,
				PreferBottom: true,
				OCROnly:      true,
				Timeout:      1500 * time.Millisecond,
				Tag:          "skills_flow_exit_recovery",
			})
			if res == waiter.Ok {
				time.Sleep(600 * time.Millisecond)
				if f.lobbyOrRacedayVisible() {
					return true
				}
			}
			if res == waiter.Aborted {
				return false
			}
		}
	}
	return f.lobbyOrRacedayVisible()
}

func (f *Flow) lobbyOrRacedayVisible() bool {
	if f.w.SeenNow(waiter.Spec{
		Classes: []string{perception.ClassLobbyRaces, perception.ClassRaceDay},
		Tag:     "skills_exit_seen_lobby",
	}) {
		return true
	}
	return f.w.SeenNow(waiter.Spec{
		Classes:   []string{perception.ClassButtonGreen},
		Texts:     []string{"RACE", "NEXT"},
		Threshold: 0.5,
		Tag:       "skills_exit_seen_green",
	})
}

// #endregion confirm-chain
