package race

// #region imports
import (
	"log"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region post-race-lobby

// postRaceLobby handles the lobby where 'View Results' (white) and 'Race'
// (green) appear, runs the skip loop, and resolves a loss into a bounded
// retry. retriesLeft counts remaining TRY AGAIN uses.
func (f *Flow) postRaceLobby(opts RunOpts, retriesLeft int) Outcome {
	viewBtn, viewFrame := f.findViewResults()
	if viewBtn == nil && viewFrame == nil {
		log.Printf("[race] View Results button not found after retries. Cannot determine lobby state.")
		return ButtonsMissing
	}

	viewActive := false
	if viewBtn != nil {
		p := f.prober.ActiveProb(viewFrame, viewBtn.Box)
		viewActive = p >= 0.51
		log.Printf("[race] View Results active probability: %.3f", p)
	}

	if viewActive {
		// Tap through residual result screens.
		f.ctrl.Click(viewBtn.Box, 2)
		time.Sleep(3 * time.Second)
		f.ctrl.Click(viewBtn.Box, 3)
		time.Sleep(400 * time.Millisecond)
	} else {
		if out := f.startRaceFromLobby(); out != Ok {
			return out
		}
		f.skipLoop()
	}

	lossSeen := f.w.SeenNow(waiter.Spec{
		Classes:   []string{perception.ClassButtonGreen},
		Texts:     []string{"TRY AGAIN"},
		Threshold: 0.62,
		Tag:       "race_try_again_probe",
	})
	if lossSeen {
		f.counters["loss_indicators"]++
		log.Printf("[race] Loss indicator detected (toggle=%v) | counters=%v",
			f.TryAgainOnFailedGoal, f.counters)
	}

	shouldRetry := f.TryAgainOnFailedGoal && opts.IsGoalRace && lossSeen
	if shouldRetry && retriesLeft <= 0 {
		log.Printf("[race] Loss retry bound exhausted | counters=%v", f.counters)
		f.continueWithoutRetry()
		return LossLoop
	}

	if shouldRetry && f.attemptTryAgain() {
		log.Printf("[race] Lost the race, trying again.")
		f.handleRetryTransition()
		return f.postRaceLobby(opts, retriesLeft-1)
	}

	if lossSeen && !shouldRetry {
		f.counters["retry_skipped"]++
		log.Printf("[race] Retry disabled despite loss indicator | counters=%v", f.counters)
	}
	if !lossSeen {
		f.counters["wins_or_no_loss"]++
	}

	f.continueWithoutRetry()
	log.Printf("[race] RaceDay flow finished.")
	return Ok
}

// findViewResults retries with progressive delays; nil button with non-nil
// frame means "lobby visible but no View Results", which the caller treats
// as the green-RACE path.
func (f *Flow) findViewResults() (*perception.Detection, *perception.Frame) {
	delays := []time.Duration{0, 2 * time.Second, 3 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, delay := range delays {
		if delay > 0 {
			log.Printf("[race] No view result button found, waiting %s more (attempt %d/%d)...",
				delay, i, len(delays)-1)
			time.Sleep(delay)
		}
		frame, err := f.w.Snap("race_view_btn")
		if err != nil {
			continue
		}
		whites := perception.Find(frame.Detections, perception.ClassButtonWhite)
		var best *perception.Detection
		bestScore := 0.0
		for j := range whites {
			res, err := frame.ReadText(f.ocr, whites[j].Box)
			if err != nil || res.Text == "" {
				continue
			}
			score := perception.FuzzyRatio(res.Text, "VIEW RESULTS")
			if s2 := perception.FuzzyRatio(res.Text, "VIEW RESULT"); s2 > score {
				score = s2
			}
			if score > bestScore && score > 0.5 {
				best, bestScore = &whites[j], score
			}
		}
		if best != nil {
			if i > 0 {
				log.Printf("[race] View button found after %d retry attempt(s)", i)
			}
			return best, frame
		}
		if len(perception.Find(frame.Detections, perception.ClassButtonGreen)) > 0 {
			return nil, frame
		}
	}
	return nil, nil
}

// startRaceFromLobby clicks green RACE with the reactive double-confirm
// dance, waiting for the skip buttons that mark the transition into the race.
func (f *Flow) startRaceFromLobby() Outcome {
	if _, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonGreen},
		Texts:        []string{"RACE"},
		PreferBottom: true,
		Timeout:      6 * time.Second,
		Tag:          "race_lobby_race_click",
	}); res != waiter.Ok {
		if res == waiter.Aborted {
			return Aborted
		}
		log.Printf("[race] Race button not found after ~6s of retries. Aborting race operation.")
		return ButtonsMissing
	}
	time.Sleep(5 * time.Second)
	f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonGreen},
		Texts:        []string{"RACE"},
		PreferBottom: true,
		Timeout:      2 * time.Second,
		Tag:          "race_lobby_race_click_just_in_case",
	})

	seenSkip := false
	deadline := time.Now().Add(12 * time.Second)
	for time.Now().Before(deadline) {
		if f.w.StopRequested() {
			return Aborted
		}
		if _, res := f.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonGreen},
			Texts:        []string{"RACE", "NEXT"},
			PreferBottom: true,
			Timeout:      300 * time.Millisecond,
			Tag:          "race_lobby_race_confirm_try",
		}); res == waiter.Ok {
			log.Printf("[race] Clicked RACE confirmation")
			time.Sleep(500 * time.Millisecond)
		}
		if f.w.SeenNow(waiter.Spec{Classes: []string{perception.ClassButtonSkip}, Tag: "race_lobby_seen_skip"}) {
			seenSkip = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Printf("[race] Seen skip buttons: %v", seenSkip)
	if !seenSkip {
		if _, res := f.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonGreen},
			Texts:        []string{"RACE", "NEXT"},
			PreferBottom: true,
			Timeout:      6 * time.Second,
			Tag:          "race_lobby_race_click_retry",
		}); res != waiter.Ok {
			if res == waiter.Aborted {
				return Aborted
			}
			log.Printf("[race] Race button not found after ~6s of retries. Aborting race operation.")
			return ButtonsMissing
		}
	}
	time.Sleep(4 * time.Second)
	return Ok
}

// skipLoop greedily presses skip while present; stops on CLOSE or once NEXT
// shows after a few skips.
func (f *Flow) skipLoop() {
	log.Printf("[race] Starting skip loop")
	closedEarly := false
	skipClicks := 0
	started := time.Now()
	total := 12 * time.Second
	for time.Since(started) < total {
		if f.w.StopRequested() {
			return
		}
		if _, res := f.w.ClickWhen(waiter.Spec{
			Classes: []string{perception.ClassButtonWhite},
			Texts:   []string{"CLOSE"},
			Timeout: 300 * time.Millisecond,
			Tag:     "race_trophy_try_close",
		}); res == waiter.Ok {
			closedEarly = true
			log.Printf("[race] Clicked close Trophy button")
			break
		}
		if skipClicks > 2 && f.w.SeenNow(waiter.Spec{
			Classes: []string{perception.ClassButtonGreen},
			MinConf: 0.65,
			Tag:     "race_skip_probe_next",
		}) {
			log.Printf("[race] Seen next button while looking for skip, breaking to click it")
			break
		}
		if _, res := f.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonSkip},
			PreferBottom: true,
			Timeout:      1 * time.Second,
			Clicks:       4,
			Tag:          "race_skip_try",
		}); res == waiter.Ok {
			log.Printf("[race] Clicked skip button")
			skipClicks++
			total += 2 * time.Second
			continue
		}
		time.Sleep(120 * time.Millisecond)
	}
	if !closedEarly {
		log.Printf("[race] Looking for CLOSE button.")
		f.w.ClickWhen(waiter.Spec{
			Classes: []string{perception.ClassButtonWhite},
			Texts:   []string{"CLOSE"},
			OCROnly: true,
			Timeout: 3 * time.Second,
			Tag:     "race_trophy",
		})
	}
}

// continueWithoutRetry walks the post-race NEXT sequence.
func (f *Flow) continueWithoutRetry() {
	log.Printf("[race] Looking for button_green 'Next' button. Shown after race.")
	f.w.ClickWhen(waiter.Spec{
		Classes:     []string{perception.ClassButtonGreen},
		Texts:       []string{"NEXT"},
		ForbidTexts: []string{"TRY AGAIN"},
		OCROnly:     true,
		Timeout:     4600 * time.Millisecond,
		Clicks:      3,
		Tag:         "race_after_flow_next",
	})
	log.Printf("[race] Looking for race_after_next special button.")
	f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassRaceAfterNext},
		Texts:        []string{"NEXT"},
		PreferBottom: true,
		Timeout:      6 * time.Second,
		Clicks:       3,
		Tag:          "race_after",
	})
}

// #endregion post-race-lobby

// #region loss-retry

// attemptTryAgain clicks TRY AGAIN once a loss was confirmed. Consumes an
// in-game resource, so the forbid guard keeps it off RACE/NEXT.
func (f *Flow) attemptTryAgain() bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.w.StopRequested() {
			return false
		}
		det, res := f.w.ClickWhen(waiter.Spec{
			Classes:     []string{perception.ClassButtonGreen},
			Texts:       []string{"TRY AGAIN"},
			ForbidTexts: []string{"RACE", "NEXT"},
			OCROnly:     true,
			Timeout:     300 * time.Millisecond,
			Tag:         "race_try_again_try",
		})
		if res == waiter.Ok {
			f.counters["retry_clicks"]++
			y := -1.0
			if det != nil {
				y = det.Box.CenterY()
			}
			log.Printf("[race] TRY AGAIN clicked (y_center=%.1f) | counters=%v", y, f.counters)
			return true
		}
		time.Sleep(120 * time.Millisecond)
	}
	log.Printf("[race] TRY AGAIN not clicked before timeout | counters=%v", f.counters)
	return false
}

// handleRetryTransition clears the alarm-clock confirmation dialogs and
// waits until the lobby buttons reappear.
func (f *Flow) handleRetryTransition() {
	log.Printf("[race] Handling retry transition interstitials.")
	confirmTexts := []string{"USE", "USE ITEM", "TRY AGAIN", "RACE", "YES", "OK", "CONFIRM"}
	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		if f.w.StopRequested() {
			return
		}
		if _, clicked := f.w.TryClickOnce(waiter.Spec{
			Classes:     []string{perception.ClassButtonGreen},
			Texts:       confirmTexts,
			ForbidTexts: []string{"NEXT"},
			OCROnly:     true,
			Tag:         "race_try_again_confirm",
		}); clicked {
			log.Printf("[race] Clicked retry interstitial confirmation.")
			time.Sleep(450 * time.Millisecond)
			continue
		}
		if f.w.SeenNow(waiter.Spec{
			Classes: []string{perception.ClassButtonWhite},
			Texts:   []string{"VIEW RESULTS"},
			Tag:     "race_retry_view_results_ready",
		}) {
			log.Printf("[race] View Results ready after retry.")
			return
		}
		if f.w.SeenNow(waiter.Spec{
			Classes: []string{perception.ClassButtonGreen},
			Texts:   []string{"RACE"},
			Tag:     "race_retry_race_ready",
		}) {
			log.Printf("[race] Race button ready after retry.")
			return
		}
		time.Sleep(350 * time.Millisecond)
	}
	log.Printf("[race] Retry transition timed out; continuing anyway.")
}

// #endregion loss-retry

// #region strategy

// setStrategy opens the Change Strategy modal and selects the running style,
// then confirms. Style buttons lay out End/Late/Pace/Front left to right.
func (f *Flow) setStrategy(style career.Style) bool {
	frame, err := f.w.Snap("change_style")
	if err != nil {
		return false
	}
	changes := perception.Find(frame.Detections, perception.ClassButtonChange)
	if len(changes) != 1 {
		return false
	}
	f.ctrl.Click(changes[0].Box, 1)
	time.Sleep(1200 * time.Millisecond)

	if !career.ValidStyle(style) {
		log.Printf("[race] Unknown select_style=%q; defaulting to 'front'", style)
		style = career.StyleFront
	}

	frame, err = f.w.Snap("change_style_modal")
	if err != nil {
		return false
	}
	whites := perception.Find(frame.Detections, perception.ClassButtonWhite)
	greens := perception.Find(frame.Detections, perception.ClassButtonGreen)
	if len(whites) == 0 {
		log.Printf("[race] set_strategy: no white buttons detected.")
		return false
	}

	confirmBtn := perception.BottomMost(greens)
	cancelBtn := perception.BottomMost(whites)

	var styleBtns []perception.Detection
	for _, d := range whites {
		if cancelBtn != nil && d.Box == cancelBtn.Box {
			continue
		}
		if cancelBtn == nil || d.Box.CenterY() < cancelBtn.Box.CenterY()-10 {
			styleBtns = append(styleBtns, d)
		}
	}
	if len(styleBtns) == 0 {
		for _, d := range whites {
			if cancelBtn == nil || d.Box != cancelBtn.Box {
				styleBtns = append(styleBtns, d)
			}
		}
	}
	sortLeftToRight(styleBtns)

	idx := 0
	for i, s := range career.StyleOrder {
		if s == style {
			idx = i
		}
	}

	var chosen *perception.Detection
	if len(styleBtns) >= 4 {
		chosen = &styleBtns[idx]
	} else {
		// OCR fallback for partial layouts.
		var best *perception.Detection
		bestScore := 0.0
		for i := range styleBtns {
			res, err := frame.ReadText(f.ocr, shrinkBox(styleBtns[i].Box))
			if err != nil {
				continue
			}
			if s := perception.FuzzyRatio(res.Text, string(style)); s > bestScore {
				best, bestScore = &styleBtns[i], s
			}
		}
		if best != nil && bestScore >= 0.45 {
			chosen = best
		} else if len(styleBtns) > 0 {
			j := idx
			if j >= len(styleBtns) {
				j = len(styleBtns) - 1
			}
			chosen = &styleBtns[j]
		}
	}
	if chosen == nil {
		return false
	}
	f.ctrl.Click(chosen.Box, 1)
	time.Sleep(150 * time.Millisecond)

	if confirmBtn == nil {
		_, res := f.w.ClickWhen(waiter.Spec{
			Classes:      []string{perception.ClassButtonGreen},
			Texts:        []string{"CONFIRM"},
			PreferBottom: true,
			Timeout:      2 * time.Second,
			Tag:          "race_style_confirm_text",
		})
		return res == waiter.Ok
	}
	f.ctrl.Click(confirmBtn.Box, 1)
	time.Sleep(150 * time.Millisecond)
	return true
}

func sortLeftToRight(dets []perception.Detection) {
	for i := 1; i < len(dets); i++ {
		for j := i; j > 0; j-- {
			ci, _ := dets[j].Box.Center()
			cj, _ := dets[j-1].Box.Center()
			if ci < cj {
				dets[j], dets[j-1] = dets[j-1], dets[j]
			} else {
				break
			}
		}
	}
}

func shrinkBox(b controller.Box) controller.Box {
	shrink := b.Width()
	if h := b.Height(); h < shrink {
		shrink = h
	}
	shrink *= 0.10
	if shrink < 2 {
		shrink = 2
	}
	return controller.Box{X1: b.X1 + shrink, Y1: b.Y1 + shrink, X2: b.X2 - shrink, Y2: b.Y2 - shrink}
}

// #endregion strategy
