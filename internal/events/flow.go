package events

// #region imports
import (
	"log"
	"strings"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region flow

// Outcome reports what the flow matched and clicked for one Event frame.
type Outcome struct {
	MatchedKeyStep string
	Pick           int
	Clicked        bool
	Fallback       bool
}

// Flow handles the Event screen: read the banner, retrieve the catalog
// record, resolve the option through the Decider, click it.
type Flow struct {
	ctrl    controller.Controller
	ocr     perception.OCR
	catalog *catalog.EventCatalog
	decider *Decider

	minChoiceConf float64
}

// NewFlow wires the event flow.
func NewFlow(ctrl controller.Controller, ocr perception.OCR, cat *catalog.EventCatalog, prefs *Prefs) *Flow {
	return &Flow{
		ctrl:          ctrl,
		ocr:           ocr,
		catalog:       cat,
		decider:       NewDecider(prefs),
		minChoiceConf: 0.60,
	}
}

// Process decides and clicks an option on an Event frame. currentEnergy may
// be -1 when the gauge was unreadable; the overflow guard is then skipped.
func (f *Flow) Process(frame *perception.Frame, currentEnergy, energyCap int) Outcome {
	choices := perception.FilterByClasses(frame.Detections, []string{perception.ClassEventChoice}, f.minChoiceConf)
	perception.SortTopToBottom(choices)

	card := perception.FindBest(frame.Detections, perception.ClassEventCard, 0)
	chainStep := len(perception.Find(frame.Detections, perception.ClassEventChain))
	if chainStep == 0 && card != nil {
		chainStep = 1
	}

	q := f.buildQuery(frame, card, chainStep)

	cands := RetrieveBest(f.catalog, q, 3, 0.5)
	if len(cands) == 0 && q.ChainStepHint > 1 {
		// The arrow count over-read; most chains the classifier trips on are
		// actually at step one.
		retry := q
		retry.ChainStepHint = 1
		cands = RetrieveBest(f.catalog, retry, 3, 0.6)
		if len(cands) > 0 {
			log.Printf("[event] chain hint fallback succeeded: %d -> 1", q.ChainStepHint)
		}
	}
	if len(cands) == 0 {
		log.Printf("[event] no candidates from retriever; falling back to top option")
		return f.clickTop(choices)
	}

	best := cands[0]
	dec := f.decider.Decide(best.Rec, len(choices), currentEnergy, energyCap)
	if dec.AdjustedForCap {
		log.Printf("[event] pick adjusted for energy cap: %d (category=%s)", dec.Pick, dec.MatchedCategory)
	}
	if dec.Confirmation {
		log.Printf("[event] confirmation phase for %s: auto-confirming option 1", best.Rec.KeyStep)
	}

	if dec.Pick < 1 || dec.Pick > len(choices) {
		log.Printf("[event] pick=%d outside detected %d choices; fallback to top", dec.Pick, len(choices))
		return f.clickTop(choices)
	}

	target := choices[dec.Pick-1]
	f.ctrl.Click(target.Box, 2)
	log.Printf("[event] clicked option #%d for %s (score=%.3f, energy=%d/%d)",
		dec.Pick, best.Rec.KeyStep, best.Score, currentEnergy, energyCap)
	return Outcome{MatchedKeyStep: best.Rec.KeyStep, Pick: dec.Pick, Clicked: true}
}

func (f *Flow) clickTop(choices []perception.Detection) Outcome {
	f.decider.ResetChain()
	if len(choices) == 0 {
		log.Printf("[event] no event_choice to click")
		return Outcome{Pick: 1}
	}
	f.ctrl.Click(choices[0].Box, 1)
	log.Printf("[event] fallback: clicked top event_choice (conf=%.3f)", choices[0].Conf)
	return Outcome{Pick: 1, Clicked: true, Fallback: true}
}

// #endregion flow

// #region banner

// buildQuery OCRs the blue banner right of the portrait. The header ribbon
// sits in the top band, the event title below it; a square-ish portrait means
// a shorter ribbon.
func (f *Flow) buildQuery(frame *perception.Frame, card *perception.Detection, chainStep int) Query {
	q := Query{ChainStepHint: chainStep}
	if card == nil || f.ocr == nil {
		return q
	}

	b := card.Box
	padX := 0.05 * b.Width()
	vpad := 0.10 * b.Height()
	banner := controller.Box{
		X1: b.X2 + padX,
		Y1: b.Y1 - vpad,
		X2: b.X2 + 6.5*b.Width(),
		Y2: b.Y2 + vpad,
	}

	aspect := b.Height() / maxFloat(b.Width(), 1e-6)
	split := 0.40
	if aspect >= 0.85 && aspect <= 1.15 {
		split = 0.30
	}
	splitY := banner.Y1 + split*(banner.Y2-banner.Y1)

	titleZone := controller.Box{X1: banner.X1, Y1: banner.Y1, X2: banner.X2, Y2: splitY}
	bodyZone := controller.Box{X1: banner.X1, Y1: splitY, X2: banner.X2, Y2: banner.Y2}

	if res, err := frame.ReadText(f.ocr, titleZone); err == nil {
		q.Title = res.Text
	}
	if res, err := frame.ReadText(f.ocr, bodyZone); err == nil {
		q.Description = res.Text
	}

	lower := strings.ToLower(q.Title)
	switch {
	case strings.Contains(lower, "support"):
		q.TypeHint = "support"
	case strings.Contains(lower, "trainee"):
		q.TypeHint = "trainee"
	}
	return q
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// #endregion banner
