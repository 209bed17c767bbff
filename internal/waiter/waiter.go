package waiter

// #region imports
import (
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/abort"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region poll-config

// PollConfig is the immutable polling base for a Waiter. Construct once;
// individual calls override only the timeout, the tag and the detection floor.
type PollConfig struct {
	Interval       time.Duration // between polls
	Timeout        time.Duration // overall default
	AttemptTimeout time.Duration // per capture+detect attempt; not applied by the poll loop
	MinConf        float64       // detection floor
	Tag            string
	Agent          string
}

// DefaultPollConfig returns the tuned base, with the interval scaled for the
// controller backend's capture latency.
func DefaultPollConfig(kind controller.Kind, agent string) PollConfig {
	scale := kind.IntervalScale()
	return PollConfig{
		Interval:       time.Duration(float64(250*time.Millisecond) * scale),
		Timeout:        4 * time.Second,
		AttemptTimeout: time.Duration(float64(2*time.Second) * scale),
		MinConf:        0.51,
		Tag:            "waiter",
		Agent:          agent,
	}
}

// #endregion poll-config

// #region result

// Result is a Waiter operation outcome.
type Result string

const (
	Ok      Result = "ok"
	NoMatch Result = "no_match"
	Aborted Result = "aborted"
)

// #endregion result

// #region spec

// Spec describes what to wait for and how to click it.
//
// Click cascade per poll:
//  1. exactly one candidate and greedy allowed → click it, unless its ROI
//     matches a forbidden text
//  2. PreferBottom and greedy allowed → click the bottom-most non-forbidden
//  3. Texts given → OCR candidates, click the best positive match that is not
//     forbidden
type Spec struct {
	Classes     []string
	Texts       []string
	ForbidTexts []string

	Threshold       float64 // positive OCR match floor; 0 → 0.68
	ForbidThreshold float64 // forbid match floor; 0 → 0.65
	MinConf         float64 // detection confidence floor; 0 → PollConfig.MinConf

	PreferBottom bool
	OCROnly      bool // disable the greedy cascades; only OCR-confirmed clicks
	Clicks       int  // 0 → 1

	Timeout time.Duration // 0 → PollConfig.Timeout
	Tag     string        // "" → PollConfig.Tag
}

func (s Spec) normalized(cfg PollConfig) Spec {
	if s.Threshold == 0 {
		s.Threshold = 0.68
	}
	if s.ForbidThreshold == 0 {
		s.ForbidThreshold = 0.65
	}
	if s.MinConf == 0 {
		s.MinConf = cfg.MinConf
	}
	if s.Clicks == 0 {
		s.Clicks = 1
	}
	if s.Timeout == 0 {
		s.Timeout = cfg.Timeout
	}
	if s.Tag == "" {
		s.Tag = cfg.Tag
	}
	return s
}

// #endregion spec

// #region waiter

// Waiter is the single synchronization primitive. Every UI interaction goes
// through it so clicks are always authorized by a detection from the same
// frame, and every poll honors the shared stop flag.
type Waiter struct {
	ctrl controller.Controller
	det  perception.Detector
	ocr  perception.OCR
	cfg  PollConfig
	stop *abort.Flag
}

// New wires a Waiter. ocr may be nil; OCR-guarded paths then never match.
func New(ctrl controller.Controller, det perception.Detector, ocr perception.OCR, cfg PollConfig, stop *abort.Flag) *Waiter {
	if stop == nil {
		stop = &abort.Shared
	}
	log.Printf("[waiter] init agent=%s tag=%s interval=%s", cfg.Agent, cfg.Tag, cfg.Interval)
	return &Waiter{ctrl: ctrl, det: det, ocr: ocr, cfg: cfg, stop: stop}
}

// Config returns the waiter's poll base.
func (w *Waiter) Config() PollConfig { return w.cfg }

// StopRequested reports the shared stop flag, for flows that run their own
// bounded loops between Waiter calls.
func (w *Waiter) StopRequested() bool { return w.stop.Requested() }

// Snap captures one frame and runs detection on it.
func (w *Waiter) Snap(tag string) (*perception.Frame, error) {
	img, err := w.ctrl.Capture()
	if err != nil {
		return nil, fmt.Errorf("capture (%s): %w", tag, err)
	}
	dets, err := w.det.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detect (%s): %w", tag, err)
	}
	return perception.NewFrame(img, dets), nil
}

// #endregion waiter

// #region seen

// Seen polls until a detection in spec.Classes at or above spec.MinConf shows
// up — and, when Texts is set, its ROI OCR fuzzily matches one of them
// without matching a forbidden text. Returns the winning detection on Ok.
func (w *Waiter) Seen(spec Spec) (*perception.Detection, Result) {
	spec = spec.normalized(w.cfg)
	deadline := time.Now().Add(spec.Timeout)
	for {
		if w.stop.Requested() {
			return nil, Aborted
		}
		frame, err := w.Snap(spec.Tag)
		if err == nil {
			if d := w.matchSeen(frame, spec); d != nil {
				return d, Ok
			}
		}
		if time.Now().After(deadline) {
			return nil, NoMatch
		}
		time.Sleep(w.cfg.Interval)
	}
}

// SeenNow is a single-snapshot Seen: no polling, no clicks.
func (w *Waiter) SeenNow(spec Spec) bool {
	spec = spec.normalized(w.cfg)
	frame, err := w.Snap(spec.Tag + "_seen")
	if err != nil {
		return false
	}
	return w.matchSeen(frame, spec) != nil
}

// SeenOnFrame applies the Seen predicate to an already captured frame.
func (w *Waiter) SeenOnFrame(frame *perception.Frame, spec Spec) bool {
	spec = spec.normalized(w.cfg)
	return w.matchSeen(frame, spec) != nil
}

func (w *Waiter) matchSeen(frame *perception.Frame, spec Spec) *perception.Detection {
	cand := perception.FilterByClasses(frame.Detections, spec.Classes, spec.MinConf)
	if len(cand) == 0 {
		return nil
	}
	if len(spec.Texts) == 0 {
		return &cand[0]
	}
	if w.ocr == nil {
		return nil
	}
	for i := range cand {
		d := &cand[i]
		res, err := frame.ReadText(w.ocr, d.Box)
		if err != nil || res.Text == "" {
			continue
		}
		if w.forbidden(res, spec) {
			continue
		}
		for _, target := range spec.Texts {
			if perception.FuzzyContains(res.Text, target, spec.Threshold) {
				return d
			}
		}
	}
	return nil
}

// #endregion seen

// #region click-when

// ClickWhen waits until a candidate resolves through the cascade and clicks
// it. Returns the clicked detection on Ok; NoMatch on timeout. Between the
// authorizing detection and the click no other captures occur.
func (w *Waiter) ClickWhen(spec Spec) (*perception.Detection, Result) {
	spec = spec.normalized(w.cfg)
	deadline := time.Now().Add(spec.Timeout)
	for {
		if w.stop.Requested() {
			return nil, Aborted
		}
		frame, err := w.Snap(spec.Tag)
		if err == nil {
			if d := w.tryCascade(frame, spec); d != nil {
				return d, Ok
			}
		}
		if time.Now().After(deadline) {
			if spec.Tag != "agent_unknown_advance" {
				log.Printf("[waiter] timeout after %s (tag=%s)", spec.Timeout, spec.Tag)
			}
			return nil, NoMatch
		}
		time.Sleep(w.cfg.Interval)
	}
}

// TryClickOnce is a single-snapshot best-effort click through the same
// cascade, without polling.
func (w *Waiter) TryClickOnce(spec Spec) (*perception.Detection, bool) {
	spec = spec.normalized(w.cfg)
	frame, err := w.Snap(spec.Tag + "_try")
	if err != nil {
		return nil, false
	}
	d := w.tryCascade(frame, spec)
	return d, d != nil
}

func (w *Waiter) tryCascade(frame *perception.Frame, spec Spec) *perception.Detection {
	cand := perception.FilterByClasses(frame.Detections, spec.Classes, spec.MinConf)
	if len(cand) == 0 {
		return nil
	}

	// 1) single-candidate fast path
	if len(cand) == 1 && !spec.OCROnly {
		pick := &cand[0]
		if !w.isForbidden(frame, pick, spec) {
			w.ctrl.Click(pick.Box, spec.Clicks)
			return pick
		}
		log.Printf("[waiter] single candidate rejected by forbid_texts (tag=%s)", spec.Tag)
	}

	// 2) bottom-most preference, skipping forbiddens
	if spec.PreferBottom && !spec.OCROnly {
		ordered := make([]perception.Detection, len(cand))
		copy(ordered, cand)
		perception.SortBottomFirst(ordered)
		for i := range ordered {
			d := &ordered[i]
			if !w.isForbidden(frame, d, spec) {
				w.ctrl.Click(d.Box, spec.Clicks)
				return d
			}
		}
	}

	// 3) OCR disambiguation by positive texts
	if len(spec.Texts) > 0 && w.ocr != nil {
		if pick, score := w.pickByText(frame, cand, spec); pick != nil {
			log.Printf("[waiter] text match (tag=%s) score=%.2f target_texts=%v", spec.Tag, score, spec.Texts)
			w.ctrl.Click(pick.Box, spec.Clicks)
			return pick
		}
	}
	return nil
}

func (w *Waiter) pickByText(frame *perception.Frame, cand []perception.Detection, spec Spec) (*perception.Detection, float64) {
	var best *perception.Detection
	bestScore := 0.0
	for i := range cand {
		d := &cand[i]
		res, err := frame.ReadText(w.ocr, d.Box)
		if err != nil || res.Text == "" {
			continue
		}
		if w.forbidden(res, spec) {
			continue
		}
		for _, target := range spec.Texts {
			score, _ := perception.FuzzyContainsScore(res.Text, target, 0)
			// Exact token hit outranks any fuzzy window.
			for _, tok := range perception.TokenizeText(res.Text) {
				if tok == perception.NormalizeText(target) {
					if score < 0.95 {
						score = 0.95
					}
				}
			}
			if score > bestScore {
				best, bestScore = d, score
			}
		}
	}
	if best != nil && bestScore >= spec.Threshold {
		return best, bestScore
	}
	return nil, bestScore
}

// #endregion click-when

// #region forbid

// isForbidden OCRs just this candidate and checks the forbidden phrases.
// Cheap: only runs when a click is imminent.
func (w *Waiter) isForbidden(frame *perception.Frame, d *perception.Detection, spec Spec) bool {
	if len(spec.ForbidTexts) == 0 || w.ocr == nil {
		return false
	}
	res, err := frame.ReadText(w.ocr, d.Box)
	if err != nil || res.Text == "" {
		return false
	}
	return w.forbidden(res, spec)
}

func (w *Waiter) forbidden(res perception.OCRResult, spec Spec) bool {
	for _, ft := range spec.ForbidTexts {
		score, hit := perception.FuzzyContainsScore(res.Text, ft, spec.ForbidThreshold)
		if hit {
			log.Printf("[waiter] candidate forbidden text match score=%.2f text=%q forbid=%q",
				score, res.Text, ft)
			return true
		}
	}
	return false
}

// #endregion forbid
