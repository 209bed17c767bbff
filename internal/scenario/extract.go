package scenario

// #region imports
import (
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region extractors

var digitsRe = regexp.MustCompile(`\d+`)

// ExtractEnergyPct reads the energy gauge percentage; -1 when unreadable.
func ExtractEnergyPct(frame *perception.Frame, ocr perception.OCR) int {
	return extractInt(frame, ocr, perception.ClassUIEnergy, 0, 100)
}

// ExtractSkillPoints reads the skill point counter; 0 when unreadable.
func ExtractSkillPoints(frame *perception.Frame, ocr perception.OCR) int {
	v := extractInt(frame, ocr, perception.ClassUISkillPts, 0, 99999)
	if v < 0 {
		return 0
	}
	return v
}

// ExtractTurnsLeft reads the turns-left counter; -1 when unreadable.
func ExtractTurnsLeft(frame *perception.Frame, ocr perception.OCR) int {
	return extractInt(frame, ocr, perception.ClassUITurns, 0, 99)
}

// ExtractGoalText reads the goal banner text.
func ExtractGoalText(frame *perception.Frame, ocr perception.OCR) string {
	det := perception.FindBest(frame.Detections, perception.ClassUIGoal, 0)
	if det == nil || ocr == nil {
		return ""
	}
	res, err := frame.ReadText(ocr, det.Box)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Text)
}

// ExtractMood reads the mood word; UNKNOWN when unreadable.
func ExtractMood(frame *perception.Frame, ocr perception.OCR) career.Mood {
	det := perception.FindBest(frame.Detections, perception.ClassUIMood, 0)
	if det == nil || ocr == nil {
		return career.MoodUnknown
	}
	res, err := frame.ReadText(ocr, det.Box)
	if err != nil {
		return career.MoodUnknown
	}
	word := strings.ToUpper(strings.TrimSpace(res.Text))
	best, bestScore := career.MoodUnknown, 0.0
	for _, m := range []career.Mood{career.MoodAwful, career.MoodBad, career.MoodNormal, career.MoodGood, career.MoodGreat} {
		if s := perception.FuzzyRatio(word, m.String()); s > bestScore {
			best, bestScore = m, s
		}
	}
	if bestScore < 0.6 {
		return career.MoodUnknown
	}
	return best
}

// ExtractCareerDateRaw reads the raw career date line for the acceptor.
func ExtractCareerDateRaw(frame *perception.Frame, ocr perception.OCR) string {
	det := perception.FindBest(frame.Detections, perception.ClassUITurns, 0)
	if det == nil || ocr == nil {
		return ""
	}
	// The date label renders in a band above the turns counter.
	roi := det.Box
	h := roi.Height()
	roi.Y1 -= 1.6 * h
	roi.Y2 -= 0.9 * h
	res, err := frame.ReadText(ocr, roi)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Text)
}

// ExtractStats reads the five stat numbers from the stats strip: the strip
// box is split into five equal columns, SPD..WIT left to right.
func ExtractStats(frame *perception.Frame, ocr perception.OCR) career.StatVector {
	out := career.NewStatVector()
	det := perception.FindBest(frame.Detections, perception.ClassUIStats, 0)
	if det == nil || ocr == nil {
		return out
	}
	b := det.Box
	colW := b.Width() / float64(len(career.StatKeys))
	for i, key := range career.StatKeys {
		col := b
		col.X1 = b.X1 + colW*float64(i)
		col.X2 = b.X1 + colW*float64(i+1)
		res, err := frame.ReadText(ocr, col)
		if err != nil {
			continue
		}
		if v, ok := firstInt(res.Text, 0, 1200); ok {
			out[key] = v
		}
	}
	return out
}

func extractInt(frame *perception.Frame, ocr perception.OCR, class string, lo, hi int) int {
	det := perception.FindBest(frame.Detections, class, 0)
	if det == nil || ocr == nil {
		return -1
	}
	res, err := frame.ReadText(ocr, det.Box)
	if err != nil {
		return -1
	}
	if v, ok := firstInt(res.Text, lo, hi); ok {
		return v
	}
	return -1
}

func firstInt(s string, lo, hi int) (int, bool) {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// #endregion extractors
