package race

// #region imports
import (
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region badge-priority

var badgePriority = map[string]int{
	"OP": 1,
	"G3": 2,
	"G2": 3,
	"G1": 4,
	"EX": 5,
}

var badgePriorityReverse = map[int]string{
	1: "OP", 2: "G3", 3: "G2", 4: "G1", 5: "EX",
}

// #endregion badge-priority

// #region pick

const (
	minimumRaceOCRMatch = 0.91
	minStars            = 2
	maxPickScrolls      = 3
)

// pickRaceSquare resolves the target square.
//
// With a desired (planned) race: forward-search the list by OCR'ing the card
// titles, with a rank mismatch penalty; below the match floor after all
// scrolls it returns NoPlannedMatch so the caller can set the skip guard.
// Without: the best recommended square by ≥2 stars and badge rank.
func (f *Flow) pickRaceSquare(opts RunOpts) (*perception.Detection, bool, Outcome) {
	var expectedCards [][2]string
	if opts.DesiredRaceName != "" {
		log.Printf("[race] Racing with desired_race_name=%s", opts.DesiredRaceName)
		if opts.DateKey != "" {
			if e, ok := f.races.EntryForNameOnDate(opts.DesiredRaceName, opts.DateKey); ok {
				title := e.DisplayTitle
				if title == "" {
					title = e.Name
				}
				expectedCards = [][2]string{{title, strings.ToUpper(e.Rank)}}
				log.Printf("[race] Seeking '%s' on %s → title=%q, rank=%s",
					opts.DesiredRaceName, opts.DateKey, title, e.Rank)
			}
		}
		if len(expectedCards) == 0 {
			expectedCards = f.races.ExpectedTitles(opts.DesiredRaceName)
		}
		if len(expectedCards) == 0 {
			expectedCards = [][2]string{{opts.DesiredRaceName, "UNK"}}
			log.Printf("[race] Dataset has no entries for '%s'; falling back to literal name.", opts.DesiredRaceName)
		}
	}

	var bestFallback *perception.Detection
	bestRank := -1
	bestY := 1e18
	didScroll := false
	var firstTop *controller.Box

	for scroll := 0; scroll <= maxPickScrolls; scroll++ {
		time.Sleep(1 * time.Second)
		if f.w.StopRequested() {
			return nil, false, Aborted
		}
		frame, err := f.w.Snap("race_pick")
		if err != nil {
			continue
		}
		squares := perception.Find(frame.Detections, perception.ClassRaceSquare)
		if len(squares) > 0 {
			perception.SortTopToBottom(squares)
			if firstTop == nil {
				b := squares[0].Box
				firstTop = &b
			}
			stars := perception.DedupOverlaps(perception.Find(frame.Detections, perception.ClassRaceStar))
			badges := perception.Find(frame.Detections, perception.ClassRaceBadge)

			if len(squares) == 1 && scroll == 0 {
				sq := squares[0]
				return &sq, f.needClick(sq.Box, didScroll, firstTop), Ok
			}

			if len(expectedCards) > 0 {
				if pick, score := f.matchDesired(frame, squares, badges, expectedCards); pick != nil && score >= minimumRaceOCRMatch {
					log.Printf("[race] picked desired '%s' by card-title (score=%.2f) at y=%.1f",
						opts.DesiredRaceName, score, pick.Box.CenterY())
					return pick, f.needClick(pick.Box, didScroll, firstTop), Ok
				}
			} else {
				if pick, done := f.scanRecommended(frame, squares, stars, badges, opts, &bestFallback, &bestRank, &bestY); done {
					return pick, f.needClick(pick.Box, didScroll, firstTop), Ok
				}
			}
		}

		if bestFallback != nil && len(expectedCards) == 0 {
			log.Printf("[race] Picked best race found, rank=%s", badgePriorityReverse[bestRank])
			return bestFallback, f.needClick(bestFallback.Box, didScroll, firstTop), Ok
		}

		if len(squares) > 0 {
			f.ctrl.Scroll(squares[0].Box, -int(squares[0].Box.Height()*1.5))
		}
		didScroll = true
		time.Sleep(350 * time.Millisecond)
	}

	if bestFallback != nil && len(expectedCards) == 0 {
		return bestFallback, true, Ok
	}
	if len(expectedCards) > 0 {
		return nil, false, NoPlannedMatch
	}
	log.Printf("[race] race square not found")
	return nil, false, NoRaceFound
}

// needClick is false only when the pick is the untouched top card of the
// unscrolled first page: the list pre-selects it.
func (f *Flow) needClick(pick controller.Box, didScroll bool, firstTop *controller.Box) bool {
	if didScroll || firstTop == nil {
		return true
	}
	return pick != *firstTop
}

// #endregion pick

// #region desired-match

// matchDesired OCRs the title band right of each badge and scores it against
// the expected card titles, penalizing a badge rank mismatch.
func (f *Flow) matchDesired(frame *perception.Frame, squares, badges []perception.Detection, expected [][2]string) (*perception.Detection, float64) {
	var best *perception.Detection
	bestScore := -1.0

	for i := range squares {
		sq := &squares[i]
		badge := badgeInside(sq, badges)
		roi := titleBandROI(sq, badge)

		txt := ""
		if res, err := frame.ReadText(f.ocr, roi); err == nil {
			txt = cleanRaceTitle(res.Text)
		}
		if txt == "" {
			continue
		}

		badgeLabel := "UNK"
		if badge != nil {
			badgeLabel = f.badgeLabel(frame, badge)
		}

		score := 0.0
		for _, card := range expected {
			title, rank := cleanRaceTitle(card[0]), card[1]
			s := titleScore(txt, title)
			if _, known := badgePriority[rank]; known && badgeLabel != "UNK" && badgeLabel != rank {
				s -= 0.20
			}
			if s > score {
				score = s
			}
		}
		if score > bestScore {
			best, bestScore = sq, score
		}
	}
	return best, bestScore
}

// titleScore blends direct fuzzy similarity with token coverage for titles
// that contain the dataset's "varies" placeholder.
func titleScore(actual, expected string) float64 {
	s := perception.FuzzyRatio(actual, expected)
	const variesToken = "varies"
	if !strings.Contains(expected, variesToken) {
		return s
	}
	actualTokens := strings.Fields(actual)
	var expectedTokens []string
	for _, tok := range strings.Fields(expected) {
		if tok != variesToken {
			expectedTokens = append(expectedTokens, tok)
		}
	}
	if len(expectedTokens) == 0 || len(actualTokens) == 0 {
		return s
	}
	matched := 0
	for _, tok := range expectedTokens {
		for _, at := range actualTokens {
			if tok == at {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return s
	}
	ratio := float64(matched) / float64(len(expectedTokens))
	if matched == len(expectedTokens) {
		ratio += 0.15
	}
	if ratio > s {
		return ratio
	}
	return s
}

// cleanRaceTitle strips track-direction noise and OCR junk from a card
// title before comparison.
func cleanRaceTitle(s string) string {
	up := strings.ToUpper(s)
	for _, junk := range []string{"RIGHT", "LEFT", "INNER", "1NNER", "OUTER", "/"} {
		up = strings.ReplaceAll(up, junk, "")
	}
	up = strings.ReplaceAll(up, "TURT", "TURF")
	up = strings.ReplaceAll(up, "DIRF", "DIRT")
	norm := perception.NormalizeText(up)
	var kept []string
	for _, word := range strings.Fields(norm) {
		if len(word) > 1 {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

func titleBandROI(sq *perception.Detection, badge *perception.Detection) controller.Box {
	s := sq.Box
	if badge != nil {
		b := badge.Box
		pad := b.Height() * 0.6
		return controller.Box{X1: b.X2 + 1, Y1: s.Y1 + pad, X2: s.X2 - 6, Y2: b.Y2 + pad}
	}
	w := s.Width()
	return controller.Box{X1: s.X1 + 0.30*w, Y1: s.Y1 + 2, X2: s.X2 - 6, Y2: s.Y2 - 2}
}

func badgeInside(sq *perception.Detection, badges []perception.Detection) *perception.Detection {
	for i := range badges {
		if badges[i].Box.Inside(sq.Box, 3) {
			return &badges[i]
		}
	}
	return nil
}

func (f *Flow) badgeLabel(frame *perception.Frame, badge *perception.Detection) string {
	res, err := frame.ReadText(f.ocr, badge.Box)
	if err != nil || res.Text == "" {
		return "UNK"
	}
	up := strings.ToUpper(strings.TrimSpace(res.Text))
	for label := range badgePriority {
		if strings.Contains(up, label) {
			return label
		}
	}
	// Common OCR slip on the narrow badge font.
	if strings.Contains(up, "GL") {
		return "G1"
	}
	return "UNK"
}

// #endregion desired-match

// #region recommended

// scanRecommended walks the page's squares for the star/badge pick. Returns
// (pick, true) when a G1 match short-circuits; otherwise accumulates the
// best candidate (highest badge rank, then topmost) into the caller's
// fallback slots.
func (f *Flow) scanRecommended(frame *perception.Frame, squares, stars, badges []perception.Detection, opts RunOpts, bestFallback **perception.Detection, bestRank *int, bestY *float64) (*perception.Detection, bool) {
	for i := range squares {
		sq := &squares[i]
		starCount := 0
		for _, st := range stars {
			if st.Box.Inside(sq.Box, 1) {
				starCount++
			}
		}
		if starCount < minStars {
			continue
		}

		label := "UNK"
		if badge := badgeInside(sq, badges); badge != nil {
			label = f.badgeLabel(frame, badge)
		}
		rank := badgePriority[label]
		ymid := sq.Box.CenterY()

		if opts.PrioritizeG1 || opts.IsG1Goal {
			if label == "G1" {
				log.Printf("[race] picked G1 with 2★ at y=%.1f", ymid)
				pick := *sq
				return &pick, true
			}
			if opts.IsG1Goal {
				continue
			}
		}
		if *bestFallback == nil || rank > *bestRank || (rank == *bestRank && ymid < *bestY) {
			pick := *sq
			*bestFallback, *bestRank, *bestY = &pick, rank, ymid
		}
	}
	return nil, false
}

// #endregion recommended
