package events

// #region imports
import (
	"sort"

	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region retrieval

// Query carries what perception read off the event dialog.
type Query struct {
	Title         string // OCR of the banner title zone
	Description   string // OCR of the banner body; usually the better signal
	TypeHint      string // "support" | "trainee" | "" from the banner header
	ChainStepHint int    // counted chain arrows; 0 when unknown
}

// Candidate is one retrieval hit.
type Candidate struct {
	Rec   *catalog.EventRecord
	Score float64
}

// RetrieveBest ranks catalog records against the query by fuzzy title
// similarity, filtered by type and chain-step hints. Records below minScore
// are dropped.
func RetrieveBest(cat *catalog.EventCatalog, q Query, topK int, minScore float64) []Candidate {
	text := q.Description
	if text == "" {
		text = q.Title
	}
	norm := catalog.NormalizeEventText(text)
	if norm == "" {
		return nil
	}

	var out []Candidate
	for _, rec := range cat.Records() {
		if q.TypeHint != "" && rec.Type != q.TypeHint {
			continue
		}
		if q.ChainStepHint > 0 && rec.Step != q.ChainStepHint {
			continue
		}
		score := perception.FuzzyRatio(norm, catalog.NormalizeEventText(rec.EventName))
		if score < minScore {
			continue
		}
		out = append(out, Candidate{Rec: rec, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// #endregion retrieval

// #region decider

// palOvercapExtra is the small overcap window allowed for PAL support dates.
const palOvercapExtra = 10

// Decision is what the decider resolved for a dialog.
type Decision struct {
	Rec             *catalog.EventRecord
	Pick            int // 1-based final option
	AdjustedForCap  bool
	MatchedCategory string // reward category that won the rotation, if any
	Confirmation    bool   // accept/reconsider phase override
}

// lastClick remembers the previous decision for confirmation-phase
// detection (e.g. the acupuncturist's accept/reconsider follow-up).
type lastClick struct {
	keyStep   string
	pick      int
	expectedN int
}

// Decider owns the option choice for event dialogs.
type Decider struct {
	prefs *Prefs
	last  *lastClick
}

// NewDecider wraps the preference set.
func NewDecider(prefs *Prefs) *Decider {
	return &Decider{prefs: prefs}
}

// Decide picks the option for a matched record given the live energy reading
// and how many choice rows perception actually sees.
//
// Order of authority:
//  1. explicit per-event#step override
//  2. entity default preference
//  3. energy-overflow rotation through the reward priority when the
//     preferred option would push energy over cap and the entity avoids
//     overflow
//  4. confirmation-phase override to option 1 (auto-confirm accept)
func (d *Decider) Decide(rec *catalog.EventRecord, visibleChoices int, currentEnergy int, energyCap int) Decision {
	dec := Decision{Rec: rec, Pick: d.prefs.PickFor(rec)}
	expectedN := rec.OptionCount()

	if !d.prefs.HasOverride(rec) && d.prefs.ShouldAvoidEnergy(rec) && currentEnergy >= 0 && expectedN >= 1 {
		d.adjustForEnergy(&dec, rec, expectedN, currentEnergy, energyCap)
	}

	// Two-phase dialogs re-present the same step with fewer options; the
	// follow-up is accept/reconsider and accept is always the first row.
	if d.last != nil && d.last.keyStep == rec.KeyStep &&
		visibleChoices < expectedN && d.last.pick > 1 {
		dec.Pick = 1
		dec.Confirmation = true
	}

	d.last = &lastClick{keyStep: rec.KeyStep, pick: dec.Pick, expectedN: expectedN}
	return dec
}

// ResetChain forgets the confirmation-phase memory (called on fallbacks).
func (d *Decider) ResetChain() {
	d.last = nil
}

func (d *Decider) adjustForEnergy(dec *Decision, rec *catalog.EventRecord, expectedN, currentEnergy, cap int) {
	overcap := cap
	if rec.Type == "support" && rec.Attribute == "PAL" {
		overcap += palOvercapExtra
	}

	safe := map[int]bool{}
	order := make([]int, 0, expectedN)
	for shift := 0; shift < expectedN; shift++ {
		order = append(order, ((dec.Pick-1+shift)%expectedN)+1)
	}
	for opt := 1; opt <= expectedN; opt++ {
		gain := rec.MaxPositiveEnergy(opt)
		if gain <= 0 || currentEnergy+gain <= overcap {
			safe[opt] = true
		}
	}
	if safe[dec.Pick] || len(safe) == 0 {
		return
	}

	priority := d.prefs.RewardPriorityFor(rec)
	for _, category := range priority {
		for _, opt := range order {
			if !safe[opt] {
				continue
			}
			if rec.RewardCategories(opt)[category] {
				dec.Pick = opt
				dec.AdjustedForCap = true
				dec.MatchedCategory = category
				return
			}
		}
	}
	for _, opt := range order {
		if safe[opt] {
			dec.Pick = opt
			dec.AdjustedForCap = true
			return
		}
	}
}

// #endregion decider
