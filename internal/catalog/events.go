package catalog

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// #endregion

// #region event-records

// EventOutcome is one possible result line for an option.
type EventOutcome struct {
	Stats    map[string]int `json:"stats,omitempty"`
	Energy   int            `json:"energy,omitempty"`
	Mood     int            `json:"mood,omitempty"`
	SkillPts int            `json:"skill_pts,omitempty"`
	Hints    []string       `json:"hints,omitempty"`
	Status   []string       `json:"status,omitempty"`
}

// EventRecord is one dialog step of an event, keyed
// `type/name/attr/rarity/event#step`.
type EventRecord struct {
	Key       string                    `json:"key"`      // type/name/attr/rarity/event
	KeyStep   string                    `json:"key_step"` // key + "#s<step>"
	Type      string                    `json:"type"`     // support | trainee | scenario
	Name      string                    `json:"name"`     // entity name
	Attribute string                    `json:"attribute"`
	Rarity    string                    `json:"rarity"`
	EventName string                    `json:"event_name"`
	Step      int                       `json:"step"`
	Options   map[string][]EventOutcome `json:"options"` // "1".."4"
}

// OptionCount returns how many options the record defines.
func (r *EventRecord) OptionCount() int { return len(r.Options) }

// Outcomes returns the outcome list for a 1-based option.
func (r *EventRecord) Outcomes(option int) []EventOutcome {
	return r.Options[strconv.Itoa(option)]
}

// MaxPositiveEnergy returns the largest positive energy delta any outcome of
// the option can grant; 0 when none.
func (r *EventRecord) MaxPositiveEnergy(option int) int {
	gain := 0
	for _, o := range r.Outcomes(option) {
		if o.Energy > gain {
			gain = o.Energy
		}
	}
	return gain
}

// RewardCategories reports which reward classes the option can yield.
func (r *EventRecord) RewardCategories(option int) map[string]bool {
	cats := map[string]bool{}
	for _, o := range r.Outcomes(option) {
		if o.SkillPts > 0 {
			cats["skill_pts"] = true
		}
		if len(o.Hints) > 0 {
			cats["hints"] = true
		}
		if o.Energy > 0 {
			cats["energy"] = true
		}
		for _, v := range o.Stats {
			if v > 0 {
				cats["stats"] = true
				break
			}
		}
	}
	return cats
}

// #endregion event-records

// #region event-catalog

// EventCatalog is the read-only event lookup.
type EventCatalog struct {
	byKeyStep map[string]*EventRecord
	records   []*EventRecord
}

// NewEventCatalog builds an in-memory catalog, for tests and tooling.
func NewEventCatalog(records ...*EventRecord) *EventCatalog {
	c := &EventCatalog{byKeyStep: map[string]*EventRecord{}}
	for _, e := range records {
		if e.KeyStep == "" {
			e.KeyStep = fmt.Sprintf("%s#s%d", e.Key, e.Step)
		}
		c.byKeyStep[e.KeyStep] = e
		c.records = append(c.records, e)
	}
	return c
}

// LoadEventCatalog reads the event dataset. Missing file → empty catalog.
func LoadEventCatalog(path string) (*EventCatalog, error) {
	c := &EventCatalog{byKeyStep: map[string]*EventRecord{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read event catalog: %w", err)
	}
	var entries []*EventRecord
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse event catalog: %w", err)
	}
	for _, e := range entries {
		if e.KeyStep == "" {
			e.KeyStep = fmt.Sprintf("%s#s%d", e.Key, e.Step)
		}
		c.byKeyStep[e.KeyStep] = e
		c.records = append(c.records, e)
	}
	return c, nil
}

// Get returns a record by full key-step.
func (c *EventCatalog) Get(keyStep string) (*EventRecord, bool) {
	r, ok := c.byKeyStep[keyStep]
	return r, ok
}

// Records returns all records, for retrieval scans.
func (c *EventCatalog) Records() []*EventRecord { return c.records }

// Len reports the number of records.
func (c *EventCatalog) Len() int { return len(c.records) }

// NormalizeEventText canonicalizes event titles for fuzzy retrieval:
// full-width spaces, decorative glyphs, and dash variants collapse to plain
// ASCII so OCR and dataset text share a form.
func NormalizeEventText(s string) string {
	replacer := strings.NewReplacer(
		"≫", ">>", "«", "<<", "»", ">>",
		"♪", " note ", "☆", "*", "★", "*",
		"　", " ",
		"–", "-", "—", "-", "―", "-",
		"…", "...",
	)
	s = replacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), " ")
}

// #endregion event-catalog
