package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table: which screen the
// agent saw, which handler ran, what it decided, and why.
type DecisionEntry struct {
	Tick       int
	Screen     string
	Handler    string // "race", "skills", "event", "lobby", ...
	Decision   string
	Reason     string
	DateKey    string
	DetailJSON string
	CreatedAt  time.Time
}

// #endregion decision-entry

// #region counters
// Counters aggregates the observability tallies the loop exposes on exit:
// relaxed classifier acceptances and soft-fail reasons.
type Counters struct {
	RelaxedClassifications map[string]int `json:"relaxed_classifications"`
	SoftFails              map[string]int `json:"soft_fails"`
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{
		RelaxedClassifications: map[string]int{},
		SoftFails:              map[string]int{},
	}
}

// CountRelaxed tallies one relaxed classification for a class label.
func (c *Counters) CountRelaxed(class string) {
	c.RelaxedClassifications[class]++
}

// CountSoftFail tallies one soft failure by reason.
func (c *Counters) CountSoftFail(reason string) {
	c.SoftFails[reason]++
}

// #endregion counters
