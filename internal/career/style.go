package career

// #region imports
import (
	"log"
	"sort"
)

// #endregion

// #region style

// Style is a running style pickable in the strategy dialog, ordered left to
// right as the modal lays them out.
type Style string

const (
	StyleEnd   Style = "end"
	StyleLate  Style = "late"
	StylePace  Style = "pace"
	StyleFront Style = "front"
)

// StyleOrder is the modal's left-to-right button order.
var StyleOrder = []Style{StyleEnd, StyleLate, StylePace, StyleFront}

// ValidStyle reports whether s names a known style.
func ValidStyle(s Style) bool {
	for _, v := range StyleOrder {
		if v == s {
			return true
		}
	}
	return false
}

// #endregion style

// #region schedule

// StyleScheduleEntry is one scheduled style change, applied once the career
// date reaches it.
type StyleScheduleEntry struct {
	Date  Date
	Style Style
}

// StyleSchedule resolves which running style should be active at a date and
// tracks what was last applied so the strategy dialog is only opened when the
// style actually changes.
type StyleSchedule struct {
	debutStyle  Style
	entries     []StyleScheduleEntry
	lastApplied Style
}

// NewStyleSchedule builds a schedule from config entries. Invalid styles are
// dropped with a log line; entries are kept sorted by date.
func NewStyleSchedule(debut Style, entries []StyleScheduleEntry) *StyleSchedule {
	s := &StyleSchedule{}
	if ValidStyle(debut) {
		s.debutStyle = debut
	}
	for _, e := range entries {
		if !ValidStyle(e.Style) {
			log.Printf("[race] style schedule: invalid style %q, skipping", e.Style)
			continue
		}
		s.entries = append(s.entries, e)
	}
	sort.Slice(s.entries, func(i, j int) bool {
		return Cmp(s.entries[i].Date, s.entries[j].Date) < 0
	})
	return s
}

// StyleFor returns the style active at date: the latest entry at or before
// it, else the debut style. Empty string when nothing is configured.
func (s *StyleSchedule) StyleFor(date Date) Style {
	active := s.debutStyle
	for _, e := range s.entries {
		if Cmp(e.Date, date) <= 0 {
			active = e.Style
		} else {
			break
		}
	}
	return active
}

// ShouldApply returns the style to set at date, true only when it differs
// from the last applied style.
func (s *StyleSchedule) ShouldApply(date Date) (Style, bool) {
	style := s.StyleFor(date)
	if style != "" && style != s.lastApplied {
		return style, true
	}
	return "", false
}

// DebutStyle returns the configured debut style (may be empty).
func (s *StyleSchedule) DebutStyle() Style { return s.debutStyle }

// MarkApplied records a successfully applied style.
func (s *StyleSchedule) MarkApplied(style Style) {
	s.lastApplied = style
}

// Reset clears tracking at the start of a new career.
func (s *StyleSchedule) Reset() {
	s.lastApplied = ""
}

// HasSchedule reports whether any dated entries exist.
func (s *StyleSchedule) HasSchedule() bool { return len(s.entries) > 0 }

// #endregion schedule
