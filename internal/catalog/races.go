package catalog

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// #endregion

// #region race-index

// RaceEntry is one race occurrence on a specific career date.
type RaceEntry struct {
	Name         string `json:"name"`
	DisplayTitle string `json:"display_title"` // card title as rendered on the square
	Rank         string `json:"rank"`          // G1, G2, G3, OP, EX
	Order        int    `json:"order"`         // position among that date's squares
}

// RaceIndex is the read-only race lookup keyed by date key ("Y2-06-1").
type RaceIndex struct {
	byDate    map[string][]RaceEntry
	canonical map[string]string // normalized name -> canonical name
}

// LoadRaceIndex reads the race dataset. Missing file → empty index.
func LoadRaceIndex(path string) (*RaceIndex, error) {
	idx := &RaceIndex{byDate: map[string][]RaceEntry{}, canonical: map[string]string{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("read race index: %w", err)
	}
	if err := json.Unmarshal(raw, &idx.byDate); err != nil {
		return nil, fmt.Errorf("parse race index: %w", err)
	}
	for _, entries := range idx.byDate {
		for _, e := range entries {
			idx.canonical[normalizeRaceName(e.Name)] = e.Name
		}
	}
	return idx, nil
}

// EntryForNameOnDate returns the entry for a race on a date, if present.
func (idx *RaceIndex) EntryForNameOnDate(name, dateKey string) (RaceEntry, bool) {
	want := normalizeRaceName(name)
	for _, e := range idx.byDate[dateKey] {
		if normalizeRaceName(e.Name) == want {
			return e, true
		}
	}
	return RaceEntry{}, false
}

// ExpectedTitles returns every (display title, rank) the race appears under,
// date-independent, for OCR matching when the date binding failed.
func (idx *RaceIndex) ExpectedTitles(name string) [][2]string {
	want := normalizeRaceName(name)
	seen := map[string]bool{}
	var out [][2]string
	for _, entries := range idx.byDate {
		for _, e := range entries {
			if normalizeRaceName(e.Name) != want {
				continue
			}
			title := e.DisplayTitle
			if title == "" {
				title = e.Name
			}
			if seen[title] {
				continue
			}
			seen[title] = true
			out = append(out, [2]string{title, strings.ToUpper(e.Rank)})
		}
	}
	return out
}

// Canonicalize maps a user-written race name onto the dataset's canonical
// spelling, or returns the input unchanged when unknown.
func (idx *RaceIndex) Canonicalize(name string) string {
	if canon, ok := idx.canonical[normalizeRaceName(name)]; ok {
		return canon
	}
	return name
}

// ValidDateForRace reports whether the race runs on that date per the
// dataset.
func (idx *RaceIndex) ValidDateForRace(name, dateKey string) bool {
	_, ok := idx.EntryForNameOnDate(name, dateKey)
	return ok
}

func normalizeRaceName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// #endregion race-index
