package memory

// #region imports
import (
	"fmt"
	"log"
	"strings"
	"time"
)

// #endregion

// #region grades

// Grade is a skill purchase grade symbol.
type Grade string

const (
	GradeSingle Grade = "○"
	GradeDouble Grade = "◎"
	GradeAny    Grade = "__any__"
)

// GradeFromText extracts a grade symbol embedded in a title, if any.
func GradeFromText(s string) Grade {
	switch {
	case strings.Contains(s, string(GradeDouble)):
		return GradeDouble
	case strings.Contains(s, string(GradeSingle)):
		return GradeSingle
	default:
		return ""
	}
}

// CanonicalSkillName strips grade symbols and collapses whitespace.
func CanonicalSkillName(name string) string {
	for _, sym := range []string{"◎", "○", "×"} {
		name = strings.ReplaceAll(name, sym, "")
	}
	return strings.Join(strings.Fields(name), " ")
}

func gradeKey(g Grade) string {
	if g == "" {
		return string(GradeAny)
	}
	return string(g)
}

// #endregion grades

// #region skill-memory

// Staleness horizon: metadata older than this with no fresh date evidence is
// assumed to belong to an abandoned career.
const skillMemoryStale = 6 * time.Hour

// SkillMemory records which skills were bought in the current career so a
// mid-career restart never buys twice. Mutations are write-through; reads hit
// the database so the reloaded snapshot is authoritative by construction.
type SkillMemory struct {
	store    *Store
	scenario string
}

// NewSkillMemory binds the memory to a scenario.
func NewSkillMemory(store *Store, scenario string) *SkillMemory {
	return &SkillMemory{store: store, scenario: strings.ToLower(strings.TrimSpace(scenario))}
}

// MarkPurchased records a completed BUY for (name, grade). Idempotent: a
// second call for the same pair is a no-op.
func (m *SkillMemory) MarkPurchased(name string, grade Grade, dateKey string, turn int) error {
	canon := CanonicalSkillName(name)
	if canon == "" {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := m.store.db.Exec(
		`INSERT INTO skill_purchases (skill_name, grade, date_key, turn, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(skill_name, grade) DO UPDATE SET updated_at = excluded.updated_at`,
		canon, gradeKey(grade), nullIfEmpty(dateKey), turn, now, now,
	)
	if err != nil {
		return fmt.Errorf("mark purchased: %w", err)
	}
	return nil
}

// IsPurchased reports whether (name, grade) is already bought. A recorded
// any-grade purchase answers true for every grade.
func (m *SkillMemory) IsPurchased(name string, grade Grade) bool {
	canon := CanonicalSkillName(name)
	if canon == "" {
		return false
	}
	var n int
	err := m.store.db.QueryRow(
		`SELECT COUNT(*) FROM skill_purchases WHERE skill_name = ? AND grade IN (?, ?)`,
		canon, gradeKey(grade), string(GradeAny),
	).Scan(&n)
	if err != nil {
		log.Printf("[skills] memory read failed: %v", err)
		return false
	}
	return n > 0
}

// HasAnyGrade reports whether the skill was bought at any grade.
func (m *SkillMemory) HasAnyGrade(name string) bool {
	canon := CanonicalSkillName(name)
	if canon == "" {
		return false
	}
	var n int
	err := m.store.db.QueryRow(
		`SELECT COUNT(*) FROM skill_purchases WHERE skill_name = ?`, canon,
	).Scan(&n)
	if err != nil {
		log.Printf("[skills] memory read failed: %v", err)
		return false
	}
	return n > 0
}

// RecordSeen bumps the sighting counter for a skill observed in the list.
func (m *SkillMemory) RecordSeen(name string, grade Grade, dateKey string) error {
	canon := CanonicalSkillName(name)
	if canon == "" {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := m.store.db.Exec(
		`INSERT INTO skill_sightings (skill_name, grade, first_date, last_date, count, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT(skill_name, grade) DO UPDATE SET
		   last_date  = COALESCE(excluded.last_date, skill_sightings.last_date),
		   count      = skill_sightings.count + 1,
		   updated_at = excluded.updated_at`,
		canon, gradeKey(grade), nullIfEmpty(dateKey), nullIfEmpty(dateKey), now,
	)
	if err != nil {
		return fmt.Errorf("record seen: %w", err)
	}
	return nil
}

// Purchases lists all recorded (name, grade) pairs.
func (m *SkillMemory) Purchases() ([][2]string, error) {
	rows, err := m.store.db.Query(
		`SELECT skill_name, grade FROM skill_purchases ORDER BY skill_name, grade`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	var out [][2]string
	for rows.Next() {
		var name, grade string
		if err := rows.Scan(&name, &grade); err != nil {
			return nil, err
		}
		out = append(out, [2]string{name, grade})
	}
	return out, rows.Err()
}

// ResetCareer wipes purchases, sightings, and the run identity. Called at
// career end and on incompatible-run detection.
func (m *SkillMemory) ResetCareer() error {
	for _, stmt := range []string{
		`DELETE FROM skill_purchases`,
		`DELETE FROM skill_sightings`,
		`DELETE FROM run_metadata`,
	} {
		if _, err := m.store.db.Exec(stmt); err != nil {
			return fmt.Errorf("reset career: %w", err)
		}
	}
	return nil
}

// #endregion skill-memory

// #region compatibility

// EnsureCompatibleRun compares the stored run identity against the live one
// and resets the career memories when they contradict: different preset or
// scenario, a date index that moved backwards, or a stale snapshot with no
// fresh date evidence. The live identity is then written through.
func (m *SkillMemory) EnsureCompatibleRun(presetID, dateKey string, dateIndex int) error {
	stored, ok, err := m.store.LoadRunMetadata()
	if err != nil {
		return err
	}
	if ok && !m.compatible(stored, presetID, dateKey, dateIndex) {
		log.Printf("[skill_memory] incompatible run detected → reset")
		if err := m.ResetCareer(); err != nil {
			return err
		}
		stored = RunMetadata{}
	}
	meta := RunMetadata{
		RunID:     stored.RunID,
		PresetID:  presetID,
		Scenario:  m.scenario,
		DateKey:   dateKey,
		DateIndex: dateIndex,
	}
	return m.store.SaveRunMetadata(meta)
}

func (m *SkillMemory) compatible(stored RunMetadata, presetID, dateKey string, dateIndex int) bool {
	if stored.PresetID != "" && presetID != "" && stored.PresetID != presetID {
		return false
	}
	if stored.Scenario != "" && m.scenario != "" && stored.Scenario != m.scenario {
		return false
	}
	if stored.DateKey != "" && dateKey != "" {
		if stored.DateIndex >= 0 && dateIndex >= 0 && dateIndex < stored.DateIndex {
			return false
		}
	}
	stale := !stored.UpdatedAt.IsZero() && time.Since(stored.UpdatedAt) >= skillMemoryStale
	if stale && !(stored.DateKey != "" && dateKey != "" && stored.DateKey == dateKey) {
		return false
	}
	return true
}

// #endregion compatibility
