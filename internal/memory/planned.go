package memory

// #region imports
import (
	"fmt"
	"log"
	"time"
)

// #endregion

// #region planned-races

// PlannedEntry is one scheduled race from the preset.
type PlannedEntry struct {
	Name      string
	Tentative bool
}

// PlannedRaces merges the preset's Date → race plan with persisted skip
// guards. After a failed match attempt a date is skipped for a bounded number
// of ticks so the agent does not oscillate between plan and fallback.
type PlannedRaces struct {
	store *Store
	plans map[string]PlannedEntry
}

// NewPlannedRaces builds the index over the preset plan.
func NewPlannedRaces(store *Store, plans map[string]PlannedEntry) *PlannedRaces {
	cp := make(map[string]PlannedEntry, len(plans))
	for k, v := range plans {
		cp[k] = v
	}
	return &PlannedRaces{store: store, plans: cp}
}

// RaceFor returns the planned race for a date key. A date under skip
// cooldown is treated as absent.
func (p *PlannedRaces) RaceFor(dateKey string) (PlannedEntry, bool) {
	entry, ok := p.plans[dateKey]
	if !ok {
		return PlannedEntry{}, false
	}
	if p.cooldown(dateKey) > 0 {
		return PlannedEntry{}, false
	}
	return entry, true
}

// MarkSkipped sets the skip cooldown for a date after a failed attempt.
func (p *PlannedRaces) MarkSkipped(dateKey string, cooldown int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := p.store.db.Exec(
		`INSERT INTO planned_skips (date_key, cooldown, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(date_key) DO UPDATE SET
		   cooldown   = excluded.cooldown,
		   updated_at = excluded.updated_at`,
		dateKey, cooldown, now,
	)
	if err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}
	log.Printf("[planned_race] skip_guard=1 after failure key=%s cooldown=%d", dateKey, cooldown)
	return nil
}

// Tick decrements every positive cooldown by one. Called once per agent tick.
func (p *PlannedRaces) Tick() error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := p.store.db.Exec(
		`UPDATE planned_skips SET cooldown = cooldown - 1, updated_at = ? WHERE cooldown > 0`,
		now,
	)
	if err != nil {
		return fmt.Errorf("tick planned skips: %w", err)
	}
	return nil
}

// Cooldown reports the remaining skip ticks for a date key.
func (p *PlannedRaces) Cooldown(dateKey string) int {
	return p.cooldown(dateKey)
}

func (p *PlannedRaces) cooldown(dateKey string) int {
	var cd int
	err := p.store.db.QueryRow(
		`SELECT cooldown FROM planned_skips WHERE date_key = ?`, dateKey,
	).Scan(&cd)
	if err != nil {
		return 0
	}
	if cd < 0 {
		return 0
	}
	return cd
}

// ResetSkips clears all skip guards (new career).
func (p *PlannedRaces) ResetSkips() error {
	if _, err := p.store.db.Exec(`DELETE FROM planned_skips`); err != nil {
		return fmt.Errorf("reset planned skips: %w", err)
	}
	return nil
}

// #endregion planned-races
