package memory

// #region imports
import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
)

// #endregion

// #region pal-memory

// PalMemory tracks the recreation-PAL icon and the advertised chain step per
// PAL support, with a per-step flag for whether the next date still restores
// energy. Lobby and training policies consult it before choosing Rest.
type PalMemory struct {
	store    *Store
	scenario string
}

// NewPalMemory binds the memory to a scenario.
func NewPalMemory(store *Store, scenario string) *PalMemory {
	return &PalMemory{store: store, scenario: strings.ToLower(strings.TrimSpace(scenario))}
}

// RecordPresence stores whether the PAL icon showed this turn. An absent
// icon clears the chain snapshots (the chain is finished or the PAL left).
func (m *PalMemory) RecordPresence(present bool, dateKey string, turn int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	presentVal := 0
	if present {
		presentVal = 1
	}
	_, err := m.store.db.Exec(
		`INSERT INTO pal_presence (scenario, icon_present, date_key, turn, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(scenario) DO UPDATE SET
		   icon_present = excluded.icon_present,
		   date_key     = excluded.date_key,
		   turn         = excluded.turn,
		   updated_at   = excluded.updated_at`,
		m.scenario, presentVal, nullIfEmpty(dateKey), turn, now,
	)
	if err != nil {
		return fmt.Errorf("record pal presence: %w", err)
	}
	if !present {
		return m.clearChains()
	}
	return nil
}

// RecordChain stores one PAL row snapshot: completed steps and whether the
// next step is expected to restore energy (nil when the catalog is silent).
func (m *PalMemory) RecordChain(supportKey string, steps int, nextEnergy *bool, dateKey string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var energyVal any
	if nextEnergy != nil {
		if *nextEnergy {
			energyVal = 1
		} else {
			energyVal = 0
		}
	}
	_, err := m.store.db.Exec(
		`INSERT INTO pal_chains (scenario, support_key, steps, next_energy, date_key, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(scenario, support_key) DO UPDATE SET
		   steps       = excluded.steps,
		   next_energy = excluded.next_energy,
		   date_key    = excluded.date_key,
		   updated_at  = excluded.updated_at`,
		m.scenario, supportKey, steps, energyVal, nullIfEmpty(dateKey), now,
	)
	if err != nil {
		return fmt.Errorf("record pal chain: %w", err)
	}
	return nil
}

// IconPresent reports the last recorded icon state.
func (m *PalMemory) IconPresent() bool {
	var present int
	err := m.store.db.QueryRow(
		`SELECT icon_present FROM pal_presence WHERE scenario = ?`, m.scenario,
	).Scan(&present)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		log.Printf("[lobby] pal memory read failed: %v", err)
		return false
	}
	return present == 1
}

// AnyNextEnergy reports whether the icon is present and at least one chain's
// next step still yields energy. This is the gate that substitutes
// Recreation-with-PAL for Rest.
func (m *PalMemory) AnyNextEnergy() bool {
	if !m.IconPresent() {
		return false
	}
	var n int
	err := m.store.db.QueryRow(
		`SELECT COUNT(*) FROM pal_chains WHERE scenario = ? AND next_energy = 1`,
		m.scenario,
	).Scan(&n)
	if err != nil {
		log.Printf("[lobby] pal memory read failed: %v", err)
		return false
	}
	return n > 0
}

// ChainStep returns the recorded completed steps for a PAL support.
func (m *PalMemory) ChainStep(supportKey string) (int, bool) {
	var steps int
	err := m.store.db.QueryRow(
		`SELECT steps FROM pal_chains WHERE scenario = ? AND support_key = ?`,
		m.scenario, supportKey,
	).Scan(&steps)
	if err != nil {
		return 0, false
	}
	return steps, true
}

func (m *PalMemory) clearChains() error {
	if _, err := m.store.db.Exec(
		`DELETE FROM pal_chains WHERE scenario = ?`, m.scenario,
	); err != nil {
		return fmt.Errorf("clear pal chains: %w", err)
	}
	return nil
}

// Reset drops all PAL state for the scenario.
func (m *PalMemory) Reset() error {
	if _, err := m.store.db.Exec(
		`DELETE FROM pal_presence WHERE scenario = ?`, m.scenario,
	); err != nil {
		return fmt.Errorf("reset pal presence: %w", err)
	}
	return m.clearChains()
}

// #endregion pal-memory
