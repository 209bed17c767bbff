package memory

// #region imports
import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS run_metadata (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	run_id      TEXT NOT NULL,
	preset_id   TEXT,
	scenario    TEXT,
	date_key    TEXT,
	date_index  INTEGER,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS skill_purchases (
	skill_name  TEXT NOT NULL,
	grade       TEXT NOT NULL,
	date_key    TEXT,
	turn        INTEGER,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (skill_name, grade)
);

CREATE TABLE IF NOT EXISTS skill_sightings (
	skill_name  TEXT NOT NULL,
	grade       TEXT NOT NULL,
	first_date  TEXT,
	last_date   TEXT,
	count       INTEGER NOT NULL DEFAULT 0,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (skill_name, grade)
);

CREATE TABLE IF NOT EXISTS pal_presence (
	scenario     TEXT PRIMARY KEY,
	icon_present INTEGER NOT NULL DEFAULT 0,
	date_key     TEXT,
	turn         INTEGER,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pal_chains (
	scenario    TEXT NOT NULL,
	support_key TEXT NOT NULL,
	steps       INTEGER NOT NULL DEFAULT 0,
	next_energy INTEGER,
	date_key    TEXT,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (scenario, support_key)
);

CREATE TABLE IF NOT EXISTS planned_skips (
	date_key   TEXT PRIMARY KEY,
	cooldown   INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// Store owns the sqlite database backing every persisted memory. All writes
// are write-through and synchronous with the agent loop; readers load on
// start, making the persisted snapshot authoritative after a restart.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the memory database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for sibling packages (decision logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region run-metadata

// RunMetadata is the career identity the memories belong to.
type RunMetadata struct {
	RunID     string
	PresetID  string
	Scenario  string
	DateKey   string
	DateIndex int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoadRunMetadata reads the singleton metadata row; ok=false when none.
func (s *Store) LoadRunMetadata() (RunMetadata, bool, error) {
	var m RunMetadata
	var presetID, scenario, dateKey sql.NullString
	var dateIndex sql.NullInt64
	var created, updated string
	err := s.db.QueryRow(
		`SELECT run_id, preset_id, scenario, date_key, date_index, created_at, updated_at
		 FROM run_metadata WHERE id = 1`,
	).Scan(&m.RunID, &presetID, &scenario, &dateKey, &dateIndex, &created, &updated)
	if err == sql.ErrNoRows {
		return RunMetadata{}, false, nil
	}
	if err != nil {
		return RunMetadata{}, false, fmt.Errorf("load run metadata: %w", err)
	}
	m.PresetID = presetID.String
	m.Scenario = scenario.String
	m.DateKey = dateKey.String
	m.DateIndex = int(dateIndex.Int64)
	if !dateIndex.Valid {
		m.DateIndex = -1
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return m, true, nil
}

// SaveRunMetadata upserts the singleton row, minting a run ID on first write.
// The stored date index only moves forward.
func (s *Store) SaveRunMetadata(m RunMetadata) error {
	now := time.Now().UTC()
	if m.RunID == "" {
		m.RunID = uuid.New().String()
	}
	_, err := s.db.Exec(
		`INSERT INTO run_metadata (id, run_id, preset_id, scenario, date_key, date_index, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   preset_id  = excluded.preset_id,
		   scenario   = excluded.scenario,
		   date_key   = excluded.date_key,
		   date_index = MAX(COALESCE(run_metadata.date_index, -1), excluded.date_index),
		   updated_at = excluded.updated_at`,
		m.RunID,
		nullIfEmpty(m.PresetID),
		nullIfEmpty(m.Scenario),
		nullIfEmpty(m.DateKey),
		m.DateIndex,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save run metadata: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion run-metadata
