package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const decisionSchema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	tick        INTEGER NOT NULL,
	screen      TEXT NOT NULL,
	handler     TEXT NOT NULL,
	decision    TEXT NOT NULL,
	reason      TEXT,
	date_key    TEXT,
	detail_json TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region init
// EnsureSchema creates the decision_log table.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(decisionSchema); err != nil {
		return fmt.Errorf("decision log migrate: %w", err)
	}
	return nil
}

// #endregion init

// #region log-decision
// LogDecision writes one decision row. Write-through: it runs inline with the
// agent loop so a crash never loses an already-acted-on decision.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (tick, screen, handler, decision, reason, date_key, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Tick,
		entry.Screen,
		entry.Handler,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.DateKey),
		nullIfEmpty(entry.DetailJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recent
// RecentDecisions returns the newest rows, for the inspect command.
func RecentDecisions(db *sql.DB, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT tick, screen, handler, decision, reason, date_key, detail_json, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var reason, dateKey, detail sql.NullString
		var created string
		if err := rows.Scan(&e.Tick, &e.Screen, &e.Handler, &e.Decision, &reason, &dateKey, &detail, &created); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Reason = reason.String
		e.DateKey = dateKey.String
		e.DetailJSON = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
