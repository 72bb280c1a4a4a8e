package store

import (
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. New steps append to the list with
// the next version number; applied versions are tracked via
// PRAGMA user_version.
type migration struct {
	version int
	name    string
	up      func(tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, name: "base schema", up: func(tx *sql.Tx) error {
		_, err := tx.Exec(baseSchema)
		return err
	}},
}

func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if err := m.up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}

		// PRAGMA user_version cannot run inside the transaction with
		// modernc/sqlite. The DDL above is idempotent, so a crash between
		// commit and stamp just re-runs the step.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("stamping version %d: %w", m.version, err)
		}
	}

	return nil
}

const baseSchema = `
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    source TEXT,
    published_date TEXT,
    content TEXT,
    content_fetched INTEGER NOT NULL DEFAULT 0,
    period_id TEXT NOT NULL,
    collected_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS triages (
    article_id INTEGER PRIMARY KEY REFERENCES articles(id),
    verdict TEXT NOT NULL CHECK(verdict IN ('relevant', 'skip')),
    article_type TEXT,
    key_points TEXT,
    relevance_reason TEXT,
    practical_score INTEGER NOT NULL DEFAULT 0,
    triaged_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS storylines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT NOT NULL,
    label TEXT NOT NULL,
    article_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS storyline_members (
    storyline_id INTEGER NOT NULL REFERENCES storylines(id),
    article_id INTEGER NOT NULL REFERENCES articles(id),
    PRIMARY KEY (storyline_id, article_id)
);

CREATE TABLE IF NOT EXISTS narratives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    storyline_id INTEGER UNIQUE NOT NULL REFERENCES storylines(id),
    period_id TEXT NOT NULL,
    title TEXT NOT NULL,
    narrative_text TEXT NOT NULL,
    source_refs TEXT,
    generated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS briefings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT UNIQUE NOT NULL,
    tldr TEXT NOT NULL,
    body_markdown TEXT NOT NULL,
    storyline_count INTEGER NOT NULL DEFAULT 0,
    article_count INTEGER NOT NULL DEFAULT 0,
    generated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS research_priorities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT,
    keywords TEXT,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT UNIQUE NOT NULL,
    article_count INTEGER NOT NULL DEFAULT 0,
    storyline_count INTEGER NOT NULL DEFAULT 0,
    generated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS storyline_feedback (
    storyline_id INTEGER PRIMARY KEY REFERENCES storylines(id),
    period_id TEXT NOT NULL,
    rating TEXT NOT NULL CHECK(rating IN ('useful', 'not_useful')),
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS article_feedback (
    article_id INTEGER PRIMARY KEY REFERENCES articles(id),
    rating TEXT NOT NULL CHECK(rating IN ('positive', 'negative')),
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_articles_period ON articles(period_id);
CREATE INDEX IF NOT EXISTS idx_storylines_period ON storylines(period_id);
CREATE INDEX IF NOT EXISTS idx_narratives_period ON narratives(period_id);
CREATE INDEX IF NOT EXISTS idx_feedback_period ON storyline_feedback(period_id);
`
