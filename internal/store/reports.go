package store

import (
	"database/sql"
	"errors"

	"newsbrief/internal/period"
)

// SaveRunReport upserts the run report for a period.
func (s *Store) SaveRunReport(periodID string, articleCount, storylineCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO run_reports (period_id, article_count, storyline_count)
		 VALUES (?, ?, ?)
		 ON CONFLICT(period_id) DO UPDATE SET
		   article_count = excluded.article_count,
		   storyline_count = excluded.storyline_count,
		   generated_at = datetime('now')`,
		periodID, articleCount, storylineCount,
	)
	return err
}

// LastRunAnchor returns the end date of the most recent run report's
// period, or "" when no run has been recorded.
func (s *Store) LastRunAnchor() (string, error) {
	row := s.db.QueryRow("SELECT period_id FROM run_reports ORDER BY period_id DESC LIMIT 1")

	var periodID string
	err := row.Scan(&periodID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return period.EndDate(periodID), nil
}

// AggregateStats returns store-wide totals for the status surface.
func (s *Store) AggregateStats() (*Stats, error) {
	st := &Stats{}
	for _, q := range []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM articles", &st.Articles},
		{"SELECT COUNT(*) FROM triages", &st.Triaged},
		{"SELECT COUNT(*) FROM triages WHERE verdict = 'relevant'", &st.Relevant},
		{"SELECT COUNT(DISTINCT period_id) FROM articles", &st.Periods},
		{"SELECT COUNT(*) FROM storylines", &st.Storylines},
		{"SELECT COUNT(*) FROM briefings", &st.Briefings},
		{"SELECT COUNT(*) FROM research_priorities", &st.Priorities},
		{"SELECT COUNT(*) FROM research_priorities WHERE is_active = 1", &st.ActivePriorities},
	} {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return st, nil
}
