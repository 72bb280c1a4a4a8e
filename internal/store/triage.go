package store

import (
	"database/sql"
	"encoding/json"
	"errors"
)

// SaveTriage records the verdict for an article, replacing any prior one.
func (s *Store) SaveTriage(t Triage) error {
	var keyPoints any
	if len(t.KeyPoints) > 0 {
		data, err := json.Marshal(t.KeyPoints)
		if err != nil {
			return err
		}
		keyPoints = string(data)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO triages
		 (article_id, verdict, article_type, key_points, relevance_reason, practical_score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ArticleID, t.Verdict, nullable(t.ArticleType), keyPoints,
		nullable(t.RelevanceReason), t.PracticalScore,
	)
	return err
}

// TriageFor returns the triage row for an article, or nil when untriaged.
func (s *Store) TriageFor(articleID int64) (*Triage, error) {
	row := s.db.QueryRow(
		`SELECT article_id, verdict, article_type, key_points, relevance_reason, practical_score, triaged_at
		 FROM triages WHERE article_id = ?`,
		articleID,
	)

	var (
		t                       Triage
		articleType, keyPoints  sql.NullString
		reason, triagedAt       sql.NullString
	)
	err := row.Scan(&t.ArticleID, &t.Verdict, &articleType, &keyPoints, &reason, &t.PracticalScore, &triagedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.ArticleType = text(articleType)
	t.RelevanceReason = text(reason)
	t.TriagedAt = text(triagedAt)
	if keyPoints.Valid {
		if err := json.Unmarshal([]byte(keyPoints.String), &t.KeyPoints); err != nil {
			t.KeyPoints = nil
		}
	}
	return &t, nil
}

// TriageStatsForPeriod counts verdicts within one period.
func (s *Store) TriageStatsForPeriod(periodID string) (*TriageStats, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN t.verdict = 'relevant' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN t.verdict = 'skip' THEN 1 ELSE 0 END), 0)
		 FROM triages t
		 JOIN articles a ON a.id = t.article_id
		 WHERE a.period_id = ?`,
		periodID,
	)

	var st TriageStats
	if err := row.Scan(&st.Total, &st.Relevant, &st.Skipped); err != nil {
		return nil, err
	}
	return &st, nil
}
