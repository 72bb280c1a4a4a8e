package store

import "strings"

// RateStoryline records a thumbs rating for a storyline, replacing any
// prior one.
func (s *Store) RateStoryline(storylineID int64, periodID, rating string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO storyline_feedback (storyline_id, period_id, rating) VALUES (?, ?, ?)",
		storylineID, periodID, rating,
	)
	return err
}

// UnrateStoryline clears a storyline's rating (toggle off).
func (s *Store) UnrateStoryline(storylineID int64) error {
	_, err := s.db.Exec("DELETE FROM storyline_feedback WHERE storyline_id = ?", storylineID)
	return err
}

// StorylineRatings returns storyline_id -> rating for one period.
func (s *Store) StorylineRatings(periodID string) (map[int64]string, error) {
	rows, err := s.db.Query(
		"SELECT storyline_id, rating FROM storyline_feedback WHERE period_id = ?", periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make(map[int64]string)
	for rows.Next() {
		var id int64
		var rating string
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, err
		}
		ratings[id] = rating
	}
	return ratings, rows.Err()
}

// RateArticle records a thumbs rating for an article, replacing any prior
// one.
func (s *Store) RateArticle(articleID int64, rating string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO article_feedback (article_id, rating) VALUES (?, ?)",
		articleID, rating,
	)
	return err
}

// UnrateArticle clears an article's rating.
func (s *Store) UnrateArticle(articleID int64) error {
	_, err := s.db.Exec("DELETE FROM article_feedback WHERE article_id = ?", articleID)
	return err
}

// ArticleRatings returns article_id -> rating for the given articles.
func (s *Store) ArticleRatings(articleIDs []int64) (map[int64]string, error) {
	ratings := make(map[int64]string)
	if len(articleIDs) == 0 {
		return ratings, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(articleIDs)), ",")
	args := make([]any, len(articleIDs))
	for i, id := range articleIDs {
		args[i] = id
	}

	rows, err := s.db.Query(
		"SELECT article_id, rating FROM article_feedback WHERE article_id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var rating string
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, err
		}
		ratings[id] = rating
	}
	return ratings, rows.Err()
}

// FeedbackTotals aggregates article thumbs by source and by triage article
// type, for injection into triage weighting.
func (s *Store) FeedbackTotals() (*FeedbackSummary, error) {
	summary := &FeedbackSummary{}

	rows, err := s.db.Query(`
		SELECT COALESCE(a.source, 'Unknown'),
		       SUM(CASE WHEN f.rating = 'positive' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN f.rating = 'negative' THEN 1 ELSE 0 END)
		FROM article_feedback f
		JOIN articles a ON a.id = f.article_id
		GROUP BY COALESCE(a.source, 'Unknown')
		ORDER BY 2 - 3 DESC, 1 ASC`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sf SourceFeedback
		if err := rows.Scan(&sf.Source, &sf.Positive, &sf.Negative); err != nil {
			rows.Close()
			return nil, err
		}
		summary.Sources = append(summary.Sources, sf)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = s.db.Query(`
		SELECT COALESCE(t.article_type, 'other'),
		       SUM(CASE WHEN f.rating = 'positive' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN f.rating = 'negative' THEN 1 ELSE 0 END)
		FROM article_feedback f
		JOIN triages t ON t.article_id = f.article_id
		GROUP BY COALESCE(t.article_type, 'other')
		ORDER BY 2 - 3 DESC, 1 ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tf TypeFeedback
		if err := rows.Scan(&tf.ArticleType, &tf.Positive, &tf.Negative); err != nil {
			return nil, err
		}
		summary.Types = append(summary.Types, tf)
	}
	return summary, rows.Err()
}
