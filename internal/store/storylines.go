package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// CreateStoryline inserts a storyline plus its membership rows in one
// transaction.
func (s *Store) CreateStoryline(periodID, label string, articleIDs []int64) (int64, error) {
	var storylineID int64
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"INSERT INTO storylines (period_id, label, article_count) VALUES (?, ?, ?)",
			periodID, label, len(articleIDs),
		)
		if err != nil {
			return err
		}
		storylineID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, aid := range articleIDs {
			if _, err := tx.Exec(
				"INSERT INTO storyline_members (storyline_id, article_id) VALUES (?, ?)",
				storylineID, aid,
			); err != nil {
				return fmt.Errorf("linking article %d: %w", aid, err)
			}
		}
		return nil
	})
	return storylineID, err
}

// ClearPeriodStorylines discards a period's storylines, their memberships
// and any narratives attached to them, atomically. Re-clustering always
// starts from a clean slate.
func (s *Store) ClearPeriodStorylines(periodID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM storyline_members WHERE storyline_id IN
			   (SELECT id FROM storylines WHERE period_id = ?)`,
			`DELETE FROM narratives WHERE storyline_id IN
			   (SELECT id FROM storylines WHERE period_id = ?)`,
			`DELETE FROM storyline_feedback WHERE storyline_id IN
			   (SELECT id FROM storylines WHERE period_id = ?)`,
			"DELETE FROM storylines WHERE period_id = ?",
		} {
			if _, err := tx.Exec(stmt, periodID); err != nil {
				return err
			}
		}
		return nil
	})
}

// StorylinesForPeriod returns a period's storylines, largest first.
func (s *Store) StorylinesForPeriod(periodID string) ([]Storyline, error) {
	rows, err := s.db.Query(
		`SELECT id, period_id, label, article_count, created_at
		 FROM storylines WHERE period_id = ?
		 ORDER BY article_count DESC, id ASC`,
		periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Storyline
	for rows.Next() {
		var st Storyline
		var created sql.NullString
		if err := rows.Scan(&st.ID, &st.PeriodID, &st.Label, &st.ArticleCount, &created); err != nil {
			return nil, err
		}
		st.CreatedAt = text(created)
		out = append(out, st)
	}
	return out, rows.Err()
}

// StorylineArticles returns the member articles of one storyline.
func (s *Store) StorylineArticles(storylineID int64) ([]Article, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.url, a.title, a.source, a.published_date, a.content,
		        a.content_fetched, a.period_id, a.collected_at
		 FROM articles a
		 JOIN storyline_members m ON m.article_id = a.id
		 WHERE m.storyline_id = ?
		 ORDER BY a.id`,
		storylineID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

// SaveNarrative stores the narrative for a storyline. The storyline_id
// UNIQUE constraint enforces at-most-once creation.
func (s *Store) SaveNarrative(n Narrative) (int64, error) {
	var refs any
	if len(n.SourceRefs) > 0 {
		data, err := json.Marshal(n.SourceRefs)
		if err != nil {
			return 0, err
		}
		refs = string(data)
	}

	res, err := s.db.Exec(
		`INSERT INTO narratives (storyline_id, period_id, title, narrative_text, source_refs)
		 VALUES (?, ?, ?, ?, ?)`,
		n.StorylineID, n.PeriodID, n.Title, n.Text, refs,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// NarrativeForStoryline returns the storyline's narrative, nil if absent.
func (s *Store) NarrativeForStoryline(storylineID int64) (*Narrative, error) {
	row := s.db.QueryRow(
		`SELECT id, storyline_id, period_id, title, narrative_text, source_refs, generated_at
		 FROM narratives WHERE storyline_id = ?`,
		storylineID,
	)
	n, err := scanNarrative(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NarrativesForPeriod returns a period's narratives ordered by storyline
// size descending, matching briefing body order.
func (s *Store) NarrativesForPeriod(periodID string) ([]Narrative, error) {
	rows, err := s.db.Query(
		`SELECT n.id, n.storyline_id, n.period_id, n.title, n.narrative_text, n.source_refs, n.generated_at
		 FROM narratives n
		 JOIN storylines st ON st.id = n.storyline_id
		 WHERE n.period_id = ?
		 ORDER BY st.article_count DESC, st.id ASC`,
		periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Narrative
	for rows.Next() {
		n, err := scanNarrative(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNarrative(scan func(dest ...any) error) (Narrative, error) {
	var (
		n               Narrative
		refs, generated sql.NullString
	)
	if err := scan(&n.ID, &n.StorylineID, &n.PeriodID, &n.Title, &n.Text, &refs, &generated); err != nil {
		return Narrative{}, err
	}
	n.GeneratedAt = text(generated)
	if refs.Valid {
		if err := json.Unmarshal([]byte(refs.String), &n.SourceRefs); err != nil {
			n.SourceRefs = nil
		}
	}
	return n, nil
}
