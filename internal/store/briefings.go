package store

import (
	"database/sql"
	"errors"
)

// SaveBriefing upserts the briefing for a period. Recomposing replaces the
// prior document.
func (s *Store) SaveBriefing(b Briefing) error {
	_, err := s.db.Exec(
		`INSERT INTO briefings (period_id, tldr, body_markdown, storyline_count, article_count)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(period_id) DO UPDATE SET
		   tldr = excluded.tldr,
		   body_markdown = excluded.body_markdown,
		   storyline_count = excluded.storyline_count,
		   article_count = excluded.article_count,
		   generated_at = datetime('now')`,
		b.PeriodID, b.TLDR, b.BodyMarkdown, b.StorylineCount, b.ArticleCount,
	)
	return err
}

// BriefingFor returns the briefing for a period, nil if none exists.
func (s *Store) BriefingFor(periodID string) (*Briefing, error) {
	row := s.db.QueryRow(
		`SELECT id, period_id, tldr, body_markdown, storyline_count, article_count, generated_at
		 FROM briefings WHERE period_id = ?`,
		periodID,
	)
	b, err := scanBriefing(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// AllBriefings returns every briefing, most recent period first.
func (s *Store) AllBriefings() ([]Briefing, error) {
	rows, err := s.db.Query(
		`SELECT id, period_id, tldr, body_markdown, storyline_count, article_count, generated_at
		 FROM briefings ORDER BY period_id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Briefing
	for rows.Next() {
		b, err := scanBriefing(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBriefing(scan func(dest ...any) error) (Briefing, error) {
	var b Briefing
	var generated sql.NullString
	err := scan(&b.ID, &b.PeriodID, &b.TLDR, &b.BodyMarkdown, &b.StorylineCount, &b.ArticleCount, &generated)
	if err != nil {
		return Briefing{}, err
	}
	b.GeneratedAt = text(generated)
	return b, nil
}
