package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const articleColumns = "id, url, title, source, published_date, content, content_fetched, period_id, collected_at"

// SaveArticle inserts an article under its period. If the URL has been seen
// before the existing row is left untouched and duplicate is reported; a
// duplicate is a defined outcome, not an error.
func (s *Store) SaveArticle(a Article) (id int64, duplicate bool, err error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO articles (url, title, source, published_date, content, period_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.URL, a.Title, nullable(a.Source), nullable(a.PublishedDate), nullable(a.Content), a.PeriodID,
	)
	if err != nil {
		return 0, false, fmt.Errorf("inserting article: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, true, nil
	}

	id, err = res.LastInsertId()
	return id, false, err
}

// ArticlesForPeriod returns every article collected under a period, newest
// first.
func (s *Store) ArticlesForPeriod(periodID string) ([]Article, error) {
	rows, err := s.db.Query(
		"SELECT "+articleColumns+" FROM articles WHERE period_id = ? ORDER BY collected_at DESC, id DESC",
		periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

// ArticlesNeedingFetch returns articles with no content whose fetch has not
// been attempted yet. An empty periodID means all periods.
func (s *Store) ArticlesNeedingFetch(periodID string) ([]Article, error) {
	q := "SELECT " + articleColumns + ` FROM articles
		 WHERE (content IS NULL OR content = '') AND content_fetched = 0`
	args := []any{}
	if periodID != "" {
		q += " AND period_id = ?"
		args = append(args, periodID)
	}
	q += " ORDER BY id"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

// SetArticleContent stores fetched body text and marks the fetch done.
func (s *Store) SetArticleContent(articleID int64, content string) error {
	_, err := s.db.Exec(
		"UPDATE articles SET content = ?, content_fetched = 1 WHERE id = ?",
		content, articleID,
	)
	return err
}

// MarkFetchAttempted records that a content fetch was tried but yielded
// nothing, so the article is not retried every run.
func (s *Store) MarkFetchAttempted(articleID int64) error {
	_, err := s.db.Exec("UPDATE articles SET content_fetched = 1 WHERE id = ?", articleID)
	return err
}

// UntriagedArticles returns articles in a period with no triage row yet.
func (s *Store) UntriagedArticles(periodID string) ([]Article, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.url, a.title, a.source, a.published_date, a.content,
		        a.content_fetched, a.period_id, a.collected_at
		 FROM articles a
		 LEFT JOIN triages t ON t.article_id = a.id
		 WHERE t.article_id IS NULL AND a.period_id = ?
		 ORDER BY a.id`,
		periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

// RelevantArticles returns a period's relevant articles ordered by practical
// score descending. Ties fall back to insertion order so downstream
// clustering sees a stable sequence on every run.
func (s *Store) RelevantArticles(periodID string) ([]Article, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.url, a.title, a.source, a.published_date, a.content,
		        a.content_fetched, a.period_id, a.collected_at
		 FROM articles a
		 JOIN triages t ON t.article_id = a.id
		 WHERE a.period_id = ? AND t.verdict = 'relevant'
		 ORDER BY t.practical_score DESC, a.id ASC`,
		periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectArticles(rows)
}

// ArticleByID returns one article, or nil if it does not exist.
func (s *Store) ArticleByID(id int64) (*Article, error) {
	row := s.db.QueryRow("SELECT "+articleColumns+" FROM articles WHERE id = ?", id)
	a, err := scanArticle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectArticles(rows *sql.Rows) ([]Article, error) {
	var out []Article
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanArticle(scan func(dest ...any) error) (Article, error) {
	var (
		a                      Article
		source, pubDate, body  sql.NullString
		periodID, collectedAt  sql.NullString
		fetched                int
	)
	err := scan(&a.ID, &a.URL, &a.Title, &source, &pubDate, &body, &fetched, &periodID, &collectedAt)
	if err != nil {
		return Article{}, err
	}
	a.Source = text(source)
	a.PublishedDate = text(pubDate)
	a.Content = text(body)
	a.ContentFetched = fetched != 0
	a.PeriodID = text(periodID)
	a.CollectedAt = text(collectedAt)
	return a, nil
}
