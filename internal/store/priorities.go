package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// AddPriority creates a research priority, active by default.
func (s *Store) AddPriority(title, description string, keywords []string) (int64, error) {
	var kw any
	if len(keywords) > 0 {
		data, err := json.Marshal(keywords)
		if err != nil {
			return 0, err
		}
		kw = string(data)
	}

	res, err := s.db.Exec(
		"INSERT INTO research_priorities (title, description, keywords) VALUES (?, ?, ?)",
		title, nullable(description), kw,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdatePriority changes the provided fields; empty title/description are
// skipped, a nil keywords slice leaves keywords untouched.
func (s *Store) UpdatePriority(id int64, title, description string, keywords []string) error {
	var sets []string
	var args []any

	if title != "" {
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if description != "" {
		sets = append(sets, "description = ?")
		args = append(args, description)
	}
	if keywords != nil {
		data, err := json.Marshal(keywords)
		if err != nil {
			return err
		}
		sets = append(sets, "keywords = ?")
		args = append(args, string(data))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = datetime('now')")
	args = append(args, id)
	_, err := s.db.Exec(
		"UPDATE research_priorities SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	return err
}

// TogglePriority flips a priority's active flag.
func (s *Store) TogglePriority(id int64) error {
	_, err := s.db.Exec(
		"UPDATE research_priorities SET is_active = NOT is_active, updated_at = datetime('now') WHERE id = ?",
		id,
	)
	return err
}

// DeletePriority removes a priority.
func (s *Store) DeletePriority(id int64) error {
	_, err := s.db.Exec("DELETE FROM research_priorities WHERE id = ?", id)
	return err
}

// PriorityByID returns one priority, nil if absent.
func (s *Store) PriorityByID(id int64) (*Priority, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, keywords, is_active, created_at, updated_at
		 FROM research_priorities WHERE id = ?`,
		id,
	)
	p, err := scanPriority(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AllPriorities returns every priority, newest first.
func (s *Store) AllPriorities() ([]Priority, error) {
	return s.queryPriorities(
		`SELECT id, title, description, keywords, is_active, created_at, updated_at
		 FROM research_priorities ORDER BY created_at DESC, id DESC`,
	)
}

// ActivePriorities returns only active priorities, newest first.
func (s *Store) ActivePriorities() ([]Priority, error) {
	return s.queryPriorities(
		`SELECT id, title, description, keywords, is_active, created_at, updated_at
		 FROM research_priorities WHERE is_active = 1 ORDER BY created_at DESC, id DESC`,
	)
}

func (s *Store) queryPriorities(query string) ([]Priority, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Priority
	for rows.Next() {
		p, err := scanPriority(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPriority(scan func(dest ...any) error) (Priority, error) {
	var (
		p                         Priority
		desc, kw, created, updated sql.NullString
		active                    int
	)
	if err := scan(&p.ID, &p.Title, &desc, &kw, &active, &created, &updated); err != nil {
		return Priority{}, err
	}
	p.Description = text(desc)
	p.IsActive = active != 0
	p.CreatedAt = text(created)
	p.UpdatedAt = text(updated)
	if kw.Valid {
		if err := json.Unmarshal([]byte(kw.String), &p.Keywords); err != nil {
			p.Keywords = nil
		}
	}
	return p, nil
}
