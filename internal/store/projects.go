package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const projectColumns = `id, name, created_at, last_used_at`

// CreateProject inserts a project. Names are unique (exact, case-sensitive
// match) and must not be blank.
func (s *Store) CreateProject(name string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("create project: name is required: %w", ErrInvalidInput)
	}

	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(`SELECT COUNT(*) FROM projects WHERE name = ?`, name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check project name: %w", classify(err))
		}
		if exists > 0 {
			return fmt.Errorf("create project %q: %w", name, ErrDuplicateName)
		}

		now := formatTime(s.now())
		res, err := tx.Exec(
			`INSERT INTO projects (name, created_at, last_used_at) VALUES (?, ?, ?)`,
			name, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create project %q: %w", name, ErrDuplicateName)
			}
			return fmt.Errorf("insert project: %w", classify(err))
		}
		id, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProject(id)
}

func (s *Store) GetProject(id int64) (*Project, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) GetProjectByName(name string) (*Project, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE name = ?`, name))
	if err != nil {
		return nil, fmt.Errorf("get project %q: %w", name, err)
	}
	return p, nil
}

// ListProjects returns every project, most recently used first.
func (s *Store) ListProjects() ([]Project, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY last_used_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", classify(err))
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, by cascade, all of its intervals.
// Deleting a missing project is not an error.
func (s *Store) DeleteProject(id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project %d: %w", id, classify(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(r rowScanner) (*Project, error) {
	p := &Project{}
	var createdAt, lastUsedAt sql.NullString
	if err := r.Scan(&p.ID, &p.Name, &createdAt, &lastUsedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(err)
	}
	if createdAt.Valid {
		p.CreatedAt, _ = parseTime(createdAt.String)
	}
	if lastUsedAt.Valid {
		p.LastUsedAt, _ = parseTime(lastUsedAt.String)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
