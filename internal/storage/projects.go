package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/masahif/seoplanner/internal/planner"
)

const projectColumns = `id, name, source_context, central_entity, central_search_intent,
	functional_words, created_at, updated_at`

// InsertProject stores a new project
func (s *SQLiteStorage) InsertProject(ctx context.Context, p *planner.Project) error {
	words, err := encodeJSON(wordsOrEmpty(p.FunctionalWords))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, nullString(p.SourceContext), nullString(p.CentralEntity),
		nullString(p.CentralSearchIntent), words, unixNano(p.CreatedAt), unixNano(p.UpdatedAt))
	return mapErr("insert project", err)
}

func wordsOrEmpty(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}

func scanProject(row scanner) (*planner.Project, error) {
	var (
		p                          planner.Project
		sourceCtx, central, intent sql.NullString
		words                      sql.NullString
		createdAt, updatedAt       int64
	)
	if err := row.Scan(&p.ID, &p.Name, &sourceCtx, &central, &intent, &words, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.SourceContext = sourceCtx.String
	p.CentralEntity = central.String
	p.CentralSearchIntent = intent.String
	p.FunctionalWords = []string{}
	if err := decodeJSON(words, &p.FunctionalWords); err != nil {
		return nil, err
	}
	p.CreatedAt = fromUnixNano(createdAt)
	p.UpdatedAt = fromUnixNano(updatedAt)
	return &p, nil
}

// GetProject returns a project or planner.ErrNotFound
func (s *SQLiteStorage) GetProject(ctx context.Context, id string) (*planner.Project, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if err != nil {
		return nil, mapErr("get project", err)
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first
func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]planner.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := []planner.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject overwrites a project's mutable fields
func (s *SQLiteStorage) UpdateProject(ctx context.Context, p *planner.Project) error {
	words, err := encodeJSON(wordsOrEmpty(p.FunctionalWords))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, source_context = ?, central_entity = ?, central_search_intent = ?,
			functional_words = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, nullString(p.SourceContext), nullString(p.CentralEntity),
		nullString(p.CentralSearchIntent), words, unixNano(p.UpdatedAt), p.ID)
	if err != nil {
		return mapErr("update project", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("update project %s: %w", p.ID, planner.ErrNotFound)
	}
	return nil
}

// DeleteProject removes a project and everything it owns in one transaction.
// Children go first: query data, publications, links, sections, briefs,
// then entity links, entities, attributes and maps.
func (s *SQLiteStorage) DeleteProject(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		briefs := "SELECT id FROM content_briefs WHERE project_id = ?"
		maps := "SELECT id FROM topical_maps WHERE project_id = ?"

		steps := []string{
			"DELETE FROM query_data WHERE publication_id IN (SELECT id FROM publications WHERE brief_id IN (" + briefs + "))",
			"DELETE FROM publications WHERE brief_id IN (" + briefs + ")",
			"DELETE FROM internal_links WHERE source_brief_id IN (" + briefs + ") OR target_brief_id IN (" + briefs + ")",
			"DELETE FROM brief_sections WHERE brief_id IN (" + briefs + ")",
			"DELETE FROM content_briefs WHERE project_id = ?",
			"DELETE FROM entity_attributes WHERE entity_id IN (SELECT id FROM entities WHERE topical_map_id IN (" + maps + "))",
			"DELETE FROM entities WHERE topical_map_id IN (" + maps + ")",
			"DELETE FROM attributes WHERE topical_map_id IN (" + maps + ")",
			"DELETE FROM topical_maps WHERE project_id = ?",
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, bindAll(q, id)...); err != nil {
				return fmt.Errorf("failed to delete project children: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		deleted, err = affected(res)
		return err
	})
	return deleted, err
}
