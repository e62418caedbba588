package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/masahif/seoplanner/internal/planner"
)

const publicationColumns = `id, brief_id, url, content, schema_markup, published_at,
	gsc_data, performance_metrics`

// InsertPublication stores a publication.
// A second publication for the same brief yields planner.ErrConflict.
func (s *SQLiteStorage) InsertPublication(ctx context.Context, p *planner.Publication) error {
	schema, err := encodeJSON(p.SchemaMarkup)
	if err != nil {
		return err
	}
	gsc, err := encodeJSON(p.GSCData)
	if err != nil {
		return err
	}
	perf, err := encodeJSON(p.PerformanceMetrics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO publications (`+publicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.BriefID, nullString(p.URL), nullString(p.Content), schema,
		nullTime(p.PublishedAt), gsc, perf)
	return mapErr("insert publication", err)
}

func scanPublication(row scanner) (*planner.Publication, error) {
	var (
		p                 planner.Publication
		url, content      sql.NullString
		schema, gsc, perf sql.NullString
		publishedAt       sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.BriefID, &url, &content, &schema, &publishedAt, &gsc, &perf)
	if err != nil {
		return nil, err
	}
	p.URL = url.String
	p.Content = content.String
	p.PublishedAt = timePtr(publishedAt)
	if err := decodeJSON(schema, &p.SchemaMarkup); err != nil {
		return nil, err
	}
	if err := decodeJSON(gsc, &p.GSCData); err != nil {
		return nil, err
	}
	if err := decodeJSON(perf, &p.PerformanceMetrics); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPublication returns a publication or planner.ErrNotFound
func (s *SQLiteStorage) GetPublication(ctx context.Context, id string) (*planner.Publication, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+publicationColumns+" FROM publications WHERE id = ?", id)
	p, err := scanPublication(row)
	if err != nil {
		return nil, mapErr("get publication", err)
	}
	return p, nil
}

// GetPublicationByBrief returns the publication of a brief or planner.ErrNotFound
func (s *SQLiteStorage) GetPublicationByBrief(ctx context.Context, briefID string) (*planner.Publication, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+publicationColumns+" FROM publications WHERE brief_id = ?", briefID)
	p, err := scanPublication(row)
	if err != nil {
		return nil, mapErr("get publication", err)
	}
	return p, nil
}

// ListPublications returns the publications of a project's briefs
func (s *SQLiteStorage) ListPublications(ctx context.Context, projectID string) ([]planner.Publication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.brief_id, p.url, p.content, p.schema_markup, p.published_at,
			p.gsc_data, p.performance_metrics
		FROM publications p
		JOIN content_briefs b ON b.id = p.brief_id
		WHERE b.project_id = ?
		ORDER BY p.published_at, p.id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pubs := []planner.Publication{}
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		pubs = append(pubs, *p)
	}
	return pubs, rows.Err()
}

// InsertQueryData stores one search-console row
func (s *SQLiteStorage) InsertQueryData(ctx context.Context, q *planner.QueryData) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_data (id, publication_id, query, position, clicks, impressions, ctr, query_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.PublicationID, q.Query, nullFloat(q.Position), q.Clicks, q.Impressions,
		nullFloat(q.CTR), nullTime(q.Date))
	return mapErr("insert query data", err)
}

// ListQueryData returns a publication's rows, newest date first
func (s *SQLiteStorage) ListQueryData(ctx context.Context, publicationID string) ([]planner.QueryData, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, publication_id, query, position, clicks, impressions, ctr, query_date
		FROM query_data
		WHERE publication_id = ?
		ORDER BY query_date DESC, clicks DESC, id
	`, publicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list query data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []planner.QueryData{}
	for rows.Next() {
		var (
			q             planner.QueryData
			position, ctr sql.NullFloat64
			date          sql.NullInt64
		)
		if err := rows.Scan(&q.ID, &q.PublicationID, &q.Query, &position, &q.Clicks, &q.Impressions, &ctr, &date); err != nil {
			return nil, fmt.Errorf("failed to scan query data: %w", err)
		}
		q.Position = floatPtr(position)
		q.CTR = floatPtr(ctr)
		q.Date = timePtr(date)
		out = append(out, q)
	}
	return out, rows.Err()
}

// ProjectCounts reads every aggregate of a project inside one transaction
func (s *SQLiteStorage) ProjectCounts(ctx context.Context, projectID string) (*planner.ProjectCounts, error) {
	counts := &planner.ProjectCounts{BriefsByStatus: map[planner.BriefStatus]int{}}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		scalar := []struct {
			query string
			dest  *int
		}{
			{"SELECT COUNT(*) FROM topical_maps WHERE project_id = ?", &counts.TopicalMaps},
			{`SELECT COUNT(*) FROM attributes a
				JOIN topical_maps m ON m.id = a.topical_map_id
				WHERE m.project_id = ?`, &counts.Attributes},
			{`SELECT COUNT(*) FROM publications p
				JOIN content_briefs b ON b.id = p.brief_id
				WHERE b.project_id = ?`, &counts.Publications},
		}
		for _, c := range scalar {
			if err := tx.QueryRowContext(ctx, c.query, projectID).Scan(c.dest); err != nil {
				return fmt.Errorf("failed to count: %w", err)
			}
		}

		rows, err := tx.QueryContext(ctx,
			"SELECT status, COUNT(*) FROM content_briefs WHERE project_id = ? GROUP BY status", projectID)
		if err != nil {
			return fmt.Errorf("failed to count briefs: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var (
				status string
				n      int
			)
			if err := rows.Scan(&status, &n); err != nil {
				return fmt.Errorf("failed to scan brief count: %w", err)
			}
			counts.BriefsByStatus[planner.BriefStatus(status)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
