package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/masahif/seoplanner/internal/planner"
)

const briefColumns = `id, project_id, entity_id, attribute_id, title_tag, url_slug,
	meta_description, h1, image_alts, status, macro_context, micro_contexts,
	target_publish_date, actual_publish_date, word_count_target, authorship_codes,
	created_at, updated_at`

// briefArgs returns the column values of b in briefColumns order
func briefArgs(b *planner.ContentBrief) ([]any, error) {
	alts, err := encodeJSON(b.ImageAlts)
	if err != nil {
		return nil, err
	}
	micro, err := encodeJSON(b.MicroContexts)
	if err != nil {
		return nil, err
	}
	codes, err := encodeJSON(b.AuthorshipCodes)
	if err != nil {
		return nil, err
	}
	return []any{
		b.ID, b.ProjectID, nullString(b.EntityID), nullString(b.AttributeID),
		nullString(b.TitleTag), nullString(b.URLSlug), nullString(b.MetaDescription),
		nullString(b.H1), alts, string(b.Status), nullString(b.MacroContext), micro,
		nullTime(b.TargetPublishDate), nullTime(b.ActualPublishDate),
		nullInt(b.WordCountTarget), codes, unixNano(b.CreatedAt), unixNano(b.UpdatedAt),
	}, nil
}

// InsertBrief stores a new content brief
func (s *SQLiteStorage) InsertBrief(ctx context.Context, b *planner.ContentBrief) error {
	args, err := briefArgs(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_briefs (`+briefColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	return mapErr("insert brief", err)
}

func scanBrief(row scanner) (*planner.ContentBrief, error) {
	var (
		b                             planner.ContentBrief
		entityID, attributeID         sql.NullString
		title, slug, meta, h1, macro  sql.NullString
		alts, micro, codes            sql.NullString
		status                        string
		targetDate, actualDate, words sql.NullInt64
		createdAt, updatedAt          int64
	)
	err := row.Scan(&b.ID, &b.ProjectID, &entityID, &attributeID, &title, &slug,
		&meta, &h1, &alts, &status, &macro, &micro,
		&targetDate, &actualDate, &words, &codes,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	b.EntityID = entityID.String
	b.AttributeID = attributeID.String
	b.TitleTag = title.String
	b.URLSlug = slug.String
	b.MetaDescription = meta.String
	b.H1 = h1.String
	b.Status = planner.BriefStatus(status)
	b.MacroContext = macro.String
	b.TargetPublishDate = timePtr(targetDate)
	b.ActualPublishDate = timePtr(actualDate)
	b.WordCountTarget = int(words.Int64)
	b.CreatedAt = fromUnixNano(createdAt)
	b.UpdatedAt = fromUnixNano(updatedAt)

	if err := decodeJSON(alts, &b.ImageAlts); err != nil {
		return nil, err
	}
	if err := decodeJSON(micro, &b.MicroContexts); err != nil {
		return nil, err
	}
	if err := decodeJSON(codes, &b.AuthorshipCodes); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBrief returns a brief or planner.ErrNotFound
func (s *SQLiteStorage) GetBrief(ctx context.Context, id string) (*planner.ContentBrief, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+briefColumns+" FROM content_briefs WHERE id = ?", id)
	b, err := scanBrief(row)
	if err != nil {
		return nil, mapErr("get brief", err)
	}
	return b, nil
}

// ListBriefs returns a project's briefs in creation order.
// An empty status returns every brief.
func (s *SQLiteStorage) ListBriefs(ctx context.Context, projectID string, status planner.BriefStatus) ([]planner.ContentBrief, error) {
	q := "SELECT " + briefColumns + " FROM content_briefs WHERE project_id = ?"
	args := []any{projectID}
	if status != "" {
		q += " AND status = ?"
		args = append(args, string(status))
	}
	q += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	briefs := []planner.ContentBrief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		briefs = append(briefs, *b)
	}
	return briefs, rows.Err()
}

// UpdateBrief overwrites every mutable column of a brief
func (s *SQLiteStorage) UpdateBrief(ctx context.Context, b *planner.ContentBrief) error {
	args, err := briefArgs(b)
	if err != nil {
		return err
	}
	// Drop id, project_id and created_at; append id for the WHERE clause
	set := append([]any{}, args[2:16]...)
	set = append(set, args[17], b.ID)

	res, err := s.db.ExecContext(ctx, `
		UPDATE content_briefs
		SET entity_id = ?, attribute_id = ?, title_tag = ?, url_slug = ?,
			meta_description = ?, h1 = ?, image_alts = ?, status = ?, macro_context = ?,
			micro_contexts = ?, target_publish_date = ?, actual_publish_date = ?,
			word_count_target = ?, authorship_codes = ?, updated_at = ?
		WHERE id = ?
	`, set...)
	if err != nil {
		return mapErr("update brief", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("update brief %s: %w", b.ID, planner.ErrNotFound)
	}
	return nil
}

// DeleteBrief removes a brief with its sections, links and publication
func (s *SQLiteStorage) DeleteBrief(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		steps := []string{
			"DELETE FROM query_data WHERE publication_id IN (SELECT id FROM publications WHERE brief_id = ?)",
			"DELETE FROM publications WHERE brief_id = ?",
			"DELETE FROM internal_links WHERE source_brief_id = ? OR target_brief_id = ?",
			"DELETE FROM brief_sections WHERE brief_id = ?",
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, bindAll(q, id)...); err != nil {
				return fmt.Errorf("failed to delete brief children: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM content_briefs WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete brief: %w", err)
		}
		deleted, err = affected(res)
		return err
	})
	return deleted, err
}

const sectionColumns = `id, brief_id, heading_level, heading_text, order_position,
	question_type, format_instruction, content_instructions, required_terms`

// InsertSection stores a brief section.
// A second section at the same position yields planner.ErrConflict.
func (s *SQLiteStorage) InsertSection(ctx context.Context, sec *planner.BriefSection) error {
	instr, err := encodeJSON(sec.ContentInstructions)
	if err != nil {
		return err
	}
	terms, err := encodeJSON(sec.RequiredTerms)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO brief_sections (`+sectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sec.ID, sec.BriefID, string(sec.HeadingLevel), sec.HeadingText, sec.OrderPosition,
		nullString(string(sec.QuestionType)), nullString(string(sec.FormatInstruction)), instr, terms)
	return mapErr("insert section", err)
}

// ListSections returns a brief's sections by order position
func (s *SQLiteStorage) ListSections(ctx context.Context, briefID string) ([]planner.BriefSection, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sectionColumns+" FROM brief_sections WHERE brief_id = ? ORDER BY order_position", briefID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sections := []planner.BriefSection{}
	for rows.Next() {
		var (
			sec                 planner.BriefSection
			level               string
			qtype, format       sql.NullString
			instructions, terms sql.NullString
		)
		err := rows.Scan(&sec.ID, &sec.BriefID, &level, &sec.HeadingText, &sec.OrderPosition,
			&qtype, &format, &instructions, &terms)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sec.HeadingLevel = planner.HeadingLevel(level)
		sec.QuestionType = planner.QuestionType(qtype.String)
		sec.FormatInstruction = planner.FormatInstruction(format.String)
		if err := decodeJSON(instructions, &sec.ContentInstructions); err != nil {
			return nil, err
		}
		if err := decodeJSON(terms, &sec.RequiredTerms); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

const linkColumns = `id, source_brief_id, target_brief_id, anchor_text, placement_section,
	priority, is_contextual_bridge`

// InsertInternalLink stores a directed link.
// A second link for the same pair yields planner.ErrConflict.
func (s *SQLiteStorage) InsertInternalLink(ctx context.Context, l *planner.InternalLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO internal_links (`+linkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.SourceBriefID, l.TargetBriefID, nullString(l.AnchorText),
		nullString(l.PlacementSection), l.Priority, l.IsContextualBridge)
	return mapErr("insert internal link", err)
}

// ListLinksFrom returns links leaving a brief, highest priority first
func (s *SQLiteStorage) ListLinksFrom(ctx context.Context, briefID string) ([]planner.InternalLink, error) {
	return s.listLinks(ctx, "source_brief_id", briefID)
}

// ListLinksTo returns links pointing at a brief, highest priority first
func (s *SQLiteStorage) ListLinksTo(ctx context.Context, briefID string) ([]planner.InternalLink, error) {
	return s.listLinks(ctx, "target_brief_id", briefID)
}

func (s *SQLiteStorage) listLinks(ctx context.Context, column, briefID string) ([]planner.InternalLink, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+linkColumns+" FROM internal_links WHERE "+column+" = ? ORDER BY priority, id", briefID)
	if err != nil {
		return nil, fmt.Errorf("failed to list internal links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := []planner.InternalLink{}
	for rows.Next() {
		var (
			l                 planner.InternalLink
			anchor, placement sql.NullString
		)
		err := rows.Scan(&l.ID, &l.SourceBriefID, &l.TargetBriefID, &anchor, &placement,
			&l.Priority, &l.IsContextualBridge)
		if err != nil {
			return nil, fmt.Errorf("failed to scan internal link: %w", err)
		}
		l.AnchorText = anchor.String
		l.PlacementSection = placement.String
		links = append(links, l)
	}
	return links, rows.Err()
}

// DeleteInternalLink removes a single link
func (s *SQLiteStorage) DeleteInternalLink(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM internal_links WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete internal link: %w", err)
	}
	return affected(res)
}
