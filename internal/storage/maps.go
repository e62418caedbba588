package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/masahif/seoplanner/internal/planner"
)

// InsertTopicalMap stores a new topical map
func (s *SQLiteStorage) InsertTopicalMap(ctx context.Context, m *planner.TopicalMap) error {
	core, err := encodeJSON(m.CoreSection)
	if err != nil {
		return err
	}
	outer, err := encodeJSON(m.OuterSection)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO topical_maps (id, project_id, name, map_type, core_section, outer_section, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ProjectID, m.Name, string(m.Type), core, outer, unixNano(m.CreatedAt))
	return mapErr("insert topical map", err)
}

const topicalMapColumns = "id, project_id, name, map_type, core_section, outer_section, created_at"

func scanTopicalMap(row scanner) (*planner.TopicalMap, error) {
	var (
		m           planner.TopicalMap
		mapType     string
		core, outer sql.NullString
		createdAt   int64
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &mapType, &core, &outer, &createdAt); err != nil {
		return nil, err
	}
	m.Type = planner.MapType(mapType)
	if err := decodeJSON(core, &m.CoreSection); err != nil {
		return nil, err
	}
	if err := decodeJSON(outer, &m.OuterSection); err != nil {
		return nil, err
	}
	m.CreatedAt = fromUnixNano(createdAt)
	return &m, nil
}

// GetTopicalMap returns a topical map or planner.ErrNotFound
func (s *SQLiteStorage) GetTopicalMap(ctx context.Context, id string) (*planner.TopicalMap, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+topicalMapColumns+" FROM topical_maps WHERE id = ?", id)
	m, err := scanTopicalMap(row)
	if err != nil {
		return nil, mapErr("get topical map", err)
	}
	return m, nil
}

// ListTopicalMaps returns a project's maps in creation order
func (s *SQLiteStorage) ListTopicalMaps(ctx context.Context, projectID string) ([]planner.TopicalMap, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+topicalMapColumns+" FROM topical_maps WHERE project_id = ? ORDER BY created_at, id", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topical maps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	maps := []planner.TopicalMap{}
	for rows.Next() {
		m, err := scanTopicalMap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topical map: %w", err)
		}
		maps = append(maps, *m)
	}
	return maps, rows.Err()
}

// DeleteTopicalMap removes a map with its entities and attributes.
// Briefs pointing at them keep living with the reference cleared.
func (s *SQLiteStorage) DeleteTopicalMap(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		entities := "SELECT id FROM entities WHERE topical_map_id = ?"
		attrs := "SELECT id FROM attributes WHERE topical_map_id = ?"

		steps := []string{
			"UPDATE content_briefs SET entity_id = NULL WHERE entity_id IN (" + entities + ")",
			"UPDATE content_briefs SET attribute_id = NULL WHERE attribute_id IN (" + attrs + ")",
			"DELETE FROM entity_attributes WHERE entity_id IN (" + entities + ") OR attribute_id IN (" + attrs + ")",
			"DELETE FROM entities WHERE topical_map_id = ?",
			"DELETE FROM attributes WHERE topical_map_id = ?",
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, bindAll(q, id)...); err != nil {
				return fmt.Errorf("failed to delete topical map children: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM topical_maps WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete topical map: %w", err)
		}
		deleted, err = affected(res)
		return err
	})
	return deleted, err
}

const entityColumns = `id, topical_map_id, name, entity_type, wikidata_id, properties,
	prominence_score, popularity_score, relevance_score`

// InsertEntity stores a new entity
func (s *SQLiteStorage) InsertEntity(ctx context.Context, e *planner.Entity) error {
	props, err := encodeJSON(e.Properties)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.TopicalMapID, e.Name, string(e.Type), nullString(e.WikidataID), props,
		e.ProminenceScore, e.PopularityScore, e.RelevanceScore)
	return mapErr("insert entity", err)
}

func scanEntity(row scanner) (*planner.Entity, error) {
	var (
		e          planner.Entity
		entityType string
		wikidata   sql.NullString
		props      sql.NullString
	)
	err := row.Scan(&e.ID, &e.TopicalMapID, &e.Name, &entityType, &wikidata, &props,
		&e.ProminenceScore, &e.PopularityScore, &e.RelevanceScore)
	if err != nil {
		return nil, err
	}
	e.Type = planner.EntityType(entityType)
	e.WikidataID = wikidata.String
	if err := decodeJSON(props, &e.Properties); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntity returns an entity or planner.ErrNotFound
func (s *SQLiteStorage) GetEntity(ctx context.Context, id string) (*planner.Entity, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entityColumns+" FROM entities WHERE id = ?", id)
	e, err := scanEntity(row)
	if err != nil {
		return nil, mapErr("get entity", err)
	}
	return e, nil
}

// UpdateEntity overwrites an entity's mutable fields
func (s *SQLiteStorage) UpdateEntity(ctx context.Context, e *planner.Entity) error {
	props, err := encodeJSON(e.Properties)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE entities
		SET name = ?, entity_type = ?, wikidata_id = ?, properties = ?,
			prominence_score = ?, popularity_score = ?, relevance_score = ?
		WHERE id = ?
	`, e.Name, string(e.Type), nullString(e.WikidataID), props,
		e.ProminenceScore, e.PopularityScore, e.RelevanceScore, e.ID)
	if err != nil {
		return mapErr("update entity", err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("update entity %s: %w", e.ID, planner.ErrNotFound)
	}
	return nil
}

// ListEntities returns a map's entities, highest total PPR score first
func (s *SQLiteStorage) ListEntities(ctx context.Context, mapID string) ([]planner.Entity, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+entityColumns+` FROM entities
		WHERE topical_map_id = ?
		ORDER BY prominence_score + popularity_score + relevance_score DESC, name, id`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entities := []planner.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}

// DeleteEntity removes an entity and its attribute links, clearing brief references
func (s *SQLiteStorage) DeleteEntity(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE content_briefs SET entity_id = NULL WHERE entity_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear brief entity: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM entity_attributes WHERE entity_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete entity attributes: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete entity: %w", err)
		}
		deleted, err = affected(res)
		return err
	})
	return deleted, err
}

const attributeColumns = "id, topical_map_id, name, classification, section, depth_level, search_volume"

// InsertAttribute stores a new attribute
func (s *SQLiteStorage) InsertAttribute(ctx context.Context, a *planner.Attribute) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attributes (`+attributeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.TopicalMapID, a.Name, nullString(string(a.Classification)), string(a.Section),
		a.DepthLevel, a.SearchVolume)
	return mapErr("insert attribute", err)
}

func scanAttribute(row scanner) (*planner.Attribute, error) {
	var (
		a              planner.Attribute
		classification sql.NullString
		section        string
	)
	err := row.Scan(&a.ID, &a.TopicalMapID, &a.Name, &classification, &section, &a.DepthLevel, &a.SearchVolume)
	if err != nil {
		return nil, err
	}
	a.Classification = planner.Classification(classification.String)
	a.Section = planner.Section(section)
	return &a, nil
}

// GetAttribute returns an attribute or planner.ErrNotFound
func (s *SQLiteStorage) GetAttribute(ctx context.Context, id string) (*planner.Attribute, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+attributeColumns+" FROM attributes WHERE id = ?", id)
	a, err := scanAttribute(row)
	if err != nil {
		return nil, mapErr("get attribute", err)
	}
	return a, nil
}

// ListAttributes returns a map's attributes, core section first
func (s *SQLiteStorage) ListAttributes(ctx context.Context, mapID string) ([]planner.Attribute, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+attributeColumns+` FROM attributes
		WHERE topical_map_id = ?
		ORDER BY section, depth_level, name, id`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	attrs := []planner.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attrs = append(attrs, *a)
	}
	return attrs, rows.Err()
}

// DeleteAttribute removes an attribute and its entity links, clearing brief references
func (s *SQLiteStorage) DeleteAttribute(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE content_briefs SET attribute_id = NULL WHERE attribute_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear brief attribute: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM entity_attributes WHERE attribute_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete entity attributes: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM attributes WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete attribute: %w", err)
		}
		deleted, err = affected(res)
		return err
	})
	return deleted, err
}

// InsertEntityAttribute links an entity to an attribute.
// A duplicate pair yields planner.ErrConflict.
func (s *SQLiteStorage) InsertEntityAttribute(ctx context.Context, ea *planner.EntityAttribute) error {
	meta, err := encodeJSON(ea.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entity_attributes (entity_id, attribute_id, relationship_type, metadata)
		VALUES (?, ?, ?, ?)
	`, ea.EntityID, ea.AttributeID, nullString(ea.RelationshipType), meta)
	return mapErr("insert entity attribute", err)
}

// ListEntityAttributes returns every entity-attribute link inside a map
func (s *SQLiteStorage) ListEntityAttributes(ctx context.Context, mapID string) ([]planner.EntityAttribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ea.entity_id, ea.attribute_id, ea.relationship_type, ea.metadata
		FROM entity_attributes ea
		JOIN entities e ON e.id = ea.entity_id
		WHERE e.topical_map_id = ?
		ORDER BY ea.entity_id, ea.attribute_id
	`, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := []planner.EntityAttribute{}
	for rows.Next() {
		var (
			ea        planner.EntityAttribute
			rel, meta sql.NullString
		)
		if err := rows.Scan(&ea.EntityID, &ea.AttributeID, &rel, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan entity attribute: %w", err)
		}
		ea.RelationshipType = rel.String
		if err := decodeJSON(meta, &ea.Metadata); err != nil {
			return nil, err
		}
		links = append(links, ea)
	}
	return links, rows.Err()
}
