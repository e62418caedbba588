package planner

import (
	"context"
	"fmt"
)

// CreateTopicalMap adds a topical map to an existing project.
// An empty type defaults to raw.
func (s *Service) CreateTopicalMap(ctx context.Context, in TopicalMap) (*TopicalMap, error) {
	if blank(in.Name) {
		return nil, invalid("topical map name is required")
	}
	if in.Type == "" {
		in.Type = MapRaw
	}
	if !in.Type.Valid() {
		return nil, invalid("unknown topical map type %q", in.Type)
	}
	if err := s.requireProject(ctx, in.ProjectID); err != nil {
		return nil, storeErr("create topical map", err)
	}

	in.ID = s.newID()
	in.CreatedAt = s.timestamp()
	if err := s.store.InsertTopicalMap(ctx, &in); err != nil {
		return nil, storeErr("create topical map", err)
	}

	s.logger.Info("Topical map created", "project_id", in.ProjectID, "topical_map_id", in.ID)
	return &in, nil
}

// GetTopicalMap returns a topical map or ErrNotFound
func (s *Service) GetTopicalMap(ctx context.Context, id string) (*TopicalMap, error) {
	m, err := s.store.GetTopicalMap(ctx, id)
	if err != nil {
		return nil, storeErr("get topical map", err)
	}
	return m, nil
}

// ListTopicalMaps returns a project's topical maps in creation order
func (s *Service) ListTopicalMaps(ctx context.Context, projectID string) ([]TopicalMap, error) {
	maps, err := s.store.ListTopicalMaps(ctx, projectID)
	if err != nil {
		return nil, storeErr("list topical maps", err)
	}
	return maps, nil
}

// DeleteTopicalMap deletes a map with its entities and attributes
func (s *Service) DeleteTopicalMap(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteTopicalMap(ctx, id)
	if err != nil {
		return false, storeErr("delete topical map", err)
	}
	return deleted, nil
}

// AddEntity adds an entity to a topical map. Zero PPR scores default to 5.
func (s *Service) AddEntity(ctx context.Context, in Entity) (*Entity, error) {
	if blank(in.Name) {
		return nil, invalid("entity name is required")
	}
	if in.Type == "" {
		in.Type = EntityDerived
	}
	if !in.Type.Valid() {
		return nil, invalid("unknown entity type %q", in.Type)
	}
	if err := validPPR(&in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTopicalMap(ctx, in.TopicalMapID); err != nil {
		return nil, storeErr("add entity", err)
	}

	in.ID = s.newID()
	if err := s.store.InsertEntity(ctx, &in); err != nil {
		return nil, storeErr("add entity", err)
	}
	return &in, nil
}

func validPPR(e *Entity) error {
	if err := validScore("prominence_score", &e.ProminenceScore); err != nil {
		return err
	}
	if err := validScore("popularity_score", &e.PopularityScore); err != nil {
		return err
	}
	return validScore("relevance_score", &e.RelevanceScore)
}

// GetEntity returns an entity or ErrNotFound
func (s *Service) GetEntity(ctx context.Context, id string) (*Entity, error) {
	e, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return nil, storeErr("get entity", err)
	}
	return e, nil
}

// ListEntities returns a map's entities ordered by total score, highest first
func (s *Service) ListEntities(ctx context.Context, mapID string) ([]Entity, error) {
	entities, err := s.store.ListEntities(ctx, mapID)
	if err != nil {
		return nil, storeErr("list entities", err)
	}
	return entities, nil
}

// UpdateEntityScores replaces the three PPR scores of an entity
func (s *Service) UpdateEntityScores(ctx context.Context, id string, prominence, popularity, relevance int) (*Entity, error) {
	e, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return nil, storeErr("update entity scores", err)
	}
	e.ProminenceScore, e.PopularityScore, e.RelevanceScore = prominence, popularity, relevance
	if err := validPPR(e); err != nil {
		return nil, err
	}
	if err := s.store.UpdateEntity(ctx, e); err != nil {
		return nil, storeErr("update entity scores", err)
	}
	return e, nil
}

// DeleteEntity deletes an entity. Briefs referencing it survive with the
// reference cleared.
func (s *Service) DeleteEntity(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteEntity(ctx, id)
	if err != nil {
		return false, storeErr("delete entity", err)
	}
	return deleted, nil
}

// AddAttribute adds an attribute to a topical map.
// Section defaults to core and depth level to 1.
func (s *Service) AddAttribute(ctx context.Context, in Attribute) (*Attribute, error) {
	if blank(in.Name) {
		return nil, invalid("attribute name is required")
	}
	if in.Section == "" {
		in.Section = SectionCore
	}
	if !in.Section.Valid() {
		return nil, invalid("unknown section %q", in.Section)
	}
	if !in.Classification.Valid() {
		return nil, invalid("unknown classification %q", in.Classification)
	}
	if in.DepthLevel == 0 {
		in.DepthLevel = 1
	}
	if in.DepthLevel < 1 {
		return nil, invalid("depth_level must be positive, got %d", in.DepthLevel)
	}
	if in.SearchVolume < 0 {
		return nil, invalid("search_volume must not be negative, got %d", in.SearchVolume)
	}
	if _, err := s.store.GetTopicalMap(ctx, in.TopicalMapID); err != nil {
		return nil, storeErr("add attribute", err)
	}

	in.ID = s.newID()
	if err := s.store.InsertAttribute(ctx, &in); err != nil {
		return nil, storeErr("add attribute", err)
	}
	return &in, nil
}

// ListAttributes returns a map's attributes
func (s *Service) ListAttributes(ctx context.Context, mapID string) ([]Attribute, error) {
	attrs, err := s.store.ListAttributes(ctx, mapID)
	if err != nil {
		return nil, storeErr("list attributes", err)
	}
	return attrs, nil
}

// DeleteAttribute deletes an attribute. Briefs referencing it survive with
// the reference cleared.
func (s *Service) DeleteAttribute(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteAttribute(ctx, id)
	if err != nil {
		return false, storeErr("delete attribute", err)
	}
	return deleted, nil
}

// LinkEntityAttribute joins an entity and an attribute of the same map.
// A second link for the same pair fails with ErrConflict.
func (s *Service) LinkEntityAttribute(ctx context.Context, in EntityAttribute) (*EntityAttribute, error) {
	e, err := s.store.GetEntity(ctx, in.EntityID)
	if err != nil {
		return nil, storeErr("link entity attribute", err)
	}
	a, err := s.store.GetAttribute(ctx, in.AttributeID)
	if err != nil {
		return nil, storeErr("link entity attribute", err)
	}
	if e.TopicalMapID != a.TopicalMapID {
		return nil, invalid("entity and attribute belong to different topical maps")
	}
	if err := s.store.InsertEntityAttribute(ctx, &in); err != nil {
		return nil, storeErr("link entity attribute", err)
	}
	return &in, nil
}

// requireProject returns ErrNotFound unless the project exists
func (s *Service) requireProject(ctx context.Context, id string) error {
	if blank(id) {
		return fmt.Errorf("%w: project id is required", ErrValidation)
	}
	_, err := s.store.GetProject(ctx, id)
	return err
}

// mapProject returns the owning project of a topical map
func (s *Service) mapProject(ctx context.Context, mapID string) (string, error) {
	m, err := s.store.GetTopicalMap(ctx, mapID)
	if err != nil {
		return "", err
	}
	return m.ProjectID, nil
}
