package planner

import (
	"context"
	"fmt"
	"math"
)

// CreateProject creates a new project. The name must not be blank.
func (s *Service) CreateProject(ctx context.Context, in NewProject) (*Project, error) {
	if blank(in.Name) {
		return nil, invalid("project name is required")
	}

	now := s.timestamp()
	p := &Project{
		ID:                  s.newID(),
		Name:                in.Name,
		SourceContext:       in.SourceContext,
		CentralEntity:       in.CentralEntity,
		CentralSearchIntent: in.CentralSearchIntent,
		FunctionalWords:     cloneStrings(in.FunctionalWords),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.InsertProject(ctx, p); err != nil {
		return nil, storeErr("create project", err)
	}

	s.logger.Info("Project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// GetProject returns a project or ErrNotFound
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, storeErr("get project", err)
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	return projects, nil
}

// UpdateProject applies a partial update and refreshes UpdatedAt
func (s *Service) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (*Project, error) {
	if patch.Name != nil && blank(*patch.Name) {
		return nil, invalid("project name cannot be empty")
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, storeErr("update project", err)
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SourceContext != nil {
		p.SourceContext = *patch.SourceContext
	}
	if patch.CentralEntity != nil {
		p.CentralEntity = *patch.CentralEntity
	}
	if patch.CentralSearchIntent != nil {
		p.CentralSearchIntent = *patch.CentralSearchIntent
	}
	if patch.FunctionalWords != nil {
		p.FunctionalWords = cloneStrings(*patch.FunctionalWords)
	}
	p.UpdatedAt = s.touch(p.UpdatedAt)

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, storeErr("update project", err)
	}

	s.logger.Debug("Project updated", "project_id", id)
	return p, nil
}

// DeleteProject deletes a project with all its maps, briefs and publications.
// It returns false when the project does not exist.
func (s *Service) DeleteProject(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return false, storeErr("delete project", err)
	}
	if deleted {
		s.logger.Info("Project deleted", "project_id", id)
	}
	return deleted, nil
}

// DuplicateProject copies a project's context fields into a new project.
// Topical maps and briefs are not copied.
func (s *Service) DuplicateProject(ctx context.Context, id, newName string) (*Project, error) {
	src, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, storeErr("duplicate project", err)
	}

	return s.CreateProject(ctx, NewProject{
		Name:                newName,
		SourceContext:       src.SourceContext,
		CentralEntity:       src.CentralEntity,
		CentralSearchIntent: src.CentralSearchIntent,
		FunctionalWords:     src.FunctionalWords,
	})
}

// ProjectStats aggregates map, brief and publication counts for a project.
//
// CoverageScore is green briefs divided by attributes across all of the
// project's maps, clamped to [0,1]. It does not check which attribute a
// green brief targets.
func (s *Service) ProjectStats(ctx context.Context, id string) (*ProjectStats, error) {
	if _, err := s.store.GetProject(ctx, id); err != nil {
		return nil, storeErr("project stats", err)
	}

	counts, err := s.store.ProjectCounts(ctx, id)
	if err != nil {
		return nil, storeErr("project stats", err)
	}

	stats := &ProjectStats{
		ProjectID:        id,
		TopicalMapCount:  counts.TopicalMaps,
		BriefsByStatus:   make(map[BriefStatus]int, len(AllStatuses)),
		PublicationCount: counts.Publications,
	}
	for _, st := range AllStatuses {
		n := counts.BriefsByStatus[st]
		stats.BriefsByStatus[st] = n
		stats.TotalBriefs += n
	}
	stats.CoverageScore = coverage(stats.BriefsByStatus[StatusGreen], counts.Attributes)

	return stats, nil
}

func coverage(green, attributes int) float64 {
	if attributes <= 0 {
		return 0
	}
	return math.Min(float64(green)/float64(attributes), 1)
}

// ExportProject assembles the project with its maps and briefs for rendering
func (s *Service) ExportProject(ctx context.Context, id string, opts ExportOptions) (*ProjectExport, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, storeErr("export project", err)
	}

	out := &ProjectExport{Project: *p, ExportedAt: s.timestamp()}

	if opts.IncludeMaps {
		maps, err := s.store.ListTopicalMaps(ctx, id)
		if err != nil {
			return nil, storeErr("export project", err)
		}
		for _, m := range maps {
			me, err := s.exportMap(ctx, m)
			if err != nil {
				return nil, storeErr("export project", err)
			}
			out.TopicalMaps = append(out.TopicalMaps, *me)
		}
	}

	if opts.IncludeBriefs {
		briefs, err := s.store.ListBriefs(ctx, id, "")
		if err != nil {
			return nil, storeErr("export project", err)
		}
		for _, b := range briefs {
			be, err := s.exportBrief(ctx, b)
			if err != nil {
				return nil, storeErr("export project", err)
			}
			out.ContentBriefs = append(out.ContentBriefs, *be)
		}
	}

	s.logger.Debug("Project exported", "project_id", id,
		"topical_maps", len(out.TopicalMaps), "briefs", len(out.ContentBriefs))
	return out, nil
}

func (s *Service) exportMap(ctx context.Context, m TopicalMap) (*TopicalMapExport, error) {
	entities, err := s.store.ListEntities(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	attrs, err := s.store.ListAttributes(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	links, err := s.store.ListEntityAttributes(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity attributes: %w", err)
	}
	return &TopicalMapExport{
		TopicalMap:       m,
		Entities:         entities,
		Attributes:       attrs,
		EntityAttributes: links,
	}, nil
}

func (s *Service) exportBrief(ctx context.Context, b ContentBrief) (*BriefExport, error) {
	sections, err := s.store.ListSections(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	links, err := s.store.ListLinksFrom(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return &BriefExport{ContentBrief: b, Sections: sections, InternalLinks: links}, nil
}

// ExportBrief returns a single brief with its sections and outgoing links
func (s *Service) ExportBrief(ctx context.Context, id string) (*BriefExport, error) {
	b, err := s.store.GetBrief(ctx, id)
	if err != nil {
		return nil, storeErr("export brief", err)
	}
	be, err := s.exportBrief(ctx, *b)
	if err != nil {
		return nil, storeErr("export brief", err)
	}
	return be, nil
}

// ExportTopicalMap returns a single map with its entities and attributes
func (s *Service) ExportTopicalMap(ctx context.Context, id string) (*TopicalMapExport, error) {
	m, err := s.store.GetTopicalMap(ctx, id)
	if err != nil {
		return nil, storeErr("export topical map", err)
	}
	me, err := s.exportMap(ctx, *m)
	if err != nil {
		return nil, storeErr("export topical map", err)
	}
	return me, nil
}
