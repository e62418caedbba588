package planner

import (
	"context"
	"fmt"
)

// CreateBrief adds a content brief to a project.
//
// Status defaults to black. Any valid status is accepted here so imported
// briefs keep their position in the workflow; later moves go through
// AdvanceBrief, RevertBrief and TransitionBrief. A referenced entity or
// attribute must live in one of the project's own topical maps.
func (s *Service) CreateBrief(ctx context.Context, in ContentBrief) (*ContentBrief, error) {
	if in.Status == "" {
		in.Status = StatusBlack
	}
	if !in.Status.Valid() {
		return nil, invalid("unknown brief status %q", in.Status)
	}
	if in.WordCountTarget < 0 {
		return nil, invalid("word_count_target must not be negative, got %d", in.WordCountTarget)
	}
	if err := s.requireProject(ctx, in.ProjectID); err != nil {
		return nil, storeErr("create brief", err)
	}
	if err := s.checkBriefRefs(ctx, &in); err != nil {
		return nil, storeErr("create brief", err)
	}

	now := s.timestamp()
	in.ID = s.newID()
	in.CreatedAt = now
	in.UpdatedAt = now
	if in.Status == StatusGreen && in.ActualPublishDate == nil {
		in.ActualPublishDate = &now
	}
	if err := s.store.InsertBrief(ctx, &in); err != nil {
		return nil, storeErr("create brief", err)
	}

	s.logger.Info("Content brief created", "project_id", in.ProjectID, "brief_id", in.ID, "status", in.Status)
	return &in, nil
}

func (s *Service) checkBriefRefs(ctx context.Context, b *ContentBrief) error {
	if b.EntityID != "" {
		e, err := s.store.GetEntity(ctx, b.EntityID)
		if err != nil {
			return err
		}
		owner, err := s.mapProject(ctx, e.TopicalMapID)
		if err != nil {
			return err
		}
		if owner != b.ProjectID {
			return invalid("entity %s belongs to another project", b.EntityID)
		}
	}
	if b.AttributeID != "" {
		a, err := s.store.GetAttribute(ctx, b.AttributeID)
		if err != nil {
			return err
		}
		owner, err := s.mapProject(ctx, a.TopicalMapID)
		if err != nil {
			return err
		}
		if owner != b.ProjectID {
			return invalid("attribute %s belongs to another project", b.AttributeID)
		}
	}
	return nil
}

// GetBrief returns a brief or ErrNotFound
func (s *Service) GetBrief(ctx context.Context, id string) (*ContentBrief, error) {
	b, err := s.store.GetBrief(ctx, id)
	if err != nil {
		return nil, storeErr("get brief", err)
	}
	return b, nil
}

// ListBriefs returns a project's briefs, optionally filtered by status
func (s *Service) ListBriefs(ctx context.Context, projectID string, status BriefStatus) ([]ContentBrief, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown brief status %q", status)
	}
	briefs, err := s.store.ListBriefs(ctx, projectID, status)
	if err != nil {
		return nil, storeErr("list briefs", err)
	}
	return briefs, nil
}

// UpdateBrief applies a partial update to a brief's descriptive fields
func (s *Service) UpdateBrief(ctx context.Context, id string, patch BriefPatch) (*ContentBrief, error) {
	if patch.WordCountTarget != nil && *patch.WordCountTarget < 0 {
		return nil, invalid("word_count_target must not be negative, got %d", *patch.WordCountTarget)
	}

	b, err := s.store.GetBrief(ctx, id)
	if err != nil {
		return nil, storeErr("update brief", err)
	}

	if patch.TitleTag != nil {
		b.TitleTag = *patch.TitleTag
	}
	if patch.URLSlug != nil {
		b.URLSlug = *patch.URLSlug
	}
	if patch.MetaDescription != nil {
		b.MetaDescription = *patch.MetaDescription
	}
	if patch.H1 != nil {
		b.H1 = *patch.H1
	}
	if patch.MacroContext != nil {
		b.MacroContext = *patch.MacroContext
	}
	if patch.MicroContexts != nil {
		b.MicroContexts = cloneStrings(*patch.MicroContexts)
	}
	if patch.TargetPublishDate != nil {
		t := patch.TargetPublishDate.UTC()
		b.TargetPublishDate = &t
	}
	if patch.WordCountTarget != nil {
		b.WordCountTarget = *patch.WordCountTarget
	}

	if err := s.saveBrief(ctx, "update brief", b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) saveBrief(ctx context.Context, op string, b *ContentBrief) error {
	b.UpdatedAt = s.touch(b.UpdatedAt)
	return storeErr(op, s.store.UpdateBrief(ctx, b))
}

// DeleteBrief deletes a brief with its sections, links and publication
func (s *Service) DeleteBrief(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteBrief(ctx, id)
	if err != nil {
		return false, storeErr("delete brief", err)
	}
	return deleted, nil
}

// AdvanceBrief moves a brief exactly one step forward in the workflow
func (s *Service) AdvanceBrief(ctx context.Context, id string) (*ContentBrief, error) {
	b, err := s.store.GetBrief(ctx, id)
	if err != nil {
		return nil, storeErr("advance brief", err)
	}
	next, ok := b.Status.Next()
	if !ok {
		return nil, fmt.Errorf("%w: %s is the final status", ErrTransition, b.Status)
	}
	return s.moveBrief(ctx, b, next)
}

// RevertBrief moves a brief exactly one step back in the workflow
func (s *Service) RevertBrief(ctx context.Context, id string) (*ContentBrief, error) {
	b, err := s.store.GetBrief(ctx, id)
	if err != nil {
		return nil, storeErr("revert brief", err)
	}
	prev, ok := b.Status.Previous()
	if !ok {
		return nil, fmt.Errorf("%w: %s is the initial status", ErrTransition, b.Status)
	}
	return s.moveBrief(ctx, b, prev)
}

// TransitionBrief moves a brief to an adjacent status.
// Skipping a step or staying in place fails with ErrTransition.
func (s *Service) TransitionBrief(ctx context.Context, id string, to BriefStatus) (*ContentBrief, error) {
	b, err := s.store.GetBrief(ctx, id)
	if err != nil {
		return nil, storeErr("transition brief", err)
	}
	return s.moveBrief(ctx, b, to)
}

func (s *Service) moveBrief(ctx context.Context, b *ContentBrief, to BriefStatus) (*ContentBrief, error) {
	from := b.Status
	if err := checkTransition(from, to); err != nil {
		return nil, err
	}

	b.Status = to
	if to == StatusGreen && b.ActualPublishDate == nil {
		now := s.timestamp()
		b.ActualPublishDate = &now
	}
	if err := s.saveBrief(ctx, "transition brief", b); err != nil {
		return nil, err
	}

	s.logger.Info("Brief status changed", "brief_id", b.ID, "from", from, "to", to)
	return b, nil
}

// AddSection appends a heading to a brief's outline.
// OrderPosition must be unique within the brief.
func (s *Service) AddSection(ctx context.Context, in BriefSection) (*BriefSection, error) {
	if blank(in.HeadingText) {
		return nil, invalid("heading text is required")
	}
	if in.HeadingLevel == "" {
		in.HeadingLevel = H2
	}
	if !in.HeadingLevel.Valid() {
		return nil, invalid("unknown heading level %q", in.HeadingLevel)
	}
	if !in.QuestionType.Valid() {
		return nil, invalid("unknown question type %q", in.QuestionType)
	}
	if !in.FormatInstruction.Valid() {
		return nil, invalid("unknown format instruction %q", in.FormatInstruction)
	}
	if in.OrderPosition < 0 {
		return nil, invalid("order_position must not be negative, got %d", in.OrderPosition)
	}
	if _, err := s.store.GetBrief(ctx, in.BriefID); err != nil {
		return nil, storeErr("add section", err)
	}

	in.ID = s.newID()
	if err := s.store.InsertSection(ctx, &in); err != nil {
		return nil, storeErr("add section", err)
	}
	return &in, nil
}

// ListSections returns a brief's outline ordered by position
func (s *Service) ListSections(ctx context.Context, briefID string) ([]BriefSection, error) {
	sections, err := s.store.ListSections(ctx, briefID)
	if err != nil {
		return nil, storeErr("list sections", err)
	}
	return sections, nil
}

// CreateInternalLink adds a directed link between two briefs of one project.
// Priority defaults to 5. A second link for the same ordered pair fails with
// ErrConflict.
func (s *Service) CreateInternalLink(ctx context.Context, in InternalLink) (*InternalLink, error) {
	if in.SourceBriefID == in.TargetBriefID {
		return nil, invalid("a brief cannot link to itself")
	}
	if in.Priority == 0 {
		in.Priority = 5
	}
	if in.Priority < 1 || in.Priority > 10 {
		return nil, invalid("priority must be between 1 and 10, got %d", in.Priority)
	}

	src, err := s.store.GetBrief(ctx, in.SourceBriefID)
	if err != nil {
		return nil, storeErr("create internal link", err)
	}
	dst, err := s.store.GetBrief(ctx, in.TargetBriefID)
	if err != nil {
		return nil, storeErr("create internal link", err)
	}
	if src.ProjectID != dst.ProjectID {
		return nil, invalid("internal links must stay within one project")
	}

	in.ID = s.newID()
	if err := s.store.InsertInternalLink(ctx, &in); err != nil {
		return nil, storeErr("create internal link", err)
	}

	s.logger.Debug("Internal link created", "source", in.SourceBriefID, "target", in.TargetBriefID)
	return &in, nil
}

// ListOutgoingLinks returns links whose source is the brief, by priority
func (s *Service) ListOutgoingLinks(ctx context.Context, briefID string) ([]InternalLink, error) {
	links, err := s.store.ListLinksFrom(ctx, briefID)
	if err != nil {
		return nil, storeErr("list outgoing links", err)
	}
	return links, nil
}

// ListIncomingLinks returns links whose target is the brief, by priority
func (s *Service) ListIncomingLinks(ctx context.Context, briefID string) ([]InternalLink, error) {
	links, err := s.store.ListLinksTo(ctx, briefID)
	if err != nil {
		return nil, storeErr("list incoming links", err)
	}
	return links, nil
}

// DeleteInternalLink deletes a single link
func (s *Service) DeleteInternalLink(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteInternalLink(ctx, id)
	if err != nil {
		return false, storeErr("delete internal link", err)
	}
	return deleted, nil
}
