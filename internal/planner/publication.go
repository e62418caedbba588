package planner

import (
	"context"
	"errors"
	"net/url"
)

// CreatePublication records the published document of a brief.
// Each brief has at most one publication.
func (s *Service) CreatePublication(ctx context.Context, in Publication) (*Publication, error) {
	if in.URL != "" {
		if u, err := url.Parse(in.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, invalid("publication url %q is not absolute", in.URL)
		}
	}
	if _, err := s.store.GetBrief(ctx, in.BriefID); err != nil {
		return nil, storeErr("create publication", err)
	}

	in.ID = s.newID()
	if in.PublishedAt != nil {
		t := in.PublishedAt.UTC()
		in.PublishedAt = &t
	}
	if err := s.store.InsertPublication(ctx, &in); err != nil {
		return nil, storeErr("create publication", err)
	}

	s.logger.Info("Publication created", "brief_id", in.BriefID, "publication_id", in.ID)
	return &in, nil
}

// GetPublication returns a publication or ErrNotFound
func (s *Service) GetPublication(ctx context.Context, id string) (*Publication, error) {
	p, err := s.store.GetPublication(ctx, id)
	if err != nil {
		return nil, storeErr("get publication", err)
	}
	return p, nil
}

// PublicationForBrief returns the brief's publication, or nil when it has none
func (s *Service) PublicationForBrief(ctx context.Context, briefID string) (*Publication, error) {
	p, err := s.store.GetPublicationByBrief(ctx, briefID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get publication", err)
	}
	return p, nil
}

// ListPublications returns the publications of a project's briefs
func (s *Service) ListPublications(ctx context.Context, projectID string) ([]Publication, error) {
	pubs, err := s.store.ListPublications(ctx, projectID)
	if err != nil {
		return nil, storeErr("list publications", err)
	}
	return pubs, nil
}

// AddQueryData records one search-console row for a publication
func (s *Service) AddQueryData(ctx context.Context, in QueryData) (*QueryData, error) {
	if blank(in.Query) {
		return nil, invalid("query text is required")
	}
	if in.Clicks < 0 || in.Impressions < 0 {
		return nil, invalid("clicks and impressions must not be negative")
	}
	if _, err := s.store.GetPublication(ctx, in.PublicationID); err != nil {
		return nil, storeErr("add query data", err)
	}

	in.ID = s.newID()
	if err := s.store.InsertQueryData(ctx, &in); err != nil {
		return nil, storeErr("add query data", err)
	}
	return &in, nil
}

// ListQueryData returns a publication's query rows, newest date first
func (s *Service) ListQueryData(ctx context.Context, publicationID string) ([]QueryData, error) {
	rows, err := s.store.ListQueryData(ctx, publicationID)
	if err != nil {
		return nil, storeErr("list query data", err)
	}
	return rows, nil
}
