package planner

import (
	"context"
	"errors"
	"fmt"
)

// DiscoverFramework asks the configured adapter for a semantic framework.
// An unparseable answer is not an error: it comes back with low confidence.
func (s *Service) DiscoverFramework(ctx context.Context, info BusinessInfo) (*Framework, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if s.discoverer == nil {
		return nil, ErrNoProvider
	}

	fw, err := s.discoverer.Discover(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("discover framework: %w", asAdapterErr(err))
	}

	s.logger.Info("Framework discovered", "business", info.BusinessName, "confidence", fw.Confidence)
	return fw, nil
}

// asAdapterErr keeps cancellation and validation errors, tagging everything
// else as ErrAdapter so callers can offer a retry
func asAdapterErr(err error) error {
	switch {
	case errors.Is(err, ErrAdapter), errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrAdapter, err)
}

// CreateProjectFromFramework creates a project from an accepted framework
func (s *Service) CreateProjectFromFramework(ctx context.Context, name string, fw *Framework) (*Project, error) {
	if fw == nil {
		return nil, invalid("framework is required")
	}
	return s.CreateProject(ctx, NewProject{
		Name:                name,
		SourceContext:       fw.SourceContext,
		CentralEntity:       fw.CentralEntity,
		CentralSearchIntent: fw.CentralSearchIntent,
		FunctionalWords:     fw.FunctionalWords,
	})
}
