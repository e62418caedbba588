package planner

import (
	"context"
	"strings"
)

// Storage handles data persistence
type Storage interface {
	// Projects
	InsertProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) (bool, error) // cascades to every owned record

	// Topical maps, entities and attributes
	InsertTopicalMap(ctx context.Context, m *TopicalMap) error
	GetTopicalMap(ctx context.Context, id string) (*TopicalMap, error)
	ListTopicalMaps(ctx context.Context, projectID string) ([]TopicalMap, error)
	DeleteTopicalMap(ctx context.Context, id string) (bool, error)
	InsertEntity(ctx context.Context, e *Entity) error
	GetEntity(ctx context.Context, id string) (*Entity, error)
	UpdateEntity(ctx context.Context, e *Entity) error
	ListEntities(ctx context.Context, mapID string) ([]Entity, error)
	DeleteEntity(ctx context.Context, id string) (bool, error) // nulls brief references
	InsertAttribute(ctx context.Context, a *Attribute) error
	GetAttribute(ctx context.Context, id string) (*Attribute, error)
	ListAttributes(ctx context.Context, mapID string) ([]Attribute, error)
	DeleteAttribute(ctx context.Context, id string) (bool, error) // nulls brief references
	InsertEntityAttribute(ctx context.Context, ea *EntityAttribute) error
	ListEntityAttributes(ctx context.Context, mapID string) ([]EntityAttribute, error)

	// Content briefs, sections and internal links
	InsertBrief(ctx context.Context, b *ContentBrief) error
	GetBrief(ctx context.Context, id string) (*ContentBrief, error)
	ListBriefs(ctx context.Context, projectID string, status BriefStatus) ([]ContentBrief, error) // empty status = all
	UpdateBrief(ctx context.Context, b *ContentBrief) error
	DeleteBrief(ctx context.Context, id string) (bool, error)
	InsertSection(ctx context.Context, s *BriefSection) error
	ListSections(ctx context.Context, briefID string) ([]BriefSection, error)
	InsertInternalLink(ctx context.Context, l *InternalLink) error
	ListLinksFrom(ctx context.Context, briefID string) ([]InternalLink, error)
	ListLinksTo(ctx context.Context, briefID string) ([]InternalLink, error)
	DeleteInternalLink(ctx context.Context, id string) (bool, error)

	// Publications and search data
	InsertPublication(ctx context.Context, p *Publication) error
	GetPublication(ctx context.Context, id string) (*Publication, error)
	GetPublicationByBrief(ctx context.Context, briefID string) (*Publication, error)
	ListPublications(ctx context.Context, projectID string) ([]Publication, error)
	InsertQueryData(ctx context.Context, q *QueryData) error
	ListQueryData(ctx context.Context, publicationID string) ([]QueryData, error)

	// Aggregates, read in a single transaction
	ProjectCounts(ctx context.Context, projectID string) (*ProjectCounts, error)

	// Database lifecycle
	Close() error
}

// Discoverer turns free-text business information into a semantic framework.
// Implementations live outside the core; the core never touches the network.
type Discoverer interface {
	Discover(ctx context.Context, info BusinessInfo) (*Framework, error)
}

// BusinessInfo is the discovery wizard input. Only BusinessName is required.
type BusinessInfo struct {
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
	ProductsServices    string `json:"products_services"`
	TargetCustomers     string `json:"target_customers"`
	Monetization        string `json:"monetization"`
	WebsiteURL          string `json:"website_url"`
	AdditionalContext   string `json:"additional_context"`
}

// Validate checks the required fields
func (b BusinessInfo) Validate() error {
	if strings.TrimSpace(b.BusinessName) == "" {
		return invalid("business_name is required")
	}
	return nil
}

// Framework is the discovery result
type Framework struct {
	SourceContext       string     `json:"source_context"`
	CentralEntity       string     `json:"central_entity"`
	CentralSearchIntent string     `json:"central_search_intent"`
	FunctionalWords     []string   `json:"functional_words"`
	Explanation         string     `json:"explanation"`
	Confidence          Confidence `json:"confidence"`
	RawResponse         string     `json:"raw_response,omitempty"`
	// Set only when the response could not be decoded
	ParseError string `json:"parse_error,omitempty"`
}

// Degraded reports whether the framework came from an unparseable response.
// A parsed low-confidence answer is not degraded.
func (f *Framework) Degraded() bool {
	return f.ParseError != ""
}
