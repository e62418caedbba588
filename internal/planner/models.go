package planner

import (
	"encoding/json"
	"time"
)

// Project is the root aggregate of a content plan
type Project struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	SourceContext       string    `json:"source_context"`        // Who the site owner is and how they monetize
	CentralEntity       string    `json:"central_entity"`        // Main subject of the topical coverage
	CentralSearchIntent string    `json:"central_search_intent"` // Source context unified with the central entity
	FunctionalWords     []string  `json:"functional_words"`      // Predicates users associate with the entity
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewProject holds the fields accepted when creating a project
type NewProject struct {
	Name                string
	SourceContext       string
	CentralEntity       string
	CentralSearchIntent string
	FunctionalWords     []string
}

// ProjectPatch is a partial update; nil fields are left untouched
type ProjectPatch struct {
	Name                *string   `json:"name,omitempty"`
	SourceContext       *string   `json:"source_context,omitempty"`
	CentralEntity       *string   `json:"central_entity,omitempty"`
	CentralSearchIntent *string   `json:"central_search_intent,omitempty"`
	FunctionalWords     *[]string `json:"functional_words,omitempty"`
}

// TopicalMap is the semantic blueprint of a project's entity coverage
type TopicalMap struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	Name         string         `json:"name"`
	Type         MapType        `json:"type"`
	CoreSection  map[string]any `json:"core_section,omitempty"`
	OuterSection map[string]any `json:"outer_section,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Entity is a concept inside a topical map, scored by prominence,
// popularity and relevance (PPR)
type Entity struct {
	ID              string         `json:"id"`
	TopicalMapID    string         `json:"topical_map_id"`
	Name            string         `json:"name"`
	Type            EntityType     `json:"type"`
	WikidataID      string         `json:"wikidata_id,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
	ProminenceScore int            `json:"prominence_score"`
	PopularityScore int            `json:"popularity_score"`
	RelevanceScore  int            `json:"relevance_score"`
}

// TotalScore is the PPR sum. It is always derived and never persisted.
func (e Entity) TotalScore() int {
	return e.ProminenceScore + e.PopularityScore + e.RelevanceScore
}

// MarshalJSON adds the derived total_score to the encoded entity
func (e Entity) MarshalJSON() ([]byte, error) {
	type plain Entity
	return json.Marshal(struct {
		plain
		TotalScore int `json:"total_score"`
	}{plain(e), e.TotalScore()})
}

// Attribute is a property or aspect covered by a topical map
type Attribute struct {
	ID             string         `json:"id"`
	TopicalMapID   string         `json:"topical_map_id"`
	Name           string         `json:"name"`
	Classification Classification `json:"classification,omitempty"`
	Section        Section        `json:"section"`
	DepthLevel     int            `json:"depth_level"`
	SearchVolume   int            `json:"search_volume"`
}

// EntityAttribute links an entity to one of its attributes
type EntityAttribute struct {
	EntityID         string         `json:"entity_id"`
	AttributeID      string         `json:"attribute_id"`
	RelationshipType string         `json:"relationship_type,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// ContentBrief describes one planned document
type ContentBrief struct {
	ID                string            `json:"id"`
	ProjectID         string            `json:"project_id"`
	EntityID          string            `json:"entity_id,omitempty"`    // empty when unset or the entity was deleted
	AttributeID       string            `json:"attribute_id,omitempty"` // empty when unset or the attribute was deleted
	TitleTag          string            `json:"title_tag"`
	URLSlug           string            `json:"url_slug"`
	MetaDescription   string            `json:"meta_description"`
	H1                string            `json:"h1"`
	ImageAlts         map[string]string `json:"image_alts,omitempty"`
	Status            BriefStatus       `json:"status"`
	MacroContext      string            `json:"macro_context"`
	MicroContexts     []string          `json:"micro_contexts,omitempty"`
	TargetPublishDate *time.Time        `json:"target_publish_date,omitempty"`
	ActualPublishDate *time.Time        `json:"actual_publish_date,omitempty"`
	WordCountTarget   int               `json:"word_count_target,omitempty"`
	AuthorshipCodes   map[string]any    `json:"authorship_codes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// BriefPatch is a partial update of a brief's descriptive fields.
// Status is deliberately absent; it moves through the transition methods.
type BriefPatch struct {
	TitleTag          *string    `json:"title_tag,omitempty"`
	URLSlug           *string    `json:"url_slug,omitempty"`
	MetaDescription   *string    `json:"meta_description,omitempty"`
	H1                *string    `json:"h1,omitempty"`
	MacroContext      *string    `json:"macro_context,omitempty"`
	MicroContexts     *[]string  `json:"micro_contexts,omitempty"`
	TargetPublishDate *time.Time `json:"target_publish_date,omitempty"`
	WordCountTarget   *int       `json:"word_count_target,omitempty"`
}

// BriefSection is one heading of a brief's outline
type BriefSection struct {
	ID                  string            `json:"id"`
	BriefID             string            `json:"brief_id"`
	HeadingLevel        HeadingLevel      `json:"heading_level"`
	HeadingText         string            `json:"heading_text"`
	OrderPosition       int               `json:"order_position"`
	QuestionType        QuestionType      `json:"question_type,omitempty"`
	FormatInstruction   FormatInstruction `json:"format_instruction,omitempty"`
	ContentInstructions map[string]any    `json:"content_instructions,omitempty"`
	RequiredTerms       []string          `json:"required_terms,omitempty"`
}

// InternalLink is a directed edge between two briefs of the same project
type InternalLink struct {
	ID                 string `json:"id"`
	SourceBriefID      string `json:"source_brief_id"`
	TargetBriefID      string `json:"target_brief_id"`
	AnchorText         string `json:"anchor_text,omitempty"`
	PlacementSection   string `json:"placement_section,omitempty"`
	Priority           int    `json:"priority"` // 1 (highest) to 10 (lowest)
	IsContextualBridge bool   `json:"is_contextual_bridge"`
}

// Publication is the published document produced from a brief
type Publication struct {
	ID                 string         `json:"id"`
	BriefID            string         `json:"brief_id"`
	URL                string         `json:"url"`
	Content            string         `json:"content,omitempty"`
	SchemaMarkup       map[string]any `json:"schema_markup,omitempty"`
	PublishedAt        *time.Time     `json:"published_at,omitempty"`
	GSCData            map[string]any `json:"gsc_data,omitempty"`
	PerformanceMetrics map[string]any `json:"performance_metrics,omitempty"`
}

// QueryData is one search-console row for a publication
type QueryData struct {
	ID            string     `json:"id"`
	PublicationID string     `json:"publication_id"`
	Query         string     `json:"query"`
	Position      *float64   `json:"position,omitempty"`
	Clicks        int        `json:"clicks"`
	Impressions   int        `json:"impressions"`
	CTR           *float64   `json:"ctr,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
}

// ProjectCounts are the raw aggregates a store reports for one project
type ProjectCounts struct {
	TopicalMaps    int
	Attributes     int
	Publications   int
	BriefsByStatus map[BriefStatus]int
}

// ProjectStats summarizes a project's progress
type ProjectStats struct {
	ProjectID        string              `json:"project_id"`
	TopicalMapCount  int                 `json:"topical_map_count"`
	TotalBriefs      int                 `json:"total_briefs"`
	BriefsByStatus   map[BriefStatus]int `json:"briefs_by_status"`
	PublicationCount int                 `json:"publication_count"`
	CoverageScore    float64             `json:"coverage_score"`
}

// ExportOptions selects what ExportProject includes
type ExportOptions struct {
	IncludeBriefs bool
	IncludeMaps   bool
}

// DefaultExportOptions includes everything
func DefaultExportOptions() ExportOptions {
	return ExportOptions{IncludeBriefs: true, IncludeMaps: true}
}

// ProjectExport is the nested record handed to the exporters
type ProjectExport struct {
	Project       Project            `json:"project"`
	TopicalMaps   []TopicalMapExport `json:"topical_maps,omitempty"`
	ContentBriefs []BriefExport      `json:"content_briefs,omitempty"`
	ExportedAt    time.Time          `json:"exported_at"`
}

// TopicalMapExport is a topical map with its entities and attributes
type TopicalMapExport struct {
	TopicalMap
	Entities         []Entity          `json:"entities"`
	Attributes       []Attribute       `json:"attributes"`
	EntityAttributes []EntityAttribute `json:"entity_attributes,omitempty"`
}

// BriefExport is a brief with its outline and outgoing links
type BriefExport struct {
	ContentBrief
	Sections      []BriefSection `json:"sections,omitempty"`
	InternalLinks []InternalLink `json:"internal_links,omitempty"`
}
