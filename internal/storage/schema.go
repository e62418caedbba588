package storage

// schemaVersion is recorded in app_meta when the schema is created
const schemaVersion = "1"

// Timestamps are unix nanoseconds (UTC). List and object fields are JSON text.
// Foreign keys are a backstop: deletes walk the ownership tree explicitly.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL CHECK (length(trim(name)) > 0),
    source_context TEXT,
    central_entity TEXT,
    central_search_intent TEXT,
    functional_words TEXT NOT NULL DEFAULT '[]',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC);

CREATE TABLE IF NOT EXISTS topical_maps (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    map_type TEXT NOT NULL DEFAULT 'raw' CHECK (map_type IN ('raw', 'processed')),
    core_section TEXT,
    outer_section TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_topical_maps_project ON topical_maps(project_id);

CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    topical_map_id TEXT NOT NULL REFERENCES topical_maps(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    entity_type TEXT NOT NULL CHECK (entity_type IN ('central', 'derived', 'sibling')),
    wikidata_id TEXT,
    properties TEXT,
    prominence_score INTEGER NOT NULL DEFAULT 5,
    popularity_score INTEGER NOT NULL DEFAULT 5,
    relevance_score INTEGER NOT NULL DEFAULT 5
);

CREATE INDEX IF NOT EXISTS idx_entities_map ON entities(topical_map_id);

CREATE TABLE IF NOT EXISTS attributes (
    id TEXT PRIMARY KEY,
    topical_map_id TEXT NOT NULL REFERENCES topical_maps(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    classification TEXT CHECK (classification IS NULL OR classification IN ('unique', 'root', 'rarer')),
    section TEXT NOT NULL DEFAULT 'core' CHECK (section IN ('core', 'outer')),
    depth_level INTEGER NOT NULL DEFAULT 1 CHECK (depth_level >= 1),
    search_volume INTEGER NOT NULL DEFAULT 0 CHECK (search_volume >= 0)
);

CREATE INDEX IF NOT EXISTS idx_attributes_map ON attributes(topical_map_id);

CREATE TABLE IF NOT EXISTS entity_attributes (
    entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    attribute_id TEXT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
    relationship_type TEXT,
    metadata TEXT,
    PRIMARY KEY (entity_id, attribute_id)
);

CREATE TABLE IF NOT EXISTS content_briefs (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    entity_id TEXT REFERENCES entities(id) ON DELETE SET NULL,
    attribute_id TEXT REFERENCES attributes(id) ON DELETE SET NULL,
    title_tag TEXT,
    url_slug TEXT,
    meta_description TEXT,
    h1 TEXT,
    image_alts TEXT,
    status TEXT NOT NULL DEFAULT 'black' CHECK (status IN ('black', 'orange', 'yellow', 'blue', 'green')),
    macro_context TEXT,
    micro_contexts TEXT,
    target_publish_date INTEGER,
    actual_publish_date INTEGER,
    word_count_target INTEGER,
    authorship_codes TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_briefs_project ON content_briefs(project_id);
CREATE INDEX IF NOT EXISTS idx_briefs_status ON content_briefs(status);

CREATE TABLE IF NOT EXISTS brief_sections (
    id TEXT PRIMARY KEY,
    brief_id TEXT NOT NULL REFERENCES content_briefs(id) ON DELETE CASCADE,
    heading_level TEXT NOT NULL CHECK (heading_level IN ('H2', 'H3', 'H4', 'H5')),
    heading_text TEXT NOT NULL,
    order_position INTEGER NOT NULL,
    question_type TEXT,
    format_instruction TEXT,
    content_instructions TEXT,
    required_terms TEXT,
    UNIQUE (brief_id, order_position)
);

CREATE TABLE IF NOT EXISTS internal_links (
    id TEXT PRIMARY KEY,
    source_brief_id TEXT NOT NULL REFERENCES content_briefs(id) ON DELETE CASCADE,
    target_brief_id TEXT NOT NULL REFERENCES content_briefs(id) ON DELETE CASCADE,
    anchor_text TEXT,
    placement_section TEXT,
    priority INTEGER NOT NULL DEFAULT 5 CHECK (priority BETWEEN 1 AND 10),
    is_contextual_bridge INTEGER NOT NULL DEFAULT 0,
    UNIQUE (source_brief_id, target_brief_id)
);

CREATE INDEX IF NOT EXISTS idx_links_target ON internal_links(target_brief_id);

CREATE TABLE IF NOT EXISTS publications (
    id TEXT PRIMARY KEY,
    brief_id TEXT NOT NULL UNIQUE REFERENCES content_briefs(id) ON DELETE CASCADE,
    url TEXT,
    content TEXT,
    schema_markup TEXT,
    published_at INTEGER,
    gsc_data TEXT,
    performance_metrics TEXT
);

CREATE TABLE IF NOT EXISTS query_data (
    id TEXT PRIMARY KEY,
    publication_id TEXT NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
    query TEXT NOT NULL,
    position REAL,
    clicks INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    impressions INTEGER NOT NULL DEFAULT 0 CHECK (impressions >= 0),
    ctr REAL,
    query_date INTEGER
);

CREATE INDEX IF NOT EXISTS idx_query_data_publication ON query_data(publication_id);
CREATE INDEX IF NOT EXISTS idx_query_data_date ON query_data(query_date);

-- Key/value store for application metadata (schema version, last backup)
CREATE TABLE IF NOT EXISTS app_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// tableNames lists every table, children before owners
var tableNames = []string{
	"query_data",
	"publications",
	"internal_links",
	"brief_sections",
	"content_briefs",
	"entity_attributes",
	"attributes",
	"entities",
	"topical_maps",
	"projects",
	"app_meta",
}
