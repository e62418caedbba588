package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/masahif/seoplanner/internal/planner"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test_planner.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)

// seed creates a project with one map, one entity, one attribute and two briefs
type seed struct {
	project planner.Project
	tmap    planner.TopicalMap
	entity  planner.Entity
	attr    planner.Attribute
	briefA  planner.ContentBrief
	briefB  planner.ContentBrief
}

func seedProject(t *testing.T, s *SQLiteStorage, id string) *seed {
	t.Helper()
	ctx := context.Background()
	sd := &seed{
		project: planner.Project{ID: id, Name: "Project " + id, FunctionalWords: []string{"buy"},
			CreatedAt: testTime, UpdatedAt: testTime},
	}
	sd.tmap = planner.TopicalMap{ID: id + "-map", ProjectID: id, Name: "Map", Type: planner.MapRaw, CreatedAt: testTime}
	sd.entity = planner.Entity{ID: id + "-ent", TopicalMapID: sd.tmap.ID, Name: "Visa", Type: planner.EntityCentral,
		ProminenceScore: 5, PopularityScore: 5, RelevanceScore: 5}
	sd.attr = planner.Attribute{ID: id + "-attr", TopicalMapID: sd.tmap.ID, Name: "Cost",
		Section: planner.SectionCore, DepthLevel: 1}
	sd.briefA = planner.ContentBrief{ID: id + "-a", ProjectID: id, EntityID: sd.entity.ID, AttributeID: sd.attr.ID,
		TitleTag: "A", Status: planner.StatusBlack, CreatedAt: testTime, UpdatedAt: testTime}
	sd.briefB = planner.ContentBrief{ID: id + "-b", ProjectID: id, TitleTag: "B",
		Status: planner.StatusGreen, CreatedAt: testTime, UpdatedAt: testTime}

	steps := []error{
		s.InsertProject(ctx, &sd.project),
		s.InsertTopicalMap(ctx, &sd.tmap),
		s.InsertEntity(ctx, &sd.entity),
		s.InsertAttribute(ctx, &sd.attr),
		s.InsertEntityAttribute(ctx, &planner.EntityAttribute{EntityID: sd.entity.ID, AttributeID: sd.attr.ID}),
		s.InsertBrief(ctx, &sd.briefA),
		s.InsertBrief(ctx, &sd.briefB),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("seed step %d failed: %v", i, err)
		}
	}
	return sd
}

func TestForeignKeysEnabled(t *testing.T) {
	storage := newTestStorage(t)

	var fk int
	if err := storage.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to read pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", fk)
	}

	version, err := storage.GetMeta("schema_version")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("Expected schema version %q, got %q", schemaVersion, version)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	p := &planner.Project{
		ID:                  "p1",
		Name:                "Acme Visas",
		SourceContext:       "Visa consultancy",
		CentralEntity:       "Germany Relocation",
		CentralSearchIntent: "Move to Germany",
		FunctionalWords:     []string{"apply", "move"},
		CreatedAt:           testTime,
		UpdatedAt:           testTime,
	}
	if err := storage.InsertProject(ctx, p); err != nil {
		t.Fatalf("InsertProject failed: %v", err)
	}

	got, err := storage.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != p.Name || got.CentralEntity != p.CentralEntity || got.SourceContext != p.SourceContext {
		t.Errorf("Project fields mismatch: %+v", got)
	}
	if strings.Join(got.FunctionalWords, ",") != "apply,move" {
		t.Errorf("Expected functional words [apply move], got %v", got.FunctionalWords)
	}
	if !got.CreatedAt.Equal(testTime) || !got.UpdatedAt.Equal(testTime) {
		t.Errorf("Timestamps not preserved to the nanosecond: %v %v", got.CreatedAt, got.UpdatedAt)
	}

	if _, err := storage.GetProject(ctx, "missing"); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := storage.InsertProject(ctx, p); !errors.Is(err, planner.ErrConflict) {
		t.Errorf("Expected ErrConflict on duplicate id, got %v", err)
	}

	missing := &planner.Project{ID: "nope", Name: "x", UpdatedAt: testTime}
	if err := storage.UpdateProject(ctx, missing); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got %v", err)
	}
}

func TestListProjectsOrder(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"old", "new", "mid"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		ts := testTime.Add(offsets[i])
		if err := storage.InsertProject(ctx, &planner.Project{ID: id, Name: id, CreatedAt: ts, UpdatedAt: ts}); err != nil {
			t.Fatalf("InsertProject failed: %v", err)
		}
	}

	projects, err := storage.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	var ids []string
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "new,mid,old" {
		t.Errorf("Expected updated_at descending order, got %v", ids)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	sd := seedProject(t, storage, "p1")
	other := seedProject(t, storage, "p2")

	pub := &planner.Publication{ID: "pub1", BriefID: sd.briefB.ID, URL: "https://example.com/b"}
	if err := storage.InsertPublication(ctx, pub); err != nil {
		t.Fatalf("InsertPublication failed: %v", err)
	}
	if err := storage.InsertQueryData(ctx, &planner.QueryData{ID: "q1", PublicationID: "pub1", Query: "visa"}); err != nil {
		t.Fatalf("InsertQueryData failed: %v", err)
	}
	if err := storage.InsertSection(ctx, &planner.BriefSection{ID: "s1", BriefID: sd.briefA.ID,
		HeadingLevel: planner.H2, HeadingText: "Intro", OrderPosition: 1}); err != nil {
		t.Fatalf("InsertSection failed: %v", err)
	}
	if err := storage.InsertInternalLink(ctx, &planner.InternalLink{ID: "l1",
		SourceBriefID: sd.briefA.ID, TargetBriefID: sd.briefB.ID, Priority: 5}); err != nil {
		t.Fatalf("InsertInternalLink failed: %v", err)
	}

	deleted, err := storage.DeleteProject(ctx, "p1")
	if err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if !deleted {
		t.Fatal("Expected DeleteProject to report true")
	}

	for _, table := range []string{"topical_maps", "entities", "attributes", "entity_attributes",
		"content_briefs", "brief_sections", "internal_links", "publications", "query_data"} {
		var n int
		if err := storage.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		want := 0
		switch table {
		case "topical_maps", "entities", "attributes", "entity_attributes":
			want = 1
		case "content_briefs":
			want = 2
		}
		if n != want {
			t.Errorf("Expected %d rows in %s after delete, got %d", want, table, n)
		}
	}

	if _, err := storage.GetBrief(ctx, other.briefA.ID); err != nil {
		t.Errorf("Other project's brief should survive: %v", err)
	}

	deleted, err = storage.DeleteProject(ctx, "p1")
	if err != nil || deleted {
		t.Errorf("Expected (false, nil) for missing project, got (%v, %v)", deleted, err)
	}
}

func TestDeleteEntityNullsBriefReference(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	sd := seedProject(t, storage, "p1")

	deleted, err := storage.DeleteEntity(ctx, sd.entity.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteEntity = (%v, %v)", deleted, err)
	}
	b, err := storage.GetBrief(ctx, sd.briefA.ID)
	if err != nil {
		t.Fatalf("Brief should survive entity deletion: %v", err)
	}
	if b.EntityID != "" {
		t.Errorf("Expected entity reference cleared, got %q", b.EntityID)
	}
	if b.AttributeID != sd.attr.ID {
		t.Errorf("Attribute reference should be untouched, got %q", b.AttributeID)
	}

	deleted, err = storage.DeleteAttribute(ctx, sd.attr.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteAttribute = (%v, %v)", deleted, err)
	}
	b, _ = storage.GetBrief(ctx, sd.briefA.ID)
	if b.AttributeID != "" {
		t.Errorf("Expected attribute reference cleared, got %q", b.AttributeID)
	}
}

func TestDeleteTopicalMap(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	sd := seedProject(t, storage, "p1")

	deleted, err := storage.DeleteTopicalMap(ctx, sd.tmap.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteTopicalMap = (%v, %v)", deleted, err)
	}
	if _, err := storage.GetEntity(ctx, sd.entity.ID); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected entity gone, got %v", err)
	}
	b, err := storage.GetBrief(ctx, sd.briefA.ID)
	if err != nil {
		t.Fatalf("Brief should survive: %v", err)
	}
	if b.EntityID != "" || b.AttributeID != "" {
		t.Errorf("Expected references cleared, got %q %q", b.EntityID, b.AttributeID)
	}
}

func TestUniquenessConstraints(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	sd := seedProject(t, storage, "p1")

	tests := []struct {
		name   string
		first  func() error
		second func() error
	}{
		{
			name: "internal link pair",
			first: func() error {
				return storage.InsertInternalLink(ctx, &planner.InternalLink{ID: "l1",
					SourceBriefID: sd.briefA.ID, TargetBriefID: sd.briefB.ID, Priority: 1})
			},
			second: func() error {
				return storage.InsertInternalLink(ctx, &planner.InternalLink{ID: "l2",
					SourceBriefID: sd.briefA.ID, TargetBriefID: sd.briefB.ID, Priority: 2})
			},
		},
		{
			name: "section order position",
			first: func() error {
				return storage.InsertSection(ctx, &planner.BriefSection{ID: "s1", BriefID: sd.briefA.ID,
					HeadingLevel: planner.H2, HeadingText: "One", OrderPosition: 1})
			},
			second: func() error {
				return storage.InsertSection(ctx, &planner.BriefSection{ID: "s2", BriefID: sd.briefA.ID,
					HeadingLevel: planner.H3, HeadingText: "Two", OrderPosition: 1})
			},
		},
		{
			name: "publication per brief",
			first: func() error {
				return storage.InsertPublication(ctx, &planner.Publication{ID: "pub1", BriefID: sd.briefB.ID})
			},
			second: func() error {
				return storage.InsertPublication(ctx, &planner.Publication{ID: "pub2", BriefID: sd.briefB.ID})
			},
		},
		{
			name:  "entity attribute pair",
			first: func() error { return nil }, // seeded already
			second: func() error {
				return storage.InsertEntityAttribute(ctx, &planner.EntityAttribute{
					EntityID: sd.entity.ID, AttributeID: sd.attr.ID})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.first(); err != nil {
				t.Fatalf("first insert failed: %v", err)
			}
			if err := tt.second(); !errors.Is(err, planner.ErrConflict) {
				t.Errorf("Expected ErrConflict, got %v", err)
			}
		})
	}

	// The reverse direction is a different edge
	err := storage.InsertInternalLink(ctx, &planner.InternalLink{ID: "l3",
		SourceBriefID: sd.briefB.ID, TargetBriefID: sd.briefA.ID, Priority: 5})
	if err != nil {
		t.Errorf("Reverse link should be allowed: %v", err)
	}
}

func TestForeignKeyViolation(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	err := storage.InsertTopicalMap(ctx, &planner.TopicalMap{ID: "m1", ProjectID: "ghost",
		Name: "Orphan", Type: planner.MapRaw, CreatedAt: testTime})
	if !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for dangling owner, got %v", err)
	}
}

func TestBriefRoundTripAndFilter(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	sd := seedProject(t, storage, "p1")

	target := testTime.Add(24 * time.Hour)
	b := sd.briefA
	b.ImageAlts = map[string]string{"hero": "Berlin skyline"}
	b.MicroContexts = []string{"cost", "timeline"}
	b.TargetPublishDate = &target
	b.WordCountTarget = 1500
	b.Status = planner.StatusOrange
	b.UpdatedAt = testTime.Add(time.Second)
	if err := storage.UpdateBrief(ctx, &b); err != nil {
		t.Fatalf("UpdateBrief failed: %v", err)
	}

	got, err := storage.GetBrief(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBrief failed: %v", err)
	}
	if got.Status != planner.StatusOrange || got.WordCountTarget != 1500 {
		t.Errorf("Brief not updated: %+v", got)
	}
	if got.ImageAlts["hero"] != "Berlin skyline" || len(got.MicroContexts) != 2 {
		t.Errorf("JSON columns not preserved: %+v", got)
	}
	if got.TargetPublishDate == nil || !got.TargetPublishDate.Equal(target) {
		t.Errorf("Target date not preserved: %v", got.TargetPublishDate)
	}

	green, err := storage.ListBriefs(ctx, "p1", planner.StatusGreen)
	if err != nil {
		t.Fatalf("ListBriefs failed: %v", err)
	}
	if len(green) != 1 || green[0].ID != sd.briefB.ID {
		t.Errorf("Expected only brief B in green, got %+v", green)
	}
	all, _ := storage.ListBriefs(ctx, "p1", "")
	if len(all) != 2 {
		t.Errorf("Expected 2 briefs, got %d", len(all))
	}
}

func TestProjectCounts(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	sd := seedProject(t, storage, "p1")
	seedProject(t, storage, "p2")

	if err := storage.InsertPublication(ctx, &planner.Publication{ID: "pub", BriefID: sd.briefB.ID}); err != nil {
		t.Fatalf("InsertPublication failed: %v", err)
	}

	counts, err := storage.ProjectCounts(ctx, "p1")
	if err != nil {
		t.Fatalf("ProjectCounts failed: %v", err)
	}
	if counts.TopicalMaps != 1 || counts.Attributes != 1 || counts.Publications != 1 {
		t.Errorf("Unexpected counts: %+v", counts)
	}
	if counts.BriefsByStatus[planner.StatusBlack] != 1 || counts.BriefsByStatus[planner.StatusGreen] != 1 {
		t.Errorf("Unexpected status counts: %v", counts.BriefsByStatus)
	}
}

func TestBackupAndReset(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	seedProject(t, storage, "p1")

	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	path, err := storage.Backup(ctx, dir, now)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if filepath.Base(path) != "semantic_seo_20240506_070809.db" {
		t.Errorf("Unexpected backup name %s", filepath.Base(path))
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("Backup file missing or empty: %v", err)
	}

	last, _ := storage.GetMeta("last_backup_at")
	if last != "2024-05-06T07:08:09Z" {
		t.Errorf("Expected last_backup_at recorded, got %q", last)
	}

	// The copy is a usable database with the same data
	restored, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to open backup: %v", err)
	}
	if _, err := restored.GetProject(ctx, "p1"); err != nil {
		t.Errorf("Backup is missing project: %v", err)
	}
	_ = restored.Close()

	if err := storage.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	projects, err := storage.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects after reset failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("Expected empty store after reset, got %d projects", len(projects))
	}
}

func TestMetaOperations(t *testing.T) {
	storage := newTestStorage(t)

	value, err := storage.GetMeta("missing")
	if err != nil || value != "" {
		t.Errorf("Expected empty value for missing key, got %q, %v", value, err)
	}
	if err := storage.SetMeta("k", "v1"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := storage.SetMeta("k", "v2"); err != nil {
		t.Fatalf("SetMeta overwrite failed: %v", err)
	}
	if value, _ := storage.GetMeta("k"); value != "v2" {
		t.Errorf("Expected v2, got %q", value)
	}
}
