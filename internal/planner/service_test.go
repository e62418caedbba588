package planner_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/masahif/seoplanner/internal/planner"
	"github.com/masahif/seoplanner/internal/storage"
)

// frozenClock returns the same instant on every call
func frozenClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(t *testing.T, opts ...planner.Option) *planner.Service {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return planner.NewService(store, opts...)
}

func mustCreateProject(t *testing.T, svc *planner.Service, name string) *planner.Project {
	t.Helper()
	p, err := svc.CreateProject(context.Background(), planner.NewProject{Name: name})
	if err != nil {
		t.Fatalf("CreateProject(%q) failed: %v", name, err)
	}
	return p
}

func TestCreateProject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty name", "", true},
		{"blank name", "   ", true},
		{"valid name", "X", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.CreateProject(ctx, planner.NewProject{Name: tt.input})
			if tt.wantErr {
				if !errors.Is(err, planner.ErrValidation) {
					t.Errorf("Expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			got, err := svc.GetProject(ctx, p.ID)
			if err != nil {
				t.Fatalf("GetProject failed: %v", err)
			}
			if got.Name != tt.input {
				t.Errorf("Expected name %q, got %q", tt.input, got.Name)
			}
			if got.FunctionalWords == nil || len(got.FunctionalWords) != 0 {
				t.Errorf("Expected empty functional words, got %#v", got.FunctionalWords)
			}
			if !got.CreatedAt.Equal(got.UpdatedAt) {
				t.Errorf("Expected created_at == updated_at, got %v and %v", got.CreatedAt, got.UpdatedAt)
			}
		})
	}

	projects, _ := svc.ListProjects(ctx)
	if len(projects) != 1 {
		t.Errorf("Failed creations must not leave rows behind, got %d projects", len(projects))
	}
}

func TestGetProjectNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetProject(context.Background(), "missing"); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProjectRefreshesTimestamp(t *testing.T) {
	// A frozen clock forces the strictly-increasing rule to kick in
	svc := newTestService(t, planner.WithClock(frozenClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	ctx := context.Background()

	p := mustCreateProject(t, svc, "Acme")
	prev := p.UpdatedAt

	name := "Acme Visas"
	words := []string{"apply", "relocate"}
	for i := 0; i < 3; i++ {
		updated, err := svc.UpdateProject(ctx, p.ID, planner.ProjectPatch{Name: &name, FunctionalWords: &words})
		if err != nil {
			t.Fatalf("UpdateProject failed: %v", err)
		}
		if !updated.UpdatedAt.After(prev) {
			t.Errorf("update %d: updated_at %v not after %v", i, updated.UpdatedAt, prev)
		}
		prev = updated.UpdatedAt
	}

	got, _ := svc.GetProject(ctx, p.ID)
	if got.Name != name || len(got.FunctionalWords) != 2 {
		t.Errorf("Patch not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at must not change")
	}

	// An empty patch still refreshes updated_at
	touched, err := svc.UpdateProject(ctx, p.ID, planner.ProjectPatch{})
	if err != nil {
		t.Fatalf("Empty patch failed: %v", err)
	}
	if !touched.UpdatedAt.After(prev) {
		t.Errorf("Empty patch should refresh updated_at")
	}

	empty := ""
	if _, err := svc.UpdateProject(ctx, p.ID, planner.ProjectPatch{Name: &empty}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty name, got %v", err)
	}
	if _, err := svc.UpdateProject(ctx, "missing", planner.ProjectPatch{Name: &name}); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListProjectsMostRecentFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := mustCreateProject(t, svc, "A")
	mustCreateProject(t, svc, "B")
	name := "A2"
	if _, err := svc.UpdateProject(ctx, a.ID, planner.ProjectPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}

	projects, err := svc.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != a.ID {
		t.Errorf("Expected updated project first, got %+v", projects)
	}
}

func TestDeleteProjectCascade(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreateProject(t, svc, "Doomed")
	m, err := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: p.ID, Name: "Map"})
	if err != nil {
		t.Fatalf("CreateTopicalMap failed: %v", err)
	}
	b, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, TitleTag: "Brief"})
	if err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}

	deleted, err := svc.DeleteProject(ctx, p.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteProject = (%v, %v)", deleted, err)
	}
	if _, err := svc.GetTopicalMap(ctx, m.ID); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Topical map should be gone, got %v", err)
	}
	if _, err := svc.GetBrief(ctx, b.ID); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Brief should be gone, got %v", err)
	}

	deleted, err = svc.DeleteProject(ctx, "missing")
	if err != nil || deleted {
		t.Errorf("Expected (false, nil), got (%v, %v)", deleted, err)
	}
}

func TestDuplicateProject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateProject(ctx, planner.NewProject{
		Name:                "Original",
		SourceContext:       "We sell visas",
		CentralEntity:       "Germany Relocation",
		CentralSearchIntent: "Relocate to Germany",
		FunctionalWords:     []string{"apply", "move"},
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: src.ID, Name: "Map"}); err != nil {
		t.Fatalf("CreateTopicalMap failed: %v", err)
	}
	if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: src.ID}); err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}

	dup, err := svc.DuplicateProject(ctx, src.ID, "Copy")
	if err != nil {
		t.Fatalf("DuplicateProject failed: %v", err)
	}
	if dup.ID == src.ID {
		t.Error("Duplicate must have a new identifier")
	}
	if dup.Name != "Copy" || dup.SourceContext != src.SourceContext || dup.CentralEntity != src.CentralEntity ||
		dup.CentralSearchIntent != src.CentralSearchIntent || fmt.Sprint(dup.FunctionalWords) != fmt.Sprint(src.FunctionalWords) {
		t.Errorf("Context fields not copied verbatim: %+v", dup)
	}

	stats, err := svc.ProjectStats(ctx, dup.ID)
	if err != nil {
		t.Fatalf("ProjectStats failed: %v", err)
	}
	if stats.TopicalMapCount != 0 || stats.TotalBriefs != 0 {
		t.Errorf("Duplicate must have no children, got %+v", stats)
	}

	if _, err := svc.DuplicateProject(ctx, "missing", "Copy"); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProjectStatsScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, planner.NewProject{Name: "Acme Visas", CentralEntity: "Germany Relocation"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	m, err := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: p.ID, Name: "raw", Type: planner.MapRaw})
	if err != nil {
		t.Fatalf("CreateTopicalMap failed: %v", err)
	}
	var attrs []*planner.Attribute
	for _, name := range []string{"Visa cost", "Processing time"} {
		a, err := svc.AddAttribute(ctx, planner.Attribute{TopicalMapID: m.ID, Name: name})
		if err != nil {
			t.Fatalf("AddAttribute failed: %v", err)
		}
		attrs = append(attrs, a)
	}
	if _, err := svc.CreateBrief(ctx, planner.ContentBrief{
		ProjectID: p.ID, AttributeID: attrs[0].ID, Status: planner.StatusGreen,
	}); err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}

	stats, err := svc.ProjectStats(ctx, p.ID)
	if err != nil {
		t.Fatalf("ProjectStats failed: %v", err)
	}
	if stats.TopicalMapCount != 1 || stats.TotalBriefs != 1 {
		t.Errorf("Unexpected counts: %+v", stats)
	}
	want := map[planner.BriefStatus]int{"black": 0, "orange": 0, "yellow": 0, "blue": 0, "green": 1}
	if fmt.Sprint(stats.BriefsByStatus) != fmt.Sprint(want) {
		t.Errorf("briefs_by_status = %v, want %v", stats.BriefsByStatus, want)
	}
	if stats.CoverageScore != 0.5 {
		t.Errorf("coverage_score = %v, want 0.5", stats.CoverageScore)
	}
}

func TestProjectStatsCoverage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// No attributes: coverage is zero however many green briefs exist
	bare := mustCreateProject(t, svc, "Bare")
	for i := 0; i < 3; i++ {
		if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: bare.ID, Status: planner.StatusGreen}); err != nil {
			t.Fatalf("CreateBrief failed: %v", err)
		}
	}
	stats, err := svc.ProjectStats(ctx, bare.ID)
	if err != nil {
		t.Fatalf("ProjectStats failed: %v", err)
	}
	if stats.CoverageScore != 0 {
		t.Errorf("Expected 0 coverage without attributes, got %v", stats.CoverageScore)
	}

	// Ten attributes across two maps and three green briefs
	p := mustCreateProject(t, svc, "Ten")
	for i := 0; i < 2; i++ {
		m, err := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: p.ID, Name: fmt.Sprintf("Map %d", i)})
		if err != nil {
			t.Fatalf("CreateTopicalMap failed: %v", err)
		}
		for j := 0; j < 5; j++ {
			if _, err := svc.AddAttribute(ctx, planner.Attribute{TopicalMapID: m.ID, Name: fmt.Sprintf("a%d", j)}); err != nil {
				t.Fatalf("AddAttribute failed: %v", err)
			}
		}
	}
	for _, st := range []planner.BriefStatus{planner.StatusGreen, planner.StatusGreen, planner.StatusGreen, planner.StatusBlue} {
		if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, Status: st}); err != nil {
			t.Fatalf("CreateBrief failed: %v", err)
		}
	}
	stats, err = svc.ProjectStats(ctx, p.ID)
	if err != nil {
		t.Fatalf("ProjectStats failed: %v", err)
	}
	if stats.CoverageScore != 0.3 {
		t.Errorf("Expected coverage 0.3, got %v", stats.CoverageScore)
	}

	sum := 0
	for _, st := range planner.AllStatuses {
		n, ok := stats.BriefsByStatus[st]
		if !ok || n < 0 {
			t.Errorf("Missing or negative status key %s", st)
		}
		sum += n
	}
	if len(stats.BriefsByStatus) != 5 || sum != stats.TotalBriefs {
		t.Errorf("briefs_by_status %v does not sum to total %d", stats.BriefsByStatus, stats.TotalBriefs)
	}

	if _, err := svc.ProjectStats(ctx, "missing"); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, planner.NewProject{
		Name: "Acme Visas", SourceContext: "Consultancy", CentralEntity: "Germany Relocation",
		CentralSearchIntent: "Relocate", FunctionalWords: []string{"apply"},
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	m, _ := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: p.ID, Name: "Map"})
	e, _ := svc.AddEntity(ctx, planner.Entity{TopicalMapID: m.ID, Name: "Visa", Type: planner.EntityCentral})
	a, _ := svc.AddAttribute(ctx, planner.Attribute{TopicalMapID: m.ID, Name: "Cost"})
	if _, err := svc.LinkEntityAttribute(ctx, planner.EntityAttribute{EntityID: e.ID, AttributeID: a.ID}); err != nil {
		t.Fatalf("LinkEntityAttribute failed: %v", err)
	}
	b1, _ := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, EntityID: e.ID, TitleTag: "One"})
	b2, _ := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, TitleTag: "Two"})
	if _, err := svc.AddSection(ctx, planner.BriefSection{BriefID: b1.ID, HeadingText: "What is it?", OrderPosition: 1}); err != nil {
		t.Fatalf("AddSection failed: %v", err)
	}
	if _, err := svc.CreateInternalLink(ctx, planner.InternalLink{SourceBriefID: b1.ID, TargetBriefID: b2.ID}); err != nil {
		t.Fatalf("CreateInternalLink failed: %v", err)
	}

	export, err := svc.ExportProject(ctx, p.ID, planner.DefaultExportOptions())
	if err != nil {
		t.Fatalf("ExportProject failed: %v", err)
	}
	data, err := json.Marshal(export)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back planner.ProjectExport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Project.Name != p.Name || back.Project.SourceContext != p.SourceContext ||
		back.Project.CentralEntity != p.CentralEntity || back.Project.CentralSearchIntent != p.CentralSearchIntent {
		t.Errorf("Project fields lost in round trip: %+v", back.Project)
	}
	live, _ := svc.ListBriefs(ctx, p.ID, "")
	if len(back.ContentBriefs) != len(live) {
		t.Errorf("Expected %d briefs, got %d", len(live), len(back.ContentBriefs))
	}
	if len(back.TopicalMaps) != 1 || len(back.TopicalMaps[0].Entities) != 1 || len(back.TopicalMaps[0].Attributes) != 1 {
		t.Errorf("Topical map nesting lost: %+v", back.TopicalMaps)
	}
	if back.ExportedAt.IsZero() {
		t.Error("exported_at must be set")
	}

	// total_score is emitted but never required on input
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	ent := raw["topical_maps"].([]any)[0].(map[string]any)["entities"].([]any)[0].(map[string]any)
	if ent["total_score"] != float64(15) {
		t.Errorf("Expected total_score 15, got %v", ent["total_score"])
	}

	onlyProject, err := svc.ExportProject(ctx, p.ID, planner.ExportOptions{})
	if err != nil {
		t.Fatalf("ExportProject failed: %v", err)
	}
	if onlyProject.TopicalMaps != nil || onlyProject.ContentBriefs != nil {
		t.Errorf("Expected no maps or briefs when excluded")
	}

	if _, err := svc.ExportProject(ctx, "missing", planner.DefaultExportOptions()); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBriefWorkflow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustCreateProject(t, svc, "Flow")

	b, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}
	if b.Status != planner.StatusBlack {
		t.Errorf("Expected default status black, got %s", b.Status)
	}

	if _, err := svc.TransitionBrief(ctx, b.ID, planner.StatusYellow); !errors.Is(err, planner.ErrTransition) {
		t.Errorf("Skipping a step must fail with ErrTransition, got %v", err)
	}
	if _, err := svc.RevertBrief(ctx, b.ID); !errors.Is(err, planner.ErrTransition) {
		t.Errorf("Reverting black must fail, got %v", err)
	}

	for _, want := range []planner.BriefStatus{planner.StatusOrange, planner.StatusYellow, planner.StatusBlue, planner.StatusGreen} {
		b, err = svc.AdvanceBrief(ctx, b.ID)
		if err != nil {
			t.Fatalf("AdvanceBrief failed: %v", err)
		}
		if b.Status != want {
			t.Errorf("Expected %s, got %s", want, b.Status)
		}
	}
	if b.ActualPublishDate == nil {
		t.Error("Entering green must stamp the actual publish date")
	}
	if _, err := svc.AdvanceBrief(ctx, b.ID); !errors.Is(err, planner.ErrTransition) {
		t.Errorf("Advancing green must fail, got %v", err)
	}

	b, err = svc.RevertBrief(ctx, b.ID)
	if err != nil || b.Status != planner.StatusBlue {
		t.Errorf("Expected revert to blue, got %v %v", b, err)
	}
	b, err = svc.TransitionBrief(ctx, b.ID, planner.StatusGreen)
	if err != nil || b.Status != planner.StatusGreen {
		t.Errorf("Expected transition to green, got %v %v", b, err)
	}

	stored, _ := svc.GetBrief(ctx, b.ID)
	if stored.Status != planner.StatusGreen {
		t.Errorf("Status not persisted, got %s", stored.Status)
	}
	if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, Status: "purple"}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown status, got %v", err)
	}
}

func TestBriefReferencesStayInProject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mine := mustCreateProject(t, svc, "Mine")
	theirs := mustCreateProject(t, svc, "Theirs")
	m, _ := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: theirs.ID, Name: "Theirs map"})
	e, _ := svc.AddEntity(ctx, planner.Entity{TopicalMapID: m.ID, Name: "Foreign"})

	if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: mine.ID, EntityID: e.ID}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for foreign entity, got %v", err)
	}
	if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: mine.ID, AttributeID: "ghost"}); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing attribute, got %v", err)
	}
	if _, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: "ghost"}); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing project, got %v", err)
	}

	b, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: theirs.ID, EntityID: e.ID})
	if err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}
	if _, err := svc.DeleteEntity(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEntity failed: %v", err)
	}
	b, err = svc.GetBrief(ctx, b.ID)
	if err != nil {
		t.Fatalf("Brief must survive entity deletion: %v", err)
	}
	if b.EntityID != "" {
		t.Errorf("Expected entity reference cleared, got %q", b.EntityID)
	}
}

func TestInternalLinks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreateProject(t, svc, "Links")
	other := mustCreateProject(t, svc, "Other")
	a, _ := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, TitleTag: "A"})
	b, _ := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, TitleTag: "B"})
	x, _ := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: other.ID, TitleTag: "X"})

	link, err := svc.CreateInternalLink(ctx, planner.InternalLink{SourceBriefID: a.ID, TargetBriefID: b.ID, AnchorText: "see B"})
	if err != nil {
		t.Fatalf("CreateInternalLink failed: %v", err)
	}
	if link.Priority != 5 {
		t.Errorf("Expected default priority 5, got %d", link.Priority)
	}

	tests := []struct {
		name string
		link planner.InternalLink
		want error
	}{
		{"duplicate pair", planner.InternalLink{SourceBriefID: a.ID, TargetBriefID: b.ID, Priority: 1}, planner.ErrConflict},
		{"self link", planner.InternalLink{SourceBriefID: a.ID, TargetBriefID: a.ID}, planner.ErrValidation},
		{"cross project", planner.InternalLink{SourceBriefID: a.ID, TargetBriefID: x.ID}, planner.ErrValidation},
		{"priority too high", planner.InternalLink{SourceBriefID: b.ID, TargetBriefID: a.ID, Priority: 11}, planner.ErrValidation},
		{"missing target", planner.InternalLink{SourceBriefID: a.ID, TargetBriefID: "ghost"}, planner.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateInternalLink(ctx, tt.link); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	out, _ := svc.ListOutgoingLinks(ctx, a.ID)
	in, _ := svc.ListIncomingLinks(ctx, b.ID)
	if len(out) != 1 || len(in) != 1 || out[0].ID != in[0].ID {
		t.Errorf("Expected the same single link both ways, got %v / %v", out, in)
	}

	deleted, err := svc.DeleteInternalLink(ctx, link.ID)
	if err != nil || !deleted {
		t.Errorf("DeleteInternalLink = (%v, %v)", deleted, err)
	}
}

func TestSectionsAndPublications(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreateProject(t, svc, "Pubs")
	b, _ := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID})

	for _, pos := range []int{3, 1, 2} {
		_, err := svc.AddSection(ctx, planner.BriefSection{BriefID: b.ID, HeadingText: fmt.Sprintf("H %d", pos),
			OrderPosition: pos, QuestionType: planner.QuestionDefinitional, FormatInstruction: planner.FormatFeaturedSnippet})
		if err != nil {
			t.Fatalf("AddSection failed: %v", err)
		}
	}
	if _, err := svc.AddSection(ctx, planner.BriefSection{BriefID: b.ID, HeadingText: "Dup", OrderPosition: 2}); !errors.Is(err, planner.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate position, got %v", err)
	}
	if _, err := svc.AddSection(ctx, planner.BriefSection{BriefID: b.ID, HeadingText: "Bad", OrderPosition: 9, HeadingLevel: "H1"}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for H1, got %v", err)
	}
	sections, _ := svc.ListSections(ctx, b.ID)
	if len(sections) != 3 || sections[0].OrderPosition != 1 || sections[2].OrderPosition != 3 {
		t.Errorf("Sections not ordered by position: %+v", sections)
	}

	pub, err := svc.CreatePublication(ctx, planner.Publication{BriefID: b.ID, URL: "https://example.com/visa"})
	if err != nil {
		t.Fatalf("CreatePublication failed: %v", err)
	}
	if _, err := svc.CreatePublication(ctx, planner.Publication{BriefID: b.ID, URL: "https://example.com/again"}); !errors.Is(err, planner.ErrConflict) {
		t.Errorf("Expected ErrConflict for second publication, got %v", err)
	}
	if _, err := svc.CreatePublication(ctx, planner.Publication{BriefID: b.ID, URL: "not a url"}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for relative url, got %v", err)
	}

	pos := 3.2
	if _, err := svc.AddQueryData(ctx, planner.QueryData{PublicationID: pub.ID, Query: "visa cost", Position: &pos, Clicks: 4, Impressions: 100}); err != nil {
		t.Fatalf("AddQueryData failed: %v", err)
	}
	if _, err := svc.AddQueryData(ctx, planner.QueryData{PublicationID: pub.ID, Query: "neg", Clicks: -1}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for negative clicks, got %v", err)
	}
	rows, _ := svc.ListQueryData(ctx, pub.ID)
	if len(rows) != 1 || rows[0].Position == nil || *rows[0].Position != pos {
		t.Errorf("Unexpected query rows: %+v", rows)
	}

	found, err := svc.PublicationForBrief(ctx, b.ID)
	if err != nil || found == nil || found.ID != pub.ID {
		t.Errorf("PublicationForBrief = %v, %v", found, err)
	}
	pubs, _ := svc.ListPublications(ctx, p.ID)
	if len(pubs) != 1 {
		t.Errorf("Expected 1 publication, got %d", len(pubs))
	}
}

func TestEntityScoresAndLinks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustCreateProject(t, svc, "Scores")
	m1, _ := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: p.ID, Name: "One"})
	m2, _ := svc.CreateTopicalMap(ctx, planner.TopicalMap{ProjectID: p.ID, Name: "Two"})

	e, err := svc.AddEntity(ctx, planner.Entity{TopicalMapID: m1.ID, Name: "Visa", ProminenceScore: 8})
	if err != nil {
		t.Fatalf("AddEntity failed: %v", err)
	}
	if e.PopularityScore != 5 || e.RelevanceScore != 5 || e.TotalScore() != 18 {
		t.Errorf("Unexpected PPR defaults: %+v", e)
	}
	if _, err := svc.AddEntity(ctx, planner.Entity{TopicalMapID: m1.ID, Name: "Bad", RelevanceScore: 11}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for score 11, got %v", err)
	}

	e, err = svc.UpdateEntityScores(ctx, e.ID, 1, 2, 3)
	if err != nil || e.TotalScore() != 6 {
		t.Errorf("UpdateEntityScores = %+v, %v", e, err)
	}

	a1, _ := svc.AddAttribute(ctx, planner.Attribute{TopicalMapID: m1.ID, Name: "Cost", Classification: planner.ClassRoot})
	a2, _ := svc.AddAttribute(ctx, planner.Attribute{TopicalMapID: m2.ID, Name: "Elsewhere"})
	if _, err := svc.AddAttribute(ctx, planner.Attribute{TopicalMapID: m1.ID, Name: "Neg", SearchVolume: -1}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation for negative volume, got %v", err)
	}

	if _, err := svc.LinkEntityAttribute(ctx, planner.EntityAttribute{EntityID: e.ID, AttributeID: a1.ID}); err != nil {
		t.Fatalf("LinkEntityAttribute failed: %v", err)
	}
	if _, err := svc.LinkEntityAttribute(ctx, planner.EntityAttribute{EntityID: e.ID, AttributeID: a1.ID}); !errors.Is(err, planner.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate pair, got %v", err)
	}
	if _, err := svc.LinkEntityAttribute(ctx, planner.EntityAttribute{EntityID: e.ID, AttributeID: a2.ID}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation across maps, got %v", err)
	}
}

type fakeDiscoverer struct {
	fw  *planner.Framework
	err error
}

func (f *fakeDiscoverer) Discover(ctx context.Context, info planner.BusinessInfo) (*planner.Framework, error) {
	return f.fw, f.err
}

func TestDiscoverFramework(t *testing.T) {
	ctx := context.Background()
	info := planner.BusinessInfo{BusinessName: "Acme Visas"}

	noProvider := newTestService(t)
	if _, err := noProvider.DiscoverFramework(ctx, info); !errors.Is(err, planner.ErrNoProvider) || !errors.Is(err, planner.ErrAdapter) {
		t.Errorf("Expected ErrNoProvider, got %v", err)
	}
	if _, err := noProvider.DiscoverFramework(ctx, planner.BusinessInfo{}); !errors.Is(err, planner.ErrValidation) {
		t.Errorf("Expected ErrValidation without a business name, got %v", err)
	}

	failing := newTestService(t, planner.WithDiscoverer(&fakeDiscoverer{err: errors.New("connection refused")}))
	if _, err := failing.DiscoverFramework(ctx, info); !errors.Is(err, planner.ErrAdapter) {
		t.Errorf("Expected ErrAdapter, got %v", err)
	}

	cancelled := newTestService(t, planner.WithDiscoverer(&fakeDiscoverer{err: context.Canceled}))
	if _, err := cancelled.DiscoverFramework(ctx, info); !errors.Is(err, context.Canceled) || errors.Is(err, planner.ErrAdapter) {
		t.Errorf("Cancellation should pass through untagged, got %v", err)
	}

	degraded := &planner.Framework{
		Confidence: planner.ConfidenceLow, RawResponse: "not json", FunctionalWords: []string{},
		ParseError: "response is not a JSON object",
	}
	svc := newTestService(t, planner.WithDiscoverer(&fakeDiscoverer{fw: degraded}))
	fw, err := svc.DiscoverFramework(ctx, info)
	if err != nil {
		t.Fatalf("Degraded result must not be an error: %v", err)
	}
	if !fw.Degraded() {
		t.Errorf("Expected a degraded framework, got %+v", fw)
	}

	good := &planner.Framework{
		SourceContext: "Visa consultancy", CentralEntity: "Germany Relocation",
		CentralSearchIntent: "Relocate to Germany", FunctionalWords: []string{"apply"},
		Confidence: planner.ConfidenceHigh,
	}
	svc = newTestService(t, planner.WithDiscoverer(&fakeDiscoverer{fw: good}))
	fw, err = svc.DiscoverFramework(ctx, info)
	if err != nil {
		t.Fatalf("DiscoverFramework failed: %v", err)
	}
	p, err := svc.CreateProjectFromFramework(ctx, info.BusinessName, fw)
	if err != nil {
		t.Fatalf("CreateProjectFromFramework failed: %v", err)
	}
	if p.CentralEntity != good.CentralEntity || len(p.FunctionalWords) != 1 {
		t.Errorf("Framework not carried into project: %+v", p)
	}
}
