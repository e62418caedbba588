package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/masahif/seoplanner/internal/planner"
	"github.com/masahif/seoplanner/internal/storage"
)

const publishedPage = `<html><head>
<title>Work Visa Guide</title>
<meta name="description" content="How to get a German work visa">
</head><body>
<h1>Work Visa</h1>
<h2>What is a work visa?</h2>
<p>one two three four five six seven eight nine ten</p>
<h2>How much does it cost?</h2>
<a href="/moving-to-berlin">Berlin guide</a>
</body></html>`

type fixture struct {
	svc     *planner.Service
	project *planner.Project
	brief   *planner.ContentBrief
	target  *planner.ContentBrief
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	svc := planner.NewService(store)
	p, err := svc.CreateProject(ctx, planner.NewProject{Name: "Acme Visas"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	brief, err := svc.CreateBrief(ctx, planner.ContentBrief{
		ProjectID: p.ID, TitleTag: "Work Visa Guide", MetaDescription: "How to get a German work visa",
		H1: "Work Visa", URLSlug: "work-visa", WordCountTarget: 10,
	})
	if err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}
	target, err := svc.CreateBrief(ctx, planner.ContentBrief{ProjectID: p.ID, TitleTag: "Berlin", URLSlug: "moving-to-berlin"})
	if err != nil {
		t.Fatalf("CreateBrief failed: %v", err)
	}
	for i, h := range []string{"What is a work visa?", "How much does it cost?", "Processing times"} {
		if _, err := svc.AddSection(ctx, planner.BriefSection{BriefID: brief.ID, HeadingText: h, OrderPosition: i}); err != nil {
			t.Fatalf("AddSection failed: %v", err)
		}
	}
	if _, err := svc.CreateInternalLink(ctx, planner.InternalLink{SourceBriefID: brief.ID, TargetBriefID: target.ID}); err != nil {
		t.Fatalf("CreateInternalLink failed: %v", err)
	}
	return &fixture{svc: svc, project: p, brief: brief, target: target}
}

func checksByName(r *Report) map[string][]Check {
	out := map[string][]Check{}
	for _, c := range r.Checks {
		out[c.Name] = append(out[c.Name], c)
	}
	return out
}

func TestAuditStoredContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub, err := f.svc.CreatePublication(ctx, planner.Publication{
		BriefID: f.brief.ID, URL: "https://example.com/work-visa", Content: publishedPage,
	})
	if err != nil {
		t.Fatalf("CreatePublication failed: %v", err)
	}

	a := NewAuditor(f.svc, Config{})
	defer a.Close()

	r, err := a.AuditPublication(ctx, pub.ID, false)
	if err != nil {
		t.Fatalf("AuditPublication failed: %v", err)
	}
	if r.Source != "stored" {
		t.Errorf("Expected stored source, got %s", r.Source)
	}

	checks := checksByName(r)
	for _, name := range []string{CheckTitle, CheckMeta, CheckH1, CheckWordCount, CheckInternalLink} {
		if len(checks[name]) != 1 || !checks[name][0].Passed {
			t.Errorf("Check %s should pass: %+v", name, checks[name])
		}
	}
	sections := checks[CheckSection]
	if len(sections) != 3 || !sections[0].Passed || !sections[1].Passed || sections[2].Passed {
		t.Errorf("Expected the third section to be missing: %+v", sections)
	}
	if r.Passed() {
		t.Error("Report with a missing section must not pass")
	}
	// 7 of 8 checks pass
	if r.Score != 7.0/8.0 {
		t.Errorf("Expected score 0.875, got %v", r.Score)
	}
}

func TestAuditLivePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /drafts/\n"))
			return
		}
		atomic.AddInt32(&hits, 1)
		if ua := r.Header.Get("User-Agent"); ua != "audit-test/1.0" {
			t.Errorf("Expected User-Agent 'audit-test/1.0', got '%s'", ua)
		}
		if lang := r.Header.Get("Accept-Language"); lang != "de-DE" {
			t.Errorf("Expected configured Accept-Language 'de-DE', got '%s'", lang)
		}
		if r.URL.Path != "/work-visa" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(strings.Replace(publishedPage, "Work Visa Guide", "Other Title", 1)))
	}))
	defer server.Close()

	pub, err := f.svc.CreatePublication(ctx, planner.Publication{BriefID: f.brief.ID, URL: server.URL + "/work-visa"})
	if err != nil {
		t.Fatalf("CreatePublication failed: %v", err)
	}

	a := NewAuditor(f.svc, Config{
		UserAgent: "audit-test/1.0", RequestTimeout: 5 * time.Second,
		Headers: map[string]string{"Accept-Language": "de-DE"},
	})
	defer a.Close()

	r, err := a.AuditPublication(ctx, pub.ID, true)
	if err != nil {
		t.Fatalf("AuditPublication failed: %v", err)
	}
	if r.Source != "live" || r.StatusCode != http.StatusOK {
		t.Errorf("Unexpected source/status: %s %d", r.Source, r.StatusCode)
	}
	title := checksByName(r)[CheckTitle]
	if len(title) != 1 || title[0].Passed || title[0].Actual != "Other Title" {
		t.Errorf("Expected failing title check, got %+v", title)
	}
	if idx := checksByName(r)[CheckIndexable]; len(idx) != 1 || !idx[0].Passed {
		t.Errorf("Expected a passing indexable check, got %+v", idx)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("Expected one request, got %d", hits)
	}

	// Without live, the empty stored content cannot be audited
	if _, err := a.AuditPublication(ctx, pub.ID, false); !errors.Is(err, ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}

func TestAuditLiveErrorStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	pub, err := f.svc.CreatePublication(ctx, planner.Publication{BriefID: f.brief.ID, URL: server.URL + "/work-visa"})
	if err != nil {
		t.Fatalf("CreatePublication failed: %v", err)
	}

	a := NewAuditor(f.svc, Config{})
	defer a.Close()
	if _, err := a.AuditPublication(ctx, pub.ID, true); !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch, got %v", err)
	}
}

func TestAuditProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreatePublication(ctx, planner.Publication{BriefID: f.brief.ID, Content: publishedPage}); err != nil {
		t.Fatalf("CreatePublication failed: %v", err)
	}
	// The target brief is published without content and fails on its own
	if _, err := f.svc.CreatePublication(ctx, planner.Publication{BriefID: f.target.ID}); err != nil {
		t.Fatalf("CreatePublication failed: %v", err)
	}

	a := NewAuditor(f.svc, Config{Concurrency: 2})
	defer a.Close()

	reports, err := a.AuditProject(ctx, f.project.ID, false)
	if err != nil {
		t.Fatalf("AuditProject failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}

	var failed, audited int
	for _, r := range reports {
		if r.Error != "" {
			failed++
			if r.BriefID != f.target.ID {
				t.Errorf("Unexpected failing brief %s", r.BriefID)
			}
		} else {
			audited++
		}
	}
	if failed != 1 || audited != 1 {
		t.Errorf("Expected one failure and one audit, got %d/%d", failed, audited)
	}

	if _, err := a.AuditProject(ctx, "missing", false); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestHostLimiter(t *testing.T) {
	limiter := NewHostLimiter(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.Wait(ctx, "https://example.com/a"); err != nil {
		t.Errorf("First request failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://example.com/b"); err != nil {
		t.Errorf("Second request failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Rate limiting not working, elapsed time: %v", elapsed)
	}

	start = time.Now()
	if err := limiter.Wait(ctx, "https://other.com/a"); err != nil {
		t.Errorf("Different host request failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Different host was rate limited, elapsed time: %v", elapsed)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := limiter.Wait(cancelled, "https://example.com/c"); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestFetcherTiming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		time.Sleep(30 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>hi</p>"))
	}))
	defer server.Close()

	f := NewFetcher("fetch-test/1.0", 5*time.Second)
	defer f.Close()

	page, err := f.Get(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if page.StatusCode != http.StatusOK || string(page.Body) != "<p>hi</p>" {
		t.Errorf("Unexpected page: %d %q", page.StatusCode, page.Body)
	}
	if page.FinalURL != server.URL+"/new" {
		t.Errorf("Expected final URL after redirect, got %s", page.FinalURL)
	}
	if page.Timing.TTFB < 30*time.Millisecond || page.Timing.DownloadTime < page.Timing.TTFB {
		t.Errorf("Unexpected timing: %+v", page.Timing)
	}
}
