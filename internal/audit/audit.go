// Package audit compares published documents with the briefs they were
// written from. Pages come from the stored publication content or, on
// request, from the live URL.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/masahif/seoplanner/internal/parser"
	"github.com/masahif/seoplanner/internal/planner"
)

var (
	// ErrNoContent is returned when a publication has neither content nor a URL to fetch
	ErrNoContent = fmt.Errorf("%w: publication has no content to audit", planner.ErrValidation)
	// ErrFetch is returned when a live page cannot be retrieved
	ErrFetch = errors.New("fetch failed")
)

// Planner is the part of the planner service an audit reads from
type Planner interface {
	GetProject(ctx context.Context, id string) (*planner.Project, error)
	GetBrief(ctx context.Context, id string) (*planner.ContentBrief, error)
	ExportBrief(ctx context.Context, id string) (*planner.BriefExport, error)
	GetPublication(ctx context.Context, id string) (*planner.Publication, error)
	PublicationForBrief(ctx context.Context, briefID string) (*planner.Publication, error)
	ListPublications(ctx context.Context, projectID string) ([]planner.Publication, error)
}

// Check names
const (
	CheckTitle        = "title_tag"
	CheckMeta         = "meta_description"
	CheckH1           = "h1"
	CheckSection      = "section"
	CheckWordCount    = "word_count"
	CheckInternalLink = "internal_link"
	CheckIndexable    = "indexable" // live audits only
)

// Check is the outcome of one comparison
type Check struct {
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Passed   bool   `json:"passed"`
}

// Report is the audit result of one publication
type Report struct {
	PublicationID string        `json:"publication_id"`
	BriefID       string        `json:"brief_id"`
	URL           string        `json:"url,omitempty"`
	Source        string        `json:"source"` // "stored" or "live"
	StatusCode    int           `json:"status_code,omitempty"`
	TTFB          time.Duration `json:"ttfb,omitempty"`
	WordCount     int           `json:"word_count"`
	Checks        []Check       `json:"checks"`
	Score         float64       `json:"score"` // passed checks / all checks
	Error         string        `json:"error,omitempty"`
	AuditedAt     time.Time     `json:"audited_at"`
}

// Passed reports whether every check passed
func (r *Report) Passed() bool {
	if r.Error != "" {
		return false
	}
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Config controls live fetching
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	RequestDelay   time.Duration // between requests to one host
	Concurrency    int
	Headers        map[string]string // extra request headers, e.g. Accept-Language
}

// Auditor runs audits against a planner
type Auditor struct {
	planner     Planner
	fetcher     *Fetcher
	robots      *RobotsChecker
	limiter     *HostLimiter
	concurrency int
	now         func() time.Time
}

// NewAuditor creates an auditor
func NewAuditor(p Planner, cfg Config) *Auditor {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "seoplanner-audit/1.0"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	fetcher := NewFetcher(cfg.UserAgent, cfg.RequestTimeout)
	for name, value := range cfg.Headers {
		fetcher.SetHeader(name, value)
	}
	return &Auditor{
		planner:     p,
		fetcher:     fetcher,
		robots:      NewRobotsChecker(fetcher, cfg.UserAgent),
		limiter:     NewHostLimiter(cfg.RequestDelay),
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}
}

// Close releases the fetcher's connections
func (a *Auditor) Close() {
	a.fetcher.Close()
}

// AuditPublication checks one publication against its brief
func (a *Auditor) AuditPublication(ctx context.Context, publicationID string, live bool) (*Report, error) {
	pub, err := a.planner.GetPublication(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	brief, err := a.planner.ExportBrief(ctx, pub.BriefID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		PublicationID: pub.ID,
		BriefID:       pub.BriefID,
		URL:           pub.URL,
		Source:        "stored",
		AuditedAt:     a.now().UTC(),
	}

	content := []byte(pub.Content)
	switch {
	case live && pub.URL != "":
		page, err := a.fetch(ctx, pub.URL)
		if err != nil {
			return nil, err
		}
		content = page.Body
		report.Source = "live"
		report.StatusCode = page.StatusCode
		report.TTFB = page.Timing.TTFB
	case strings.TrimSpace(pub.Content) == "":
		return nil, ErrNoContent
	}

	p, err := parser.NewOutlineParser(pub.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planner.ErrValidation, err)
	}
	outline, err := p.Parse(content)
	if err != nil {
		return nil, err
	}
	report.WordCount = outline.WordCount

	targets, err := a.linkTargets(ctx, brief.InternalLinks)
	if err != nil {
		return nil, err
	}
	report.Checks = compare(brief, outline, targets)
	if report.Source == "live" {
		allowed, err := a.robots.Allowed(ctx, pub.URL)
		if err != nil {
			return nil, err
		}
		report.Checks = append(report.Checks, indexable(outline.MetaRobots, allowed))
	}
	report.Score = score(report.Checks)

	slog.Debug("Publication audited", "publication_id", pub.ID, "source", report.Source, "score", report.Score)
	return report, nil
}

// AuditProject audits every publication of a project with a bounded pool.
// A failing publication gets a report with Error set; only cancellation
// stops the run.
func (a *Auditor) AuditProject(ctx context.Context, projectID string, live bool) ([]Report, error) {
	if _, err := a.planner.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	pubs, err := a.planner.ListPublications(ctx, projectID)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, len(pubs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, pub := range pubs {
		i, pub := i, pub
		g.Go(func() error {
			r, err := a.AuditPublication(gctx, pub.ID, live)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("Audit failed", "publication_id", pub.ID, "error", err)
				reports[i] = Report{PublicationID: pub.ID, BriefID: pub.BriefID, URL: pub.URL,
					Error: err.Error(), AuditedAt: a.now().UTC()}
				return nil
			}
			reports[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("Project audited", "project_id", projectID, "publications", len(reports))
	return reports, nil
}

func (a *Auditor) fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := a.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}
	page, err := a.fetcher.Get(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, rawURL, page.StatusCode)
	}
	return page, nil
}

// linkTargets resolves each link's target brief to the path a page should
// link to: the published URL's path when there is one, else "/<slug>"
func (a *Auditor) linkTargets(ctx context.Context, links []planner.InternalLink) (map[string]string, error) {
	targets := make(map[string]string, len(links))
	for _, l := range links {
		pub, err := a.planner.PublicationForBrief(ctx, l.TargetBriefID)
		if err != nil {
			return nil, err
		}
		if pub != nil && pub.URL != "" {
			if u, err := url.Parse(pub.URL); err == nil && u.Path != "" {
				targets[l.TargetBriefID] = u.Path
				continue
			}
		}
		target, err := a.planner.GetBrief(ctx, l.TargetBriefID)
		if err != nil {
			return nil, err
		}
		if target.URLSlug != "" {
			targets[l.TargetBriefID] = "/" + strings.Trim(target.URLSlug, "/")
		}
	}
	return targets, nil
}

// compare produces one check per brief expectation that is set
func compare(brief *planner.BriefExport, o *parser.Outline, targets map[string]string) []Check {
	checks := []Check{}
	text := func(name, expected, actual string) {
		if strings.TrimSpace(expected) == "" {
			return
		}
		checks = append(checks, Check{Name: name, Expected: expected, Actual: actual, Passed: same(expected, actual)})
	}

	text(CheckTitle, brief.TitleTag, o.Title)
	text(CheckMeta, brief.MetaDescription, o.MetaDesc)
	text(CheckH1, brief.H1, o.H1)

	for _, s := range brief.Sections {
		c := Check{Name: CheckSection, Expected: s.HeadingText}
		for _, h := range o.Headings {
			if same(h.Text, s.HeadingText) {
				c.Actual, c.Passed = h.Text, true
				break
			}
		}
		checks = append(checks, c)
	}

	if brief.WordCountTarget > 0 {
		checks = append(checks, Check{
			Name:     CheckWordCount,
			Expected: fmt.Sprintf(">= %d", brief.WordCountTarget),
			Actual:   fmt.Sprintf("%d", o.WordCount),
			Passed:   o.WordCount >= brief.WordCountTarget,
		})
	}

	for _, l := range brief.InternalLinks {
		path, ok := targets[l.TargetBriefID]
		if !ok {
			continue
		}
		c := Check{Name: CheckInternalLink, Expected: path}
		for _, link := range o.Links {
			if !link.IsExternal && strings.TrimRight(link.Path, "/") == strings.TrimRight(path, "/") {
				c.Actual, c.Passed = link.URL, true
				break
			}
		}
		checks = append(checks, c)
	}
	return checks
}

func same(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

func score(checks []Check) float64 {
	if len(checks) == 0 {
		return 1
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(checks))
}
