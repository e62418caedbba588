package audit

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// RobotsChecker answers whether robots.txt lets search engines crawl a URL.
// Rules are fetched once per host and cached for the checker's lifetime.
type RobotsChecker struct {
	fetcher *Fetcher
	agent   string // lower-cased product token, e.g. "googlebot"
	rules   map[string]*robotRules
	mu      sync.Mutex
}

type robotRules struct {
	allow    []string
	disallow []string
}

// NewRobotsChecker evaluates rules for the named agent, falling back to the
// "*" group when robots.txt has no group of its own for it
func NewRobotsChecker(fetcher *Fetcher, agent string) *RobotsChecker {
	return &RobotsChecker{
		fetcher: fetcher,
		agent:   agentToken(agent),
		rules:   make(map[string]*robotRules),
	}
}

// Allowed reports whether rawURL may be crawled. A robots.txt that is missing
// or cannot be fetched allows everything.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}
	rules, err := r.rulesFor(ctx, u)
	if err != nil {
		return false, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.allows(path), nil
}

func (r *RobotsChecker) rulesFor(ctx context.Context, u *url.URL) (*robotRules, error) {
	r.mu.Lock()
	rules, ok := r.rules[u.Host]
	r.mu.Unlock()
	if ok {
		return rules, nil
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	page, err := r.fetcher.Get(ctx, robotsURL)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("robots.txt unavailable", "url", robotsURL, "error", err)
		rules = &robotRules{}
	case page.StatusCode == http.StatusOK:
		rules = parseRobots(string(page.Body), r.agent)
	default:
		rules = &robotRules{}
	}

	r.mu.Lock()
	r.rules[u.Host] = rules
	r.mu.Unlock()
	return rules, nil
}

// agentToken reduces a User-Agent header to its product name
func agentToken(ua string) string {
	ua = strings.ToLower(strings.TrimSpace(ua))
	if i := strings.IndexAny(ua, "/ "); i >= 0 {
		ua = ua[:i]
	}
	return ua
}

// parseRobots collects the rules of agent's own group, or of the "*" group
// when robots.txt does not name agent
func parseRobots(content, agent string) *robotRules {
	var own, star robotRules
	var hasOwn, inOwn, inStar, inRules bool

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			// A user-agent line after rules starts a new group
			if inRules {
				inOwn, inStar, inRules = false, false, false
			}
			ua := strings.ToLower(value)
			switch {
			case ua == "*":
				inStar = true
			case ua != "" && agent != "" && strings.Contains(agent, ua):
				inOwn, hasOwn = true, true
			}
		case "allow", "disallow":
			inRules = true
			if value == "" {
				continue
			}
			for _, g := range []struct {
				active bool
				rules  *robotRules
			}{{inOwn, &own}, {inStar, &star}} {
				if !g.active {
					continue
				}
				if key == "allow" {
					g.rules.allow = append(g.rules.allow, value)
				} else {
					g.rules.disallow = append(g.rules.disallow, value)
				}
			}
		}
	}

	if hasOwn {
		return &own
	}
	return &star
}

// allows applies the longest matching rule; allow wins a tie
func (r *robotRules) allows(path string) bool {
	best, allowed := -1, true
	for _, p := range r.disallow {
		if matchRobots(path, p) && len(p) > best {
			best, allowed = len(p), false
		}
	}
	for _, p := range r.allow {
		if matchRobots(path, p) && len(p) >= best {
			best, allowed = len(p), true
		}
	}
	return allowed
}

// matchRobots matches a robots.txt path pattern with '*' wildcards and an
// optional '$' end anchor
func matchRobots(path, pattern string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	rest := path[len(parts[0]):]
	for i, part := range parts[1:] {
		if anchored && i == len(parts)-2 {
			return strings.HasSuffix(rest, part)
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	if anchored {
		return rest == ""
	}
	return true
}

// indexable reports whether a page can appear in search results
func indexable(metaRobots string, allowed bool) Check {
	c := Check{Name: CheckIndexable, Expected: "indexable", Actual: "indexable", Passed: true}
	for _, directive := range strings.Split(strings.ToLower(metaRobots), ",") {
		if d := strings.TrimSpace(directive); d == "noindex" || d == "none" {
			c.Actual, c.Passed = "meta robots "+strings.TrimSpace(metaRobots), false
			return c
		}
	}
	if !allowed {
		c.Actual, c.Passed = "blocked by robots.txt", false
	}
	return c
}
