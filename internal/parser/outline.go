// Package parser extracts the on-page outline of a published document:
// meta elements, the heading tree, links and a word count.
package parser

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Outline is what an audit compares against a brief
type Outline struct {
	Title        string
	MetaDesc     string
	MetaRobots   string
	CanonicalURL string
	H1           string // first h1 only
	Headings     []Heading
	Links        []Link
	WordCount    int
	ContentHash  string
}

// Heading is one h2-h6 element in document order
type Heading struct {
	Level int
	Text  string
}

// Link is an anchor with an http(s) target
type Link struct {
	URL          string
	Path         string
	AnchorText   string
	RelAttribute string
	IsExternal   bool
}

// OutlineParser parses documents published under a base URL
type OutlineParser struct {
	baseURL *url.URL
}

// NewOutlineParser creates a parser resolving relative links against baseURL.
// An empty baseURL leaves every link relative to an unnamed host.
func NewOutlineParser(baseURL string) (*OutlineParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &OutlineParser{baseURL: u}, nil
}

// Parse extracts the outline of an HTML document. The content hash is the
// SHA-256 of the raw bytes.
func (p *OutlineParser) Parse(content []byte) (*Outline, error) {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	out := &Outline{Headings: []Heading{}, Links: []Link{}}
	p.walk(doc, out)

	hash := sha256.Sum256(content)
	out.ContentHash = fmt.Sprintf("%x", hash)
	return out, nil
}

func (p *OutlineParser) walk(n *html.Node, out *Outline) {
	switch n.Type {
	case html.TextNode:
		if !insideHead(n) {
			out.WordCount += len(strings.Fields(n.Data))
		}
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Title:
			if out.Title == "" {
				out.Title = text(n)
			}
			return
		case atom.Meta:
			p.meta(n, out)
		case atom.Link:
			p.canonical(n, out)
		case atom.H1:
			if out.H1 == "" {
				out.H1 = text(n)
			}
		case atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			out.Headings = append(out.Headings, Heading{Level: int(n.Data[1] - '0'), Text: text(n)})
		case atom.A:
			p.anchor(n, out)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, out)
	}
}

func (p *OutlineParser) meta(n *html.Node, out *Outline) {
	switch strings.ToLower(attr(n, "name")) {
	case "description":
		out.MetaDesc = attr(n, "content")
	case "robots":
		out.MetaRobots = attr(n, "content")
	}
}

func (p *OutlineParser) canonical(n *html.Node, out *Outline) {
	if strings.ToLower(attr(n, "rel")) != "canonical" {
		return
	}
	if u, ok := p.resolve(attr(n, "href")); ok {
		out.CanonicalURL = u.String()
	}
}

func (p *OutlineParser) anchor(n *html.Node, out *Outline) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}
	u, ok := p.resolve(href)
	if !ok || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return
	}

	out.Links = append(out.Links, Link{
		URL:          u.String(),
		Path:         u.Path,
		AnchorText:   text(n),
		RelAttribute: attr(n, "rel"),
		IsExternal:   u.Host != "" && u.Host != p.baseURL.Host,
	})
}

func (p *OutlineParser) resolve(href string) (*url.URL, bool) {
	if href == "" {
		return nil, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return p.baseURL.ResolveReference(u), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// text joins the whitespace-separated words under n
func text(n *html.Node) string {
	var words []string
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			words = append(words, strings.Fields(c.Data)...)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(words, " ")
}

func insideHead(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Head {
			return true
		}
	}
	return false
}
