package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/masahif/seoplanner/internal/planner"
)

// Markdown templates
const (
	TemplateGeneric    = "generic"
	TemplateBrief      = "content-brief"
	TemplateTopicalMap = "topical-map"
)

// Templates lists the Markdown templates a project export accepts
var Templates = []string{TemplateGeneric, TemplateBrief, TemplateTopicalMap}

// ProjectMarkdownTemplate renders a project export with the named template.
// content-brief renders every brief and topical-map every map, one after
// the other. An empty name selects generic.
func ProjectMarkdownTemplate(exp *planner.ProjectExport, template string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(template)) {
	case "", TemplateGeneric:
		return ProjectMarkdown(exp), nil
	case TemplateBrief:
		titles := make(map[string]string, len(exp.ContentBriefs))
		for _, cb := range exp.ContentBriefs {
			titles[cb.ID] = cb.TitleTag
		}
		docs := make([]string, 0, len(exp.ContentBriefs))
		for i := range exp.ContentBriefs {
			docs = append(docs, BriefMarkdown(&exp.ContentBriefs[i], titles, exp.ExportedAt))
		}
		return strings.Join(docs, "\n"), nil
	case TemplateTopicalMap:
		docs := make([]string, 0, len(exp.TopicalMaps))
		for i := range exp.TopicalMaps {
			docs = append(docs, TopicalMapMarkdown(&exp.TopicalMaps[i], &exp.Project, exp.ExportedAt))
		}
		return strings.Join(docs, "\n"), nil
	}
	return "", fmt.Errorf("%w: unknown markdown template %q", ErrUnsupportedFormat, template)
}

// ProjectMarkdown renders a project export as a plain key/value document
func ProjectMarkdown(exp *planner.ProjectExport) string {
	var b strings.Builder
	p := exp.Project

	fmt.Fprintf(&b, "## Project\n")
	fmt.Fprintf(&b, "- **name**: %s\n", p.Name)
	fmt.Fprintf(&b, "- **source_context**: %s\n", p.SourceContext)
	fmt.Fprintf(&b, "- **central_entity**: %s\n", p.CentralEntity)
	fmt.Fprintf(&b, "- **central_search_intent**: %s\n", p.CentralSearchIntent)
	fmt.Fprintf(&b, "- **functional_words**: %s\n", strings.Join(p.FunctionalWords, ", "))
	b.WriteString("\n")

	if len(exp.TopicalMaps) > 0 {
		b.WriteString("## Topical Maps\n")
		for _, m := range exp.TopicalMaps {
			fmt.Fprintf(&b, "### %s\n", m.Name)
			fmt.Fprintf(&b, "- **type**: %s\n", m.Type)
			fmt.Fprintf(&b, "- **entities**: %d\n", len(m.Entities))
			fmt.Fprintf(&b, "- **attributes**: %d\n", len(m.Attributes))
		}
		b.WriteString("\n")
	}

	if len(exp.ContentBriefs) > 0 {
		b.WriteString("## Content Briefs\n")
		for _, cb := range exp.ContentBriefs {
			fmt.Fprintf(&b, "### %s\n", orDefault(cb.TitleTag, "Untitled"))
			fmt.Fprintf(&b, "- **status**: %s\n", cb.Status)
			fmt.Fprintf(&b, "- **url_slug**: %s\n", cb.URLSlug)
			fmt.Fprintf(&b, "- **sections**: %d\n", len(cb.Sections))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**exported_at**: %s\n", exp.ExportedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// BriefMarkdown renders a brief for a writer. titles resolves link targets
// to their title tags; unknown targets fall back to the brief id.
func BriefMarkdown(brief *planner.BriefExport, titles map[string]string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Content Brief: %s\n\n", orDefault(brief.TitleTag, "Untitled"))
	fmt.Fprintf(&b, "**Status**: %s\n", strings.ToUpper(string(brief.Status)))
	fmt.Fprintf(&b, "**URL Slug**: `%s`\n\n", brief.URLSlug)

	b.WriteString("## Meta Elements\n\n")
	fmt.Fprintf(&b, "### Title Tag\n%s\n\n", brief.TitleTag)
	fmt.Fprintf(&b, "### Meta Description\n%s\n\n", brief.MetaDescription)
	fmt.Fprintf(&b, "### H1\n%s\n\n", brief.H1)

	b.WriteString("## Context\n\n")
	fmt.Fprintf(&b, "**Macro Context**: %s\n\n", brief.MacroContext)
	if len(brief.MicroContexts) > 0 {
		b.WriteString("**Micro Contexts**:\n")
		for _, mc := range brief.MicroContexts {
			fmt.Fprintf(&b, "- %s\n", mc)
		}
		b.WriteString("\n")
	}
	if brief.WordCountTarget > 0 {
		fmt.Fprintf(&b, "**Word Count Target**: %d\n\n", brief.WordCountTarget)
	}

	if len(brief.Sections) > 0 {
		b.WriteString("## Content Structure\n\n")
		for _, s := range brief.Sections {
			// H2 renders as ###, one level below the document sections
			fmt.Fprintf(&b, "%s %s\n", strings.Repeat("#", s.HeadingLevel.Depth()+1), s.HeadingText)
			if s.QuestionType != "" {
				fmt.Fprintf(&b, "*Question Type: %s*\n", s.QuestionType)
			}
			if s.FormatInstruction != "" {
				fmt.Fprintf(&b, "*Format: %s*\n", s.FormatInstruction)
			}
			if len(s.RequiredTerms) > 0 {
				fmt.Fprintf(&b, "*Required Terms: %s*\n", strings.Join(s.RequiredTerms, ", "))
			}
			if len(s.ContentInstructions) > 0 {
				b.WriteString("\n**Instructions:**\n")
				for _, k := range sortedKeys(s.ContentInstructions) {
					fmt.Fprintf(&b, "- %s: %v\n", k, s.ContentInstructions[k])
				}
			}
			b.WriteString("\n")
		}
	}

	if len(brief.InternalLinks) > 0 {
		b.WriteString("## Internal Links\n\n")
		b.WriteString("| Target | Anchor Text | Priority |\n")
		b.WriteString("|--------|-------------|----------|\n")
		for _, l := range brief.InternalLinks {
			target := titles[l.TargetBriefID]
			if target == "" {
				target = l.TargetBriefID
			}
			fmt.Fprintf(&b, "| %s | %s | %d |\n", target, l.AnchorText, l.Priority)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated: %s*\n", now.Format("2006-01-02 15:04"))
	return b.String()
}

// TopicalMapMarkdown renders a map split into its core and outer sections.
// An entity is listed under a section when it links to an attribute of it.
func TopicalMapMarkdown(m *planner.TopicalMapExport, project *planner.Project, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Topical Map: %s\n\n", orDefault(m.Name, "Untitled"))
	fmt.Fprintf(&b, "**Type**: %s\n\n", strings.ToUpper(string(m.Type)))

	if project != nil {
		b.WriteString("## Project Context\n\n")
		fmt.Fprintf(&b, "- **Source Context**: %s\n", project.SourceContext)
		fmt.Fprintf(&b, "- **Central Entity**: %s\n", project.CentralEntity)
		fmt.Fprintf(&b, "- **Central Search Intent**: %s\n\n", project.CentralSearchIntent)
	}

	attrs := make(map[string]planner.Attribute, len(m.Attributes))
	for _, a := range m.Attributes {
		attrs[a.ID] = a
	}
	linked := make(map[string][]planner.Attribute)
	for _, ea := range m.EntityAttributes {
		if a, ok := attrs[ea.AttributeID]; ok {
			linked[ea.EntityID] = append(linked[ea.EntityID], a)
		}
	}

	b.WriteString("## Core Section (Monetization)\n\n")
	for _, e := range m.Entities {
		core := inSection(linked[e.ID], planner.SectionCore)
		if len(core) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n", e.Name)
		fmt.Fprintf(&b, "*Type: %s | PPR Score: %d*\n\n", e.Type, e.TotalScore())
		for _, a := range core {
			if a.Classification != "" {
				fmt.Fprintf(&b, "- **%s** (%s)\n", a.Name, a.Classification)
			} else {
				fmt.Fprintf(&b, "- **%s**\n", a.Name)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Outer Section (Trust/Authority)\n\n")
	for _, e := range m.Entities {
		outer := inSection(linked[e.ID], planner.SectionOuter)
		if len(outer) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n", e.Name)
		for _, a := range outer {
			fmt.Fprintf(&b, "- %s\n", a.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated: %s*\n", now.Format("2006-01-02 15:04"))
	return b.String()
}

func inSection(attrs []planner.Attribute, s planner.Section) []planner.Attribute {
	var out []planner.Attribute
	for _, a := range attrs {
		if a.Section == s {
			out = append(out, a)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
