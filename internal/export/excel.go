package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/masahif/seoplanner/internal/planner"
)

// Sheet names of the Excel workbook
const (
	SheetProject     = "Project"
	SheetTopicalMaps = "TopicalMaps"
	SheetEntities    = "Entities"
	SheetAttributes  = "Attributes"
	SheetBriefs      = "Briefs"
)

// Excel renders a project export as a workbook with one sheet per record kind
func Excel(exp *planner.ProjectExport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	p := exp.Project
	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetProject, [][]any{
			{"id", "name", "source_context", "central_entity", "central_search_intent", "functional_words", "created_at", "updated_at"},
			{p.ID, p.Name, p.SourceContext, p.CentralEntity, p.CentralSearchIntent,
				strings.Join(p.FunctionalWords, ", "), formatTime(&p.CreatedAt), formatTime(&p.UpdatedAt)},
		}},
		{SheetTopicalMaps, mapRows(exp.TopicalMaps)},
		{SheetEntities, entityRows(exp.TopicalMaps)},
		{SheetAttributes, attributeRows(exp.TopicalMaps)},
		{SheetBriefs, briefRows(exp.ContentBriefs)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}

		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}
			row := row
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write %s row %d: %w", sheet.name, r+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func mapRows(maps []planner.TopicalMapExport) [][]any {
	rows := [][]any{{"id", "name", "type", "entities", "attributes", "created_at"}}
	for _, m := range maps {
		created := m.CreatedAt
		rows = append(rows, []any{m.ID, m.Name, string(m.Type), len(m.Entities), len(m.Attributes), formatTime(&created)})
	}
	return rows
}

func entityRows(maps []planner.TopicalMapExport) [][]any {
	rows := [][]any{{"id", "topical_map", "name", "type", "wikidata_id", "prominence", "popularity", "relevance", "total_score"}}
	for _, m := range maps {
		for _, e := range m.Entities {
			rows = append(rows, []any{e.ID, m.Name, e.Name, string(e.Type), e.WikidataID,
				e.ProminenceScore, e.PopularityScore, e.RelevanceScore, e.TotalScore()})
		}
	}
	return rows
}

func attributeRows(maps []planner.TopicalMapExport) [][]any {
	rows := [][]any{{"id", "topical_map", "name", "classification", "section", "depth_level", "search_volume"}}
	for _, m := range maps {
		for _, a := range m.Attributes {
			rows = append(rows, []any{a.ID, m.Name, a.Name, string(a.Classification), string(a.Section),
				a.DepthLevel, a.SearchVolume})
		}
	}
	return rows
}

func briefRows(briefs []planner.BriefExport) [][]any {
	rows := [][]any{{"id", "title_tag", "url_slug", "status", "h1", "meta_description",
		"word_count_target", "target_publish_date", "actual_publish_date", "sections", "internal_links"}}
	for _, b := range briefs {
		rows = append(rows, []any{b.ID, b.TitleTag, b.URLSlug, string(b.Status), b.H1, b.MetaDescription,
			b.WordCountTarget, formatTime(b.TargetPublishDate), formatTime(b.ActualPublishDate),
			len(b.Sections), len(b.InternalLinks)})
	}
	return rows
}
