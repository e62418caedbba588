package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/masahif/seoplanner/internal/planner"
)

var briefHeader = []string{
	"id", "project_id", "title_tag", "url_slug", "meta_description", "h1", "status",
	"macro_context", "micro_contexts", "entity_id", "attribute_id", "target_publish_date",
	"actual_publish_date", "word_count_target", "sections", "internal_links",
	"created_at", "updated_at",
}

// BriefsCSV renders briefs as one row each with a header line
func BriefsCSV(briefs []planner.BriefExport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(briefHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, b := range briefs {
		created, updated := b.CreatedAt, b.UpdatedAt
		row := []string{
			b.ID,
			b.ProjectID,
			b.TitleTag,
			b.URLSlug,
			b.MetaDescription,
			b.H1,
			string(b.Status),
			b.MacroContext,
			strings.Join(b.MicroContexts, "; "),
			b.EntityID,
			b.AttributeID,
			formatTime(b.TargetPublishDate),
			formatTime(b.ActualPublishDate),
			wordCount(b.WordCountTarget),
			strconv.Itoa(len(b.Sections)),
			strconv.Itoa(len(b.InternalLinks)),
			formatTime(&created),
			formatTime(&updated),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func wordCount(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
