// Package export renders planner records as JSON, CSV, Excel and Markdown.
// Every renderer is a pure function from in-memory records to bytes; only
// WriteFile touches the filesystem.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/masahif/seoplanner/internal/planner"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export file format
type Format string

// Supported formats
const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatExcel    Format = "excel"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatExcel, FormatMarkdown:
		return f, nil
	case "xlsx":
		return FormatExcel, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext returns the file extension of the format
func (f Format) Ext() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatMarkdown:
		return "md"
	}
	return string(f)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

// Project renders a whole project export in the given format.
// CSV carries the briefs only, as the most tabular part of a project.
func Project(exp *planner.ProjectExport, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(exp, true)
	case FormatCSV:
		return BriefsCSV(exp.ContentBriefs)
	case FormatExcel:
		return Excel(exp)
	case FormatMarkdown:
		return []byte(ProjectMarkdown(exp)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// JSON encodes v, indented by two spaces when pretty
func JSON(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// Filename builds a download name like "Acme_Visas_20240506_070809.json".
// Characters other than letters, digits, '-' and '_' become '_'.
func Filename(base, ext string, now time.Time) string {
	if base == "" {
		base = "export"
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, base)
	return fmt.Sprintf("%s_%s.%s", clean, now.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}

// WriteFile stores data under dir, creating it if needed, and returns the full path
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
