package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a filename extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// AnalysisRow is the flattened view of a recorded analysis.
type AnalysisRow struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Space       string    `json:"space,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Error       string    `json:"error,omitempty"`
	Events      int       `json:"events"`
	StartedAt   time.Time `json:"startedAt"`
	Duration    string    `json:"duration"`
}

// NewAnalysisRow flattens rec, reading the suggested space and tags from its result payload.
func NewAnalysisRow(rec *models.AnalysisRecord) AnalysisRow {
	row := AnalysisRow{
		ID:          rec.ID(),
		URL:         rec.URL(),
		Mode:        string(rec.Mode()),
		Status:      string(rec.Status()),
		Name:        rec.Name(),
		Description: rec.Description(),
		Error:       rec.ErrorMessage(),
		Events:      rec.Events(),
		StartedAt:   rec.StartedAt(),
		Duration:    shared.FormatDuration(rec.Duration()),
	}

	var result models.WebsiteAnalysis
	if len(rec.Result()) > 0 && json.Unmarshal(rec.Result(), &result) == nil {
		row.Space = result.SpaceName
		if row.Space == "" {
			row.Space = result.SuggestedSpace
		}
		row.Tags = result.TagNames
		if len(row.Tags) == 0 {
			row.Tags = result.SuggestedTags
		}
		if row.Name == "" {
			row.Name = result.Name
		}
		if row.Description == "" {
			row.Description = result.Description
		}
	}
	return row
}

func analysisRows(records []*models.AnalysisRecord) []AnalysisRow {
	rows := make([]AnalysisRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, NewAnalysisRow(rec))
	}
	return rows
}

// AnalysesToCSV writes columns: ID, URL, Mode, Status, Name, Space, Tags, Error, Events, Started, Duration
func AnalysesToCSV(records []*models.AnalysisRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "URL", "Mode", "Status", "Name", "Space", "Tags", "Error", "Events", "Started", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range analysisRows(records) {
		record := []string{
			row.ID,
			row.URL,
			row.Mode,
			row.Status,
			row.Name,
			row.Space,
			strings.Join(row.Tags, ";"),
			row.Error,
			strconv.Itoa(row.Events),
			row.StartedAt.Format(time.RFC3339),
			row.Duration,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// AnalysisSummary counts records by status.
type AnalysisSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Running   int `json:"running"`
}

func Summarize(records []*models.AnalysisRecord) AnalysisSummary {
	s := AnalysisSummary{Total: len(records)}
	for _, rec := range records {
		switch rec.Status() {
		case models.StatusCompleted:
			s.Completed++
		case models.StatusFailed:
			s.Failed++
		default:
			s.Running++
		}
	}
	return s
}

// AnalysesToMarkdown renders a report titled title.
func AnalysesToMarkdown(title string, records []*models.AnalysisRecord) ([]byte, error) {
	var buf bytes.Buffer
	if title == "" {
		title = "Website Analyses"
	}
	summary := Summarize(records)

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Analyses**: %d\n", summary.Total)
	fmt.Fprintf(&buf, "**Completed**: %d\n", summary.Completed)
	fmt.Fprintf(&buf, "**Failed**: %d\n\n", summary.Failed)

	buf.WriteString("## Results\n\n")
	for i, row := range analysisRows(records) {
		fmt.Fprintf(&buf, "%d. <%s> [%s, %s]\n", i+1, row.URL, row.Status, row.Duration)
		if row.Name != "" {
			fmt.Fprintf(&buf, "   Name: %s\n", row.Name)
		}
		if row.Space != "" {
			fmt.Fprintf(&buf, "   Space: %s\n", row.Space)
		}
		if len(row.Tags) > 0 {
			fmt.Fprintf(&buf, "   Tags: %s\n", strings.Join(row.Tags, ", "))
		}
		if row.Error != "" {
			fmt.Fprintf(&buf, "   Error: %s\n", row.Error)
		}
	}
	return buf.Bytes(), nil
}

func AnalysesToText(records []*models.AnalysisRecord) ([]byte, error) {
	var buf bytes.Buffer
	summary := Summarize(records)
	fmt.Fprintf(&buf, "Analyses: %d (completed %d, failed %d)\n\n", summary.Total, summary.Completed, summary.Failed)

	for i, row := range analysisRows(records) {
		detail := row.Space
		if row.Error != "" {
			detail = row.Error
		}
		fmt.Fprintf(&buf, "%d. [%s] %s", i+1, row.Status, row.URL)
		if detail != "" {
			fmt.Fprintf(&buf, " - %s", detail)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// AnalysesToJSON renders {"summary": ..., "analyses": [...]}.
func AnalysesToJSON(records []*models.AnalysisRecord) ([]byte, error) {
	return ToJSON(struct {
		Summary  AnalysisSummary `json:"summary"`
		Analyses []AnalysisRow   `json:"analyses"`
	}{Summarize(records), analysisRows(records)})
}

// RenderAnalyses encodes records in format.
func RenderAnalyses(format Format, title string, records []*models.AnalysisRecord) ([]byte, error) {
	switch format {
	case FormatCSV:
		return AnalysesToCSV(records)
	case FormatMarkdown:
		return AnalysesToMarkdown(title, records)
	case FormatText:
		return AnalysesToText(records)
	case FormatJSON:
		return AnalysesToJSON(records)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteAnalysisReport writes records to path, choosing the format from its extension.
func WriteAnalysisReport(path, title string, records []*models.AnalysisRecord) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}

	data, err := RenderAnalyses(format, title, records)
	if err != nil {
		return fmt.Errorf("failed to render analyses: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
