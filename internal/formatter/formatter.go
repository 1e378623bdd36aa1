// package formatter exports bookmarks and analysis results to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
)

// BookmarkExport is a titled list of bookmarks, usually the contents of one space.
type BookmarkExport struct {
	Title     string
	Space     *models.Space
	Bookmarks []models.Bookmark
}

// ID names the export for default filenames.
func (e *BookmarkExport) ID() string {
	if e.Space != nil && e.Space.ID != "" {
		return e.Space.ID
	}
	if e.Title != "" {
		return slug(e.Title)
	}
	return "bookmarks"
}

func (e *BookmarkExport) heading() string {
	if e.Title != "" {
		return e.Title
	}
	if e.Space != nil && e.Space.Name != "" {
		return e.Space.Name
	}
	return "Bookmarks"
}

// ExportToCSV writes bookmarks with columns: ID, Name, URL, Description, Space, Tags, Visits, Starred
func ExportToCSV(export *BookmarkExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "URL", "Description", "Space", "Tags", "Visits", "Starred"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range export.Bookmarks {
		record := []string{
			b.ID,
			b.Name,
			b.URL,
			b.Description,
			b.Space(),
			strings.Join(b.TagNames(), ";"),
			strconv.Itoa(b.Num),
			strconv.FormatBool(b.Star),
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

// IconFunc returns the image path to show next to a bookmark, or "" for none.
type IconFunc func(b models.Bookmark) string

// ExportToMarkdown renders bookmarks as a Markdown list. icon may be nil.
func ExportToMarkdown(export *BookmarkExport, icon IconFunc) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.heading())

	if export.Space != nil {
		if export.Space.Description != "" {
			fmt.Fprintf(&buf, "**Description**: %s\n\n", export.Space.Description)
		}
		fmt.Fprintf(&buf, "**Bookmarks**: %d\n", len(export.Bookmarks))
		fmt.Fprintf(&buf, "**Visibility**: %s\n\n", shared.VisibilityString(export.Space.Shared))
	} else {
		fmt.Fprintf(&buf, "**Bookmarks**: %d\n\n", len(export.Bookmarks))
	}

	buf.WriteString("## Bookmarks\n\n")
	for i, b := range export.Bookmarks {
		prefix := ""
		if icon != nil {
			if src := icon(b); src != "" {
				prefix = fmt.Sprintf("![](%s) ", src)
			}
		}
		star := ""
		if b.Star {
			star = " ★"
		}
		fmt.Fprintf(&buf, "%d. %s[%s](%s)%s\n", i+1, prefix, markdownText(displayName(b)), b.URL, star)
		if b.Description != "" {
			fmt.Fprintf(&buf, "   %s\n", b.Description)
		}
		if tags := b.TagNames(); len(tags) > 0 {
			fmt.Fprintf(&buf, "   Tags: %s\n", strings.Join(tags, ", "))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders bookmarks as a plain numbered list.
func ExportToText(export *BookmarkExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Space: %s\n", export.heading())
	if export.Space != nil && export.Space.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Space.Description)
	}
	fmt.Fprintf(&buf, "Bookmarks: %d\n\n", len(export.Bookmarks))

	for i, b := range export.Bookmarks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, displayName(b), b.URL)
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON renders a space's metadata without its bookmarks.
func ToMetadataJSON(space models.Space) ([]byte, error) {
	return shared.MarshalJSON(space, true)
}

// ExportToJSON renders the space metadata and its bookmarks.
func ExportToJSON(export *BookmarkExport) ([]byte, error) {
	return ToJSON(struct {
		Title     string            `json:"title"`
		Space     *models.Space     `json:"space,omitempty"`
		Bookmarks []models.Bookmark `json:"bookmarks"`
	}{export.heading(), export.Space, export.Bookmarks})
}

// ToJSON renders any export payload as indented JSON.
func ToJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}

// DownloadImage fetches an image with client, which defaults to a 30 second client.
func DownloadImage(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	BookmarksFile string
	MetadataFile  string
}

// WriteCSVExport writes {base}_bookmarks.csv and, for a space, {base}_metadata.json.
//
// The base path defaults to the export ID.
func WriteCSVExport(export *BookmarkExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.ID()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	result := &CSVExportResult{BookmarksFile: baseFilepath + "_bookmarks.csv"}
	if err := os.WriteFile(result.BookmarksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	if export.Space == nil {
		return result, nil
	}

	metadataJSON, err := ToMetadataJSON(*export.Space)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	result.MetadataFile = baseFilepath + "_metadata.json"
	if err := os.WriteFile(result.MetadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return result, nil
}

// MarkdownOptions controls favicon downloads for WriteMarkdownExport.
type MarkdownOptions struct {
	// FaviconURL maps a domain to an image URL. Icons are skipped when nil.
	FaviconURL func(domain string) string
	HTTPClient *http.Client
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Icons     []string
	// Warnings lists favicons that could not be saved.
	Warnings []string
}

// WriteMarkdownExport writes {dir}/README.md and, when favicons are requested, {dir}/icons/<domain>.png.
//
// The directory defaults to the export ID. A failed favicon only drops that icon.
func WriteMarkdownExport(ctx context.Context, export *BookmarkExport, outputDir string, opts MarkdownOptions) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.ID()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var icon IconFunc
	if opts.FaviconURL != nil {
		icons := map[string]string{}
		for _, b := range export.Bookmarks {
			domain := Domain(b.URL)
			if domain == "" {
				continue
			}
			if _, seen := icons[domain]; seen {
				continue
			}
			icons[domain] = ""

			data, err := DownloadImage(ctx, opts.HTTPClient, opts.FaviconURL(domain))
			if err == nil {
				err = os.MkdirAll(filepath.Join(outputDir, "icons"), 0755)
			}
			rel := filepath.ToSlash(filepath.Join("icons", domain+".png"))
			if err == nil {
				err = os.WriteFile(filepath.Join(outputDir, rel), data, 0644)
			}
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", domain, err))
				continue
			}

			icons[domain] = rel
			result.Icons = append(result.Icons, filepath.Join(outputDir, rel))
			result.Files = append(result.Files, filepath.Join(outputDir, rel))
		}
		icon = func(b models.Bookmark) string { return icons[Domain(b.URL)] }
	}

	mdData, err := ExportToMarkdown(export, icon)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport writes a plain text export, defaulting to {id}_bookmarks.txt.
func WriteTextExport(export *BookmarkExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_bookmarks.txt", export.ID())
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// Domain returns the host of rawURL without a port, or "" when it has none.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func displayName(b models.Bookmark) string {
	if b.Name != "" {
		return b.Name
	}
	if d := Domain(b.URL); d != "" {
		return d
	}
	return b.URL
}

func markdownText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
