package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/markx/internal/formatter"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/services"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

// BookmarkList lists bookmarks by space, tag, or across the whole library.
func (r *Runner) BookmarkList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	spaceID := cmd.String("space")
	tagID := cmd.String("tag")
	search := cmd.String("search")

	export := &formatter.BookmarkExport{}
	var err error

	switch {
	case spaceID != "":
		r.logger.Info("listing bookmarks", "space", spaceID)
		if export.Space, err = r.services.Spaces.Get(ctx, spaceID); err != nil {
			return err
		}
		export.Bookmarks, err = r.services.Bookmarks.BySpace(ctx, spaceID, search)
	case tagID != "":
		r.logger.Info("listing bookmarks", "tag", tagID)
		export.Title = "Tag " + tagID
		export.Bookmarks, err = r.services.Bookmarks.ByTag(ctx, tagID, search)
	case cmd.Bool("unassigned"):
		export.Title = "Unassigned"
		export.Bookmarks, err = r.services.Bookmarks.Unassigned(ctx)
	default:
		export.Title = "All Bookmarks"
		export.Bookmarks, err = r.allBookmarks(ctx, search)
	}
	if err != nil {
		return err
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(export.Bookmarks) {
		export.Bookmarks = export.Bookmarks[:limit]
	}

	return r.outputBookmarks(ctx, cmd, export)
}

// allBookmarks walks every space plus the unassigned bucket.
func (r *Runner) allBookmarks(ctx context.Context, search string) ([]models.Bookmark, error) {
	page, err := r.services.Spaces.All(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.Bookmark
	for _, space := range page.Records {
		bookmarks, err := r.services.Bookmarks.BySpace(ctx, space.ID, search)
		if err != nil {
			return nil, fmt.Errorf("space %s: %w", space.Name, err)
		}
		all = append(all, bookmarks...)
	}

	loose, err := r.services.Bookmarks.Unassigned(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range loose {
		if search == "" || strings.Contains(strings.ToLower(b.Name+" "+b.URL), strings.ToLower(search)) {
			all = append(all, b)
		}
	}
	return all, nil
}

// outputBookmarks prints or writes export according to --format and --output.
func (r *Runner) outputBookmarks(ctx context.Context, cmd *cli.Command, export *formatter.BookmarkExport) error {
	output := cmd.String("output")
	name := cmd.String("format")
	if name == "" && output != "" {
		name = filepath.Ext(output)
	}
	if name == "" || name == "plain" {
		if cmd.Bool("json") {
			return r.writeJSON(export.Bookmarks, cmd.Bool("pretty"))
		}
		return r.printBookmarks(export.Bookmarks)
	}

	format, err := formatter.ParseFormat(name)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatCSV:
		if output == "" {
			return r.writeRendered(formatter.ExportToCSV(export))
		}
		result, err := formatter.WriteCSVExport(export, strings.TrimSuffix(output, ".csv"))
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", result.BookmarksFile)
		if result.MetadataFile != "" {
			r.writePlain("✓ Wrote %s\n", result.MetadataFile)
		}
	case formatter.FormatMarkdown:
		if output == "" && !cmd.Bool("icons") {
			return r.writeRendered(formatter.ExportToMarkdown(export, nil))
		}
		opts := formatter.MarkdownOptions{HTTPClient: r.services.Client().HTTPClient()}
		if cmd.Bool("icons") {
			opts.FaviconURL = func(domain string) string {
				return r.services.FaviconURL(domain, services.DefaultFaviconSize)
			}
		}
		result, err := formatter.WriteMarkdownExport(ctx, export, strings.TrimSuffix(output, ".md"), opts)
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn("favicon skipped", "detail", w)
		}
		r.writePlain("✓ Wrote %d files to %s\n", len(result.Files), result.Directory)
	case formatter.FormatText:
		if output == "" {
			return r.writeRendered(formatter.ExportToText(export))
		}
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", path)
	case formatter.FormatJSON:
		data, err := formatter.ExportToJSON(export)
		if err != nil {
			return err
		}
		if output == "" {
			return r.writeRendered(data, nil)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		r.writePlain("✓ Wrote %s\n", output)
	}
	return nil
}

func (r *Runner) writeRendered(data []byte, err error) error {
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) printBookmarks(bookmarks []models.Bookmark) error {
	r.writePlain("Found %d bookmarks:\n\n", len(bookmarks))
	for i, b := range bookmarks {
		star := ""
		if b.Star {
			star = " ★"
		}
		r.writePlain("%d. %s%s\n", i+1, b.Name, star)
		r.writePlain("   URL: %s\n", b.URL)
		if b.Description != "" {
			r.writePlain("   Description: %s\n", shared.Truncate(b.Description, 80))
		}
		if tags := b.TagNames(); len(tags) > 0 {
			r.writePlain("   Tags: %s\n", strings.Join(tags, ", "))
		}
		r.writePlain("   ID: %s  Visits: %d\n", b.ID, b.Num)
		r.writePlain("\n")
	}
	return nil
}

// BookmarkSearch runs a full-text search.
func (r *Runner) BookmarkSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	bookmarks, err := r.services.Bookmarks.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.outputBookmarks(ctx, cmd, &formatter.BookmarkExport{Title: "Search: " + query, Bookmarks: bookmarks})
}

// BookmarkStarred lists starred bookmarks, or the most visited with --most-visited.
func (r *Runner) BookmarkStarred(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	var (
		bookmarks []models.Bookmark
		err       error
		title     = "Starred"
	)
	if cmd.Bool("most-visited") {
		title = "Most Visited"
		bookmarks, err = r.services.Bookmarks.MostVisited(ctx, cmd.Int("limit"))
	} else {
		bookmarks, err = r.services.Bookmarks.Starred(ctx, cmd.Int("limit"))
	}
	if err != nil {
		return err
	}
	return r.outputBookmarks(ctx, cmd, &formatter.BookmarkExport{Title: title, Bookmarks: bookmarks})
}

// BookmarkAdd saves a bookmark. With --analyze, missing fields are filled from an AI analysis.
func (r *Runner) BookmarkAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	req := models.AddBookmarkRequest{
		URL:         strings.TrimSpace(cmd.StringArg("url")),
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		NamespaceID: cmd.String("space"),
		TagIDs:      cmd.StringSlice("tag"),
	}
	if req.URL == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	if cmd.Bool("analyze") {
		suggestion, err := r.suggest(ctx, req.URL)
		if err != nil {
			r.logger.Warn("analysis failed, saving without suggestions", "url", req.URL, "error", err)
		} else {
			applySuggestion(&req, suggestion)
		}
	}
	if req.Name == "" {
		req.Name = formatter.Domain(req.URL)
	}

	bookmark, err := r.services.Bookmarks.Create(ctx, req)
	if err != nil {
		return err
	}

	r.logger.Info("bookmark created", "id", bookmark.ID, "url", bookmark.URL)
	if cmd.Bool("json") {
		return r.writeJSON(bookmark, true)
	}
	return r.writePlain("✓ Saved %s (%s)\n", bookmark.Name, bookmark.ID)
}

// suggest streams an analysis of target, printing status lines as they arrive.
func (r *Runner) suggest(ctx context.Context, target string) (*models.WebsiteAnalysis, error) {
	if r.engine == nil {
		return nil, fmt.Errorf("%w: analysis engine not initialized", shared.ErrServiceUnavailable)
	}

	result, err := r.runWithProgress(ctx, target, false, true)
	if err != nil {
		return nil, err
	}
	if result.Analysis == nil {
		return nil, fmt.Errorf("%w: analysis returned no suggestion", shared.ErrAnalysisFailed)
	}
	return result.Analysis, nil
}

func applySuggestion(req *models.AddBookmarkRequest, s *models.WebsiteAnalysis) {
	if req.Name == "" {
		req.Name = s.Name
	}
	if req.Description == "" {
		req.Description = s.Description
	}
	if req.NamespaceID == "" {
		req.NamespaceID = s.SpaceID
	}
	if len(req.TagIDs) == 0 {
		req.TagIDs = s.TagIDs
	}
}

// BookmarkEdit updates the fields given as flags.
func (r *Runner) BookmarkEdit(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	req := models.EditBookmarkRequest{
		ID:          cmd.StringArg("id"),
		Name:        cmd.String("name"),
		URL:         cmd.String("url"),
		Description: cmd.String("description"),
		NamespaceID: cmd.String("space"),
		Tags:        cmd.StringSlice("tag"),
	}

	bookmark, err := r.services.Bookmarks.Update(ctx, req)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated %s\n", bookmark.Name)
}

// BookmarkDelete removes a bookmark.
func (r *Runner) BookmarkDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if err := r.services.Bookmarks.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("bookmark deleted", "id", id)
	return r.writePlain("✓ Deleted %s\n", id)
}

// BookmarkStar stars, unstars or toggles a bookmark.
func (r *Runner) BookmarkStar(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	var err error
	verb := "Starred"
	switch {
	case cmd.Bool("toggle"):
		verb = "Toggled star on"
		err = r.services.Bookmarks.ToggleStar(ctx, id)
	case cmd.Bool("unstar"):
		verb = "Unstarred"
		err = r.services.Bookmarks.Unstar(ctx, id)
	default:
		err = r.services.Bookmarks.Star(ctx, id)
	}
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s %s\n", verb, id)
}

// BookmarkOpen opens a bookmark in the browser and records the visit.
func (r *Runner) BookmarkOpen(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	target := cmd.StringArg("url")
	if id == "" || target == "" {
		return fmt.Errorf("%w: bookmark id and url", shared.ErrMissingArgument)
	}
	if err := shared.OpenBrowser(target); err != nil {
		return err
	}
	if err := r.services.Bookmarks.RecordVisit(ctx, id); err != nil {
		r.logger.Warn("failed to record visit", "id", id, "error", err)
	}
	return nil
}

// BookmarkImport uploads a Chrome bookmarks export.
func (r *Runner) BookmarkImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", shared.ErrInvalidArgument, path)
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r.logger.Info("importing chrome bookmarks", "path", path)
	result, err := r.services.Bookmarks.ImportChrome(ctx, filepath.Base(path), f, r.uploadProgress())
	if err != nil {
		return err
	}
	r.writePlain("\n")
	return r.printImport(result)
}

// uploadProgress prints each new percentage once.
func (r *Runner) uploadProgress() func(int) {
	last := -1
	return func(percent int) {
		if percent == last {
			return
		}
		last = percent
		r.writePlain("\rUploading... %3d%%", percent)
	}
}

func (r *Runner) printImport(result *models.ImportResult) error {
	r.writePlainHeader("Import Complete")
	r.writePlain("Imported: %d/%d\n", result.SuccessCount, result.TotalCount)
	if result.FailCount > 0 {
		r.writePlain("Failed: %d\n", result.FailCount)
	}
	if result.Message != "" {
		r.writePlain("%s\n", result.Message)
	}
	return nil
}
