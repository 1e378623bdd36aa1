package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// BookmarkService covers /bookmark.
type BookmarkService struct {
	client *transport.Client
}

func searchParams(search string) *transport.RequestConfig {
	if s := strings.TrimSpace(search); s != "" {
		return transport.WithParams(url.Values{"search": {s}})
	}
	return nil
}

func limitParams(key string, limit int) url.Values {
	v := url.Values{}
	if limit > 0 {
		v.Set(key, strconv.Itoa(limit))
	}
	return v
}

func (s *BookmarkService) list(ctx context.Context, path string, cfg *transport.RequestConfig) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	if err := s.client.Get(ctx, path, &bookmarks, cfg); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// BySpace lists a space's bookmarks, optionally filtered by search.
func (s *BookmarkService) BySpace(ctx context.Context, spaceID, search string) ([]models.Bookmark, error) {
	path, err := resource("/bookmark/space", spaceID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, path, searchParams(search))
}

// ByTag lists a tag's bookmarks, optionally filtered by search.
func (s *BookmarkService) ByTag(ctx context.Context, tagID, search string) ([]models.Bookmark, error) {
	path, err := resource("/bookmark/tag", tagID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, path, searchParams(search))
}

// Unassigned lists bookmarks outside any space.
func (s *BookmarkService) Unassigned(ctx context.Context) ([]models.Bookmark, error) {
	return s.list(ctx, "/bookmark/no-namespace", nil)
}

func (s *BookmarkService) Search(ctx context.Context, query string, limit int) ([]models.Bookmark, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	params := limitParams("limit", limit)
	params.Set("query", query)
	return s.list(ctx, "/bookmark/search", transport.WithParams(params))
}

func (s *BookmarkService) MostVisited(ctx context.Context, limit int) ([]models.Bookmark, error) {
	return s.list(ctx, "/bookmark/most-visited", transport.WithParams(limitParams("limit", limit)))
}

func (s *BookmarkService) Starred(ctx context.Context, limit int) ([]models.Bookmark, error) {
	return s.list(ctx, "/bookmark/starred", transport.WithParams(limitParams("limit", limit)))
}

func (s *BookmarkService) Create(ctx context.Context, req models.AddBookmarkRequest) (*models.Bookmark, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: bookmark url is required", shared.ErrMissingArgument)
	}
	var b models.Bookmark
	if err := s.client.Post(ctx, "/bookmark", req, &b, nil); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookmarkService) Update(ctx context.Context, req models.EditBookmarkRequest) (*models.Bookmark, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, fmt.Errorf("%w: bookmark id is required", shared.ErrMissingArgument)
	}
	var b models.Bookmark
	if err := s.client.Put(ctx, "/bookmark", req, &b, nil); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookmarkService) Delete(ctx context.Context, id string) error {
	cfg, err := idParam(id)
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, "/bookmark", nil, nil, cfg)
}

func (s *BookmarkService) Star(ctx context.Context, id string) error {
	cfg, err := idParam(id)
	if err != nil {
		return err
	}
	return s.client.Post(ctx, "/bookmark/star", nil, nil, cfg)
}

func (s *BookmarkService) Unstar(ctx context.Context, id string) error {
	cfg, err := idParam(id)
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, "/bookmark/star", nil, nil, cfg)
}

// ToggleStar flips the bookmark's star.
func (s *BookmarkService) ToggleStar(ctx context.Context, id string) error {
	cfg, err := idParam(id)
	if err != nil {
		return err
	}
	return s.client.Put(ctx, "/bookmark/star", nil, nil, cfg)
}

// RecordVisit bumps the bookmark's usage counter.
func (s *BookmarkService) RecordVisit(ctx context.Context, id string) error {
	path, err := resource("/bookmark", id)
	if err != nil {
		return err
	}
	return s.client.Post(ctx, path+"/increment-usage", nil, nil, nil)
}

// ImportChrome uploads a Chrome bookmarks HTML export.
func (s *BookmarkService) ImportChrome(ctx context.Context, filename string, content io.Reader, onProgress transport.ProgressFunc) (*models.ImportResult, error) {
	var result models.ImportResult
	if err := s.client.Upload(ctx, "/bookmark/import/chrome", filename, content, onProgress, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// DefaultDuplicateLevel is the match strictness sent when none is given.
const DefaultDuplicateLevel = 1

// Duplicates returns the backend's duplicate report for level. The report's
// shape is server-defined, so it is passed through undecoded.
func (s *BookmarkService) Duplicates(ctx context.Context, level int) (json.RawMessage, error) {
	if level <= 0 {
		level = DefaultDuplicateLevel
	}
	var report json.RawMessage
	cfg := transport.WithParams(url.Values{"level": {strconv.Itoa(level)}})
	if err := s.client.Get(ctx, "/bookmark/duplicates", &report, cfg); err != nil {
		return nil, err
	}
	return report, nil
}

// IgnoredGroups lists the duplicate groups hidden from [BookmarkService.Duplicates].
func (s *BookmarkService) IgnoredGroups(ctx context.Context) ([]string, error) {
	var groups []string
	if err := s.client.Get(ctx, "/bookmark/ignored-groups", &groups, nil); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *BookmarkService) AddIgnoredGroup(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: group name is required", shared.ErrMissingArgument)
	}
	return s.client.Post(ctx, "/bookmark/ignored-groups", models.IgnoredGroupRequest{GroupName: name}, nil, nil)
}

func (s *BookmarkService) RemoveIgnoredGroup(ctx context.Context, name string) error {
	return deleteByID(ctx, s.client, "/bookmark/ignored-groups", name)
}

// SetIgnoredGroups replaces the whole ignore list. An empty list clears it.
func (s *BookmarkService) SetIgnoredGroups(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	return s.client.Put(ctx, "/bookmark/ignored-groups", models.IgnoredGroupsRequest{GroupNames: names}, nil, nil)
}
