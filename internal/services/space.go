package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// SpaceService covers /space.
type SpaceService struct {
	client *transport.Client
}

func (s *SpaceService) List(ctx context.Context, params models.ListParams) (*models.Page[models.Space], error) {
	var page models.Page[models.Space]
	if err := s.client.Get(ctx, "/space", &page, transport.WithParams(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

// All lists every space without paging.
func (s *SpaceService) All(ctx context.Context) (*models.Page[models.Space], error) {
	var page models.Page[models.Space]
	if err := s.client.Get(ctx, "/space/all", &page, nil); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *SpaceService) Get(ctx context.Context, id string) (*models.Space, error) {
	return getByID[models.Space](ctx, s.client, "/space", id)
}

func (s *SpaceService) Create(ctx context.Context, req models.AddSpaceRequest) (*models.Space, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: space name is required", shared.ErrMissingArgument)
	}
	var space models.Space
	if err := s.client.Post(ctx, "/space", req, &space, nil); err != nil {
		return nil, err
	}
	return &space, nil
}

func (s *SpaceService) Update(ctx context.Context, req models.EditSpaceRequest) (*models.Space, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, fmt.Errorf("%w: space id is required", shared.ErrMissingArgument)
	}
	var space models.Space
	if err := s.client.Put(ctx, "/space", req, &space, nil); err != nil {
		return nil, err
	}
	return &space, nil
}

func (s *SpaceService) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, s.client, "/space", id)
}

// Stats counts the bookmarks in a space.
func (s *SpaceService) Stats(ctx context.Context, id string) (*models.Stats, error) {
	path, err := resource("/bookmark/space", id)
	if err != nil {
		return nil, err
	}
	var stats models.Stats
	if err := s.client.Get(ctx, path+"/stats", &stats, nil); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TagService covers /tag.
type TagService struct {
	client *transport.Client
}

func (s *TagService) List(ctx context.Context, params models.ListParams) (*models.Page[models.Tag], error) {
	var page models.Page[models.Tag]
	if err := s.client.Get(ctx, "/tag", &page, transport.WithParams(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *TagService) All(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.client.Get(ctx, "/tag/all", &tags, nil); err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id string) (*models.Tag, error) {
	return getByID[models.Tag](ctx, s.client, "/tag", id)
}

func (s *TagService) Create(ctx context.Context, req models.AddTagRequest) (*models.Tag, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: tag name is required", shared.ErrMissingArgument)
	}
	var tag models.Tag
	if err := s.client.Post(ctx, "/tag", req, &tag, nil); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Update(ctx context.Context, req models.EditTagRequest) (*models.Tag, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, fmt.Errorf("%w: tag id is required", shared.ErrMissingArgument)
	}
	var tag models.Tag
	if err := s.client.Put(ctx, "/tag", req, &tag, nil); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, s.client, "/tag", id)
}

// Stats counts all tags.
func (s *TagService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := s.client.Get(ctx, "/tag/stats", &stats, nil); err != nil {
		return nil, err
	}
	return &stats, nil
}

// BookmarkStats counts the bookmarks carrying a tag.
func (s *TagService) BookmarkStats(ctx context.Context, id string) (*models.Stats, error) {
	path, err := resource("/bookmark/tag", id)
	if err != nil {
		return nil, err
	}
	var stats models.Stats
	if err := s.client.Get(ctx, path+"/stats", &stats, nil); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DragSort moves one space to a new index or, with SortedSpaceIDs, replaces the order.
func (s *SpaceService) DragSort(ctx context.Context, req models.SpaceDragSort) error {
	if len(req.SortedSpaceIDs) == 0 && strings.TrimSpace(req.DraggedSpaceID) == "" {
		return fmt.Errorf("%w: a dragged space or a full order is required", shared.ErrMissingArgument)
	}
	return s.client.Put(ctx, "/space/drag-sort", req, nil, nil)
}

// Reorder sends ids with their positions as explicit sort values.
func (s *SpaceService) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one space id is required", shared.ErrMissingArgument)
	}
	updates := make([]models.SortUpdate, 0, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty space id at position %d", shared.ErrInvalidArgument, i+1)
		}
		updates = append(updates, models.SortUpdate{ID: id, Sort: i})
	}
	return s.UpdateSort(ctx, updates)
}

func (s *SpaceService) UpdateSort(ctx context.Context, updates []models.SortUpdate) error {
	return s.client.Put(ctx, "/space/sort", updates, nil, nil)
}

// DragSort moves one tag to a new index or, with SortedTagIDs, replaces the order.
func (s *TagService) DragSort(ctx context.Context, req models.TagDragSort) error {
	if len(req.SortedTagIDs) == 0 && strings.TrimSpace(req.DraggedTagID) == "" {
		return fmt.Errorf("%w: a dragged tag or a full order is required", shared.ErrMissingArgument)
	}
	return s.client.Put(ctx, "/tag/drag-sort", req, nil, nil)
}
