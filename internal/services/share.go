package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// ShareService covers /space-share.
type ShareService struct {
	client *transport.Client
}

// ShareURL returns the public link for a shared space.
func (s *ShareService) ShareURL(ctx context.Context, spaceID string) (string, error) {
	if strings.TrimSpace(spaceID) == "" {
		return "", fmt.Errorf("%w: space id is required", shared.ErrMissingArgument)
	}
	var link string
	if err := s.client.Get(ctx, "/space-share/share-url", &link, transport.WithParams(url.Values{"spaceId": {spaceID}})); err != nil {
		return "", err
	}
	return link, nil
}

// Update enables or disables sharing for a space.
func (s *ShareService) Update(ctx context.Context, req models.UpdateShareRequest) error {
	if strings.TrimSpace(req.SpaceID) == "" {
		return fmt.Errorf("%w: space id is required", shared.ErrMissingArgument)
	}
	return s.client.Patch(ctx, "/space-share/update", req, nil, nil)
}

// Collect adds someone else's shared space to the signed-in user's collection.
func (s *ShareService) Collect(ctx context.Context, req models.CollectSpaceRequest) error {
	if strings.TrimSpace(req.SpaceID) == "" {
		return fmt.Errorf("%w: space id is required", shared.ErrMissingArgument)
	}
	return s.client.Post(ctx, "/space-share/collect", req, nil, nil)
}

// Collectors pages through the users who collected one of the caller's spaces.
func (s *ShareService) Collectors(ctx context.Context, params models.CollectorParams) (*models.Page[models.Collector], error) {
	if strings.TrimSpace(params.SpaceID) == "" {
		return nil, fmt.Errorf("%w: space id is required", shared.ErrMissingArgument)
	}
	var page models.Page[models.Collector]
	if err := s.client.Get(ctx, "/space-share/collection-users", &page, transport.WithParams(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

// RemoveCollector revokes another user's collection of the caller's space.
func (s *ShareService) RemoveCollector(ctx context.Context, spaceID, userID string) error {
	if strings.TrimSpace(spaceID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: space id and user id are required", shared.ErrMissingArgument)
	}
	req := models.RemoveCollectorRequest{SpaceID: spaceID, UserID: userID}
	return s.client.Delete(ctx, "/space-share/remove", req, nil, nil)
}

// Uncollect drops a space the caller collected from someone else.
func (s *ShareService) Uncollect(ctx context.Context, spaceID string) error {
	if strings.TrimSpace(spaceID) == "" {
		return fmt.Errorf("%w: space id is required", shared.ErrMissingArgument)
	}
	return s.client.Delete(ctx, "/space-share/cancel-collect", nil, nil, transport.WithParams(url.Values{"spaceId": {spaceID}}))
}

// Collected pages through the spaces the caller has collected.
func (s *ShareService) Collected(ctx context.Context, params models.ListParams) (*models.Page[models.Space], error) {
	var page models.Page[models.Space]
	if err := s.client.Get(ctx, "/space-share/user-spaces", &page, transport.WithParams(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}
