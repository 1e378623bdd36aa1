package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// ReceivedService covers /received/bookmark, the inbox that integrations post links into.
type ReceivedService struct {
	client *transport.Client
}

func (s *ReceivedService) List(ctx context.Context, params models.ReceivedParams) (*models.Page[models.ReceivedBookmark], error) {
	var page models.Page[models.ReceivedBookmark]
	if err := s.client.Get(ctx, "/received/bookmark", &page, transport.WithParams(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *ReceivedService) Get(ctx context.Context, id string) (*models.ReceivedBookmark, error) {
	return getByID[models.ReceivedBookmark](ctx, s.client, "/received/bookmark", id)
}

func (s *ReceivedService) Create(ctx context.Context, req models.AddReceivedRequest) (*models.ReceivedBookmark, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: name and url are required", shared.ErrMissingArgument)
	}
	var rb models.ReceivedBookmark
	if err := s.client.Post(ctx, "/received/bookmark", req, &rb, nil); err != nil {
		return nil, err
	}
	return &rb, nil
}

func (s *ReceivedService) Update(ctx context.Context, req models.EditReceivedRequest) (*models.ReceivedBookmark, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, fmt.Errorf("%w: inbox entry id is required", shared.ErrMissingArgument)
	}
	var rb models.ReceivedBookmark
	if err := s.client.Put(ctx, "/received/bookmark", req, &rb, nil); err != nil {
		return nil, err
	}
	return &rb, nil
}

func (s *ReceivedService) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, s.client, "/received/bookmark", id)
}

// Confirm accepts an inbox entry; the backend files it as a regular bookmark.
func (s *ReceivedService) Confirm(ctx context.Context, id string) error {
	path, err := resource("/received/bookmark", id)
	if err != nil {
		return err
	}
	return s.client.Post(ctx, path+"/confirm", nil, nil, nil)
}

func (s *ReceivedService) Stats(ctx context.Context) (*models.ReceivedStats, error) {
	var stats models.ReceivedStats
	if err := s.client.Get(ctx, "/received/bookmark/stats", &stats, nil); err != nil {
		return nil, err
	}
	return &stats, nil
}
