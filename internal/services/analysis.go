package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/markx/internal/analysis"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// AnalysisService covers /website-analysis and the streaming analysis endpoint.
type AnalysisService struct {
	client   *transport.Client
	analyzer *analysis.Analyzer
}

// Analyze runs a one-shot, non-streaming analysis.
func (s *AnalysisService) Analyze(ctx context.Context, target string) (*models.WebsiteAnalysis, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}
	var result models.WebsiteAnalysis
	if err := s.client.Post(ctx, "/website-analysis/analyze", models.WebsiteAnalysisRequest{URL: target}, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResourceUsage reports the AI analysis quota.
func (s *AnalysisService) ResourceUsage(ctx context.Context) (*models.ResourceUsage, error) {
	var usage models.ResourceUsage
	if err := s.client.Get(ctx, "/website-analysis/resource-usage", &usage, nil); err != nil {
		return nil, err
	}
	return &usage, nil
}

// Stream runs a streaming analysis through the configured [analysis.Analyzer].
func (s *AnalysisService) Stream(ctx context.Context, target string, cb analysis.Callbacks) error {
	if s.analyzer == nil {
		return fmt.Errorf("%w: streaming analysis is not configured", shared.ErrMissingConfig)
	}
	return s.analyzer.Analyze(ctx, target, cb)
}

// FeedbackService covers /feedback.
type FeedbackService struct {
	client *transport.Client
}

func (s *FeedbackService) Create(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: feedback content is required", shared.ErrMissingArgument)
	}
	var resp models.FeedbackResponse
	if err := s.client.Post(ctx, "/feedback", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}
