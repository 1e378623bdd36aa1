package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/analysis"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
)

// Streamer runs a streaming analysis. [analysis.Analyzer] implements it.
type Streamer interface {
	Analyze(ctx context.Context, target string, cb analysis.Callbacks) error
}

// DirectAnalyzer runs a one-shot analysis. [services.AnalysisService] implements it.
type DirectAnalyzer interface {
	Analyze(ctx context.Context, target string) (*models.WebsiteAnalysis, error)
}

// Store persists analysis records. [repositories.AnalysisRepository] implements it.
type Store interface {
	Create(record *models.AnalysisRecord) error
	Update(record *models.AnalysisRecord) error
}

// AnalysisRunResult contains everything observed during one analysis.
type AnalysisRunResult struct {
	Record    *models.AnalysisRecord
	BasicInfo *models.BasicInfo
	Analysis  *models.WebsiteAnalysis
	Statuses  []string
}

// AnalysisEngine runs analyses and records them. Any dependency may be nil; operations that need a missing one fail with [shared.ErrServiceUnavailable].
type AnalysisEngine struct {
	stream Streamer
	direct DirectAnalyzer
	store  Store
	logger *log.Logger
}

// NewAnalysisEngine creates an [AnalysisEngine].
func NewAnalysisEngine(stream Streamer, direct DirectAnalyzer, store Store, logger *log.Logger) *AnalysisEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AnalysisEngine{
		stream: stream,
		direct: direct,
		store:  store,
		logger: shared.WithLogger(logger, "component", "tasks"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *AnalysisEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a streaming analysis of target.
//
// The returned result is non-nil whenever a record was started, including on failure.
func (e *AnalysisEngine) Run(ctx context.Context, target string, progress chan<- ProgressUpdate) (*AnalysisRunResult, error) {
	if e.stream == nil {
		return nil, fmt.Errorf("%w: streaming analyzer not initialized", shared.ErrServiceUnavailable)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	record := models.NewAnalysisRecord(target, models.ModeStream)
	result := &AnalysisRunResult{Record: record}
	e.create(record)

	cb := analysis.Callbacks{
		OnStatus: func(msg string) {
			record.RecordEvent()
			result.Statuses = append(result.Statuses, msg)
			e.sendProgress(progress, statusUpdate(target, msg))
		},
		OnBasicInfo: func(data json.RawMessage) {
			record.RecordEvent()
			var info models.BasicInfo
			if err := json.Unmarshal(data, &info); err != nil {
				e.logger.Warn("undecodable basic info", "url", target, "error", err)
				return
			}
			record.SetBasicInfo(info.Name, info.Description)
			result.BasicInfo = &info
			e.sendProgress(progress, basicInfoUpdate(target, &info))
		},
		OnResult: func(data json.RawMessage) {
			record.RecordEvent()
			record.Complete(data)
			var suggestion models.WebsiteAnalysis
			if err := json.Unmarshal(data, &suggestion); err != nil {
				e.logger.Warn("undecodable analysis result", "url", target, "error", err)
			} else {
				result.Analysis = &suggestion
			}
			e.sendProgress(progress, resultUpdate(target, result.Analysis))
		},
		OnError: func(msg string) {
			record.RecordEvent()
			record.Fail(msg)
			e.sendProgress(progress, failureUpdate(target, msg))
		},
	}

	err := e.stream.Analyze(ctx, target, cb)
	if err != nil && record.Status() == models.StatusRunning {
		record.Fail(err.Error())
	}
	e.update(record)
	return result, err
}

// RunDirect performs a one-shot analysis of target.
func (e *AnalysisEngine) RunDirect(ctx context.Context, target string, progress chan<- ProgressUpdate) (*AnalysisRunResult, error) {
	if e.direct == nil {
		return nil, fmt.Errorf("%w: analysis service not initialized", shared.ErrServiceUnavailable)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	record := models.NewAnalysisRecord(target, models.ModeDirect)
	result := &AnalysisRunResult{Record: record}
	e.create(record)

	e.sendProgress(progress, statusUpdate(target, analysis.MsgNonStreaming))
	suggestion, err := e.direct.Analyze(ctx, target)
	if err != nil {
		record.Fail(err.Error())
		e.sendProgress(progress, failureUpdate(target, err.Error()))
		e.update(record)
		return result, err
	}

	data, err := json.Marshal(suggestion)
	if err != nil {
		data = nil
	}
	record.SetBasicInfo(suggestion.Name, suggestion.Description)
	record.Complete(data)
	result.Analysis = suggestion
	e.sendProgress(progress, resultUpdate(target, suggestion))
	e.update(record)
	return result, nil
}

func (e *AnalysisEngine) create(record *models.AnalysisRecord) {
	if e.store == nil {
		return
	}
	if err := e.store.Create(record); err != nil {
		e.logger.Error("failed to record analysis", "url", record.URL(), "error", err)
	}
}

func (e *AnalysisEngine) update(record *models.AnalysisRecord) {
	if e.store == nil || record.ID() == "" {
		return
	}
	if err := e.store.Update(record); err != nil {
		e.logger.Error("failed to update analysis record", "id", record.ID(), "error", err)
	}
}
