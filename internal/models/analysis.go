package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// AnalysisMode records which delivery path produced an analysis.
type AnalysisMode string

const (
	ModeStream AnalysisMode = "stream" // push stream or buffered fallback
	ModeDirect AnalysisMode = "direct" // single POST to /website-analysis/analyze
)

// AnalysisStatus is the lifecycle state of an [AnalysisRecord].
type AnalysisStatus string

const (
	StatusRunning   AnalysisStatus = "running"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// AnalysisRecord is the persisted outcome of analysing one URL.
type AnalysisRecord struct {
	id          string
	sequence    int
	url         string
	mode        AnalysisMode
	status      AnalysisStatus
	name        string
	description string
	result      json.RawMessage
	errorMsg    string
	events      int
	startedAt   time.Time
	finishedAt  *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewAnalysisRecord creates a running record for url.
func NewAnalysisRecord(url string, mode AnalysisMode) *AnalysisRecord {
	now := time.Now()
	return &AnalysisRecord{
		url:       url,
		mode:      mode,
		status:    StatusRunning,
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *AnalysisRecord) ID() string                  { return a.id }
func (a *AnalysisRecord) Sequence() int               { return a.sequence }
func (a *AnalysisRecord) URL() string                 { return a.url }
func (a *AnalysisRecord) Mode() AnalysisMode          { return a.mode }
func (a *AnalysisRecord) Status() AnalysisStatus      { return a.status }
func (a *AnalysisRecord) Name() string                { return a.name }
func (a *AnalysisRecord) Description() string         { return a.description }
func (a *AnalysisRecord) Result() json.RawMessage     { return a.result }
func (a *AnalysisRecord) ErrorMessage() string        { return a.errorMsg }
func (a *AnalysisRecord) Events() int                 { return a.events }
func (a *AnalysisRecord) StartedAt() time.Time        { return a.startedAt }
func (a *AnalysisRecord) FinishedAt() *time.Time      { return a.finishedAt }
func (a *AnalysisRecord) CreatedAt() time.Time        { return a.createdAt }
func (a *AnalysisRecord) UpdatedAt() time.Time        { return a.updatedAt }
func (a *AnalysisRecord) DeletedAt() *time.Time       { return a.deletedAt }
func (a *AnalysisRecord) SetID(id string)             { a.id = id }
func (a *AnalysisRecord) SetSequence(seq int)         { a.sequence = seq }
func (a *AnalysisRecord) SetStatus(s AnalysisStatus)  { a.status = s }
func (a *AnalysisRecord) SetStartedAt(t time.Time)    { a.startedAt = t }
func (a *AnalysisRecord) SetCreatedAt(t time.Time)    { a.createdAt = t }
func (a *AnalysisRecord) SetUpdatedAt(t time.Time)    { a.updatedAt = t }
func (a *AnalysisRecord) SetDeletedAt(t *time.Time)   { a.deletedAt = t }
func (a *AnalysisRecord) SetFinishedAt(t *time.Time)  { a.finishedAt = t }
func (a *AnalysisRecord) SetErrorMessage(msg string)  { a.errorMsg = msg }
func (a *AnalysisRecord) SetResult(r json.RawMessage) { a.result = r }
func (a *AnalysisRecord) SetEvents(n int)             { a.events = n }

// SetBasicInfo stores the site name and description reported before the final result.
func (a *AnalysisRecord) SetBasicInfo(name, description string) {
	a.name = name
	a.description = description
}

// RecordEvent counts one delivered analysis event.
func (a *AnalysisRecord) RecordEvent() { a.events++ }

// Complete marks the record finished with the final suggestion payload.
func (a *AnalysisRecord) Complete(result json.RawMessage) {
	now := time.Now()
	a.status = StatusCompleted
	a.result = result
	a.finishedAt = &now
}

// Fail marks the record finished with msg as the failure reason.
func (a *AnalysisRecord) Fail(msg string) {
	now := time.Now()
	a.status = StatusFailed
	a.errorMsg = msg
	a.finishedAt = &now
}

// Duration returns how long the run took, or zero while still running.
func (a *AnalysisRecord) Duration() time.Duration {
	if a.finishedAt == nil {
		return 0
	}
	return a.finishedAt.Sub(a.startedAt)
}

// Validate checks if the record's data is valid
func (a *AnalysisRecord) Validate() error {
	if strings.TrimSpace(a.url) == "" {
		return errors.New("url is required")
	}
	switch a.mode {
	case ModeStream, ModeDirect:
	default:
		return errors.New("invalid analysis mode")
	}
	switch a.status {
	case StatusRunning, StatusCompleted, StatusFailed:
	default:
		return errors.New("invalid analysis status")
	}
	return nil
}

// Credential is a bearer token persisted for a named profile.
type Credential struct {
	Profile   string
	Token     string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
