package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
)

const analysisColumns = `
	id, sequence, url, mode, status, name, description, result, error,
	events, started_at, finished_at, created_at, updated_at, deleted_at
`

// AnalysisRepository implements [models.Repository] for [models.AnalysisRecord] persistence.
type AnalysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new [AnalysisRepository] with the given database connection
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts a new record with generated ID and sequence
func (r *AnalysisRepository) Create(record *models.AnalysisRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "analyses")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)
	record.SetSequence(sequence)

	query := `
		INSERT INTO analyses (
			id, sequence, url, mode, status, name, description, result, error,
			events, started_at, finished_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.URL(),
		string(record.Mode()),
		string(record.Status()),
		nullable(record.Name()),
		nullable(record.Description()),
		nullable(string(record.Result())),
		nullable(record.ErrorMessage()),
		record.Events(),
		record.StartedAt(),
		record.FinishedAt(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// Get retrieves a record by ID, excluding soft-deleted records
func (r *AnalysisRepository) Get(id string) (*models.AnalysisRecord, error) {
	query := "SELECT" + analysisColumns + "FROM analyses WHERE id = ? AND deleted_at IS NULL"

	record, err := scanAnalysis(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %s", shared.ErrNotFound, id)
	}
	return record, err
}

// Update writes the mutable outcome fields of record
func (r *AnalysisRepository) Update(record *models.AnalysisRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE analyses
		SET status = ?, name = ?, description = ?, result = ?, error = ?,
			events = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(record.Status()),
		nullable(record.Name()),
		nullable(record.Description()),
		nullable(string(record.Result())),
		nullable(record.ErrorMessage()),
		record.Events(),
		record.FinishedAt(),
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}

	return expectAffected(result, record.ID())
}

// Delete soft-deletes a record by ID
func (r *AnalysisRepository) Delete(id string) error {
	result, err := r.db.Exec(
		"UPDATE analyses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves records matching criteria, newest first.
//
// Supported criteria: "url" (string), "status" (string or [models.AnalysisStatus]), "limit" (int).
func (r *AnalysisRepository) List(criteria map[string]any) ([]*models.AnalysisRecord, error) {
	query := "SELECT" + analysisColumns + "FROM analyses WHERE deleted_at IS NULL"
	args := []any{}

	if url, ok := criteria["url"].(string); ok && url != "" {
		query += " AND url = ?"
		args = append(args, url)
	}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.AnalysisStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		record, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanAnalysis scans one analyses row into a [models.AnalysisRecord]
func scanAnalysis(s scanner) (*models.AnalysisRecord, error) {
	var (
		id          string
		sequence    int
		url         string
		mode        string
		status      string
		name        sql.NullString
		description sql.NullString
		result      sql.NullString
		errorMsg    sql.NullString
		events      int
		startedAt   time.Time
		finishedAt  sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := s.Scan(
		&id, &sequence, &url, &mode, &status, &name, &description, &result, &errorMsg,
		&events, &startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	record := models.NewAnalysisRecord(url, models.AnalysisMode(mode))
	record.SetID(id)
	record.SetSequence(sequence)
	record.SetStatus(models.AnalysisStatus(status))
	record.SetBasicInfo(name.String, description.String)
	if result.Valid {
		record.SetResult(json.RawMessage(result.String))
	}
	record.SetErrorMessage(errorMsg.String)
	record.SetEvents(events)
	record.SetStartedAt(startedAt)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		record.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: analysis %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}
