// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DefaultHistoryLimit is the history page size when none is given.
const DefaultHistoryLimit = 50

// SaveAnalysis records an analysis run. results is stored as JSON.
func (db *DB) SaveAnalysis(ctx context.Context, analysisType string, params map[string]any, results any) (*models.AnalysisRecord, error) {
	const op = "database.save_analysis"
	paramsJSON, err := encodeProperties(op, params)
	if err != nil {
		return nil, err
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, geoerr.Validation(op, "results are not JSON encodable: %v", err)
	}

	rec := &models.AnalysisRecord{
		AnalysisType: analysisType,
		Parameters:   params,
		Results:      models.RawJSON(resultsJSON),
		CreatedAt:    now(),
	}
	if rec.Parameters == nil {
		rec.Parameters = map[string]any{}
	}

	err = db.run(ctx, "save_analysis", "analysis_results", func(ctx context.Context, conn *sql.DB) error {
		return conn.QueryRowContext(ctx, `INSERT INTO analysis_results
				(analysis_type, parameters, results, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			rec.AnalysisType, paramsJSON, string(resultsJSON), rec.CreatedAt).Scan(&rec.ID)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AnalysisHistory returns saved analyses, newest first. An empty
// analysisType returns every type.
func (db *DB) AnalysisHistory(ctx context.Context, analysisType string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := "SELECT id, analysis_type, parameters, results, created_at FROM analysis_results"
	var args []any
	if analysisType != "" {
		query += " WHERE analysis_type = ?"
		args = append(args, analysisType)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var out []models.AnalysisRecord
	err := db.run(ctx, "analysis_history", "analysis_results", func(ctx context.Context, conn *sql.DB) error {
		out = make([]models.AnalysisRecord, 0, limit)
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query analysis history: %w", err)
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			var (
				rec         models.AnalysisRecord
				paramsJSON  string
				resultsJSON string
			)
			if err := rows.Scan(&rec.ID, &rec.AnalysisType, &paramsJSON, &resultsJSON, &rec.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan analysis: %w", err)
			}
			rec.Parameters = map[string]any{}
			if err := json.Unmarshal([]byte(paramsJSON), &rec.Parameters); err != nil {
				return fmt.Errorf("analysis %d has unreadable parameters: %w", rec.ID, err)
			}
			rec.Results = models.RawJSON(resultsJSON)
			rec.CreatedAt = rec.CreatedAt.UTC()
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
