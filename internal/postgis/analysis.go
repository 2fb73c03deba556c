// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package postgis

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DefaultHistoryLimit is the history page size when none is given.
const DefaultHistoryLimit = 50

type analysisRow struct {
	ID           int64     `db:"id"`
	AnalysisType string    `db:"analysis_type"`
	Parameters   string    `db:"parameters"`
	Results      string    `db:"results"`
	CreatedAt    time.Time `db:"created_at"`
}

// SaveAnalysis records an analysis run. results is stored as JSONB.
func (s *Store) SaveAnalysis(ctx context.Context, analysisType string, params map[string]any, results any) (*models.AnalysisRecord, error) {
	const op = "postgis.save_analysis"
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
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	if rec.Parameters == nil {
		rec.Parameters = map[string]any{}
	}

	err = s.run(ctx, "save_analysis", "analysis_results", func(ctx context.Context) error {
		return s.db.QueryRowxContext(ctx, `INSERT INTO analysis_results
				(analysis_type, parameters, results, created_at)
			VALUES ($1, CAST($2 AS jsonb), CAST($3 AS jsonb), $4)
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
func (s *Store) AnalysisHistory(ctx context.Context, analysisType string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := "SELECT id, analysis_type, parameters::text AS parameters, results::text AS results, created_at FROM analysis_results"
	var args []any
	if analysisType != "" {
		query += " WHERE analysis_type = ?"
		args = append(args, analysisType)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)
	query = s.db.Rebind(query)

	var rows []analysisRow
	err := s.run(ctx, "analysis_history", "analysis_results", func(ctx context.Context) error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.AnalysisRecord, 0, len(rows))
	for _, r := range rows {
		rec := models.AnalysisRecord{
			ID:           r.ID,
			AnalysisType: r.AnalysisType,
			Parameters:   map[string]any{},
			Results:      models.RawJSON(r.Results),
			CreatedAt:    r.CreatedAt.UTC(),
		}
		if err := json.Unmarshal([]byte(r.Parameters), &rec.Parameters); err != nil {
			return nil, geoerr.Persistence("postgis.analysis_history",
				fmt.Errorf("analysis %d has unreadable parameters: %w", r.ID, err))
		}
		out = append(out, rec)
	}
	return out, nil
}
