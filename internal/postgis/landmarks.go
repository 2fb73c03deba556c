// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package postgis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Page size bounds applied when a filter asks for none or too many rows.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

const selectColumns = `id, name, description, landmark_type,
	ST_AsGeoJSON(geometry) AS geometry, properties::text AS properties,
	created_at, updated_at`

// landmarkRow is the scan target for selectColumns.
type landmarkRow struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	LandmarkType string    `db:"landmark_type"`
	Geometry     string    `db:"geometry"`
	Properties   string    `db:"properties"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *landmarkRow) landmark() (*models.Landmark, error) {
	g, err := geojson.UnmarshalGeometry([]byte(r.Geometry))
	if err != nil {
		return nil, fmt.Errorf("landmark %d has unreadable geometry: %w", r.ID, err)
	}
	props := map[string]any{}
	if r.Properties != "" {
		if err := json.Unmarshal([]byte(r.Properties), &props); err != nil {
			return nil, fmt.Errorf("landmark %d has unreadable properties: %w", r.ID, err)
		}
	}
	return &models.Landmark{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		LandmarkType: r.LandmarkType,
		Geometry:     g,
		Properties:   props,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

func toLandmarks(rows []landmarkRow) ([]models.Landmark, error) {
	out := make([]models.Landmark, 0, len(rows))
	for i := range rows {
		l, err := rows[i].landmark()
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

// insertParams are the named parameters of insertSQL.
type insertParams struct {
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	LandmarkType string    `db:"landmark_type"`
	Geometry     string    `db:"geometry"`
	Properties   string    `db:"properties"`
	CreatedAt    time.Time `db:"created_at"`
}

const insertSQL = `INSERT INTO landmarks
		(name, description, landmark_type, geometry, properties, created_at, updated_at)
	VALUES (:name, :description, :landmark_type,
		ST_SetSRID(ST_GeomFromGeoJSON(:geometry), 4326),
		CAST(:properties AS jsonb), :created_at, :created_at)
	RETURNING id`

func newInsertParams(op string, in *models.LandmarkInput, ts time.Time) (insertParams, error) {
	geometryJSON, err := encodeGeometry(op, in.Geometry)
	if err != nil {
		return insertParams{}, err
	}
	props, err := encodeProperties(op, in.Properties)
	if err != nil {
		return insertParams{}, err
	}
	return insertParams{
		Name:         in.Name,
		Description:  in.Description,
		LandmarkType: in.LandmarkType,
		Geometry:     geometryJSON,
		Properties:   props,
		CreatedAt:    ts,
	}, nil
}

func encodeGeometry(op string, g *geojson.Geometry) (string, error) {
	if g == nil || g.Geometry() == nil {
		return "", geoerr.DataFormat(op, "geometry is required")
	}
	if err := geo.Validate(g.Geometry()); err != nil {
		return "", geoerr.Wrap(geoerr.KindDataFormat, op, err)
	}
	data, err := json.Marshal(g)
	if err != nil {
		return "", geoerr.Wrap(geoerr.KindDataFormat, op, err)
	}
	return string(data), nil
}

func encodeProperties(op string, props map[string]any) (string, error) {
	if props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", geoerr.Validation(op, "properties are not JSON encodable: %v", err)
	}
	return string(data), nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// listQuery builds the listing query with ? placeholders.
func listQuery(filter models.LandmarkFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.LandmarkType != "" {
		where = append(where, "landmark_type = ?")
		args = append(args, filter.LandmarkType)
	}
	if b := filter.BBox; b != nil {
		where = append(where, "ST_Intersects(geometry, ST_MakeEnvelope(?, ?, ?, ?, 4326))")
		args = append(args, b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
	}

	var q strings.Builder
	q.WriteString("SELECT " + selectColumns + " FROM landmarks")
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, clampLimit(filter.Limit), offset)
	return q.String(), args
}

// ListLandmarks returns landmarks matching filter, newest first.
func (s *Store) ListLandmarks(ctx context.Context, filter models.LandmarkFilter) ([]models.Landmark, error) {
	query, args := listQuery(filter)
	query = s.db.Rebind(query)

	var rows []landmarkRow
	err := s.run(ctx, "list", "landmarks", func(ctx context.Context) error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, err
	}
	out, err := toLandmarks(rows)
	return out, geoerr.Persistence("postgis.list", err)
}

// GetLandmark returns the landmark with id, or nil when there is none.
func (s *Store) GetLandmark(ctx context.Context, id int64) (*models.Landmark, error) {
	var (
		row   landmarkRow
		found bool
	)
	err := s.run(ctx, "get", "landmarks", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &row, "SELECT "+selectColumns+" FROM landmarks WHERE id = $1", id)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	l, err := row.landmark()
	return l, geoerr.Persistence("postgis.get", err)
}

// CreateLandmark inserts a landmark and returns the stored row.
func (s *Store) CreateLandmark(ctx context.Context, in *models.LandmarkInput) (*models.Landmark, error) {
	ts := time.Now().UTC().Truncate(time.Microsecond)
	params, err := newInsertParams("postgis.create", in, ts)
	if err != nil {
		return nil, err
	}
	query, args, err := sqlx.Named(insertSQL, params)
	if err != nil {
		return nil, geoerr.Persistence("postgis.create", err)
	}
	query = s.db.Rebind(query)

	l := &models.Landmark{
		Name:         in.Name,
		Description:  in.Description,
		LandmarkType: in.LandmarkType,
		Geometry:     in.Geometry,
		Properties:   in.Properties,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if l.Properties == nil {
		l.Properties = map[string]any{}
	}
	err = s.run(ctx, "create", "landmarks", func(ctx context.Context) error {
		return s.db.QueryRowxContext(ctx, query, args...).Scan(&l.ID)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

const updateSQL = `UPDATE landmarks SET
		name = COALESCE($1::text, name),
		description = COALESCE($2::text, description),
		landmark_type = COALESCE($3::text, landmark_type),
		properties = COALESCE(CAST($4::text AS jsonb), properties),
		geometry = COALESCE(ST_SetSRID(ST_GeomFromGeoJSON($5::text), 4326), geometry),
		updated_at = $6
	WHERE id = $7
	RETURNING ` + selectColumns

// UpdateLandmark applies patch to the landmark with id and returns the new
// row, or nil when there is no such landmark. Concurrent updates resolve as
// last writer wins.
func (s *Store) UpdateLandmark(ctx context.Context, id int64, patch *models.LandmarkPatch) (*models.Landmark, error) {
	const op = "postgis.update"
	var geometryArg, propsArg any
	if patch.Geometry != nil {
		g, err := encodeGeometry(op, patch.Geometry)
		if err != nil {
			return nil, err
		}
		geometryArg = g
	}
	if patch.Properties != nil {
		p, err := encodeProperties(op, patch.Properties)
		if err != nil {
			return nil, err
		}
		propsArg = p
	}
	args := []any{
		nullable(patch.Name), nullable(patch.Description), nullable(patch.LandmarkType),
		propsArg, geometryArg, time.Now().UTC(), id,
	}

	var (
		row   landmarkRow
		found bool
	)
	err := s.run(ctx, "update", "landmarks", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &row, updateSQL, args...)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	l, err := row.landmark()
	return l, geoerr.Persistence(op, err)
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// DeleteLandmark removes the landmark with id and reports how many rows
// were deleted. A missing id deletes nothing and is not an error.
func (s *Store) DeleteLandmark(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := s.run(ctx, "delete", "landmarks", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM landmarks WHERE id = $1", id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// InsertLandmarks bulk inserts imported landmarks in one transaction.
func (s *Store) InsertLandmarks(ctx context.Context, inputs []models.LandmarkInput) (int, error) {
	const op = "postgis.insert"
	if len(inputs) == 0 {
		return 0, nil
	}
	ts := time.Now().UTC().Truncate(time.Microsecond)
	batch := make([]insertParams, len(inputs))
	for i := range inputs {
		p, err := newInsertParams(op, &inputs[i], ts)
		if err != nil {
			return 0, fmt.Errorf("landmark %d: %w", i, err)
		}
		batch[i] = p
	}

	err := s.run(ctx, "insert", "landmarks", func(ctx context.Context) (err error) {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		stmt, err := tx.PrepareNamedContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range batch {
			var id int64
			if err = stmt.QueryRowxContext(ctx, batch[i]).Scan(&id); err != nil {
				return fmt.Errorf("failed to insert landmark %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

// SeedSampleLandmarks inserts the sample Italian landmarks when the table
// is empty.
func (s *Store) SeedSampleLandmarks(ctx context.Context) (int, error) {
	var count int64
	err := s.run(ctx, "count", "landmarks", func(ctx context.Context) error {
		return s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM landmarks")
	})
	if err != nil || count > 0 {
		return 0, err
	}
	return s.InsertLandmarks(ctx, ingest.SampleLandmarks())
}
