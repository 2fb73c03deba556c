// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/geoexplorer/internal/models"
)

// ListLandmarks returns landmarks matching filter, newest first.
func (db *DB) ListLandmarks(ctx context.Context, filter models.LandmarkFilter) ([]models.Landmark, error) {
	var (
		where []string
		args  []any
	)
	if filter.LandmarkType != "" {
		where = append(where, "landmark_type = ?")
		args = append(args, filter.LandmarkType)
	}
	if filter.BBox != nil {
		b := filter.BBox
		// Bounding-box overlap narrows the scan; with the spatial extension
		// ST_Intersects then decides on the real geometry.
		where = append(where, "max_lon >= ? AND min_lon <= ? AND max_lat >= ? AND min_lat <= ?")
		args = append(args, b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat())
		if db.IsSpatialAvailable() {
			where = append(where, "ST_Intersects(ST_GeomFromGeoJSON(geometry), ST_MakeEnvelope(?, ?, ?, ?))")
			args = append(args, b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
		}
	}

	var query strings.Builder
	query.WriteString("SELECT " + landmarkColumns + " FROM landmarks")
	if len(where) > 0 {
		query.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, clampLimit(filter.Limit), offset)

	var out []models.Landmark
	err := db.run(ctx, "list", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		out = make([]models.Landmark, 0, clampLimit(filter.Limit))
		return queryLandmarks(ctx, conn, query.String(), args, func(l *models.Landmark) {
			out = append(out, *l)
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// queryLandmarks runs query and calls fn for every scanned row.
func queryLandmarks(ctx context.Context, conn *sql.DB, query string, args []any, fn func(*models.Landmark)) error {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query landmarks: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		l, err := scanLandmark(rows)
		if err != nil {
			return fmt.Errorf("failed to scan landmark: %w", err)
		}
		fn(l)
	}
	return rows.Err()
}

// GetLandmark returns the landmark with id, or nil when there is none.
func (db *DB) GetLandmark(ctx context.Context, id int64) (*models.Landmark, error) {
	var out *models.Landmark
	err := db.run(ctx, "get", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		l, err := scanLandmark(conn.QueryRowContext(ctx,
			"SELECT "+landmarkColumns+" FROM landmarks WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			out = nil
			return nil
		}
		out = l
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLandmark inserts a landmark and returns the stored row.
func (db *DB) CreateLandmark(ctx context.Context, in *models.LandmarkInput) (*models.Landmark, error) {
	const op = "database.create"
	gc, err := encodeGeometry(op, in.Geometry)
	if err != nil {
		return nil, err
	}
	props, err := encodeProperties(op, in.Properties)
	if err != nil {
		return nil, err
	}

	ts := now()
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

	err = db.run(ctx, "create", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		return conn.QueryRowContext(ctx, insertLandmarkSQL,
			insertArgs(l, gc, props)...).Scan(&l.ID)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

const insertLandmarkSQL = `INSERT INTO landmarks (
		name, description, landmark_type, geometry, properties,
		min_lon, min_lat, max_lon, max_lat, centroid_lon, centroid_lat,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`

func insertArgs(l *models.Landmark, gc geometryColumns, props string) []any {
	m := gc.metrics
	return []any{
		l.Name, l.Description, l.LandmarkType, gc.json, props,
		m.Bound.Min.Lon(), m.Bound.Min.Lat(), m.Bound.Max.Lon(), m.Bound.Max.Lat(),
		m.Centroid.Lon(), m.Centroid.Lat(),
		l.CreatedAt, l.UpdatedAt,
	}
}

// UpdateLandmark applies patch to the landmark with id and returns the new
// row, or nil when there is no such landmark. Every field is written in one
// statement; concurrent updates resolve as last writer wins.
func (db *DB) UpdateLandmark(ctx context.Context, id int64, patch *models.LandmarkPatch) (*models.Landmark, error) {
	const op = "database.update"

	var gc geometryColumns
	if patch.Geometry != nil {
		var err error
		if gc, err = encodeGeometry(op, patch.Geometry); err != nil {
			return nil, err
		}
	}
	var props any
	if patch.Properties != nil {
		encoded, err := encodeProperties(op, patch.Properties)
		if err != nil {
			return nil, err
		}
		props = encoded
	}

	args := []any{
		nullableString(patch.Name),
		nullableString(patch.Description),
		nullableString(patch.LandmarkType),
		props,
	}
	args = append(args, geometryArgs(gc)...)
	args = append(args, now(), id)

	var out *models.Landmark
	err := db.run(ctx, "update", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		l, err := scanLandmark(conn.QueryRowContext(ctx, updateLandmarkSQL, args...))
		if errors.Is(err, sql.ErrNoRows) {
			out = nil
			return nil
		}
		out = l
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const updateLandmarkSQL = `UPDATE landmarks SET
		name = COALESCE(?, name),
		description = COALESCE(?, description),
		landmark_type = COALESCE(?, landmark_type),
		properties = COALESCE(?, properties),
		geometry = COALESCE(?, geometry),
		min_lon = COALESCE(?, min_lon),
		min_lat = COALESCE(?, min_lat),
		max_lon = COALESCE(?, max_lon),
		max_lat = COALESCE(?, max_lat),
		centroid_lon = COALESCE(?, centroid_lon),
		centroid_lat = COALESCE(?, centroid_lat),
		updated_at = ?
	WHERE id = ?
	RETURNING ` + landmarkColumns

// geometryArgs returns the geometry column parameters, all NULL when the
// patch leaves the geometry alone.
func geometryArgs(gc geometryColumns) []any {
	if !gc.hasValue {
		return []any{nil, nil, nil, nil, nil, nil, nil}
	}
	m := gc.metrics
	return []any{
		gc.json,
		m.Bound.Min.Lon(), m.Bound.Min.Lat(), m.Bound.Max.Lon(), m.Bound.Max.Lat(),
		m.Centroid.Lon(), m.Centroid.Lat(),
	}
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// DeleteLandmark removes the landmark with id and reports how many rows
// were deleted. A missing id deletes nothing and is not an error.
func (db *DB) DeleteLandmark(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := db.run(ctx, "delete", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM landmarks WHERE id = ?", id)
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

// InsertLandmarks bulk inserts imported landmarks in one transaction and
// returns the number of rows written. Inputs without a usable geometry fail
// the whole batch.
func (db *DB) InsertLandmarks(ctx context.Context, inputs []models.LandmarkInput) (int, error) {
	const op = "database.insert"
	if len(inputs) == 0 {
		return 0, nil
	}

	type prepared struct {
		l     models.Landmark
		gc    geometryColumns
		props string
	}
	batch := make([]prepared, len(inputs))
	ts := now()
	for i := range inputs {
		in := &inputs[i]
		gc, err := encodeGeometry(op, in.Geometry)
		if err != nil {
			return 0, fmt.Errorf("landmark %d: %w", i, err)
		}
		props, err := encodeProperties(op, in.Properties)
		if err != nil {
			return 0, fmt.Errorf("landmark %d: %w", i, err)
		}
		batch[i] = prepared{
			l: models.Landmark{
				Name:         in.Name,
				Description:  in.Description,
				LandmarkType: in.LandmarkType,
				CreatedAt:    ts,
				UpdatedAt:    ts,
			},
			gc:    gc,
			props: props,
		}
	}

	err := db.run(ctx, "insert", "landmarks", func(ctx context.Context, conn *sql.DB) (err error) {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer rollback(tx, &err)

		stmt, err := tx.PrepareContext(ctx, insertLandmarkSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range batch {
			var id int64
			if err = stmt.QueryRowContext(ctx, insertArgs(&batch[i].l, batch[i].gc, batch[i].props)...).Scan(&id); err != nil {
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
