// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/geoexplorer/internal/logging"
)

// TempPrefix marks scratch files in the output directory: partially
// written artifacts and spooled uploads.
const TempPrefix = "temp_"

// CleanupService periodically deletes temp_* files older than maxAge from
// dir. Only regular files directly inside dir are considered, so published
// maps and dashboards are left alone.
type CleanupService struct {
	dir      string
	prefix   string
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// NewCleanupService creates the service. Non-positive durations default to
// a 10 minute interval and a one hour age limit.
func NewCleanupService(dir string, interval, maxAge time.Duration) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &CleanupService{dir: dir, prefix: TempPrefix, interval: interval, maxAge: maxAge, now: time.Now}
}

// Serve implements suture.Service. It sweeps once at start and then on
// every tick.
func (s *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if n, err := s.Sweep(); err != nil {
			logging.Warn().Err(err).Str("dir", s.dir).Msg("Output cleanup failed")
		} else if n > 0 {
			logging.Info().Int("removed", n).Str("dir", s.dir).Msg("Removed stale temp files")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep removes stale files and returns how many it removed. A missing
// directory is not an error.
func (s *CleanupService) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), s.prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// String implements fmt.Stringer for suture's logs.
func (s *CleanupService) String() string {
	return "output-cleanup"
}
