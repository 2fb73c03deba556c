// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package geoerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"data format", DataFormat("ingest.csv", "column %q missing", "lat"), ErrDataFormat, KindDataFormat},
		{"model input", ModelInput("ml.train", "need 5 rows"), ErrModelInput, KindModelInput},
		{"model not found", ModelNotFound("ml.predict", "accessibility"), ErrModelNotFound, KindModelNotFound},
		{"validation", Validation("analysis.cluster", "unknown method"), ErrValidation, KindValidation},
		{"persistence", Persistence("duckdb.get", errors.New("io error")), ErrPersistence, KindPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", wrapped)
			}
			if got := KindOf(wrapped); got != tt.kind {
				t.Errorf("KindOf = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	err := DataFormat("op", "bad")
	if errors.Is(err, ErrValidation) {
		t.Error("data format error must not match validation sentinel")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("duckdb.list", cause)
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "connection reset") || !strings.HasPrefix(err.Error(), "duckdb.list: ") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Persistence("again", err) != err {
		t.Error("already categorized persistence errors are returned as is")
	}
	if Persistence("nil", nil) != nil {
		t.Error("nil cause returns nil")
	}
}

func TestModelNotFoundMessage(t *testing.T) {
	err := ModelNotFound("ml.predict", "classification")
	if !strings.Contains(err.Error(), `"classification"`) {
		t.Errorf("message %q should name the model", err.Error())
	}
}
