// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package geoerr defines the error categories shared by the loader, the
// analysis functions, the prediction service and the stores. The API layer
// maps a category to an HTTP status and an error code; everything else just
// wraps and returns.
//
//	if errors.Is(err, geoerr.ErrModelNotFound) { ... }
//	kind := geoerr.KindOf(err) // "" for uncategorized errors
package geoerr

import (
	"errors"
	"fmt"
)

// Kind is an error category. The string value is the API error code.
type Kind string

const (
	KindDataFormat    Kind = "DATA_FORMAT_ERROR"
	KindModelInput    Kind = "MODEL_INPUT_ERROR"
	KindModelNotFound Kind = "MODEL_NOT_FOUND"
	KindPersistence   Kind = "PERSISTENCE_ERROR"
	KindValidation    Kind = "VALIDATION_ERROR"
)

// Sentinels for errors.Is. They carry only a Kind.
var (
	ErrDataFormat    = &Error{Kind: KindDataFormat}
	ErrModelInput    = &Error{Kind: KindModelInput}
	ErrModelNotFound = &Error{Kind: KindModelNotFound}
	ErrPersistence   = &Error{Kind: KindPersistence}
	ErrValidation    = &Error{Kind: KindValidation}
)

// Error is a categorized error.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "ingest.csv" or "ml.train".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so wrapped instances compare equal
// to the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// DataFormat reports malformed or missing geometry or required columns.
func DataFormat(op, format string, args ...any) error {
	return newf(KindDataFormat, op, format, args...)
}

// ModelInput reports unmet training or prediction preconditions.
func ModelInput(op, format string, args ...any) error {
	return newf(KindModelInput, op, format, args...)
}

// ModelNotFound reports a prediction against a model that was never trained or loaded.
func ModelNotFound(op, model string) error {
	return newf(KindModelNotFound, op, "model %q has not been trained", model)
}

// Validation reports an unsupported format, method or parameter value.
func Validation(op, format string, args ...any) error {
	return newf(KindValidation, op, format, args...)
}

// Persistence wraps a store failure. A nil err returns nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) && ge.Kind == KindPersistence {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Msg: "store operation failed", Err: err}
}

// Wrap attaches a kind to an arbitrary error. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err, Msg: string(kind)}
}

// KindOf returns the category of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
