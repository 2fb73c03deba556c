// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one request field. Field is the JSON name.
type FieldError struct {
	field   string
	tag     string
	value   any
	message string
}

func (e *FieldError) Field() string { return e.field }
func (e *FieldError) Tag() string   { return e.tag }
func (e *FieldError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one request body.
type RequestValidationError struct {
	errors []FieldError
}

func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i := range ve.errors {
		msgs[i] = ve.errors[i].message
	}
	return strings.Join(msgs, "; ")
}

// APIError is the envelope-ready form of a RequestValidationError. It is
// kept here instead of in models so the api package can depend on both.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError flattens the failures. One failure keeps its field, tag and
// offending value; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	out := &APIError{Code: string(geoerr.KindValidation), Message: "Validation failed"}
	switch len(ve.errors) {
	case 0:
		return out
	case 1:
		e := ve.errors[0]
		out.Message = e.message
		out.Details = map[string]any{"field": e.field, "tag": e.tag, "value": e.value}
		return out
	}

	fields := make([]map[string]any, len(ve.errors))
	msgs := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		fields[i] = map[string]any{"field": e.field, "tag": e.tag, "message": e.message}
		msgs[i] = e.field + ": " + e.message
	}
	out.Message = strings.Join(msgs, "; ")
	out.Details = map[string]any{"fields": fields}
	return out
}

// GetValidator returns the singleton validator instance.
// The validator is initialized once with custom validators and options.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so messages match the request body.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		mustRegister(validate, "geometry", validateGeometry)
		mustRegister(validate, "bbox", validateBBox)
	})

	return validate
}

// ValidateStruct runs the shared validator over s. It returns nil when s is
// valid.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{field: "body", tag: "invalid", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			value:   fe.Value(),
			message: message(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

// AsError converts the validation failure into a geoerr validation error
// for op, or nil when there is none.
func (ve *RequestValidationError) AsError(op string) error {
	if ve == nil {
		return nil
	}
	return geoerr.Validation(op, "%s", ve.Error())
}

var messages = map[string]string{
	"required":  "%s is required",
	"latitude":  "%s must be a valid latitude (-90 to 90)",
	"longitude": "%s must be a valid longitude (-180 to 180)",
	"url":       "%s must be a valid URL",
	"geometry":  "%s must be a non-empty WGS84 geometry with coordinates in range",
	"bbox":      "%s must be min_lon,min_lat,max_lon,max_lat with min below max",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func message(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tmpl, ok := messages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	tmpl, ok := paramMessages[tag]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
	msg := fmt.Sprintf(tmpl, field, param)
	if (tag == "min" || tag == "max") && fe.Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// validateGeometry accepts a *geojson.Geometry (or value) holding a valid
// geometry. A nil pointer passes; combine with required to reject it.
func validateGeometry(fl validator.FieldLevel) bool {
	var g *geojson.Geometry
	switch v := fl.Field().Interface().(type) {
	case *geojson.Geometry:
		g = v
	case geojson.Geometry:
		g = &v
	default:
		return false
	}
	if g == nil {
		return true
	}
	return g.Geometry() != nil && geo.Validate(g.Geometry()) == nil
}

func validateBBox(fl validator.FieldLevel) bool {
	_, err := ParseBBox(fl.Field().String())
	return err == nil
}

// ParseBBox parses "min_lon,min_lat,max_lon,max_lat".
func ParseBBox(s string) ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return out, fmt.Errorf("bbox needs 4 comma separated numbers, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("bbox value %q is not a number", p)
		}
		out[i] = v
	}
	if out[0] < -180 || out[2] > 180 || out[1] < -90 || out[3] > 90 {
		return out, errors.New("bbox is outside WGS84 range")
	}
	if out[0] > out[2] || out[1] > out[3] {
		return out, errors.New("bbox minimum exceeds maximum")
	}
	return out, nil
}
