// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"fmt"
	"sort"
)

// LabelEncoder maps string classes to 0..n-1 in sorted order.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Fit learns the sorted distinct classes of labels.
func (e *LabelEncoder) Fit(labels []string) {
	seen := make(map[string]struct{}, len(labels))
	e.Classes = e.Classes[:0]
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		e.Classes = append(e.Classes, l)
	}
	sort.Strings(e.Classes)
}

// Transform encodes labels. Unknown labels are an error.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		j := sort.SearchStrings(e.Classes, l)
		if j == len(e.Classes) || e.Classes[j] != l {
			return nil, fmt.Errorf("unknown class %q", l)
		}
		out[i] = j
	}
	return out, nil
}

// Inverse decodes a class index; out-of-range indexes return "".
func (e *LabelEncoder) Inverse(i int) string {
	if i < 0 || i >= len(e.Classes) {
		return ""
	}
	return e.Classes[i]
}
