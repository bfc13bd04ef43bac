// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package comsol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSelection indicates a selection argument could not be
// normalized into an index list or the "all" sentinel.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the closed variant for a geometric entity selection:
// either the "all entities" sentinel or an explicit ordered index list.
// The zero value is an empty (invalid) selection.
type Selection struct {
	// All selects every entity; Entities must be empty when set.
	All bool

	// Entities holds explicit entity indices in the order given.
	Entities []int
}

// IsZero reports whether the selection selects nothing.
func (s Selection) IsZero() bool {
	return !s.All && len(s.Entities) == 0
}

// String renders the selection the way handlers echo it back.
func (s Selection) String() string {
	if s.All {
		return "all"
	}
	parts := make([]string, len(s.Entities))
	for i, e := range s.Entities {
		parts[i] = strconv.Itoa(e)
	}
	return strings.Join(parts, " ")
}

// ParseSelection normalizes the heterogeneous selection shapes the
// model produces into a Selection.
//
// Description:
//
//	Accepts the literal string "all", a whitespace- or comma-separated
//	string of integers ("1 2 3", "1,2,3"), a []int, a []float64, or a
//	[]any of JSON numbers. Anything else returns ErrInvalidSelection
//	with a description of the offending shape, so the caller can
//	surface it as an argument error rather than a type error from the
//	engine bridge.
//
// Inputs:
//
//	raw - The selection value as decoded from tool arguments.
//
// Outputs:
//
//	Selection - The normalized selection.
//	error - ErrInvalidSelection (wrapped) on malformed input.
func ParseSelection(raw any) (Selection, error) {
	switch v := raw.(type) {
	case string:
		return parseSelectionString(v)
	case []int:
		if len(v) == 0 {
			return Selection{}, fmt.Errorf("%w: empty index list", ErrInvalidSelection)
		}
		return Selection{Entities: append([]int(nil), v...)}, nil
	case []float64:
		return selectionFromFloats(v)
	case []any:
		floats := make([]float64, 0, len(v))
		for _, e := range v {
			f, ok := e.(float64)
			if !ok {
				return Selection{}, fmt.Errorf("%w: list element %v (%T) is not a number", ErrInvalidSelection, e, e)
			}
			floats = append(floats, f)
		}
		return selectionFromFloats(floats)
	case nil:
		return Selection{}, fmt.Errorf("%w: selection is missing", ErrInvalidSelection)
	default:
		return Selection{}, fmt.Errorf("%w: unsupported shape %T", ErrInvalidSelection, raw)
	}
}

func parseSelectionString(s string) (Selection, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Selection{}, fmt.Errorf("%w: empty string", ErrInvalidSelection)
	}
	if strings.EqualFold(trimmed, "all") {
		return Selection{All: true}, nil
	}

	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	entities := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Selection{}, fmt.Errorf("%w: %q is not an entity index", ErrInvalidSelection, f)
		}
		entities = append(entities, n)
	}
	if len(entities) == 0 {
		return Selection{}, fmt.Errorf("%w: no entity indices in %q", ErrInvalidSelection, s)
	}
	return Selection{Entities: entities}, nil
}

func selectionFromFloats(v []float64) (Selection, error) {
	if len(v) == 0 {
		return Selection{}, fmt.Errorf("%w: empty index list", ErrInvalidSelection)
	}
	entities := make([]int, len(v))
	for i, f := range v {
		n := int(f)
		if float64(n) != f {
			return Selection{}, fmt.Errorf("%w: %v is not an integer entity index", ErrInvalidSelection, f)
		}
		entities[i] = n
	}
	return Selection{Entities: entities}, nil
}
