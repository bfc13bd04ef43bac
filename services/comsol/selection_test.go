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
	"testing"
)

func TestParseSelection_ValidShapes(t *testing.T) {
	t.Run("whitespace separated string", func(t *testing.T) {
		sel, err := ParseSelection("1 2 3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sel.All {
			t.Error("expected explicit list, got all sentinel")
		}
		assertEntities(t, sel, []int{1, 2, 3})
	})

	t.Run("comma separated string", func(t *testing.T) {
		sel, err := ParseSelection("4,5, 6")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertEntities(t, sel, []int{4, 5, 6})
	})

	t.Run("int slice", func(t *testing.T) {
		sel, err := ParseSelection([]int{1, 2, 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertEntities(t, sel, []int{1, 2, 3})
	})

	t.Run("json number slice", func(t *testing.T) {
		sel, err := ParseSelection([]any{float64(7), float64(8)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertEntities(t, sel, []int{7, 8})
	})

	t.Run("all sentinel", func(t *testing.T) {
		for _, input := range []string{"all", "All", " ALL "} {
			sel, err := ParseSelection(input)
			if err != nil {
				t.Fatalf("input %q: unexpected error: %v", input, err)
			}
			if !sel.All {
				t.Errorf("input %q: expected all sentinel", input)
			}
		}
	})

	t.Run("order is preserved", func(t *testing.T) {
		sel, err := ParseSelection("3 1 2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertEntities(t, sel, []int{3, 1, 2})
	})
}

func TestParseSelection_MalformedShapes(t *testing.T) {
	cases := []struct {
		name  string
		input any
	}{
		{"non-numeric string", "abc"},
		{"empty string", ""},
		{"blank string", "   "},
		{"mixed string", "1 two 3"},
		{"fractional index", []any{float64(1.5)}},
		{"non-number element", []any{"x"}},
		{"empty list", []int{}},
		{"nil", nil},
		{"wrong type", 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSelection(tc.input)
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("expected ErrInvalidSelection, got %v", err)
			}
		})
	}
}

func TestSelection_String(t *testing.T) {
	if got := (Selection{All: true}).String(); got != "all" {
		t.Errorf("expected all, got %q", got)
	}
	if got := (Selection{Entities: []int{1, 2, 3}}).String(); got != "1 2 3" {
		t.Errorf("expected 1 2 3, got %q", got)
	}
}

func assertEntities(t *testing.T, sel Selection, want []int) {
	t.Helper()
	if len(sel.Entities) != len(want) {
		t.Fatalf("expected %d entities, got %d", len(want), len(sel.Entities))
	}
	for i, w := range want {
		if sel.Entities[i] != w {
			t.Errorf("entity %d: expected %d, got %d", i, w, sel.Entities[i])
		}
	}
}
