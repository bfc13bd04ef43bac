// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

func stubTool(name string) Tool {
	return NewTool(ToolDefinition{Name: name, Description: "stub"},
		func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
			return &ToolOutcome{Message: "ok"}, nil
		})
}

func TestRegistry(t *testing.T) {
	t.Run("register and resolve", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(stubTool("alpha")); err != nil {
			t.Fatalf("register: %v", err)
		}
		tool, err := r.Resolve("alpha")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if tool.Name() != "alpha" {
			t.Errorf("resolved %q, want alpha", tool.Name())
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(stubTool("alpha")); err != nil {
			t.Fatalf("first register: %v", err)
		}
		err := r.Register(stubTool("alpha"))
		if !errors.Is(err, ErrDuplicateTool) {
			t.Errorf("second register error = %v, want ErrDuplicateTool", err)
		}
	})

	t.Run("unknown tool fails with sentinel", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Resolve("ghost")
		if !errors.Is(err, ErrUnknownTool) {
			t.Errorf("resolve error = %v, want ErrUnknownTool", err)
		}
	})

	t.Run("definitions are sorted by name", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"zeta", "alpha", "mid"} {
			r.MustRegister(stubTool(name))
		}
		defs := r.Definitions()
		names := make([]string, len(defs))
		for i, d := range defs {
			names[i] = d.Name
		}
		if !sort.StringsAreSorted(names) {
			t.Errorf("definitions not sorted: %v", names)
		}
	})
}

func TestCatalog(t *testing.T) {
	r := NewCatalog(CatalogConfig{})

	t.Run("registers the full tool surface", func(t *testing.T) {
		want := []string{
			"set_parameter", "build_geometry", "build_mesh", "solve_study",
			"evaluate_expression", "save_model", "export_image",
			"create_component", "create_geometry", "create_physics",
			"add_physics_feature", "set_feature_property", "set_feature_selection",
			"create_material", "set_material_property", "assign_material",
			"create_mesh", "create_study", "create_plot", "remove_node",
			"new_model",
		}
		if r.Count() != len(want) {
			t.Errorf("catalog has %d tools, want %d", r.Count(), len(want))
		}
		for _, name := range want {
			if _, err := r.Resolve(name); err != nil {
				t.Errorf("missing tool %q: %v", name, err)
			}
		}
	})

	t.Run("snapshot refresh is not a tool", func(t *testing.T) {
		if _, err := r.Resolve("refresh_context"); !errors.Is(err, ErrUnknownTool) {
			t.Error("refresh_context should not be registered; the loop refreshes automatically")
		}
	})

	t.Run("definitions render valid schemas", func(t *testing.T) {
		for _, def := range r.Definitions() {
			var schema map[string]any
			if err := json.Unmarshal(def.ParameterSchema(), &schema); err != nil {
				t.Errorf("tool %s: invalid schema: %v", def.Name, err)
			}
			if schema["type"] != "object" {
				t.Errorf("tool %s: schema type = %v", def.Name, schema["type"])
			}
		}
	})
}

func TestDecodeArguments(t *testing.T) {
	t.Run("empty payload decodes to empty set", func(t *testing.T) {
		args, err := DecodeArguments(nil)
		if err != nil || len(args) != 0 {
			t.Errorf("DecodeArguments(nil) = %v, %v", args, err)
		}
	})

	t.Run("malformed JSON fails with sentinel", func(t *testing.T) {
		_, err := DecodeArguments(json.RawMessage(`{"name": `))
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("IntOr accepts numbers and numeric strings", func(t *testing.T) {
		args := Arguments{"a": float64(3), "b": "7"}
		for name, want := range map[string]int{"a": 3, "b": 7, "missing": 9} {
			got, err := args.IntOr(name, 9)
			if err != nil || got != want {
				t.Errorf("IntOr(%q) = %d, %v; want %d", name, got, err, want)
			}
		}
		if _, err := args.IntOr("a", 0); err != nil {
			t.Errorf("IntOr on integral float: %v", err)
		}
		bad := Arguments{"x": 2.5}
		if _, err := bad.IntOr("x", 0); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("fractional value error = %v, want ErrInvalidArgument", err)
		}
	})
}
