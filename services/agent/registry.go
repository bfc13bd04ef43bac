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
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// Tool couples a definition with its executable handler.
type Tool interface {
	// Name returns the tool's unique registry key.
	Name() string

	// Definition returns the static definition disclosed to the model.
	Definition() ToolDefinition

	// Execute runs the tool against the given engine session.
	//
	// Handlers validate and normalize arguments, perform exactly one
	// engine mutation or query, and return an outcome echoing the
	// effective identifiers. Engine failures come back as errors; the
	// loop converts them to error-prefixed tool-result text, so no
	// failure escapes the handler boundary.
	Execute(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error)
}

// HandlerFunc is the uniform handler signature.
type HandlerFunc func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error)

// funcTool binds a static definition to a HandlerFunc.
type funcTool struct {
	def ToolDefinition
	fn  HandlerFunc
}

// NewTool creates a Tool from a definition and a handler.
func NewTool(def ToolDefinition, fn HandlerFunc) Tool {
	return &funcTool{def: def, fn: fn}
}

func (t *funcTool) Name() string               { return t.def.Name }
func (t *funcTool) Definition() ToolDefinition { return t.def }
func (t *funcTool) Execute(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
	return t.fn(ctx, sess, args)
}

// Registry is the fixed catalogue mapping tool names to tools. It is
// populated at startup and read-only during the loop.
//
// Thread Safety:
//
//	Registry is safe for concurrent use. Registration happens once at
//	startup; lookups are O(1).
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool, failing with ErrDuplicateTool if the name is
// already present.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: nil tool", ErrDuplicateTool)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.byName[name] = tool
	return nil
}

// MustRegister registers a tool and panics on duplicates. Intended for
// the static startup catalogue, where a duplicate is a programming
// error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Resolve returns the tool registered under name, failing with
// ErrUnknownTool if absent.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool, nil
}

// Definitions returns all tool definitions sorted by name, for stable
// disclosure to the model.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.byName))
	for _, tool := range r.byName {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
