// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package comsol defines the boundary to the external COMSOL modeling
// engine: the Session and Node interfaces, the guarded session Holder,
// selection normalization, and the physics interface catalogue.
//
// The package never owns engine objects. Entities are addressed by opaque
// name/tag handles scoped by a parent-child path (a feature within a
// physics interface within a component). Two Session implementations are
// provided: BridgeSession, which talks HTTP/JSON to an engine sidecar,
// and MemSession, an in-memory tree used by tests and dry runs.
//
// Thread Safety:
//
//	Session implementations are NOT safe for concurrent mutation. The
//	engine is a single mutable resource without transaction isolation;
//	callers must serialize access (see Holder and the agent loop).
package comsol

import (
	"context"
	"errors"
)

// Sentinel errors for engine operations.
var (
	// ErrNodeNotFound indicates a path-addressed node does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateEntity indicates a create targeted an existing name.
	ErrDuplicateEntity = errors.New("entity already exists")

	// ErrNoSolution indicates evaluation was requested before any solve.
	ErrNoSolution = errors.New("no solutions available")

	// ErrEngineUnstable indicates a fresh session failed its liveness check.
	ErrEngineUnstable = errors.New("engine session unstable")
)

// Category identifies one structural category of the model tree.
type Category string

// Structural categories exposed by the engine's listing operations.
const (
	CategoryComponents Category = "components"
	CategoryGeometries Category = "geometries"
	CategoryPhysics    Category = "physics"
	CategoryMeshes     Category = "meshes"
	CategoryStudies    Category = "studies"
	CategoryMaterials  Category = "materials"
	CategoryPlots      Category = "plots"
	CategoryExports    Category = "exports"
	CategoryDatasets   Category = "datasets"
	CategorySelections Category = "selections"
	CategoryFunctions  Category = "functions"
)

// Categories returns all structural categories in snapshot order.
func Categories() []Category {
	return []Category{
		CategoryComponents,
		CategoryGeometries,
		CategoryPhysics,
		CategoryMeshes,
		CategoryStudies,
		CategoryMaterials,
		CategoryPlots,
		CategoryExports,
		CategoryDatasets,
		CategorySelections,
		CategoryFunctions,
	}
}

// EvalOptions narrows an expression evaluation to a specific dataset,
// time step, or parameter sweep step. All fields are optional.
type EvalOptions struct {
	// Dataset names the solution dataset to evaluate against.
	Dataset string

	// TimeStep selects a time step index (-1 means the last step).
	TimeStep int

	// SweepStep selects a parameter sweep step index (-1 means the last).
	SweepStep int
}

// Session is the single live handle to the external modeling engine.
//
// All operations are blocking and potentially long-running (Solve may
// take arbitrarily long). The interface provides no internal timeout;
// callers needing bounded latency impose a context deadline.
type Session interface {
	// Name returns the session's display name (usually the project name).
	Name() string

	// List returns the entity names in one structural category.
	List(category Category) ([]string, error)

	// Parameters returns the global parameter table (name -> expression).
	Parameters() (map[string]string, error)

	// SetParameter sets a global parameter to a value expression.
	SetParameter(name, value string) error

	// Node looks up a node by parent-child path, e.g.
	// Node("physics", "spf") or Node("components", "comp1").
	// Returns ErrNodeNotFound if any path element is absent.
	Node(path ...string) (Node, error)

	// Root returns the model tree root.
	Root() Node

	// Build builds a geometry by name; an empty name builds all geometries.
	Build(geometry string) error

	// Mesh builds a mesh by name; an empty name builds all meshes.
	Mesh(name string) error

	// Solve runs the named study to completion.
	Solve(ctx context.Context, study string) error

	// Evaluate evaluates a scalar expression in the given unit. A nil
	// opts evaluates against the latest solution.
	Evaluate(ctx context.Context, expression, unit string, opts *EvalOptions) (string, error)

	// Save writes the project to the given file path.
	Save(path string) error

	// ExportImage renders a plot group to an image file.
	ExportImage(plotGroup, path string) error

	// Ping verifies the session is minimally responsive.
	Ping(ctx context.Context) error
}

// Node is the capability surface of one model tree node. The context
// snapshot walks nodes depth-first through Children and Properties;
// tool handlers mutate through Create, SetProperty, SetSelection and
// Remove.
type Node interface {
	// Name returns the node's display name.
	Name() string

	// Tag returns the node's engine tag (e.g. "spf", "geom1").
	Tag() string

	// Type returns the node's feature type (e.g. "LaminarFlow", "inlet").
	Type() string

	// Children returns the node's direct children in tree order.
	Children() ([]Node, error)

	// Properties returns the node's editable properties.
	Properties() (map[string]string, error)

	// SetProperty sets one editable property.
	SetProperty(name, value string) error

	// Create adds a child node of the given feature type and name.
	// Returns ErrDuplicateEntity if a child with that name exists.
	Create(featureType, name string) (Node, error)

	// SetSelection assigns the node's geometric entity selection.
	SetSelection(sel Selection) error

	// Remove deletes the node from the tree.
	Remove() error
}
