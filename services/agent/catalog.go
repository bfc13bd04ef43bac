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

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// SessionFactory creates a fresh engine session for the new_model tool.
// The loop verifies the candidate through Holder.Swap before adopting it.
type SessionFactory func(ctx context.Context, name string) (comsol.Session, error)

// CatalogConfig configures the startup tool catalogue.
type CatalogConfig struct {
	// NewSession creates replacement engine sessions. When nil the
	// new_model tool reports that session creation is unavailable.
	NewSession SessionFactory
}

// NewCatalog builds the fixed tool registry for one agent process.
//
// The catalogue is assembled once at startup and never mutated during
// the loop. Registration panics on duplicate names since the catalogue
// is a static literal.
func NewCatalog(cfg CatalogConfig) *Registry {
	r := NewRegistry()

	// Model-level operations.
	r.MustRegister(setParameterTool())
	r.MustRegister(buildGeometryTool())
	r.MustRegister(buildMeshTool())
	r.MustRegister(solveStudyTool())
	r.MustRegister(evaluateExpressionTool())
	r.MustRegister(saveModelTool())
	r.MustRegister(exportImageTool())

	// Structure creation and editing.
	r.MustRegister(createComponentTool())
	r.MustRegister(createGeometryTool())
	r.MustRegister(createPhysicsTool())
	r.MustRegister(addPhysicsFeatureTool())
	r.MustRegister(setFeaturePropertyTool())
	r.MustRegister(setFeatureSelectionTool())
	r.MustRegister(createMaterialTool())
	r.MustRegister(setMaterialPropertyTool())
	r.MustRegister(assignMaterialTool())
	r.MustRegister(createMeshTool())
	r.MustRegister(createStudyTool())
	r.MustRegister(createPlotTool())
	r.MustRegister(removeNodeTool())

	// Session lifecycle.
	r.MustRegister(newModelTool(cfg.NewSession))

	return r
}

// requireSession rejects tool execution when no engine session is held.
func requireSession(sess comsol.Session) error {
	if sess == nil {
		return fmt.Errorf("%w: create one with new_model first", ErrNoSession)
	}
	return nil
}

// entityExists reports whether name is present in a category listing.
func entityExists(sess comsol.Session, category comsol.Category, name string) (bool, error) {
	names, err := sess.List(category)
	if err != nil {
		return false, fmt.Errorf("check existing %s: %w", category, err)
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
