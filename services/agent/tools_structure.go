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
	"log/slog"
	"strings"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// Structure tool handlers: creation and editing of components,
// geometries, physics interfaces and their features, materials, meshes,
// studies and plots. Create handlers check for an existing name first
// and report "already exists" instead of silently overwriting.

// createInCategory is the shared create-with-existence-check flow.
func createInCategory(sess comsol.Session, category comsol.Category, featureType, name string) (comsol.Node, error) {
	exists, err := entityExists(sess, category, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s %q already exists", singular(category), name)
	}
	group, err := sess.Node(string(category))
	if err != nil {
		return nil, fmt.Errorf("open %s group: %w", category, err)
	}
	node, err := group.Create(featureType, name)
	if err != nil {
		return nil, fmt.Errorf("create %s %q: %w", featureType, name, err)
	}
	return node, nil
}

// singular renders a category name for error text.
func singular(category comsol.Category) string {
	s := string(category)
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case s == "physics":
		return "physics interface"
	case strings.HasSuffix(s, "shes"):
		return strings.TrimSuffix(s, "es")
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	default:
		return s
	}
}

func createComponentTool() Tool {
	def := ToolDefinition{
		Name:        "create_component",
		Description: "Creates a new model component, the container for geometry, physics and mesh.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The component name (e.g. 'comp1').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		slog.Info("Creating component", "name", name)
		if _, err := createInCategory(sess, comsol.CategoryComponents, "Component", name); err != nil {
			return nil, err
		}
		return &ToolOutcome{Message: fmt.Sprintf("Component %q created.", name)}, nil
	})
}

func createGeometryTool() Tool {
	def := ToolDefinition{
		Name:        "create_geometry",
		Description: "Creates a geometry sequence in a component.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The geometry name (e.g. 'geom1').", Required: true},
			{Name: "component", Type: ParamString, Description: "Owning component. Defaults to the first component.", Required: false},
			{Name: "dimension", Type: ParamInteger, Description: "Spatial dimension (2 or 3). Defaults to 3.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		dim, err := args.IntOr("dimension", 3)
		if err != nil {
			return nil, err
		}
		if dim != 2 && dim != 3 {
			return nil, fmt.Errorf("%w: dimension must be 2 or 3, got %d", ErrInvalidArgument, dim)
		}

		component, defaulted, err := resolveComponent(sess, args.StringOr("component", ""))
		if err != nil {
			return nil, err
		}

		node, err := createInCategory(sess, comsol.CategoryGeometries, "Geometry", name)
		if err != nil {
			return nil, err
		}
		if err := node.SetProperty("component", component); err != nil {
			return nil, fmt.Errorf("link geometry to component: %w", err)
		}
		if err := node.SetProperty("dimension", fmt.Sprintf("%d", dim)); err != nil {
			return nil, fmt.Errorf("set geometry dimension: %w", err)
		}

		msg := fmt.Sprintf("Geometry %q (%dD) created in component %q.", name, dim, component)
		if defaulted {
			msg += " (component defaulted)"
		}
		return &ToolOutcome{Message: msg}, nil
	})
}

func createPhysicsTool() Tool {
	def := ToolDefinition{
		Name: "create_physics",
		Description: "Attaches a physics interface (e.g. 'Laminar Flow', 'Heat Transfer in Solids') " +
			"to a geometry. Omitting the geometry uses the first geometry in the model.",
		Parameters: []ToolParam{
			{Name: "physics", Type: ParamString, Description: "Physics interface display name or ID.", Required: true},
			{Name: "geometry", Type: ParamString, Description: "Geometry to attach to. Defaults to the first geometry.", Required: false},
			{Name: "name", Type: ParamString, Description: "Node name for the interface. Defaults to the interface's conventional tag.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		physicsArg, err := args.String("physics")
		if err != nil {
			return nil, err
		}
		info, known := comsol.LookupPhysics(physicsArg)
		name := args.StringOr("name", info.DefaultTag)
		if name == "" {
			name = info.InterfaceID
		}

		// The geometry fallback is deliberate but ambiguous when several
		// geometries exist, so the defaulting is always flagged in the
		// result text.
		geometry := args.StringOr("geometry", "")
		var fallbackNote string
		if geometry == "" {
			geometries, err := sess.List(comsol.CategoryGeometries)
			if err != nil {
				return nil, fmt.Errorf("list geometries: %w", err)
			}
			if len(geometries) == 0 {
				return nil, fmt.Errorf("no geometries exist; create one before attaching physics")
			}
			geometry = geometries[0]
			fallbackNote = fmt.Sprintf(" (geometry defaulted to the first of %d)", len(geometries))
		} else {
			exists, err := entityExists(sess, comsol.CategoryGeometries, geometry)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("geometry %q does not exist", geometry)
			}
		}

		slog.Info("Creating physics interface",
			"physics", info.InterfaceID,
			"name", name,
			"geometry", geometry,
		)
		node, err := createInCategory(sess, comsol.CategoryPhysics, info.InterfaceID, name)
		if err != nil {
			return nil, err
		}
		if err := node.SetProperty("geometry", geometry); err != nil {
			return nil, fmt.Errorf("link physics to geometry: %w", err)
		}

		msg := fmt.Sprintf("Physics interface %q (%s) added as %q on geometry %q.%s",
			physicsArg, info.InterfaceID, name, geometry, fallbackNote)
		if !known {
			msg += " Note: the interface name was not in the catalogue and was passed through verbatim."
		}
		return &ToolOutcome{Message: msg}, nil
	})
}

func addPhysicsFeatureTool() Tool {
	def := ToolDefinition{
		Name:        "add_physics_feature",
		Description: "Adds a feature (boundary condition, domain condition, source) to a physics interface.",
		Parameters: []ToolParam{
			{Name: "physics", Type: ParamString, Description: "The physics interface node name (e.g. 'spf').", Required: true},
			{Name: "feature_type", Type: ParamString, Description: "Feature type (e.g. 'InletBoundary', 'HeatSource').", Required: true},
			{Name: "name", Type: ParamString, Description: "Feature name. Defaults to the feature type.", Required: false},
			{Name: "selection", Type: ParamString, Description: "Entity selection: indices like '1 2 3' or 'all'.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		physics, err := args.String("physics")
		if err != nil {
			return nil, err
		}
		featureType, err := args.String("feature_type")
		if err != nil {
			return nil, err
		}
		name := args.StringOr("name", featureType)

		parent, err := sess.Node(string(comsol.CategoryPhysics), physics)
		if err != nil {
			return nil, fmt.Errorf("physics interface %q: %w", physics, err)
		}
		node, err := parent.Create(featureType, name)
		if err != nil {
			return nil, fmt.Errorf("add feature %q to %q: %w", name, physics, err)
		}

		msg := fmt.Sprintf("Feature %q (%s) added to physics interface %q.", name, featureType, physics)
		if rawSel, ok := args["selection"]; ok {
			sel, err := comsol.ParseSelection(rawSel)
			if err != nil {
				return nil, fmt.Errorf("%w: selection: %v", ErrInvalidArgument, err)
			}
			if err := node.SetSelection(sel); err != nil {
				return nil, fmt.Errorf("set selection on %q: %w", name, err)
			}
			msg += fmt.Sprintf(" Selection: %s.", sel)
		}
		return &ToolOutcome{Message: msg}, nil
	})
}

func setFeaturePropertyTool() Tool {
	def := ToolDefinition{
		Name:        "set_feature_property",
		Description: "Sets an editable property on a physics interface or one of its features.",
		Parameters: []ToolParam{
			{Name: "physics", Type: ParamString, Description: "The physics interface node name.", Required: true},
			{Name: "feature", Type: ParamString, Description: "Feature within the interface. Omit to set on the interface itself.", Required: false},
			{Name: "property", Type: ParamString, Description: "The property name (e.g. 'U0').", Required: true},
			{Name: "value", Type: ParamString, Description: "The value expression (e.g. '1[m/s]').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		physics, err := args.String("physics")
		if err != nil {
			return nil, err
		}
		property, err := args.String("property")
		if err != nil {
			return nil, err
		}
		value, err := args.String("value")
		if err != nil {
			return nil, err
		}

		path := []string{string(comsol.CategoryPhysics), physics}
		target := physics
		if feature := args.StringOr("feature", ""); feature != "" {
			path = append(path, feature)
			target = physics + "/" + feature
		}
		node, err := sess.Node(path...)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", target, err)
		}
		if err := node.SetProperty(property, value); err != nil {
			return nil, fmt.Errorf("set %q on %q: %w", property, target, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Property %q on %q set to %q.", property, target, value)}, nil
	})
}

func setFeatureSelectionTool() Tool {
	def := ToolDefinition{
		Name:        "set_feature_selection",
		Description: "Assigns the geometric entity selection of a physics feature.",
		Parameters: []ToolParam{
			{Name: "physics", Type: ParamString, Description: "The physics interface node name.", Required: true},
			{Name: "feature", Type: ParamString, Description: "The feature within the interface.", Required: true},
			{Name: "selection", Type: ParamString, Description: "Entity indices like '1 2 3', a JSON list, or 'all'.", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		physics, err := args.String("physics")
		if err != nil {
			return nil, err
		}
		feature, err := args.String("feature")
		if err != nil {
			return nil, err
		}
		sel, err := args.Selection("selection")
		if err != nil {
			return nil, err
		}

		node, err := sess.Node(string(comsol.CategoryPhysics), physics, feature)
		if err != nil {
			return nil, fmt.Errorf("feature %s/%s: %w", physics, feature, err)
		}
		if err := node.SetSelection(sel); err != nil {
			return nil, fmt.Errorf("set selection on %s/%s: %w", physics, feature, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Selection of %s/%s set to %s.", physics, feature, sel)}, nil
	})
}

func createMaterialTool() Tool {
	def := ToolDefinition{
		Name:        "create_material",
		Description: "Creates a material definition.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The material name (e.g. 'Water').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		if _, err := createInCategory(sess, comsol.CategoryMaterials, "Material", name); err != nil {
			return nil, err
		}
		return &ToolOutcome{Message: fmt.Sprintf("Material %q created.", name)}, nil
	})
}

func setMaterialPropertyTool() Tool {
	def := ToolDefinition{
		Name:        "set_material_property",
		Description: "Sets a physical property on a material (density, viscosity, conductivity, ...).",
		Parameters: []ToolParam{
			{Name: "material", Type: ParamString, Description: "The material name.", Required: true},
			{Name: "property", Type: ParamString, Description: "The property name (e.g. 'rho').", Required: true},
			{Name: "value", Type: ParamString, Description: "The value expression (e.g. '1000[kg/m^3]').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		material, err := args.String("material")
		if err != nil {
			return nil, err
		}
		property, err := args.String("property")
		if err != nil {
			return nil, err
		}
		value, err := args.String("value")
		if err != nil {
			return nil, err
		}
		node, err := sess.Node(string(comsol.CategoryMaterials), material)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", material, err)
		}
		if err := node.SetProperty(property, value); err != nil {
			return nil, fmt.Errorf("set %q on material %q: %w", property, material, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Material %q property %q set to %q.", material, property, value)}, nil
	})
}

func assignMaterialTool() Tool {
	def := ToolDefinition{
		Name:        "assign_material",
		Description: "Assigns a material to a set of geometric domains.",
		Parameters: []ToolParam{
			{Name: "material", Type: ParamString, Description: "The material name.", Required: true},
			{Name: "selection", Type: ParamString, Description: "Domain indices like '1 2 3', a JSON list, or 'all'.", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		material, err := args.String("material")
		if err != nil {
			return nil, err
		}
		sel, err := args.Selection("selection")
		if err != nil {
			return nil, err
		}
		node, err := sess.Node(string(comsol.CategoryMaterials), material)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", material, err)
		}
		if err := node.SetSelection(sel); err != nil {
			return nil, fmt.Errorf("assign material %q: %w", material, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Material %q assigned to domains %s.", material, sel)}, nil
	})
}

func createMeshTool() Tool {
	def := ToolDefinition{
		Name:        "create_mesh",
		Description: "Creates a mesh sequence for a component.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The mesh name (e.g. 'mesh1').", Required: true},
			{Name: "component", Type: ParamString, Description: "Owning component. Defaults to the first component.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		component, defaulted, err := resolveComponent(sess, args.StringOr("component", ""))
		if err != nil {
			return nil, err
		}
		node, err := createInCategory(sess, comsol.CategoryMeshes, "Mesh", name)
		if err != nil {
			return nil, err
		}
		if err := node.SetProperty("component", component); err != nil {
			return nil, fmt.Errorf("link mesh to component: %w", err)
		}
		msg := fmt.Sprintf("Mesh %q created in component %q.", name, component)
		if defaulted {
			msg += " (component defaulted)"
		}
		return &ToolOutcome{Message: msg}, nil
	})
}

func createStudyTool() Tool {
	def := ToolDefinition{
		Name:        "create_study",
		Description: "Creates a study that can be solved.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The study name (e.g. 'std1').", Required: true},
			{Name: "study_type", Type: ParamString, Description: "Study type.", Required: false,
				Enum: []string{"Stationary", "Transient", "Frequency", "Eigenfrequency"}},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		studyType := args.StringOr("study_type", "Stationary")
		slog.Info("Creating study", "name", name, "type", studyType)
		if _, err := createInCategory(sess, comsol.CategoryStudies, studyType, name); err != nil {
			return nil, err
		}
		return &ToolOutcome{Message: fmt.Sprintf("Study %q (%s) created.", name, studyType)}, nil
	})
}

func createPlotTool() Tool {
	def := ToolDefinition{
		Name:        "create_plot",
		Description: "Creates a plot group for visualizing results.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The plot group name (e.g. 'pg1').", Required: true},
			{Name: "plot_type", Type: ParamString, Description: "Plot group type.", Required: false,
				Enum: []string{"Surface", "Volume", "Line", "Arrow"}},
			{Name: "dataset", Type: ParamString, Description: "Solution dataset to plot. Omit for the latest.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		plotType := args.StringOr("plot_type", "Surface")
		node, err := createInCategory(sess, comsol.CategoryPlots, plotType+"PlotGroup", name)
		if err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("Plot group %q (%s) created.", name, plotType)
		if dataset := args.StringOr("dataset", ""); dataset != "" {
			if err := node.SetProperty("dataset", dataset); err != nil {
				return nil, fmt.Errorf("set plot dataset: %w", err)
			}
			msg = fmt.Sprintf("Plot group %q (%s) created on dataset %q.", name, plotType, dataset)
		}
		return &ToolOutcome{Message: msg}, nil
	})
}

func removeNodeTool() Tool {
	def := ToolDefinition{
		Name:        "remove_node",
		Description: "Removes a node from the model tree by path, e.g. 'physics/spf/inlet1' or 'studies/std2'.",
		Parameters: []ToolParam{
			{Name: "path", Type: ParamString, Description: "Slash-separated node path starting at a category.", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		rawPath, err := args.String("path")
		if err != nil {
			return nil, err
		}
		parts := strings.Split(strings.Trim(rawPath, "/"), "/")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: path %q must name a category and a node", ErrInvalidArgument, rawPath)
		}
		node, err := sess.Node(parts...)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", rawPath, err)
		}
		if err := node.Remove(); err != nil {
			return nil, fmt.Errorf("remove %q: %w", rawPath, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Node %q removed.", rawPath)}, nil
	})
}

// resolveComponent resolves an optional component argument, defaulting
// to the first component. The defaulting is reported to the caller so
// the result text can echo it.
func resolveComponent(sess comsol.Session, component string) (name string, defaulted bool, err error) {
	if component != "" {
		exists, err := entityExists(sess, comsol.CategoryComponents, component)
		if err != nil {
			return "", false, err
		}
		if !exists {
			return "", false, fmt.Errorf("component %q does not exist", component)
		}
		return component, false, nil
	}
	components, err := sess.List(comsol.CategoryComponents)
	if err != nil {
		return "", false, fmt.Errorf("list components: %w", err)
	}
	if len(components) == 0 {
		return "", false, fmt.Errorf("no components exist; create one with create_component first")
	}
	return components[0], true, nil
}
