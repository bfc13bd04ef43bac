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
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// Model-level tool handlers: parameters, builds, solve, evaluation,
// save and image export. Each performs one engine operation and echoes
// the effective identifiers in its success message.

func setParameterTool() Tool {
	def := ToolDefinition{
		Name:        "set_parameter",
		Description: "Sets a global parameter in the model. The value is an expression and may carry a unit, e.g. '10[m/s]'.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "The parameter name.", Required: true},
			{Name: "value", Type: ParamString, Description: "The value expression (e.g. '10[m/s]').", Required: true},
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
		value, err := args.String("value")
		if err != nil {
			return nil, err
		}
		slog.Info("Setting parameter", "name", name, "value", value)
		if err := sess.SetParameter(name, value); err != nil {
			return nil, fmt.Errorf("set parameter %q: %w", name, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Parameter %q set to %q.", name, value)}, nil
	})
}

func buildGeometryTool() Tool {
	def := ToolDefinition{
		Name:        "build_geometry",
		Description: "Builds the model geometry. Run this after changing geometric parameters.",
		Parameters: []ToolParam{
			{Name: "geometry", Type: ParamString, Description: "Geometry to build. Omit to build all geometries.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		geometry := args.StringOr("geometry", "")
		slog.Info("Building geometry", "geometry", geometry)
		if err := sess.Build(geometry); err != nil {
			return nil, fmt.Errorf("build geometry: %w", err)
		}
		if geometry == "" {
			return &ToolOutcome{Message: "All geometries built successfully."}, nil
		}
		return &ToolOutcome{Message: fmt.Sprintf("Geometry %q built successfully.", geometry)}, nil
	})
}

func buildMeshTool() Tool {
	def := ToolDefinition{
		Name:        "build_mesh",
		Description: "Builds the mesh. Run this after geometry changes or mesh setting changes.",
		Parameters: []ToolParam{
			{Name: "mesh", Type: ParamString, Description: "Mesh to build. Omit to build all meshes.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		mesh := args.StringOr("mesh", "")
		slog.Info("Building mesh", "mesh", mesh)
		if err := sess.Mesh(mesh); err != nil {
			return nil, fmt.Errorf("build mesh: %w", err)
		}
		if mesh == "" {
			return &ToolOutcome{Message: "All meshes built successfully."}, nil
		}
		return &ToolOutcome{Message: fmt.Sprintf("Mesh %q built successfully.", mesh)}, nil
	})
}

func solveStudyTool() Tool {
	def := ToolDefinition{
		Name:        "solve_study",
		Description: "Runs a study to solve the physics. May take a long time.",
		Parameters: []ToolParam{
			{Name: "study_name", Type: ParamString, Description: "The study to run (e.g. 'std1').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		study, err := args.String("study_name")
		if err != nil {
			return nil, err
		}
		exists, err := entityExists(sess, comsol.CategoryStudies, study)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("study %q does not exist", study)
		}
		slog.Info("Solving study", "study", study)
		if err := sess.Solve(ctx, study); err != nil {
			return nil, fmt.Errorf("solve study %q: %w", study, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Study %q execution completed.", study)}, nil
	})
}

func evaluateExpressionTool() Tool {
	def := ToolDefinition{
		Name:        "evaluate_expression",
		Description: "Evaluates a numerical expression from the results. Requires a solved study.",
		Parameters: []ToolParam{
			{Name: "expression", Type: ParamString, Description: "The expression to evaluate (e.g. 'spf.U', 'T').", Required: true},
			{Name: "unit", Type: ParamString, Description: "The unit to evaluate in (e.g. 'm/s', 'degC').", Required: true},
			{Name: "dataset", Type: ParamString, Description: "Solution dataset to evaluate against. Omit for the latest.", Required: false},
			{Name: "time_step", Type: ParamInteger, Description: "Time step index. Omit for the last step.", Required: false},
			{Name: "sweep_step", Type: ParamInteger, Description: "Parameter sweep step index. Omit for the last step.", Required: false},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		expression, err := args.String("expression")
		if err != nil {
			return nil, err
		}
		unit, err := args.String("unit")
		if err != nil {
			return nil, err
		}

		var opts *comsol.EvalOptions
		dataset := args.StringOr("dataset", "")
		timeStep, err := args.IntOr("time_step", 0)
		if err != nil {
			return nil, err
		}
		sweepStep, err := args.IntOr("sweep_step", 0)
		if err != nil {
			return nil, err
		}
		if dataset != "" || timeStep != 0 || sweepStep != 0 {
			opts = &comsol.EvalOptions{Dataset: dataset, TimeStep: timeStep, SweepStep: sweepStep}
		}

		slog.Info("Evaluating expression", "expression", expression, "unit", unit)
		value, err := sess.Evaluate(ctx, expression, unit, opts)
		if err != nil {
			if errors.Is(err, comsol.ErrNoSolution) {
				return nil, fmt.Errorf("no solutions available to evaluate; run a study first")
			}
			return nil, fmt.Errorf("evaluate %q: %w", expression, err)
		}
		msg := fmt.Sprintf("Result of %q: %s [%s]", expression, value, unit)
		if dataset != "" {
			msg += fmt.Sprintf(" (dataset %q)", dataset)
		}
		return &ToolOutcome{Message: msg}, nil
	})
}

func saveModelTool() Tool {
	def := ToolDefinition{
		Name:        "save_model",
		Description: "Saves the model to disk.",
		Parameters: []ToolParam{
			{Name: "filename", Type: ParamString, Description: "The file to save as (e.g. 'Test_v2.mph').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		filename, err := args.String("filename")
		if err != nil {
			return nil, err
		}
		slog.Info("Saving model", "filename", filename)
		if err := sess.Save(filename); err != nil {
			return nil, fmt.Errorf("save model to %q: %w", filename, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Model saved to %q.", filename)}, nil
	})
}

func exportImageTool() Tool {
	def := ToolDefinition{
		Name:        "export_image",
		Description: "Renders a plot group to an image file.",
		Parameters: []ToolParam{
			{Name: "plot_group", Type: ParamString, Description: "The plot group to render.", Required: true},
			{Name: "path", Type: ParamString, Description: "Destination image path (e.g. 'velocity.png').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		if err := requireSession(sess); err != nil {
			return nil, err
		}
		plotGroup, err := args.String("plot_group")
		if err != nil {
			return nil, err
		}
		path, err := args.String("path")
		if err != nil {
			return nil, err
		}
		exists, err := entityExists(sess, comsol.CategoryPlots, plotGroup)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("plot group %q does not exist", plotGroup)
		}
		slog.Info("Exporting image", "plot_group", plotGroup, "path", path)
		if err := sess.ExportImage(plotGroup, path); err != nil {
			return nil, fmt.Errorf("export image for %q: %w", plotGroup, err)
		}
		return &ToolOutcome{Message: fmt.Sprintf("Plot group %q exported to %q.", plotGroup, path)}, nil
	})
}
