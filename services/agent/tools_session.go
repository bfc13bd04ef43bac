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

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// newModelTool replaces the held engine session with a fresh empty
// model. The handler only creates the candidate; the loop verifies it
// through Holder.Swap and keeps the old session if the candidate is
// unstable.
func newModelTool(factory SessionFactory) Tool {
	def := ToolDefinition{
		Name: "new_model",
		Description: "Discards the current model and starts a fresh empty one. " +
			"All unsaved work in the current model is lost.",
		Parameters: []ToolParam{
			{Name: "name", Type: ParamString, Description: "Name for the new model (e.g. 'heat_sink_v2').", Required: true},
		},
	}
	return NewTool(def, func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
		name, err := args.String("name")
		if err != nil {
			return nil, err
		}
		if factory == nil {
			return nil, fmt.Errorf("session creation unavailable in this configuration")
		}
		slog.Info("Creating replacement engine session", "name", name)
		candidate, err := factory(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create model %q: %w", name, err)
		}
		return &ToolOutcome{
			Message:    fmt.Sprintf("New model %q created. Previous model discarded.", name),
			NewSession: candidate,
		}, nil
	})
}
