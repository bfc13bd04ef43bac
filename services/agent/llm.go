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

import "context"

// Client is the language-model boundary.
//
// One call takes the full ordered transcript plus the registry's tool
// definitions (tool choice is always auto) and returns exactly one
// assistant turn, which may carry a batch of tool invocations. A
// failed call returns an error; the loop propagates it to the caller
// rather than containing it.
//
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete submits the conversation and returns the assistant turn.
	Complete(ctx context.Context, turns []Turn, tools []ToolDefinition) (*Turn, error)

	// Name returns the provider name (e.g. "openai").
	Name() string

	// Model returns the model in use.
	Model() string
}
