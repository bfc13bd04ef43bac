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

import "errors"

// Sentinel errors for the agent core.
var (
	// ErrDuplicateTool indicates a tool name was registered twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrUnknownTool indicates a requested tool name is not registered.
	// The loop surfaces this as a tool-result turn, never a crash.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArgument indicates malformed or ambiguous tool
	// arguments. Contained inside the handler boundary.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrModelCall wraps a failed language-model call. Unlike tool
	// errors, it propagates to the caller with the transcript intact.
	ErrModelCall = errors.New("model call failed")

	// ErrNoSession indicates a tool needs a live engine session and
	// none is held.
	ErrNoSession = errors.New("no engine session")
)
