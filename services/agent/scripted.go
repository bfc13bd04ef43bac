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
	"sync"
)

// ScriptedClient is a Client that replays a fixed sequence of assistant
// turns. It drives the loop tests without a network and doubles as the
// --model scripted smoke mode.
//
// Thread Safety:
//
//	ScriptedClient is safe for concurrent use.
type ScriptedClient struct {
	mu sync.Mutex

	// script holds the responses to return in order. An entry with a
	// non-nil Err fails the call instead.
	script []ScriptedResponse

	// calls records the transcript passed to each Complete call.
	calls [][]Turn

	next int
}

// ScriptedResponse is one scripted Complete result.
type ScriptedResponse struct {
	Turn *Turn
	Err  error
}

// NewScriptedClient creates a client replaying the given responses.
func NewScriptedClient(script ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{script: script}
}

// Reply appends a plain assistant reply to the script.
func (c *ScriptedClient) Reply(content string) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, ScriptedResponse{
		Turn: &Turn{Role: RoleAssistant, Content: content},
	})
	return c
}

// ToolBatch appends an assistant turn requesting the given invocations.
func (c *ScriptedClient) ToolBatch(invocations ...ToolInvocation) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, ScriptedResponse{
		Turn: &Turn{Role: RoleAssistant, Invocations: invocations},
	})
	return c
}

// Fail appends a model-call failure to the script.
func (c *ScriptedClient) Fail(err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, ScriptedResponse{Err: err})
	return c
}

// Complete implements Client.
func (c *ScriptedClient) Complete(ctx context.Context, turns []Turn, tools []ToolDefinition) (*Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	recorded := make([]Turn, len(turns))
	copy(recorded, turns)
	c.calls = append(c.calls, recorded)

	if c.next >= len(c.script) {
		return nil, fmt.Errorf("%w: script exhausted after %d calls", ErrModelCall, c.next)
	}
	resp := c.script[c.next]
	c.next++

	if resp.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, resp.Err)
	}
	turn := *resp.Turn
	return &turn, nil
}

// Name implements Client.
func (c *ScriptedClient) Name() string { return "scripted" }

// Model implements Client.
func (c *ScriptedClient) Model() string { return "scripted" }

// Calls returns the transcripts passed to each Complete call.
func (c *ScriptedClient) Calls() [][]Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
