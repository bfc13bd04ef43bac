// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent implements the conversational control loop that lets a
// language model drive a COMSOL session through registered tools.
//
// The core pieces are the Conversation transcript, the tool Registry,
// the context Snapshotter, and the orchestration Loop. The language
// model and the engine are external collaborators reached through the
// Client and comsol.Session interfaces.
package agent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// Role identifies who produced a conversation turn.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolInvocation is one structured request from the model to execute a
// named tool with JSON arguments.
type ToolInvocation struct {
	// ID links the invocation to its tool-result turn.
	ID string `json:"id"`

	// Name is the registered tool name.
	Name string `json:"name"`

	// Arguments is the raw JSON argument object as the model sent it.
	Arguments json.RawMessage `json:"arguments"`
}

// Turn is one entry in the conversation transcript.
type Turn struct {
	// Role is system, user, assistant, or tool.
	Role Role `json:"role"`

	// Content is the turn's text. For tool turns it is the tool result
	// (success or error string).
	Content string `json:"content"`

	// Invocations carries the tool calls of an assistant turn, in the
	// order the model requested them.
	Invocations []ToolInvocation `json:"tool_invocations,omitempty"`

	// InvocationID links a tool turn back to the invocation it answers.
	InvocationID string `json:"tool_invocation_id,omitempty"`
}

// ParamType enumerates the JSON-schema types a tool parameter can have.
type ParamType string

// Tool parameter types.
const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
)

// ToolParam describes one parameter in a tool definition.
type ToolParam struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Enum        []string  `json:"enum,omitempty"`
}

// ToolDefinition is the machine-readable tool description disclosed to
// the language model. Definitions are static for the session.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ToolParam `json:"parameters"`
}

// ParameterSchema renders the definition's parameters as a JSON-schema
// object suitable for the model API's function declaration.
func (d ToolDefinition) ParameterSchema() json.RawMessage {
	type property struct {
		Type        ParamType `json:"type"`
		Description string    `json:"description,omitempty"`
		Enum        []string  `json:"enum,omitempty"`
		Items       *struct {
			Type ParamType `json:"type"`
		} `json:"items,omitempty"`
	}
	schema := struct {
		Type       string              `json:"type"`
		Properties map[string]property `json:"properties"`
		Required   []string            `json:"required,omitempty"`
	}{
		Type:       "object",
		Properties: make(map[string]property, len(d.Parameters)),
	}

	for _, p := range d.Parameters {
		prop := property{
			Type:        p.Type,
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Type == ParamArray {
			prop.Items = &struct {
				Type ParamType `json:"type"`
			}{Type: ParamInteger}
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		// Definitions are built from static literals; a marshal failure
		// is a programming error.
		panic(fmt.Sprintf("marshal schema for tool %s: %v", d.Name, err))
	}
	return raw
}

// ToolOutcome is a handler's result. Message is always set; NewSession
// is set only by handlers that created a replacement engine session,
// so the loop can swap its held reference.
type ToolOutcome struct {
	Message    string
	NewSession comsol.Session
}

// Arguments holds a tool invocation's decoded argument object.
type Arguments map[string]any

// DecodeArguments parses an invocation's raw JSON arguments. An empty
// payload decodes to an empty argument set.
func DecodeArguments(raw json.RawMessage) (Arguments, error) {
	if len(raw) == 0 {
		return Arguments{}, nil
	}
	var args Arguments
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: malformed argument JSON: %v", ErrInvalidArgument, err)
	}
	if args == nil {
		args = Arguments{}
	}
	return args, nil
}

// String returns a required string argument, trimmed.
func (a Arguments) String(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", fmt.Errorf("%w: missing required argument %q", ErrInvalidArgument, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %q must be a string, got %T", ErrInvalidArgument, name, v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: argument %q is empty", ErrInvalidArgument, name)
	}
	return s, nil
}

// StringOr returns an optional string argument, or fallback when the
// argument is absent or blank.
func (a Arguments) StringOr(name, fallback string) string {
	v, ok := a[name]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// IntOr returns an optional integer argument, accepting JSON numbers
// and numeric strings, or fallback when absent.
func (a Arguments) IntOr(name string, fallback int) (int, error) {
	v, ok := a[name]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		if float64(int(n)) != n {
			return 0, fmt.Errorf("%w: argument %q must be an integer, got %v", ErrInvalidArgument, name, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%w: argument %q must be an integer, got %q", ErrInvalidArgument, name, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: argument %q must be an integer, got %T", ErrInvalidArgument, name, v)
	}
}

// Selection parses a selection-shaped argument (index list, integer
// string, or the "all" sentinel) into a normalized comsol.Selection.
func (a Arguments) Selection(name string) (comsol.Selection, error) {
	v, ok := a[name]
	if !ok {
		return comsol.Selection{}, fmt.Errorf("%w: missing required argument %q", ErrInvalidArgument, name)
	}
	sel, err := comsol.ParseSelection(v)
	if err != nil {
		return comsol.Selection{}, fmt.Errorf("%w: argument %q: %v", ErrInvalidArgument, name, err)
	}
	return sel, nil
}
