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
	"sync"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// defaultMaxRounds bounds the number of model calls one user turn may
// trigger before the loop gives up on the exchange.
const defaultMaxRounds = 25

// Loop drives one conversation against the engine.
//
// One user turn runs to completion before the next is accepted: the
// model is called, any requested tool batch is executed sequentially in
// request order, every invocation is answered with exactly one
// tool-result turn, the engine snapshot is refreshed once per batch,
// and the model is called again until it replies in plain text.
//
// Tool failures of every kind stay inside the exchange as error-text
// results the model can react to. Only model-call failures propagate to
// the caller, wrapped in ErrModelCall, with the transcript left intact
// so the same user turn can be retried without duplication.
//
// Thread Safety:
//
//	Loop is safe for concurrent use; turns are serialized by an
//	internal mutex.
type Loop struct {
	mu sync.Mutex

	conv     *Conversation
	client   Client
	registry *Registry
	holder   *comsol.Holder
	snap     *Snapshotter

	// MaxRounds overrides the per-turn model call budget when positive.
	MaxRounds int
}

// LoopConfig wires a Loop's collaborators.
type LoopConfig struct {
	Client   Client
	Registry *Registry
	Holder   *comsol.Holder

	// Snapshotter is optional; the zero snapshotter is used when nil.
	Snapshotter *Snapshotter
}

// NewLoop creates a loop with a fresh transcript whose system turn
// reflects the currently held session.
func NewLoop(cfg LoopConfig) *Loop {
	snap := cfg.Snapshotter
	if snap == nil {
		snap = &Snapshotter{}
	}
	l := &Loop{
		client:   cfg.Client,
		registry: cfg.Registry,
		holder:   cfg.Holder,
		snap:     snap,
	}
	l.conv = NewConversation(renderSystemPrompt(snap.Snapshot(cfg.Holder.Current())))
	return l
}

// Conversation exposes the transcript, for presentation layers.
func (l *Loop) Conversation() *Conversation {
	return l.conv
}

// RefreshContext re-renders the engine snapshot into the system turn.
// For engine changes that happen outside a turn; RunTurn refreshes on
// its own after every tool batch.
func (l *Loop) RefreshContext() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshContext()
}

// refreshContext is the internal, lock-free snapshot refresh. Callers
// inside RunTurn already hold the turn mutex.
func (l *Loop) refreshContext() {
	snapshot := l.snap.Snapshot(l.holder.Current())
	l.conv.SetSystem(renderSystemPrompt(snapshot))
	slog.Debug("Engine context refreshed", "snapshot_bytes", len(snapshot))
}

// RunTurn processes one user message and returns the assistant's final
// plain-text reply.
//
// Description:
//
//	Appends the user turn, then alternates model calls and tool batch
//	execution until the model answers without tool invocations. If the
//	previous call for the same message failed at the model boundary,
//	the already-appended user turn is reused rather than duplicated.
//
// Inputs:
//
//	ctx - Context governing model calls and engine operations.
//	userText - The user's message.
//
// Outputs:
//
//	string - The assistant's plain-text reply.
//	error - Non-nil only for model boundary failures (ErrModelCall) or
//	        an exhausted round budget.
func (l *Loop) RunTurn(ctx context.Context, userText string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A retry after a model failure finds its own user turn still
	// unanswered, possibly behind tool-result turns from earlier rounds;
	// appending again would duplicate it.
	if pending, ok := l.conv.PendingUser(); !ok || pending.Content != userText {
		l.conv.Append(Turn{Role: RoleUser, Content: userText})
	}

	maxRounds := l.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	for round := 0; round < maxRounds; round++ {
		turn, err := l.client.Complete(ctx, l.conv.Turns(), l.registry.Definitions())
		if err != nil {
			// The transcript keeps the pending user turn so the caller
			// can retry the same message.
			slog.Error("Model call failed", "round", round, "error", err)
			if errors.Is(err, ErrModelCall) {
				return "", err
			}
			return "", fmt.Errorf("%w: %v", ErrModelCall, err)
		}

		l.conv.Append(*turn)
		if len(turn.Invocations) == 0 {
			return turn.Content, nil
		}

		slog.Info("Executing tool batch", "round", round, "invocations", len(turn.Invocations))
		for _, inv := range turn.Invocations {
			result := l.executeInvocation(ctx, inv)
			l.conv.Append(Turn{
				Role:         RoleTool,
				Content:      result,
				InvocationID: inv.ID,
			})
		}

		// One refresh per batch, after all invocations have run.
		l.refreshContext()
	}

	return "", fmt.Errorf("model did not produce a final reply within %d rounds", maxRounds)
}

// executeInvocation runs one tool invocation and renders its result
// text. Every failure mode, including handler panics and unknown tool
// names, is contained as an error-prefixed result string.
func (l *Loop) executeInvocation(ctx context.Context, inv ToolInvocation) (result string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool handler panicked", "tool", inv.Name, "panic", r)
			result = fmt.Sprintf("Error: tool %s panicked: %v", inv.Name, r)
		}
	}()

	tool, err := l.registry.Resolve(inv.Name)
	if err != nil {
		slog.Warn("Model requested unknown tool", "tool", inv.Name)
		return fmt.Sprintf("Error: %v", err)
	}

	args, err := DecodeArguments(inv.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	slog.Info("Executing tool", "tool", inv.Name, "invocation_id", inv.ID)
	outcome, err := tool.Execute(ctx, l.holder.Current(), args)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", inv.Name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}

	message := outcome.Message
	if outcome.NewSession != nil {
		if err := l.holder.Swap(ctx, outcome.NewSession); err != nil {
			// The old session stays in place; report the failed swap as
			// the tool's result.
			return fmt.Sprintf("Error: new session was not adopted: %v", err)
		}
	}
	return message
}
