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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

func invocation(id, name string, args map[string]any) ToolInvocation {
	raw, _ := json.Marshal(args)
	return ToolInvocation{ID: id, Name: name, Arguments: raw}
}

func newTestLoop(client Client, sess comsol.Session, factory SessionFactory) (*Loop, *comsol.Holder) {
	holder := comsol.NewHolder(sess)
	loop := NewLoop(LoopConfig{
		Client:   client,
		Registry: NewCatalog(CatalogConfig{NewSession: factory}),
		Holder:   holder,
	})
	return loop, holder
}

func TestRunTurnPlainReply(t *testing.T) {
	client := NewScriptedClient().Reply("Hello! How can I help with your model?")
	loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

	reply, err := loop.RunTurn(context.Background(), "hi")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !strings.Contains(reply, "How can I help") {
		t.Errorf("reply = %q", reply)
	}
	// system, user, assistant.
	if loop.Conversation().Len() != 3 {
		t.Errorf("transcript has %d turns, want 3", loop.Conversation().Len())
	}
}

func TestRunTurnToolBatch(t *testing.T) {
	client := NewScriptedClient().
		ToolBatch(
			invocation("call-1", "create_study", map[string]any{"name": "std1"}),
			invocation("call-2", "solve_study", map[string]any{"study_name": "std1"}),
		).
		Reply("Study std1 created and solved.")
	sess := comsol.NewMemSession("m")
	loop, _ := newTestLoop(client, sess, nil)

	reply, err := loop.RunTurn(context.Background(), "create and solve a stationary study")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !strings.Contains(reply, "created and solved") {
		t.Errorf("reply = %q", reply)
	}

	t.Run("engine state reflects the batch", func(t *testing.T) {
		if !sess.Solved("std1") {
			t.Error("std1 not solved")
		}
	})

	t.Run("every invocation answered once, in order, by ID", func(t *testing.T) {
		calls := client.Calls()
		if len(calls) != 2 {
			t.Fatalf("model called %d times, want 2", len(calls))
		}
		second := calls[1]
		var results []Turn
		for _, turn := range second {
			if turn.Role == RoleTool {
				results = append(results, turn)
			}
		}
		if len(results) != 2 {
			t.Fatalf("second call carried %d tool results, want 2", len(results))
		}
		if results[0].InvocationID != "call-1" || results[1].InvocationID != "call-2" {
			t.Errorf("result order = %q, %q", results[0].InvocationID, results[1].InvocationID)
		}
		for _, res := range results {
			if strings.HasPrefix(res.Content, "Error:") {
				t.Errorf("unexpected error result: %q", res.Content)
			}
		}
	})

	t.Run("snapshot refreshed once after the batch", func(t *testing.T) {
		calls := client.Calls()
		first, second := calls[0][0].Content, calls[1][0].Content
		if first == second {
			t.Error("system turn unchanged after tool batch")
		}
		if !strings.Contains(second, "std1") {
			t.Errorf("refreshed snapshot missing std1:\n%s", second)
		}
	})
}

func TestRunTurnErrorContainment(t *testing.T) {
	t.Run("handler error becomes an error result the model sees", func(t *testing.T) {
		client := NewScriptedClient().
			ToolBatch(invocation("c1", "solve_study", map[string]any{"study_name": "ghost"})).
			Reply("That study does not exist yet.")
		loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

		reply, err := loop.RunTurn(context.Background(), "solve ghost")
		if err != nil {
			t.Fatalf("handler error escaped the loop: %v", err)
		}
		if !strings.Contains(reply, "does not exist") {
			t.Errorf("reply = %q", reply)
		}
		result := toolResult(t, client.Calls()[1], "c1")
		if !strings.HasPrefix(result, "Error:") {
			t.Errorf("result = %q, want Error: prefix", result)
		}
	})

	t.Run("duplicate create is reported, not silently overwritten", func(t *testing.T) {
		client := NewScriptedClient().
			ToolBatch(invocation("c1", "create_study", map[string]any{"name": "std1"})).
			ToolBatch(invocation("c2", "create_study", map[string]any{"name": "std1"})).
			Reply("std1 already existed.")
		loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

		if _, err := loop.RunTurn(context.Background(), "make std1 twice"); err != nil {
			t.Fatalf("RunTurn: %v", err)
		}
		result := toolResult(t, client.Calls()[2], "c2")
		if !strings.Contains(result, "already exists") {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("unknown tool name becomes an error result", func(t *testing.T) {
		client := NewScriptedClient().
			ToolBatch(invocation("c1", "imaginary_tool", nil)).
			Reply("I used a tool that does not exist.")
		loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

		if _, err := loop.RunTurn(context.Background(), "do the thing"); err != nil {
			t.Fatalf("unknown tool escaped the loop: %v", err)
		}
		result := toolResult(t, client.Calls()[1], "c1")
		if !strings.Contains(result, "unknown tool") {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("malformed argument JSON becomes an error result", func(t *testing.T) {
		client := NewScriptedClient().
			ToolBatch(ToolInvocation{ID: "c1", Name: "set_parameter", Arguments: json.RawMessage(`{"name"`)}).
			Reply("Arguments were malformed.")
		loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

		if _, err := loop.RunTurn(context.Background(), "set it"); err != nil {
			t.Fatalf("malformed args escaped the loop: %v", err)
		}
		result := toolResult(t, client.Calls()[1], "c1")
		if !strings.Contains(result, "malformed") {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("handler panic is contained as an error result", func(t *testing.T) {
		holder := comsol.NewHolder(comsol.NewMemSession("m"))
		registry := NewRegistry()
		registry.MustRegister(NewTool(ToolDefinition{Name: "bomb", Description: "panics"},
			func(ctx context.Context, sess comsol.Session, args Arguments) (*ToolOutcome, error) {
				panic("boom")
			}))
		client := NewScriptedClient().
			ToolBatch(invocation("c1", "bomb", nil)).
			Reply("That tool failed.")
		loop := NewLoop(LoopConfig{Client: client, Registry: registry, Holder: holder})

		if _, err := loop.RunTurn(context.Background(), "explode"); err != nil {
			t.Fatalf("panic escaped the loop: %v", err)
		}
		result := toolResult(t, client.Calls()[1], "c1")
		if !strings.Contains(result, "panicked") || !strings.Contains(result, "boom") {
			t.Errorf("result = %q", result)
		}
	})
}

func TestRunTurnModelFailure(t *testing.T) {
	sentinel := errors.New("rate limited")
	client := NewScriptedClient().
		Fail(sentinel).
		Reply("Recovered on retry.")
	loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

	_, err := loop.RunTurn(context.Background(), "hello")
	if !errors.Is(err, ErrModelCall) {
		t.Fatalf("error = %v, want ErrModelCall", err)
	}

	t.Run("user turn survives the failure", func(t *testing.T) {
		last, ok := loop.Conversation().Last()
		if !ok || last.Role != RoleUser || last.Content != "hello" {
			t.Errorf("last turn = %+v, %v", last, ok)
		}
	})

	t.Run("retry does not duplicate the user turn", func(t *testing.T) {
		before := loop.Conversation().Len()
		reply, err := loop.RunTurn(context.Background(), "hello")
		if err != nil {
			t.Fatalf("retry: %v", err)
		}
		if reply != "Recovered on retry." {
			t.Errorf("reply = %q", reply)
		}
		// Only the assistant turn is added on retry.
		if got := loop.Conversation().Len(); got != before+1 {
			t.Errorf("transcript grew from %d to %d on retry", before, got)
		}
	})
}

func TestRunTurnRetryAfterToolBatch(t *testing.T) {
	// The model fails on the second round, after a tool batch already
	// ran. The pending user turn is buried behind the batch's turns, yet
	// resending the same message must not append it again.
	client := NewScriptedClient().
		ToolBatch(invocation("c1", "create_study", map[string]any{"name": "std1"})).
		Fail(errors.New("upstream reset")).
		Reply("std1 is ready.")
	loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

	if _, err := loop.RunTurn(context.Background(), "make std1"); !errors.Is(err, ErrModelCall) {
		t.Fatalf("error = %v, want ErrModelCall", err)
	}

	reply, err := loop.RunTurn(context.Background(), "make std1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if reply != "std1 is ready." {
		t.Errorf("reply = %q", reply)
	}
	var users int
	for _, turn := range loop.Conversation().Turns() {
		if turn.Role == RoleUser && turn.Content == "make std1" {
			users++
		}
	}
	if users != 1 {
		t.Errorf("user turn appears %d times, want 1", users)
	}

	t.Run("same message after a completed exchange is a new turn", func(t *testing.T) {
		client := NewScriptedClient().Reply("Once.").Reply("Twice.")
		loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)

		for _, want := range []string{"Once.", "Twice."} {
			reply, err := loop.RunTurn(context.Background(), "again")
			if err != nil {
				t.Fatalf("RunTurn: %v", err)
			}
			if reply != want {
				t.Errorf("reply = %q, want %q", reply, want)
			}
		}
		var users int
		for _, turn := range loop.Conversation().Turns() {
			if turn.Role == RoleUser {
				users++
			}
		}
		if users != 2 {
			t.Errorf("transcript has %d user turns, want 2", users)
		}
	})
}

func TestRefreshContext(t *testing.T) {
	sess := comsol.NewMemSession("m")
	loop, _ := newTestLoop(NewScriptedClient(), sess, nil)
	before := loop.Conversation().Turns()[0].Content

	// The engine changes outside any turn, e.g. an edit made directly
	// in the desktop UI.
	if err := sess.SetParameter("L_beam", "10[cm]"); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	loop.RefreshContext()

	after := loop.Conversation().Turns()[0].Content
	if after == before {
		t.Error("system turn unchanged after refresh")
	}
	if !strings.Contains(after, "L_beam") {
		t.Errorf("refreshed snapshot missing L_beam:\n%s", after)
	}
}

func TestRunTurnSessionSwap(t *testing.T) {
	t.Run("new_model swaps the held session", func(t *testing.T) {
		factory := func(ctx context.Context, name string) (comsol.Session, error) {
			return comsol.NewMemSession(name), nil
		}
		client := NewScriptedClient().
			ToolBatch(invocation("c1", "new_model", map[string]any{"name": "fresh"})).
			Reply("Started a fresh model.")
		loop, holder := newTestLoop(client, comsol.NewMemSession("old"), factory)

		if _, err := loop.RunTurn(context.Background(), "start over"); err != nil {
			t.Fatalf("RunTurn: %v", err)
		}
		if got := holder.Current().Name(); got != "fresh" {
			t.Errorf("held session = %q, want fresh", got)
		}
	})

	t.Run("unstable candidate keeps the old session", func(t *testing.T) {
		factory := func(ctx context.Context, name string) (comsol.Session, error) {
			bad := comsol.NewMemSession(name)
			bad.FailPing(fmt.Errorf("no heartbeat"))
			return bad, nil
		}
		client := NewScriptedClient().
			ToolBatch(invocation("c1", "new_model", map[string]any{"name": "doomed"})).
			Reply("Could not start a new model.")
		loop, holder := newTestLoop(client, comsol.NewMemSession("old"), factory)

		if _, err := loop.RunTurn(context.Background(), "start over"); err != nil {
			t.Fatalf("swap failure escaped the loop: %v", err)
		}
		if got := holder.Current().Name(); got != "old" {
			t.Errorf("held session = %q, want old", got)
		}
		result := toolResult(t, client.Calls()[1], "c1")
		if !strings.Contains(result, "not adopted") {
			t.Errorf("result = %q", result)
		}
	})
}

func TestRunTurnRoundBudget(t *testing.T) {
	// A model that only ever requests tools never produces a reply.
	client := NewScriptedClient()
	for i := 0; i < 10; i++ {
		client.ToolBatch(invocation(fmt.Sprintf("c%d", i), "create_study",
			map[string]any{"name": fmt.Sprintf("std%d", i)}))
	}
	loop, _ := newTestLoop(client, comsol.NewMemSession("m"), nil)
	loop.MaxRounds = 3

	_, err := loop.RunTurn(context.Background(), "loop forever")
	if err == nil || !strings.Contains(err.Error(), "3 rounds") {
		t.Errorf("error = %v, want round budget failure", err)
	}
}

// toolResult extracts the result content for one invocation ID from a
// recorded model-call transcript.
func toolResult(t *testing.T, transcript []Turn, id string) string {
	t.Helper()
	for _, turn := range transcript {
		if turn.Role == RoleTool && turn.InvocationID == id {
			return turn.Content
		}
	}
	t.Fatalf("no tool result for invocation %s", id)
	return ""
}
