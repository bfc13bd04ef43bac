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
	"encoding/json"
	"testing"
)

func TestConversation(t *testing.T) {
	t.Run("system turn is always first", func(t *testing.T) {
		conv := NewConversation("instructions")
		conv.Append(Turn{Role: RoleUser, Content: "hello"})
		conv.Append(Turn{Role: RoleAssistant, Content: "hi"})

		turns := conv.Turns()
		if len(turns) != 3 {
			t.Fatalf("expected 3 turns, got %d", len(turns))
		}
		if turns[0].Role != RoleSystem || turns[0].Content != "instructions" {
			t.Errorf("turn 0 = %+v, want system turn", turns[0])
		}
	})

	t.Run("SetSystem replaces in place without reordering", func(t *testing.T) {
		conv := NewConversation("old snapshot")
		conv.Append(Turn{Role: RoleUser, Content: "hello"})
		conv.SetSystem("new snapshot")

		turns := conv.Turns()
		if turns[0].Content != "new snapshot" {
			t.Errorf("system content = %q, want %q", turns[0].Content, "new snapshot")
		}
		if len(turns) != 2 {
			t.Errorf("SetSystem changed turn count: %d", len(turns))
		}
		if turns[1].Role != RoleUser {
			t.Errorf("user turn moved: %+v", turns[1])
		}
	})

	t.Run("Turns returns a copy", func(t *testing.T) {
		conv := NewConversation("sys")
		conv.Append(Turn{Role: RoleUser, Content: "a"})

		turns := conv.Turns()
		turns[1].Content = "mutated"

		if got, _ := conv.Last(); got.Content != "a" {
			t.Errorf("transcript mutated through returned slice: %q", got.Content)
		}
	})

	t.Run("Last on fresh transcript", func(t *testing.T) {
		conv := NewConversation("sys")
		if _, ok := conv.Last(); ok {
			t.Error("Last reported a turn on a system-only transcript")
		}
		conv.Append(Turn{Role: RoleUser, Content: "q"})
		last, ok := conv.Last()
		if !ok || last.Content != "q" {
			t.Errorf("Last = %+v, %v; want user turn", last, ok)
		}
	})

	t.Run("marshals as a turn array", func(t *testing.T) {
		conv := NewConversation("sys")
		conv.Append(Turn{Role: RoleUser, Content: "q"})

		raw, err := json.Marshal(conv)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded []Turn
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(decoded) != 2 || decoded[1].Role != RoleUser {
			t.Errorf("decoded = %+v", decoded)
		}
	})
}
