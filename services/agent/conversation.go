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
	"sync"
)

// Conversation is the ordered transcript of one session. Turn 0 is
// always the system turn; all other turns are appended and never
// removed. The system turn's content is replaced in place whenever the
// engine context is refreshed, so the model always reasons from the
// current snapshot.
//
// The transcript is the session's only memory; it does not survive a
// process restart.
//
// Thread Safety:
//
//	Conversation is safe for concurrent use. In normal operation the
//	loop is the only writer.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewConversation creates a transcript with its system turn.
func NewConversation(systemContent string) *Conversation {
	return &Conversation{
		turns: []Turn{{Role: RoleSystem, Content: systemContent}},
	}
}

// Append adds a turn to the end of the transcript.
func (c *Conversation) Append(turn Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
}

// SetSystem replaces the system turn's content in place.
func (c *Conversation) SetSystem(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns[0].Content = content
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns the final turn, or false on a fresh transcript with
// only the system turn.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) < 2 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// PendingUser returns the most recent user turn that has not yet been
// answered with a plain assistant reply. A user turn stays pending
// while the tail behind it holds only tool results and assistant turns
// that requested more tools.
func (c *Conversation) PendingUser() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.turns) - 1; i >= 1; i-- {
		turn := c.turns[i]
		switch turn.Role {
		case RoleUser:
			return turn, true
		case RoleAssistant:
			if len(turn.Invocations) == 0 {
				return Turn{}, false
			}
		}
	}
	return Turn{}, false
}

// MarshalJSON serializes the transcript as a plain turn array.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Turns())
}
