// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package comsol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Holder guards the process-wide mutable session reference.
//
// The engine exposes no multi-session isolation to this layer, so the
// process holds at most one live session. Holder wraps that reference
// behind an accessor with single-writer discipline instead of a bare
// global. Replacing the session is transactional: the candidate must
// pass a liveness check before the swap, otherwise the old reference
// is retained and the attempt reports ErrEngineUnstable.
//
// Thread Safety:
//
//	Holder is safe for concurrent use. Note that safety of the Session
//	itself is the caller's responsibility; the agent loop serializes
//	all engine access.
type Holder struct {
	mu   sync.RWMutex
	sess Session
}

// NewHolder creates a holder around an initial session, which may be nil.
func NewHolder(initial Session) *Holder {
	return &Holder{sess: initial}
}

// Current returns the held session, or nil if none is held.
func (h *Holder) Current() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sess
}

// Swap replaces the held session with candidate after verifying it is
// minimally responsive.
//
// Description:
//
//	Pings the candidate first. On ping failure the previously held
//	session is retained and the error wraps ErrEngineUnstable so the
//	caller can report the failed creation without losing the working
//	session.
//
// Inputs:
//
//	ctx - Context for the liveness check.
//	candidate - The replacement session. Must not be nil.
//
// Outputs:
//
//	error - Non-nil if the candidate failed the liveness check.
func (h *Holder) Swap(ctx context.Context, candidate Session) error {
	if candidate == nil {
		return fmt.Errorf("%w: nil candidate session", ErrEngineUnstable)
	}

	if err := candidate.Ping(ctx); err != nil {
		slog.Warn("Candidate session failed liveness check, keeping current session",
			"candidate", candidate.Name(),
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrEngineUnstable, err)
	}

	h.mu.Lock()
	old := h.sess
	h.sess = candidate
	h.mu.Unlock()

	oldName := "(none)"
	if old != nil {
		oldName = old.Name()
	}
	slog.Info("Engine session replaced",
		"previous", oldName,
		"current", candidate.Name(),
	)
	return nil
}
