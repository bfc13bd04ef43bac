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

import "testing"

func TestLookupPhysics(t *testing.T) {
	t.Run("display name", func(t *testing.T) {
		info, ok := LookupPhysics("Laminar Flow")
		if !ok {
			t.Fatal("expected catalogue match")
		}
		if info.InterfaceID != "LaminarFlow" || info.DefaultTag != "spf" {
			t.Errorf("unexpected info: %+v", info)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		info, ok := LookupPhysics("laminar flow")
		if !ok || info.InterfaceID != "LaminarFlow" {
			t.Errorf("expected case-insensitive match, got %+v ok=%v", info, ok)
		}
	})

	t.Run("interface id", func(t *testing.T) {
		info, ok := LookupPhysics("HeatTransfer")
		if !ok || info.DefaultTag != "ht" {
			t.Errorf("expected ID match, got %+v ok=%v", info, ok)
		}
	})

	t.Run("unknown name falls through", func(t *testing.T) {
		info, ok := LookupPhysics("Quantum Gravity")
		if ok {
			t.Error("expected no catalogue match")
		}
		if info.InterfaceID != "Quantum Gravity" || info.DefaultTag != "" {
			t.Errorf("expected raw fallback, got %+v", info)
		}
	})
}
