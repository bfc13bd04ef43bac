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
	"strings"
	"testing"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

func TestSnapshot(t *testing.T) {
	t.Run("nil session yields the no-session text", func(t *testing.T) {
		s := &Snapshotter{}
		if got := s.Snapshot(nil); got != NoSessionSnapshot {
			t.Errorf("Snapshot(nil) = %q", got)
		}
	})

	t.Run("renders categories, parameters and physics trees", func(t *testing.T) {
		sess := comsol.NewMemSession("demo")
		if err := sess.SetParameter("inlet_v", "10[m/s]"); err != nil {
			t.Fatal(err)
		}
		physics := sess.MustNode("physics")
		spf, err := physics.Create("LaminarFlow", "spf")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := spf.(*comsol.MemNode).Create("InletBoundary", "inlet1"); err != nil {
			t.Fatal(err)
		}

		got := (&Snapshotter{}).Snapshot(sess)
		for _, want := range []string{
			"=== Model Overview (demo) ===",
			"inlet_v = 10[m/s]",
			"spf [LaminarFlow]",
			"  inlet1 [InletBoundary]",
			"No solution datasets yet",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("snapshot missing %q\n%s", want, got)
			}
		}
	})

	t.Run("one failing category degrades in place", func(t *testing.T) {
		sess := comsol.NewMemSession("flaky")
		sess.FailList(comsol.CategoryStudies, errors.New("engine hiccup"))
		if err := sess.SetParameter("L", "1[m]"); err != nil {
			t.Fatal(err)
		}

		got := (&Snapshotter{}).Snapshot(sess)
		if !strings.Contains(got, "(error fetching studies)") {
			t.Errorf("snapshot missing studies error annotation\n%s", got)
		}
		// The rest of the snapshot still renders.
		if !strings.Contains(got, "L = 1[m]") {
			t.Errorf("healthy sections dropped alongside the failing one\n%s", got)
		}
	})

	t.Run("unreadable node properties do not abort the walk", func(t *testing.T) {
		sess := comsol.NewMemSession("broken-node")
		physics := sess.MustNode("physics")
		if _, err := physics.Create("LaminarFlow", "spf"); err != nil {
			t.Fatal(err)
		}
		if _, err := physics.Create("HeatTransfer", "ht"); err != nil {
			t.Fatal(err)
		}
		sess.MustNode("physics", "spf").FailProperties(errors.New("stale handle"))

		got := (&Snapshotter{}).Snapshot(sess)
		if !strings.Contains(got, "(properties unreadable)") {
			t.Errorf("missing containment annotation\n%s", got)
		}
		if !strings.Contains(got, "ht [HeatTransfer]") {
			t.Errorf("sibling node dropped after containment\n%s", got)
		}
	})

	t.Run("depth bound stops recursion", func(t *testing.T) {
		sess := comsol.NewMemSession("deep")
		node := sess.MustNode("physics")
		for i, name := range []string{"spf", "inlet", "sub", "subsub"} {
			created, err := node.Create("T", name)
			if err != nil {
				t.Fatalf("level %d: %v", i, err)
			}
			node = created.(*comsol.MemNode)
		}

		got := (&Snapshotter{MaxDepth: 2}).Snapshot(sess)
		if !strings.Contains(got, "inlet") {
			t.Errorf("depth 1 missing\n%s", got)
		}
		if strings.Contains(got, "subsub") {
			t.Errorf("recursion exceeded MaxDepth\n%s", got)
		}
	})

	t.Run("solved study surfaces its dataset", func(t *testing.T) {
		sess := comsol.NewMemSession("solved")
		if _, err := sess.MustNode("studies").Create("Stationary", "std1"); err != nil {
			t.Fatal(err)
		}
		if err := sess.Solve(context.Background(), "std1"); err != nil {
			t.Fatal(err)
		}

		got := (&Snapshotter{}).Snapshot(sess)
		if !strings.Contains(got, "Solution datasets available: std1/Solution") {
			t.Errorf("dataset diagnostics missing\n%s", got)
		}
	})
}
