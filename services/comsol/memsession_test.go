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
	"errors"
	"testing"
)

func TestMemSession_CreateAndList(t *testing.T) {
	sess := NewMemSession("test")

	studies := sess.MustNode(string(CategoryStudies))
	if _, err := studies.Create("Stationary", "std1"); err != nil {
		t.Fatalf("create study: %v", err)
	}

	names, err := sess.List(CategoryStudies)
	if err != nil {
		t.Fatalf("list studies: %v", err)
	}
	if len(names) != 1 || names[0] != "std1" {
		t.Errorf("expected [std1], got %v", names)
	}
}

func TestMemSession_DuplicateCreateRejected(t *testing.T) {
	sess := NewMemSession("test")
	comps := sess.MustNode(string(CategoryComponents))

	if _, err := comps.Create("Component", "comp1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := comps.Create("Component", "comp1")
	if !errors.Is(err, ErrDuplicateEntity) {
		t.Fatalf("expected ErrDuplicateEntity, got %v", err)
	}

	names, _ := sess.List(CategoryComponents)
	if len(names) != 1 {
		t.Errorf("duplicate create must not mutate: got %v", names)
	}
}

func TestMemSession_EvaluateRequiresSolve(t *testing.T) {
	sess := NewMemSession("test")
	ctx := context.Background()

	_, err := sess.Evaluate(ctx, "spf.U", "m/s", nil)
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("expected ErrNoSolution before solve, got %v", err)
	}

	sess.MustNode(string(CategoryStudies)).Create("Stationary", "std1")
	if err := sess.Solve(ctx, "std1"); err != nil {
		t.Fatalf("solve: %v", err)
	}

	sess.SetEvalResult("spf.U", "1.25")
	got, err := sess.Evaluate(ctx, "spf.U", "m/s", nil)
	if err != nil {
		t.Fatalf("evaluate after solve: %v", err)
	}
	if got != "1.25" {
		t.Errorf("expected 1.25, got %q", got)
	}
}

func TestMemSession_SolveCreatesDataset(t *testing.T) {
	sess := NewMemSession("test")
	sess.MustNode(string(CategoryStudies)).Create("Stationary", "std1")

	if err := sess.Solve(context.Background(), "std1"); err != nil {
		t.Fatalf("solve: %v", err)
	}
	datasets, err := sess.List(CategoryDatasets)
	if err != nil {
		t.Fatalf("list datasets: %v", err)
	}
	if len(datasets) != 1 || datasets[0] != "std1/Solution" {
		t.Errorf("expected solve to register a dataset, got %v", datasets)
	}

	// Re-solving must not duplicate the dataset.
	if err := sess.Solve(context.Background(), "std1"); err != nil {
		t.Fatalf("re-solve: %v", err)
	}
	datasets, _ = sess.List(CategoryDatasets)
	if len(datasets) != 1 {
		t.Errorf("expected one dataset after re-solve, got %v", datasets)
	}
}

func TestMemSession_SolveUnknownStudy(t *testing.T) {
	sess := NewMemSession("test")
	err := sess.Solve(context.Background(), "nope")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestMemSession_NodeRemoval(t *testing.T) {
	sess := NewMemSession("test")
	sess.MustNode(string(CategoryPlots)).Create("PlotGroup", "pg1")

	node, err := sess.Node(string(CategoryPlots), "pg1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if err := node.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := sess.Node(string(CategoryPlots), "pg1"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected removed node to be gone, got %v", err)
	}
}

func TestMemSession_ExportRequiresPlot(t *testing.T) {
	sess := NewMemSession("test")
	if err := sess.ExportImage("missing", "/tmp/out.png"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}

	sess.MustNode(string(CategoryPlots)).Create("PlotGroup", "pg1")
	if err := sess.ExportImage("pg1", "/tmp/out.png"); err != nil {
		t.Fatalf("export: %v", err)
	}
}

func TestMemNode_FailureInjection(t *testing.T) {
	sess := NewMemSession("test")
	phys := sess.MustNode(string(CategoryPhysics))
	phys.Create("LaminarFlow", "spf")

	node := sess.MustNode(string(CategoryPhysics), "spf")
	node.FailProperties(errors.New("property server gone"))

	if _, err := node.Properties(); err == nil {
		t.Error("expected injected property failure")
	}
}
