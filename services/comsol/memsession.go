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
	"strings"
	"sync"
)

// MemSession is an in-memory Session implementation.
//
// It backs the test suite and the shells' dry-run engine mode. It
// enforces the same structural rules the live engine does: duplicate
// names are rejected, evaluation requires a prior solve, and node
// lookups fail with ErrNodeNotFound. Failure-injection knobs let tests
// exercise the snapshot's graceful degradation and the holder's
// swap-on-success semantics.
//
// Thread Safety:
//
//	MemSession is safe for concurrent use, though the agent loop
//	serializes access in normal operation.
type MemSession struct {
	mu sync.Mutex

	name   string
	root   *MemNode
	params map[string]string

	// ordered parameter names so snapshots render deterministically.
	paramOrder []string

	solved      map[string]bool
	savedPaths  []string
	exported    []string
	evalResults map[string]string

	pingErr  error
	listErrs map[Category]error
	solveErr error
	saveErr  error
}

// NewMemSession creates an empty in-memory session with all category
// containers present.
func NewMemSession(name string) *MemSession {
	root := &MemNode{name: "root", tag: "root", typ: "Model"}
	for _, cat := range Categories() {
		root.children = append(root.children, &MemNode{
			name:   string(cat),
			tag:    string(cat),
			typ:    "Group",
			parent: root,
		})
	}
	return &MemSession{
		name:        name,
		root:        root,
		params:      make(map[string]string),
		solved:      make(map[string]bool),
		evalResults: make(map[string]string),
		listErrs:    make(map[Category]error),
	}
}

// Name implements Session.
func (s *MemSession) Name() string { return s.name }

// List implements Session.
func (s *MemSession) List(category Category) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.listErrs[category]; err != nil {
		return nil, err
	}
	group := s.root.child(string(category))
	if group == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, category)
	}
	names := make([]string, 0, len(group.children))
	for _, c := range group.children {
		names = append(names, c.name)
	}
	return names, nil
}

// Parameters implements Session.
func (s *MemSession) Parameters() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out, nil
}

// SetParameter implements Session.
func (s *MemSession) SetParameter(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("parameter name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.params[name]; !ok {
		s.paramOrder = append(s.paramOrder, name)
	}
	s.params[name] = value
	return nil
}

// ParameterOrder returns parameter names in insertion order.
func (s *MemSession) ParameterOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paramOrder...)
}

// Node implements Session.
func (s *MemSession) Node(path ...string) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.root
	for _, elem := range path {
		next := node.child(elem)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, strings.Join(path, "/"))
		}
		node = next
	}
	return node, nil
}

// Root implements Session.
func (s *MemSession) Root() Node { return s.root }

// Build implements Session.
func (s *MemSession) Build(geometry string) error {
	if geometry == "" {
		return nil
	}
	node, err := s.Node(string(CategoryGeometries), geometry)
	if err != nil {
		return err
	}
	return node.SetProperty("built", "true")
}

// Mesh implements Session.
func (s *MemSession) Mesh(name string) error {
	if name == "" {
		return nil
	}
	node, err := s.Node(string(CategoryMeshes), name)
	if err != nil {
		return err
	}
	return node.SetProperty("built", "true")
}

// Solve implements Session.
func (s *MemSession) Solve(ctx context.Context, study string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.Node(string(CategoryStudies), study); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.solveErr != nil {
		return s.solveErr
	}
	s.solved[study] = true

	// A solve produces a solution dataset named after the study.
	datasets := s.root.child(string(CategoryDatasets))
	dsName := study + "/Solution"
	if datasets.child(dsName) == nil {
		datasets.children = append(datasets.children, &MemNode{
			name:   dsName,
			tag:    fmt.Sprintf("dset%d", len(datasets.children)+1),
			typ:    "Solution",
			parent: datasets,
		})
	}
	return nil
}

// Evaluate implements Session.
func (s *MemSession) Evaluate(ctx context.Context, expression, unit string, opts *EvalOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.solved) == 0 {
		return "", ErrNoSolution
	}
	if v, ok := s.evalResults[expression]; ok {
		return v, nil
	}
	return "0", nil
}

// Save implements Session.
func (s *MemSession) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedPaths = append(s.savedPaths, path)
	return nil
}

// ExportImage implements Session.
func (s *MemSession) ExportImage(plotGroup, path string) error {
	if _, err := s.Node(string(CategoryPlots), plotGroup); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported = append(s.exported, plotGroup+" -> "+path)
	return nil
}

// Ping implements Session.
func (s *MemSession) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

// SavedPaths returns every path Save was called with, in order.
func (s *MemSession) SavedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.savedPaths...)
}

// Solved reports whether a study has been solved.
func (s *MemSession) Solved(study string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solved[study]
}

// SetEvalResult fixes the value Evaluate returns for an expression.
func (s *MemSession) SetEvalResult(expression, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evalResults[expression] = value
}

// FailPing makes Ping return err (nil restores health).
func (s *MemSession) FailPing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// FailList makes List return err for one category.
func (s *MemSession) FailList(category Category, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErrs[category] = err
}

// FailSolve makes Solve fail regardless of study.
func (s *MemSession) FailSolve(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solveErr = err
}

// MustNode returns a node as *MemNode for test seeding, panicking if
// the path does not resolve.
func (s *MemSession) MustNode(path ...string) *MemNode {
	node, err := s.Node(path...)
	if err != nil {
		panic(err)
	}
	return node.(*MemNode)
}

// MemNode is the MemSession node implementation.
type MemNode struct {
	name, tag, typ string
	parent         *MemNode
	children       []*MemNode
	props          map[string]string
	selection      Selection

	propErr  error
	childErr error
}

// Name implements Node.
func (n *MemNode) Name() string { return n.name }

// Tag implements Node.
func (n *MemNode) Tag() string { return n.tag }

// Type implements Node.
func (n *MemNode) Type() string { return n.typ }

// Children implements Node.
func (n *MemNode) Children() ([]Node, error) {
	if n.childErr != nil {
		return nil, n.childErr
	}
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

// Properties implements Node.
func (n *MemNode) Properties() (map[string]string, error) {
	if n.propErr != nil {
		return nil, n.propErr
	}
	out := make(map[string]string, len(n.props))
	for k, v := range n.props {
		out[k] = v
	}
	return out, nil
}

// SetProperty implements Node.
func (n *MemNode) SetProperty(name, value string) error {
	if n.props == nil {
		n.props = make(map[string]string)
	}
	n.props[name] = value
	return nil
}

// Create implements Node.
func (n *MemNode) Create(featureType, name string) (Node, error) {
	if n.child(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, name)
	}
	child := &MemNode{
		name:   name,
		tag:    strings.ToLower(strings.ReplaceAll(name, " ", "")),
		typ:    featureType,
		parent: n,
	}
	n.children = append(n.children, child)
	return child, nil
}

// SetSelection implements Node.
func (n *MemNode) SetSelection(sel Selection) error {
	if sel.IsZero() {
		return fmt.Errorf("%w: empty selection", ErrInvalidSelection)
	}
	n.selection = sel
	return nil
}

// Remove implements Node.
func (n *MemNode) Remove() error {
	if n.parent == nil {
		return fmt.Errorf("cannot remove root node")
	}
	for i, c := range n.parent.children {
		if c == n {
			n.parent.children = append(n.parent.children[:i], n.parent.children[i+1:]...)
			n.parent = nil
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNodeNotFound, n.name)
}

// Selection returns the node's current selection (test helper).
func (n *MemNode) Selection() Selection { return n.selection }

// FailProperties makes Properties return err.
func (n *MemNode) FailProperties(err error) { n.propErr = err }

// FailChildren makes Children return err.
func (n *MemNode) FailChildren(err error) { n.childErr = err }

func (n *MemNode) child(name string) *MemNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}
