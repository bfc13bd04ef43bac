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
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// NoSessionSnapshot is the fixed snapshot text used when no engine
// session is held.
const NoSessionSnapshot = "No engine session is loaded. Use the new_model tool to create one."

// Snapshotter renders the engine session's current structure as one
// text block for the system turn.
//
// Every structural category is fetched independently; a failure in one
// renders as an inline "(error fetching X)" annotation so one broken
// subsystem never hides the rest. The physics feature walk is
// depth-first with per-node containment: a node whose properties are
// unreadable is annotated and skipped, not fatal.
type Snapshotter struct {
	// MaxDepth bounds the feature tree recursion. Zero means the
	// default of 4 levels (interface, feature, subfeature, settings).
	MaxDepth int
}

// Snapshot renders the session. A nil session yields NoSessionSnapshot.
func (s *Snapshotter) Snapshot(sess comsol.Session) string {
	if sess == nil {
		return NoSessionSnapshot
	}

	maxDepth := s.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 4
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Model Overview (%s) ===\n", sess.Name())
	for _, cat := range comsol.Categories() {
		names, err := sess.List(cat)
		if err != nil {
			slog.Warn("Snapshot category fetch failed", "category", cat, "error", err)
			fmt.Fprintf(&b, "%s: (error fetching %s)\n", cat, cat)
			continue
		}
		if len(names) == 0 {
			fmt.Fprintf(&b, "%s: (none)\n", cat)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", cat, strings.Join(names, ", "))
	}

	b.WriteString("\n=== Parameters ===\n")
	s.writeParameters(&b, sess)

	b.WriteString("\n=== Physics Feature Trees ===\n")
	s.writePhysicsTrees(&b, sess, maxDepth)

	b.WriteString("\n=== Materials ===\n")
	s.writeMaterials(&b, sess)

	b.WriteString("\n=== Diagnostics ===\n")
	s.writeDiagnostics(&b, sess)

	return b.String()
}

func (s *Snapshotter) writeParameters(b *strings.Builder, sess comsol.Session) {
	params, err := sess.Parameters()
	if err != nil {
		b.WriteString("(error fetching parameters)\n")
		return
	}
	if len(params) == 0 {
		b.WriteString("(none)\n")
		return
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "%s = %s\n", name, params[name])
	}
}

func (s *Snapshotter) writePhysicsTrees(b *strings.Builder, sess comsol.Session, maxDepth int) {
	names, err := sess.List(comsol.CategoryPhysics)
	if err != nil {
		b.WriteString("(error fetching physics)\n")
		return
	}
	if len(names) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, name := range names {
		node, err := sess.Node(string(comsol.CategoryPhysics), name)
		if err != nil {
			fmt.Fprintf(b, "%s: (error fetching node)\n", name)
			continue
		}
		s.writeNode(b, node, 0, maxDepth)
	}
}

// writeNode renders one node and recurses into its children depth-first,
// indenting two spaces per level. Unreadable properties or children are
// annotated inline and do not abort the walk.
func (s *Snapshotter) writeNode(b *strings.Builder, node comsol.Node, depth, maxDepth int) {
	indent := strings.Repeat("  ", depth)

	label := node.Name()
	if t := node.Type(); t != "" && t != label {
		label = fmt.Sprintf("%s [%s]", label, t)
	}
	fmt.Fprintf(b, "%s%s\n", indent, label)

	props, err := node.Properties()
	if err != nil {
		fmt.Fprintf(b, "%s  (properties unreadable)\n", indent)
	} else {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, "%s  %s = %s\n", indent, k, props[k])
		}
	}

	if depth+1 >= maxDepth {
		return
	}
	children, err := node.Children()
	if err != nil {
		fmt.Fprintf(b, "%s  (children unreadable)\n", indent)
		return
	}
	for _, child := range children {
		s.writeNode(b, child, depth+1, maxDepth)
	}
}

func (s *Snapshotter) writeMaterials(b *strings.Builder, sess comsol.Session) {
	names, err := sess.List(comsol.CategoryMaterials)
	if err != nil {
		b.WriteString("(error fetching materials)\n")
		return
	}
	if len(names) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, name := range names {
		node, err := sess.Node(string(comsol.CategoryMaterials), name)
		if err != nil {
			fmt.Fprintf(b, "%s: (error fetching node)\n", name)
			continue
		}
		props, err := node.Properties()
		if err != nil {
			fmt.Fprintf(b, "%s: (properties unreadable)\n", name)
			continue
		}
		if len(props) == 0 {
			fmt.Fprintf(b, "%s\n", name)
			continue
		}
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%s", k, props[k])
		}
		fmt.Fprintf(b, "%s (%s)\n", name, strings.Join(pairs, ", "))
	}
}

func (s *Snapshotter) writeDiagnostics(b *strings.Builder, sess comsol.Session) {
	datasets, err := sess.List(comsol.CategoryDatasets)
	if err != nil {
		b.WriteString("(error fetching datasets)\n")
		return
	}
	if len(datasets) == 0 {
		b.WriteString("No solution datasets yet. Run a study before evaluating results.\n")
		return
	}
	fmt.Fprintf(b, "Solution datasets available: %s\n", strings.Join(datasets, ", "))
}
