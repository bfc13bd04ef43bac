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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var bridgeTracer = otel.Tracer("comsolagent.comsol.bridge")

// BridgeSession implements Session against the mph bridge sidecar, a
// small HTTP/JSON server wrapping the COMSOL Java client. One bridge
// process serves one live project at a time; replacing the project
// goes through NewProject plus Holder.Swap.
//
// Thread Safety:
//
//	BridgeSession itself is stateless apart from its HTTP client, but
//	the engine behind it is a single mutable resource. Callers must
//	serialize mutating operations.
type BridgeSession struct {
	httpClient *http.Client
	baseURL    string
	name       string
}

// BridgeConfig configures a BridgeSession.
type BridgeConfig struct {
	// BaseURL is the bridge sidecar address, e.g. "http://127.0.0.1:2036".
	BaseURL string

	// Timeout bounds a single bridge request. Solve and Evaluate ignore
	// it and rely on the caller's context, since a solve may take
	// arbitrarily long. Defaults to 2 minutes.
	Timeout time.Duration
}

// NewBridgeSession creates a session handle for a project already
// loaded in the bridge sidecar.
//
// Inputs:
//
//	cfg - Bridge address and timeout.
//	name - Display name for the session (project name).
//
// Outputs:
//
//	*BridgeSession - The session handle. No liveness check is made
//	here; use Ping or Holder.Swap for that.
func NewBridgeSession(cfg BridgeConfig, name string) (*BridgeSession, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("bridge base URL not set")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	slog.Info("Initializing COMSOL bridge session",
		"base_url", cfg.BaseURL,
		"project", name,
	)
	return &BridgeSession{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		name:       name,
	}, nil
}

// NewProject asks the bridge to create a fresh empty project and
// returns a handle to it. The caller is responsible for swapping it
// into the Holder, which performs the liveness check.
func NewProject(ctx context.Context, cfg BridgeConfig, name string) (*BridgeSession, error) {
	sess, err := NewBridgeSession(cfg, name)
	if err != nil {
		return nil, err
	}
	if err := sess.post(ctx, "/project/new", map[string]string{"name": name}, nil); err != nil {
		return nil, fmt.Errorf("create project %q: %w", name, err)
	}
	return sess, nil
}

type bridgeNodeInfo struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
	Type string `json:"type"`
}

// Name implements Session.
func (b *BridgeSession) Name() string { return b.name }

// List implements Session.
func (b *BridgeSession) List(category Category) ([]string, error) {
	var out struct {
		Names []string `json:"names"`
	}
	if err := b.get(context.Background(), "/model/list/"+url.PathEscape(string(category)), &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}
	return out.Names, nil
}

// Parameters implements Session.
func (b *BridgeSession) Parameters() (map[string]string, error) {
	var out struct {
		Parameters map[string]string `json:"parameters"`
	}
	if err := b.get(context.Background(), "/model/parameters", &out); err != nil {
		return nil, fmt.Errorf("fetch parameters: %w", err)
	}
	return out.Parameters, nil
}

// SetParameter implements Session.
func (b *BridgeSession) SetParameter(name, value string) error {
	body := map[string]string{"name": name, "value": value}
	if err := b.post(context.Background(), "/model/parameters", body, nil); err != nil {
		return fmt.Errorf("set parameter %q: %w", name, err)
	}
	return nil
}

// Node implements Session.
func (b *BridgeSession) Node(path ...string) (Node, error) {
	node := &bridgeNode{sess: b, path: path}
	var out bridgeNodeInfo
	err := b.get(context.Background(), node.endpoint(""), &out)
	if err != nil {
		if isBridgeNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, strings.Join(path, "/"))
		}
		return nil, fmt.Errorf("lookup node %s: %w", strings.Join(path, "/"), err)
	}
	node.info = out
	return node, nil
}

// Root implements Session.
func (b *BridgeSession) Root() Node {
	return &bridgeNode{sess: b, info: bridgeNodeInfo{Name: b.name, Tag: "root", Type: "Model"}}
}

// Build implements Session.
func (b *BridgeSession) Build(geometry string) error {
	if err := b.post(context.Background(), "/model/build", map[string]string{"geometry": geometry}, nil); err != nil {
		return fmt.Errorf("build geometry: %w", err)
	}
	return nil
}

// Mesh implements Session.
func (b *BridgeSession) Mesh(name string) error {
	if err := b.post(context.Background(), "/model/mesh", map[string]string{"mesh": name}, nil); err != nil {
		return fmt.Errorf("build mesh: %w", err)
	}
	return nil
}

// Solve implements Session.
//
// Solve streams no progress; it blocks until the bridge reports the
// study finished. The per-request timeout is bypassed because solves
// are unbounded; cancellation comes from ctx only.
func (b *BridgeSession) Solve(ctx context.Context, study string) error {
	ctx, span := bridgeTracer.Start(ctx, "BridgeSession.Solve")
	defer span.End()
	span.SetAttributes(attribute.String("comsol.study", study))

	err := b.doJSON(ctx, http.MethodPost, "/model/solve", map[string]string{"study": study}, nil, noTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("solve study %q: %w", study, err)
	}
	return nil
}

// Evaluate implements Session.
func (b *BridgeSession) Evaluate(ctx context.Context, expression, unit string, opts *EvalOptions) (string, error) {
	ctx, span := bridgeTracer.Start(ctx, "BridgeSession.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("comsol.expression", expression))

	body := map[string]any{
		"expression": expression,
		"unit":       unit,
	}
	if opts != nil {
		if opts.Dataset != "" {
			body["dataset"] = opts.Dataset
		}
		if opts.TimeStep != 0 {
			body["time_step"] = opts.TimeStep
		}
		if opts.SweepStep != 0 {
			body["sweep_step"] = opts.SweepStep
		}
	}
	var out struct {
		Value string `json:"value"`
	}
	err := b.doJSON(ctx, http.MethodPost, "/model/evaluate", body, &out, noTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if strings.Contains(err.Error(), "no solution") {
			return "", ErrNoSolution
		}
		return "", fmt.Errorf("evaluate %q: %w", expression, err)
	}
	return out.Value, nil
}

// Save implements Session.
func (b *BridgeSession) Save(path string) error {
	if err := b.post(context.Background(), "/model/save", map[string]string{"path": path}, nil); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// ExportImage implements Session.
func (b *BridgeSession) ExportImage(plotGroup, path string) error {
	body := map[string]string{"plot_group": plotGroup, "path": path}
	if err := b.post(context.Background(), "/model/export/image", body, nil); err != nil {
		return fmt.Errorf("export image for %q: %w", plotGroup, err)
	}
	return nil
}

// Ping implements Session.
func (b *BridgeSession) Ping(ctx context.Context) error {
	if err := b.get(ctx, "/health", nil); err != nil {
		return fmt.Errorf("bridge health check: %w", err)
	}
	return nil
}

// bridgeNode addresses one model tree node by path.
type bridgeNode struct {
	sess *BridgeSession
	path []string
	info bridgeNodeInfo
}

func (n *bridgeNode) endpoint(suffix string) string {
	parts := make([]string, len(n.path))
	for i, p := range n.path {
		parts[i] = url.PathEscape(p)
	}
	return "/model/node/" + strings.Join(parts, "/") + suffix
}

// Name implements Node.
func (n *bridgeNode) Name() string { return n.info.Name }

// Tag implements Node.
func (n *bridgeNode) Tag() string { return n.info.Tag }

// Type implements Node.
func (n *bridgeNode) Type() string { return n.info.Type }

// Children implements Node.
func (n *bridgeNode) Children() ([]Node, error) {
	var out struct {
		Nodes []bridgeNodeInfo `json:"nodes"`
	}
	if err := n.sess.get(context.Background(), n.endpoint("/children"), &out); err != nil {
		return nil, fmt.Errorf("list children of %s: %w", strings.Join(n.path, "/"), err)
	}
	children := make([]Node, len(out.Nodes))
	for i, info := range out.Nodes {
		children[i] = &bridgeNode{
			sess: n.sess,
			path: append(append([]string(nil), n.path...), info.Name),
			info: info,
		}
	}
	return children, nil
}

// Properties implements Node.
func (n *bridgeNode) Properties() (map[string]string, error) {
	var out struct {
		Properties map[string]string `json:"properties"`
	}
	if err := n.sess.get(context.Background(), n.endpoint("/properties"), &out); err != nil {
		return nil, fmt.Errorf("read properties of %s: %w", strings.Join(n.path, "/"), err)
	}
	return out.Properties, nil
}

// SetProperty implements Node.
func (n *bridgeNode) SetProperty(name, value string) error {
	body := map[string]string{"name": name, "value": value}
	if err := n.sess.post(context.Background(), n.endpoint("/properties"), body, nil); err != nil {
		return fmt.Errorf("set property %q on %s: %w", name, strings.Join(n.path, "/"), err)
	}
	return nil
}

// Create implements Node.
func (n *bridgeNode) Create(featureType, name string) (Node, error) {
	body := map[string]string{"type": featureType, "name": name}
	var out bridgeNodeInfo
	if err := n.sess.post(context.Background(), n.endpoint("/children"), body, &out); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, name)
		}
		return nil, fmt.Errorf("create %s %q: %w", featureType, name, err)
	}
	return &bridgeNode{
		sess: n.sess,
		path: append(append([]string(nil), n.path...), out.Name),
		info: out,
	}, nil
}

// SetSelection implements Node.
func (n *bridgeNode) SetSelection(sel Selection) error {
	if sel.IsZero() {
		return fmt.Errorf("%w: empty selection", ErrInvalidSelection)
	}
	body := map[string]any{"all": sel.All, "entities": sel.Entities}
	if err := n.sess.post(context.Background(), n.endpoint("/selection"), body, nil); err != nil {
		return fmt.Errorf("set selection on %s: %w", strings.Join(n.path, "/"), err)
	}
	return nil
}

// Remove implements Node.
func (n *bridgeNode) Remove() error {
	if err := n.sess.doJSON(context.Background(), http.MethodDelete, n.endpoint(""), nil, nil, 0); err != nil {
		return fmt.Errorf("remove %s: %w", strings.Join(n.path, "/"), err)
	}
	return nil
}

// noTimeout disables the per-request client timeout for unbounded
// operations (solve, evaluate).
const noTimeout = time.Duration(-1)

func (b *BridgeSession) get(ctx context.Context, path string, out any) error {
	return b.doJSON(ctx, http.MethodGet, path, nil, out, 0)
}

func (b *BridgeSession) post(ctx context.Context, path string, body, out any) error {
	return b.doJSON(ctx, http.MethodPost, path, body, out, 0)
}

func (b *BridgeSession) doJSON(ctx context.Context, method, path string, body, out any, timeout time.Duration) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal bridge request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create bridge request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := b.httpClient
	if timeout == noTimeout {
		client = &http.Client{Transport: b.httpClient.Transport}
	}

	resp, err := client.Do(req)
	if err != nil {
		slog.Error("Bridge request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("bridge request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read bridge response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("bridge status %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("bridge status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			slog.Error("Failed to parse bridge response", "path", path, "error", err)
			return fmt.Errorf("parse bridge response: %w", err)
		}
	}
	return nil
}

func isBridgeNotFound(err error) bool {
	return strings.Contains(err.Error(), "status 404")
}
