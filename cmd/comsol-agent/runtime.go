// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/comsol-agent/cmd/comsol-agent/config"
	"github.com/AleutianAI/comsol-agent/services/agent"
	"github.com/AleutianAI/comsol-agent/services/comsol"
)

// buildLoop wires the engine session, model client, tool catalogue and
// loop from the effective configuration.
func buildLoop(ctx context.Context, cfg *config.AgentConfig) (*agent.Loop, error) {
	factory, err := sessionFactory(cfg)
	if err != nil {
		return nil, err
	}

	initial, err := factory(ctx, "Model")
	if err != nil {
		return nil, fmt.Errorf("connect to the engine: %w", err)
	}

	client, err := modelClient(cfg)
	if err != nil {
		return nil, err
	}

	return agent.NewLoop(agent.LoopConfig{
		Client:   client,
		Registry: agent.NewCatalog(agent.CatalogConfig{NewSession: factory}),
		Holder:   comsol.NewHolder(initial),
	}), nil
}

// sessionFactory selects the engine backend.
func sessionFactory(cfg *config.AgentConfig) (agent.SessionFactory, error) {
	switch cfg.Engine.Mode {
	case "memory":
		return func(ctx context.Context, name string) (comsol.Session, error) {
			return comsol.NewMemSession(name), nil
		}, nil
	case "bridge", "":
		bridgeCfg := comsol.BridgeConfig{
			BaseURL: cfg.Engine.BaseURL,
			Timeout: time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		}
		return func(ctx context.Context, name string) (comsol.Session, error) {
			return comsol.NewProject(ctx, bridgeCfg, name)
		}, nil
	default:
		return nil, fmt.Errorf("unknown engine mode %q (use bridge or memory)", cfg.Engine.Mode)
	}
}

// modelClient selects the language model backend.
func modelClient(cfg *config.AgentConfig) (agent.Client, error) {
	switch cfg.Model.Backend {
	case "scripted":
		// Offline smoke mode: replies without a model so the engine
		// wiring can be exercised end to end.
		return agent.NewScriptedClient().
			Reply("Scripted mode: no language model is configured. Engine wiring is live."), nil
	case "openai", "":
		return agent.NewOpenAIClient(cfg.Model.Name)
	default:
		return nil, fmt.Errorf("unknown model backend %q (use openai or scripted)", cfg.Model.Backend)
	}
}
