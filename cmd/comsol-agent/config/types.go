// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

// AgentConfig is the on-disk configuration for the agent shells.
type AgentConfig struct {
	// Engine selects and addresses the modeling engine backend.
	Engine EngineConfig `yaml:"engine"`

	// Model selects the language model backend.
	Model ModelConfig `yaml:"model"`

	// Logging configures the shells' log output.
	Logging LoggingConfig `yaml:"logging"`

	// Server configures the web chat listener.
	Server ServerConfig `yaml:"server"`
}

type EngineConfig struct {
	// Mode is "bridge" for the engine sidecar or "memory" for the
	// in-process dry-run engine.
	Mode string `yaml:"mode"`

	// BaseURL addresses the engine sidecar, e.g. "http://localhost:8088".
	BaseURL string `yaml:"base_url,omitempty"`

	// TimeoutSeconds bounds ordinary engine calls. Solve and evaluate
	// are exempt; they run until the engine answers.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

type ModelConfig struct {
	// Backend is "openai" or "scripted" (offline smoke mode).
	Backend string `yaml:"backend"`

	// Name overrides the backend's default model.
	Name string `yaml:"name,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

type ServerConfig struct {
	// Addr is the web chat listen address, e.g. ":8080".
	Addr string `yaml:"addr,omitempty"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() AgentConfig {
	return AgentConfig{
		Engine: EngineConfig{
			Mode:           "bridge",
			BaseURL:        "http://localhost:8088",
			TimeoutSeconds: 120,
		},
		Model: ModelConfig{
			Backend: "openai",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
