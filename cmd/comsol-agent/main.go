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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/comsol-agent/cmd/comsol-agent/config"
	"github.com/AleutianAI/comsol-agent/pkg/logging"
)

var (
	configPath    string
	modelName     string
	modelBackend  string
	engineMode    string
	engineBaseURL string
	logLevel      string

	cfg    *config.AgentConfig
	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "comsol-agent",
		Short: "A conversational agent that drives a COMSOL Multiphysics session",
		Long: `comsol-agent connects a language model to a live COMSOL session.
You describe the simulation in plain language; the agent builds the
model step by step through the engine bridge and reports results.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			loaded, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
			cfg = loaded
			applyOverrides(cfg)

			logger = logging.New(logging.Config{
				Level:   cfg.Logging.Level,
				LogDir:  cfg.Logging.Dir,
				JSON:    cfg.Logging.JSON,
				Service: "cli",
			})
			logger.SetAsDefault()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

// applyOverrides folds command-line flags over the loaded config.
func applyOverrides(cfg *config.AgentConfig) {
	if modelName != "" {
		cfg.Model.Name = modelName
	}
	if modelBackend != "" {
		cfg.Model.Backend = modelBackend
	}
	if engineMode != "" {
		cfg.Engine.Mode = engineMode
	}
	if engineBaseURL != "" {
		cfg.Engine.BaseURL = engineBaseURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to agent.yaml (default ~/.comsol-agent/agent.yaml)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Override the language model name")
	rootCmd.PersistentFlags().StringVar(&modelBackend, "model-backend", "", "Language model backend: openai or scripted")
	rootCmd.PersistentFlags().StringVar(&engineMode, "engine", "", "Engine backend: bridge or memory")
	rootCmd.PersistentFlags().StringVar(&engineBaseURL, "engine-url", "", "Engine bridge base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(chatCmd)
}
