// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command webchat serves the agent loop over HTTP for the browser UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/comsol-agent/cmd/comsol-agent/config"
	"github.com/AleutianAI/comsol-agent/pkg/logging"
	"github.com/AleutianAI/comsol-agent/pkg/tracing"
	"github.com/AleutianAI/comsol-agent/services/agent"
	"github.com/AleutianAI/comsol-agent/services/comsol"
	"github.com/AleutianAI/comsol-agent/services/webchat"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Load(os.Getenv("COMSOL_AGENT_CONFIG"))
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		LogDir:  cfg.Logging.Dir,
		JSON:    true,
		Service: "webchat",
	})
	defer logger.Close()
	logger.SetAsDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.Init(ctx, "webchat")
	if err != nil {
		log.Fatalf("Error setting up the tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	loop, err := buildLoop(ctx, cfg)
	if err != nil {
		log.Fatalf("Error starting the agent: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	webchat.SetupRoutes(router, loop, webchat.NewMetrics(nil))

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Web chat listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown did not complete cleanly", "error", err)
	}
}

// buildLoop wires the engine session, model client and loop from the
// effective configuration.
func buildLoop(ctx context.Context, cfg *config.AgentConfig) (*agent.Loop, error) {
	var factory agent.SessionFactory
	switch cfg.Engine.Mode {
	case "memory":
		factory = func(ctx context.Context, name string) (comsol.Session, error) {
			return comsol.NewMemSession(name), nil
		}
	case "bridge", "":
		bridgeCfg := comsol.BridgeConfig{
			BaseURL: cfg.Engine.BaseURL,
			Timeout: time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		}
		factory = func(ctx context.Context, name string) (comsol.Session, error) {
			return comsol.NewProject(ctx, bridgeCfg, name)
		}
	default:
		return nil, fmt.Errorf("unknown engine mode %q (use bridge or memory)", cfg.Engine.Mode)
	}

	initial, err := factory(ctx, "Model")
	if err != nil {
		return nil, fmt.Errorf("connect to the engine: %w", err)
	}

	client, err := agent.NewOpenAIClient(cfg.Model.Name)
	if err != nil {
		return nil, err
	}

	return agent.NewLoop(agent.LoopConfig{
		Client:   client,
		Registry: agent.NewCatalog(agent.CatalogConfig{NewSession: factory}),
		Holder:   comsol.NewHolder(initial),
	}), nil
}
