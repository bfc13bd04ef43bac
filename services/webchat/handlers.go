// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package webchat exposes the agent loop over HTTP for the browser UI.
//
// The surface is deliberately small: one chat endpoint that runs a full
// user turn, a transcript endpoint, a health probe, and Prometheus
// metrics. The loop serializes turns internally, so concurrent chat
// requests queue rather than interleave.
package webchat

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/comsol-agent/services/agent"
)

var chatTracer = otel.Tracer("comsolagent.webchat.handlers")

// ChatRequest is the chat endpoint's request body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the chat endpoint's success body.
type ChatResponse struct {
	Content string `json:"content"`
}

// HandleChat runs one user turn through the loop.
func HandleChat(loop *agent.Loop, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat request", "error", err)
			metrics.TurnsTotal.WithLabelValues("bad_request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			metrics.TurnsTotal.WithLabelValues("bad_request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "no message provided"})
			return
		}

		start := time.Now()
		reply, err := loop.RunTurn(ctx, req.Message)
		metrics.TurnDurationSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Turn failed", "error", err)
			if errors.Is(err, agent.ErrModelCall) {
				metrics.ModelErrorsTotal.Inc()
				metrics.TurnsTotal.WithLabelValues("model_error").Inc()
				// The transcript keeps the user turn; the client may
				// resend the same message to retry.
				c.JSON(http.StatusBadGateway, gin.H{"error": "model call failed, please retry"})
				return
			}
			metrics.TurnsTotal.WithLabelValues("model_error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		metrics.TurnsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, ChatResponse{Content: reply})
	}
}

// HandleRefresh re-renders the engine snapshot into the system turn.
// Useful when the model file changed outside the conversation, such as
// an edit made directly in the COMSOL desktop.
func HandleRefresh(loop *agent.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		loop.RefreshContext()
		c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
	}
}

// HandleTranscript returns the full conversation transcript.
func HandleTranscript(loop *agent.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, loop.Conversation())
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
