// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package webchat

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/comsol-agent/services/agent"
)

// SetupRoutes mounts the web chat API on router.
func SetupRoutes(router *gin.Engine, loop *agent.Loop, metrics *Metrics) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/chat", HandleChat(loop, metrics))
		v1.POST("/chat/refresh", HandleRefresh(loop))
		v1.GET("/chat/transcript", HandleTranscript(loop))
	}
}
