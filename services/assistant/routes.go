// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all assistant routes with the router group.
//
// Description:
//
//	Registers all /v1/assistant/* endpoints with the given Gin router
//	group. The group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/assistant/chat - Process one chat turn
//	GET  /v1/assistant/health - Health check
//	GET  /v1/assistant/ready - Readiness check
//	GET  /v1/assistant/debug/corpus - Dump the loaded intent corpus
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	assistant := rg.Group("/assistant")
	{
		assistant.POST("/chat", handlers.HandleChat)

		// Health checks
		assistant.GET("/health", handlers.HandleHealth)
		assistant.GET("/ready", handlers.HandleReady)

		debug := assistant.Group("/debug")
		{
			debug.GET("/corpus", handlers.HandleCorpus)
		}
	}
}
