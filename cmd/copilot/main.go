// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command copilot starts the Jira copilot API server.
//
// The copilot answers natural-language questions about Jira data by matching
// them against a trained intent corpus, building JQL, and summarizing the
// results.
//
// Usage:
//
//	JIRA_BASE_URL=https://yoursite.atlassian.net \
//	JIRA_EMAIL=bot@example.com \
//	JIRA_API_TOKEN=... \
//	go run ./cmd/copilot
//
// With LLM summary polish:
//
//	COPILOT_LLM_PROVIDER=ollama OLLAMA_HOST=http://localhost:11434 go run ./cmd/copilot
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/assistant/health
//
//	# Ask a question
//	curl -X POST http://localhost:8080/v1/assistant/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"message": "show me open bugs in CCM"}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AjithTao/jira-copilot/services/assistant"
	"github.com/AjithTao/jira-copilot/services/assistant/config"
	"github.com/AjithTao/jira-copilot/services/assistant/jira"
	"github.com/AjithTao/jira-copilot/services/assistant/providers"
	"github.com/AjithTao/jira-copilot/services/assistant/storage/badgerstore"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so trace context flows from incoming
	// headers through all handlers.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx := context.Background()

	corpus, err := config.GetTrainingCorpus(ctx)
	if err != nil {
		slog.Error("Failed to load training corpus", slog.String("error", err.Error()))
		os.Exit(1)
	}

	jiraCfg, err := jira.ConfigFromEnv()
	if err != nil {
		slog.Error("Jira configuration missing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jiraClient := jira.NewClient(jiraCfg)

	// Session persistence: BadgerDB when a data dir is available, in-memory
	// otherwise. Graceful degradation — context just dies with the process.
	sessions, sessionDB := openSessionStore()

	// LLM summary polish is optional; nil keeps answers deterministic.
	chat, _ := providers.ChatClientFromEnv(slog.Default())

	svc, err := assistant.NewService(assistant.Options{
		Corpus:   corpus,
		Jira:     jiraClient,
		Sessions: sessions,
		Chat:     chat,
	})
	if err != nil {
		slog.Error("Failed to assemble service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers := assistant.NewHandlers(svc, slog.Default())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("jira-copilot"))
	router.Use(corsMiddleware())
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	assistant.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port, chat != nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down Jira copilot server")
		if sessionDB != nil {
			if err := sessionDB.Close(); err != nil {
				slog.Warn("Failed to close session store", slog.String("error", err.Error()))
			}
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting Jira copilot server",
		slog.String("address", addr),
		slog.Int("intents", len(corpus.Intents)))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openSessionStore opens the badger-backed session store, falling back to
// in-memory when no directory is available or badger refuses to open.
func openSessionStore() (assistant.SessionStore, *badgerstore.Store) {
	dir := os.Getenv("COPILOT_DATA_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, ".jira-copilot", "sessions")
		}
	}
	if dir == "" {
		slog.Warn("No data directory available, sessions are in-memory only")
		return assistant.NewMemorySessionStore(), nil
	}

	db, err := badgerstore.Open(dir, slog.Default())
	if err != nil {
		slog.Warn("Session store unavailable, sessions are in-memory only",
			slog.String("path", dir),
			slog.String("error", err.Error()))
		return assistant.NewMemorySessionStore(), nil
	}
	return assistant.NewBadgerSessionStore(db, slog.Default()), db
}

// corsMiddleware allows browser frontends on other origins to call the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func printBanner(port int, llmEnabled bool) {
	llmStatus := "disabled (set COPILOT_LLM_PROVIDER to enable)"
	if llmEnabled {
		llmStatus = "enabled"
	}

	fmt.Printf(`
Jira Copilot
------------
Listening on :%d
LLM summaries: %s

  curl http://localhost:%d/v1/assistant/health
  curl -X POST http://localhost:%d/v1/assistant/chat \
    -H "Content-Type: application/json" \
    -d '{"message": "show me open bugs in CCM"}'

Press Ctrl+C to stop
`, port, llmStatus, port, port)
}
