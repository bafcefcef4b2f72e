// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command conductor starts the Bakı public-transit assistant API server.
//
// The server answers natural-language transit questions over a Neo4j
// transit graph, with Gemini handling intent classification and reply
// generation.
//
// Usage:
//
//	go run ./cmd/conductor
//	go run ./cmd/conductor -port 9090 -debug
//
// Configuration (environment):
//
//	NEO4J_URI       Bolt URI of the transit graph (default bolt://localhost:7687)
//	NEO4J_USERNAME  Graph username (default neo4j)
//	NEO4J_PASSWORD  Graph password
//	NEO4J_DATABASE  Graph database name (default neo4j)
//	GEMINI_API_KEY  Gemini API key (required)
//	GEMINI_MODEL    Gemini model name (default gemini-1.5-flash)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bakutransit/conductor/services/chat"
	"github.com/bakutransit/conductor/services/graph"
	"github.com/bakutransit/conductor/services/intent"
	"github.com/bakutransit/conductor/services/llm"
	"github.com/bakutransit/conductor/services/matching"
	"github.com/bakutransit/conductor/services/respond"
	"github.com/bakutransit/conductor/services/route"
	"github.com/bakutransit/conductor/services/session"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	debug := flag.Bool("debug", false, "enable debug logging and gin debug mode")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*port, *debug); err != nil {
		slog.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(port int, debug bool) error {
	graphClient, err := graph.NewNeo4jClient(graph.Neo4jConfig{
		URI:      envOr("NEO4J_URI", "bolt://localhost:7687"),
		Username: envOr("NEO4J_USERNAME", "neo4j"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: envOr("NEO4J_DATABASE", "neo4j"),
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := graphClient.Close(ctx); err != nil {
			slog.Warn("Closing graph client failed", slog.String("error", err.Error()))
		}
	}()

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := graphClient.VerifyConnectivity(connectCtx); err != nil {
		return err
	}
	slog.Info("Connected to transit graph", slog.String("uri", envOr("NEO4J_URI", "bolt://localhost:7687")))

	geminiClient, err := llm.NewGeminiClient()
	if err != nil {
		return err
	}

	aliases, err := matching.LoadAliases()
	if err != nil {
		return err
	}

	store := graph.NewStore(graphClient)
	matcher := matching.NewStopMatcher(store, aliases)
	engine := route.NewEngine(store)
	parser := intent.NewParser(geminiClient)
	generator := respond.NewLLMGenerator(geminiClient)
	sessions := session.NewStore(0, 0)

	service := chat.NewService(matcher, engine, store, parser, generator)
	handlers := chat.NewHandlers(service, sessions, store, graphClient)

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Request-ID")
	router.Use(cors.New(corsConfig))

	chat.RegisterRoutes(&router.RouterGroup, handlers)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Conductor API ready", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("Shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
