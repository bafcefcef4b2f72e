// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client runs parameterized Cypher templates against the transit graph and
// returns raw rows. Implementations must be safe for concurrent use.
type Client interface {
	// RunQuery executes a query with named parameters and returns the
	// result rows as column-name → value mappings.
	RunQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// VerifyConnectivity checks that the graph store is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Close releases the underlying driver.
	Close(ctx context.Context) error
}

// Neo4jConfig configures the production graph client.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jClient implements Client over the official Bolt driver.
//
// Thread Safety: Neo4jClient is safe for concurrent use; each RunQuery
// opens its own read session.
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jClient creates a graph client from explicit configuration. The
// connection is established lazily; call VerifyConnectivity at startup to
// fail fast on bad credentials.
func NewNeo4jClient(cfg Neo4jConfig) (*Neo4jClient, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("graph: Neo4j URI must not be empty")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: creating driver: %w", err)
	}

	return &Neo4jClient{
		driver:   driver,
		database: cfg.Database,
	}, nil
}

// RunQuery implements Client.RunQuery using a read-mode session.
func (c *Neo4jClient) RunQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			slog.Warn("Closing Neo4j session failed", slog.String("error", err.Error()))
		}
	}()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("graph: running query: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: collecting rows: %w", err)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}

	slog.Debug("Graph query executed", slog.Int("rows", len(rows)))
	return rows, nil
}

// VerifyConnectivity implements Client.VerifyConnectivity.
func (c *Neo4jClient) VerifyConnectivity(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph: verifying connectivity: %w", err)
	}
	return nil
}

// Close implements Client.Close.
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
