// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package route searches the transit graph for itineraries between two
// sets of candidate stops.
package route

import (
	"context"

	"github.com/bakutransit/conductor/services/graph"
)

// ResultLimit caps how many itineraries a search returns per tier.
const ResultLimit = 5

// Kind tags a search result. The tag determines which leg field is
// populated; consumers must switch on it.
type Kind string

const (
	// KindDirect means one or more single-bus itineraries were found.
	KindDirect Kind = "direct"
	// KindOneTransfer means only two-bus itineraries were found.
	KindOneTransfer Kind = "one_transfer"
	// KindNoRoute means no itinerary exists within one transfer.
	KindNoRoute Kind = "no_route"
)

// Result is a tagged route search outcome.
type Result struct {
	Kind      Kind                   `json:"type"`
	Direct    []graph.DirectLeg      `json:"direct,omitempty"`
	Transfers []graph.TransferOption `json:"transfers,omitempty"`
}

// Empty reports whether the result carries no itineraries.
func (r Result) Empty() bool {
	return r.Kind == KindNoRoute
}

// RouteFinder is the slice of the graph store the engine needs.
type RouteFinder interface {
	FindDirectRoutes(ctx context.Context, originIDs, destIDs []int64, limit int) ([]graph.DirectLeg, error)
	FindOneTransferRoutes(ctx context.Context, originIDs, destIDs []int64, limit int) ([]graph.TransferOption, error)
}

// Engine performs two-tier route search: direct itineraries first, then
// one-transfer itineraries only when no direct route exists. A direct
// itinerary always wins over any two-bus alternative.
//
// Thread Safety: Engine is safe for concurrent use.
type Engine struct {
	finder RouteFinder
}

// NewEngine creates a route search engine over a route finder.
func NewEngine(finder RouteFinder) *Engine {
	return &Engine{finder: finder}
}

// SearchRoutes finds itineraries from any origin ID to any destination ID.
// The one-transfer search is never invoked when the direct search returns
// at least one leg. An exhausted search returns KindNoRoute, not an error.
func (e *Engine) SearchRoutes(ctx context.Context, originIDs, destIDs []int64) (Result, error) {
	direct, err := e.finder.FindDirectRoutes(ctx, originIDs, destIDs, ResultLimit)
	if err != nil {
		return Result{}, err
	}
	if len(direct) > 0 {
		return Result{Kind: KindDirect, Direct: direct}, nil
	}

	transfers, err := e.finder.FindOneTransferRoutes(ctx, originIDs, destIDs, ResultLimit)
	if err != nil {
		return Result{}, err
	}
	if len(transfers) > 0 {
		return Result{Kind: KindOneTransfer, Transfers: transfers}, nil
	}

	return Result{Kind: KindNoRoute}, nil
}
