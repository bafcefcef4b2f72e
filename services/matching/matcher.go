// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package matching

import (
	"context"
	"math"
	"sort"

	"github.com/bakutransit/conductor/services/graph"
)

// DefaultMatchLimit is the candidate count returned when the caller does
// not specify a limit.
const DefaultMatchLimit = 5

// nearCandidateLimit is the internal candidate pool size used by MatchNear
// before distance re-ranking.
const nearCandidateLimit = 20

// earthRadiusMeters is the haversine Earth radius.
const earthRadiusMeters = 6371000

// StopFinder is the slice of the graph store the matcher needs.
type StopFinder interface {
	FindStopsByName(ctx context.Context, name string, limit int) ([]graph.Stop, error)
}

// Candidate is a stop annotated with its distance from a reference
// coordinate. DistanceKnown is false when either the candidate has no
// coordinates or no reference point was involved; such candidates are
// never silently ranked nearest.
type Candidate struct {
	graph.Stop
	DistanceMeters float64 `json:"distanceMeters,omitempty"`
	DistanceKnown  bool    `json:"distanceKnown"`
}

// StopMatcher resolves free text to ranked candidate stops.
//
// Resolution tries, in order and short-circuiting on the first non-empty
// result: alias lookup (over suffix-stripped forms and their
// transliteration variants), direct substring search per stripped form,
// then substring search over the transliteration variants of each stripped
// form. Ranking within one query (hubs first, then name) is delegated to
// the graph index.
//
// Thread Safety: StopMatcher is safe for concurrent use.
type StopMatcher struct {
	stops   StopFinder
	aliases AliasTable
}

// NewStopMatcher creates a matcher over a stop finder and an alias table.
func NewStopMatcher(stops StopFinder, aliases AliasTable) *StopMatcher {
	return &StopMatcher{stops: stops, aliases: aliases}
}

// Match resolves user input to at most limit candidate stops, best first.
// An empty result is a valid "no match", not an error. A limit <= 0 uses
// DefaultMatchLimit.
func (m *StopMatcher) Match(ctx context.Context, userInput string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	forms := StripSuffixes(userInput)

	// 1. Alias lookup across stripped forms and their variants.
	for _, form := range forms {
		for _, variant := range GenerateVariants(form) {
			terms := m.aliases.Lookup(variant)
			if terms == nil {
				continue
			}
			candidates, err := m.queryTerms(ctx, terms, limit)
			if err != nil {
				return nil, err
			}
			if len(candidates) > 0 {
				return candidates, nil
			}
		}
	}

	// 2. Direct substring search, first stripped form that yields rows wins.
	for _, form := range forms {
		stops, err := m.stops.FindStopsByName(ctx, form, limit)
		if err != nil {
			return nil, err
		}
		if len(stops) > 0 {
			return asCandidates(stops), nil
		}
	}

	// 3. Transliteration fallback.
	for _, form := range forms {
		for _, variant := range GenerateVariants(form) {
			if variant == form {
				continue
			}
			stops, err := m.stops.FindStopsByName(ctx, variant, limit)
			if err != nil {
				return nil, err
			}
			if len(stops) > 0 {
				return asCandidates(stops), nil
			}
		}
	}

	return nil, nil
}

// MatchNear resolves user input and re-ranks the candidates by great-circle
// distance from the reference coordinate, nearest first. Candidates
// without coordinates keep DistanceKnown=false and sort after every
// candidate with a known distance. Returns empty when Match finds nothing.
func (m *StopMatcher) MatchNear(ctx context.Context, userInput string, lat, lng float64, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	candidates, err := m.Match(ctx, userInput, nearCandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	for i := range candidates {
		if !candidates[i].HasLocation {
			continue
		}
		candidates[i].DistanceMeters = haversineMeters(lat, lng, candidates[i].Latitude, candidates[i].Longitude)
		candidates[i].DistanceKnown = true
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DistanceKnown != b.DistanceKnown {
			return a.DistanceKnown
		}
		return a.DistanceMeters < b.DistanceMeters
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// queryTerms queries the graph for each canonical alias term and merges the
// results, first-occurrence-wins by stop ID, truncated to limit.
func (m *StopMatcher) queryTerms(ctx context.Context, terms []string, limit int) ([]Candidate, error) {
	var merged []graph.Stop
	for _, term := range terms {
		stops, err := m.stops.FindStopsByName(ctx, term, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, stops...)
	}
	return asCandidates(dedupeStops(merged, limit)), nil
}

// dedupeStops removes duplicate stops by ID, stable first-occurrence-wins,
// keeping at most limit entries.
func dedupeStops(stops []graph.Stop, limit int) []graph.Stop {
	seen := make(map[int64]struct{}, len(stops))
	out := make([]graph.Stop, 0, len(stops))
	for _, stop := range stops {
		if _, ok := seen[stop.ID]; ok {
			continue
		}
		seen[stop.ID] = struct{}{}
		out = append(out, stop)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func asCandidates(stops []graph.Stop) []Candidate {
	candidates := make([]Candidate, len(stops))
	for i, stop := range stops {
		candidates[i] = Candidate{Stop: stop}
	}
	return candidates
}

// haversineMeters computes the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
