// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package chat orchestrates a conversation turn: dialogue continuity,
// intent classification, graph lookups, and reply generation.
package chat

import (
	"context"
	"log/slog"

	"github.com/bakutransit/conductor/services/graph"
	"github.com/bakutransit/conductor/services/intent"
	"github.com/bakutransit/conductor/services/matching"
	"github.com/bakutransit/conductor/services/respond"
	"github.com/bakutransit/conductor/services/route"
	"github.com/bakutransit/conductor/services/session"
)

// nearestOriginLimit is how many nearest stops stand in for "the user's
// location" as a route-search origin set.
const nearestOriginLimit = 5

// Matcher resolves free text to candidate stops.
type Matcher interface {
	Match(ctx context.Context, userInput string, limit int) ([]matching.Candidate, error)
	MatchNear(ctx context.Context, userInput string, lat, lng float64, limit int) ([]matching.Candidate, error)
}

// RouteSearcher runs the two-tier route search.
type RouteSearcher interface {
	SearchRoutes(ctx context.Context, originIDs, destIDs []int64) (route.Result, error)
}

// GraphReader is the slice of the graph store the orchestrator uses
// directly (everything not already behind Matcher or RouteSearcher).
type GraphReader interface {
	FindNearestStops(ctx context.Context, lat, lng float64, radiusMeters, limit int) ([]graph.NearbyStop, error)
	FindBusByNumber(ctx context.Context, number string) ([]graph.BusSummary, error)
	BusRouteStops(ctx context.Context, busID, direction int64) ([]graph.RouteStop, error)
	StopDetail(ctx context.Context, stopID int64) (*graph.StopDetail, error)
}

// IntentParser classifies a user message.
type IntentParser interface {
	Parse(ctx context.Context, message string) (intent.Parsed, error)
}

// Service wires the resolver, route engine, graph store, classifier and
// generator into per-turn processing. All collaborators are injected;
// there is no package-level state.
//
// Thread Safety: Service is safe for concurrent use. Callers must hold
// the session lock across a turn (the HTTP handlers do).
type Service struct {
	matcher   Matcher
	routes    RouteSearcher
	store     GraphReader
	parser    IntentParser
	generator respond.Generator
}

// NewService creates the orchestrator from its collaborators.
func NewService(matcher Matcher, routes RouteSearcher, store GraphReader, parser IntentParser, generator respond.Generator) *Service {
	return &Service{
		matcher:   matcher,
		routes:    routes,
		store:     store,
		parser:    parser,
		generator: generator,
	}
}

// Turn is the outcome of one chat turn. Action tells the caller how to tag
// the reply when appending it to the transcript.
type Turn struct {
	Reply  string
	Intent intent.Intent
	Routes *route.Result
	Action session.BotAction
}

// ProcessTurn handles one user message for a session whose lock the caller
// holds and whose transcript already contains the message as its last
// entry. Empty lookups produce "not found" replies, never errors; only
// upstream faults (graph, classifier, generator) return a non-nil error.
func (s *Service) ProcessTurn(ctx context.Context, sess *session.Session, message string) (Turn, error) {
	if turn, handled, err := s.tryPendingOrigin(ctx, sess, message); err != nil {
		return Turn{}, err
	} else if handled {
		return turn, nil
	}

	parsed, err := s.parser.Parse(ctx, message)
	if err != nil {
		return Turn{}, err
	}

	slog.Debug("Intent classified",
		slog.String("session_id", sess.ID),
		slog.String("intent", string(parsed.Intent)),
	)

	switch parsed.Intent {
	case intent.IntentRouteFind:
		return s.handleRouteFind(ctx, sess, message, parsed.Entities)
	case intent.IntentBusInfo, intent.IntentFareInfo, intent.IntentScheduleInfo:
		return s.handleBusInfo(ctx, sess, message, parsed.Intent, parsed.Entities)
	case intent.IntentStopInfo:
		return s.handleStopInfo(ctx, sess, message, parsed.Entities)
	case intent.IntentNearbyStops:
		return s.handleNearbyStops(ctx, sess, message)
	default:
		reply, err := s.generator.Reply(ctx, message, respond.GeneralContext, priorHistory(sess))
		if err != nil {
			return Turn{}, err
		}
		return Turn{Reply: reply, Intent: intent.IntentGeneral}, nil
	}
}

// tryPendingOrigin implements the dialogue shortcut: when the bot just
// asked for a location and a destination is pending, the whole incoming
// message is treated as a candidate origin and intent classification is
// skipped. The pending destination is cleared once the search ran,
// whatever it found; failed resolution leaves all state intact and falls
// through to normal classification.
func (s *Service) tryPendingOrigin(ctx context.Context, sess *session.Session, message string) (Turn, bool, error) {
	if !sess.AwaitingOrigin() {
		return Turn{}, false, nil
	}

	originCands, err := s.matcher.Match(ctx, message, 0)
	if err != nil {
		return Turn{}, false, err
	}
	if len(originCands) == 0 {
		return Turn{}, false, nil
	}

	destCands, err := s.matcher.Match(ctx, sess.PendingDestination, 0)
	if err != nil {
		return Turn{}, false, err
	}
	if len(destCands) == 0 {
		return Turn{}, false, nil
	}

	result, err := s.routes.SearchRoutes(ctx, candidateIDs(originCands), candidateIDs(destCands))
	if err != nil {
		return Turn{}, false, err
	}
	sess.PendingDestination = ""

	contextBlock := respond.FormatRouteContext(result, originCands[0].Name, destCands[0].Name)
	reply, err := s.generator.Reply(ctx, message, contextBlock, priorHistory(sess))
	if err != nil {
		return Turn{}, false, err
	}

	return Turn{Reply: reply, Intent: intent.IntentRouteFind, Routes: &result}, true, nil
}

func (s *Service) handleRouteFind(ctx context.Context, sess *session.Session, message string, entities map[string]string) (Turn, error) {
	originRaw := entities[intent.EntityOrigin]
	destRaw := entities[intent.EntityDestination]

	var originIDs []int64
	var originName string

	if originRaw == intent.UserLocation || originRaw == "" {
		if !sess.HasLocation {
			// Park the destination and ask where the user is; the next
			// turn takes the shortcut path.
			sess.PendingDestination = destRaw
			return Turn{
				Reply:  respond.AskForLocation,
				Intent: intent.IntentRouteFind,
				Action: session.ActionAskedForLocation,
			}, nil
		}
		nearest, err := s.store.FindNearestStops(ctx, sess.Latitude, sess.Longitude, 0, nearestOriginLimit)
		if err != nil {
			return Turn{}, err
		}
		for _, stop := range nearest {
			originIDs = append(originIDs, stop.ID)
		}
		originName = "Sizin yeriniz"
	} else {
		originCands, err := s.matcher.Match(ctx, originRaw, 0)
		if err != nil {
			return Turn{}, err
		}
		if sess.HasLocation && len(originCands) > 0 {
			originCands, err = s.matcher.MatchNear(ctx, originRaw, sess.Latitude, sess.Longitude, 0)
			if err != nil {
				return Turn{}, err
			}
		}
		originIDs = candidateIDs(originCands)
		originName = originRaw
	}

	destCands, err := s.matcher.Match(ctx, destRaw, 0)
	if err != nil {
		return Turn{}, err
	}

	if len(originIDs) == 0 {
		return Turn{Reply: respond.StopNotFound(originName), Intent: intent.IntentRouteFind}, nil
	}
	if len(destCands) == 0 {
		return Turn{Reply: respond.StopNotFound(destRaw), Intent: intent.IntentRouteFind}, nil
	}

	result, err := s.routes.SearchRoutes(ctx, originIDs, candidateIDs(destCands))
	if err != nil {
		return Turn{}, err
	}

	contextBlock := respond.FormatRouteContext(result, originName, destRaw)
	reply, err := s.generator.Reply(ctx, message, contextBlock, priorHistory(sess))
	if err != nil {
		return Turn{}, err
	}

	return Turn{Reply: reply, Intent: intent.IntentRouteFind, Routes: &result}, nil
}

func (s *Service) handleBusInfo(ctx context.Context, sess *session.Session, message string, classified intent.Intent, entities map[string]string) (Turn, error) {
	number := entities[intent.EntityBusNumber]
	if number == "" {
		reply, err := s.generator.Reply(ctx, message, respond.NoBusNumberContext, priorHistory(sess))
		if err != nil {
			return Turn{}, err
		}
		return Turn{Reply: reply, Intent: classified}, nil
	}

	buses, err := s.store.FindBusByNumber(ctx, number)
	if err != nil {
		return Turn{}, err
	}
	if len(buses) == 0 {
		return Turn{Reply: respond.BusNotFound(number), Intent: classified}, nil
	}

	bus := buses[0]
	stops, err := s.store.BusRouteStops(ctx, bus.ID, 1)
	if err != nil {
		return Turn{}, err
	}

	reply, err := s.generator.Reply(ctx, message, respond.FormatBusContext(bus, stops), priorHistory(sess))
	if err != nil {
		return Turn{}, err
	}
	return Turn{Reply: reply, Intent: classified}, nil
}

func (s *Service) handleStopInfo(ctx context.Context, sess *session.Session, message string, entities map[string]string) (Turn, error) {
	stopName := entities[intent.EntityStopName]
	if stopName == "" {
		stopName = entities[intent.EntityDestination]
	}
	if stopName == "" {
		reply, err := s.generator.Reply(ctx, message, respond.NoStopNameContext, priorHistory(sess))
		if err != nil {
			return Turn{}, err
		}
		return Turn{Reply: reply, Intent: intent.IntentStopInfo}, nil
	}

	candidates, err := s.matcher.Match(ctx, stopName, 1)
	if err != nil {
		return Turn{}, err
	}
	if len(candidates) == 0 {
		return Turn{Reply: respond.StopNotFound(stopName), Intent: intent.IntentStopInfo}, nil
	}

	detail, err := s.store.StopDetail(ctx, candidates[0].ID)
	if err != nil {
		return Turn{}, err
	}
	if detail == nil {
		return Turn{Reply: respond.StopDetailNotFound(stopName), Intent: intent.IntentStopInfo}, nil
	}

	reply, err := s.generator.Reply(ctx, message, respond.FormatStopContext(*detail), priorHistory(sess))
	if err != nil {
		return Turn{}, err
	}
	return Turn{Reply: reply, Intent: intent.IntentStopInfo}, nil
}

func (s *Service) handleNearbyStops(ctx context.Context, sess *session.Session, message string) (Turn, error) {
	if !sess.HasLocation {
		return Turn{
			Reply:  respond.AskForLocation,
			Intent: intent.IntentNearbyStops,
			Action: session.ActionAskedForLocation,
		}, nil
	}

	stops, err := s.store.FindNearestStops(ctx, sess.Latitude, sess.Longitude, 0, 10)
	if err != nil {
		return Turn{}, err
	}
	if len(stops) == 0 {
		return Turn{Reply: respond.NoNearbyStops, Intent: intent.IntentNearbyStops}, nil
	}

	reply, err := s.generator.Reply(ctx, message, respond.FormatNearbyContext(stops), priorHistory(sess))
	if err != nil {
		return Turn{}, err
	}
	return Turn{Reply: reply, Intent: intent.IntentNearbyStops}, nil
}

// priorHistory returns the transcript up to but excluding the in-flight
// user message.
func priorHistory(sess *session.Session) []session.Message {
	if len(sess.History) == 0 {
		return nil
	}
	return sess.History[:len(sess.History)-1]
}

func candidateIDs(candidates []matching.Candidate) []int64 {
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
