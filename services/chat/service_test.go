// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"context"
	"testing"

	"github.com/bakutransit/conductor/services/graph"
	"github.com/bakutransit/conductor/services/intent"
	"github.com/bakutransit/conductor/services/matching"
	"github.com/bakutransit/conductor/services/route"
	"github.com/bakutransit/conductor/services/session"
)

// ====== Test Fixtures ======

// stubMatcher resolves names from a fixed table and records what it was
// asked to resolve.
type stubMatcher struct {
	table   map[string][]matching.Candidate
	matched []string
}

func (m *stubMatcher) Match(_ context.Context, userInput string, _ int) ([]matching.Candidate, error) {
	m.matched = append(m.matched, userInput)
	return m.table[userInput], nil
}

func (m *stubMatcher) MatchNear(ctx context.Context, userInput string, _, _ float64, limit int) ([]matching.Candidate, error) {
	return m.Match(ctx, userInput, limit)
}

// stubSearcher returns a fixed result and records the ID sets it was
// invoked with.
type stubSearcher struct {
	result    route.Result
	calls     int
	originIDs []int64
	destIDs   []int64
}

func (s *stubSearcher) SearchRoutes(_ context.Context, originIDs, destIDs []int64) (route.Result, error) {
	s.calls++
	s.originIDs = originIDs
	s.destIDs = destIDs
	return s.result, nil
}

// stubGraph serves canned graph reads.
type stubGraph struct {
	nearest []graph.NearbyStop
	buses   []graph.BusSummary
	stops   []graph.RouteStop
	detail  *graph.StopDetail
}

func (g *stubGraph) FindNearestStops(context.Context, float64, float64, int, int) ([]graph.NearbyStop, error) {
	return g.nearest, nil
}

func (g *stubGraph) FindBusByNumber(context.Context, string) ([]graph.BusSummary, error) {
	return g.buses, nil
}

func (g *stubGraph) BusRouteStops(context.Context, int64, int64) ([]graph.RouteStop, error) {
	return g.stops, nil
}

func (g *stubGraph) StopDetail(context.Context, int64) (*graph.StopDetail, error) {
	return g.detail, nil
}

// stubParser returns a fixed classification and counts its calls.
type stubParser struct {
	parsed intent.Parsed
	err    error
	calls  int
}

func (p *stubParser) Parse(context.Context, string) (intent.Parsed, error) {
	p.calls++
	return p.parsed, p.err
}

// echoGenerator returns the context block as the reply so tests can see
// what the model would have been grounded on.
type echoGenerator struct{}

func (echoGenerator) Reply(_ context.Context, _, contextBlock string, _ []session.Message) (string, error) {
	return contextBlock, nil
}

func cand(id int64, name string) matching.Candidate {
	return matching.Candidate{Stop: graph.Stop{ID: id, Name: name}}
}

func newTestService(matcher *stubMatcher, searcher *stubSearcher, store *stubGraph, parser *stubParser) *Service {
	return NewService(matcher, searcher, store, parser, echoGenerator{})
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ====== Dialogue Shortcut Tests ======

func TestProcessTurn_PendingOriginShortcut(t *testing.T) {
	matcher := &stubMatcher{table: map[string][]matching.Candidate{
		"Nizami metro": {cand(5, "Nizami metrosu")},
		"28 may":       {cand(1, "28 May metrosu"), cand(2, "28 May m/st")},
	}}
	searcher := &stubSearcher{result: route.Result{
		Kind:   route.KindDirect,
		Direct: []graph.DirectLeg{{BusNumber: "88"}},
	}}
	parser := &stubParser{}
	service := newTestService(matcher, searcher, &stubGraph{}, parser)

	sess := &session.Session{PendingDestination: "28 may"}
	sess.AddUserMessage("28 Maya necə gedim?")
	sess.AddTaggedModelMessage("Olduğunuz yeri yazın.", session.ActionAskedForLocation)
	sess.AddUserMessage("Nizami metro")

	turn, err := service.ProcessTurn(context.Background(), sess, "Nizami metro")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}

	if parser.calls != 0 {
		t.Errorf("classifier was called %d times; the shortcut must skip it", parser.calls)
	}
	if searcher.calls != 1 {
		t.Fatalf("route search called %d times, want 1", searcher.calls)
	}
	if !equalIDs(searcher.originIDs, []int64{5}) {
		t.Errorf("origin IDs = %v, want [5]", searcher.originIDs)
	}
	if !equalIDs(searcher.destIDs, []int64{1, 2}) {
		t.Errorf("destination IDs = %v, want [1 2]", searcher.destIDs)
	}
	if sess.PendingDestination != "" {
		t.Errorf("pending destination not cleared: %q", sess.PendingDestination)
	}
	if turn.Intent != intent.IntentRouteFind {
		t.Errorf("intent = %q, want route_find", turn.Intent)
	}
	if turn.Routes == nil || turn.Routes.Kind != route.KindDirect {
		t.Errorf("turn.Routes = %+v", turn.Routes)
	}
}

func TestProcessTurn_PendingClearedEvenWhenNoRouteExists(t *testing.T) {
	matcher := &stubMatcher{table: map[string][]matching.Candidate{
		"Nizami metro": {cand(5, "Nizami metrosu")},
		"28 may":       {cand(1, "28 May metrosu")},
	}}
	searcher := &stubSearcher{result: route.Result{Kind: route.KindNoRoute}}
	service := newTestService(matcher, searcher, &stubGraph{}, &stubParser{})

	sess := &session.Session{PendingDestination: "28 may"}
	sess.AddTaggedModelMessage("Olduğunuz yeri yazın.", session.ActionAskedForLocation)
	sess.AddUserMessage("Nizami metro")

	turn, err := service.ProcessTurn(context.Background(), sess, "Nizami metro")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if sess.PendingDestination != "" {
		t.Error("the search ran, so the pending destination must be cleared")
	}
	if turn.Routes == nil || !turn.Routes.Empty() {
		t.Errorf("turn.Routes = %+v, want a no_route result", turn.Routes)
	}
}

func TestProcessTurn_ShortcutFallsThroughWhenOriginUnresolved(t *testing.T) {
	matcher := &stubMatcher{table: map[string][]matching.Candidate{}}
	searcher := &stubSearcher{}
	parser := &stubParser{parsed: intent.General()}
	service := newTestService(matcher, searcher, &stubGraph{}, parser)

	sess := &session.Session{PendingDestination: "28 may"}
	sess.AddTaggedModelMessage("Olduğunuz yeri yazın.", session.ActionAskedForLocation)
	sess.AddUserMessage("mmm bilmirəm")

	_, err := service.ProcessTurn(context.Background(), sess, "mmm bilmirəm")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}

	if searcher.calls != 0 {
		t.Error("route search must not run when the origin does not resolve")
	}
	if parser.calls != 1 {
		t.Errorf("classifier called %d times, want 1 (fall-through)", parser.calls)
	}
	if sess.PendingDestination != "28 may" {
		t.Errorf("pending destination must survive a failed resolution, got %q", sess.PendingDestination)
	}
}

func TestProcessTurn_NoShortcutAfterPlainReply(t *testing.T) {
	matcher := &stubMatcher{table: map[string][]matching.Candidate{
		"Nizami metro": {cand(5, "Nizami metrosu")},
	}}
	searcher := &stubSearcher{}
	parser := &stubParser{parsed: intent.General()}
	service := newTestService(matcher, searcher, &stubGraph{}, parser)

	// Pending destination set, but the last bot message was a plain reply.
	sess := &session.Session{PendingDestination: "28 may"}
	sess.AddModelMessage("Salam!")
	sess.AddUserMessage("Nizami metro")

	_, err := service.ProcessTurn(context.Background(), sess, "Nizami metro")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if searcher.calls != 0 {
		t.Error("shortcut must require the asked-for-location tag")
	}
	if parser.calls != 1 {
		t.Errorf("classifier called %d times, want 1", parser.calls)
	}
}

// ====== Route Find Tests ======

func TestHandleRouteFind_NoLocationParksDestination(t *testing.T) {
	parser := &stubParser{parsed: intent.Parsed{
		Intent: intent.IntentRouteFind,
		Entities: map[string]string{
			intent.EntityOrigin:      intent.UserLocation,
			intent.EntityDestination: "28 may",
		},
	}}
	searcher := &stubSearcher{}
	service := newTestService(&stubMatcher{}, searcher, &stubGraph{}, parser)

	sess := &session.Session{}
	sess.AddUserMessage("28 Maya necə gedim?")

	turn, err := service.ProcessTurn(context.Background(), sess, "28 Maya necə gedim?")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}

	if turn.Action != session.ActionAskedForLocation {
		t.Errorf("turn.Action = %v, want ActionAskedForLocation", turn.Action)
	}
	if sess.PendingDestination != "28 may" {
		t.Errorf("pending destination = %q, want %q", sess.PendingDestination, "28 may")
	}
	if searcher.calls != 0 {
		t.Error("route search must not run without an origin")
	}

	// The session is now in the awaiting-origin state once the handler
	// appends the tagged reply.
	sess.AddTaggedModelMessage(turn.Reply, turn.Action)
	if !sess.AwaitingOrigin() {
		t.Error("session should be awaiting an origin after the tagged ask")
	}
}

func TestHandleRouteFind_UserLocationOriginUsesNearestStops(t *testing.T) {
	parser := &stubParser{parsed: intent.Parsed{
		Intent: intent.IntentRouteFind,
		Entities: map[string]string{
			intent.EntityOrigin:      intent.UserLocation,
			intent.EntityDestination: "28 may",
		},
	}}
	matcher := &stubMatcher{table: map[string][]matching.Candidate{
		"28 may": {cand(9, "28 May metrosu")},
	}}
	searcher := &stubSearcher{result: route.Result{Kind: route.KindDirect, Direct: []graph.DirectLeg{{BusNumber: "88"}}}}
	store := &stubGraph{nearest: []graph.NearbyStop{
		{Stop: graph.Stop{ID: 3, Name: "Gənclik metrosu"}},
		{Stop: graph.Stop{ID: 4, Name: "Atatürk prospekti"}},
	}}
	service := newTestService(matcher, searcher, store, parser)

	sess := &session.Session{}
	sess.SetLocation(40.4, 49.85, session.SourceGeolocation)
	sess.AddUserMessage("28 Maya necə gedim?")

	turn, err := service.ProcessTurn(context.Background(), sess, "28 Maya necə gedim?")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}

	if !equalIDs(searcher.originIDs, []int64{3, 4}) {
		t.Errorf("origin IDs = %v, want the nearest-stop IDs [3 4]", searcher.originIDs)
	}
	if !equalIDs(searcher.destIDs, []int64{9}) {
		t.Errorf("destination IDs = %v, want [9]", searcher.destIDs)
	}
	if turn.Action != session.ActionNone {
		t.Errorf("turn.Action = %v, want ActionNone", turn.Action)
	}
}

func TestHandleRouteFind_UnknownDestination(t *testing.T) {
	parser := &stubParser{parsed: intent.Parsed{
		Intent: intent.IntentRouteFind,
		Entities: map[string]string{
			intent.EntityOrigin:      "gənclik",
			intent.EntityDestination: "yoxdur belə yer",
		},
	}}
	matcher := &stubMatcher{table: map[string][]matching.Candidate{
		"gənclik": {cand(3, "Gənclik metrosu")},
	}}
	searcher := &stubSearcher{}
	service := newTestService(matcher, searcher, &stubGraph{}, parser)

	sess := &session.Session{}
	sess.AddUserMessage("Gənclikdən yoxdur belə yerə necə gedim?")

	turn, err := service.ProcessTurn(context.Background(), sess, "Gənclikdən yoxdur belə yerə necə gedim?")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if searcher.calls != 0 {
		t.Error("route search must not run with an unresolved destination")
	}
	if turn.Reply == "" || turn.Routes != nil {
		t.Errorf("turn = %+v, want a not-found reply without routes", turn)
	}
}

// ====== Other Intent Tests ======

func TestHandleBusInfo_NotFound(t *testing.T) {
	parser := &stubParser{parsed: intent.Parsed{
		Intent:   intent.IntentBusInfo,
		Entities: map[string]string{intent.EntityBusNumber: "999"},
	}}
	service := newTestService(&stubMatcher{}, &stubSearcher{}, &stubGraph{}, parser)

	sess := &session.Session{}
	sess.AddUserMessage("999")

	turn, err := service.ProcessTurn(context.Background(), sess, "999")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if turn.Intent != intent.IntentBusInfo || turn.Reply == "" {
		t.Errorf("turn = %+v, want a bus-not-found reply", turn)
	}
}

func TestHandleNearbyStops_NoLocationAsks(t *testing.T) {
	parser := &stubParser{parsed: intent.Parsed{Intent: intent.IntentNearbyStops, Entities: map[string]string{}}}
	service := newTestService(&stubMatcher{}, &stubSearcher{}, &stubGraph{}, parser)

	sess := &session.Session{}
	sess.AddUserMessage("Yaxınlıqda dayanacaq var?")

	turn, err := service.ProcessTurn(context.Background(), sess, "Yaxınlıqda dayanacaq var?")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if turn.Action != session.ActionAskedForLocation {
		t.Errorf("turn.Action = %v, want ActionAskedForLocation", turn.Action)
	}
}

func TestHandleStopInfo_FallsBackToDestinationEntity(t *testing.T) {
	parser := &stubParser{parsed: intent.Parsed{
		Intent:   intent.IntentStopInfo,
		Entities: map[string]string{intent.EntityDestination: "içərişəhər"},
	}}
	matcher := &stubMatcher{table: map[string][]matching.Candidate{
		"içərişəhər": {cand(7, "İçərişəhər")},
	}}
	store := &stubGraph{detail: &graph.StopDetail{
		Stop:  graph.Stop{ID: 7, Name: "İçərişəhər"},
		Buses: []graph.StopBus{},
	}}
	service := newTestService(matcher, &stubSearcher{}, store, parser)

	sess := &session.Session{}
	sess.AddUserMessage("İçərişəhər haqqında")

	turn, err := service.ProcessTurn(context.Background(), sess, "İçərişəhər haqqında")
	if err != nil {
		t.Fatalf("ProcessTurn returned error: %v", err)
	}
	if turn.Intent != intent.IntentStopInfo {
		t.Errorf("intent = %q, want stop_info", turn.Intent)
	}
	if len(matcher.matched) != 1 || matcher.matched[0] != "içərişəhər" {
		t.Errorf("matched inputs = %v, want the destination entity", matcher.matched)
	}
}
