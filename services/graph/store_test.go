// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"strings"
	"testing"
)

// ====== Test Fixtures ======

// fakeClient records the last query and parameters and returns canned rows.
type fakeClient struct {
	rows      []map[string]any
	err       error
	lastQuery string
	lastParam map[string]any
}

func (f *fakeClient) RunQuery(_ context.Context, query string, params map[string]any) ([]map[string]any, error) {
	f.lastQuery = query
	f.lastParam = params
	return f.rows, f.err
}

func (f *fakeClient) VerifyConnectivity(context.Context) error { return nil }
func (f *fakeClient) Close(context.Context) error              { return nil }

func stopRow(id int64, name string) map[string]any {
	return map[string]any{
		"id":             id,
		"name":           name,
		"code":           "2801",
		"latitude":       40.3797,
		"longitude":      49.8485,
		"isTransportHub": true,
	}
}

// ====== Stop Query Tests ======

func TestFindStopsByName(t *testing.T) {
	client := &fakeClient{rows: []map[string]any{stopRow(1, "28 May metrosu")}}
	store := NewStore(client)

	stops, err := store.FindStopsByName(context.Background(), "28 may", 5)
	if err != nil {
		t.Fatalf("FindStopsByName returned error: %v", err)
	}
	if len(stops) != 1 {
		t.Fatalf("got %d stops, want 1", len(stops))
	}

	got := stops[0]
	if got.ID != 1 || got.Name != "28 May metrosu" || got.Code != "2801" {
		t.Errorf("decoded stop = %+v", got)
	}
	if !got.HasLocation {
		t.Error("stop with both coordinates must have HasLocation=true")
	}
	if !got.IsTransportHub {
		t.Error("isTransportHub not decoded")
	}

	if client.lastParam["name"] != "28 may" || client.lastParam["limit"] != 5 {
		t.Errorf("query params = %v", client.lastParam)
	}
}

func TestFindStopsByName_MissingCoordinates(t *testing.T) {
	row := stopRow(2, "Köhnə dayanacaq")
	row["latitude"] = nil
	row["longitude"] = nil
	client := &fakeClient{rows: []map[string]any{row}}
	store := NewStore(client)

	stops, err := store.FindStopsByName(context.Background(), "köhnə", 5)
	if err != nil {
		t.Fatalf("FindStopsByName returned error: %v", err)
	}
	if stops[0].HasLocation {
		t.Error("stop with null coordinates must have HasLocation=false")
	}
}

func TestFindStopsByName_MalformedRow(t *testing.T) {
	row := stopRow(3, "Gənclik")
	row["id"] = "not-an-int"
	client := &fakeClient{rows: []map[string]any{row}}
	store := NewStore(client)

	_, err := store.FindStopsByName(context.Background(), "gənclik", 5)
	if err == nil {
		t.Fatal("expected error for malformed id column")
	}
	if !strings.Contains(err.Error(), "malformed column") {
		t.Errorf("error = %v, want a malformed-column report", err)
	}
}

func TestFindNearestStops_DefaultsRadius(t *testing.T) {
	row := stopRow(1, "Gənclik metrosu")
	row["distanceMeters"] = 120.5
	client := &fakeClient{rows: []map[string]any{row}}
	store := NewStore(client)

	stops, err := store.FindNearestStops(context.Background(), 40.4, 49.85, 0, 10)
	if err != nil {
		t.Fatalf("FindNearestStops returned error: %v", err)
	}
	if stops[0].DistanceMeters != 120.5 {
		t.Errorf("DistanceMeters = %v, want 120.5", stops[0].DistanceMeters)
	}
	if client.lastParam["radius"] != DefaultSearchRadiusMeters {
		t.Errorf("radius param = %v, want default %d", client.lastParam["radius"], DefaultSearchRadiusMeters)
	}
}

// ====== Bus Query Tests ======

func busRow(id int64, number string) map[string]any {
	return map[string]any{
		"id":             id,
		"number":         number,
		"carrier":        "BakuBus",
		"firstPoint":     "28 May",
		"lastPoint":      "Gənclik",
		"tariffStr":      "0.50 AZN",
		"paymentType":    "kart",
		"routLength":     14.2,
		"durationMinuts": int64(55),
	}
}

func TestFindBusByNumber(t *testing.T) {
	client := &fakeClient{rows: []map[string]any{busRow(10, "88")}}
	store := NewStore(client)

	buses, err := store.FindBusByNumber(context.Background(), "88")
	if err != nil {
		t.Fatalf("FindBusByNumber returned error: %v", err)
	}
	if len(buses) != 1 {
		t.Fatalf("got %d buses, want 1", len(buses))
	}

	bus := buses[0]
	if bus.Number != "88" || bus.Carrier != "BakuBus" {
		t.Errorf("decoded bus = %+v", bus)
	}
	if bus.RouteLengthKm != 14.2 || bus.DurationMinutes != 55 {
		t.Errorf("route columns not decoded: %+v", bus)
	}
}

func TestFindBusesAtStop_SkipsRouteColumns(t *testing.T) {
	row := busRow(10, "88")
	delete(row, "routLength")
	delete(row, "durationMinuts")
	client := &fakeClient{rows: []map[string]any{row}}
	store := NewStore(client)

	buses, err := store.FindBusesAtStop(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindBusesAtStop returned error: %v", err)
	}
	if buses[0].RouteLengthKm != 0 || buses[0].DurationMinutes != 0 {
		t.Errorf("route columns should stay zero: %+v", buses[0])
	}
	if client.lastParam["stopId"] != int64(1) {
		t.Errorf("stopId param = %v", client.lastParam["stopId"])
	}
}

// ====== Route Query Tests ======

func TestFindDirectRoutes(t *testing.T) {
	client := &fakeClient{rows: []map[string]any{{
		"busId":          int64(10),
		"busNumber":      "88",
		"carrier":        "BakuBus",
		"tariffStr":      "0.50 AZN",
		"paymentType":    "kart",
		"durationMinuts": int64(40),
		"originStopId":   int64(1),
		"originStopName": "Gənclik metrosu",
		"destStopId":     int64(2),
		"destStopName":   "28 May metrosu",
		"direction":      int64(1),
		"stopCount":      int64(6),
	}}}
	store := NewStore(client)

	legs, err := store.FindDirectRoutes(context.Background(), []int64{1, 3}, []int64{2}, 5)
	if err != nil {
		t.Fatalf("FindDirectRoutes returned error: %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("got %d legs, want 1", len(legs))
	}

	leg := legs[0]
	if leg.BusNumber != "88" || leg.OriginStopID != 1 || leg.DestStopID != 2 || leg.StopCount != 6 {
		t.Errorf("decoded leg = %+v", leg)
	}

	originParams, ok := client.lastParam["originIds"].([]any)
	if !ok || len(originParams) != 2 {
		t.Fatalf("originIds param = %v, want a 2-element list", client.lastParam["originIds"])
	}
	if originParams[0] != int64(1) || originParams[1] != int64(3) {
		t.Errorf("originIds = %v", originParams)
	}
}

func TestFindOneTransferRoutes(t *testing.T) {
	client := &fakeClient{rows: []map[string]any{{
		"bus1Number":        "88",
		"bus1Carrier":       "BakuBus",
		"bus1Tariff":        "0.50 AZN",
		"bus2Number":        "125",
		"bus2Carrier":       nil,
		"bus2Tariff":        nil,
		"originStopName":    "Gənclik metrosu",
		"transferStop1Name": "Nizami metrosu",
		"transferStop2Name": "Nizami küçəsi",
		"walkingMeters":     85.0,
		"walkingMinutes":    int64(2),
		"destStopName":      "İçərişəhər",
		"totalStops":        int64(11),
	}}}
	store := NewStore(client)

	options, err := store.FindOneTransferRoutes(context.Background(), []int64{1}, []int64{2}, 5)
	if err != nil {
		t.Fatalf("FindOneTransferRoutes returned error: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("got %d options, want 1", len(options))
	}

	opt := options[0]
	if opt.Bus1Number != "88" || opt.Bus2Number != "125" {
		t.Errorf("bus numbers = %q, %q", opt.Bus1Number, opt.Bus2Number)
	}
	if opt.Bus2Carrier != "" {
		t.Errorf("null carrier should decode to empty string, got %q", opt.Bus2Carrier)
	}
	if opt.WalkingMeters != 85.0 || opt.WalkingMinutes != 2 || opt.TotalStops != 11 {
		t.Errorf("decoded option = %+v", opt)
	}
}

// ====== Stop Detail Tests ======

func TestStopDetail(t *testing.T) {
	row := stopRow(1, "28 May metrosu")
	row["buses"] = []any{
		map[string]any{
			"busId":      int64(10),
			"busNumber":  "88",
			"carrier":    "BakuBus",
			"firstPoint": "28 May",
			"lastPoint":  "Gənclik",
			"direction":  int64(1),
		},
	}
	client := &fakeClient{rows: []map[string]any{row}}
	store := NewStore(client)

	detail, err := store.StopDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("StopDetail returned error: %v", err)
	}
	if detail == nil {
		t.Fatal("expected a detail record")
	}
	if detail.Name != "28 May metrosu" || len(detail.Buses) != 1 {
		t.Fatalf("decoded detail = %+v", detail)
	}
	if detail.Buses[0].BusNumber != "88" || detail.Buses[0].Direction != 1 {
		t.Errorf("decoded bus = %+v", detail.Buses[0])
	}
}

func TestStopDetail_FiltersNullBusEntry(t *testing.T) {
	row := stopRow(1, "Tənha dayanacaq")
	row["buses"] = []any{
		map[string]any{"busId": nil, "busNumber": nil},
	}
	client := &fakeClient{rows: []map[string]any{row}}
	store := NewStore(client)

	detail, err := store.StopDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("StopDetail returned error: %v", err)
	}
	if len(detail.Buses) != 0 {
		t.Errorf("null bus entry must be filtered, got %+v", detail.Buses)
	}
	if detail.Buses == nil {
		t.Error("Buses must be an empty slice, not nil")
	}
}

func TestStopDetail_UnknownStop(t *testing.T) {
	store := NewStore(&fakeClient{})

	detail, err := store.StopDetail(context.Background(), 999)
	if err != nil {
		t.Fatalf("StopDetail returned error: %v", err)
	}
	if detail != nil {
		t.Errorf("expected nil for an unknown stop, got %+v", detail)
	}
}
