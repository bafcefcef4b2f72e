// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package respond

import (
	"strings"
	"testing"

	"github.com/bakutransit/conductor/services/graph"
	"github.com/bakutransit/conductor/services/route"
)

func TestFormatRouteContext_Direct(t *testing.T) {
	result := route.Result{
		Kind: route.KindDirect,
		Direct: []graph.DirectLeg{{
			BusNumber:      "88",
			Carrier:        "BakuBus",
			OriginStopName: "Gənclik metrosu",
			DestStopName:   "28 May metrosu",
			StopCount:      6,
			Tariff:         "0.50 AZN",
		}},
	}

	got := FormatRouteContext(result, "Gənclik", "28 May")
	for _, want := range []string{"birbaşa marşrutlar", "#88", "BakuBus", "6 dayanacaq", "0.50 AZN"} {
		if !strings.Contains(got, want) {
			t.Errorf("direct context missing %q:\n%s", want, got)
		}
	}
}

func TestFormatRouteContext_OneTransfer(t *testing.T) {
	result := route.Result{
		Kind: route.KindOneTransfer,
		Transfers: []graph.TransferOption{{
			Bus1Number:        "88",
			Bus2Number:        "125",
			OriginStopName:    "Gənclik metrosu",
			TransferStop1Name: "Nizami metrosu",
			TransferStop2Name: "Nizami küçəsi",
			WalkingMeters:     85,
			WalkingMinutes:    2,
			DestStopName:      "İçərişəhər",
			TotalStops:        11,
		}},
	}

	got := FormatRouteContext(result, "Gənclik", "İçərişəhər")
	for _, want := range []string{"birbaşa marşrut yoxdur", "#88", "#125", "85 m piyada", "Cəmi 11 dayanacaq"} {
		if !strings.Contains(got, want) {
			t.Errorf("transfer context missing %q:\n%s", want, got)
		}
	}
}

func TestFormatRouteContext_NoRoute(t *testing.T) {
	got := FormatRouteContext(route.Result{Kind: route.KindNoRoute}, "Gənclik", "Sumqayıt")
	if !strings.Contains(got, "tapılmadı") {
		t.Errorf("no-route context missing the not-found phrase:\n%s", got)
	}
}

func TestFormatBusContext(t *testing.T) {
	bus := graph.BusSummary{
		Number:          "88",
		Carrier:         "BakuBus",
		FirstPoint:      "28 May",
		LastPoint:       "Gənclik",
		RouteLengthKm:   14.2,
		DurationMinutes: 55,
		Tariff:          "0.50 AZN",
	}
	stops := []graph.RouteStop{
		{StopName: "28 May metrosu"},
		{StopName: "Nizami metrosu"},
	}

	got := FormatBusContext(bus, stops)
	for _, want := range []string{"Avtobus #88", "14.2 km", "55 dəqiqə", "28 May metrosu", "Nizami metrosu"} {
		if !strings.Contains(got, want) {
			t.Errorf("bus context missing %q:\n%s", want, got)
		}
	}
}

func TestFormatBusContext_OmitsZeroFields(t *testing.T) {
	got := FormatBusContext(graph.BusSummary{Number: "5"}, nil)
	if strings.Contains(got, "Uzunluq") || strings.Contains(got, "Müddət") || strings.Contains(got, "Qiymət") {
		t.Errorf("zero-valued fields should be omitted:\n%s", got)
	}
}

func TestFormatStopContext(t *testing.T) {
	detail := graph.StopDetail{
		Stop: graph.Stop{
			Name:           "28 May metrosu",
			Code:           "2801",
			Latitude:       40.3797,
			Longitude:      49.8485,
			HasLocation:    true,
			IsTransportHub: true,
		},
		Buses: []graph.StopBus{
			{BusNumber: "88", FirstPoint: "28 May", LastPoint: "Gənclik"},
		},
	}

	got := FormatStopContext(detail)
	for _, want := range []string{"28 May metrosu", "kod: 2801", "Bəli", "#88"} {
		if !strings.Contains(got, want) {
			t.Errorf("stop context missing %q:\n%s", want, got)
		}
	}
}

func TestFormatNearbyContext_CapsAtFive(t *testing.T) {
	stops := make([]graph.NearbyStop, 8)
	for i := range stops {
		stops[i] = graph.NearbyStop{
			Stop:           graph.Stop{Name: "Dayanacaq"},
			DistanceMeters: float64(100 + i),
		}
	}

	got := FormatNearbyContext(stops)
	if n := strings.Count(got, "- "); n != 5 {
		t.Errorf("nearby context lists %d stops, want 5:\n%s", n, got)
	}
}

func TestStopNames(t *testing.T) {
	stops := []graph.NearbyStop{
		{Stop: graph.Stop{Name: "Gənclik metrosu"}},
		{Stop: graph.Stop{Name: "28 May metrosu"}},
		{Stop: graph.Stop{Name: "Nizami metrosu"}},
	}

	got := StopNames(stops, 2)
	if got != "Gənclik metrosu, 28 May metrosu" {
		t.Errorf("StopNames = %q", got)
	}
}
