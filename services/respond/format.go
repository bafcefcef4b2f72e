// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package respond

import (
	"fmt"
	"strings"

	"github.com/bakutransit/conductor/services/graph"
	"github.com/bakutransit/conductor/services/route"
)

// FormatRouteContext renders a route search result as the context block
// handed to the response generator.
func FormatRouteContext(result route.Result, originName, destName string) string {
	var b strings.Builder

	switch result.Kind {
	case route.KindDirect:
		fmt.Fprintf(&b, "%s → %s üçün birbaşa marşrutlar:\n", originName, destName)
		for _, leg := range result.Direct {
			fmt.Fprintf(&b, "- Avtobus #%s (%s): %s → %s, %d dayanacaq",
				leg.BusNumber, leg.Carrier, leg.OriginStopName, leg.DestStopName, leg.StopCount)
			if leg.Tariff != "" {
				fmt.Fprintf(&b, ", qiymət: %s", leg.Tariff)
			}
			b.WriteString("\n")
		}

	case route.KindOneTransfer:
		fmt.Fprintf(&b, "%s → %s üçün birbaşa marşrut yoxdur. Bir köçürmə ilə variantlar:\n", originName, destName)
		for _, opt := range result.Transfers {
			fmt.Fprintf(&b, "- Avtobus #%s (%s-dən %s-ə qədər), sonra %.0f m piyada (%d dəq) %s dayanacağına, oradan avtobus #%s %s-ə qədər. Cəmi %d dayanacaq.\n",
				opt.Bus1Number, opt.OriginStopName, opt.TransferStop1Name,
				opt.WalkingMeters, opt.WalkingMinutes, opt.TransferStop2Name,
				opt.Bus2Number, opt.DestStopName, opt.TotalStops)
		}

	default:
		fmt.Fprintf(&b, "%s → %s üçün nə birbaşa, nə də bir köçürməli marşrut tapılmadı. "+
			"İstifadəçiyə bunu nəzakətlə bildir.", originName, destName)
	}

	return b.String()
}

// FormatBusContext renders a bus record plus its stop sequence.
func FormatBusContext(bus graph.BusSummary, stops []graph.RouteStop) string {
	names := make([]string, 0, len(stops))
	for _, s := range stops {
		names = append(names, s.StopName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Avtobus #%s (%s)\n", bus.Number, bus.Carrier)
	fmt.Fprintf(&b, "Marşrut: %s → %s\n", bus.FirstPoint, bus.LastPoint)
	if bus.RouteLengthKm > 0 {
		fmt.Fprintf(&b, "Uzunluq: %.1f km\n", bus.RouteLengthKm)
	}
	if bus.DurationMinutes > 0 {
		fmt.Fprintf(&b, "Müddət: %d dəqiqə\n", bus.DurationMinutes)
	}
	if bus.Tariff != "" {
		fmt.Fprintf(&b, "Qiymət: %s\n", bus.Tariff)
	}
	if bus.PaymentType != "" {
		fmt.Fprintf(&b, "Ödəniş: %s\n", bus.PaymentType)
	}
	fmt.Fprintf(&b, "Dayanacaqlar: %s", strings.Join(names, " → "))
	return b.String()
}

// FormatStopContext renders a stop-detail record.
func FormatStopContext(detail graph.StopDetail) string {
	busLines := make([]string, 0, len(detail.Buses))
	for _, bus := range detail.Buses {
		if bus.BusNumber == "" {
			continue
		}
		busLines = append(busLines, fmt.Sprintf("#%s (%s → %s)", bus.BusNumber, bus.FirstPoint, bus.LastPoint))
	}

	hub := "Xeyr"
	if detail.IsTransportHub {
		hub = "Bəli"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dayanacaq: %s", detail.Name)
	if detail.Code != "" {
		fmt.Fprintf(&b, " (kod: %s)", detail.Code)
	}
	b.WriteString("\n")
	if detail.HasLocation {
		fmt.Fprintf(&b, "Koordinatlar: %v, %v\n", detail.Latitude, detail.Longitude)
	}
	fmt.Fprintf(&b, "Transport qovşağı: %s\n", hub)
	fmt.Fprintf(&b, "Bu dayanacaqdan keçən avtobuslar: %s", strings.Join(busLines, ", "))
	return b.String()
}

// FormatNearbyContext renders the nearest-stop list.
func FormatNearbyContext(stops []graph.NearbyStop) string {
	var b strings.Builder
	b.WriteString("İstifadəçinin yaxınlığındakı dayanacaqlar:\n")
	for i, s := range stops {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%.0f m)\n", s.Name, s.DistanceMeters)
	}
	return strings.TrimRight(b.String(), "\n")
}

// StopNames joins the first n stop names for greeting text.
func StopNames(stops []graph.NearbyStop, n int) string {
	names := make([]string, 0, n)
	for i, s := range stops {
		if i >= n {
			break
		}
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}
