// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph provides typed, read-only query access to the transit
// graph (stops, buses, stop-visit edges, walking transfer edges).
//
// Every operation is a single parameterized Cypher template plus row
// decoding; ranking and filtering live in the templates. Empty results are
// values, not errors.
package graph

import (
	"context"
)

// DefaultSearchRadiusMeters is the radius used for nearest-stop lookups
// when the caller does not specify one.
const DefaultSearchRadiusMeters = 1000

// Store exposes one typed method per query template.
//
// Thread Safety: Store is safe for concurrent use as long as its Client is.
type Store struct {
	client Client
}

// NewStore creates a Store over a graph client.
func NewStore(client Client) *Store {
	return &Store{client: client}
}

// FindStopsByName returns stops whose normalized name contains the given
// substring, hub stops first then lexical order, at most limit entries.
// The name is matched against the case-normalized index, so callers should
// pass already-normalized input.
func (s *Store) FindStopsByName(ctx context.Context, name string, limit int) ([]Stop, error) {
	rows, err := s.client.RunQuery(ctx, findStopsByNameCypher, map[string]any{
		"name":  name,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	stops := make([]Stop, 0, len(rows))
	for _, row := range rows {
		stop, err := decodeStop("findStopsByName", row)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

// FindNearestStops returns stops within radiusMeters of the point, nearest
// first. A radiusMeters of 0 uses DefaultSearchRadiusMeters.
func (s *Store) FindNearestStops(ctx context.Context, lat, lng float64, radiusMeters, limit int) ([]NearbyStop, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultSearchRadiusMeters
	}

	rows, err := s.client.RunQuery(ctx, findNearestStopsCypher, map[string]any{
		"lat":    lat,
		"lng":    lng,
		"radius": radiusMeters,
		"limit":  limit,
	})
	if err != nil {
		return nil, err
	}

	stops := make([]NearbyStop, 0, len(rows))
	for _, row := range rows {
		stop, err := decodeStop("findNearestStops", row)
		if err != nil {
			return nil, err
		}
		dist, _, err := floatColumn("findNearestStops", row, "distanceMeters")
		if err != nil {
			return nil, err
		}
		stops = append(stops, NearbyStop{Stop: stop, DistanceMeters: dist})
	}
	return stops, nil
}

// FindBusByNumber returns the buses matching a line number exactly. Line
// numbers may carry a letter suffix ("108A"), so this is a string match.
func (s *Store) FindBusByNumber(ctx context.Context, number string) ([]BusSummary, error) {
	rows, err := s.client.RunQuery(ctx, findBusByNumberCypher, map[string]any{
		"number": number,
	})
	if err != nil {
		return nil, err
	}
	return decodeBusSummaries("findBusByNumber", rows, true)
}

// FindBusesAtStop returns the distinct buses visiting a stop, ordered by
// line number.
func (s *Store) FindBusesAtStop(ctx context.Context, stopID int64) ([]BusSummary, error) {
	rows, err := s.client.RunQuery(ctx, findBusesAtStopCypher, map[string]any{
		"stopId": stopID,
	})
	if err != nil {
		return nil, err
	}
	return decodeBusSummaries("findBusesAtStop", rows, false)
}

// BusRouteStops returns a bus's stop sequence for one direction, ordered
// by position along the route.
func (s *Store) BusRouteStops(ctx context.Context, busID, direction int64) ([]RouteStop, error) {
	rows, err := s.client.RunQuery(ctx, busRouteStopsCypher, map[string]any{
		"busId":     busID,
		"direction": direction,
	})
	if err != nil {
		return nil, err
	}

	const query = "busRouteStops"
	stops := make([]RouteStop, 0, len(rows))
	for _, row := range rows {
		var rs RouteStop
		var err error
		if rs.StopID, err = intColumn(query, row, "stopId"); err != nil {
			return nil, err
		}
		if rs.StopName, err = stringColumn(query, row, "stopName"); err != nil {
			return nil, err
		}
		if rs.StopCode, err = stringColumn(query, row, "stopCode"); err != nil {
			return nil, err
		}
		if rs.Latitude, _, err = floatColumn(query, row, "latitude"); err != nil {
			return nil, err
		}
		if rs.Longitude, _, err = floatColumn(query, row, "longitude"); err != nil {
			return nil, err
		}
		if rs.Order, err = intColumn(query, row, "stopOrder"); err != nil {
			return nil, err
		}
		if rs.Distance, _, err = floatColumn(query, row, "distance"); err != nil {
			return nil, err
		}
		stops = append(stops, rs)
	}
	return stops, nil
}

// FindDirectRoutes returns single-bus legs from any origin ID to any
// destination ID, ranked ascending by stops traversed, at most limit rows.
func (s *Store) FindDirectRoutes(ctx context.Context, originIDs, destIDs []int64, limit int) ([]DirectLeg, error) {
	rows, err := s.client.RunQuery(ctx, findDirectRoutesCypher, map[string]any{
		"originIds": int64Params(originIDs),
		"destIds":   int64Params(destIDs),
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	const query = "findDirectRoutes"
	legs := make([]DirectLeg, 0, len(rows))
	for _, row := range rows {
		var leg DirectLeg
		var err error
		if leg.BusID, err = intColumn(query, row, "busId"); err != nil {
			return nil, err
		}
		if leg.BusNumber, err = stringColumn(query, row, "busNumber"); err != nil {
			return nil, err
		}
		if leg.Carrier, err = stringColumn(query, row, "carrier"); err != nil {
			return nil, err
		}
		if leg.Tariff, err = stringColumn(query, row, "tariffStr"); err != nil {
			return nil, err
		}
		if leg.PaymentType, err = stringColumn(query, row, "paymentType"); err != nil {
			return nil, err
		}
		if leg.DurationMinutes, err = optionalIntColumn(query, row, "durationMinuts"); err != nil {
			return nil, err
		}
		if leg.OriginStopID, err = intColumn(query, row, "originStopId"); err != nil {
			return nil, err
		}
		if leg.OriginStopName, err = stringColumn(query, row, "originStopName"); err != nil {
			return nil, err
		}
		if leg.DestStopID, err = intColumn(query, row, "destStopId"); err != nil {
			return nil, err
		}
		if leg.DestStopName, err = stringColumn(query, row, "destStopName"); err != nil {
			return nil, err
		}
		if leg.Direction, err = intColumn(query, row, "direction"); err != nil {
			return nil, err
		}
		if leg.StopCount, err = intColumn(query, row, "stopCount"); err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// FindOneTransferRoutes returns two-bus itineraries joined by a walking
// transfer edge, ranked by total stops then walking distance, at most
// limit rows.
func (s *Store) FindOneTransferRoutes(ctx context.Context, originIDs, destIDs []int64, limit int) ([]TransferOption, error) {
	rows, err := s.client.RunQuery(ctx, findOneTransferRoutesCypher, map[string]any{
		"originIds": int64Params(originIDs),
		"destIds":   int64Params(destIDs),
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	const query = "findOneTransferRoutes"
	options := make([]TransferOption, 0, len(rows))
	for _, row := range rows {
		var opt TransferOption
		var err error
		if opt.Bus1Number, err = stringColumn(query, row, "bus1Number"); err != nil {
			return nil, err
		}
		if opt.Bus1Carrier, err = stringColumn(query, row, "bus1Carrier"); err != nil {
			return nil, err
		}
		if opt.Bus1Tariff, err = stringColumn(query, row, "bus1Tariff"); err != nil {
			return nil, err
		}
		if opt.Bus2Number, err = stringColumn(query, row, "bus2Number"); err != nil {
			return nil, err
		}
		if opt.Bus2Carrier, err = stringColumn(query, row, "bus2Carrier"); err != nil {
			return nil, err
		}
		if opt.Bus2Tariff, err = stringColumn(query, row, "bus2Tariff"); err != nil {
			return nil, err
		}
		if opt.OriginStopName, err = stringColumn(query, row, "originStopName"); err != nil {
			return nil, err
		}
		if opt.TransferStop1Name, err = stringColumn(query, row, "transferStop1Name"); err != nil {
			return nil, err
		}
		if opt.TransferStop2Name, err = stringColumn(query, row, "transferStop2Name"); err != nil {
			return nil, err
		}
		if opt.WalkingMeters, _, err = floatColumn(query, row, "walkingMeters"); err != nil {
			return nil, err
		}
		if opt.WalkingMinutes, err = optionalIntColumn(query, row, "walkingMinutes"); err != nil {
			return nil, err
		}
		if opt.DestStopName, err = stringColumn(query, row, "destStopName"); err != nil {
			return nil, err
		}
		if opt.TotalStops, err = intColumn(query, row, "totalStops"); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, nil
}

// StopDetail returns a stop record plus the buses passing it, or nil when
// the stop does not exist.
func (s *Store) StopDetail(ctx context.Context, stopID int64) (*StopDetail, error) {
	rows, err := s.client.RunQuery(ctx, stopDetailCypher, map[string]any{
		"stopId": stopID,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	const query = "stopDetail"
	row := rows[0]

	stop, err := decodeStop(query, row)
	if err != nil {
		return nil, err
	}
	detail := &StopDetail{Stop: stop, Buses: []StopBus{}}

	rawBuses, ok := row["buses"].([]any)
	if !ok {
		return nil, rowError(query, "buses", row["buses"])
	}
	for _, rawBus := range rawBuses {
		busRow, ok := rawBus.(map[string]any)
		if !ok {
			return nil, rowError(query, "buses", rawBus)
		}
		// OPTIONAL MATCH yields one all-null entry for stops with no buses.
		if busRow["busId"] == nil {
			continue
		}

		var bus StopBus
		if bus.BusID, err = intColumn(query, busRow, "busId"); err != nil {
			return nil, err
		}
		if bus.BusNumber, err = stringColumn(query, busRow, "busNumber"); err != nil {
			return nil, err
		}
		if bus.Carrier, err = stringColumn(query, busRow, "carrier"); err != nil {
			return nil, err
		}
		if bus.FirstPoint, err = stringColumn(query, busRow, "firstPoint"); err != nil {
			return nil, err
		}
		if bus.LastPoint, err = stringColumn(query, busRow, "lastPoint"); err != nil {
			return nil, err
		}
		if bus.Direction, err = optionalIntColumn(query, busRow, "direction"); err != nil {
			return nil, err
		}
		detail.Buses = append(detail.Buses, bus)
	}
	return detail, nil
}

// decodeBusSummaries decodes bus rows. withRoute includes the length and
// duration columns, which only the by-number query returns.
func decodeBusSummaries(query string, rows []map[string]any, withRoute bool) ([]BusSummary, error) {
	buses := make([]BusSummary, 0, len(rows))
	for _, row := range rows {
		var bus BusSummary
		var err error
		if bus.ID, err = intColumn(query, row, "id"); err != nil {
			return nil, err
		}
		if bus.Number, err = stringColumn(query, row, "number"); err != nil {
			return nil, err
		}
		if bus.Carrier, err = stringColumn(query, row, "carrier"); err != nil {
			return nil, err
		}
		if bus.FirstPoint, err = stringColumn(query, row, "firstPoint"); err != nil {
			return nil, err
		}
		if bus.LastPoint, err = stringColumn(query, row, "lastPoint"); err != nil {
			return nil, err
		}
		if bus.Tariff, err = stringColumn(query, row, "tariffStr"); err != nil {
			return nil, err
		}
		if bus.PaymentType, err = stringColumn(query, row, "paymentType"); err != nil {
			return nil, err
		}
		if withRoute {
			if bus.RouteLengthKm, _, err = floatColumn(query, row, "routLength"); err != nil {
				return nil, err
			}
			if bus.DurationMinutes, err = optionalIntColumn(query, row, "durationMinuts"); err != nil {
				return nil, err
			}
		}
		buses = append(buses, bus)
	}
	return buses, nil
}

// int64Params converts an ID slice into the []any form the driver expects
// for list parameters.
func int64Params(ids []int64) []any {
	params := make([]any, len(ids))
	for i, id := range ids {
		params[i] = id
	}
	return params
}
