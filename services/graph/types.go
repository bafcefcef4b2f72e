// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "fmt"

// Stop is a physical transit stopping point. Read-only reference data;
// created and maintained by an external loading process.
type Stop struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Code           string  `json:"code,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	HasLocation    bool    `json:"hasLocation"`
	IsTransportHub bool    `json:"isTransportHub"`
}

// NearbyStop is a stop annotated with its distance from a reference point,
// as computed by the spatial index query.
type NearbyStop struct {
	Stop
	DistanceMeters float64 `json:"distanceMeters"`
}

// BusSummary describes a transit line. Read-only.
type BusSummary struct {
	ID              int64   `json:"id"`
	Number          string  `json:"number"`
	Carrier         string  `json:"carrier,omitempty"`
	FirstPoint      string  `json:"firstPoint,omitempty"`
	LastPoint       string  `json:"lastPoint,omitempty"`
	RouteLengthKm   float64 `json:"routeLengthKm,omitempty"`
	DurationMinutes int64   `json:"durationMinutes,omitempty"`
	Tariff          string  `json:"tariff,omitempty"`
	PaymentType     string  `json:"paymentType,omitempty"`
}

// RouteStop is one stop within a bus's ordered sequence for a direction.
type RouteStop struct {
	StopID    int64   `json:"stopId"`
	StopName  string  `json:"stopName"`
	StopCode  string  `json:"stopCode,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Order     int64   `json:"order"`
	Distance  float64 `json:"distanceFromStart"`
}

// DirectLeg is a single-bus itinerary from an origin stop to a destination
// stop on the same bus and direction with origin strictly preceding the
// destination.
type DirectLeg struct {
	BusID           int64  `json:"busId"`
	BusNumber       string `json:"busNumber"`
	Carrier         string `json:"carrier,omitempty"`
	Tariff          string `json:"tariff,omitempty"`
	PaymentType     string `json:"paymentType,omitempty"`
	DurationMinutes int64  `json:"durationMinutes,omitempty"`
	OriginStopID    int64  `json:"originStopId"`
	OriginStopName  string `json:"originStopName"`
	DestStopID      int64  `json:"destStopId"`
	DestStopName    string `json:"destStopName"`
	Direction       int64  `json:"direction"`
	StopCount       int64  `json:"stopCount"`
}

// TransferOption is a two-bus itinerary joined by a walking transfer edge.
type TransferOption struct {
	Bus1Number        string  `json:"bus1Number"`
	Bus1Carrier       string  `json:"bus1Carrier,omitempty"`
	Bus1Tariff        string  `json:"bus1Tariff,omitempty"`
	Bus2Number        string  `json:"bus2Number"`
	Bus2Carrier       string  `json:"bus2Carrier,omitempty"`
	Bus2Tariff        string  `json:"bus2Tariff,omitempty"`
	OriginStopName    string  `json:"originStopName"`
	TransferStop1Name string  `json:"transferStop1Name"`
	TransferStop2Name string  `json:"transferStop2Name"`
	WalkingMeters     float64 `json:"walkingMeters"`
	WalkingMinutes    int64   `json:"walkingMinutes"`
	DestStopName      string  `json:"destStopName"`
	TotalStops        int64   `json:"totalStops"`
}

// StopBus is one bus passing a stop, annotated with the direction of the
// visit, as returned by the stop-detail query.
type StopBus struct {
	BusID      int64  `json:"busId"`
	BusNumber  string `json:"busNumber"`
	Carrier    string `json:"carrier,omitempty"`
	FirstPoint string `json:"firstPoint,omitempty"`
	LastPoint  string `json:"lastPoint,omitempty"`
	Direction  int64  `json:"direction"`
}

// StopDetail is a stop record plus the distinct buses that visit it.
type StopDetail struct {
	Stop
	Buses []StopBus `json:"buses"`
}

// rowError reports a malformed column in a query result row. Rows are
// validated at the query-execution boundary so callers only ever see typed
// records.
func rowError(query, column string, value any) error {
	return fmt.Errorf("graph: query %s returned malformed column %q (value %v of type %T)", query, column, value, value)
}

// intColumn reads a required integer column.
func intColumn(query string, row map[string]any, column string) (int64, error) {
	switch v := row[column].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, rowError(query, column, row[column])
	}
}

// optionalIntColumn reads an integer column that may be null.
func optionalIntColumn(query string, row map[string]any, column string) (int64, error) {
	if row[column] == nil {
		return 0, nil
	}
	return intColumn(query, row, column)
}

// stringColumn reads a string column. Null decodes to "".
func stringColumn(query string, row map[string]any, column string) (string, error) {
	switch v := row[column].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", rowError(query, column, row[column])
	}
}

// floatColumn reads a numeric column. The second return reports whether the
// value was present; null decodes to (0, false).
func floatColumn(query string, row map[string]any, column string) (float64, bool, error) {
	switch v := row[column].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case int64:
		return float64(v), true, nil
	default:
		return 0, false, rowError(query, column, row[column])
	}
}

// boolColumn reads a boolean column. Null decodes to false.
func boolColumn(query string, row map[string]any, column string) (bool, error) {
	switch v := row[column].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, rowError(query, column, row[column])
	}
}

// decodeStop decodes the shared stop columns (id, name, code, latitude,
// longitude, isTransportHub) from a row.
func decodeStop(query string, row map[string]any) (Stop, error) {
	var stop Stop
	var err error

	if stop.ID, err = intColumn(query, row, "id"); err != nil {
		return Stop{}, err
	}
	if stop.Name, err = stringColumn(query, row, "name"); err != nil {
		return Stop{}, err
	}
	if stop.Code, err = stringColumn(query, row, "code"); err != nil {
		return Stop{}, err
	}

	lat, latOK, err := floatColumn(query, row, "latitude")
	if err != nil {
		return Stop{}, err
	}
	lng, lngOK, err := floatColumn(query, row, "longitude")
	if err != nil {
		return Stop{}, err
	}
	stop.Latitude = lat
	stop.Longitude = lng
	stop.HasLocation = latOK && lngOK

	if stop.IsTransportHub, err = boolColumn(query, row, "isTransportHub"); err != nil {
		return Stop{}, err
	}
	return stop, nil
}
