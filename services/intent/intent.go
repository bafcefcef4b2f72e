// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package intent classifies user messages into transit intents and
// extracts their entities. A zero-cost local rule pass handles the obvious
// shapes; everything else goes to the language model.
package intent

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentRouteFind    Intent = "route_find"
	IntentBusInfo      Intent = "bus_info"
	IntentStopInfo     Intent = "stop_info"
	IntentNearbyStops  Intent = "nearby_stops"
	IntentFareInfo     Intent = "fare_info"
	IntentScheduleInfo Intent = "schedule_info"
	IntentGeneral      Intent = "general"
)

// Entity keys used in Parsed.Entities.
const (
	EntityOrigin      = "origin"
	EntityDestination = "destination"
	EntityBusNumber   = "bus_number"
	EntityStopName    = "stop_name"
)

// UserLocation is the sentinel origin value meaning "wherever the user is
// right now".
const UserLocation = "user_location"

// Parsed is a classified message.
type Parsed struct {
	Intent   Intent            `json:"intent"`
	Entities map[string]string `json:"entities"`
}

// General returns the default classification used when the upstream
// response is missing or malformed.
func General() Parsed {
	return Parsed{Intent: IntentGeneral, Entities: map[string]string{}}
}

// knownIntents is the closed intent taxonomy.
var knownIntents = map[Intent]struct{}{
	IntentRouteFind:    {},
	IntentBusInfo:      {},
	IntentStopInfo:     {},
	IntentNearbyStops:  {},
	IntentFareInfo:     {},
	IntentScheduleInfo: {},
	IntentGeneral:      {},
}

// valid reports whether an intent belongs to the taxonomy.
func (i Intent) valid() bool {
	_, ok := knownIntents[i]
	return ok
}
