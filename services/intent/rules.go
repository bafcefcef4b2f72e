// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package intent

import (
	"regexp"
	"strings"
)

// busNumberRe matches bare bus-number questions: "3", "#65",
// "108a nömrəli avtobus haqqında". Input is lowercased before matching.
var busNumberRe = regexp.MustCompile(
	`^(?:#?\s*)?(\d{1,3}[a-z]?)\s*(?:nömrəli|nomreli|nomerli)?\s*(?:avtobus)?\s*(?:haqqında|haqqinda|məlumat|melumat)?\.?$`,
)

// twoPointRouteRe captures "X-dan Y-a necə gedim" style two-slot route
// questions; group 1 is the origin, group 2 the destination.
var twoPointRouteRe = regexp.MustCompile(`(.+?)(?:dan|dən)\s+(.+?)\s+(?:necə|nece|hansı|hansi)`)

// singleDestRe captures "Y necə gedim" single-destination questions.
var singleDestRe = regexp.MustCompile(`(.+?)\s+(?:necə|nece|hansı|hansi)`)

var routeKeywords = []string{
	"necə gedim", "nece gedim",
	"hansı avtobus", "hansi avtobus",
	"getmək", "getmek",
	"gedə bilərəm", "gede bilerem",
}

var nearbyKeywords = []string{
	"yaxınlıq", "yaxinliq",
	"yaxında", "yaxinda",
	"dayanacaq var",
	"ən yaxın", "en yaxin",
}

var greetingKeywords = []string{"salam", "hello", "hi", "merhaba"}

// locationWords mark an origin phrase as "from where I am now".
var locationWords = []string{
	"buradan", "burdan", "burada", "bura",
	"məndən", "menden",
	"mənə yaxın", "mene yaxin",
}

// localParse classifies a message without a model call. The second return
// is false when the rules are not confident; callers then fall back to the
// upstream classifier.
func localParse(message string) (Parsed, bool) {
	m := strings.ToLower(strings.TrimSpace(message))

	trimmed := strings.TrimRight(m, "!")
	for _, kw := range greetingKeywords {
		if m == kw || trimmed == kw {
			return General(), true
		}
	}

	if match := busNumberRe.FindStringSubmatch(m); match != nil {
		return Parsed{
			Intent:   IntentBusInfo,
			Entities: map[string]string{EntityBusNumber: match[1]},
		}, true
	}

	for _, kw := range nearbyKeywords {
		if strings.Contains(m, kw) {
			return Parsed{Intent: IntentNearbyStops, Entities: map[string]string{}}, true
		}
	}

	if containsAny(m, routeKeywords) {
		origin := UserLocation
		destination := m

		if match := twoPointRouteRe.FindStringSubmatch(m); match != nil {
			origin = strings.TrimSpace(match[1])
			destination = strings.TrimSpace(match[2])
		} else if match := singleDestRe.FindStringSubmatch(m); match != nil {
			destination = strings.TrimSpace(match[1])
		}

		if containsAny(origin, locationWords) {
			origin = UserLocation
		}

		return Parsed{
			Intent: IntentRouteFind,
			Entities: map[string]string{
				EntityOrigin:      origin,
				EntityDestination: destination,
			},
		}, true
	}

	return Parsed{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
