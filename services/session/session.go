// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session holds per-conversation state: transcript, last known
// location, and the pending destination awaiting a follow-up origin.
// State is in-process only; loss on restart is acceptable.
package session

import (
	"sync"

	"github.com/bakutransit/conductor/services/graph"
)

// Message roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// LocationSource records how the session learned its coordinate.
type LocationSource string

const (
	// SourceGeolocation means the client sent device coordinates.
	SourceGeolocation LocationSource = "geolocation"
	// SourceManual means the user entered the location by hand.
	SourceManual LocationSource = "manual"
)

// BotAction tags a model-authored transcript message with the action the
// emitting handler performed. Dialogue-continuity decisions read this tag;
// they never re-derive intent by parsing historical message text.
type BotAction int

const (
	// ActionNone is a plain reply with no follow-up expectation.
	ActionNone BotAction = iota
	// ActionAskedForLocation means the bot asked the user where they are.
	ActionAskedForLocation
)

// Message is one role-tagged transcript entry. The transcript is
// append-only.
type Message struct {
	Role   string
	Text   string
	Action BotAction
}

// Session is ephemeral, server-held conversational state.
//
// Locking: a chat turn owns the session for its duration. Callers must
// hold the session lock (Lock/Unlock) around any field access; the store
// itself never locks sessions.
type Session struct {
	mu sync.Mutex

	ID string

	Latitude       float64
	Longitude      float64
	HasLocation    bool
	LocationSource LocationSource

	// NearestStops is the snapshot computed at the last location update.
	NearestStops []graph.NearbyStop

	// PendingDestination is a free-text destination awaiting a follow-up
	// origin, or "" when none is pending. A non-empty value puts the
	// dialogue in the awaiting-origin state.
	PendingDestination string

	History []Message
}

// Lock acquires the per-session lock, serializing concurrent turns on the
// same session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// SetLocation updates the session coordinate and its source.
func (s *Session) SetLocation(lat, lng float64, source LocationSource) {
	s.Latitude = lat
	s.Longitude = lng
	s.HasLocation = true
	s.LocationSource = source
}

// AddUserMessage appends a user-authored transcript entry.
func (s *Session) AddUserMessage(text string) {
	s.History = append(s.History, Message{Role: RoleUser, Text: text})
}

// AddModelMessage appends a plain model-authored transcript entry.
func (s *Session) AddModelMessage(text string) {
	s.AddTaggedModelMessage(text, ActionNone)
}

// AddTaggedModelMessage appends a model-authored transcript entry carrying
// the action the emitting handler performed.
func (s *Session) AddTaggedModelMessage(text string, action BotAction) {
	s.History = append(s.History, Message{Role: RoleModel, Text: text, Action: action})
}

// LastBotAction returns the action tag of the most recent model-authored
// message, or ActionNone when the transcript has none.
func (s *Session) LastBotAction() BotAction {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleModel {
			return s.History[i].Action
		}
	}
	return ActionNone
}

// AwaitingOrigin reports whether the session is waiting for the user to
// answer a "where are you" question for a pending destination.
func (s *Session) AwaitingOrigin() bool {
	return s.PendingDestination != "" && s.LastBotAction() == ActionAskedForLocation
}
