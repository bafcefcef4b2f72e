// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for unknown session identifiers. It is a client
// error, never retried.
var ErrNotFound = errors.New("session: not found")

// Default store tuning.
const (
	DefaultTTL             = 12 * time.Hour
	DefaultCleanupInterval = 1 * time.Hour
)

// Store keeps sessions in process memory with TTL expiry. Sessions touched
// by Get have their expiry slid forward so active conversations survive.
//
// Thread Safety: Store is safe for concurrent use. It hands out shared
// *Session pointers; see Session for the locking discipline.
type Store struct {
	cache *gocache.Cache
}

// NewStore creates a session store. A ttl <= 0 uses DefaultTTL; a
// cleanupInterval <= 0 uses DefaultCleanupInterval.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Store{cache: gocache.New(ttl, cleanupInterval)}
}

// Create allocates a new session with a random identifier.
func (s *Store) Create() *Session {
	sess := &Session{ID: uuid.NewString()}
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get returns the session for an identifier, sliding its expiry, or
// ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	sess := v.(*Session)
	s.cache.SetDefault(id, sess)
	return sess, nil
}

// Count returns the number of live sessions. Used by health reporting.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
