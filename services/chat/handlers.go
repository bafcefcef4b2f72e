// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bakutransit/conductor/services/graph"
	"github.com/bakutransit/conductor/services/llm"
	"github.com/bakutransit/conductor/services/respond"
	"github.com/bakutransit/conductor/services/route"
	"github.com/bakutransit/conductor/services/session"
)

// IntentError is the intent string reported when a turn degraded to the
// rate-limit apology.
const IntentError = "error"

// greetingStopCount is how many nearest-stop names the greeting mentions.
const greetingStopCount = 3

// ErrorResponse is the JSON error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SessionStartRequest optionally carries the client's geolocation.
type SessionStartRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SessionStartResponse returns the new session and its greeting.
type SessionStartResponse struct {
	SessionID    string             `json:"session_id"`
	Greeting     string             `json:"greeting"`
	NearestStops []graph.NearbyStop `json:"nearest_stops"`
}

// LocationUpdateRequest carries a manual location entry.
type LocationUpdateRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// LocationUpdateResponse returns the refreshed nearby-stops snapshot.
type LocationUpdateResponse struct {
	NearestStops []graph.NearbyStop `json:"nearest_stops"`
}

// ChatRequest is one user turn.
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse is the bot's turn. Routes is present only when a route
// search ran; consumers switch on its type tag.
type ChatResponse struct {
	Reply  string        `json:"reply"`
	Intent string        `json:"intent"`
	Routes *route.Result `json:"routes,omitempty"`
}

// NearbyStopsResponse lists stops around a query point.
type NearbyStopsResponse struct {
	Stops []graph.NearbyStop `json:"stops"`
}

// BusResponse is a bus record with its ordered stop sequence.
type BusResponse struct {
	Bus   graph.BusSummary  `json:"bus"`
	Stops []graph.RouteStop `json:"stops"`
}

// Handlers holds the HTTP handlers and their injected collaborators.
type Handlers struct {
	service  *Service
	sessions *session.Store
	store    GraphReader
	graph    graph.Client
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(service *Service, sessions *session.Store, store GraphReader, graphClient graph.Client) *Handlers {
	return &Handlers{
		service:  service,
		sessions: sessions,
		store:    store,
		graph:    graphClient,
	}
}

// HandleStartSession handles POST /api/session/start.
//
// Creates a session; when the client supplied coordinates, records them as
// geolocation, snapshots the nearest stops, and greets with the closest
// stop names.
func (h *Handlers) HandleStartSession(c *gin.Context) {
	logger := handlerLogger(c, "HandleStartSession")

	var req SessionStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	sess := h.sessions.Create()
	sess.Lock()
	defer sess.Unlock()

	greeting := respond.Greeting
	if req.Latitude != nil && req.Longitude != nil {
		sess.SetLocation(*req.Latitude, *req.Longitude, session.SourceGeolocation)

		nearest, err := h.store.FindNearestStops(c.Request.Context(), sess.Latitude, sess.Longitude, 0, 10)
		if err != nil {
			logger.Error("Nearest-stop lookup failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "graph query failed", Code: "GRAPH_ERROR"})
			return
		}
		sess.NearestStops = nearest
		if len(nearest) > 0 {
			greeting = fmt.Sprintf(respond.GreetingWithStops, respond.StopNames(nearest, greetingStopCount))
		}
	}

	sess.AddModelMessage(greeting)
	logger.Info("Session started",
		slog.String("session_id", sess.ID),
		slog.Bool("has_location", sess.HasLocation),
	)

	c.JSON(http.StatusOK, SessionStartResponse{
		SessionID:    sess.ID,
		Greeting:     greeting,
		NearestStops: sess.NearestStops,
	})
}

// HandleUpdateLocation handles POST /api/session/location.
func (h *Handlers) HandleUpdateLocation(c *gin.Context) {
	logger := handlerLogger(c, "HandleUpdateLocation")

	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found", Code: "SESSION_NOT_FOUND"})
		return
	}
	sess.Lock()
	defer sess.Unlock()

	sess.SetLocation(*req.Latitude, *req.Longitude, session.SourceManual)

	nearest, err := h.store.FindNearestStops(c.Request.Context(), sess.Latitude, sess.Longitude, 0, 10)
	if err != nil {
		logger.Error("Nearest-stop lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "graph query failed", Code: "GRAPH_ERROR"})
		return
	}
	sess.NearestStops = nearest

	c.JSON(http.StatusOK, LocationUpdateResponse{NearestStops: nearest})
}

// HandleChat handles POST /api/chat.
//
// The session is locked for the whole turn, serializing concurrent
// submissions on one session. Upstream rate limiting degrades to the
// apology reply; the session stays intact.
func (h *Handlers) HandleChat(c *gin.Context) {
	logger := handlerLogger(c, "HandleChat")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found", Code: "SESSION_NOT_FOUND"})
		return
	}
	sess.Lock()
	defer sess.Unlock()

	sess.AddUserMessage(req.Message)

	turn, err := h.service.ProcessTurn(c.Request.Context(), sess, req.Message)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			logger.Warn("Turn degraded to rate-limit apology", slog.String("session_id", sess.ID))
			turn = Turn{Reply: respond.RateLimitedApology, Intent: IntentError}
		} else {
			logger.Error("Chat turn failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "processing failed", Code: "INTERNAL"})
			return
		}
	}

	sess.AddTaggedModelMessage(turn.Reply, turn.Action)

	c.JSON(http.StatusOK, ChatResponse{
		Reply:  turn.Reply,
		Intent: string(turn.Intent),
		Routes: turn.Routes,
	})
}

// HandleNearbyStops handles GET /api/stops/nearby.
func (h *Handlers) HandleNearbyStops(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng query parameters are required", Code: "MISSING_PARAMETER"})
		return
	}

	radius := 500
	if radiusStr := c.Query("radius"); radiusStr != "" {
		if parsed, err := strconv.Atoi(radiusStr); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	stops, err := h.store.FindNearestStops(c.Request.Context(), lat, lng, radius, 10)
	if err != nil {
		handlerLogger(c, "HandleNearbyStops").Error("Nearest-stop lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "graph query failed", Code: "GRAPH_ERROR"})
		return
	}
	if stops == nil {
		stops = []graph.NearbyStop{}
	}

	c.JSON(http.StatusOK, NearbyStopsResponse{Stops: stops})
}

// HandleBusByNumber handles GET /api/bus/:number.
func (h *Handlers) HandleBusByNumber(c *gin.Context) {
	number := c.Param("number")

	buses, err := h.store.FindBusByNumber(c.Request.Context(), number)
	if err != nil {
		handlerLogger(c, "HandleBusByNumber").Error("Bus lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "graph query failed", Code: "GRAPH_ERROR"})
		return
	}
	if len(buses) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "bus not found", Code: "BUS_NOT_FOUND"})
		return
	}

	stops, err := h.store.BusRouteStops(c.Request.Context(), buses[0].ID, 1)
	if err != nil {
		handlerLogger(c, "HandleBusByNumber").Error("Route-stops lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "graph query failed", Code: "GRAPH_ERROR"})
		return
	}

	c.JSON(http.StatusOK, BusResponse{Bus: buses[0], Stops: stops})
}

// HandleHealth handles GET /api/health (liveness).
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}

// HandleReady handles GET /api/ready (graph reachability).
func (h *Handlers) HandleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.graph.VerifyConnectivity(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// handlerLogger returns a request-scoped logger, honoring an incoming
// X-Request-ID when present.
func handlerLogger(c *gin.Context, handler string) *slog.Logger {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return slog.With(
		slog.String("request_id", requestID),
		slog.String("handler", handler),
	)
}
