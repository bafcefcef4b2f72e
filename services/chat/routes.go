// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all /api endpoints with the given router group.
//
// Endpoints:
//
//	POST /api/session/start    - Create a session, optional geolocation
//	POST /api/session/location - Update a session's location manually
//	POST /api/chat             - One conversation turn
//	GET  /api/stops/nearby     - Stops around a point
//	GET  /api/bus/:number      - Bus record with ordered stops
//	GET  /api/health           - Liveness
//	GET  /api/ready            - Graph connectivity
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	api := rg.Group("/api")
	{
		api.POST("/session/start", handlers.HandleStartSession)
		api.POST("/session/location", handlers.HandleUpdateLocation)
		api.POST("/chat", handlers.HandleChat)

		api.GET("/stops/nearby", handlers.HandleNearbyStops)
		api.GET("/bus/:number", handlers.HandleBusByNumber)

		api.GET("/health", handlers.HandleHealth)
		api.GET("/ready", handlers.HandleReady)
	}
}
