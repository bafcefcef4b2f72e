// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

// Cypher templates. User input only ever enters as bound parameters, never
// by string concatenation. Property names (routLength, durationMinuts)
// follow the upstream data loader and must not be "fixed" here.

// findStopsByNameCypher looks up stops whose normalized name contains the
// bound substring. Hub stops rank first, then lexical name order; ranking
// is delegated to this query, not recomputed by callers.
const findStopsByNameCypher = `
MATCH (s:Stop)
WHERE s.nameNormalized CONTAINS $name
RETURN s.id AS id, s.name AS name, s.code AS code,
       s.latitude AS latitude, s.longitude AS longitude,
       s.isTransportHub AS isTransportHub
ORDER BY s.isTransportHub DESC, s.name
LIMIT $limit
`

// findNearestStopsCypher returns stops within a radius of a point, nearest
// first, with the index-computed distance.
const findNearestStopsCypher = `
WITH point({latitude: $lat, longitude: $lng}) AS userLoc
MATCH (s:Stop)
WHERE s.location IS NOT NULL
WITH s, point.distance(s.location, userLoc) AS dist
WHERE dist <= $radius
RETURN s.id AS id, s.name AS name, s.code AS code,
       s.latitude AS latitude, s.longitude AS longitude,
       s.isTransportHub AS isTransportHub,
       round(dist, 1) AS distanceMeters
ORDER BY dist
LIMIT $limit
`

const findBusByNumberCypher = `
MATCH (b:Bus)
WHERE b.number = $number
RETURN b.id AS id, b.number AS number, b.carrier AS carrier,
       b.firstPoint AS firstPoint, b.lastPoint AS lastPoint,
       b.routLength AS routLength, b.durationMinuts AS durationMinuts,
       b.tariffStr AS tariffStr, b.paymentType AS paymentType
`

const findBusesAtStopCypher = `
MATCH (b:Bus)-[:HAS_STOP]->(s:Stop {id: $stopId})
RETURN DISTINCT b.id AS id, b.number AS number, b.carrier AS carrier,
       b.firstPoint AS firstPoint, b.lastPoint AS lastPoint,
       b.tariffStr AS tariffStr, b.paymentType AS paymentType
ORDER BY b.number
`

// findDirectRoutesCypher finds (bus, direction) pairs where some origin
// stop strictly precedes some destination stop on the same direction,
// ranked by the number of stops traversed.
const findDirectRoutesCypher = `
MATCH (origin:Stop)<-[h1:HAS_STOP]-(bus:Bus)-[h2:HAS_STOP]->(dest:Stop)
WHERE origin.id IN $originIds
  AND dest.id IN $destIds
  AND h1.direction = h2.direction
  AND h1.order < h2.order
RETURN bus.id AS busId, bus.number AS busNumber, bus.carrier AS carrier,
       bus.tariffStr AS tariffStr, bus.paymentType AS paymentType,
       bus.durationMinuts AS durationMinuts,
       origin.id AS originStopId, origin.name AS originStopName,
       dest.id AS destStopId, dest.name AS destStopName,
       h1.direction AS direction,
       h2.order - h1.order AS stopCount
ORDER BY stopCount
LIMIT $limit
`

// findOneTransferRoutesCypher chains two single-bus legs through a walking
// TRANSFER edge. Both legs obey the same strict-precedence rule as the
// direct query; ties on total stop count break by walking distance.
const findOneTransferRoutesCypher = `
MATCH (origin:Stop)<-[h1:HAS_STOP]-(bus1:Bus)-[h2:HAS_STOP]->(ts1:Stop)
MATCH (ts1)-[t:TRANSFER]->(ts2:Stop)
MATCH (ts2)<-[h3:HAS_STOP]-(bus2:Bus)-[h4:HAS_STOP]->(dest:Stop)
WHERE origin.id IN $originIds
  AND dest.id IN $destIds
  AND bus1.id <> bus2.id
  AND h1.direction = h2.direction
  AND h1.order < h2.order
  AND h3.direction = h4.direction
  AND h3.order < h4.order
RETURN bus1.number AS bus1Number, bus1.carrier AS bus1Carrier,
       bus1.tariffStr AS bus1Tariff,
       bus2.number AS bus2Number, bus2.carrier AS bus2Carrier,
       bus2.tariffStr AS bus2Tariff,
       origin.name AS originStopName,
       ts1.name AS transferStop1Name,
       ts2.name AS transferStop2Name,
       t.walkingDistanceMeters AS walkingMeters,
       t.walkingTimeMinutes AS walkingMinutes,
       dest.name AS destStopName,
       (h2.order - h1.order) + (h4.order - h3.order) AS totalStops
ORDER BY totalStops, t.walkingDistanceMeters
LIMIT $limit
`

const stopDetailCypher = `
MATCH (s:Stop {id: $stopId})
OPTIONAL MATCH (b:Bus)-[h:HAS_STOP]->(s)
RETURN s.id AS id, s.name AS name, s.code AS code,
       s.latitude AS latitude, s.longitude AS longitude,
       s.isTransportHub AS isTransportHub,
       collect(DISTINCT {
           busId: b.id,
           busNumber: b.number,
           carrier: b.carrier,
           firstPoint: b.firstPoint,
           lastPoint: b.lastPoint,
           direction: h.direction
       }) AS buses
`

const busRouteStopsCypher = `
MATCH (b:Bus {id: $busId})-[h:HAS_STOP {direction: $direction}]->(s:Stop)
RETURN s.id AS stopId, s.name AS stopName, s.code AS stopCode,
       s.latitude AS latitude, s.longitude AS longitude,
       h.order AS stopOrder, h.distanceFromStart AS distance
ORDER BY h.order
`
