// Package georoute projects NOTAM coordinates onto a multi-leg flight
// route and classifies each NOTAM as departure, en-route, destination,
// alternate, or distant. Projection uses planar vector math on the raw
// (lat, lon) pairs per segment; reported distances are great-circle.
package georoute

import (
	"math"
	"sort"

	"notam_parser/internal/notam"
)

const earthRadiusNm = 3440.065

// DefaultDistantThresholdNm separates en-route NOTAMs from distant ones.
const DefaultDistantThresholdNm = 50.0

// DistanceNm is the great-circle distance between two coordinates in
// nautical miles.
func DistanceNm(a, b notam.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusNm * math.Asin(math.Min(1, math.Sqrt(s)))
}

// RoutePoint is one vertex of the route polyline.
type RoutePoint struct {
	Name       string           `json:"name,omitempty"`
	Coordinate notam.Coordinate `json:"coordinate"`
}

// Route is a flight route: named endpoints plus the ordered polyline of
// points with known coordinates. Routes may be partially specified;
// missing coordinates degrade to location-string matching.
type Route struct {
	Departure   string       `json:"departure,omitempty"`
	Destination string       `json:"destination,omitempty"`
	Alternates  []string     `json:"alternates,omitempty"`
	Points      []RoutePoint `json:"points,omitempty"`
}

// Projection is the result of projecting one coordinate onto a route.
type Projection struct {
	PerpendicularDistanceNm float64 `json:"perpendicular_distance_nm"`
	AlongRouteDistanceNm    float64 `json:"along_route_distance_nm"`
	TotalRouteLengthNm      float64 `json:"total_route_length_nm"`
	SegmentIndex            int     `json:"segment_index"`
}

// Project finds the closest point on the route polyline to pt. For each
// segment the parametric projection is computed in the flat (lat, lon)
// plane and clamped to the segment; the distance to the clamped point is
// great-circle. Returns nil for routes with fewer than two points.
func Project(pt notam.Coordinate, points []RoutePoint) *Projection {
	if len(points) < 2 {
		return nil
	}

	best := &Projection{PerpendicularDistanceNm: math.Inf(1)}
	cumulative := 0.0

	for i := 0; i+1 < len(points); i++ {
		a := points[i].Coordinate
		b := points[i+1].Coordinate
		segLen := DistanceNm(a, b)

		t := segmentParameter(pt, a, b)
		closest := notam.Coordinate{
			Latitude:  a.Latitude + t*(b.Latitude-a.Latitude),
			Longitude: a.Longitude + t*(b.Longitude-a.Longitude),
		}

		if d := DistanceNm(pt, closest); d < best.PerpendicularDistanceNm {
			best.PerpendicularDistanceNm = d
			best.AlongRouteDistanceNm = cumulative + t*segLen
			best.SegmentIndex = i
		}
		cumulative += segLen
	}

	best.TotalRouteLengthNm = cumulative
	return best
}

// segmentParameter returns the clamped [0,1] parametric position of pt
// projected onto segment a→b in the flat lat/lon plane.
func segmentParameter(pt, a, b notam.Coordinate) float64 {
	dLat := b.Latitude - a.Latitude
	dLon := b.Longitude - a.Longitude
	lenSq := dLat*dLat + dLon*dLon
	if lenSq == 0 {
		return 0 // Degenerate segment (repeated waypoint).
	}
	t := ((pt.Latitude-a.Latitude)*dLat + (pt.Longitude-a.Longitude)*dLon) / lenSq
	return math.Max(0, math.Min(1, t))
}

// DistanceToRouteNm is the perpendicular distance from pt to the route,
// or +Inf when the route has fewer than two points so that range checks
// default to "not within range".
func DistanceToRouteNm(pt notam.Coordinate, points []RoutePoint) float64 {
	p := Project(pt, points)
	if p == nil {
		return math.Inf(1)
	}
	return p.PerpendicularDistanceNm
}

// Segment labels where a NOTAM sits relative to a route.
type Segment string

const (
	SegmentDeparture    Segment = "departure"
	SegmentEnRoute      Segment = "enRoute"
	SegmentDestination  Segment = "destination"
	SegmentAlternate    Segment = "alternates"
	SegmentDistant      Segment = "distant"
	SegmentNoCoordinate Segment = "noCoordinate"
)

// Classification is the result of classifying one NOTAM against a route.
type Classification struct {
	Segment                 Segment  `json:"segment"`
	PerpendicularDistanceNm *float64 `json:"perpendicular_distance_nm,omitempty"`
	AlongRouteDistanceNm    *float64 `json:"along_route_distance_nm,omitempty"`
}

// ClassifyNotam places a NOTAM relative to a route. Exact location
// matches on the departure, destination, and alternates take priority
// over geometry; NOTAMs with coordinates are then en-route or distant by
// the threshold (pass <= 0 for the default); everything else is
// noCoordinate.
func ClassifyNotam(n *notam.Notam, r Route, thresholdNm float64) Classification {
	if thresholdNm <= 0 {
		thresholdNm = DefaultDistantThresholdNm
	}

	zero := 0.0
	switch {
	case r.Departure != "" && n.Location == r.Departure:
		return Classification{Segment: SegmentDeparture, PerpendicularDistanceNm: &zero, AlongRouteDistanceNm: &zero}
	case r.Destination != "" && n.Location == r.Destination:
		return Classification{Segment: SegmentDestination, PerpendicularDistanceNm: &zero}
	}
	for _, alt := range r.Alternates {
		if n.Location == alt {
			return Classification{Segment: SegmentAlternate, PerpendicularDistanceNm: &zero}
		}
	}

	if n.Coordinate != nil {
		if p := Project(*n.Coordinate, r.Points); p != nil {
			seg := SegmentEnRoute
			if p.PerpendicularDistanceNm > thresholdNm {
				seg = SegmentDistant
			}
			return Classification{
				Segment:                 seg,
				PerpendicularDistanceNm: &p.PerpendicularDistanceNm,
				AlongRouteDistanceNm:    &p.AlongRouteDistanceNm,
			}
		}
	}

	return Classification{Segment: SegmentNoCoordinate}
}

// GroupBySegment classifies every NOTAM and buckets them by segment.
// En-route NOTAMs are ordered along the route; distant NOTAMs are
// ordered by how close they come to it, so the nearest anomalies lead.
func GroupBySegment(ns []*notam.Notam, r Route, thresholdNm float64) map[Segment][]*notam.Notam {
	type classified struct {
		n *notam.Notam
		c Classification
	}

	buckets := make(map[Segment][]classified)
	for _, n := range ns {
		c := ClassifyNotam(n, r, thresholdNm)
		buckets[c.Segment] = append(buckets[c.Segment], classified{n, c})
	}

	sort.SliceStable(buckets[SegmentEnRoute], func(i, j int) bool {
		a, b := buckets[SegmentEnRoute][i].c.AlongRouteDistanceNm, buckets[SegmentEnRoute][j].c.AlongRouteDistanceNm
		return a != nil && b != nil && *a < *b
	})
	sort.SliceStable(buckets[SegmentDistant], func(i, j int) bool {
		a, b := buckets[SegmentDistant][i].c.PerpendicularDistanceNm, buckets[SegmentDistant][j].c.PerpendicularDistanceNm
		return a != nil && b != nil && *a < *b
	})

	out := make(map[Segment][]*notam.Notam, len(buckets))
	for seg, list := range buckets {
		ns := make([]*notam.Notam, len(list))
		for i, c := range list {
			ns[i] = c.n
		}
		out[seg] = ns
	}
	return out
}
