package georoute

import (
	"math"
	"testing"

	"notam_parser/internal/notam"
)

// A simple eastbound route along the equator keeps the planar and
// great-circle math easy to reason about: 1 degree of longitude at the
// equator is 60 NM.
var equatorRoute = []RoutePoint{
	{Name: "AAA", Coordinate: notam.Coordinate{Latitude: 0, Longitude: 0}},
	{Name: "BBB", Coordinate: notam.Coordinate{Latitude: 0, Longitude: 1}},
	{Name: "CCC", Coordinate: notam.Coordinate{Latitude: 0, Longitude: 2}},
}

func TestDistanceNm(t *testing.T) {
	a := notam.Coordinate{Latitude: 0, Longitude: 0}
	b := notam.Coordinate{Latitude: 0, Longitude: 1}
	got := DistanceNm(a, b)
	if math.Abs(got-60.04) > 0.1 {
		t.Errorf("DistanceNm = %v, want ~60", got)
	}
	if DistanceNm(a, a) != 0 {
		t.Errorf("DistanceNm(a, a) = %v, want 0", DistanceNm(a, a))
	}
}

func TestProjectOnSegment(t *testing.T) {
	// A point exactly on the first segment projects with zero
	// perpendicular distance and a proportional along-route distance.
	pt := notam.Coordinate{Latitude: 0, Longitude: 0.5}
	p := Project(pt, equatorRoute)
	if p == nil {
		t.Fatal("Project returned nil")
	}
	if p.PerpendicularDistanceNm > 1e-6 {
		t.Errorf("PerpendicularDistanceNm = %v, want 0", p.PerpendicularDistanceNm)
	}
	half := DistanceNm(equatorRoute[0].Coordinate, equatorRoute[1].Coordinate) / 2
	if math.Abs(p.AlongRouteDistanceNm-half) > 0.1 {
		t.Errorf("AlongRouteDistanceNm = %v, want ~%v", p.AlongRouteDistanceNm, half)
	}
	if p.SegmentIndex != 0 {
		t.Errorf("SegmentIndex = %d, want 0", p.SegmentIndex)
	}
}

func TestProjectSecondSegment(t *testing.T) {
	pt := notam.Coordinate{Latitude: 0.2, Longitude: 1.5}
	p := Project(pt, equatorRoute)
	if p == nil {
		t.Fatal("Project returned nil")
	}
	if p.SegmentIndex != 1 {
		t.Errorf("SegmentIndex = %d, want 1", p.SegmentIndex)
	}
	// Perpendicular offset of 0.2 degrees latitude is ~12 NM.
	if math.Abs(p.PerpendicularDistanceNm-12) > 0.5 {
		t.Errorf("PerpendicularDistanceNm = %v, want ~12", p.PerpendicularDistanceNm)
	}
	if p.AlongRouteDistanceNm <= 60 || p.AlongRouteDistanceNm >= 120.2 {
		t.Errorf("AlongRouteDistanceNm = %v, want between segment 1 bounds", p.AlongRouteDistanceNm)
	}
}

func TestProjectClampsToEndpoints(t *testing.T) {
	// A point beyond the end of the route clamps to the last vertex.
	pt := notam.Coordinate{Latitude: 0, Longitude: 5}
	p := Project(pt, equatorRoute)
	if p == nil {
		t.Fatal("Project returned nil")
	}
	total := p.TotalRouteLengthNm
	if math.Abs(p.AlongRouteDistanceNm-total) > 1e-6 {
		t.Errorf("AlongRouteDistanceNm = %v, want total %v", p.AlongRouteDistanceNm, total)
	}
}

func TestProjectDegenerateRoutes(t *testing.T) {
	pt := notam.Coordinate{Latitude: 0, Longitude: 0}
	if p := Project(pt, nil); p != nil {
		t.Errorf("Project(nil route) = %+v, want nil", p)
	}
	if p := Project(pt, equatorRoute[:1]); p != nil {
		t.Errorf("Project(1-point route) = %+v, want nil", p)
	}
	if d := DistanceToRouteNm(pt, nil); !math.IsInf(d, 1) {
		t.Errorf("DistanceToRouteNm(empty) = %v, want +Inf", d)
	}
}

func TestClassifyByLocationMatch(t *testing.T) {
	r := Route{Departure: "EGLL", Destination: "LFPG", Alternates: []string{"LFPO"}, Points: equatorRoute}

	// Departure match wins regardless of coordinate presence.
	n := &notam.Notam{ID: "A0001/25", Location: "EGLL"}
	c := ClassifyNotam(n, r, 0)
	if c.Segment != SegmentDeparture {
		t.Errorf("Segment = %q, want departure", c.Segment)
	}
	if c.PerpendicularDistanceNm == nil || *c.PerpendicularDistanceNm != 0 {
		t.Errorf("PerpendicularDistanceNm = %v, want 0", c.PerpendicularDistanceNm)
	}

	if c := ClassifyNotam(&notam.Notam{Location: "LFPG"}, r, 0); c.Segment != SegmentDestination {
		t.Errorf("Segment = %q, want destination", c.Segment)
	}
	if c := ClassifyNotam(&notam.Notam{Location: "LFPO"}, r, 0); c.Segment != SegmentAlternate {
		t.Errorf("Segment = %q, want alternates", c.Segment)
	}
}

func TestClassifyByGeometry(t *testing.T) {
	r := Route{Departure: "AAAA", Destination: "BBBB", Points: equatorRoute}

	near := &notam.Notam{Location: "CCCC", Coordinate: &notam.Coordinate{Latitude: 0.1, Longitude: 1}}
	if c := ClassifyNotam(near, r, 50); c.Segment != SegmentEnRoute {
		t.Errorf("near NOTAM segment = %q, want enRoute", c.Segment)
	}

	far := &notam.Notam{Location: "DDDD", Coordinate: &notam.Coordinate{Latitude: 5, Longitude: 1}}
	if c := ClassifyNotam(far, r, 50); c.Segment != SegmentDistant {
		t.Errorf("far NOTAM segment = %q, want distant", c.Segment)
	}

	noCoord := &notam.Notam{Location: "EEEE"}
	if c := ClassifyNotam(noCoord, r, 50); c.Segment != SegmentNoCoordinate {
		t.Errorf("coordinate-less NOTAM segment = %q, want noCoordinate", c.Segment)
	}

	// Short route: geometry unavailable, so coordinates do not help.
	short := Route{Points: equatorRoute[:1]}
	if c := ClassifyNotam(near, short, 50); c.Segment != SegmentNoCoordinate {
		t.Errorf("short-route segment = %q, want noCoordinate", c.Segment)
	}
}

func TestGroupBySegmentOrdering(t *testing.T) {
	r := Route{Points: equatorRoute}

	second := &notam.Notam{ID: "B", Coordinate: &notam.Coordinate{Latitude: 0, Longitude: 1.5}}
	first := &notam.Notam{ID: "A", Coordinate: &notam.Coordinate{Latitude: 0, Longitude: 0.5}}
	farther := &notam.Notam{ID: "D", Coordinate: &notam.Coordinate{Latitude: 8, Longitude: 1}}
	nearer := &notam.Notam{ID: "C", Coordinate: &notam.Coordinate{Latitude: 4, Longitude: 1}}

	groups := GroupBySegment([]*notam.Notam{second, farther, first, nearer}, r, 50)

	enRoute := groups[SegmentEnRoute]
	if len(enRoute) != 2 || enRoute[0].ID != "A" || enRoute[1].ID != "B" {
		t.Errorf("enRoute order = %v, want [A B]", ids(enRoute))
	}
	distant := groups[SegmentDistant]
	if len(distant) != 2 || distant[0].ID != "C" || distant[1].ID != "D" {
		t.Errorf("distant order = %v, want [C D]", ids(distant))
	}
}

func ids(ns []*notam.Notam) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}
