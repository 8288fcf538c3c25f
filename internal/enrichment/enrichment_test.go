package enrichment

import (
	"testing"

	"notam_parser/internal/notam"
)

type stubLocator struct {
	coords map[string]*notam.Coordinate
}

func (s *stubLocator) LocateAirport(icao string) *notam.Coordinate {
	return s.coords[icao]
}

func TestEnrichPrimaryCategoryFromQCodeCategory(t *testing.T) {
	n := &notam.Notam{Category: notam.CategoryRunway, Message: "RWY 09L/27R CLOSED"}
	New().Enrich(n)

	if n.PrimaryCategory != "aerodrome" {
		t.Errorf("PrimaryCategory = %q, want aerodrome", n.PrimaryCategory)
	}
	if !hasString(n.CustomTags, "runway") {
		t.Errorf("CustomTags = %v, want runway tag", n.CustomTags)
	}
	if !hasString(n.CustomCategories, "aerodrome-surface") {
		t.Errorf("CustomCategories = %v, want aerodrome-surface", n.CustomCategories)
	}
}

func TestEnrichPrimaryCategoryFromKeywords(t *testing.T) {
	// No Q-code category: the first matching keyword rule decides.
	n := &notam.Notam{Message: "PJE WILL TAKE PLACE WI 2NM RADIUS"}
	New().Enrich(n)

	if n.PrimaryCategory != "hazard" {
		t.Errorf("PrimaryCategory = %q, want hazard", n.PrimaryCategory)
	}
	if !hasString(n.CustomTags, "parachute") {
		t.Errorf("CustomTags = %v, want parachute tag", n.CustomTags)
	}
}

func TestEnrichMultipleTags(t *testing.T) {
	n := &notam.Notam{Message: "RWY 09 CLSD DUE WIP, CRANE OPR NEAR THR"}
	New().Enrich(n)

	for _, tag := range []string{"runway", "obstacle", "work-in-progress"} {
		if !hasString(n.CustomTags, tag) {
			t.Errorf("CustomTags = %v, missing %q", n.CustomTags, tag)
		}
	}
}

func TestEnrichIdempotent(t *testing.T) {
	n := &notam.Notam{Category: notam.CategoryNavaid, Message: "ILS RWY 27 U/S"}
	e := New()
	e.Enrich(n)
	tags := len(n.CustomTags)
	cats := len(n.CustomCategories)

	e.Enrich(n)
	if len(n.CustomTags) != tags || len(n.CustomCategories) != cats {
		t.Errorf("re-enrichment grew tags %d->%d cats %d->%d",
			tags, len(n.CustomTags), cats, len(n.CustomCategories))
	}
	if n.PrimaryCategory != "navigation" {
		t.Errorf("PrimaryCategory = %q, want navigation", n.PrimaryCategory)
	}
}

func TestEnrichPreservesExistingPrimaryCategory(t *testing.T) {
	n := &notam.Notam{Category: notam.CategoryRunway, PrimaryCategory: "custom"}
	New().Enrich(n)
	if n.PrimaryCategory != "custom" {
		t.Errorf("PrimaryCategory = %q, want custom preserved", n.PrimaryCategory)
	}
}

func TestEnrichCoordinateBackfill(t *testing.T) {
	loc := &stubLocator{coords: map[string]*notam.Coordinate{
		"EGLL": {Latitude: 51.4775, Longitude: -0.4614},
	}}
	e := NewWithLocator(loc)

	n := &notam.Notam{Location: "EGLL"}
	e.Enrich(n)
	if n.Coordinate == nil || n.Coordinate.Latitude != 51.4775 {
		t.Errorf("Coordinate = %+v, want EGLL reference", n.Coordinate)
	}

	// Existing coordinates are never overwritten.
	existing := &notam.Coordinate{Latitude: 1, Longitude: 2}
	n = &notam.Notam{Location: "EGLL", Coordinate: existing}
	e.Enrich(n)
	if n.Coordinate != existing {
		t.Error("existing coordinate was replaced")
	}

	// ZZZZ is the parser's unknown-location sentinel, never looked up.
	n = &notam.Notam{Location: "ZZZZ"}
	e.Enrich(n)
	if n.Coordinate != nil {
		t.Errorf("Coordinate = %+v, want nil for ZZZZ", n.Coordinate)
	}
}

func TestEnrichNilSafe(t *testing.T) {
	New().Enrich(nil)
	New().EnrichAll([]*notam.Notam{nil})
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
