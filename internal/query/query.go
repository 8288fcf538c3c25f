// Package query provides pure filter and grouping operations over
// collections of parsed NOTAMs. Every function returns a fresh slice (or
// map) and leaves its input untouched, so filters chain freely. Absent
// optional fields never match and never panic.
package query

import (
	"regexp"
	"strings"
	"time"

	"notam_parser/internal/georoute"
	"notam_parser/internal/notam"
)

// Predicate decides whether a NOTAM belongs in a filtered result.
type Predicate func(*notam.Notam) bool

// Filter returns the NOTAMs matching p, in input order.
func Filter(ns []*notam.Notam, p Predicate) []*notam.Notam {
	var out []*notam.Notam
	for _, n := range ns {
		if p(n) {
			out = append(out, n)
		}
	}
	return out
}

// And matches when every predicate matches.
func And(ps ...Predicate) Predicate {
	return func(n *notam.Notam) bool {
		for _, p := range ps {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(ps ...Predicate) Predicate {
	return func(n *notam.Notam) bool {
		for _, p := range ps {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(n *notam.Notam) bool { return !p(n) }
}

// AtLocation matches the primary location exactly.
func AtLocation(icao string) Predicate {
	return func(n *notam.Notam) bool { return n.Location == icao }
}

// Affecting matches the primary location or any affected location.
func Affecting(icao string) Predicate {
	return func(n *notam.Notam) bool {
		if n.Location == icao {
			return true
		}
		for _, loc := range n.AffectedLocations {
			if loc == icao {
				return true
			}
		}
		return false
	}
}

// InFIR matches the Q-line flight information region.
func InFIR(fir string) Predicate {
	return func(n *notam.Notam) bool { return n.FIR != "" && n.FIR == fir }
}

// ActiveAt matches NOTAMs in effect at t. Permanent NOTAMs are active
// once started; temporary ones need t inside the effective window, with
// either bound optional.
func ActiveAt(t time.Time) Predicate {
	return func(n *notam.Notam) bool { return n.EffectiveAt(t) }
}

// ActiveDuring matches NOTAMs whose effective window overlaps
// [start, end]. Permanent NOTAMs count as active once they have started
// by end.
func ActiveDuring(start, end time.Time) Predicate {
	return func(n *notam.Notam) bool {
		if n.EffectiveFrom != nil && n.EffectiveFrom.After(end) {
			return false
		}
		if n.IsPermanent {
			return true
		}
		if n.EffectiveTo != nil && n.EffectiveTo.Before(start) {
			return false
		}
		return true
	}
}

// WithCategory matches the derived NOTAM category.
func WithCategory(c notam.Category) Predicate {
	return func(n *notam.Notam) bool { return n.Category == c }
}

// WithQCode matches the full Q-code, with or without the leading Q.
func WithQCode(code string) Predicate {
	want := normalizeQ(code)
	return func(n *notam.Notam) bool { return n.QCode != "" && normalizeQ(n.QCode) == want }
}

// WithQCodePrefix matches Q-codes by prefix ("MR" matches QMRLC, QMRAS).
func WithQCodePrefix(prefix string) Predicate {
	want := normalizeQ(prefix)
	return func(n *notam.Notam) bool {
		return n.QCode != "" && strings.HasPrefix(normalizeQ(n.QCode), want)
	}
}

// WithTrafficType matches the Q-line traffic type by case-insensitive
// containment ("I" matches "IV").
func WithTrafficType(traffic string) Predicate {
	want := strings.ToUpper(traffic)
	return func(n *notam.Notam) bool {
		return n.TrafficType != "" && strings.Contains(strings.ToUpper(n.TrafficType), want)
	}
}

// WithScope matches the Q-line scope by case-insensitive containment.
func WithScope(scope string) Predicate {
	want := strings.ToUpper(scope)
	return func(n *notam.Notam) bool {
		return n.Scope != "" && strings.Contains(strings.ToUpper(n.Scope), want)
	}
}

// WithCustomTag matches NOTAMs carrying the given enrichment tag.
func WithCustomTag(tag string) Predicate {
	return func(n *notam.Notam) bool {
		for _, t := range n.CustomTags {
			if t == tag {
				return true
			}
		}
		return false
	}
}

// WithCustomCategory matches NOTAMs carrying the given enrichment
// category.
func WithCustomCategory(cat string) Predicate {
	return func(n *notam.Notam) bool {
		for _, c := range n.CustomCategories {
			if c == cat {
				return true
			}
		}
		return false
	}
}

// WithPrimaryCategory matches the enrichment-assigned primary category.
func WithPrimaryCategory(cat string) Predicate {
	return func(n *notam.Notam) bool { return n.PrimaryCategory == cat }
}

// BelowAltitude matches NOTAMs whose band starts at or below ft. A
// missing lower limit defaults to the surface.
func BelowAltitude(ft int) Predicate {
	return func(n *notam.Notam) bool {
		lower, _ := n.AltitudeRange()
		return lower <= ft
	}
}

// AboveAltitude matches NOTAMs whose band reaches ft or higher. A
// missing upper limit defaults to unlimited.
func AboveAltitude(ft int) Predicate {
	return func(n *notam.Notam) bool {
		_, upper := n.AltitudeRange()
		return upper >= ft
	}
}

// InAltitudeRange matches NOTAMs whose band overlaps [lowerFt, upperFt].
func InAltitudeRange(lowerFt, upperFt int) Predicate {
	return func(n *notam.Notam) bool {
		lower, upper := n.AltitudeRange()
		return lower <= upperFt && upper >= lowerFt
	}
}

// TextContains matches raw text or message by case-insensitive
// substring.
func TextContains(s string) Predicate {
	want := strings.ToUpper(s)
	return func(n *notam.Notam) bool {
		return strings.Contains(strings.ToUpper(n.RawText), want) ||
			strings.Contains(strings.ToUpper(n.Message), want)
	}
}

// TextMatches matches raw text or message against a compiled regex.
func TextMatches(re *regexp.Regexp) Predicate {
	return func(n *notam.Notam) bool {
		return re.MatchString(n.RawText) || re.MatchString(n.Message)
	}
}

// WithinRadius matches NOTAMs with a coordinate inside radiusNm of
// center. Coordinate-less NOTAMs never match.
func WithinRadius(center notam.Coordinate, radiusNm float64) Predicate {
	return func(n *notam.Notam) bool {
		if n.Coordinate == nil {
			return false
		}
		return georoute.DistanceNm(center, *n.Coordinate) <= radiusNm
	}
}

// Airport pairs an ICAO code with an optional reference coordinate for
// spatial queries.
type Airport struct {
	ICAO       string
	Coordinate *notam.Coordinate
}

// NearAirports matches NOTAMs within radiusNm of any airport coordinate,
// falling back to a location-string match for NOTAMs (or airports)
// without coordinates.
func NearAirports(airports []Airport, radiusNm float64) Predicate {
	return func(n *notam.Notam) bool {
		for _, ap := range airports {
			if n.Location == ap.ICAO {
				return true
			}
			if n.Coordinate != nil && ap.Coordinate != nil &&
				georoute.DistanceNm(*ap.Coordinate, *n.Coordinate) <= radiusNm {
				return true
			}
		}
		return false
	}
}

// Sentinel bucket keys for grouping operations.
const (
	UncategorizedBucket = "uncategorized"
	UnknownAirport      = "ZZZZ"
)

// GroupByAirport buckets NOTAMs by primary location.
func GroupByAirport(ns []*notam.Notam) map[string][]*notam.Notam {
	out := make(map[string][]*notam.Notam)
	for _, n := range ns {
		key := n.Location
		if key == "" {
			key = UnknownAirport
		}
		out[key] = append(out[key], n)
	}
	return out
}

// GroupByCategory buckets NOTAMs by derived category.
func GroupByCategory(ns []*notam.Notam) map[notam.Category][]*notam.Notam {
	out := make(map[notam.Category][]*notam.Notam)
	for _, n := range ns {
		key := n.Category
		if key == "" {
			key = notam.CategoryOther
		}
		out[key] = append(out[key], n)
	}
	return out
}

// GroupByPrimaryCategory buckets NOTAMs by the enrichment-assigned
// primary category, with a sentinel bucket for unenriched records.
func GroupByPrimaryCategory(ns []*notam.Notam) map[string][]*notam.Notam {
	out := make(map[string][]*notam.Notam)
	for _, n := range ns {
		key := n.PrimaryCategory
		if key == "" {
			key = UncategorizedBucket
		}
		out[key] = append(out[key], n)
	}
	return out
}

func normalizeQ(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.TrimPrefix(code, "Q")
}
