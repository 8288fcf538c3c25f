// Package enrichment derives secondary classification data from parsed
// NOTAMs. It assigns a primary category, keyword-based custom tags and
// categories, and fills in a missing coordinate from an airport
// reference lookup when one is available.
package enrichment

import (
	"strings"

	"notam_parser/internal/notam"
)

// AirportLocator resolves an ICAO code to a reference coordinate.
// Implementations return nil when the airport is unknown.
type AirportLocator interface {
	LocateAirport(icao string) *notam.Coordinate
}

// tagRule maps message keywords to a tag and the custom category it
// implies.
type tagRule struct {
	keywords []string
	tag      string
	category string
}

// Keyword rules are matched against the upper-cased message text. Order
// matters only for PrimaryCategory selection, where the first matching
// rule wins when the Q-code gives no answer.
var tagRules = []tagRule{
	{[]string{"RWY", "RUNWAY"}, "runway", "aerodrome-surface"},
	{[]string{"TWY", "TAXIWAY"}, "taxiway", "aerodrome-surface"},
	{[]string{"APRON", "STAND "}, "apron", "aerodrome-surface"},
	{[]string{"ILS", "VOR", "DME", "NDB", "GNSS", "GPS"}, "navaid", "navigation"},
	{[]string{"OBST", "OBSTACLE", "CRANE", "MAST"}, "obstacle", "hazard"},
	{[]string{"PJE", "PARACHUTE"}, "parachute", "hazard"},
	{[]string{"UAS", "DRONE", "UNMANNED"}, "drone", "hazard"},
	{[]string{"FIREWORK", "LASER"}, "pyrotechnics", "hazard"},
	{[]string{"MILITARY", "EXER"}, "military", "airspace-activity"},
	{[]string{"FUEL"}, "fuel", "services"},
	{[]string{"BIRD"}, "wildlife", "hazard"},
	{[]string{"WIP", "WORK IN PROGRESS", "CONSTRUCTION"}, "work-in-progress", "aerodrome-surface"},
}

// primaryByCategory maps the Q-code derived category to a briefing-level
// primary category.
var primaryByCategory = map[notam.Category]string{
	notam.CategoryRunway:        "aerodrome",
	notam.CategoryTaxiway:       "aerodrome",
	notam.CategoryApron:         "aerodrome",
	notam.CategoryAerodrome:     "aerodrome",
	notam.CategoryLighting:      "aerodrome",
	notam.CategoryNavaid:        "navigation",
	notam.CategoryCommunication: "communication",
	notam.CategoryAirspace:      "airspace",
	notam.CategoryWarning:       "hazard",
	notam.CategoryObstacle:      "hazard",
	notam.CategoryProcedure:     "procedure",
	notam.CategoryService:       "services",
	notam.CategoryChecklist:     "administrative",
}

// Enricher fills derived fields on parsed NOTAMs. The locator is
// optional; without one, coordinate backfill is skipped.
type Enricher struct {
	locator AirportLocator
}

// New returns an Enricher with no airport lookup.
func New() *Enricher { return &Enricher{} }

// NewWithLocator returns an Enricher that backfills missing coordinates
// through the given lookup.
func NewWithLocator(locator AirportLocator) *Enricher {
	return &Enricher{locator: locator}
}

// Enrich mutates n in place, filling PrimaryCategory, CustomTags, and
// CustomCategories, and backfilling the coordinate when absent. Already
// populated fields are left alone so re-running enrichment is safe.
func (e *Enricher) Enrich(n *notam.Notam) {
	if n == nil {
		return
	}

	upper := strings.ToUpper(n.Message)
	if upper == "" {
		upper = strings.ToUpper(n.RawText)
	}

	var firstRuleCategory string
	for _, rule := range tagRules {
		if !matchesAny(upper, rule.keywords) {
			continue
		}
		if !contains(n.CustomTags, rule.tag) {
			n.CustomTags = append(n.CustomTags, rule.tag)
		}
		if !contains(n.CustomCategories, rule.category) {
			n.CustomCategories = append(n.CustomCategories, rule.category)
		}
		if firstRuleCategory == "" {
			firstRuleCategory = rule.category
		}
	}

	if n.PrimaryCategory == "" {
		if primary, ok := primaryByCategory[n.Category]; ok {
			n.PrimaryCategory = primary
		} else if firstRuleCategory != "" {
			n.PrimaryCategory = firstRuleCategory
		}
	}

	if n.Coordinate == nil && e.locator != nil && n.Location != "" && n.Location != "ZZZZ" {
		n.Coordinate = e.locator.LocateAirport(n.Location)
	}
}

// EnrichAll applies Enrich to every NOTAM in the slice.
func (e *Enricher) EnrichAll(ns []*notam.Notam) {
	for _, n := range ns {
		e.Enrich(n)
	}
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
