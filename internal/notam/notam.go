// Package notam provides the NOTAM record types shared across the parser,
// query, and storage layers. Records are built once by the parser and are
// never mutated afterwards; downstream code only reads them.
package notam

import (
	"time"
)

// UnlimitedAltitudeFt is the sentinel upper limit used for "G) UNL" and for
// range checks on NOTAMs with no upper limit.
const UnlimitedAltitudeFt = 99999

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Notam is a single parsed NOTAM. ID plus Location is the practical
// identity key for deduplication.
type Notam struct {
	ID       string `json:"id"`       // e.g. "A1234/24"
	Location string `json:"location"` // ICAO location from the A) line ("ZZZZ" if unknown).
	RawText  string `json:"raw_text"`
	Message  string `json:"message"` // E) line body, or the stripped text fallback.

	Series string `json:"series,omitempty"` // Leading letter of the ID.
	Number int    `json:"number,omitempty"`
	Year   int    `json:"year,omitempty"` // Two-digit issue year from the ID.

	FIR               string   `json:"fir,omitempty"`
	AffectedLocations []string `json:"affected_locations,omitempty"`

	QCode       string `json:"q_code,omitempty"` // Five-letter code including the leading Q.
	TrafficType string `json:"traffic_type,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Scope       string `json:"scope,omitempty"`

	LowerLimitFt *int     `json:"lower_limit_ft,omitempty"`
	UpperLimitFt *int     `json:"upper_limit_ft,omitempty"`
	RadiusNm     *float64 `json:"radius_nm,omitempty"` // Meaningless without Coordinate.

	Coordinate *Coordinate `json:"coordinate,omitempty"`

	Category Category `json:"category"`

	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	IsPermanent   bool       `json:"is_permanent,omitempty"`
	ScheduleText  string     `json:"schedule_text,omitempty"` // D) line, whitespace-normalised.

	Source          string    `json:"source,omitempty"`
	ParsedAt        time.Time `json:"parsed_at"`
	ParseConfidence float64   `json:"parse_confidence"`

	// Populated by the enrichment stage, not by the parser.
	PrimaryCategory  string   `json:"primary_category,omitempty"`
	CustomCategories []string `json:"custom_categories,omitempty"`
	CustomTags       []string `json:"custom_tags,omitempty"`

	QCodeInfo          *QCodeInfo          `json:"q_code_info,omitempty"`
	DocumentReferences []DocumentReference `json:"document_references,omitempty"`
}

// QCodeInfo is the decoded meaning of a 5-letter Q-code, produced once per
// NOTAM at parse time.
type QCodeInfo struct {
	QCode             string `json:"q_code"`
	SubjectCode       string `json:"subject_code"`
	SubjectMeaning    string `json:"subject_meaning"`
	SubjectPhrase     string `json:"subject_phrase"`
	SubjectCategory   string `json:"subject_category,omitempty"`
	ConditionCode     string `json:"condition_code,omitempty"`
	ConditionMeaning  string `json:"condition_meaning,omitempty"`
	ConditionPhrase   string `json:"condition_phrase,omitempty"`
	ConditionCategory string `json:"condition_category,omitempty"`
	DisplayText       string `json:"display_text"`
	ShortText         string `json:"short_text"`
	IsChecklist       bool   `json:"is_checklist,omitempty"`
	IsPlainLanguage   bool   `json:"is_plain_language,omitempty"`
}

// DocumentReference is a reference to an external publication (AIP
// supplement etc.) found in NOTAM prose.
type DocumentReference struct {
	Type         string   `json:"type"`
	Identifier   string   `json:"identifier"`
	Provider     string   `json:"provider"`
	ProviderName string   `json:"provider_name"`
	SearchURL    string   `json:"search_url,omitempty"`
	DocumentURLs []string `json:"document_urls,omitempty"`
}

// EffectiveAt reports whether the NOTAM is active at t. Permanent NOTAMs
// are active once started; temporary NOTAMs need t inside the effective
// window, either bound being optional (open-ended).
func (n *Notam) EffectiveAt(t time.Time) bool {
	if n.EffectiveFrom != nil && t.Before(*n.EffectiveFrom) {
		return false
	}
	if n.IsPermanent {
		return true
	}
	if n.EffectiveTo != nil && t.After(*n.EffectiveTo) {
		return false
	}
	return true
}

// AltitudeRange returns the affected altitude band in feet, defaulting
// missing bounds to surface and unlimited.
func (n *Notam) AltitudeRange() (lower, upper int) {
	lower, upper = 0, UnlimitedAltitudeFt
	if n.LowerLimitFt != nil {
		lower = *n.LowerLimitFt
	}
	if n.UpperLimitFt != nil {
		upper = *n.UpperLimitFt
	}
	return lower, upper
}
