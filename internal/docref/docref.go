// Package docref extracts references to external publications (AIP
// supplements and similar) from NOTAM prose. Extraction is driven by an
// ordered provider list held as plain data, so adding an authority is a
// configuration change, not a code change.
package docref

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"notam_parser/internal/notam"
)

//go:embed providers.json
var defaultProviders []byte

// Provider is one publication source: trigger substrings gate the (more
// expensive) reference regex, and the templates build identifiers and
// document URLs from the captured groups.
type Provider struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`

	// Triggers are case-insensitive substrings; at least one must appear
	// in the text before Pattern is tried. An empty list always matches.
	Triggers []string `json:"triggers,omitempty"`

	// Pattern captures either (number, year) or (series, number, year).
	Pattern string `json:"pattern"`

	// IdentifierFormat may use {series}, {number} and {year}. When empty
	// the identifier defaults to "SUP {number}/{year}".
	IdentifierFormat string `json:"identifier_format,omitempty"`

	Type         string   `json:"type,omitempty"`
	SearchURL    string   `json:"search_url,omitempty"`
	DocumentURLs []string `json:"document_urls,omitempty"`

	// NumberPad zero-pads the captured number to this width (0 = as-is).
	NumberPad int `json:"number_pad,omitempty"`
}

// compiledProvider pairs a provider with its compiled regex and
// upper-cased triggers.
type compiledProvider struct {
	Provider
	re       *regexp.Regexp
	triggers []string
}

// Extractor runs the provider list against free text.
type Extractor struct {
	providers []compiledProvider
}

var (
	defaultOnce      sync.Once
	defaultExtractor *Extractor
)

// Default returns the extractor backed by the embedded provider list,
// loaded once. A load failure logs and yields an extractor that finds
// nothing.
func Default() *Extractor {
	defaultOnce.Do(func() {
		e, err := NewFromJSON(defaultProviders)
		if err != nil {
			log.Printf("docref: loading embedded providers: %v", err)
			e = &Extractor{}
		}
		defaultExtractor = e
	})
	return defaultExtractor
}

// NewFromJSON builds an extractor from a JSON provider list.
func NewFromJSON(data []byte) (*Extractor, error) {
	var providers []Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("decode providers: %w", err)
	}
	return New(providers), nil
}

// New builds an extractor from an ordered provider list. A provider with
// a malformed regex is logged and skipped; the others still run.
func New(providers []Provider) *Extractor {
	e := &Extractor{}
	for _, p := range providers {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			log.Printf("docref: provider %s: bad pattern %q: %v", p.ID, p.Pattern, err)
			continue
		}
		cp := compiledProvider{Provider: p, re: re}
		for _, t := range p.Triggers {
			cp.triggers = append(cp.triggers, strings.ToUpper(t))
		}
		e.providers = append(e.providers, cp)
	}
	return e
}

// Extract finds all document references in text, deduplicated by
// (provider, identifier) in first-seen order.
func (e *Extractor) Extract(text string) []notam.DocumentReference {
	if text == "" {
		return nil
	}
	upper := strings.ToUpper(text)

	var refs []notam.DocumentReference
	seen := make(map[string]bool)

	for _, p := range e.providers {
		if !p.triggered(upper) {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			ref, ok := p.buildReference(m)
			if !ok {
				continue
			}
			key := ref.Provider + "\x00" + ref.Identifier
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, ref)
		}
	}

	return refs
}

// triggered reports whether any trigger substring appears in the
// upper-cased text. No triggers means the provider always runs.
func (p *compiledProvider) triggered(upper string) bool {
	if len(p.triggers) == 0 {
		return true
	}
	for _, t := range p.triggers {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}

// buildReference turns one regex match into a DocumentReference. The
// pattern captures (number, year) or (series, number, year).
func (p *compiledProvider) buildReference(m []string) (notam.DocumentReference, bool) {
	var series, number, year string
	switch len(m) {
	case 3:
		number, year = m[1], m[2]
	case 4:
		series, number, year = m[1], m[2], m[3]
	default:
		return notam.DocumentReference{}, false
	}

	year = normalizeYear(year)
	if p.NumberPad > 0 {
		number = padNumber(number, p.NumberPad)
	}

	identifier := p.IdentifierFormat
	if identifier == "" {
		identifier = "SUP {number}/{year}"
	}
	identifier = substitute(identifier, series, number, year)

	refType := p.Type
	if refType == "" {
		refType = "aip_supplement"
	}

	ref := notam.DocumentReference{
		Type:         refType,
		Identifier:   identifier,
		Provider:     p.ID,
		ProviderName: p.Name,
	}
	if p.SearchURL != "" {
		ref.SearchURL = substitute(p.SearchURL, series, number, year)
	}
	for _, tmpl := range p.DocumentURLs {
		ref.DocumentURLs = append(ref.DocumentURLs, substitute(tmpl, series, number, year))
	}
	return ref, true
}

// normalizeYear expands a two-digit year to four digits. Values above 50
// are read as 19xx, the rest as 20xx. This matches how authorities number
// supplements today and is deliberately not a general-purpose rule.
func normalizeYear(year string) string {
	if len(year) != 2 {
		return year
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return year
	}
	if y > 50 {
		return strconv.Itoa(1900 + y)
	}
	return fmt.Sprintf("20%02d", y)
}

// padNumber left-pads a numeric string with zeros to the given width.
func padNumber(number string, width int) string {
	for len(number) < width {
		number = "0" + number
	}
	return number
}

// substitute fills the {series}/{number}/{year} placeholders.
func substitute(tmpl, series, number, year string) string {
	tmpl = strings.ReplaceAll(tmpl, "{series}", series)
	tmpl = strings.ReplaceAll(tmpl, "{number}", number)
	return strings.ReplaceAll(tmpl, "{year}", year)
}
