// Package parser converts a single NOTAM text chunk into a structured
// record. It implements the ICAO NOTAM grammar (Q-line plus the lettered
// A) through G) items) and degrades to partial records for malformed
// text: the only input that fails to parse is a blank one.
package parser

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"notam_parser/internal/docref"
	"notam_parser/internal/notam"
	"notam_parser/internal/qcode"
)

// Patterns for the NOTAM grammar. All items are optional in practice;
// each extractor below returns a zero value when its pattern is absent.
var (
	idRe = regexp.MustCompile(`([A-Z])(\d{4})/(\d{2})`)

	// Full Q-line: FIR/Qcode/traffic/purpose/scope/lower/upper/coords
	// with an optional 3-digit radius, e.g.
	// Q) EGTT/QMRLC/IV/NBO/A/000/999/5129N00028W005
	fullQRe = regexp.MustCompile(`Q\)\s*([A-Z]{4})/Q([A-Z]{4})/([A-Z]{1,2})/([A-Z]{1,3})/([A-Z]{1,2})/(\d{3})/(\d{3})/(\d{4})([NS])(\d{5})([EW])(\d{3})?`)

	// Reduced Q-line: many providers emit only FIR and code.
	simpleQRe = regexp.MustCompile(`Q\)\s*([A-Z]{4})/Q([A-Z]{2,4})`)

	locationRe = regexp.MustCompile(`A\)\s*((?:[A-Z]{4})(?:\s+[A-Z]{4})*)`)
	fromRe     = regexp.MustCompile(`B\)\s*(\d{10})`)
	toRe       = regexp.MustCompile(`C\)\s*(\d{10}|PERM|UFN)`)

	scheduleRe = regexp.MustCompile(`(?s)D\)\s*(.+?)(?:\s+[EFG]\)|$)`)
	messageRe  = regexp.MustCompile(`(?s)E\)\s*(.+?)(?:\s+[FG]\)|$)`)

	lowerRe = regexp.MustCompile(`F\)\s*(SFC|GND|UNL|FL\s*\d+|\d+\s*(?:FT|M)?)`)
	upperRe = regexp.MustCompile(`G\)\s*(SFC|GND|UNL|FL\s*\d+|\d+\s*(?:FT|M)?)`)

	flLineRe     = regexp.MustCompile(`^FL\s*(\d+)$`)
	altValueRe   = regexp.MustCompile(`^(\d+)\s*(FT|M)?$`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// strippedLineRe marks structured lines removed from the message
	// fallback when no E) item exists.
	strippedLineRe = regexp.MustCompile(`^[QABCD]\)`)

	// notamTypeRe is the NOTAMN/NOTAMR/NOTAMC token after the ID.
	notamTypeRe = regexp.MustCompile(`^\s*NOTAM[NRC]`)
)

// metersToFeet is the conversion used for F)/G) limits given in metres.
const metersToFeet = 3.28084

// Parser builds Notam records, enriching them through the Q-code catalog
// and the document-reference extractor.
type Parser struct {
	qcodes  *qcode.Catalog
	docrefs *docref.Extractor
}

// New returns a parser backed by the embedded Q-code and provider tables.
func New() *Parser {
	return &Parser{qcodes: qcode.Default(), docrefs: docref.Default()}
}

// NewWithSources returns a parser with explicit enrichment sources.
// Either may be nil to disable that enrichment.
func NewWithSources(qcodes *qcode.Catalog, docrefs *docref.Extractor) *Parser {
	return &Parser{qcodes: qcodes, docrefs: docrefs}
}

// Parse converts one NOTAM chunk into a record. Source tags where the
// text came from (feed name, file, URL). Returns nil only for
// empty/whitespace-only input.
func (p *Parser) Parse(chunk, source string) *notam.Notam {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return nil
	}

	n := &notam.Notam{
		RawText:         chunk,
		Source:          source,
		ParsedAt:        time.Now().UTC(),
		ParseConfidence: 1.0,
	}

	idEnd := p.parseID(n, chunk)
	p.parseQLine(n, chunk)
	p.parseLocation(n, chunk)
	p.parseEffectiveTimes(n, chunk)
	p.parseSchedule(n, chunk)
	p.parseMessage(n, chunk, idEnd)
	p.parseAltitudeLimits(n, chunk)

	n.Category = notam.CategoryForSubject(qcode.Normalize(n.QCode))
	if n.QCode != "" && p.qcodes != nil {
		n.QCodeInfo = p.qcodes.Lookup(n.QCode)
	}
	if p.docrefs != nil {
		n.DocumentReferences = p.docrefs.Extract(chunk)
	}

	return n
}

// parseID extracts the NOTAM ID or synthesizes a deterministic fallback.
// It returns the offset just past the matched ID (0 when synthesized) for
// use by the message fallback.
func (p *Parser) parseID(n *notam.Notam, chunk string) int {
	m := idRe.FindStringSubmatchIndex(chunk)
	if m == nil {
		n.ID = fallbackID(chunk)
		return 0
	}

	n.ID = chunk[m[0]:m[1]]
	n.Series = chunk[m[2]:m[3]]
	n.Number, _ = strconv.Atoi(chunk[m[4]:m[5]])
	n.Year, _ = strconv.Atoi(chunk[m[6]:m[7]])
	return m[1]
}

// fallbackID derives a reproducible ID from the chunk text so repeated
// parses of identical text agree across runs and platforms.
func fallbackID(chunk string) string {
	h := fnv.New32a()
	h.Write([]byte(chunk))
	return fmt.Sprintf("X%04d/00", h.Sum32()%10000)
}

// parseQLine tries the full eight-field Q-line first and falls back to
// the reduced FIR/Qcode form.
func (p *Parser) parseQLine(n *notam.Notam, chunk string) {
	if m := fullQRe.FindStringSubmatch(chunk); m != nil {
		n.FIR = m[1]
		n.QCode = "Q" + m[2]
		n.TrafficType = m[3]
		n.Purpose = m[4]
		n.Scope = m[5]

		if fl, err := strconv.Atoi(m[6]); err == nil {
			lower := fl * 100
			n.LowerLimitFt = &lower
		}
		if fl, err := strconv.Atoi(m[7]); err == nil {
			upper := fl * 100
			n.UpperLimitFt = &upper
		}

		n.Coordinate = parseQLineCoordinate(m[8], m[9], m[10], m[11])
		radius := 5.0 // ICAO default when the radius group is absent.
		if m[12] != "" {
			if r, err := strconv.Atoi(m[12]); err == nil {
				radius = float64(r)
			}
		}
		if n.Coordinate != nil {
			n.RadiusNm = &radius
		}
		return
	}

	if m := simpleQRe.FindStringSubmatch(chunk); m != nil {
		n.FIR = m[1]
		n.QCode = "Q" + m[2]
	}
}

// parseQLineCoordinate converts DDMM[NS]DDDMM[EW] to decimal degrees.
func parseQLineCoordinate(lat, latDir, lon, lonDir string) *notam.Coordinate {
	latDeg, err1 := strconv.Atoi(lat[:2])
	latMin, err2 := strconv.Atoi(lat[2:])
	lonDeg, err3 := strconv.Atoi(lon[:3])
	lonMin, err4 := strconv.Atoi(lon[3:])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil
	}

	c := &notam.Coordinate{
		Latitude:  float64(latDeg) + float64(latMin)/60,
		Longitude: float64(lonDeg) + float64(lonMin)/60,
	}
	if latDir == "S" {
		c.Latitude = -c.Latitude
	}
	if lonDir == "W" {
		c.Longitude = -c.Longitude
	}
	return c
}

// parseLocation reads the A) item. The first ICAO code is the primary
// location; any further codes on the same item are affected locations.
// Without an A) item the Q-line FIR stands in, then the ZZZZ sentinel.
func (p *Parser) parseLocation(n *notam.Notam, chunk string) {
	if m := locationRe.FindStringSubmatch(chunk); m != nil {
		codes := strings.Fields(m[1])
		n.Location = codes[0]
		if len(codes) > 1 {
			n.AffectedLocations = codes[1:]
		}
		return
	}
	if n.FIR != "" {
		n.Location = n.FIR
		return
	}
	n.Location = "ZZZZ"
}

// parseEffectiveTimes reads B) and C). A NOTAM is permanent only when no
// end time was set and the text carries a PERM/UFN token somewhere.
func (p *Parser) parseEffectiveTimes(n *notam.Notam, chunk string) {
	if m := fromRe.FindStringSubmatch(chunk); m != nil {
		if t, ok := ParseNotamDateTime(m[1]); ok {
			n.EffectiveFrom = &t
		}
	}

	endSet := false
	if m := toRe.FindStringSubmatch(chunk); m != nil && m[1] != "PERM" && m[1] != "UFN" {
		if t, ok := ParseNotamDateTime(m[1]); ok {
			n.EffectiveTo = &t
			endSet = true
		}
	}

	// A C) time before the B) time is garbage; keep the start and treat
	// the NOTAM as open-ended.
	if n.EffectiveFrom != nil && n.EffectiveTo != nil && n.EffectiveTo.Before(*n.EffectiveFrom) {
		n.EffectiveTo = nil
		endSet = false
	}

	if !endSet && (strings.Contains(chunk, "PERM") || strings.Contains(chunk, "UFN")) {
		n.IsPermanent = true
	}
}

// ParseNotamDateTime parses the ICAO YYMMDDHHMM group as UTC with
// year = 2000+YY.
func ParseNotamDateTime(s string) (time.Time, bool) {
	if len(s) != 10 {
		return time.Time{}, false
	}
	yy, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[2:4])
	dd, err3 := strconv.Atoi(s[4:6])
	hh, err4 := strconv.Atoi(s[6:8])
	mi, err5 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return time.Time{}, false
	}
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 || hh > 23 || mi > 59 {
		return time.Time{}, false
	}
	return time.Date(2000+yy, time.Month(mm), dd, hh, mi, 0, 0, time.UTC), true
}

// parseSchedule reads the D) item, whitespace-normalised.
func (p *Parser) parseSchedule(n *notam.Notam, chunk string) {
	if m := scheduleRe.FindStringSubmatch(chunk); m != nil {
		n.ScheduleText = whitespaceRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
	}
}

// parseMessage reads the E) item up to an F)/G) line or the end of text.
// Without an E) marker the message falls back to the text following the
// NOTAM ID with the structured Q)/A)/B)/C)/D) lines stripped.
func (p *Parser) parseMessage(n *notam.Notam, chunk string, idEnd int) {
	if m := messageRe.FindStringSubmatch(chunk); m != nil {
		n.Message = strings.TrimSpace(m[1])
		return
	}

	rest := notamTypeRe.ReplaceAllString(chunk[idEnd:], "")
	var kept []string
	for _, line := range strings.Split(rest, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strippedLineRe.MatchString(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	n.Message = strings.Join(kept, "\n")
}

// parseAltitudeLimits applies explicit F)/G) items over the Q-line
// defaults already set by parseQLine.
func (p *Parser) parseAltitudeLimits(n *notam.Notam, chunk string) {
	if m := lowerRe.FindStringSubmatch(chunk); m != nil {
		if ft, ok := parseAltitudeValue(m[1]); ok {
			n.LowerLimitFt = &ft
		}
	}
	if m := upperRe.FindStringSubmatch(chunk); m != nil {
		if ft, ok := parseAltitudeValue(m[1]); ok {
			n.UpperLimitFt = &ft
		}
	}
}

// parseAltitudeValue converts an F)/G) value to feet: SFC/GND are the
// surface, FL<n> is n*100 ft, UNL is the unlimited sentinel, metres
// convert at 3.28084 ft/m rounded to the nearest foot, and bare numbers
// are read as feet.
func parseAltitudeValue(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "SFC", "GND":
		return 0, true
	case "UNL":
		return notam.UnlimitedAltitudeFt, true
	}
	if m := flLineRe.FindStringSubmatch(s); m != nil {
		fl, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return fl * 100, true
	}
	if m := altValueRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		if m[2] == "M" {
			return int(float64(v)*metersToFeet + 0.5), true
		}
		return v, true
	}
	return 0, false
}
