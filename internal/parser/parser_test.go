package parser

import (
	"strings"
	"testing"
	"time"
)

const fullNotam = `B0123/25 NOTAMN
Q) EGTT/QMRLC/IV/NBO/A/000/999/5129N00028W005
A) EGLL B) 2501010600 C) 2501101800
D) DAILY 0600-1800
E) RWY 09L/27R CLSD DUE WIP. SEE WWW.NATS.AERO/AIS SUP 059/2025
F) SFC G) FL100`

func TestParseFullNotam(t *testing.T) {
	p := New()
	n := p.Parse(fullNotam, "test-feed")
	if n == nil {
		t.Fatal("Parse returned nil")
	}

	if n.ID != "B0123/25" {
		t.Errorf("ID = %q, want B0123/25", n.ID)
	}
	if n.Series != "B" || n.Number != 123 || n.Year != 25 {
		t.Errorf("series/number/year = %q/%d/%d", n.Series, n.Number, n.Year)
	}
	if n.FIR != "EGTT" {
		t.Errorf("FIR = %q, want EGTT", n.FIR)
	}
	if n.QCode != "QMRLC" {
		t.Errorf("QCode = %q, want QMRLC", n.QCode)
	}
	if n.TrafficType != "IV" || n.Purpose != "NBO" || n.Scope != "A" {
		t.Errorf("traffic/purpose/scope = %q/%q/%q", n.TrafficType, n.Purpose, n.Scope)
	}
	if n.Location != "EGLL" {
		t.Errorf("Location = %q, want EGLL", n.Location)
	}

	if n.Coordinate == nil {
		t.Fatal("Coordinate missing")
	}
	wantLat := 51.0 + 29.0/60
	wantLon := -(0.0 + 28.0/60)
	if abs(n.Coordinate.Latitude-wantLat) > 1e-9 || abs(n.Coordinate.Longitude-wantLon) > 1e-9 {
		t.Errorf("Coordinate = %+v, want (%v, %v)", n.Coordinate, wantLat, wantLon)
	}
	if n.RadiusNm == nil || *n.RadiusNm != 5 {
		t.Errorf("RadiusNm = %v, want 5", n.RadiusNm)
	}

	wantFrom := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	if n.EffectiveFrom == nil || !n.EffectiveFrom.Equal(wantFrom) {
		t.Errorf("EffectiveFrom = %v, want %v", n.EffectiveFrom, wantFrom)
	}
	if n.EffectiveTo == nil || !n.EffectiveTo.Equal(wantTo) {
		t.Errorf("EffectiveTo = %v, want %v", n.EffectiveTo, wantTo)
	}
	if n.IsPermanent {
		t.Error("IsPermanent = true for bounded NOTAM")
	}

	if n.ScheduleText != "DAILY 0600-1800" {
		t.Errorf("ScheduleText = %q", n.ScheduleText)
	}
	if !strings.HasPrefix(n.Message, "RWY 09L/27R CLSD") || strings.Contains(n.Message, "F)") {
		t.Errorf("Message = %q", n.Message)
	}

	// F)/G) override the Q-line flight levels.
	if n.LowerLimitFt == nil || *n.LowerLimitFt != 0 {
		t.Errorf("LowerLimitFt = %v, want 0", n.LowerLimitFt)
	}
	if n.UpperLimitFt == nil || *n.UpperLimitFt != 10000 {
		t.Errorf("UpperLimitFt = %v, want 10000", n.UpperLimitFt)
	}

	if string(n.Category) != "runway" {
		t.Errorf("Category = %q, want runway", n.Category)
	}
	if n.QCodeInfo == nil || n.QCodeInfo.SubjectMeaning != "Runway" {
		t.Errorf("QCodeInfo = %+v", n.QCodeInfo)
	}
	if len(n.DocumentReferences) != 1 || n.DocumentReferences[0].Identifier != "SUP 059/2025" {
		t.Errorf("DocumentReferences = %v", n.DocumentReferences)
	}

	if n.ParseConfidence != 1.0 {
		t.Errorf("ParseConfidence = %v, want 1.0", n.ParseConfidence)
	}
	if n.Source != "test-feed" {
		t.Errorf("Source = %q", n.Source)
	}
}

func TestParseQLineDefaults(t *testing.T) {
	// Without F)/G), the limits come from the Q-line flight levels.
	text := `B0124/25 NOTAMN
Q) EGTT/QRTCA/IV/BO/W/050/120/5129N00028W010
A) EGTT B) 2501010600 C) 2501101800
E) TEMPO RESTRICTED AREA ACTIVE`
	n := New().Parse(text, "")
	if n.LowerLimitFt == nil || *n.LowerLimitFt != 5000 {
		t.Errorf("LowerLimitFt = %v, want 5000", n.LowerLimitFt)
	}
	if n.UpperLimitFt == nil || *n.UpperLimitFt != 12000 {
		t.Errorf("UpperLimitFt = %v, want 12000", n.UpperLimitFt)
	}
	if n.RadiusNm == nil || *n.RadiusNm != 10 {
		t.Errorf("RadiusNm = %v, want 10", n.RadiusNm)
	}
}

func TestParseReducedQLine(t *testing.T) {
	text := `A0456/25 NOTAMN
Q) LFFF/QFAXX
A) LFPG
E) AD INFO CHANGED`
	n := New().Parse(text, "")
	if n.FIR != "LFFF" || n.QCode != "QFAXX" {
		t.Errorf("FIR/QCode = %q/%q", n.FIR, n.QCode)
	}
	if n.Coordinate != nil || n.RadiusNm != nil {
		t.Errorf("reduced Q-line produced coordinate %v radius %v", n.Coordinate, n.RadiusNm)
	}
}

func TestParseLocationFallbacks(t *testing.T) {
	// No A) line: Q-line FIR stands in.
	n := New().Parse("A0001/25 NOTAMN\nQ) EGTT/QMRLC\nE) TEXT", "")
	if n.Location != "EGTT" {
		t.Errorf("Location = %q, want EGTT", n.Location)
	}

	// Neither A) nor Q): sentinel.
	n = New().Parse("SOME FREE TEXT ADVISORY WITHOUT STRUCTURE", "")
	if n.Location != "ZZZZ" {
		t.Errorf("Location = %q, want ZZZZ", n.Location)
	}
}

func TestParseAffectedLocations(t *testing.T) {
	n := New().Parse("A0002/25 NOTAMN\nA) EGLL EGKK EGSS\nE) FLOW MEASURES", "")
	if n.Location != "EGLL" {
		t.Errorf("Location = %q, want EGLL", n.Location)
	}
	if len(n.AffectedLocations) != 2 || n.AffectedLocations[0] != "EGKK" || n.AffectedLocations[1] != "EGSS" {
		t.Errorf("AffectedLocations = %v", n.AffectedLocations)
	}
}

func TestParsePermanent(t *testing.T) {
	n := New().Parse("A0003/25 NOTAMN\nA) EGLL B) 2501010600 C) PERM\nE) NEW OBSTACLE ERECTED", "")
	if !n.IsPermanent {
		t.Error("IsPermanent = false for C) PERM")
	}
	if n.EffectiveTo != nil {
		t.Errorf("EffectiveTo = %v, want nil for permanent NOTAM", n.EffectiveTo)
	}

	// UFN in prose with no C) line also means permanent.
	n = New().Parse("A0004/25 NOTAMN\nA) EGLL B) 2501010600\nE) CRANE OPERATING UFN", "")
	if !n.IsPermanent {
		t.Error("IsPermanent = false for UFN text")
	}

	// A bounded NOTAM is not permanent even if PERM appears in prose.
	n = New().Parse("A0005/25 NOTAMN\nA) EGLL B) 2501010600 C) 2501101800\nE) REFER TO PERM PROCEDURES", "")
	if n.IsPermanent {
		t.Error("IsPermanent = true despite explicit end time")
	}
}

func TestParseFallbackID(t *testing.T) {
	text := "UNSTRUCTURED ADVISORY TEXT WITHOUT AN IDENTIFIER"
	a := New().Parse(text, "")
	b := New().Parse(text, "")
	if a.ID != b.ID {
		t.Errorf("fallback ID not deterministic: %q vs %q", a.ID, b.ID)
	}
	if len(a.ID) != 8 || a.ID[0] != 'X' || !strings.HasSuffix(a.ID, "/00") {
		t.Errorf("fallback ID = %q, want X<4 digits>/00", a.ID)
	}
}

func TestParseMessageFallback(t *testing.T) {
	text := `A0006/25 NOTAMN
Q) EGTT/QMXLC/IV/M/A/000/999/5129N00028W005
A) EGLL B) 2501010600 C) 2501101800
TWY A CLOSED BETWEEN A1 AND A3`
	n := New().Parse(text, "")
	if n.Message != "TWY A CLOSED BETWEEN A1 AND A3" {
		t.Errorf("Message = %q", n.Message)
	}
}

func TestParseEmpty(t *testing.T) {
	if n := New().Parse("   \n ", ""); n != nil {
		t.Errorf("Parse of blank text = %+v, want nil", n)
	}
}

func TestParseNotamDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2501010600", time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC), true},
		{"9912312359", time.Date(2099, 12, 31, 23, 59, 0, 0, time.UTC), true},
		{"0001010000", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2513010600", time.Time{}, false}, // Month 13.
		{"25010106", time.Time{}, false},   // Too short.
		{"25010106XX", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseNotamDateTime(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseNotamDateTime(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseNotamDateTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAltitudeValues(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"SFC", 0, true},
		{"GND", 0, true},
		{"UNL", 99999, true},
		{"FL100", 10000, true},
		{"FL 65", 6500, true},
		{"2500 FT", 2500, true},
		{"2500", 2500, true},
		{"1500 M", 4921, true}, // 1500 * 3.28084 = 4921.26, rounded down.
		{"GARBAGE", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAltitudeValue(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseAltitudeValue(%q) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseAltitudeLines(t *testing.T) {
	text := `A0007/25 NOTAMN
Q) EGTT/QWPLW/IV/M/W/000/050/5129N00028W002
A) EGTT B) 2501010600 C) 2501101800
E) PJE WILL TAKE PLACE
F) 1500 M G) UNL`
	n := New().Parse(text, "")
	if n.LowerLimitFt == nil || *n.LowerLimitFt != 4921 {
		t.Errorf("LowerLimitFt = %v, want 4921", n.LowerLimitFt)
	}
	if n.UpperLimitFt == nil || *n.UpperLimitFt != 99999 {
		t.Errorf("UpperLimitFt = %v, want 99999", n.UpperLimitFt)
	}
}

func TestParseSouthernEasternCoordinate(t *testing.T) {
	text := `C0100/25 NOTAMN
Q) YMMM/QWMLW/IV/M/W/000/050/3757S14458E010
A) YMML B) 2501010600 C) 2501101800
E) FIRING AREA ACTIVE`
	n := New().Parse(text, "")
	if n.Coordinate == nil {
		t.Fatal("Coordinate missing")
	}
	if n.Coordinate.Latitude >= 0 || n.Coordinate.Longitude <= 0 {
		t.Errorf("Coordinate = %+v, want southern/eastern", n.Coordinate)
	}
	wantLat := -(37.0 + 57.0/60)
	if abs(n.Coordinate.Latitude-wantLat) > 1e-9 {
		t.Errorf("Latitude = %v, want %v", n.Coordinate.Latitude, wantLat)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
