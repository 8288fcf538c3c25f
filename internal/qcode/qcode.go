// Package qcode decodes the 5-letter NOTAM Q-code into human-readable
// subject and condition text. The decode table ships embedded so every
// deployment answers lookups identically without external files.
package qcode

import (
	_ "embed"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"notam_parser/internal/notam"
)

//go:embed qcodes.json
var defaultTable []byte

// Entry is one subject or condition decode.
type Entry struct {
	Meaning string `json:"meaning"`
	Phrase  string `json:"phrase"`
	Cat     string `json:"cat,omitempty"`
}

// table is the on-disk layout of the decode dataset: two maps keyed by
// two-letter code.
type table struct {
	Subjects   map[string]Entry `json:"subjects"`
	Conditions map[string]Entry `json:"conditions"`
}

// Catalog answers Q-code meaning queries from a loaded decode table.
type Catalog struct {
	subjects   map[string]Entry
	conditions map[string]Entry
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog backed by the embedded decode table. The
// table is loaded once; a load failure logs and yields an empty catalog
// rather than failing the caller (briefing data is best-effort).
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := NewFromJSON(defaultTable)
		if err != nil {
			log.Printf("qcode: loading embedded table: %v", err)
			c = &Catalog{}
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// NewFromJSON builds a catalog from a JSON decode table.
func NewFromJSON(data []byte) (*Catalog, error) {
	var t table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &Catalog{subjects: t.Subjects, conditions: t.Conditions}, nil
}

// Normalize strips an optional leading "Q" and upper-cases the code.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.HasPrefix(code, "Q") {
		code = code[1:]
	}
	return code
}

// IsChecklist reports whether the code is the KKKK checklist marker.
func IsChecklist(code string) bool {
	return Normalize(code) == "KKKK"
}

// IsPlainLanguage reports whether the code's condition is XX, meaning the
// E) line carries the condition in plain language.
func IsPlainLanguage(code string) bool {
	n := Normalize(code)
	return len(n) >= 4 && strings.HasSuffix(n, "XX")
}

// Lookup decodes a Q-code, with or without the leading "Q". Codes shorter
// than two letters return nil. An unknown subject still produces a basic
// record so downstream code always has something displayable.
func (c *Catalog) Lookup(code string) *notam.QCodeInfo {
	n := Normalize(code)
	if len(n) < 2 {
		return nil
	}

	subjectCode := n[:2]
	info := &notam.QCodeInfo{
		QCode:           "Q" + n,
		SubjectCode:     subjectCode,
		SubjectMeaning:  "Unknown",
		SubjectPhrase:   strings.ToLower(subjectCode),
		IsChecklist:     IsChecklist(code),
		IsPlainLanguage: IsPlainLanguage(code),
	}

	if s, ok := c.subjects[subjectCode]; ok {
		info.SubjectMeaning = s.Meaning
		info.SubjectPhrase = s.Phrase
		info.SubjectCategory = s.Cat
	}

	if len(n) >= 4 {
		conditionCode := n[2:4]
		info.ConditionCode = conditionCode
		if cond, ok := c.conditions[conditionCode]; ok {
			info.ConditionMeaning = cond.Meaning
			info.ConditionPhrase = cond.Phrase
			info.ConditionCategory = cond.Cat
		}
	}

	info.DisplayText = info.SubjectMeaning
	info.ShortText = info.SubjectPhrase
	if info.ConditionMeaning != "" {
		info.DisplayText += ": " + info.ConditionMeaning
		info.ShortText += " " + info.ConditionPhrase
	}

	return info
}
