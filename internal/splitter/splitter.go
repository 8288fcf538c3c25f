// Package splitter splits a raw text block containing many NOTAMs into
// individual NOTAM chunks. Briefing pages routinely concatenate dozens of
// NOTAMs, and the E) lines of replacement/cancellation NOTAMs reference
// other NOTAM IDs, so the splitter has to tell chunk starts apart from
// cross-references.
package splitter

import (
	"regexp"
	"strings"
)

// Patterns for locating NOTAM starts.
var (
	// headerRe matches a NOTAM header: an ID followed by the NOTAMN /
	// NOTAMR / NOTAMC type marker, e.g. "A1234/24 NOTAMN".
	headerRe = regexp.MustCompile(`[A-Z]\d{4}/\d{2}\s+NOTAM[NRC]`)

	// idRe matches a bare NOTAM ID anywhere in the text.
	idRe = regexp.MustCompile(`[A-Z]\d{4}/\d{2}`)

	// refSuffixRe matches the tail of "... NOTAMR" / "... NOTAMC"
	// immediately before a referenced ID, which marks the ID as a
	// cross-reference rather than a new NOTAM start.
	refSuffixRe = regexp.MustCompile(`NOTAM[RC]\s*$`)
)

// minFragmentLen filters out noise when falling back to blank-line splits.
const minFragmentLen = 20

// Split breaks text into ordered per-NOTAM chunks. The first rule that
// yields any match wins:
//
//  1. "<ID> NOTAM[N|R|C]" headers anchor chunk starts.
//  2. Bare IDs anchor chunk starts, after discarding IDs whose preceding
//     few characters end in NOTAMR/NOTAMC (references, not new NOTAMs).
//  3. Blank-line separated fragments longer than minFragmentLen.
//  4. The trimmed whole text as a single chunk.
//
// Every returned chunk is trimmed; empty input returns nothing.
func Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if anchors := headerRe.FindAllStringIndex(text, -1); len(anchors) > 0 {
		return chunksFromAnchors(text, anchors)
	}

	if ids := idRe.FindAllStringIndex(text, -1); len(ids) > 0 {
		anchors := filterReferenceIDs(text, ids)
		if len(anchors) > 0 {
			return chunksFromAnchors(text, anchors)
		}
		// Every candidate was a cross-reference: the text is one NOTAM.
		return []string{strings.TrimSpace(text)}
	}

	if chunks := blankLineChunks(text); len(chunks) > 0 {
		return chunks
	}

	return []string{strings.TrimSpace(text)}
}

// chunksFromAnchors slices text so chunk i spans from anchor i to the
// start of anchor i+1 (or end of text for the last).
func chunksFromAnchors(text string, anchors [][]int) []string {
	chunks := make([]string, 0, len(anchors))
	for i, a := range anchors {
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		chunk := strings.TrimSpace(text[a[0]:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// filterReferenceIDs drops ID matches that are references to other NOTAMs
// (preceded by NOTAMR/NOTAMC within the previous ten characters).
func filterReferenceIDs(text string, matches [][]int) [][]int {
	anchors := make([][]int, 0, len(matches))
	for _, m := range matches {
		start := m[0] - 10
		if start < 0 {
			start = 0
		}
		if refSuffixRe.MatchString(text[start:m[0]]) {
			continue
		}
		anchors = append(anchors, m)
	}
	return anchors
}

// blankLineChunks splits on blank lines and keeps substantial fragments.
func blankLineChunks(text string) []string {
	var chunks []string
	for _, frag := range strings.Split(text, "\n\n") {
		frag = strings.TrimSpace(frag)
		if len(frag) > minFragmentLen {
			chunks = append(chunks, frag)
		}
	}
	return chunks
}
