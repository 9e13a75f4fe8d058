package application

import (
	"strings"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// markerHit is one occurrence of a role marker in a transcript.
type markerHit struct {
	pos  int
	role int
}

// Segment splits a raw transcript into labeled sections.
//
// A transcript that mentions the Generalist marker anywhere becomes a single
// Generalist section. Otherwise each collaborative role whose marker occurs
// yields one section that starts at the marker's first occurrence and ends
// at the next occurrence of a different marker, or at the end of the text.
// Matching ignores ASCII case; bodies keep the original casing. Text outside
// any section is dropped. Sections are returned in registry order.
func Segment(transcript string) []domain.Section {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	generalist := domain.GeneralistRole()
	if indexFold(transcript, generalist.Marker) >= 0 {
		return []domain.Section{domain.NewSection(generalist, strings.TrimSpace(transcript))}
	}

	roles := domain.CollaborativeRoles()
	hits := scanMarkers(transcript, roles)

	first := make([]int, len(roles))
	for i := range first {
		first[i] = -1
	}
	for i, h := range hits {
		if first[h.role] < 0 {
			first[h.role] = i
		}
	}

	sections := make([]domain.Section, 0, len(roles))
	for r, idx := range first {
		if idx < 0 {
			continue
		}
		start, end := hits[idx].pos, len(transcript)
		for _, h := range hits[idx+1:] {
			if h.role != r {
				end = h.pos
				break
			}
		}
		sections = append(sections, domain.NewSection(roles[r], strings.TrimSpace(transcript[start:end])))
	}
	return sections
}

// scanMarkers records every marker occurrence in one left-to-right pass, so
// hits come out ordered by position.
func scanMarkers(s string, roles []domain.Role) []markerHit {
	var hits []markerHit
	for i := 0; i < len(s); i++ {
		for r, role := range roles {
			if hasPrefixFold(s[i:], role.Marker) {
				hits = append(hits, markerHit{pos: i, role: r})
				break
			}
		}
	}
	return hits
}

// indexFold returns the byte offset of the first ASCII case-insensitive
// occurrence of marker in s, or -1.
func indexFold(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if hasPrefixFold(s[i:], marker) {
			return i
		}
	}
	return -1
}

// hasPrefixFold compares byte-wise with ASCII case folding. Markers are
// ASCII, so offsets stay valid in the original string.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for j := 0; j < len(prefix); j++ {
		if upperASCII(s[j]) != upperASCII(prefix[j]) {
			return false
		}
	}
	return true
}

func upperASCII(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
