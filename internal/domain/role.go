// Package domain holds the core types of the answer-composition pipeline:
// the static role registry, retrieved context, transcript sections and the
// final query result. Nothing in this package performs I/O.
package domain

import "strings"

// RoleName identifies one reasoning participant.
type RoleName string

// The closed set of roles known to the pipeline.
const (
	RoleAnalyzer   RoleName = "Analyzer"
	RoleProver     RoleName = "Prover"
	RoleVerifier   RoleName = "Verifier"
	RoleGeneralist RoleName = "Generalist"
)

// Output markers. Each role's output must begin with its marker.
const (
	MarkerAnalysis = "ANALYSIS:"
	MarkerEvidence = "EVIDENCE:"
	MarkerFinal    = "FINAL ANSWER:"
	MarkerGeneral  = "GENERAL ANSWER:"
)

// Role describes one participant in the answer pipeline.
// Roles are defined once at package initialization and never change.
type Role struct {
	// Name is the unique role identifier.
	Name RoleName `validate:"required,oneof=Analyzer Prover Verifier Generalist"`
	// Instructions is the system message sent with every completion
	// request issued on behalf of this role.
	Instructions string `validate:"required,min=20"`
	// Marker is the literal label the role's output must begin with.
	Marker string `validate:"required,endswith=:"`
	// Title is the heading shown above the role's section.
	Title string `validate:"required"`
	// Color is a display hint consumed by renderers.
	Color string `validate:"required,oneof=blue green cyan magenta red"`
	// Confidence is a fixed display weight, never computed from output.
	Confidence int `validate:"min=0,max=10"`
}

// HasMarkerPrefix reports whether text begins with the role's marker,
// ignoring leading whitespace and letter case.
func (r Role) HasMarkerPrefix(text string) bool {
	text = strings.TrimLeft(text, " \t\r\n")
	if len(text) < len(r.Marker) {
		return false
	}
	return strings.EqualFold(text[:len(r.Marker)], r.Marker)
}

var (
	analyzer = Role{
		Name: RoleAnalyzer,
		Instructions: "You are the Research Commander. Your role is to:\n" +
			"1. Analyze the question thoroughly\n" +
			"2. Identify key concepts and requirements\n" +
			"3. Plan the research approach\n" +
			"Start your response with '" + MarkerAnalysis + "'",
		Marker:     MarkerAnalysis,
		Title:      "Commander Analysis",
		Color:      "blue",
		Confidence: 9,
	}

	prover = Role{
		Name: RoleProver,
		Instructions: "You are the Evidence Prover. Your role is to:\n" +
			"1. Search through the provided context\n" +
			"2. Find relevant evidence and citations\n" +
			"3. Support or challenge claims with specific examples\n" +
			"Start your response with '" + MarkerEvidence + "'",
		Marker:     MarkerEvidence,
		Title:      "Evidence",
		Color:      "green",
		Confidence: 8,
	}

	verifier = Role{
		Name: RoleVerifier,
		Instructions: "You are the Final Verifier. Your role is to:\n" +
			"1. Review the analysis and evidence\n" +
			"2. Verify the accuracy and completeness\n" +
			"3. Provide a clear, concise summary\n" +
			"Start your response with '" + MarkerFinal + "'",
		Marker:     MarkerFinal,
		Title:      "Final Summary",
		Color:      "cyan",
		Confidence: 9,
	}

	generalist = Role{
		Name: RoleGeneralist,
		Instructions: "You are a fallback assistant. If the context is insufficient or unrelated " +
			"to the user query, generate a general but accurate response to help the user.\n" +
			"Start your response with '" + MarkerGeneral + "'",
		Marker:     MarkerGeneral,
		Title:      "Generalist Agent Response",
		Color:      "magenta",
		Confidence: 5,
	}

	collaborative = [...]Role{analyzer, prover, verifier}

	rolesByName = map[RoleName]Role{
		RoleAnalyzer:   analyzer,
		RoleProver:     prover,
		RoleVerifier:   verifier,
		RoleGeneralist: generalist,
	}
)

// CollaborativeRoles returns the ordered collaborative path:
// Analyzer, Prover, Verifier. The returned slice is a copy.
func CollaborativeRoles() []Role {
	roles := make([]Role, len(collaborative))
	copy(roles, collaborative[:])
	return roles
}

// GeneralistRole returns the fallback role.
func GeneralistRole() Role { return generalist }

// AllRoles returns every registered role, collaborative roles first.
func AllRoles() []Role {
	return append(CollaborativeRoles(), generalist)
}

// LookupRole returns the role registered under name.
func LookupRole(name RoleName) (Role, bool) {
	r, ok := rolesByName[name]
	return r, ok
}

// ConfidenceFor returns the static confidence score for name, or 0 for an
// unknown role.
func ConfidenceFor(name RoleName) int {
	return rolesByName[name].Confidence
}
