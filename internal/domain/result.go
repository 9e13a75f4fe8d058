package domain

import "strings"

// DiagnosticPrefix starts every soft-failure transcript.
const DiagnosticPrefix = "Error in agent processing: "

// AnswerPath records which branch of the pipeline produced a result.
type AnswerPath string

// Answer paths.
const (
	PathCollaborative AnswerPath = "collaborative"
	PathFallback      AnswerPath = "fallback"
	PathSoftFailed    AnswerPath = "soft_failed"
	PathError         AnswerPath = "error"
)

// RunStatus tags a RunResult.
type RunStatus int

const (
	// RunOK means the transcript holds role output.
	RunOK RunStatus = iota
	// RunSoftFailed means a completion call failed and the transcript
	// holds a diagnostic instead of role output.
	RunSoftFailed
)

// RunResult is the orchestrator's output: either Ok(transcript) or
// SoftFailed(diagnostic). At the transcript boundary both surface as text.
type RunResult struct {
	Status     RunStatus
	Path       AnswerPath
	Transcript string
	// Rounds is the number of completion calls issued.
	Rounds int
	// Reached is the last role whose output was collected, empty if none.
	Reached RoleName
	// Err is the completion failure behind a soft failure.
	Err error
}

// OK builds a successful RunResult.
func OK(path AnswerPath, transcript string, rounds int, reached RoleName) RunResult {
	return RunResult{
		Status:     RunOK,
		Path:       path,
		Transcript: transcript,
		Rounds:     rounds,
		Reached:    reached,
	}
}

// SoftFailed builds a RunResult whose transcript is the diagnostic for err.
func SoftFailed(err error, rounds int) RunResult {
	return RunResult{
		Status:     RunSoftFailed,
		Path:       PathSoftFailed,
		Transcript: DiagnosticPrefix + err.Error(),
		Rounds:     rounds,
		Err:        err,
	}
}

// String returns the plain transcript text.
func (r RunResult) String() string { return r.Transcript }

// IsDiagnostic reports whether transcript is a soft-failure diagnostic.
func IsDiagnostic(transcript string) bool {
	return strings.HasPrefix(transcript, DiagnosticPrefix)
}

// RoleDiagnostic names the pseudo-role that carries a soft-failure section.
const RoleDiagnostic RoleName = "Diagnostic"

// Section is one role's labeled contribution extracted from a transcript.
type Section struct {
	Role       RoleName
	Title      string
	Color      string
	Body       string
	Confidence int
}

// NewSection stamps body with the static attributes of role.
func NewSection(role Role, body string) Section {
	return Section{
		Role:       role.Name,
		Title:      role.Title,
		Color:      role.Color,
		Body:       body,
		Confidence: role.Confidence,
	}
}

// DiagnosticSection wraps a soft-failure diagnostic as a displayable section.
func DiagnosticSection(diagnostic string) Section {
	return Section{
		Role:  RoleDiagnostic,
		Title: "Agent Processing Error",
		Color: "red",
		Body:  diagnostic,
	}
}

// Text returns the body with the role's leading marker removed.
func (s Section) Text() string {
	role, ok := LookupRole(s.Role)
	if !ok || !role.HasMarkerPrefix(s.Body) {
		return s.Body
	}
	body := strings.TrimLeft(s.Body, " \t\r\n")
	return strings.TrimSpace(body[len(role.Marker):])
}

// QueryResult is the final, structured answer to one question.
// When Error is set only Question is meaningful.
type QueryResult struct {
	Question    string
	ContextText string
	Sources     []string
	Sections    []Section
	RawResponse string
	Path        AnswerPath
	Error       string
}

// HasError reports whether the result is an error-only result.
func (r QueryResult) HasError() bool { return r.Error != "" }
