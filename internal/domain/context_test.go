package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievedContext_IsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		passages []Passage
		want     bool
	}{
		{"no passages", nil, true},
		{"whitespace only", []Passage{{Text: "  \n\t", Source: "a.pdf"}}, true},
		{"one real passage", []Passage{{Text: " ", Source: "a.pdf"}, {Text: "x", Source: "b.pdf"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRetrievedContext(tt.passages).IsEmpty())
		})
	}
}

func TestRetrievedContext_SourcesAndText(t *testing.T) {
	rc := NewRetrievedContext([]Passage{
		{Text: "beta text", Source: "b.pdf", Score: 0.9},
		{Text: "alpha text", Source: "a.pdf", Score: 0.8},
		{Text: "more beta", Source: "b.pdf", Score: 0.7},
	})

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, rc.Sources())
	assert.Equal(t,
		"[From b.pdf]:\nbeta text\n\n[From a.pdf]:\nalpha text\n\n[From b.pdf]:\nmore beta",
		rc.Text())
}

func TestRunResult_SoftFailed(t *testing.T) {
	r := SoftFailed(errors.New("connection reset"), 1)

	assert.Equal(t, RunSoftFailed, r.Status)
	assert.Equal(t, "Error in agent processing: connection reset", r.String())
	assert.True(t, IsDiagnostic(r.Transcript))
	assert.False(t, IsDiagnostic("ANALYSIS: fine"))
}

func TestSection_Text(t *testing.T) {
	s := NewSection(CollaborativeRoles()[1], "evidence:  page 4 says so")
	assert.Equal(t, "page 4 says so", s.Text())
	assert.Equal(t, 8, s.Confidence)

	d := DiagnosticSection("Error in agent processing: boom")
	assert.Equal(t, d.Body, d.Text())
	assert.Zero(t, d.Confidence)
}
