package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponseWellFormed(t *testing.T) {
	response := `Severity: 2
Reasons:
- Dismisses genuine struggle with "good vibes only"
- Implies negative emotions are a personal failing`

	severity, reasons := ParseResponse(response)
	assert.Equal(t, "2", severity)
	assert.Equal(t, "- Dismisses genuine struggle with \"good vibes only\"\n- Implies negative emotions are a personal failing", reasons)
}

func TestParseSeverityNumericClamping(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Severity: 0", "0"},
		{"Severity: 3", "3"},
		{"Severity: 7", "3"},
		{"Severity: -1", "0"},
		{"Severity: 2.5", "2"},
		{"severity: 1", "1"},
		{"SEVERITY: 2", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			severity, _ := ParseResponse(tt.line)
			assert.Equal(t, tt.want, severity)
		})
	}
}

func TestParseSeverityKeywordTiers(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Severity: non-toxic positive", "0"},
		{"Severity: not toxic at all", "0"},
		{"Severity: mildly toxic", "1"},
		{"Severity: moderately toxic", "2"},
		{"Severity: highly toxic", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			severity, _ := ParseResponse(tt.line)
			assert.Equal(t, tt.want, severity)
		})
	}
}

func TestParseSeverityUnknown(t *testing.T) {
	for _, response := range []string{
		"the post seems fine to me",
		"Severity: hard to say",
		"",
	} {
		severity, _ := ParseResponse(response)
		assert.Equal(t, SeverityUnknown, severity)
	}
}

func TestParseReasonsBulletVariants(t *testing.T) {
	response := "Severity: 1\nReasons:\n* first\n• second\n- third"
	_, reasons := ParseResponse(response)
	assert.Equal(t, "* first\n• second\n- third", reasons)
}

func TestParseReasonsFallsBackToRawSection(t *testing.T) {
	response := "Severity: 1\nReasons: the post shames readers for resting"
	_, reasons := ParseResponse(response)
	assert.Equal(t, "the post shames readers for resting", reasons)
}

func TestParseReasonsUnparsable(t *testing.T) {
	_, reasons := ParseResponse("Severity: 1")
	assert.Equal(t, "Unable to parse reasons", reasons)

	_, reasons = ParseResponse("Severity: 1\nReasons:")
	assert.Equal(t, "Unable to parse reasons", reasons)
}
