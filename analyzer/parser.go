package analyzer

// The model answers in a loose line-oriented format: a "Severity:" line
// followed by a "Reasons:" block of bullet points. Models drift from the
// requested shape often enough that parsing runs through explicit fallback
// tiers instead of trusting the template.

import (
	"strconv"
	"strings"
)

const (
	// SeverityUnknown marks a response whose severity line defeated every
	// parse tier.
	SeverityUnknown = "Unknown"

	unparsableReasons = "Unable to parse reasons"
)

// ParseResponse extracts the severity code and reasons list from a raw model
// response.
func ParseResponse(response string) (severity, reasons string) {
	return parseSeverity(response), parseReasons(response)
}

// parseSeverity reads the first line starting with "severity:" (any case).
// Tier 1: the remainder parses as a number, clamped to 0-3. Tier 2: keyword
// match on the rubric's level names. Tier 3: Unknown.
func parseSeverity(response string) string {
	var value string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= len("severity:") && strings.EqualFold(trimmed[:len("severity:")], "severity:") {
			value = strings.TrimSpace(trimmed[len("severity:"):])
			break
		}
	}
	if value == "" {
		return SeverityUnknown
	}

	if num, err := strconv.ParseFloat(value, 64); err == nil {
		n := int(num)
		if n < 0 {
			n = 0
		}
		if n > 3 {
			n = 3
		}
		return strconv.Itoa(n)
	}

	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "non"), strings.Contains(lower, "not"):
		return "0"
	case strings.Contains(lower, "mild"):
		return "1"
	case strings.Contains(lower, "moderate"):
		return "2"
	case strings.Contains(lower, "high"):
		return "3"
	}

	return SeverityUnknown
}

// parseReasons takes the text after the first "reasons:" marker (any case)
// and collects its bullet lines. No bullets falls back to the raw trailing
// text; no trailing text at all yields the unparsable marker.
func parseReasons(response string) string {
	idx := strings.Index(strings.ToLower(response), "reasons:")
	if idx < 0 {
		return unparsableReasons
	}
	section := strings.TrimSpace(response[idx+len("reasons:"):])

	var bullets []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "•") {
			bullets = append(bullets, trimmed)
		}
	}
	if len(bullets) > 0 {
		return strings.Join(bullets, "\n")
	}

	if section != "" {
		return section
	}
	return unparsableReasons
}
