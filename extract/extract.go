package extract

// Pure text normalization for scraped feed content. Everything in this
// package is deterministic and does no I/O, so the ingestion loop can call
// it per element without caring about ordering or retries.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hashtagRe      = regexp.MustCompile(`#\w+`)
	relativeDateRe = regexp.MustCompile(`^(\d+)([dhmsw])`)
	degreeMarkerRe = regexp.MustCompile(`\s*\b\d+(st|nd|rd|th)\+?.*$`)
)

// Hashtags returns every #token in text joined with ", ", in order of first
// appearance. Duplicates are kept verbatim. Returns "" when text has no tags.
func Hashtags(text string) string {
	tags := hashtagRe.FindAllString(text, -1)
	if len(tags) == 0 {
		return ""
	}
	return strings.Join(tags, ", ")
}

// RemoveDuplicatedText collapses the rendering artifact where a post's text
// appears twice back to back. Tried in order: an exact even split, then two
// identical leading lines, then the trimmed input unchanged.
func RemoveDuplicatedText(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	if len(trimmed)%2 == 0 {
		half := len(trimmed) / 2
		if trimmed[:half] == trimmed[half:] {
			return strings.TrimSpace(trimmed[:half])
		}
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) >= 2 {
		first := strings.TrimSpace(lines[0])
		second := strings.TrimSpace(lines[1])
		if first != "" && first == second {
			return first
		}
	}

	return trimmed
}

// CleanAuthorName normalizes a raw author string: collapses duplicated
// rendering, drops everything from a " • " separator on, and strips a
// trailing connection-degree marker like "3rd+".
func CleanAuthorName(text string) string {
	name := RemoveDuplicatedText(text)
	if name == "" {
		return ""
	}

	if idx := strings.Index(name, " • "); idx >= 0 {
		name = name[:idx]
	}

	name = degreeMarkerRe.ReplaceAllString(name, "")

	// A trailing marker can mask a doubled rendering ("NameName 1st"), so
	// collapse once more now that the suffix is gone.
	return RemoveDuplicatedText(name)
}

// ConvertRelativeDate resolves a relative-date token ("3d", "5h", "2w", ...)
// against now and returns the calendar date formatted YYYY-MM-DD. Tokens
// that do not start with a magnitude and unit return "".
func ConvertRelativeDate(token string, now time.Time) string {
	m := relativeDateRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return ""
	}

	magnitude, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}

	var d time.Duration
	switch m[2] {
	case "d":
		d = time.Duration(magnitude) * 24 * time.Hour
	case "h":
		d = time.Duration(magnitude) * time.Hour
	case "m":
		d = time.Duration(magnitude) * time.Minute
	case "s":
		d = time.Duration(magnitude) * time.Second
	case "w":
		d = time.Duration(magnitude) * 7 * 24 * time.Hour
	}

	return now.Add(-d).Format("2006-01-02")
}

var activityURNRe = regexp.MustCompile(`urn:li:activity:(\d+)`)

// PostIDFromURN pulls the numeric activity identifier out of a platform URN
// such as "urn:li:activity:7189...". Returns "" when the value carries no
// activity URN.
func PostIDFromURN(urn string) string {
	m := activityURNRe.FindStringSubmatch(urn)
	if m == nil {
		return ""
	}
	return m[1]
}

// PostURL derives the canonical post URL for a URN-derived identity.
func PostURL(postID string) string {
	return fmt.Sprintf("https://www.linkedin.com/feed/update/urn:li:activity:%s/", postID)
}
