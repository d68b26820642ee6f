package timestamp

import (
	"regexp"
	"time"

	"loglens/internal/app/entry"
)

// pattern pairs a recognizer regex with the layout used to parse its match
type pattern struct {
	re     *regexp.Regexp
	layout string
}

// patterns are tried in priority order; the first match wins
var patterns = []pattern{
	// 2024-01-02T10:11:12.123456+01:00 / 2024-01-02T10:11:12.123Z
	{
		re:     regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,9}(?:Z|[+-]\d{2}:\d{2})`),
		layout: time.RFC3339Nano,
	},
	// 2024-01-02T10:11:12+01:00 without fractional seconds
	{
		re:     regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:\d{2})`),
		layout: time.RFC3339,
	},
	// Tue Jan 02 2024 10:11:12 GMT+0000 (web client logs)
	{
		re:     regexp.MustCompile(`[A-Z][a-z]{2} [A-Z][a-z]{2} \d{2} \d{4} \d{2}:\d{2}:\d{2} GMT[+-]\d{4}`),
		layout: "Mon Jan 02 2006 15:04:05 GMT-0700",
	},
}

var filenameRe = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})`)

const filenameLayout = "2006-01-02_15-04-05"

// Extract returns the first recognizable timestamp embedded in line.
// The second return value is false when no known pattern matched.
func Extract(line string) (time.Time, bool) {
	for _, p := range patterns {
		m := p.re.FindString(line)
		if m == "" {
			continue
		}

		t, err := time.Parse(p.layout, m)
		if err != nil {
			continue
		}

		return t, true
	}

	return entry.UnknownTime, false
}

// ExtractOrUnknown is Extract collapsed to the sentinel convention
func ExtractOrUnknown(line string) time.Time {
	t, _ := Extract(line)
	return t
}

// Strip removes every recognizable timestamp substring from line
func Strip(line string) string {
	for _, p := range patterns {
		line = p.re.ReplaceAllString(line, "")
	}

	return line
}

// FromFilename parses the _YYYY-MM-DD_HH-mm-ss timestamp embedded in a
// log file path. Paths without one return the zero time and false.
func FromFilename(path string) (time.Time, bool) {
	m := filenameRe.FindStringSubmatch(path)
	if m == nil {
		return time.Time{}, false
	}

	t, err := time.Parse(filenameLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
