package entry

import (
	"strings"
	"time"
)

// Level represents a derived log severity classification
type Level string

// Known severity levels
const (
	LevelInfo    Level = "info"
	LevelDebug   Level = "debug"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelUnknown Level = ""
)

// Levels lists every classifiable level in display order
var Levels = []Level{LevelInfo, LevelDebug, LevelWarning, LevelError}

// UnknownTime is the sentinel for entries whose line carried no
// recognizable timestamp. It sorts before every real timestamp.
var UnknownTime = time.Unix(0, 0).UTC()

// Entry represents one log line tagged with its origin and metadata
type Entry struct {
	Time       time.Time
	Raw        string
	Service    string
	SourceFile string
	Row        int
	Level      Level
}

// HasTime reports whether the entry carries a real timestamp
func (e Entry) HasTime() bool {
	return !e.Time.IsZero() && !e.Time.Equal(UnknownTime)
}

// shortMarkers are the canonical level tags the parser normalizes
// verbose labels into; they take priority over loose word matches.
var shortMarkers = []struct {
	marker string
	level  Level
}{
	{" Err ", LevelError},
	{" War ", LevelWarning},
	{" Deb ", LevelDebug},
	{" Inf ", LevelInfo},
}

// Classify infers a severity level from text markers in a raw line.
// Lines without any recognizable marker stay LevelUnknown.
func Classify(line string) Level {
	for _, m := range shortMarkers {
		if strings.Contains(line, m.marker) {
			return m.level
		}
	}

	upper := strings.ToUpper(line)

	switch {
	case strings.Contains(upper, "ERROR"):
		return LevelError
	case strings.Contains(upper, "WARN"):
		return LevelWarning
	case strings.Contains(upper, "DEBUG"):
		return LevelDebug
	case strings.Contains(upper, "INFO"):
		return LevelInfo
	default:
		return LevelUnknown
	}
}

// ParseLevel converts a wire-level string to a Level
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo, true
	case "debug":
		return LevelDebug, true
	case "warning", "warn":
		return LevelWarning, true
	case "error", "err":
		return LevelError, true
	default:
		return LevelUnknown, false
	}
}

// ServiceHash returns a stable non-negative hash of a service name, used
// to assign per-service tags and colors consistently across renderings.
func ServiceHash(service string) int {
	h := 0
	for _, c := range service {
		h = 31*h + int(c)
	}

	if h < 0 {
		h = -h
	}

	return h
}
