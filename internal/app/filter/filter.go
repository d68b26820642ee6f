package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"loglens/internal/app/entry"
	"loglens/internal/app/errors"
)

// boundOwner tracks which command most recently set the lower time bound
type boundOwner int

const (
	ownerNone boundOwner = iota
	ownerManual
	ownerSession
)

// dateLayouts accepted for fromDate/tillDate values, tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// keyword is a compiled keyword filter with its checkbox state
type keyword struct {
	re      *regexp.Regexp
	enabled bool
}

// State is an immutable snapshot of every filter dimension. All
// mutation goes through Apply, which returns the next snapshot.
type State struct {
	from       time.Time
	till       time.Time
	fromOwner  boundOwner
	dropNoTime bool

	levels   map[entry.Level]bool
	keywords map[string]*keyword
	files    map[string]bool

	sessionID    string
	sessionStart time.Time
	window       time.Duration
}

// NewState returns a State that allows everything
func NewState(window time.Duration) *State {
	levels := make(map[entry.Level]bool, len(entry.Levels))
	for _, l := range entry.Levels {
		levels[l] = true
	}

	return &State{
		levels:   levels,
		keywords: make(map[string]*keyword),
		files:    make(map[string]bool),
		window:   window,
	}
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	next := *s

	next.levels = make(map[entry.Level]bool, len(s.levels))
	for k, v := range s.levels {
		next.levels[k] = v
	}

	next.keywords = make(map[string]*keyword, len(s.keywords))
	for k, v := range s.keywords {
		kw := *v
		next.keywords[k] = &kw
	}

	next.files = make(map[string]bool, len(s.files))
	for k, v := range s.files {
		next.files[k] = v
	}

	return &next
}

// EventType identifies a filter mutation
type EventType string

// Filter mutation events
const (
	EventAddKeyword     EventType = "addKeywordFilter"
	EventRemoveKeyword  EventType = "removeKeywordFilter"
	EventToggleKeyword  EventType = "toggleKeywordFilter"
	EventSetLevel       EventType = "setLogLevel"
	EventSetFrom        EventType = "setFromDate"
	EventSetTill        EventType = "setTillDate"
	EventSetSession     EventType = "setSessionIdFilter"
	EventClearSession   EventType = "removeSessionIdFilter"
	EventSetDropNoTime  EventType = "removeEntriesWithNoEventTime"
	EventSetFileEnabled EventType = "setFileEnabled"
)

// Event describes one filter mutation; unused fields stay zero
type Event struct {
	Type    EventType
	Keyword string
	Level   entry.Level
	Enabled bool
	Value   string
	File    string
}

// Apply transforms one state into the next. On validation failure the
// original state is returned unchanged along with the error.
func Apply(s *State, ev Event) (*State, error) {
	next := s.Clone()

	switch ev.Type {
	case EventAddKeyword:
		re, err := regexp.Compile("(?i)" + ev.Keyword)
		if err != nil {
			return s, fmt.Errorf("%w: %q", errors.ErrInvalidKeywordPattern, ev.Keyword)
		}

		next.keywords[ev.Keyword] = &keyword{re: re, enabled: true}
	case EventRemoveKeyword:
		delete(next.keywords, ev.Keyword)
	case EventToggleKeyword:
		kw, exists := next.keywords[ev.Keyword]
		if !exists {
			re, err := regexp.Compile("(?i)" + ev.Keyword)
			if err != nil {
				return s, fmt.Errorf("%w: %q", errors.ErrInvalidKeywordPattern, ev.Keyword)
			}

			next.keywords[ev.Keyword] = &keyword{re: re, enabled: ev.Enabled}

			break
		}

		kw.enabled = ev.Enabled
	case EventSetLevel:
		next.levels[ev.Level] = ev.Enabled
	case EventSetFrom:
		t, err := parseBound(ev.Value)
		if err != nil {
			return s, err
		}

		next.from = t
		if t.IsZero() {
			if next.fromOwner == ownerManual {
				next.fromOwner = ownerNone
			}
		} else {
			next.fromOwner = ownerManual
		}
	case EventSetTill:
		t, err := parseBound(ev.Value)
		if err != nil {
			return s, err
		}

		next.till = t
	case EventSetSession:
		next.sessionID = ev.Value
		next.sessionStart = time.Time{}
		next.fromOwner = ownerSession
	case EventClearSession:
		next.sessionID = ""
		next.sessionStart = time.Time{}

		if next.fromOwner == ownerSession {
			if next.from.IsZero() {
				next.fromOwner = ownerNone
			} else {
				next.fromOwner = ownerManual
			}
		}
	case EventSetDropNoTime:
		next.dropNoTime = ev.Enabled
	case EventSetFileEnabled:
		next.files[ev.File] = ev.Enabled
	default:
		return s, fmt.Errorf("%w: %q", errors.ErrUnknownFilterEvent, ev.Type)
	}

	return next, nil
}

// parseBound parses a date string; empty clears the bound
func parseBound(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", errors.ErrInvalidTimeBound, value)
}

// WithSessionStart returns a copy carrying the derived session start time
func (s *State) WithSessionStart(t time.Time) *State {
	next := s.Clone()
	next.sessionStart = t

	return next
}

// Matches evaluates an entry against every active dimension, in order:
// file-enabled, no-event-time, time bounds, log level, keywords.
func (s *State) Matches(e entry.Entry) bool {
	if !s.FileEnabled(filepath.Base(e.SourceFile)) {
		return false
	}

	if s.dropNoTime && !e.HasTime() {
		return false
	}

	if e.HasTime() && !s.timeOK(e.Time) {
		return false
	}

	if e.Level != entry.LevelUnknown && !s.levels[e.Level] {
		return false
	}

	return s.keywordOK(e.Raw)
}

// MatchesText evaluates the textual dimensions only (no-event-time,
// time bounds, keywords); used by the parser to drop lines early.
func (s *State) MatchesText(line string, ts time.Time) bool {
	hasTime := !ts.IsZero() && !ts.Equal(entry.UnknownTime)

	if s.dropNoTime && !hasTime {
		return false
	}

	if hasTime && !s.timeOK(ts) {
		return false
	}

	return s.keywordOK(line)
}

// timeOK checks a real timestamp against the effective window
func (s *State) timeOK(t time.Time) bool {
	lo := s.from
	hi := s.till

	if s.fromOwner == ownerSession {
		if s.sessionStart.IsZero() {
			// Session window not derived yet; no lower bound applies.
			lo = time.Time{}
		} else {
			lo = s.sessionStart

			end := s.sessionStart.Add(s.window)
			if hi.IsZero() || end.Before(hi) {
				hi = end
			}
		}
	}

	if !lo.IsZero() && t.Before(lo) {
		return false
	}

	if !hi.IsZero() && t.After(hi) {
		return false
	}

	return true
}

// keywordOK applies the keyword disjunction: if any keyword filter is
// enabled the line must match at least one of them.
func (s *State) keywordOK(line string) bool {
	anyEnabled := false

	for _, kw := range s.keywords {
		if !kw.enabled {
			continue
		}

		anyEnabled = true

		if kw.re.MatchString(line) {
			return true
		}
	}

	return !anyEnabled
}

// ActiveCount returns how many dimensions are currently restricting
func (s *State) ActiveCount() int {
	count := 0

	if !s.from.IsZero() || !s.till.IsZero() {
		count++
	}

	if s.dropNoTime {
		count++
	}

	for _, enabled := range s.levels {
		if !enabled {
			count++
			break
		}
	}

	for _, kw := range s.keywords {
		if kw.enabled {
			count++
			break
		}
	}

	if s.sessionID != "" {
		count++
	}

	for _, enabled := range s.files {
		if !enabled {
			count++
			break
		}
	}

	return count
}

// FileEnabled reports whether a file survives the per-file checkboxes;
// files never mentioned default to enabled.
func (s *State) FileEnabled(name string) bool {
	enabled, exists := s.files[name]
	if !exists {
		return true
	}

	return enabled
}

// SessionID returns the active session id filter, empty when unset
func (s *State) SessionID() string {
	return s.sessionID
}

// SessionStart returns the derived session start, zero when unknown
func (s *State) SessionStart() time.Time {
	return s.sessionStart
}

// Keywords returns keyword filters and their checkbox states
func (s *State) Keywords() map[string]bool {
	result := make(map[string]bool, len(s.keywords))
	for k, kw := range s.keywords {
		result[k] = kw.enabled
	}

	return result
}

// LevelEnabled reports whether a level passes the level dimension
func (s *State) LevelEnabled(l entry.Level) bool {
	return s.levels[l]
}
