package parser

import (
	"strings"

	"loglens/internal/app/entry"
	"loglens/internal/app/filter"
	"loglens/internal/app/timestamp"
)

// replacement canonicalizes a verbose repeated label into a short tag.
// Replacements run over the whole file content before line splitting.
type replacement struct {
	old string
	new string
}

// defaultReplacements collapse the verbose bracketed severity labels
// some services emit into the short three-letter markers the rest of
// the pipeline keys on. Order matters: longer labels first.
var defaultReplacements = []replacement{
	{old: "[Information] ", new: " Inf "},
	{old: "[Warning] ", new: " War "},
	{old: "[Error] ", new: " Err "},
	{old: "[Debug] ", new: " Deb "},
	{old: "<PII_REDACTED>", new: "<PII>"},
}

// Parser turns raw file content into tagged log entries
type Parser interface {
	Parse(content, service, sourceFile string, state *filter.State) []entry.Entry
}

// parser implements the Parser interface
type parser struct {
	replacements []replacement
}

// NewParser creates a parser with the default replacement set
func NewParser() Parser {
	return &parser{replacements: defaultReplacements}
}

// Parse applies the replacement pass, splits content into lines and
// returns one entry per surviving line. When state is non-nil its
// textual predicates are evaluated here so filtered lines never
// allocate an entry.
func (p *parser) Parse(content, service, sourceFile string, state *filter.State) []entry.Entry {
	for _, r := range p.replacements {
		content = strings.ReplaceAll(content, r.old, r.new)
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	// A terminal newline yields one empty trailing segment; drop it.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	entries := make([]entry.Entry, 0, len(lines))

	for _, line := range lines {
		ts := timestamp.ExtractOrUnknown(line)

		if state != nil && !state.MatchesText(line, ts) {
			continue
		}

		entries = append(entries, entry.Entry{
			Time:       ts,
			Raw:        line,
			Service:    service,
			SourceFile: sourceFile,
			Level:      entry.Classify(line),
		})
	}

	return entries
}
