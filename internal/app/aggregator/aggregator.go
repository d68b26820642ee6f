package aggregator

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"loglens/internal/app/discovery"
	"loglens/internal/app/entry"
	"loglens/internal/app/filter"
	"loglens/internal/app/parser"
	"loglens/internal/app/timestamp"
	"loglens/internal/app/worker"
	"loglens/internal/config/logger"
)

const foldRegionEnd = "// Folding region end"

// DisplaySettings control the cosmetic part of document generation
type DisplaySettings struct {
	Emoji             bool
	RedactIdentifiers bool
}

// FileStat summarizes one source file's contribution to the document
type FileStat struct {
	Name    string
	Path    string
	Service string
	Entries int
	Enabled bool
}

// Document is the result of one generation pass
type Document struct {
	Text    string
	Entries []entry.Entry
	Stats   []FileStat
}

// Generator merges the selected log files into one time-ordered,
// foldable document under the given filter state.
type Generator interface {
	Generate(ctx context.Context, groups []discovery.Group, state *filter.State, settings DisplaySettings) (*Document, error)
}

// generator implements the Generator interface
type generator struct {
	fs     afero.Fs
	parser parser.Parser
	pool   worker.Pool
	log    logger.Logger
}

// NewGenerator creates a generator reading from the OS filesystem
func NewGenerator(p parser.Parser, pool worker.Pool, log logger.Logger) Generator {
	return NewGeneratorWithFs(afero.NewOsFs(), p, pool, log)
}

// NewGeneratorWithFs creates a generator over an explicit filesystem
func NewGeneratorWithFs(fs afero.Fs, p parser.Parser, pool worker.Pool, log logger.Logger) Generator {
	return &generator{
		fs:     fs,
		parser: p,
		pool:   pool,
		log:    log.WithComponent("AGGREGATOR"),
	}
}

// whitespace-delimited 16-hex-digit tokens (connection/device handles)
var hexTokenRe = regexp.MustCompile(`(^|[ \t])[0-9a-fA-F]{16}([ \t]|$)`)

// Generate reads every selected file, merges the parsed entries into a
// single ascending sequence and renders the foldable document text.
// Unreadable files are skipped with a warning.
func (g *generator) Generate(ctx context.Context, groups []discovery.Group, state *filter.State, settings DisplaySettings) (*Document, error) {
	pool := g.readAll(ctx, groups, state)

	if state.SessionID() != "" && state.SessionStart().IsZero() {
		if start, found := findSessionStart(pool, state.SessionID()); found {
			state = state.WithSessionStart(start)
		}
	}

	survivors := make([]entry.Entry, 0, len(pool))
	for _, e := range pool {
		if state.Matches(e) {
			survivors = append(survivors, e)
		}
	}

	// Unknown timestamps equal the epoch sentinel, so they sort first.
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Time.Before(survivors[j].Time)
	})

	text, numbered := g.render(survivors, settings)

	return &Document{
		Text:    text,
		Entries: numbered,
		Stats:   buildStats(groups, numbered, state),
	}, nil
}

// readAll reads and parses every selected file, bounded by the worker
// pool, and concatenates the per-file results in selection order. When
// a session filter is pending the textual pre-filter is skipped since
// the effective time window is not known yet.
func (g *generator) readAll(ctx context.Context, groups []discovery.Group, state *filter.State) []entry.Entry {
	type fileRef struct {
		file    discovery.File
		service string
	}

	refs := make([]fileRef, 0)
	for _, grp := range groups {
		for _, f := range grp.Files {
			refs = append(refs, fileRef{file: f, service: grp.Service})
		}
	}

	parseState := state
	if state.SessionID() != "" && state.SessionStart().IsZero() {
		parseState = nil
	}

	results := make([][]entry.Entry, len(refs))

	var wg sync.WaitGroup

	for i, ref := range refs {
		if err := g.pool.Acquire(ctx); err != nil {
			break
		}

		wg.Add(1)

		go func(idx int, ref fileRef) {
			defer wg.Done()
			defer g.pool.Release()

			content, err := afero.ReadFile(g.fs, ref.file.Path)
			if err != nil {
				g.log.Warn().Err(err).Msgf("Skipping unreadable file: %s", ref.file.Path)
				return
			}

			results[idx] = g.parser.Parse(string(content), ref.service, ref.file.Path, parseState)
		}(i, ref)
	}

	wg.Wait()

	pool := make([]entry.Entry, 0)
	for _, r := range results {
		pool = append(pool, r...)
	}

	return pool
}

// findSessionStart locates the first timestamped occurrence of the
// session id in parse order.
func findSessionStart(pool []entry.Entry, sessionID string) (time.Time, bool) {
	for _, e := range pool {
		if e.HasTime() && strings.Contains(e.Raw, sessionID) {
			return e.Time, true
		}
	}

	return time.Time{}, false
}

// render emits the document text with per-second fold regions and
// returns the entries annotated with their final row numbers.
func (g *generator) render(entries []entry.Entry, settings DisplaySettings) (string, []entry.Entry) {
	var b strings.Builder

	numbered := make([]entry.Entry, 0, len(entries))
	row := 0
	haveRegion := false

	var currentSecond time.Time

	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteByte('\n')
		row++
	}

	for _, e := range entries {
		second := e.Time.UTC().Truncate(time.Second)

		if !haveRegion || !second.Equal(currentSecond) {
			if haveRegion {
				writeLine(foldRegionEnd)
				writeLine("")
			}

			writeLine("// " + second.Format(time.RFC3339))

			currentSecond = second
			haveRegion = true
		}

		writeLine(serviceTag(e.Service, settings) + " " + g.redact(e, settings))

		e.Row = row
		numbered = append(numbered, e)
	}

	if haveRegion {
		writeLine(foldRegionEnd)
	}

	return b.String(), numbered
}

// redact strips noise from a raw line: matched timestamps, the short
// level markers, mentions of the source file, and optionally the
// 16-hex-digit identifier tokens.
func (g *generator) redact(e entry.Entry, settings DisplaySettings) string {
	line := timestamp.Strip(e.Raw)

	for _, marker := range []string{" Inf ", " War ", " Err ", " Deb "} {
		line = strings.ReplaceAll(line, marker, " ")
	}

	if base := strings.TrimSpace(baseName(e.SourceFile)); base != "" {
		line = strings.ReplaceAll(line, base, "")
	}

	if settings.RedactIdentifiers {
		line = hexTokenRe.ReplaceAllString(line, "$1$2")
	}

	return strings.TrimSpace(line)
}

// buildStats counts each file's surviving contribution
func buildStats(groups []discovery.Group, entries []entry.Entry, state *filter.State) []FileStat {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.SourceFile]++
	}

	stats := make([]FileStat, 0)

	for _, grp := range groups {
		for _, f := range grp.Files {
			stats = append(stats, FileStat{
				Name:    f.Name,
				Path:    f.Path,
				Service: grp.Service,
				Entries: counts[f.Path],
				Enabled: state.FileEnabled(f.Name),
			})
		}
	}

	return stats
}

// emojiPalette maps services to a stable emoji tag when enabled
var emojiPalette = []string{"🟦", "🟩", "🟧", "🟪", "🟥", "🟨", "🟫", "⬜"}

// serviceTag renders the per-line service prefix
func serviceTag(service string, settings DisplaySettings) string {
	if settings.Emoji {
		return emojiPalette[entry.ServiceHash(service)%len(emojiPalette)] + " " + service
	}

	return service
}

// baseName returns the last path element without directory separators
func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}

	return path
}
