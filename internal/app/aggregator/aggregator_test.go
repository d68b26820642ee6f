package aggregator

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/app/discovery"
	"loglens/internal/app/entry"
	"loglens/internal/app/filter"
	"loglens/internal/app/parser"
	"loglens/internal/app/worker"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

func testLogger() logger.Logger {
	cfg := config.DefaultConfig()
	cfg.Logging.Format = logger.JSONFormat

	return logger.NewLoggerWithOutput(cfg, io.Discard)
}

func newTestGenerator(fs afero.Fs) Generator {
	return NewGeneratorWithFs(fs, parser.NewParser(), worker.NewPoolWithSize(2), testLogger())
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func authGroups() []discovery.Group {
	newer, _ := time.Parse(time.RFC3339, "2024-01-01T10:00:00Z")
	older, _ := time.Parse(time.RFC3339, "2024-01-01T09:00:00Z")

	return []discovery.Group{
		{
			Service: "Auth",
			Files: []discovery.File{
				{Path: "ws/Auth_2024-01-01_10-00-00.log", Name: "Auth_2024-01-01_10-00-00.log", Time: newer},
				{Path: "ws/Auth_2024-01-01_09-00-00.log", Name: "Auth_2024-01-01_09-00-00.log", Time: older},
			},
		},
	}
}

func Test_Generate_MergeSortAcrossFiles(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf one\n"+
			"2024-01-01T10:00:02.000Z Inf two\n"+
			"2024-01-01T10:00:03.000Z Inf three\n")
	writeFile(t, fs, "ws/Auth_2024-01-01_09-00-00.log",
		"2024-01-01T09:00:01.000Z Inf early one\n"+
			"2024-01-01T09:00:02.000Z Inf early two\n")

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), authGroups(), filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)
	require.Len(t, doc.Entries, 5)

	// All 09:xx entries come before all 10:xx entries.
	for i := 1; i < len(doc.Entries); i++ {
		assert.False(t, doc.Entries[i].Time.Before(doc.Entries[i-1].Time),
			"entries must be non-decreasing in time")
	}
	assert.Contains(t, doc.Entries[0].Raw, "early one")
}

func Test_Generate_FoldRegionsPerSecond(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.100Z Inf a\n"+
			"2024-01-01T10:00:01.900Z Inf b\n"+
			"2024-01-01T10:00:02.000Z Inf c\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(doc.Text, "// 2024-01-01T10:00:0"))
	assert.Contains(t, doc.Text, "// 2024-01-01T10:00:01Z")
	assert.Contains(t, doc.Text, "// 2024-01-01T10:00:02Z")
	assert.Equal(t, 2, strings.Count(doc.Text, "// Folding region end"))
	assert.True(t, strings.HasSuffix(doc.Text, "// Folding region end\n"))
}

func Test_Generate_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf one\n2024-01-01T10:00:02.000Z Inf two\n")
	writeFile(t, fs, "ws/Auth_2024-01-01_09-00-00.log",
		"2024-01-01T09:00:01.000Z Inf early\n")

	g := newTestGenerator(fs)
	state := filter.NewState(time.Hour)

	first, err := g.Generate(context.Background(), authGroups(), state, DisplaySettings{})
	require.NoError(t, err)

	second, err := g.Generate(context.Background(), authGroups(), state, DisplaySettings{})
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
}

func Test_Generate_UnknownTimestampsSortFirst(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf timed\nno timestamp here\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.False(t, doc.Entries[0].HasTime())
	assert.True(t, doc.Entries[1].HasTime())
	// The epoch fold header precedes the real one.
	assert.Less(t,
		strings.Index(doc.Text, "// 1970-01-01T00:00:00Z"),
		strings.Index(doc.Text, "// 2024-01-01T10:00:01Z"))
}

func Test_Generate_LevelFilterRemovesLinesAndRows(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf informational\n"+
			"2024-01-01T10:00:01.200Z Err broken\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	state := filter.NewState(time.Hour)
	for _, l := range []entry.Level{entry.LevelInfo, entry.LevelDebug, entry.LevelWarning} {
		var err error
		state, err = filter.Apply(state, filter.Event{Type: filter.EventSetLevel, Level: l, Enabled: false})
		require.NoError(t, err)
	}

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, state, DisplaySettings{})
	require.NoError(t, err)

	require.Len(t, doc.Entries, 1)
	assert.NotContains(t, doc.Text, "informational")
	assert.Contains(t, doc.Text, "broken")
	// Header line 1, entry line 2.
	assert.Equal(t, 2, doc.Entries[0].Row)
}

func Test_Generate_RowNumbersMatchDocumentLines(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf a\n2024-01-01T10:00:02.000Z Inf b\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)

	lines := strings.Split(doc.Text, "\n")
	for _, e := range doc.Entries {
		require.LessOrEqual(t, e.Row, len(lines))
		assert.Contains(t, lines[e.Row-1], e.Service)
	}
}

func Test_Generate_Redaction(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf handle 0123456789abcdef established\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, filter.NewState(time.Hour),
		DisplaySettings{RedactIdentifiers: true})
	require.NoError(t, err)

	assert.NotContains(t, doc.Text, "2024-01-01T10:00:01.000Z")
	assert.NotContains(t, doc.Text, "0123456789abcdef")
	assert.NotContains(t, doc.Text, " Inf ")
	assert.Contains(t, doc.Text, "Auth handle")

	// With redaction off the identifier stays.
	doc, err = g.Generate(context.Background(), groups, filter.NewState(time.Hour),
		DisplaySettings{RedactIdentifiers: false})
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "0123456789abcdef")
}

func Test_Generate_EmojiServiceTags(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf hello\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, filter.NewState(time.Hour),
		DisplaySettings{Emoji: true})
	require.NoError(t, err)

	line := ""
	for _, l := range strings.Split(doc.Text, "\n") {
		if strings.Contains(l, "hello") {
			line = l
		}
	}

	require.NotEmpty(t, line)
	assert.Contains(t, line, "Auth")
	assert.NotEqual(t, "Auth", strings.Fields(line)[0], "emoji tag expected before service name")
}

func Test_Generate_SkipsUnreadableFiles(t *testing.T) {
	fs := afero.NewMemMapFs()

	// Only the newer file exists; the older one is missing on disk.
	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf survived\n")

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), authGroups(), filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)

	require.Len(t, doc.Entries, 1)
	assert.Contains(t, doc.Text, "survived")
}

func Test_Generate_SessionWindowDerivedFromFirstOccurrence(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T09:30:00.000Z Inf before session\n"+
			"2024-01-01T10:00:00.000Z Inf session abc-123 started\n"+
			"2024-01-01T10:30:00.000Z Inf inside window\n"+
			"2024-01-01T11:30:00.000Z Inf after window\n")

	groups := authGroups()
	groups[0].Files = groups[0].Files[:1]

	state := filter.NewState(time.Hour)
	state, err := filter.Apply(state, filter.Event{Type: filter.EventSetSession, Value: "abc-123"})
	require.NoError(t, err)

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), groups, state, DisplaySettings{})
	require.NoError(t, err)

	assert.NotContains(t, doc.Text, "before session")
	assert.Contains(t, doc.Text, "inside window")
	assert.NotContains(t, doc.Text, "after window")
}

func Test_Generate_Stats(t *testing.T) {
	fs := afero.NewMemMapFs()

	writeFile(t, fs, "ws/Auth_2024-01-01_10-00-00.log",
		"2024-01-01T10:00:01.000Z Inf a\n2024-01-01T10:00:02.000Z Inf b\n")
	writeFile(t, fs, "ws/Auth_2024-01-01_09-00-00.log",
		"2024-01-01T09:00:01.000Z Inf c\n")

	g := newTestGenerator(fs)

	doc, err := g.Generate(context.Background(), authGroups(), filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)
	require.Len(t, doc.Stats, 2)

	assert.Equal(t, 2, doc.Stats[0].Entries)
	assert.Equal(t, 1, doc.Stats[1].Entries)
	assert.True(t, doc.Stats[0].Enabled)
}

func Test_Generate_EmptyInput(t *testing.T) {
	g := newTestGenerator(afero.NewMemMapFs())

	doc, err := g.Generate(context.Background(), nil, filter.NewState(time.Hour), DisplaySettings{})
	require.NoError(t, err)

	assert.Empty(t, doc.Text)
	assert.Empty(t, doc.Entries)
}
