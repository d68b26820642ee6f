package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/entry"
)

func testDocument() *aggregator.Document {
	ts, _ := time.Parse(time.RFC3339, "2024-01-01T10:00:01Z")

	return &aggregator.Document{
		Text: "// 2024-01-01T10:00:01Z\n" +
			"Auth login ok\n" +
			"Auth login denied\n" +
			"// Folding region end\n",
		Entries: []entry.Entry{
			{Time: ts, Raw: "login ok", Service: "Auth", Row: 2, Level: entry.LevelInfo},
			{Time: ts, Raw: "login denied", Service: "Auth", Row: 3, Level: entry.LevelError},
		},
		Stats: []aggregator.FileStat{
			{Name: "Auth_2024-01-01_10-00-00.log", Service: "Auth", Entries: 2, Enabled: true},
		},
	}
}

func Test_Render_IncludesAllDocumentLines(t *testing.T) {
	var b strings.Builder

	NewRenderer().Render(&b, testDocument())

	out := b.String()
	assert.Contains(t, out, "login ok")
	assert.Contains(t, out, "login denied")
	assert.Contains(t, out, "// 2024-01-01T10:00:01Z")
	assert.Contains(t, out, "// Folding region end")
}

func Test_Render_BannerCounts(t *testing.T) {
	var b strings.Builder

	NewRenderer().RenderBanner(&b, testDocument())

	out := b.String()
	assert.Contains(t, out, "2 entries from 1 files, 1 services")
}

func Test_Render_EmptyDocument(t *testing.T) {
	var b strings.Builder

	NewRenderer().Render(&b, &aggregator.Document{})

	out := b.String()
	assert.Contains(t, out, "0 entries from 0 files, 0 services")

	// Banner plus rule only, no document lines.
	require.Equal(t, 2, strings.Count(out, "\n"))
}
